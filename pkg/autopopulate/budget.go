package autopopulate

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/unyte/adconnect/pkg/models"
)

// DefaultCurrency is used when neither the budget answer nor a currency answer names one.
const DefaultCurrency = "USD"

const linkedInGroup = "linkedin"

// platformTable groups platform names that share one slice of a budget.
var platformTable = newAliasTable([]aliasEntry{
	{Value: linkedInGroup, Aliases: []string{"linkedin", "linked in"}},
	{Value: "meta", Aliases: []string{"facebook", "meta", "instagram", "fb", "ig"}},
	{Value: "google", Aliases: []string{"google", "google ads", "adwords", "youtube", "display network"}},
	{Value: "tiktok", Aliases: []string{"tiktok", "tik tok"}},
	{Value: "x", Aliases: []string{"twitter"}},
	{Value: "microsoft", Aliases: []string{"bing", "microsoft ads", "microsoft advertising"}},
	{Value: "snapchat", Aliases: []string{"snapchat"}},
	{Value: "pinterest", Aliases: []string{"pinterest"}},
	{Value: "reddit", Aliases: []string{"reddit"}},
})

var dailyTable = newAliasTable([]aliasEntry{
	{Value: string(models.BudgetTypeDaily), Aliases: []string{
		"daily", "per day", "a day", "/day", "each day", "every day", "day-to-day",
	}},
})

var currencyNameTable = newAliasTable([]aliasEntry{
	{Value: "USD", Aliases: []string{"usd", "us dollar", "us dollars", "dollar", "dollars"}},
	{Value: "EUR", Aliases: []string{"eur", "euro", "euros"}},
	{Value: "GBP", Aliases: []string{"gbp", "pound", "pounds", "sterling"}},
	{Value: "CAD", Aliases: []string{"cad", "canadian dollar", "canadian dollars"}},
	{Value: "AUD", Aliases: []string{"aud", "australian dollar", "australian dollars"}},
	{Value: "NZD", Aliases: []string{"nzd"}},
	{Value: "SGD", Aliases: []string{"sgd", "singapore dollar", "singapore dollars"}},
	{Value: "INR", Aliases: []string{"inr", "rupee", "rupees"}},
	{Value: "JPY", Aliases: []string{"jpy", "yen"}},
	{Value: "CHF", Aliases: []string{"chf", "swiss franc", "swiss francs"}},
	{Value: "SEK", Aliases: []string{"sek", "kronor"}},
	{Value: "AED", Aliases: []string{"aed", "dirham", "dirhams"}},
})

var currencySymbols = map[string]string{
	"$":   "USD",
	"us$": "USD",
	"€":   "EUR",
	"£":   "GBP",
	"¥":   "JPY",
	"₹":   "INR",
	"a$":  "AUD",
	"au$": "AUD",
	"c$":  "CAD",
	"ca$": "CAD",
	"s$":  "SGD",
	"nz$": "NZD",
}

const currencyCodes = `usd|eur|gbp|cad|aud|nzd|sgd|inr|jpy|chf|sek|aed`

var moneyPattern = regexp.MustCompile(`(?i)` +
	`(?:((?:us|au|ca|nz|a|c|s)?\$|€|£|¥|₹)|\b(` + currencyCodes + `)\b)?\s?` +
	`(\d{1,3}(?:,\d{3})+|\d{1,3}(?:\.\d{3})+|\d+)(\.\d+|,\d{1,2})?` +
	`(?:\s?(k|mm|m|thousand|million)\b)?` +
	`(?:\s?\b(` + currencyCodes + `)\b)?`)

// Thousands may be grouped with commas ("5,000.50") or dots ("5.000,50").
var groupSeparators = strings.NewReplacer(",", "", ".", "")

type budgetMinimum struct {
	Daily float64
	Total float64
}

var standardMinimums = map[string]budgetMinimum{
	"USD": {Daily: 10, Total: 100},
	"EUR": {Daily: 10, Total: 100},
	"GBP": {Daily: 10, Total: 100},
	"CAD": {Daily: 14, Total: 140},
	"AUD": {Daily: 15, Total: 150},
	"NZD": {Daily: 16, Total: 160},
	"SGD": {Daily: 14, Total: 140},
	"CHF": {Daily: 10, Total: 100},
	"SEK": {Daily: 100, Total: 1000},
	"AED": {Daily: 37, Total: 370},
	"INR": {Daily: 800, Total: 8000},
	"JPY": {Daily: 1500, Total: 15000},
}

var messagingMinimums = map[string]budgetMinimum{
	"USD": {Daily: 15, Total: 150},
	"EUR": {Daily: 15, Total: 150},
	"GBP": {Daily: 12, Total: 120},
	"CAD": {Daily: 20, Total: 200},
	"AUD": {Daily: 22, Total: 220},
	"NZD": {Daily: 25, Total: 250},
	"SGD": {Daily: 20, Total: 200},
	"CHF": {Daily: 14, Total: 140},
	"SEK": {Daily: 150, Total: 1500},
	"AED": {Daily: 55, Total: 550},
	"INR": {Daily: 1200, Total: 12000},
	"JPY": {Daily: 2200, Total: 22000},
}

// MinimumBudgets is the per-campaign-type, per-currency LinkedIn minimum table.
var MinimumBudgets = map[models.CampaignType]map[string]budgetMinimum{
	models.CampaignTypeSponsoredUpdates: standardMinimums,
	models.CampaignTypeTextAd:           standardMinimums,
	models.CampaignTypeSponsoredInMails: messagingMinimums,
	models.CampaignTypeDynamic:          messagingMinimums,
}

const (
	dailySuggestedFactor = 5
	dailyOptimalFactor   = 10
	totalSuggestedFactor = 3
	totalOptimalFactor   = 6
)

// MinimumBudget returns the minimum allocation for a campaign type, cadence and currency.
// Unknown campaign types fall back to sponsored updates and unknown currencies to USD.
func MinimumBudget(campaignType models.CampaignType, budgetType models.BudgetType, currency string) float64 {
	table, ok := MinimumBudgets[campaignType]
	if !ok {
		table = MinimumBudgets[models.CampaignTypeSponsoredUpdates]
	}

	row, ok := table[strings.ToUpper(currency)]
	if !ok {
		row = table[DefaultCurrency]
	}

	if budgetType == models.BudgetTypeDaily {
		return row.Daily
	}

	return row.Total
}

// Suggestions returns minimum, suggested and optimal budgets. Suggested is never below the minimum.
func Suggestions(campaignType models.CampaignType, budgetType models.BudgetType, currency string) models.BudgetSuggestions {
	minimum := MinimumBudget(campaignType, budgetType, currency)

	suggestedFactor, optimalFactor := float64(totalSuggestedFactor), float64(totalOptimalFactor)
	if budgetType == models.BudgetTypeDaily {
		suggestedFactor, optimalFactor = dailySuggestedFactor, dailyOptimalFactor
	}

	return models.BudgetSuggestions{
		Minimum:   minimum,
		Suggested: math.Ceil(minimum * suggestedFactor),
		Optimal:   math.Ceil(minimum * optimalFactor),
	}
}

// ValidateBudget checks an allocated amount against the minimum table.
func ValidateBudget(allocated float64, campaignType models.CampaignType, budgetType models.BudgetType, currency string) models.BudgetValidation {
	minimum := MinimumBudget(campaignType, budgetType, currency)

	return models.BudgetValidation{
		IsValid:         allocated >= minimum,
		MinimumRequired: minimum,
	}
}

type moneyMention struct {
	amount   float64
	currency string
	marked   bool
}

// ParseMoney returns the most likely budget amount mentioned in text. The first amount carrying
// a currency symbol or code wins; otherwise the largest bare number is used. Bare numbers that
// look like years and percentages are ignored.
func ParseMoney(text string) (amount float64, currency string, ok bool) {
	var bare *moneyMention

	for _, match := range moneyPattern.FindAllStringSubmatchIndex(text, -1) {
		mention, valid := parseMention(text, match)
		if !valid {
			continue
		}

		if mention.marked {
			return mention.amount, mention.currency, true
		}

		if bare == nil || mention.amount > bare.amount {
			bare = &mention
		}
	}

	if bare != nil {
		return bare.amount, "", true
	}

	return 0, "", false
}

func parseMention(text string, match []int) (moneyMention, bool) {
	group := func(i int) string {
		if match[2*i] < 0 {
			return ""
		}

		return text[match[2*i]:match[2*i+1]]
	}

	symbol := strings.ToLower(group(1))
	prefixCode := strings.ToUpper(group(2))
	digits := groupSeparators.Replace(group(3))
	decimals := strings.Replace(group(4), ",", ".", 1)
	suffix := strings.ToLower(group(5))
	postCode := strings.ToUpper(group(6))

	if end := match[1]; end < len(text) && text[end] == '%' {
		return moneyMention{}, false
	}

	value, err := strconv.ParseFloat(digits+decimals, 64)
	if err != nil {
		return moneyMention{}, false
	}

	switch suffix {
	case "k", "thousand":
		value *= 1_000
	case "m", "mm", "million":
		value *= 1_000_000
	}

	mention := moneyMention{amount: value}

	switch {
	case symbol != "":
		mention.currency = currencySymbols[symbol]
		mention.marked = true
	case prefixCode != "":
		mention.currency = prefixCode
		mention.marked = true
	case postCode != "":
		mention.currency = postCode
		mention.marked = true
	}

	if !mention.marked && suffix == "" && decimals == "" && looksLikeYear(value) {
		return moneyMention{}, false
	}

	return mention, value > 0
}

func looksLikeYear(v float64) bool {
	return v >= 1900 && v <= 2100 && v == math.Trunc(v)
}

// DetectCurrency finds a currency symbol, code or name in text.
func DetectCurrency(text string) (string, bool) {
	if _, currency, ok := ParseMoney(text); ok && currency != "" {
		return currency, true
	}

	return currencyNameTable.byPosition(text)
}

// DetectPlatforms returns the distinct platform groups mentioned across the given texts.
func DetectPlatforms(texts ...string) []string {
	return platformTable.all(strings.Join(texts, " \n "))
}

// DetectBudgetType returns daily when any daily keyword is present and total otherwise.
func DetectBudgetType(texts ...string) models.BudgetType {
	if _, ok := dailyTable.byPriority(strings.Join(texts, " \n ")); ok {
		return models.BudgetTypeDaily
	}

	return models.BudgetTypeTotal
}

// AnalyzeBudget derives the LinkedIn share of the budget described in the form.
func AnalyzeBudget(form *models.StructuredFormData, campaignType models.CampaignType) models.BudgetInfo {
	info := models.BudgetInfo{
		BudgetType:     models.BudgetTypeTotal,
		Currency:       DefaultCurrency,
		PlatformGroups: 1,
	}

	entry, found := findBudgetEntry(form)
	if !found {
		return info
	}

	platformsAnswer, _ := FindField(form, FieldPlatforms)

	total, currency, _ := ParseMoney(entry.Answer)
	if currency == "" {
		currency, _ = DetectCurrency(entry.Answer)
	}

	if currency == "" {
		if answer, ok := FindField(form, FieldCurrency); ok {
			currency, _ = DetectCurrency(answer)
		}
	}

	if currency != "" {
		info.Currency = currency
	}

	info.TotalBudget = total
	info.BudgetType = DetectBudgetType(entry.Question, entry.Answer)

	info.Platforms = DetectPlatforms(entry.Answer)
	if len(info.Platforms) == 0 && platformsAnswer != "" {
		info.Platforms = DetectPlatforms(platformsAnswer)
	}
	if len(info.Platforms) > 1 {
		info.PlatformGroups = len(info.Platforms)
	}

	for _, p := range info.Platforms {
		if p == linkedInGroup {
			info.IsLinkedInPlatform = true
		}
	}

	info.AllocatedBudget = round2(info.TotalBudget / float64(info.PlatformGroups))
	info.Validation = ValidateBudget(info.AllocatedBudget, campaignType, info.BudgetType, info.Currency)

	return info
}

// findBudgetEntry returns the first budget question whose answer holds an amount. Questions such
// as "Budget currency" match the budget synonyms without carrying one; when no answer parses,
// the first budget question is still used so its cadence and currency are picked up.
func findBudgetEntry(form *models.StructuredFormData) (models.FormQuestion, bool) {
	entries := matchingEntries(form, FieldSynonyms[FieldBudget])
	if len(entries) == 0 {
		return models.FormQuestion{}, false
	}

	for _, entry := range entries {
		if _, _, ok := ParseMoney(entry.Answer); ok {
			return entry, true
		}
	}

	return entries[0], true
}

// AllocationSummary renders a human-readable breakdown of the budget analysis.
func AllocationSummary(info models.BudgetInfo) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Total budget: %s %.2f (%s)\n", info.Currency, info.TotalBudget, info.BudgetType)

	platforms := "none detected"
	if len(info.Platforms) > 0 {
		platforms = strings.Join(info.Platforms, ", ")
	}

	fmt.Fprintf(&b, "Platforms: %s (%d group(s))\n", platforms, info.PlatformGroups)
	fmt.Fprintf(&b, "LinkedIn allocation: %s %.2f\n", info.Currency, info.AllocatedBudget)

	status := "valid"
	if !info.Validation.IsValid {
		status = "below minimum"
	}

	fmt.Fprintf(&b, "Minimum required: %s %s (%s)", info.Currency, formatAmount(info.Validation.MinimumRequired), status)

	return b.String()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// formatAmount renders an amount the way a form input shows it: no trailing zeros.
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
