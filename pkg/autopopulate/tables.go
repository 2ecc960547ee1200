package autopopulate

import (
	"regexp"
	"strings"

	"github.com/unyte/adconnect/pkg/models"
)

// aliasEntry maps a set of free-text aliases onto one normalized value. Exact aliases only
// match with the same letter case, for abbreviations that double as ordinary words.
type aliasEntry struct {
	Value   string
	Aliases []string
	Exact   []string
}

type compiledAlias struct {
	value   string
	length  int
	pattern *regexp.Regexp
}

// aliasTable is an ordered, word-boundary keyword table.
type aliasTable struct {
	entries [][]compiledAlias
}

func newAliasTable(entries []aliasEntry) *aliasTable {
	table := &aliasTable{entries: make([][]compiledAlias, 0, len(entries))}

	for _, entry := range entries {
		compiled := make([]compiledAlias, 0, len(entry.Aliases)+len(entry.Exact))
		for _, alias := range entry.Aliases {
			compiled = append(compiled, compileAlias(entry.Value, alias, `(?i)`))
		}

		for _, alias := range entry.Exact {
			compiled = append(compiled, compileAlias(entry.Value, alias, ""))
		}

		table.entries = append(table.entries, compiled)
	}

	return table
}

func compileAlias(value, alias, flags string) compiledAlias {
	return compiledAlias{
		value:   value,
		length:  len(alias),
		pattern: regexp.MustCompile(flags + `(^|[^\pL\pN])` + regexp.QuoteMeta(alias) + `($|[^\pL\pN])`),
	}
}

// byPriority returns the value of the first table entry with any alias present in text.
func (t *aliasTable) byPriority(text string) (string, bool) {
	for _, aliases := range t.entries {
		for _, alias := range aliases {
			if alias.pattern.MatchString(text) {
				return alias.value, true
			}
		}
	}

	return "", false
}

// byPosition returns the value whose alias occurs earliest in text; longer aliases win ties.
func (t *aliasTable) byPosition(text string) (string, bool) {
	best := compiledAlias{}
	bestPos := -1

	for _, aliases := range t.entries {
		for _, alias := range aliases {
			loc := alias.pattern.FindStringIndex(text)
			if loc == nil {
				continue
			}

			if bestPos == -1 || loc[0] < bestPos || (loc[0] == bestPos && alias.length > best.length) {
				best = alias
				bestPos = loc[0]
			}
		}
	}

	if bestPos == -1 {
		return "", false
	}

	return best.value, true
}

// all returns every distinct value with an alias present in text, in table order.
func (t *aliasTable) all(text string) []string {
	var values []string

	for _, aliases := range t.entries {
		for _, alias := range aliases {
			if alias.pattern.MatchString(text) {
				values = append(values, alias.value)

				break
			}
		}
	}

	return values
}

// Checked in order: the more specific formats come before the generic sponsored-content keywords.
var objectiveTable = newAliasTable([]aliasEntry{
	{Value: string(models.CampaignTypeSponsoredInMails), Aliases: []string{
		"inmail", "in-mail", "sponsored message", "message ad", "message ads", "conversation ad", "conversation ads",
	}},
	{Value: string(models.CampaignTypeTextAd), Aliases: []string{
		"text ad", "text ads", "search style", "sidebar",
	}},
	{Value: string(models.CampaignTypeDynamic), Aliases: []string{
		"dynamic", "follower", "followers", "spotlight", "personalized ad", "personalised ad",
	}},
	{Value: string(models.CampaignTypeSponsoredUpdates), Aliases: []string{
		"awareness", "brand", "engagement", "traffic", "website visit", "website visits", "lead", "leads",
		"lead generation", "conversion", "conversions", "video", "views", "reach", "impressions",
		"sponsored content", "sponsored update", "sponsored updates", "sign up", "signups", "downloads",
	}},
})

var countryTable = newAliasTable([]aliasEntry{
	{Value: "US", Aliases: []string{"united states", "united states of america", "usa", "u.s.", "america"}, Exact: []string{"US"}},
	{Value: "GB", Aliases: []string{"united kingdom", "uk", "u.k.", "great britain", "britain", "england"}},
	{Value: "CA", Aliases: []string{"canada"}},
	{Value: "AU", Aliases: []string{"australia"}},
	{Value: "NZ", Aliases: []string{"new zealand"}},
	{Value: "IE", Aliases: []string{"ireland"}},
	{Value: "DE", Aliases: []string{"germany", "deutschland"}},
	{Value: "FR", Aliases: []string{"france"}},
	{Value: "ES", Aliases: []string{"spain"}},
	{Value: "IT", Aliases: []string{"italy"}},
	{Value: "NL", Aliases: []string{"netherlands", "holland"}},
	{Value: "BE", Aliases: []string{"belgium"}},
	{Value: "CH", Aliases: []string{"switzerland"}},
	{Value: "SE", Aliases: []string{"sweden"}},
	{Value: "NO", Aliases: []string{"norway"}},
	{Value: "DK", Aliases: []string{"denmark"}},
	{Value: "PL", Aliases: []string{"poland"}},
	{Value: "PT", Aliases: []string{"portugal"}},
	{Value: "IN", Aliases: []string{"india"}},
	{Value: "SG", Aliases: []string{"singapore"}},
	{Value: "JP", Aliases: []string{"japan"}},
	{Value: "AE", Aliases: []string{"united arab emirates", "uae", "dubai"}},
	{Value: "SA", Aliases: []string{"saudi arabia"}},
	{Value: "ZA", Aliases: []string{"south africa"}},
	{Value: "BR", Aliases: []string{"brazil"}},
	{Value: "MX", Aliases: []string{"mexico"}},
})

var languageTable = newAliasTable([]aliasEntry{
	{Value: "en", Aliases: []string{"english", "en"}},
	{Value: "fr", Aliases: []string{"french", "français", "francais"}},
	{Value: "de", Aliases: []string{"german", "deutsch"}},
	{Value: "es", Aliases: []string{"spanish", "español", "espanol"}},
	{Value: "it", Aliases: []string{"italian"}},
	{Value: "pt", Aliases: []string{"portuguese"}},
	{Value: "nl", Aliases: []string{"dutch"}},
	{Value: "sv", Aliases: []string{"swedish"}},
	{Value: "no", Aliases: []string{"norwegian"}},
	{Value: "da", Aliases: []string{"danish"}},
	{Value: "pl", Aliases: []string{"polish"}},
	{Value: "ja", Aliases: []string{"japanese"}},
	{Value: "zh", Aliases: []string{"chinese", "mandarin"}},
	{Value: "ko", Aliases: []string{"korean"}},
	{Value: "ar", Aliases: []string{"arabic"}},
	{Value: "hi", Aliases: []string{"hindi"}},
	{Value: "ru", Aliases: []string{"russian"}},
	{Value: "tr", Aliases: []string{"turkish"}},
})

// MapObjectiveToCampaignType maps a campaign objective answer onto a LinkedIn campaign type.
func MapObjectiveToCampaignType(objective string) (models.CampaignType, bool) {
	value, ok := objectiveTable.byPriority(objective)

	return models.CampaignType(value), ok
}

// MapGeographyToCountry maps a target geography answer onto an ISO 3166-1 alpha-2 code.
func MapGeographyToCountry(geography string) (string, bool) {
	return countryTable.byPosition(geography)
}

// MapLanguageCode maps a language answer onto an ISO 639-1 code.
func MapLanguageCode(language string) (string, bool) {
	return languageTable.byPosition(strings.TrimSpace(language))
}
