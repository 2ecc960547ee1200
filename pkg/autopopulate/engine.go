package autopopulate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/unyte/adconnect/pkg/models"
	"github.com/unyte/adconnect/pkg/notify"
)

var (
	// ErrNoFormData is returned when the intake form carries no question/answer sequence.
	ErrNoFormData = errors.New("no form data available")

	// ErrPopulateFailed is returned when population aborted part-way.
	ErrPopulateFailed = errors.New("auto-populate failed")
)

// Result is the outcome of one auto-populate run. Fields holds every value the engine
// derived; the caller decides how to apply them to its draft.
type Result struct {
	Fields        models.PopulatedFields `json:"fields"`
	Budget        models.BudgetInfo      `json:"budget"`
	Notifications []models.Notification  `json:"notifications"`
}

// Engine fills LinkedIn campaign drafts from intake-form answers.
type Engine struct {
	logger   *slog.Logger
	notifier notify.Notifier
}

// NewEngine creates an engine. notifier may be nil; notifications are always returned in the Result.
func NewEngine(logger *slog.Logger, notifier notify.Notifier) *Engine {
	return &Engine{
		logger:   logger.With("module", "autopopulate"),
		notifier: notifier,
	}
}

// Populate derives draft fields from form. currentType is the draft's campaign type, used for
// budget validation when the form names no recognizable objective.
//
// Fields derived before a failure are kept in the returned Result.
func (e *Engine) Populate(ctx context.Context, form *models.StructuredFormData, currentType models.CampaignType) (result *Result, err error) {
	result = &Result{
		Fields:        models.PopulatedFields{Filled: []string{}},
		Notifications: []models.Notification{},
	}

	if !form.HasFormData() {
		e.emit(ctx, result, notify.Error("No form data available for auto-population", ""))

		return result, ErrNoFormData
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.ErrorContext(ctx, "Error during auto-populate", "panic", r)
			failed := notify.Error("Auto-populate failed", "An error occurred while processing the form data")
			result.Notifications = append(result.Notifications, failed)
			e.notifyRecovered(ctx, failed)

			err = fmt.Errorf("%w: %v", ErrPopulateFailed, r)
		}
	}()

	e.populate(ctx, form, currentType, result)

	return result, nil
}

func (e *Engine) populate(ctx context.Context, form *models.StructuredFormData, currentType models.CampaignType, result *Result) {
	fields := &result.Fields
	filled := func(name string) { fields.Filled = append(fields.Filled, name) }

	if name, ok := FindField(form, FieldName); ok {
		fields.Name = &name
		filled("Campaign Name")
	}

	campaignType := currentType
	if campaignType == "" {
		campaignType = models.CampaignTypeSponsoredUpdates
	}

	if objective, ok := FindField(form, FieldObjective); ok {
		if mapped, ok := MapObjectiveToCampaignType(objective); ok {
			campaignType = mapped
			fields.CampaignType = &mapped
			filled("Campaign Type")
		}
	}

	budget := AnalyzeBudget(form, campaignType)
	result.Budget = budget

	e.logger.DebugContext(ctx, "LinkedIn campaign budget analysis", "summary", AllocationSummary(budget))

	if budget.TotalBudget > 0 {
		budgetType := budget.BudgetType
		fields.BudgetType = &budgetType
		fields.Locks.BudgetType = true
		fields.Original.BudgetType = stringPtr(string(budgetType))
		filled("Budget Type")
	}

	if budget.AllocatedBudget > 0 {
		amount := formatAmount(budget.AllocatedBudget)
		fields.BudgetAmount = &amount
		fields.Locks.BudgetAmount = true
		fields.Original.BudgetAmount = stringPtr(amount)
		filled("Budget Amount")
	}

	_, hasCurrencyAnswer := FindField(form, FieldCurrency)
	if budget.TotalBudget > 0 || hasCurrencyAnswer {
		currency := budget.Currency
		fields.Currency = &currency
		filled("Currency")
	}

	if geography, ok := FindField(form, FieldGeography); ok {
		if country, ok := MapGeographyToCountry(geography); ok {
			fields.Country = &country
			filled("Country")
		}
	}

	if language, ok := FindField(form, FieldLanguage); ok {
		if code, ok := MapLanguageCode(language); ok {
			fields.Language = &code
			filled("Language")
		}
	}

	if answer, ok := FindField(form, FieldStartDate); ok {
		if date, ok := ParseDate(answer); ok {
			fields.StartDate = &date
			fields.Locks.StartDate = true
			fields.Original.StartDate = stringPtr(date)
			filled("Start Date")
		}
	}

	if answer, ok := FindField(form, FieldEndDate); ok {
		if date, ok := ParseDate(answer); ok {
			fields.EndDate = &date
			fields.Locks.EndDate = true
			fields.Original.EndDate = stringPtr(date)
			filled("End Date")
		}
	}

	e.budgetNotifications(ctx, result, campaignType)

	if len(fields.Filled) > 0 {
		e.emit(ctx, result, notify.Success("Auto-populated successfully!", "Filled: "+strings.Join(fields.Filled, ", ")))
	} else {
		e.emit(ctx, result, notify.Info("No matching fields found in form data", "Form data may not contain the expected campaign information"))
	}
}

func (e *Engine) budgetNotifications(ctx context.Context, result *Result, campaignType models.CampaignType) {
	budget := result.Budget
	if budget.TotalBudget <= 0 {
		return
	}

	switch {
	case !budget.IsLinkedInPlatform:
		e.emit(ctx, result, notify.Warning(
			"LinkedIn not mentioned in form platforms",
			"Consider if LinkedIn is the right platform for this campaign",
		))
	case !budget.Validation.IsValid:
		suggestions := Suggestions(campaignType, budget.BudgetType, budget.Currency)
		e.emit(ctx, result, notify.Error(
			"Budget below LinkedIn minimums",
			fmt.Sprintf("Current: %s %.2f. Minimum: %s %s. Suggested: %s %s",
				budget.Currency, budget.AllocatedBudget,
				budget.Currency, formatAmount(budget.Validation.MinimumRequired),
				budget.Currency, formatAmount(suggestions.Suggested)),
		))
	default:
		e.emit(ctx, result, notify.Success(
			"Budget allocation validated!",
			fmt.Sprintf("%s %.2f allocated for LinkedIn (%s)", budget.Currency, budget.AllocatedBudget, budget.BudgetType),
		))
	}

	if budget.PlatformGroups > 1 {
		e.emit(ctx, result, notify.Info(
			"Multi-platform budget detected",
			fmt.Sprintf("Total budget split across %d platform groups", budget.PlatformGroups),
		))
	}
}

func (e *Engine) emit(ctx context.Context, result *Result, notification models.Notification) {
	result.Notifications = append(result.Notifications, notification)

	if e.notifier != nil {
		e.notifier.Notify(ctx, notification)
	}
}

// notifyRecovered delivers a notification from the recover path. The notifier may itself be
// the source of the panic, so a second panic is logged and dropped.
func (e *Engine) notifyRecovered(ctx context.Context, notification models.Notification) {
	if e.notifier == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.ErrorContext(ctx, "Notifier failed while reporting auto-populate failure", "panic", r)
		}
	}()

	e.notifier.Notify(ctx, notification)
}

func stringPtr(s string) *string {
	return &s
}
