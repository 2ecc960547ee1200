package models

// BudgetType is the spending cadence of a campaign budget.
type BudgetType string

const (
	BudgetTypeDaily BudgetType = "daily"
	BudgetTypeTotal BudgetType = "total"
)

// BudgetValidation is the outcome of checking an allocated budget against platform minimums.
type BudgetValidation struct {
	IsValid         bool    `json:"isValid"`
	MinimumRequired float64 `json:"minimumRequired"`
}

// BudgetInfo is derived from the intake form and never persisted.
type BudgetInfo struct {
	TotalBudget        float64          `json:"totalBudget"`
	AllocatedBudget    float64          `json:"allocatedBudget"`
	BudgetType         BudgetType       `json:"budgetType"`
	Currency           string           `json:"currency"`
	IsLinkedInPlatform bool             `json:"isLinkedInPlatform"`
	PlatformGroups     int              `json:"platformGroups"`
	Platforms          []string         `json:"platforms,omitempty"`
	Validation         BudgetValidation `json:"validation"`
}

// BudgetSuggestions are recommended budget figures for a campaign type, cadence and currency.
type BudgetSuggestions struct {
	Minimum   float64 `json:"minimum"`
	Suggested float64 `json:"suggested"`
	Optimal   float64 `json:"optimal"`
}
