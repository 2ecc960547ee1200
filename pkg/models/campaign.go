package models

import "fmt"

// CampaignType is the LinkedIn campaign format.
type CampaignType string

const (
	CampaignTypeSponsoredUpdates CampaignType = "SPONSORED_UPDATES"
	CampaignTypeTextAd           CampaignType = "TEXT_AD"
	CampaignTypeSponsoredInMails CampaignType = "SPONSORED_INMAILS"
	CampaignTypeDynamic          CampaignType = "DYNAMIC"
)

// CampaignTypes lists every supported campaign type.
var CampaignTypes = []CampaignType{
	CampaignTypeSponsoredUpdates,
	CampaignTypeTextAd,
	CampaignTypeSponsoredInMails,
	CampaignTypeDynamic,
}

// ParseCampaignType validates a campaign type string. An empty value defaults to sponsored updates.
func ParseCampaignType(value string) (CampaignType, error) {
	if value == "" {
		return CampaignTypeSponsoredUpdates, nil
	}

	for _, t := range CampaignTypes {
		if string(t) == value {
			return t, nil
		}
	}

	return "", fmt.Errorf("unsupported campaign type: %q", value)
}

// FieldLocks marks draft fields that were machine-filled and must not be silently overwritten.
type FieldLocks struct {
	BudgetType   bool `json:"budgetType"`
	BudgetAmount bool `json:"budgetAmount"`
	StartDate    bool `json:"startDate"`
	EndDate      bool `json:"endDate"`
}

// OriginalFormData records the values that were locked so user edits can be detected on blur.
type OriginalFormData struct {
	BudgetType   *string `json:"budgetType"`
	BudgetAmount *string `json:"budgetAmount"`
	StartDate    *string `json:"startDate"`
	EndDate      *string `json:"endDate"`
}

// PopulatedFields is the auto-populate engine output. Nil fields were not matched and
// leave the caller's draft untouched.
type PopulatedFields struct {
	Name         *string          `json:"name,omitempty"`
	CampaignType *CampaignType    `json:"campaignType,omitempty"`
	BudgetType   *BudgetType      `json:"budgetType,omitempty"`
	BudgetAmount *string          `json:"budgetAmount,omitempty"`
	Currency     *string          `json:"currency,omitempty"`
	Country      *string          `json:"country,omitempty"`
	Language     *string          `json:"language,omitempty"`
	StartDate    *string          `json:"startDate,omitempty"`
	EndDate      *string          `json:"endDate,omitempty"`
	Locks        FieldLocks       `json:"locks"`
	Original     OriginalFormData `json:"original"`
	Filled       []string         `json:"filled"`
}

// CampaignDraft is the editable campaign state owned by a single dashboard session.
type CampaignDraft struct {
	Name         string           `json:"name"                   validate:"required,min=1"`
	CampaignType CampaignType     `json:"campaignType"           validate:"required"`
	BudgetType   BudgetType       `json:"budgetType"             validate:"required,oneof=daily total"`
	BudgetAmount string           `json:"budgetAmount"           validate:"required,numeric"`
	Currency     string           `json:"currency"               validate:"required,len=3"`
	Country      string           `json:"country"                validate:"omitempty,len=2"`
	Language     string           `json:"language"               validate:"omitempty"`
	StartDate    string           `json:"startDate"              validate:"omitempty,datetime=2006-01-02"`
	EndDate      string           `json:"endDate,omitempty"      validate:"omitempty,datetime=2006-01-02"`
	Locks        FieldLocks       `json:"locks"`
	Original     OriginalFormData `json:"original"`
}

// NewCampaignDraft returns a draft with the dashboard defaults.
func NewCampaignDraft() *CampaignDraft {
	return &CampaignDraft{
		CampaignType: CampaignTypeSponsoredUpdates,
		BudgetType:   BudgetTypeDaily,
		Currency:     "USD",
		Country:      "US",
		Language:     "en",
	}
}

// Apply writes every populated field into the draft and replaces the lock snapshot.
func (d *CampaignDraft) Apply(fields *PopulatedFields) {
	if fields == nil {
		return
	}

	if fields.Name != nil {
		d.Name = *fields.Name
	}

	if fields.CampaignType != nil {
		d.CampaignType = *fields.CampaignType
	}

	if fields.BudgetType != nil {
		d.BudgetType = *fields.BudgetType
	}

	if fields.BudgetAmount != nil {
		d.BudgetAmount = *fields.BudgetAmount
	}

	if fields.Currency != nil {
		d.Currency = *fields.Currency
	}

	if fields.Country != nil {
		d.Country = *fields.Country
	}

	if fields.Language != nil {
		d.Language = *fields.Language
	}

	if fields.StartDate != nil {
		d.StartDate = *fields.StartDate
	}

	if fields.EndDate != nil {
		d.EndDate = *fields.EndDate
	}

	d.Locks.BudgetType = d.Locks.BudgetType || fields.Locks.BudgetType
	d.Locks.BudgetAmount = d.Locks.BudgetAmount || fields.Locks.BudgetAmount
	d.Locks.StartDate = d.Locks.StartDate || fields.Locks.StartDate
	d.Locks.EndDate = d.Locks.EndDate || fields.Locks.EndDate
	d.Original = fields.Original
}

// ChangedLockedFields lists the locked fields whose current value differs from the auto-filled one.
func (d *CampaignDraft) ChangedLockedFields() []string {
	var changed []string

	check := func(name string, locked bool, original *string, current string) {
		if locked && original != nil && *original != current {
			changed = append(changed, name)
		}
	}

	check("budgetType", d.Locks.BudgetType, d.Original.BudgetType, string(d.BudgetType))
	check("budgetAmount", d.Locks.BudgetAmount, d.Original.BudgetAmount, d.BudgetAmount)
	check("startDate", d.Locks.StartDate, d.Original.StartDate, d.StartDate)
	check("endDate", d.Locks.EndDate, d.Original.EndDate, d.EndDate)

	return changed
}
