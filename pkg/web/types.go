package web

import (
	"github.com/unyte/adconnect/pkg/models"
	"github.com/unyte/adconnect/pkg/submission"
)

// DisconnectResponse is the body of the disconnect endpoint.
type DisconnectResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// AutoPopulateRequest is the body of the auto-populate endpoint.
type AutoPopulateRequest struct {
	Form         models.StructuredFormData `json:"form"`
	CampaignType string                    `json:"campaignType" validate:"omitempty,oneof=SPONSORED_UPDATES TEXT_AD SPONSORED_INMAILS DYNAMIC"`
}

// AutoPopulateResponse carries the derived fields, the budget analysis and the notifications.
type AutoPopulateResponse struct {
	Fields        models.PopulatedFields   `json:"fields"`
	Budget        models.BudgetInfo        `json:"budget"`
	Suggestions   models.BudgetSuggestions `json:"suggestions"`
	Notifications []models.Notification    `json:"notifications"`
}

// CreateCampaignGroupRequest is the body for creating a LinkedIn campaign group.
type CreateCampaignGroupRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

// CampaignOverrides replace draft values for one submission.
type CampaignOverrides struct {
	Name         *string              `json:"name,omitempty"         validate:"omitempty,min=1"`
	CampaignType *models.CampaignType `json:"campaignType,omitempty" validate:"omitempty,oneof=SPONSORED_UPDATES TEXT_AD SPONSORED_INMAILS DYNAMIC"`
	BudgetAmount *string              `json:"budgetAmount,omitempty" validate:"omitempty,numeric"`
	StartDate    *string              `json:"startDate,omitempty"    validate:"omitempty,datetime=2006-01-02"`
	EndDate      *string              `json:"endDate,omitempty"      validate:"omitempty,datetime=2006-01-02"`
}

// CreateCampaignRequest submits a campaign draft to a campaign group.
type CreateCampaignRequest struct {
	CampaignGroupID string               `json:"campaignGroupId" validate:"required"`
	Draft           models.CampaignDraft `json:"draft"`
	Overrides       CampaignOverrides    `json:"overrides"`
}

func (o CampaignOverrides) toSubmission() submission.Overrides {
	return submission.Overrides{
		Name:         o.Name,
		CampaignType: o.CampaignType,
		BudgetAmount: o.BudgetAmount,
		StartDate:    o.StartDate,
		EndDate:      o.EndDate,
	}
}

// autoPopulateSchema guards the raw auto-populate payload before it is bound.
const autoPopulateSchema = `{
	"type": "object",
	"required": ["form"],
	"properties": {
		"form": {
			"type": "object",
			"properties": {
				"rawText": {"type": "string"},
				"formData": {
					"type": ["array", "null"],
					"items": {
						"type": "object",
						"required": ["question"],
						"properties": {
							"question": {"type": "string"},
							"answer": {"type": "string"}
						}
					}
				}
			}
		},
		"campaignType": {"type": "string"}
	}
}`
