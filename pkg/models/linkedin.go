package models

// AdAccount is a LinkedIn sponsored account the connected member can manage.
type AdAccount struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Currency string `json:"currency,omitempty"`
	Status   string `json:"status,omitempty"`
	Type     string `json:"type,omitempty"`
}

// CampaignGroup is a LinkedIn campaign group inside an ad account.
type CampaignGroup struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status,omitempty"`
}

// Campaign is a LinkedIn campaign created from a draft.
type Campaign struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	CampaignGroupID string       `json:"campaign_group_id"`
	Type            CampaignType `json:"type"`
	Status          string       `json:"status,omitempty"`
}
