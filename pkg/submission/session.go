// Package submission holds the cascading LinkedIn selection state of one dashboard session
// (ad account, then campaign group, then campaign) and submits campaigns built from a draft.
package submission

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/unyte/adconnect/pkg/linkedin"
	"github.com/unyte/adconnect/pkg/models"
	"github.com/unyte/adconnect/pkg/notify"
	"github.com/unyte/adconnect/pkg/services"
)

var (
	// ErrNoAccountSelected is returned by operations that need a selected ad account.
	ErrNoAccountSelected = errors.New("no ad account selected")
	// ErrNoCampaignGroupSelected is returned by CreateCampaign without a selected campaign group.
	ErrNoCampaignGroupSelected = errors.New("no campaign group selected")
	// ErrUnknownCampaignGroup is returned when selecting a group that is not in the loaded list.
	ErrUnknownCampaignGroup = errors.New("unknown campaign group")
)

// Backend is the LinkedIn submission surface the session drives.
type Backend interface {
	AdAccounts(ctx context.Context, organizationID string) ([]models.AdAccount, error)
	CampaignGroups(ctx context.Context, organizationID, accountID string) ([]models.CampaignGroup, error)
	CreateCampaignGroup(ctx context.Context, organizationID, accountID, name string) (*models.CampaignGroup, error)
	CreateCampaign(ctx context.Context, organizationID, accountID string, req linkedin.CampaignRequest) (*models.Campaign, error)
}

// State is a point-in-time copy of the session. Loading flags are advisory.
type State struct {
	Accounts        []models.AdAccount
	SelectedAccount string
	LoadingAccounts bool
	AccountsError   string

	CampaignGroups        []models.CampaignGroup
	SelectedCampaignGroup string
	LoadingGroups         bool
	GroupsError           string
}

// Session is the selection state of one user working on one organization.
type Session struct {
	backend        Backend
	notifier       notify.Notifier
	organizationID string
	logger         *slog.Logger

	mu         sync.Mutex
	state      State
	generation uint64
}

// NewSession creates an empty session for organizationID.
func NewSession(backend Backend, notifier notify.Notifier, organizationID string, logger *slog.Logger) *Session {
	return &Session{
		backend:        backend,
		notifier:       notifier,
		organizationID: organizationID,
		logger:         logger.With("module", "submission", "organization_id", organizationID),
		state: State{
			Accounts:       []models.AdAccount{},
			CampaignGroups: []models.CampaignGroup{},
		},
	}
}

// State returns a copy of the current selection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.state
	state.Accounts = slices.Clone(s.state.Accounts)
	state.CampaignGroups = slices.Clone(s.state.CampaignGroups)

	return state
}

// LoadAccounts fetches the ad accounts. On failure the list is emptied and the error recorded.
func (s *Session) LoadAccounts(ctx context.Context) error {
	s.mu.Lock()
	s.state.LoadingAccounts = true
	s.state.AccountsError = ""
	s.mu.Unlock()

	accounts, err := s.backend.AdAccounts(ctx, s.organizationID)

	s.mu.Lock()
	s.state.LoadingAccounts = false

	if err != nil {
		s.logger.ErrorContext(ctx, "Error fetching LinkedIn ad accounts", "error", err)
		s.state.Accounts = []models.AdAccount{}
		s.state.AccountsError = services.UserMessage(err)
		failed := notify.Error("Failed to fetch LinkedIn ad accounts", s.state.AccountsError)
		s.mu.Unlock()

		s.notify(ctx, failed)

		return err
	}

	s.state.Accounts = nonNil(accounts)
	s.mu.Unlock()

	return nil
}

// SelectAccount selects an ad account, resetting the campaign groups and the selected group.
// A non-empty account triggers a reload of its campaign groups; a response that arrives after a
// newer selection is discarded.
func (s *Session) SelectAccount(ctx context.Context, accountID string) error {
	s.mu.Lock()
	s.generation++
	generation := s.generation
	s.state.SelectedAccount = accountID
	s.state.SelectedCampaignGroup = ""
	s.state.CampaignGroups = []models.CampaignGroup{}
	s.state.GroupsError = ""
	s.state.LoadingGroups = accountID != ""
	s.mu.Unlock()

	if accountID == "" {
		return nil
	}

	return s.loadGroups(ctx, generation, accountID, "")
}

// SelectCampaignGroup selects one of the loaded campaign groups. An empty ID clears the selection.
func (s *Session) SelectCampaignGroup(groupID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if groupID != "" && !slices.ContainsFunc(s.state.CampaignGroups, func(g models.CampaignGroup) bool { return g.ID == groupID }) {
		return ErrUnknownCampaignGroup
	}

	s.state.SelectedCampaignGroup = groupID

	return nil
}

// CreateCampaignGroup creates a group in the selected account, refreshes the list and selects the new group.
func (s *Session) CreateCampaignGroup(ctx context.Context, name string) (*models.CampaignGroup, error) {
	s.mu.Lock()
	accountID := s.state.SelectedAccount
	generation := s.generation
	s.mu.Unlock()

	if accountID == "" {
		return nil, ErrNoAccountSelected
	}

	group, err := s.backend.CreateCampaignGroup(ctx, s.organizationID, accountID, name)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error creating campaign group", "error", err)
		s.notify(ctx, notify.Error("Failed to create campaign group", services.UserMessage(err)))

		return nil, err
	}

	s.notify(ctx, notify.Success("Campaign group created", group.Name))

	if err := s.loadGroups(ctx, generation, accountID, group.ID); err != nil {
		s.notify(ctx, notify.Error("Failed to refresh campaign groups", "Please refresh the page to see the new campaign group"))
	}

	return group, nil
}

// Overrides replace draft values for a single submission.
type Overrides struct {
	Name         *string
	CampaignType *models.CampaignType
	BudgetAmount *string
	StartDate    *string
	EndDate      *string
}

// RequestFromDraft builds the campaign request for groupID from the draft and the overrides.
func RequestFromDraft(draft *models.CampaignDraft, groupID string, overrides Overrides) linkedin.CampaignRequest {
	req := linkedin.CampaignRequest{
		Name:            draft.Name,
		CampaignGroupID: groupID,
		Type:            draft.CampaignType,
		BudgetType:      draft.BudgetType,
		BudgetAmount:    draft.BudgetAmount,
		Currency:        draft.Currency,
		Country:         draft.Country,
		Language:        draft.Language,
		StartDate:       draft.StartDate,
		EndDate:         draft.EndDate,
	}

	if overrides.Name != nil {
		req.Name = *overrides.Name
	}

	if overrides.CampaignType != nil {
		req.Type = *overrides.CampaignType
	}

	if overrides.BudgetAmount != nil {
		req.BudgetAmount = *overrides.BudgetAmount
	}

	if overrides.StartDate != nil {
		req.StartDate = *overrides.StartDate
	}

	if overrides.EndDate != nil {
		req.EndDate = *overrides.EndDate
	}

	return req
}

// CreateCampaign submits the draft to the selected campaign group.
func (s *Session) CreateCampaign(ctx context.Context, draft *models.CampaignDraft, overrides Overrides) (*models.Campaign, error) {
	s.mu.Lock()
	accountID := s.state.SelectedAccount
	groupID := s.state.SelectedCampaignGroup
	s.mu.Unlock()

	if accountID == "" {
		return nil, ErrNoAccountSelected
	}

	if groupID == "" {
		return nil, ErrNoCampaignGroupSelected
	}

	if changed := draft.ChangedLockedFields(); len(changed) > 0 {
		s.logger.InfoContext(ctx, "Submitting draft with edited auto-filled fields", "fields", changed)
	}

	campaign, err := s.backend.CreateCampaign(ctx, s.organizationID, accountID, RequestFromDraft(draft, groupID, overrides))
	if err != nil {
		s.logger.ErrorContext(ctx, "Error creating campaign", "error", err)
		s.notify(ctx, notify.Error("Failed to create campaign", services.UserMessage(err)))

		return nil, err
	}

	s.notify(ctx, notify.Success("Campaign created", campaign.Name))

	return campaign, nil
}

// loadGroups fetches the groups of accountID and applies them only if generation is still current.
// selectID, when set, becomes the selected group after a successful load.
func (s *Session) loadGroups(ctx context.Context, generation uint64, accountID, selectID string) error {
	groups, err := s.backend.CampaignGroups(ctx, s.organizationID, accountID)

	s.mu.Lock()

	if generation != s.generation {
		s.mu.Unlock()
		s.logger.DebugContext(ctx, "Discarding stale campaign groups response", "ad_account_id", accountID)

		return nil
	}

	s.state.LoadingGroups = false

	if err != nil {
		s.logger.ErrorContext(ctx, "Error fetching LinkedIn campaign groups", "error", err)
		s.state.CampaignGroups = []models.CampaignGroup{}
		s.state.GroupsError = services.UserMessage(err)
		failed := notify.Error("Failed to fetch LinkedIn campaign groups", s.state.GroupsError)
		s.mu.Unlock()

		if selectID == "" {
			s.notify(ctx, failed)
		}

		return err
	}

	s.state.CampaignGroups = nonNil(groups)
	s.state.GroupsError = ""

	if selectID != "" {
		s.state.SelectedCampaignGroup = selectID
	}

	s.mu.Unlock()

	return nil
}

// notify must be called without s.mu held; notifiers may read the session state.
func (s *Session) notify(ctx context.Context, notification models.Notification) {
	if s.notifier != nil {
		s.notifier.Notify(ctx, notification)
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}

	return items
}
