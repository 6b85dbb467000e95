package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/givehub/escrow-backend/internal/auth"
	"github.com/givehub/escrow-backend/internal/clock"
	apperrors "github.com/givehub/escrow-backend/internal/errors"
	"github.com/givehub/escrow-backend/internal/events"
	"github.com/givehub/escrow-backend/internal/metrics"
	"github.com/givehub/escrow-backend/internal/model"
	"github.com/givehub/escrow-backend/internal/queue"
	"github.com/givehub/escrow-backend/internal/repository"
)

// Privileged mutator operation names, used to scope capabilities.
const (
	OpRecordDonation        = "record_donation"
	OpReleaseMilestoneFunds = "release_milestone_funds"
)

// DefaultCampaignAddress is the component address campaigns are reachable
// at unless the deployment overrides it.
const DefaultCampaignAddress = "campaign-ledger"

// CampaignLedger is the campaign component as seen by the other two. The
// privileged mutators take a one-shot capability instead of a live caller
// signature.
type CampaignLedger interface {
	Address() string
	Get(ctx context.Context, id model.CampaignID) (*model.Campaign, error)
	Creator(ctx context.Context, id model.CampaignID) (auth.Principal, error)
	RecordDonation(ctx context.Context, grant *auth.Capability, id model.CampaignID, amount int64) (*model.Campaign, error)
	ReleaseMilestoneFunds(ctx context.Context, grant *auth.Capability, id model.CampaignID, amount int64) (*model.Campaign, error)
}

// CampaignService owns the campaign funding state machine and its two
// accumulators. current_amount and released_amount only ever grow, and a
// release is capped by current_amount - released_amount, so no sequence of
// valid calls can release more than was donated. Both checks run on every
// mutating call; nothing is assumed from prior state.
type CampaignService struct {
	Repo    repository.CampaignRepositoryInterface
	Auth    auth.Authenticator
	Clock   clock.Clock
	Queue   queue.Queue
	Metrics metrics.Recorder
	Logger  zerolog.Logger

	// Addr overrides the component address; capabilities must be scoped
	// to it exactly.
	Addr string

	// mu serializes entry calls: each call runs on a single logical
	// thread and commits or fails as a unit.
	mu sync.Mutex
}

func (s *CampaignService) Address() string {
	if s.Addr == "" {
		return DefaultCampaignAddress
	}
	return s.Addr
}

// Initialize creates a campaign in draft with zero accumulators. The
// store has no uniqueness primitive, so the id is checked before the
// first write.
func (s *CampaignService) Initialize(ctx context.Context, creator auth.Principal, id model.CampaignID, title, description string, targetAmount int64) (*model.Campaign, error) {
	if err := s.Auth.RequireAuth(ctx, creator); err != nil {
		return nil, apperrors.Unauthorized("identity proof failed for %s: %v", creator, err)
	}
	if targetAmount <= 0 {
		return nil, apperrors.InvalidInput("target amount must be positive, got %d", targetAmount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.Repo.Exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.InvalidInput("campaign %s already exists", id)
	}

	c := &model.Campaign{
		ID:           id,
		Title:        title,
		Description:  description,
		TargetAmount: targetAmount,
		Creator:      creator,
		Status:       model.StatusDraft,
		CreatedAt:    s.Clock.Now(),
	}
	if err := s.Repo.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Activate moves a draft campaign to active. Creator only.
func (s *CampaignService) Activate(ctx context.Context, creator auth.Principal, id model.CampaignID) (*model.Campaign, error) {
	if err := s.Auth.RequireAuth(ctx, creator); err != nil {
		return nil, apperrors.Unauthorized("identity proof failed for %s: %v", creator, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Creator != creator {
		return nil, apperrors.Unauthorized("only the creator may activate campaign %s", id)
	}
	if c.Status != model.StatusDraft {
		return nil, apperrors.InvalidState("campaign %s is %s, only draft campaigns can be activated", id, c.Status)
	}

	c.Status = model.StatusActive
	if err := s.Repo.Save(ctx, c); err != nil {
		return nil, err
	}
	s.publish(events.Event{Type: events.TypeCampaignActivated, CampaignID: id.String(), Principal: string(creator)})
	return c, nil
}

// SetAuthorizedComponents registers the components allowed to call the
// privileged mutators. Either principal may be empty to leave that role
// unregistered.
func (s *CampaignService) SetAuthorizedComponents(ctx context.Context, creator auth.Principal, id model.CampaignID, donationAuthority, releaseAuthority auth.Principal) (*model.Campaign, error) {
	if err := s.Auth.RequireAuth(ctx, creator); err != nil {
		return nil, apperrors.Unauthorized("identity proof failed for %s: %v", creator, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Creator != creator {
		return nil, apperrors.Unauthorized("only the creator may register components on campaign %s", id)
	}

	c.DonationAuthority = donationAuthority
	c.ReleaseAuthority = releaseAuthority
	if err := s.Repo.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// RecordDonation adds amount to current_amount. The caller must present a
// capability scoped to exactly this call and minted by the campaign's
// registered donation authority; there is no ambient trust of the caller.
// A campaign that reaches its target flips to funded; a funded campaign
// keeps accepting donations.
func (s *CampaignService) RecordDonation(ctx context.Context, grant *auth.Capability, id model.CampaignID, amount int64) (*model.Campaign, error) {
	if amount <= 0 {
		return nil, apperrors.InvalidInput("donation amount must be positive, got %d", amount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.DonationAuthority == "" {
		return nil, apperrors.Unauthorized("campaign %s has no registered donation authority", id)
	}
	if grant.Granter() != c.DonationAuthority {
		return nil, apperrors.Unauthorized("capability granter is not the registered donation authority of campaign %s", id)
	}
	if !c.IsFundable() {
		return nil, apperrors.InvalidState("campaign %s is %s, not accepting donations", id, c.Status)
	}
	if err := grant.Consume(s.Address(), OpRecordDonation, id, amount); err != nil {
		return nil, apperrors.Unauthorized("%v", err)
	}

	c.CurrentAmount += amount
	if c.CurrentAmount >= c.TargetAmount && c.Status == model.StatusActive {
		c.Status = model.StatusFunded
	}
	if err := s.Repo.Save(ctx, c); err != nil {
		return nil, err
	}
	if s.Metrics != nil {
		s.Metrics.IncDonationsRecorded(amount)
	}
	return c, nil
}

// ReleaseMilestoneFunds adds amount to released_amount, capped by the
// still-escrowed balance. This is the only path to the completed status.
func (s *CampaignService) ReleaseMilestoneFunds(ctx context.Context, grant *auth.Capability, id model.CampaignID, amount int64) (*model.Campaign, error) {
	if amount <= 0 {
		return nil, apperrors.InvalidInput("release amount must be positive, got %d", amount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.ReleaseAuthority == "" {
		return nil, apperrors.Unauthorized("campaign %s has no registered release authority", id)
	}
	if grant.Granter() != c.ReleaseAuthority {
		return nil, apperrors.Unauthorized("capability granter is not the registered release authority of campaign %s", id)
	}
	if available := c.AvailableFunds(); available < amount {
		return nil, apperrors.InsufficientFunds("requested release of %d exceeds available funds %d on campaign %s", amount, available, id)
	}
	if err := grant.Consume(s.Address(), OpReleaseMilestoneFunds, id, amount); err != nil {
		return nil, apperrors.Unauthorized("%v", err)
	}

	c.ReleasedAmount += amount
	if c.ReleasedAmount >= c.TargetAmount {
		c.Status = model.StatusCompleted
	}
	if err := s.Repo.Save(ctx, c); err != nil {
		return nil, err
	}
	if s.Metrics != nil {
		s.Metrics.IncFundsReleased(amount)
	}
	if c.Status == model.StatusCompleted {
		s.publish(events.Event{Type: events.TypeCampaignCompleted, CampaignID: id.String(), Amount: c.ReleasedAmount})
	}
	return c, nil
}

// Cancel moves any non-terminal campaign to cancelled. Creator only.
// Unreleased funds stay escrowed; there is no refund path.
func (s *CampaignService) Cancel(ctx context.Context, creator auth.Principal, id model.CampaignID) (*model.Campaign, error) {
	if err := s.Auth.RequireAuth(ctx, creator); err != nil {
		return nil, apperrors.Unauthorized("identity proof failed for %s: %v", creator, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Creator != creator {
		return nil, apperrors.Unauthorized("only the creator may cancel campaign %s", id)
	}
	if c.Status.Terminal() {
		return nil, apperrors.InvalidState("campaign %s is already %s", id, c.Status)
	}

	c.Status = model.StatusCancelled
	if err := s.Repo.Save(ctx, c); err != nil {
		return nil, err
	}
	s.publish(events.Event{Type: events.TypeCampaignCancelled, CampaignID: id.String(), Principal: string(creator)})
	return c, nil
}

// Read-only operations

func (s *CampaignService) Get(ctx context.Context, id model.CampaignID) (*model.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Repo.Get(ctx, id)
}

func (s *CampaignService) Status(ctx context.Context, id model.CampaignID) (model.CampaignStatus, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return c.Status, nil
}

func (s *CampaignService) IsActive(ctx context.Context, id model.CampaignID) (bool, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return c.IsFundable(), nil
}

func (s *CampaignService) Creator(ctx context.Context, id model.CampaignID) (auth.Principal, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return c.Creator, nil
}

func (s *CampaignService) AvailableFunds(ctx context.Context, id model.CampaignID) (int64, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return c.AvailableFunds(), nil
}

// publish emits a committed-mutation notification. Events are
// best-effort; a queue failure never rolls back ledger state.
func (s *CampaignService) publish(ev events.Event) {
	if s.Queue == nil {
		return
	}
	ev.Timestamp = s.Clock.Now()
	if err := s.Queue.Publish(events.Topic, ev); err != nil {
		s.Logger.Warn().Str("type", ev.Type).Err(err).Msg("failed to publish event")
	}
}

var _ CampaignLedger = (*CampaignService)(nil)
