package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/givehub/escrow-backend/internal/auth"
	"github.com/givehub/escrow-backend/internal/clock"
	apperrors "github.com/givehub/escrow-backend/internal/errors"
	"github.com/givehub/escrow-backend/internal/events"
	"github.com/givehub/escrow-backend/internal/model"
	"github.com/givehub/escrow-backend/internal/queue"
	"github.com/givehub/escrow-backend/internal/repository"
)

// DefaultVerificationPrincipal is the identity this component mints release
// capabilities under; it must match the release authority registered on the
// campaign.
const DefaultVerificationPrincipal = "verification-engine"

// VerificationService owns milestone records and authorizes fund releases
// once an independent verifier has attested a milestone.
type VerificationService struct {
	Repo     repository.MilestoneRepositoryInterface
	Campaign CampaignLedger
	Auth     auth.Authenticator
	Clock    clock.Clock
	Queue    queue.Queue
	Logger   zerolog.Logger

	// Addr overrides the component principal.
	Addr string

	mu sync.Mutex
}

func (s *VerificationService) Principal() auth.Principal {
	if s.Addr == "" {
		return DefaultVerificationPrincipal
	}
	return auth.Principal(s.Addr)
}

// ConfigureCampaign binds the campaign to its owner and designated
// verifier. Written once; the binding is immutable afterwards.
func (s *VerificationService) ConfigureCampaign(ctx context.Context, owner auth.Principal, campaignID model.CampaignID, verifier auth.Principal) (*model.VerificationConfig, error) {
	if err := s.Auth.RequireAuth(ctx, owner); err != nil {
		return nil, apperrors.Unauthorized("identity proof failed for %s: %v", owner, err)
	}
	if verifier == "" {
		return nil, apperrors.InvalidInput("verifier principal is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	creator, err := s.Campaign.Creator(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if creator != owner {
		return nil, apperrors.Unauthorized("only the campaign creator may configure verification for %s", campaignID)
	}

	configured, err := s.Repo.HasConfig(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if configured {
		return nil, apperrors.InvalidState("campaign %s is already configured", campaignID)
	}

	cfg := &model.VerificationConfig{
		CampaignTarget: s.Campaign.Address(),
		Owner:          owner,
		Verifier:       verifier,
	}
	if err := s.Repo.SaveConfig(ctx, campaignID, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// CreateMilestone appends a pending milestone to the campaign's list.
// Owner only.
func (s *VerificationService) CreateMilestone(ctx context.Context, owner auth.Principal, campaignID model.CampaignID, description string, amount int64) (*model.Milestone, error) {
	if amount <= 0 {
		return nil, apperrors.InvalidInput("milestone amount must be positive, got %d", amount)
	}
	if err := s.Auth.RequireAuth(ctx, owner); err != nil {
		return nil, apperrors.Unauthorized("identity proof failed for %s: %v", owner, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.Repo.GetConfig(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if cfg.Owner != owner {
		return nil, apperrors.Unauthorized("only the configured owner may create milestones on campaign %s", campaignID)
	}

	m := model.Milestone{
		Description:      description,
		Amount:           amount,
		Status:           model.MilestonePending,
		VerificationDocs: []string{},
	}
	milestones, err := s.Repo.List(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	milestones = append(milestones, m)
	if err := s.Repo.SaveList(ctx, campaignID, milestones); err != nil {
		return nil, err
	}
	return &m, nil
}

// VerifyMilestone attests that a pending milestone was met, recording the
// verifier and the submitted documents. Verifier only.
func (s *VerificationService) VerifyMilestone(ctx context.Context, verifier auth.Principal, campaignID model.CampaignID, index int, docs []string) (*model.Milestone, error) {
	if err := s.Auth.RequireAuth(ctx, verifier); err != nil {
		return nil, apperrors.Unauthorized("identity proof failed for %s: %v", verifier, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.Repo.GetConfig(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if cfg.Verifier != verifier {
		return nil, apperrors.Unauthorized("only the configured verifier may verify milestones on campaign %s", campaignID)
	}

	milestones, err := s.Repo.List(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(milestones) {
		return nil, apperrors.NotFound("milestone %d not found on campaign %s", index, campaignID)
	}
	m := milestones[index]
	if m.Status != model.MilestonePending {
		return nil, apperrors.InvalidState("milestone %d is %s, only pending milestones can be verified", index, m.Status)
	}

	m.Status = model.MilestoneVerified
	m.VerifiedBy = verifier
	if docs == nil {
		docs = []string{}
	}
	m.VerificationDocs = docs

	milestones[index] = m
	if err := s.Repo.SaveList(ctx, campaignID, milestones); err != nil {
		return nil, err
	}
	s.publish(events.Event{
		Type:           events.TypeMilestoneVerified,
		CampaignID:     campaignID.String(),
		Principal:      string(verifier),
		Amount:         m.Amount,
		MilestoneIndex: &index,
	})
	return &m, nil
}

// FailMilestone rejects a pending milestone. Terminal; a failed milestone
// never releases funds.
func (s *VerificationService) FailMilestone(ctx context.Context, verifier auth.Principal, campaignID model.CampaignID, index int) (*model.Milestone, error) {
	if err := s.Auth.RequireAuth(ctx, verifier); err != nil {
		return nil, apperrors.Unauthorized("identity proof failed for %s: %v", verifier, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.Repo.GetConfig(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if cfg.Verifier != verifier {
		return nil, apperrors.Unauthorized("only the configured verifier may fail milestones on campaign %s", campaignID)
	}

	milestones, err := s.Repo.List(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(milestones) {
		return nil, apperrors.NotFound("milestone %d not found on campaign %s", index, campaignID)
	}
	m := milestones[index]
	if m.Status != model.MilestonePending {
		return nil, apperrors.InvalidState("milestone %d is %s, only pending milestones can be failed", index, m.Status)
	}

	m.Status = model.MilestoneFailed
	m.VerifiedBy = verifier

	milestones[index] = m
	if err := s.Repo.SaveList(ctx, campaignID, milestones); err != nil {
		return nil, err
	}
	s.publish(events.Event{
		Type:           events.TypeMilestoneFailed,
		CampaignID:     campaignID.String(),
		Principal:      string(verifier),
		MilestoneIndex: &index,
	})
	return &m, nil
}

// CompleteMilestone releases the verified milestone's tranche on the
// campaign ledger under a one-shot capability scoped to exactly that
// release, then marks the milestone completed. A ledger-side failure
// (insufficient funds, revoked authority) leaves the milestone verified.
func (s *VerificationService) CompleteMilestone(ctx context.Context, verifier auth.Principal, campaignID model.CampaignID, index int) (*model.Milestone, error) {
	if err := s.Auth.RequireAuth(ctx, verifier); err != nil {
		return nil, apperrors.Unauthorized("identity proof failed for %s: %v", verifier, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.Repo.GetConfig(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if cfg.Verifier != verifier {
		return nil, apperrors.Unauthorized("only the configured verifier may complete milestones on campaign %s", campaignID)
	}

	milestones, err := s.Repo.List(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(milestones) {
		return nil, apperrors.NotFound("milestone %d not found on campaign %s", index, campaignID)
	}
	m := milestones[index]
	if m.Status != model.MilestoneVerified {
		return nil, apperrors.InvalidState("milestone %d is %s, only verified milestones can be completed", index, m.Status)
	}

	grant := auth.NewCapability(s.Principal(), cfg.CampaignTarget, OpReleaseMilestoneFunds, campaignID, m.Amount)
	if _, err := s.Campaign.ReleaseMilestoneFunds(ctx, grant, campaignID, m.Amount); err != nil {
		return nil, err
	}

	m.Status = model.MilestoneCompleted
	completedAt := s.Clock.Now()
	m.CompletedAt = &completedAt

	milestones[index] = m
	if err := s.Repo.SaveList(ctx, campaignID, milestones); err != nil {
		// The release already committed on the campaign ledger; surface
		// the gap rather than hide it.
		s.Logger.Error().
			Str("campaign_id", campaignID.String()).
			Int("milestone_index", index).
			Int64("amount", m.Amount).
			Err(err).
			Msg("funds released but milestone record persist failed")
		return nil, apperrors.Internal("funds released but milestone record could not be persisted: %v", err)
	}
	s.publish(events.Event{
		Type:           events.TypeMilestoneCompleted,
		CampaignID:     campaignID.String(),
		Principal:      string(verifier),
		Amount:         m.Amount,
		MilestoneIndex: &index,
	})
	return &m, nil
}

// Read-only operations

func (s *VerificationService) GetMilestones(ctx context.Context, campaignID model.CampaignID) ([]model.Milestone, error) {
	return s.Repo.List(ctx, campaignID)
}

func (s *VerificationService) GetMilestone(ctx context.Context, campaignID model.CampaignID, index int) (*model.Milestone, error) {
	milestones, err := s.Repo.List(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(milestones) {
		return nil, apperrors.NotFound("milestone %d not found on campaign %s", index, campaignID)
	}
	m := milestones[index]
	return &m, nil
}

func (s *VerificationService) GetConfig(ctx context.Context, campaignID model.CampaignID) (*model.VerificationConfig, error) {
	return s.Repo.GetConfig(ctx, campaignID)
}

func (s *VerificationService) publish(ev events.Event) {
	if s.Queue == nil {
		return
	}
	ev.Timestamp = s.Clock.Now()
	if err := s.Queue.Publish(events.Topic, ev); err != nil {
		s.Logger.Warn().Str("type", ev.Type).Err(err).Msg("failed to publish event")
	}
}
