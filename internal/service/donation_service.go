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

// DefaultDonationPrincipal is the identity this component acts under when
// minting capabilities; it must match the donation authority registered on
// the campaign.
const DefaultDonationPrincipal = "donation-ledger"

// DonationService records contributions and credits them onto the campaign
// ledger under a delegated authorization minted from the donor's own
// authenticated call.
type DonationService struct {
	Repo     repository.DonationRepositoryInterface
	Campaign CampaignLedger
	Auth     auth.Authenticator
	Clock    clock.Clock
	Queue    queue.Queue
	Logger   zerolog.Logger

	// Addr overrides the component principal.
	Addr string

	mu sync.Mutex
}

func (s *DonationService) Principal() auth.Principal {
	if s.Addr == "" {
		return DefaultDonationPrincipal
	}
	return auth.Principal(s.Addr)
}

// Donate validates the donation, credits the campaign ledger through a
// one-shot capability scoped to exactly that call, and appends the receipt
// to the donor's list. The campaign call happens before the local append,
// so a campaign-side failure leaves no donation record.
func (s *DonationService) Donate(ctx context.Context, donor auth.Principal, campaignID model.CampaignID, amount int64, note string) (*model.Donation, error) {
	if err := s.Auth.RequireAuth(ctx, donor); err != nil {
		return nil, apperrors.Unauthorized("identity proof failed for %s: %v", donor, err)
	}
	if amount <= 0 {
		return nil, apperrors.InvalidInput("donation amount must be positive, got %d", amount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.Campaign.Get(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if c.DonationAuthority != s.Principal() {
		return nil, apperrors.Unauthorized("this ledger is not the registered donation authority of campaign %s", campaignID)
	}
	if !c.IsFundable() {
		return nil, apperrors.InvalidState("campaign %s is %s, not accepting donations", campaignID, c.Status)
	}

	grant := auth.NewCapability(s.Principal(), s.Campaign.Address(), OpRecordDonation, campaignID, amount)
	if _, err := s.Campaign.RecordDonation(ctx, grant, campaignID, amount); err != nil {
		return nil, err
	}

	d := model.Donation{
		CampaignID: campaignID,
		Donor:      donor,
		Amount:     amount,
		Timestamp:  s.Clock.Now(),
		Note:       note,
	}
	if err := s.Repo.Append(ctx, d); err != nil {
		// The campaign credit already committed; surface the gap rather
		// than hide it.
		s.Logger.Error().
			Str("campaign_id", campaignID.String()).
			Str("donor", string(donor)).
			Int64("amount", amount).
			Err(err).
			Msg("donation credited on campaign but receipt persist failed")
		return nil, apperrors.Internal("donation credited but receipt could not be persisted: %v", err)
	}

	s.publish(events.Event{
		Type:       events.TypeDonationRecorded,
		CampaignID: campaignID.String(),
		Principal:  string(donor),
		Amount:     amount,
	})
	return &d, nil
}

// GetDonations returns the donor's donations in submission order, empty if
// none.
func (s *DonationService) GetDonations(ctx context.Context, campaignID model.CampaignID, donor auth.Principal) ([]model.Donation, error) {
	donations, err := s.Repo.ListByDonor(ctx, campaignID, donor)
	if err != nil {
		return nil, err
	}
	if donations == nil {
		donations = []model.Donation{}
	}
	return donations, nil
}

// GetTotalDonated sums every donor's donations. Read-only diagnostic,
// O(total donation count).
func (s *DonationService) GetTotalDonated(ctx context.Context, campaignID model.CampaignID) (int64, error) {
	donations, err := s.Repo.All(ctx, campaignID)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, list := range donations {
		for _, d := range list {
			total += d.Amount
		}
	}
	return total, nil
}

func (s *DonationService) publish(ev events.Event) {
	if s.Queue == nil {
		return
	}
	ev.Timestamp = s.Clock.Now()
	if err := s.Queue.Publish(events.Topic, ev); err != nil {
		s.Logger.Warn().Str("type", ev.Type).Err(err).Msg("failed to publish event")
	}
}
