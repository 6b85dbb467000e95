package service_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/givehub/escrow-backend/internal/auth"
	"github.com/givehub/escrow-backend/internal/clock"
	"github.com/givehub/escrow-backend/internal/model"
	"github.com/givehub/escrow-backend/internal/repository"
	"github.com/givehub/escrow-backend/internal/service"
	"github.com/givehub/escrow-backend/internal/store"
)

const (
	creator  = auth.Principal("creator-1")
	donor    = auth.Principal("donor-1")
	verifier = auth.Principal("verifier-1")
)

// denyAuth approves every principal except the denied one, standing in
// for a host substrate that rejects a missing signature.
type denyAuth struct {
	denied auth.Principal
}

func (a denyAuth) RequireAuth(_ context.Context, p auth.Principal) error {
	if p == a.denied {
		return fmt.Errorf("no signature for %s", p)
	}
	return nil
}

type testEnv struct {
	campaign     *service.CampaignService
	donation     *service.DonationService
	verification *service.VerificationService
	clock        *clock.ManualClock
}

func newTestEnv() *testEnv {
	st := store.NewMemoryStore()
	authenticator := auth.StaticAuthenticator{}
	clk := clock.NewManualClock(1700000000)
	logger := zerolog.Nop()

	campaign := &service.CampaignService{
		Repo:   &repository.CampaignRepository{Store: st},
		Auth:   authenticator,
		Clock:  clk,
		Logger: logger,
	}
	donation := &service.DonationService{
		Repo:     &repository.DonationRepository{Store: st},
		Campaign: campaign,
		Auth:     authenticator,
		Clock:    clk,
		Logger:   logger,
	}
	verification := &service.VerificationService{
		Repo:     &repository.MilestoneRepository{Store: st},
		Campaign: campaign,
		Auth:     authenticator,
		Clock:    clk,
		Logger:   logger,
	}
	return &testEnv{
		campaign:     campaign,
		donation:     donation,
		verification: verification,
		clock:        clk,
	}
}

func newCampaignID(b byte) model.CampaignID {
	var id model.CampaignID
	for i := range id {
		id[i] = b
	}
	return id
}

// newActiveCampaign initializes a campaign with registered components and
// activates it.
func (e *testEnv) newActiveCampaign(t *testing.T, target int64) model.CampaignID {
	t.Helper()
	ctx := context.Background()
	id := newCampaignID(1)

	_, err := e.campaign.Initialize(ctx, creator, id, "Build wells", "Provide clean water", target)
	require.NoError(t, err)
	_, err = e.campaign.SetAuthorizedComponents(ctx, creator, id, e.donation.Principal(), e.verification.Principal())
	require.NoError(t, err)
	_, err = e.campaign.Activate(ctx, creator, id)
	require.NoError(t, err)
	return id
}

// withVerifier binds the test verifier to the campaign.
func (e *testEnv) withVerifier(t *testing.T, id model.CampaignID) {
	t.Helper()
	_, err := e.verification.ConfigureCampaign(context.Background(), creator, id, verifier)
	require.NoError(t, err)
}
