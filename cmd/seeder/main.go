package main

import (
	"context"
	"crypto/rand"
	"os"

	"github.com/rs/zerolog"

	"github.com/givehub/escrow-backend/internal/auth"
	"github.com/givehub/escrow-backend/internal/clock"
	"github.com/givehub/escrow-backend/internal/config"
	"github.com/givehub/escrow-backend/internal/model"
	"github.com/givehub/escrow-backend/internal/repository"
	"github.com/givehub/escrow-backend/internal/service"
	"github.com/givehub/escrow-backend/internal/store"
)

// Seeds a complete demo escrow flow into the configured store: a campaign
// with registered components, two donations crossing the funding target,
// and one verified and completed milestone.
func main() {
	cfg := config.Load()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	ctx := context.Background()

	var st store.Store
	switch cfg.StoreBackend {
	case "postgres":
		pg, err := store.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open postgres store")
		}
		defer pg.Close()
		st = pg
	default:
		st = store.NewMemoryStore()
		logger.Warn().Msg("seeding the in-memory store; data is gone when this process exits")
	}

	authenticator := auth.StaticAuthenticator{}
	clk := clock.SystemClock{}

	campaignService := &service.CampaignService{
		Repo:   &repository.CampaignRepository{Store: st},
		Auth:   authenticator,
		Clock:  clk,
		Logger: logger,
	}
	donationService := &service.DonationService{
		Repo:     &repository.DonationRepository{Store: st},
		Campaign: campaignService,
		Auth:     authenticator,
		Clock:    clk,
		Logger:   logger,
	}
	verificationService := &service.VerificationService{
		Repo:     &repository.MilestoneRepository{Store: st},
		Campaign: campaignService,
		Auth:     authenticator,
		Clock:    clk,
		Logger:   logger,
	}

	creator := auth.Principal("demo-creator")
	donor := auth.Principal("demo-donor")
	verifier := auth.Principal("demo-verifier")

	var id model.CampaignID
	if _, err := rand.Read(id[:]); err != nil {
		logger.Fatal().Err(err).Msg("failed to generate campaign id")
	}

	if _, err := campaignService.Initialize(ctx, creator, id, "Build wells", "Provide clean water", 1000); err != nil {
		logger.Fatal().Err(err).Msg("initialize failed")
	}
	if _, err := campaignService.SetAuthorizedComponents(ctx, creator, id, donationService.Principal(), verificationService.Principal()); err != nil {
		logger.Fatal().Err(err).Msg("component registration failed")
	}
	if _, err := verificationService.ConfigureCampaign(ctx, creator, id, verifier); err != nil {
		logger.Fatal().Err(err).Msg("verification config failed")
	}
	if _, err := campaignService.Activate(ctx, creator, id); err != nil {
		logger.Fatal().Err(err).Msg("activate failed")
	}

	if _, err := donationService.Donate(ctx, donor, id, 600, "first tranche"); err != nil {
		logger.Fatal().Err(err).Msg("donation failed")
	}
	if _, err := donationService.Donate(ctx, donor, id, 500, ""); err != nil {
		logger.Fatal().Err(err).Msg("donation failed")
	}

	if _, err := verificationService.CreateMilestone(ctx, creator, id, "Drill first well", 400); err != nil {
		logger.Fatal().Err(err).Msg("milestone creation failed")
	}
	if _, err := verificationService.VerifyMilestone(ctx, verifier, id, 0, []string{"report.pdf"}); err != nil {
		logger.Fatal().Err(err).Msg("milestone verification failed")
	}
	if _, err := verificationService.CompleteMilestone(ctx, verifier, id, 0); err != nil {
		logger.Fatal().Err(err).Msg("milestone completion failed")
	}

	campaign, err := campaignService.Get(ctx, id)
	if err != nil {
		logger.Fatal().Err(err).Msg("final read failed")
	}
	logger.Info().
		Str("campaign_id", id.String()).
		Str("status", string(campaign.Status)).
		Int64("current_amount", campaign.CurrentAmount).
		Int64("released_amount", campaign.ReleasedAmount).
		Msg("seeding completed")
}
