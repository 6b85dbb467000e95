package main

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/givehub/escrow-backend/internal/auth"
	"github.com/givehub/escrow-backend/internal/clock"
	"github.com/givehub/escrow-backend/internal/config"
	"github.com/givehub/escrow-backend/internal/controller"
	"github.com/givehub/escrow-backend/internal/metrics"
	"github.com/givehub/escrow-backend/internal/middleware"
	"github.com/givehub/escrow-backend/internal/queue"
	"github.com/givehub/escrow-backend/internal/repository"
	"github.com/givehub/escrow-backend/internal/service"
	"github.com/givehub/escrow-backend/internal/store"
)

func main() {
	cfg := config.Load()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.Env == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Storage substrate
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
	}

	// Event queue
	var q queue.Queue
	switch cfg.QueueBackend {
	case "amqp":
		amqpQueue, err := queue.DialAMQP(cfg.AMQPURL, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to AMQP")
		}
		defer amqpQueue.Close()
		q = amqpQueue
	default:
		q = queue.NewInMemoryQueue(logger)
	}

	authenticator := auth.StaticAuthenticator{}
	clk := clock.SystemClock{}
	provider := metrics.NewProvider(prometheus.DefaultRegisterer)

	campaignService := &service.CampaignService{
		Repo:    &repository.CampaignRepository{Store: st},
		Auth:    authenticator,
		Clock:   clk,
		Queue:   q,
		Metrics: provider,
		Logger:  logger,
	}
	donationService := &service.DonationService{
		Repo:     &repository.DonationRepository{Store: st},
		Campaign: campaignService,
		Auth:     authenticator,
		Clock:    clk,
		Queue:    q,
		Logger:   logger,
	}
	verificationService := &service.VerificationService{
		Repo:     &repository.MilestoneRepository{Store: st},
		Campaign: campaignService,
		Auth:     authenticator,
		Clock:    clk,
		Queue:    q,
		Logger:   logger,
	}

	campaignController := &controller.CampaignController{CampaignService: campaignService}
	donationController := &controller.DonationController{DonationService: donationService}
	verificationController := &controller.VerificationController{VerificationService: verificationService}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics(provider))

	// Campaign ledger
	r.Post("/campaigns", campaignController.Initialize)
	r.Get("/campaigns/{id}", campaignController.Get)
	r.Post("/campaigns/{id}/activate", campaignController.Activate)
	r.Post("/campaigns/{id}/authorities", campaignController.SetAuthorizedComponents)
	r.Post("/campaigns/{id}/cancel", campaignController.Cancel)
	r.Get("/campaigns/{id}/available-funds", campaignController.AvailableFunds)

	// Donation ledger
	r.Post("/campaigns/{id}/donations", donationController.Donate)
	r.Get("/campaigns/{id}/donations", donationController.GetDonations)
	r.Get("/campaigns/{id}/donations/total", donationController.GetTotalDonated)

	// Verification engine
	r.Post("/campaigns/{id}/verification/config", verificationController.ConfigureCampaign)
	r.Get("/campaigns/{id}/verification/config", verificationController.GetConfig)
	r.Post("/campaigns/{id}/milestones", verificationController.CreateMilestone)
	r.Get("/campaigns/{id}/milestones", verificationController.GetMilestones)
	r.Get("/campaigns/{id}/milestones/{index}", verificationController.GetMilestone)
	r.Post("/campaigns/{id}/milestones/{index}/verify", verificationController.VerifyMilestone)
	r.Post("/campaigns/{id}/milestones/{index}/fail", verificationController.FailMilestone)
	r.Post("/campaigns/{id}/milestones/{index}/complete", verificationController.CompleteMilestone)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	logger.Info().
		Str("port", cfg.Port).
		Str("store", cfg.StoreBackend).
		Str("queue", cfg.QueueBackend).
		Msg("server running")
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
