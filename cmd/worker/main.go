package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/givehub/escrow-backend/internal/config"
	"github.com/givehub/escrow-backend/internal/events"
	"github.com/givehub/escrow-backend/internal/queue"
)

// The worker consumes the domain-event stream and emits receipt
// notifications to the log. It keeps no state of its own.
func main() {
	cfg := config.Load()

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("component", "worker").Logger()
	if cfg.Env == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	q, err := queue.DialAMQP(cfg.AMQPURL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to AMQP")
	}
	defer q.Close()

	err = q.Subscribe(events.Topic, func(payload any) error {
		body, ok := payload.([]byte)
		if !ok {
			logger.Warn().Msg("unexpected payload type, dropping")
			return nil
		}

		var ev events.Event
		if err := json.Unmarshal(body, &ev); err != nil {
			logger.Warn().Err(err).Msg("invalid event payload, dropping")
			return nil
		}
		return notify(logger, ev)
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to subscribe")
	}

	logger.Info().Msg("worker running, waiting for events")
	select {}
}

func notify(logger zerolog.Logger, ev events.Event) error {
	entry := logger.Info().
		Str("type", ev.Type).
		Str("campaign_id", ev.CampaignID).
		Int64("timestamp", ev.Timestamp)
	if ev.Principal != "" {
		entry = entry.Str("principal", ev.Principal)
	}
	if ev.Amount != 0 {
		entry = entry.Int64("amount", ev.Amount)
	}
	if ev.MilestoneIndex != nil {
		entry = entry.Int("milestone_index", *ev.MilestoneIndex)
	}

	switch ev.Type {
	case events.TypeDonationRecorded:
		entry.Msg(fmt.Sprintf("donation receipt: %d credited to campaign %s", ev.Amount, ev.CampaignID))
	case events.TypeMilestoneCompleted:
		entry.Msg(fmt.Sprintf("release notice: %d paid out from campaign %s", ev.Amount, ev.CampaignID))
	default:
		entry.Msg("campaign notification")
	}
	return nil
}
