/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/crudapp/apiserver/internal/mq"
	"github.com/crudapp/apiserver/types"
	"github.com/spf13/cobra"
)

// eventsCmd represents the events command.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect user lifecycle events",
}

var eventsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Subscribe to the user event channel and log every event",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		events, err := mq.NewFromConfig(ctx, cfg)
		if err != nil {
			return err
		}
		if events == nil {
			return errors.New("EVENTS_BACKEND must be rabbitmq or pubsub to watch events")
		}
		defer events.Close()

		logger.Info("watching user events", slog.String("channel", cfg.Events.Channel))
		err = events.Subscribe(ctx, cfg.Events.Channel, func(ctx context.Context, msg mq.Message) error {
			var event types.UserEvent
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				// malformed payloads are logged and acked
				logger.Warn("undecodable event", slog.String("message_id", msg.ID), slog.String("error", err.Error()))
				return nil
			}
			logger.Info("user event",
				slog.String("event_id", event.ID),
				slog.String("type", event.Type),
				slog.Int64("user_id", event.User.ID),
				slog.Time("occurred_at", event.OccurredAt),
			)
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsWatchCmd)
}
