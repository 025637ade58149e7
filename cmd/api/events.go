package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sanosuguru/go-restaurant-seating/internal/config"
	"github.com/sanosuguru/go-restaurant-seating/internal/domain/reservation"
	"github.com/sanosuguru/go-restaurant-seating/internal/infrastructure/rabbitmq"
	"github.com/sanosuguru/go-restaurant-seating/internal/pkg/logger"
)

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect reservation lifecycle events",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "tail",
		Short: "Print events from the RabbitMQ queue as JSON lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logger.Set(logger.NewLogger(cfg.App.Env))
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return rabbitmq.Consume(ctx, &cfg.RabbitMQ, printEvent(cmd.OutOrStdout()))
		},
	})
	return cmd
}

func printEvent(w io.Writer) rabbitmq.Handler {
	enc := json.NewEncoder(w)
	return func(ctx context.Context, ev reservation.Event) error {
		if err := enc.Encode(ev); err != nil {
			return fmt.Errorf("イベントの出力に失敗: %w", err)
		}
		return nil
	}
}
