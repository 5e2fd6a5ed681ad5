package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iliyamo/event-participation/internal/config"
	"github.com/iliyamo/event-participation/internal/queue"
)

var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Append participation decisions from RabbitMQ to the decision log",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log.Printf("consuming %s into %s", queue.DecisionQueue, cfg.DecisionLogPath)
		err := queue.NewConsumer(cfg.AMQPURL, cfg.DecisionLogPath).Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}
