package main

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/iliyamo/stage-planner/internal/queue"
)

func newConsumeCommand(g *globalOptions) *cobra.Command {
	var (
		url    string
		logDir string
	)
	cmd := &cobra.Command{
		Use:   "consume",
		Short: "Append plan.completed events to " + queue.PlanLogFile,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.planConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("log-dir") {
				logDir = cfg.LogDir
			}
			if url == "" {
				url = os.Getenv("RABBITMQ_URL")
			}
			if url == "" {
				return errors.New("no broker: set --amqp-url or RABBITMQ_URL")
			}
			err = queue.NewConsumer(url, logDir, g.logger(cmd)).Run(cmd.Context())
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&url, "amqp-url", "", "RabbitMQ URL (default $RABBITMQ_URL)")
	cmd.Flags().StringVar(&logDir, "log-dir", "logs", "Directory of "+queue.PlanLogFile+" (default $PLAN_LOG_DIR)")
	return cmd
}
