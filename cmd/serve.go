package cmd

import (
	"docq/internal/api"
	"docq/internal/config"
	"docq/internal/infra/ingest"
	"docq/internal/infra/taskq"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var port int
	var command = &cobra.Command{
		Use:   "serve",
		Short: "Start the queue and its API server",
		Run: func(cmd *cobra.Command, args []string) {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
			cfg := config.Load()
			log.Info().Msgf("queue running up to %d tasks, polling every %s",
				cfg.Queue.MaxConcurrentTasks, cfg.Queue.PollInterval)

			queue := taskq.New(taskq.Config{
				MaxConcurrentTasks: cfg.Queue.MaxConcurrentTasks,
				PollInterval:       cfg.Queue.PollInterval,
				MaxAttempts:        cfg.Queue.MaxAttempts,
				ProcessTimeout:     cfg.Queue.ProcessTimeout,
				RetryBaseBackoff:   cfg.Queue.RetryBaseBackoff,
				RetryMaxBackoff:    cfg.Queue.RetryMaxBackoff,
			}, ingest.New(cfg.Ingest))
			defer queue.StopProcessing()

			server := api.NewServer(queue)
			server.Run(port)
		},
	}

	command.Flags().IntVarP(&port, "port", "p", 8080, "Port to run the server on")
	return command
}
