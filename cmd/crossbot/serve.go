package main

import (
	"github.com/spf13/cobra"

	"CrossBot/internal/di"
)

func serveCmd() *cobra.Command {
	var noBot bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and run the trade bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if noBot {
				cfg.Bot.Disabled = true
			}
			app, cleanup, err := di.InitializeApp(cfg)
			if err != nil {
				return err
			}
			defer cleanup()
			return app.Run(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&noBot, "no-bot", false, "serve the HTTP API without the trade bot")
	return cmd
}

func executeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "execute",
		Short: "Consume order intents from Kafka and submit them to Alpaca",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			app, cleanup, err := di.InitializeExecutor(cfg)
			if err != nil {
				return err
			}
			defer cleanup()
			return app.Run(cmd.Context())
		},
	}
}
