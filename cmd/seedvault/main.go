package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/seedvault/seedvault/internal/client"
	"github.com/seedvault/seedvault/internal/config"
	"github.com/seedvault/seedvault/internal/events"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *events.Logger
	app     *client.Client
)

var rootCmd = &cobra.Command{
	Use:   "seedvault",
	Short: "Client-side encrypted credential vault",
	Long: `SeedVault keeps your credentials in a single encrypted blob that only
your recovery phrase can open. The server never sees plaintext or keys.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		cfg, err = config.NewLoader(cfgFile).Load()
		if err != nil {
			return err
		}

		logger, err = events.NewLogger(&cfg.Log)
		if err != nil {
			return err
		}
		events.SetDefault(logger)

		app, err = client.New(cfg, logger)
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if app != nil {
			return app.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"Config file path (default: seedvault.json in ., ~/.config/seedvault, ~/.seedvault)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
