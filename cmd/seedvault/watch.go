package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow remote vault changes",
	Long: `Watch unlocks the vault and keeps the local cache in sync with remote
updates until interrupted.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	addUnlockFlags(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := unlockVault(ctx); err != nil {
		return err
	}

	fmt.Println("Watching for remote changes (Ctrl-C to stop)")

	err := app.Vault.WatchRemote(ctx)
	if err == context.Canceled {
		return nil
	}
	return err
}
