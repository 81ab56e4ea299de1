package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Show accounts unlocked on this machine",
	RunE: func(cmd *cobra.Command, args []string) error {
		accounts, err := app.Accounts.ListAccounts()
		if err != nil {
			return err
		}

		if len(accounts) == 0 {
			fmt.Println("No known accounts.")
			return nil
		}

		bold := color.New(color.Bold)
		dim := color.New(color.Faint)
		for _, a := range accounts {
			bold.Printf("%-30s", a.AccountID)
			fmt.Printf(" %d item(s)", a.ItemCount)
			if !a.LastUnlock.IsZero() {
				dim.Printf("  last unlock %s", a.LastUnlock.Format("2006-01-02 15:04"))
			}
			fmt.Println()
		}
		return nil
	},
}

var accountsForgetCmd = &cobra.Command{
	Use:   "forget <account>",
	Short: "Drop local bookkeeping for an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.Accounts.Forget(args[0]); err != nil {
			return err
		}
		fmt.Println("Forgot", args[0])
		return nil
	},
}

var foldersCmd = &cobra.Command{
	Use:   "folders",
	Short: "List folders",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := app.Folders.ListFolders(context.Background())
		if err != nil {
			return err
		}

		if len(list) == 0 {
			fmt.Println("No folders.")
			return nil
		}

		for _, f := range list {
			fmt.Printf("%-36s %s\n", f.ID, f.Name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(accountsCmd)
	accountsCmd.AddCommand(accountsForgetCmd)
	rootCmd.AddCommand(foldersCmd)
}
