package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginCmd = &cobra.Command{
	Use:     "login",
	Short:   "Authenticate with the backend",
	Long:    `Login stores a session token for later vault operations.`,
	Example: `  seedvault login --email user@example.com`,
	RunE:    runLogin,
}

var (
	loginEmail    string
	loginPassword string
)

func init() {
	rootCmd.AddCommand(loginCmd)

	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "",
		"Email address (required)")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "",
		"Account password (will prompt if not provided)")

	_ = loginCmd.MarkFlagRequired("email")
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	password := loginPassword
	if password == "" {
		fmt.Fprint(os.Stderr, "Password: ")
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimSpace(string(raw))
	}

	if err := app.Auth.Login(ctx, loginEmail, password); err != nil {
		return err
	}

	fmt.Println("Logged in as", loginEmail)
	return nil
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the session and wipe the vault cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.Logout(context.Background()); err != nil {
			return err
		}
		fmt.Println("Logged out")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
