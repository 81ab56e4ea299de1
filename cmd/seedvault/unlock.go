package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"
)

// Shared flags for commands that need an unlocked vault.
var (
	unlockAccount    string
	unlockPhraseFile string
)

// unlockVault derives keys from the recovery phrase and initializes the
// vault manager. The phrase comes from --phrase-file or an interactive
// no-echo prompt; it is never accepted as a command-line argument.
func unlockVault(ctx context.Context) error {
	account := unlockAccount
	if account == "" {
		account = cfg.Auth.Email
	}
	if account == "" {
		return fmt.Errorf("account email required (--account or auth.email in config)")
	}

	var phrase string
	if unlockPhraseFile != "" {
		data, err := os.ReadFile(unlockPhraseFile)
		if err != nil {
			return fmt.Errorf("read phrase file: %w", err)
		}
		phrase = string(data)
	} else {
		fmt.Fprint(os.Stderr, "Recovery phrase: ")
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return fmt.Errorf("read recovery phrase: %w", err)
		}
		phrase = string(raw)
	}

	mnemonic := strings.Fields(phrase)

	if err := app.Unlock(ctx, mnemonic, account); err != nil {
		return err
	}

	return nil
}
