package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/seedvault/seedvault/internal/models"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List vault items",
	Example: `  seedvault list
  seedvault list --folder f1
  seedvault list --trash`,
	RunE: runList,
}

var (
	listFolder string
	listTrash  bool
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVar(&listFolder, "folder", "", "Only items in this folder id")
	listCmd.Flags().BoolVar(&listTrash, "trash", false, "List soft-deleted items instead")
	addUnlockFlags(listCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search items by name, username, or folder",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

var searchIncludeDeleted bool

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().BoolVar(&searchIncludeDeleted, "include-deleted", false,
		"Include soft-deleted items")
	addUnlockFlags(searchCmd)
}

func addUnlockFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&unlockAccount, "account", "", "Account email")
	cmd.Flags().StringVar(&unlockPhraseFile, "phrase-file", "", "File containing the recovery phrase")
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	if err := unlockVault(ctx); err != nil {
		return err
	}

	var items models.VaultCollection
	switch {
	case listTrash:
		items = app.Vault.TrashedItems()
	case listFolder != "":
		items = app.Vault.ItemsForFolder(listFolder)
	default:
		items = app.Vault.ActiveItems()
	}

	printItems(items)
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	if err := unlockVault(ctx); err != nil {
		return err
	}

	printItems(app.Vault.SearchItems(args[0], searchIncludeDeleted))
	return nil
}

func printItems(items models.VaultCollection) {
	if len(items) == 0 {
		fmt.Println("No items.")
		return
	}

	name := color.New(color.Bold)
	dim := color.New(color.Faint)
	trashed := color.New(color.FgRed)

	for _, item := range items {
		name.Printf("%-30s", item.ItemName)
		fmt.Printf(" %-8s", item.ItemType)
		if item.FolderName != "" {
			dim.Printf(" %s", item.FolderName)
		}
		if item.ItemType == models.ItemTypeLogin && item.Username != "" {
			dim.Printf(" (%s)", item.Username)
		}
		if item.IsDeleted() {
			trashed.Printf(" [deleted %s]", item.DeletedAt.Format("2006-01-02"))
		}
		dim.Printf("  %s", item.ID)
		fmt.Println()
	}

	fmt.Printf("\n%d item(s)\n", len(items))
}
