package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/seedvault/seedvault/internal/models"
)

var addCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add or replace a vault item",
	Long: `Add stores a credential item. An existing item with the same name in the
same folder is replaced in place, keeping its id and creation time.`,
	Example: `  seedvault add GitHub --type login --username alice --password s3cret
  seedvault add prod-server --type ssh_key --public-key-file id_ed25519.pub --private-key-file id_ed25519`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

var (
	addType           string
	addFolder         string
	addUsername       string
	addPassword       string
	addFingerprint    string
	addPublicKeyFile  string
	addPrivateKeyFile string
)

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().StringVar(&addType, "type", "login", "Item type: login or ssh_key")
	addCmd.Flags().StringVar(&addFolder, "folder", "", "Folder id")
	addCmd.Flags().StringVar(&addUsername, "username", "", "Username (login items)")
	addCmd.Flags().StringVar(&addPassword, "password", "", "Password (login items)")
	addCmd.Flags().StringVar(&addFingerprint, "fingerprint", "", "Key fingerprint (ssh_key items)")
	addCmd.Flags().StringVar(&addPublicKeyFile, "public-key-file", "", "Public key file (ssh_key items)")
	addCmd.Flags().StringVar(&addPrivateKeyFile, "private-key-file", "", "Private key file (ssh_key items)")
	addUnlockFlags(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	if err := unlockVault(ctx); err != nil {
		return err
	}

	item := models.CredentialItem{
		ItemType: models.ItemType(addType),
		ItemName: args[0],
		FolderID: addFolder,
	}

	if addFolder != "" {
		name, err := app.Folders.FolderName(ctx, addFolder)
		if err != nil {
			logger.WithError(err).Warn("Failed to resolve folder name")
		}
		item.FolderName = name
	}

	switch item.ItemType {
	case models.ItemTypeLogin:
		item.Username = addUsername
		item.Password = addPassword
	case models.ItemTypeSSHKey:
		item.Fingerprint = addFingerprint
		if addPublicKeyFile != "" {
			data, err := os.ReadFile(addPublicKeyFile)
			if err != nil {
				return fmt.Errorf("read public key: %w", err)
			}
			item.PublicKey = string(data)
		}
		if addPrivateKeyFile != "" {
			data, err := os.ReadFile(addPrivateKeyFile)
			if err != nil {
				return fmt.Errorf("read private key: %w", err)
			}
			item.PrivateKey = string(data)
		}
	default:
		return fmt.Errorf("unknown item type %q", addType)
	}

	stored, err := app.Vault.UpsertByNameInFolder(ctx, item)
	if err != nil {
		return err
	}

	fmt.Println("Stored item", stored.ID)
	return nil
}

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update fields of an item by id",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpdate,
}

var (
	updateName     string
	updateUsername string
	updatePassword string
	updateFolder   string
)

func init() {
	rootCmd.AddCommand(updateCmd)

	updateCmd.Flags().StringVar(&updateName, "name", "", "New item name")
	updateCmd.Flags().StringVar(&updateUsername, "username", "", "New username")
	updateCmd.Flags().StringVar(&updatePassword, "password", "", "New password")
	updateCmd.Flags().StringVar(&updateFolder, "folder", "", "New folder id")
	addUnlockFlags(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	if err := unlockVault(ctx); err != nil {
		return err
	}

	updates := map[string]interface{}{}
	if cmd.Flags().Changed("name") {
		updates["item_name"] = updateName
	}
	if cmd.Flags().Changed("username") {
		updates["username"] = updateUsername
	}
	if cmd.Flags().Changed("password") {
		updates["password"] = updatePassword
	}
	if cmd.Flags().Changed("folder") {
		updates["folder_id"] = updateFolder
		name, err := app.Folders.FolderName(ctx, updateFolder)
		if err == nil {
			updates["folder_name"] = name
		}
	}
	if len(updates) == 0 {
		return fmt.Errorf("nothing to update")
	}

	item, err := app.Vault.UpdateByID(ctx, args[0], updates)
	if err != nil {
		return err
	}

	fmt.Println("Updated item", item.ID)
	return nil
}

var rmCmd = &cobra.Command{
	Use:   "rm [id]",
	Short: "Delete an item",
	Long: `Without flags, rm moves the item with the given id to the trash. With
--purge it removes the item permanently. With --folder and --name it removes
any matching item permanently, succeeding even when nothing matches.`,
	Example: `  seedvault rm 5f2c...
  seedvault rm 5f2c... --purge
  seedvault rm --folder f1 --name GitHub`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRemove,
}

var (
	rmPurge    bool
	rmFolderID string
	rmItemName string
)

func init() {
	rootCmd.AddCommand(rmCmd)

	rmCmd.Flags().BoolVar(&rmPurge, "purge", false, "Remove permanently instead of trashing")
	rmCmd.Flags().StringVar(&rmFolderID, "folder", "", "Folder id for tuple removal")
	rmCmd.Flags().StringVar(&rmItemName, "name", "", "Item name for tuple removal")
	addUnlockFlags(rmCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	if err := unlockVault(ctx); err != nil {
		return err
	}

	if rmFolderID != "" || rmItemName != "" {
		if len(args) > 0 {
			return fmt.Errorf("use either an id or --folder/--name, not both")
		}
		if err := app.Vault.RemoveByNameInFolder(ctx, rmFolderID, rmItemName); err != nil {
			return err
		}
		fmt.Println("Removed")
		return nil
	}

	if len(args) == 0 {
		return fmt.Errorf("item id required")
	}

	if rmPurge {
		if err := app.Vault.PermanentlyDelete(ctx, args[0]); err != nil {
			return err
		}
		fmt.Println("Permanently deleted", args[0])
		return nil
	}

	if err := app.Vault.Delete(ctx, args[0]); err != nil {
		return err
	}
	fmt.Println("Moved to trash", args[0])
	return nil
}
