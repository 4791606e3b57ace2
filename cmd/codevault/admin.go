package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"codevault/internal/app"
)

// readPassphrase prompts on the terminal without echo. When stdin is not a
// terminal, one line is read from it instead.
func readPassphrase(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(b), nil
}

// db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the database",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		before, after, err := app.Migrate(cfg)
		if err != nil {
			return fmt.Errorf("migrating: %w", err)
		}
		if before.Version == after.Version {
			fmt.Printf("Database already at version %d\n", after.Version)
			return nil
		}
		fmt.Printf("Migrated database from version %d to %d\n", before.Version, after.Version)
		return nil
	},
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		status, err := app.MigrationStatus(cfg)
		if err != nil {
			return err
		}

		state := "up to date"
		switch {
		case status.Dirty:
			state = "dirty (a migration failed part way)"
		case !status.Current():
			state = "needs 'codevault db migrate'"
		}
		fmt.Printf("Schema version %d of %d: %s\n", status.Version, status.Latest, state)
		return nil
	},
}

// key command
var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage snapshot encryption keys",
}

var keyInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the snapshot key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		pass, err := readPassphrase("New passphrase: ")
		if err != nil {
			return err
		}
		if term.IsTerminal(int(os.Stdin.Fd())) {
			confirm, err := readPassphrase("Repeat passphrase: ")
			if err != nil {
				return err
			}
			if confirm != pass {
				return errors.New("passphrases do not match")
			}
		}

		if err := app.SetupEncryption(cfg, pass); err != nil {
			return err
		}
		fmt.Printf("Keys written to %s and %s\n", cfg.Encryption.PublicKeyPath, cfg.Encryption.PrivateKeyPath)
		return nil
	},
}

// snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Back up or restore the database through a vault",
}

var snapshotPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload an encrypted snapshot of the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		vaultName, _ := cmd.Flags().GetString("vault")
		ctx := context.Background()

		return withApp("snapshot-push", func(a *app.App) error {
			arch, err := a.Archiver(ctx, vaultName)
			if err != nil {
				return err
			}
			res, err := arch.Push(ctx)
			if err != nil {
				return err
			}
			if res.Skipped {
				fmt.Printf("Vault already holds version %d\n", res.Version)
				return nil
			}
			fmt.Printf("Pushed snapshot version %d (%d bytes)\n", res.Version, res.Size)
			return nil
		})
	},
}

var snapshotPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Restore the database from the latest snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		vaultName, _ := cmd.Flags().GetString("vault")
		out, _ := cmd.Flags().GetString("output")
		force, _ := cmd.Flags().GetBool("force")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		pass, err := readPassphrase("Passphrase: ")
		if err != nil {
			return err
		}

		version, err := app.Restore(context.Background(), cfg, vaultName, pass, out, force)
		if err != nil {
			return err
		}
		fmt.Printf("Restored snapshot version %d\n", version)
		return nil
	},
}

func init() {
	dbCmd.AddCommand(dbMigrateCmd, dbStatusCmd)
	rootCmd.AddCommand(dbCmd)

	keyCmd.AddCommand(keyInitCmd)
	rootCmd.AddCommand(keyCmd)

	snapshotPushCmd.Flags().String("vault", "", "Vault name (default: first configured)")
	snapshotPullCmd.Flags().String("vault", "", "Vault name (default: first configured)")
	snapshotPullCmd.Flags().StringP("output", "o", "", "Restore to this path (default: the configured database)")
	snapshotPullCmd.Flags().BoolP("force", "f", false, "Overwrite an existing database file")
	snapshotCmd.AddCommand(snapshotPushCmd, snapshotPullCmd)
	rootCmd.AddCommand(snapshotCmd)
}
