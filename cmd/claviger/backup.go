// Copyright (c) 2026 Claviger Team
// Claviger - physical key custody tracker
// This source code is licensed under the MIT license found in the LICENSE file.

// backup.go holds the data lifecycle commands: backup, restore and
// database maintenance.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/claviger/claviger/internal/custody"
	"github.com/claviger/claviger/internal/db"
	"github.com/claviger/claviger/internal/i18n"
)

func newBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup <file>",
		Short: "Write a compressed backup of all data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create backup file: %w", err)
			}
			defer func() { _ = f.Close() }()
			if err := custody.WriteBackup(db.ActiveStore(), f); err != nil {
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("backup.written", path))
			return nil
		},
	}
}

func newRestoreCmd() *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "Restore data from a backup file",
		Long: `Restores from a compressed backup. By default existing rows are
kept and only missing ones are added; --full wipes the database and
replaces it with the backup contents.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open backup file: %w", err)
			}
			defer func() { _ = f.Close() }()
			if err := custody.Restore(db.ActiveStore(), f, custody.RestoreOptions{Full: full}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("restore.done", path))
			return nil
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "wipe and replace instead of merging")
	return cmd
}

func newMaintenanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "maintenance",
		Short: "Run engine-specific database maintenance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := db.RunDBMaintenance(appCfg.Database.Type, appCfg.Database.DSN); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("maintenance.done"))
			return nil
		},
	}
}
