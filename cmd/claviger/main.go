// Copyright (c) 2026 Claviger Team
// Claviger - physical key custody tracker
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the command-line interface (CLI) for Claviger using the
// Cobra library. It defines the root command, subcommands (asset, actor,
// acquire, return, history, ...), flags, and the main entry point.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/claviger/claviger/internal/config"
	"github.com/claviger/claviger/internal/db"
	"github.com/claviger/claviger/internal/i18n"
	"github.com/claviger/claviger/internal/logging"
)

var version = "dev" // this will be set by the linker

// pageSize is the number of rows shown per page by list and history
// commands. The data layer takes explicit limit/offset; the page size is
// presentation policy and lives here.
const pageSize = 20

var (
	cfgFile string
	appCfg  config.Config
)

// main is the entry point of the application.
func main() {
	if err := rootCmd.Execute(); err != nil {
		// The error is already printed by Cobra on failure.
		os.Exit(1)
	}
}

var rootCmd *cobra.Command

func init() {
	rootCmd = newRootCmd()
}

// newRootCmd creates and configures a new root cobra command.
// This function is used to create the main application command as well as
// fresh instances for isolated testing.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claviger",
		Short: "Claviger tracks who holds which physical key.",
		Long: `Claviger is a custody tracker for physical keys and similar
checkoutable assets. Every acquire, return and hand-off is recorded in an
append-only ledger; the current holder of each asset is derived from it.

Running without a subcommand prints the front-desk dashboard.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cmd, &cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			appCfg = cfg
			i18n.Init(cfg.Language)
			logging.SetDebug(cfg.Debug)
			db.SetDebug(cfg.Debug)
			maybeWriteDefaultConfig()
			if err := db.InitDB(cfg.Database.Type, cfg.Database.DSN); err != nil {
				return fmt.Errorf("%s: %w", i18n.T("config.error_init_db"), err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// The database is already initialized by PersistentPreRunE.
			return runDashboard(cmd)
		},
	}

	cmd.AddCommand(newAssetCmd())
	cmd.AddCommand(newActorCmd())
	cmd.AddCommand(newAcquireCmd())
	cmd.AddCommand(newReturnCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newVerifyCmd())
	cmd.AddCommand(newBackupCmd())
	cmd.AddCommand(newRestoreCmd())
	cmd.AddCommand(newMaintenanceCmd())

	cmd.Version = version

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./claviger.yaml or the user config dir)")
	cmd.PersistentFlags().String("db-type", "sqlite", "Database type (sqlite, postgres, mysql)")
	cmd.PersistentFlags().String("db-dsn", "claviger.db", "Database connection string (DSN)")
	cmd.PersistentFlags().String("lang", "en", `CLI language ("en", "pt-BR")`)
	cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	return cmd
}

// maybeWriteDefaultConfig creates a default claviger.yaml in the user
// config directory on first run so configuration is discoverable. Failing
// to write it is not fatal; the in-memory defaults still apply.
func maybeWriteDefaultConfig() {
	if cfgFile != "" {
		return
	}
	if _, err := os.Stat("claviger.yaml"); err == nil {
		return
	}
	c := appCfg
	if err := config.WriteConfigFile(&c, false); err != nil {
		logging.Debugf("could not write default config: %v", err)
	}
}

// runDashboard prints the front-desk overview: asset counts and the most
// recent ledger activity.
func runDashboard(cmd *cobra.Command) error {
	counts, err := db.Counters()
	if err != nil {
		return fmt.Errorf("%s: %w", i18n.T("dashboard.error_counts"), err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, i18n.T("dashboard.title"))
	fmt.Fprintln(out, i18n.T("dashboard.counts",
		counts.Assets, counts.AssetsInUse, counts.AssetsRetired, counts.Actors, counts.Events))

	events, err := db.QueryEvents(db.EventFilter{}, pageSize, 0)
	if err != nil {
		return fmt.Errorf("%s: %w", i18n.T("dashboard.error_events"), err)
	}
	if len(events) == 0 {
		fmt.Fprintln(out, i18n.T("dashboard.no_events"))
		return nil
	}
	fmt.Fprintln(out, i18n.T("dashboard.recent"))
	for _, e := range events {
		fmt.Fprintf(out, "  %s\n", e.String())
	}
	return nil
}
