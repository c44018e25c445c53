// Copyright (c) 2026 Claviger Team
// Claviger - physical key custody tracker
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/claviger/claviger/internal/db"
	"github.com/claviger/claviger/internal/i18n"
	"github.com/claviger/claviger/internal/model"
)

// resolveAsset looks an asset up by its unique name.
func resolveAsset(name string) (*model.Asset, error) {
	asset, err := db.GetAssetByName(name)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, errors.New(i18n.T("asset.not_found", name))
		}
		return nil, err
	}
	return asset, nil
}

func newAssetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "asset",
		Short: "Manage the asset registry",
	}
	cmd.AddCommand(newAssetAddCmd())
	cmd.AddCommand(newAssetListCmd())
	cmd.AddCommand(newAssetRetireCmd())
	cmd.AddCommand(newAssetRestoreCmd())
	cmd.AddCommand(newAssetSetGroupsCmd())
	return cmd
}

func newAssetAddCmd() *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a new asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if name == "" {
				return errors.New(i18n.T("asset.empty_name"))
			}
			id, err := db.AddAsset(name, description)
			if err != nil {
				if errors.Is(err, db.ErrDuplicate) {
					return errors.New(i18n.T("asset.duplicate", name))
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("asset.added", name, id))
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "free-form description (location, lock, etc.)")
	return cmd
}

func newAssetListCmd() *cobra.Command {
	var (
		search      string
		status      string
		retiredOnly bool
		all         bool
		page        int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List assets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := db.AssetFilter{Search: search}
			switch status {
			case "":
			case string(model.StatusAvailable), string(model.StatusInUse):
				filter.Status = model.AssetStatus(status)
			default:
				return errors.New(i18n.T("asset.invalid_status", status))
			}
			if !all {
				retired := retiredOnly
				filter.Retired = &retired
			}
			if page < 1 {
				page = 1
			}
			assets, err := db.FindAssets(filter, pageSize, (page-1)*pageSize)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(assets) == 0 {
				fmt.Fprintln(out, i18n.T("asset.list_empty"))
				return nil
			}
			for _, a := range assets {
				line := a.String()
				if a.Held() {
					if holder, err := db.GetActor(*a.CurrentHolderID); err == nil {
						line += " " + i18n.T("asset.held_by", holder.String())
					}
				}
				if a.Retired {
					line += " " + i18n.T("asset.retired_marker")
				}
				if a.Description != "" {
					line += " - " + a.Description
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&search, "name", "", "search terms matched against name and description")
	cmd.Flags().StringVar(&status, "status", "", "filter by status (available, in_use)")
	cmd.Flags().BoolVar(&retiredOnly, "retired", false, "show only retired assets")
	cmd.Flags().BoolVar(&all, "all", false, "include retired assets")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}

func newAssetRetireCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retire <name>",
		Short: "Retire an asset (kept for history, no new custody)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asset, err := resolveAsset(args[0])
			if err != nil {
				return err
			}
			if asset.Held() {
				fmt.Fprintln(cmd.OutOrStdout(), i18n.T("asset.retire_held_warning", asset.Name))
			}
			if err := db.SetAssetRetired(asset.ID, true); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("asset.retired", asset.Name))
			return nil
		},
	}
}

func newAssetRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <name>",
		Short: "Bring a retired asset back into service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asset, err := resolveAsset(args[0])
			if err != nil {
				return err
			}
			if err := db.SetAssetRetired(asset.ID, false); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("asset.restored", asset.Name))
			return nil
		},
	}
}

func newAssetSetGroupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-groups <name> [group...]",
		Short: "Replace the groups advised for an asset (none clears the restriction)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asset, err := resolveAsset(args[0])
			if err != nil {
				return err
			}
			ids, err := ensureGroups(args[1:])
			if err != nil {
				return err
			}
			if err := db.SetAssetRequiredGroups(asset.ID, ids); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("asset.groups_set", asset.Name, len(ids)))
			return nil
		},
	}
}

// ensureGroups maps group names to ids, creating missing groups.
func ensureGroups(names []string) ([]int64, error) {
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		id, err := db.EnsureGroup(name)
		if err != nil {
			return nil, fmt.Errorf("ensure group %q: %w", name, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
