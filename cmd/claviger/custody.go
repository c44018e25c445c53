// Copyright (c) 2026 Claviger Team
// Claviger - physical key custody tracker
// This source code is licensed under the MIT license found in the LICENSE file.

// custody.go holds the commands that touch the custody ledger: acquire,
// return, history and verify.

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/claviger/claviger/internal/custody"
	"github.com/claviger/claviger/internal/db"
	"github.com/claviger/claviger/internal/i18n"
	"github.com/claviger/claviger/internal/model"
	"github.com/claviger/claviger/internal/policy"
)

func newAcquireCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "acquire <asset> <actor>",
		Short: "Record an actor taking custody of an asset",
		Long: `Records the actor taking custody of the asset. If someone else
holds it, the hand-off is recorded as a transfer; acquiring an asset you
already hold changes nothing. Group restrictions are advisory: a warning
is printed, the acquisition still proceeds.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			asset, err := resolveAsset(args[0])
			if err != nil {
				return err
			}
			actor, err := resolveActor(args[1])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if !actor.Active {
				fmt.Fprintln(out, i18n.T("acquire.inactive_warning", actor.Username))
			}
			decision := policy.Evaluate(asset.RequiredGroups, actor.Groups)
			if !decision.Permitted {
				fmt.Fprintln(out, i18n.T("acquire.policy_warning",
					actor.Username, asset.Name, strings.Join(decision.RequiredGroupNames, ", ")))
			}

			machine := custody.NewMachine(db.ActiveStore())
			events, err := machine.Acquire(asset.ID, actor.ID)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Fprintln(out, i18n.T("acquire.already_held", actor.Username, asset.Name))
				return nil
			}
			for _, e := range events {
				if e.Kind == model.KindTransferred {
					fmt.Fprintln(out, i18n.T("acquire.transferred", asset.Name))
				}
			}
			fmt.Fprintln(out, i18n.T("acquire.success", actor.Username, asset.Name))
			return nil
		},
	}
}

func newReturnCmd() *cobra.Command {
	var unattributed bool
	cmd := &cobra.Command{
		Use:   "return <asset> [actor]",
		Short: "Record an asset coming back to the front desk",
		Long: `Records the asset as returned and available. The returning actor
defaults to the current holder; pass an actor explicitly for staff-assisted
returns, or --unattributed when nobody can be credited. Returning an asset
that is already available is valid and still recorded.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			asset, err := resolveAsset(args[0])
			if err != nil {
				return err
			}

			var actorID *int64
			switch {
			case unattributed:
			case len(args) == 2:
				actor, err := resolveActor(args[1])
				if err != nil {
					return err
				}
				actorID = &actor.ID
			default:
				actorID = asset.CurrentHolderID
			}

			machine := custody.NewMachine(db.ActiveStore())
			if _, err := machine.Return(asset.ID, actorID); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("return.success", asset.Name))
			return nil
		},
	}
	cmd.Flags().BoolVar(&unattributed, "unattributed", false, "record the return without an actor")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	var (
		assetName string
		actorName string
		kind      string
		date      string
		page      int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse the custody ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if page < 1 {
				page = 1
			}
			filter := db.EventFilter{
				AssetNameContains: assetName,
				ActorNameContains: actorName,
				Kind:              model.EventKind(kind),
				Date:              date,
			}
			events, err := db.QueryEvents(filter, pageSize, (page-1)*pageSize)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(events) == 0 {
				fmt.Fprintln(out, i18n.T("history.empty"))
				return nil
			}
			for _, e := range events {
				fmt.Fprintln(out, e.String())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&assetName, "asset", "", "filter by asset name substring")
	cmd.Flags().StringVar(&actorName, "actor", "", "filter by actor name substring")
	cmd.Flags().StringVar(&kind, "kind", "", "filter by event kind (acquired, returned, transferred)")
	cmd.Flags().StringVar(&date, "date", "", "filter by UTC day (YYYY-MM-DD)")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify [asset]",
		Short: "Check cached custody state against the ledger",
		Long: `Recomputes each asset's custody state from its ledger and compares
it to the cached status and holder. Drift indicates a bug or manual edit;
the ledger is the source of truth.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			machine := custody.NewMachine(db.ActiveStore())

			var assets []model.Asset
			if len(args) == 1 {
				asset, err := resolveAsset(args[0])
				if err != nil {
					return err
				}
				assets = []model.Asset{*asset}
			} else {
				all, err := db.FindAssets(db.AssetFilter{}, 0, 0)
				if err != nil {
					return err
				}
				assets = all
			}

			out := cmd.OutOrStdout()
			drifted := 0
			for _, a := range assets {
				report, err := machine.VerifyAsset(a.ID)
				if err != nil {
					return err
				}
				if report.InSync {
					continue
				}
				drifted++
				fmt.Fprintln(out, i18n.T("verify.drift", report.AssetName,
					string(report.CachedStatus), holderLabel(report.CachedHolder),
					string(report.LedgerStatus), holderLabel(report.LedgerHolder)))
			}
			if drifted == 0 {
				fmt.Fprintln(out, i18n.T("verify.ok", len(assets)))
				return nil
			}
			return errors.New(i18n.T("verify.drift_summary", drifted))
		},
	}
}

func holderLabel(id *int64) string {
	if id == nil {
		return "-"
	}
	if actor, err := db.GetActor(*id); err == nil {
		return actor.Username
	}
	return fmt.Sprintf("#%d", *id)
}
