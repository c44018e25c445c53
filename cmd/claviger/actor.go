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

// resolveActor looks an actor up by their unique username.
func resolveActor(username string) (*model.Actor, error) {
	actor, err := db.GetActorByUsername(username)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, errors.New(i18n.T("actor.not_found", username))
		}
		return nil, err
	}
	return actor, nil
}

func newActorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "actor",
		Short: "Manage actors (key holders)",
	}
	cmd.AddCommand(newActorAddCmd())
	cmd.AddCommand(newActorListCmd())
	cmd.AddCommand(newActorSetGroupsCmd())
	cmd.AddCommand(newActorActivateCmd())
	cmd.AddCommand(newActorDeactivateCmd())
	return cmd
}

func newActorAddCmd() *cobra.Command {
	var displayName, contact string
	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Register a new actor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := strings.TrimSpace(args[0])
			if username == "" {
				return errors.New(i18n.T("actor.empty_username"))
			}
			id, err := db.AddActor(username, displayName, contact)
			if err != nil {
				if errors.Is(err, db.ErrDuplicate) {
					return errors.New(i18n.T("actor.duplicate", username))
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("actor.added", username, id))
			return nil
		},
	}
	cmd.Flags().StringVarP(&displayName, "name", "n", "", "display name")
	cmd.Flags().StringVarP(&contact, "contact", "c", "", "contact (email or phone)")
	return cmd
}

func newActorListCmd() *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "list [search]",
		Short: "List active actors",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			search := ""
			if len(args) > 0 {
				search = args[0]
			}
			if page < 1 {
				page = 1
			}
			actors, err := db.FindActors(search, pageSize, (page-1)*pageSize)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(actors) == 0 {
				fmt.Fprintln(out, i18n.T("actor.list_empty"))
				return nil
			}
			for _, a := range actors {
				line := a.Username
				if a.DisplayName != "" {
					line += " (" + a.DisplayName + ")"
				}
				if len(a.Groups) > 0 {
					names := make([]string, 0, len(a.Groups))
					for _, g := range a.Groups {
						names = append(names, g.Name)
					}
					line += " [" + strings.Join(names, ", ") + "]"
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}

func newActorSetGroupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-groups <username> [group...]",
		Short: "Replace an actor's group memberships",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := resolveActor(args[0])
			if err != nil {
				return err
			}
			ids, err := ensureGroups(args[1:])
			if err != nil {
				return err
			}
			if err := db.SetActorGroups(actor.ID, ids); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("actor.groups_set", actor.Username, len(ids)))
			return nil
		},
	}
}

func newActorActivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "activate <username>",
		Short: "Reactivate an actor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := resolveActor(args[0])
			if err != nil {
				return err
			}
			if err := db.SetActorActive(actor.ID, true); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("actor.activated", actor.Username))
			return nil
		},
	}
}

func newActorDeactivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <username>",
		Short: "Deactivate an actor (history is kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := resolveActor(args[0])
			if err != nil {
				return err
			}
			if err := db.SetActorActive(actor.ID, false); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("actor.deactivated", actor.Username))
			return nil
		},
	}
}
