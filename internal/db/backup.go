// Copyright (c) 2026 Claviger Team
// Claviger - physical key custody tracker
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"github.com/claviger/claviger/internal/model"
)

// ExportDataForBackupBun exports all tables' data into a model.BackupData
// using a Bun transaction for a consistent snapshot.
func ExportDataForBackupBun(bdb *bun.DB) (*model.BackupData, error) {
	ctx := context.Background()
	var backup *model.BackupData
	err := WithTx(ctx, bdb, func(ctx context.Context, tx bun.Tx) error {
		backup = &model.BackupData{SchemaVersion: 1}

		var assets []AssetModel
		if err := tx.NewSelect().Model(&assets).OrderExpr("id").Scan(ctx); err != nil {
			return err
		}
		for _, a := range assets {
			backup.Assets = append(backup.Assets, assetModelToModel(a))
		}

		var actors []ActorModel
		if err := tx.NewSelect().Model(&actors).OrderExpr("id").Scan(ctx); err != nil {
			return err
		}
		for _, a := range actors {
			backup.Actors = append(backup.Actors, actorModelToModel(a))
		}

		var groups []GroupModel
		if err := tx.NewSelect().Model(&groups).OrderExpr("id").Scan(ctx); err != nil {
			return err
		}
		for _, g := range groups {
			backup.Groups = append(backup.Groups, groupModelToModel(g))
		}

		var ags []ActorGroupModel
		if err := tx.NewSelect().Model(&ags).Scan(ctx); err != nil {
			return err
		}
		for _, ag := range ags {
			backup.ActorGroups = append(backup.ActorGroups, model.ActorGroup{ActorID: ag.ActorID, GroupID: ag.GroupID})
		}

		var args []AssetRequiredGroupModel
		if err := tx.NewSelect().Model(&args).Scan(ctx); err != nil {
			return err
		}
		for _, ag := range args {
			backup.AssetRequiredGroups = append(backup.AssetRequiredGroups, model.AssetRequiredGroup{AssetID: ag.AssetID, GroupID: ag.GroupID})
		}

		var events []CustodyEventModel
		if err := tx.NewSelect().Model(&events).OrderExpr("occurred_at, id").Scan(ctx); err != nil {
			return err
		}
		for _, e := range events {
			backup.CustodyEvents = append(backup.CustodyEvents, eventModelToModel(e))
		}

		return nil
	})
	return backup, err
}

// ImportDataFromBackupBun performs a full wipe-and-replace using a Bun
// transaction. Row ids are preserved so the ledger's foreign keys stay
// intact.
func ImportDataFromBackupBun(bdb *bun.DB, backup *model.BackupData) error {
	ctx := context.Background()
	return WithTx(ctx, bdb, func(ctx context.Context, tx bun.Tx) error {
		// Wipe in FK-dependency order.
		tables := []string{"custody_events", "asset_required_groups", "actor_groups", "assets", "permission_groups", "actors"}
		for _, t := range tables {
			if _, err := ExecRaw(ctx, tx, "DELETE FROM "+t); err != nil {
				return err
			}
		}

		for _, a := range backup.Actors {
			if _, err := ExecRaw(ctx, tx,
				"INSERT INTO actors (id, username, display_name, contact, is_active) VALUES (?, ?, ?, ?, ?)",
				a.ID, a.Username, a.DisplayName, a.Contact, a.Active); err != nil {
				return MapDBError(err)
			}
		}
		for _, g := range backup.Groups {
			if _, err := ExecRaw(ctx, tx,
				"INSERT INTO permission_groups (id, name) VALUES (?, ?)", g.ID, g.Name); err != nil {
				return MapDBError(err)
			}
		}
		for _, ag := range backup.ActorGroups {
			if _, err := ExecRaw(ctx, tx,
				"INSERT INTO actor_groups (actor_id, group_id) VALUES (?, ?)", ag.ActorID, ag.GroupID); err != nil {
				return MapDBError(err)
			}
		}
		for _, a := range backup.Assets {
			holder := sql.NullInt64{}
			if a.CurrentHolderID != nil {
				holder = sql.NullInt64{Int64: *a.CurrentHolderID, Valid: true}
			}
			if _, err := ExecRaw(ctx, tx,
				"INSERT INTO assets (id, name, description, status, current_holder_id, retired) VALUES (?, ?, ?, ?, ?, ?)",
				a.ID, a.Name, a.Description, string(a.Status), holder, a.Retired); err != nil {
				return MapDBError(err)
			}
		}
		for _, ag := range backup.AssetRequiredGroups {
			if _, err := ExecRaw(ctx, tx,
				"INSERT INTO asset_required_groups (asset_id, group_id) VALUES (?, ?)", ag.AssetID, ag.GroupID); err != nil {
				return MapDBError(err)
			}
		}
		for _, e := range backup.CustodyEvents {
			assetID := sql.NullInt64{}
			if e.AssetID != nil {
				assetID = sql.NullInt64{Int64: *e.AssetID, Valid: true}
			}
			actorID := sql.NullInt64{}
			if e.ActorID != nil {
				actorID = sql.NullInt64{Int64: *e.ActorID, Valid: true}
			}
			if _, err := ExecRaw(ctx, tx,
				"INSERT INTO custody_events (id, asset_id, actor_id, kind, occurred_at) VALUES (?, ?, ?, ?, ?)",
				e.ID, assetID, actorID, string(e.Kind), e.OccurredAt); err != nil {
				return MapDBError(err)
			}
		}
		return nil
	})
}

// mergeInsertSQL rewrites a plain INSERT into the current dialect's
// skip-on-conflict form: ON CONFLICT DO NOTHING for postgres,
// INSERT IGNORE for mysql, INSERT OR IGNORE for sqlite.
func mergeInsertSQL(bdb *bun.DB, insert string) string {
	switch bdb.Dialect().Name() {
	case dialect.PG:
		return insert + " ON CONFLICT DO NOTHING"
	case dialect.MySQL:
		return strings.Replace(insert, "INSERT", "INSERT IGNORE", 1)
	default:
		return strings.Replace(insert, "INSERT", "INSERT OR IGNORE", 1)
	}
}

// IntegrateDataFromBackupBun performs a non-destructive restore, skipping
// rows whose ids already exist. Live asset state is only written for
// assets the target does not know about; existing assets keep their
// current custody.
func IntegrateDataFromBackupBun(bdb *bun.DB, backup *model.BackupData) error {
	ctx := context.Background()
	return WithTx(ctx, bdb, func(ctx context.Context, tx bun.Tx) error {
		for _, a := range backup.Actors {
			if _, err := ExecRaw(ctx, tx,
				mergeInsertSQL(bdb, "INSERT INTO actors (id, username, display_name, contact, is_active) VALUES (?, ?, ?, ?, ?)"),
				a.ID, a.Username, a.DisplayName, a.Contact, a.Active); err != nil {
				return err
			}
		}
		for _, g := range backup.Groups {
			if _, err := ExecRaw(ctx, tx,
				mergeInsertSQL(bdb, "INSERT INTO permission_groups (id, name) VALUES (?, ?)"), g.ID, g.Name); err != nil {
				return err
			}
		}
		for _, ag := range backup.ActorGroups {
			if _, err := ExecRaw(ctx, tx,
				mergeInsertSQL(bdb, "INSERT INTO actor_groups (actor_id, group_id) VALUES (?, ?)"), ag.ActorID, ag.GroupID); err != nil {
				return err
			}
		}
		for _, a := range backup.Assets {
			holder := sql.NullInt64{}
			if a.CurrentHolderID != nil {
				holder = sql.NullInt64{Int64: *a.CurrentHolderID, Valid: true}
			}
			if _, err := ExecRaw(ctx, tx,
				mergeInsertSQL(bdb, "INSERT INTO assets (id, name, description, status, current_holder_id, retired) VALUES (?, ?, ?, ?, ?, ?)"),
				a.ID, a.Name, a.Description, string(a.Status), holder, a.Retired); err != nil {
				return err
			}
		}
		for _, ag := range backup.AssetRequiredGroups {
			if _, err := ExecRaw(ctx, tx,
				mergeInsertSQL(bdb, "INSERT INTO asset_required_groups (asset_id, group_id) VALUES (?, ?)"), ag.AssetID, ag.GroupID); err != nil {
				return err
			}
		}
		for _, e := range backup.CustodyEvents {
			assetID := sql.NullInt64{}
			if e.AssetID != nil {
				assetID = sql.NullInt64{Int64: *e.AssetID, Valid: true}
			}
			actorID := sql.NullInt64{}
			if e.ActorID != nil {
				actorID = sql.NullInt64{Int64: *e.ActorID, Valid: true}
			}
			if _, err := ExecRaw(ctx, tx,
				mergeInsertSQL(bdb, "INSERT INTO custody_events (id, asset_id, actor_id, kind, occurred_at) VALUES (?, ?, ?, ?, ?)"),
				e.ID, assetID, actorID, string(e.Kind), e.OccurredAt); err != nil {
				return err
			}
		}
		return nil
	})
}
