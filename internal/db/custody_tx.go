// Copyright (c) 2026 Claviger Team
// Claviger - physical key custody tracker
// This source code is licensed under the MIT license found in the LICENSE file.

// This file contains the custody ledger queries and the single
// transactional write path for custody transitions.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/claviger/claviger/internal/custody"
	"github.com/claviger/claviger/internal/model"
)

// CustodyEventModel maps the `custody_events` table. Rows are append-only;
// there are deliberately no update or delete helpers for this model.
type CustodyEventModel struct {
	bun.BaseModel `bun:"table:custody_events"`
	ID            int64         `bun:"id,pk,autoincrement"`
	AssetID       sql.NullInt64 `bun:"asset_id"`
	ActorID       sql.NullInt64 `bun:"actor_id"`
	Kind          string        `bun:"kind"`
	OccurredAt    time.Time     `bun:"occurred_at"`
}

// custodyEventRow carries a ledger row joined with display names.
type custodyEventRow struct {
	ID         int64         `bun:"id"`
	AssetID    sql.NullInt64 `bun:"asset_id"`
	ActorID    sql.NullInt64 `bun:"actor_id"`
	Kind       string        `bun:"kind"`
	OccurredAt time.Time     `bun:"occurred_at"`
	AssetName  string        `bun:"asset_name"`
	ActorName  string        `bun:"actor_name"`
}

func eventModelToModel(e CustodyEventModel) model.CustodyEvent {
	ev := model.CustodyEvent{
		ID:         e.ID,
		Kind:       model.EventKind(e.Kind),
		OccurredAt: e.OccurredAt,
	}
	if e.AssetID.Valid {
		id := e.AssetID.Int64
		ev.AssetID = &id
	}
	if e.ActorID.Valid {
		id := e.ActorID.Int64
		ev.ActorID = &id
	}
	return ev
}

func eventRowToModel(r custodyEventRow) model.CustodyEvent {
	ev := model.CustodyEvent{
		ID:         r.ID,
		Kind:       model.EventKind(r.Kind),
		OccurredAt: r.OccurredAt,
		AssetName:  r.AssetName,
		ActorName:  r.ActorName,
	}
	if r.AssetID.Valid {
		id := r.AssetID.Int64
		ev.AssetID = &id
	}
	if r.ActorID.Valid {
		id := r.ActorID.Int64
		ev.ActorID = &id
	}
	return ev
}

// LastEventForBun returns the most recent ledger entry for an asset, or
// nil when the asset has no history. Used for consistency checks and
// recovery independent of the registry's cached fields.
func LastEventForBun(bdb *bun.DB, assetID int64) (*model.CustodyEvent, error) {
	ctx := context.Background()
	var em CustodyEventModel
	err := bdb.NewSelect().Model(&em).
		Where("asset_id = ?", assetID).
		OrderExpr("occurred_at DESC, id DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	ev := eventModelToModel(em)
	return &ev, nil
}

// EventsForAssetBun returns an asset's full ledger in causal order
// (oldest first), the order the snapshot fold consumes.
func EventsForAssetBun(bdb *bun.DB, assetID int64) ([]model.CustodyEvent, error) {
	ctx := context.Background()
	var em []CustodyEventModel
	err := bdb.NewSelect().Model(&em).
		Where("asset_id = ?", assetID).
		OrderExpr("occurred_at, id").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.CustodyEvent, 0, len(em))
	for _, e := range em {
		out = append(out, eventModelToModel(e))
	}
	return out, nil
}

// QueryEventsBun returns ledger entries matching the filter, newest
// first, with asset and actor names joined for display. Entries whose
// asset or actor row was deleted keep an empty name. limit <= 0 means no
// page bound.
func QueryEventsBun(bdb *bun.DB, filter EventFilter, limit, offset int) ([]model.CustodyEvent, error) {
	ctx := context.Background()

	query := `SELECT e.id, e.asset_id, e.actor_id, e.kind, e.occurred_at,
	       COALESCE(a.name, '') AS asset_name,
	       COALESCE(u.username, '') AS actor_name
	FROM custody_events e
	LEFT JOIN assets a ON a.id = e.asset_id
	LEFT JOIN actors u ON u.id = e.actor_id`

	var conds []string
	var args []interface{}
	if filter.AssetNameContains != "" {
		conds = append(conds, "LOWER(COALESCE(a.name, '')) LIKE ?")
		args = append(args, "%"+strings.ToLower(filter.AssetNameContains)+"%")
	}
	if filter.ActorNameContains != "" {
		conds = append(conds, "(LOWER(COALESCE(u.username, '')) LIKE ? OR LOWER(COALESCE(u.display_name, '')) LIKE ?)")
		like := "%" + strings.ToLower(filter.ActorNameContains) + "%"
		args = append(args, like, like)
	}
	if filter.Kind != "" {
		if !model.ValidEventKind(filter.Kind) {
			return nil, fmt.Errorf("invalid event kind %q", filter.Kind)
		}
		conds = append(conds, "e.kind = ?")
		args = append(args, string(filter.Kind))
	}
	if filter.Date != "" {
		day, err := time.ParseInLocation("2006-01-02", filter.Date, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("invalid date filter %q: %w", filter.Date, err)
		}
		conds = append(conds, "e.occurred_at >= ? AND e.occurred_at < ?")
		args = append(args, day, day.AddDate(0, 0, 1))
	}
	for i, c := range conds {
		if i == 0 {
			query += "\n\tWHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += "\n\tORDER BY e.occurred_at DESC, e.id DESC"
	if limit > 0 {
		query += "\n\tLIMIT ? OFFSET ?"
		args = append(args, limit, offset)
	}

	var rows []custodyEventRow
	if err := QueryRawInto(ctx, bdb, &rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]model.CustodyEvent, 0, len(rows))
	for _, r := range rows {
		out = append(out, eventRowToModel(r))
	}
	return out, nil
}

// ApplyTransitionBun executes a custody plan as one transaction: it
// re-reads the asset row (locked with FOR UPDATE on engines that support
// it), verifies the plan's expected holder, appends the planned events
// with write-time timestamps, and updates the asset's live fields.
// A holder mismatch returns custody.ErrStaleState with nothing written,
// so callers can replan against the committed state.
func ApplyTransitionBun(bdb *bun.DB, plan custody.Plan, forUpdate bool) ([]model.CustodyEvent, error) {
	ctx := context.Background()
	if plan.NoOp() {
		return nil, nil
	}

	var written []model.CustodyEvent
	err := WithTx(ctx, bdb, func(ctx context.Context, tx bun.Tx) error {
		var am AssetModel
		sel := tx.NewSelect().Model(&am).Where("id = ?", plan.AssetID).Limit(1)
		if forUpdate {
			sel = sel.For("UPDATE")
		}
		if err := sel.Scan(ctx); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		if plan.CheckHolder && !nullEqual(am.CurrentHolderID, plan.ExpectHolderID) {
			return fmt.Errorf("asset %d holder moved: %w", plan.AssetID, custody.ErrStaleState)
		}

		// Timestamps are assigned at write time. Steps within one
		// transition get strictly increasing instants so the ledger's
		// (occurred_at, id) order matches causal order.
		now := time.Now().UTC()
		for i, step := range plan.Steps {
			em := &CustodyEventModel{
				AssetID:    sql.NullInt64{Int64: plan.AssetID, Valid: true},
				Kind:       string(step.Kind),
				OccurredAt: now.Add(time.Duration(i) * time.Microsecond),
			}
			if step.ActorID != nil {
				em.ActorID = sql.NullInt64{Int64: *step.ActorID, Valid: true}
			}
			if _, err := tx.NewInsert().Model(em).Exec(ctx); err != nil {
				return MapDBError(err)
			}
			ev := eventModelToModel(*em)
			ev.AssetName = am.Name
			written = append(written, ev)
		}

		holder := sql.NullInt64{}
		if plan.NewHolderID != nil {
			holder = sql.NullInt64{Int64: *plan.NewHolderID, Valid: true}
		}
		if _, err := tx.NewUpdate().Model((*AssetModel)(nil)).
			Set("status = ?", string(plan.NewStatus)).
			Set("current_holder_id = ?", holder).
			Where("id = ?", plan.AssetID).
			Exec(ctx); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return written, nil
}

func nullEqual(a sql.NullInt64, b *int64) bool {
	if b == nil {
		return !a.Valid
	}
	return a.Valid && a.Int64 == *b
}
