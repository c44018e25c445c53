// Copyright (c) 2026 Claviger Team
// Claviger - physical key custody tracker
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"github.com/claviger/claviger/internal/model"
)

// AssetModel maps the `assets` table for Bun queries.
type AssetModel struct {
	bun.BaseModel   `bun:"table:assets"`
	ID              int64         `bun:"id,pk,autoincrement"`
	Name            string        `bun:"name"`
	Description     string        `bun:"description"`
	Status          string        `bun:"status"`
	CurrentHolderID sql.NullInt64 `bun:"current_holder_id"`
	Retired         bool          `bun:"retired"`
}

// ActorModel maps the `actors` table.
type ActorModel struct {
	bun.BaseModel `bun:"table:actors"`
	ID            int64  `bun:"id,pk,autoincrement"`
	Username      string `bun:"username"`
	DisplayName   string `bun:"display_name"`
	Contact       string `bun:"contact"`
	IsActive      bool   `bun:"is_active"`
}

// GroupModel maps the `permission_groups` table.
type GroupModel struct {
	bun.BaseModel `bun:"table:permission_groups"`
	ID            int64  `bun:"id,pk,autoincrement"`
	Name          string `bun:"name"`
}

// ActorGroupModel maps the actor/group membership join table.
type ActorGroupModel struct {
	bun.BaseModel `bun:"table:actor_groups"`
	ActorID       int64 `bun:"actor_id"`
	GroupID       int64 `bun:"group_id"`
}

// AssetRequiredGroupModel maps the asset/group restriction join table.
type AssetRequiredGroupModel struct {
	bun.BaseModel `bun:"table:asset_required_groups"`
	AssetID       int64 `bun:"asset_id"`
	GroupID       int64 `bun:"group_id"`
}

// --- Mapping helpers (centralized conversions) ---

func assetModelToModel(a AssetModel) model.Asset {
	asset := model.Asset{
		ID:          a.ID,
		Name:        a.Name,
		Description: a.Description,
		Status:      model.AssetStatus(a.Status),
		Retired:     a.Retired,
	}
	if a.CurrentHolderID.Valid {
		holder := a.CurrentHolderID.Int64
		asset.CurrentHolderID = &holder
	}
	return asset
}

func actorModelToModel(a ActorModel) model.Actor {
	return model.Actor{
		ID:          a.ID,
		Username:    a.Username,
		DisplayName: a.DisplayName,
		Contact:     a.Contact,
		Active:      a.IsActive,
	}
}

func groupModelToModel(g GroupModel) model.Group {
	return model.Group{ID: g.ID, Name: g.Name}
}

// --- Asset registry helpers ---

// GetAssetBun retrieves a single asset by id, including its required
// groups.
func GetAssetBun(bdb *bun.DB, id int64) (*model.Asset, error) {
	ctx := context.Background()
	var am AssetModel
	err := bdb.NewSelect().Model(&am).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	asset := assetModelToModel(am)
	groups, err := RequiredGroupsForAssetBun(bdb, asset.ID)
	if err != nil {
		return nil, err
	}
	asset.RequiredGroups = groups
	return &asset, nil
}

// GetAssetByNameBun retrieves a single asset by its unique name.
func GetAssetByNameBun(bdb *bun.DB, name string) (*model.Asset, error) {
	ctx := context.Background()
	var am AssetModel
	err := bdb.NewSelect().Model(&am).Where("name = ?", name).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	asset := assetModelToModel(am)
	groups, err := RequiredGroupsForAssetBun(bdb, asset.ID)
	if err != nil {
		return nil, err
	}
	asset.RequiredGroups = groups
	return &asset, nil
}

// AddAssetBun inserts a new asset and returns its ID.
func AddAssetBun(bdb *bun.DB, name, description string) (int64, error) {
	ctx := context.Background()
	am := &AssetModel{
		Name:        name,
		Description: description,
		Status:      string(model.StatusAvailable),
	}
	if _, err := bdb.NewInsert().Model(am).Column("name", "description", "status").Returning("id").Exec(ctx); err != nil {
		return 0, MapDBError(err)
	}
	return am.ID, nil
}

// UpdateAssetDescriptionBun updates an asset's description.
func UpdateAssetDescriptionBun(bdb *bun.DB, id int64, description string) error {
	ctx := context.Background()
	res, err := bdb.NewUpdate().Model((*AssetModel)(nil)).
		Set("description = ?", description).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

// SetAssetRetiredBun flips the soft-delete flag. The asset's custody
// state and ledger rows are untouched; a retired asset simply stops
// accepting acquires.
func SetAssetRetiredBun(bdb *bun.DB, id int64, retired bool) error {
	ctx := context.Background()
	res, err := bdb.NewUpdate().Model((*AssetModel)(nil)).
		Set("retired = ?", retired).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

// FindAssetsBun returns assets matching the filter, ordered by name
// ascending. limit <= 0 means no page bound.
func FindAssetsBun(bdb *bun.DB, filter AssetFilter, limit, offset int) ([]model.Asset, error) {
	ctx := context.Background()
	var am []AssetModel
	q := bdb.NewSelect().Model(&am)
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if filter.Retired != nil {
		q = q.Where("retired = ?", *filter.Retired)
	}
	q = q.OrderExpr("name")
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.Asset, 0, len(am))
	for _, a := range am {
		out = append(out, assetModelToModel(a))
	}
	// Status and retired narrow in SQL; the search terms match in memory
	// so a token can hit either the name or the description.
	out = FilterAssetsByTokens(out, TokenizeSearchQuery(filter.Search))
	return pageOf(out, limit, offset), nil
}

// SetAssetRequiredGroupsBun replaces an asset's required-group set in one
// transaction.
func SetAssetRequiredGroupsBun(bdb *bun.DB, assetID int64, groupIDs []int64) error {
	ctx := context.Background()
	return WithTx(ctx, bdb, func(ctx context.Context, tx bun.Tx) error {
		if _, err := ExecRaw(ctx, tx, "DELETE FROM asset_required_groups WHERE asset_id = ?", assetID); err != nil {
			return err
		}
		for _, gid := range groupIDs {
			if _, err := ExecRaw(ctx, tx, "INSERT INTO asset_required_groups (asset_id, group_id) VALUES (?, ?)", assetID, gid); err != nil {
				return MapDBError(err)
			}
		}
		return nil
	})
}

// RequiredGroupsForAssetBun returns an asset's required groups ordered by
// name.
func RequiredGroupsForAssetBun(bdb *bun.DB, assetID int64) ([]model.Group, error) {
	ctx := context.Background()
	var gm []GroupModel
	err := QueryRawInto(ctx, bdb, &gm,
		`SELECT g.id, g.name FROM permission_groups g
		 JOIN asset_required_groups ag ON ag.group_id = g.id
		 WHERE ag.asset_id = ? ORDER BY g.name`, assetID)
	if err != nil {
		return nil, err
	}
	out := make([]model.Group, 0, len(gm))
	for _, g := range gm {
		out = append(out, groupModelToModel(g))
	}
	return out, nil
}

// --- Actor and group helpers ---

// AddActorBun inserts a new actor and returns its ID.
func AddActorBun(bdb *bun.DB, username, displayName, contact string) (int64, error) {
	ctx := context.Background()
	am := &ActorModel{
		Username:    username,
		DisplayName: displayName,
		Contact:     contact,
		IsActive:    true,
	}
	if _, err := bdb.NewInsert().Model(am).Column("username", "display_name", "contact", "is_active").Returning("id").Exec(ctx); err != nil {
		return 0, MapDBError(err)
	}
	return am.ID, nil
}

// GetActorBun retrieves an actor by id, including group memberships.
func GetActorBun(bdb *bun.DB, id int64) (*model.Actor, error) {
	ctx := context.Background()
	var am ActorModel
	err := bdb.NewSelect().Model(&am).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	actor := actorModelToModel(am)
	groups, err := GroupsForActorBun(bdb, actor.ID)
	if err != nil {
		return nil, err
	}
	actor.Groups = groups
	return &actor, nil
}

// GetActorByUsernameBun retrieves an actor by its unique username.
func GetActorByUsernameBun(bdb *bun.DB, username string) (*model.Actor, error) {
	ctx := context.Background()
	var am ActorModel
	err := bdb.NewSelect().Model(&am).Where("username = ?", username).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	actor := actorModelToModel(am)
	groups, err := GroupsForActorBun(bdb, actor.ID)
	if err != nil {
		return nil, err
	}
	actor.Groups = groups
	return &actor, nil
}

// FindActorsBun returns active actors matching the search query, ordered
// by username. The query is tokenized; every token must match the
// username, display name, or contact. limit <= 0 means no page bound.
func FindActorsBun(bdb *bun.DB, search string, limit, offset int) ([]model.Actor, error) {
	ctx := context.Background()
	var am []ActorModel
	q := bdb.NewSelect().Model(&am).Where("is_active = ?", true).OrderExpr("username")
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]model.Actor, 0, len(am))
	for _, a := range am {
		out = append(out, actorModelToModel(a))
	}
	out = FilterActorsByTokens(out, TokenizeSearchQuery(search))
	return pageOf(out, limit, offset), nil
}

// SetActorActiveBun updates an actor's active flag.
func SetActorActiveBun(bdb *bun.DB, id int64, active bool) error {
	ctx := context.Background()
	res, err := bdb.NewUpdate().Model((*ActorModel)(nil)).
		Set("is_active = ?", active).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

// EnsureGroupBun returns the id of the named group, creating it if
// missing.
func EnsureGroupBun(bdb *bun.DB, name string) (int64, error) {
	ctx := context.Background()
	var gm GroupModel
	err := bdb.NewSelect().Model(&gm).Where("name = ?", name).Limit(1).Scan(ctx)
	if err == nil {
		return gm.ID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	gm = GroupModel{Name: name}
	if _, err := bdb.NewInsert().Model(&gm).Column("name").Returning("id").Exec(ctx); err != nil {
		return 0, MapDBError(err)
	}
	return gm.ID, nil
}

// SetActorGroupsBun replaces an actor's group memberships in one
// transaction.
func SetActorGroupsBun(bdb *bun.DB, actorID int64, groupIDs []int64) error {
	ctx := context.Background()
	return WithTx(ctx, bdb, func(ctx context.Context, tx bun.Tx) error {
		if _, err := ExecRaw(ctx, tx, "DELETE FROM actor_groups WHERE actor_id = ?", actorID); err != nil {
			return err
		}
		for _, gid := range groupIDs {
			if _, err := ExecRaw(ctx, tx, "INSERT INTO actor_groups (actor_id, group_id) VALUES (?, ?)", actorID, gid); err != nil {
				return MapDBError(err)
			}
		}
		return nil
	})
}

// GroupsForActorBun returns an actor's groups ordered by name.
func GroupsForActorBun(bdb *bun.DB, actorID int64) ([]model.Group, error) {
	ctx := context.Background()
	var gm []GroupModel
	err := QueryRawInto(ctx, bdb, &gm,
		`SELECT g.id, g.name FROM permission_groups g
		 JOIN actor_groups ag ON ag.group_id = g.id
		 WHERE ag.actor_id = ? ORDER BY g.name`, actorID)
	if err != nil {
		return nil, err
	}
	out := make([]model.Group, 0, len(gm))
	for _, g := range gm {
		out = append(out, groupModelToModel(g))
	}
	return out, nil
}

// CountersBun aggregates table counts for the dashboard view.
func CountersBun(bdb *bun.DB) (Counts, error) {
	ctx := context.Background()
	var c Counts
	type row struct {
		N int `bun:"n"`
	}
	queries := []struct {
		dest  *int
		query string
	}{
		{&c.Assets, "SELECT COUNT(*) AS n FROM assets"},
		{&c.AssetsInUse, "SELECT COUNT(*) AS n FROM assets WHERE status = 'in_use'"},
		{&c.AssetsRetired, "SELECT COUNT(*) AS n FROM assets WHERE retired = TRUE"},
		{&c.Actors, "SELECT COUNT(*) AS n FROM actors WHERE is_active = TRUE"},
		{&c.Events, "SELECT COUNT(*) AS n FROM custody_events"},
	}
	for _, q := range queries {
		var r row
		if err := QueryRawInto(ctx, bdb, &r, q.query); err != nil {
			return Counts{}, err
		}
		*q.dest = r.N
	}
	return c, nil
}

// requireRowAffected converts a zero-row update into ErrNotFound.
func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		// Some drivers cannot report affected rows; treat as success.
		return nil
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
