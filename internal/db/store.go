// Copyright (c) 2026 Claviger Team
// Claviger - physical key custody tracker
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"github.com/claviger/claviger/internal/custody"
	"github.com/claviger/claviger/internal/model"
)

// AssetFilter narrows FindAssets results. Zero values mean "any".
type AssetFilter struct {
	// Search is a whitespace-separated token query; every token must
	// match the asset name or description, case-insensitively.
	Search string
	// Status filters by availability when non-empty.
	Status model.AssetStatus
	// Retired filters by the soft-delete flag when non-nil.
	Retired *bool
}

// EventFilter narrows QueryEvents results. Zero values mean "any".
type EventFilter struct {
	// AssetNameContains matches case-insensitively against the joined asset name.
	AssetNameContains string
	// ActorNameContains matches case-insensitively against the joined
	// actor username or display name.
	ActorNameContains string
	// Kind filters by event kind when non-empty.
	Kind model.EventKind
	// Date restricts events to one UTC calendar day, formatted 2006-01-02.
	Date string
}

// Counts aggregates table sizes for the dashboard.
type Counts struct {
	Assets        int
	AssetsInUse   int
	AssetsRetired int
	Actors        int
	Events        int
}

// Store defines the interface for all database operations in Claviger.
// This allows for multiple database backends to be implemented.
//
// The custody ledger is append-only by construction: the only write path
// into custody_events is ApplyTransition, and no update or delete methods
// exist for it.
type Store interface {
	// Asset registry
	GetAsset(id int64) (*model.Asset, error)
	GetAssetByName(name string) (*model.Asset, error)
	AddAsset(name, description string) (int64, error)
	UpdateAssetDescription(id int64, description string) error
	SetAssetRetired(id int64, retired bool) error
	FindAssets(filter AssetFilter, limit, offset int) ([]model.Asset, error)
	SetAssetRequiredGroups(assetID int64, groupIDs []int64) error
	RequiredGroupsForAsset(assetID int64) ([]model.Group, error)

	// Actors and groups (identity reference data)
	AddActor(username, displayName, contact string) (int64, error)
	GetActor(id int64) (*model.Actor, error)
	GetActorByUsername(username string) (*model.Actor, error)
	FindActors(search string, limit, offset int) ([]model.Actor, error)
	SetActorActive(id int64, active bool) error
	EnsureGroup(name string) (int64, error)
	SetActorGroups(actorID int64, groupIDs []int64) error
	GroupsForActor(actorID int64) ([]model.Group, error)

	// Custody ledger
	LastEventFor(assetID int64) (*model.CustodyEvent, error)
	EventsForAsset(assetID int64) ([]model.CustodyEvent, error)
	QueryEvents(filter EventFilter, limit, offset int) ([]model.CustodyEvent, error)
	ApplyTransition(plan custody.Plan) ([]model.CustodyEvent, error)

	// Dashboard
	Counters() (Counts, error)

	// Backup
	ExportDataForBackup() (*model.BackupData, error)
	ImportDataFromBackup(backup *model.BackupData) error
	IntegrateDataFromBackup(backup *model.BackupData) error
}
