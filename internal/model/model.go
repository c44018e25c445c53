// Copyright (c) 2026 Claviger Team
// Claviger - physical key custody tracker
// This source code is licensed under the MIT license found in the LICENSE file.

// Package model defines the plain domain types shared across Claviger.
// These structs carry no persistence concerns; the db package maps them
// to and from table rows.
package model

import (
	"fmt"
	"time"
)

// AssetStatus is the live availability state of an asset.
type AssetStatus string

const (
	// StatusAvailable means nobody holds the asset.
	StatusAvailable AssetStatus = "available"
	// StatusInUse means the asset is held by CurrentHolderID.
	StatusInUse AssetStatus = "in_use"
)

// EventKind is the type of a custody ledger entry.
type EventKind string

const (
	// KindAcquired records an actor taking custody of an asset.
	KindAcquired EventKind = "acquired"
	// KindReturned records an asset going back to the front desk.
	KindReturned EventKind = "returned"
	// KindTransferred records the outgoing holder's implicit release when
	// a new holder acquires the asset without an explicit return.
	KindTransferred EventKind = "transferred"
)

// ValidEventKind reports whether k is one of the three ledger kinds.
func ValidEventKind(k EventKind) bool {
	switch k {
	case KindAcquired, KindReturned, KindTransferred:
		return true
	}
	return false
}

// Asset is a physical key tracked by the system. Status and
// CurrentHolderID are a cache of the last custody event; they are mutated
// only by the custody state machine, inside its transaction.
type Asset struct {
	ID              int64
	Name            string
	Description     string
	Status          AssetStatus
	CurrentHolderID *int64
	Retired         bool

	// RequiredGroups restricts who may acquire the asset; empty means
	// unrestricted. Loaded on demand, advisory only.
	RequiredGroups []Group
}

// Held reports whether the asset currently has a holder.
func (a Asset) Held() bool {
	return a.CurrentHolderID != nil
}

// String returns the asset name with its status for display.
func (a Asset) String() string {
	return fmt.Sprintf("%s [%s]", a.Name, a.Status)
}

// Actor is a user who can hold assets. Identity is owned by an external
// collaborator; Claviger treats actors as reference data plus a group
// membership set.
type Actor struct {
	ID          int64
	Username    string
	DisplayName string
	Contact     string
	Active      bool
	Groups      []Group
}

// String returns the display name, falling back to the username.
func (a Actor) String() string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return a.Username
}

// Group is an opaque membership identifier used for set-intersection
// checks between an asset's required groups and an actor's groups.
type Group struct {
	ID   int64
	Name string
}

// CustodyEvent is one immutable ledger entry. AssetID and ActorID are
// nullable so history survives deletion of either referenced row.
type CustodyEvent struct {
	ID         int64
	AssetID    *int64
	ActorID    *int64
	Kind       EventKind
	OccurredAt time.Time

	// AssetName and ActorName are joined display fields; they are not
	// always populated and never written back.
	AssetName string
	ActorName string
}

// String renders a ledger entry resilient to deleted assets and actors.
func (e CustodyEvent) String() string {
	asset := e.AssetName
	if asset == "" {
		asset = "[deleted asset]"
	}
	actor := e.ActorName
	if actor == "" {
		actor = "[no actor]"
	}
	return fmt.Sprintf("%s - %s by %s at %s", asset, e.Kind, actor, e.OccurredAt.Format("2006-01-02 15:04"))
}

// ActorGroup is a row of the actor/group membership join table, used by
// backup export and import.
type ActorGroup struct {
	ActorID int64 `json:"actor_id"`
	GroupID int64 `json:"group_id"`
}

// AssetRequiredGroup is a row of the asset/group restriction join table,
// used by backup export and import.
type AssetRequiredGroup struct {
	AssetID int64 `json:"asset_id"`
	GroupID int64 `json:"group_id"`
}

// BackupData is a container for all data exported in a backup.
type BackupData struct {
	// SchemaVersion helps in handling migrations during restore.
	SchemaVersion int `json:"schema_version"`

	Assets              []Asset              `json:"assets"`
	Actors              []Actor              `json:"actors"`
	Groups              []Group              `json:"groups"`
	ActorGroups         []ActorGroup         `json:"actor_groups"`
	AssetRequiredGroups []AssetRequiredGroup `json:"asset_required_groups"`
	CustodyEvents       []CustodyEvent       `json:"custody_events"`
}
