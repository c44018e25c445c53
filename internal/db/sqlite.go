// Copyright (c) 2026 Claviger Team
// Claviger - physical key custody tracker
// This source code is licensed under the MIT license found in the LICENSE file.

// package db provides the data access layer for Claviger.
// This file contains the SQLite implementation of the database store.
package db

import (
	"github.com/uptrace/bun"

	"github.com/claviger/claviger/internal/custody"
	"github.com/claviger/claviger/internal/model"
)

// SqliteStore is the SQLite implementation of the Store interface.
// SQLite serializes writers, so the custody transaction does not use
// row-level locking; the in-transaction re-read still catches stale
// plans.
type SqliteStore struct {
	bun *bun.DB
}

func (s *SqliteStore) GetAsset(id int64) (*model.Asset, error) {
	return GetAssetBun(s.bun, id)
}

func (s *SqliteStore) GetAssetByName(name string) (*model.Asset, error) {
	return GetAssetByNameBun(s.bun, name)
}

func (s *SqliteStore) AddAsset(name, description string) (int64, error) {
	return AddAssetBun(s.bun, name, description)
}

func (s *SqliteStore) UpdateAssetDescription(id int64, description string) error {
	return UpdateAssetDescriptionBun(s.bun, id, description)
}

func (s *SqliteStore) SetAssetRetired(id int64, retired bool) error {
	return SetAssetRetiredBun(s.bun, id, retired)
}

func (s *SqliteStore) FindAssets(filter AssetFilter, limit, offset int) ([]model.Asset, error) {
	return FindAssetsBun(s.bun, filter, limit, offset)
}

func (s *SqliteStore) SetAssetRequiredGroups(assetID int64, groupIDs []int64) error {
	return SetAssetRequiredGroupsBun(s.bun, assetID, groupIDs)
}

func (s *SqliteStore) RequiredGroupsForAsset(assetID int64) ([]model.Group, error) {
	return RequiredGroupsForAssetBun(s.bun, assetID)
}

func (s *SqliteStore) AddActor(username, displayName, contact string) (int64, error) {
	return AddActorBun(s.bun, username, displayName, contact)
}

func (s *SqliteStore) GetActor(id int64) (*model.Actor, error) {
	return GetActorBun(s.bun, id)
}

func (s *SqliteStore) GetActorByUsername(username string) (*model.Actor, error) {
	return GetActorByUsernameBun(s.bun, username)
}

func (s *SqliteStore) FindActors(search string, limit, offset int) ([]model.Actor, error) {
	return FindActorsBun(s.bun, search, limit, offset)
}

func (s *SqliteStore) SetActorActive(id int64, active bool) error {
	return SetActorActiveBun(s.bun, id, active)
}

func (s *SqliteStore) EnsureGroup(name string) (int64, error) {
	return EnsureGroupBun(s.bun, name)
}

func (s *SqliteStore) SetActorGroups(actorID int64, groupIDs []int64) error {
	return SetActorGroupsBun(s.bun, actorID, groupIDs)
}

func (s *SqliteStore) GroupsForActor(actorID int64) ([]model.Group, error) {
	return GroupsForActorBun(s.bun, actorID)
}

func (s *SqliteStore) LastEventFor(assetID int64) (*model.CustodyEvent, error) {
	return LastEventForBun(s.bun, assetID)
}

func (s *SqliteStore) EventsForAsset(assetID int64) ([]model.CustodyEvent, error) {
	return EventsForAssetBun(s.bun, assetID)
}

func (s *SqliteStore) QueryEvents(filter EventFilter, limit, offset int) ([]model.CustodyEvent, error) {
	return QueryEventsBun(s.bun, filter, limit, offset)
}

func (s *SqliteStore) ApplyTransition(plan custody.Plan) ([]model.CustodyEvent, error) {
	return ApplyTransitionBun(s.bun, plan, false)
}

func (s *SqliteStore) Counters() (Counts, error) {
	return CountersBun(s.bun)
}

func (s *SqliteStore) ExportDataForBackup() (*model.BackupData, error) {
	return ExportDataForBackupBun(s.bun)
}

func (s *SqliteStore) ImportDataFromBackup(backup *model.BackupData) error {
	return ImportDataFromBackupBun(s.bun, backup)
}

func (s *SqliteStore) IntegrateDataFromBackup(backup *model.BackupData) error {
	return IntegrateDataFromBackupBun(s.bun, backup)
}
