// Copyright (c) 2026 Claviger Team
// Claviger - physical key custody tracker
// This source code is licensed under the MIT license found in the LICENSE file.

// This file contains the PostgreSQL implementation of the database store.
package db

import (
	"github.com/uptrace/bun"

	"github.com/claviger/claviger/internal/custody"
	"github.com/claviger/claviger/internal/model"
)

// PostgresStore is the PostgreSQL implementation of the Store interface.
// Custody transitions take a FOR UPDATE lock on the asset row so
// concurrent transitions serialize instead of racing.
type PostgresStore struct {
	bun *bun.DB
}

func (s *PostgresStore) GetAsset(id int64) (*model.Asset, error) {
	return GetAssetBun(s.bun, id)
}

func (s *PostgresStore) GetAssetByName(name string) (*model.Asset, error) {
	return GetAssetByNameBun(s.bun, name)
}

func (s *PostgresStore) AddAsset(name, description string) (int64, error) {
	return AddAssetBun(s.bun, name, description)
}

func (s *PostgresStore) UpdateAssetDescription(id int64, description string) error {
	return UpdateAssetDescriptionBun(s.bun, id, description)
}

func (s *PostgresStore) SetAssetRetired(id int64, retired bool) error {
	return SetAssetRetiredBun(s.bun, id, retired)
}

func (s *PostgresStore) FindAssets(filter AssetFilter, limit, offset int) ([]model.Asset, error) {
	return FindAssetsBun(s.bun, filter, limit, offset)
}

func (s *PostgresStore) SetAssetRequiredGroups(assetID int64, groupIDs []int64) error {
	return SetAssetRequiredGroupsBun(s.bun, assetID, groupIDs)
}

func (s *PostgresStore) RequiredGroupsForAsset(assetID int64) ([]model.Group, error) {
	return RequiredGroupsForAssetBun(s.bun, assetID)
}

func (s *PostgresStore) AddActor(username, displayName, contact string) (int64, error) {
	return AddActorBun(s.bun, username, displayName, contact)
}

func (s *PostgresStore) GetActor(id int64) (*model.Actor, error) {
	return GetActorBun(s.bun, id)
}

func (s *PostgresStore) GetActorByUsername(username string) (*model.Actor, error) {
	return GetActorByUsernameBun(s.bun, username)
}

func (s *PostgresStore) FindActors(search string, limit, offset int) ([]model.Actor, error) {
	return FindActorsBun(s.bun, search, limit, offset)
}

func (s *PostgresStore) SetActorActive(id int64, active bool) error {
	return SetActorActiveBun(s.bun, id, active)
}

func (s *PostgresStore) EnsureGroup(name string) (int64, error) {
	return EnsureGroupBun(s.bun, name)
}

func (s *PostgresStore) SetActorGroups(actorID int64, groupIDs []int64) error {
	return SetActorGroupsBun(s.bun, actorID, groupIDs)
}

func (s *PostgresStore) GroupsForActor(actorID int64) ([]model.Group, error) {
	return GroupsForActorBun(s.bun, actorID)
}

func (s *PostgresStore) LastEventFor(assetID int64) (*model.CustodyEvent, error) {
	return LastEventForBun(s.bun, assetID)
}

func (s *PostgresStore) EventsForAsset(assetID int64) ([]model.CustodyEvent, error) {
	return EventsForAssetBun(s.bun, assetID)
}

func (s *PostgresStore) QueryEvents(filter EventFilter, limit, offset int) ([]model.CustodyEvent, error) {
	return QueryEventsBun(s.bun, filter, limit, offset)
}

func (s *PostgresStore) ApplyTransition(plan custody.Plan) ([]model.CustodyEvent, error) {
	return ApplyTransitionBun(s.bun, plan, true)
}

func (s *PostgresStore) Counters() (Counts, error) {
	return CountersBun(s.bun)
}

func (s *PostgresStore) ExportDataForBackup() (*model.BackupData, error) {
	return ExportDataForBackupBun(s.bun)
}

func (s *PostgresStore) ImportDataFromBackup(backup *model.BackupData) error {
	return ImportDataFromBackupBun(s.bun, backup)
}

func (s *PostgresStore) IntegrateDataFromBackup(backup *model.BackupData) error {
	return IntegrateDataFromBackupBun(s.bun, backup)
}
