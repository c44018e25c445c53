// Copyright (c) 2026 Claviger Team
// Claviger - physical key custody tracker
// This source code is licensed under the MIT license found in the LICENSE file.

// This file contains the MySQL implementation of the database store.
package db

import (
	"github.com/uptrace/bun"

	"github.com/claviger/claviger/internal/custody"
	"github.com/claviger/claviger/internal/model"
)

// MySQLStore is the MySQL implementation of the Store interface.
// Like Postgres, custody transitions lock the asset row with FOR UPDATE.
type MySQLStore struct {
	bun *bun.DB
}

func (s *MySQLStore) GetAsset(id int64) (*model.Asset, error) {
	return GetAssetBun(s.bun, id)
}

func (s *MySQLStore) GetAssetByName(name string) (*model.Asset, error) {
	return GetAssetByNameBun(s.bun, name)
}

func (s *MySQLStore) AddAsset(name, description string) (int64, error) {
	return AddAssetBun(s.bun, name, description)
}

func (s *MySQLStore) UpdateAssetDescription(id int64, description string) error {
	return UpdateAssetDescriptionBun(s.bun, id, description)
}

func (s *MySQLStore) SetAssetRetired(id int64, retired bool) error {
	return SetAssetRetiredBun(s.bun, id, retired)
}

func (s *MySQLStore) FindAssets(filter AssetFilter, limit, offset int) ([]model.Asset, error) {
	return FindAssetsBun(s.bun, filter, limit, offset)
}

func (s *MySQLStore) SetAssetRequiredGroups(assetID int64, groupIDs []int64) error {
	return SetAssetRequiredGroupsBun(s.bun, assetID, groupIDs)
}

func (s *MySQLStore) RequiredGroupsForAsset(assetID int64) ([]model.Group, error) {
	return RequiredGroupsForAssetBun(s.bun, assetID)
}

func (s *MySQLStore) AddActor(username, displayName, contact string) (int64, error) {
	return AddActorBun(s.bun, username, displayName, contact)
}

func (s *MySQLStore) GetActor(id int64) (*model.Actor, error) {
	return GetActorBun(s.bun, id)
}

func (s *MySQLStore) GetActorByUsername(username string) (*model.Actor, error) {
	return GetActorByUsernameBun(s.bun, username)
}

func (s *MySQLStore) FindActors(search string, limit, offset int) ([]model.Actor, error) {
	return FindActorsBun(s.bun, search, limit, offset)
}

func (s *MySQLStore) SetActorActive(id int64, active bool) error {
	return SetActorActiveBun(s.bun, id, active)
}

func (s *MySQLStore) EnsureGroup(name string) (int64, error) {
	return EnsureGroupBun(s.bun, name)
}

func (s *MySQLStore) SetActorGroups(actorID int64, groupIDs []int64) error {
	return SetActorGroupsBun(s.bun, actorID, groupIDs)
}

func (s *MySQLStore) GroupsForActor(actorID int64) ([]model.Group, error) {
	return GroupsForActorBun(s.bun, actorID)
}

func (s *MySQLStore) LastEventFor(assetID int64) (*model.CustodyEvent, error) {
	return LastEventForBun(s.bun, assetID)
}

func (s *MySQLStore) EventsForAsset(assetID int64) ([]model.CustodyEvent, error) {
	return EventsForAssetBun(s.bun, assetID)
}

func (s *MySQLStore) QueryEvents(filter EventFilter, limit, offset int) ([]model.CustodyEvent, error) {
	return QueryEventsBun(s.bun, filter, limit, offset)
}

func (s *MySQLStore) ApplyTransition(plan custody.Plan) ([]model.CustodyEvent, error) {
	return ApplyTransitionBun(s.bun, plan, true)
}

func (s *MySQLStore) Counters() (Counts, error) {
	return CountersBun(s.bun)
}

func (s *MySQLStore) ExportDataForBackup() (*model.BackupData, error) {
	return ExportDataForBackupBun(s.bun)
}

func (s *MySQLStore) ImportDataFromBackup(backup *model.BackupData) error {
	return ImportDataFromBackupBun(s.bun, backup)
}

func (s *MySQLStore) IntegrateDataFromBackup(backup *model.BackupData) error {
	return IntegrateDataFromBackupBun(s.bun, backup)
}
