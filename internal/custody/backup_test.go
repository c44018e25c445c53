// Copyright (c) 2026 Claviger Team
// Claviger - physical key custody tracker
// This source code is licensed under the MIT license found in the LICENSE file.

package custody

import (
	"bytes"
	"testing"

	"github.com/claviger/claviger/internal/model"
)

// backupFake implements BackupStore over a static dataset.
type backupFake struct {
	data       model.BackupData
	imported   *model.BackupData
	integrated *model.BackupData
}

func (b *backupFake) ExportDataForBackup() (*model.BackupData, error) {
	d := b.data
	return &d, nil
}

func (b *backupFake) ImportDataFromBackup(backup *model.BackupData) error {
	b.imported = backup
	return nil
}

func (b *backupFake) IntegrateDataFromBackup(backup *model.BackupData) error {
	b.integrated = backup
	return nil
}

func sampleBackup() model.BackupData {
	return model.BackupData{
		SchemaVersion: 1,
		Assets:        []model.Asset{{ID: 1, Name: "Lab-203", Status: model.StatusInUse, CurrentHolderID: ptr(10)}},
		Actors:        []model.Actor{{ID: 10, Username: "alice", Active: true}},
		Groups:        []model.Group{{ID: 1, Name: "staff"}},
		ActorGroups:   []model.ActorGroup{{ActorID: 10, GroupID: 1}},
		CustodyEvents: []model.CustodyEvent{{ID: 1, AssetID: ptr(1), ActorID: ptr(10), Kind: model.KindAcquired}},
	}
}

func TestBackupRoundTrip_Full(t *testing.T) {
	st := &backupFake{data: sampleBackup()}

	var buf bytes.Buffer
	if err := WriteBackup(st, &buf); err != nil {
		t.Fatalf("WriteBackup failed: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatalf("expected compressed output")
	}

	if err := Restore(st, &buf, RestoreOptions{Full: true}); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if st.imported == nil {
		t.Fatalf("full restore should use ImportDataFromBackup")
	}
	if st.integrated != nil {
		t.Fatalf("full restore must not merge")
	}

	got := st.imported
	if got.SchemaVersion != 1 || len(got.Assets) != 1 || len(got.CustodyEvents) != 1 {
		t.Fatalf("round-tripped data is incomplete: %+v", got)
	}
	if got.Assets[0].Name != "Lab-203" || *got.Assets[0].CurrentHolderID != 10 {
		t.Fatalf("asset fields lost in round trip: %+v", got.Assets[0])
	}
}

func TestBackupRoundTrip_Merge(t *testing.T) {
	st := &backupFake{data: sampleBackup()}

	var buf bytes.Buffer
	if err := WriteBackup(st, &buf); err != nil {
		t.Fatalf("WriteBackup failed: %v", err)
	}
	if err := Restore(st, &buf, RestoreOptions{}); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if st.integrated == nil {
		t.Fatalf("default restore should merge via IntegrateDataFromBackup")
	}
}

func TestRestore_RejectsGarbage(t *testing.T) {
	st := &backupFake{}
	if err := Restore(st, bytes.NewReader([]byte("not a backup")), RestoreOptions{}); err == nil {
		t.Fatalf("expected error for non-zstd input")
	}
}
