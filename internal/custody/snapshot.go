// Copyright (c) 2026 Claviger Team
// Claviger - physical key custody tracker
// This source code is licensed under the MIT license found in the LICENSE file.

package custody

import "github.com/claviger/claviger/internal/model"

// Snapshot folds a causally ordered (oldest first) event sequence into
// the custody state it implies: acquired sets the holder, returned clears
// it, transferred is informational and changes nothing on its own. The
// asset's live fields are a cache of this fold.
func Snapshot(events []model.CustodyEvent) (model.AssetStatus, *int64) {
	status := model.StatusAvailable
	var holder *int64
	for _, e := range events {
		switch e.Kind {
		case model.KindAcquired:
			status = model.StatusInUse
			holder = e.ActorID
		case model.KindReturned:
			status = model.StatusAvailable
			holder = nil
		case model.KindTransferred:
			// The subsequent acquired entry carries the state change.
		}
	}
	return status, holder
}

// DriftReport compares an asset's cached live state against the state
// reconstructed from its ledger.
type DriftReport struct {
	AssetID      int64
	AssetName    string
	InSync       bool
	CachedStatus model.AssetStatus
	CachedHolder *int64
	LedgerStatus model.AssetStatus
	LedgerHolder *int64
}

// CustodySnapshot reconstructs (status, holder) for an asset purely from
// its ledger. This is a consistency check and recovery path, not a hot
// path.
func (m *Machine) CustodySnapshot(assetID int64) (model.AssetStatus, *int64, error) {
	events, err := m.store.EventsForAsset(assetID)
	if err != nil {
		return "", nil, err
	}
	status, holder := Snapshot(events)
	return status, holder, nil
}

// VerifyAsset checks that the registry's cached fields have not drifted
// from the ledger fold.
func (m *Machine) VerifyAsset(assetID int64) (*DriftReport, error) {
	asset, err := m.store.GetAsset(assetID)
	if err != nil {
		return nil, err
	}
	status, holder, err := m.CustodySnapshot(assetID)
	if err != nil {
		return nil, err
	}
	report := &DriftReport{
		AssetID:      asset.ID,
		AssetName:    asset.Name,
		CachedStatus: asset.Status,
		CachedHolder: asset.CurrentHolderID,
		LedgerStatus: status,
		LedgerHolder: holder,
	}
	report.InSync = asset.Status == status && holderEqual(asset.CurrentHolderID, holder)
	return report, nil
}

func holderEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
