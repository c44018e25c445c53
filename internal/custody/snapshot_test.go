// Copyright (c) 2026 Claviger Team
// Claviger - physical key custody tracker
// This source code is licensed under the MIT license found in the LICENSE file.

package custody

import (
	"testing"

	"github.com/claviger/claviger/internal/model"
)

func ev(kind model.EventKind, actorID *int64) model.CustodyEvent {
	return model.CustodyEvent{Kind: kind, ActorID: actorID}
}

func TestSnapshot_EmptyLedgerIsAvailable(t *testing.T) {
	status, holder := Snapshot(nil)
	if status != model.StatusAvailable || holder != nil {
		t.Fatalf("empty ledger should fold to available/unheld, got %s %v", status, holder)
	}
}

func TestSnapshot_FoldSequences(t *testing.T) {
	cases := []struct {
		name       string
		events     []model.CustodyEvent
		wantStatus model.AssetStatus
		wantHolder *int64
	}{
		{
			name:       "single acquire",
			events:     []model.CustodyEvent{ev(model.KindAcquired, ptr(10))},
			wantStatus: model.StatusInUse,
			wantHolder: ptr(10),
		},
		{
			name: "acquire then return",
			events: []model.CustodyEvent{
				ev(model.KindAcquired, ptr(10)),
				ev(model.KindReturned, ptr(10)),
			},
			wantStatus: model.StatusAvailable,
		},
		{
			name: "transfer chain ends with last acquirer",
			events: []model.CustodyEvent{
				ev(model.KindAcquired, ptr(10)),
				ev(model.KindTransferred, ptr(10)),
				ev(model.KindAcquired, ptr(20)),
			},
			wantStatus: model.StatusInUse,
			wantHolder: ptr(20),
		},
		{
			name: "trailing transferred alone changes nothing",
			events: []model.CustodyEvent{
				ev(model.KindAcquired, ptr(10)),
				ev(model.KindTransferred, ptr(10)),
			},
			wantStatus: model.StatusInUse,
			wantHolder: ptr(10),
		},
		{
			name: "unattributed return clears holder",
			events: []model.CustodyEvent{
				ev(model.KindAcquired, ptr(10)),
				ev(model.KindReturned, nil),
			},
			wantStatus: model.StatusAvailable,
		},
		{
			name: "acquired with deleted actor holds nobody we can name",
			events: []model.CustodyEvent{
				ev(model.KindAcquired, nil),
			},
			wantStatus: model.StatusInUse,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, holder := Snapshot(tc.events)
			if status != tc.wantStatus {
				t.Fatalf("status = %s, want %s", status, tc.wantStatus)
			}
			if !holderEqual(holder, tc.wantHolder) {
				t.Fatalf("holder = %v, want %v", holder, tc.wantHolder)
			}
		})
	}
}

func TestVerifyAsset_InSync(t *testing.T) {
	st := &fakeStore{asset: freeAsset()}
	m := NewMachine(st)
	if _, err := m.Acquire(1, 10); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	report, err := m.VerifyAsset(1)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !report.InSync {
		t.Fatalf("expected in-sync report, got %+v", report)
	}
}

func TestVerifyAsset_DetectsDrift(t *testing.T) {
	st := &fakeStore{asset: freeAsset()}
	m := NewMachine(st)
	if _, err := m.Acquire(1, 10); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	// Corrupt the cache behind the ledger's back.
	st.asset.Status = model.StatusAvailable
	st.asset.CurrentHolderID = nil

	report, err := m.VerifyAsset(1)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if report.InSync {
		t.Fatalf("expected drift to be reported")
	}
	if report.LedgerStatus != model.StatusInUse || *report.LedgerHolder != 10 {
		t.Fatalf("ledger side of the report is wrong: %+v", report)
	}
}
