// Copyright (c) 2026 Claviger Team
// Claviger - physical key custody tracker
// This source code is licensed under the MIT license found in the LICENSE file.

// Package custody implements the custody state machine: the transition
// function that, given an event intent and the asset's current state,
// computes the ledger entries to append and the resulting live state.
// Planning is pure and testable without a database; the Machine facade
// executes plans atomically through a Store.
package custody

import (
	"errors"
	"fmt"

	"github.com/claviger/claviger/internal/model"
)

// ErrAssetRetired is returned when a transition is attempted on a
// soft-deleted asset.
var ErrAssetRetired = errors.New("asset is retired")

// ErrStaleState is returned by a Store when the asset's holder changed
// between planning and the transaction's re-read. The transition wrote
// nothing; callers may replan and retry.
var ErrStaleState = errors.New("asset state changed concurrently")

// Store is the subset of the data access layer the state machine needs.
// Implemented by the db package's stores.
type Store interface {
	GetAsset(id int64) (*model.Asset, error)
	// ApplyTransition appends the plan's events and updates the asset's
	// live fields in a single transaction. It returns ErrStaleState
	// without writing anything when the plan's expected holder no longer
	// matches the row.
	ApplyTransition(plan Plan) ([]model.CustodyEvent, error)
	EventsForAsset(assetID int64) ([]model.CustodyEvent, error)
}

// Step is one ledger entry a plan will append. A nil ActorID records an
// unattributed event (e.g. a return on behalf of a removed holder).
type Step struct {
	Kind    model.EventKind
	ActorID *int64
}

// Plan is the computed outcome of a transition: the events to append, in
// order, and the asset's resulting live state. An empty Steps slice means
// the transition is a no-op and nothing is written.
type Plan struct {
	AssetID int64

	// ExpectHolderID is the holder the plan was computed against. When
	// CheckHolder is set, the transaction re-reads the row and refuses to
	// write if the holder has changed (ErrStaleState).
	ExpectHolderID *int64
	CheckHolder    bool

	Steps       []Step
	NewStatus   model.AssetStatus
	NewHolderID *int64
}

// NoOp reports whether the plan writes nothing.
func (p Plan) NoOp() bool {
	return len(p.Steps) == 0
}

// PlanAcquire computes the transition for an actor taking custody of an
// asset.
//
// Acquiring an asset you already hold is a deliberate no-op. When the
// asset is held by someone else, a transferred event attributed to the
// outgoing holder is planned before the acquired event, preserving the
// chain of custody without an explicit return step.
func PlanAcquire(asset model.Asset, actorID int64) (Plan, error) {
	if asset.Retired {
		return Plan{}, fmt.Errorf("acquire %q: %w", asset.Name, ErrAssetRetired)
	}

	plan := Plan{
		AssetID:        asset.ID,
		ExpectHolderID: asset.CurrentHolderID,
		CheckHolder:    true,
		NewStatus:      model.StatusInUse,
		NewHolderID:    &actorID,
	}

	prev := asset.CurrentHolderID
	if prev != nil && *prev == actorID {
		// Idempotent: no new event, no state change.
		plan.Steps = nil
		plan.NewStatus = asset.Status
		return plan, nil
	}

	if prev != nil {
		holder := *prev
		plan.Steps = append(plan.Steps, Step{Kind: model.KindTransferred, ActorID: &holder})
	}
	plan.Steps = append(plan.Steps, Step{Kind: model.KindAcquired, ActorID: &actorID})
	return plan, nil
}

// PlanReturn computes the transition for an asset going back to the front
// desk. The returning actor is supplied by the caller rather than
// inferred, which permits staff-assisted returns on behalf of an absent
// holder; a nil actorID records the event unattributed.
//
// Returning an asset that is already available is valid and still
// recorded: it is an audit event (staff re-confirming presence), so no
// holder check is performed.
func PlanReturn(asset model.Asset, actorID *int64) Plan {
	return Plan{
		AssetID:        asset.ID,
		ExpectHolderID: asset.CurrentHolderID,
		CheckHolder:    false,
		Steps:          []Step{{Kind: model.KindReturned, ActorID: actorID}},
		NewStatus:      model.StatusAvailable,
		NewHolderID:    nil,
	}
}

// staleRetries bounds how often a transition is replanned after losing a
// race on the asset row.
const staleRetries = 3

// Machine executes custody transitions against a Store.
type Machine struct {
	store Store
}

// NewMachine returns a Machine backed by the given store.
func NewMachine(store Store) *Machine {
	return &Machine{store: store}
}

// Acquire records the given actor taking custody of the asset. It returns
// the ledger entries written, which is empty when the actor already holds
// the asset. Concurrent acquires on the same asset serialize at the
// store; the loser replans against the winner's committed state.
func (m *Machine) Acquire(assetID, actorID int64) ([]model.CustodyEvent, error) {
	var lastErr error
	for attempt := 0; attempt < staleRetries; attempt++ {
		asset, err := m.store.GetAsset(assetID)
		if err != nil {
			return nil, err
		}
		plan, err := PlanAcquire(*asset, actorID)
		if err != nil {
			return nil, err
		}
		if plan.NoOp() {
			return nil, nil
		}
		events, err := m.store.ApplyTransition(plan)
		if errors.Is(err, ErrStaleState) {
			lastErr = err
			continue
		}
		return events, err
	}
	return nil, fmt.Errorf("acquire did not settle after %d attempts: %w", staleRetries, lastErr)
}

// Return records the asset going back to the front desk, attributed to
// actorID (nil = unattributed). The asset becomes available regardless of
// its previous holder.
func (m *Machine) Return(assetID int64, actorID *int64) ([]model.CustodyEvent, error) {
	asset, err := m.store.GetAsset(assetID)
	if err != nil {
		return nil, err
	}
	plan := PlanReturn(*asset, actorID)
	return m.store.ApplyTransition(plan)
}
