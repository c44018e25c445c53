// Copyright (c) 2026 Claviger Team
// Claviger - physical key custody tracker
// This source code is licensed under the MIT license found in the LICENSE file.

// Package policy evaluates whether an actor's group memberships overlap
// an asset's required groups. The result is advisory: the custody state
// machine never consults it, and callers are expected to warn rather
// than block (warn-not-block).
package policy

import "github.com/claviger/claviger/internal/model"

// Decision is the outcome of evaluating an actor against an asset's
// group restriction.
type Decision struct {
	// Permitted is true when the asset is unrestricted or the actor
	// belongs to at least one required group.
	Permitted bool
	// RequiredGroupNames lists the asset's required groups so callers
	// can render a useful warning. Empty when unrestricted.
	RequiredGroupNames []string
}

// Evaluate applies the group-overlap rule: an empty required set permits
// everyone; otherwise the actor needs membership in at least one of the
// required groups.
func Evaluate(required []model.Group, actorGroups []model.Group) Decision {
	d := Decision{Permitted: true}
	if len(required) == 0 {
		return d
	}

	names := make([]string, 0, len(required))
	requiredIDs := make(map[int64]struct{}, len(required))
	for _, g := range required {
		names = append(names, g.Name)
		requiredIDs[g.ID] = struct{}{}
	}
	d.RequiredGroupNames = names

	d.Permitted = false
	for _, g := range actorGroups {
		if _, ok := requiredIDs[g.ID]; ok {
			d.Permitted = true
			break
		}
	}
	return d
}
