// Copyright (c) 2026 Claviger Team
// Claviger - physical key custody tracker
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"strings"

	"github.com/claviger/claviger/internal/model"
)

// FilterActorsByTokens returns the subset of `actors` that match all tokens.
// Matching is case-insensitive and tests username, display name, and contact
// for substring containment. If `tokens` is nil or empty, the original slice
// is returned.
func FilterActorsByTokens(actors []model.Actor, tokens []string) []model.Actor {
	if len(tokens) == 0 {
		return actors
	}
	out := make([]model.Actor, 0, len(actors))
	for _, a := range actors {
		user := strings.ToLower(a.Username)
		name := strings.ToLower(a.DisplayName)
		contact := strings.ToLower(a.Contact)

		matchedAll := true
		for _, tok := range tokens {
			tok = strings.ToLower(strings.TrimSpace(tok))
			if tok == "" {
				continue
			}
			if !strings.Contains(user, tok) && !strings.Contains(name, tok) && !strings.Contains(contact, tok) {
				matchedAll = false
				break
			}
		}
		if matchedAll {
			out = append(out, a)
		}
	}
	return out
}

// pageOf applies limit/offset to an in-memory result set, after token
// filtering has run. limit <= 0 means no page bound.
func pageOf[T any](items []T, limit, offset int) []T {
	if limit <= 0 {
		return items
	}
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// FilterAssetsByTokens returns the subset of `assets` that match all tokens.
// Matching tests name and description, case-insensitively.
func FilterAssetsByTokens(assets []model.Asset, tokens []string) []model.Asset {
	if len(tokens) == 0 {
		return assets
	}
	out := make([]model.Asset, 0, len(assets))
	for _, a := range assets {
		name := strings.ToLower(a.Name)
		desc := strings.ToLower(a.Description)

		matchedAll := true
		for _, tok := range tokens {
			tok = strings.ToLower(strings.TrimSpace(tok))
			if tok == "" {
				continue
			}
			if !strings.Contains(name, tok) && !strings.Contains(desc, tok) {
				matchedAll = false
				break
			}
		}
		if matchedAll {
			out = append(out, a)
		}
	}
	return out
}
