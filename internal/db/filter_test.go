// Copyright (c) 2026 Claviger Team
// Claviger - physical key custody tracker
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"testing"

	"github.com/claviger/claviger/internal/model"
)

func TestTokenizeSearchQuery(t *testing.T) {
	if got := TokenizeSearchQuery("  "); got != nil {
		t.Fatalf("blank query should tokenize to nil, got %v", got)
	}
	got := TokenizeSearchQuery("  Lab  ALICE ")
	if len(got) != 2 || got[0] != "lab" || got[1] != "alice" {
		t.Fatalf("unexpected tokens: %v", got)
	}
}

func TestFilterActorsByTokens(t *testing.T) {
	actors := []model.Actor{
		{Username: "alice", DisplayName: "Alice Santos", Contact: "alice@example.org"},
		{Username: "bob", DisplayName: "Bob", Contact: ""},
	}

	if got := FilterActorsByTokens(actors, nil); len(got) != 2 {
		t.Fatalf("no tokens should return everything")
	}

	got := FilterActorsByTokens(actors, []string{"santos"})
	if len(got) != 1 || got[0].Username != "alice" {
		t.Fatalf("display-name match failed: %v", got)
	}

	got = FilterActorsByTokens(actors, []string{"alice", "example"})
	if len(got) != 1 {
		t.Fatalf("all tokens must match: %v", got)
	}

	got = FilterActorsByTokens(actors, []string{"alice", "nomatch"})
	if len(got) != 0 {
		t.Fatalf("non-matching token should exclude: %v", got)
	}
}

func TestFilterAssetsByTokens(t *testing.T) {
	assets := []model.Asset{
		{Name: "Lab-203", Description: "second floor"},
		{Name: "Archive", Description: ""},
	}

	got := FilterAssetsByTokens(assets, []string{"floor"})
	if len(got) != 1 || got[0].Name != "Lab-203" {
		t.Fatalf("description match failed: %v", got)
	}

	got = FilterAssetsByTokens(assets, []string{"ARCH"})
	if len(got) != 1 || got[0].Name != "Archive" {
		t.Fatalf("case-insensitive name match failed: %v", got)
	}
}
