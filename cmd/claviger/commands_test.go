// Copyright (c) 2026 Claviger Team
// Claviger - physical key custody tracker
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/claviger/claviger/internal/db"
	"github.com/claviger/claviger/internal/i18n"
)

// setupCmdTest points the db package at an in-memory store so command
// handlers can run without the root command's initialization.
func setupCmdTest(t *testing.T) {
	t.Helper()
	i18n.Init("en")
	dsn := "file:cmdtest_" + t.Name() + "?mode=memory&cache=shared"
	store, err := db.NewStoreFromDSN("sqlite", dsn)
	if err != nil {
		t.Fatalf("NewStoreFromDSN failed: %v", err)
	}
	restore := db.SetStoreForTest(store)
	t.Cleanup(restore)
}

// runCmd executes a command with args and returns its combined output.
func runCmd(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommandWiring(t *testing.T) {
	root := newRootCmd()
	want := []string{"asset", "actor", "acquire", "return", "history", "verify", "backup", "restore", "maintenance"}
	for _, name := range want {
		found := false
		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("root command is missing subcommand %q", name)
		}
	}
	for _, flag := range []string{"config", "db-type", "db-dsn", "lang", "debug"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Fatalf("missing persistent flag %q", flag)
		}
	}
}

func TestAssetAddAndListCommands(t *testing.T) {
	setupCmdTest(t)

	out, err := runCmd(t, newAssetAddCmd(), "Lab-203", "--description", "second floor")
	if err != nil {
		t.Fatalf("asset add failed: %v", err)
	}
	if !strings.Contains(out, "Lab-203") {
		t.Fatalf("add output should name the asset: %q", out)
	}

	if _, err := runCmd(t, newAssetAddCmd(), "Lab-203"); err == nil {
		t.Fatalf("duplicate asset add should fail")
	}

	out, err = runCmd(t, newAssetListCmd())
	if err != nil {
		t.Fatalf("asset list failed: %v", err)
	}
	if !strings.Contains(out, "Lab-203") || !strings.Contains(out, "second floor") {
		t.Fatalf("list output incomplete: %q", out)
	}

	// Search terms also match the description.
	out, err = runCmd(t, newAssetListCmd(), "--name", "floor")
	if err != nil {
		t.Fatalf("asset list search failed: %v", err)
	}
	if !strings.Contains(out, "Lab-203") {
		t.Fatalf("description search should find the asset: %q", out)
	}
}

func TestActorListSearchCommand(t *testing.T) {
	setupCmdTest(t)

	if _, err := db.AddActor("alice", "Alice Santos", "alice@example.org"); err != nil {
		t.Fatalf("AddActor failed: %v", err)
	}
	if _, err := db.AddActor("bob", "", ""); err != nil {
		t.Fatalf("AddActor failed: %v", err)
	}

	out, err := runCmd(t, newActorListCmd(), "santos example")
	if err != nil {
		t.Fatalf("actor list failed: %v", err)
	}
	if !strings.Contains(out, "alice") || strings.Contains(out, "bob") {
		t.Fatalf("token search should narrow to alice: %q", out)
	}
}

func TestAcquireAndReturnCommands(t *testing.T) {
	setupCmdTest(t)

	if _, err := db.AddAsset("Lab-203", ""); err != nil {
		t.Fatalf("AddAsset failed: %v", err)
	}
	if _, err := db.AddActor("alice", "", ""); err != nil {
		t.Fatalf("AddActor failed: %v", err)
	}

	out, err := runCmd(t, newAcquireCmd(), "Lab-203", "alice")
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if !strings.Contains(out, "alice") {
		t.Fatalf("acquire output should name the actor: %q", out)
	}

	// Re-acquire is reported as already held.
	out, err = runCmd(t, newAcquireCmd(), "Lab-203", "alice")
	if err != nil {
		t.Fatalf("re-acquire failed: %v", err)
	}
	if !strings.Contains(out, "already") {
		t.Fatalf("expected already-held message: %q", out)
	}

	out, err = runCmd(t, newReturnCmd(), "Lab-203")
	if err != nil {
		t.Fatalf("return failed: %v", err)
	}
	if !strings.Contains(out, "Lab-203") {
		t.Fatalf("return output should name the asset: %q", out)
	}

	asset, err := db.GetAssetByName("Lab-203")
	if err != nil {
		t.Fatalf("GetAssetByName failed: %v", err)
	}
	if asset.Held() {
		t.Fatalf("asset should be unheld after return")
	}
}

func TestAcquireUnknownAssetFails(t *testing.T) {
	setupCmdTest(t)
	if _, err := db.AddActor("alice", "", ""); err != nil {
		t.Fatalf("AddActor failed: %v", err)
	}
	if _, err := runCmd(t, newAcquireCmd(), "No-Such-Key", "alice"); err == nil {
		t.Fatalf("acquiring an unknown asset should fail")
	}
}

func TestAcquirePolicyWarningIsAdvisory(t *testing.T) {
	setupCmdTest(t)

	assetID, err := db.AddAsset("Vault", "")
	if err != nil {
		t.Fatalf("AddAsset failed: %v", err)
	}
	if _, err := db.AddActor("alice", "", ""); err != nil {
		t.Fatalf("AddActor failed: %v", err)
	}
	staff, err := db.EnsureGroup("staff")
	if err != nil {
		t.Fatalf("EnsureGroup failed: %v", err)
	}
	if err := db.SetAssetRequiredGroups(assetID, []int64{staff}); err != nil {
		t.Fatalf("SetAssetRequiredGroups failed: %v", err)
	}

	out, err := runCmd(t, newAcquireCmd(), "Vault", "alice")
	if err != nil {
		t.Fatalf("acquire must proceed despite the policy warning: %v", err)
	}
	if !strings.Contains(out, "Warning") {
		t.Fatalf("expected an advisory warning: %q", out)
	}

	asset, err := db.GetAssetByName("Vault")
	if err != nil {
		t.Fatalf("GetAssetByName failed: %v", err)
	}
	if !asset.Held() {
		t.Fatalf("warn-not-block: the acquisition must still be recorded")
	}
}

func TestHistoryCommand(t *testing.T) {
	setupCmdTest(t)

	if _, err := db.AddAsset("Lab-203", ""); err != nil {
		t.Fatalf("AddAsset failed: %v", err)
	}
	if _, err := db.AddActor("alice", "", ""); err != nil {
		t.Fatalf("AddActor failed: %v", err)
	}
	if _, err := runCmd(t, newAcquireCmd(), "Lab-203", "alice"); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	out, err := runCmd(t, newHistoryCmd(), "--asset", "lab")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out, "Lab-203") || !strings.Contains(out, "acquired") {
		t.Fatalf("history output incomplete: %q", out)
	}

	out, err = runCmd(t, newHistoryCmd(), "--kind", "returned")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out, i18n.T("history.empty")) {
		t.Fatalf("expected empty result message: %q", out)
	}
}

func TestVerifyCommand(t *testing.T) {
	setupCmdTest(t)

	if _, err := db.AddAsset("Lab-203", ""); err != nil {
		t.Fatalf("AddAsset failed: %v", err)
	}
	if _, err := db.AddActor("alice", "", ""); err != nil {
		t.Fatalf("AddActor failed: %v", err)
	}
	if _, err := runCmd(t, newAcquireCmd(), "Lab-203", "alice"); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	out, err := runCmd(t, newVerifyCmd())
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !strings.Contains(out, "consistent") {
		t.Fatalf("expected consistency confirmation: %q", out)
	}
}
