package versionservice_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/cravetown/internal/apperr"
	"github.com/starford/cravetown/internal/manifest"
	"github.com/starford/cravetown/internal/testutil"
	"github.com/starford/cravetown/internal/versions"
)

func TestRawReadWrite(t *testing.T) {
	svc, dir := testutil.TestService(t, versions.PolicyOverwrite)
	ctx := context.Background()
	path := filepath.Join(dir, "scratch.json")

	for _, content := range []string{"", `{"a":"ß€𝄞"}`, "plain text"} {
		if err := svc.WriteJSONFile(ctx, path, content); err != nil {
			t.Fatalf("WriteJSONFile: %v", err)
		}
		got, err := svc.ReadJSONFile(ctx, path)
		if err != nil {
			t.Fatalf("ReadJSONFile: %v", err)
		}
		if got != content {
			t.Errorf("round trip = %q, want %q", got, content)
		}
	}

	if _, err := svc.ReadJSONFile(ctx, filepath.Join(dir, "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing read: err = %v", err)
	}
	if err := svc.WriteJSONFile(ctx, filepath.Join(dir, "no", "parent.json"), "{}"); err == nil {
		t.Error("write with missing parent should fail")
	}
}

func TestWriteFileIfMatch(t *testing.T) {
	svc, dir := testutil.TestService(t, versions.PolicyOverwrite)
	ctx := context.Background()
	path := filepath.Join(dir, "a.json")

	sum, err := svc.WriteFileIfMatch(ctx, path, []byte(`{"v":1}`), "")
	if err != nil {
		t.Fatalf("initial write: %v", err)
	}
	if _, err := svc.WriteFileIfMatch(ctx, path, []byte(`{"v":2}`), sum); err != nil {
		t.Fatalf("matching write: %v", err)
	}
	if _, err := svc.WriteFileIfMatch(ctx, path, []byte(`{"v":3}`), sum); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("stale write: err = %v, want ErrConflict", err)
	}
	data, current, err := svc.ReadFile(ctx, path)
	if err != nil || string(data) != `{"v":2}` || current == sum {
		t.Errorf("ReadFile = %q, %q, %v", data, current, err)
	}
}

func TestDataDirResolvedOnce(t *testing.T) {
	svc, dir := testutil.TestService(t, versions.PolicyOverwrite)
	got, err := svc.DataDir(context.Background())
	if err != nil || got != dir {
		t.Fatalf("DataDir = %q, %v", got, err)
	}
}

func TestDirectoryCommandsUpdateCatalog(t *testing.T) {
	svc, dir := testutil.TestService(t, versions.PolicyOverwrite)
	ctx := context.Background()

	if err := svc.CreateVersionDirectory(ctx, dir, "v1"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.CloneVersionDirectory(ctx, dir, "v1", "v2"); err != nil {
		t.Fatalf("clone: %v", err)
	}
	files, err := svc.VersionFiles(ctx, "v2")
	if err != nil {
		t.Fatalf("VersionFiles: %v", err)
	}
	if len(files) != len(versions.PlaceholderSchema) {
		t.Errorf("catalogued %d files for v2, want %d", len(files), len(versions.PlaceholderSchema))
	}

	if err := svc.DeleteVersionDirectory(ctx, dir, "v2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	files, _ = svc.VersionFiles(ctx, "v2")
	if len(files) != 0 {
		t.Errorf("v2 still catalogued after delete: %v", files)
	}
	if err := svc.DeleteVersionDirectory(ctx, dir, "v2"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
	if err := svc.CloneVersionDirectory(ctx, dir, "v1", "v1"); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("self clone: err = %v, want ErrAlreadyExists", err)
	}
}

func TestDirectoryCommandsInForeignDataDirKeepCatalog(t *testing.T) {
	svc, dir := testutil.TestService(t, versions.PolicyOverwrite)
	ctx := context.Background()
	other := t.TempDir()

	if err := svc.CreateVersionDirectory(ctx, dir, "base"); err != nil {
		t.Fatalf("create base: %v", err)
	}
	if err := svc.CreateVersionDirectory(ctx, other, "scratch"); err != nil {
		t.Fatalf("create scratch: %v", err)
	}
	if err := svc.CloneVersionDirectory(ctx, other, "scratch", "scratch2"); err != nil {
		t.Fatalf("clone scratch: %v", err)
	}
	if err := svc.DeleteVersionDirectory(ctx, other, "scratch2"); err != nil {
		t.Fatalf("delete scratch2: %v", err)
	}

	files, err := svc.VersionFiles(ctx, "base")
	if err != nil {
		t.Fatalf("VersionFiles: %v", err)
	}
	if len(files) != len(versions.PlaceholderSchema) {
		t.Errorf("base catalogued files = %d, want %d", len(files), len(versions.PlaceholderSchema))
	}
	if foreign, _ := svc.VersionFiles(ctx, "scratch"); len(foreign) != 0 {
		t.Errorf("foreign version catalogued: %d files", len(foreign))
	}

	list, err := svc.ListVersions(ctx)
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if len(list) != 1 || list[0].ID != "base" || list[0].Files != len(versions.PlaceholderSchema) {
		t.Errorf("versions = %+v", list)
	}

	// A trailing slash still names the catalogued directory.
	if err := svc.CreateVersionDirectory(ctx, dir+string(filepath.Separator), "v2"); err != nil {
		t.Fatalf("create v2: %v", err)
	}
	if files, _ := svc.VersionFiles(ctx, "v2"); len(files) != len(versions.PlaceholderSchema) {
		t.Errorf("v2 catalogued files = %d, want %d", len(files), len(versions.PlaceholderSchema))
	}
}

func TestManifestLifecycle(t *testing.T) {
	svc, dir := testutil.TestService(t, versions.PolicyOverwrite)
	ctx := context.Background()

	base, err := svc.CreateVersion(ctx, "base", "Base game", "Shipped data", "team")
	if err != nil {
		t.Fatalf("CreateVersion base: %v", err)
	}
	if base.CreatedDate != "2026-03-14" || base.Version != "1.0.0" {
		t.Errorf("unexpected base: %+v", base)
	}
	if _, err := svc.CreateVersion(ctx, "base", "dup", "", ""); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("duplicate create: err = %v", err)
	}

	if _, err := svc.SwitchActiveVersion(ctx, "base"); err != nil {
		t.Fatalf("SwitchActiveVersion: %v", err)
	}

	clone, err := svc.CloneVersion(ctx, "base", "exp", "Experiment", "alice")
	if err != nil {
		t.Fatalf("CloneVersion: %v", err)
	}
	if clone.ParentVersion != "base" || clone.Description != "Cloned from Base game" {
		t.Errorf("unexpected clone: %+v", clone)
	}
	if _, err := os.Stat(filepath.Join(dir, "exp", "craving_system", "enablement_rules.json")); err != nil {
		t.Errorf("clone directory incomplete: %v", err)
	}
	if _, err := svc.CloneVersion(ctx, "ghost", "x", "X", ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("clone of unknown source: err = %v", err)
	}

	name := "Experiment 2"
	updated, err := svc.UpdateVersionMetadata(ctx, "exp", manifest.Update{Name: &name})
	if err != nil || updated.Name != name {
		t.Fatalf("UpdateVersionMetadata = %+v, %v", updated, err)
	}

	list, err := svc.ListVersions(ctx)
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if len(list) != 2 || list[0].ID != "base" || !list[0].Active || !list[0].OnDisk || !list[0].InManifest {
		t.Errorf("ListVersions = %+v", list)
	}
	if list[1].Files != len(versions.PlaceholderSchema) {
		t.Errorf("exp files = %d", list[1].Files)
	}

	if err := svc.DeleteVersion(ctx, "base"); !errors.Is(err, apperr.ErrProtected) {
		t.Errorf("delete base: err = %v", err)
	}
	if _, err := svc.SwitchActiveVersion(ctx, "exp"); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteVersion(ctx, "exp"); !errors.Is(err, apperr.ErrProtected) {
		t.Errorf("delete active: err = %v", err)
	}
	if _, err := svc.SwitchActiveVersion(ctx, "base"); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteVersion(ctx, "exp"); err != nil {
		t.Fatalf("DeleteVersion: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "exp")); !os.IsNotExist(err) {
		t.Error("exp directory still on disk")
	}
	if err := svc.DeleteVersion(ctx, "exp"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete: err = %v", err)
	}

	m, err := svc.LoadManifest(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Versions) != 1 || m.ActiveVersion != "base" {
		t.Errorf("manifest = %+v", m)
	}
}

func TestListVersions_DiskOnly(t *testing.T) {
	svc, dir := testutil.TestService(t, versions.PolicyOverwrite)
	ctx := context.Background()
	if err := svc.CreateVersionDirectory(ctx, dir, "loose"); err != nil {
		t.Fatal(err)
	}
	list, err := svc.ListVersions(ctx)
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if len(list) != 1 || list[0].ID != "loose" || list[0].InManifest || !list[0].OnDisk {
		t.Errorf("ListVersions = %+v", list)
	}
}
