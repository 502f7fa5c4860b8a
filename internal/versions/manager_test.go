package versions

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/cravetown/internal/apperr"
	"github.com/starford/cravetown/internal/storage"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newManager(policy CreatePolicy) *Manager {
	return NewManager(storage.NewFS(), policy, quietLogger())
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

// tree returns relative path → content for every file under root.
func tree(t *testing.T, root string) map[string]string {
	t.Helper()
	out := map[string]string{}
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, p)
		if d.IsDir() {
			out[rel+"/"] = ""
			return nil
		}
		out[rel] = readFile(t, p)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func TestCreate_WritesPlaceholderSchema(t *testing.T) {
	dataDir := t.TempDir()
	m := newManager(PolicyOverwrite)
	if err := m.Create(dataDir, "v1"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	want := map[string]string{
		"building_recipes.json":                     `{"recipes":[]}`,
		"building_types.json":                       `{"buildingTypes":[]}`,
		"commodities.json":                          `{"commodities":[]}`,
		"worker_types.json":                         `{"workerTypes":[]}`,
		"work_categories.json":                      `{"workCategories":[]}`,
		"craving_system/dimension_definitions.json": `{}`,
		"craving_system/character_classes.json":     `{}`,
		"craving_system/character_traits.json":      `{}`,
		"craving_system/fulfillment_vectors.json":   `{}`,
		"craving_system/enablement_rules.json":      `{}`,
	}
	if len(PlaceholderSchema) != len(want) {
		t.Fatalf("schema has %d entries, want %d", len(PlaceholderSchema), len(want))
	}
	for rel, content := range want {
		got := readFile(t, filepath.Join(dataDir, "v1", filepath.FromSlash(rel)))
		if got != content {
			t.Errorf("%s = %q, want %q", rel, got, content)
		}
	}
}

func TestCreate_TwiceOverwritesEdits(t *testing.T) {
	dataDir := t.TempDir()
	m := newManager(PolicyOverwrite)
	if err := m.Create(dataDir, "v1"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	edited := filepath.Join(dataDir, "v1", "commodities.json")
	if err := os.WriteFile(edited, []byte(`{"commodities":[{"id":"bread"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	extra := filepath.Join(dataDir, "v1", "commodity_categories.json")
	if err := os.WriteFile(extra, []byte(`{"categories":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := m.Create(dataDir, "v1"); err != nil {
		t.Fatalf("second Create: %v", err)
	}
	if got := readFile(t, edited); got != `{"commodities":[]}` {
		t.Errorf("edited file = %q, want placeholder restored", got)
	}
	if got := readFile(t, extra); got != `{"categories":[]}` {
		t.Errorf("file outside the schema should be untouched, got %q", got)
	}
}

func TestCreate_PolicyError(t *testing.T) {
	dataDir := t.TempDir()
	m := newManager(PolicyError)
	if err := m.Create(dataDir, "v1"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := m.Create(dataDir, "v1"); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestCreate_PolicySkip(t *testing.T) {
	dataDir := t.TempDir()
	m := newManager(PolicySkip)
	if err := m.Create(dataDir, "v1"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	edited := filepath.Join(dataDir, "v1", "commodities.json")
	_ = os.WriteFile(edited, []byte(`{"commodities":[1]}`), 0o644)
	missing := filepath.Join(dataDir, "v1", "craving_system", "character_traits.json")
	_ = os.Remove(missing)

	if err := m.Create(dataDir, "v1"); err != nil {
		t.Fatalf("second Create: %v", err)
	}
	if got := readFile(t, edited); got != `{"commodities":[1]}` {
		t.Errorf("skip policy overwrote edits: %q", got)
	}
	if got := readFile(t, missing); got != `{}` {
		t.Errorf("missing placeholder not restored: %q", got)
	}
}

type failingWriter struct {
	failOn string
	wrote  []string
}

func (w *failingWriter) Write(path string, content []byte) error {
	if strings.HasSuffix(filepath.ToSlash(path), w.failOn) {
		return errors.New("disk full")
	}
	w.wrote = append(w.wrote, path)
	return os.WriteFile(path, content, 0o644)
}

func TestCreate_AbortsOnWriteFailure(t *testing.T) {
	dataDir := t.TempDir()
	w := &failingWriter{failOn: "worker_types.json"}
	m := NewManager(w, PolicyOverwrite, quietLogger())

	err := m.Create(dataDir, "v1")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "worker_types.json") || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("error %q should name the file and cause", err)
	}
	// Earlier files stay, later ones are never written.
	if len(w.wrote) != 3 {
		t.Errorf("wrote %d files before failure, want 3", len(w.wrote))
	}
	if _, err := os.Stat(filepath.Join(dataDir, "v1", "commodities.json")); err != nil {
		t.Error("files written before the failure should remain")
	}
	if _, err := os.Stat(filepath.Join(dataDir, "v1", "work_categories.json")); !os.IsNotExist(err) {
		t.Error("files after the failure should not be written")
	}
}

func TestClone_Fidelity(t *testing.T) {
	dataDir := t.TempDir()
	m := newManager(PolicyOverwrite)
	if err := m.Create(dataDir, "v1"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_ = os.WriteFile(filepath.Join(dataDir, "v1", "commodities.json"), []byte(`{"commodities":["ä"]}`), 0o644)
	_ = os.MkdirAll(filepath.Join(dataDir, "v1", "extra", "deep"), 0o755)
	_ = os.WriteFile(filepath.Join(dataDir, "v1", "extra", "deep", "x.json"), []byte(`[]`), 0o644)

	if err := m.Clone(dataDir, "v1", "v2"); err != nil {
		t.Fatalf("Clone: %v", err)
	}

	src := tree(t, filepath.Join(dataDir, "v1"))
	dst := tree(t, filepath.Join(dataDir, "v2"))
	if len(src) != len(dst) {
		t.Fatalf("tree sizes differ: %d vs %d", len(src), len(dst))
	}
	for rel, content := range src {
		got, ok := dst[rel]
		if !ok {
			t.Errorf("missing %s in clone", rel)
			continue
		}
		if got != content {
			t.Errorf("%s = %q, want %q", rel, got, content)
		}
	}
}

func TestClone_Guards(t *testing.T) {
	dataDir := t.TempDir()
	m := newManager(PolicyOverwrite)
	if err := m.Create(dataDir, "v1"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := m.Clone(dataDir, "missing", "v2"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing source: err = %v, want ErrNotFound", err)
	}
	if err := m.Clone(dataDir, "v1", "v1"); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("same target: err = %v, want ErrAlreadyExists", err)
	}
	if _, err := os.Stat(filepath.Join(dataDir, "v2")); !os.IsNotExist(err) {
		t.Error("failed clone must not create the target")
	}
}

func TestDelete(t *testing.T) {
	dataDir := t.TempDir()
	m := newManager(PolicyOverwrite)
	if err := m.Create(dataDir, "v1"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := m.Delete(dataDir, "v1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dataDir, "v1")); !os.IsNotExist(err) {
		t.Error("version directory still exists")
	}
	if err := m.Delete(dataDir, "v1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
}

func TestList(t *testing.T) {
	dataDir := t.TempDir()
	m := newManager(PolicyOverwrite)
	for _, id := range []string{"zeta", "base", "alpha"} {
		if err := m.Create(dataDir, id); err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
	}
	_ = os.WriteFile(filepath.Join(dataDir, "versions.json"), []byte(`{}`), 0o644)

	ids, err := m.List(dataDir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"alpha", "base", "zeta"}
	if strings.Join(ids, ",") != strings.Join(want, ",") {
		t.Errorf("List = %v, want %v", ids, want)
	}

	ids, err = m.List(filepath.Join(dataDir, "nope"))
	if err != nil || len(ids) != 0 {
		t.Errorf("missing data dir: ids=%v err=%v", ids, err)
	}
}
