package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteAndRead(t *testing.T) {
	s := NewFS()
	path := filepath.Join(t.TempDir(), "commodities.json")

	cases := []string{
		`{"commodities":[]}`,
		"",
		`{"name":"Brot","note":"日本語 ✓"}`,
	}
	for _, content := range cases {
		if err := s.Write(path, []byte(content)); err != nil {
			t.Fatalf("Write(%q): %v", content, err)
		}
		got, err := s.Read(path)
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if string(got) != content {
			t.Errorf("round trip = %q, want %q", got, content)
		}
	}
}

func TestReadMissing(t *testing.T) {
	s := NewFS()
	path := filepath.Join(t.TempDir(), "nope.json")
	_, err := s.Read(path)
	if err == nil {
		t.Fatal("expected error reading missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error %q should name the path", err)
	}
}

func TestWriteMissingParent(t *testing.T) {
	s := NewFS()
	dir := filepath.Join(t.TempDir(), "absent")
	path := filepath.Join(dir, "file.json")
	if err := s.Write(path, []byte("{}")); err == nil {
		t.Fatal("expected error when parent is missing")
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("Write must not create the parent directory")
	}
}

func TestWriteNoTempLeftovers(t *testing.T) {
	s := NewFS()
	dir := t.TempDir()
	path := filepath.Join(dir, "a.json")
	_ = s.Write(path, []byte("original"))
	if err := s.Write(path, []byte("updated")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read(path)
	if string(got) != "updated" {
		t.Errorf("content = %q", got)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, tmpPattern))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestList(t *testing.T) {
	s := NewFS()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "v1", "craving_system"), 0o755); err != nil {
		t.Fatal(err)
	}
	_ = s.Write(filepath.Join(dir, "v1", "a.json"), []byte("{}"))
	_ = s.Write(filepath.Join(dir, "v1", "craving_system", "b.json"), []byte("{}"))
	_ = s.Write(filepath.Join(dir, "v1", "readme.txt"), []byte("not json"))

	items, err := s.List(dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2 (%v)", len(items), items)
	}
	seen := map[string]bool{}
	for _, it := range items {
		seen[it.Path] = true
		if it.Checksum == "" {
			t.Errorf("%s: empty checksum", it.Path)
		}
	}
	if !seen["v1/a.json"] || !seen["v1/craving_system/b.json"] {
		t.Errorf("unexpected paths: %v", seen)
	}
}

func TestIsJSON(t *testing.T) {
	cases := map[string]bool{
		"a.json":                  true,
		"/x/y/versions.json":      true,
		"a.txt":                   false,
		".cravetown-tmp-123.json": false,
	}
	for name, want := range cases {
		if got := IsJSON(name); got != want {
			t.Errorf("IsJSON(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestWriteFollowsSymlink(t *testing.T) {
	s := NewFS()
	dir := t.TempDir()
	target := filepath.Join(dir, "real.json")
	link := filepath.Join(dir, "link.json")
	if err := os.WriteFile(target, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink("real.json", link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	if err := s.Write(link, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	info, err := os.Lstat(link)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		t.Error("symlink replaced by a regular file")
	}
	data, _ := os.ReadFile(target)
	if string(data) != `{"a":1}` {
		t.Errorf("target = %s, want {\"a\":1}", data)
	}
}

func TestWriteKeepsExistingMode(t *testing.T) {
	s := NewFS()
	path := filepath.Join(t.TempDir(), "private.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		t.Fatal(err)
	}

	if err := s.Write(path, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := info.Mode().Perm(); got != 0o600 {
		t.Errorf("mode = %o, want 600", got)
	}

	fresh := filepath.Join(filepath.Dir(path), "fresh.json")
	if err := s.Write(fresh, []byte(`{}`)); err != nil {
		t.Fatal(err)
	}
	info, _ = os.Stat(fresh)
	if got := info.Mode().Perm(); got != 0o644 {
		t.Errorf("new file mode = %o, want 644", got)
	}
}
