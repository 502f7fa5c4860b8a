// Package versions manages the lifecycle of version directories: named
// snapshots of the editor's JSON dataset living under the data directory.
package versions

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/starford/cravetown/internal/apperr"
	"github.com/starford/cravetown/pkg/fsutil"
)

// CreatePolicy decides what Create does when the version directory exists.
type CreatePolicy string

// Create policies.
const (
	// PolicyOverwrite rewrites every placeholder file with its default.
	PolicyOverwrite CreatePolicy = "overwrite"
	// PolicyError refuses to touch an existing version directory.
	PolicyError CreatePolicy = "error"
	// PolicySkip writes only the placeholder files that are missing.
	PolicySkip CreatePolicy = "skip"
)

// FileWriter writes a whole file. storage.FS satisfies it.
type FileWriter interface {
	Write(path string, content []byte) error
}

// Manager creates, clones and deletes version directories.
// It keeps no state between calls beyond its configuration.
type Manager struct {
	writer FileWriter
	policy CreatePolicy
	logger *slog.Logger
}

// NewManager returns a Manager. An empty policy means PolicyOverwrite.
func NewManager(writer FileWriter, policy CreatePolicy, logger *slog.Logger) *Manager {
	if policy == "" {
		policy = PolicyOverwrite
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{writer: writer, policy: policy, logger: logger}
}

// Policy returns the configured create policy.
func (m *Manager) Policy() CreatePolicy {
	return m.policy
}

// Path returns the directory of version id under dataDir.
func Path(dataDir, id string) string {
	return filepath.Join(dataDir, id)
}

// Create builds dataDir/id with its craving_system subdirectory and writes
// the placeholder schema. Files written before a failure stay on disk.
func (m *Manager) Create(dataDir, id string) error {
	dir := Path(dataDir, id)
	existed := fsutil.IsDir(dir)
	if existed && m.policy == PolicyError {
		return fmt.Errorf("version directory %s: %w", dir, apperr.ErrAlreadyExists)
	}

	if err := os.MkdirAll(filepath.Join(dir, CravingSystemDir), 0o755); err != nil {
		return fmt.Errorf("failed to create version directory %s: %w", dir, err)
	}

	written := 0
	for _, f := range PlaceholderSchema {
		p := filepath.Join(dir, filepath.FromSlash(f.Path))
		if existed && m.policy == PolicySkip && fsutil.Exists(p) {
			continue
		}
		if err := m.writer.Write(p, []byte(f.Content)); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.Path, err)
		}
		written++
	}

	m.logger.Info("version created",
		slog.String("version", id),
		slog.String("path", dir),
		slog.Bool("existed", existed),
		slog.Int("files_written", written))
	return nil
}

// Clone copies dataDir/sourceID to dataDir/targetID. The target must not
// exist yet.
func (m *Manager) Clone(dataDir, sourceID, targetID string) error {
	src := Path(dataDir, sourceID)
	dst := Path(dataDir, targetID)

	if !fsutil.Exists(src) {
		return fmt.Errorf("source version %q does not exist: %w", sourceID, apperr.ErrNotFound)
	}
	if fsutil.Exists(dst) {
		return fmt.Errorf("target version %q already exists: %w", targetID, apperr.ErrAlreadyExists)
	}
	if err := fsutil.CopyDir(src, dst); err != nil {
		return fmt.Errorf("failed to clone version %q to %q: %w", sourceID, targetID, err)
	}

	m.logger.Info("version cloned", slog.String("source", sourceID), slog.String("target", targetID))
	return nil
}

// Delete removes dataDir/id and everything beneath it.
func (m *Manager) Delete(dataDir, id string) error {
	dir := Path(dataDir, id)
	if !fsutil.Exists(dir) {
		return fmt.Errorf("version %q does not exist: %w", id, apperr.ErrNotFound)
	}
	if err := fsutil.RemoveDir(dir); err != nil {
		return fmt.Errorf("failed to delete version %q: %w", id, err)
	}

	m.logger.Info("version deleted", slog.String("version", id))
	return nil
}

// List returns the names of the version directories under dataDir,
// sorted. A missing data directory yields an empty list.
func (m *Manager) List(dataDir string) ([]string, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list versions in %s: %w", dataDir, err)
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}
