// Package versionservice implements the command semantics of the data
// editor backend on top of the version manager, raw storage, the
// versions.json manifest and the optional file catalog.
package versionservice

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/starford/cravetown/internal/apperr"
	"github.com/starford/cravetown/internal/catalog"
	"github.com/starford/cravetown/internal/checksum"
	"github.com/starford/cravetown/internal/datadir"
	"github.com/starford/cravetown/internal/manifest"
	"github.com/starford/cravetown/internal/models"
	"github.com/starford/cravetown/internal/storage"
	"github.com/starford/cravetown/internal/versions"
)

// Service coordinates every command. Lifecycle and manifest mutations are
// serialised by mu; raw reads and writes are not.
type Service struct {
	resolver datadir.Resolver
	store    storage.Provider
	versions *versions.Manager
	db       *catalog.DB
	logger   *slog.Logger
	now      func() time.Time

	mu sync.Mutex

	dirOnce sync.Once
	dataDir string
	dirErr  error
}

// Option customises a Service.
type Option func(*Service)

// WithCatalog attaches a catalog that is resynced after lifecycle changes
// and used to enrich version listings.
func WithCatalog(db *catalog.DB) Option {
	return func(s *Service) { s.db = db }
}

// WithClock overrides the clock used for manifest dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a new version service.
func NewService(resolver datadir.Resolver, store storage.Provider, mgr *versions.Manager, opts ...Option) *Service {
	s := &Service{
		resolver: resolver,
		store:    store,
		versions: mgr,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DataDir returns the data directory, resolving it on first use.
func (s *Service) DataDir(_ context.Context) (string, error) {
	s.dirOnce.Do(func() {
		s.dataDir, s.dirErr = s.resolver.Resolve()
	})
	return s.dataDir, s.dirErr
}

// ReadJSONFile returns the full text of the file at path.
func (s *Service) ReadJSONFile(_ context.Context, path string) (string, error) {
	data, err := s.store.Read(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteJSONFile replaces the file at path with content.
func (s *Service) WriteJSONFile(_ context.Context, path, content string) error {
	return s.store.Write(path, []byte(content))
}

// ReadFile returns the content of path together with its checksum.
func (s *Service) ReadFile(_ context.Context, path string) ([]byte, string, error) {
	data, err := s.store.Read(path)
	if err != nil {
		return nil, "", err
	}
	return data, checksum.Sum(data), nil
}

// WriteFileIfMatch writes content only when the current file content
// matches ifMatch (see checksum.Matches). A missing file only matches an
// empty or wildcard precondition.
func (s *Service) WriteFileIfMatch(_ context.Context, path string, content []byte, ifMatch string) (string, error) {
	if ifMatch != "" && ifMatch != "*" {
		current, err := s.store.Read(path)
		if err != nil {
			return "", err
		}
		if !checksum.Matches(ifMatch, current) {
			return "", fmt.Errorf("file %s changed since it was read: %w", path, apperr.ErrConflict)
		}
	}
	if err := s.store.Write(path, content); err != nil {
		return "", err
	}
	return checksum.Sum(content), nil
}

// CreateVersionDirectory creates dataDir/versionID with placeholder files.
func (s *Service) CreateVersionDirectory(ctx context.Context, dataDir, versionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.versions.Create(dataDir, versionID); err != nil {
		return err
	}
	s.resyncIfCatalogued(ctx, dataDir)
	return nil
}

// CloneVersionDirectory copies dataDir/sourceID to dataDir/targetID.
func (s *Service) CloneVersionDirectory(ctx context.Context, dataDir, sourceID, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.versions.Clone(dataDir, sourceID, targetID); err != nil {
		return err
	}
	s.resyncIfCatalogued(ctx, dataDir)
	return nil
}

// DeleteVersionDirectory removes dataDir/versionID.
func (s *Service) DeleteVersionDirectory(ctx context.Context, dataDir, versionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.versions.Delete(dataDir, versionID); err != nil {
		return err
	}
	s.resyncIfCatalogued(ctx, dataDir)
	return nil
}

// resyncIfCatalogued resyncs the catalog when dataDir is the resolved data
// directory. The catalog only indexes that tree; other directories the
// caller passes are left alone.
func (s *Service) resyncIfCatalogued(ctx context.Context, dataDir string) {
	resolved, err := s.DataDir(ctx)
	if err != nil {
		return
	}
	if filepath.Clean(dataDir) != filepath.Clean(resolved) {
		s.logger.Debug("catalog resync skipped for foreign data dir",
			slog.String("data_dir", dataDir), slog.String("catalog_dir", resolved))
		return
	}
	s.resync(resolved)
}

// resync refreshes the catalog after a lifecycle change. Failures are
// logged only; the watcher reconciles later.
func (s *Service) resync(dataDir string) {
	if s.db == nil {
		return
	}
	if err := catalog.Sync(s.db, s.store, dataDir, s.logger); err != nil {
		s.logger.Warn("catalog resync failed", slog.String("data_dir", dataDir), slog.String("error", err.Error()))
	}
}

// ListVersions merges the versions found on disk, in the manifest and in
// the catalog into one summary per id, ordered by id.
func (s *Service) ListVersions(ctx context.Context) ([]models.VersionSummary, error) {
	dataDir, err := s.DataDir(ctx)
	if err != nil {
		return nil, err
	}
	onDisk, err := s.versions.List(dataDir)
	if err != nil {
		return nil, err
	}
	m, err := manifest.Load(s.store, dataDir)
	if err != nil {
		return nil, err
	}

	byID := map[string]*models.VersionSummary{}
	var order []string
	get := func(id string) *models.VersionSummary {
		if v, ok := byID[id]; ok {
			return v
		}
		v := &models.VersionSummary{ID: id}
		byID[id] = v
		order = append(order, id)
		return v
	}

	for _, id := range onDisk {
		get(id).OnDisk = true
	}
	for _, v := range m.Versions {
		sum := get(v.ID)
		sum.InManifest = true
		sum.Active = v.ID == m.ActiveVersion
	}
	if s.db != nil {
		rows, err := s.db.Versions()
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			sum, ok := byID[r.ID]
			if !ok || !sum.OnDisk {
				continue
			}
			sum.Files = r.Files
			sum.UpdatedAt = r.UpdatedAt
		}
	}

	sort.Strings(order)
	out := make([]models.VersionSummary, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out, nil
}

// VersionFiles returns the catalogued files of a version.
func (s *Service) VersionFiles(_ context.Context, versionID string) ([]catalog.FileRow, error) {
	if s.db == nil {
		return []catalog.FileRow{}, nil
	}
	rows, err := s.db.Files(versionID)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(rows), nil
}
