package catalog

import (
	"log/slog"
	"path/filepath"

	"github.com/starford/cravetown/internal/checksum"
	"github.com/starford/cravetown/internal/storage"
)

// Sync walks the data directory and brings the catalog up to date:
//   - new/changed version files are upserted
//   - files removed from disk are deleted from the catalog
//
// Files at the data directory root (versions.json) are not catalogued.
func Sync(db *DB, store storage.Provider, dataDir string, logger *slog.Logger) error {
	metas, err := store.List(dataDir)
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		version := VersionOf(m.Path)
		if version == "" {
			continue
		}
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}
		if err := db.UpsertFile(FileRow{
			Path:      m.Path,
			Version:   version,
			Checksum:  m.Checksum,
			Size:      m.Size,
			UpdatedAt: m.UpdatedAt,
		}); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteFile(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// indexFile reads abs and upserts it under the data-dir-relative path rel.
func indexFile(db *DB, store storage.Provider, dataDir, abs string) (string, error) {
	rel, err := filepath.Rel(dataDir, abs)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	data, err := store.Read(abs)
	if err != nil {
		return rel, err
	}
	return rel, db.UpsertFile(FileRow{
		Path:     rel,
		Version:  VersionOf(rel),
		Checksum: checksum.Sum(data),
		Size:     int64(len(data)),
	})
}
