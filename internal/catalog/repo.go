package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// FileRow represents a row in the files table. Path is relative to the
// data directory, slash-separated, and starts with the version id.
type FileRow struct {
	Path      string    `json:"path"`
	Version   string    `json:"version"`
	Checksum  string    `json:"checksum"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// VersionRow aggregates the files of one version.
type VersionRow struct {
	ID        string
	Files     int
	UpdatedAt time.Time
}

// VersionOf returns the version id a data-dir-relative path belongs to,
// or "" for files at the data directory root.
func VersionOf(rel string) string {
	version, _, ok := strings.Cut(rel, "/")
	if !ok {
		return ""
	}
	return version
}

// UpsertFile inserts or replaces a file row.
func (db *DB) UpsertFile(f FileRow) error {
	if f.Version == "" {
		f.Version = VersionOf(f.Path)
	}
	if f.UpdatedAt.IsZero() {
		f.UpdatedAt = time.Now()
	}
	_, err := db.conn.Exec(`
		INSERT INTO files (path, version, checksum, size, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			version    = excluded.version,
			checksum   = excluded.checksum,
			size       = excluded.size,
			updated_at = excluded.updated_at
	`, f.Path, f.Version, f.Checksum, f.Size, f.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("catalog: upsert file: %w", err)
	}
	return nil
}

// DeleteFile removes a single file row.
func (db *DB) DeleteFile(path string) error {
	if _, err := db.conn.Exec(`DELETE FROM files WHERE path = ?`, path); err != nil {
		return fmt.Errorf("catalog: delete file: %w", err)
	}
	return nil
}

// DeleteVersion removes every row of a version.
func (db *DB) DeleteVersion(version string) error {
	if _, err := db.conn.Exec(`DELETE FROM files WHERE version = ?`, version); err != nil {
		return fmt.Errorf("catalog: delete version: %w", err)
	}
	return nil
}

// GetChecksum returns the stored checksum for a file, or "" if not indexed.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM files WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("catalog: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns path → checksum for every indexed file.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM files`)
	if err != nil {
		return nil, fmt.Errorf("catalog: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// Versions returns one row per version that has indexed files, by id.
func (db *DB) Versions() ([]VersionRow, error) {
	rows, err := db.conn.Query(`
		SELECT version, COUNT(*), MAX(updated_at)
		FROM files
		GROUP BY version
		ORDER BY version
	`)
	if err != nil {
		return nil, fmt.Errorf("catalog: versions: %w", err)
	}
	defer rows.Close()

	var out []VersionRow
	for rows.Next() {
		var (
			r       VersionRow
			updated string
		)
		if err := rows.Scan(&r.ID, &r.Files, &updated); err != nil {
			return nil, err
		}
		r.UpdatedAt = parseTime(updated)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Files returns the indexed files of version ordered by path.
func (db *DB) Files(version string) ([]FileRow, error) {
	rows, err := db.conn.Query(`
		SELECT path, version, checksum, size, updated_at
		FROM files
		WHERE version = ?
		ORDER BY path
	`, version)
	if err != nil {
		return nil, fmt.Errorf("catalog: files: %w", err)
	}
	defer rows.Close()

	var out []FileRow
	for rows.Next() {
		var f FileRow
		if err := rows.Scan(&f.Path, &f.Version, &f.Checksum, &f.Size, &f.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// parseTime decodes the textual MAX(updated_at) aggregate, which loses
// the DATETIME column type in go-sqlite3.
func parseTime(s string) time.Time {
	for _, layout := range []string{
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02T15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
