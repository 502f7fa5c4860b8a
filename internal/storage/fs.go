package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/cravetown/internal/checksum"
	"github.com/starford/cravetown/internal/models"
)

const tmpPattern = ".cravetown-tmp-*"

// FS implements Provider backed by the local file system.
type FS struct{}

// NewFS creates a new FS provider.
func NewFS() *FS {
	return &FS{}
}

// Read returns the raw bytes of a file.
func (f *FS) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return data, nil
}

// Write atomically writes content: tmp file → fsync → rename.
// The parent directory must already exist. A symlink is written through
// to its target, and an existing file keeps its permission bits.
func (f *FS) Write(path string, content []byte) error {
	target, perm, err := writeTarget(path)
	if err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	dir := filepath.Dir(target)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("failed to write file %s: parent %s is not a directory", path, dir)
	}

	tmp, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to write file %s: fsync: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write file %s: close: %w", path, err)
	}
	// CreateTemp uses 0600.
	if err := os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("failed to write file %s: chmod: %w", path, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}
	success = true
	return nil
}

// maxSymlinks bounds symlink resolution in writeTarget.
const maxSymlinks = 40

// writeTarget follows symlinks from path to the file that should be
// replaced and returns it with the permissions the new file gets:
// those of the existing file, or 0644 for a new one.
func writeTarget(path string) (string, os.FileMode, error) {
	target := path
	for range maxSymlinks {
		info, err := os.Lstat(target)
		if errors.Is(err, fs.ErrNotExist) {
			return target, 0o644, nil
		}
		if err != nil {
			return "", 0, err
		}
		if info.Mode()&os.ModeSymlink == 0 {
			return target, info.Mode().Perm(), nil
		}
		link, err := os.Readlink(target)
		if err != nil {
			return "", 0, err
		}
		if !filepath.IsAbs(link) {
			link = filepath.Join(filepath.Dir(target), link)
		}
		target = link
	}
	return "", 0, fmt.Errorf("too many levels of symbolic links")
}

// List walks dir and returns metadata for every .json file beneath it.
// Paths in the result are relative to dir and use forward slashes.
func (f *FS) List(dir string) ([]models.FileMetadata, error) {
	var out []models.FileMetadata
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !IsJSON(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		out = append(out, models.FileMetadata{
			Path:      filepath.ToSlash(rel),
			Checksum:  checksum.Sum(data),
			Size:      info.Size(),
			UpdatedAt: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list %s: %w", dir, err)
	}
	return out, nil
}

// IsJSON reports whether name is a JSON data file (temp files excluded).
func IsJSON(name string) bool {
	base := filepath.Base(name)
	return strings.HasSuffix(base, ".json") && !strings.HasPrefix(base, ".cravetown-tmp-")
}
