// Package datadir resolves the directory that holds every version directory.
package datadir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/mitchellh/go-homedir"

	"github.com/starford/cravetown/internal/apperr"
)

// Subdir is the directory name appended in both modes.
const Subdir = "data"

// Mode selects how the data directory is located.
type Mode string

// Supported modes.
const (
	ModeDevelopment Mode = "development"
	ModeProduction  Mode = "production"
)

// ConfigDirFunc returns the host application's config directory.
type ConfigDirFunc func() (string, error)

// Resolver computes the data directory. It performs no I/O beyond what
// ConfigDir does and never creates directories.
type Resolver struct {
	Mode Mode
	// ManifestDir is the directory holding the build manifest. The
	// development data directory lives two levels above it.
	ManifestDir string
	// ConfigDir is consulted in production mode.
	ConfigDir ConfigDirFunc
	// Override, when set, is returned as-is regardless of mode.
	Override string
}

// UserConfigDir returns a ConfigDirFunc rooted at os.UserConfigDir()/appName.
// When the platform config dir is unknown it falls back to ~/.config.
func UserConfigDir(appName string) ConfigDirFunc {
	return func() (string, error) {
		base, err := os.UserConfigDir()
		if err != nil {
			home, herr := homedir.Dir()
			if herr != nil {
				return "", fmt.Errorf("%w (home: %v)", err, herr)
			}
			base = filepath.Join(home, ".config")
		}
		return filepath.Join(base, appName), nil
	}
}

// Resolve returns the data directory path.
func (r Resolver) Resolve() (string, error) {
	var dir string
	switch {
	case strings.TrimSpace(r.Override) != "":
		d, err := homedir.Expand(r.Override)
		if err != nil {
			return "", fmt.Errorf("failed to expand data directory %s: %w", r.Override, err)
		}
		dir = d
	case r.Mode == ModeDevelopment:
		d, err := r.development()
		if err != nil {
			return "", err
		}
		dir = d
	case r.Mode == ModeProduction:
		d, err := r.production()
		if err != nil {
			return "", err
		}
		dir = d
	default:
		return "", fmt.Errorf("unknown data dir mode %q", r.Mode)
	}

	if !utf8.ValidString(dir) {
		return "", fmt.Errorf("failed to convert path to string: %w", apperr.ErrInvalidPath)
	}
	return dir, nil
}

func (r Resolver) development() (string, error) {
	expanded, err := homedir.Expand(r.ManifestDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve manifest directory: %w", err)
	}
	manifest, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("failed to resolve manifest directory: %w", err)
	}
	dir := manifest
	for range 2 {
		parent, ok := parentDir(dir)
		if !ok {
			return "", fmt.Errorf("failed to get parent directory of %s: %w", dir, apperr.ErrInvalidPath)
		}
		dir = parent
	}
	return filepath.Join(dir, Subdir), nil
}

func (r Resolver) production() (string, error) {
	if r.ConfigDir == nil {
		return "", errors.New("failed to get app directory: no config directory provider")
	}
	appDir, err := r.ConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get app directory: %w", err)
	}
	if strings.TrimSpace(appDir) == "" {
		return "", errors.New("failed to get app directory: empty path")
	}
	return filepath.Join(appDir, Subdir), nil
}

// parentDir returns the parent of an absolute, cleaned path. ok is false
// at the filesystem root.
func parentDir(p string) (string, bool) {
	parent := filepath.Dir(p)
	if parent == p {
		return "", false
	}
	return parent, true
}
