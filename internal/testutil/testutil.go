// Package testutil provides shared test helpers for data directories,
// catalogs and services.
package testutil

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/starford/cravetown/internal/catalog"
	"github.com/starford/cravetown/internal/datadir"
	"github.com/starford/cravetown/internal/storage"
	"github.com/starford/cravetown/internal/versions"
	"github.com/starford/cravetown/internal/versionservice"
)

// Day is the fixed clock used by TestService.
var Day = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// QuietLogger returns a logger that only emits errors.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// TestCatalog creates a temporary SQLite catalog that is automatically cleaned up.
func TestCatalog(t *testing.T) *catalog.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "cravetown-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := catalog.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestService creates a service over a temporary data directory with a
// catalog attached and a fixed clock. It returns the data directory.
func TestService(t *testing.T, policy versions.CreatePolicy) (*versionservice.Service, string) {
	t.Helper()
	dataDir := t.TempDir()
	logger := QuietLogger()
	store := storage.NewFS()
	svc := versionservice.NewService(
		datadir.Resolver{Mode: datadir.ModeProduction, Override: dataDir},
		store,
		versions.NewManager(store, policy, logger),
		versionservice.WithCatalog(TestCatalog(t)),
		versionservice.WithClock(func() time.Time { return Day }),
		versionservice.WithLogger(logger),
	)
	return svc, dataDir
}
