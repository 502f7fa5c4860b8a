package catalog

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/cravetown/internal/storage"
	"github.com/starford/cravetown/pkg/fsutil"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func startWatcher(t *testing.T, db *DB, dataDir string, cb EventCallback) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = Watch(ctx, db, storage.NewFS(), dataDir, quietLogger(), cb)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	time.Sleep(100 * time.Millisecond)
}

func TestWatcher_NewFileIndexed(t *testing.T) {
	db := testDB(t)
	dataDir := t.TempDir()
	writeFile(t, filepath.Join(dataDir, "base", "commodities.json"), `{}`)

	var mu sync.Mutex
	var events []string
	startWatcher(t, db, dataDir, func(kind, path string) {
		mu.Lock()
		events = append(events, kind+":"+path)
		mu.Unlock()
	})

	writeFile(t, filepath.Join(dataDir, "base", "worker_types.json"), `{"workerTypes":[]}`)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("base/worker_types.json")
		return cs != ""
	}, "new file not indexed by watcher")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			if e == "created:base/worker_types.json" {
				return true
			}
		}
		return false
	}, "expected created:base/worker_types.json callback")
}

func TestWatcher_ClonedVersionIndexed(t *testing.T) {
	db := testDB(t)
	dataDir := t.TempDir()
	writeFile(t, filepath.Join(dataDir, "base", "commodities.json"), `{"commodities":[]}`)
	writeFile(t, filepath.Join(dataDir, "base", "craving_system", "character_classes.json"), `{}`)

	startWatcher(t, db, dataDir, nil)

	if err := fsutil.CopyDir(filepath.Join(dataDir, "base"), filepath.Join(dataDir, "exp")); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		files, _ := db.Files("exp")
		return len(files) == 2
	}, "cloned version not fully indexed")
}

func TestWatcher_DeletedVersionRemoved(t *testing.T) {
	db := testDB(t)
	dataDir := t.TempDir()
	writeFile(t, filepath.Join(dataDir, "old", "commodities.json"), `{}`)
	writeFile(t, filepath.Join(dataDir, "old", "craving_system", "character_traits.json"), `{}`)
	if err := Sync(db, storage.NewFS(), dataDir, quietLogger()); err != nil {
		t.Fatal(err)
	}

	startWatcher(t, db, dataDir, nil)

	if err := os.RemoveAll(filepath.Join(dataDir, "old")); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		files, _ := db.Files("old")
		return len(files) == 0
	}, "deleted version still in catalog")
}
