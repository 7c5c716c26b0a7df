package index

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/starford/devdiary/internal/eventlog"
	"github.com/starford/devdiary/internal/models"
	"github.com/starford/devdiary/internal/storage"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) record(kind, date string) {
	r.mu.Lock()
	r.events = append(r.events, kind+":"+date)
	r.mu.Unlock()
}

func (r *recorder) has(want string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e == want {
			return true
		}
	}
	return false
}

// watcherTestEnv sets up an inbox dir, its log and a DB for watcher tests.
func watcherTestEnv(t *testing.T) (string, storage.Provider, *eventlog.Log, *DB) {
	t.Helper()
	inbox := t.TempDir()
	store, err := storage.NewFS(inbox)
	if err != nil {
		t.Fatal(err)
	}
	return inbox, store, eventlog.New(store), testDB(t)
}

// startWatch runs Watch until the test ends and waits for it to return.
func startWatch(t *testing.T, db *DB, store storage.Provider, inbox string, cb EventCallback) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = Watch(ctx, db, store, inbox, quietLogger(), cb)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	time.Sleep(100 * time.Millisecond)
}

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

func TestWatcher_AppendIndexed(t *testing.T) {
	ignore := goleak.IgnoreCurrent()
	t.Cleanup(func() { goleak.VerifyNone(t, ignore) })
	inbox, store, log, db := watcherTestEnv(t)
	rec := &recorder{}
	startWatch(t, db, store, inbox, rec.record)

	if _, _, err := log.AppendNote(context.Background(), "2024-05-01", "act: watched append"); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		res, _ := db.Search("watched append", 10)
		return len(res) == 1
	}, "appended note not indexed by watcher")
	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		return rec.has("created:2024-05-01") || rec.has("updated:2024-05-01")
	}, "expected a callback for 2024-05-01")
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	inbox, store, _, db := watcherTestEnv(t)
	rec := &recorder{}
	startWatch(t, db, store, inbox, rec.record)

	_ = os.WriteFile(filepath.Join(inbox, "readme.md"), []byte("# hi"), 0o644)
	_ = os.WriteFile(filepath.Join(inbox, "scratch.jsonl"), []byte("{}\n"), 0o644)
	time.Sleep(300 * time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.events) != 0 {
		t.Errorf("unexpected callbacks: %v", rec.events)
	}
}

func TestWatcher_ReplaceReindexes(t *testing.T) {
	inbox, store, log, db := watcherTestEnv(t)
	ctx := context.Background()
	_, _, _ = log.AppendNote(ctx, "2024-05-01", "act: before edit")
	if err := Sync(ctx, db, store, quietLogger()); err != nil {
		t.Fatal(err)
	}
	startWatch(t, db, store, inbox, nil)

	_, err := log.ReplaceAll(ctx, "2024-05-01", []models.Event{{Section: models.SectionActions, Text: "after edit"}})
	if err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		before, _ := db.Search("before edit", 10)
		after, _ := db.Search("after edit", 10)
		return len(before) == 0 && len(after) == 1
	}, "atomic replace was not reindexed")
}

func TestWatcher_DeleteRemovesFromIndex(t *testing.T) {
	inbox, store, log, db := watcherTestEnv(t)
	ctx := context.Background()
	_, _, _ = log.AppendNote(ctx, "2024-05-01", "delete me")
	_ = Sync(ctx, db, store, quietLogger())
	if cs, _ := db.DayChecksum("2024-05-01"); cs == "" {
		t.Fatal("precondition: day should be indexed")
	}

	rec := &recorder{}
	startWatch(t, db, store, inbox, rec.record)
	_ = os.Remove(filepath.Join(inbox, "2024-05-01.jsonl"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.DayChecksum("2024-05-01")
		return cs == "" && rec.has("deleted:2024-05-01")
	}, "deleted day still in index")
}

func TestWatcher_RenameReconciles(t *testing.T) {
	inbox, store, log, db := watcherTestEnv(t)
	ctx := context.Background()
	_, _, _ = log.AppendNote(ctx, "2024-05-01", "moved note")
	_ = Sync(ctx, db, store, quietLogger())

	startWatch(t, db, store, inbox, nil)
	_ = os.Rename(filepath.Join(inbox, "2024-05-01.jsonl"), filepath.Join(inbox, "2024-05-09.jsonl"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		oldCS, _ := db.DayChecksum("2024-05-01")
		newCS, _ := db.DayChecksum("2024-05-09")
		return oldCS == "" && newCS != ""
	}, "rename reconciliation failed: old day should be removed and new day indexed")
}

func TestWatcher_CreatesMissingDir(t *testing.T) {
	db := testDB(t)
	inbox := filepath.Join(t.TempDir(), "not", "yet")
	store, err := storage.NewFS(inbox)
	if err != nil {
		t.Fatal(err)
	}
	startWatch(t, db, store, inbox, nil)
	if info, err := os.Stat(inbox); err != nil || !info.IsDir() {
		t.Fatalf("inbox dir not created: %v", err)
	}
}
