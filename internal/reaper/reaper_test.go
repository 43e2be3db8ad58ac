package reaper

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/princekumarofficial/dropzone-service/internal/chunkstore"
)

type countingSweeper struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *countingSweeper) Sweep(time.Duration, time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return 1, s.err
}

func (s *countingSweeper) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestRunOnce_RemovesStaleSessions(t *testing.T) {
	dir := t.TempDir()
	store, err := chunkstore.New(dir, 1<<20, chunkstore.NewLocalLocker(time.Second), time.Minute)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	ownerDir := filepath.Join(dir, "7")
	if err := os.MkdirAll(ownerDir, 0o700); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(ownerDir, "stale.part")
	fresh := filepath.Join(ownerDir, "fresh.part")
	for _, p := range []string{stale, fresh} {
		if err := os.WriteFile(p, []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	old := time.Now().Add(-48 * time.Hour)
	os.Chtimes(stale, old, old)

	r := New(store, 24*time.Hour, nil)
	if removed := r.RunOnce(); removed != 1 {
		t.Fatalf("Expected 1 file removed, got %d", removed)
	}
	if _, err := os.Stat(stale); !errors.Is(err, os.ErrNotExist) {
		t.Error("Expected stale file to be removed")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Error("Expected fresh file to survive")
	}
}

func TestRunOnce_ReportsPartialSweep(t *testing.T) {
	s := &countingSweeper{err: errors.New("permission denied")}
	if removed := New(s, time.Hour, nil).RunOnce(); removed != 1 {
		t.Fatalf("Expected partial count to be returned, got %d", removed)
	}
}

func TestStart_RunsOnSchedule(t *testing.T) {
	s := &countingSweeper{}
	r := New(s, time.Hour, nil)

	if err := r.Start("* * * * * *"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer r.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for s.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if s.count() == 0 {
		t.Fatal("Expected a scheduled sweep")
	}
}

func TestStart_RejectsBadSchedule(t *testing.T) {
	r := New(&countingSweeper{}, time.Hour, nil)
	if err := r.Start("every five minutes"); err == nil {
		t.Fatal("Expected invalid schedule error")
	}
}
