package health

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tutu-network/coinquest/internal/infra/sqlite"
)

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dir := t.TempDir()
	db, err := sqlite.Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

type fakeEngine struct {
	ready   bool
	saveErr error
	flushed int
}

func (f *fakeEngine) Ready() bool          { return f.ready }
func (f *fakeEngine) LastSaveError() error { return f.saveErr }
func (f *fakeEngine) Flush()               { f.flushed++ }

// ─── Checker Tests ──────────────────────────────────────────────────────────

func TestNewChecker(t *testing.T) {
	c := NewChecker(newTestDB(t), t.TempDir(), &fakeEngine{ready: true})
	if c == nil {
		t.Fatal("NewChecker() returned nil")
	}
	if len(c.checks) != 4 {
		t.Errorf("checks = %d, want 4", len(c.checks))
	}
}

func TestChecker_RunAllHealthy(t *testing.T) {
	c := NewChecker(newTestDB(t), t.TempDir(), &fakeEngine{ready: true})
	statuses := c.RunOnce(context.Background())

	if len(statuses) != 4 {
		t.Fatalf("Statuses() = %d, want 4", len(statuses))
	}
	for _, s := range statuses {
		if !s.Healthy {
			t.Errorf("check %q should be healthy, got error: %s", s.Name, s.Error)
		}
	}
	if !c.IsHealthy() {
		t.Error("IsHealthy() should be true when all checks pass")
	}
}

func TestChecker_IsHealthy_BeforeRun(t *testing.T) {
	c := NewChecker(newTestDB(t), t.TempDir(), &fakeEngine{ready: true})
	// No statuses yet, so nothing is failing
	if !c.IsHealthy() {
		t.Error("IsHealthy() before first run should be true")
	}
}

func TestChecker_ProfileLoading(t *testing.T) {
	c := NewChecker(newTestDB(t), t.TempDir(), &fakeEngine{ready: false})
	c.runAll(context.Background())

	for _, s := range c.Statuses() {
		if s.Name == "profile_loaded" && s.Healthy {
			t.Error("profile_loaded should fail while the engine is loading")
		}
	}
	if c.IsHealthy() {
		t.Error("IsHealthy() should be false while loading")
	}
}

func TestChecker_PersistenceFailureFlushes(t *testing.T) {
	eng := &fakeEngine{ready: true, saveErr: errors.New("disk full")}
	c := NewChecker(newTestDB(t), t.TempDir(), eng)
	c.runAll(context.Background())

	if eng.flushed != 1 {
		t.Errorf("expected 1 flush during recovery, got %d", eng.flushed)
	}
	for _, s := range c.Statuses() {
		if s.Name == "persistence" {
			if s.Healthy {
				t.Error("persistence should be unhealthy")
			}
			if s.Error != "disk full" {
				t.Errorf("error = %q, want %q", s.Error, "disk full")
			}
		}
	}
}

func TestChecker_DataDirMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	if err := checkDataDir(missing); err == nil {
		t.Error("missing data dir should fail")
	}
}

func TestChecker_DataDirFileNotDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	os.WriteFile(path, []byte("x"), 0600)
	if err := checkDataDir(path); err == nil {
		t.Error("a file should not pass as the data dir")
	}
}

func TestChecker_SQLiteClosed(t *testing.T) {
	db := newTestDB(t)
	c := NewChecker(db, t.TempDir(), &fakeEngine{ready: true})
	db.Close()
	c.runAll(context.Background())

	for _, s := range c.Statuses() {
		if s.Name == "sqlite" && s.Healthy {
			t.Error("sqlite should be unhealthy after Close")
		}
	}
}

func TestChecker_StatusesCopy(t *testing.T) {
	c := NewChecker(newTestDB(t), t.TempDir(), &fakeEngine{ready: true})
	c.runAll(context.Background())

	s1 := c.Statuses()
	s2 := c.Statuses()
	s1[0].Healthy = false
	if !s2[0].Healthy {
		t.Error("Statuses() should return a copy, not a reference")
	}
}
