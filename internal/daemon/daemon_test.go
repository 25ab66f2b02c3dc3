package daemon

import (
	"context"
	"testing"
	"time"

	"github.com/tutu-network/coinquest/internal/domain"
	"github.com/tutu-network/coinquest/internal/infra/sqlite"
)

// testContext returns a context canceled when the test's cleanups start,
// mirroring testing.T.Context on toolchains that predate it.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

// testDaemon builds a daemon over a temporary home and waits for the load.
func testDaemon(t *testing.T) *Daemon {
	t.Helper()
	t.Setenv("COINQUEST_HOME", t.TempDir())
	cfg := DefaultConfig()
	cfg.Logging.File = ""
	cfg.Telemetry.Prometheus = false

	d, err := NewWithConfig(cfg)
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}
	t.Cleanup(d.Close)

	if err := d.Start(testContext(t)); err != nil {
		t.Fatalf("start: %v", err)
	}
	return d
}

func TestDaemon_PersistsProfile(t *testing.T) {
	d := testDaemon(t)

	if _, err := d.Engine.AddXP(120, domain.XPManual); err != nil {
		t.Fatal(err)
	}
	d.Engine.Flush()

	blob, err := sqlite.NewProfileStore(d.DB).Load(testContext(t))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if blob == nil {
		t.Fatal("profile was not saved")
	}
}

func TestDaemon_RecordsXPLedger(t *testing.T) {
	d := testDaemon(t)

	d.Engine.AddXP(100, domain.XPManual)
	d.Engine.AddXP(5, domain.XPManual)

	entries, err := d.DB.XPHistory(10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(entries))
	}
	if entries[0].Balance != 105 || entries[1].Level != 2 {
		t.Errorf("unexpected ledger entries %+v", entries)
	}

	d.Engine.Reset()
	if entries, _ := d.DB.XPHistory(10); len(entries) != 0 {
		t.Errorf("reset should clear the ledger, got %d entries", len(entries))
	}
}

func TestDaemon_WiresOptionalServices(t *testing.T) {
	d := testDaemon(t)

	if d.Notification == nil {
		t.Error("notifications enabled by default")
	}
	if d.Live == nil || d.Server == nil || d.Health == nil {
		t.Error("expected live hub, server and health checker")
	}
	statuses := d.Health.RunOnce(testContext(t))
	for _, s := range statuses {
		if !s.Healthy {
			t.Errorf("check %s unhealthy: %s", s.Name, s.Error)
		}
	}
}

func TestDaemon_Rollover(t *testing.T) {
	d := testDaemon(t)
	if !d.Engine.Ready() {
		t.Fatal("engine should be ready after Start")
	}

	before := d.lastDay
	d.checkRollover(time.Now())
	if d.lastDay != before {
		t.Errorf("same day should not roll over: %q -> %q", before, d.lastDay)
	}

	tomorrow := time.Now().AddDate(0, 0, 1)
	d.checkRollover(tomorrow)
	if d.lastDay != tomorrow.Format("2006-01-02") {
		t.Errorf("expected lastDay %s, got %s", tomorrow.Format("2006-01-02"), d.lastDay)
	}
}
