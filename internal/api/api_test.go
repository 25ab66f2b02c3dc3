package api

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tutu-network/coinquest/internal/app/engagement"
	"github.com/tutu-network/coinquest/internal/domain"
	"github.com/tutu-network/coinquest/internal/infra/sqlite"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*Server, *engagement.Engine) {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open db: %v", err)
	}

	eng := engagement.New(engagement.Options{
		Store: sqlite.NewProfileStore(db),
		Clock: fixedClock{testNow},
	})
	eng.Start(context.Background())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := eng.WaitReady(ctx); err != nil {
		t.Fatalf("WaitReady: %v", err)
	}
	t.Cleanup(func() {
		eng.Close()
		db.Close()
	})

	srv := NewServer(eng)
	srv.SetLedger(db)
	srv.SetNotifications(engagement.NewNotificationService(db).WithClock(fixedClock{testNow}))
	return srv, eng
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v (body=%s)", err, w.Body.String())
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Basics
// ═══════════════════════════════════════════════════════════════════════════

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	w := do(t, srv.Handler(), "GET", "/health", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]interface{}
	decode(t, w, &body)
	if body["ready"] != true {
		t.Errorf("expected ready=true, got %v", body["ready"])
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t)
	w := do(t, srv.Handler(), "OPTIONS", "/api/progress/xp", "")

	if w.Code != http.StatusOK {
		t.Errorf("expected 200 for preflight, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected wildcard CORS origin by default")
	}
}

func TestMetricsDisabledByDefault(t *testing.T) {
	srv, _ := newTestServer(t)
	if w := do(t, srv.Handler(), "GET", "/metrics", ""); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 without EnableMetrics, got %d", w.Code)
	}
	srv.EnableMetrics()
	if w := do(t, srv.Handler(), "GET", "/metrics", ""); w.Code != http.StatusOK {
		t.Errorf("expected 200 with EnableMetrics, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Profile & Level
// ═══════════════════════════════════════════════════════════════════════════

func TestProfile_Fresh(t *testing.T) {
	srv, _ := newTestServer(t)
	w := do(t, srv.Handler(), "GET", "/api/progress/profile", "")

	var body struct {
		Ready   bool           `json:"ready"`
		Profile domain.Profile `json:"profile"`
	}
	decode(t, w, &body)
	if !body.Ready {
		t.Error("expected ready profile")
	}
	if body.Profile.Level != 1 || body.Profile.XP != 0 {
		t.Errorf("expected level 1 / 0 XP, got %d / %d", body.Profile.Level, body.Profile.XP)
	}
	if body.Profile.StreakDays != 1 {
		t.Errorf("expected first-day streak after init, got %d", body.Profile.StreakDays)
	}
}

func TestAddXP(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	w := do(t, h, "POST", "/api/progress/xp", `{"amount": 100}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var res engagement.XPResult
	decode(t, w, &res)
	if !res.LeveledUp || res.Level != 2 {
		t.Errorf("expected level-up to 2, got level %d leveledUp=%v", res.Level, res.LeveledUp)
	}
	if res.Source != domain.XPManual {
		t.Errorf("expected default source MANUAL, got %q", res.Source)
	}
	if len(res.NewRewards) != 1 || res.NewRewards[0].ID != "theme_emerald" {
		t.Errorf("expected theme_emerald unlocked at level 2, got %+v", res.NewRewards)
	}

	w = do(t, h, "GET", "/api/progress/level", "")
	var lvl map[string]interface{}
	decode(t, w, &lvl)
	if lvl["level"].(float64) != 2 {
		t.Errorf("expected level 2, got %v", lvl["level"])
	}
}

func TestAddXP_Invalid(t *testing.T) {
	srv, eng := newTestServer(t)
	h := srv.Handler()

	for _, body := range []string{`{"amount": -5}`, `{"amount": "ten"}`, `not json`} {
		w := do(t, h, "POST", "/api/progress/xp", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %s: expected 400, got %d", body, w.Code)
		}
	}
	if eng.Profile().XP != 0 {
		t.Errorf("invalid requests must not change XP, got %d", eng.Profile().XP)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Events
// ═══════════════════════════════════════════════════════════════════════════

func TestEvent_AddTransaction(t *testing.T) {
	srv, eng := newTestServer(t)

	w := do(t, srv.Handler(), "POST", "/api/progress/events/add_transaction", `{"amount": 12.5, "category": "food"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var res engagement.ActionResult
	decode(t, w, &res)
	found := false
	for _, a := range res.Achievements {
		if a.ID == "first_transaction" && a.IsCompleted {
			found = true
		}
	}
	if !found {
		t.Error("expected first_transaction completed")
	}
	if len(res.Missions) == 0 {
		t.Error("expected daily_log_3 mission progress")
	}
	if eng.Profile().XP != 10 {
		t.Errorf("expected 10 XP from first_transaction, got %d", eng.Profile().XP)
	}
}

func TestEvent_NoBody(t *testing.T) {
	srv, _ := newTestServer(t)
	w := do(t, srv.Handler(), "POST", "/api/progress/events/view_report", "")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 with empty body, got %d", w.Code)
	}
}

func TestEvent_Unknown(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	if w := do(t, h, "POST", "/api/progress/events/buy_crypto", ""); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown action, got %d", w.Code)
	}
	// Raised internally only
	if w := do(t, h, "POST", "/api/progress/events/streak_updated", ""); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for streak_updated, got %d", w.Code)
	}
}

func TestEvent_BadBody(t *testing.T) {
	srv, _ := newTestServer(t)
	w := do(t, srv.Handler(), "POST", "/api/progress/events/add_transaction", `[1,2]`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for non-object metadata, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Missions, Achievements & Rewards
// ═══════════════════════════════════════════════════════════════════════════

func TestMissions_StartAndProgress(t *testing.T) {
	srv, eng := newTestServer(t)
	h := srv.Handler()

	var id string
	for _, m := range eng.Profile().Missions.Active {
		if m.TemplateID == "weekly_review" {
			id = m.ID
		}
	}
	if id == "" {
		t.Fatal("weekly_review not issued")
	}

	w := do(t, h, "POST", "/api/progress/missions/"+id+"/start", "")
	if w.Code != http.StatusOK {
		t.Fatalf("start: expected 200, got %d", w.Code)
	}
	var m domain.Mission
	decode(t, w, &m)
	if m.StartedAt == nil {
		t.Error("expected StartedAt after start")
	}

	w = do(t, h, "POST", "/api/progress/missions/"+id+"/progress", `{"progress": 1}`)
	decode(t, w, &m)
	if !m.IsCompleted {
		t.Error("expected mission completed at max progress")
	}

	w = do(t, h, "GET", "/api/progress/missions", "")
	var set domain.MissionSet
	decode(t, w, &set)
	if len(set.Completed) != 1 || set.Completed[0].ID != id {
		t.Errorf("expected mission in completed list, got %+v", set.Completed)
	}
}

func TestMissions_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	if w := do(t, srv.Handler(), "POST", "/api/progress/missions/nope/start", ""); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestAchievements_Filter(t *testing.T) {
	srv, _ := newTestServer(t)
	w := do(t, srv.Handler(), "GET", "/api/progress/achievements?type=goals", "")

	var body struct {
		Achievements []domain.Achievement `json:"achievements"`
		Total        int                  `json:"total"`
	}
	decode(t, w, &body)
	if len(body.Achievements) != 3 {
		t.Errorf("expected 3 goal achievements, got %d", len(body.Achievements))
	}
	if body.Total != len(engagement.AllAchievements()) {
		t.Errorf("expected total %d, got %d", len(engagement.AllAchievements()), body.Total)
	}
}

func TestAchievementProgress(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	w := do(t, h, "POST", "/api/progress/achievements/transactions_10/progress", `{"progress": 4}`)
	var a domain.Achievement
	decode(t, w, &a)
	if a.Progress != 4 {
		t.Errorf("expected progress 4, got %d", a.Progress)
	}

	// Lower values are ignored
	w = do(t, h, "POST", "/api/progress/achievements/transactions_10/progress", `{"progress": 2}`)
	decode(t, w, &a)
	if a.Progress != 4 {
		t.Errorf("progress must not decrease, got %d", a.Progress)
	}

	if w := do(t, h, "POST", "/api/progress/achievements/nope/progress", `{"progress": 1}`); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestRewardUnlock(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	w := do(t, h, "POST", "/api/progress/rewards/theme_gold/unlock", "")
	var body map[string]interface{}
	decode(t, w, &body)
	if body["unlocked"] != true {
		t.Errorf("expected first unlock to succeed, got %v", body)
	}

	w = do(t, h, "POST", "/api/progress/rewards/theme_gold/unlock", "")
	body = nil
	decode(t, w, &body)
	if w.Code != http.StatusOK || body["unlocked"] != false {
		t.Errorf("second unlock should be an idempotent no-op, got %d %v", w.Code, body)
	}

	if w := do(t, h, "POST", "/api/progress/rewards/nope/unlock", ""); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown reward, got %d", w.Code)
	}
}

func TestRewardsAvailable(t *testing.T) {
	srv, eng := newTestServer(t)
	h := srv.Handler()

	w := do(t, h, "GET", "/api/progress/rewards/available", "")
	var body struct {
		Rewards []domain.Reward `json:"rewards"`
	}
	decode(t, w, &body)
	if len(body.Rewards) != 0 {
		t.Errorf("expected nothing available at level 1, got %d", len(body.Rewards))
	}

	eng.AddXP(250, domain.XPManual) // level 3, auto-unlocks gates 2-3
	w = do(t, h, "GET", "/api/progress/rewards/available", "")
	decode(t, w, &body)
	if len(body.Rewards) != 0 {
		t.Errorf("level-up should already have unlocked everything available, got %d", len(body.Rewards))
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Export / Import / Reset
// ═══════════════════════════════════════════════════════════════════════════

func TestExportImportRoundTrip(t *testing.T) {
	srv, eng := newTestServer(t)
	h := srv.Handler()

	eng.AddXP(300, domain.XPManual)
	w := do(t, h, "GET", "/api/progress/export", "")
	if w.Code != http.StatusOK {
		t.Fatalf("export: expected 200, got %d", w.Code)
	}
	exported := w.Body.String()

	do(t, h, "POST", "/api/progress/reset", "")
	if eng.Profile().XP != 0 {
		t.Fatal("reset should clear XP")
	}

	w = do(t, h, "POST", "/api/progress/import", exported)
	if w.Code != http.StatusOK {
		t.Fatalf("import: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if eng.Profile().XP != 300 {
		t.Errorf("expected XP restored to 300, got %d", eng.Profile().XP)
	}
}

func TestImport_Invalid(t *testing.T) {
	srv, eng := newTestServer(t)
	eng.AddXP(50, domain.XPManual)

	w := do(t, srv.Handler(), "POST", "/api/progress/import", `{"xp":"lots","level":1}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if eng.Profile().XP != 50 {
		t.Errorf("failed import must not change state, got XP %d", eng.Profile().XP)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Streak, History & Notifications
// ═══════════════════════════════════════════════════════════════════════════

func TestStreakCheck_SameDay(t *testing.T) {
	srv, _ := newTestServer(t)
	w := do(t, srv.Handler(), "POST", "/api/progress/streak/check", "")

	var body map[string]interface{}
	decode(t, w, &body)
	if body["state"] != string(engagement.StreakSameDay) {
		t.Errorf("expected same_day after init already counted today, got %v", body["state"])
	}
}

func TestXPHistory(t *testing.T) {
	srv, _ := newTestServer(t)
	w := do(t, srv.Handler(), "GET", "/api/progress/xp/history", "")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	srv.SetLedger(nil)
	if w := do(t, srv.Handler(), "GET", "/api/progress/xp/history", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without ledger, got %d", w.Code)
	}
}

func TestNotifications(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	w := do(t, h, "GET", "/api/progress/notifications", "")
	var body struct {
		Notifications []domain.Notification `json:"notifications"`
		MaxPerDay     int                   `json:"max_per_day"`
	}
	decode(t, w, &body)
	if body.MaxPerDay != domain.DefaultNotificationPolicy().MaxPerDay {
		t.Errorf("expected default max_per_day, got %d", body.MaxPerDay)
	}

	if w := do(t, h, "POST", "/api/progress/notifications/abc/shown", ""); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for non-numeric id, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Live Feed
// ═══════════════════════════════════════════════════════════════════════════

func TestLiveHub_BroadcastsEngineEvents(t *testing.T) {
	_, eng := newTestServer(t)
	hub := NewLiveHub()
	cancel := hub.Attach(eng.Events())
	defer cancel()

	_, ch, unsub := hub.Subscribe()
	defer unsub()
	if hub.ClientCount() != 1 {
		t.Fatalf("expected 1 client, got %d", hub.ClientCount())
	}

	eng.AddXP(5, domain.XPManual)

	seen := map[engagement.EventName]bool{}
	timeout := time.After(2 * time.Second)
	for !seen[engagement.EventXPAdded] {
		select {
		case data := <-ch:
			var ev LiveEvent
			if err := json.Unmarshal(data, &ev); err != nil {
				t.Fatalf("bad live event: %v", err)
			}
			if ev.ID == "" {
				t.Error("live event missing id")
			}
			seen[ev.Type] = true
		case <-timeout:
			t.Fatalf("timed out waiting for xpAdded, saw %v", seen)
		}
	}
}

func TestLiveHub_UnsubscribeIdempotent(t *testing.T) {
	hub := NewLiveHub()
	_, _, unsub := hub.Subscribe()
	unsub()
	unsub()
	if hub.ClientCount() != 0 {
		t.Errorf("expected 0 clients, got %d", hub.ClientCount())
	}
	// Broadcasting with no clients is a no-op
	hub.Broadcast(engagement.EventProfileUpdated, map[string]int{"xp": 1})
}

func TestLiveSSE_Handshake(t *testing.T) {
	srv, eng := newTestServer(t)
	hub := NewLiveHub()
	defer hub.Attach(eng.Events())()
	srv.SetLiveHub(hub)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, "GET", ts.URL+"/api/progress/live", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET live: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}
	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.TrimSpace(line) != "event: hello" {
		t.Errorf("first line = %q, want hello event", line)
	}
}
