package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tutu-network/coinquest/internal/app/engagement"
	"github.com/tutu-network/coinquest/internal/domain"
)

// ─── Progress API ───────────────────────────────────────────────────────────
// REST endpoints for the desktop UI and CLI.
//
// GET  /api/progress/profile                 full profile snapshot
// GET  /api/progress/level                   level, XP, progress, next gates
// GET  /api/progress/achievements            ?type=&completed=
// GET  /api/progress/missions                active + completed
// GET  /api/progress/rewards                 all rewards with their gate
// GET  /api/progress/rewards/available       locked rewards the level allows
// POST /api/progress/events/{action}         host action, JSON metadata body
// POST /api/progress/xp                      {"amount": 50, "source": "MANUAL"}
// POST /api/progress/streak/check            count today toward the streak
// GET  /api/progress/export, POST /import, POST /reset

// maxBody bounds request bodies, including imported profiles.
const maxBody = 4 << 20

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	p := s.engine.Profile()
	ready := s.engine.Ready()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ready":   ready,
		"profile": p,
	})
}

func (s *Server) handleLevel(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	info := s.engine.LevelInfo()
	s.mu.Unlock()

	type gate struct {
		RewardID string `json:"reward_id"`
		Level    int    `json:"level"`
	}
	var next []gate
	for id, lvl := range engagement.RewardLevelGates {
		if lvl == info.Level+1 {
			next = append(next, gate{RewardID: id, Level: lvl})
		}
	}
	sort.Slice(next, func(i, j int) bool { return next[i].RewardID < next[j].RewardID })

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"level":        info.Level,
		"max_level":    info.MaxLevel,
		"xp":           info.XP,
		"xp_to_next":   info.XPToNext,
		"progress_pct": info.ProgressPct,
		"next_unlocks": next,
	})
}

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	p := s.engine.Profile()
	s.mu.Unlock()

	typ := r.URL.Query().Get("type")
	completed := r.URL.Query().Get("completed")

	out := make([]domain.Achievement, 0, len(p.Achievements))
	for _, a := range p.Achievements {
		if typ != "" && string(a.Type) != typ {
			continue
		}
		if completed != "" && strconv.FormatBool(a.IsCompleted) != completed {
			continue
		}
		out = append(out, a)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"achievements": out,
		"completed":    p.CompletedAchievements,
		"total":        p.TotalAchievements,
	})
}

type progressRequest struct {
	Progress int `json:"progress"`
}

func (s *Server) handleAchievementProgress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	a, err := s.engine.UpdateAchievementProgress(chi.URLParam(r, "id"), req.Progress)
	s.mu.Unlock()
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleMissions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	p := s.engine.Profile()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, p.Missions)
}

func (s *Server) handleMissionRefresh(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	issued := s.engine.RefreshMissions()
	s.mu.Unlock()

	if issued == nil {
		issued = []domain.Mission{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"issued": issued})
}

func (s *Server) handleMissionStart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	m, err := s.engine.StartMission(chi.URLParam(r, "id"))
	s.mu.Unlock()
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleMissionProgress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	m, err := s.engine.UpdateMissionProgress(chi.URLParam(r, "id"), req.Progress)
	s.mu.Unlock()
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleRewards(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	p := s.engine.Profile()
	s.mu.Unlock()

	type rewardResponse struct {
		domain.Reward
		RequiredLevel int `json:"required_level,omitempty"`
	}
	out := make([]rewardResponse, len(p.Rewards))
	for i, rw := range p.Rewards {
		lvl, _ := engagement.RequiredLevel(rw.ID)
		out[i] = rewardResponse{Reward: rw, RequiredLevel: lvl}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"level":   p.Level,
		"rewards": out,
	})
}

func (s *Server) handleRewardsAvailable(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	avail := s.engine.AvailableRewards()
	s.mu.Unlock()

	if avail == nil {
		avail = []domain.Reward{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rewards": avail})
}

func (s *Server) handleRewardUnlock(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	rw := s.engine.UnlockReward(id)
	p := s.engine.Profile()
	s.mu.Unlock()

	if rw == nil {
		existing := p.FindReward(id)
		if existing == nil {
			writeError(w, http.StatusNotFound, domain.ErrRewardNotFound.Error())
			return
		}
		// Already unlocked: unlocking is idempotent
		writeJSON(w, http.StatusOK, map[string]interface{}{"reward": existing, "unlocked": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"reward": rw, "unlocked": true})
}

// handleEvent ingests a host action with an optional JSON object body.
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	action := chi.URLParam(r, "action")
	if !engagement.IsKnownAction(action) || action == engagement.ActionStreakUpdated {
		writeError(w, http.StatusNotFound, fmt.Sprintf("%v: %s", domain.ErrUnknownAction, action))
		return
	}

	meta := domain.Metadata{}
	if err := decodeBody(r, &meta); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	var res engagement.ActionResult
	if action == engagement.ActionDailyActivity {
		res = s.engine.DailyActivityCompleted()
	} else {
		res = s.engine.HandleAction(action, meta)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, res)
}

type xpRequest struct {
	Amount float64         `json:"amount"`
	Source domain.XPSource `json:"source"`
}

func (s *Server) handleAddXP(w http.ResponseWriter, r *http.Request) {
	var req xpRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := engagement.XPAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	res, err := s.engine.AddXP(amount, req.Source)
	s.mu.Unlock()
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleXPHistory(w http.ResponseWriter, r *http.Request) {
	if s.ledger == nil {
		writeError(w, http.StatusServiceUnavailable, "xp history not enabled")
		return
	}
	entries, err := s.ledger.XPHistory(queryLimit(r, 50))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []domain.XPEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

func (s *Server) handleStreakCheck(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	res := s.engine.CheckDailyStreak()
	p := s.engine.Profile()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"state":          res.State,
		"old_streak":     res.OldStreak,
		"new_streak":     res.NewStreak,
		"days_missed":    res.DaysMissed,
		"bonus_xp":       res.BonusXP,
		"longest_streak": p.LongestStreak,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	blob, err := s.engine.Export()
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="coinquest-profile.json"`)
	w.WriteHeader(http.StatusOK)
	w.Write(blob)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	blob, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	err = s.engine.Import(blob)
	var p domain.Profile
	if err == nil {
		p = s.engine.Profile()
	}
	s.mu.Unlock()

	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"profile": p})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	p := s.engine.Reset()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{"profile": p})
}

// ─── Notifications ──────────────────────────────────────────────────────────

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	if s.notify == nil {
		writeError(w, http.StatusServiceUnavailable, "notifications not enabled")
		return
	}

	pending, err := s.notify.Pending(queryLimit(r, 10))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if pending == nil {
		pending = []domain.Notification{}
	}
	todayCount, _ := s.notify.TodayCount()
	policy := s.notify.Policy()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": pending,
		"today_count":   todayCount,
		"max_per_day":   policy.MaxPerDay,
	})
}

func (s *Server) handleNotificationShown(w http.ResponseWriter, r *http.Request) {
	if s.notify == nil {
		writeError(w, http.StatusServiceUnavailable, "notifications not enabled")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid notification id")
		return
	}
	if err := s.notify.MarkShown(id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "shown": true})
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// decodeBody decodes an optional JSON body into v. An empty body is not an
// error.
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func queryLimit(r *http.Request, fallback int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return fallback
	}
	if n > 500 {
		return 500
	}
	return n
}

// errorStatus maps domain errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrAchievementNotFound),
		errors.Is(err, domain.ErrMissionNotFound),
		errors.Is(err, domain.ErrRewardNotFound),
		errors.Is(err, domain.ErrUnknownAction):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidXPAmount),
		errors.Is(err, domain.ErrInvalidProfile):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotReady):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
