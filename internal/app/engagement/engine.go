package engagement

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/tutu-network/coinquest/internal/domain"
)

// Options configures an Engine. Zero values fall back to defaults.
type Options struct {
	Store           domain.ProfileStore // nil keeps the profile in memory only
	Clock           domain.Clock
	Catalog         *Catalog
	Thresholds      []int64
	Streak          StreakPolicy
	RefreshMissions bool // re-issue recurring missions on init and day rollover
}

// Engine owns the single live Profile. Every mutation runs under one lock;
// events raised during a mutation are queued and published after the lock
// is released, and the resulting snapshot is handed to the background
// persister. Callers are expected to drive the engine from one logical
// thread of control.
type Engine struct {
	mu         sync.Mutex
	profile    domain.Profile
	loaded     bool
	dirty      bool
	preload    int // mutations applied to defaults before the load finished
	pending    []func()
	catalog    Catalog
	thresholds []int64
	streak     StreakPolicy
	refresh    bool
	clock      domain.Clock
	store      domain.ProfileStore

	events  *Events
	persist *persister

	startOnce sync.Once
	ready     chan struct{}
}

// ActionResult lists the entries an action moved.
type ActionResult struct {
	Achievements []domain.Achievement `json:"achievements"`
	Missions     []domain.Mission     `json:"missions"`
	Streak       *StreakResult        `json:"streak,omitempty"`
}

// New creates an engine holding a default profile. Call Start to load the
// stored profile.
func New(opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = domain.SystemClock{}
	}
	catalog := DefaultCatalog()
	if opts.Catalog != nil {
		catalog = *opts.Catalog
	}
	thresholds := opts.Thresholds
	if !ValidThresholds(thresholds) {
		if thresholds != nil {
			log.Printf("[engine] invalid level thresholds %v, using defaults", thresholds)
		}
		thresholds = DefaultThresholds
	}
	streak := opts.Streak
	if streak.BonusEvery <= 0 {
		streak = DefaultStreakPolicy()
	}

	e := &Engine{
		catalog:    catalog,
		thresholds: thresholds,
		streak:     streak,
		refresh:    opts.RefreshMissions,
		clock:      opts.Clock,
		store:      opts.Store,
		events:     NewEvents(),
		persist:    newPersister(opts.Store),
		ready:      make(chan struct{}),
	}
	e.profile = catalog.NewProfile(e.clock.Now())
	return e
}

// Events returns the outbound event hub.
func (e *Engine) Events() *Events { return e.events }

// Thresholds returns the level table in use.
func (e *Engine) Thresholds() []int64 { return e.thresholds }

// Catalog returns the catalog the engine was built with.
func (e *Engine) Catalog() Catalog { return e.catalog }

// ─── Lifecycle ──────────────────────────────────────────────────────────────

// Start loads the stored profile in the background. Until it finishes,
// Profile returns the default profile. Calling Start again is a no-op.
func (e *Engine) Start(ctx context.Context) {
	e.startOnce.Do(func() {
		go e.load(ctx)
	})
}

func (e *Engine) load(ctx context.Context) {
	defer close(e.ready)

	stored := e.loadStored(ctx)

	e.run(func(now time.Time) {
		if stored != nil {
			if e.preload > 0 {
				log.Printf("[engine] discarding %d mutation(s) made before the stored profile loaded", e.preload)
			}
			e.profile = *stored
		}
		e.loaded = true
		e.initializeLocked(now)
		e.dirty = true
		snap := e.profile.Clone()
		e.queue(func() { e.events.Initialized.publish(snap) })
	})
}

func (e *Engine) loadStored(ctx context.Context) *domain.Profile {
	if e.store == nil {
		return nil
	}
	blob, err := e.store.Load(ctx)
	if err != nil {
		log.Printf("[engine] load failed, using defaults: %v", err)
		return nil
	}
	if blob == nil {
		log.Printf("[engine] no stored profile, starting fresh")
		return nil
	}
	p, err := DecodeProfile(blob, e.catalog, e.thresholds)
	if err != nil {
		log.Printf("[engine] stored profile rejected, using defaults: %v", err)
		return nil
	}
	return &p
}

// initializeLocked runs the start-of-session housekeeping.
func (e *Engine) initializeLocked(now time.Time) {
	e.sweepLocked(now)
	if e.refresh {
		e.refreshLocked(now)
	}
	e.checkStreakLocked(now)
}

// Ready reports whether the stored profile has been loaded.
func (e *Engine) Ready() bool {
	select {
	case <-e.ready:
		return true
	default:
		return false
	}
}

// WaitReady blocks until the load finishes and returns the profile.
func (e *Engine) WaitReady(ctx context.Context) (domain.Profile, error) {
	select {
	case <-e.ready:
		return e.Profile(), nil
	case <-ctx.Done():
		return domain.Profile{}, fmt.Errorf("%w: %v", domain.ErrNotReady, ctx.Err())
	}
}

// Flush waits until the newest snapshot has been handed to the store.
func (e *Engine) Flush() { e.persist.flush() }

// Close flushes pending writes and stops the persister.
func (e *Engine) Close() { e.persist.close() }

// LastSaveError returns the outcome of the most recent store write.
func (e *Engine) LastSaveError() error { return e.persist.lastError() }

// ─── Queries ────────────────────────────────────────────────────────────────

// Profile returns a deep copy of the current profile. Before Ready it is
// the default profile.
func (e *Engine) Profile() domain.Profile {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.profile.Clone()
}

// Snapshot is Profile under the name debug tooling expects.
func (e *Engine) Snapshot() domain.Profile { return e.Profile() }

// LevelInfo describes the current level.
func (e *Engine) LevelInfo() LevelInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return DescribeLevel(e.profile.XP, e.thresholds)
}

// AvailableRewards lists locked rewards the current level allows.
func (e *Engine) AvailableRewards() []domain.Reward {
	e.mu.Lock()
	defer e.mu.Unlock()
	return AvailableRewards(&e.profile)
}

// Export serializes the current profile.
func (e *Engine) Export() ([]byte, error) {
	snap := e.Profile()
	return json.MarshalIndent(snap, "", "  ")
}

// ─── Mutations ──────────────────────────────────────────────────────────────

// AddXP adds amount XP. Level-ups unlock every newly available reward.
func (e *Engine) AddXP(amount int64, source domain.XPSource) (XPResult, error) {
	if amount < 0 {
		return XPResult{}, domain.ErrInvalidXPAmount
	}
	if source == "" {
		source = domain.XPManual
	}
	var (
		res XPResult
		err error
	)
	e.run(func(now time.Time) {
		if amount > math.MaxInt64-e.profile.XP {
			err = fmt.Errorf("%w: %d would overflow a balance of %d", domain.ErrInvalidXPAmount, amount, e.profile.XP)
			return
		}
		res = e.addXPLocked(amount, source, now)
	})
	return res, err
}

// UpdateAchievementProgress sets absolute progress on an achievement.
// Progress never decreases; reaching the target completes it.
func (e *Engine) UpdateAchievementProgress(id string, progress int) (domain.Achievement, error) {
	var (
		out domain.Achievement
		err error
	)
	e.run(func(now time.Time) {
		a := e.profile.FindAchievement(id)
		if a == nil {
			err = domain.ErrAchievementNotFound
			return
		}
		moved, reached := advanceTo(a, progress)
		if moved {
			e.dirty = true
		}
		if reached {
			e.completeAchievementLocked(a, now)
		}
		out = *a
	})
	return out, err
}

// UpdateMissionProgress sets absolute progress on an active mission.
// Missions past their deadline are swept first and report
// ErrMissionNotFound; the deadline instant itself still counts.
func (e *Engine) UpdateMissionProgress(id string, progress int) (domain.Mission, error) {
	var (
		out domain.Mission
		err error
	)
	e.run(func(now time.Time) {
		e.sweepLocked(now)
		m := e.profile.FindActiveMission(id)
		if m == nil {
			err = domain.ErrMissionNotFound
			return
		}
		moved, reached := advanceTo(m, progress)
		if moved {
			e.dirty = true
		}
		out = *m
		if reached {
			out = e.completeMissionLocked(id, now)
		}
	})
	return out, err
}

// StartMission stamps StartedAt on an active mission.
func (e *Engine) StartMission(id string) (domain.Mission, error) {
	var (
		out domain.Mission
		err error
	)
	e.run(func(now time.Time) {
		var m *domain.Mission
		m, err = StartMission(&e.profile, id, now)
		if err != nil {
			return
		}
		e.dirty = true
		out = *m
	})
	return out, err
}

// CheckDailyStreak records today's activity and returns what changed.
func (e *Engine) CheckDailyStreak() StreakResult {
	var res StreakResult
	e.run(func(now time.Time) {
		res = e.checkStreakLocked(now)
	})
	return res
}

// UnlockReward unlocks a reward by ID. Returns nil for unknown or
// already-unlocked rewards.
func (e *Engine) UnlockReward(id string) *domain.Reward {
	var out *domain.Reward
	e.run(func(now time.Time) {
		out = e.unlockRewardLocked(id, now)
	})
	return out
}

// CheckAchievementsForAction applies action to the achievement catalog.
func (e *Engine) CheckAchievementsForAction(action string, meta domain.Metadata) []domain.Achievement {
	var out []domain.Achievement
	e.run(func(now time.Time) {
		out = e.checkAchievementsLocked(action, meta, now)
	})
	return out
}

// CheckMissionsForAction sweeps expired missions and applies action to the
// remaining active ones.
func (e *Engine) CheckMissionsForAction(action string, meta domain.Metadata) []domain.Mission {
	var out []domain.Mission
	e.run(func(now time.Time) {
		out = e.checkMissionsLocked(action, meta, now)
	})
	return out
}

// HandleAction applies action to achievements, then missions, in one
// mutation.
func (e *Engine) HandleAction(action string, meta domain.Metadata) ActionResult {
	var res ActionResult
	e.run(func(now time.Time) {
		res.Achievements = e.checkAchievementsLocked(action, meta, now)
		res.Missions = e.checkMissionsLocked(action, meta, now)
	})
	return res
}

// SweepExpiredMissions drops expired missions now.
func (e *Engine) SweepExpiredMissions() []domain.Mission {
	var out []domain.Mission
	e.run(func(now time.Time) {
		out = e.sweepLocked(now)
	})
	return out
}

// RefreshMissions issues recurring missions due for the current period.
func (e *Engine) RefreshMissions() []domain.Mission {
	var out []domain.Mission
	e.run(func(now time.Time) {
		e.sweepLocked(now)
		out = e.refreshLocked(now)
	})
	return out
}

// Import validates blob and replaces the whole profile with it.
func (e *Engine) Import(blob []byte) error {
	p, err := DecodeProfile(blob, e.catalog, e.thresholds)
	if err != nil {
		return err
	}
	e.run(func(now time.Time) {
		// The stored profile replaces anything written before the load.
		if !e.loaded {
			err = domain.ErrNotReady
			return
		}
		e.profile = p
		e.dirty = true
	})
	return err
}

// Reset replaces the profile with a fresh default one.
func (e *Engine) Reset() domain.Profile {
	var snap domain.Profile
	e.run(func(now time.Time) {
		e.profile = e.catalog.NewProfile(now)
		e.dirty = true
		snap = e.profile.Clone()
		e.queue(func() { e.events.ProfileReset.publish(snap) })
	})
	return snap
}

// ─── Internals (e.mu held) ──────────────────────────────────────────────────

// run executes fn under the lock, persists if it changed anything, and
// publishes the queued events after unlocking.
func (e *Engine) run(fn func(now time.Time)) {
	e.mu.Lock()
	now := e.clock.Now()
	fn(now)
	queued := e.commitLocked(now)
	e.mu.Unlock()

	for _, publish := range queued {
		publish()
	}
}

func (e *Engine) commitLocked(now time.Time) []func() {
	queued := e.pending
	e.pending = nil
	if !e.dirty {
		return queued
	}
	e.dirty = false
	e.profile.UpdatedAt = now
	e.profile.CompletedAchievements = e.profile.CountCompleted()

	// Writing before the load finishes could clobber the stored profile.
	if e.loaded {
		blob, err := EncodeProfile(e.profile)
		if err != nil {
			log.Printf("[engine] encode profile: %v", err)
		} else {
			e.persist.enqueue(blob)
		}
	} else {
		e.preload++
	}

	snap := e.profile.Clone()
	return append(queued, func() { e.events.ProfileUpdated.publish(snap) })
}

func (e *Engine) queue(fn func()) {
	e.pending = append(e.pending, fn)
}

func (e *Engine) addXPLocked(amount int64, source domain.XPSource, now time.Time) XPResult {
	oldLevel := e.profile.Level
	if amount > math.MaxInt64-e.profile.XP {
		amount = math.MaxInt64 - e.profile.XP
	}
	e.profile.XP += amount
	e.profile.Level = LevelFromXP(e.profile.XP, e.thresholds)
	e.dirty = true

	res := XPResult{
		Amount:    amount,
		Source:    source,
		XP:        e.profile.XP,
		Level:     e.profile.Level,
		OldLevel:  oldLevel,
		LeveledUp: e.profile.Level > oldLevel,
	}
	if res.LeveledUp {
		for _, r := range AvailableRewards(&e.profile) {
			unlocked := e.unlockRewardLocked(r.ID, now)
			if unlocked == nil {
				log.Printf("[engine] reward %s could not be unlocked at level %d", r.ID, res.Level)
				continue
			}
			res.NewRewards = append(res.NewRewards, *unlocked)
		}
	}
	e.queue(func() { e.events.XPAdded.publish(res) })
	return res
}

func (e *Engine) unlockRewardLocked(id string, now time.Time) *domain.Reward {
	r := UnlockReward(&e.profile, id, now)
	if r == nil {
		return nil
	}
	e.dirty = true
	unlocked := *r
	e.queue(func() { e.events.RewardUnlocked.publish(unlocked) })
	return r
}

func (e *Engine) completeAchievementLocked(a *domain.Achievement, now time.Time) {
	if !completeAchievement(&e.profile, a, now) {
		return
	}
	e.dirty = true
	done := *a
	e.queue(func() { e.events.AchievementCompleted.publish(done) })
	if a.XPReward > 0 {
		e.addXPLocked(a.XPReward, domain.XPAchievement, now)
	}
}

func (e *Engine) completeMissionLocked(id string, now time.Time) domain.Mission {
	m, ok := CompleteMission(&e.profile, id, now)
	if !ok {
		return domain.Mission{}
	}
	e.dirty = true
	e.queue(func() { e.events.MissionCompleted.publish(m) })
	if m.XPReward > 0 {
		e.addXPLocked(m.XPReward, domain.XPMission, now)
	}
	return m
}

func (e *Engine) checkAchievementsLocked(action string, meta domain.Metadata, now time.Time) []domain.Achievement {
	updated, reached := CheckAchievements(&e.profile, action, meta)
	if len(updated) == 0 {
		return nil
	}
	e.dirty = true
	for _, a := range reached {
		e.completeAchievementLocked(a, now)
	}
	out := make([]domain.Achievement, len(updated))
	for i, a := range updated {
		out[i] = *a
	}
	return out
}

func (e *Engine) checkMissionsLocked(action string, meta domain.Metadata, now time.Time) []domain.Mission {
	e.sweepLocked(now)

	updated, reached := CheckMissions(&e.profile, action, meta)
	if len(updated) == 0 {
		return nil
	}
	e.dirty = true

	// Completing shifts Missions.Active, so work from IDs from here on.
	updatedIDs := make([]string, len(updated))
	for i, m := range updated {
		updatedIDs[i] = m.ID
	}
	reachedIDs := make([]string, len(reached))
	for i, m := range reached {
		reachedIDs[i] = m.ID
	}
	completed := make(map[string]domain.Mission, len(reachedIDs))
	for _, id := range reachedIDs {
		completed[id] = e.completeMissionLocked(id, now)
	}

	out := make([]domain.Mission, 0, len(updatedIDs))
	for _, id := range updatedIDs {
		if m, ok := completed[id]; ok {
			out = append(out, m)
			continue
		}
		if m := e.profile.FindActiveMission(id); m != nil {
			out = append(out, *m)
		}
	}
	return out
}

func (e *Engine) sweepLocked(now time.Time) []domain.Mission {
	expired := SweepExpired(&e.profile, now)
	if len(expired) == 0 {
		return nil
	}
	e.dirty = true
	for _, m := range expired {
		m := m
		log.Printf("[engine] mission %s expired at %s with %d/%d", m.ID, m.ExpiresAt.Format(time.RFC3339), m.Progress, m.MaxProgress)
		e.queue(func() { e.events.MissionExpired.publish(m) })
	}
	return expired
}

func (e *Engine) refreshLocked(now time.Time) []domain.Mission {
	if pruned := PruneCompleted(&e.profile, now); len(pruned) > 0 {
		e.dirty = true
	}
	issued := RefreshMissions(&e.profile, e.catalog.Missions, now)
	if len(issued) > 0 {
		e.dirty = true
	}
	return issued
}

func (e *Engine) checkStreakLocked(now time.Time) StreakResult {
	res := CheckDailyStreak(&e.profile, now, e.streak)
	if res.State == StreakSameDay {
		return res
	}
	e.dirty = true
	if res.BonusXP > 0 {
		e.addXPLocked(res.BonusXP, domain.XPStreakBonus, now)
	}

	switch res.State {
	case StreakConsecutive:
		update := StreakUpdate{
			OldStreak:     res.OldStreak,
			NewStreak:     res.NewStreak,
			IsConsecutive: true,
			BonusXP:       res.BonusXP,
		}
		e.queue(func() { e.events.StreakUpdated.publish(update) })
		meta := domain.Metadata{"oldStreak": res.OldStreak, "newStreak": res.NewStreak}
		e.checkAchievementsLocked(ActionStreakUpdated, meta, now)
		e.checkMissionsLocked(ActionStreakUpdated, meta, now)
	case StreakReset:
		update := StreakUpdate{
			OldStreak:     res.OldStreak,
			NewStreak:     res.NewStreak,
			IsConsecutive: false,
			DaysMissed:    res.DaysMissed,
		}
		e.queue(func() { e.events.StreakUpdated.publish(update) })
		meta := domain.Metadata{"wasReset": true}
		e.checkAchievementsLocked(ActionStreakUpdated, meta, now)
		e.checkMissionsLocked(ActionStreakUpdated, meta, now)
	}
	return res
}
