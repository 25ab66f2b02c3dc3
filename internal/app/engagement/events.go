package engagement

import (
	"log"
	"sync"

	"github.com/tutu-network/coinquest/internal/domain"
)

// EventName identifies an outbound progression event.
type EventName string

const (
	EventInitialized          EventName = "initialized"
	EventProfileUpdated       EventName = "profileUpdated"
	EventAchievementCompleted EventName = "achievementCompleted"
	EventMissionCompleted     EventName = "missionCompleted"
	EventMissionExpired       EventName = "missionExpired"
	EventXPAdded              EventName = "xpAdded"
	EventStreakUpdated        EventName = "streakUpdated"
	EventRewardUnlocked       EventName = "rewardUnlocked"
	EventProfileReset         EventName = "profileReset"
)

// XPResult is returned by AddXP and published as EventXPAdded.
type XPResult struct {
	Amount     int64           `json:"amount"`
	Source     domain.XPSource `json:"source"`
	XP         int64           `json:"xp"`
	Level      int             `json:"level"`
	OldLevel   int             `json:"old_level"`
	LeveledUp  bool            `json:"leveled_up"`
	NewRewards []domain.Reward `json:"new_rewards,omitempty"`
}

// StreakUpdate is published as EventStreakUpdated.
type StreakUpdate struct {
	OldStreak     int   `json:"old_streak"`
	NewStreak     int   `json:"new_streak"`
	IsConsecutive bool  `json:"is_consecutive"`
	DaysMissed    int   `json:"days_missed,omitempty"`
	BonusXP       int64 `json:"bonus_xp,omitempty"`
}

// Topic is a typed subscription point for one event name.
type Topic[T any] struct {
	name EventName
	hub  *Events

	mu   sync.RWMutex
	seq  int
	subs map[int]func(T)
}

func newTopic[T any](hub *Events, name EventName) *Topic[T] {
	return &Topic[T]{name: name, hub: hub, subs: make(map[int]func(T))}
}

// Name returns the event name.
func (t *Topic[T]) Name() EventName { return t.name }

// Subscribe registers fn and returns a function that removes it.
func (t *Topic[T]) Subscribe(fn func(T)) (cancel func()) {
	t.mu.Lock()
	t.seq++
	id := t.seq
	t.subs[id] = fn
	t.mu.Unlock()
	return func() {
		t.mu.Lock()
		delete(t.subs, id)
		t.mu.Unlock()
	}
}

func (t *Topic[T]) publish(v T) {
	t.mu.RLock()
	fns := make([]func(T), 0, len(t.subs))
	for _, fn := range t.subs {
		fns = append(fns, fn)
	}
	t.mu.RUnlock()

	for _, fn := range fns {
		safeCall(t.name, func() { fn(v) })
	}
	t.hub.publishAny(t.name, v)
}

// Events is the outbound event hub. Subscribers run synchronously on the
// caller's goroutine after the engine has released its lock, so they may
// call back into the engine.
type Events struct {
	Initialized          *Topic[domain.Profile]
	ProfileUpdated       *Topic[domain.Profile]
	AchievementCompleted *Topic[domain.Achievement]
	MissionCompleted     *Topic[domain.Mission]
	MissionExpired       *Topic[domain.Mission]
	XPAdded              *Topic[XPResult]
	StreakUpdated        *Topic[StreakUpdate]
	RewardUnlocked       *Topic[domain.Reward]
	ProfileReset         *Topic[domain.Profile]

	mu  sync.RWMutex
	seq int
	all map[int]func(EventName, any)
}

// NewEvents creates an empty hub.
func NewEvents() *Events {
	e := &Events{all: make(map[int]func(EventName, any))}
	e.Initialized = newTopic[domain.Profile](e, EventInitialized)
	e.ProfileUpdated = newTopic[domain.Profile](e, EventProfileUpdated)
	e.AchievementCompleted = newTopic[domain.Achievement](e, EventAchievementCompleted)
	e.MissionCompleted = newTopic[domain.Mission](e, EventMissionCompleted)
	e.MissionExpired = newTopic[domain.Mission](e, EventMissionExpired)
	e.XPAdded = newTopic[XPResult](e, EventXPAdded)
	e.StreakUpdated = newTopic[StreakUpdate](e, EventStreakUpdated)
	e.RewardUnlocked = newTopic[domain.Reward](e, EventRewardUnlocked)
	e.ProfileReset = newTopic[domain.Profile](e, EventProfileReset)
	return e
}

// SubscribeAll registers fn for every event, keyed by name. Used by the
// live feed, metrics and notifications.
func (e *Events) SubscribeAll(fn func(name EventName, payload any)) (cancel func()) {
	e.mu.Lock()
	e.seq++
	id := e.seq
	e.all[id] = fn
	e.mu.Unlock()
	return func() {
		e.mu.Lock()
		delete(e.all, id)
		e.mu.Unlock()
	}
}

func (e *Events) publishAny(name EventName, payload any) {
	e.mu.RLock()
	fns := make([]func(EventName, any), 0, len(e.all))
	for _, fn := range e.all {
		fns = append(fns, fn)
	}
	e.mu.RUnlock()

	for _, fn := range fns {
		safeCall(name, func() { fn(name, payload) })
	}
}

// safeCall isolates a panicking subscriber from the others.
func safeCall(name EventName, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[events] subscriber for %s panicked: %v", name, r)
		}
	}()
	fn()
}
