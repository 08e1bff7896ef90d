package handlers

import (
	"sync"
	"time"

	"wagonquiz/internal/service"
)

// roundSlot holds the play of one session. Its mutex serialises requests
// from the same session.
type roundSlot struct {
	mu        sync.Mutex
	play      *service.Play
	expiresAt time.Time
}

// RoundRegistry keeps the in-progress play of each session, keyed by the
// session token's jti
type RoundRegistry struct {
	mu    sync.Mutex
	slots map[string]*roundSlot
	now   func() time.Time
}

// NewRoundRegistry creates an empty registry
func NewRoundRegistry() *RoundRegistry {
	return &RoundRegistry{
		slots: make(map[string]*roundSlot),
		now:   time.Now,
	}
}

// Put stores play for id, replacing any previous one. Expired slots are
// dropped on the way.
func (rr *RoundRegistry) Put(id string, play *service.Play, expiresAt time.Time) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	now := rr.now()
	for key, slot := range rr.slots {
		if now.After(slot.expiresAt) {
			delete(rr.slots, key)
		}
	}
	rr.slots[id] = &roundSlot{play: play, expiresAt: expiresAt}
}

// With runs fn on the play for id while holding that slot's lock. It
// reports false when there is no play for id.
func (rr *RoundRegistry) With(id string, fn func(*service.Play)) bool {
	rr.mu.Lock()
	slot, ok := rr.slots[id]
	rr.mu.Unlock()
	if !ok {
		return false
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()
	fn(slot.play)
	return true
}

// Delete forgets the play for id
func (rr *RoundRegistry) Delete(id string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	delete(rr.slots, id)
}

// Len returns the number of stored plays
func (rr *RoundRegistry) Len() int {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	return len(rr.slots)
}
