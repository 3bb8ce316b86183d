package state

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/scholarbot/core/logger"
)

// MemoryStore keeps sessions in process memory. Sessions are stored encoded,
// so a caller mutating a loaded session never changes the stored copy.
type MemoryStore[D any] struct {
	mu       sync.RWMutex
	sessions map[Key]memEntry
	now      func() time.Time
	idleTTL  time.Duration
}

type memEntry struct {
	expiresAt time.Time
	raw       []byte
}

func (e memEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// NewMemoryStore constructs an in-memory Store. A nil clock defaults to
// time.Now. Sessions saved without a deadline expire idleTTL after their last
// save; a non-positive idleTTL keeps them until deleted.
func NewMemoryStore[D any](now func() time.Time, idleTTL time.Duration) *MemoryStore[D] {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore[D]{
		sessions: make(map[Key]memEntry),
		now:      now,
		idleTTL:  idleTTL,
	}
}

// Load returns the session for key unless it is missing or expired.
func (m *MemoryStore[D]) Load(_ context.Context, key Key) (Session[D], bool, error) {
	m.mu.RLock()
	e, ok := m.sessions[key]
	m.mu.RUnlock()
	if !ok {
		return Session[D]{}, false, nil
	}
	if e.expired(m.now()) {
		m.mu.Lock()
		if cur, still := m.sessions[key]; still && cur.expired(m.now()) {
			delete(m.sessions, key)
		}
		m.mu.Unlock()
		return Session[D]{}, false, nil
	}
	var s Session[D]
	if err := json.Unmarshal(e.raw, &s); err != nil {
		return Session[D]{}, false, fmt.Errorf("decode session: %w", err)
	}
	return s, true, nil
}

// Save replaces the stored session for s.Key.
func (m *MemoryStore[D]) Save(_ context.Context, s Session[D]) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	expiresAt := s.ExpiresAt
	if expiresAt.IsZero() && m.idleTTL > 0 {
		expiresAt = m.now().Add(m.idleTTL)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.Key] = memEntry{expiresAt: expiresAt, raw: raw}
	return nil
}

// Delete removes the session for key.
func (m *MemoryStore[D]) Delete(_ context.Context, key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
	return nil
}

// Len reports the number of stored sessions, expired ones included.
func (m *MemoryStore[D]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops every expired session and returns how many were removed.
func (m *MemoryStore[D]) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for k, e := range m.sessions {
		if e.expired(now) {
			delete(m.sessions, k)
			removed++
		}
	}
	return removed
}

// RunJanitor sweeps expired sessions every interval until ctx is done.
func (m *MemoryStore[D]) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				logger.Debug(ctx, logger.CompSessions, "sessions.sweep",
					slog.Int("count", n),
				)
			}
		}
	}
}
