package state

import (
	"context"
	"strconv"
	"time"
)

// State identifies a finite-state-machine step used in conversations.
type State string

// Key addresses one conversation: the same user talking in two chats has two sessions.
type Key struct {
	ChatID int64 `json:"chat_id"`
	UserID int64 `json:"user_id"`
}

func (k Key) String() string {
	return strconv.FormatInt(k.ChatID, 10) + ":" + strconv.FormatInt(k.UserID, 10)
}

// Session stores conversation state and its typed payload.
type Session[D any] struct {
	Key       Key       `json:"key"`
	Feature   string    `json:"feature"`
	State     State     `json:"state"`
	Data      D         `json:"data"`
	UpdatedAt time.Time `json:"updated_at"`
	// ExpiresAt is zero for sessions without an inactivity timeout.
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the session outlived its inactivity deadline at now.
func (s Session[D]) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Touch records activity at now and pushes the deadline forward by timeout.
func (s *Session[D]) Touch(now time.Time, timeout time.Duration) {
	s.UpdatedAt = now
	if timeout > 0 {
		s.ExpiresAt = now.Add(timeout)
	} else {
		s.ExpiresAt = time.Time{}
	}
}

// Store persists sessions. Implementations must be safe for concurrent use.
type Store[D any] interface {
	// Load returns the live session for key. Missing and expired sessions report ok=false.
	Load(ctx context.Context, key Key) (s Session[D], ok bool, err error)
	Save(ctx context.Context, s Session[D]) error
	Delete(ctx context.Context, key Key) error
}
