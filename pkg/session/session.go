// Package session keeps the state a visitor carries from one screen to the
// next. Nothing outlives the session's idle timeout.
package session

import (
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("session: not found")

var ErrMissingState = errors.New("missing handoff state")

// MissingStateError is returned when a screen is opened without the data the
// previous screen should have handed over.
type MissingStateError struct {
	Screen  string
	Missing string
}

func (e *MissingStateError) Error() string {
	return fmt.Sprintf("%s screen opened without %s", e.Screen, e.Missing)
}

func (e *MissingStateError) Is(target error) bool {
	return target == ErrMissingState
}

type Session struct {
	ID          string        `json:"id"`
	CreatedAt   time.Time     `json:"createdAt"`
	LastSeen    time.Time     `json:"lastSeen"`
	IdleTimeout time.Duration `json:"idleTimeout"`
}

func (s *Session) ExpiresAt() time.Time {
	return s.LastSeen.Add(s.IdleTimeout)
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt())
}

// Remaining is the idle time left before the session is discarded, never negative.
func (s *Session) Remaining(now time.Time) time.Duration {
	d := s.ExpiresAt().Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
