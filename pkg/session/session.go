// Package session keeps live flame engines for the HTTP server.
//
// Each [Session] owns one [flame.Engine]. The engine is single-threaded, so
// every access goes through [Session.Do], which holds the session's mutex
// and refreshes its idle deadline.
//
// # Usage
//
//	reg := session.NewRegistry(session.DefaultTTL)
//	sess, err := reg.Create(engine)
//	if err != nil {
//	    return err
//	}
//
//	sess, err = reg.Get(id)
//	err = sess.Do(func(e *flame.Engine) error {
//	    e.Step()
//	    return nil
//	})
//
// Idle sessions expire after their TTL. [Registry.Cleanup] removes them;
// [Registry.Janitor] runs it periodically.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/flametower/pkg/flame"
)

// Default durations.
const (
	// DefaultTTL is how long a session may stay idle.
	DefaultTTL = 15 * time.Minute

	// DefaultCleanupInterval is how often the janitor sweeps expired sessions.
	DefaultCleanupInterval = time.Minute
)

// Session pairs an engine with its identity and idle deadline.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu        sync.Mutex
	engine    *flame.Engine
	ttl       time.Duration
	expiresAt time.Time
}

// New creates a session for engine with a fresh random ID.
func New(engine *flame.Engine, ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		engine:    engine,
		ttl:       ttl,
		expiresAt: now.Add(ttl),
	}
}

// Do runs fn with exclusive access to the engine and extends the idle
// deadline.
func (s *Session) Do(fn func(e *flame.Engine) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expiresAt = time.Now().Add(s.ttl)
	return fn(s.engine)
}

// ExpiresAt returns the current idle deadline.
func (s *Session) ExpiresAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiresAt
}

// IsExpired returns true if the session has been idle past its TTL.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt())
}
