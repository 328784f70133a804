package session

import (
	"context"
	"sort"
	"sync"
	"time"

	flameerrors "github.com/matzehuels/flametower/pkg/errors"
	"github.com/matzehuels/flametower/pkg/flame"
)

// DefaultMaxSessions caps the number of live engines in one registry.
const DefaultMaxSessions = 64

// Registry is an in-memory set of sessions keyed by ID.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	max      int
}

// NewRegistry creates an empty registry. A zero ttl selects DefaultTTL.
func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Registry{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		max:      DefaultMaxSessions,
	}
}

// SetMaxSessions changes the session cap. Values below 1 are ignored.
func (r *Registry) SetMaxSessions(n int) {
	if n < 1 {
		return
	}
	r.mu.Lock()
	r.max = n
	r.mu.Unlock()
}

// Create registers a new session for engine.
func (r *Registry) Create(engine *flame.Engine) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.sessions) >= r.max {
		r.sweepLocked(time.Now())
		if len(r.sessions) >= r.max {
			return nil, flameerrors.New(flameerrors.ErrCodeTooManySessions,
				"too many sessions (max %d)", r.max)
		}
	}
	sess := New(engine, r.ttl)
	r.sessions[sess.ID] = sess
	return sess, nil
}

// Get returns a live session. Expired sessions are removed and reported as
// not found.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	sess, ok := r.sessions[id]
	r.mu.RUnlock()

	if ok && sess.IsExpired() {
		r.mu.Lock()
		delete(r.sessions, id)
		r.mu.Unlock()
		ok = false
	}
	if !ok {
		return nil, flameerrors.New(flameerrors.ErrCodeSessionNotFound, "session %q not found", id)
	}
	return sess, nil
}

// Delete removes a session. It fails with SESSION_NOT_FOUND when the ID is
// unknown.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return flameerrors.New(flameerrors.ErrCodeSessionNotFound, "session %q not found", id)
	}
	delete(r.sessions, id)
	return nil
}

// IDs returns the IDs of all registered sessions, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Cleanup removes expired sessions and returns how many were removed.
func (r *Registry) Cleanup() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sweepLocked(time.Now())
}

func (r *Registry) sweepLocked(now time.Time) int {
	removed := 0
	for id, sess := range r.sessions {
		if now.After(sess.ExpiresAt()) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Janitor calls Cleanup every interval until ctx is done. The callback, if
// non-nil, receives the number of sessions removed by each non-empty sweep.
func (r *Registry) Janitor(ctx context.Context, interval time.Duration, onSweep func(removed int)) {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Cleanup(); n > 0 && onSweep != nil {
				onSweep(n)
			}
		}
	}
}
