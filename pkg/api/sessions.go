package api

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/ethpandaops/smbench/pkg/compare"
)

const sessionIDBytes = 16

// generateSessionID creates a random compare session id.
func generateSessionID() (string, error) {
	b := make([]byte, sessionIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating random bytes: %w", err)
	}

	return hex.EncodeToString(b), nil
}

// compareSession guards one compare.Session, which is single-owner, against
// concurrent requests for the same page view. view is the latest render
// model, kept current by the session's subscriber and layout observer.
type compareSession struct {
	mu       sync.Mutex
	session  *compare.Session
	view     compare.View
	lastUsed time.Time
}

// newCompareSession attaches to session before it is shared, so every
// later mutation lands in view under mu.
func newCompareSession(session *compare.Session, now time.Time) *compareSession {
	cs := &compareSession{
		session:  session,
		view:     session.View(),
		lastUsed: now,
	}

	session.Subscribe(func(v compare.View) {
		cs.view = v
	})

	session.ObserveLayout(func(l compare.Layout) {
		cs.view.Layout = l
	})

	return cs
}

// sessionRegistry holds the live compare sessions of the server.
type sessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*compareSession
	ttl      time.Duration
	max      int
	now      func() time.Time
}

func newSessionRegistry(ttl time.Duration, maxSessions int) *sessionRegistry {
	return &sessionRegistry{
		sessions: make(map[string]*compareSession, 64),
		ttl:      ttl,
		max:      maxSessions,
		now:      time.Now,
	}
}

// Add registers session and returns its id and initial view. When the
// registry is full the least recently used session is closed to make room.
func (r *sessionRegistry) Add(session *compare.Session) (string, compare.View, error) {
	id, err := generateSessionID()
	if err != nil {
		return "", compare.View{}, err
	}

	cs := newCompareSession(session, r.now())

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.max > 0 && len(r.sessions) >= r.max {
		r.sweepLocked()
	}

	if r.max > 0 && len(r.sessions) >= r.max {
		r.evictOldestLocked()
	}

	r.sessions[id] = cs

	return id, cs.view, nil
}

// With runs fn on the session under its lock. It reports false when the
// session does not exist or has expired.
func (r *sessionRegistry) With(id string, fn func(*compare.Session)) bool {
	_, ok := r.Update(id, fn)

	return ok
}

// Update runs fn on the session under its lock and returns the view as
// it stands afterwards.
func (r *sessionRegistry) Update(id string, fn func(*compare.Session)) (compare.View, bool) {
	r.mu.Lock()

	cs, ok := r.sessions[id]
	if ok && r.expired(cs) {
		delete(r.sessions, id)
		closeSession(cs)

		ok = false
	}

	if ok {
		cs.lastUsed = r.now()
	}

	r.mu.Unlock()

	if !ok {
		return compare.View{}, false
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()

	// Lost a race with Delete or Sweep.
	if cs.session.Closed() {
		return compare.View{}, false
	}

	fn(cs.session)

	return cs.view, true
}

// Delete closes and removes a session.
func (r *sessionRegistry) Delete(id string) bool {
	r.mu.Lock()

	cs, ok := r.sessions[id]
	delete(r.sessions, id)

	r.mu.Unlock()

	if ok {
		closeSession(cs)
	}

	return ok
}

// Sweep closes every expired session and returns how many were removed.
func (r *sessionRegistry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.sweepLocked()
}

// CloseAll closes every session.
func (r *sessionRegistry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, cs := range r.sessions {
		delete(r.sessions, id)
		closeSession(cs)
	}
}

// Len returns the number of live sessions.
func (r *sessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sessions)
}

func (r *sessionRegistry) expired(cs *compareSession) bool {
	return r.ttl > 0 && r.now().Sub(cs.lastUsed) > r.ttl
}

func (r *sessionRegistry) sweepLocked() int {
	removed := 0

	for id, cs := range r.sessions {
		if !r.expired(cs) {
			continue
		}

		delete(r.sessions, id)
		closeSession(cs)

		removed++
	}

	return removed
}

func (r *sessionRegistry) evictOldestLocked() {
	var (
		oldestID string
		oldest   *compareSession
	)

	for id, cs := range r.sessions {
		if oldest == nil || cs.lastUsed.Before(oldest.lastUsed) {
			oldestID, oldest = id, cs
		}
	}

	if oldest != nil {
		delete(r.sessions, oldestID)
		closeSession(oldest)
	}
}

func closeSession(cs *compareSession) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.session.Close()
}
