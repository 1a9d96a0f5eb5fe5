// Package sessions keeps the in-memory table of authenticated sessions.
//
// A session is valid while the time since its last validated use does not
// exceed the registry timeout. Every successful Validate moves that point
// forward, so a session in continuous use never expires. Expired entries are
// dropped lazily by Validate and eagerly by SweepExpired; the registry has
// no timer of its own.
package sessions

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/campusauth/internal/common"
	"github.com/dmitrijs2005/campusauth/internal/server/models"
	"github.com/google/uuid"
)

const (
	// DefaultTimeout is the idle window after which a session is unusable.
	DefaultTimeout = 30 * time.Minute

	// TokenBytes is the amount of randomness behind each token.
	TokenBytes = 32
)

// Session is a copy of a registry entry. Token is a bearer credential and
// must not be logged; use ID to refer to a session in logs and listings.
type Session struct {
	ID           string
	Token        string
	User         models.User
	IPAddress    string
	UserAgent    string
	CreatedAt    time.Time
	LastActivity time.Time
}

// Registry maps tokens to sessions. It is safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	timeout  time.Duration
	now      func() time.Time
	newToken func() (string, error)
}

// Option configures a Registry.
type Option func(*Registry)

// WithTimeout overrides DefaultTimeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		sessions: make(map[string]*Session),
		timeout:  DefaultTimeout,
		now:      time.Now,
		newToken: func() (string, error) { return common.MakeRandBase64String(TokenBytes) },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Timeout returns the idle window applied by the registry.
func (r *Registry) Timeout() time.Duration { return r.timeout }

// Issue mints a session for user. The stored user is a snapshot without the
// password hash. Token collisions are not checked; 256 random bits make them
// negligible.
func (r *Registry) Issue(user models.User, ip, userAgent string) (Session, error) {
	token, err := r.newToken()
	if err != nil {
		return Session{}, fmt.Errorf("generate session token: %w", err)
	}

	now := r.now()
	s := &Session{
		ID:           uuid.NewString(),
		Token:        token,
		User:         user.Snapshot(),
		IPAddress:    ip,
		UserAgent:    userAgent,
		CreatedAt:    now,
		LastActivity: now,
	}

	r.mu.Lock()
	r.sessions[token] = s
	r.mu.Unlock()

	return s.copy(), nil
}

// Validate returns the session for token and extends it. Unknown and expired
// tokens report false; expired entries are removed.
func (r *Registry) Validate(token string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[token]
	if !ok {
		return Session{}, false
	}
	now := r.now()
	if r.expired(s, now) {
		delete(r.sessions, token)
		return Session{}, false
	}
	s.LastActivity = now
	return s.copy(), true
}

// Revoke removes token unconditionally and returns the removed session.
// Callers are responsible for authorizing the removal.
func (r *Registry) Revoke(token string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[token]
	if !ok {
		return Session{}, false
	}
	delete(r.sessions, token)
	return s.copy(), true
}

// RevokeUser removes every session belonging to userID and returns how many
// were removed.
func (r *Registry) RevokeUser(userID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for token, s := range r.sessions {
		if s.User.ID == userID {
			delete(r.sessions, token)
			n++
		}
	}
	return n
}

// SweepExpired removes every expired entry and returns how many were removed.
func (r *Registry) SweepExpired() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	n := 0
	for token, s := range r.sessions {
		if r.expired(s, now) {
			delete(r.sessions, token)
			n++
		}
	}
	return n
}

// ListActive returns copies of all held sessions, oldest first. Entries that
// have expired but not yet been swept are included.
func (r *Registry) ListActive() []Session {
	r.mu.Lock()
	out := make([]Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s.copy())
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Len returns the number of held entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) expired(s *Session, now time.Time) bool {
	return now.Sub(s.LastActivity) > r.timeout
}

func (s *Session) copy() Session {
	c := *s
	c.User = s.User.Snapshot()
	return c
}
