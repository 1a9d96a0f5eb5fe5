// Package lockout counts consecutive failed logins per username and locks an
// account for a fixed period once the limit is reached. Failures older than
// the lock duration no longer count toward the limit.
package lockout

import (
	"sync"
	"time"
)

const (
	DefaultMaxAttempts = 5
	DefaultDuration    = 15 * time.Minute
)

// AttemptRecord is the failure history of one username.
type AttemptRecord struct {
	Count        int
	FirstFailure time.Time
	LastFailure  time.Time
	LockedUntil  time.Time
}

func (a *AttemptRecord) locked(now time.Time) bool {
	return !a.LockedUntil.IsZero() && now.Before(a.LockedUntil)
}

// expired reports whether the record no longer affects the account: its lock
// has run out, or it was never locked and its last failure is older than window.
func (a *AttemptRecord) expired(now time.Time, window time.Duration) bool {
	if !a.LockedUntil.IsZero() {
		return !a.locked(now)
	}
	return now.Sub(a.LastFailure) > window
}

// Tracker is safe for concurrent use. Records live in memory only and are
// lost on restart.
type Tracker struct {
	mu          sync.Mutex
	records     map[string]*AttemptRecord
	maxAttempts int
	duration    time.Duration
	now         func() time.Time
}

type Option func(*Tracker)

// WithMaxAttempts sets how many consecutive failures lock an account.
func WithMaxAttempts(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.maxAttempts = n
		}
	}
}

// WithDuration sets how long a lock lasts.
func WithDuration(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.duration = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		records:     make(map[string]*AttemptRecord),
		maxAttempts: DefaultMaxAttempts,
		duration:    DefaultDuration,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// IsLocked reports whether username is currently locked. A lock that has run
// out is cleared together with its failure count.
func (t *Tracker) IsLocked(username string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[username]
	if !ok {
		return false
	}
	now := t.now()
	if rec.locked(now) {
		return true
	}
	if !rec.LockedUntil.IsZero() {
		delete(t.records, username)
	}
	return false
}

// RecordFailure counts one failed attempt and reports whether this call
// locked the account.
func (t *Tracker) RecordFailure(username string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	rec, ok := t.records[username]
	if !ok || rec.expired(now, t.duration) {
		rec = &AttemptRecord{FirstFailure: now}
		t.records[username] = rec
	}
	if rec.locked(now) {
		rec.LastFailure = now
		return false
	}

	rec.Count++
	rec.LastFailure = now
	if rec.Count >= t.maxAttempts {
		rec.LockedUntil = now.Add(t.duration)
		return true
	}
	return false
}

// Reset forgets all failures for username.
func (t *Tracker) Reset(username string) {
	t.mu.Lock()
	delete(t.records, username)
	t.mu.Unlock()
}

// Remaining returns the time left on the lock, or zero when not locked.
func (t *Tracker) Remaining(username string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[username]
	if !ok {
		return 0
	}
	now := t.now()
	if !rec.locked(now) {
		return 0
	}
	return rec.LockedUntil.Sub(now)
}

// Status returns a copy of the record for username.
func (t *Tracker) Status(username string) (AttemptRecord, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[username]
	if !ok {
		return AttemptRecord{}, false
	}
	return *rec, true
}

// Cleanup drops records whose lock has expired and unlocked records whose
// last failure is older than the lock duration. It returns how many were
// dropped.
func (t *Tracker) Cleanup() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	n := 0
	for name, rec := range t.records {
		if rec.expired(now, t.duration) {
			delete(t.records, name)
			n++
		}
	}
	return n
}
