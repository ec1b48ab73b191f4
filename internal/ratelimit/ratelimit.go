package ratelimit

import (
	"sync"
	"time"
)

const (
	DefaultWindow     = 60 * time.Second
	DefaultMaxActions = 5
	DefaultRetention  = 10
)

// Config is fixed for the lifetime of a Limiter.
type Config struct {
	// Window is the trailing interval actions are counted over.
	Window time.Duration
	// MaxActions is how many actions a user may take per Window.
	MaxActions int
	// Retention caps how many timestamps are stored per user. It is raised
	// to MaxActions when smaller.
	Retention int
}

func DefaultConfig() Config {
	return Config{
		Window:     DefaultWindow,
		MaxActions: DefaultMaxActions,
		Retention:  DefaultRetention,
	}
}

type Option func(*Limiter)

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// Limiter is a per-user sliding window. Old entries are evicted lazily on
// the next call for the same user, so there is no background sweeper.
type Limiter struct {
	mu      sync.Mutex
	cfg     Config
	now     func() time.Time
	actions map[string][]time.Time
}

func New(cfg Config, opts ...Option) *Limiter {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.MaxActions <= 0 {
		cfg.MaxActions = DefaultMaxActions
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	// A shorter history could never reach MaxActions. Admission stops at
	// MaxActions, so at most MaxActions timestamps are ever stored.
	cfg.Retention = max(cfg.Retention, cfg.MaxActions)
	l := &Limiter{
		cfg:     cfg,
		now:     time.Now,
		actions: make(map[string][]time.Time),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Limiter) Config() Config {
	return l.cfg
}

// Limited reports whether userID is over its limit. A false return means the
// action was admitted and recorded; rejected attempts are never recorded.
func (l *Limiter) Limited(userID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entries := l.actions[userID]

	// Entries exactly Window old still count.
	for len(entries) > 0 && now.Sub(entries[0]) > l.cfg.Window {
		entries = entries[1:]
	}

	if len(entries) >= l.cfg.MaxActions {
		l.actions[userID] = entries
		return true
	}

	// Copy so evicted entries do not stay pinned by the backing array.
	next := make([]time.Time, len(entries), len(entries)+1)
	copy(next, entries)
	l.actions[userID] = append(next, now)
	return false
}

// Len returns the number of timestamps currently stored for userID.
func (l *Limiter) Len(userID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.actions[userID])
}
