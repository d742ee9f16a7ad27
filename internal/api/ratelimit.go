package api

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Default per-session rate limiting: a sustained message every two seconds
// with a short burst allowance.
const (
	DefaultTurnInterval = 2 * time.Second
	DefaultTurnBurst    = 5

	// limiterIdleTTL is how long an idle session keeps its limiter before
	// the entry is dropped.
	limiterIdleTTL = 30 * time.Minute
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// sessionLimiter enforces a per-session message rate. Access is guarded so
// concurrent request handlers for different sessions never race on the map.
type sessionLimiter struct {
	mu       sync.Mutex
	entries  map[string]*limiterEntry
	interval time.Duration
	burst    int
}

func newSessionLimiter(interval time.Duration, burst int) *sessionLimiter {
	if interval <= 0 {
		interval = DefaultTurnInterval
	}
	if burst <= 0 {
		burst = DefaultTurnBurst
	}
	return &sessionLimiter{
		entries:  make(map[string]*limiterEntry),
		interval: interval,
		burst:    burst,
	}
}

// Allow reports whether the session may submit another turn right now.
func (l *sessionLimiter) Allow(sessionID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	e, ok := l.entries[sessionID]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rate.Every(l.interval), l.burst)}
		l.entries[sessionID] = e
	}
	e.lastSeen = now

	l.evictIdleLocked(now)
	return e.limiter.Allow()
}

func (l *sessionLimiter) evictIdleLocked(now time.Time) {
	for id, e := range l.entries {
		if now.Sub(e.lastSeen) > limiterIdleTTL {
			delete(l.entries, id)
		}
	}
}
