package server

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultConnRPS   = 2
	defaultConnBurst = 5

	// staleLimiterTTL is how long a per-IP limiter can be idle before it
	// is dropped from the map.
	staleLimiterTTL = 10 * time.Minute

	sweepInterval = time.Minute
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ConnLimiter rate limits websocket upgrades per client IP so one client
// cannot churn connections fast enough to crowd out everyone else.
type ConnLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	rps       rate.Limit
	burst     int
	lastSweep time.Time
	nowFunc   func() time.Time // injectable clock for testing
}

func NewConnLimiter(rps float64, burst int) *ConnLimiter {
	return &ConnLimiter{
		limiters: map[string]*limiterEntry{},
		rps:      rate.Limit(rps),
		burst:    burst,
		nowFunc:  time.Now,
	}
}

func (l *ConnLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()
	l.sweepStale(now)

	entry, found := l.limiters[ip]
	if !found {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter.Allow()
}

// sweepStale runs at most once per sweepInterval, under l.mu.
func (l *ConnLimiter) sweepStale(now time.Time) {
	if now.Sub(l.lastSweep) < sweepInterval {
		return
	}
	l.lastSweep = now
	for ip, entry := range l.limiters {
		if now.Sub(entry.lastSeen) > staleLimiterTTL {
			delete(l.limiters, ip)
		}
	}
}
