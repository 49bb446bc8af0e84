package middleware

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/bjaus/procedure"
)

// Limiter applies a token bucket per string key and periodically evicts idle
// entries.
type Limiter struct {
	limit   rate.Limit
	burst   int
	mu      sync.Mutex
	byKey   map[string]*limiterEntry
	hits    uint64
	idleTTL time.Duration
	now     func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLimiter creates a key-based limiter allowing rps calls per second with
// the given burst. It returns nil, which allows everything, if rps or burst
// is not positive. An idleTTL of zero means ten minutes.
func NewLimiter(rps float64, burst int, idleTTL time.Duration) *Limiter {
	if rps <= 0 || burst <= 0 {
		return nil
	}
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	return &Limiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		byKey:   make(map[string]*limiterEntry),
		idleTTL: idleTTL,
		now:     time.Now,
	}
}

// Allow reports whether one token can be consumed for the key at now. Blank
// keys are never limited.
func (l *Limiter) Allow(key string, now time.Time) bool {
	if l == nil {
		return true
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.byKey[key]
	if !ok {
		e = &limiterEntry{
			limiter:  rate.NewLimiter(l.limit, l.burst),
			lastSeen: now,
		}
		l.byKey[key] = e
	}
	e.lastSeen = now
	allowed := e.limiter.AllowN(now, 1)

	l.hits++
	if l.hits%512 == 0 {
		cutoff := now.Add(-l.idleTTL)
		for k, v := range l.byKey {
			if v.lastSeen.Before(cutoff) {
				delete(l.byKey, k)
			}
		}
	}

	return allowed
}

// Len returns the number of keys currently tracked.
func (l *Limiter) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byKey)
}

// KeyFunc picks the rate limit bucket for a call.
type KeyFunc func(req procedure.Request) string

// ByPath limits each procedure path as a whole.
func ByPath(req procedure.Request) string { return req.Path }

// ByValue limits per distinct string value of the context key, scoped to the
// procedure path. Calls without the key are not limited.
func ByValue(key string) KeyFunc {
	return func(req procedure.Request) string {
		v := req.Values.String(key)
		if v == "" {
			return ""
		}
		return req.Path + "|" + key + ":" + v
	}
}

// RateLimit returns a middleware that rejects calls over the limit with
// TOO_MANY_REQUESTS. A nil key function means ByPath.
func RateLimit(l *Limiter, key KeyFunc) procedure.Middleware {
	if key == nil {
		key = ByPath
	}
	return func(ctx context.Context, req procedure.Request, next procedure.Next) (any, error) {
		now := time.Now()
		if l != nil {
			now = l.now()
		}
		if !l.Allow(key(req), now) {
			return nil, procedure.Errorf(procedure.CodeTooManyRequests, "rate limit exceeded for %q", req.Path)
		}
		return next(nil)
	}
}
