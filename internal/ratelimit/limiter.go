// Package ratelimit keeps one token bucket per actor. Idle buckets expire and
// are swept by the cache janitor.
package ratelimit

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

type ActorLimiter struct {
	mu      sync.Mutex
	buckets *cache.Cache
	limit   rate.Limit
	burst   int
}

// New allows perSecond events per actor with the given burst. Buckets idle
// for longer than idle are dropped.
func New(perSecond float64, burst int, idle time.Duration) *ActorLimiter {
	if burst < 1 {
		burst = 1
	}
	return &ActorLimiter{
		buckets: cache.New(idle, idle/2),
		limit:   rate.Limit(perSecond),
		burst:   burst,
	}
}

func (l *ActorLimiter) Allow(actorID string) bool {
	return l.bucket(actorID).Allow()
}

func (l *ActorLimiter) bucket(actorID string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if v, ok := l.buckets.Get(actorID); ok {
		lim := v.(*rate.Limiter)
		l.buckets.SetDefault(actorID, lim)
		return lim
	}
	lim := rate.NewLimiter(l.limit, l.burst)
	l.buckets.SetDefault(actorID, lim)
	return lim
}

// Len reports the number of live buckets.
func (l *ActorLimiter) Len() int {
	return l.buckets.ItemCount()
}
