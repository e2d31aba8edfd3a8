package codegen

import (
	"math/rand/v2"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultBaseDelay   = 50 * time.Millisecond
	DefaultMaxDelay    = 1000 * time.Millisecond
	DefaultMaxAttempts = 5
)

// jitterBackOff doubles from base up to max and returns a delay drawn from
// [d/2, d], so the cap is never exceeded.
type jitterBackOff struct {
	base, max time.Duration
	current   time.Duration
}

func NewJitterBackOff(base, max time.Duration) backoff.BackOff {
	return &jitterBackOff{base: base, max: max}
}

func (b *jitterBackOff) NextBackOff() time.Duration {
	if b.current == 0 {
		b.current = b.base
	} else if b.current < b.max {
		b.current *= 2
	}
	if b.current > b.max {
		b.current = b.max
	}
	half := b.current / 2
	if half <= 0 {
		return b.current
	}
	return half + rand.N(half+1)
}

func (b *jitterBackOff) Reset() {
	b.current = 0
}
