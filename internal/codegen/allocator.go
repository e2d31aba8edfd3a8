package codegen

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Sequences is the transactional view the allocator needs. LockSequence must
// hold a row lock on the prefix sentinel until the transaction ends.
type Sequences interface {
	LockSequence(ctx context.Context, prefix string) (lastCode string, found bool, err error)
	CreateSequence(ctx context.Context, prefix, code string) error
	SaveSequence(ctx context.Context, prefix, code string) error
	LatestProjectCode(ctx context.Context, prefix string) (code string, found bool, err error)
}

// TxRunner runs fn in a transaction, committing when fn returns nil.
type TxRunner interface {
	WithinSequenceTx(ctx context.Context, fn func(Sequences) error) error
}

type Option func(*Allocator)

func WithMaxAttempts(n int) Option {
	return func(a *Allocator) {
		if n > 0 {
			a.maxAttempts = n
		}
	}
}

func WithBackOff(factory func() backoff.BackOff) Option {
	return func(a *Allocator) {
		if factory != nil {
			a.newBackOff = factory
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(a *Allocator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithExhaustedHook is called once per allocation that ran out of attempts.
func WithExhaustedHook(fn func(prefix string)) Option {
	return func(a *Allocator) { a.onExhausted = fn }
}

type Allocator struct {
	runner      TxRunner
	maxAttempts int
	newBackOff  func() backoff.BackOff
	logger      *zap.Logger
	onExhausted func(prefix string)
}

func NewAllocator(runner TxRunner, opts ...Option) *Allocator {
	a := &Allocator{
		runner:      runner,
		maxAttempts: DefaultMaxAttempts,
		newBackOff:  func() backoff.BackOff { return NewJitterBackOff(DefaultBaseDelay, DefaultMaxDelay) },
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Allocate reserves the next code for prefix in its own transaction.
func (a *Allocator) Allocate(ctx context.Context, prefix string) (string, error) {
	if err := ValidatePrefix(prefix); err != nil {
		return "", err
	}
	var code string
	err := a.Retry(ctx, prefix, func(ctx context.Context) error {
		return a.runner.WithinSequenceTx(ctx, func(seq Sequences) error {
			next, err := a.AllocateTx(ctx, seq, prefix)
			if err != nil {
				return err
			}
			code = next
			return nil
		})
	})
	if err != nil {
		return "", err
	}
	return code, nil
}

// AllocateTx reserves the next code inside the caller's transaction. The
// caller is responsible for retrying the whole transaction on conflict; see
// Retry.
func (a *Allocator) AllocateTx(ctx context.Context, seq Sequences, prefix string) (string, error) {
	if err := ValidatePrefix(prefix); err != nil {
		return "", err
	}
	last, found, err := seq.LockSequence(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("lock code sequence %s: %w", prefix, err)
	}
	if last == "" {
		latest, ok, err := seq.LatestProjectCode(ctx, prefix)
		if err != nil {
			return "", fmt.Errorf("read latest project code %s: %w", prefix, err)
		}
		if ok {
			last = latest
		}
	}
	code := Next(prefix, last)
	if found {
		err = seq.SaveSequence(ctx, prefix, code)
	} else {
		err = seq.CreateSequence(ctx, prefix, code)
	}
	if err != nil {
		return "", fmt.Errorf("store code sequence %s: %w", prefix, err)
	}
	return code, nil
}

// Retry runs fn until it succeeds, fails with a non-conflict error, or the
// attempt budget is spent. Exhaustion is reported as ErrAllocationExhausted.
func (a *Allocator) Retry(ctx context.Context, prefix string, fn func(context.Context) error) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(a.newBackOff(), uint64(a.maxAttempts-1)), ctx)
	attempts := 0
	err := backoff.Retry(func() error {
		attempts++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !IsConflict(err) {
			return backoff.Permanent(err)
		}
		a.logger.Debug("code allocation conflict",
			zap.String("prefix", prefix),
			zap.Int("attempt", attempts),
			zap.Error(err),
		)
		return err
	}, policy)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return err
	}
	if IsConflict(err) {
		a.logger.Warn("code allocation exhausted",
			zap.String("prefix", prefix),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		if a.onExhausted != nil {
			a.onExhausted(prefix)
		}
		return fmt.Errorf("%w: %s after %d attempts: %v", ErrAllocationExhausted, prefix, attempts, err)
	}
	return err
}
