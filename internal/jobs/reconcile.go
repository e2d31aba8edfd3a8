// Package jobs runs periodic background work.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// ProgressReconciler recomputes stored progress for every active project and
// reports how many projects were touched.
type ProgressReconciler interface {
	ReconcileProgress(ctx context.Context) (int, error)
}

type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *zap.Logger
	timeout   time.Duration
}

func NewScheduler(logger *zap.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{scheduler: s, logger: logger, timeout: time.Minute}, nil
}

// ScheduleReconcile runs r every interval, starting immediately. Overlapping
// runs are skipped.
func (s *Scheduler) ScheduleReconcile(interval time.Duration, r ProgressReconciler) error {
	if interval <= 0 {
		return fmt.Errorf("reconcile interval must be positive, got %s", interval)
	}
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { s.runReconcile(r) }),
		gocron.WithName("progress-reconcile"),
		gocron.WithTags("progress"),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("schedule progress reconcile: %w", err)
	}
	return nil
}

func (s *Scheduler) runReconcile(r ProgressReconciler) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	started := time.Now()
	n, err := r.ReconcileProgress(ctx)
	if err != nil {
		s.logger.Error("progress reconcile failed", zap.Error(err))
		return
	}
	s.logger.Debug("progress reconciled",
		zap.Int("projects", n),
		zap.Duration("took", time.Since(started)),
	)
}

func (s *Scheduler) Start() {
	s.scheduler.Start()
}

func (s *Scheduler) Shutdown() error {
	return s.scheduler.Shutdown()
}
