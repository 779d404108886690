package notification

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tgassist/tgassist/internal/logger"
)

// Runner is one notification pass.
type Runner interface {
	RunOnce(ctx context.Context, now time.Time) (Report, error)
}

// Scheduler runs a pass once per wall-clock hour. Settings are hour-granular,
// so a second pass within the same hour would notify the same users again.
type Scheduler struct {
	runner   Runner
	tick     time.Duration
	now      func() time.Time
	lastSlot time.Time
}

// NewScheduler creates a Scheduler that checks the clock every tick.
func NewScheduler(runner Runner, tick time.Duration) *Scheduler {
	if tick <= 0 {
		tick = time.Minute
	}
	return &Scheduler{runner: runner, tick: tick, now: time.Now}
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)
	log.Info("Notification scheduler started", zap.Duration("tick", s.tick))

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	s.step(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info("Notification scheduler stopped")
			return nil
		case <-ticker.C:
			s.step(ctx)
		}
	}
}

// step runs a pass when the hour slot changed since the previous pass.
func (s *Scheduler) step(ctx context.Context) bool {
	now := s.now().UTC()
	slot := now.Truncate(time.Hour)
	if slot.Equal(s.lastSlot) {
		return false
	}
	s.lastSlot = slot

	if _, err := s.runner.RunOnce(ctx, now); err != nil {
		logger.FromContext(ctx).Error("Notification pass failed", zap.Error(err))
	}
	return true
}
