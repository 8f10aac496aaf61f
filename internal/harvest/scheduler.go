package harvest

import (
	"context"
	"log/slog"
	"time"
)

// DefaultInterval is the gap between scheduled cycles.
const DefaultInterval = 24 * time.Hour

// Scheduler runs harvest cycles on a fixed interval.
type Scheduler struct {
	service  *Service
	interval time.Duration
	logger   *slog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewScheduler creates a scheduler. A non-positive interval falls back
// to the default.
func NewScheduler(service *Service, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		service:  service,
		interval: interval,
		logger:   logger.With(slog.String("component", "scheduler")),
		done:     make(chan struct{}),
	}
}

// Start runs one cycle immediately, then on every tick until Stop. Call
// in a goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	defer close(s.done)

	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.runOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Stop cancels the loop and waits for an in-flight cycle to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.done
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if _, err := s.service.Run(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("scheduled harvest failed", slog.Any("error", err))
	}
}
