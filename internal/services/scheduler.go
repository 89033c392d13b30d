package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sweeper is the periodic job the scheduler runs.
type Sweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// Scheduler runs the discount sweep once on start and then every interval.
type Scheduler struct {
	sweeper  Sweeper
	interval time.Duration
	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewScheduler(sweeper Sweeper, interval time.Duration) *Scheduler {
	return &Scheduler{sweeper: sweeper, interval: interval}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	if s.interval <= 0 {
		zap.L().Error("discount sweep disabled: non-positive interval", zap.Duration("interval", s.interval))
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.run(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.run(ctx)
		}
	}
}

func (s *Scheduler) run(ctx context.Context) {
	if _, err := s.sweeper.SweepExpired(ctx); err != nil && ctx.Err() == nil {
		zap.L().Error("discount sweep failed", zap.Error(err))
	}
}

// Stop cancels the loop and waits for an in-progress sweep to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
