package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"psych-booking-engine/internal/domain/entity"

	"github.com/sirupsen/logrus"
)

// StatusSweepRunner applies the time-driven status rule to all active bookings.
type StatusSweepRunner interface {
	SweepStatuses(ctx context.Context) (map[entity.StatusTransition]int64, error)
}

// StatusSweeper runs the bulk status sweep on a fixed interval.
// It is the only background process of the booking engine.
type StatusSweeper struct {
	runner   StatusSweepRunner
	log      *logrus.Logger
	interval time.Duration

	// Graceful shutdown
	stopChan chan struct{}
	wg       sync.WaitGroup
	started  atomic.Bool
	stopped  atomic.Bool
}

func NewStatusSweeper(runner StatusSweepRunner, log *logrus.Logger, interval time.Duration) *StatusSweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &StatusSweeper{
		runner:   runner,
		log:      log,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start runs one sweep immediately, then one per interval, until Stop or ctx is done.
// Only the first call has an effect.
func (s *StatusSweeper) Start(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}

	s.wg.Add(1)
	go s.loop(ctx)
	s.log.Infof("Status sweeper started (interval %v)", s.interval)
}

// Stop gracefully shuts down the sweeper.
// Safe to call multiple times.
func (s *StatusSweeper) Stop() {
	if s.stopped.CompareAndSwap(false, true) {
		close(s.stopChan)
		s.wg.Wait()
		s.log.Info("Status sweeper stopped")
	}
}

// RunOnce performs a single sweep and logs the applied transitions.
func (s *StatusSweeper) RunOnce(ctx context.Context) (map[entity.StatusTransition]int64, error) {
	start := time.Now()
	counts, err := s.runner.SweepStatuses(ctx)
	if err != nil {
		s.log.Errorf("Failed to sweep booking statuses: %+v", err)
		return counts, err
	}

	var total int64
	fields := logrus.Fields{}
	for transition, n := range counts {
		total += n
		fields[transition.String()] = n
	}
	fields["elapsed"] = time.Since(start).String()

	if total > 0 {
		s.log.WithFields(fields).Infof("Status sweep updated %d bookings", total)
	} else {
		s.log.WithFields(fields).Debug("Status sweep found nothing to update")
	}
	return counts, nil
}

func (s *StatusSweeper) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	_, _ = s.RunOnce(ctx)

	for {
		select {
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.RunOnce(ctx)
		}
	}
}
