package service

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"psych-booking-engine/internal/domain/entity"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func silentLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type countingRunner struct {
	calls atomic.Int32
	err   error
}

func (r *countingRunner) SweepStatuses(ctx context.Context) (map[entity.StatusTransition]int64, error) {
	r.calls.Add(1)
	if r.err != nil {
		return nil, r.err
	}
	return map[entity.StatusTransition]int64{
		{From: entity.BookingStatusPending, To: entity.BookingStatusCompleted}: 2,
	}, nil
}

func TestStatusSweeper_RunOnce(t *testing.T) {
	runner := &countingRunner{}
	sweeper := NewStatusSweeper(runner, silentLogger(), time.Hour)

	counts, err := sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[entity.StatusTransition{From: entity.BookingStatusPending, To: entity.BookingStatusCompleted}])
}

func TestStatusSweeper_RunOnceSurfacesError(t *testing.T) {
	runner := &countingRunner{err: errors.New("db down")}
	sweeper := NewStatusSweeper(runner, silentLogger(), time.Hour)

	_, err := sweeper.RunOnce(context.Background())
	assert.EqualError(t, err, "db down")
}

func TestStatusSweeper_StartSweepsUntilStopped(t *testing.T) {
	runner := &countingRunner{}
	sweeper := NewStatusSweeper(runner, silentLogger(), 10*time.Millisecond)

	sweeper.Start(context.Background())
	sweeper.Start(context.Background())

	assert.Eventually(t, func() bool { return runner.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	sweeper.Stop()
	sweeper.Stop()
	calls := runner.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, runner.calls.Load())
}
