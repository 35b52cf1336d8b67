package operations

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"valuationcli/internal/infrastructure"
	"valuationcli/internal/shared/testutil"
)

type mockTask struct {
	mock.Mock
}

func (m *mockTask) Run(ctx context.Context, symbol string) error {
	args := m.Called(ctx, symbol)
	return args.Error(0)
}

func TestRunnerRunsEverySymbol(t *testing.T) {
	logger, capture := testutil.NewTestLogger(t)
	task := new(mockTask)
	symbols := []string{"AAPL", "MSFT", "NVDA", "TSLA"}
	for _, s := range symbols {
		task.On("Run", mock.Anything, s).Return(nil).Once()
	}

	runner := NewRunner(Config{Workers: 2}, logger)
	summary, err := runner.Run(context.Background(), "valuation", symbols, task)
	require.NoError(t, err)

	task.AssertExpectations(t)
	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 4, summary.Succeeded)
	assert.Empty(t, summary.Failed)
	assert.Len(t, summary.RunID, 36)

	capture.AssertContains(t, slog.LevelInfo, "(4/4)")
	capture.AssertContains(t, slog.LevelInfo, "batch complete")
	capture.AssertNoErrors(t)

	for _, r := range capture.Find(slog.LevelInfo, "batch complete") {
		assert.Equal(t, "runner", r.Attrs["component"])
	}

	progress := runner.Progress().Snapshot()
	assert.True(t, progress.Done)
	assert.Equal(t, 4, progress.Completed)
	assert.Equal(t, 100.0, progress.Percentage)
	assert.Equal(t, summary.RunID, progress.RunID)
}

func TestRunnerPassesRunIDInContext(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	var seen atomic.Value
	task := TaskFunc(func(ctx context.Context, symbol string) error {
		seen.Store(infrastructure.GetRunID(ctx))
		return nil
	})

	summary, err := NewRunner(Config{}, logger).Run(context.Background(), "benford", []string{"AAPL"}, task)
	require.NoError(t, err)
	assert.Equal(t, summary.RunID, seen.Load())
}

func TestRunnerSkipsFailedSymbols(t *testing.T) {
	logger, capture := testutil.NewTestLogger(t)
	task := new(mockTask)
	task.On("Run", mock.Anything, "AAPL").Return(nil)
	task.On("Run", mock.Anything, "BAD").Return(errors.New("no price file"))
	task.On("Run", mock.Anything, "MSFT").Return(nil)

	summary, err := NewRunner(Config{Workers: 1}, logger).
		Run(context.Background(), "valuation", []string{"AAPL", "BAD", "MSFT"}, task)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Succeeded)
	require.Contains(t, summary.Failed, "BAD")
	assert.Equal(t, ErrorTypeExecution, summary.Failed["BAD"].Type)
	assert.EqualError(t, errors.Unwrap(summary.Failed["BAD"]), "no price file")
	task.AssertNumberOfCalls(t, "Run", 3)

	capture.AssertContains(t, slog.LevelError, "BAD failed")
}

func TestRunnerRecoversPanics(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	task := TaskFunc(func(ctx context.Context, symbol string) error {
		if symbol == "BOOM" {
			panic("index out of range")
		}
		return nil
	})

	summary, err := NewRunner(Config{Workers: 2}, logger).
		Run(context.Background(), "valuation", []string{"AAPL", "BOOM"}, task)
	require.NoError(t, err)
	require.Contains(t, summary.Failed, "BOOM")
	assert.Equal(t, ErrorTypePanic, summary.Failed["BOOM"].Type)
	assert.Equal(t, 1, summary.Succeeded)
}

func TestRunnerTaskTimeout(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	task := TaskFunc(func(ctx context.Context, symbol string) error {
		if symbol == "SLOW" {
			<-ctx.Done()
			return ctx.Err()
		}
		return nil
	})

	summary, err := NewRunner(Config{Workers: 2, TaskTimeout: 20 * time.Millisecond}, logger).
		Run(context.Background(), "valuation", []string{"FAST", "SLOW"}, task)
	require.NoError(t, err)
	require.Contains(t, summary.Failed, "SLOW")
	assert.True(t, IsTimeout(summary.Failed["SLOW"]))
	assert.Equal(t, 1, summary.Succeeded)
}

func TestRunnerIgnoredTimeoutStillFails(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	task := TaskFunc(func(ctx context.Context, symbol string) error {
		<-ctx.Done()
		return nil
	})

	summary, err := NewRunner(Config{TaskTimeout: 10 * time.Millisecond}, logger).
		Run(context.Background(), "valuation", []string{"SLOW"}, task)
	require.NoError(t, err)
	assert.True(t, IsTimeout(summary.Failed["SLOW"]))
}

func TestRunnerBoundsConcurrency(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	var active, peak atomic.Int32
	task := TaskFunc(func(ctx context.Context, symbol string) error {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		active.Add(-1)
		return nil
	})

	symbols := make([]string, 20)
	for i := range symbols {
		symbols[i] = string(rune('A' + i))
	}
	summary, err := NewRunner(Config{Workers: 3}, logger).Run(context.Background(), "valuation", symbols, task)
	require.NoError(t, err)
	assert.Equal(t, 20, summary.Succeeded)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestRunnerRateLimit(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	task := TaskFunc(func(ctx context.Context, symbol string) error { return nil })

	start := time.Now()
	_, err := NewRunner(Config{Workers: 4, RatePerSecond: 50, Burst: 1}, logger).
		Run(context.Background(), "valuation", []string{"A", "B", "C", "D", "E"}, task)
	require.NoError(t, err)
	// Four waits of 20ms after the first token.
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestRunnerCancellation(t *testing.T) {
	logger, capture := testutil.NewTestLogger(t)
	ctx, cancel := context.WithCancel(context.Background())

	var started atomic.Int32
	task := TaskFunc(func(ctx context.Context, symbol string) error {
		if started.Add(1) == 2 {
			cancel()
		}
		return nil
	})

	summary, err := NewRunner(Config{Workers: 1, RatePerSecond: 100, Burst: 1}, logger).
		Run(ctx, "valuation", []string{"A", "B", "C", "D", "E", "F"}, task)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, int(started.Load()), 6)
	assert.Equal(t, 6, summary.Total)
	capture.AssertContains(t, slog.LevelWarn, "batch cancelled")
}

func TestRunnerEmptyBatch(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	task := new(mockTask)

	summary, err := NewRunner(Config{Workers: 2}, logger).Run(context.Background(), "putcall", nil, task)
	require.NoError(t, err)
	assert.Zero(t, summary.Total)
	task.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
	assert.True(t, NewRunner(Config{}, logger).Progress() == nil)
}

func TestTaskErrorClassification(t *testing.T) {
	assert.Equal(t, ErrorTypeTimeout, newTaskError("A", context.DeadlineExceeded).Type)
	assert.Equal(t, ErrorTypeCancellation, newTaskError("A", context.Canceled).Type)
	assert.Equal(t, ErrorTypeExecution, newTaskError("A", errors.New("x")).Type)
	assert.Contains(t, newTaskError("A", errors.New("x")).Error(), "[execution] A: x")

	var nilErr *TaskError
	assert.Equal(t, "unknown task error", nilErr.Error())
	assert.Nil(t, nilErr.Unwrap())
	assert.False(t, IsTimeout(errors.New("plain")))
}
