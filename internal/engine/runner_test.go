package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureMetrics struct {
	mu      sync.Mutex
	entries []struct {
		operation string
		success   bool
		duration  time.Duration
	}
}

func (c *captureMetrics) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, struct {
		operation string
		success   bool
		duration  time.Duration
	}{operation, success, duration})
}

func TestRunReturnsValueOnSuccess(t *testing.T) {
	runner := NewRunner()
	got, ok := Run(context.Background(), runner, "compute", "", func(context.Context) (int, error) {
		return 42, nil
	})
	require.True(t, ok)
	assert.Equal(t, 42, got)

	state := runner.State()
	assert.False(t, state.Loading)
	assert.NoError(t, state.Err)
	assert.Equal(t, "compute", state.LastOp)
}

func TestRunAbsorbsErrors(t *testing.T) {
	sink := &captureNotifier{}
	runner := NewRunner(WithRunnerNotifier(sink))
	boom := errors.New("boom")

	got, ok := Run(context.Background(), runner, "explode", "", func(context.Context) (string, error) {
		return "partial", boom
	})
	require.False(t, ok)
	assert.Equal(t, "", got, "failure must yield the zero value")

	state := runner.State()
	assert.ErrorIs(t, state.Err, boom)
	assert.Equal(t, []string{"explode"}, sink.errors)
	assert.Empty(t, sink.successes)
}

func TestRunNotifiesSuccessMessage(t *testing.T) {
	sink := &captureNotifier{}
	runner := NewRunner(WithRunnerNotifier(sink))

	_, ok := Run(context.Background(), runner, "save", "saved", func(context.Context) (struct{}, error) {
		return struct{}{}, nil
	})
	require.True(t, ok)
	assert.Equal(t, []string{"save"}, sink.successes)

	// An empty success message stays quiet.
	_, ok = Run(context.Background(), runner, "quiet", "", func(context.Context) (struct{}, error) {
		return struct{}{}, nil
	})
	require.True(t, ok)
	assert.Equal(t, []string{"save"}, sink.successes)
}

func TestRunRecordsMetrics(t *testing.T) {
	metrics := &captureMetrics{}
	runner := NewRunner(WithRunnerMetrics(metrics))

	base := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	now := base
	runner.SetNowFunc(func() time.Time {
		current := now
		now = now.Add(250 * time.Millisecond)
		return current
	})

	_, _ = Run(context.Background(), runner, "timed", "", func(context.Context) (int, error) {
		return 1, nil
	})
	_, _ = Run(context.Background(), runner, "timed", "", func(context.Context) (int, error) {
		return 0, errors.New("nope")
	})

	require.Len(t, metrics.entries, 2)
	assert.Equal(t, "timed", metrics.entries[0].operation)
	assert.True(t, metrics.entries[0].success)
	assert.Equal(t, 250*time.Millisecond, metrics.entries[0].duration)
	assert.False(t, metrics.entries[1].success)
}

func TestRunLoadingStateDuringOperation(t *testing.T) {
	runner := NewRunner()

	_, ok := Run(context.Background(), runner, "inflight", "", func(context.Context) (struct{}, error) {
		state := runner.State()
		assert.True(t, state.Loading)
		assert.Equal(t, "inflight", state.LastOp)
		return struct{}{}, nil
	})
	require.True(t, ok)
	assert.False(t, runner.State().Loading)
}

func TestRunTracesOperations(t *testing.T) {
	tracer := NewJSONTracer(nil)
	runner := NewRunner(WithRunnerTracer(tracer))

	_, _ = Run(context.Background(), runner, "traced", "", func(context.Context) (int, error) {
		return 7, nil
	})
	_, _ = Run(context.Background(), runner, "traced", "", func(context.Context) (int, error) {
		return 0, errors.New("fail")
	})

	entries := tracer.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "traced", entries[0].Operation)
	assert.Equal(t, "success", entries[0].Status)
	assert.Equal(t, "error", entries[1].Status)
	assert.Equal(t, "fail", entries[1].Error)
}
