// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package poll

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NotAlvin/Argus-Pub/internal/logging"
	"github.com/NotAlvin/Argus-Pub/pkg/types"
)

// fakeClock advances instantly on Sleep and records every sleep.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

// scriptedChecker replays a fixed sequence of replies, repeating the last.
type scriptedChecker struct {
	replies []reply
	calls   int
}

type reply struct {
	resp *types.SearchResponse
	err  error
}

func (s *scriptedChecker) Check(_ context.Context, _ string) (*types.SearchResponse, error) {
	i := min(s.calls, len(s.replies)-1)
	s.calls++
	return s.replies[i].resp, s.replies[i].err
}

func status(st string) reply {
	return reply{resp: &types.SearchResponse{Data: &types.SearchData{Status: st}}}
}

func defaultCfg() types.PollConfig {
	return types.PollConfig{Grace: 60 * time.Second, Interval: 90 * time.Second, Timeout: 7 * time.Minute}
}

func TestFetch_CompletesAfterQueued(t *testing.T) {
	clock := newFakeClock()
	checker := &scriptedChecker{replies: []reply{
		status("queued"),
		{err: errors.New("HTTP 502")},
		status(types.StatusCompleted),
	}}
	f := New(checker, defaultCfg(), clock, logging.Discard())

	out := f.Fetch(context.Background(), "q-1")

	assert.Equal(t, Completed, out.State)
	require.NotNil(t, out.Response)
	assert.NoError(t, out.Err)
	assert.Equal(t, 3, out.Polls)
	assert.Equal(t, []time.Duration{60 * time.Second, 90 * time.Second, 90 * time.Second}, clock.sleeps)
	assert.Equal(t, 240*time.Second, out.Elapsed)
}

func TestFetch_TimesOutWithoutOverrunning(t *testing.T) {
	clock := newFakeClock()
	checker := &scriptedChecker{replies: []reply{status("queued")}}
	f := New(checker, defaultCfg(), clock, logging.Discard())

	out := f.Fetch(context.Background(), "q-slow")

	assert.Equal(t, TimedOut, out.State)
	var pte *PollTimeoutError
	require.True(t, errors.As(out.Err, &pte))
	assert.Equal(t, "q-slow", pte.ID)
	assert.Contains(t, pte.Error(), "not completed within 7m0s")

	// Polls at 60s, 150s, 240s, 330s, 420s.
	assert.Equal(t, 5, out.Polls)
	assert.LessOrEqual(t, out.Elapsed, 7*time.Minute)
}

func TestFetch_SchemaDriftFails(t *testing.T) {
	clock := newFakeClock()
	drift := fmt.Errorf("%w: missing data", types.ErrSchemaDrift)
	checker := &scriptedChecker{replies: []reply{status("queued"), {err: drift}}}
	f := New(checker, defaultCfg(), clock, logging.Discard())

	out := f.Fetch(context.Background(), "q")
	assert.Equal(t, Failed, out.State)
	assert.ErrorIs(t, out.Err, types.ErrSchemaDrift)
	assert.Equal(t, 2, out.Polls)
}

func TestFetch_NilResponseIsQueued(t *testing.T) {
	clock := newFakeClock()
	checker := &scriptedChecker{replies: []reply{{}, {resp: &types.SearchResponse{}}, status(types.StatusCompleted)}}
	f := New(checker, defaultCfg(), clock, logging.Discard())

	out := f.Fetch(context.Background(), "q")
	assert.Equal(t, Completed, out.State)
	assert.Equal(t, 3, out.Polls)
}

func TestFetch_CancelledContextTimesOut(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	checker := &scriptedChecker{replies: []reply{status("queued")}}
	out := New(checker, defaultCfg(), newFakeClock(), logging.Discard()).Fetch(ctx, "q")

	assert.Equal(t, TimedOut, out.State)
	assert.ErrorIs(t, out.Err, context.Canceled)
	assert.Zero(t, out.Polls)
}

func TestFetch_NegativeGraceSkipsWait(t *testing.T) {
	clock := newFakeClock()
	cfg := defaultCfg()
	cfg.Grace = -1
	checker := &scriptedChecker{replies: []reply{status(types.StatusCompleted)}}

	out := New(checker, cfg, clock, logging.Discard()).Fetch(context.Background(), "q")
	assert.Equal(t, Completed, out.State)
	assert.Empty(t, clock.sleeps)
}

func TestNew_Defaults(t *testing.T) {
	f := New(&scriptedChecker{}, types.PollConfig{}, nil, nil)
	assert.Equal(t, DefaultGrace, f.cfg.Grace)
	assert.Equal(t, DefaultInterval, f.cfg.Interval)
	assert.Equal(t, DefaultTimeout, f.cfg.Timeout)
	assert.Equal(t, RealClock, f.clock)
}

func TestRealClock_SleepHonorsContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := RealClock.Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "TIMED_OUT", TimedOut.String())
	assert.Equal(t, "COMPLETED", Completed.String())
}
