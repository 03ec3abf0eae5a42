// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package poll waits for a submitted provider query to complete.
//
// A query moves SUBMITTED -> POLLING -> COMPLETED, TIMED_OUT, or FAILED.
// After an initial grace period the fetcher checks the query every poll
// interval until the provider reports it completed or the overall timeout
// passes. Non-200 replies and transport errors mean "still queued". A
// timeout is returned as an Outcome value, never as a panic, so one slow
// entity cannot abort a batch.
package poll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/NotAlvin/Argus-Pub/internal/logging"
	"github.com/NotAlvin/Argus-Pub/pkg/types"
)

// State is a poll lifecycle state.
type State int

const (
	Submitted State = iota
	Polling
	Completed
	TimedOut
	Failed
)

func (s State) String() string {
	switch s {
	case Submitted:
		return "SUBMITTED"
	case Polling:
		return "POLLING"
	case Completed:
		return "COMPLETED"
	case TimedOut:
		return "TIMED_OUT"
	case Failed:
		return "FAILED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Defaults match the provider's typical turnaround.
const (
	DefaultGrace    = 60 * time.Second
	DefaultInterval = 90 * time.Second
	DefaultTimeout  = 7 * time.Minute
)

// PollTimeoutError reports a query that did not complete in time.
type PollTimeoutError struct {
	ID      string
	Timeout time.Duration
	Cause   error
}

func (e *PollTimeoutError) Error() string {
	return fmt.Sprintf("query %s not completed within %v", e.ID, e.Timeout)
}

func (e *PollTimeoutError) Unwrap() error { return e.Cause }

// Outcome is the terminal result of Fetch.
type Outcome struct {
	ID       string
	State    State
	Response *types.SearchResponse
	Err      error
	Polls    int
	Elapsed  time.Duration
}

// Checker fetches the current state of a query.
type Checker interface {
	Check(ctx context.Context, id string) (*types.SearchResponse, error)
}

// Clock abstracts time so tests never sleep.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RealClock is the wall clock.
var RealClock Clock = realClock{}

// Fetcher polls one query at a time. Callers run several Fetchers' calls
// concurrently for parallelism; a Fetcher holds no per-call state.
type Fetcher struct {
	checker Checker
	cfg     types.PollConfig
	clock   Clock
	log     *slog.Logger
}

// New returns a Fetcher. Zero durations in cfg take the defaults and a
// negative Grace skips the initial wait. A nil clock uses RealClock.
func New(checker Checker, cfg types.PollConfig, clock Clock, log *slog.Logger) *Fetcher {
	if cfg.Grace == 0 {
		cfg.Grace = DefaultGrace
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if clock == nil {
		clock = RealClock
	}
	return &Fetcher{checker: checker, cfg: cfg, clock: clock, log: logging.OrDefault(log)}
}

// Fetch blocks until query id completes, fails, or times out. The fetcher
// never sleeps past the timeout: when the next interval would overrun it,
// the query is reported timed out immediately. Cancelling ctx ends the
// wait as a timeout.
func (f *Fetcher) Fetch(ctx context.Context, id string) Outcome {
	start := f.clock.Now()
	out := Outcome{ID: id, State: Submitted}
	log := f.log.With("query_id", id)

	finish := func(s State, err error) Outcome {
		out.State = s
		out.Err = err
		out.Elapsed = f.clock.Now().Sub(start)
		log.Debug("poll finished", "state", s.String(), "polls", out.Polls, "elapsed", out.Elapsed)
		return out
	}
	timeout := func(cause error) Outcome {
		return finish(TimedOut, &PollTimeoutError{ID: id, Timeout: f.cfg.Timeout, Cause: cause})
	}

	if f.cfg.Grace > 0 {
		if err := f.clock.Sleep(ctx, min(f.cfg.Grace, f.cfg.Timeout)); err != nil {
			return timeout(err)
		}
	}

	for {
		out.State = Polling
		out.Polls++

		resp, err := f.checker.Check(ctx, id)
		switch {
		case errors.Is(err, types.ErrSchemaDrift):
			log.Error("provider response unreadable", "error", err)
			return finish(Failed, err)
		case err != nil:
			log.Info("query still queued", "error", err)
		case resp != nil && resp.Completed():
			out.Response = resp
			return finish(Completed, nil)
		default:
			log.Info("query still queued", "status", statusOf(resp))
		}

		elapsed := f.clock.Now().Sub(start)
		if elapsed+f.cfg.Interval > f.cfg.Timeout {
			log.Warn("query not completed in time", "timeout", f.cfg.Timeout, "polls", out.Polls)
			return timeout(nil)
		}
		if err := f.clock.Sleep(ctx, f.cfg.Interval); err != nil {
			return timeout(err)
		}
	}
}

func statusOf(resp *types.SearchResponse) string {
	if resp == nil || resp.Data == nil {
		return ""
	}
	return resp.Data.Status
}
