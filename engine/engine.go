// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/rankvote/metrics"
	"github.com/danielhkuo/rankvote/models"
	"github.com/danielhkuo/rankvote/recorder"
	"github.com/danielhkuo/rankvote/sampler"
	"github.com/danielhkuo/rankvote/tabulator"
)

type Config struct {
	Runs      int
	MaxVoters int
	Seed      uint64
	Workers   int
	Resume    bool

	// ProgressEvery logs progress at Info level after every n finished
	// runs; 0 means about ten lines per simulation.
	ProgressEvery int
}

func (c Config) progressEvery() int {
	if c.ProgressEvery > 0 {
		return c.ProgressEvery
	}
	return max(c.Runs/10, 1)
}

// Simulator runs progressive elections: every run draws MaxVoters uniform
// random ballots, tabulates after each one, and records every step.
type Simulator struct {
	Config     Config
	Candidates models.CandidateSet
	Recorder   recorder.Recorder
	Metrics    *metrics.Metrics

	// Clock stamps step records; nil means time.Now.
	Clock func() time.Time
}

// Summary reports what Run did.
type Summary struct {
	Completed int
	Skipped   int
	Steps     int64
	Elapsed   time.Duration
}

// Run simulates runs 1..Runs with up to Workers runs in parallel. With Resume,
// runs the recorder reports as complete are skipped. The first failing run
// cancels the others.
func (s *Simulator) Run(ctx context.Context) (Summary, error) {
	if s.Config.Runs < 0 || s.Config.MaxVoters < 0 {
		return Summary{}, errors.New("runs and max voters must not be negative")
	}
	start := time.Now()
	checker, canCheck := s.Recorder.(recorder.RunChecker)

	var completed, skipped atomic.Int64
	var steps, finished atomic.Int64
	every := int64(s.Config.progressEvery())
	progress := func() {
		n := finished.Add(1)
		if n%every == 0 || n == int64(s.Config.Runs) {
			slog.Info("simulation progress",
				"finished", humanize.Comma(n),
				"runs", humanize.Comma(int64(s.Config.Runs)),
				"steps", humanize.Comma(steps.Load()),
				"elapsed", time.Since(start).Round(time.Millisecond).String(),
			)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.Config.Workers, 1))

	for runID := 1; runID <= s.Config.Runs; runID++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if s.Config.Resume && canCheck {
				exists, err := checker.RunExists(gctx, runID)
				if err != nil {
					return err
				}
				if exists {
					skipped.Add(1)
					progress()
					s.Metrics.RunSkipped()
					slog.Debug("run already recorded, skipping", "run_id", runID)
					return nil
				}
			}
			n, err := s.RunOne(gctx, runID)
			steps.Add(int64(n))
			if err != nil {
				return err
			}
			completed.Add(1)
			progress()
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	sum := Summary{
		Completed: int(completed.Load()),
		Skipped:   int(skipped.Load()),
		Steps:     steps.Load(),
		Elapsed:   time.Since(start),
	}
	slog.Info("simulation finished",
		"completed", sum.Completed,
		"skipped", sum.Skipped,
		"steps", humanize.Comma(sum.Steps),
		"elapsed", sum.Elapsed.Round(time.Millisecond).String(),
	)
	return sum, err
}

// RunOne simulates and records a single run. It returns the number of steps
// recorded. A cancelled context stops the run between steps without ending it,
// so the recorder never reports it as complete.
func (s *Simulator) RunOne(ctx context.Context, runID int) (int, error) {
	smp, err := sampler.ForRun(s.Candidates, s.Config.Seed, runID)
	if err != nil {
		return 0, err
	}

	opts := []tabulator.Option{tabulator.WithCapacity(s.Config.MaxVoters)}
	if s.Clock != nil {
		opts = append(opts, tabulator.WithClock(s.Clock))
	}
	tab := tabulator.New(runID, s.Candidates, opts...)

	if err := s.Recorder.StartRun(ctx, runID, s.Candidates); err != nil {
		return 0, fmt.Errorf("run %d: %w", runID, err)
	}

	for step := 1; step <= s.Config.MaxVoters; step++ {
		if err := ctx.Err(); err != nil {
			return step - 1, err
		}
		began := time.Now()
		rec, err := tab.Append(smp.Sample())
		if err != nil {
			return step - 1, fmt.Errorf("run %d step %d: %w", runID, step, err)
		}
		s.Metrics.ObserveStep(rec, time.Since(began))
		if err := s.Recorder.AppendStep(ctx, rec); err != nil {
			return step - 1, fmt.Errorf("run %d step %d: %w", runID, step, err)
		}
	}

	if err := s.Recorder.EndRun(ctx, runID); err != nil {
		return tab.Step(), fmt.Errorf("run %d: %w", runID, err)
	}
	s.Metrics.RunCompleted()

	w := tab.Last().Winners
	slog.Debug("run recorded",
		"run_id", runID,
		"steps", tab.Step(),
		"plurality", deref(w.Plurality),
		"borda", deref(w.Borda),
		"condorcet", deref(w.Condorcet),
		"irv", deref(w.IRV),
	)
	return tab.Step(), nil
}

func deref(s *string) string {
	if s == nil {
		return "none"
	}
	return *s
}
