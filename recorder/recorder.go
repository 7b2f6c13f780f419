// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package recorder

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielhkuo/rankvote/models"
)

var (
	ErrRunNotStarted = errors.New("run not started")
	ErrNotFound      = errors.New("not found")
)

// Recorder persists the step records of simulation runs. Implementations are
// safe for concurrent use across different runs; the steps of a single run
// arrive in order from one goroutine.
type Recorder interface {
	StartRun(ctx context.Context, runID int, candidates models.CandidateSet) error
	AppendStep(ctx context.Context, rec models.StepRecord) error
	EndRun(ctx context.Context, runID int) error
	Close() error
}

// RunChecker is implemented by recorders that can tell whether a run was
// already recorded completely, which makes resuming possible.
type RunChecker interface {
	RunExists(ctx context.Context, runID int) (bool, error)
}

// RunFileName is the name of a run's file or object.
func RunFileName(runID int) string {
	return fmt.Sprintf("run_%04d.json", runID)
}

// Multi fans every call out to all recorders in order and stops at the first error.
type Multi []Recorder

func (m Multi) StartRun(ctx context.Context, runID int, candidates models.CandidateSet) error {
	for _, r := range m {
		if err := r.StartRun(ctx, runID, candidates); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) AppendStep(ctx context.Context, rec models.StepRecord) error {
	for _, r := range m {
		if err := r.AppendStep(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) EndRun(ctx context.Context, runID int) error {
	for _, r := range m {
		if err := r.EndRun(ctx, runID); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) Close() error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.Close())
	}
	return errors.Join(errs...)
}

// RunExists reports true only if every recorder that can check has the run.
// Recorders that cannot check are ignored; with none at all it reports false.
func (m Multi) RunExists(ctx context.Context, runID int) (bool, error) {
	checked := false
	for _, r := range m {
		c, ok := r.(RunChecker)
		if !ok {
			continue
		}
		exists, err := c.RunExists(ctx, runID)
		if err != nil {
			return false, err
		}
		if !exists {
			return false, nil
		}
		checked = true
	}
	return checked, nil
}
