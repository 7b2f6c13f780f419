// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tabulator

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/danielhkuo/rankvote/models"
	"github.com/danielhkuo/rankvote/rules"
)

var ErrBallotSize = errors.New("ballot size does not match candidate count")

// Tabulator owns the growing ballot set of one run and re-tabulates every rule
// over the whole set after each appended ballot. It is not safe for concurrent
// use; independent runs use independent tabulators.
type Tabulator struct {
	runID      int
	candidates models.CandidateSet
	ballots    []models.Ballot
	last       models.StepRecord
	now        func() time.Time
}

// Option configures a Tabulator.
type Option func(*Tabulator)

// WithClock replaces time.Now as the source of step timestamps.
func WithClock(now func() time.Time) Option {
	return func(t *Tabulator) {
		t.now = now
	}
}

// WithCapacity preallocates room for n ballots.
func WithCapacity(n int) Option {
	return func(t *Tabulator) {
		t.ballots = make([]models.Ballot, 0, n)
	}
}

func New(runID int, candidates models.CandidateSet, opts ...Option) *Tabulator {
	t := &Tabulator{
		runID:      runID,
		candidates: candidates,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.last = t.record(nil, rules.All(nil, candidates.Size()))
	return t
}

// Append adds one ballot and returns the step record for the enlarged set.
func (t *Tabulator) Append(b models.Ballot) (models.StepRecord, error) {
	if k := t.candidates.Size(); b.Len() != k {
		return models.StepRecord{}, fmt.Errorf("%w: got %d, want %d", ErrBallotSize, b.Len(), k)
	}

	t.ballots = append(t.ballots, b)
	// Clipping keeps later appends from writing into the snapshot's capacity.
	snapshot := slices.Clip(t.ballots)

	t.last = t.record(snapshot, rules.All(snapshot, t.candidates.Size()))
	return t.last, nil
}

// Step returns the number of ballots appended so far.
func (t *Tabulator) Step() int {
	return len(t.ballots)
}

// Last returns the most recent step record; before any ballot it is step 0
// over the empty set.
func (t *Tabulator) Last() models.StepRecord {
	return t.last
}

// Ballots returns the ballot set accumulated so far. The caller must not modify it.
func (t *Tabulator) Ballots() []models.Ballot {
	return slices.Clip(t.ballots)
}

func (t *Tabulator) Candidates() models.CandidateSet {
	return t.candidates
}

func (t *Tabulator) RunID() int {
	return t.runID
}

func (t *Tabulator) record(snapshot []models.Ballot, tallies models.Tallies) models.StepRecord {
	if snapshot == nil {
		snapshot = []models.Ballot{}
	}
	now := t.now()
	return models.StepRecord{
		RunID:     t.runID,
		Step:      len(snapshot),
		Timestamp: float64(now.Unix()) + float64(now.Nanosecond())/1e9,
		Ballots:   snapshot,
		Winners:   models.NewWinners(t.candidates, tallies),
		Tallies:   tallies,
	}
}
