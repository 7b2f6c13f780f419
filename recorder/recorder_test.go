// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package recorder

import (
	"context"
	"errors"
	"testing"

	"github.com/danielhkuo/rankvote/models"
	"github.com/danielhkuo/rankvote/tabulator"
)

// runSteps tabulates ballots for runID and returns the step records.
func runSteps(t *testing.T, runID int, ballots ...models.Ballot) []models.StepRecord {
	t.Helper()
	tab := tabulator.New(runID, models.DefaultCandidates())
	recs := make([]models.StepRecord, 0, len(ballots))
	for _, b := range ballots {
		rec, err := tab.Append(b)
		if err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		recs = append(recs, rec)
	}
	return recs
}

func threeBallots() []models.Ballot {
	return []models.Ballot{
		models.MustBallot(0, 1, 2, 3, 4),
		models.MustBallot(1, 0, 2, 3, 4),
		models.MustBallot(2, 0, 1, 3, 4),
	}
}

// record drives a full run through r.
func record(t *testing.T, r Recorder, recs []models.StepRecord) {
	t.Helper()
	ctx := context.Background()
	runID := recs[0].RunID
	if err := r.StartRun(ctx, runID, models.DefaultCandidates()); err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}
	for _, rec := range recs {
		if err := r.AppendStep(ctx, rec); err != nil {
			t.Fatalf("AppendStep failed: %v", err)
		}
	}
	if err := r.EndRun(ctx, runID); err != nil {
		t.Fatalf("EndRun failed: %v", err)
	}
}

func TestRunFileName(t *testing.T) {
	tests := []struct {
		id   int
		want string
	}{
		{0, "run_0000.json"},
		{7, "run_0007.json"},
		{999, "run_0999.json"},
		{12345, "run_12345.json"},
	}
	for _, tt := range tests {
		if got := RunFileName(tt.id); got != tt.want {
			t.Errorf("RunFileName(%d) = %s, want %s", tt.id, got, tt.want)
		}
	}
}

type stubRecorder struct {
	calls  []string
	exists bool
	err    error
}

func (s *stubRecorder) StartRun(context.Context, int, models.CandidateSet) error {
	s.calls = append(s.calls, "start")
	return s.err
}

func (s *stubRecorder) AppendStep(context.Context, models.StepRecord) error {
	s.calls = append(s.calls, "step")
	return s.err
}

func (s *stubRecorder) EndRun(context.Context, int) error {
	s.calls = append(s.calls, "end")
	return s.err
}

func (s *stubRecorder) Close() error { return nil }

type checkingRecorder struct {
	stubRecorder
}

func (c *checkingRecorder) RunExists(context.Context, int) (bool, error) {
	return c.exists, nil
}

func TestMultiFansOut(t *testing.T) {
	a, b := &stubRecorder{}, &stubRecorder{}
	record(t, Multi{a, b}, runSteps(t, 1, threeBallots()...))

	for name, s := range map[string]*stubRecorder{"a": a, "b": b} {
		if len(s.calls) != 5 || s.calls[0] != "start" || s.calls[4] != "end" {
			t.Errorf("recorder %s saw %v", name, s.calls)
		}
	}
}

func TestMultiStopsAtFirstError(t *testing.T) {
	boom := errors.New("boom")
	a, b := &stubRecorder{err: boom}, &stubRecorder{}

	err := Multi{a, b}.StartRun(context.Background(), 1, models.DefaultCandidates())
	if !errors.Is(err, boom) {
		t.Fatalf("Expected boom, got %v", err)
	}
	if len(b.calls) != 0 {
		t.Error("Second recorder should not be called after an error")
	}
}

func TestMultiRunExists(t *testing.T) {
	yes := &checkingRecorder{stubRecorder{exists: true}}
	no := &checkingRecorder{stubRecorder{exists: false}}
	blind := &stubRecorder{}

	tests := []struct {
		name string
		m    Multi
		want bool
	}{
		{"all agree", Multi{yes, blind, yes}, true},
		{"one missing", Multi{yes, no}, false},
		{"nobody can check", Multi{blind}, false},
		{"empty", Multi{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.m.RunExists(context.Background(), 1)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("RunExists = %v, want %v", got, tt.want)
			}
		})
	}
}
