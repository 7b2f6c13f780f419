// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package recorder

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/danielhkuo/rankvote/db"
	"github.com/danielhkuo/rankvote/models"
	"github.com/danielhkuo/rankvote/testutil"
)

func newSQLRecorder(t *testing.T) *SQLRecorder {
	t.Helper()
	return NewSQLRecorder(testutil.SetupTestDB(t), db.TypeSQLite)
}

func TestSQLRecorderRoundTrip(t *testing.T) {
	r := newSQLRecorder(t)
	recs := runSteps(t, 4, threeBallots()...)
	record(t, r, recs)
	ctx := context.Background()

	got, err := r.Steps(ctx, 4)
	if err != nil {
		t.Fatalf("Steps failed: %v", err)
	}
	if len(got) != len(recs) {
		t.Fatalf("Expected %d steps, got %d", len(recs), len(got))
	}
	for i := range recs {
		if got[i].Step != recs[i].Step || got[i].Timestamp != recs[i].Timestamp {
			t.Errorf("step %d: got step %d at %f", i+1, got[i].Step, got[i].Timestamp)
		}
		if !reflect.DeepEqual(got[i].Winners, recs[i].Winners) {
			t.Errorf("step %d: winners differ", i+1)
		}
		if len(got[i].Ballots) != i+1 {
			t.Fatalf("step %d: expected %d ballots, got %d", i+1, i+1, len(got[i].Ballots))
		}
		for j, b := range got[i].Ballots {
			if !reflect.DeepEqual(b.Ranking(), recs[i].Ballots[j].Ranking()) {
				t.Errorf("step %d ballot %d differs", i+1, j)
			}
		}
	}

	step, err := r.Step(ctx, 4, 2)
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if step.Step != 2 || len(step.Ballots) != 2 {
		t.Errorf("Expected step 2 with 2 ballots, got step %d with %d", step.Step, len(step.Ballots))
	}
}

func TestSQLRecorderRuns(t *testing.T) {
	r := newSQLRecorder(t)
	ctx := context.Background()

	record(t, r, runSteps(t, 2, threeBallots()...))
	if err := r.StartRun(ctx, 1, models.DefaultCandidates()); err != nil {
		t.Fatal(err)
	}

	runs, err := r.Runs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != 1 || runs[0].EndedAt != nil || runs[0].Steps != 0 {
		t.Errorf("Unexpected open run: %+v", runs[0])
	}
	if runs[1].ID != 2 || runs[1].EndedAt == nil || runs[1].Steps != 3 {
		t.Errorf("Unexpected finished run: %+v", runs[1])
	}
	if !reflect.DeepEqual(runs[1].Candidates, []string{"A", "B", "C", "D", "E"}) {
		t.Errorf("Unexpected candidates: %v", runs[1].Candidates)
	}
}

func TestSQLRecorderRunExists(t *testing.T) {
	r := newSQLRecorder(t)
	ctx := context.Background()

	if err := r.StartRun(ctx, 1, models.DefaultCandidates()); err != nil {
		t.Fatal(err)
	}
	if exists, _ := r.RunExists(ctx, 1); exists {
		t.Error("Unfinished run reported as existing")
	}
	if err := r.EndRun(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if exists, _ := r.RunExists(ctx, 1); !exists {
		t.Error("Finished run not found")
	}
}

func TestSQLRecorderRestartReplacesRun(t *testing.T) {
	r := newSQLRecorder(t)
	ctx := context.Background()

	record(t, r, runSteps(t, 1, threeBallots()...))
	record(t, r, runSteps(t, 1, threeBallots()[0]))

	steps, err := r.Steps(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(steps) != 1 {
		t.Errorf("Expected the rerun to replace old steps, got %d steps", len(steps))
	}
}

func TestSQLRecorderNotFound(t *testing.T) {
	r := newSQLRecorder(t)
	ctx := context.Background()

	if _, err := r.Steps(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing run, got %v", err)
	}

	record(t, r, runSteps(t, 1, threeBallots()...))
	for _, step := range []int{0, 4} {
		if _, err := r.Step(ctx, 1, step); !errors.Is(err, ErrNotFound) {
			t.Errorf("step %d: expected ErrNotFound, got %v", step, err)
		}
	}

	rec := runSteps(t, 8, threeBallots()[0])[0]
	if err := r.AppendStep(ctx, rec); err == nil {
		t.Error("Expected an error appending to a run that was never started")
	}
}
