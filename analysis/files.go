// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package analysis

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/rankvote/models"
	"github.com/danielhkuo/rankvote/recorder"
)

// Output files below the project root.
var (
	AggregateStatsFile = filepath.Join("analysis", "aggregate_stats.json")
	FeaturesFile       = filepath.Join(recorder.ProcessedDir, "features.json")
	MetadataFile       = filepath.Join(recorder.ProcessedDir, "metadata.json")
)

// fileStep decodes a step record but keeps the ballots raw; only the final
// step's ballots are needed.
type fileStep struct {
	RunID   int             `json:"run_id"`
	Step    int             `json:"step"`
	Ballots json.RawMessage `json:"voter_preferences"`
	Winners models.Winners  `json:"winners"`
}

// ReadRunFile reads a run file written by recorder.FileRecorder.
func ReadRunFile(path string) (Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Run{}, err
	}
	var steps []fileStep
	if err := json.Unmarshal(data, &steps); err != nil {
		return Run{}, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}

	run := Run{Winners: make([]models.Winners, len(steps))}
	if _, err := fmt.Sscanf(filepath.Base(path), "run_%d.json", &run.ID); err != nil {
		return Run{}, fmt.Errorf("unexpected run file name %s", filepath.Base(path))
	}
	for i, s := range steps {
		if s.Step != i+1 {
			return Run{}, fmt.Errorf("%s: record %d has step %d", filepath.Base(path), i, s.Step)
		}
		run.Winners[i] = s.Winners
	}
	if n := len(steps); n > 0 {
		if err := json.Unmarshal(steps[n-1].Ballots, &run.Final); err != nil {
			return Run{}, fmt.Errorf("%s: failed to decode final ballots: %w", filepath.Base(path), err)
		}
	}
	return run, nil
}

// AddDir adds every run_*.json file in dir, in name order. It returns the
// number of files read.
func (a *Aggregator) AddDir(dir string) (int, error) {
	files, err := filepath.Glob(filepath.Join(dir, "run_*.json"))
	if err != nil {
		return 0, err
	}
	for _, f := range files {
		run, err := ReadRunFile(f)
		if err != nil {
			return 0, err
		}
		if err := a.Add(run); err != nil {
			return 0, err
		}
	}
	return len(files), nil
}

// WriteOutputs writes the aggregate statistics, features and metadata files
// under root.
func (a *Aggregator) WriteOutputs(root string) error {
	outputs := []struct {
		path string
		v    any
	}{
		{AggregateStatsFile, a.Stats()},
		{FeaturesFile, a.Features()},
		{MetadataFile, a.Metadata()},
	}
	for _, out := range outputs {
		path := filepath.Join(root, out.path)
		if err := WriteJSON(path, out.v); err != nil {
			return err
		}
	}
	slog.Info("analysis written",
		"runs", humanize.Comma(int64(a.runs)),
		"steps", humanize.Comma(int64(a.steps)),
		"root", root,
	)
	return nil
}

// WriteJSON writes v as indented JSON, creating parent directories.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
