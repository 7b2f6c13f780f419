// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package recorder

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/rankvote/models"
)

// Directory layout below the project root.
var (
	RawDir        = filepath.Join("data", "raw")
	ProcessedDir  = filepath.Join("data", "processed")
	ValidationDir = filepath.Join("analysis", "validation")
)

// FileRecorder writes each run as a JSON array to data/raw/run_NNNN.json.
// The array is written to a .tmp file and renamed when the run ends, so a
// run file exists only once it is complete.
type FileRecorder struct {
	root string

	mu   sync.Mutex
	runs map[int]*runFile
}

type runFile struct {
	f     *os.File
	w     *bufio.Writer
	tmp   string
	path  string
	steps int
}

// NewFileRecorder creates the directory layout under root.
func NewFileRecorder(root string) (*FileRecorder, error) {
	for _, dir := range []string{RawDir, ProcessedDir, ValidationDir} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return &FileRecorder{root: root, runs: make(map[int]*runFile)}, nil
}

// RunPath returns the final path of a run file.
func (r *FileRecorder) RunPath(runID int) string {
	return filepath.Join(r.root, RawDir, RunFileName(runID))
}

func (r *FileRecorder) StartRun(_ context.Context, runID int, _ models.CandidateSet) error {
	path := r.RunPath(runID)
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create run file: %w", err)
	}
	rf := &runFile{f: f, w: bufio.NewWriter(f), tmp: tmp, path: path}
	if _, err := rf.w.WriteString("["); err != nil {
		f.Close()
		return fmt.Errorf("failed to write run file: %w", err)
	}

	r.mu.Lock()
	if old, ok := r.runs[runID]; ok {
		old.abort()
	}
	r.runs[runID] = rf
	r.mu.Unlock()
	return nil
}

func (r *FileRecorder) get(runID int) (*runFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rf, ok := r.runs[runID]
	if !ok {
		return nil, fmt.Errorf("%w: run %d", ErrRunNotStarted, runID)
	}
	return rf, nil
}

func (r *FileRecorder) AppendStep(_ context.Context, rec models.StepRecord) error {
	rf, err := r.get(rec.RunID)
	if err != nil {
		return err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode step %d: %w", rec.Step, err)
	}
	if rf.steps > 0 {
		if _, err := rf.w.WriteString(",\n"); err != nil {
			return fmt.Errorf("failed to write step %d: %w", rec.Step, err)
		}
	}
	if _, err := rf.w.Write(data); err != nil {
		return fmt.Errorf("failed to write step %d: %w", rec.Step, err)
	}
	rf.steps++
	return nil
}

func (r *FileRecorder) EndRun(_ context.Context, runID int) error {
	rf, err := r.get(runID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	delete(r.runs, runID)
	r.mu.Unlock()

	if _, err := rf.w.WriteString("]\n"); err != nil {
		rf.abort()
		return fmt.Errorf("failed to finish run file: %w", err)
	}
	if err := rf.w.Flush(); err != nil {
		rf.abort()
		return fmt.Errorf("failed to flush run file: %w", err)
	}
	info, statErr := rf.f.Stat()
	if err := rf.f.Close(); err != nil {
		os.Remove(rf.tmp)
		return fmt.Errorf("failed to close run file: %w", err)
	}
	if err := os.Rename(rf.tmp, rf.path); err != nil {
		return fmt.Errorf("failed to publish run file: %w", err)
	}

	if statErr == nil {
		slog.Debug("run file written", "run_id", runID, "steps", rf.steps, "size", humanize.Bytes(uint64(info.Size())))
	}
	return nil
}

// RunExists reports whether the complete run file is present.
func (r *FileRecorder) RunExists(_ context.Context, runID int) (bool, error) {
	_, err := os.Stat(r.RunPath(runID))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Close discards runs that were started but never ended.
func (r *FileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, rf := range r.runs {
		rf.abort()
		delete(r.runs, id)
	}
	return nil
}

func (rf *runFile) abort() {
	rf.f.Close()
	os.Remove(rf.tmp)
}
