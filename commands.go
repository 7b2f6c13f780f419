// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/danielhkuo/rankvote/analysis"
	"github.com/danielhkuo/rankvote/cliparse"
	"github.com/danielhkuo/rankvote/db"
	"github.com/danielhkuo/rankvote/engine"
	"github.com/danielhkuo/rankvote/metrics"
	"github.com/danielhkuo/rankvote/models"
	"github.com/danielhkuo/rankvote/recorder"
	"github.com/danielhkuo/rankvote/sampler"
)

// Sample sizes of the validate command, full and -quick.
type validationSizes struct {
	uniformSmall, uniformLarge int
	pairwise                   int
	indepRuns, indepPerRun     int
}

var (
	fullValidation  = validationSizes{10_000, 1_000_000, 500_000, 100, 1000}
	quickValidation = validationSizes{10_000, 100_000, 50_000, 10, 1000}
)

func seedOf(cfg cliparse.Config) uint64 {
	if cfg.HasSeed {
		return cfg.Seed
	}
	seed := rand.Uint64()
	slog.Info("no seed given, picked one", "seed", seed)
	return seed
}

func runValidate(cfg cliparse.Config) error {
	sizes := fullValidation
	if cfg.Quick {
		sizes = quickValidation
	}
	s, err := sampler.New(models.DefaultCandidates(), seedOf(cfg), 0)
	if err != nil {
		return err
	}
	v := sampler.Validator{Sampler: s}
	dir := filepath.Join(cfg.Root, recorder.ValidationDir)

	start := time.Now()
	small := v.Uniformity(sizes.uniformSmall)
	if err := analysis.WriteJSON(filepath.Join(dir, "uniform_10k.json"), small); err != nil {
		return err
	}
	large := v.Uniformity(sizes.uniformLarge)
	if err := analysis.WriteJSON(filepath.Join(dir, "uniform_1M.json"), large); err != nil {
		return err
	}
	if err := analysis.WriteJSON(filepath.Join(dir, "pairwise.json"), v.PairwiseBalance(sizes.pairwise)); err != nil {
		return err
	}
	indep := v.Independence(sizes.indepRuns, sizes.indepPerRun)
	if err := analysis.WriteJSON(filepath.Join(dir, "independence.json"), indep); err != nil {
		return err
	}

	slog.Info("validation written",
		"dir", dir,
		"samples", humanize.Comma(int64(sizes.uniformLarge)),
		"p_value", large.PValue,
		"mean_corr", indep.MeanCorr,
		"took", time.Since(start).Round(time.Millisecond))
	return nil
}

// openRecorders builds one recorder per selected sink. The returned close
// function also closes the database connection, if one was opened.
func openRecorders(ctx context.Context, cfg cliparse.Config) (recorder.Multi, func() error, error) {
	var recs recorder.Multi
	var dbConn *sql.DB
	closeAll := func() error {
		err := recs.Close()
		if dbConn != nil {
			err = errors.Join(err, dbConn.Close())
		}
		return err
	}

	for _, sink := range cfg.Sinks {
		switch sink {
		case cliparse.SinkFile:
			r, err := recorder.NewFileRecorder(cfg.Root)
			if err != nil {
				closeAll()
				return nil, nil, err
			}
			recs = append(recs, r)
		case cliparse.SinkSQL:
			conn, err := db.Open(cfg.DBType, cfg.DatabaseURL)
			if err != nil {
				closeAll()
				return nil, nil, err
			}
			dbConn = conn
			recs = append(recs, recorder.NewSQLRecorder(conn, cfg.DBType))
		case cliparse.SinkS3:
			r, err := recorder.NewS3Recorder(ctx, recorder.S3Config{
				Bucket:          cfg.S3Bucket,
				Region:          cfg.S3Region,
				Endpoint:        cfg.S3Endpoint,
				Prefix:          cfg.S3Prefix,
				PathStyle:       cfg.S3PathStyle,
				AccessKeyID:     cfg.S3AccessKey,
				SecretAccessKey: cfg.S3SecretKey,
			})
			if err != nil {
				closeAll()
				return nil, nil, err
			}
			recs = append(recs, r)
		case cliparse.SinkKafka:
			recs = append(recs, recorder.NewKafkaRecorder(cfg.KafkaBrokers, cfg.KafkaTopic))
		}
	}
	if len(recs) == 0 {
		return nil, nil, errors.New("no sinks selected")
	}
	return recs, closeAll, nil
}

func runSimulation(ctx context.Context, cfg cliparse.Config) (err error) {
	recs, closeAll, err := openRecorders(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeAll(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	reg := prometheus.NewRegistry()
	sim := &engine.Simulator{
		Config: engine.Config{
			Runs:      cfg.Runs,
			MaxVoters: cfg.MaxVoters,
			Seed:      seedOf(cfg),
			Workers:   cfg.Workers,
			Resume:    cfg.Resume,
		},
		Candidates: models.DefaultCandidates(),
		Recorder:   recs,
		Metrics:    metrics.New(reg),
	}

	slog.Info("simulation starting",
		"command", cfg.Command,
		"runs", humanize.Comma(int64(cfg.Runs)),
		"max_voters", cfg.MaxVoters,
		"workers", cfg.Workers,
		"sinks", cfg.Sinks)
	_, err = sim.Run(ctx)
	return err
}

// runPost aggregates the raw run files. Without the file sink, runs are read
// from the database instead.
func runPost(ctx context.Context, cfg cliparse.Config) error {
	agg := analysis.NewAggregator(models.DefaultCandidates())

	var n int
	switch {
	case cfg.HasSink(cliparse.SinkFile):
		var err error
		n, err = agg.AddDir(filepath.Join(cfg.Root, recorder.RawDir))
		if err != nil {
			return err
		}
	case cfg.HasSink(cliparse.SinkSQL):
		var err error
		n, err = addSQLRuns(ctx, cfg, agg)
		if err != nil {
			return err
		}
	default:
		return errors.New("post reads runs from the file or sql sink")
	}
	if n == 0 {
		return errors.New("no recorded runs found")
	}

	if err := agg.WriteOutputs(cfg.Root); err != nil {
		return err
	}
	stats := agg.Stats()
	slog.Info("aggregate statistics written",
		"runs", n,
		"steps", humanize.Comma(int64(stats.Steps)),
		"agree_all", stats.RuleAgreement.AgreeAll,
		"avg_changes_per_run", stats.WinnerVolatility.AvgChangesPerRun)
	return nil
}

func addSQLRuns(ctx context.Context, cfg cliparse.Config, agg *analysis.Aggregator) (int, error) {
	conn, err := db.Open(cfg.DBType, cfg.DatabaseURL)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	store := recorder.NewSQLRecorder(conn, cfg.DBType)
	runs, err := store.Runs(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, info := range runs {
		if info.EndedAt == nil {
			continue
		}
		steps, err := store.Steps(ctx, info.ID)
		if err != nil {
			return n, err
		}
		if err := agg.Add(analysis.RunFromSteps(info.ID, steps)); err != nil {
			return n, fmt.Errorf("run %d: %w", info.ID, err)
		}
		n++
	}
	return n, nil
}
