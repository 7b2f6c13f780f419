// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package engine runs progressive election simulations.

A run appends MaxVoters uniformly random ballots to a tabulator, one at a
time, and hands every step record to a recorder:

	sim := &engine.Simulator{
		Config:     engine.Config{Runs: 10, MaxVoters: 50, Seed: 42, Workers: 4, Resume: true},
		Candidates: models.DefaultCandidates(),
		Recorder:   rec,
		Metrics:    m,
	}
	summary, err := sim.Run(ctx)

Each run draws from its own sampler stream derived from the seed and the run
id, so results do not depend on Workers or on which runs were resumed.
*/
package engine
