// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package sampler generates uniformly random ballots and validates the generator.

All K! rankings are precomputed in lexicographic order and sampled by index
from a seeded PCG stream:

	s, err := sampler.ForRun(models.DefaultCandidates(), seed, runID)
	ballot := s.Sample()

The tabulation code assumes uniformity; Validator is what checks it:

  - Uniformity: chi-square test of ranking frequencies (p-value via gonum)
  - PairwiseBalance: how often each candidate is ranked above each other
  - Independence: correlation between frequency vectors of consecutive batches
*/
package sampler
