// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package sampler

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// UniformityReport is a chi-square goodness-of-fit test of ranking frequencies
// against the uniform distribution.
type UniformityReport struct {
	Samples          int     `json:"num_samples"`
	Counts           []int   `json:"counts"`
	ExpectedPerPerm  float64 `json:"expected_per_perm"`
	Min              int     `json:"min"`
	Max              int     `json:"max"`
	ChiSquare        float64 `json:"chi_square_stat"`
	DegreesOfFreedom int     `json:"degrees_of_freedom"`
	PValue           float64 `json:"p_value"`
}

// PairBalance counts how often a is ranked above b and the reverse.
type PairBalance struct {
	AOverB int     `json:"a_over_b"`
	BOverA int     `json:"b_over_a"`
	RatioA float64 `json:"ratio_a"`
}

// IndependenceReport summarizes the Pearson correlation between ranking
// frequency vectors of consecutive batches.
type IndependenceReport struct {
	Runs     int     `json:"total_runs"`
	PerRun   int     `json:"per_run"`
	MeanCorr float64 `json:"mean_corr"`
	MaxCorr  float64 `json:"max_corr"`
	MinCorr  float64 `json:"min_corr"`
}

// Validator runs statistical checks against a Sampler. It consumes draws from
// the sampler's stream.
type Validator struct {
	Sampler *Sampler
}

func (v Validator) counts(samples int) []int {
	counts := make([]int, v.Sampler.Size())
	for i := 0; i < samples; i++ {
		counts[v.Sampler.Draw()]++
	}
	return counts
}

// Uniformity draws samples rankings and tests them against uniform frequencies.
// With no samples the report is empty.
func (v Validator) Uniformity(samples int) UniformityReport {
	if samples < 1 {
		return UniformityReport{Samples: samples}
	}
	counts := v.counts(samples)
	expected := float64(samples) / float64(len(counts))

	chi := 0.0
	lo, hi := counts[0], counts[0]
	for _, c := range counts {
		d := float64(c) - expected
		chi += d * d / expected
		lo = min(lo, c)
		hi = max(hi, c)
	}
	df := len(counts) - 1

	return UniformityReport{
		Samples:          samples,
		Counts:           counts,
		ExpectedPerPerm:  expected,
		Min:              lo,
		Max:              hi,
		ChiSquare:        chi,
		DegreesOfFreedom: df,
		PValue:           distuv.ChiSquared{K: float64(df)}.Survival(chi),
	}
}

// PairwiseBalance samples ballots and counts, for every pair a < b, how often
// a is ranked above b. Keys are "a-b".
func (v Validator) PairwiseBalance(samples int) map[string]PairBalance {
	k := v.Sampler.Ranking(0).Len()
	above := make([][]int, k)
	for a := range above {
		above[a] = make([]int, k)
	}
	for i := 0; i < samples; i++ {
		pos := v.Sampler.Sample().Positions()
		for a := 0; a < k; a++ {
			for b := a + 1; b < k; b++ {
				if pos[a] < pos[b] {
					above[a][b]++
				}
			}
		}
	}

	out := make(map[string]PairBalance, k*(k-1)/2)
	for a := 0; a < k; a++ {
		for b := a + 1; b < k; b++ {
			ab := above[a][b]
			out[fmt.Sprintf("%d-%d", a, b)] = PairBalance{
				AOverB: ab,
				BOverA: samples - ab,
				RatioA: float64(ab) / float64(max(samples, 1)),
			}
		}
	}
	return out
}

// Independence draws runs batches of perRun rankings and correlates the
// normalized frequency vectors of each batch with the previous one.
func (v Validator) Independence(runs, perRun int) IndependenceReport {
	report := IndependenceReport{Runs: runs, PerRun: perRun}
	if runs < 2 || perRun < 1 {
		return report
	}

	var prev []float64
	var corrs []float64
	for r := 0; r < runs; r++ {
		counts := v.counts(perRun)
		freq := make([]float64, len(counts))
		for i, c := range counts {
			freq[i] = float64(c) / float64(perRun)
		}
		if prev != nil {
			corrs = append(corrs, stat.Correlation(prev, freq, nil))
		}
		prev = freq
	}

	report.MeanCorr = stat.Mean(corrs, nil)
	report.MaxCorr = floats.Max(corrs)
	report.MinCorr = floats.Min(corrs)
	return report
}
