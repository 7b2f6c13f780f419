// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package sampler

import (
	"encoding/json"
	"errors"
	"slices"
	"testing"

	"github.com/danielhkuo/rankvote/models"
)

func TestPermutations(t *testing.T) {
	tests := []struct {
		k    int
		want int
	}{
		{2, 2},
		{3, 6},
		{5, 120},
	}

	for _, tt := range tests {
		perms := Permutations(tt.k)
		if len(perms) != tt.want {
			t.Fatalf("k=%d: expected %d permutations, got %d", tt.k, tt.want, len(perms))
		}

		seen := make(map[string]bool)
		for _, p := range perms {
			key := string(mustJSON(t, p))
			if seen[key] {
				t.Fatalf("k=%d: duplicate permutation %s", tt.k, key)
			}
			seen[key] = true
		}
	}

	perms := Permutations(3)
	if !slices.Equal(perms[0].Ranking(), []models.CandidateID{0, 1, 2}) {
		t.Errorf("Expected first permutation [0 1 2], got %v", perms[0].Ranking())
	}
	if !slices.Equal(perms[5].Ranking(), []models.CandidateID{2, 1, 0}) {
		t.Errorf("Expected last permutation [2 1 0], got %v", perms[5].Ranking())
	}
}

func mustJSON(t *testing.T, b models.Ballot) []byte {
	t.Helper()
	data, err := b.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestSamplerIsReproducible(t *testing.T) {
	set := models.DefaultCandidates()
	s1, err := ForRun(set, 123, 4)
	if err != nil {
		t.Fatal(err)
	}
	s2, err := ForRun(set, 123, 4)
	if err != nil {
		t.Fatal(err)
	}
	s3, err := ForRun(set, 123, 5)
	if err != nil {
		t.Fatal(err)
	}

	a, b, c := s1.SampleN(50), s2.SampleN(50), s3.SampleN(50)
	same := true
	for i := range a {
		if !slices.Equal(a[i].Ranking(), b[i].Ranking()) {
			t.Fatalf("Same seed and run diverged at ballot %d", i)
		}
		if !slices.Equal(a[i].Ranking(), c[i].Ranking()) {
			same = false
		}
	}
	if same {
		t.Error("Different runs produced identical ballot streams")
	}
}

func TestSamplerRejectsLargeCandidateSets(t *testing.T) {
	set, err := models.NewCandidateSet("a", "b", "c", "d", "e", "f", "g", "h", "i")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := New(set, 1, 1); !errors.Is(err, ErrTooManyCandidates) {
		t.Fatalf("Expected ErrTooManyCandidates, got %v", err)
	}
}

func TestUniformity(t *testing.T) {
	s, err := New(models.DefaultCandidates(), 2024, 0)
	if err != nil {
		t.Fatal(err)
	}
	report := Validator{Sampler: s}.Uniformity(120_000)

	if report.DegreesOfFreedom != 119 {
		t.Errorf("Expected 119 degrees of freedom, got %d", report.DegreesOfFreedom)
	}
	if report.ExpectedPerPerm != 1000 {
		t.Errorf("Expected 1000 per permutation, got %f", report.ExpectedPerPerm)
	}
	total := 0
	for _, c := range report.Counts {
		total += c
	}
	if total != 120_000 {
		t.Errorf("Counts sum to %d", total)
	}
	// A fair generator lands far from both tails; this is a loose sanity bound.
	if report.PValue < 1e-6 || report.PValue > 1 {
		t.Errorf("Implausible p-value %g (chi-square %f)", report.PValue, report.ChiSquare)
	}
	if report.Min > report.Max {
		t.Errorf("Min %d above max %d", report.Min, report.Max)
	}
}

func TestUniformityWithoutSamples(t *testing.T) {
	s, err := New(models.DefaultCandidates(), 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range []int{0, -5} {
		report := Validator{Sampler: s}.Uniformity(n)
		if report.Counts != nil || report.ChiSquare != 0 {
			t.Errorf("Uniformity(%d): expected an empty report, got %+v", n, report)
		}
		if _, err := json.Marshal(report); err != nil {
			t.Errorf("Uniformity(%d): report does not encode: %v", n, err)
		}
	}
}

func TestPairwiseBalance(t *testing.T) {
	s, err := New(models.DefaultCandidates(), 7, 0)
	if err != nil {
		t.Fatal(err)
	}
	balance := Validator{Sampler: s}.PairwiseBalance(20_000)

	if len(balance) != 10 {
		t.Fatalf("Expected 10 pairs, got %d", len(balance))
	}
	for pair, b := range balance {
		if b.AOverB+b.BOverA != 20_000 {
			t.Errorf("%s: counts sum to %d", pair, b.AOverB+b.BOverA)
		}
		if b.RatioA < 0.45 || b.RatioA > 0.55 {
			t.Errorf("%s: ratio %f is far from 0.5", pair, b.RatioA)
		}
	}
}

func TestIndependence(t *testing.T) {
	s, err := New(models.DefaultCandidates(), 99, 0)
	if err != nil {
		t.Fatal(err)
	}
	report := Validator{Sampler: s}.Independence(10, 1000)

	if report.MinCorr > report.MeanCorr || report.MeanCorr > report.MaxCorr {
		t.Errorf("Expected min <= mean <= max, got %f %f %f", report.MinCorr, report.MeanCorr, report.MaxCorr)
	}
	if report.MaxCorr > 0.6 {
		t.Errorf("Consecutive batches look correlated: max %f", report.MaxCorr)
	}
}
