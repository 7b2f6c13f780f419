// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package sampler

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/danielhkuo/rankvote/models"
)

// MaxCandidates bounds K so the permutation table stays small (8! = 40320).
const MaxCandidates = 8

var ErrTooManyCandidates = errors.New("too many candidates for a permutation table")

// Sampler draws ballots uniformly from all K! strict rankings.
// A Sampler is not safe for concurrent use.
type Sampler struct {
	perms []models.Ballot
	rng   *rand.Rand
}

// New builds a sampler over the rankings of set. seed and stream select an
// independent PCG stream, so the same pair always yields the same ballots.
func New(set models.CandidateSet, seed, stream uint64) (*Sampler, error) {
	k := set.Size()
	if k > MaxCandidates {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyCandidates, k, MaxCandidates)
	}
	return &Sampler{
		perms: Permutations(k),
		rng:   rand.New(rand.NewPCG(seed, stream)),
	}, nil
}

// ForRun returns the sampler of one simulation run. Each run gets its own
// stream so runs can execute in any order and still reproduce.
func ForRun(set models.CandidateSet, seed uint64, runID int) (*Sampler, error) {
	return New(set, seed, uint64(runID))
}

// Size returns the number of distinct rankings, K!.
func (s *Sampler) Size() int {
	return len(s.perms)
}

// Draw returns the index of a uniformly chosen ranking.
func (s *Sampler) Draw() int {
	return s.rng.IntN(len(s.perms))
}

// Ranking returns the ranking at a table index.
func (s *Sampler) Ranking(i int) models.Ballot {
	return s.perms[i]
}

// Sample returns one uniformly random ballot.
func (s *Sampler) Sample() models.Ballot {
	return s.perms[s.Draw()]
}

// SampleN returns n independent ballots.
func (s *Sampler) SampleN(n int) []models.Ballot {
	out := make([]models.Ballot, n)
	for i := range out {
		out[i] = s.Sample()
	}
	return out
}

// Permutations lists every ranking of k candidates in lexicographic order.
func Permutations(k int) []models.Ballot {
	var out []models.Ballot
	used := make([]bool, k)
	cur := make([]models.CandidateID, 0, k)

	var walk func()
	walk = func() {
		if len(cur) == k {
			out = append(out, models.MustBallot(cur...))
			return
		}
		for c := 0; c < k; c++ {
			if used[c] {
				continue
			}
			used[c] = true
			cur = append(cur, models.CandidateID(c))
			walk()
			cur = cur[:len(cur)-1]
			used[c] = false
		}
	}
	walk()
	return out
}
