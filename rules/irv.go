// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rules

import "github.com/danielhkuo/rankvote/models"

// runoff is the working state of one instant-runoff tabulation.
type runoff struct {
	ballots []models.Ballot
	k       int
	active  []bool
	left    int
	order   []models.CandidateID
	rounds  int
}

// tally counts each ballot's highest ranked active candidate.
func (r *runoff) tally() (counts []int, total int) {
	counts = make([]int, r.k)
	for _, b := range r.ballots {
		for pos := 0; pos < b.Len(); pos++ {
			if c := b.At(pos); r.active[c] {
				counts[c]++
				total++
				break
			}
		}
	}
	return counts, total
}

// majority returns the active candidate holding more than half of total.
func (r *runoff) majority(counts []int, total int) (models.CandidateID, bool) {
	for c, n := range counts {
		if r.active[c] && n*2 > total {
			return models.CandidateID(c), true
		}
	}
	return 0, false
}

func (r *runoff) eliminate(counts []int) {
	loser := TieBreak(best(counts, r.active, false))
	r.active[loser] = false
	r.left--
	r.order = append(r.order, loser)
}

// InstantRunoff repeatedly eliminates the active candidate with the fewest
// first preferences until one candidate holds a strict majority of the active
// votes or is the last one standing. Each round without a winner removes one
// candidate, so at most k-1 eliminations happen.
//
// Terminal conditions, checked in order:
//  1. majority: some count*2 > total active votes
//  2. exhaustion: no ballot ranks an active candidate (only with no ballots)
//  3. last standing: one active candidate remains after an elimination
func InstantRunoff(ballots []models.Ballot, k int) models.IRVResult {
	r := &runoff{
		ballots: ballots,
		k:       k,
		active:  make([]bool, k),
		left:    k,
		order:   []models.CandidateID{},
	}
	for c := range r.active {
		r.active[c] = true
	}

	for {
		r.rounds++
		counts, total := r.tally()

		if winner, ok := r.majority(counts, total); ok {
			return r.result(models.Some(winner), counts)
		}
		if total == 0 {
			return r.result(models.NullCandidate{}, counts)
		}

		r.eliminate(counts)
		if r.left == 1 {
			return r.result(models.Some(r.lastStanding()), counts)
		}
	}
}

func (r *runoff) lastStanding() models.CandidateID {
	for c, ok := range r.active {
		if ok {
			return models.CandidateID(c)
		}
	}
	panic("rules: no active candidate left")
}

func (r *runoff) result(winner models.NullCandidate, counts []int) models.IRVResult {
	return models.IRVResult{
		Winner:           winner,
		Counts:           counts,
		EliminationOrder: r.order,
		Rounds:           r.rounds,
	}
}
