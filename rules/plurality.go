// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rules

import "github.com/danielhkuo/rankvote/models"

// Plurality counts first preferences. The winner is always defined: with no
// ballots every candidate ties at zero and candidate 0 wins the tie-break.
func Plurality(ballots []models.Ballot, k int) models.PluralityResult {
	counts := make([]int, k)
	for _, b := range ballots {
		counts[b.Top()]++
	}

	tied := best(counts, nil, true)
	return models.PluralityResult{
		Winner: models.Some(TieBreak(tied)),
		Counts: counts,
		Tie:    len(tied) > 1,
	}
}
