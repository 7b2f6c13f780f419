// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rules

import "github.com/danielhkuo/rankvote/models"

// PointsPerBallot is the number of Borda points one ballot hands out over k candidates.
func PointsPerBallot(k int) int {
	return k * (k - 1) / 2
}

// Borda gives k-1-p points to the candidate at position p of each ballot.
func Borda(ballots []models.Ballot, k int) models.BordaResult {
	scores := make([]int, k)
	for _, b := range ballots {
		for pos := 0; pos < k; pos++ {
			scores[b.At(pos)] += k - 1 - pos
		}
	}

	total := 0
	for _, s := range scores {
		total += s
	}

	tied := best(scores, nil, true)
	return models.BordaResult{
		Winner:              models.Some(TieBreak(tied)),
		Scores:              scores,
		TotalPoints:         total,
		ExpectedTotalPoints: len(ballots) * PointsPerBallot(k),
		Tie:                 len(tied) > 1,
	}
}
