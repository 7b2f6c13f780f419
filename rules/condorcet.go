// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rules

import "github.com/danielhkuo/rankvote/models"

// PairwiseWins builds the k x k matrix where wins[a][b] counts the ballots
// ranking a above b. The diagonal is zero.
func PairwiseWins(ballots []models.Ballot, k int) [][]int {
	wins := make([][]int, k)
	for a := range wins {
		wins[a] = make([]int, k)
	}
	for _, b := range ballots {
		// Walking the ranking top-down, each candidate beats everyone after it.
		for i := 0; i < k; i++ {
			a := b.At(i)
			for j := i + 1; j < k; j++ {
				wins[a][b.At(j)]++
			}
		}
	}
	return wins
}

// Condorcet finds the candidate that beats every other candidate by a strict
// pairwise majority. A cycle or a pairwise tie leaves no winner; that outcome
// is final and is not tie-broken.
func Condorcet(ballots []models.Ballot, k int) models.CondorcetResult {
	wins := PairwiseWins(ballots, k)

	var beatsAll []models.CandidateID
	for a := 0; a < k; a++ {
		if beatsEveryone(wins, a) {
			beatsAll = append(beatsAll, models.CandidateID(a))
		}
	}

	var winner models.NullCandidate
	if len(beatsAll) == 1 {
		winner = models.Some(beatsAll[0])
	}
	return models.CondorcetResult{Winner: winner, Wins: wins}
}

func beatsEveryone(wins [][]int, a int) bool {
	for b := range wins {
		if b != a && wins[a][b] <= wins[b][a] {
			return false
		}
	}
	return true
}
