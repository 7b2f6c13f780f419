// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rules

import (
	"slices"

	"github.com/danielhkuo/rankvote/models"
)

// TieBreak resolves a tie by picking the smallest candidate id, which is the
// alphabetically first label. tied must not be empty.
func TieBreak(tied []models.CandidateID) models.CandidateID {
	return slices.Min(tied)
}

// best returns the candidates whose value is extreme among those with
// eligible[c] set. When highest is true the largest value wins, else the smallest.
// A nil eligible slice means every candidate is eligible.
func best(values []int, eligible []bool, highest bool) []models.CandidateID {
	var tied []models.CandidateID
	var target int
	for c, v := range values {
		if eligible != nil && !eligible[c] {
			continue
		}
		switch {
		case tied == nil:
			target = v
		case (highest && v > target) || (!highest && v < target):
			target = v
			tied = tied[:0]
		case v != target:
			continue
		}
		tied = append(tied, models.CandidateID(c))
	}
	return tied
}
