// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rules

import "github.com/danielhkuo/rankvote/models"

// All runs every rule over the same ballot set. Each rule is computed from
// scratch; nothing is shared between rules or between calls.
func All(ballots []models.Ballot, k int) models.Tallies {
	return models.Tallies{
		Plurality: Plurality(ballots, k),
		Borda:     Borda(ballots, k),
		Condorcet: Condorcet(ballots, k),
		IRV:       InstantRunoff(ballots, k),
	}
}
