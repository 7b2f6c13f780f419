// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package rules implements the single-winner voting rules over complete ranked ballots.

Every rule is a pure function of a ballot set and the candidate count K:

	res := rules.Plurality(ballots, 5)
	all := rules.All(ballots, 5)

Ballots must be permutations of [0, K); models.NewBallot guarantees this and
the tabulator checks the length. Rules never return errors.

# Rules

  - Plurality: most first preferences
  - Borda: K-1-p points for position p; total points are n*K*(K-1)/2
  - Condorcet: beats every other candidate by strict pairwise majority
  - InstantRunoff: eliminate the weakest until a strict majority or one remains

# Ties

TieBreak picks the smallest candidate id. Plurality, Borda and the IRV
elimination step all use it. Condorcet never breaks ties: no winner is a valid
result.

# Empty Ballot Sets

With no ballots Plurality and Borda report a full tie and candidate 0 as
winner. This is a degenerate result kept for compatibility with recorded data,
not a preference. Condorcet and InstantRunoff report no winner.
*/
package rules
