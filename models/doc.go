// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines the domain, record, request and response types.

# Domain Types

  - CandidateID: candidate index in [0, K); lower ids win ties
  - CandidateSet: display labels, ascending so id order is alphabetical
  - Ballot: immutable strict ranking, validated by NewBallot
  - NullCandidate: optional winner ({ID, Valid}, like sql.NullString)

Ballots are permutations of [0, K). Anything else is rejected at
construction with ErrInvalidBallot:

	b, err := models.NewBallot([]models.CandidateID{0, 1, 2, 3, 4})

# Rule Results

  - PluralityResult: first-place counts, tie flag
  - BordaResult: scores, total and expected total points, tie flag
  - CondorcetResult: pairwise win matrix
  - IRVResult: final-round counts, elimination order, rounds
  - Tallies: all four together

A missing winner is NullCandidate{Valid: false} and serializes as null.

# Step Records

StepRecord is the per-step output of a progressive tabulation:

	{"run_id": 1, "step": 3, "timestamp": 1700000000.5,
	 "voter_preferences": [[0,1,2,3,4], ...],
	 "winners": {"plurality": "A", "borda": "A", "condorcet": null, "irv": "B"}}

# Request and Response Types

  - TabulateRequest / TabulateResponse: one-shot tabulation
  - AppendBallotRequest / StepResponse: progressive sessions
  - CreateSessionResponse: session_id, session_key, candidates
  - RunStepsResponse: recorded steps of a simulation run
  - ErrorResponse: error, message

# Constants

Rule names:

	RulePlurality = "plurality"
	RuleBorda     = "borda"
	RuleCondorcet = "condorcet"
	RuleIRV       = "irv"
*/
package models
