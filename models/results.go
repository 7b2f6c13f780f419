// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

// Rule names as they appear in step records and metrics labels.
const (
	RulePlurality = "plurality"
	RuleBorda     = "borda"
	RuleCondorcet = "condorcet"
	RuleIRV       = "irv"
)

// RuleNames lists the rules in record order.
var RuleNames = []string{RulePlurality, RuleBorda, RuleCondorcet, RuleIRV}

type PluralityResult struct {
	Winner NullCandidate
	Counts []int
	Tie    bool
}

type BordaResult struct {
	Winner              NullCandidate
	Scores              []int
	TotalPoints         int
	ExpectedTotalPoints int
	Tie                 bool
}

// CondorcetResult carries the pairwise matrix; Wins[a][b] is the number of
// ballots ranking a above b.
type CondorcetResult struct {
	Winner NullCandidate
	Wins   [][]int
}

// IRVResult carries the counts of the final round and the order in which
// candidates were eliminated.
type IRVResult struct {
	Winner           NullCandidate
	Counts           []int
	EliminationOrder []CandidateID
	Rounds           int
}

// Tallies bundles the results of all four rules over one ballot set.
type Tallies struct {
	Plurality PluralityResult
	Borda     BordaResult
	Condorcet CondorcetResult
	IRV       IRVResult
}

// Winners returns the winner of each rule keyed by rule name.
func (t Tallies) Winners() map[string]NullCandidate {
	return map[string]NullCandidate{
		RulePlurality: t.Plurality.Winner,
		RuleBorda:     t.Borda.Winner,
		RuleCondorcet: t.Condorcet.Winner,
		RuleIRV:       t.IRV.Winner,
	}
}
