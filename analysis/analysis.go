// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package analysis

import (
	"fmt"
	"maps"
	"slices"

	"github.com/danielhkuo/rankvote/models"
	"github.com/danielhkuo/rankvote/rules"
)

// Run is what the aggregate statistics need from a recorded run: the winners
// at every step, in step order, and the ballots of the final step.
type Run struct {
	ID      int
	Winners []models.Winners
	Final   []models.Ballot
}

// RunFromSteps condenses full step records.
func RunFromSteps(runID int, steps []models.StepRecord) Run {
	run := Run{ID: runID, Winners: make([]models.Winners, len(steps))}
	for i, s := range steps {
		run.Winners[i] = s.Winners
	}
	if n := len(steps); n > 0 {
		run.Final = steps[n-1].Ballots
	}
	return run
}

type RuleAgreement struct {
	AgreeAny float64 `json:"agree_any"`
	AgreeAll float64 `json:"agree_all"`
}

type WinnerVolatility struct {
	AvgChangesPerRun float64 `json:"avg_changes_per_run"`
}

// AggregateStats is written to analysis/aggregate_stats.json.
type AggregateStats struct {
	Runs                int                 `json:"runs"`
	Steps               int                 `json:"steps"`
	CondorcetRateByStep map[int]float64     `json:"condorcet_rate_by_step"`
	RuleAgreement       RuleAgreement       `json:"rule_agreement"`
	WinnerVolatility    WinnerVolatility    `json:"winner_volatility"`
	WinnerShare         map[string]RuleWins `json:"winner_share"`
}

// RuleWins counts final-step winners of one rule by label; "none" counts runs
// without a winner.
type RuleWins map[string]int

// Features is written to data/processed/features.json. Row i describes the
// final step of run RunIDs[i]: plurality counts followed by Borda scores, and
// the plurality, borda, condorcet and irv winners.
type Features struct {
	RunIDs   []int       `json:"run_ids"`
	Features [][]int     `json:"features"`
	Labels   [][]*string `json:"labels"`
}

// Metadata is written to data/processed/metadata.json.
type Metadata struct {
	Note       string   `json:"note"`
	Candidates []string `json:"candidates"`
	Runs       int      `json:"runs"`
}

// Aggregator accumulates statistics over runs added in any order.
type Aggregator struct {
	candidates models.CandidateSet

	runs  int
	steps int

	condorcetHits   []int
	condorcetTotals []int

	agreeAny int
	agreeAll int

	changes int

	finalWins map[string]RuleWins
	features  map[int]featureRow
}

type featureRow struct {
	features []int
	labels   []*string
}

func NewAggregator(candidates models.CandidateSet) *Aggregator {
	a := &Aggregator{
		candidates: candidates,
		finalWins:  make(map[string]RuleWins),
		features:   make(map[int]featureRow),
	}
	for _, rule := range models.RuleNames {
		a.finalWins[rule] = RuleWins{}
	}
	return a
}

// Add folds one run into the statistics. Runs without steps count as runs but
// contribute nothing else.
func (a *Aggregator) Add(run Run) error {
	k := a.candidates.Size()
	for i, b := range run.Final {
		if b.Len() != k {
			return fmt.Errorf("run %d: final ballot %d ranks %d candidates, want %d", run.ID, i, b.Len(), k)
		}
	}

	a.runs++
	if len(run.Winners) > len(a.condorcetTotals) {
		n := len(run.Winners)
		a.condorcetHits = append(a.condorcetHits, make([]int, n-len(a.condorcetHits))...)
		a.condorcetTotals = append(a.condorcetTotals, make([]int, n-len(a.condorcetTotals))...)
	}

	var prev *models.Winners
	for i, w := range run.Winners {
		a.steps++
		a.condorcetTotals[i]++
		if w.Condorcet != nil {
			a.condorcetHits[i]++
		}

		distinct := distinctWinners(w)
		if distinct.count <= 3 {
			a.agreeAny++
		}
		if distinct.count == 1 && distinct.nonNull >= 2 {
			a.agreeAll++
		}

		if prev != nil && !sameWinners(*prev, w) {
			a.changes++
		}
		prev = &run.Winners[i]
	}

	if len(run.Winners) == 0 {
		return nil
	}

	last := run.Winners[len(run.Winners)-1]
	for _, rule := range models.RuleNames {
		label := "none"
		if w := last.Get(rule); w != nil {
			label = *w
		}
		a.finalWins[rule][label]++
	}

	pl := rules.Plurality(run.Final, k)
	bd := rules.Borda(run.Final, k)
	a.features[run.ID] = featureRow{
		features: append(slices.Clone(pl.Counts), bd.Scores...),
		labels:   []*string{last.Plurality, last.Borda, last.Condorcet, last.IRV},
	}
	return nil
}

type distinct struct {
	count   int
	nonNull int
}

func distinctWinners(w models.Winners) distinct {
	seen := make(map[string]bool, 4)
	var d distinct
	for _, rule := range models.RuleNames {
		if v := w.Get(rule); v != nil {
			d.nonNull++
			seen[*v] = true
		}
	}
	d.count = len(seen)
	return d
}

func sameWinners(a, b models.Winners) bool {
	for _, rule := range models.RuleNames {
		x, y := a.Get(rule), b.Get(rule)
		if (x == nil) != (y == nil) || (x != nil && *x != *y) {
			return false
		}
	}
	return true
}

// CondorcetRateByStep returns, for every step reached by some run, the
// fraction of runs reaching it that had a Condorcet winner there.
func (a *Aggregator) CondorcetRateByStep() map[int]float64 {
	out := make(map[int]float64, len(a.condorcetTotals))
	for i, total := range a.condorcetTotals {
		rate := 0.0
		if total > 0 {
			rate = float64(a.condorcetHits[i]) / float64(total)
		}
		out[i+1] = rate
	}
	return out
}

// RuleAgreement returns, over all steps, the fraction where the non-null
// winners name at most three distinct candidates (AgreeAny) and the fraction
// where at least two rules decided and all of them agree (AgreeAll).
func (a *Aggregator) RuleAgreement() RuleAgreement {
	if a.steps == 0 {
		return RuleAgreement{}
	}
	return RuleAgreement{
		AgreeAny: float64(a.agreeAny) / float64(a.steps),
		AgreeAll: float64(a.agreeAll) / float64(a.steps),
	}
}

// WinnerVolatility is the number of steps whose winner tuple differs from the
// previous step of the same run, divided by the number of steps.
func (a *Aggregator) WinnerVolatility() WinnerVolatility {
	return WinnerVolatility{AvgChangesPerRun: float64(a.changes) / float64(max(a.steps, 1))}
}

func (a *Aggregator) Stats() AggregateStats {
	share := make(map[string]RuleWins, len(a.finalWins))
	for rule, wins := range a.finalWins {
		share[rule] = maps.Clone(wins)
	}
	return AggregateStats{
		Runs:                a.runs,
		Steps:               a.steps,
		CondorcetRateByStep: a.CondorcetRateByStep(),
		RuleAgreement:       a.RuleAgreement(),
		WinnerVolatility:    a.WinnerVolatility(),
		WinnerShare:         share,
	}
}

// Features returns one row per run with steps, ordered by run id.
func (a *Aggregator) Features() Features {
	ids := slices.Sorted(maps.Keys(a.features))
	f := Features{
		RunIDs:   ids,
		Features: make([][]int, 0, len(ids)),
		Labels:   make([][]*string, 0, len(ids)),
	}
	for _, id := range ids {
		row := a.features[id]
		f.Features = append(f.Features, row.features)
		f.Labels = append(f.Labels, row.labels)
	}
	return f
}

func (a *Aggregator) Metadata() Metadata {
	k := a.candidates.Size()
	return Metadata{
		Note:       fmt.Sprintf("features are [plurality_counts(%d) + borda_scores(%d)]", k, k),
		Candidates: a.candidates.Labels(),
		Runs:       len(a.features),
	}
}
