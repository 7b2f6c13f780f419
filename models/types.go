package models

import (
	"encoding/json"
	"strconv"
)

// Step records

// StepRecord is emitted once per appended ballot. Ballots is the full ballot
// set at that step and must not be modified.
type StepRecord struct {
	RunID     int      `json:"run_id"`
	Step      int      `json:"step"`
	Timestamp float64  `json:"timestamp"`
	Ballots   []Ballot `json:"voter_preferences"`
	Winners   Winners  `json:"winners"`

	Tallies Tallies `json:"-"`
}

// Winners maps each rule to the winning label; nil means no winner.
type Winners struct {
	Plurality *string `json:"plurality"`
	Borda     *string `json:"borda"`
	Condorcet *string `json:"condorcet"`
	IRV       *string `json:"irv"`
}

// NewWinners labels the winners of t using set.
func NewWinners(set CandidateSet, t Tallies) Winners {
	return Winners{
		Plurality: set.LabelOf(t.Plurality.Winner),
		Borda:     set.LabelOf(t.Borda.Winner),
		Condorcet: set.LabelOf(t.Condorcet.Winner),
		IRV:       set.LabelOf(t.IRV.Winner),
	}
}

// Get returns the winner for a rule name.
func (w Winners) Get(rule string) *string {
	switch rule {
	case RulePlurality:
		return w.Plurality
	case RuleBorda:
		return w.Borda
	case RuleCondorcet:
		return w.Condorcet
	case RuleIRV:
		return w.IRV
	}
	return nil
}

// JSON forms of the rule results

func (c NullCandidate) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(int(c.ID))), nil
}

func (c *NullCandidate) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = NullCandidate{}
		return nil
	}
	var id int
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	*c = Some(CandidateID(id))
	return nil
}

func (r PluralityResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Winner NullCandidate `json:"winner"`
		Counts []int         `json:"counts"`
		Tie    bool          `json:"tie"`
	}{r.Winner, r.Counts, r.Tie})
}

func (r BordaResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Winner              NullCandidate `json:"winner"`
		Scores              []int         `json:"scores"`
		TotalPoints         int           `json:"total_points"`
		ExpectedTotalPoints int           `json:"expected_total_points"`
		Tie                 bool          `json:"tie"`
	}{r.Winner, r.Scores, r.TotalPoints, r.ExpectedTotalPoints, r.Tie})
}

func (r CondorcetResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Winner NullCandidate `json:"winner"`
		Wins   [][]int       `json:"wins"`
	}{r.Winner, r.Wins})
}

func (r IRVResult) MarshalJSON() ([]byte, error) {
	order := r.EliminationOrder
	if order == nil {
		order = []CandidateID{}
	}
	return json.Marshal(struct {
		Winner           NullCandidate `json:"winner"`
		Counts           []int         `json:"counts"`
		EliminationOrder []CandidateID `json:"elimination_order"`
		Rounds           int           `json:"rounds"`
	}{r.Winner, r.Counts, order, r.Rounds})
}

func (t Tallies) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Plurality PluralityResult `json:"plurality"`
		Borda     BordaResult     `json:"borda"`
		Condorcet CondorcetResult `json:"condorcet"`
		IRV       IRVResult       `json:"irv"`
	}{t.Plurality, t.Borda, t.Condorcet, t.IRV})
}

// RunInfo describes a recorded simulation run.
type RunInfo struct {
	ID         int      `json:"run_id"`
	Candidates []string `json:"candidates"`
	StartedAt  float64  `json:"started_at"`
	EndedAt    *float64 `json:"ended_at"`
	Steps      int      `json:"steps"`
}

// Request types

type TabulateRequest struct {
	Ballots [][]CandidateID `json:"ballots"`
}

type AppendBallotRequest struct {
	Ranking []CandidateID `json:"ranking"`
}

// Response types

type CandidatesResponse struct {
	Candidates []string `json:"candidates"`
}

type TabulateResponse struct {
	BallotCount int     `json:"ballot_count"`
	Winners     Winners `json:"winners"`
	Tallies     Tallies `json:"tallies"`
}

type CreateSessionResponse struct {
	SessionID  string   `json:"session_id"`
	SessionKey string   `json:"session_key"`
	Candidates []string `json:"candidates"`
}

// StepResponse is a step record of a progressive session plus its tallies.
type StepResponse struct {
	SessionID string `json:"session_id"`
	StepRecord
	Results Tallies `json:"tallies"`
}

type RunsResponse struct {
	Runs []RunInfo `json:"runs"`
}

type RunStepsResponse struct {
	RunID int          `json:"run_id"`
	Steps []StepRecord `json:"steps"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
