// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrInvalidBallot     = errors.New("invalid ballot")
	ErrInvalidCandidates = errors.New("invalid candidate set")
)

// CandidateID indexes a candidate in [0, K). Lower ids win ties.
type CandidateID int

// NullCandidate is a CandidateID that may be absent, in the style of sql.NullString.
type NullCandidate struct {
	ID    CandidateID
	Valid bool
}

// Some returns a present NullCandidate.
func Some(id CandidateID) NullCandidate {
	return NullCandidate{ID: id, Valid: true}
}

// CandidateSet holds the display labels of the K candidates of an election.
type CandidateSet struct {
	labels []string
}

// NewCandidateSet validates labels: at least two, non-empty, unique and in
// strictly ascending order so that id order matches alphabetical order.
func NewCandidateSet(labels ...string) (CandidateSet, error) {
	if len(labels) < 2 {
		return CandidateSet{}, fmt.Errorf("%w: need at least 2 candidates, got %d", ErrInvalidCandidates, len(labels))
	}
	for i, l := range labels {
		if l == "" {
			return CandidateSet{}, fmt.Errorf("%w: empty label at %d", ErrInvalidCandidates, i)
		}
		if i > 0 && labels[i-1] >= l {
			return CandidateSet{}, fmt.Errorf("%w: labels must be unique and ascending (%q before %q)", ErrInvalidCandidates, labels[i-1], l)
		}
	}
	return CandidateSet{labels: append([]string(nil), labels...)}, nil
}

// DefaultCandidates returns the five-candidate set A..E.
func DefaultCandidates() CandidateSet {
	return CandidateSet{labels: []string{"A", "B", "C", "D", "E"}}
}

// Size returns K.
func (s CandidateSet) Size() int {
	return len(s.labels)
}

// Label returns the display label of id, or "" if id is out of range.
func (s CandidateSet) Label(id CandidateID) string {
	if id < 0 || int(id) >= len(s.labels) {
		return ""
	}
	return s.labels[id]
}

// Labels returns a copy of all labels in id order.
func (s CandidateSet) Labels() []string {
	return append([]string(nil), s.labels...)
}

// LabelOf converts an optional winner to an optional label.
func (s CandidateSet) LabelOf(c NullCandidate) *string {
	if !c.Valid {
		return nil
	}
	l := s.Label(c.ID)
	return &l
}

// Ballot is one voter's strict ranking of all candidates; index 0 is the most
// preferred. The zero value is an empty ballot and is never produced by NewBallot.
type Ballot struct {
	ranking []CandidateID
}

// NewBallot validates that ranking is a permutation of [0, len(ranking)).
func NewBallot(ranking []CandidateID) (Ballot, error) {
	k := len(ranking)
	if k == 0 {
		return Ballot{}, fmt.Errorf("%w: empty ranking", ErrInvalidBallot)
	}
	seen := make([]bool, k)
	for pos, c := range ranking {
		if c < 0 || int(c) >= k {
			return Ballot{}, fmt.Errorf("%w: candidate %d at position %d out of range [0,%d)", ErrInvalidBallot, c, pos, k)
		}
		if seen[c] {
			return Ballot{}, fmt.Errorf("%w: candidate %d repeated", ErrInvalidBallot, c)
		}
		seen[c] = true
	}
	return Ballot{ranking: append([]CandidateID(nil), ranking...)}, nil
}

// MustBallot is NewBallot for fixed, known-good rankings. It panics on error.
func MustBallot(ranking ...CandidateID) Ballot {
	b, err := NewBallot(ranking)
	if err != nil {
		panic(err)
	}
	return b
}

// Len returns the number of candidates ranked.
func (b Ballot) Len() int {
	return len(b.ranking)
}

// At returns the candidate ranked at position pos.
func (b Ballot) At(pos int) CandidateID {
	return b.ranking[pos]
}

// Top returns the most preferred candidate.
func (b Ballot) Top() CandidateID {
	return b.ranking[0]
}

// Ranking returns a copy of the ranking.
func (b Ballot) Ranking() []CandidateID {
	return append([]CandidateID(nil), b.ranking...)
}

// Positions returns pos where pos[c] is the rank position of candidate c.
func (b Ballot) Positions() []int {
	pos := make([]int, len(b.ranking))
	for p, c := range b.ranking {
		pos[c] = p
	}
	return pos
}

func (b Ballot) MarshalJSON() ([]byte, error) {
	if b.ranking == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(b.ranking)
}

func (b *Ballot) UnmarshalJSON(data []byte) error {
	var ranking []CandidateID
	if err := json.Unmarshal(data, &ranking); err != nil {
		return err
	}
	nb, err := NewBallot(ranking)
	if err != nil {
		return err
	}
	*b = nb
	return nil
}
