package models

import (
	"fmt"
	"sort"
)

// Schedule owns an ordered collection of matches plus the score and
// violations from the last evaluation. It is the unit of copy, mutation and
// comparison during optimization: operators derive candidates by
// DeepCopy-then-mutate and never share mutable Match instances across copies.
type Schedule struct {
	Matches    []*Match    `json:"matches"`
	Violations []Violation `json:"violations,omitempty"`
	Score      float64     `json:"score"`
}

// NewSchedule builds a schedule from already-resolved match records.
// Malformed input is a construction-time error: the engine does not tolerate
// matches that violate structural rules silently.
func NewSchedule(matches []*Match) (*Schedule, error) {
	for i, m := range matches {
		if m == nil {
			return nil, fmt.Errorf("match %d is nil", i)
		}
		if m.Team1 == nil || m.Team2 == nil {
			return nil, fmt.Errorf("match %d is missing a playing team", i)
		}
		if !m.Division.Valid() {
			return nil, fmt.Errorf("match %d has unknown division %q", i, m.Division)
		}
		if m.Team1.Division != m.Division || m.Team2.Division != m.Division {
			return nil, fmt.Errorf("match %d references a team outside division %q", i, m.Division)
		}
		if m.Referee != nil && (m.Referee.Same(m.Team1) || m.Referee.Same(m.Team2)) {
			return nil, fmt.Errorf("match %d referee %q is a playing side", i, m.Referee.Name)
		}
		if m.Special() && !m.Locked {
			return nil, fmt.Errorf("match %d is a %s activity but not locked", i, m.Activity)
		}
	}
	s := &Schedule{Matches: matches}
	s.SortMatches()
	return s, nil
}

// SortMatches orders matches by ascending time slot. The sort is stable so
// ties keep their import order.
func (s *Schedule) SortMatches() {
	sort.SliceStable(s.Matches, func(i, j int) bool {
		return s.Matches[i].TimeSlot < s.Matches[j].TimeSlot
	})
}

// DeepCopy clones every match so the copy can mutate TimeSlot, Field and
// Referee independently. Team and Player pointers are shared: they are
// immutable reference data, never touched by scheduling.
func (s *Schedule) DeepCopy() *Schedule {
	matches := make([]*Match, len(s.Matches))
	for i, m := range s.Matches {
		matches[i] = m.Clone()
	}
	return &Schedule{Matches: matches, Score: s.Score}
}

// Evaluate scores the schedule against the configured rules. The hard
// double-booking and self-refereeing invariant is always checked first,
// independent of configuration; each configured rule then contributes its
// violation count multiplied by its priority. Lower is better, zero is a
// perfect schedule. The score and violation list are retained on the
// schedule for read-only inspection.
func (s *Schedule) Evaluate(rules []Rule) float64 {
	s.SortMatches()

	violations := s.HardConflicts()
	score := float64(len(violations))

	for _, r := range rules {
		found := r.Evaluate(s)
		score += float64(len(found)) * r.Priority()
		violations = append(violations, found...)
	}

	s.Violations = violations
	s.Score = score
	return score
}

// HasCritical reports whether the last evaluation produced any critical
// violation.
func (s *Schedule) HasCritical() bool {
	for _, v := range s.Violations {
		if v.Level == SeverityCritical {
			return true
		}
	}
	return false
}

// HardConflicts detects violations of the invariants every schedule must
// satisfy regardless of rule configuration: no team plays or referees twice
// in one time slot, no team referees its own game, and no two matches share
// a field in the same slot.
func (s *Schedule) HardConflicts() []Violation {
	var violations []Violation

	bySlot := s.MatchesBySlot()

	for _, slot := range s.DistinctSlots() {
		matches := bySlot[slot]
		roles := make(map[string][]*Match)
		fields := make(map[string][]*Match)
		teams := make(map[string]*Team)

		for _, m := range matches {
			for _, t := range m.Teams() {
				roles[t.Key()] = append(roles[t.Key()], m)
				teams[t.Key()] = t
			}
			if m.Referee != nil {
				roles[m.Referee.Key()] = append(roles[m.Referee.Key()], m)
				teams[m.Referee.Key()] = m.Referee
				if m.Referee.Same(m.Team1) || m.Referee.Same(m.Team2) {
					violations = append(violations, Violation{
						Rule:        "HardConflict",
						Description: fmt.Sprintf("Team %s referees its own game in slot %d", m.Referee.Name, slot),
						Matches:     []*Match{m},
						Level:       SeverityCritical,
					})
				}
			}
			if !m.Special() && m.Field != "" {
				fields[m.Field] = append(fields[m.Field], m)
			}
		}

		for key, involved := range roles {
			if len(involved) > 1 {
				violations = append(violations, Violation{
					Rule:        "HardConflict",
					Description: fmt.Sprintf("Team %s has %d simultaneous assignments in slot %d", teams[key].Name, len(involved), slot),
					Matches:     involved,
					Level:       SeverityCritical,
				})
			}
		}

		for field, involved := range fields {
			if len(involved) > 1 {
				violations = append(violations, Violation{
					Rule:        "HardConflict",
					Description: fmt.Sprintf("%d matches share field %s in slot %d", len(involved), field, slot),
					Matches:     involved,
					Level:       SeverityCritical,
				})
			}
		}
	}

	return violations
}

// MatchesBySlot groups matches by time slot.
func (s *Schedule) MatchesBySlot() map[int][]*Match {
	grouped := make(map[int][]*Match)
	for _, m := range s.Matches {
		grouped[m.TimeSlot] = append(grouped[m.TimeSlot], m)
	}
	return grouped
}

// DistinctSlots returns every occupied time slot in ascending order.
func (s *Schedule) DistinctSlots() []int {
	seen := make(map[int]bool)
	var slots []int
	for _, m := range s.Matches {
		if !seen[m.TimeSlot] {
			seen[m.TimeSlot] = true
			slots = append(slots, m.TimeSlot)
		}
	}
	sort.Ints(slots)
	return slots
}

// RegularSlots returns occupied slots holding no special activity, ascending.
func (s *Schedule) RegularSlots() []int {
	special := make(map[int]bool)
	for _, m := range s.Matches {
		if m.Special() {
			special[m.TimeSlot] = true
		}
	}
	seen := make(map[int]bool)
	var slots []int
	for _, m := range s.Matches {
		if special[m.TimeSlot] || seen[m.TimeSlot] {
			continue
		}
		seen[m.TimeSlot] = true
		slots = append(slots, m.TimeSlot)
	}
	sort.Ints(slots)
	return slots
}

// RegularMatches returns the fixtures, excluding special activities.
func (s *Schedule) RegularMatches() []*Match {
	var matches []*Match
	for _, m := range s.Matches {
		if !m.Special() {
			matches = append(matches, m)
		}
	}
	return matches
}

// Fields returns every distinct field used by regular matches, sorted.
func (s *Schedule) Fields() []string {
	seen := make(map[string]bool)
	var fields []string
	for _, m := range s.Matches {
		if m.Special() || m.Field == "" || seen[m.Field] {
			continue
		}
		seen[m.Field] = true
		fields = append(fields, m.Field)
	}
	sort.Strings(fields)
	return fields
}

// FindFixture locates the schedule's own match denoting the same fixture as
// the given match, or nil when absent.
func (s *Schedule) FindFixture(target *Match) *Match {
	for _, m := range s.Matches {
		if m.SameFixture(target) {
			return m
		}
	}
	return nil
}

// DivisionMatches returns regular matches of the division in schedule order.
func (s *Schedule) DivisionMatches(d Division) []*Match {
	var matches []*Match
	for _, m := range s.Matches {
		if !m.Special() && m.Division == d {
			matches = append(matches, m)
		}
	}
	return matches
}

// Teams returns every distinct team playing or refereeing, keyed by identity.
func (s *Schedule) Teams() map[string]*Team {
	teams := make(map[string]*Team)
	for _, m := range s.Matches {
		for _, t := range m.Teams() {
			teams[t.Key()] = t
		}
		if m.Referee != nil {
			teams[m.Referee.Key()] = m.Referee
		}
	}
	return teams
}

// Players returns every distinct player across all teams, keyed by name.
func (s *Schedule) Players() map[string]*Player {
	players := make(map[string]*Player)
	for _, t := range s.Teams() {
		for _, p := range t.Players {
			players[p.Name] = p
		}
	}
	return players
}
