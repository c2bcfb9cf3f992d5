package mutation

import (
	"sort"

	"go.uber.org/zap"

	"github.com/daveytran/roundscheduler-sub000/internal/models"
)

// ReshuffleReferees reassigns referees division by division after a time-slot
// perturbation. The pool per division is the set of referee teams already
// present in that division's matches; no new referees are invented. Slots are
// processed in ascending order, cycling through the pool, then rescanning it
// when the cycle finds nobody, and finally trying any division team in a
// repair pass. A match can end up without a referee; that is logged, not
// fatal.
func (m *Mutator) ReshuffleReferees(s *models.Schedule) {
	for _, d := range presentDivisions(s) {
		m.reshuffleDivision(s, d)
	}
}

func (m *Mutator) reshuffleDivision(s *models.Schedule, d models.Division) {
	matches := s.DivisionMatches(d)
	pool := refereePool(matches)
	if len(pool) == 0 {
		return
	}

	for _, match := range matches {
		match.Referee = nil
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].TimeSlot < matches[j].TimeSlot
	})

	cursor := 0
	var unassigned []*models.Match
	for _, match := range matches {
		assigned := false
		for tries := 0; tries < len(pool); tries++ {
			candidate := pool[cursor%len(pool)]
			cursor++
			if m.eligibleReferee(s, match, candidate) {
				match.Referee = candidate
				assigned = true
				break
			}
		}
		if !assigned {
			// Relaxed rescan ignoring the cycling position.
			for _, candidate := range pool {
				if m.eligibleReferee(s, match, candidate) {
					match.Referee = candidate
					assigned = true
					break
				}
			}
		}
		if !assigned {
			unassigned = append(unassigned, match)
		}
	}

	if len(unassigned) == 0 {
		return
	}

	// Repair pass: any division team free in the slot will do.
	divisionTeams := teamsOf(matches)
	for _, match := range unassigned {
		for _, candidate := range divisionTeams {
			if m.eligibleReferee(s, match, candidate) {
				match.Referee = candidate
				break
			}
		}
		if match.Referee == nil {
			m.logger.Warn("no eligible referee for match",
				zap.String("division", string(d)),
				zap.Int("slot", match.TimeSlot),
				zap.String("team1", match.Team1.Name),
				zap.String("team2", match.Team2.Name))
		}
	}
}

// eligibleReferee checks that the candidate is not a playing side of the
// match and is not playing or refereeing anywhere else in the same slot.
func (m *Mutator) eligibleReferee(s *models.Schedule, match *models.Match, candidate *models.Team) bool {
	if match.Plays(candidate) {
		return false
	}
	for _, other := range s.Matches {
		if other == match || other.TimeSlot != match.TimeSlot {
			continue
		}
		if other.Plays(candidate) || other.Referees(candidate) {
			return false
		}
	}
	return true
}

// refereePool collects the distinct referee teams already present, in
// deterministic order.
func refereePool(matches []*models.Match) []*models.Team {
	seen := make(map[string]bool)
	var pool []*models.Team
	for _, match := range matches {
		if match.Referee == nil || seen[match.Referee.Key()] {
			continue
		}
		seen[match.Referee.Key()] = true
		pool = append(pool, match.Referee)
	}
	sort.Slice(pool, func(i, j int) bool { return pool[i].Key() < pool[j].Key() })
	return pool
}

// teamsOf collects the distinct playing teams of the matches.
func teamsOf(matches []*models.Match) []*models.Team {
	seen := make(map[string]bool)
	var teams []*models.Team
	for _, match := range matches {
		for _, t := range match.Teams() {
			if !seen[t.Key()] {
				seen[t.Key()] = true
				teams = append(teams, t)
			}
		}
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].Key() < teams[j].Key() })
	return teams
}
