package rules

import (
	"fmt"

	"github.com/daveytran/roundscheduler-sub000/internal/models"
)

// ReffingBeforePlaying flags a team that referees a match and then plays in
// the immediately following time slot. Playing first and refereeing after is
// explicitly allowed, so this only looks forward from a refereed slot.
type ReffingBeforePlaying struct {
	base
}

// NewReffingBeforePlaying constructs the rule with the given priority.
func NewReffingBeforePlaying(priority float64) *ReffingBeforePlaying {
	return &ReffingBeforePlaying{base{name: NameReffingBefore, priority: priority}}
}

// Evaluate implements models.Rule.
func (r *ReffingBeforePlaying) Evaluate(s *models.Schedule) []models.Violation {
	bySlot := s.MatchesBySlot()

	var violations []models.Violation
	for _, slot := range s.DistinctSlots() {
		for _, m := range bySlot[slot] {
			if m.Referee == nil {
				continue
			}
			for _, next := range bySlot[slot+1] {
				if next.Special() || !next.Plays(m.Referee) {
					continue
				}
				violations = append(violations, models.Violation{
					Rule:        r.Name(),
					Description: fmt.Sprintf("Team %s referees in slot %d and plays in slot %d", m.Referee.Name, slot, slot+1),
					Matches:     []*models.Match{m, next},
					Level:       models.SeverityNote,
				})
			}
		}
	}
	return violations
}
