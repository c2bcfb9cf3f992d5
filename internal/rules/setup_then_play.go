package rules

import (
	"fmt"

	"github.com/daveytran/roundscheduler-sub000/internal/models"
)

// SetupThenPlay flags a team that performs setup and then plays in the very
// next time slot. Setup crews need the first period free; this rule is
// configured at maximum priority by default and its findings are critical.
type SetupThenPlay struct {
	base
}

// NewSetupThenPlay constructs the rule with the given priority.
func NewSetupThenPlay(priority float64) *SetupThenPlay {
	return &SetupThenPlay{base{name: NameSetupThenPlay, priority: priority}}
}

// Evaluate implements models.Rule.
func (r *SetupThenPlay) Evaluate(s *models.Schedule) []models.Violation {
	bySlot := s.MatchesBySlot()

	var violations []models.Violation
	for _, setup := range s.Matches {
		if setup.Activity != models.ActivitySetup {
			continue
		}
		for _, team := range setup.Teams() {
			for _, next := range bySlot[setup.TimeSlot+1] {
				if next.Special() || !next.Plays(team) {
					continue
				}
				violations = append(violations, models.Violation{
					Rule:        r.Name(),
					Description: fmt.Sprintf("Team %s performs setup in slot %d and plays in slot %d", team.Name, setup.TimeSlot, next.TimeSlot),
					Matches:     []*models.Match{setup, next},
					Level:       models.SeverityCritical,
				})
			}
		}
	}
	return violations
}
