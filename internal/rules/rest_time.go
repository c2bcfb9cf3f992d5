package rules

import (
	"fmt"

	"github.com/daveytran/roundscheduler-sub000/internal/models"
)

// RestTime checks the gap, in slots, between a player's consecutive matches.
// Gaps below the configured minimum are insufficient rest (note level); gaps
// above the maximum leave players idle too long (warning level).
type RestTime struct {
	base
	minRestSlots int
	maxGapSlots  int
}

// NewRestTime constructs the rule. minRestSlots is the smallest acceptable
// slot delta between consecutive games; maxGapSlots the largest.
func NewRestTime(priority float64, minRestSlots, maxGapSlots int) *RestTime {
	return &RestTime{
		base:         base{name: NameRestTime, priority: priority},
		minRestSlots: minRestSlots,
		maxGapSlots:  maxGapSlots,
	}
}

// Evaluate implements models.Rule.
func (r *RestTime) Evaluate(s *models.Schedule) []models.Violation {
	var violations []models.Violation
	for _, player := range sortedPlayers(s) {
		slots := playerPlayingSlots(s, player)
		for i := 1; i < len(slots); i++ {
			gap := slots[i] - slots[i-1]
			switch {
			case gap < r.minRestSlots:
				violations = append(violations, models.Violation{
					Rule:        r.Name(),
					Description: fmt.Sprintf("Player %s has insufficient rest between slots %d and %d", player.Name, slots[i-1], slots[i]),
					Level:       models.SeverityNote,
				})
			case gap > r.maxGapSlots:
				violations = append(violations, models.Violation{
					Rule:        r.Name(),
					Description: fmt.Sprintf("Player %s waits %d slots between slots %d and %d", player.Name, gap, slots[i-1], slots[i]),
					Level:       models.SeverityWarning,
				})
			}
		}
	}
	return violations
}
