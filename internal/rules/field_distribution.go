package rules

import (
	"fmt"
	"sort"

	"github.com/daveytran/roundscheduler-sub000/internal/models"
)

// FieldDistribution flags teams playing a disproportionate share of their
// games on a single field. Teams only qualify once they have the minimum
// number of games on that field, so short fixture lists are left alone.
type FieldDistribution struct {
	base
	ratio    float64
	minGames int
}

// NewFieldDistribution constructs the rule. ratio is the maximum acceptable
// share of a team's games on one field.
func NewFieldDistribution(priority, ratio float64, minGames int) *FieldDistribution {
	return &FieldDistribution{
		base:     base{name: NameFieldDistribution, priority: priority},
		ratio:    ratio,
		minGames: minGames,
	}
}

// Evaluate implements models.Rule.
func (r *FieldDistribution) Evaluate(s *models.Schedule) []models.Violation {
	var violations []models.Violation
	for _, team := range sortedTeams(s) {
		counts := make(map[string]int)
		total := 0
		for _, m := range s.Matches {
			if m.Special() || m.Field == "" || !m.Plays(team) {
				continue
			}
			counts[m.Field]++
			total++
		}
		if total == 0 {
			continue
		}

		fields := make([]string, 0, len(counts))
		for f := range counts {
			fields = append(fields, f)
		}
		sort.Strings(fields)

		for _, field := range fields {
			count := counts[field]
			share := float64(count) / float64(total)
			if count < r.minGames || share <= r.ratio {
				continue
			}
			violations = append(violations, models.Violation{
				Rule:        r.Name(),
				Description: fmt.Sprintf("Team %s plays %d of %d games on %s (%.0f%%)", team.Name, count, total, field, share*100),
				Level:       models.SeverityWarning,
			})
		}
	}
	return violations
}
