package rules

import (
	"fmt"

	"github.com/daveytran/roundscheduler-sub000/internal/models"
)

// BackToBack flags teams and players scheduled in strictly consecutive time
// slots. Runs of exactly two slots are warnings; longer runs are reported
// with their length at alert level. Player-level runs that coincide exactly
// with a covering team run are suppressed; a player run is only reported when
// it differs from every run already reported for a team the player belongs
// to (cross-division play is the usual cause).
type BackToBack struct {
	base
}

// NewBackToBack constructs the rule with the given priority.
func NewBackToBack(priority float64) *BackToBack {
	return &BackToBack{base{name: NameBackToBack, priority: priority}}
}

// Evaluate implements models.Rule.
func (r *BackToBack) Evaluate(s *models.Schedule) []models.Violation {
	var violations []models.Violation

	// Team runs first; their spans feed the player-level suppression.
	teamRuns := make(map[string][]slotRun)
	for _, team := range sortedTeams(s) {
		team := team
		runs := consecutiveRuns(teamPlayingSlots(s, team))
		teamRuns[team.Key()] = runs
		for _, run := range runs {
			violations = append(violations, r.violation(
				fmt.Sprintf("Team %s", team.Name), run,
				matchesInRun(s, run, func(m *models.Match) bool { return m.Plays(team) }),
			))
		}
	}

	for _, player := range sortedPlayers(s) {
		player := player
		for _, run := range consecutiveRuns(playerPlayingSlots(s, player)) {
			if coveredByTeamRun(player, run, s, teamRuns) {
				continue
			}
			violations = append(violations, r.violation(
				fmt.Sprintf("Player %s", player.Name), run,
				matchesInRun(s, run, func(m *models.Match) bool { return m.PlayerPlays(player) }),
			))
		}
	}

	return violations
}

func (r *BackToBack) violation(entity string, run slotRun, matches []*models.Match) models.Violation {
	if run.length() == 2 {
		return models.Violation{
			Rule:        r.Name(),
			Description: fmt.Sprintf("%s plays back-to-back games in slots %d and %d", entity, run.start, run.end),
			Matches:     matches,
			Level:       models.SeverityWarning,
		}
	}
	return models.Violation{
		Rule:        r.Name(),
		Description: fmt.Sprintf("%s plays %d consecutive games in slots %d to %d", entity, run.length(), run.start, run.end),
		Matches:     matches,
		Level:       models.SeverityAlert,
	}
}

// coveredByTeamRun reports whether an identical run was already reported for
// one of the player's teams. Identical means same span; the team run already
// names the player through team membership.
func coveredByTeamRun(p *models.Player, run slotRun, s *models.Schedule, teamRuns map[string][]slotRun) bool {
	for _, team := range s.Teams() {
		if !p.PlaysFor(team) {
			continue
		}
		for _, tr := range teamRuns[team.Key()] {
			if tr == run {
				return true
			}
		}
	}
	return false
}
