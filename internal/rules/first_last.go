package rules

import (
	"fmt"

	"github.com/daveytran/roundscheduler-sub000/internal/models"
)

// FirstLast flags teams and players present in both the first and the last
// period of the day. The first period is the union of setup activities and
// the earliest regular slot; the last period is the union of the latest
// regular slot and packing-down activities. Player findings implied by a
// reported team are suppressed.
type FirstLast struct {
	base
}

// NewFirstLast constructs the rule with the given priority.
func NewFirstLast(priority float64) *FirstLast {
	return &FirstLast{base{name: NameFirstLast, priority: priority}}
}

// Evaluate implements models.Rule.
func (r *FirstLast) Evaluate(s *models.Schedule) []models.Violation {
	regular := s.RegularSlots()
	if len(regular) == 0 {
		return nil
	}
	earliest, latest := regular[0], regular[len(regular)-1]

	first := periodTeamMatches(s, models.ActivitySetup, earliest)
	last := periodTeamMatches(s, models.ActivityPackingDown, latest)

	var violations []models.Violation
	violatedTeams := make(map[string]*models.Team)

	for _, team := range sortedTeams(s) {
		if len(first[team.Key()]) > 0 && len(last[team.Key()]) > 0 {
			violatedTeams[team.Key()] = team
			violations = append(violations, models.Violation{
				Rule:        r.Name(),
				Description: fmt.Sprintf("Team %s is involved in both the first and last period of the day", team.Name),
				Matches:     mergeMatches(first[team.Key()], last[team.Key()]),
				Level:       models.SeverityAlert,
			})
		}
	}

	firstPlayers := periodPlayerMatches(s, first)
	lastPlayers := periodPlayerMatches(s, last)
	for _, player := range sortedPlayers(s) {
		if len(firstPlayers[player.Name]) == 0 || len(lastPlayers[player.Name]) == 0 {
			continue
		}
		if playerCovered(player, violatedTeams) {
			continue
		}
		violations = append(violations, models.Violation{
			Rule:        r.Name(),
			Description: fmt.Sprintf("Player %s is involved in both the first and last period of the day", player.Name),
			Matches:     mergeMatches(firstPlayers[player.Name], lastPlayers[player.Name]),
			Level:       models.SeverityAlert,
		})
	}

	return violations
}

// periodTeamMatches collects, per team key, the matches of the given special
// activity or the boundary regular slot the team appears in.
func periodTeamMatches(s *models.Schedule, activity models.ActivityType, boundarySlot int) map[string][]*models.Match {
	byTeam := make(map[string][]*models.Match)
	for _, m := range s.Matches {
		include := m.Activity == activity || (!m.Special() && m.TimeSlot == boundarySlot)
		if !include {
			continue
		}
		for _, t := range m.Teams() {
			byTeam[t.Key()] = append(byTeam[t.Key()], m)
		}
	}
	return byTeam
}

// periodPlayerMatches expands per-team period matches into per-player ones.
func periodPlayerMatches(s *models.Schedule, byTeam map[string][]*models.Match) map[string][]*models.Match {
	byPlayer := make(map[string][]*models.Match)
	for key, team := range s.Teams() {
		matches := byTeam[key]
		if len(matches) == 0 {
			continue
		}
		for _, p := range team.Players {
			byPlayer[p.Name] = mergeMatches(byPlayer[p.Name], matches)
		}
	}
	return byPlayer
}

// mergeMatches appends b to a, dropping duplicates.
func mergeMatches(a, b []*models.Match) []*models.Match {
	seen := make(map[*models.Match]bool, len(a))
	for _, m := range a {
		seen[m] = true
	}
	out := a
	for _, m := range b {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

func playerCovered(p *models.Player, violated map[string]*models.Team) bool {
	for _, team := range violated {
		if p.PlaysFor(team) {
			return true
		}
	}
	return false
}
