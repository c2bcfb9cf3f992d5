package rules

import (
	"fmt"
	"sort"

	"github.com/daveytran/roundscheduler-sub000/internal/models"
)

// playerToleranceHours is the slack before a player's venue time is reported
// alongside the covering team's. Empirically chosen, tunable, not derived.
const playerToleranceHours = 0.5

// VenueTime limits the elapsed real time a team or player spends at one
// venue, measured from first to last appearance there and converted from
// slots using the configured slot duration. A player finding at a venue is
// suppressed when a covering team was already reported there, unless the
// player's own time exceeds the team's by more than the tolerance.
type VenueTime struct {
	base
	slotMinutes float64
	maxHours    float64
}

// NewVenueTime constructs the rule.
func NewVenueTime(priority, slotMinutes, maxHours float64) *VenueTime {
	return &VenueTime{
		base:        base{name: NameVenueTime, priority: priority},
		slotMinutes: slotMinutes,
		maxHours:    maxHours,
	}
}

// Evaluate implements models.Rule.
func (r *VenueTime) Evaluate(s *models.Schedule) []models.Violation {
	var violations []models.Violation

	// Team time per venue; reported overruns feed player suppression.
	teamHours := make(map[string]map[string]float64)
	for _, team := range sortedTeams(s) {
		team := team
		hoursByVenue := r.hoursByVenue(s, func(m *models.Match) bool { return m.Plays(team) })
		teamHours[team.Key()] = hoursByVenue
		for _, venue := range sortedVenues(hoursByVenue) {
			hours := hoursByVenue[venue]
			if hours <= r.maxHours {
				continue
			}
			violations = append(violations, models.Violation{
				Rule:        r.Name(),
				Description: fmt.Sprintf("Team %s spends %.1f hours at %s (limit %.1f)", team.Name, hours, venue, r.maxHours),
				Level:       models.SeverityWarning,
			})
		}
	}

	for _, player := range sortedPlayers(s) {
		player := player
		hoursByVenue := r.hoursByVenue(s, func(m *models.Match) bool { return m.PlayerPlays(player) })
		for _, venue := range sortedVenues(hoursByVenue) {
			hours := hoursByVenue[venue]
			if hours <= r.maxHours {
				continue
			}
			if r.playerSuppressed(s, player, venue, hours, teamHours) {
				continue
			}
			violations = append(violations, models.Violation{
				Rule:        r.Name(),
				Description: fmt.Sprintf("Player %s spends %.1f hours at %s (limit %.1f)", player.Name, hours, venue, r.maxHours),
				Level:       models.SeverityWarning,
			})
		}
	}

	return violations
}

// hoursByVenue computes elapsed hours per field as first-to-last slot span
// times the slot duration.
func (r *VenueTime) hoursByVenue(s *models.Schedule, plays func(*models.Match) bool) map[string]float64 {
	firstSlot := make(map[string]int)
	lastSlot := make(map[string]int)
	for _, m := range s.Matches {
		if m.Special() || m.Field == "" || !plays(m) {
			continue
		}
		if first, ok := firstSlot[m.Field]; !ok || m.TimeSlot < first {
			firstSlot[m.Field] = m.TimeSlot
		}
		if last, ok := lastSlot[m.Field]; !ok || m.TimeSlot > last {
			lastSlot[m.Field] = m.TimeSlot
		}
	}
	hours := make(map[string]float64, len(firstSlot))
	for venue, first := range firstSlot {
		span := lastSlot[venue] - first + 1
		hours[venue] = float64(span) * r.slotMinutes / 60
	}
	return hours
}

// playerSuppressed applies the covering-team check: a reported team at the
// same venue hides the player unless the player's time is significantly
// higher.
func (r *VenueTime) playerSuppressed(s *models.Schedule, p *models.Player, venue string, playerHours float64, teamHours map[string]map[string]float64) bool {
	for key, team := range s.Teams() {
		if !p.PlaysFor(team) {
			continue
		}
		hours, ok := teamHours[key][venue]
		if !ok || hours <= r.maxHours {
			continue
		}
		if playerHours <= hours+playerToleranceHours {
			return true
		}
	}
	return false
}

func sortedVenues(hours map[string]float64) []string {
	venues := make([]string, 0, len(hours))
	for v := range hours {
		venues = append(venues, v)
	}
	sort.Strings(venues)
	return venues
}
