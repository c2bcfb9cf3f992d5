// Package rules implements the configurable scheduling rules evaluated
// against a tournament schedule. Each rule is stateless: Evaluate inspects a
// schedule and reports weighted violations without mutating it. The hard
// double-booking invariant is not a rule here; the schedule checks it on
// every evaluation regardless of configuration.
package rules

import (
	"fmt"
	"sort"

	"github.com/daveytran/roundscheduler-sub000/internal/models"
)

// Rule names as used in configuration payloads.
const (
	NameBackToBack        = "AvoidBackToBackGames"
	NameFirstLast         = "AvoidFirstAndLastGame"
	NameReffingBefore     = "AvoidReffingBeforePlaying"
	NameSetupThenPlay     = "AvoidSetupThenPlay"
	NameRestTime          = "ManagePlayerRestTime"
	NameVenueTime         = "LimitVenueTime"
	NameFieldDistribution = "EnsureFairFieldDistribution"
)

// Config selects and weights a single rule. Params carries the rule-specific
// tunables; unknown params are ignored.
type Config struct {
	Name     string             `json:"name" validate:"required"`
	Priority float64            `json:"priority" validate:"gt=0"`
	Params   map[string]float64 `json:"params,omitempty"`
}

// FromConfigs materialises rules from configuration entries.
func FromConfigs(configs []Config) ([]models.Rule, error) {
	out := make([]models.Rule, 0, len(configs))
	for _, cfg := range configs {
		if cfg.Priority <= 0 {
			return nil, fmt.Errorf("rule %q priority must be positive", cfg.Name)
		}
		rule, err := build(cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, nil
}

func build(cfg Config) (models.Rule, error) {
	param := func(key string, fallback float64) float64 {
		if v, ok := cfg.Params[key]; ok {
			return v
		}
		return fallback
	}

	switch cfg.Name {
	case NameBackToBack:
		return NewBackToBack(cfg.Priority), nil
	case NameFirstLast:
		return NewFirstLast(cfg.Priority), nil
	case NameReffingBefore:
		return NewReffingBeforePlaying(cfg.Priority), nil
	case NameSetupThenPlay:
		return NewSetupThenPlay(cfg.Priority), nil
	case NameRestTime:
		return NewRestTime(cfg.Priority, int(param("minRestSlots", 2)), int(param("maxGapSlots", 6))), nil
	case NameVenueTime:
		return NewVenueTime(cfg.Priority, param("slotDurationMinutes", 45), param("maxHours", 4)), nil
	case NameFieldDistribution:
		return NewFieldDistribution(cfg.Priority, param("ratio", 0.6), int(param("minGames", 3))), nil
	default:
		return nil, fmt.Errorf("unknown rule %q", cfg.Name)
	}
}

// DefaultSet returns the standard rule configuration. Setup-then-play runs at
// maximum priority; it is the one soft rule treated as near-inviolable.
func DefaultSet() []models.Rule {
	return []models.Rule{
		NewSetupThenPlay(10),
		NewBackToBack(3),
		NewFirstLast(2),
		NewVenueTime(2, 45, 4),
		NewReffingBeforePlaying(1),
		NewRestTime(1, 2, 6),
		NewFieldDistribution(1, 0.6, 3),
	}
}

type base struct {
	name     string
	priority float64
}

func (b base) Name() string      { return b.name }
func (b base) Priority() float64 { return b.priority }

// slotRun is a maximal run of strictly consecutive time slots.
type slotRun struct {
	start int
	end   int
}

func (r slotRun) length() int { return r.end - r.start + 1 }

// consecutiveRuns finds maximal runs of consecutive integers in the sorted
// distinct slot list. Only runs of two or more slots are returned.
func consecutiveRuns(slots []int) []slotRun {
	var runs []slotRun
	for i := 0; i < len(slots); {
		j := i
		for j+1 < len(slots) && slots[j+1] == slots[j]+1 {
			j++
		}
		if j > i {
			runs = append(runs, slotRun{start: slots[i], end: slots[j]})
		}
		i = j + 1
	}
	return runs
}

// teamPlayingSlots returns the distinct slots in which the team plays. Slots
// where the team only referees do not count as participation.
func teamPlayingSlots(s *models.Schedule, t *models.Team) []int {
	seen := make(map[int]bool)
	var slots []int
	for _, m := range s.Matches {
		if m.Special() || !m.Plays(t) || seen[m.TimeSlot] {
			continue
		}
		seen[m.TimeSlot] = true
		slots = append(slots, m.TimeSlot)
	}
	sort.Ints(slots)
	return slots
}

// playerPlayingSlots returns the distinct slots in which any of the player's
// teams plays. A player rostered in several divisions accumulates slots
// across all of them, which is what lets a player streak exceed every
// covering team streak.
func playerPlayingSlots(s *models.Schedule, p *models.Player) []int {
	seen := make(map[int]bool)
	var slots []int
	for _, m := range s.Matches {
		if m.Special() || !m.PlayerPlays(p) || seen[m.TimeSlot] {
			continue
		}
		seen[m.TimeSlot] = true
		slots = append(slots, m.TimeSlot)
	}
	sort.Ints(slots)
	return slots
}

// sortedTeams returns the schedule's teams in deterministic key order.
func sortedTeams(s *models.Schedule) []*models.Team {
	byKey := s.Teams()
	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	teams := make([]*models.Team, len(keys))
	for i, k := range keys {
		teams[i] = byKey[k]
	}
	return teams
}

// sortedPlayers returns the schedule's players in deterministic name order.
func sortedPlayers(s *models.Schedule) []*models.Player {
	byName := s.Players()
	names := make([]string, 0, len(byName))
	for n := range byName {
		names = append(names, n)
	}
	sort.Strings(names)
	players := make([]*models.Player, len(names))
	for i, n := range names {
		players[i] = byName[n]
	}
	return players
}

// matchesInRun collects the matches the entity plays within a slot run.
func matchesInRun(s *models.Schedule, run slotRun, plays func(*models.Match) bool) []*models.Match {
	var matches []*models.Match
	for _, m := range s.Matches {
		if m.Special() || m.TimeSlot < run.start || m.TimeSlot > run.end {
			continue
		}
		if plays(m) {
			matches = append(matches, m)
		}
	}
	return matches
}
