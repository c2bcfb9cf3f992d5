package models

// Match is either a real fixture or a non-negotiable administrative activity
// (setup, packing down). The team pair is unordered for conflict purposes.
// Matches own their mutable scheduling fields (TimeSlot, Field, Referee);
// Team pointers are shared immutable reference data.
type Match struct {
	Team1    *Team        `json:"team1"`
	Team2    *Team        `json:"team2"`
	TimeSlot int          `json:"time_slot"`
	Field    string       `json:"field"`
	Division Division     `json:"division"`
	Referee  *Team        `json:"referee,omitempty"`
	Activity ActivityType `json:"activity"`
	Locked   bool         `json:"locked"`
}

// Special reports whether the match is a setup or packing-down activity.
func (m *Match) Special() bool {
	return m.Activity.Special()
}

// Movable reports whether a mutation operator may change this match.
func (m *Match) Movable() bool {
	return !m.Locked && !m.Special()
}

// Plays reports whether the team is one of the two playing sides.
func (m *Match) Plays(t *Team) bool {
	return m.Team1.Same(t) || m.Team2.Same(t)
}

// Referees reports whether the team is assigned as referee.
func (m *Match) Referees(t *Team) bool {
	return m.Referee != nil && m.Referee.Same(t)
}

// PlayerPlays reports whether the player is rostered on either playing side.
func (m *Match) PlayerPlays(p *Player) bool {
	return p.PlaysFor(m.Team1) || p.PlaysFor(m.Team2)
}

// SameFixture reports whether other denotes the same fixture: the unordered
// team pair at the same original time slot and field. Used to locate a match
// inside a schedule copy, where pointers differ.
func (m *Match) SameFixture(other *Match) bool {
	if m == nil || other == nil {
		return m == other
	}
	samePair := (m.Team1.Same(other.Team1) && m.Team2.Same(other.Team2)) ||
		(m.Team1.Same(other.Team2) && m.Team2.Same(other.Team1))
	return samePair && m.TimeSlot == other.TimeSlot && m.Field == other.Field
}

// Clone copies the match. Team pointers are shared; the clone's scheduling
// fields can be mutated without touching the source.
func (m *Match) Clone() *Match {
	if m == nil {
		return nil
	}
	clone := *m
	return &clone
}

// Teams returns the playing sides, skipping nil entries of malformed input.
func (m *Match) Teams() []*Team {
	teams := make([]*Team, 0, 2)
	if m.Team1 != nil {
		teams = append(teams, m.Team1)
	}
	if m.Team2 != nil {
		teams = append(teams, m.Team2)
	}
	return teams
}
