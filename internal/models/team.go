package models

// Player is immutable reference data resolved at import time. A player may
// belong to at most one team per division; the same *Player instance is shared
// by every team that lists them.
type Player struct {
	Name      string              `json:"name"`
	TeamNames map[Division]string `json:"team_names,omitempty"`
}

// PlaysFor reports whether the player is rostered on the given team.
func (p *Player) PlaysFor(t *Team) bool {
	if p == nil || t == nil {
		return false
	}
	return p.TeamNames[t.Division] == t.Name
}

// Team is immutable reference data shared by pointer across matches and
// schedule copies. Copies of a Schedule clone matches but keep Team pointers,
// so identity must be compared by name and division, never by pointer.
type Team struct {
	Name     string    `json:"name"`
	Division Division  `json:"division"`
	Players  []*Player `json:"players,omitempty"`
}

// Key returns the identity key for the team, unique across divisions.
func (t *Team) Key() string {
	if t == nil {
		return ""
	}
	return string(t.Division) + "/" + t.Name
}

// Same reports identity equality by name and division.
func (t *Team) Same(other *Team) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.Name == other.Name && t.Division == other.Division
}
