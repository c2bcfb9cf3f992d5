package models

import "encoding/json"

// Severity grades a rule violation, ordered by increasing seriousness.
type Severity int

const (
	SeverityNote Severity = iota
	SeverityWarning
	SeverityAlert
	SeverityCritical
)

var severityNames = map[Severity]string{
	SeverityNote:     "note",
	SeverityWarning:  "warning",
	SeverityAlert:    "alert",
	SeverityCritical: "critical",
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON renders the severity as its lowercase name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Violation is a single weighted finding produced by a rule or by the hard
// invariant check. Matches reference the implicated schedule entries.
type Violation struct {
	Rule        string   `json:"rule"`
	Description string   `json:"description"`
	Matches     []*Match `json:"matches,omitempty"`
	Level       Severity `json:"level"`
}

// Rule evaluates a schedule and reports weighted violations. Rules are
// stateless with respect to the schedule: Evaluate must never mutate it.
type Rule interface {
	Name() string
	Priority() float64
	Evaluate(s *Schedule) []Violation
}
