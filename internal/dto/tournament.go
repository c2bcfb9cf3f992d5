package dto

import (
	"time"

	"github.com/daveytran/roundscheduler-sub000/internal/models"
)

// TeamImport describes one team inside an imported division.
type TeamImport struct {
	Name    string   `json:"name" validate:"required"`
	Players []string `json:"players" validate:"omitempty,dive,required"`
}

// DivisionImport groups the teams entering under one division.
type DivisionImport struct {
	Division models.Division `json:"division" validate:"required"`
	Teams    []TeamImport    `json:"teams" validate:"required,min=1,dive"`
}

// MatchImport is a fixture row of the imported draw. Referee and field are
// optional; special activities arrive locked. RefereeDivision names the
// division the refereeing team is entered in when it differs from the
// match's own division.
type MatchImport struct {
	Team1           string              `json:"team1" validate:"required"`
	Team2           string              `json:"team2" validate:"required"`
	Division        models.Division     `json:"division" validate:"required"`
	TimeSlot        int                 `json:"timeSlot" validate:"min=0"`
	Field           string              `json:"field"`
	Referee         *string             `json:"referee,omitempty"`
	RefereeDivision *models.Division    `json:"refereeDivision,omitempty"`
	Activity        models.ActivityType `json:"activity"`
	Locked          bool                `json:"locked"`
}

// ImportTournamentRequest creates a tournament together with its initial
// draft schedule.
type ImportTournamentRequest struct {
	Name      string           `json:"name" validate:"required"`
	Divisions []DivisionImport `json:"divisions" validate:"required,min=1,dive"`
	Matches   []MatchImport    `json:"matches" validate:"required,min=1,dive"`
}

// TournamentResponse summarises a stored tournament.
type TournamentResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Teams     int       `json:"teams"`
	Divisions []string  `json:"divisions"`
	CreatedAt time.Time `json:"created_at"`
}

// ImportTournamentResponse returns the created tournament and the draft
// schedule built from the imported matches.
type ImportTournamentResponse struct {
	Tournament TournamentResponse `json:"tournament"`
	Schedule   ScheduleResponse   `json:"schedule"`
}

// MatchView is the API projection of a schedule row.
type MatchView struct {
	TimeSlot        int                 `json:"timeSlot"`
	Field           string              `json:"field,omitempty"`
	Division        models.Division     `json:"division"`
	Team1           string              `json:"team1"`
	Team2           string              `json:"team2"`
	Referee         *string             `json:"referee,omitempty"`
	RefereeDivision *models.Division    `json:"refereeDivision,omitempty"`
	Activity        models.ActivityType `json:"activity"`
	Locked          bool                `json:"locked"`
}

// ViolationView is the API projection of a rule violation.
type ViolationView struct {
	Rule        string `json:"rule"`
	Description string `json:"description"`
	Level       string `json:"level"`
}

// ScheduleResponse returns a stored schedule version with its evaluation.
type ScheduleResponse struct {
	ID           string                      `json:"id"`
	TournamentID string                      `json:"tournament_id"`
	Version      int                         `json:"version"`
	Status       models.StoredScheduleStatus `json:"status"`
	Score        float64                     `json:"score"`
	Matches      []MatchView                 `json:"matches,omitempty"`
	Violations   []ViolationView             `json:"violations,omitempty"`
	CreatedAt    time.Time                   `json:"created_at"`
}

// ScheduleListQuery filters schedule versions by tournament.
type ScheduleListQuery struct {
	TournamentID string `form:"tournamentId" json:"tournamentId"`
}
