package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

// Tournament is a persisted tournament with its imported fixture list.
type Tournament struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TournamentTeam is a team entry within a tournament division. Player names
// are stored denormalised on the team row.
type TournamentTeam struct {
	ID           string         `db:"id" json:"id"`
	TournamentID string         `db:"tournament_id" json:"tournament_id"`
	Name         string         `db:"name" json:"name"`
	Division     Division       `db:"division" json:"division"`
	Players      pq.StringArray `db:"players" json:"players"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}

// ExportFormat selects the rendering of a schedule export.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// StoredScheduleStatus represents lifecycle phases for schedule versions.
type StoredScheduleStatus string

const (
	StoredScheduleStatusDraft     StoredScheduleStatus = "DRAFT"
	StoredScheduleStatusPublished StoredScheduleStatus = "PUBLISHED"
	StoredScheduleStatusArchived  StoredScheduleStatus = "ARCHIVED"
)

// StoredSchedule captures a versioned schedule proposal for a tournament.
// Violations of the evaluated rule set are kept as JSON alongside the score.
type StoredSchedule struct {
	ID           string               `db:"id" json:"id"`
	TournamentID string               `db:"tournament_id" json:"tournament_id"`
	Version      int                  `db:"version" json:"version"`
	Status       StoredScheduleStatus `db:"status" json:"status"`
	Score        float64              `db:"score" json:"score"`
	Violations   types.JSONText       `db:"violations" json:"violations"`
	CreatedAt    time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time            `db:"updated_at" json:"updated_at"`
}

// StoredMatch is a concrete match row inside a stored schedule version.
// RefereeDivision records which division the refereeing team is entered in;
// refereeing may cross divisions, so it is not implied by Division.
type StoredMatch struct {
	ID              string       `db:"id" json:"id"`
	ScheduleID      string       `db:"schedule_id" json:"schedule_id"`
	TimeSlot        int          `db:"time_slot" json:"time_slot"`
	Field           string       `db:"field" json:"field"`
	Division        Division     `db:"division" json:"division"`
	Team1           string       `db:"team1" json:"team1"`
	Team2           string       `db:"team2" json:"team2"`
	Referee         *string      `db:"referee" json:"referee,omitempty"`
	RefereeDivision *Division    `db:"referee_division" json:"referee_division,omitempty"`
	Activity        ActivityType `db:"activity" json:"activity"`
	Locked          bool         `db:"locked" json:"locked"`
	CreatedAt       time.Time    `db:"created_at" json:"created_at"`
}

// OptimizationJobStatus captures background job lifecycle states.
type OptimizationJobStatus string

const (
	OptimizationJobStatusQueued    OptimizationJobStatus = "QUEUED"
	OptimizationJobStatusRunning   OptimizationJobStatus = "RUNNING"
	OptimizationJobStatusFinished  OptimizationJobStatus = "FINISHED"
	OptimizationJobStatusFailed    OptimizationJobStatus = "FAILED"
	OptimizationJobStatusCancelled OptimizationJobStatus = "CANCELLED"
)

// RuleParam selects one rule and its weight for an optimization run.
type RuleParam struct {
	Name     string             `json:"name"`
	Priority float64            `json:"priority"`
	Params   map[string]float64 `json:"params,omitempty"`
}

// OptimizationJob is the cached state of an asynchronous optimization run.
// Jobs live in Redis under their identifier and carry the latest progress
// snapshot emitted by the optimizer.
type OptimizationJob struct {
	ID               string                `json:"id"`
	TournamentID     string                `json:"tournament_id"`
	SourceScheduleID string                `json:"source_schedule_id"`
	Strategy         string                `json:"strategy"`
	Iterations       int                   `json:"iterations"`
	Seed             *int64                `json:"seed,omitempty"`
	Rules            []RuleParam           `json:"rules,omitempty"`
	Status           OptimizationJobStatus `json:"status"`
	Progress         float64               `json:"progress"`
	CurrentScore     float64               `json:"current_score"`
	BestScore        float64               `json:"best_score"`
	ViolationCount   int                   `json:"violation_count"`
	ResultScheduleID *string               `json:"result_schedule_id,omitempty"`
	ErrorMessage     *string               `json:"error_message,omitempty"`
	CreatedBy        string                `json:"created_by"`
	CreatedAt        time.Time             `json:"created_at"`
	StartedAt        *time.Time            `json:"started_at,omitempty"`
	FinishedAt       *time.Time            `json:"finished_at,omitempty"`
}
