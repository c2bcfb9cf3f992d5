package dto

import (
	"time"

	"github.com/daveytran/roundscheduler-sub000/internal/models"
)

// RuleConfigRequest selects a rule and its priority for an optimization run.
// Params carry rule-specific knobs such as minimum rest slots.
type RuleConfigRequest struct {
	Name     string             `json:"name" validate:"required"`
	Priority float64            `json:"priority" validate:"required,gt=0"`
	Params   map[string]float64 `json:"params,omitempty"`
}

// OptimizeRequest queues an optimization run against a stored schedule.
// When Rules is empty the default rule set applies.
type OptimizeRequest struct {
	ScheduleID string              `json:"scheduleId" validate:"required"`
	Strategy   string              `json:"strategy" validate:"omitempty,oneof=annealing genetic strategic"`
	Iterations int                 `json:"iterations" validate:"omitempty,min=1"`
	Seed       *int64              `json:"seed,omitempty"`
	Rules      []RuleConfigRequest `json:"rules" validate:"omitempty,dive"`
}

// OptimizeJobResponse acknowledges a queued job.
type OptimizeJobResponse struct {
	ID       string                       `json:"id"`
	Status   models.OptimizationJobStatus `json:"status"`
	Strategy string                       `json:"strategy"`
}

// OptimizeJobStatusResponse reports the latest progress snapshot.
type OptimizeJobStatusResponse struct {
	ID               string                       `json:"id"`
	Status           models.OptimizationJobStatus `json:"status"`
	Strategy         string                       `json:"strategy"`
	Progress         float64                      `json:"progress"`
	CurrentScore     float64                      `json:"current_score"`
	BestScore        float64                      `json:"best_score"`
	ViolationCount   int                          `json:"violation_count"`
	ResultScheduleID *string                      `json:"result_schedule_id,omitempty"`
	Error            *string                      `json:"error,omitempty"`
	CreatedAt        time.Time                    `json:"created_at"`
	FinishedAt       *time.Time                   `json:"finished_at,omitempty"`
}
