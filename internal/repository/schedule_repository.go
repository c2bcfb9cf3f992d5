package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/daveytran/roundscheduler-sub000/internal/models"
)

// ScheduleRepository persists versioned tournament schedules and their match rows.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs the repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// CreateVersioned inserts a schedule assigning the next version for the
// tournament, together with its match rows.
func (r *ScheduleRepository) CreateVersioned(ctx context.Context, exec sqlx.ExtContext, schedule *models.StoredSchedule, matches []models.StoredMatch) error {
	if schedule == nil {
		return fmt.Errorf("schedule payload is nil")
	}
	if schedule.TournamentID == "" {
		return fmt.Errorf("tournament_id is required")
	}
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	if schedule.Status == "" {
		schedule.Status = models.StoredScheduleStatusDraft
	}
	if len(schedule.Violations) == 0 {
		schedule.Violations = types.JSONText(`[]`)
	}
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now

	target := r.exec(exec)

	const nextVersionQuery = `SELECT COALESCE(MAX(version), 0) + 1 FROM schedules WHERE tournament_id = $1`
	if err := sqlx.GetContext(ctx, target, &schedule.Version, nextVersionQuery, schedule.TournamentID); err != nil {
		return fmt.Errorf("compute next schedule version: %w", err)
	}

	const insertSchedule = `
INSERT INTO schedules (id, tournament_id, version, status, score, violations, created_at, updated_at)
VALUES (:id, :tournament_id, :version, :status, :score, :violations, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, target, insertSchedule, schedule); err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}

	const insertMatch = `
INSERT INTO schedule_matches (id, schedule_id, time_slot, field, division, team1, team2, referee, referee_division, activity, locked, created_at)
VALUES (:id, :schedule_id, :time_slot, :field, :division, :team1, :team2, :referee, :referee_division, :activity, :locked, :created_at)`
	for i := range matches {
		match := &matches[i]
		if match.ID == "" {
			match.ID = uuid.NewString()
		}
		match.ScheduleID = schedule.ID
		if match.CreatedAt.IsZero() {
			match.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, insertMatch, match); err != nil {
			return fmt.Errorf("insert schedule match: %w", err)
		}
	}
	return nil
}

// ListByTournament returns all schedule versions newest first.
func (r *ScheduleRepository) ListByTournament(ctx context.Context, tournamentID string) ([]models.StoredSchedule, error) {
	const query = `SELECT id, tournament_id, version, status, score, violations, created_at, updated_at
FROM schedules WHERE tournament_id = $1 ORDER BY version DESC`
	var schedules []models.StoredSchedule
	if err := r.db.SelectContext(ctx, &schedules, query, tournamentID); err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return schedules, nil
}

// FindByID loads a schedule by its identifier.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.StoredSchedule, error) {
	const query = `SELECT id, tournament_id, version, status, score, violations, created_at, updated_at
FROM schedules WHERE id = $1`
	var schedule models.StoredSchedule
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// LoadMatches returns the match rows of a schedule in slot order.
func (r *ScheduleRepository) LoadMatches(ctx context.Context, scheduleID string) ([]models.StoredMatch, error) {
	const query = `SELECT id, schedule_id, time_slot, field, division, team1, team2, referee, referee_division, activity, locked, created_at
FROM schedule_matches WHERE schedule_id = $1 ORDER BY time_slot, division, team1`
	var matches []models.StoredMatch
	if err := r.db.SelectContext(ctx, &matches, query, scheduleID); err != nil {
		return nil, fmt.Errorf("load schedule matches: %w", err)
	}
	return matches, nil
}

// UpdateStatus transitions a schedule's lifecycle status. Publishing archives
// any previously published version of the same tournament.
func (r *ScheduleRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.StoredScheduleStatus) error {
	target := r.exec(exec)
	now := time.Now().UTC()

	if status == models.StoredScheduleStatusPublished {
		const archiveQuery = `UPDATE schedules SET status = $1, updated_at = $2
WHERE tournament_id = (SELECT tournament_id FROM schedules WHERE id = $3) AND status = $4 AND id <> $3`
		if _, err := target.ExecContext(ctx, archiveQuery, models.StoredScheduleStatusArchived, now, id, models.StoredScheduleStatusPublished); err != nil {
			return fmt.Errorf("archive published schedules: %w", err)
		}
	}

	const query = `UPDATE schedules SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := target.ExecContext(ctx, query, status, now, id)
	if err != nil {
		return fmt.Errorf("update schedule status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("schedule status rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a stored schedule version; match rows cascade.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM schedules WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("schedule rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
