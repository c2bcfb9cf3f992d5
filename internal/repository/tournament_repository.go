package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/daveytran/roundscheduler-sub000/internal/models"
)

// TournamentRepository persists tournaments and their team entries.
type TournamentRepository struct {
	db *sqlx.DB
}

// NewTournamentRepository constructs the repository.
func NewTournamentRepository(db *sqlx.DB) *TournamentRepository {
	return &TournamentRepository{db: db}
}

func (r *TournamentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a tournament together with its team entries.
func (r *TournamentRepository) Create(ctx context.Context, exec sqlx.ExtContext, tournament *models.Tournament, teams []models.TournamentTeam) error {
	if tournament == nil {
		return fmt.Errorf("tournament payload is nil")
	}
	if tournament.Name == "" {
		return fmt.Errorf("tournament name is required")
	}
	if tournament.ID == "" {
		tournament.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if tournament.CreatedAt.IsZero() {
		tournament.CreatedAt = now
	}
	tournament.UpdatedAt = now

	target := r.exec(exec)

	const insertTournament = `
INSERT INTO tournaments (id, name, created_by, created_at, updated_at)
VALUES (:id, :name, :created_by, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, target, insertTournament, tournament); err != nil {
		return fmt.Errorf("insert tournament: %w", err)
	}

	const insertTeam = `
INSERT INTO tournament_teams (id, tournament_id, name, division, players, created_at)
VALUES (:id, :tournament_id, :name, :division, :players, :created_at)`
	for i := range teams {
		team := &teams[i]
		if team.ID == "" {
			team.ID = uuid.NewString()
		}
		team.TournamentID = tournament.ID
		if team.CreatedAt.IsZero() {
			team.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, insertTeam, team); err != nil {
			return fmt.Errorf("insert tournament team %s: %w", team.Name, err)
		}
	}
	return nil
}

// FindByID loads a tournament by its identifier.
func (r *TournamentRepository) FindByID(ctx context.Context, id string) (*models.Tournament, error) {
	const query = `SELECT id, name, created_by, created_at, updated_at FROM tournaments WHERE id = $1`
	var tournament models.Tournament
	if err := r.db.GetContext(ctx, &tournament, query, id); err != nil {
		return nil, err
	}
	return &tournament, nil
}

// List returns all tournaments newest first.
func (r *TournamentRepository) List(ctx context.Context) ([]models.Tournament, error) {
	const query = `SELECT id, name, created_by, created_at, updated_at FROM tournaments ORDER BY created_at DESC`
	var tournaments []models.Tournament
	if err := r.db.SelectContext(ctx, &tournaments, query); err != nil {
		return nil, fmt.Errorf("list tournaments: %w", err)
	}
	return tournaments, nil
}

// ListTeams returns the team entries of a tournament ordered by division and name.
func (r *TournamentRepository) ListTeams(ctx context.Context, tournamentID string) ([]models.TournamentTeam, error) {
	const query = `SELECT id, tournament_id, name, division, players, created_at
FROM tournament_teams WHERE tournament_id = $1 ORDER BY division, name`
	var teams []models.TournamentTeam
	if err := r.db.SelectContext(ctx, &teams, query, tournamentID); err != nil {
		return nil, fmt.Errorf("list tournament teams: %w", err)
	}
	return teams, nil
}

// Delete removes a tournament; schedules and teams cascade at the database level.
func (r *TournamentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM tournaments WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete tournament: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("tournament rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
