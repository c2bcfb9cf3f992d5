package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/daveytran/roundscheduler-sub000/internal/dto"
	"github.com/daveytran/roundscheduler-sub000/internal/models"
	"github.com/daveytran/roundscheduler-sub000/internal/rules"
	appErrors "github.com/daveytran/roundscheduler-sub000/pkg/errors"
)

type tournamentStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, tournament *models.Tournament, teams []models.TournamentTeam) error
	FindByID(ctx context.Context, id string) (*models.Tournament, error)
	List(ctx context.Context) ([]models.Tournament, error)
	ListTeams(ctx context.Context, tournamentID string) ([]models.TournamentTeam, error)
	Delete(ctx context.Context, id string) error
}

type scheduleStore interface {
	CreateVersioned(ctx context.Context, exec sqlx.ExtContext, schedule *models.StoredSchedule, matches []models.StoredMatch) error
	ListByTournament(ctx context.Context, tournamentID string) ([]models.StoredSchedule, error)
	FindByID(ctx context.Context, id string) (*models.StoredSchedule, error)
	LoadMatches(ctx context.Context, scheduleID string) ([]models.StoredMatch, error)
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.StoredScheduleStatus) error
	Delete(ctx context.Context, id string) error
}

// TournamentService imports tournaments and builds their initial draft
// schedule. Construction-time validation failures (unknown team, referee on a
// playing side, unlocked special activity) surface as validation errors.
type TournamentService struct {
	db          *sqlx.DB
	tournaments tournamentStore
	schedules   scheduleStore
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewTournamentService constructs the service. The db handle is optional and
// only used to wrap imports in a transaction.
func NewTournamentService(db *sqlx.DB, tournaments tournamentStore, schedules scheduleStore, validate *validator.Validate, logger *zap.Logger) *TournamentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TournamentService{
		db:          db,
		tournaments: tournaments,
		schedules:   schedules,
		validator:   validate,
		logger:      logger,
	}
}

// Import validates the payload, assembles the domain schedule and persists
// the tournament with its version-1 draft.
func (s *TournamentService) Import(ctx context.Context, req dto.ImportTournamentRequest, actorID string) (*dto.ImportTournamentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid tournament payload")
	}

	teams := make([]models.TournamentTeam, 0)
	for _, division := range req.Divisions {
		if !division.Division.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown division "+string(division.Division))
		}
		for _, team := range division.Teams {
			teams = append(teams, models.TournamentTeam{
				Name:     team.Name,
				Division: division.Division,
				Players:  team.Players,
			})
		}
	}

	rows := make([]models.StoredMatch, 0, len(req.Matches))
	for _, match := range req.Matches {
		activity := match.Activity
		if activity == "" {
			activity = models.ActivityRegular
		}
		rows = append(rows, models.StoredMatch{
			TimeSlot:        match.TimeSlot,
			Field:           match.Field,
			Division:        match.Division,
			Team1:           match.Team1,
			Team2:           match.Team2,
			Referee:         match.Referee,
			RefereeDivision: match.RefereeDivision,
			Activity:        activity,
			Locked:          match.Locked,
		})
	}

	schedule, err := assembleSchedule(teams, rows)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidSchedule.Code, appErrors.ErrInvalidSchedule.Status, err.Error())
	}
	schedule.Evaluate(rules.DefaultSet())

	tournament := &models.Tournament{Name: req.Name, CreatedBy: actorID}
	stored := &models.StoredSchedule{
		Score:      schedule.Score,
		Violations: violationsJSON(schedule.Violations),
	}
	storedRows := storedMatchesFrom(schedule)

	persist := func(exec sqlx.ExtContext) error {
		if err := s.tournaments.Create(ctx, exec, tournament, teams); err != nil {
			return err
		}
		stored.TournamentID = tournament.ID
		return s.schedules.CreateVersioned(ctx, exec, stored, storedRows)
	}

	if s.db != nil {
		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open transaction")
		}
		if err := persist(tx); err != nil {
			_ = tx.Rollback()
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist tournament")
		}
		if err := tx.Commit(); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit tournament")
		}
	} else if err := persist(nil); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist tournament")
	}

	s.logger.Info("tournament imported",
		zap.String("tournament_id", tournament.ID),
		zap.Int("teams", len(teams)),
		zap.Int("matches", len(storedRows)),
		zap.Float64("initial_score", schedule.Score))

	return &dto.ImportTournamentResponse{
		Tournament: tournamentResponse(tournament, teams),
		Schedule:   scheduleResponse(stored, storedRows),
	}, nil
}

// Get returns a tournament summary.
func (s *TournamentService) Get(ctx context.Context, id string) (*dto.TournamentResponse, error) {
	tournament, err := s.tournaments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tournament not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tournament")
	}
	teams, err := s.tournaments.ListTeams(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tournament teams")
	}
	resp := tournamentResponse(tournament, teams)
	return &resp, nil
}

// List returns all tournaments.
func (s *TournamentService) List(ctx context.Context) ([]dto.TournamentResponse, error) {
	tournaments, err := s.tournaments.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tournaments")
	}
	out := make([]dto.TournamentResponse, 0, len(tournaments))
	for i := range tournaments {
		out = append(out, tournamentResponse(&tournaments[i], nil))
	}
	return out, nil
}

// Delete removes a tournament and everything under it.
func (s *TournamentService) Delete(ctx context.Context, id string) error {
	if err := s.tournaments.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "tournament not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete tournament")
	}
	return nil
}

// LoadSchedule rebuilds the domain schedule behind a stored version.
func (s *TournamentService) LoadSchedule(ctx context.Context, scheduleID string) (*models.StoredSchedule, *models.Schedule, error) {
	stored, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	rows, err := s.schedules.LoadMatches(ctx, scheduleID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule matches")
	}
	teams, err := s.tournaments.ListTeams(ctx, stored.TournamentID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tournament teams")
	}
	schedule, err := assembleSchedule(teams, rows)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInvalidSchedule.Code, appErrors.ErrInvalidSchedule.Status, err.Error())
	}
	return stored, schedule, nil
}

func tournamentResponse(tournament *models.Tournament, teams []models.TournamentTeam) dto.TournamentResponse {
	divisions := make([]string, 0)
	seen := map[models.Division]bool{}
	for _, team := range teams {
		if !seen[team.Division] {
			seen[team.Division] = true
			divisions = append(divisions, string(team.Division))
		}
	}
	return dto.TournamentResponse{
		ID:        tournament.ID,
		Name:      tournament.Name,
		Teams:     len(teams),
		Divisions: divisions,
		CreatedAt: tournament.CreatedAt,
	}
}
