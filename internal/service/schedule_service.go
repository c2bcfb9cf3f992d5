package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/daveytran/roundscheduler-sub000/internal/dto"
	"github.com/daveytran/roundscheduler-sub000/internal/models"
	"github.com/daveytran/roundscheduler-sub000/internal/rules"
	appErrors "github.com/daveytran/roundscheduler-sub000/pkg/errors"
)

// ScheduleService exposes stored schedule versions and on-demand rule
// evaluation.
type ScheduleService struct {
	schedules   scheduleStore
	tournaments tournamentStore
	logger      *zap.Logger
}

// NewScheduleService constructs the service.
func NewScheduleService(schedules scheduleStore, tournaments tournamentStore, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{schedules: schedules, tournaments: tournaments, logger: logger}
}

// List returns all schedule versions of a tournament without match bodies.
func (s *ScheduleService) List(ctx context.Context, tournamentID string) ([]dto.ScheduleResponse, error) {
	if tournamentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "tournamentId is required")
	}
	schedules, err := s.schedules.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	out := make([]dto.ScheduleResponse, 0, len(schedules))
	for i := range schedules {
		out = append(out, scheduleResponse(&schedules[i], nil))
	}
	return out, nil
}

// Get returns one schedule version with its match rows.
func (s *ScheduleService) Get(ctx context.Context, id string) (*dto.ScheduleResponse, error) {
	stored, rows, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := scheduleResponse(stored, rows)
	return &resp, nil
}

// Publish marks a schedule version as the published one for its tournament.
func (s *ScheduleService) Publish(ctx context.Context, id string) error {
	if err := s.schedules.UpdateStatus(ctx, nil, id, models.StoredScheduleStatusPublished); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish schedule")
	}
	s.logger.Info("schedule published", zap.String("schedule_id", id))
	return nil
}

// Delete removes a stored schedule version.
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	if err := s.schedules.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule")
	}
	return nil
}

// Evaluate re-scores a stored schedule against a caller-supplied rule set and
// returns the fresh findings without persisting them. An empty rule list
// applies the defaults.
func (s *ScheduleService) Evaluate(ctx context.Context, id string, configs []dto.RuleConfigRequest) (*dto.ScheduleResponse, error) {
	stored, rows, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	teams, err := s.tournaments.ListTeams(ctx, stored.TournamentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tournament teams")
	}

	schedule, err := assembleSchedule(teams, rows)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidSchedule.Code, appErrors.ErrInvalidSchedule.Status, err.Error())
	}

	ruleSet, err := buildRuleSet(configs)
	if err != nil {
		return nil, err
	}
	schedule.Evaluate(ruleSet)

	resp := scheduleResponse(stored, rows)
	resp.Score = schedule.Score
	resp.Violations = violationViews(schedule.Violations)
	return &resp, nil
}

func (s *ScheduleService) load(ctx context.Context, id string) (*models.StoredSchedule, []models.StoredMatch, error) {
	stored, err := s.schedules.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	rows, err := s.schedules.LoadMatches(ctx, id)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule matches")
	}
	return stored, rows, nil
}

// buildRuleSet materialises the requested rules, falling back to the default
// set when none are given.
func buildRuleSet(configs []dto.RuleConfigRequest) ([]models.Rule, error) {
	if len(configs) == 0 {
		return rules.DefaultSet(), nil
	}
	ruleConfigs := make([]rules.Config, 0, len(configs))
	for _, cfg := range configs {
		ruleConfigs = append(ruleConfigs, rules.Config{
			Name:     cfg.Name,
			Priority: cfg.Priority,
			Params:   cfg.Params,
		})
	}
	ruleSet, err := rules.FromConfigs(ruleConfigs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	return ruleSet, nil
}
