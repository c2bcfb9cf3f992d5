package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/daveytran/roundscheduler-sub000/internal/dto"
	"github.com/daveytran/roundscheduler-sub000/internal/models"
	"github.com/daveytran/roundscheduler-sub000/internal/optimizer"
	appErrors "github.com/daveytran/roundscheduler-sub000/pkg/errors"
	"github.com/daveytran/roundscheduler-sub000/pkg/jobs"
)

const jobCacheKeyPrefix = "optimize:job:"

type snapshotCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// OptimizeServiceConfig bounds job requests and snapshot retention.
type OptimizeServiceConfig struct {
	DefaultStrategy   string
	DefaultIterations int
	MaxIterations     int
	JobTimeout        time.Duration
	SnapshotTTL       time.Duration
}

// OptimizeService queues asynchronous optimization runs and exposes their
// progress. Job state lives in Redis; running jobs hold a cancel func so a
// cancellation request stops the search cooperatively.
type OptimizeService struct {
	schedules   scheduleStore
	tournaments tournamentStore
	cache       snapshotCache
	queue       jobDispatcher
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         OptimizeServiceConfig

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// NewOptimizeService constructs the service.
func NewOptimizeService(schedules scheduleStore, tournaments tournamentStore, cache snapshotCache, queue jobDispatcher, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg OptimizeServiceConfig) *OptimizeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultStrategy == "" {
		cfg.DefaultStrategy = optimizer.StrategyAnnealing
	}
	if cfg.DefaultIterations <= 0 {
		cfg.DefaultIterations = 10000
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 500000
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 10 * time.Minute
	}
	if cfg.SnapshotTTL <= 0 {
		cfg.SnapshotTTL = time.Hour
	}
	return &OptimizeService{
		schedules:   schedules,
		tournaments: tournaments,
		cache:       cache,
		queue:       queue,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
		cancels:     make(map[string]context.CancelFunc),
	}
}

// CreateJob validates the request, snapshots the job into the cache and
// enqueues it for a worker.
func (s *OptimizeService) CreateJob(ctx context.Context, req dto.OptimizeRequest, actorID string) (*dto.OptimizeJobResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid optimize payload")
	}
	if req.Iterations > s.cfg.MaxIterations {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("iterations exceed the limit of %d", s.cfg.MaxIterations))
	}
	if _, err := buildRuleSet(req.Rules); err != nil {
		return nil, err
	}

	stored, err := s.schedules.FindByID(ctx, req.ScheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}

	strategy := req.Strategy
	if strategy == "" {
		strategy = s.cfg.DefaultStrategy
	}
	iterations := req.Iterations
	if iterations <= 0 {
		iterations = s.cfg.DefaultIterations
	}

	job := &models.OptimizationJob{
		ID:               uuid.NewString(),
		TournamentID:     stored.TournamentID,
		SourceScheduleID: stored.ID,
		Strategy:         strategy,
		Iterations:       iterations,
		Seed:             req.Seed,
		Rules:            ruleParamsFrom(req.Rules),
		Status:           models.OptimizationJobStatusQueued,
		CurrentScore:     stored.Score,
		BestScore:        stored.Score,
		CreatedBy:        actorID,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.saveJob(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store job")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "optimize"}); err != nil {
		msg := "failed to enqueue job"
		job.Status = models.OptimizationJobStatusFailed
		job.ErrorMessage = &msg
		now := time.Now().UTC()
		job.FinishedAt = &now
		_ = s.saveJob(ctx, job)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, msg)
	}

	return &dto.OptimizeJobResponse{ID: job.ID, Status: job.Status, Strategy: job.Strategy}, nil
}

// GetJob returns the latest cached state of a job.
func (s *OptimizeService) GetJob(ctx context.Context, id string) (*dto.OptimizeJobStatusResponse, error) {
	job, err := s.loadJob(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.OptimizeJobStatusResponse{
		ID:               job.ID,
		Status:           job.Status,
		Strategy:         job.Strategy,
		Progress:         job.Progress,
		CurrentScore:     job.CurrentScore,
		BestScore:        job.BestScore,
		ViolationCount:   job.ViolationCount,
		ResultScheduleID: job.ResultScheduleID,
		Error:            job.ErrorMessage,
		CreatedAt:        job.CreatedAt,
		FinishedAt:       job.FinishedAt,
	}, nil
}

// CancelJob requests cooperative cancellation of a running or queued job.
func (s *OptimizeService) CancelJob(ctx context.Context, id string) error {
	job, err := s.loadJob(ctx, id)
	if err != nil {
		return err
	}
	switch job.Status {
	case models.OptimizationJobStatusFinished, models.OptimizationJobStatusFailed, models.OptimizationJobStatusCancelled:
		return appErrors.Clone(appErrors.ErrConflict, "job already finished")
	}

	s.mu.Lock()
	cancel, running := s.cancels[id]
	s.mu.Unlock()
	if running {
		cancel()
		return nil
	}

	// Still queued: mark it cancelled so the worker skips it.
	job.Status = models.OptimizationJobStatusCancelled
	now := time.Now().UTC()
	job.FinishedAt = &now
	if err := s.saveJob(ctx, job); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store job")
	}
	return nil
}

// PurgeStaleJobs drops all cached job snapshots. Jobs queued by a previous
// process reference an in-memory queue that no longer exists, so their
// snapshots would report QUEUED forever; called once at startup.
func (s *OptimizeService) PurgeStaleJobs(ctx context.Context) error {
	if err := s.cache.DeleteByPattern(ctx, jobCacheKeyPrefix+"*"); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to purge job snapshots")
	}
	s.logger.Info("purged stale optimization job snapshots")
	return nil
}

// Handle processes a queued optimization job. It is wired as the pkg/jobs
// queue handler.
func (s *OptimizeService) Handle(ctx context.Context, queued jobs.Job) error {
	job, err := s.loadJob(ctx, queued.ID)
	if err != nil {
		return err
	}
	if job.Status == models.OptimizationJobStatusCancelled {
		return nil
	}

	started := time.Now().UTC()
	job.Status = models.OptimizationJobStatusRunning
	job.StartedAt = &started
	if err := s.saveJob(ctx, job); err != nil {
		return err
	}

	best, runErr := s.run(ctx, job)

	now := time.Now().UTC()
	job.FinishedAt = &now
	switch {
	case runErr == nil:
		job.Status = models.OptimizationJobStatusFinished
	case errors.Is(runErr, context.Canceled):
		job.Status = models.OptimizationJobStatusCancelled
		runErr = nil
	default:
		job.Status = models.OptimizationJobStatusFailed
		msg := runErr.Error()
		job.ErrorMessage = &msg
	}

	if best != nil {
		stored := &models.StoredSchedule{
			TournamentID: job.TournamentID,
			Score:        best.Score,
			Violations:   violationsJSON(best.Violations),
		}
		persistStart := time.Now()
		err := s.schedules.CreateVersioned(ctx, nil, stored, storedMatchesFrom(best))
		s.metrics.ObserveDBQuery("schedule_create_versioned", time.Since(persistStart))
		if err != nil {
			s.logger.Error("failed to persist optimized schedule",
				zap.String("job_id", job.ID), zap.Error(err))
			if runErr == nil {
				runErr = err
				job.Status = models.OptimizationJobStatusFailed
				msg := err.Error()
				job.ErrorMessage = &msg
			}
		} else {
			job.ResultScheduleID = &stored.ID
			job.BestScore = best.Score
			job.ViolationCount = len(best.Violations)
		}
	}

	if err := s.saveJob(ctx, job); err != nil {
		s.logger.Warn("failed to store final job state", zap.String("job_id", job.ID), zap.Error(err))
	}
	s.metrics.ObserveOptimizerJob(job.Strategy, string(job.Status), now.Sub(started))
	return runErr
}

// run executes the optimization under the job's timeout, streaming snapshots
// into the cache.
func (s *OptimizeService) run(ctx context.Context, job *models.OptimizationJob) (*models.Schedule, error) {
	queryStart := time.Now()
	stored, err := s.schedules.FindByID(ctx, job.SourceScheduleID)
	s.metrics.ObserveDBQuery("schedule_find_by_id", time.Since(queryStart))
	if err != nil {
		return nil, fmt.Errorf("load source schedule: %w", err)
	}
	queryStart = time.Now()
	rows, err := s.schedules.LoadMatches(ctx, stored.ID)
	s.metrics.ObserveDBQuery("schedule_load_matches", time.Since(queryStart))
	if err != nil {
		return nil, fmt.Errorf("load source matches: %w", err)
	}
	queryStart = time.Now()
	teams, err := s.tournaments.ListTeams(ctx, stored.TournamentID)
	s.metrics.ObserveDBQuery("tournament_list_teams", time.Since(queryStart))
	if err != nil {
		return nil, fmt.Errorf("load tournament teams: %w", err)
	}
	schedule, err := assembleSchedule(teams, rows)
	if err != nil {
		return nil, fmt.Errorf("assemble schedule: %w", err)
	}

	configs := make([]dto.RuleConfigRequest, 0, len(job.Rules))
	for _, r := range job.Rules {
		configs = append(configs, dto.RuleConfigRequest{Name: r.Name, Priority: r.Priority, Params: r.Params})
	}
	ruleSet, err := buildRuleSet(configs)
	if err != nil {
		return nil, err
	}

	seed := time.Now().UnixNano()
	if job.Seed != nil {
		seed = *job.Seed
	}
	opt := optimizer.New(rand.New(rand.NewSource(seed)), s.logger)
	strategy, err := opt.NewStrategy(job.Strategy)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.JobTimeout)
	s.registerCancel(job.ID, cancel)
	defer s.unregisterCancel(job.ID)
	defer cancel()

	lastIteration := 0
	observer := func(snap optimizer.Snapshot) {
		job.Progress = snap.Progress
		job.CurrentScore = snap.CurrentScore
		job.BestScore = snap.BestScore
		job.ViolationCount = len(snap.Violations)
		if err := s.saveJob(runCtx, job); err != nil {
			s.logger.Debug("snapshot store failed", zap.String("job_id", job.ID), zap.Error(err))
		}
		s.metrics.ObserveOptimizerProgress(job.Strategy, snap.Iteration-lastIteration, snap.BestScore, len(snap.Violations))
		lastIteration = snap.Iteration
	}

	best := opt.Optimize(runCtx, schedule, ruleSet, job.Iterations, observer, strategy)
	if runCtx.Err() != nil && ctx.Err() == nil {
		// Cancelled or timed out mid-search; the best found so far still
		// gets persisted by the caller.
		return best, context.Canceled
	}
	return best, nil
}

func (s *OptimizeService) registerCancel(id string, cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancels[id] = cancel
}

func (s *OptimizeService) unregisterCancel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cancels, id)
}

func (s *OptimizeService) saveJob(ctx context.Context, job *models.OptimizationJob) error {
	return s.cache.Set(ctx, jobCacheKeyPrefix+job.ID, job, s.cfg.SnapshotTTL)
}

func (s *OptimizeService) loadJob(ctx context.Context, id string) (*models.OptimizationJob, error) {
	var job models.OptimizationJob
	if err := s.cache.Get(ctx, jobCacheKeyPrefix+id, &job); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load job")
	}
	return &job, nil
}

func ruleParamsFrom(configs []dto.RuleConfigRequest) []models.RuleParam {
	params := make([]models.RuleParam, 0, len(configs))
	for _, cfg := range configs {
		params = append(params, models.RuleParam{Name: cfg.Name, Priority: cfg.Priority, Params: cfg.Params})
	}
	return params
}
