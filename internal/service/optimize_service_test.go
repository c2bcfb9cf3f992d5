package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/daveytran/roundscheduler-sub000/internal/dto"
	"github.com/daveytran/roundscheduler-sub000/internal/models"
	appErrors "github.com/daveytran/roundscheduler-sub000/pkg/errors"
	"github.com/daveytran/roundscheduler-sub000/pkg/jobs"
)

type fakeJobCache struct {
	data map[string][]byte
}

func newFakeJobCache() *fakeJobCache {
	return &fakeJobCache{data: make(map[string][]byte)}
}

func (f *fakeJobCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := f.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeJobCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.data[key] = raw
	return nil
}

func (f *fakeJobCache) DeleteByPattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range f.data {
		if strings.HasPrefix(key, prefix) {
			delete(f.data, key)
		}
	}
	return nil
}

type fakeDispatcher struct {
	jobs []jobs.Job
	err  error
}

func (f *fakeDispatcher) Enqueue(job jobs.Job) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func newOptimizeFixture(t *testing.T, cfg OptimizeServiceConfig) (*OptimizeService, *fakeDispatcher, *fakeScheduleStore, string) {
	t.Helper()
	tournaments := newFakeTournamentStore()
	schedules := newFakeScheduleStore()

	importer := NewTournamentService(nil, tournaments, schedules, validator.New(), zap.NewNop())
	resp, err := importer.Import(context.Background(), importRequest(), "actor")
	require.NoError(t, err)

	dispatcher := &fakeDispatcher{}
	svc := NewOptimizeService(schedules, tournaments, newFakeJobCache(), dispatcher, NewMetricsService(), validator.New(), zap.NewNop(), cfg)
	return svc, dispatcher, schedules, resp.Schedule.ID
}

func TestOptimizeCreateJobQueues(t *testing.T) {
	svc, dispatcher, _, scheduleID := newOptimizeFixture(t, OptimizeServiceConfig{})

	resp, err := svc.CreateJob(context.Background(), dto.OptimizeRequest{ScheduleID: scheduleID, Strategy: "annealing", Iterations: 200}, "actor")
	require.NoError(t, err)
	assert.Equal(t, models.OptimizationJobStatusQueued, resp.Status)
	assert.Equal(t, "annealing", resp.Strategy)

	require.Len(t, dispatcher.jobs, 1)
	assert.Equal(t, resp.ID, dispatcher.jobs[0].ID)
	assert.Equal(t, "optimize", dispatcher.jobs[0].Type)

	status, err := svc.GetJob(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OptimizationJobStatusQueued, status.Status)
}

func TestOptimizeCreateJobUnknownSchedule(t *testing.T) {
	svc, _, _, _ := newOptimizeFixture(t, OptimizeServiceConfig{})

	_, err := svc.CreateJob(context.Background(), dto.OptimizeRequest{ScheduleID: "missing"}, "actor")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, errorCode(t, err))
}

func TestOptimizeCreateJobIterationLimit(t *testing.T) {
	svc, _, _, scheduleID := newOptimizeFixture(t, OptimizeServiceConfig{MaxIterations: 100})

	_, err := svc.CreateJob(context.Background(), dto.OptimizeRequest{ScheduleID: scheduleID, Iterations: 1000}, "actor")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(t, err))
}

func TestOptimizeCreateJobEnqueueFailure(t *testing.T) {
	svc, dispatcher, _, scheduleID := newOptimizeFixture(t, OptimizeServiceConfig{})
	dispatcher.err = errors.New("queue closed")

	_, err := svc.CreateJob(context.Background(), dto.OptimizeRequest{ScheduleID: scheduleID}, "actor")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, errorCode(t, err))
}

func TestOptimizeGetJobMissing(t *testing.T) {
	svc, _, _, _ := newOptimizeFixture(t, OptimizeServiceConfig{})

	_, err := svc.GetJob(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, errorCode(t, err))
}

func TestOptimizeCancelQueuedJobSkipsWorker(t *testing.T) {
	svc, _, schedules, scheduleID := newOptimizeFixture(t, OptimizeServiceConfig{})

	resp, err := svc.CreateJob(context.Background(), dto.OptimizeRequest{ScheduleID: scheduleID}, "actor")
	require.NoError(t, err)
	require.NoError(t, svc.CancelJob(context.Background(), resp.ID))

	status, err := svc.GetJob(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OptimizationJobStatusCancelled, status.Status)
	assert.NotNil(t, status.FinishedAt)

	// The worker picks it up later and leaves it untouched.
	require.NoError(t, svc.Handle(context.Background(), jobs.Job{ID: resp.ID, Type: "optimize"}))
	assert.Len(t, schedules.schedules, 1)
}

func TestOptimizeHandleFinishesJob(t *testing.T) {
	svc, _, schedules, scheduleID := newOptimizeFixture(t, OptimizeServiceConfig{})

	source, err := schedules.FindByID(context.Background(), scheduleID)
	require.NoError(t, err)

	seed := int64(42)
	resp, err := svc.CreateJob(context.Background(), dto.OptimizeRequest{
		ScheduleID: scheduleID,
		Strategy:   "annealing",
		Iterations: 400,
		Seed:       &seed,
	}, "actor")
	require.NoError(t, err)

	require.NoError(t, svc.Handle(context.Background(), jobs.Job{ID: resp.ID, Type: "optimize"}))

	status, err := svc.GetJob(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OptimizationJobStatusFinished, status.Status)
	require.NotNil(t, status.ResultScheduleID)
	assert.LessOrEqual(t, status.BestScore, source.Score)

	result, err := schedules.FindByID(context.Background(), *status.ResultScheduleID)
	require.NoError(t, err)
	assert.Equal(t, source.TournamentID, result.TournamentID)
	assert.Equal(t, 2, result.Version)
	assert.Equal(t, status.BestScore, result.Score)

	rows, err := schedules.LoadMatches(context.Background(), result.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	assert.Greater(t, testutil.CollectAndCount(svc.metrics.dbQueryDuration), 0)
}

func TestOptimizePurgeStaleJobs(t *testing.T) {
	svc, _, _, scheduleID := newOptimizeFixture(t, OptimizeServiceConfig{})

	resp, err := svc.CreateJob(context.Background(), dto.OptimizeRequest{ScheduleID: scheduleID}, "actor")
	require.NoError(t, err)

	require.NoError(t, svc.PurgeStaleJobs(context.Background()))

	_, err = svc.GetJob(context.Background(), resp.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, errorCode(t, err))
}

func TestOptimizeCancelFinishedJobConflicts(t *testing.T) {
	svc, _, _, scheduleID := newOptimizeFixture(t, OptimizeServiceConfig{})

	seed := int64(7)
	resp, err := svc.CreateJob(context.Background(), dto.OptimizeRequest{ScheduleID: scheduleID, Iterations: 100, Seed: &seed}, "actor")
	require.NoError(t, err)
	require.NoError(t, svc.Handle(context.Background(), jobs.Job{ID: resp.ID, Type: "optimize"}))

	err = svc.CancelJob(context.Background(), resp.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, errorCode(t, err))
}
