package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/daveytran/roundscheduler-sub000/internal/dto"
	"github.com/daveytran/roundscheduler-sub000/internal/models"
	appErrors "github.com/daveytran/roundscheduler-sub000/pkg/errors"
)

type fakeTournamentStore struct {
	tournaments map[string]*models.Tournament
	teams       map[string][]models.TournamentTeam
	seq         int
}

func newFakeTournamentStore() *fakeTournamentStore {
	return &fakeTournamentStore{
		tournaments: make(map[string]*models.Tournament),
		teams:       make(map[string][]models.TournamentTeam),
	}
}

func (f *fakeTournamentStore) Create(ctx context.Context, exec sqlx.ExtContext, tournament *models.Tournament, teams []models.TournamentTeam) error {
	f.seq++
	if tournament.ID == "" {
		tournament.ID = fmt.Sprintf("tournament-%d", f.seq)
	}
	stored := make([]models.TournamentTeam, len(teams))
	for i, team := range teams {
		team.ID = fmt.Sprintf("%s-team-%d", tournament.ID, i+1)
		team.TournamentID = tournament.ID
		stored[i] = team
	}
	f.tournaments[tournament.ID] = tournament
	f.teams[tournament.ID] = stored
	return nil
}

func (f *fakeTournamentStore) FindByID(ctx context.Context, id string) (*models.Tournament, error) {
	tournament, ok := f.tournaments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *tournament
	return &copied, nil
}

func (f *fakeTournamentStore) List(ctx context.Context) ([]models.Tournament, error) {
	out := make([]models.Tournament, 0, len(f.tournaments))
	for _, tournament := range f.tournaments {
		out = append(out, *tournament)
	}
	return out, nil
}

func (f *fakeTournamentStore) ListTeams(ctx context.Context, tournamentID string) ([]models.TournamentTeam, error) {
	return f.teams[tournamentID], nil
}

func (f *fakeTournamentStore) Delete(ctx context.Context, id string) error {
	if _, ok := f.tournaments[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.tournaments, id)
	delete(f.teams, id)
	return nil
}

type fakeScheduleStore struct {
	schedules map[string]*models.StoredSchedule
	matches   map[string][]models.StoredMatch
	seq       int
}

func newFakeScheduleStore() *fakeScheduleStore {
	return &fakeScheduleStore{
		schedules: make(map[string]*models.StoredSchedule),
		matches:   make(map[string][]models.StoredMatch),
	}
}

func (f *fakeScheduleStore) CreateVersioned(ctx context.Context, exec sqlx.ExtContext, schedule *models.StoredSchedule, matches []models.StoredMatch) error {
	if schedule.TournamentID == "" {
		return errors.New("tournament id required")
	}
	version := 0
	for _, existing := range f.schedules {
		if existing.TournamentID == schedule.TournamentID && existing.Version > version {
			version = existing.Version
		}
	}
	f.seq++
	schedule.ID = fmt.Sprintf("schedule-%d", f.seq)
	schedule.Version = version + 1
	if schedule.Status == "" {
		schedule.Status = models.StoredScheduleStatusDraft
	}
	if len(schedule.Violations) == 0 {
		schedule.Violations = []byte("[]")
	}
	copied := *schedule
	f.schedules[schedule.ID] = &copied

	stored := make([]models.StoredMatch, len(matches))
	for i, match := range matches {
		match.ID = fmt.Sprintf("%s-match-%d", schedule.ID, i+1)
		match.ScheduleID = schedule.ID
		stored[i] = match
	}
	f.matches[schedule.ID] = stored
	return nil
}

func (f *fakeScheduleStore) ListByTournament(ctx context.Context, tournamentID string) ([]models.StoredSchedule, error) {
	out := make([]models.StoredSchedule, 0)
	for _, schedule := range f.schedules {
		if schedule.TournamentID == tournamentID {
			out = append(out, *schedule)
		}
	}
	return out, nil
}

func (f *fakeScheduleStore) FindByID(ctx context.Context, id string) (*models.StoredSchedule, error) {
	schedule, ok := f.schedules[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *schedule
	return &copied, nil
}

func (f *fakeScheduleStore) LoadMatches(ctx context.Context, scheduleID string) ([]models.StoredMatch, error) {
	return f.matches[scheduleID], nil
}

func (f *fakeScheduleStore) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.StoredScheduleStatus) error {
	schedule, ok := f.schedules[id]
	if !ok {
		return sql.ErrNoRows
	}
	if status == models.StoredScheduleStatusPublished {
		for _, other := range f.schedules {
			if other.TournamentID == schedule.TournamentID && other.Status == models.StoredScheduleStatusPublished {
				other.Status = models.StoredScheduleStatusArchived
			}
		}
	}
	schedule.Status = status
	return nil
}

func (f *fakeScheduleStore) Delete(ctx context.Context, id string) error {
	if _, ok := f.schedules[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.schedules, id)
	delete(f.matches, id)
	return nil
}

func importRequest() dto.ImportTournamentRequest {
	referee := "Hawks"
	return dto.ImportTournamentRequest{
		Name: "Autumn Cup",
		Divisions: []dto.DivisionImport{
			{
				Division: models.DivisionMixed,
				Teams: []dto.TeamImport{
					{Name: "Hawks", Players: []string{"Ana", "Ben"}},
					{Name: "Owls", Players: []string{"Cleo", "Dev"}},
					{Name: "Ravens", Players: []string{"Eli", "Fay"}},
					{Name: "Finches", Players: []string{"Gus", "Hana"}},
				},
			},
		},
		Matches: []dto.MatchImport{
			{Team1: "Hawks", Team2: "Owls", Division: models.DivisionMixed, TimeSlot: 1, Field: "Court 1"},
			{Team1: "Ravens", Team2: "Finches", Division: models.DivisionMixed, TimeSlot: 1, Field: "Court 2"},
			{Team1: "Hawks", Team2: "Ravens", Division: models.DivisionMixed, TimeSlot: 2, Field: "Court 1"},
			{Team1: "Owls", Team2: "Finches", Division: models.DivisionMixed, TimeSlot: 3, Field: "Court 1", Referee: &referee},
		},
	}
}

func errorCode(t *testing.T, err error) string {
	t.Helper()
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	return appErr.Code
}

func TestTournamentImportCreatesDraftSchedule(t *testing.T) {
	tournaments := newFakeTournamentStore()
	schedules := newFakeScheduleStore()
	svc := NewTournamentService(nil, tournaments, schedules, validator.New(), zap.NewNop())

	resp, err := svc.Import(context.Background(), importRequest(), "actor")
	require.NoError(t, err)

	assert.Equal(t, "Autumn Cup", resp.Tournament.Name)
	assert.Equal(t, 4, resp.Tournament.Teams)
	assert.Equal(t, []string{"mixed"}, resp.Tournament.Divisions)

	assert.Equal(t, 1, resp.Schedule.Version)
	assert.Equal(t, models.StoredScheduleStatusDraft, resp.Schedule.Status)
	assert.Len(t, resp.Schedule.Matches, 4)
	// Hawks and Ravens both play slots 1 and 2, so the draft carries
	// back-to-back findings with a positive score.
	assert.Greater(t, resp.Schedule.Score, 0.0)
	assert.NotEmpty(t, resp.Schedule.Violations)

	stored, err := schedules.FindByID(context.Background(), resp.Schedule.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.Tournament.ID, stored.TournamentID)
}

func TestTournamentImportUnknownDivision(t *testing.T) {
	svc := NewTournamentService(nil, newFakeTournamentStore(), newFakeScheduleStore(), validator.New(), zap.NewNop())

	req := importRequest()
	req.Divisions[0].Division = "juniors"

	_, err := svc.Import(context.Background(), req, "actor")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(t, err))
}

func TestTournamentImportUnknownTeam(t *testing.T) {
	svc := NewTournamentService(nil, newFakeTournamentStore(), newFakeScheduleStore(), validator.New(), zap.NewNop())

	req := importRequest()
	req.Matches[0].Team1 = "Eagles"

	_, err := svc.Import(context.Background(), req, "actor")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidSchedule.Code, errorCode(t, err))
}

func TestTournamentImportCrossDivisionReferee(t *testing.T) {
	tournaments := newFakeTournamentStore()
	schedules := newFakeScheduleStore()
	svc := NewTournamentService(nil, tournaments, schedules, validator.New(), zap.NewNop())

	referee := "Storks"
	refereeDivision := models.DivisionGendered
	req := importRequest()
	req.Divisions = append(req.Divisions, dto.DivisionImport{
		Division: models.DivisionGendered,
		Teams: []dto.TeamImport{
			{Name: "Storks", Players: []string{"Ida", "Jo"}},
		},
	})
	req.Matches[0].Referee = &referee
	req.Matches[0].RefereeDivision = &refereeDivision

	resp, err := svc.Import(context.Background(), req, "actor")
	require.NoError(t, err)

	rows, err := schedules.LoadMatches(context.Background(), resp.Schedule.ID)
	require.NoError(t, err)
	var crossReffed *models.StoredMatch
	for i := range rows {
		if rows[i].Referee != nil && *rows[i].Referee == "Storks" {
			crossReffed = &rows[i]
		}
	}
	require.NotNil(t, crossReffed)
	require.NotNil(t, crossReffed.RefereeDivision)
	assert.Equal(t, models.DivisionGendered, *crossReffed.RefereeDivision)

	// The gendered referee survives the reload into the mixed match.
	_, schedule, err := svc.LoadSchedule(context.Background(), resp.Schedule.ID)
	require.NoError(t, err)
	var reffed *models.Match
	for _, match := range schedule.Matches {
		if match.Referee != nil && match.Referee.Name == "Storks" {
			reffed = match
		}
	}
	require.NotNil(t, reffed)
	assert.Equal(t, models.DivisionGendered, reffed.Referee.Division)
	assert.Equal(t, models.DivisionMixed, reffed.Division)
}

func TestTournamentGetNotFound(t *testing.T) {
	svc := NewTournamentService(nil, newFakeTournamentStore(), newFakeScheduleStore(), validator.New(), zap.NewNop())

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, errorCode(t, err))
}

func TestTournamentDelete(t *testing.T) {
	tournaments := newFakeTournamentStore()
	schedules := newFakeScheduleStore()
	svc := NewTournamentService(nil, tournaments, schedules, validator.New(), zap.NewNop())

	resp, err := svc.Import(context.Background(), importRequest(), "actor")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), resp.Tournament.ID))
	_, err = tournaments.FindByID(context.Background(), resp.Tournament.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	err = svc.Delete(context.Background(), resp.Tournament.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, errorCode(t, err))
}

func TestTournamentLoadScheduleRoundTrip(t *testing.T) {
	tournaments := newFakeTournamentStore()
	schedules := newFakeScheduleStore()
	svc := NewTournamentService(nil, tournaments, schedules, validator.New(), zap.NewNop())

	resp, err := svc.Import(context.Background(), importRequest(), "actor")
	require.NoError(t, err)

	stored, schedule, err := svc.LoadSchedule(context.Background(), resp.Schedule.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Version)
	assert.Len(t, schedule.Matches, 4)

	// Referees resolve back to shared team objects.
	var reffed *models.Match
	for _, match := range schedule.Matches {
		if match.Referee != nil {
			reffed = match
		}
	}
	require.NotNil(t, reffed)
	assert.Equal(t, "Hawks", reffed.Referee.Name)
}
