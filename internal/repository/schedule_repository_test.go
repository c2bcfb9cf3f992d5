package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daveytran/roundscheduler-sub000/internal/models"
)

func TestCreateVersionedAssignsNextVersion(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(version), 0) + 1 FROM schedules WHERE tournament_id = $1")).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(3))
	mock.ExpectExec("INSERT INTO schedules").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO schedule_matches").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO schedule_matches").WillReturnResult(sqlmock.NewResult(1, 1))

	schedule := &models.StoredSchedule{TournamentID: "t1", Score: 2.5}
	matches := []models.StoredMatch{
		{TimeSlot: 1, Field: "Field 1", Division: "mixed", Team1: "A", Team2: "B", Activity: models.ActivityRegular},
		{TimeSlot: 2, Field: "Field 1", Division: "mixed", Team1: "C", Team2: "D", Activity: models.ActivityRegular},
	}

	err := repo.CreateVersioned(context.Background(), nil, schedule, matches)
	require.NoError(t, err)
	assert.Equal(t, 3, schedule.Version)
	assert.NotEmpty(t, schedule.ID)
	assert.Equal(t, models.StoredScheduleStatusDraft, schedule.Status)
	assert.JSONEq(t, `[]`, string(schedule.Violations))
	assert.Equal(t, schedule.ID, matches[0].ScheduleID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateVersionedRequiresTournamentID(t *testing.T) {
	db, _, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	err := repo.CreateVersioned(context.Background(), nil, &models.StoredSchedule{}, nil)
	require.Error(t, err)
}

func TestListByTournament(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "tournament_id", "version", "status", "score", "violations", "created_at", "updated_at"}).
		AddRow("s2", "t1", 2, "DRAFT", 1.0, []byte(`[]`), now, now).
		AddRow("s1", "t1", 1, "ARCHIVED", 4.0, []byte(`[]`), now, now)
	mock.ExpectQuery("SELECT id, tournament_id, version, status, score, violations, created_at, updated_at").
		WithArgs("t1").
		WillReturnRows(rows)

	schedules, err := repo.ListByTournament(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, schedules, 2)
	assert.Equal(t, 2, schedules[0].Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadMatches(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "schedule_id", "time_slot", "field", "division", "team1", "team2", "referee", "referee_division", "activity", "locked", "created_at"}).
		AddRow("m1", "s1", 1, "Field 1", "mixed", "A", "B", "C", "gendered", "REGULAR", false, now).
		AddRow("m2", "s1", 2, "Field 1", "mixed", "A", "C", nil, nil, "REGULAR", false, now)
	mock.ExpectQuery("SELECT id, schedule_id, time_slot, field, division, team1, team2, referee, referee_division, activity, locked, created_at").
		WithArgs("s1").
		WillReturnRows(rows)

	matches, err := repo.LoadMatches(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	require.NotNil(t, matches[0].Referee)
	assert.Equal(t, "C", *matches[0].Referee)
	require.NotNil(t, matches[0].RefereeDivision)
	assert.Equal(t, models.DivisionGendered, *matches[0].RefereeDivision)
	assert.Nil(t, matches[1].Referee)
	assert.Nil(t, matches[1].RefereeDivision)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusPublishArchivesPrevious(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec("UPDATE schedules SET status").
		WithArgs(models.StoredScheduleStatusArchived, sqlmock.AnyArg(), "s2", models.StoredScheduleStatusPublished).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE schedules SET status").
		WithArgs(models.StoredScheduleStatusPublished, sqlmock.AnyArg(), "s2").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), nil, "s2", models.StoredScheduleStatusPublished)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusMissingSchedule(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec("UPDATE schedules SET status").
		WithArgs(models.StoredScheduleStatusArchived, sqlmock.AnyArg(), "nope").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), nil, "nope", models.StoredScheduleStatusArchived)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteScheduleMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec("DELETE FROM schedules").
		WithArgs("nope").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
