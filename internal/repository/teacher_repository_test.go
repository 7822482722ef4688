package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadplan/timetable-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTeacherRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	rows := sqlmock.NewRows([]string{"id", "full_name", "email", "phone", "active", "created_at", "updated_at"}).
		AddRow("t1", "Teacher A", "a@example.com", nil, true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, full_name, email, phone, active, created_at, updated_at FROM teachers WHERE 1=1 ORDER BY full_name ASC LIMIT 20 OFFSET 0")).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM teachers WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), "", nil, 1, 20)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectExec("INSERT INTO teachers").
		WithArgs(sqlmock.AnyArg(), "Teacher A", "a@example.com", sqlmock.AnyArg(), true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	teacher := &models.Teacher{FullName: "Teacher A", Email: "a@example.com", Active: true}
	require.NoError(t, repo.Create(context.Background(), teacher))
	assert.NotEmpty(t, teacher.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryExistsByEmail(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM teachers WHERE LOWER(email) = LOWER($1) LIMIT 1")).
		WithArgs("a@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	exists, err := repo.ExistsByEmail(context.Background(), "a@example.com", "")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryReplaceAvailability(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM availability_windows WHERE teacher_id = $1")).
		WithArgs("t1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO availability_windows").
		WithArgs(sqlmock.AnyArg(), "t1", "Monday", "08:00", "12:00", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO availability_windows").
		WithArgs(sqlmock.AnyArg(), "t1", "Tuesday", "09:00", "11:00", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	windows := []models.AvailabilityWindow{
		{DayOfWeek: "Monday", StartTime: "08:00", EndTime: "12:00"},
		{DayOfWeek: "Tuesday", StartTime: "09:00", EndTime: "11:00"},
	}
	require.NoError(t, repo.ReplaceAvailability(context.Background(), "t1", windows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryListActiveWithAvailability(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	teacherRows := sqlmock.NewRows([]string{"id", "full_name", "email", "phone", "active", "created_at", "updated_at"}).
		AddRow("t1", "Teacher A", "a@example.com", nil, true, time.Now(), time.Now()).
		AddRow("t2", "Teacher B", "b@example.com", nil, true, time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, full_name, email, phone, active, created_at, updated_at FROM teachers WHERE active = true").
		WillReturnRows(teacherRows)

	windowRows := sqlmock.NewRows([]string{"id", "teacher_id", "day_of_week", "start_time", "end_time", "created_at"}).
		AddRow("w1", "t1", "Monday", "08:00", "12:00", time.Now()).
		AddRow("w2", "t1", "Tuesday", "08:00", "10:00", time.Now())
	mock.ExpectQuery("SELECT w.id, w.teacher_id, w.day_of_week, w.start_time, w.end_time, w.created_at").
		WillReturnRows(windowRows)

	teachers, byTeacher, err := repo.ListActiveWithAvailability(context.Background())
	require.NoError(t, err)
	assert.Len(t, teachers, 2)
	assert.Len(t, byTeacher["t1"], 2)
	assert.Empty(t, byTeacher["t2"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
