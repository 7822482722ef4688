package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadplan/timetable-api/internal/dto"
	"github.com/acadplan/timetable-api/internal/models"
	appErrors "github.com/acadplan/timetable-api/pkg/errors"
)

type stubTimetableRepo struct {
	saved      *models.Timetable
	placements []models.TimetablePlacement
	archived   bool
	list       []models.Timetable
	found      *models.Timetable
}

func (r *stubTimetableRepo) WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return fn(nil)
}

func (r *stubTimetableRepo) CreateVersioned(_ context.Context, _ sqlx.ExtContext, timetable *models.Timetable) error {
	timetable.ID = "tt-1"
	timetable.Version = 1
	r.saved = timetable
	return nil
}

func (r *stubTimetableRepo) InsertPlacements(_ context.Context, _ sqlx.ExtContext, placements []models.TimetablePlacement) error {
	r.placements = placements
	return nil
}

func (r *stubTimetableRepo) List(context.Context) ([]models.Timetable, error) {
	return r.list, nil
}

func (r *stubTimetableRepo) FindByID(context.Context, string) (*models.Timetable, error) {
	if r.found == nil {
		return nil, sql.ErrNoRows
	}
	return r.found, nil
}

func (r *stubTimetableRepo) ListPlacements(context.Context, string) ([]models.TimetablePlacement, error) {
	return r.placements, nil
}

func (r *stubTimetableRepo) UpdateStatus(context.Context, sqlx.ExtContext, string, models.TimetableStatus) error {
	return nil
}

func (r *stubTimetableRepo) ArchivePublished(context.Context, sqlx.ExtContext) error {
	r.archived = true
	return nil
}

type stubCatalog struct {
	teachers []models.Teacher
	windows  map[string][]models.AvailabilityWindow
	courses  []models.Course
	rooms    []models.Room
}

func (c *stubCatalog) ListActiveWithAvailability(context.Context) ([]models.Teacher, map[string][]models.AvailabilityWindow, error) {
	return c.teachers, c.windows, nil
}

type stubCourseCatalog struct{ catalog *stubCatalog }

func (c stubCourseCatalog) ListAll(context.Context) ([]models.Course, error) {
	return c.catalog.courses, nil
}

type stubRoomCatalog struct{ catalog *stubCatalog }

func (c stubRoomCatalog) ListAll(context.Context) ([]models.Room, error) {
	return c.catalog.rooms, nil
}

func newTestTimetableService(repo *stubTimetableRepo, catalog *stubCatalog) *TimetableService {
	return NewTimetableService(
		repo, catalog, stubCourseCatalog{catalog}, stubRoomCatalog{catalog},
		nil, nil, nil, nil, TimetableServiceConfig{},
	)
}

func feasibleRequest() dto.GenerateTimetableRequest {
	return dto.GenerateTimetableRequest{
		Teachers: []dto.TeacherInput{{
			ID:           "t1",
			Availability: map[string][]string{"Monday": {"08:00-12:00"}},
		}},
		Courses: []dto.CourseInput{{
			ID: "c1", WeeklyUnits: 4, TeacherID: "t1", RoomType: "standard", Students: 25,
		}},
		Rooms: []dto.RoomInput{{ID: "r1", Type: "standard", Capacity: 30}},
	}
}

func requireErrCode(t *testing.T, err error, code string) *appErrors.Error {
	t.Helper()
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, code, appErr.Code)
	return appErr
}

func TestTimetableServiceGenerate(t *testing.T) {
	svc := newTestTimetableService(&stubTimetableRepo{}, &stubCatalog{})

	resp, err := svc.Generate(context.Background(), feasibleRequest())
	require.NoError(t, err)
	require.NotEmpty(t, resp.ProposalID)
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, "c1", resp.Rows[0].Course)
	assert.Equal(t, "r1", resp.Rows[0].Room)
	assert.Equal(t, "feasible", resp.Stats.Status)
	assert.Positive(t, resp.Stats.Variables)

	proposal, err := svc.Proposal(context.Background(), resp.ProposalID)
	require.NoError(t, err)
	assert.Equal(t, resp.ProposalID, proposal.ProposalID)
}

func TestTimetableServiceGenerateValidatesPayload(t *testing.T) {
	svc := newTestTimetableService(&stubTimetableRepo{}, &stubCatalog{})

	_, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{})
	requireErrCode(t, err, appErrors.ErrValidation.Code)
}

func TestTimetableServiceGenerateEnforcesTeacherCap(t *testing.T) {
	svc := NewTimetableService(
		&stubTimetableRepo{}, &stubCatalog{}, stubCourseCatalog{&stubCatalog{}}, stubRoomCatalog{&stubCatalog{}},
		nil, nil, nil, nil, TimetableServiceConfig{MaxTeachers: 1},
	)

	req := feasibleRequest()
	req.Teachers = append(req.Teachers, dto.TeacherInput{
		ID:           "t2",
		Availability: map[string][]string{"Tuesday": {"08:00-12:00"}},
	})

	_, err := svc.Generate(context.Background(), req)
	requireErrCode(t, err, appErrors.ErrValidation.Code)
}

func TestTimetableServiceGenerateRejectsUnknownDay(t *testing.T) {
	svc := newTestTimetableService(&stubTimetableRepo{}, &stubCatalog{})

	req := feasibleRequest()
	req.Teachers[0].Availability = map[string][]string{"Funday": {"08:00-12:00"}}

	_, err := svc.Generate(context.Background(), req)
	requireErrCode(t, err, appErrors.ErrMalformedInput.Code)
}

func TestTimetableServiceGenerateRejectsMalformedWindow(t *testing.T) {
	svc := newTestTimetableService(&stubTimetableRepo{}, &stubCatalog{})

	req := feasibleRequest()
	req.Teachers[0].Availability = map[string][]string{"Monday": {"8h-10h"}}

	_, err := svc.Generate(context.Background(), req)
	appErr := requireErrCode(t, err, appErrors.ErrMalformedInput.Code)
	assert.Equal(t, appErrors.ErrMalformedInput.Status, appErr.Status)
}

func TestTimetableServiceGenerateMapsOverload(t *testing.T) {
	svc := newTestTimetableService(&stubTimetableRepo{}, &stubCatalog{})

	req := feasibleRequest()
	req.Teachers[0].Availability = map[string][]string{"Monday": {"08:00-09:00"}}
	req.Courses[0].WeeklyUnits = 10

	_, err := svc.Generate(context.Background(), req)
	appErr := requireErrCode(t, err, appErrors.ErrTeacherLoad.Code)
	assert.Equal(t, appErrors.ErrTeacherLoad.Status, appErr.Status)
	assert.Contains(t, appErr.Message, "t1")
}

func TestTimetableServiceGenerateMapsMissingRoom(t *testing.T) {
	svc := newTestTimetableService(&stubTimetableRepo{}, &stubCatalog{})

	req := feasibleRequest()
	req.Courses[0].RoomType = "lab"

	_, err := svc.Generate(context.Background(), req)
	requireErrCode(t, err, appErrors.ErrConfiguration.Code)
}

func TestTimetableServiceGenerateInfeasible(t *testing.T) {
	svc := newTestTimetableService(&stubTimetableRepo{}, &stubCatalog{})

	req := dto.GenerateTimetableRequest{
		Teachers: []dto.TeacherInput{
			{ID: "t1", Availability: map[string][]string{"Monday": {"08:00-10:00"}}},
			{ID: "t2", Availability: map[string][]string{"Monday": {"08:00-10:00"}}},
		},
		Courses: []dto.CourseInput{
			{ID: "c1", WeeklyUnits: 4, TeacherID: "t1", RoomType: "standard", Students: 25},
			{ID: "c2", WeeklyUnits: 4, TeacherID: "t2", RoomType: "standard", Students: 25},
		},
		Rooms: []dto.RoomInput{{ID: "r1", Type: "standard", Capacity: 30}},
	}

	_, err := svc.Generate(context.Background(), req)
	appErr := requireErrCode(t, err, appErrors.ErrInfeasible.Code)
	assert.Equal(t, appErrors.ErrInfeasible.Status, appErr.Status)
}

func TestTimetableServiceGenerateFromCatalog(t *testing.T) {
	catalog := &stubCatalog{
		teachers: []models.Teacher{{ID: "t1", FullName: "Jordan Vega", Active: true}},
		windows: map[string][]models.AvailabilityWindow{
			"t1": {{TeacherID: "t1", DayOfWeek: "Monday", StartTime: "08:00", EndTime: "12:00"}},
		},
		courses: []models.Course{{ID: "c1", Name: "Algebra", WeeklyUnits: 4, TeacherID: "t1", RoomType: "standard", Students: 25}},
		rooms:   []models.Room{{ID: "r1", Code: "A-101", RoomType: "standard", Capacity: 30}},
	}
	svc := newTestTimetableService(&stubTimetableRepo{}, catalog)

	resp, err := svc.GenerateFromCatalog(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, "t1", resp.Rows[0].Teacher)
}

func TestTimetableServiceGenerateFromCatalogRequiresData(t *testing.T) {
	svc := newTestTimetableService(&stubTimetableRepo{}, &stubCatalog{})

	_, err := svc.GenerateFromCatalog(context.Background(), nil)
	requireErrCode(t, err, appErrors.ErrConfiguration.Code)
}

func TestTimetableServiceGenerateFromCatalogRejectsUnknownDay(t *testing.T) {
	catalog := &stubCatalog{
		teachers: []models.Teacher{{ID: "t1", Active: true}},
		windows: map[string][]models.AvailabilityWindow{
			"t1": {{TeacherID: "t1", DayOfWeek: "Someday", StartTime: "08:00", EndTime: "12:00"}},
		},
		courses: []models.Course{{ID: "c1", WeeklyUnits: 4, TeacherID: "t1", RoomType: "standard", Students: 25}},
		rooms:   []models.Room{{ID: "r1", RoomType: "standard", Capacity: 30}},
	}
	svc := newTestTimetableService(&stubTimetableRepo{}, catalog)

	_, err := svc.GenerateFromCatalog(context.Background(), nil)
	requireErrCode(t, err, appErrors.ErrConfiguration.Code)
}

func TestTimetableServiceSavePublishes(t *testing.T) {
	repo := &stubTimetableRepo{}
	svc := newTestTimetableService(repo, &stubCatalog{})

	resp, err := svc.Generate(context.Background(), feasibleRequest())
	require.NoError(t, err)

	record, err := svc.Save(context.Background(), dto.SaveTimetableRequest{ProposalID: resp.ProposalID, Publish: true})
	require.NoError(t, err)
	assert.Equal(t, models.TimetableStatusPublished, record.Status)
	assert.True(t, repo.archived)
	require.Len(t, repo.placements, len(resp.Rows))
	assert.Equal(t, "tt-1", repo.placements[0].TimetableID)
	assert.Equal(t, "c1", repo.placements[0].CourseID)

	// Saving consumes the proposal.
	_, err = svc.Proposal(context.Background(), resp.ProposalID)
	requireErrCode(t, err, appErrors.ErrNotFound.Code)
}

func TestTimetableServiceSaveDraftSkipsArchive(t *testing.T) {
	repo := &stubTimetableRepo{}
	svc := newTestTimetableService(repo, &stubCatalog{})

	resp, err := svc.Generate(context.Background(), feasibleRequest())
	require.NoError(t, err)

	record, err := svc.Save(context.Background(), dto.SaveTimetableRequest{ProposalID: resp.ProposalID})
	require.NoError(t, err)
	assert.Equal(t, models.TimetableStatusDraft, record.Status)
	assert.False(t, repo.archived)
}

func TestTimetableServiceSaveUnknownProposal(t *testing.T) {
	svc := newTestTimetableService(&stubTimetableRepo{}, &stubCatalog{})

	_, err := svc.Save(context.Background(), dto.SaveTimetableRequest{ProposalID: "missing"})
	requireErrCode(t, err, appErrors.ErrNotFound.Code)
}

func TestTimetableServiceGetNotFound(t *testing.T) {
	svc := newTestTimetableService(&stubTimetableRepo{}, &stubCatalog{})

	_, _, err := svc.Get(context.Background(), "nope")
	requireErrCode(t, err, appErrors.ErrNotFound.Code)
}
