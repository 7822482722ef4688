package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/acadplan/timetable-api/internal/dto"
	"github.com/acadplan/timetable-api/internal/models"
	"github.com/acadplan/timetable-api/internal/solver"
	"github.com/acadplan/timetable-api/internal/timetable"
	appErrors "github.com/acadplan/timetable-api/pkg/errors"
)

type timetableRepository interface {
	WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
	CreateVersioned(ctx context.Context, exec sqlx.ExtContext, timetable *models.Timetable) error
	InsertPlacements(ctx context.Context, exec sqlx.ExtContext, placements []models.TimetablePlacement) error
	List(ctx context.Context) ([]models.Timetable, error)
	FindByID(ctx context.Context, id string) (*models.Timetable, error)
	ListPlacements(ctx context.Context, timetableID string) ([]models.TimetablePlacement, error)
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.TimetableStatus) error
	ArchivePublished(ctx context.Context, exec sqlx.ExtContext) error
}

type availabilityReader interface {
	ListActiveWithAvailability(ctx context.Context) ([]models.Teacher, map[string][]models.AvailabilityWindow, error)
}

type courseReader interface {
	ListAll(ctx context.Context) ([]models.Course, error)
}

type roomReader interface {
	ListAll(ctx context.Context) ([]models.Room, error)
}

// ProposalKeeper stores generated proposals between generate and save.
type ProposalKeeper interface {
	Get(ctx context.Context, id string, dest interface{}) error
	Set(ctx context.Context, id string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// TimetableProposal is a generated schedule awaiting save or export.
type TimetableProposal struct {
	ProposalID string              `json:"proposalId"`
	Schedule   timetable.Schedule  `json:"schedule"`
	Rows       []timetable.FlatRow `json:"rows"`
	Stats      dto.SolveStats      `json:"stats"`
	CreatedAt  time.Time           `json:"createdAt"`
}

// TimetableServiceConfig governs generation behaviour.
type TimetableServiceConfig struct {
	Scheduler    timetable.Config
	SolveTimeout time.Duration
	SolveBudget  int64
	Seed         int64
	ProposalTTL  time.Duration
	// MaxTeachers caps the snapshot size; zero disables the cap.
	MaxTeachers int
}

// TimetableService orchestrates the generate, save and inspect pipeline.
type TimetableService struct {
	timetables timetableRepository
	teachers   availabilityReader
	courses    courseReader
	rooms      roomReader
	proposals  ProposalKeeper
	backend    solver.Solver
	cfg        TimetableServiceConfig
	validator  *validator.Validate
	logger     *zap.Logger
	metrics    *MetricsService
}

// SetMetrics attaches solver instrumentation.
func (s *TimetableService) SetMetrics(metrics *MetricsService) {
	s.metrics = metrics
}

// NewTimetableService wires the generation pipeline.
func NewTimetableService(
	timetables timetableRepository,
	teachers availabilityReader,
	courses courseReader,
	rooms roomReader,
	proposals ProposalKeeper,
	backend solver.Solver,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableServiceConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if backend == nil {
		backend = solver.NewBacktrack()
	}
	if proposals == nil {
		proposals = newMemoryProposalStore()
	}
	if cfg.SolveTimeout <= 0 {
		cfg.SolveTimeout = 30 * time.Second
	}
	if cfg.SolveBudget <= 0 {
		cfg.SolveBudget = 5_000_000
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	return &TimetableService{
		timetables: timetables,
		teachers:   teachers,
		courses:    courses,
		rooms:      rooms,
		proposals:  proposals,
		backend:    backend,
		cfg:        cfg,
		validator:  validate,
		logger:     logger,
	}
}

// Generate builds and solves a timetable from an inline input snapshot.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable generation payload")
	}
	snapshot, err := snapshotFromRequest(req)
	if err != nil {
		return nil, err
	}
	return s.solve(ctx, snapshot, req.Seed)
}

// GenerateFromCatalog builds and solves a timetable from the persisted catalog.
func (s *TimetableService) GenerateFromCatalog(ctx context.Context, seed *int64) (*dto.GenerateTimetableResponse, error) {
	teachers, windows, err := s.teachers.ListActiveWithAvailability(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	courses, err := s.courses.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}
	rooms, err := s.rooms.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	if len(teachers) == 0 || len(courses) == 0 || len(rooms) == 0 {
		return nil, appErrors.Clone(appErrors.ErrConfiguration, "catalog must contain at least one teacher, course and room")
	}

	snapshot := timetable.Snapshot{
		Teachers: make([]timetable.Teacher, 0, len(teachers)),
		Courses:  make([]timetable.Course, 0, len(courses)),
		Rooms:    make([]timetable.Room, 0, len(rooms)),
	}
	for _, teacher := range teachers {
		availability := make(map[timetable.Day][]string)
		for _, window := range windows[teacher.ID] {
			day := timetable.Day(window.DayOfWeek)
			if !day.Valid() {
				return nil, appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("teacher %s has a window on unknown day %q", teacher.ID, window.DayOfWeek))
			}
			availability[day] = append(availability[day], window.StartTime+"-"+window.EndTime)
		}
		snapshot.Teachers = append(snapshot.Teachers, timetable.Teacher{ID: teacher.ID, Availability: availability})
	}
	for _, course := range courses {
		snapshot.Courses = append(snapshot.Courses, timetable.Course{
			ID:          course.ID,
			WeeklyUnits: course.WeeklyUnits,
			TeacherID:   course.TeacherID,
			RoomType:    course.RoomType,
			Students:    course.Students,
		})
	}
	for _, room := range rooms {
		site := ""
		if room.Site != nil {
			site = *room.Site
		}
		snapshot.Rooms = append(snapshot.Rooms, timetable.Room{
			ID:       room.ID,
			Type:     room.RoomType,
			Capacity: room.Capacity,
			Site:     site,
		})
	}

	return s.solve(ctx, snapshot, seed)
}

func (s *TimetableService) solve(ctx context.Context, snapshot timetable.Snapshot, seed *int64) (*dto.GenerateTimetableResponse, error) {
	if s.cfg.MaxTeachers > 0 && len(snapshot.Teachers) > s.cfg.MaxTeachers {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("snapshot holds %d teachers, the limit is %d", len(snapshot.Teachers), s.cfg.MaxTeachers))
	}

	builder := timetable.NewBuilder(s.cfg.Scheduler)
	plan, err := builder.Build(snapshot)
	if err != nil {
		return nil, mapEngineError(err)
	}

	opts := solver.Options{Budget: s.cfg.SolveBudget, Seed: s.cfg.Seed}
	if seed != nil {
		opts.Seed = *seed
	}

	solveCtx, cancel := context.WithTimeout(ctx, s.cfg.SolveTimeout)
	defer cancel()

	started := time.Now()
	result, err := s.backend.Solve(solveCtx, plan.Model, opts)
	elapsed := time.Since(started)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "solver backend failure")
	}

	stats := dto.SolveStats{
		Variables:   plan.Model.NumVars(),
		Constraints: len(plan.Model.Constraints()),
		Steps:       result.Steps,
		ElapsedMS:   elapsed.Milliseconds(),
		Status:      result.Status.String(),
	}
	s.metrics.ObserveSolve(stats.Status, stats.Steps, elapsed)
	s.logger.Info("timetable solve finished",
		zap.String("status", stats.Status),
		zap.Int("variables", stats.Variables),
		zap.Int("constraints", stats.Constraints),
		zap.Int64("steps", stats.Steps),
		zap.Duration("elapsed", elapsed),
	)

	switch result.Status {
	case solver.StatusInfeasible:
		return nil, appErrors.Clone(appErrors.ErrInfeasible, "the constraints admit no feasible timetable")
	case solver.StatusUnknown:
		return nil, appErrors.Clone(appErrors.ErrSolverTimeout, "solver stopped before reaching a verdict")
	}

	schedule, err := plan.Extract(result.Values)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to extract schedule")
	}

	proposal := TimetableProposal{
		ProposalID: uuid.NewString(),
		Schedule:   schedule,
		Rows:       schedule.Flatten(),
		Stats:      stats,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.proposals.Set(ctx, proposal.ProposalID, proposal, s.cfg.ProposalTTL); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store proposal")
	}

	return &dto.GenerateTimetableResponse{
		ProposalID: proposal.ProposalID,
		Schedule:   proposal.Schedule,
		Rows:       proposal.Rows,
		Stats:      proposal.Stats,
	}, nil
}

// Save persists a generated proposal as a versioned timetable.
func (s *TimetableService) Save(ctx context.Context, req dto.SaveTimetableRequest) (*models.Timetable, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save timetable payload")
	}
	proposal, err := s.Proposal(ctx, req.ProposalID)
	if err != nil {
		return nil, err
	}

	metaPayload := map[string]any{
		"generatedAt": proposal.CreatedAt,
		"stats":       proposal.Stats,
	}
	metaBytes, err := json.Marshal(metaPayload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode timetable metadata")
	}

	status := models.TimetableStatusDraft
	if req.Publish {
		status = models.TimetableStatusPublished
	}
	record := &models.Timetable{Status: status, Meta: types.JSONText(metaBytes)}

	placements := make([]models.TimetablePlacement, 0, len(proposal.Rows))
	txErr := s.timetables.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if req.Publish {
			if err := s.timetables.ArchivePublished(ctx, tx); err != nil {
				return err
			}
		}
		if err := s.timetables.CreateVersioned(ctx, tx, record); err != nil {
			return err
		}
		for _, row := range proposal.Rows {
			placements = append(placements, models.TimetablePlacement{
				TimetableID: record.ID,
				CourseID:    row.Course,
				TeacherID:   row.Teacher,
				RoomID:      row.Room,
				DayOfWeek:   string(row.Day),
				StartTime:   row.Start,
				EndTime:     row.End,
			})
		}
		return s.timetables.InsertPlacements(ctx, tx, placements)
	})
	if txErr != nil {
		return nil, appErrors.Wrap(txErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist timetable")
	}

	if err := s.proposals.Delete(ctx, req.ProposalID); err != nil {
		s.logger.Warn("failed to evict saved proposal", zap.String("proposalId", req.ProposalID), zap.Error(err))
	}
	return record, nil
}

// Proposal loads a pending proposal by its handle.
func (s *TimetableService) Proposal(ctx context.Context, id string) (*TimetableProposal, error) {
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "proposal id is required")
	}
	var proposal TimetableProposal
	if err := s.proposals.Get(ctx, id, &proposal); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load proposal")
	}
	return &proposal, nil
}

// List returns all stored timetable headers.
func (s *TimetableService) List(ctx context.Context) ([]models.Timetable, error) {
	list, err := s.timetables.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetables")
	}
	return list, nil
}

// Get loads a stored timetable and its placements.
func (s *TimetableService) Get(ctx context.Context, id string) (*models.Timetable, []models.TimetablePlacement, error) {
	record, err := s.timetables.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	placements, err := s.timetables.ListPlacements(ctx, id)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load placements")
	}
	return record, placements, nil
}

func snapshotFromRequest(req dto.GenerateTimetableRequest) (timetable.Snapshot, error) {
	snapshot := timetable.Snapshot{
		Teachers: make([]timetable.Teacher, 0, len(req.Teachers)),
		Courses:  make([]timetable.Course, 0, len(req.Courses)),
		Rooms:    make([]timetable.Room, 0, len(req.Rooms)),
	}
	for _, teacher := range req.Teachers {
		availability := make(map[timetable.Day][]string, len(teacher.Availability))
		for dayName, windows := range teacher.Availability {
			day := timetable.Day(dayName)
			if !day.Valid() {
				return timetable.Snapshot{}, appErrors.Clone(appErrors.ErrMalformedInput, fmt.Sprintf("teacher %s declares availability on unknown day %q", teacher.ID, dayName))
			}
			availability[day] = windows
		}
		snapshot.Teachers = append(snapshot.Teachers, timetable.Teacher{ID: teacher.ID, Availability: availability})
	}
	for _, course := range req.Courses {
		snapshot.Courses = append(snapshot.Courses, timetable.Course{
			ID:          course.ID,
			WeeklyUnits: course.WeeklyUnits,
			TeacherID:   course.TeacherID,
			RoomType:    course.RoomType,
			Students:    course.Students,
		})
	}
	for _, room := range req.Rooms {
		snapshot.Rooms = append(snapshot.Rooms, timetable.Room{
			ID:       room.ID,
			Type:     room.Type,
			Capacity: room.Capacity,
			Site:     room.Site,
		})
	}
	return snapshot, nil
}

// mapEngineError translates engine failures into transport-aware errors.
func mapEngineError(err error) error {
	var malformed *timetable.MalformedRangeError
	if errors.As(err, &malformed) {
		return appErrors.Wrap(err, appErrors.ErrMalformedInput.Code, appErrors.ErrMalformedInput.Status, malformed.Error())
	}
	var overload *timetable.OverloadError
	if errors.As(err, &overload) {
		return appErrors.Wrap(err, appErrors.ErrTeacherLoad.Code, appErrors.ErrTeacherLoad.Status,
			fmt.Sprintf("teacher %s is assigned %d units but only %d are available", overload.TeacherID, overload.AssignedUnits, overload.AvailableUnits))
	}
	var noRoom *timetable.NoCompatibleRoomError
	if errors.As(err, &noRoom) {
		return appErrors.Wrap(err, appErrors.ErrConfiguration.Code, appErrors.ErrConfiguration.Status,
			fmt.Sprintf("course %s has no compatible room of type %q for %d students", noRoom.CourseID, noRoom.RoomType, noRoom.Students))
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build timetable model")
}
