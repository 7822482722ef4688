package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/acadplan/timetable-api/internal/dto"
	"github.com/acadplan/timetable-api/internal/models"
	"github.com/acadplan/timetable-api/internal/timetable"
	appErrors "github.com/acadplan/timetable-api/pkg/errors"
)

type teacherRepository interface {
	List(ctx context.Context, search string, active *bool, page, pageSize int) ([]models.Teacher, int, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
	Delete(ctx context.Context, id string) error
	ReplaceAvailability(ctx context.Context, teacherID string, windows []models.AvailabilityWindow) error
	ListAvailability(ctx context.Context, teacherID string) ([]models.AvailabilityWindow, error)
}

// TeacherService orchestrates teacher catalog operations.
type TeacherService struct {
	repo      teacherRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(repo teacherRepository, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, validator: validate, logger: logger}
}

// List returns teachers plus pagination metadata.
func (s *TeacherService) List(ctx context.Context, search string, active *bool, page, pageSize int) ([]models.Teacher, int, error) {
	teachers, total, err := s.repo.List(ctx, search, active, page, pageSize)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	return teachers, total, nil
}

// Get returns a teacher by id.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

// Create registers a new teacher record.
func (s *TeacherService) Create(ctx context.Context, req dto.CreateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	taken, err := s.repo.ExistsByEmail(ctx, req.Email, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teacher email")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "teacher email already registered")
	}

	teacher := &models.Teacher{
		FullName: strings.TrimSpace(req.FullName),
		Email:    strings.TrimSpace(req.Email),
		Phone:    req.Phone,
		Active:   true,
	}
	if err := s.repo.Create(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}
	return teacher, nil
}

// Update rewrites a teacher record.
func (s *TeacherService) Update(ctx context.Context, id string, req dto.CreateTeacherRequest, active *bool) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	teacher, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	taken, err := s.repo.ExistsByEmail(ctx, req.Email, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teacher email")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "teacher email already registered")
	}

	teacher.FullName = strings.TrimSpace(req.FullName)
	teacher.Email = strings.TrimSpace(req.Email)
	teacher.Phone = req.Phone
	if active != nil {
		teacher.Active = *active
	}
	if err := s.repo.Update(ctx, teacher); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher")
	}
	return teacher, nil
}

// Delete removes a teacher.
func (s *TeacherService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete teacher")
	}
	return nil
}

// SetAvailability replaces the declared windows of a teacher.
func (s *TeacherService) SetAvailability(ctx context.Context, id string, req dto.SetAvailabilityRequest) ([]models.AvailabilityWindow, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	windows := make([]models.AvailabilityWindow, 0, len(req.Windows))
	for _, window := range req.Windows {
		if err := validateWindow(window); err != nil {
			return nil, err
		}
		windows = append(windows, models.AvailabilityWindow{
			TeacherID: id,
			DayOfWeek: window.DayOfWeek,
			StartTime: window.StartTime,
			EndTime:   window.EndTime,
		})
	}
	if err := s.repo.ReplaceAvailability(ctx, id, windows); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store availability")
	}
	return windows, nil
}

// GetAvailability returns the declared windows of a teacher.
func (s *TeacherService) GetAvailability(ctx context.Context, id string) ([]models.AvailabilityWindow, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	windows, err := s.repo.ListAvailability(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list availability")
	}
	return windows, nil
}

// validateWindow rejects windows the engine would later refuse. Reporting the
// problem at write time keeps the catalog generation path clean.
func validateWindow(window dto.AvailabilityWindowRequest) error {
	probe := []timetable.Teacher{{
		ID: "probe",
		Availability: map[timetable.Day][]string{
			timetable.Day(window.DayOfWeek): {window.StartTime + "-" + window.EndTime},
		},
	}}
	if _, err := timetable.NormalizeAvailability(probe, 30); err != nil {
		return appErrors.Clone(appErrors.ErrMalformedInput,
			fmt.Sprintf("window %s %s-%s is not a valid range", window.DayOfWeek, window.StartTime, window.EndTime))
	}
	return nil
}
