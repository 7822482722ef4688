package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acadplan/timetable-api/internal/models"
)

// TeacherRepository manages persistence for teachers and their availability windows.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns teachers matching filters along with the total count.
func (r *TeacherRepository) List(ctx context.Context, search string, active *bool, page, pageSize int) ([]models.Teacher, int, error) {
	base := "FROM teachers WHERE 1=1"
	var conditions []string
	var args []interface{}

	if active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *active)
	}
	if search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(full_name) LIKE $%d OR LOWER(email) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(search)+"%")
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf("SELECT id, full_name, email, phone, active, created_at, updated_at %s ORDER BY full_name ASC LIMIT %d OFFSET %d", base, pageSize, offset)
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list teachers: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count teachers: %w", err)
	}

	return teachers, total, nil
}

// FindByID fetches a teacher by ID.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	const query = `SELECT id, full_name, email, phone, active, created_at, updated_at FROM teachers WHERE id = $1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// ExistsByEmail checks if another teacher uses the same email.
func (r *TeacherRepository) ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM teachers WHERE LOWER(email) = LOWER($1)"
	args := []interface{}{email}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check teacher email: %w", err)
	}
	return true, nil
}

// Create inserts a new teacher record.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	teacher.CreatedAt = now
	teacher.UpdatedAt = now

	const query = `
INSERT INTO teachers (id, full_name, email, phone, active, created_at, updated_at)
VALUES (:id, :full_name, :email, :phone, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("insert teacher: %w", err)
	}
	return nil
}

// Update rewrites the mutable teacher fields.
func (r *TeacherRepository) Update(ctx context.Context, teacher *models.Teacher) error {
	teacher.UpdatedAt = time.Now().UTC()

	const query = `
UPDATE teachers SET full_name = :full_name, email = :email, phone = :phone, active = :active, updated_at = :updated_at
WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, teacher)
	if err != nil {
		return fmt.Errorf("update teacher: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("teacher rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a teacher and their availability windows.
func (r *TeacherRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM availability_windows WHERE teacher_id = $1`, id); err != nil {
		return fmt.Errorf("delete availability windows: %w", err)
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM teachers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete teacher: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("teacher rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ReplaceAvailability swaps the full set of declared windows for a teacher.
func (r *TeacherRepository) ReplaceAvailability(ctx context.Context, teacherID string, windows []models.AvailabilityWindow) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM availability_windows WHERE teacher_id = $1`, teacherID); err != nil {
		return fmt.Errorf("clear availability windows: %w", err)
	}

	const query = `
INSERT INTO availability_windows (id, teacher_id, day_of_week, start_time, end_time, created_at)
VALUES (:id, :teacher_id, :day_of_week, :start_time, :end_time, :created_at)`
	now := time.Now().UTC()
	for i := range windows {
		window := &windows[i]
		if window.ID == "" {
			window.ID = uuid.NewString()
		}
		window.TeacherID = teacherID
		if window.CreatedAt.IsZero() {
			window.CreatedAt = now
		}
		if _, err := r.db.NamedExecContext(ctx, query, window); err != nil {
			return fmt.Errorf("insert availability window: %w", err)
		}
	}
	return nil
}

// ListAvailability returns the declared windows for one teacher.
func (r *TeacherRepository) ListAvailability(ctx context.Context, teacherID string) ([]models.AvailabilityWindow, error) {
	const query = `SELECT id, teacher_id, day_of_week, start_time, end_time, created_at
FROM availability_windows WHERE teacher_id = $1 ORDER BY day_of_week ASC, start_time ASC`
	var windows []models.AvailabilityWindow
	if err := r.db.SelectContext(ctx, &windows, query, teacherID); err != nil {
		return nil, fmt.Errorf("list availability windows: %w", err)
	}
	return windows, nil
}

// ListActiveWithAvailability loads all active teachers and every declared window
// in one pass, keyed by teacher.
func (r *TeacherRepository) ListActiveWithAvailability(ctx context.Context) ([]models.Teacher, map[string][]models.AvailabilityWindow, error) {
	const teacherQuery = `SELECT id, full_name, email, phone, active, created_at, updated_at FROM teachers WHERE active = true ORDER BY full_name ASC`
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, teacherQuery); err != nil {
		return nil, nil, fmt.Errorf("list active teachers: %w", err)
	}

	const windowQuery = `SELECT w.id, w.teacher_id, w.day_of_week, w.start_time, w.end_time, w.created_at
FROM availability_windows w JOIN teachers t ON t.id = w.teacher_id
WHERE t.active = true ORDER BY w.teacher_id ASC, w.day_of_week ASC, w.start_time ASC`
	var windows []models.AvailabilityWindow
	if err := r.db.SelectContext(ctx, &windows, windowQuery); err != nil {
		return nil, nil, fmt.Errorf("list availability windows: %w", err)
	}

	byTeacher := make(map[string][]models.AvailabilityWindow, len(teachers))
	for _, window := range windows {
		byTeacher[window.TeacherID] = append(byTeacher[window.TeacherID], window)
	}
	return teachers, byTeacher, nil
}
