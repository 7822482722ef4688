package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/acadplan/timetable-api/internal/models"
)

// TimetableRepository persists versioned weekly timetables and their placements.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs a TimetableRepository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

func (r *TimetableRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// WithinTx runs fn inside a transaction, committing on nil error.
func (r *TimetableRepository) WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("rollback after %v: %w", err, rollbackErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// CreateVersioned inserts a timetable header assigning the next global version.
func (r *TimetableRepository) CreateVersioned(ctx context.Context, exec sqlx.ExtContext, timetable *models.Timetable) error {
	if timetable == nil {
		return fmt.Errorf("timetable payload is nil")
	}
	if timetable.ID == "" {
		timetable.ID = uuid.NewString()
	}
	if timetable.Status == "" {
		timetable.Status = models.TimetableStatusDraft
	}
	if len(timetable.Meta) == 0 {
		timetable.Meta = types.JSONText(`{}`)
	}
	now := time.Now().UTC()
	if timetable.CreatedAt.IsZero() {
		timetable.CreatedAt = now
	}
	timetable.UpdatedAt = now

	target := r.exec(exec)

	const nextVersionQuery = `SELECT COALESCE(MAX(version), 0) + 1 FROM timetables`
	if err := sqlx.GetContext(ctx, target, &timetable.Version, nextVersionQuery); err != nil {
		return fmt.Errorf("compute next timetable version: %w", err)
	}

	const insertQuery = `
INSERT INTO timetables (id, version, status, meta, created_at, updated_at)
VALUES (:id, :version, :status, :meta, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, target, insertQuery, timetable); err != nil {
		return fmt.Errorf("insert timetable: %w", err)
	}
	return nil
}

// InsertPlacements stores the scheduled blocks for a timetable.
func (r *TimetableRepository) InsertPlacements(ctx context.Context, exec sqlx.ExtContext, placements []models.TimetablePlacement) error {
	if len(placements) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO timetable_placements (id, timetable_id, course_id, teacher_id, room_id, day_of_week, start_time, end_time, created_at)
VALUES (:id, :timetable_id, :course_id, :teacher_id, :room_id, :day_of_week, :start_time, :end_time, :created_at)`
	for i := range placements {
		placement := &placements[i]
		if placement.ID == "" {
			placement.ID = uuid.NewString()
		}
		if placement.CreatedAt.IsZero() {
			placement.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, placement); err != nil {
			return fmt.Errorf("insert timetable placement: %w", err)
		}
	}
	return nil
}

// List returns all stored timetable headers, newest version first.
func (r *TimetableRepository) List(ctx context.Context) ([]models.Timetable, error) {
	const query = `SELECT id, version, status, meta, created_at, updated_at FROM timetables ORDER BY version DESC`
	var timetables []models.Timetable
	if err := r.db.SelectContext(ctx, &timetables, query); err != nil {
		return nil, fmt.Errorf("list timetables: %w", err)
	}
	return timetables, nil
}

// FindByID loads a timetable header by its identifier.
func (r *TimetableRepository) FindByID(ctx context.Context, id string) (*models.Timetable, error) {
	const query = `SELECT id, version, status, meta, created_at, updated_at FROM timetables WHERE id = $1`
	var timetable models.Timetable
	if err := r.db.GetContext(ctx, &timetable, query, id); err != nil {
		return nil, err
	}
	return &timetable, nil
}

// ListPlacements returns the placements of a timetable ordered by day and start.
func (r *TimetableRepository) ListPlacements(ctx context.Context, timetableID string) ([]models.TimetablePlacement, error) {
	const query = `SELECT id, timetable_id, course_id, teacher_id, room_id, day_of_week, start_time, end_time, created_at
FROM timetable_placements WHERE timetable_id = $1 ORDER BY day_of_week ASC, start_time ASC, course_id ASC`
	var placements []models.TimetablePlacement
	if err := r.db.SelectContext(ctx, &placements, query, timetableID); err != nil {
		return nil, fmt.Errorf("list timetable placements: %w", err)
	}
	return placements, nil
}

// UpdateStatus moves a timetable to a new lifecycle status.
func (r *TimetableRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.TimetableStatus) error {
	target := r.exec(exec)
	const query = `UPDATE timetables SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := target.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update timetable status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("timetable rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ArchivePublished demotes every published timetable, used before publishing a new one.
func (r *TimetableRepository) ArchivePublished(ctx context.Context, exec sqlx.ExtContext) error {
	target := r.exec(exec)
	const query = `UPDATE timetables SET status = $1, updated_at = $2 WHERE status = $3`
	if _, err := target.ExecContext(ctx, query, models.TimetableStatusArchived, time.Now().UTC(), models.TimetableStatusPublished); err != nil {
		return fmt.Errorf("archive published timetables: %w", err)
	}
	return nil
}

// Delete removes a timetable and its placements.
func (r *TimetableRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM timetable_placements WHERE timetable_id = $1`, id); err != nil {
		return fmt.Errorf("delete timetable placements: %w", err)
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM timetables WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete timetable: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("timetable rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
