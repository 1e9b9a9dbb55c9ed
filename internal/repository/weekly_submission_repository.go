package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/postgrad-supervision-api/internal/models"
)

// WeeklySubmissionRepository tracks the per-week submission slots of students.
type WeeklySubmissionRepository struct {
	db *sqlx.DB
}

func NewWeeklySubmissionRepository(db *sqlx.DB) *WeeklySubmissionRepository {
	return &WeeklySubmissionRepository{db: db}
}

// Upsert creates the (student, week) slot or overwrites its file reference and
// status. Concurrent writers for the same slot resolve last-writer-wins.
func (r *WeeklySubmissionRepository) Upsert(ctx context.Context, sub *models.WeeklySubmission) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	sub.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO weekly_submissions
	(id, student_id, week_number, document_id, file_path, file_name, status, submitted_at, updated_at)
	VALUES (:id, :student_id, :week_number, :document_id, :file_path, :file_name, :status, :submitted_at, :updated_at)
	ON CONFLICT (student_id, week_number)
	DO UPDATE SET document_id = EXCLUDED.document_id, file_path = EXCLUDED.file_path, file_name = EXCLUDED.file_name,
	              status = EXCLUDED.status, submitted_at = EXCLUDED.submitted_at, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, sub); err != nil {
		return fmt.Errorf("upsert weekly submission: %w", err)
	}
	return nil
}

// CountSubmitted returns the number of weeks in submitted status.
func (r *WeeklySubmissionRepository) CountSubmitted(ctx context.Context, studentID string) (int, error) {
	var total int
	const query = `SELECT COUNT(*) FROM weekly_submissions WHERE student_id = $1 AND status = $2`
	if err := r.db.GetContext(ctx, &total, query, studentID, models.WeeklySubmissionSubmitted); err != nil {
		return 0, fmt.Errorf("count weekly submissions: %w", err)
	}
	return total, nil
}

// ListByStudent returns all slots of a student ordered by week.
func (r *WeeklySubmissionRepository) ListByStudent(ctx context.Context, studentID string) ([]models.WeeklySubmission, error) {
	const query = `SELECT id, student_id, week_number, document_id, file_path, file_name, status, submitted_at, updated_at
FROM weekly_submissions WHERE student_id = $1 ORDER BY week_number`
	var subs []models.WeeklySubmission
	if err := r.db.SelectContext(ctx, &subs, query, studentID); err != nil {
		return nil, fmt.Errorf("list weekly submissions: %w", err)
	}
	return subs, nil
}
