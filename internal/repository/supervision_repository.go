package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/postgrad-supervision-api/internal/models"
)

const studentColumns = `id, user_id, program, supervisor_id, progress, enrollment_date, start_date, expected_completion, created_at, updated_at`

// SupervisionRepository reads and writes students, supervisors and the links
// between them.
type SupervisionRepository struct {
	db *sqlx.DB
}

func NewSupervisionRepository(db *sqlx.DB) *SupervisionRepository {
	return &SupervisionRepository{db: db}
}

// FindStudentByUserID returns the student row owned by a user.
func (r *SupervisionRepository) FindStudentByUserID(ctx context.Context, userID string) (*models.Student, error) {
	return r.getStudent(ctx, `SELECT `+studentColumns+` FROM students WHERE user_id = $1`, userID)
}

// FindStudentByID returns a student row by its own id.
func (r *SupervisionRepository) FindStudentByID(ctx context.Context, id string) (*models.Student, error) {
	return r.getStudent(ctx, `SELECT `+studentColumns+` FROM students WHERE id = $1`, id)
}

func (r *SupervisionRepository) getStudent(ctx context.Context, query, arg string) (*models.Student, error) {
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

// FindSupervisorByUserID returns the supervisor row owned by a user.
func (r *SupervisionRepository) FindSupervisorByUserID(ctx context.Context, userID string) (*models.Supervisor, error) {
	return r.getSupervisor(ctx, `SELECT id, user_id, department, capacity, created_at, updated_at FROM supervisors WHERE user_id = $1`, userID)
}

// FindSupervisorByID returns a supervisor row by its own id.
func (r *SupervisionRepository) FindSupervisorByID(ctx context.Context, id string) (*models.Supervisor, error) {
	return r.getSupervisor(ctx, `SELECT id, user_id, department, capacity, created_at, updated_at FROM supervisors WHERE id = $1`, id)
}

func (r *SupervisionRepository) getSupervisor(ctx context.Context, query, arg string) (*models.Supervisor, error) {
	var supervisor models.Supervisor
	if err := r.db.GetContext(ctx, &supervisor, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find supervisor: %w", err)
	}
	return &supervisor, nil
}

type supervisionRow struct {
	StudentID     string         `db:"student_id"`
	StudentUserID string         `db:"student_user_id"`
	DirectID      sql.NullString `db:"direct_id"`
	DirectUserID  sql.NullString `db:"direct_user_id"`
	JoinedID      sql.NullString `db:"joined_id"`
	JoinedUserID  sql.NullString `db:"joined_user_id"`
}

// Resolve loads both supervisor links of a student with a single query.
// Joined links are ordered by assignment time.
func (r *SupervisionRepository) Resolve(ctx context.Context, studentID string) (*models.Supervision, error) {
	const query = `SELECT s.id AS student_id, s.user_id AS student_user_id,
       ds.id AS direct_id, ds.user_id AS direct_user_id,
       js.id AS joined_id, js.user_id AS joined_user_id
FROM students s
LEFT JOIN supervisors ds ON ds.id = s.supervisor_id
LEFT JOIN supervisor_students ss ON ss.student_id = s.id
LEFT JOIN supervisors js ON js.id = ss.supervisor_id
WHERE s.id = $1
ORDER BY ss.assigned_at ASC NULLS LAST`
	var rows []supervisionRow
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("resolve supervision: %w", err)
	}
	if len(rows) == 0 {
		return nil, sql.ErrNoRows
	}

	result := &models.Supervision{
		StudentID:     rows[0].StudentID,
		StudentUserID: rows[0].StudentUserID,
		Joined:        make([]models.SupervisorLink, 0, len(rows)),
	}
	if rows[0].DirectID.Valid {
		result.Direct = &models.SupervisorLink{SupervisorID: rows[0].DirectID.String, UserID: rows[0].DirectUserID.String}
	}
	for _, row := range rows {
		if row.JoinedID.Valid {
			result.Joined = append(result.Joined, models.SupervisorLink{SupervisorID: row.JoinedID.String, UserID: row.JoinedUserID.String})
		}
	}
	return result, nil
}

// ListJoinedStudentUserIDs returns the user ids of students linked to the
// supervisor through the join table.
func (r *SupervisionRepository) ListJoinedStudentUserIDs(ctx context.Context, supervisorID string) ([]string, error) {
	const query = `SELECT s.user_id FROM supervisor_students ss JOIN students s ON s.id = ss.student_id WHERE ss.supervisor_id = $1 ORDER BY ss.assigned_at`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, supervisorID); err != nil {
		return nil, fmt.Errorf("list joined students: %w", err)
	}
	return ids, nil
}

// ListSupervisedStudents returns every student linked to the supervisor by
// either the direct link or the join table.
func (r *SupervisionRepository) ListSupervisedStudents(ctx context.Context, supervisorID string) ([]models.StudentSummary, error) {
	const query = `SELECT s.id, s.user_id, u.name, u.email, s.program, s.progress,
       (s.supervisor_id IS NOT NULL AND s.supervisor_id = $1) AS direct, ss.assigned_at
FROM students s
JOIN users u ON u.id = s.user_id
LEFT JOIN supervisor_students ss ON ss.student_id = s.id AND ss.supervisor_id = $1
WHERE s.supervisor_id = $1 OR ss.supervisor_id IS NOT NULL
ORDER BY u.name`
	var students []models.StudentSummary
	if err := r.db.SelectContext(ctx, &students, query, supervisorID); err != nil {
		return nil, fmt.Errorf("list supervised students: %w", err)
	}
	return students, nil
}

// CountJoinedStudents returns how many join table rows the supervisor holds.
func (r *SupervisionRepository) CountJoinedStudents(ctx context.Context, supervisorID string) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM supervisor_students WHERE supervisor_id = $1`, supervisorID); err != nil {
		return 0, fmt.Errorf("count supervised students: %w", err)
	}
	return total, nil
}

// Assign inserts the join row and, when primary, points the student's direct
// link at the supervisor. Reassigning an existing pair is a no-op insert.
func (r *SupervisionRepository) Assign(ctx context.Context, studentID, supervisorID string, primary bool, at time.Time) error {
	return withTx(ctx, r.db, "assign supervisor", func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO supervisor_students (supervisor_id, student_id, assigned_at) VALUES ($1, $2, $3)
ON CONFLICT (supervisor_id, student_id) DO NOTHING`, supervisorID, studentID, at); err != nil {
			return fmt.Errorf("insert supervisor assignment: %w", err)
		}
		if !primary {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `UPDATE students SET supervisor_id = $2, updated_at = $3 WHERE id = $1`, studentID, supervisorID, at); err != nil {
			return fmt.Errorf("set direct supervisor: %w", err)
		}
		return nil
	})
}

// Unassign removes the join row and clears the direct link when it points at
// the same supervisor. sql.ErrNoRows is returned when neither link existed.
func (r *SupervisionRepository) Unassign(ctx context.Context, studentID, supervisorID string, at time.Time) error {
	return withTx(ctx, r.db, "unassign supervisor", func(tx *sqlx.Tx) error {
		joined, err := tx.ExecContext(ctx, `DELETE FROM supervisor_students WHERE supervisor_id = $1 AND student_id = $2`, supervisorID, studentID)
		if err != nil {
			return fmt.Errorf("delete supervisor assignment: %w", err)
		}
		direct, err := tx.ExecContext(ctx, `UPDATE students SET supervisor_id = NULL, updated_at = $3 WHERE id = $1 AND supervisor_id = $2`, studentID, supervisorID, at)
		if err != nil {
			return fmt.Errorf("clear direct supervisor: %w", err)
		}
		joinedRows, _ := joined.RowsAffected()
		directRows, _ := direct.RowsAffected()
		if joinedRows == 0 && directRows == 0 {
			return sql.ErrNoRows
		}
		return nil
	})
}

// UpdateProgress stores a recomputed progress percentage.
func (r *SupervisionRepository) UpdateProgress(ctx context.Context, studentID string, progress int) error {
	const query = `UPDATE students SET progress = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, studentID, progress, time.Now().UTC()); err != nil {
		return fmt.Errorf("update student progress: %w", err)
	}
	return nil
}

// StudentName returns the display name of a student's user.
func (r *SupervisionRepository) StudentName(ctx context.Context, studentID string) (string, error) {
	var name string
	if err := r.db.GetContext(ctx, &name, `SELECT u.name FROM students s JOIN users u ON u.id = s.user_id WHERE s.id = $1`, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", err
		}
		return "", fmt.Errorf("find student name: %w", err)
	}
	return name, nil
}
