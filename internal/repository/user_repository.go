package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/postgrad-supervision-api/internal/models"
)

const userColumns = `id, email, password_hash, name, phone, role, status, email_verified, last_login, created_at, updated_at`

// UserRepository provides database access for accounts and their role rows.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns a user by email address. Emails compare case-insensitively.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, strings.TrimSpace(email)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// GetProfile returns the user joined with whichever role row it owns.
func (r *UserRepository) GetProfile(ctx context.Context, id string) (*models.UserProfile, error) {
	const query = `SELECT u.id, u.email, u.password_hash, u.name, u.phone, u.role, u.status, u.email_verified,
       u.last_login, u.created_at, u.updated_at,
       st.id AS student_id, st.program, st.supervisor_id, st.progress, st.enrollment_date, st.expected_completion,
       sp.id AS supervisor_row_id, sp.department, sp.capacity,
       ad.id AS administrator_id
FROM users u
LEFT JOIN students st ON st.user_id = u.id
LEFT JOIN supervisors sp ON sp.user_id = u.id
LEFT JOIN administrators ad ON ad.user_id = u.id
WHERE u.id = $1`
	var profile models.UserProfile
	if err := r.db.GetContext(ctx, &profile, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get user profile: %w", err)
	}
	return &profile, nil
}

// CreateWithRole inserts the user, its role row and, when given, the email
// verification token in one transaction.
func (r *UserRepository) CreateWithRole(ctx context.Context, user *models.User, profile models.RoleProfile, token *models.EmailVerificationToken) error {
	now := time.Now().UTC()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	return withTx(ctx, r.db, "register user", func(tx *sqlx.Tx) error {
		const insertUser = `INSERT INTO users (id, email, password_hash, name, phone, role, status, email_verified, created_at, updated_at)
VALUES (:id, :email, :password_hash, :name, :phone, :role, :status, :email_verified, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, insertUser, user); err != nil {
			return fmt.Errorf("insert user: %w", err)
		}

		roleID := uuid.NewString()
		var err error
		switch user.Role {
		case models.RoleStudent:
			_, err = tx.ExecContext(ctx, `INSERT INTO students (id, user_id, program, progress, enrollment_date, created_at, updated_at) VALUES ($1, $2, $3, 0, $4, $4, $4)`,
				roleID, user.ID, profile.Program, now)
		case models.RoleSupervisor:
			_, err = tx.ExecContext(ctx, `INSERT INTO supervisors (id, user_id, department, created_at, updated_at) VALUES ($1, $2, $3, $4, $4)`,
				roleID, user.ID, profile.Department, now)
		case models.RoleAdministrator:
			_, err = tx.ExecContext(ctx, `INSERT INTO administrators (id, user_id, created_at) VALUES ($1, $2, $3)`,
				roleID, user.ID, now)
		default:
			err = fmt.Errorf("unknown role %q", user.Role)
		}
		if err != nil {
			return fmt.Errorf("insert %s row: %w", user.Role, err)
		}

		if token == nil {
			return nil
		}
		token.UserID = user.ID
		if err := insertVerificationToken(ctx, tx, token); err != nil {
			return err
		}
		return nil
	})
}

// UpdateLastLogin updates the last_login timestamp for a user.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	const query = `UPDATE users SET last_login = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts, ts); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// UpdatePassword updates the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	const query = `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, passwordHash, updatedAt)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
