package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/postgrad-supervision-api/internal/models"
)

// TokenRepository persists email verification tokens and password reset codes.
type TokenRepository struct {
	db *sqlx.DB
}

func NewTokenRepository(db *sqlx.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func insertVerificationToken(ctx context.Context, tx *sqlx.Tx, token *models.EmailVerificationToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO email_verification_tokens (id, user_id, token, expires_at, used, created_at)
VALUES (:id, :user_id, :token, :expires_at, :used, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("insert verification token: %w", err)
	}
	return nil
}

// FindVerificationToken looks a token up by its value.
func (r *TokenRepository) FindVerificationToken(ctx context.Context, token string) (*models.EmailVerificationToken, error) {
	const query = `SELECT id, user_id, token, expires_at, used, created_at FROM email_verification_tokens WHERE token = $1 LIMIT 1`
	var t models.EmailVerificationToken
	if err := r.db.GetContext(ctx, &t, query, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find verification token: %w", err)
	}
	return &t, nil
}

// ReplaceVerificationToken drops the user's unused tokens and stores a new one.
func (r *TokenRepository) ReplaceVerificationToken(ctx context.Context, token *models.EmailVerificationToken) error {
	return withTx(ctx, r.db, "replace verification token", func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM email_verification_tokens WHERE user_id = $1 AND used = FALSE`, token.UserID); err != nil {
			return fmt.Errorf("delete unused verification tokens: %w", err)
		}
		return insertVerificationToken(ctx, tx, token)
	})
}

// ConsumeVerificationToken marks the token used and activates its user in one
// transaction. ErrAlreadyConsumed is returned when the token was used meanwhile.
func (r *TokenRepository) ConsumeVerificationToken(ctx context.Context, tokenID, userID string, at time.Time) error {
	return withTx(ctx, r.db, "verify email", func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE email_verification_tokens SET used = TRUE WHERE id = $1 AND used = FALSE`, tokenID)
		if err != nil {
			return fmt.Errorf("mark verification token used: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("verification token rows affected: %w", err)
		}
		if affected == 0 {
			return ErrAlreadyConsumed
		}
		if _, err := tx.ExecContext(ctx, `UPDATE users SET email_verified = TRUE, status = $2, updated_at = $3 WHERE id = $1`,
			userID, models.UserStatusActive, at); err != nil {
			return fmt.Errorf("activate user: %w", err)
		}
		return nil
	})
}

// ReplaceResetCode drops the user's unused reset codes and stores a new one.
func (r *TokenRepository) ReplaceResetCode(ctx context.Context, code *models.PasswordResetCode) error {
	if code.ID == "" {
		code.ID = uuid.NewString()
	}
	if code.CreatedAt.IsZero() {
		code.CreatedAt = time.Now().UTC()
	}
	return withTx(ctx, r.db, "replace reset code", func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM password_reset_codes WHERE user_id = $1 AND used = FALSE`, code.UserID); err != nil {
			return fmt.Errorf("delete unused reset codes: %w", err)
		}
		const query = `INSERT INTO password_reset_codes (id, user_id, code, expires_at, used, created_at)
VALUES (:id, :user_id, :code, :expires_at, :used, :created_at)`
		if _, err := tx.NamedExecContext(ctx, query, code); err != nil {
			return fmt.Errorf("insert reset code: %w", err)
		}
		return nil
	})
}

// FindActiveResetCode returns the unused code for the user that is still valid at now.
func (r *TokenRepository) FindActiveResetCode(ctx context.Context, userID, code string, now time.Time) (*models.PasswordResetCode, error) {
	const query = `SELECT id, user_id, code, expires_at, used, created_at FROM password_reset_codes
WHERE user_id = $1 AND code = $2 AND used = FALSE AND expires_at > $3
ORDER BY created_at DESC LIMIT 1`
	var c models.PasswordResetCode
	if err := r.db.GetContext(ctx, &c, query, userID, code, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find reset code: %w", err)
	}
	return &c, nil
}

// ResetPassword stores the new hash and consumes the code together.
func (r *TokenRepository) ResetPassword(ctx context.Context, codeID, userID, passwordHash string, at time.Time) error {
	return withTx(ctx, r.db, "reset password", func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE password_reset_codes SET used = TRUE WHERE id = $1 AND used = FALSE`, codeID)
		if err != nil {
			return fmt.Errorf("mark reset code used: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("reset code rows affected: %w", err)
		}
		if affected == 0 {
			return ErrAlreadyConsumed
		}
		if _, err := tx.ExecContext(ctx, `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`, userID, passwordHash, at); err != nil {
			return fmt.Errorf("update password: %w", err)
		}
		return nil
	})
}
