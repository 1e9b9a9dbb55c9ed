package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/postgrad-supervision-api/internal/models"
)

func TestConsumeVerificationTokenActivatesUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE email_verification_tokens SET used = TRUE WHERE id = $1 AND used = FALSE")).
		WithArgs("tok-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET email_verified = TRUE, status = $2")).
		WithArgs("u1", "active", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.ConsumeVerificationToken(context.Background(), "tok-1", "u1", now))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeVerificationTokenSecondUseFails(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE email_verification_tokens SET used = TRUE").
		WithArgs("tok-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.ConsumeVerificationToken(context.Background(), "tok-1", "u1", time.Now())
	assert.ErrorIs(t, err, ErrAlreadyConsumed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceResetCodeDeletesUnusedFirst(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM password_reset_codes WHERE user_id = $1 AND used = FALSE")).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO password_reset_codes").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	code := &models.PasswordResetCode{UserID: "u1", Code: "123456", ExpiresAt: time.Now().Add(15 * time.Minute)}
	require.NoError(t, repo.ReplaceResetCode(context.Background(), code))
	assert.NotEmpty(t, code.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceVerificationTokenDeletesUnusedFirst(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM email_verification_tokens WHERE user_id = $1 AND used = FALSE")).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO email_verification_tokens").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	token := &models.EmailVerificationToken{UserID: "u1", Token: "new", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, repo.ReplaceVerificationToken(context.Background(), token))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindActiveResetCodeFiltersUsedAndExpired(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "user_id", "code", "expires_at", "used", "created_at"}).
		AddRow("c1", "u1", "123456", now.Add(10*time.Minute), false, now)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND code = $2 AND used = FALSE AND expires_at > $3")).
		WithArgs("u1", "123456", now).
		WillReturnRows(rows)

	code, err := repo.FindActiveResetCode(context.Background(), "u1", "123456", now)
	require.NoError(t, err)
	assert.Equal(t, "c1", code.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResetPasswordConsumesCode(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE password_reset_codes SET used = TRUE WHERE id = $1 AND used = FALSE")).
		WithArgs("c1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET password_hash = $2")).
		WithArgs("u1", "newhash", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.ResetPassword(context.Background(), "c1", "u1", "newhash", now))
	assert.NoError(t, mock.ExpectationsWereMet())
}
