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

func TestWeeklySubmissionUpsertUsesConflictTarget(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewWeeklySubmissionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (student_id, week_number)")).WillReturnResult(sqlmock.NewResult(1, 1))

	now := time.Now()
	sub := &models.WeeklySubmission{StudentID: "st-1", WeekNumber: 3, FileName: "b.pdf", FilePath: "p", Status: models.WeeklySubmissionSubmitted, SubmittedAt: &now}
	require.NoError(t, repo.Upsert(context.Background(), sub))
	assert.NotEmpty(t, sub.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWeeklySubmissionCountSubmittedOnly(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewWeeklySubmissionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM weekly_submissions WHERE student_id = $1 AND status = $2")).
		WithArgs("st-1", "submitted").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	n, err := repo.CountSubmitted(context.Background(), "st-1")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWeeklySubmissionListByStudent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewWeeklySubmissionRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "student_id", "week_number", "document_id", "file_path", "file_name", "status", "submitted_at", "updated_at"}).
		AddRow("w1", "st-1", 1, "d1", "p1", "a.pdf", "submitted", now, now).
		AddRow("w2", "st-1", 2, nil, "p2", "b.pdf", "draft", nil, now)
	mock.ExpectQuery("FROM weekly_submissions WHERE student_id = ").WithArgs("st-1").WillReturnRows(rows)

	subs, err := repo.ListByStudent(context.Background(), "st-1")
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, models.WeeklySubmissionDraft, subs[1].Status)
	assert.Nil(t, subs[1].SubmittedAt)
}
