package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/postgrad-supervision-api/internal/models"
)

var documentRowColumns = []string{"id", "student_id", "supervisor_id", "title", "description", "file_path", "file_name", "file_size",
	"file_type", "week_number", "type", "status", "uploaded_by", "created_at", "updated_at"}

func TestDocumentRepositoryCreateAndFind(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO documents")).WillReturnResult(sqlmock.NewResult(1, 1))
	studentID := "st-1"
	doc := &models.Document{StudentID: &studentID, Title: "Week 3", FilePath: "student/u1/a.pdf", FileName: "a.pdf",
		Type: models.DocumentTypeSubmission, Status: models.DocumentStatusSubmitted, UploadedBy: "u1"}
	require.NoError(t, repo.Create(context.Background(), doc))
	require.NotEmpty(t, doc.ID)

	now := time.Now()
	rows := sqlmock.NewRows(documentRowColumns).
		AddRow(doc.ID, "st-1", nil, "Week 3", nil, "student/u1/a.pdf", "a.pdf", 10, "pdf", 3, "submission", "submitted", "u1", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM documents d WHERE d.id = $1")).WithArgs(doc.ID).WillReturnRows(rows)

	found, err := repo.FindByID(context.Background(), doc.ID)
	require.NoError(t, err)
	require.NotNil(t, found.WeekNumber)
	assert.Equal(t, 3, *found.WeekNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryListStudentScope(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(documentRowColumns).
		AddRow("d1", "st-1", nil, "Week 1", nil, "p", "a.pdf", 10, "pdf", 1, "submission", "submitted", "u1", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("(d.student_id = $1 OR (d.student_id IS NULL AND d.type = $2 AND d.supervisor_id IN ($3)))")).
		WithArgs("st-1", "resource", "sup-1", "submitted").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM documents d")).
		WithArgs("st-1", "resource", "sup-1", "submitted").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	docs, total, err := repo.List(context.Background(),
		models.DocumentFilter{Status: models.DocumentStatusSubmitted},
		models.DocumentScope{StudentID: "st-1", StudentSupervisors: []string{"sup-1"}})
	require.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryListSupervisorScope(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("d.student_id IN (SELECT student_id FROM supervisor_students WHERE supervisor_id = $2)")).
		WithArgs("sup-1", "sup-1", "sup-1", 2).
		WillReturnRows(sqlmock.NewRows(documentRowColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM documents d")).
		WithArgs("sup-1", "sup-1", "sup-1", 2).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	week := 2
	docs, total, err := repo.List(context.Background(), models.DocumentFilter{WeekNumber: &week}, models.DocumentScope{SupervisorID: "sup-1"})
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryUpdateStatusMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE documents SET status = $2")).
		WithArgs("missing", "approved", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", models.DocumentStatusApproved)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
