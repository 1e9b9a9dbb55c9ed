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

func TestNotificationCreateMarksUnread(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec("INSERT INTO notifications").WillReturnResult(sqlmock.NewResult(1, 1))

	n := &models.Notification{UserID: "u1", Title: "t", Message: "m", Type: models.NotificationSystem}
	require.NoError(t, repo.Create(context.Background(), n))
	assert.True(t, n.Unread)
	assert.NotEmpty(t, n.ID)
}

func TestNotificationListUnreadOnly(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	rows := sqlmock.NewRows([]string{"id", "user_id", "title", "message", "type", "icon", "link", "unread", "created_at"}).
		AddRow("n1", "u1", "t", "m", "feedback", nil, "/documents/d1", true, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND unread = TRUE ORDER BY created_at DESC LIMIT 10")).
		WithArgs("u1").
		WillReturnRows(rows)

	items, err := repo.ListByUser(context.Background(), "u1", models.NotificationFilter{UnreadOnly: true, Limit: 10})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Link)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationMarkReadScopedToRecipient(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET unread = FALSE WHERE id = $1 AND user_id = $2")).
		WithArgs("n1", "intruder").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkRead(context.Background(), "n1", "intruder")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationBulkOperations(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET unread = FALSE WHERE user_id = $1 AND unread = TRUE")).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM notifications WHERE user_id = $1")).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 5))

	marked, err := repo.MarkAllRead(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), marked)

	cleared, err := repo.DeleteAll(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), cleared)
	assert.NoError(t, mock.ExpectationsWereMet())
}
