package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/postgrad-supervision-api/internal/models"
	"github.com/noah-isme/postgrad-supervision-api/internal/service"
	appErrors "github.com/noah-isme/postgrad-supervision-api/pkg/errors"
)

type progressServiceMock struct {
	format string
}

func (m *progressServiceMock) Summary(ctx context.Context, studentID string, actor *models.JWTClaims) (*models.ProgressSummary, error) {
	if actor.Role == models.RoleStudent {
		return nil, appErrors.ErrForbidden
	}
	return &models.ProgressSummary{StudentID: studentID, Progress: 50}, nil
}

func (m *progressServiceMock) MySummary(ctx context.Context, actor *models.JWTClaims) (*models.ProgressSummary, error) {
	return &models.ProgressSummary{StudentID: "st-1"}, nil
}

func (m *progressServiceMock) Report(ctx context.Context, studentID, format string, actor *models.JWTClaims) (*service.ProgressReport, error) {
	m.format = format
	return &service.ProgressReport{Filename: "progress_st-1_20240305.csv", ContentType: "text/csv", Content: []byte("Week,Status\n")}, nil
}

func (m *progressServiceMock) SupervisedStudents(ctx context.Context, actor *models.JWTClaims) ([]models.StudentSummary, error) {
	return []models.StudentSummary{{ID: "st-1"}}, nil
}

func TestProgressHandlerSummary(t *testing.T) {
	handler := NewProgressHandler(&progressServiceMock{})

	c, w := newGinContext(http.MethodGet, "/students/st-1/progress", nil)
	c.Params = gin.Params{{Key: "id", Value: "st-1"}}
	withUser(c, "u-sup1", models.RoleSupervisor)
	handler.StudentProgress(c)
	require.Equal(t, http.StatusOK, w.Code)

	c, w = newGinContext(http.MethodGet, "/students/st-1/progress", nil)
	c.Params = gin.Params{{Key: "id", Value: "st-1"}}
	withUser(c, "u-st2", models.RoleStudent)
	handler.StudentProgress(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestProgressHandlerReportAttachment(t *testing.T) {
	mock := &progressServiceMock{}
	c, w := newGinContext(http.MethodGet, "/students/st-1/progress/report?format=csv", nil)
	c.Params = gin.Params{{Key: "id", Value: "st-1"}}
	withUser(c, "admin", models.RoleAdministrator)
	NewProgressHandler(mock).Report(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", mock.format)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="progress_st-1_20240305.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "Week,Status\n", w.Body.String())
}
