package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/postgrad-supervision-api/internal/models"
	"github.com/noah-isme/postgrad-supervision-api/internal/service"
	"github.com/noah-isme/postgrad-supervision-api/pkg/response"
)

type progressService interface {
	Summary(ctx context.Context, studentID string, actor *models.JWTClaims) (*models.ProgressSummary, error)
	MySummary(ctx context.Context, actor *models.JWTClaims) (*models.ProgressSummary, error)
	Report(ctx context.Context, studentID, format string, actor *models.JWTClaims) (*service.ProgressReport, error)
	SupervisedStudents(ctx context.Context, actor *models.JWTClaims) ([]models.StudentSummary, error)
}

// ProgressHandler serves weekly progress views and exports.
type ProgressHandler struct {
	service progressService
}

func NewProgressHandler(service progressService) *ProgressHandler {
	return &ProgressHandler{service: service}
}

// StudentProgress godoc
// @Summary Weekly progress of a student
// @Tags Progress
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /students/{id}/progress [get]
func (h *ProgressHandler) StudentProgress(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	summary, err := h.service.Summary(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// MyProgress godoc
// @Summary Weekly progress of the signed-in student
// @Tags Progress
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /progress/me [get]
func (h *ProgressHandler) MyProgress(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	summary, err := h.service.MySummary(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Report godoc
// @Summary Export a student's progress
// @Tags Progress
// @Produce application/pdf
// @Produce text/csv
// @Param id path string true "Student ID"
// @Param format query string false "pdf (default) or csv"
// @Success 200 {file} binary
// @Router /students/{id}/progress/report [get]
func (h *ProgressHandler) Report(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	report, err := h.service.Report(c.Request.Context(), c.Param("id"), c.Query("format"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, report.ContentType, report.Content)
}

// SupervisedStudents godoc
// @Summary Students supervised by the signed-in supervisor
// @Tags Progress
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /supervisors/me/students [get]
func (h *ProgressHandler) SupervisedStudents(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	students, err := h.service.SupervisedStudents(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}
