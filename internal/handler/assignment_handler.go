package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/postgrad-supervision-api/internal/dto"
	"github.com/noah-isme/postgrad-supervision-api/internal/models"
	appErrors "github.com/noah-isme/postgrad-supervision-api/pkg/errors"
	"github.com/noah-isme/postgrad-supervision-api/pkg/response"
)

type assignmentService interface {
	Assign(ctx context.Context, req dto.AssignmentRequest, actor *models.JWTClaims) (*models.Supervision, error)
	Unassign(ctx context.Context, req dto.AssignmentRequest, actor *models.JWTClaims) (*models.Supervision, error)
	Supervision(ctx context.Context, studentID string, actor *models.JWTClaims) (*models.Supervision, error)
}

// AssignmentHandler lets administrators manage supervisor links.
type AssignmentHandler struct {
	service assignmentService
}

func NewAssignmentHandler(service assignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: service}
}

// Assign godoc
// @Summary Assign a supervisor to a student
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body dto.AssignmentRequest true "Assignment"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /assignments [post]
func (h *AssignmentHandler) Assign(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.AssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	result, err := h.service.Assign(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Unassign godoc
// @Summary Remove a supervisor from a student
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body dto.AssignmentRequest true "Assignment"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /assignments [delete]
func (h *AssignmentHandler) Unassign(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.AssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	result, err := h.service.Unassign(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Supervision godoc
// @Summary Direct and joined supervisors of a student
// @Tags Assignments
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/supervisors [get]
func (h *AssignmentHandler) Supervision(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	result, err := h.service.Supervision(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
