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

type reviewService interface {
	AddFeedback(ctx context.Context, documentID string, req dto.FeedbackRequest, actor *models.JWTClaims) (*dto.FeedbackResponse, error)
	Approve(ctx context.Context, documentID string, actor *models.JWTClaims) (*models.Document, error)
	ListFeedback(ctx context.Context, documentID string, actor *models.JWTClaims) ([]models.DocumentReview, error)
}

// ReviewHandler exposes feedback and approval of documents.
type ReviewHandler struct {
	service reviewService
}

func NewReviewHandler(service reviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// AddFeedback godoc
// @Summary Leave feedback on a document
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param payload body dto.FeedbackRequest true "Feedback"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /documents/{id}/feedback [post]
func (h *ReviewHandler) AddFeedback(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req dto.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid feedback payload"))
		return
	}
	res, err := h.service.AddFeedback(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// Approve godoc
// @Summary Approve a document
// @Tags Reviews
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /documents/{id}/approve [post]
func (h *ReviewHandler) Approve(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	doc, err := h.service.Approve(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doc, nil)
}

// ListFeedback godoc
// @Summary List feedback on a document, newest first
// @Tags Reviews
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Router /documents/{id}/feedback [get]
func (h *ReviewHandler) ListFeedback(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	reviews, err := h.service.ListFeedback(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reviews, nil)
}
