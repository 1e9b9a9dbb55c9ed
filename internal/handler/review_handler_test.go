package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/postgrad-supervision-api/internal/dto"
	"github.com/noah-isme/postgrad-supervision-api/internal/models"
	appErrors "github.com/noah-isme/postgrad-supervision-api/pkg/errors"
)

type reviewServiceMock struct {
	documentID string
	feedback   string
}

func (m *reviewServiceMock) AddFeedback(ctx context.Context, documentID string, req dto.FeedbackRequest, actor *models.JWTClaims) (*dto.FeedbackResponse, error) {
	m.documentID, m.feedback = documentID, req.Feedback
	review := &models.DocumentReview{DocumentID: documentID, Feedback: req.Feedback}
	return &dto.FeedbackResponse{Review: review, Status: models.DocumentStatusPendingReview}, nil
}

func (m *reviewServiceMock) Approve(ctx context.Context, documentID string, actor *models.JWTClaims) (*models.Document, error) {
	if actor.UserID != "u-sup1" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not a supervisor of this student")
	}
	return &models.Document{ID: documentID, Status: models.DocumentStatusApproved}, nil
}

func (m *reviewServiceMock) ListFeedback(ctx context.Context, documentID string, actor *models.JWTClaims) ([]models.DocumentReview, error) {
	return []models.DocumentReview{{DocumentID: documentID, Feedback: "newer"}, {DocumentID: documentID, Feedback: "older"}}, nil
}

func TestReviewHandlerAddFeedback(t *testing.T) {
	mock := &reviewServiceMock{}
	c, w := newGinContext(http.MethodPost, "/documents/doc-1/feedback", []byte(`{"feedback":"Tighten the method section"}`))
	c.Params = gin.Params{{Key: "id", Value: "doc-1"}}
	withUser(c, "u-sup1", models.RoleSupervisor)
	NewReviewHandler(mock).AddFeedback(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "doc-1", mock.documentID)
	assert.Equal(t, "Tighten the method section", mock.feedback)
}

func TestReviewHandlerApprove(t *testing.T) {
	handler := NewReviewHandler(&reviewServiceMock{})

	c, w := newGinContext(http.MethodPost, "/documents/doc-1/approve", nil)
	c.Params = gin.Params{{Key: "id", Value: "doc-1"}}
	withUser(c, "u-sup1", models.RoleSupervisor)
	handler.Approve(c)
	require.Equal(t, http.StatusOK, w.Code)

	var doc models.Document
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &doc))
	assert.Equal(t, models.DocumentStatusApproved, doc.Status)

	c, w = newGinContext(http.MethodPost, "/documents/doc-1/approve", nil)
	c.Params = gin.Params{{Key: "id", Value: "doc-1"}}
	withUser(c, "u-sup2", models.RoleSupervisor)
	handler.Approve(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestReviewHandlerListFeedbackKeepsOrder(t *testing.T) {
	c, w := newGinContext(http.MethodGet, "/documents/doc-1/feedback", nil)
	c.Params = gin.Params{{Key: "id", Value: "doc-1"}}
	withUser(c, "u-st1", models.RoleStudent)
	NewReviewHandler(&reviewServiceMock{}).ListFeedback(c)

	require.Equal(t, http.StatusOK, w.Code)
	var reviews []models.DocumentReview
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &reviews))
	require.Len(t, reviews, 2)
	assert.Equal(t, "newer", reviews[0].Feedback)
}
