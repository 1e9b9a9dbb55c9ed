package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/postgrad-supervision-api/internal/dto"
	"github.com/noah-isme/postgrad-supervision-api/internal/models"
	appErrors "github.com/noah-isme/postgrad-supervision-api/pkg/errors"
)

type reviewStore interface {
	Create(ctx context.Context, review *models.DocumentReview) error
	ListByDocument(ctx context.Context, documentID string) ([]models.DocumentReview, error)
}

type reviewDocumentStore interface {
	FindByID(ctx context.Context, id string) (*models.Document, error)
	UpdateStatus(ctx context.Context, id string, status models.DocumentStatus) error
}

// ReviewService drives the feedback and approval state of documents:
// feedback always moves a document to pending_review, approval to approved.
type ReviewService struct {
	reviews   reviewStore
	docs      reviewDocumentStore
	access    supervisionAccess
	notifier  notificationDispatcher
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReviewService constructs a ReviewService.
func NewReviewService(reviews reviewStore, docs reviewDocumentStore, supervision supervisionLookup, notifier notificationDispatcher, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ReviewService{
		reviews:   reviews,
		docs:      docs,
		access:    supervisionAccess{lookup: supervision},
		notifier:  notifier,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// AddFeedback appends a review entry and marks the document as needing changes.
func (s *ReviewService) AddFeedback(ctx context.Context, documentID string, req dto.FeedbackRequest, actor *models.JWTClaims) (*dto.FeedbackResponse, error) {
	req.Feedback = strings.TrimSpace(req.Feedback)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "feedback text is required")
	}
	doc, err := s.loadReviewable(ctx, documentID, actor)
	if err != nil {
		return nil, err
	}

	review := &models.DocumentReview{
		DocumentID: doc.ID,
		ReviewerID: actor.UserID,
		Feedback:   req.Feedback,
		Status:     models.DocumentStatusPendingReview,
		ReviewedAt: time.Now().UTC(),
	}
	// Status goes first so a retry after a failed insert never duplicates the review.
	if err := s.docs.UpdateStatus(ctx, doc.ID, models.DocumentStatusPendingReview); err != nil {
		return nil, s.statusError(err)
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, appErrors.Internal(err, "failed to save feedback")
	}
	s.metrics.RecordReview("feedback")

	s.notifyStudent(ctx, doc, models.Notification{
		Title:   "New feedback",
		Message: fmt.Sprintf("Your document %q has new feedback", doc.Title),
		Type:    models.NotificationFeedback,
	})
	return &dto.FeedbackResponse{Review: review, Status: models.DocumentStatusPendingReview}, nil
}

// Approve marks the document approved regardless of its review history.
func (s *ReviewService) Approve(ctx context.Context, documentID string, actor *models.JWTClaims) (*models.Document, error) {
	doc, err := s.loadReviewable(ctx, documentID, actor)
	if err != nil {
		return nil, err
	}
	if err := s.docs.UpdateStatus(ctx, doc.ID, models.DocumentStatusApproved); err != nil {
		return nil, s.statusError(err)
	}
	doc.Status = models.DocumentStatusApproved
	s.metrics.RecordReview("approve")

	s.notifyStudent(ctx, doc, models.Notification{
		Title:   "Document approved",
		Message: fmt.Sprintf("Your document %q has been approved", doc.Title),
		Type:    models.NotificationApproval,
	})
	return doc, nil
}

// ListFeedback returns the reviews of a document newest first.
func (s *ReviewService) ListFeedback(ctx context.Context, documentID string, actor *models.JWTClaims) ([]models.DocumentReview, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	doc, err := loadDocument(ctx, s.docs, documentID)
	if err != nil {
		return nil, err
	}
	if err := s.access.ensureDocumentView(ctx, actor, doc); err != nil {
		return nil, err
	}
	if actor.Role == models.RoleStudent && doc.StudentID == nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "students may only view feedback on their own documents")
	}

	reviews, err := s.reviews.ListByDocument(ctx, doc.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load feedback")
	}
	if reviews == nil {
		reviews = []models.DocumentReview{}
	}
	return reviews, nil
}

func (s *ReviewService) loadReviewable(ctx context.Context, documentID string, actor *models.JWTClaims) (*models.Document, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleSupervisor && actor.Role != models.RoleAdministrator {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only supervisors and administrators can review documents")
	}
	doc, err := loadDocument(ctx, s.docs, documentID)
	if err != nil {
		return nil, err
	}
	if err := s.access.ensureReviewer(ctx, actor, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *ReviewService) statusError(err error) error {
	if isNotFound(err) {
		return appErrors.Clone(appErrors.ErrNotFound, "document not found")
	}
	return appErrors.Internal(err, "failed to update document status")
}

func (s *ReviewService) notifyStudent(ctx context.Context, doc *models.Document, n models.Notification) {
	if s.notifier == nil || doc.StudentID == nil {
		return
	}
	supervision, err := s.access.lookup.Resolve(ctx, *doc.StudentID)
	if err != nil {
		s.logger.Warn("failed to resolve student for notification", zap.String("student_id", *doc.StudentID), zap.Error(err))
		return
	}
	link := "/documents/" + doc.ID
	n.UserID = supervision.StudentUserID
	n.Icon = n.Type.Icon()
	n.Link = &link
	s.notifier.Notify(ctx, n)
}
