package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/postgrad-supervision-api/internal/models"
	"github.com/noah-isme/postgrad-supervision-api/pkg/database"
)

// ReviewRepository stores append-only document feedback.
type ReviewRepository struct {
	db *sqlx.DB
}

func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create appends a review row. Reviews are never updated in place.
func (r *ReviewRepository) Create(ctx context.Context, review *models.DocumentReview) error {
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	if review.ReviewedAt.IsZero() {
		review.ReviewedAt = time.Now().UTC()
	}
	const query = `INSERT INTO document_reviews (id, document_id, reviewer_id, feedback, status, reviewed_at)
VALUES (:id, :document_id, :reviewer_id, :feedback, :status, :reviewed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, review); err != nil {
		return fmt.Errorf("create document review: %w", err)
	}
	return nil
}

// ListByDocument returns reviews newest first. An un-migrated reviews table
// yields an empty list rather than an error.
func (r *ReviewRepository) ListByDocument(ctx context.Context, documentID string) ([]models.DocumentReview, error) {
	const query = `SELECT r.id, r.document_id, r.reviewer_id, u.name AS reviewer_name, r.feedback, r.status, r.reviewed_at
FROM document_reviews r
LEFT JOIN users u ON u.id = r.reviewer_id
WHERE r.document_id = $1
ORDER BY r.reviewed_at DESC`
	reviews := []models.DocumentReview{}
	if err := r.db.SelectContext(ctx, &reviews, query, documentID); err != nil {
		if database.IsUndefinedTable(err) {
			return []models.DocumentReview{}, nil
		}
		return nil, fmt.Errorf("list document reviews: %w", err)
	}
	return reviews, nil
}
