package dto

import "github.com/noah-isme/postgrad-supervision-api/internal/models"

// UploadDocumentRequest holds the multipart metadata fields of an upload.
type UploadDocumentRequest struct {
	Title        string              `form:"title" validate:"required,max=255"`
	Description  *string             `form:"description"`
	Type         models.DocumentType `form:"type" validate:"omitempty,oneof=submission resource"`
	WeekNumber   *int                `form:"week_number" validate:"omitempty,min=1,max=6"`
	StudentID    *string             `form:"student_id"`
	SupervisorID *string             `form:"supervisor_id"`
}

// UpdateDocumentRequest edits descriptive metadata only.
type UpdateDocumentRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
}

type FeedbackRequest struct {
	Feedback string `json:"feedback" validate:"required"`
}

// DocumentResponse decorates a document with a signed download link.
type DocumentResponse struct {
	models.Document
	DownloadURL string `json:"downloadUrl,omitempty"`
}

// FeedbackResponse returns the appended review with the updated document status.
type FeedbackResponse struct {
	Review *models.DocumentReview `json:"review"`
	Status models.DocumentStatus  `json:"status"`
}
