package models

import "time"

// DocumentType distinguishes student submissions from shared resources.
type DocumentType string

const (
	DocumentTypeSubmission DocumentType = "submission"
	DocumentTypeResource   DocumentType = "resource"
)

// DocumentStatus is the review state of a document.
type DocumentStatus string

const (
	DocumentStatusSubmitted     DocumentStatus = "submitted"
	DocumentStatusPendingReview DocumentStatus = "pending_review"
	DocumentStatusApproved      DocumentStatus = "approved"
)

// Document is metadata for an uploaded file.
type Document struct {
	ID           string         `db:"id" json:"id"`
	StudentID    *string        `db:"student_id" json:"studentId,omitempty"`
	SupervisorID *string        `db:"supervisor_id" json:"supervisorId,omitempty"`
	Title        string         `db:"title" json:"title"`
	Description  *string        `db:"description" json:"description,omitempty"`
	FilePath     string         `db:"file_path" json:"-"`
	FileName     string         `db:"file_name" json:"fileName"`
	FileSize     int64          `db:"file_size" json:"fileSize"`
	FileType     string         `db:"file_type" json:"fileType"`
	WeekNumber   *int           `db:"week_number" json:"weekNumber,omitempty"`
	Type         DocumentType   `db:"type" json:"type"`
	Status       DocumentStatus `db:"status" json:"status"`
	UploadedBy   string         `db:"uploaded_by" json:"uploadedBy"`
	CreatedAt    time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updatedAt"`
}

// DocumentFilter narrows document listings. Empty fields are ignored.
type DocumentFilter struct {
	StudentID    string
	SupervisorID string
	Type         DocumentType
	Status       DocumentStatus
	WeekNumber   *int
	Page         int
	PageSize     int
}

// DocumentScope restricts listings to what the caller may see. A student sees
// their own documents plus student-less resources from their supervisors; a
// supervisor sees documents they own or that belong to students they supervise.
// The zero value (administrator) sees everything.
type DocumentScope struct {
	StudentID          string
	StudentSupervisors []string
	SupervisorID       string
}

// DocumentReview is one append-only feedback entry.
type DocumentReview struct {
	ID         string         `db:"id" json:"id"`
	DocumentID string         `db:"document_id" json:"documentId"`
	ReviewerID string         `db:"reviewer_id" json:"reviewerId"`
	Reviewer   *string        `db:"reviewer_name" json:"reviewerName,omitempty"`
	Feedback   string         `db:"feedback" json:"feedback"`
	Status     DocumentStatus `db:"status" json:"status"`
	ReviewedAt time.Time      `db:"reviewed_at" json:"reviewedAt"`
}
