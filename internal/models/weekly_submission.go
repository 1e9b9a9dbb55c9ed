package models

import (
	"math"
	"time"
)

// TotalWeeks is the number of weekly slots making up a student's progress.
const TotalWeeks = 6

// WeeklySubmissionStatus is the state of a weekly slot.
type WeeklySubmissionStatus string

const (
	WeeklySubmissionDraft     WeeklySubmissionStatus = "draft"
	WeeklySubmissionSubmitted WeeklySubmissionStatus = "submitted"
)

// WeeklySubmission is the latest file a student handed in for one week.
type WeeklySubmission struct {
	ID          string                 `db:"id" json:"id"`
	StudentID   string                 `db:"student_id" json:"studentId"`
	WeekNumber  int                    `db:"week_number" json:"weekNumber"`
	DocumentID  *string                `db:"document_id" json:"documentId,omitempty"`
	FilePath    string                 `db:"file_path" json:"-"`
	FileName    string                 `db:"file_name" json:"fileName"`
	Status      WeeklySubmissionStatus `db:"status" json:"status"`
	SubmittedAt *time.Time             `db:"submitted_at" json:"submittedAt,omitempty"`
	UpdatedAt   time.Time              `db:"updated_at" json:"updatedAt"`
}

// ProgressFor converts a count of submitted weeks into a percentage.
func ProgressFor(submitted int) int {
	if submitted < 0 {
		submitted = 0
	}
	if submitted > TotalWeeks {
		submitted = TotalWeeks
	}
	return int(math.Round(100 * float64(submitted) / float64(TotalWeeks)))
}

// WeekSlot is one entry of a progress summary.
type WeekSlot struct {
	WeekNumber  int                    `json:"weekNumber"`
	Status      WeeklySubmissionStatus `json:"status,omitempty"`
	FileName    string                 `json:"fileName,omitempty"`
	DocumentID  *string                `json:"documentId,omitempty"`
	SubmittedAt *time.Time             `json:"submittedAt,omitempty"`
}

// ProgressSummary is a student's progress with per-week detail.
type ProgressSummary struct {
	StudentID      string     `json:"studentId"`
	StudentName    string     `json:"studentName"`
	Program        *string    `json:"program,omitempty"`
	Progress       int        `json:"progress"`
	SubmittedWeeks int        `json:"submittedWeeks"`
	TotalWeeks     int        `json:"totalWeeks"`
	Weeks          []WeekSlot `json:"weeks"`
	GeneratedAt    time.Time  `json:"generatedAt"`
}
