package models

import "time"

// Student extends a user with programme and progress data.
type Student struct {
	ID                 string     `db:"id" json:"id"`
	UserID             string     `db:"user_id" json:"userId"`
	Program            *string    `db:"program" json:"program,omitempty"`
	SupervisorID       *string    `db:"supervisor_id" json:"supervisorId,omitempty"`
	Progress           int        `db:"progress" json:"progress"`
	EnrollmentDate     *time.Time `db:"enrollment_date" json:"enrollmentDate,omitempty"`
	StartDate          *time.Time `db:"start_date" json:"startDate,omitempty"`
	ExpectedCompletion *time.Time `db:"expected_completion" json:"expectedCompletion,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updatedAt"`
}

// StudentSummary is a student row joined with identity fields for listings.
type StudentSummary struct {
	ID         string     `db:"id" json:"id"`
	UserID     string     `db:"user_id" json:"userId"`
	Name       string     `db:"name" json:"name"`
	Email      string     `db:"email" json:"email"`
	Program    *string    `db:"program" json:"program,omitempty"`
	Progress   int        `db:"progress" json:"progress"`
	Direct     bool       `db:"direct" json:"direct"`
	AssignedAt *time.Time `db:"assigned_at" json:"assignedAt,omitempty"`
}

// Supervisor extends a user with department and capacity.
type Supervisor struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"userId"`
	Department *string   `db:"department" json:"department,omitempty"`
	Capacity   *int      `db:"capacity" json:"capacity,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// HasCapacityFor reports whether one more student fits given the current load.
func (s *Supervisor) HasCapacityFor(current int) bool {
	return s.Capacity == nil || current < *s.Capacity
}
