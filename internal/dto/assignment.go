package dto

// AssignmentRequest links a supervisor to a student. Primary also sets the
// student's direct supervisor.
type AssignmentRequest struct {
	StudentID    string `json:"student_id" validate:"required"`
	SupervisorID string `json:"supervisor_id" validate:"required"`
	Primary      bool   `json:"primary"`
}
