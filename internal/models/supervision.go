package models

import "time"

// SupervisorStudent is one row of the supervisor_students join table.
type SupervisorStudent struct {
	SupervisorID string    `db:"supervisor_id" json:"supervisorId"`
	StudentID    string    `db:"student_id" json:"studentId"`
	AssignedAt   time.Time `db:"assigned_at" json:"assignedAt"`
}

// SupervisorLink identifies a supervisor by row id and by user id.
type SupervisorLink struct {
	SupervisorID string `json:"supervisorId"`
	UserID       string `json:"userId"`
}

// Supervision is the resolved supervisor set of a single student. The direct
// students.supervisor_id link and the join table are kept side by side; they
// are allowed to disagree.
type Supervision struct {
	StudentID     string           `json:"studentId"`
	StudentUserID string           `json:"studentUserId"`
	Direct        *SupervisorLink  `json:"direct,omitempty"`
	Joined        []SupervisorLink `json:"joined"`
}

// IncludesSupervisor reports whether the supervisor row is linked to the
// student through either source.
func (s *Supervision) IncludesSupervisor(supervisorID string) bool {
	if s == nil || supervisorID == "" {
		return false
	}
	if s.Direct != nil && s.Direct.SupervisorID == supervisorID {
		return true
	}
	for _, link := range s.Joined {
		if link.SupervisorID == supervisorID {
			return true
		}
	}
	return false
}

// PrimarySupervisor returns the direct link when set, otherwise the earliest
// join table assignment.
func (s *Supervision) PrimarySupervisor() (SupervisorLink, bool) {
	if s == nil {
		return SupervisorLink{}, false
	}
	if s.Direct != nil {
		return *s.Direct, true
	}
	if len(s.Joined) > 0 {
		return s.Joined[0], true
	}
	return SupervisorLink{}, false
}
