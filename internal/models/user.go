package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleStudent       UserRole = "student"
	RoleSupervisor    UserRole = "supervisor"
	RoleAdministrator UserRole = "administrator"
)

// Valid reports whether the role is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleStudent, RoleSupervisor, RoleAdministrator:
		return true
	}
	return false
}

// UserStatus tracks activation of an account.
type UserStatus string

const (
	UserStatusInactive UserStatus = "inactive"
	UserStatusActive   UserStatus = "active"
)

// User represents an application user stored in the users table.
type User struct {
	ID            string     `db:"id" json:"id"`
	Email         string     `db:"email" json:"email"`
	PasswordHash  string     `db:"password_hash" json:"-"`
	Name          string     `db:"name" json:"name"`
	Phone         *string    `db:"phone" json:"phone,omitempty"`
	Role          UserRole   `db:"role" json:"role"`
	Status        UserStatus `db:"status" json:"status"`
	EmailVerified bool       `db:"email_verified" json:"emailVerified"`
	LastLogin     *time.Time `db:"last_login" json:"lastLogin,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updatedAt"`
}

// IsActive reports whether the account may sign in.
func (u *User) IsActive() bool {
	return u != nil && u.Status == UserStatusActive
}

// RoleProfile carries the role-specific fields captured at registration.
type RoleProfile struct {
	Program    *string
	Department *string
}

// UserProfile is a user joined with its role row.
type UserProfile struct {
	User
	StudentID          *string    `db:"student_id" json:"studentId,omitempty"`
	Program            *string    `db:"program" json:"program,omitempty"`
	SupervisorID       *string    `db:"supervisor_id" json:"supervisorId,omitempty"`
	Progress           *int       `db:"progress" json:"progress,omitempty"`
	EnrollmentDate     *time.Time `db:"enrollment_date" json:"enrollmentDate,omitempty"`
	ExpectedCompletion *time.Time `db:"expected_completion" json:"expectedCompletion,omitempty"`
	SupervisorRowID    *string    `db:"supervisor_row_id" json:"supervisorRowId,omitempty"`
	Department         *string    `db:"department" json:"department,omitempty"`
	Capacity           *int       `db:"capacity" json:"capacity,omitempty"`
	AdministratorID    *string    `db:"administrator_id" json:"administratorId,omitempty"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
