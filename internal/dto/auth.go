package dto

import "github.com/noah-isme/postgrad-supervision-api/internal/models"

// RegisterRequest is the self-service signup payload.
type RegisterRequest struct {
	Email      string          `json:"email" validate:"required,email"`
	Password   string          `json:"password" validate:"required,min=6,max=72"`
	Name       string          `json:"name" validate:"required"`
	Role       models.UserRole `json:"role" validate:"required,oneof=student supervisor administrator"`
	Phone      *string         `json:"phone,omitempty"`
	Program    *string         `json:"program,omitempty"`
	Department *string         `json:"department,omitempty"`
}

// RegisterResponse reports the outcome of a signup. VerificationToken is only
// populated outside production.
type RegisterResponse struct {
	Message           string `json:"message"`
	EmailSent         bool   `json:"emailSent"`
	UserID            string `json:"userId"`
	VerificationToken string `json:"verificationToken,omitempty"`
}

// LoginRequest holds credentials and the optional role the client expects.
type LoginRequest struct {
	Email    string          `json:"email" validate:"required,email"`
	Password string          `json:"password" validate:"required"`
	Role     models.UserRole `json:"role,omitempty" validate:"omitempty,oneof=student supervisor administrator"`
}

// LoginResponse carries the session token and role-joined profile.
type LoginResponse struct {
	Token     string              `json:"token"`
	ExpiresIn int64               `json:"expiresIn"`
	User      *models.UserProfile `json:"user"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6,max=72"`
}

type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyResetCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required,len=6,numeric"`
	NewPassword string `json:"newPassword" validate:"required,min=6,max=72"`
}

// MessageResponse is a plain acknowledgement. Code is echoed outside
// production for reset flows.
type MessageResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Valid   *bool  `json:"valid,omitempty"`
}

// VerifyEmailResponse confirms activation and returns the activated profile.
type VerifyEmailResponse struct {
	Message string              `json:"message"`
	User    *models.UserProfile `json:"user"`
}
