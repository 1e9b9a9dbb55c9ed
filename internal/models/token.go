package models

import "time"

const (
	VerificationTokenTTL = 24 * time.Hour
	ResetCodeTTL         = 15 * time.Minute
)

// EmailVerificationToken is a single-use token proving mailbox ownership.
type EmailVerificationToken struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	Token     string    `db:"token" json:"-"`
	ExpiresAt time.Time `db:"expires_at" json:"expiresAt"`
	Used      bool      `db:"used" json:"used"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Usable reports whether the token is unused and unexpired at now.
func (t *EmailVerificationToken) Usable(now time.Time) bool {
	return t != nil && !t.Used && now.Before(t.ExpiresAt)
}

// PasswordResetCode is a six digit code mailed to the account owner.
type PasswordResetCode struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	Code      string    `db:"code" json:"-"`
	ExpiresAt time.Time `db:"expires_at" json:"expiresAt"`
	Used      bool      `db:"used" json:"used"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
