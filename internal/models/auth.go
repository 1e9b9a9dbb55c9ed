package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the JWT payload for session tokens.
type JWTClaims struct {
	UserID string   `json:"id"`
	Email  string   `json:"email"`
	Role   UserRole `json:"role"`
	jwt.RegisteredClaims
}
