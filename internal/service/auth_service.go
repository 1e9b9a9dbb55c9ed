package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/postgrad-supervision-api/internal/dto"
	"github.com/noah-isme/postgrad-supervision-api/internal/models"
	"github.com/noah-isme/postgrad-supervision-api/internal/repository"
	"github.com/noah-isme/postgrad-supervision-api/pkg/database"
	appErrors "github.com/noah-isme/postgrad-supervision-api/pkg/errors"
	"github.com/noah-isme/postgrad-supervision-api/pkg/mailer"
)

const (
	genericResendMessage = "If an account with that email exists and is not yet verified, a new verification email has been sent"
	genericResetMessage  = "If an account with that email exists, a password reset code has been sent"
)

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	GetProfile(ctx context.Context, id string) (*models.UserProfile, error)
	CreateWithRole(ctx context.Context, user *models.User, profile models.RoleProfile, token *models.EmailVerificationToken) error
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
}

type authTokenRepository interface {
	FindVerificationToken(ctx context.Context, token string) (*models.EmailVerificationToken, error)
	ReplaceVerificationToken(ctx context.Context, token *models.EmailVerificationToken) error
	ConsumeVerificationToken(ctx context.Context, tokenID, userID string, at time.Time) error
	ReplaceResetCode(ctx context.Context, code *models.PasswordResetCode) error
	FindActiveResetCode(ctx context.Context, userID, code string, now time.Time) (*models.PasswordResetCode, error)
	ResetPassword(ctx context.Context, codeID, userID, passwordHash string, at time.Time) error
}

type emailDispatcher interface {
	SendEmail(ctx context.Context, msg mailer.Message) bool
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
	// ExposeSecrets echoes verification tokens and reset codes in responses
	// so flows can be exercised without a mailbox. Never set in production.
	ExposeSecrets bool
	BcryptCost    int
}

// AuthService provides registration, login and account recovery.
type AuthService struct {
	users     authUserRepository
	tokens    authTokenRepository
	emails    emailDispatcher
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users authUserRepository, tokens authTokenRepository, emails emailDispatcher, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 7 * 24 * time.Hour
	}
	return &AuthService{
		users:     users,
		tokens:    tokens,
		emails:    emails,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		config:    config,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Register creates an inactive, unverified account with its role row and
// verification token, then mails the token.
func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.RegisterResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	existing, err := s.users.FindByEmail(ctx, req.Email)
	if err == nil && existing != nil {
		s.metrics.RecordAuthEvent("register", false)
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Internal(err, "failed to check email")
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &models.User{
		Email:         req.Email,
		PasswordHash:  hash,
		Name:          strings.TrimSpace(req.Name),
		Phone:         req.Phone,
		Role:          req.Role,
		Status:        models.UserStatusInactive,
		EmailVerified: false,
		CreatedAt:     now,
	}
	tokenValue, err := randomToken()
	if err != nil {
		return nil, appErrors.Internal(err, "failed to generate verification token")
	}
	token := &models.EmailVerificationToken{Token: tokenValue, ExpiresAt: now.Add(models.VerificationTokenTTL), CreatedAt: now}

	if err := s.users.CreateWithRole(ctx, user, models.RoleProfile{Program: req.Program, Department: req.Department}, token); err != nil {
		if database.IsUniqueViolation(err) {
			s.metrics.RecordAuthEvent("register", false)
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
		}
		return nil, appErrors.Internal(err, "failed to create account")
	}
	s.metrics.RecordAuthEvent("register", true)

	sent := s.sendVerification(ctx, user, tokenValue)
	resp := &dto.RegisterResponse{
		Message:   "Registration successful. Please check your email to verify your account.",
		EmailSent: sent,
		UserID:    user.ID,
	}
	if !sent {
		resp.Message = "Registration successful, but the verification email could not be sent. Please request a new one."
	}
	if s.config.ExposeSecrets {
		resp.VerificationToken = tokenValue
	}
	return resp, nil
}

// VerifyEmail consumes a verification token and activates its account.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*models.UserProfile, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidToken, "verification token is required")
	}

	record, err := s.tokens.FindVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidToken, "")
		}
		return nil, appErrors.Internal(err, "failed to load verification token")
	}
	now := s.now()
	if !record.Usable(now) {
		return nil, appErrors.Clone(appErrors.ErrInvalidToken, "")
	}

	user, err := s.users.FindByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidToken, "")
		}
		return nil, appErrors.Internal(err, "failed to load user")
	}
	if user.EmailVerified {
		return nil, appErrors.Clone(appErrors.ErrAlreadyVerified, "")
	}

	if err := s.tokens.ConsumeVerificationToken(ctx, record.ID, user.ID, now); err != nil {
		if errors.Is(err, repository.ErrAlreadyConsumed) {
			return nil, appErrors.Clone(appErrors.ErrInvalidToken, "")
		}
		return nil, appErrors.Internal(err, "failed to verify email")
	}

	s.emails.SendEmail(ctx, mailer.Message{
		To:       user.Email,
		ToName:   user.Name,
		Template: mailer.TemplateWelcome,
		Data:     map[string]interface{}{"Name": user.Name, "Role": string(user.Role)},
	})

	profile, err := s.users.GetProfile(ctx, user.ID)
	if err != nil {
		s.logger.Warn("failed to load profile after verification", zap.String("user_id", user.ID), zap.Error(err))
		user.EmailVerified = true
		user.Status = models.UserStatusActive
		return &models.UserProfile{User: *user}, nil
	}
	return profile, nil
}

// ResendVerification issues a fresh token for an unverified account. The
// response never reveals whether the email is registered.
func (s *AuthService) ResendVerification(ctx context.Context, req dto.EmailRequest) (*dto.MessageResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid email")
	}

	resp := &dto.MessageResponse{Message: genericResendMessage}
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return resp, nil
		}
		return nil, appErrors.Internal(err, "failed to look up account")
	}
	if user.EmailVerified {
		return resp, nil
	}

	tokenValue, err := randomToken()
	if err != nil {
		return nil, appErrors.Internal(err, "failed to generate verification token")
	}
	now := s.now()
	token := &models.EmailVerificationToken{UserID: user.ID, Token: tokenValue, ExpiresAt: now.Add(models.VerificationTokenTTL), CreatedAt: now}
	if err := s.tokens.ReplaceVerificationToken(ctx, token); err != nil {
		return nil, appErrors.Internal(err, "failed to issue verification token")
	}

	s.sendVerification(ctx, user, tokenValue)
	if s.config.ExposeSecrets {
		resp.Code = tokenValue
	}
	return resp, nil
}

// Login runs the ordered credential checks and issues a session token. Each
// failed check has its own error code.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.RecordAuthEvent("login", false)
			return nil, appErrors.Clone(appErrors.ErrEmailNotFound, "")
		}
		return nil, appErrors.Internal(err, "failed to fetch user")
	}

	if req.Role != "" && req.Role != user.Role {
		s.metrics.RecordAuthEvent("login", false)
		return nil, appErrors.Clone(appErrors.ErrRoleMismatch, fmt.Sprintf("this account is not registered as %s", req.Role))
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.metrics.RecordAuthEvent("login", false)
		return nil, appErrors.Clone(appErrors.ErrInvalidPassword, "")
	}

	if !user.EmailVerified {
		s.metrics.RecordAuthEvent("login", false)
		return nil, appErrors.WithDetails(appErrors.ErrEmailNotVerified, map[string]interface{}{
			"requiresVerification": true,
			"email":                user.Email,
		})
	}

	if !user.IsActive() {
		s.metrics.RecordAuthEvent("login", false)
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "")
	}

	token, _, err := s.generateAccessToken(user)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create access token")
	}

	now := s.now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to update last login", zap.String("user_id", user.ID), zap.Error(err))
	}
	user.LastLogin = &now

	profile, err := s.users.GetProfile(ctx, user.ID)
	if err != nil {
		s.logger.Warn("failed to load role profile", zap.String("user_id", user.ID), zap.Error(err))
		profile = &models.UserProfile{User: *user}
	}
	s.metrics.RecordAuthEvent("login", true)

	return &dto.LoginResponse{
		Token:     token,
		ExpiresIn: int64(s.config.AccessTokenExpiry.Seconds()),
		User:      profile,
	}, nil
}

// Me returns the role-joined profile of the authenticated user.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.UserProfile, error) {
	profile, err := s.users.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Internal(err, "failed to load profile")
	}
	return profile, nil
}

// ChangePassword changes the password for the given user ID.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, req dto.ChangePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid change password payload")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Internal(err, "failed to load user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return appErrors.Clone(appErrors.ErrForbidden, "old password does not match")
	}

	newHash, err := s.hashPassword(req.NewPassword)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePassword(ctx, userID, newHash, s.now()); err != nil {
		return appErrors.Internal(err, "failed to update password")
	}
	return nil
}

// ForgotPassword mails a six digit reset code to an active account. Unknown
// or inactive emails get the same response and no code is stored.
func (s *AuthService) ForgotPassword(ctx context.Context, req dto.EmailRequest) (*dto.MessageResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid email")
	}

	resp := &dto.MessageResponse{Message: genericResetMessage}
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return resp, nil
		}
		return nil, appErrors.Internal(err, "failed to look up account")
	}
	if !user.IsActive() {
		return resp, nil
	}

	code, err := randomDigits(6)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to generate reset code")
	}
	now := s.now()
	record := &models.PasswordResetCode{UserID: user.ID, Code: code, ExpiresAt: now.Add(models.ResetCodeTTL), CreatedAt: now}
	if err := s.tokens.ReplaceResetCode(ctx, record); err != nil {
		return nil, appErrors.Internal(err, "failed to store reset code")
	}
	s.metrics.RecordAuthEvent("password_reset_requested", true)

	s.emails.SendEmail(ctx, mailer.Message{
		To:       user.Email,
		ToName:   user.Name,
		Template: mailer.TemplatePasswordReset,
		Data:     map[string]interface{}{"Name": user.Name, "Code": code, "ExpiresIn": int(models.ResetCodeTTL.Minutes())},
	})
	if s.config.ExposeSecrets {
		resp.Code = code
	}
	return resp, nil
}

// VerifyResetCode checks a code without consuming it.
func (s *AuthService) VerifyResetCode(ctx context.Context, req dto.VerifyResetCodeRequest) (*dto.MessageResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reset code payload")
	}
	if _, _, err := s.lookupResetCode(ctx, req.Email, req.Code); err != nil {
		return nil, err
	}
	valid := true
	return &dto.MessageResponse{Message: "Reset code is valid", Valid: &valid}, nil
}

// ResetPassword replaces the password and consumes the code in one step.
func (s *AuthService) ResetPassword(ctx context.Context, req dto.ResetPasswordRequest) (*dto.MessageResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reset password payload")
	}

	user, code, err := s.lookupResetCode(ctx, req.Email, req.Code)
	if err != nil {
		s.metrics.RecordAuthEvent("password_reset", false)
		return nil, err
	}

	hash, err := s.hashPassword(req.NewPassword)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.ResetPassword(ctx, code.ID, user.ID, hash, s.now()); err != nil {
		if errors.Is(err, repository.ErrAlreadyConsumed) {
			s.metrics.RecordAuthEvent("password_reset", false)
			return nil, appErrors.Clone(appErrors.ErrInvalidResetCode, "")
		}
		return nil, appErrors.Internal(err, "failed to reset password")
	}
	s.metrics.RecordAuthEvent("password_reset", true)
	return &dto.MessageResponse{Message: "Password has been reset successfully"}, nil
}

// hashPassword maps bcrypt's length limit to a validation error. The tag
// check counts runes, so multi-byte passwords can still exceed 72 bytes.
func (s *AuthService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.BcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "password must be at most 72 bytes")
	}
	if err != nil {
		return "", appErrors.Internal(err, "failed to hash password")
	}
	return string(hash), nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

func (s *AuthService) lookupResetCode(ctx context.Context, email, code string) (*models.User, *models.PasswordResetCode, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrInvalidResetCode, "")
		}
		return nil, nil, appErrors.Internal(err, "failed to look up account")
	}
	record, err := s.tokens.FindActiveResetCode(ctx, user.ID, code, s.now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrInvalidResetCode, "")
		}
		return nil, nil, appErrors.Internal(err, "failed to load reset code")
	}
	return user, record, nil
}

func (s *AuthService) sendVerification(ctx context.Context, user *models.User, token string) bool {
	return s.emails.SendEmail(ctx, mailer.Message{
		To:       user.Email,
		ToName:   user.Name,
		Template: mailer.TemplateVerifyEmail,
		Data:     map[string]interface{}{"Name": user.Name, "Token": token},
	})
}

func (s *AuthService) generateAccessToken(user *models.User) (string, time.Time, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.config.AccessTokenExpiry)
	claims := &models.JWTClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.AccessTokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// randomDigits returns n uniformly distributed decimal digits.
func randomDigits(n int) (string, error) {
	var b strings.Builder
	ten := big.NewInt(10)
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + d.Int64()))
	}
	return b.String(), nil
}
