package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/postgrad-supervision-api/internal/models"
)

const minPasswordLength = 6

// createAdmin inserts an administrator that can sign in immediately.
func (cli *commandLine) createAdmin(ctx context.Context, email, name, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	existing, err := cli.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("look up %s: %w", email, err)
	}
	if existing != nil {
		return nil, fmt.Errorf("email %s is already registered", email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:         email,
		PasswordHash:  string(hash),
		Name:          strings.TrimSpace(name),
		Role:          models.RoleAdministrator,
		Status:        models.UserStatusActive,
		EmailVerified: true,
	}
	if err := cli.users.CreateWithRole(ctx, user, models.RoleProfile{}, nil); err != nil {
		return nil, err
	}
	return user, nil
}
