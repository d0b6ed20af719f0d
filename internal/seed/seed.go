// Package seed creates the data a fresh installation needs.
package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	appModels "github.com/yigit/mclass/internal/app/models"
	appRepos "github.com/yigit/mclass/internal/app/repositories"
	"github.com/yigit/mclass/internal/pkg/apperrors"
	"github.com/yigit/mclass/internal/pkg/auth"
)

// AdminAccount describes the default administrator
type AdminAccount struct {
	Email    string
	Password string
	Name     string
}

// CreateDefaultAdmin creates the administrator account unless its email is
// already registered. It returns true when a user was created.
func CreateDefaultAdmin(ctx context.Context, userRepo *appRepos.UserRepository, admin AdminAccount, lgr zerolog.Logger) (bool, error) {
	email := strings.ToLower(strings.TrimSpace(admin.Email))

	exists, err := userRepo.EmailExists(ctx, email)
	if err != nil {
		return false, fmt.Errorf("error checking if admin user exists: %w", err)
	}
	if exists {
		lgr.Info().Str("email", email).Msg("Admin user already exists, skipping creation")
		return false, nil
	}

	hashedPassword, err := auth.HashPassword(admin.Password)
	if err != nil {
		return false, fmt.Errorf("error hashing admin password: %w", err)
	}

	name := admin.Name
	if name == "" {
		name = "Administrator"
	}

	now := time.Now().UTC()
	user := &appModels.User{
		Email:     email,
		Password:  hashedPassword,
		Name:      name,
		Role:      appModels.RoleAdmin,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := userRepo.Create(ctx, user); err != nil {
		// Another instance seeded first
		if errors.Is(err, apperrors.ErrEmailAlreadyExists) {
			return false, nil
		}
		return false, fmt.Errorf("error creating admin user: %w", err)
	}

	lgr.Info().Int64("adminID", user.ID).Str("email", email).Msg("Default admin user created successfully")
	return true, nil
}
