package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/zm-marketplace-backend/internal/users"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/config"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/enums"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/security"
)

// seedAdmin creates an administrator account. An existing admin with the same
// email is returned as-is; any other existing account is an error.
func seedAdmin(ctx context.Context, repo users.Repository, pwd config.PasswordConfig, email, name, password string) (*users.UserDTO, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if email == "" {
		return nil, false, errors.New("admin email is required")
	}
	if name == "" {
		name = "Administrator"
	}
	if problems := security.PasswordProblems(password); len(problems) > 0 {
		return nil, false, fmt.Errorf("admin password rejected: %s", strings.Join(problems, "; "))
	}

	existing, err := repo.FindByEmail(ctx, email)
	if err == nil {
		if existing.Role != enums.UserRoleAdmin {
			return nil, false, fmt.Errorf("%s already registered as %s", email, existing.Role)
		}
		return users.FromModel(existing), false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("lookup admin: %w", err)
	}

	hash, err := security.HashPassword(password, pwd)
	if err != nil {
		return nil, false, fmt.Errorf("hash admin password: %w", err)
	}
	created, err := repo.Create(ctx, users.CreateUserDTO{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         enums.UserRoleAdmin,
	})
	if err != nil {
		return nil, false, fmt.Errorf("create admin: %w", err)
	}
	return users.FromModel(created), true, nil
}
