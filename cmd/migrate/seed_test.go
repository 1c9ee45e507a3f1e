package main

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/zm-marketplace-backend/internal/users"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/config"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/db/models"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/enums"
)

type stubUsersRepo struct {
	byEmail map[string]*models.User
	created int
}

func (s *stubUsersRepo) WithTx(*gorm.DB) users.Repository { return s }

func (s *stubUsersRepo) Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	user.CreatedAt = time.Now()
	if s.byEmail == nil {
		s.byEmail = map[string]*models.User{}
	}
	s.byEmail[user.Email] = user
	s.created++
	return user, nil
}

func (s *stubUsersRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := s.byEmail[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUsersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUsersRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return nil
}

var seedPasswordConfig = config.PasswordConfig{
	ArgonMemoryKB:    64,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func TestSeedAdminCreatesOnce(t *testing.T) {
	repo := &stubUsersRepo{}

	admin, created, err := seedAdmin(context.Background(), repo, seedPasswordConfig, " Ops@ZM.example ", "", "clay-and-kiln-42")
	if err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	if !created || admin.Role != enums.UserRoleAdmin || admin.Email != "ops@zm.example" {
		t.Fatalf("unexpected admin %+v created=%v", admin, created)
	}
	if admin.Name != "Administrator" {
		t.Fatalf("expected default name, got %q", admin.Name)
	}

	again, created, err := seedAdmin(context.Background(), repo, seedPasswordConfig, "ops@zm.example", "Ops", "clay-and-kiln-42")
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if created || again.ID != admin.ID || repo.created != 1 {
		t.Fatalf("expected existing admin reused, created=%v count=%d", created, repo.created)
	}
}

func TestSeedAdminRejectsExistingBuyer(t *testing.T) {
	repo := &stubUsersRepo{byEmail: map[string]*models.User{
		"buyer@zm.example": {ID: uuid.New(), Email: "buyer@zm.example", Role: enums.UserRoleBuyer},
	}}

	if _, _, err := seedAdmin(context.Background(), repo, seedPasswordConfig, "buyer@zm.example", "Ops", "clay-and-kiln-42"); err == nil {
		t.Fatal("expected error when email belongs to a buyer")
	}
}

func TestSeedAdminRejectsWeakPassword(t *testing.T) {
	repo := &stubUsersRepo{}
	if _, _, err := seedAdmin(context.Background(), repo, seedPasswordConfig, "ops@zm.example", "Ops", "short"); err == nil {
		t.Fatal("expected weak password to be rejected")
	}
	if repo.created != 0 {
		t.Fatal("no account should be created")
	}
	if _, _, err := seedAdmin(context.Background(), repo, seedPasswordConfig, "", "Ops", "clay-and-kiln-42"); err == nil {
		t.Fatal("expected missing email to be rejected")
	}
}
