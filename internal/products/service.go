package product

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/zm-marketplace-backend/pkg/db"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/db/models"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/zm-marketplace-backend/pkg/errors"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/pagination"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/slug"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/visibility"
)

const slugConstraint = "ux_products_artisan_slug"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes artisan product management and the public catalog.
type Service interface {
	Create(ctx context.Context, artisanUserID uuid.UUID, input CreateProductInput) (*models.Product, error)
	Update(ctx context.Context, productID, artisanUserID uuid.UUID, input UpdateProductInput) (*models.Product, error)
	SetActive(ctx context.Context, productID, artisanUserID uuid.UUID, active bool) (*models.Product, error)
	GetPublic(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	ListPublic(ctx context.Context, filter ListFilter, params pagination.Params) (pagination.Page[models.Product], error)
	ListMine(ctx context.Context, artisanUserID uuid.UUID, params pagination.Params) (pagination.Page[models.Product], error)
}

type service struct {
	repo Repository
	tx   txRunner
	now  func() time.Time
}

// NewService builds the product service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo: repo,
		tx:   tx,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Create(ctx context.Context, artisanUserID uuid.UUID, input CreateProductInput) (*models.Product, error) {
	if artisanUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if fields := validateCreate(input); len(fields) > 0 {
		return nil, pkgerrors.NewValidation(fields)
	}
	name := strings.TrimSpace(input.Name)
	base := slug.Make(name)

	var created *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		artisan, err := s.ownerArtisan(ctx, repo, artisanUserID)
		if err != nil {
			return err
		}

		candidate := base
		taken, err := repo.SlugExists(ctx, artisan.ID, candidate)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check product slug")
		}
		if taken {
			candidate = slug.WithSuffix(base)
		}

		now := s.now()
		record := &models.Product{
			ID:          uuid.New(),
			ArtisanID:   artisan.ID,
			Name:        name,
			Slug:        candidate,
			Description: trimmed(input.Description),
			Category:    normalizeCategory(input.Category),
			Price:       input.Price.Round(2),
			Stock:       input.Stock,
			Image:       trimmed(input.Image),
			IsActive:    true,
			Approval:    models.Approval{ApprovalStatus: enums.ApprovalStatusPending},
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := repo.Create(ctx, record); err != nil {
			if db.IsUniqueViolation(err, slugConstraint) {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "product name already used")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
		}
		created = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, productID, artisanUserID uuid.UUID, input UpdateProductInput) (*models.Product, error) {
	if fields := validateUpdate(input); len(fields) > 0 {
		return nil, pkgerrors.NewValidation(fields)
	}
	return s.mutateOwned(ctx, productID, artisanUserID, func(product *models.Product) {
		applyUpdateToProduct(product, input)
	})
}

func (s *service) SetActive(ctx context.Context, productID, artisanUserID uuid.UUID, active bool) (*models.Product, error) {
	return s.mutateOwned(ctx, productID, artisanUserID, func(product *models.Product) {
		product.IsActive = active
	})
}

// mutateOwned locks the product, checks the caller's artisan owns it and
// persists the listing columns.
func (s *service) mutateOwned(ctx context.Context, productID, artisanUserID uuid.UUID, apply func(*models.Product)) (*models.Product, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if artisanUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var result *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		artisan, err := s.ownerArtisan(ctx, repo, artisanUserID)
		if err != nil {
			return err
		}
		product, err := repo.FindByIDForUpdate(ctx, productID)
		if err != nil {
			return loadError(err)
		}
		if product.ArtisanID != artisan.ID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "product belongs to another artisan")
		}

		apply(product)
		product.UpdatedAt = s.now()
		if err := repo.SaveListing(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
		}
		result = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) ownerArtisan(ctx context.Context, repo Repository, userID uuid.UUID) (*models.Artisan, error) {
	artisan, err := repo.FindArtisanByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "artisan profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load artisan")
	}
	return artisan, nil
}

func (s *service) GetPublic(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, loadError(err)
	}
	artisan, err := s.repo.FindArtisan(ctx, product.ArtisanID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load artisan")
	}
	if err := visibility.EnsureProductVisible(product, artisan); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *service) ListPublic(ctx context.Context, filter ListFilter, params pagination.Params) (pagination.Page[models.Product], error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return pagination.Page[models.Product]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if filter.Category != nil {
		category := normalizeCategory(*filter.Category)
		if category == "" {
			filter.Category = nil
		} else {
			filter.Category = &category
		}
	}
	page, err := s.repo.ListPublic(ctx, filter, params)
	if err != nil {
		return pagination.Page[models.Product]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return page, nil
}

func (s *service) ListMine(ctx context.Context, artisanUserID uuid.UUID, params pagination.Params) (pagination.Page[models.Product], error) {
	if artisanUserID == uuid.Nil {
		return pagination.Page[models.Product]{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return pagination.Page[models.Product]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	artisan, err := s.ownerArtisan(ctx, s.repo, artisanUserID)
	if err != nil {
		return pagination.Page[models.Product]{}, err
	}
	page, err := s.repo.ListByArtisan(ctx, artisan.ID, params)
	if err != nil {
		return pagination.Page[models.Product]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return page, nil
}

func validateCreate(input CreateProductInput) map[string]string {
	fields := map[string]string{}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		fields["name"] = "name is required"
	} else if slug.Make(name) == "" {
		fields["name"] = "name must contain letters or digits"
	}
	if normalizeCategory(input.Category) == "" {
		fields["category"] = "category is required"
	}
	if !input.Price.IsPositive() {
		fields["price"] = "price must be greater than zero"
	}
	if input.Stock < 0 {
		fields["stock"] = "stock cannot be negative"
	}
	return fields
}

func validateUpdate(input UpdateProductInput) map[string]string {
	fields := map[string]string{}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		fields["name"] = "name cannot be blank"
	}
	if input.Category != nil && normalizeCategory(*input.Category) == "" {
		fields["category"] = "category cannot be blank"
	}
	if input.Price != nil && !input.Price.IsPositive() {
		fields["price"] = "price must be greater than zero"
	}
	if input.Stock != nil && *input.Stock < 0 {
		fields["stock"] = "stock cannot be negative"
	}
	return fields
}

// applyUpdateToProduct copies the provided fields. The slug stays fixed so
// existing links keep resolving after a rename.
func applyUpdateToProduct(product *models.Product, input UpdateProductInput) {
	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		product.Description = trimmed(input.Description)
	}
	if input.Category != nil {
		product.Category = normalizeCategory(*input.Category)
	}
	if input.Price != nil {
		product.Price = input.Price.Round(2)
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}
	if input.Image != nil {
		product.Image = trimmed(input.Image)
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
}

func normalizeCategory(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func loadError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
