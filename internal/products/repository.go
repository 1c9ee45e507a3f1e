package product

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/zm-marketplace-backend/pkg/db/models"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/pagination"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/visibility"
)

// Repository persists product listings.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Product, error)
	SlugExists(ctx context.Context, artisanID uuid.UUID, slug string) (bool, error)
	SaveListing(ctx context.Context, product *models.Product) error
	FindArtisan(ctx context.Context, artisanID uuid.UUID) (*models.Artisan, error)
	FindArtisanByUserID(ctx context.Context, userID uuid.UUID) (*models.Artisan, error)
	ListPublic(ctx context.Context, filter ListFilter, params pagination.Params) (pagination.Page[models.Product], error)
	ListByArtisan(ctx context.Context, artisanID uuid.UUID, params pagination.Params) (pagination.Page[models.Product], error)
}

// Approval columns are owned by the approvals package. Stock is also taken by
// checkout through a conditional update.
var listingColumns = []string{
	"name",
	"description",
	"category",
	"price",
	"stock",
	"image",
	"is_active",
	"updated_at",
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a product repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) SlugExists(ctx context.Context, artisanID uuid.UUID, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("artisan_id = ? AND slug = ?", artisanID, slug).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) SaveListing(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).
		Model(product).
		Select(listingColumns).
		Updates(product).Error
}

func (r *repository) FindArtisan(ctx context.Context, artisanID uuid.UUID) (*models.Artisan, error) {
	var artisan models.Artisan
	if err := r.db.WithContext(ctx).Where("id = ?", artisanID).First(&artisan).Error; err != nil {
		return nil, err
	}
	return &artisan, nil
}

func (r *repository) FindArtisanByUserID(ctx context.Context, userID uuid.UUID) (*models.Artisan, error) {
	var artisan models.Artisan
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&artisan).Error; err != nil {
		return nil, err
	}
	return &artisan, nil
}

// ListPublic returns approved, active products whose artisan is also public.
func (r *repository) ListPublic(ctx context.Context, filter ListFilter, params pagination.Params) (pagination.Page[models.Product], error) {
	publicArtisans := r.db.
		Model(&models.Artisan{}).
		Select("id").
		Scopes(visibility.PublicScope(""))

	query := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Scopes(visibility.PublicScope("")).
		Where("artisan_id IN (?)", publicArtisans)
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.ArtisanID != nil {
		query = query.Where("artisan_id = ?", *filter.ArtisanID)
	}
	return r.page(query, params)
}

func (r *repository) ListByArtisan(ctx context.Context, artisanID uuid.UUID, params pagination.Params) (pagination.Page[models.Product], error) {
	query := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("artisan_id = ?", artisanID)
	return r.page(query, params)
}

func (r *repository) page(query *gorm.DB, params pagination.Params) (pagination.Page[models.Product], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[models.Product]{}, err
	}
	if where, args := pagination.KeysetWhere(cursor); where != "" {
		query = query.Where(where, args...)
	}

	var rows []models.Product
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return pagination.Page[models.Product]{}, err
	}
	return pagination.BuildPage(rows, params.Limit, func(p models.Product) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	}), nil
}
