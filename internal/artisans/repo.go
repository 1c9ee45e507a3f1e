package artisans

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/zm-marketplace-backend/pkg/db/models"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/pagination"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/visibility"
)

// Repository persists artisan profiles.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, artisan *models.Artisan) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Artisan, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Artisan, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Artisan, error)
	FindBySlug(ctx context.Context, slug string) (*models.Artisan, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	SaveProfile(ctx context.Context, artisan *models.Artisan) error
	ListPublic(ctx context.Context, params pagination.Params) (pagination.Page[models.Artisan], error)
	CountWithPendingChanges(ctx context.Context) (int64, error)
}

// Approval columns are owned by the approvals package and never written here.
var profileColumns = []string{
	"business_name",
	"email",
	"phone",
	"bio",
	"craft",
	"location",
	"shipping_address",
	"is_active",
	"pending_changes",
	"updated_at",
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an artisans repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, artisan *models.Artisan) error {
	return r.db.WithContext(ctx).Create(artisan).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Artisan, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Artisan, error) {
	return r.first(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id))
}

func (r *repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Artisan, error) {
	return r.first(r.db.WithContext(ctx).Where("user_id = ?", userID))
}

func (r *repository) FindBySlug(ctx context.Context, slug string) (*models.Artisan, error) {
	return r.first(r.db.WithContext(ctx).Where("slug = ?", slug))
}

func (r *repository) first(query *gorm.DB) (*models.Artisan, error) {
	var artisan models.Artisan
	if err := query.First(&artisan).Error; err != nil {
		return nil, err
	}
	return &artisan, nil
}

func (r *repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Artisan{}).
		Where("slug = ?", slug).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) SaveProfile(ctx context.Context, artisan *models.Artisan) error {
	return r.db.WithContext(ctx).
		Model(artisan).
		Select(profileColumns).
		Updates(artisan).Error
}

func (r *repository) ListPublic(ctx context.Context, params pagination.Params) (pagination.Page[models.Artisan], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[models.Artisan]{}, err
	}
	query := r.db.WithContext(ctx).
		Model(&models.Artisan{}).
		Scopes(visibility.PublicScope(""))
	if where, args := pagination.KeysetWhere(cursor); where != "" {
		query = query.Where(where, args...)
	}

	var rows []models.Artisan
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return pagination.Page[models.Artisan]{}, err
	}
	return pagination.BuildPage(rows, params.Limit, func(a models.Artisan) pagination.Cursor {
		return pagination.Cursor{CreatedAt: a.CreatedAt, ID: a.ID}
	}), nil
}

// CountWithPendingChanges counts artisans whose change set awaits review.
// Reviewed change sets are cleared to NULL.
func (r *repository) CountWithPendingChanges(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Artisan{}).
		Where("pending_changes IS NOT NULL").
		Count(&count).Error
	return count, err
}
