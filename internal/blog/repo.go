package blog

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/zm-marketplace-backend/pkg/db/models"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/enums"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/pagination"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/visibility"
)

// Repository persists blog posts and comments.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreatePost(ctx context.Context, post *models.BlogPost) error
	FindPostByID(ctx context.Context, id uuid.UUID) (*models.BlogPost, error)
	FindPostForUpdate(ctx context.Context, id uuid.UUID) (*models.BlogPost, error)
	FindPostBySlug(ctx context.Context, slug string) (*models.BlogPost, error)
	PostSlugExists(ctx context.Context, slug string) (bool, error)
	SavePost(ctx context.Context, post *models.BlogPost) error
	ListPublicPosts(ctx context.Context, tag *string, params pagination.Params) (pagination.Page[models.BlogPost], error)

	CreateComment(ctx context.Context, comment *models.BlogComment) error
	FindCommentForUpdate(ctx context.Context, id uuid.UUID) (*models.BlogComment, error)
	SaveModeration(ctx context.Context, comment *models.BlogComment) error
	ListComments(ctx context.Context, postID *uuid.UUID, status enums.CommentStatus, params pagination.Params) (pagination.Page[models.BlogComment], error)
}

var postColumns = []string{"title", "excerpt", "content", "tags", "is_active", "published_at", "updated_at"}

var moderationColumns = []string{"status", "moderated_by", "moderated_at", "moderation_reason", "updated_at"}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a blog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreatePost(ctx context.Context, post *models.BlogPost) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *repository) FindPostByID(ctx context.Context, id uuid.UUID) (*models.BlogPost, error) {
	var post models.BlogPost
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *repository) FindPostForUpdate(ctx context.Context, id uuid.UUID) (*models.BlogPost, error) {
	var post models.BlogPost
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *repository) FindPostBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	var post models.BlogPost
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *repository) PostSlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.BlogPost{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

func (r *repository) SavePost(ctx context.Context, post *models.BlogPost) error {
	return r.db.WithContext(ctx).Model(post).Select(postColumns).Updates(post).Error
}

func (r *repository) ListPublicPosts(ctx context.Context, tag *string, params pagination.Params) (pagination.Page[models.BlogPost], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[models.BlogPost]{}, err
	}
	query := r.db.WithContext(ctx).
		Model(&models.BlogPost{}).
		Scopes(visibility.PublicScope(""))
	if tag != nil {
		raw, err := json.Marshal([]string{*tag})
		if err != nil {
			return pagination.Page[models.BlogPost]{}, err
		}
		query = query.Where("tags @> CAST(? AS jsonb)", string(raw))
	}
	if where, args := pagination.KeysetWhere(cursor); where != "" {
		query = query.Where(where, args...)
	}

	var rows []models.BlogPost
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return pagination.Page[models.BlogPost]{}, err
	}
	return pagination.BuildPage(rows, params.Limit, func(p models.BlogPost) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	}), nil
}

func (r *repository) CreateComment(ctx context.Context, comment *models.BlogComment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *repository) FindCommentForUpdate(ctx context.Context, id uuid.UUID) (*models.BlogComment, error) {
	var comment models.BlogComment
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&comment).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *repository) SaveModeration(ctx context.Context, comment *models.BlogComment) error {
	return r.db.WithContext(ctx).Model(comment).Select(moderationColumns).Updates(comment).Error
}

// ListComments pages comments in a status, optionally scoped to one post.
func (r *repository) ListComments(ctx context.Context, postID *uuid.UUID, status enums.CommentStatus, params pagination.Params) (pagination.Page[models.BlogComment], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[models.BlogComment]{}, err
	}
	query := r.db.WithContext(ctx).
		Model(&models.BlogComment{}).
		Where("status = ?", status)
	if postID != nil {
		query = query.Where("post_id = ?", *postID)
	}
	if where, args := pagination.KeysetWhere(cursor); where != "" {
		query = query.Where(where, args...)
	}

	var rows []models.BlogComment
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return pagination.Page[models.BlogComment]{}, err
	}
	return pagination.BuildPage(rows, params.Limit, func(c models.BlogComment) pagination.Cursor {
		return pagination.Cursor{CreatedAt: c.CreatedAt, ID: c.ID}
	}), nil
}
