package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/zm-marketplace-backend/pkg/enums"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/types"
)

// BlogPost is an article gated behind admin approval. IsActive doubles as
// the published flag.
type BlogPost struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AuthorID    uuid.UUID        `gorm:"column:author_id;type:uuid;not null"`
	Title       string           `gorm:"column:title;not null"`
	Slug        string           `gorm:"column:slug;not null;uniqueIndex"`
	Excerpt     *string          `gorm:"column:excerpt"`
	Content     string           `gorm:"column:content;not null"`
	Tags        types.StringList `gorm:"column:tags;type:jsonb;not null"`
	IsActive    bool             `gorm:"column:is_active;not null;default:false"`
	PublishedAt *time.Time       `gorm:"column:published_at"`
	Approval    `gorm:"embedded"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// BlogComment is a reader comment held for moderation.
type BlogComment struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PostID           uuid.UUID           `gorm:"column:post_id;type:uuid;not null"`
	UserID           uuid.UUID           `gorm:"column:user_id;type:uuid;not null"`
	Content          string              `gorm:"column:content;not null"`
	Status           enums.CommentStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	ModeratedBy      *uuid.UUID          `gorm:"column:moderated_by;type:uuid"`
	ModeratedAt      *time.Time          `gorm:"column:moderated_at"`
	ModerationReason *string             `gorm:"column:moderation_reason"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
