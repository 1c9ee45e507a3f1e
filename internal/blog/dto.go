package blog

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/zm-marketplace-backend/pkg/db/models"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/enums"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/pagination"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/types"
)

// PostInput is the create payload for a blog post.
type PostInput struct {
	Title   string
	Excerpt *string
	Content string
	Tags    []string
	Publish bool
}

// PostPatch is a partial post update.
type PostPatch struct {
	Title   *string
	Excerpt *string
	Content *string
	Tags    *[]string
	Publish *bool
}

// PostDTO is the post payload. Approval fields are only set for the author.
type PostDTO struct {
	ID              uuid.UUID             `json:"id"`
	AuthorID        uuid.UUID             `json:"author_id"`
	Title           string                `json:"title"`
	Slug            string                `json:"slug"`
	Excerpt         *string               `json:"excerpt,omitempty"`
	Content         string                `json:"content"`
	Tags            types.StringList      `json:"tags"`
	IsPublished     bool                  `json:"is_published"`
	PublishedAt     *time.Time            `json:"published_at,omitempty"`
	ApprovalStatus  *enums.ApprovalStatus `json:"approval_status,omitempty"`
	RejectionReason *string               `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// CommentDTO is the comment payload.
type CommentDTO struct {
	ID               uuid.UUID           `json:"id"`
	PostID           uuid.UUID           `json:"post_id"`
	UserID           uuid.UUID           `json:"user_id"`
	Content          string              `json:"content"`
	Status           enums.CommentStatus `json:"status"`
	ModeratedAt      *time.Time          `json:"moderated_at,omitempty"`
	ModerationReason *string             `json:"moderation_reason,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
}

// NewPublicPostDTO maps a post for anonymous readers.
func NewPublicPostDTO(p *models.BlogPost) PostDTO {
	tags := p.Tags
	if tags == nil {
		tags = types.StringList{}
	}
	return PostDTO{
		ID:          p.ID,
		AuthorID:    p.AuthorID,
		Title:       p.Title,
		Slug:        p.Slug,
		Excerpt:     p.Excerpt,
		Content:     p.Content,
		Tags:        tags,
		IsPublished: p.IsActive,
		PublishedAt: p.PublishedAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// NewAuthorPostDTO includes the moderation outcome.
func NewAuthorPostDTO(p *models.BlogPost) PostDTO {
	dto := NewPublicPostDTO(p)
	status := p.ApprovalStatus
	dto.ApprovalStatus = &status
	dto.RejectionReason = p.RejectionReason
	return dto
}

func NewCommentDTO(c *models.BlogComment) CommentDTO {
	return CommentDTO{
		ID:               c.ID,
		PostID:           c.PostID,
		UserID:           c.UserID,
		Content:          c.Content,
		Status:           c.Status,
		ModeratedAt:      c.ModeratedAt,
		ModerationReason: c.ModerationReason,
		CreatedAt:        c.CreatedAt,
	}
}

func NewPublicPostPage(page pagination.Page[models.BlogPost]) pagination.Page[PostDTO] {
	out := pagination.Page[PostDTO]{Items: make([]PostDTO, 0, len(page.Items)), NextCursor: page.NextCursor}
	for i := range page.Items {
		out.Items = append(out.Items, NewPublicPostDTO(&page.Items[i]))
	}
	return out
}

func NewCommentPage(page pagination.Page[models.BlogComment]) pagination.Page[CommentDTO] {
	out := pagination.Page[CommentDTO]{Items: make([]CommentDTO, 0, len(page.Items)), NextCursor: page.NextCursor}
	for i := range page.Items {
		out.Items = append(out.Items, NewCommentDTO(&page.Items[i]))
	}
	return out
}
