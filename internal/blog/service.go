package blog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/zm-marketplace-backend/pkg/db"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/db/models"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/zm-marketplace-backend/pkg/errors"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/metrics"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/outbox"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/pagination"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/slug"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/types"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/visibility"
)

const (
	postSlugConstraint = "ux_blog_posts_slug"
	maxCommentLength   = 2000
	maxTags            = 10
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service covers blog authoring, public reads and comment moderation.
type Service interface {
	CreatePost(ctx context.Context, authorID uuid.UUID, input PostInput) (*models.BlogPost, error)
	UpdatePost(ctx context.Context, postID, authorID uuid.UUID, patch PostPatch) (*models.BlogPost, error)
	GetPublicPost(ctx context.Context, slug string) (*models.BlogPost, error)
	ListPublicPosts(ctx context.Context, tag *string, params pagination.Params) (pagination.Page[models.BlogPost], error)

	AddComment(ctx context.Context, postID, userID uuid.UUID, content string) (*models.BlogComment, error)
	ListApprovedComments(ctx context.Context, postID uuid.UUID, params pagination.Params) (pagination.Page[models.BlogComment], error)
	ListPendingComments(ctx context.Context, params pagination.Params) (pagination.Page[models.BlogComment], error)
	Approve(ctx context.Context, commentID, moderatorID uuid.UUID, reason *string) (*models.BlogComment, error)
	Reject(ctx context.Context, commentID, moderatorID uuid.UUID, reason *string) (*models.BlogComment, error)
	MarkAsSpam(ctx context.Context, commentID, moderatorID uuid.UUID, reason *string) (*models.BlogComment, error)
	Moderate(ctx context.Context, commentID uuid.UUID, status enums.CommentStatus, moderatorID uuid.UUID, reason *string) (*models.BlogComment, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	metrics *metrics.WorkflowMetrics
	now     func() time.Time
}

// NewService builds the blog service.
func NewService(repo Repository, tx txRunner, publisher outboxPublisher, m *metrics.WorkflowMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("blog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		outbox:  publisher,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) CreatePost(ctx context.Context, authorID uuid.UUID, input PostInput) (*models.BlogPost, error) {
	if authorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	title := strings.TrimSpace(input.Title)
	content := strings.TrimSpace(input.Content)
	tags := normalizeTags(input.Tags)

	fields := map[string]string{}
	if title == "" {
		fields["title"] = "title is required"
	} else if slug.Make(title) == "" {
		fields["title"] = "title must contain letters or digits"
	}
	if content == "" {
		fields["content"] = "content is required"
	}
	if len(tags) > maxTags {
		fields["tags"] = fmt.Sprintf("at most %d tags", maxTags)
	}
	if len(fields) > 0 {
		return nil, pkgerrors.NewValidation(fields)
	}

	var created *models.BlogPost
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		candidate := slug.Make(title)
		taken, err := repo.PostSlugExists(ctx, candidate)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check post slug")
		}
		if taken {
			candidate = slug.WithSuffix(candidate)
		}

		now := s.now()
		record := &models.BlogPost{
			ID:        uuid.New(),
			AuthorID:  authorID,
			Title:     title,
			Slug:      candidate,
			Excerpt:   cleanReason(input.Excerpt),
			Content:   content,
			Tags:      tags,
			IsActive:  input.Publish,
			Approval:  models.Approval{ApprovalStatus: enums.ApprovalStatusPending},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if input.Publish {
			record.PublishedAt = &now
		}
		if err := repo.CreatePost(ctx, record); err != nil {
			if db.IsUniqueViolation(err, postSlugConstraint) {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "post title already used")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create post")
		}
		created = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) UpdatePost(ctx context.Context, postID, authorID uuid.UUID, patch PostPatch) (*models.BlogPost, error) {
	if postID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "post id required")
	}
	if authorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	fields := map[string]string{}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		fields["title"] = "title cannot be blank"
	}
	if patch.Content != nil && strings.TrimSpace(*patch.Content) == "" {
		fields["content"] = "content cannot be blank"
	}
	if patch.Tags != nil && len(normalizeTags(*patch.Tags)) > maxTags {
		fields["tags"] = fmt.Sprintf("at most %d tags", maxTags)
	}
	if len(fields) > 0 {
		return nil, pkgerrors.NewValidation(fields)
	}

	var result *models.BlogPost
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		post, err := repo.FindPostForUpdate(ctx, postID)
		if err != nil {
			return postLoadError(err)
		}
		if post.AuthorID != authorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "post belongs to another author")
		}

		now := s.now()
		if patch.Title != nil {
			post.Title = strings.TrimSpace(*patch.Title)
		}
		if patch.Excerpt != nil {
			post.Excerpt = cleanReason(patch.Excerpt)
		}
		if patch.Content != nil {
			post.Content = strings.TrimSpace(*patch.Content)
		}
		if patch.Tags != nil {
			post.Tags = normalizeTags(*patch.Tags)
		}
		if patch.Publish != nil {
			post.IsActive = *patch.Publish
			if post.IsActive && post.PublishedAt == nil {
				post.PublishedAt = &now
			}
		}
		post.UpdatedAt = now
		if err := repo.SavePost(ctx, post); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update post")
		}
		result = post
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) GetPublicPost(ctx context.Context, value string) (*models.BlogPost, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "blog post not found")
	}
	post, err := s.repo.FindPostBySlug(ctx, value)
	if err != nil {
		return nil, postLoadError(err)
	}
	if err := visibility.EnsurePostVisible(post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *service) ListPublicPosts(ctx context.Context, tag *string, params pagination.Params) (pagination.Page[models.BlogPost], error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return pagination.Page[models.BlogPost]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if tag != nil {
		v := strings.ToLower(strings.TrimSpace(*tag))
		tag = nil
		if v != "" {
			tag = &v
		}
	}
	page, err := s.repo.ListPublicPosts(ctx, tag, params)
	if err != nil {
		return pagination.Page[models.BlogPost]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list posts")
	}
	return page, nil
}

func normalizeTags(raw []string) types.StringList {
	seen := make(map[string]struct{}, len(raw))
	out := types.StringList{}
	for _, tag := range raw {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

func postLoadError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "blog post not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load blog post")
}
