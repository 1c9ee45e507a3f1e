package blog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/zm-marketplace-backend/pkg/db/models"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/zm-marketplace-backend/pkg/errors"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/outbox"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/pagination"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/visibility"
)

// AddComment holds a reader comment for moderation. Only public posts accept
// comments.
func (s *service) AddComment(ctx context.Context, postID, userID uuid.UUID, content string) (*models.BlogComment, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	content = strings.TrimSpace(content)
	switch {
	case content == "":
		return nil, pkgerrors.NewValidation(map[string]string{"content": "comment cannot be empty"})
	case utf8.RuneCountInString(content) > maxCommentLength:
		return nil, pkgerrors.NewValidation(map[string]string{"content": fmt.Sprintf("comment exceeds %d characters", maxCommentLength)})
	}

	post, err := s.repo.FindPostByID(ctx, postID)
	if err != nil {
		return nil, postLoadError(err)
	}
	if err := visibility.EnsurePostVisible(post); err != nil {
		return nil, err
	}

	now := s.now()
	comment := &models.BlogComment{
		ID:        uuid.New(),
		PostID:    post.ID,
		UserID:    userID,
		Content:   content,
		Status:    enums.CommentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create comment")
	}
	return comment, nil
}

func (s *service) ListApprovedComments(ctx context.Context, postID uuid.UUID, params pagination.Params) (pagination.Page[models.BlogComment], error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return pagination.Page[models.BlogComment]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	post, err := s.repo.FindPostByID(ctx, postID)
	if err != nil {
		return pagination.Page[models.BlogComment]{}, postLoadError(err)
	}
	if err := visibility.EnsurePostVisible(post); err != nil {
		return pagination.Page[models.BlogComment]{}, err
	}
	page, err := s.repo.ListComments(ctx, &post.ID, enums.CommentStatusApproved, params)
	if err != nil {
		return pagination.Page[models.BlogComment]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list comments")
	}
	return page, nil
}

func (s *service) ListPendingComments(ctx context.Context, params pagination.Params) (pagination.Page[models.BlogComment], error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return pagination.Page[models.BlogComment]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	page, err := s.repo.ListComments(ctx, nil, enums.CommentStatusPending, params)
	if err != nil {
		return pagination.Page[models.BlogComment]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending comments")
	}
	return page, nil
}

func (s *service) Approve(ctx context.Context, commentID, moderatorID uuid.UUID, reason *string) (*models.BlogComment, error) {
	return s.Moderate(ctx, commentID, enums.CommentStatusApproved, moderatorID, reason)
}

func (s *service) Reject(ctx context.Context, commentID, moderatorID uuid.UUID, reason *string) (*models.BlogComment, error) {
	return s.Moderate(ctx, commentID, enums.CommentStatusRejected, moderatorID, reason)
}

func (s *service) MarkAsSpam(ctx context.Context, commentID, moderatorID uuid.UUID, reason *string) (*models.BlogComment, error) {
	return s.Moderate(ctx, commentID, enums.CommentStatusSpam, moderatorID, reason)
}

// Moderate applies a moderation outcome and queues comment_moderated.
func (s *service) Moderate(ctx context.Context, commentID uuid.UUID, status enums.CommentStatus, moderatorID uuid.UUID, reason *string) (*models.BlogComment, error) {
	if commentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "comment id required")
	}

	var result *models.BlogComment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		comment, err := repo.FindCommentForUpdate(ctx, commentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "comment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load comment")
		}

		now := s.now()
		if err := ApplyModeration(comment, status, moderatorID, reason, now); err != nil {
			return err
		}
		comment.UpdatedAt = now
		if err := repo.SaveModeration(ctx, comment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save moderation")
		}
		result = comment

		mod := moderatorID
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCommentModerated,
			AggregateType: enums.AggregateBlogComment,
			AggregateID:   comment.ID,
			Actor:         outbox.ActorFromID(&mod, enums.UserRoleAdmin),
			OccurredAt:    now,
			Data: payloads.CommentModeratedEvent{
				CommentID:   comment.ID,
				PostID:      comment.PostID,
				Status:      status,
				ModeratorID: moderatorID,
				Reason:      comment.ModerationReason,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncModeration(string(status))
	return result, nil
}
