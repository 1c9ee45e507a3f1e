package blog

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/zm-marketplace-backend/pkg/db/models"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/zm-marketplace-backend/pkg/errors"
)

func TestApplyModerationStampsModerator(t *testing.T) {
	comment := &models.BlogComment{Status: enums.CommentStatusPending}
	moderator := uuid.New()
	now := time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)
	reason := "  link farm "

	if err := ApplyModeration(comment, enums.CommentStatusSpam, moderator, &reason, now); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if comment.Status != enums.CommentStatusSpam {
		t.Fatalf("expected spam, got %s", comment.Status)
	}
	if comment.ModeratedBy == nil || *comment.ModeratedBy != moderator {
		t.Fatal("expected moderator stamped")
	}
	if comment.ModeratedAt == nil || !comment.ModeratedAt.Equal(now) {
		t.Fatal("expected moderation time stamped")
	}
	if comment.ModerationReason == nil || *comment.ModerationReason != "link farm" {
		t.Fatalf("unexpected reason %v", comment.ModerationReason)
	}
}

func TestApplyModerationNoTransitionBlocked(t *testing.T) {
	comment := &models.BlogComment{Status: enums.CommentStatusSpam}
	later := time.Date(2026, 5, 3, 12, 0, 0, 0, time.UTC)

	if err := ApplyModeration(comment, enums.CommentStatusApproved, uuid.New(), nil, later); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if comment.Status != enums.CommentStatusApproved || comment.ModerationReason != nil {
		t.Fatalf("unexpected comment %+v", comment)
	}
}

func TestApplyModerationRejectsPendingAndMissingModerator(t *testing.T) {
	comment := &models.BlogComment{Status: enums.CommentStatusApproved}

	err := ApplyModeration(comment, enums.CommentStatusPending, uuid.New(), nil, time.Now())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	err = ApplyModeration(comment, enums.CommentStatusRejected, uuid.Nil, nil, time.Now())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if comment.Status != enums.CommentStatusApproved {
		t.Fatal("expected comment untouched on error")
	}
}
