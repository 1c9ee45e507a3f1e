package blog

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/zm-marketplace-backend/pkg/db/models"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/zm-marketplace-backend/pkg/errors"
)

// ApplyModeration records a moderator decision on a comment. Any outcome may
// follow any other; a spam comment can later be approved.
func ApplyModeration(comment *models.BlogComment, status enums.CommentStatus, moderator uuid.UUID, reason *string, now time.Time) error {
	if comment == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "comment not found")
	}
	if !isModerationOutcome(status) {
		return pkgerrors.NewValidation(map[string]string{"status": fmt.Sprintf("invalid moderation status %q", status)})
	}
	if moderator == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "moderator identity missing")
	}

	mod := moderator
	at := now.UTC()
	comment.Status = status
	comment.ModeratedBy = &mod
	comment.ModeratedAt = &at
	comment.ModerationReason = cleanReason(reason)
	return nil
}

func isModerationOutcome(status enums.CommentStatus) bool {
	switch status {
	case enums.CommentStatusApproved, enums.CommentStatusRejected, enums.CommentStatusSpam:
		return true
	}
	return false
}

func cleanReason(reason *string) *string {
	if reason == nil {
		return nil
	}
	v := strings.TrimSpace(*reason)
	if v == "" {
		return nil
	}
	return &v
}
