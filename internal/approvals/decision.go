package approvals

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/zm-marketplace-backend/pkg/db/models"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/zm-marketplace-backend/pkg/errors"
)

// ApplyDecision records an administrator decision on the approval block.
// Approval stamps approvedBy/approvedAt and clears any rejection reason.
// Rejection stores the notes as the reason and keeps the prior approval
// stamps. Both stamp reviewedBy/reviewedAt. The current status never blocks a
// decision.
func ApplyDecision(approval *models.Approval, decision enums.ApprovalStatus, moderator uuid.UUID, notes *string, now time.Time) error {
	if approval == nil {
		return fmt.Errorf("approval block required")
	}
	if !decision.IsDecision() {
		return pkgerrors.NewValidation(map[string]string{"decision": "decision must be approved or rejected"})
	}
	if moderator == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "moderator identity missing")
	}
	notes = cleanNotes(notes)

	switch decision {
	case enums.ApprovalStatusApproved:
		at := now
		by := moderator
		approval.ApprovedBy = &by
		approval.ApprovedAt = &at
		approval.ApprovalNotes = notes
		approval.RejectionReason = nil
	case enums.ApprovalStatusRejected:
		approval.RejectionReason = notes
	}
	approval.ApprovalStatus = decision

	reviewedAt := now
	reviewer := moderator
	approval.ReviewedBy = &reviewer
	approval.ReviewedAt = &reviewedAt
	return nil
}

func cleanNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	v := strings.TrimSpace(*notes)
	if v == "" {
		return nil
	}
	return &v
}
