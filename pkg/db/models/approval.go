package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/zm-marketplace-backend/pkg/enums"
)

// Approval holds the admin gate shared by artisans, products and blog posts.
type Approval struct {
	ApprovalStatus  enums.ApprovalStatus `gorm:"column:approval_status;type:text;not null;default:'pending'"`
	ApprovedBy      *uuid.UUID           `gorm:"column:approved_by;type:uuid"`
	ApprovedAt      *time.Time           `gorm:"column:approved_at"`
	ApprovalNotes   *string              `gorm:"column:approval_notes"`
	RejectionReason *string              `gorm:"column:rejection_reason"`
	ReviewedBy      *uuid.UUID           `gorm:"column:reviewed_by;type:uuid"`
	ReviewedAt      *time.Time           `gorm:"column:reviewed_at"`
}

// IsApproved reports whether the entity passed review.
func (a Approval) IsApproved() bool {
	return a.ApprovalStatus == enums.ApprovalStatusApproved
}
