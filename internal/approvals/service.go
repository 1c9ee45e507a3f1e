package approvals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/zm-marketplace-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/zm-marketplace-backend/pkg/errors"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/metrics"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/outbox"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Result is the approval state of an entity after a decision.
type Result struct {
	Kind            enums.ApprovalSubject `json:"kind"`
	EntityID        uuid.UUID             `json:"entity_id"`
	Title           string                `json:"title"`
	IsActive        bool                  `json:"is_active"`
	ApprovalStatus  enums.ApprovalStatus  `json:"approval_status"`
	ApprovedBy      *uuid.UUID            `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time            `json:"approved_at,omitempty"`
	ApprovalNotes   *string               `json:"approval_notes,omitempty"`
	RejectionReason *string               `json:"rejection_reason,omitempty"`
	ReviewedBy      *uuid.UUID            `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time            `json:"reviewed_at,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
}

func newResult(kind enums.ApprovalSubject, subject Subject) Result {
	return Result{
		Kind:            kind,
		EntityID:        subject.ID,
		Title:           subject.Title,
		IsActive:        subject.IsActive,
		ApprovalStatus:  subject.ApprovalStatus,
		ApprovedBy:      subject.ApprovedBy,
		ApprovedAt:      subject.ApprovedAt,
		ApprovalNotes:   subject.ApprovalNotes,
		RejectionReason: subject.RejectionReason,
		ReviewedBy:      subject.ReviewedBy,
		ReviewedAt:      subject.ReviewedAt,
		CreatedAt:       subject.CreatedAt,
	}
}

// Service drives the admin approval gate for artisans, products and posts.
type Service interface {
	SetApproval(ctx context.Context, kind enums.ApprovalSubject, entityID uuid.UUID, decision enums.ApprovalStatus, moderatorID uuid.UUID, notes *string) (Result, error)
	ListPending(ctx context.Context, kind enums.ApprovalSubject, params pagination.Params) (pagination.Page[Result], error)
	PendingCounts(ctx context.Context) (map[enums.ApprovalSubject]int64, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	metrics *metrics.WorkflowMetrics
	now     func() time.Time
}

// NewService builds the approvals service.
func NewService(repo Repository, tx txRunner, publisher outboxPublisher, m *metrics.WorkflowMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("approvals repository required")
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

func (s *service) SetApproval(ctx context.Context, kind enums.ApprovalSubject, entityID uuid.UUID, decision enums.ApprovalStatus, moderatorID uuid.UUID, notes *string) (Result, error) {
	fields := map[string]string{}
	if !kind.IsValid() {
		fields["kind"] = "kind must be artisan, product or blog_post"
	}
	if entityID == uuid.Nil {
		fields["entity_id"] = "entity id is required"
	}
	if !decision.IsDecision() {
		fields["decision"] = "decision must be approved or rejected"
	}
	if len(fields) > 0 {
		return Result{}, pkgerrors.NewValidation(fields)
	}
	if moderatorID == uuid.Nil {
		return Result{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "moderator identity missing")
	}

	var result Result
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		subject, err := repo.FindForUpdate(ctx, kind, entityID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("%s not found", kind))
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load approval subject")
		}

		now := s.now()
		if err := ApplyDecision(&subject.Approval, decision, moderatorID, notes, now); err != nil {
			return err
		}
		if err := repo.SaveApproval(ctx, kind, entityID, subject.Approval); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save approval decision")
		}
		result = newResult(kind, *subject)

		mod := moderatorID
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventApprovalDecided,
			AggregateType: enums.AggregateForSubject(kind),
			AggregateID:   entityID,
			Actor:         outbox.ActorFromID(&mod, enums.UserRoleAdmin),
			OccurredAt:    now,
			Data: payloads.ApprovalDecidedEvent{
				Subject:         kind,
				EntityID:        entityID,
				Decision:        decision,
				ModeratorID:     moderatorID,
				Notes:           subject.ApprovalNotes,
				RejectionReason: subject.RejectionReason,
				DecidedAt:       now,
			},
		})
	})
	if err != nil {
		return Result{}, err
	}
	s.metrics.IncApproval(string(kind), string(decision))
	return result, nil
}

func (s *service) ListPending(ctx context.Context, kind enums.ApprovalSubject, params pagination.Params) (pagination.Page[Result], error) {
	if !kind.IsValid() {
		return pagination.Page[Result]{}, pkgerrors.NewValidation(map[string]string{"kind": "kind must be artisan, product or blog_post"})
	}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return pagination.Page[Result]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	page, err := s.repo.ListPending(ctx, kind, params)
	if err != nil {
		return pagination.Page[Result]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending approvals")
	}
	out := pagination.Page[Result]{Items: make([]Result, 0, len(page.Items)), NextCursor: page.NextCursor}
	for _, subject := range page.Items {
		out.Items = append(out.Items, newResult(kind, subject))
	}
	return out, nil
}

// PendingCounts reports the size of each approval queue.
func (s *service) PendingCounts(ctx context.Context) (map[enums.ApprovalSubject]int64, error) {
	counts := make(map[enums.ApprovalSubject]int64, len(subjectTables))
	for _, kind := range []enums.ApprovalSubject{enums.ApprovalSubjectArtisan, enums.ApprovalSubjectProduct, enums.ApprovalSubjectBlogPost} {
		n, err := s.repo.CountPending(ctx, kind)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("count pending %s", kind))
		}
		counts[kind] = n
	}
	return counts, nil
}
