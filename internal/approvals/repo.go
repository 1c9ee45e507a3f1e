package approvals

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/zm-marketplace-backend/pkg/db/models"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/enums"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/pagination"
)

// Subject is the approval-relevant view of an artisan, product or blog post.
type Subject struct {
	ID        uuid.UUID
	Title     string
	IsActive  bool
	CreatedAt time.Time
	models.Approval
}

type subjectTable struct {
	table string
	title string
}

var subjectTables = map[enums.ApprovalSubject]subjectTable{
	enums.ApprovalSubjectArtisan:  {table: "artisans", title: "business_name"},
	enums.ApprovalSubjectProduct:  {table: "products", title: "name"},
	enums.ApprovalSubjectBlogPost: {table: "blog_posts", title: "title"},
}

// Repository reads and writes the approval columns of gated tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindForUpdate(ctx context.Context, kind enums.ApprovalSubject, id uuid.UUID) (*Subject, error)
	SaveApproval(ctx context.Context, kind enums.ApprovalSubject, id uuid.UUID, approval models.Approval) error
	ListPending(ctx context.Context, kind enums.ApprovalSubject, params pagination.Params) (pagination.Page[Subject], error)
	CountPending(ctx context.Context, kind enums.ApprovalSubject) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an approvals repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func lookup(kind enums.ApprovalSubject) (subjectTable, error) {
	t, ok := subjectTables[kind]
	if !ok {
		return subjectTable{}, fmt.Errorf("unsupported approval subject %q", kind)
	}
	return t, nil
}

func (t subjectTable) columns() string {
	return "id, " + t.title + " AS title, is_active, created_at, approval_status, approved_by, approved_at, approval_notes, rejection_reason, reviewed_by, reviewed_at"
}

func (r *repository) FindForUpdate(ctx context.Context, kind enums.ApprovalSubject, id uuid.UUID) (*Subject, error) {
	t, err := lookup(kind)
	if err != nil {
		return nil, err
	}
	var rows []Subject
	err = r.db.WithContext(ctx).
		Table(t.table).
		Select(t.columns()).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

func (r *repository) SaveApproval(ctx context.Context, kind enums.ApprovalSubject, id uuid.UUID, approval models.Approval) error {
	t, err := lookup(kind)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).
		Table(t.table).
		Where("id = ?", id).
		Updates(map[string]any{
			"approval_status":  approval.ApprovalStatus,
			"approved_by":      approval.ApprovedBy,
			"approved_at":      approval.ApprovedAt,
			"approval_notes":   approval.ApprovalNotes,
			"rejection_reason": approval.RejectionReason,
			"reviewed_by":      approval.ReviewedBy,
			"reviewed_at":      approval.ReviewedAt,
			"updated_at":       time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) ListPending(ctx context.Context, kind enums.ApprovalSubject, params pagination.Params) (pagination.Page[Subject], error) {
	t, err := lookup(kind)
	if err != nil {
		return pagination.Page[Subject]{}, err
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[Subject]{}, err
	}

	query := r.db.WithContext(ctx).
		Table(t.table).
		Select(t.columns()).
		Where("approval_status = ?", enums.ApprovalStatusPending)
	if where, args := pagination.KeysetWhere(cursor); where != "" {
		query = query.Where(where, args...)
	}

	var rows []Subject
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Scan(&rows).Error
	if err != nil {
		return pagination.Page[Subject]{}, err
	}
	return pagination.BuildPage(rows, params.Limit, func(s Subject) pagination.Cursor {
		return pagination.Cursor{CreatedAt: s.CreatedAt, ID: s.ID}
	}), nil
}

func (r *repository) CountPending(ctx context.Context, kind enums.ApprovalSubject) (int64, error) {
	t, err := lookup(kind)
	if err != nil {
		return 0, err
	}
	var count int64
	err = r.db.WithContext(ctx).
		Table(t.table).
		Where("approval_status = ?", enums.ApprovalStatusPending).
		Count(&count).Error
	return count, err
}
