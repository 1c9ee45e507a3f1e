package visibility

import (
	"gorm.io/gorm"

	"github.com/angelmondragon/zm-marketplace-backend/pkg/db/models"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/zm-marketplace-backend/pkg/errors"
)

// IsPublic reports whether a gated entity may surface through public reads.
func IsPublic(approval models.Approval, isActive bool) bool {
	return approval.ApprovalStatus == enums.ApprovalStatusApproved && isActive
}

// EnsureArtisanVisible hides artisans that are not approved and active.
func EnsureArtisanVisible(artisan *models.Artisan) error {
	if artisan == nil || !IsPublic(artisan.Approval, artisan.IsActive) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "artisan not found")
	}
	return nil
}

// EnsureProductVisible requires both the product and its artisan to be public.
func EnsureProductVisible(product *models.Product, artisan *models.Artisan) error {
	if product == nil || !IsPublic(product.Approval, product.IsActive) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if artisan == nil || artisan.ID != product.ArtisanID || !IsPublic(artisan.Approval, artisan.IsActive) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

// EnsurePostVisible hides unapproved or unpublished blog posts.
func EnsurePostVisible(post *models.BlogPost) error {
	if post == nil || !IsPublic(post.Approval, post.IsActive) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "blog post not found")
	}
	return nil
}

// PublicScope restricts a query on an approval-bearing table to public rows.
// An optional table alias qualifies the columns.
func PublicScope(alias string) func(*gorm.DB) *gorm.DB {
	prefix := ""
	if alias != "" {
		prefix = alias + "."
	}
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(prefix+"approval_status = ? AND "+prefix+"is_active = ?", enums.ApprovalStatusApproved, true)
	}
}
