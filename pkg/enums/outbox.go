package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateOrder       OutboxAggregateType = "order"
	AggregateArtisan     OutboxAggregateType = "artisan"
	AggregateProduct     OutboxAggregateType = "product"
	AggregateBlogPost    OutboxAggregateType = "blog_post"
	AggregateBlogComment OutboxAggregateType = "blog_comment"
	AggregateReview      OutboxAggregateType = "review"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateArtisan,
	AggregateProduct,
	AggregateBlogPost,
	AggregateBlogComment,
	AggregateReview,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// AggregateForSubject maps an approval subject onto its outbox aggregate.
func AggregateForSubject(subject ApprovalSubject) OutboxAggregateType {
	switch subject {
	case ApprovalSubjectArtisan:
		return AggregateArtisan
	case ApprovalSubjectProduct:
		return AggregateProduct
	case ApprovalSubjectBlogPost:
		return AggregateBlogPost
	}
	return ""
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventOrderPlaced               OutboxEventType = "order_placed"
	EventOrderStatusChanged        OutboxEventType = "order_status_changed"
	EventOrderPaymentStatusChanged OutboxEventType = "order_payment_status_changed"
	EventApprovalDecided           OutboxEventType = "approval_decided"
	EventArtisanChangesRecorded    OutboxEventType = "artisan_changes_recorded"
	EventArtisanChangesReviewed    OutboxEventType = "artisan_changes_reviewed"
	EventCommentModerated          OutboxEventType = "comment_moderated"
	EventReviewCreated             OutboxEventType = "review_created"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderPlaced,
	EventOrderStatusChanged,
	EventOrderPaymentStatusChanged,
	EventApprovalDecided,
	EventArtisanChangesRecorded,
	EventArtisanChangesReviewed,
	EventCommentModerated,
	EventReviewCreated,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
