package enums

import "fmt"

// CommentStatus is the moderation state of a blog comment.
type CommentStatus string

const (
	CommentStatusPending  CommentStatus = "pending"
	CommentStatusApproved CommentStatus = "approved"
	CommentStatusRejected CommentStatus = "rejected"
	CommentStatusSpam     CommentStatus = "spam"
)

var validCommentStatuses = []CommentStatus{
	CommentStatusPending,
	CommentStatusApproved,
	CommentStatusRejected,
	CommentStatusSpam,
}

func (c CommentStatus) String() string {
	return string(c)
}

func (c CommentStatus) IsValid() bool {
	for _, candidate := range validCommentStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCommentStatus converts raw input into a CommentStatus.
func ParseCommentStatus(value string) (CommentStatus, error) {
	for _, candidate := range validCommentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid comment status %q", value)
}
