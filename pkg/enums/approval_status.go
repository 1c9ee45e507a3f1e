package enums

import "fmt"

// ApprovalStatus gates artisans, products and blog posts behind an admin decision.
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

var validApprovalStatuses = []ApprovalStatus{
	ApprovalStatusPending,
	ApprovalStatusApproved,
	ApprovalStatusRejected,
}

func (a ApprovalStatus) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ApprovalStatus.
func (a ApprovalStatus) IsValid() bool {
	for _, candidate := range validApprovalStatuses {
		if candidate == a {
			return true
		}
	}
	return false
}

// IsDecision reports whether the value can be applied as an admin decision.
func (a ApprovalStatus) IsDecision() bool {
	return a == ApprovalStatusApproved || a == ApprovalStatusRejected
}

// ParseApprovalStatus converts raw input into an ApprovalStatus.
func ParseApprovalStatus(value string) (ApprovalStatus, error) {
	for _, candidate := range validApprovalStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid approval status %q", value)
}

// ApprovalSubject names the kind of entity an approval decision targets.
type ApprovalSubject string

const (
	ApprovalSubjectArtisan  ApprovalSubject = "artisan"
	ApprovalSubjectProduct  ApprovalSubject = "product"
	ApprovalSubjectBlogPost ApprovalSubject = "blog_post"
)

var validApprovalSubjects = []ApprovalSubject{
	ApprovalSubjectArtisan,
	ApprovalSubjectProduct,
	ApprovalSubjectBlogPost,
}

func (s ApprovalSubject) String() string {
	return string(s)
}

func (s ApprovalSubject) IsValid() bool {
	for _, candidate := range validApprovalSubjects {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseApprovalSubject converts raw input into an ApprovalSubject.
func ParseApprovalSubject(value string) (ApprovalSubject, error) {
	for _, candidate := range validApprovalSubjects {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid approval subject %q", value)
}
