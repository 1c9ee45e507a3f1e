package enums

import "testing"

func TestParseOrderStatus(t *testing.T) {
	for _, status := range validOrderStatuses {
		got, err := ParseOrderStatus(string(status))
		if err != nil || got != status {
			t.Fatalf("expected %s to parse, got %q err=%v", status, got, err)
		}
	}
	if _, err := ParseOrderStatus("lost_in_transit"); err == nil {
		t.Fatal("expected unknown status to fail")
	}
	if len(validOrderStatuses) != 10 {
		t.Fatalf("expected ten order statuses, got %d", len(validOrderStatuses))
	}
}

func TestApprovalStatusIsDecision(t *testing.T) {
	if ApprovalStatusPending.IsDecision() {
		t.Fatal("pending must not be a decision")
	}
	if !ApprovalStatusApproved.IsDecision() || !ApprovalStatusRejected.IsDecision() {
		t.Fatal("approved and rejected must be decisions")
	}
}

func TestAggregateForSubject(t *testing.T) {
	cases := map[ApprovalSubject]OutboxAggregateType{
		ApprovalSubjectArtisan:  AggregateArtisan,
		ApprovalSubjectProduct:  AggregateProduct,
		ApprovalSubjectBlogPost: AggregateBlogPost,
	}
	for subject, want := range cases {
		if got := AggregateForSubject(subject); got != want {
			t.Fatalf("subject %s expected %s got %s", subject, want, got)
		}
		if !AggregateForSubject(subject).IsValid() {
			t.Fatalf("aggregate for %s must be valid", subject)
		}
	}
	if AggregateForSubject("store") != "" {
		t.Fatal("unknown subject should map to empty aggregate")
	}
}

func TestUserRoleSelfService(t *testing.T) {
	if UserRoleAdmin.IsSelfService() {
		t.Fatal("admin must not be self-service")
	}
	if !UserRoleBuyer.IsSelfService() || !UserRoleArtisan.IsSelfService() {
		t.Fatal("buyer and artisan should be self-service")
	}
	if _, err := ParseUserRole("owner"); err == nil {
		t.Fatal("expected owner to be rejected")
	}
}

func TestParseCommentStatus(t *testing.T) {
	if got, err := ParseCommentStatus("spam"); err != nil || got != CommentStatusSpam {
		t.Fatalf("expected spam, got %q err=%v", got, err)
	}
	if _, err := ParseCommentStatus("hidden"); err == nil {
		t.Fatal("expected unknown comment status to fail")
	}
}
