package artisans

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/zm-marketplace-backend/pkg/db/models"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/zm-marketplace-backend/pkg/errors"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/outbox"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/pagination"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/types"
)

type stubArtisansRepo struct {
	artisans map[uuid.UUID]*models.Artisan
	slugs    map[string]bool
	created  []*models.Artisan
	saved    int
}

func newStubArtisansRepo(records ...*models.Artisan) *stubArtisansRepo {
	repo := &stubArtisansRepo{artisans: map[uuid.UUID]*models.Artisan{}, slugs: map[string]bool{}}
	for _, record := range records {
		repo.artisans[record.ID] = record
		repo.slugs[record.Slug] = true
	}
	return repo
}

func (s *stubArtisansRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubArtisansRepo) Create(ctx context.Context, artisan *models.Artisan) error {
	s.created = append(s.created, artisan)
	s.artisans[artisan.ID] = artisan
	s.slugs[artisan.Slug] = true
	return nil
}

func (s *stubArtisansRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Artisan, error) {
	artisan, ok := s.artisans[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return artisan, nil
}

func (s *stubArtisansRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Artisan, error) {
	return s.FindByID(ctx, id)
}

func (s *stubArtisansRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Artisan, error) {
	for _, artisan := range s.artisans {
		if artisan.UserID == userID {
			return artisan, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubArtisansRepo) FindBySlug(ctx context.Context, slug string) (*models.Artisan, error) {
	for _, artisan := range s.artisans {
		if artisan.Slug == slug {
			return artisan, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubArtisansRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	return s.slugs[slug], nil
}

func (s *stubArtisansRepo) SaveProfile(ctx context.Context, artisan *models.Artisan) error {
	s.saved++
	s.artisans[artisan.ID] = artisan
	return nil
}

func (s *stubArtisansRepo) ListPublic(ctx context.Context, params pagination.Params) (pagination.Page[models.Artisan], error) {
	panic("not implemented")
}

func (s *stubArtisansRepo) CountWithPendingChanges(ctx context.Context) (int64, error) {
	var n int64
	for _, artisan := range s.artisans {
		if artisan.PendingChanges != nil {
			n++
		}
	}
	return n, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

func newTestService(t *testing.T, repo Repository, pub outboxPublisher) Service {
	t.Helper()
	svc, err := NewService(repo, stubTxRunner{}, pub, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func approvedArtisan() *models.Artisan {
	return &models.Artisan{
		ID:           uuid.New(),
		UserID:       uuid.New(),
		BusinessName: "Kumhar Studio",
		Slug:         "kumhar-studio",
		Email:        "studio@example.com",
		Phone:        "+91 98000 00000",
		IsActive:     true,
		Approval:     models.Approval{ApprovalStatus: enums.ApprovalStatusApproved},
	}
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) *pkgerrors.Error {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected %s, got %v", code, err)
	}
	return typed
}

func strPtr(v string) *string { return &v }

func TestUpdateProfileApprovedArtisanEmailRecordsPendingChange(t *testing.T) {
	artisan := approvedArtisan()
	repo := newStubArtisansRepo(artisan)
	pub := &stubOutbox{}
	svc := newTestService(t, repo, pub)

	updated, err := svc.UpdateProfile(context.Background(), artisan.ID, artisan.UserID, ProfilePatch{Email: strPtr(" New@Example.com ")})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.ApprovalStatus != enums.ApprovalStatusApproved {
		t.Fatalf("expected status to stay approved, got %s", updated.ApprovalStatus)
	}
	if updated.Email != "new@example.com" {
		t.Fatalf("expected email applied, got %q", updated.Email)
	}
	if updated.PendingChanges == nil || !updated.PendingChanges.HasChanges {
		t.Fatal("expected pending changes flagged")
	}
	if got := updated.PendingChanges.ChangedFields; len(got) != 1 || got[0] != FieldEmail {
		t.Fatalf("unexpected changed fields %v", got)
	}
	if updated.PendingChanges.Changes[FieldEmail] != "new@example.com" {
		t.Fatalf("unexpected recorded value %v", updated.PendingChanges.Changes)
	}
	if len(pub.events) != 1 || pub.events[0].EventType != enums.EventArtisanChangesRecorded {
		t.Fatalf("expected artisan_changes_recorded, got %+v", pub.events)
	}
	if repo.saved != 1 {
		t.Fatalf("expected one save, got %d", repo.saved)
	}
}

func TestUpdateProfileUnprotectedFieldsSkipReview(t *testing.T) {
	artisan := approvedArtisan()
	repo := newStubArtisansRepo(artisan)
	pub := &stubOutbox{}
	svc := newTestService(t, repo, pub)

	updated, err := svc.UpdateProfile(context.Background(), artisan.ID, artisan.UserID, ProfilePatch{
		Bio:   strPtr("Third-generation potters"),
		Email: strPtr("studio@example.com"),
	})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.Bio == nil || *updated.Bio != "Third-generation potters" {
		t.Fatal("expected bio applied")
	}
	if updated.PendingChanges != nil {
		t.Fatalf("expected no pending changes, got %+v", updated.PendingChanges)
	}
	if len(pub.events) != 0 {
		t.Fatalf("expected no events, got %d", len(pub.events))
	}
}

func TestUpdateProfilePendingArtisanNotTracked(t *testing.T) {
	artisan := approvedArtisan()
	artisan.ApprovalStatus = enums.ApprovalStatusPending
	repo := newStubArtisansRepo(artisan)
	svc := newTestService(t, repo, &stubOutbox{})

	updated, err := svc.UpdateProfile(context.Background(), artisan.ID, artisan.UserID, ProfilePatch{Phone: strPtr("+91 90000 11111")})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.PendingChanges != nil {
		t.Fatal("expected pending artisans to edit freely")
	}
}

func TestUpdateProfileMergesWithUnreviewedChanges(t *testing.T) {
	artisan := approvedArtisan()
	earlier := types.PendingChanges{}.Merge([]string{FieldPhone}, map[string]any{FieldPhone: "+91 1"}, time.Now().Add(-time.Hour))
	artisan.PendingChanges = &earlier
	repo := newStubArtisansRepo(artisan)
	svc := newTestService(t, repo, &stubOutbox{})

	updated, err := svc.UpdateProfile(context.Background(), artisan.ID, artisan.UserID, ProfilePatch{BusinessName: strPtr("Kumhar Studio & Kiln")})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	got := updated.PendingChanges.ChangedFields
	if len(got) != 2 || got[0] != FieldBusinessName || got[1] != FieldPhone {
		t.Fatalf("expected merged fields, got %v", got)
	}
	if updated.Slug != "kumhar-studio" {
		t.Fatalf("expected slug to stay stable, got %q", updated.Slug)
	}
}

func TestUpdateProfileRejectsOtherUser(t *testing.T) {
	artisan := approvedArtisan()
	svc := newTestService(t, newStubArtisansRepo(artisan), &stubOutbox{})

	_, err := svc.UpdateProfile(context.Background(), artisan.ID, uuid.New(), ProfilePatch{Bio: strPtr("x")})
	requireCode(t, err, pkgerrors.CodeForbidden)
}

func TestUpdateProfileValidation(t *testing.T) {
	artisan := approvedArtisan()
	svc := newTestService(t, newStubArtisansRepo(artisan), &stubOutbox{})

	_, err := svc.UpdateProfile(context.Background(), artisan.ID, artisan.UserID, ProfilePatch{
		Email:           strPtr("not-an-email"),
		BusinessName:    strPtr("  "),
		ShippingAddress: &types.Address{FullName: "Asha"},
	})
	typed := requireCode(t, err, pkgerrors.CodeValidation)
	fields, _ := typed.Details().(map[string]string)
	for _, key := range []string{"email", "business_name", "shipping_address.city"} {
		if _, ok := fields[key]; !ok {
			t.Fatalf("expected %s in %v", key, fields)
		}
	}
}

func TestClearPendingChanges(t *testing.T) {
	artisan := approvedArtisan()
	pending := types.PendingChanges{}.Merge([]string{FieldEmail}, map[string]any{FieldEmail: "x@example.com"}, time.Now())
	artisan.PendingChanges = &pending
	repo := newStubArtisansRepo(artisan)
	pub := &stubOutbox{}
	svc := newTestService(t, repo, pub)
	admin := uuid.New()

	cleared, err := svc.ClearPendingChanges(context.Background(), artisan.ID, admin)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if cleared.PendingChanges != nil {
		t.Fatal("expected pending changes cleared")
	}
	if cleared.ApprovalStatus != enums.ApprovalStatusApproved {
		t.Fatal("expected approval untouched")
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected one event, got %d", len(pub.events))
	}
	payload, ok := pub.events[0].Data.(payloads.ArtisanChangesReviewedEvent)
	if !ok || payload.ModeratorID != admin || len(payload.ChangedFields) != 1 {
		t.Fatalf("unexpected payload %#v", pub.events[0].Data)
	}

	if _, err := svc.ClearPendingChanges(context.Background(), artisan.ID, admin); err != nil {
		t.Fatalf("second clear: %v", err)
	}
	if len(pub.events) != 1 {
		t.Fatal("expected clearing an empty change set to be silent")
	}
}

func TestRecordPendingChangeRequiresFields(t *testing.T) {
	artisan := approvedArtisan()
	svc := newTestService(t, newStubArtisansRepo(artisan), &stubOutbox{})

	_, err := svc.RecordPendingChange(context.Background(), artisan.ID, []string{" "}, nil)
	requireCode(t, err, pkgerrors.CodeValidation)

	updated, err := svc.RecordPendingChange(context.Background(), artisan.ID, []string{FieldPhone}, map[string]any{FieldPhone: "+91 2"})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if updated.PendingChanges == nil || updated.ApprovalStatus != enums.ApprovalStatusApproved {
		t.Fatalf("unexpected artisan %+v", updated)
	}
}

func TestRegisterCreatesPendingProfile(t *testing.T) {
	existing := approvedArtisan()
	repo := newStubArtisansRepo(existing)
	svc := newTestService(t, repo, &stubOutbox{})
	userID := uuid.New()

	artisan, err := svc.Register(context.Background(), userID, RegisterInput{
		BusinessName: "Kumhar Studio",
		Email:        "Other@Example.com",
		Phone:        "+91 98000 22222",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if artisan.ApprovalStatus != enums.ApprovalStatusPending || !artisan.IsActive {
		t.Fatalf("expected pending active profile, got %+v", artisan.Approval)
	}
	if artisan.Slug == "kumhar-studio" || len(artisan.Slug) != len("kumhar-studio-")+6 {
		t.Fatalf("expected suffixed slug, got %q", artisan.Slug)
	}
	if artisan.Email != "other@example.com" {
		t.Fatalf("expected normalized email, got %q", artisan.Email)
	}

	_, err = svc.Register(context.Background(), userID, RegisterInput{BusinessName: "Again", Email: "a@b.co", Phone: "1"})
	requireCode(t, err, pkgerrors.CodeConflict)
}

func TestGetPublicHidesUnapproved(t *testing.T) {
	artisan := approvedArtisan()
	artisan.ApprovalStatus = enums.ApprovalStatusRejected
	svc := newTestService(t, newStubArtisansRepo(artisan), &stubOutbox{})

	_, err := svc.GetPublic(context.Background(), artisan.Slug)
	requireCode(t, err, pkgerrors.CodeNotFound)
}
