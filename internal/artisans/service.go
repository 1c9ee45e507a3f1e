package artisans

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/zm-marketplace-backend/pkg/db"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/db/models"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/zm-marketplace-backend/pkg/errors"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/logger"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/outbox"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/pagination"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/slug"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/types"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/visibility"
)

const (
	userConstraint = "ux_artisans_user_id"
	slugConstraint = "ux_artisans_slug"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service manages artisan profiles and their pending-change side channel.
type Service interface {
	Register(ctx context.Context, userID uuid.UUID, input RegisterInput) (*models.Artisan, error)
	UpdateProfile(ctx context.Context, artisanID, actorUserID uuid.UUID, patch ProfilePatch) (*models.Artisan, error)
	RecordPendingChange(ctx context.Context, artisanID uuid.UUID, changedFields []string, newValues map[string]any) (*models.Artisan, error)
	ClearPendingChanges(ctx context.Context, artisanID, moderatorID uuid.UUID) (*models.Artisan, error)
	GetPublic(ctx context.Context, slug string) (*models.Artisan, error)
	ListPublic(ctx context.Context, params pagination.Params) (pagination.Page[models.Artisan], error)
	GetMine(ctx context.Context, userID uuid.UUID) (*models.Artisan, error)
	CountWithPendingChanges(ctx context.Context) (int64, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	logg   *logger.Logger
	now    func() time.Time
}

// NewService builds the artisans service.
func NewService(repo Repository, tx txRunner, publisher outboxPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("artisans repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:   repo,
		tx:     tx,
		outbox: publisher,
		logg:   logg,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Register(ctx context.Context, userID uuid.UUID, input RegisterInput) (*models.Artisan, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	name := strings.TrimSpace(input.BusinessName)
	email := normalizeEmail(input.Email)
	phone := strings.TrimSpace(input.Phone)

	fields := map[string]string{}
	if name == "" {
		fields[FieldBusinessName] = "business name is required"
	}
	if !looksLikeEmail(email) {
		fields[FieldEmail] = "email must be a valid address"
	}
	if phone == "" {
		fields[FieldPhone] = "phone is required"
	}
	if input.ShippingAddress != nil {
		addressFields(fields, *input.ShippingAddress)
	}
	base := slug.Make(name)
	if name != "" && base == "" {
		fields[FieldBusinessName] = "business name must contain letters or digits"
	}
	if len(fields) > 0 {
		return nil, pkgerrors.NewValidation(fields)
	}

	var created *models.Artisan
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByUserID(ctx, userID); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "artisan profile already exists")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load artisan profile")
		}

		candidate := base
		taken, err := repo.SlugExists(ctx, candidate)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check artisan slug")
		}
		if taken {
			candidate = slug.WithSuffix(base)
		}

		now := s.now()
		record := &models.Artisan{
			ID:              uuid.New(),
			UserID:          userID,
			BusinessName:    name,
			Slug:            candidate,
			Email:           email,
			Phone:           phone,
			Bio:             trimmed(input.Bio),
			Craft:           trimmed(input.Craft),
			Location:        trimmed(input.Location),
			ShippingAddress: input.ShippingAddress,
			IsActive:        true,
			Approval:        models.Approval{ApprovalStatus: enums.ApprovalStatusPending},
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := repo.Create(ctx, record); err != nil {
			switch {
			case db.IsUniqueViolation(err, userConstraint):
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "artisan profile already exists")
			case db.IsUniqueViolation(err, slugConstraint):
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "business name already taken")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create artisan")
		}
		created = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.info(ctx, created, "artisan registered")
	return created, nil
}

func (s *service) UpdateProfile(ctx context.Context, artisanID, actorUserID uuid.UUID, patch ProfilePatch) (*models.Artisan, error) {
	if artisanID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "artisan id required")
	}
	if actorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if fields := validatePatch(patch); len(fields) > 0 {
		return nil, pkgerrors.NewValidation(fields)
	}

	var (
		result   *models.Artisan
		recorded []string
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		artisan, err := repo.FindByIDForUpdate(ctx, artisanID)
		if err != nil {
			return loadError(err)
		}
		if artisan.UserID != actorUserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "profile belongs to another user")
		}

		now := s.now()
		fields, values := applyPatch(artisan, patch)
		if artisan.ApprovalStatus == enums.ApprovalStatusApproved && len(fields) > 0 {
			if err := s.recordPending(ctx, tx, artisan, fields, values, now); err != nil {
				return err
			}
			recorded = fields
		}
		artisan.UpdatedAt = now
		if err := repo.SaveProfile(ctx, artisan); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update artisan profile")
		}
		result = artisan
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(recorded) > 0 {
		s.info(ctx, result, fmt.Sprintf("artisan protected fields changed: %s", strings.Join(recorded, ",")))
	}
	return result, nil
}

func (s *service) RecordPendingChange(ctx context.Context, artisanID uuid.UUID, changedFields []string, newValues map[string]any) (*models.Artisan, error) {
	if artisanID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "artisan id required")
	}
	fields := make([]string, 0, len(changedFields))
	for _, field := range changedFields {
		if field = strings.TrimSpace(field); field != "" {
			fields = append(fields, field)
		}
	}
	if len(fields) == 0 {
		return nil, pkgerrors.NewValidation(map[string]string{"changed_fields": "at least one changed field is required"})
	}

	var result *models.Artisan
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		artisan, err := repo.FindByIDForUpdate(ctx, artisanID)
		if err != nil {
			return loadError(err)
		}
		now := s.now()
		if err := s.recordPending(ctx, tx, artisan, fields, newValues, now); err != nil {
			return err
		}
		artisan.UpdatedAt = now
		if err := repo.SaveProfile(ctx, artisan); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record pending changes")
		}
		result = artisan
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// recordPending merges the change set into the artisan and queues the event.
// The approval status is left untouched.
func (s *service) recordPending(ctx context.Context, tx *gorm.DB, artisan *models.Artisan, fields []string, values map[string]any, now time.Time) error {
	current := types.PendingChanges{}
	if artisan.PendingChanges != nil {
		current = *artisan.PendingChanges
	}
	merged := current.Merge(fields, values, now)
	artisan.PendingChanges = &merged

	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventArtisanChangesRecorded,
		AggregateType: enums.AggregateArtisan,
		AggregateID:   artisan.ID,
		Actor:         &outbox.ActorRef{UserID: artisan.UserID, Role: enums.UserRoleArtisan},
		OccurredAt:    now,
		Data: payloads.ArtisanChangesRecordedEvent{
			ArtisanID:     artisan.ID,
			ChangedFields: merged.ChangedFields,
			ChangedAt:     now,
		},
	})
}

func (s *service) ClearPendingChanges(ctx context.Context, artisanID, moderatorID uuid.UUID) (*models.Artisan, error) {
	if artisanID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "artisan id required")
	}
	if moderatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "moderator identity missing")
	}

	var result *models.Artisan
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		artisan, err := repo.FindByIDForUpdate(ctx, artisanID)
		if err != nil {
			return loadError(err)
		}
		result = artisan
		if artisan.PendingChanges == nil {
			return nil
		}

		reviewed := artisan.PendingChanges.ChangedFields
		now := s.now()
		artisan.PendingChanges = nil
		artisan.UpdatedAt = now
		if err := repo.SaveProfile(ctx, artisan); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear pending changes")
		}

		mod := moderatorID
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventArtisanChangesReviewed,
			AggregateType: enums.AggregateArtisan,
			AggregateID:   artisan.ID,
			Actor:         outbox.ActorFromID(&mod, enums.UserRoleAdmin),
			OccurredAt:    now,
			Data: payloads.ArtisanChangesReviewedEvent{
				ArtisanID:     artisan.ID,
				ModeratorID:   moderatorID,
				ChangedFields: reviewed,
				ReviewedAt:    now,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) GetPublic(ctx context.Context, value string) (*models.Artisan, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "artisan not found")
	}
	artisan, err := s.repo.FindBySlug(ctx, value)
	if err != nil {
		return nil, loadError(err)
	}
	if err := visibility.EnsureArtisanVisible(artisan); err != nil {
		return nil, err
	}
	return artisan, nil
}

func (s *service) ListPublic(ctx context.Context, params pagination.Params) (pagination.Page[models.Artisan], error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return pagination.Page[models.Artisan]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	page, err := s.repo.ListPublic(ctx, params)
	if err != nil {
		return pagination.Page[models.Artisan]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list artisans")
	}
	return page, nil
}

func (s *service) GetMine(ctx context.Context, userID uuid.UUID) (*models.Artisan, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	artisan, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, loadError(err)
	}
	return artisan, nil
}

func (s *service) CountWithPendingChanges(ctx context.Context) (int64, error) {
	count, err := s.repo.CountWithPendingChanges(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count pending artisan changes")
	}
	return count, nil
}

func (s *service) info(ctx context.Context, artisan *models.Artisan, msg string) {
	if s.logg == nil || artisan == nil {
		return
	}
	ctx = s.logg.WithField(ctx, "artisan_id", artisan.ID.String())
	s.logg.Info(ctx, msg)
}

func loadError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "artisan not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load artisan")
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	return optional(*value)
}
