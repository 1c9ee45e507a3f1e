package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/zm-marketplace-backend/api/middleware"
	"github.com/angelmondragon/zm-marketplace-backend/api/responses"
	"github.com/angelmondragon/zm-marketplace-backend/api/validators"
	"github.com/angelmondragon/zm-marketplace-backend/internal/artisans"
	pkgerrors "github.com/angelmondragon/zm-marketplace-backend/pkg/errors"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/logger"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/types"
)

type artisanProfileRequest struct {
	BusinessName    string         `json:"business_name" validate:"required,max=150"`
	Email           string         `json:"email" validate:"required,email"`
	Phone           string         `json:"phone" validate:"required,max=32"`
	Bio             *string        `json:"bio,omitempty" validate:"omitempty,max=2000"`
	Craft           *string        `json:"craft,omitempty" validate:"omitempty,max=120"`
	Location        *string        `json:"location,omitempty" validate:"omitempty,max=120"`
	ShippingAddress *types.Address `json:"shipping_address,omitempty"`
}

type artisanProfilePatchRequest struct {
	BusinessName    *string        `json:"business_name,omitempty" validate:"omitempty,max=150"`
	Email           *string        `json:"email,omitempty" validate:"omitempty,email"`
	Phone           *string        `json:"phone,omitempty" validate:"omitempty,max=32"`
	Bio             *string        `json:"bio,omitempty" validate:"omitempty,max=2000"`
	Craft           *string        `json:"craft,omitempty" validate:"omitempty,max=120"`
	Location        *string        `json:"location,omitempty" validate:"omitempty,max=120"`
	ShippingAddress *types.Address `json:"shipping_address,omitempty"`
	IsActive        *bool          `json:"is_active,omitempty"`
}

func requireActor(r *http.Request) (uuid.UUID, error) {
	id, ok := middleware.ActorIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id missing")
	}
	return id, nil
}

// ArtisanList returns approved, active artisans.
func ArtisanList(svc artisans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "artisans service unavailable"))
			return
		}
		params, err := validators.ParsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListPublic(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, artisans.NewPublicPage(page))
	}
}

// ArtisanGet returns a public artisan profile by slug.
func ArtisanGet(svc artisans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "artisans service unavailable"))
			return
		}
		slug := strings.TrimSpace(chi.URLParam(r, "slug"))

		artisan, err := svc.GetPublic(r.Context(), slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, artisans.NewPublicArtisanDTO(artisan))
	}
}

// ArtisanRegister creates the caller's artisan profile, pending approval.
func ArtisanRegister(svc artisans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "artisans service unavailable"))
			return
		}
		userID, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body artisanProfileRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		artisan, err := svc.Register(r.Context(), userID, artisans.RegisterInput{
			BusinessName:    body.BusinessName,
			Email:           body.Email,
			Phone:           body.Phone,
			Bio:             body.Bio,
			Craft:           body.Craft,
			Location:        body.Location,
			ShippingAddress: body.ShippingAddress,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, artisans.NewArtisanDTO(artisan))
	}
}

// ArtisanMe returns the caller's own profile including moderation state.
func ArtisanMe(svc artisans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "artisans service unavailable"))
			return
		}
		userID, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		artisan, err := svc.GetMine(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, artisans.NewArtisanDTO(artisan))
	}
}

// ArtisanUpdate patches the caller's profile. Edits to an approved profile are
// staged as pending changes for review.
func ArtisanUpdate(svc artisans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "artisans service unavailable"))
			return
		}
		userID, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body artisanProfilePatchRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		current, err := svc.GetMine(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		artisan, err := svc.UpdateProfile(r.Context(), current.ID, userID, artisans.ProfilePatch{
			BusinessName:    body.BusinessName,
			Email:           body.Email,
			Phone:           body.Phone,
			Bio:             body.Bio,
			Craft:           body.Craft,
			Location:        body.Location,
			ShippingAddress: body.ShippingAddress,
			IsActive:        body.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, artisans.NewArtisanDTO(artisan))
	}
}

// AdminClearPendingChanges marks an artisan's staged edits as reviewed.
func AdminClearPendingChanges(svc artisans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "artisans service unavailable"))
			return
		}
		adminID, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		artisanID, err := validators.ParseUUIDParam(r, "artisanId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		artisan, err := svc.ClearPendingChanges(r.Context(), artisanID, adminID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, artisans.NewArtisanDTO(artisan))
	}
}
