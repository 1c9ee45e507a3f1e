package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/zm-marketplace-backend/api/responses"
	"github.com/angelmondragon/zm-marketplace-backend/api/validators"
	"github.com/angelmondragon/zm-marketplace-backend/internal/approvals"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/zm-marketplace-backend/pkg/errors"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/logger"
)

type approvalRequest struct {
	Decision string  `json:"decision" validate:"required,oneof=approved rejected"`
	Notes    *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

func parseApprovalKind(r *http.Request) (enums.ApprovalSubject, error) {
	kind, err := enums.ParseApprovalSubject(chi.URLParam(r, "kind"))
	if err != nil {
		return "", pkgerrors.NewValidation(map[string]string{"kind": "must be artisan, product or blog_post"})
	}
	return kind, nil
}

// AdminSetApproval records an approve or reject decision for an artisan,
// product or blog post.
func AdminSetApproval(svc approvals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "approvals service unavailable"))
			return
		}
		moderatorID, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		kind, err := parseApprovalKind(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entityID, err := validators.ParseUUIDParam(r, "entityId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body approvalRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.SetApproval(r.Context(), kind, entityID, enums.ApprovalStatus(body.Decision), moderatorID, body.Notes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := logg.WithEntity(r.Context(), string(kind), entityID.String())
		logg.Info(logg.WithField(ctx, "decision", body.Decision), "approval decided")
		responses.WriteSuccess(w, result)
	}
}

// AdminPendingApprovals lists the approval queue for one kind.
func AdminPendingApprovals(svc approvals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "approvals service unavailable"))
			return
		}
		kind, err := parseApprovalKind(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListPending(r.Context(), kind, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// AdminApprovalCounts reports the size of every approval queue.
func AdminApprovalCounts(svc approvals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "approvals service unavailable"))
			return
		}

		counts, err := svc.PendingCounts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, counts)
	}
}
