package artisans

import (
	"sort"
	"strings"

	"github.com/angelmondragon/zm-marketplace-backend/pkg/db/models"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/types"
	"github.com/go-playground/validator/v10"
)

// Protected profile fields. Edits to these by an approved artisan are recorded
// as pending changes for administrator review.
const (
	FieldBusinessName    = "business_name"
	FieldEmail           = "email"
	FieldPhone           = "phone"
	FieldShippingAddress = "shipping_address"
)

var protectedFields = map[string]struct{}{
	FieldBusinessName:    {},
	FieldEmail:           {},
	FieldPhone:           {},
	FieldShippingAddress: {},
}

// IsProtected reports whether field needs review once the artisan is approved.
func IsProtected(field string) bool {
	_, ok := protectedFields[field]
	return ok
}

// applyPatch writes the non-nil patch fields onto artisan and returns the
// protected fields whose value actually changed, with their new values.
func applyPatch(artisan *models.Artisan, patch ProfilePatch) ([]string, map[string]any) {
	changed := map[string]any{}

	if patch.BusinessName != nil {
		if v := strings.TrimSpace(*patch.BusinessName); v != artisan.BusinessName {
			artisan.BusinessName = v
			changed[FieldBusinessName] = v
		}
	}
	if patch.Email != nil {
		if v := normalizeEmail(*patch.Email); v != artisan.Email {
			artisan.Email = v
			changed[FieldEmail] = v
		}
	}
	if patch.Phone != nil {
		if v := strings.TrimSpace(*patch.Phone); v != artisan.Phone {
			artisan.Phone = v
			changed[FieldPhone] = v
		}
	}
	if patch.ShippingAddress != nil {
		next := *patch.ShippingAddress
		if artisan.ShippingAddress == nil || !artisan.ShippingAddress.Equal(next) {
			artisan.ShippingAddress = &next
			changed[FieldShippingAddress] = next
		}
	}
	if patch.Bio != nil {
		artisan.Bio = optional(*patch.Bio)
	}
	if patch.Craft != nil {
		artisan.Craft = optional(*patch.Craft)
	}
	if patch.Location != nil {
		artisan.Location = optional(*patch.Location)
	}
	if patch.IsActive != nil {
		artisan.IsActive = *patch.IsActive
	}

	fields := make([]string, 0, len(changed))
	for field := range changed {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields, changed
}

func validatePatch(patch ProfilePatch) map[string]string {
	fields := map[string]string{}
	if patch.BusinessName != nil && strings.TrimSpace(*patch.BusinessName) == "" {
		fields[FieldBusinessName] = "business name cannot be blank"
	}
	if patch.Email != nil && !looksLikeEmail(normalizeEmail(*patch.Email)) {
		fields[FieldEmail] = "email must be a valid address"
	}
	if patch.Phone != nil && strings.TrimSpace(*patch.Phone) == "" {
		fields[FieldPhone] = "phone cannot be blank"
	}
	if patch.ShippingAddress != nil {
		addressFields(fields, *patch.ShippingAddress)
	}
	return fields
}

func addressFields(fields map[string]string, addr types.Address) {
	for _, name := range addr.MissingFields() {
		fields[FieldShippingAddress+"."+name] = "is required"
	}
}

func normalizeEmail(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

var fieldValidator = validator.New()

func looksLikeEmail(v string) bool {
	return fieldValidator.Var(v, "required,email") == nil
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
