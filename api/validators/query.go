package validators

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/zm-marketplace-backend/pkg/errors"
)

// ParseQueryInt reads an integer query parameter bounded to [lo, hi],
// returning fallback when the parameter is absent.
func ParseQueryInt(r *http.Request, key string, fallback, lo, hi int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.NewValidation(map[string]string{key: "must be a whole number"})
	}
	if value < lo || value > hi {
		return 0, pkgerrors.NewValidation(map[string]string{key: fmt.Sprintf("must be between %d and %d", lo, hi)})
	}
	return value, nil
}
