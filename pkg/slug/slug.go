package slug

import (
	"strings"

	"github.com/google/uuid"
	gosimple "github.com/gosimple/slug"
)

const maxLength = 80

// Make transliterates value to ASCII and joins its words with dashes, so
// Devanagari or Tamil names still produce a usable slug.
func Make(value string) string {
	out := gosimple.Make(strings.TrimSpace(value))
	if len(out) > maxLength {
		out = strings.TrimRight(out[:maxLength], "-_")
	}
	return out
}

// WithSuffix appends a short random token, used when the plain slug is taken.
func WithSuffix(base string) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	if base == "" {
		return token
	}
	return base + "-" + token
}
