package orders

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/zm-marketplace-backend/pkg/errors"
)

const (
	orderNumberPrefix = "ZM"
	// MaxOrderSequence is the last sequence that fits the six digit suffix.
	MaxOrderSequence int64 = 999999
)

var orderNumberPattern = regexp.MustCompile(`^ZM-(\d{4})-(\d{6})$`)

// FormatOrderNumber renders the buyer-facing order number for a year sequence.
func FormatOrderNumber(year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%06d", orderNumberPrefix, year, seq)
}

// ParseOrderNumber splits a well-formed order number into year and sequence.
func ParseOrderNumber(value string) (int, int64, error) {
	match := orderNumberPattern.FindStringSubmatch(value)
	if match == nil {
		return 0, 0, fmt.Errorf("invalid order number %q", value)
	}
	year, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid order number year: %w", err)
	}
	seq, err := strconv.ParseInt(match[2], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid order number sequence: %w", err)
	}
	return year, seq, nil
}

// Sequencer hands out order numbers from the per-year order_counters row.
type Sequencer struct{}

// NewSequencer returns the counter-backed order number allocator.
func NewSequencer() Sequencer {
	return Sequencer{}
}

// Next increments the counter for year and returns the formatted number. It
// must run inside the transaction that inserts the order so an aborted
// checkout does not leave a gap.
func (Sequencer) Next(ctx context.Context, tx *gorm.DB, year int) (string, error) {
	if tx == nil {
		return "", fmt.Errorf("transaction required for order numbering")
	}
	var seq int64
	err := tx.WithContext(ctx).Raw(`
		INSERT INTO order_counters (year, seq, updated_at)
		VALUES (?, 1, CURRENT_TIMESTAMP)
		ON CONFLICT (year) DO UPDATE
		SET seq = order_counters.seq + 1,
			updated_at = CURRENT_TIMESTAMP
		RETURNING seq
	`, year).Scan(&seq).Error
	if err != nil {
		return "", err
	}
	if seq <= 0 {
		return "", fmt.Errorf("order counter returned invalid sequence %d", seq)
	}
	if seq > MaxOrderSequence {
		return "", pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("order numbers for %d are exhausted", year))
	}
	return FormatOrderNumber(year, seq), nil
}
