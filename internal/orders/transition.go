package orders

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/zm-marketplace-backend/pkg/db/models"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/enums"
	"github.com/angelmondragon/zm-marketplace-backend/pkg/types"
)

// ReturnWindow is how long after delivery a buyer may request a return.
const ReturnWindow = 7 * 24 * time.Hour

var cancellableStatuses = map[enums.OrderStatus]struct{}{
	enums.OrderStatusPlaced:     {},
	enums.OrderStatusConfirmed:  {},
	enums.OrderStatusProcessing: {},
}

// ApplyStatusTransition moves the order to newStatus in memory. History gains an
// entry only the first time a status is entered, and delivery/cancellation
// timestamps are set once and then kept.
// It reports whether the status value changed.
func ApplyStatusTransition(order *models.Order, newStatus enums.OrderStatus, note *string, actor *uuid.UUID, now time.Time) bool {
	if order == nil {
		return false
	}
	changed := order.Status != newStatus
	order.Status = newStatus

	if !order.StatusHistory.Has(string(newStatus)) {
		entry := types.StatusEntry{
			Status:    string(newStatus),
			Timestamp: now,
			Note:      defaultStatusNote(newStatus),
		}
		if note != nil && *note != "" {
			entry.Note = *note
		}
		if actor != nil && *actor != uuid.Nil {
			id := *actor
			entry.UpdatedBy = &id
		}
		order.StatusHistory = append(order.StatusHistory, entry)
	}

	switch newStatus {
	case enums.OrderStatusDelivered:
		if order.DeliveredAt == nil {
			at := now
			order.DeliveredAt = &at
			if order.ActualDelivery == nil {
				delivered := now
				order.ActualDelivery = &delivered
			}
		}
	case enums.OrderStatusCancelled:
		if order.CancelledAt == nil {
			at := now
			order.CancelledAt = &at
		}
	}
	return changed
}

// SeedHistory returns the initial history of a freshly placed order.
func SeedHistory(actor uuid.UUID, now time.Time) types.StatusHistory {
	order := &models.Order{}
	ApplyStatusTransition(order, enums.OrderStatusPlaced, nil, &actor, now)
	return order.StatusHistory
}

// CanBeCancelled reports whether the order is still early enough to cancel.
func CanBeCancelled(order *models.Order) bool {
	if order == nil {
		return false
	}
	_, ok := cancellableStatuses[order.Status]
	return ok
}

// CanBeReturned reports whether a delivered order is still inside the return window.
func CanBeReturned(order *models.Order, now time.Time) bool {
	return canBeReturnedWithin(order, now, ReturnWindow)
}

func canBeReturnedWithin(order *models.Order, now time.Time, window time.Duration) bool {
	if order == nil || order.Status != enums.OrderStatusDelivered || order.DeliveredAt == nil {
		return false
	}
	return now.Sub(*order.DeliveredAt) <= window
}

func defaultStatusNote(status enums.OrderStatus) string {
	return fmt.Sprintf("Order status updated to %s", status)
}
