// Package order implements the purchase lifecycle: placement, status
// transitions, cancellation and delivery estimation.
package order

import (
	"time"

	apperrors "github.com/louisbranch/freshcart/internal/platform/errors"
)

// Status is the lifecycle state of an order.
type Status string

const (
	// StatusPending is the initial state after placement.
	StatusPending Status = "pending"
	// StatusProcessing means the vendor accepted the order.
	StatusProcessing Status = "processing"
	// StatusOutForDelivery means the order left the store.
	StatusOutForDelivery Status = "out_for_delivery"
	// StatusDelivered is the terminal success state.
	StatusDelivered Status = "delivered"
	// StatusCancelled is the terminal customer-cancelled state.
	StatusCancelled Status = "cancelled"
)

// CancelWindow is how long after placement a pending order may be cancelled.
const CancelWindow = 10 * time.Minute

// Delivery estimation: a fixed preparation time plus a per-line picking
// allowance, never promising more than the cap.
const (
	deliveryBase    = 30 * time.Minute
	deliveryPerLine = 5 * time.Minute
	deliveryCap     = 2 * time.Hour
)

// ParseStatus validates a wire status value.
func ParseStatus(value string) (Status, error) {
	status := Status(value)
	switch status {
	case StatusPending, StatusProcessing, StatusOutForDelivery, StatusDelivered, StatusCancelled:
		return status, nil
	}
	return "", apperrors.WithMetadata(apperrors.CodeOrderInvalidStatus, "unknown order status", map[string]string{
		"status": value,
	})
}

// Terminal reports whether no further transition can leave this status.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanAdvance reports whether a vendor may move an order from one status to
// the next. Only single forward steps are allowed; cancellation is a
// separate customer operation.
func CanAdvance(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusProcessing
	case StatusProcessing:
		return to == StatusOutForDelivery
	case StatusOutForDelivery:
		return to == StatusDelivered
	}
	return false
}

// Cancellable reports whether an order in the given status, created at the
// given time, may still be cancelled. The window is strict: an order exactly
// CancelWindow old is no longer cancellable.
func Cancellable(status Status, createdAt, now time.Time) bool {
	if status != StatusPending {
		return false
	}
	return now.Sub(createdAt) < CancelWindow
}

// EstimateDelivery computes the promised delivery time for an order placed
// at createdAt with the given number of distinct lines.
func EstimateDelivery(createdAt time.Time, lines int) time.Time {
	lead := deliveryBase + time.Duration(lines)*deliveryPerLine
	if lead > deliveryCap {
		lead = deliveryCap
	}
	return createdAt.Add(lead)
}
