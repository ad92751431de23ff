// Package lifecycle holds the order status state machine shared by the
// backend and the driver client.
package lifecycle

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"delivery/internal/domain"
)

var (
	// ErrMissingStatus is returned when a transition carries no target status.
	ErrMissingStatus = errors.New("status is required")

	// ErrInvalidStatus is returned when the target status is outside the closed set.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrFailureReasonRequired is returned when moving to failed without a reason.
	ErrFailureReasonRequired = errors.New("failure reason is required")

	// ErrUnknownFailureReason is returned when the reason is not in the fixed list.
	ErrUnknownFailureReason = errors.New("unknown failure reason")

	// ErrTerminalStatus is returned when the order is already delivered, failed or cancelled.
	ErrTerminalStatus = errors.New("order is in a terminal status")

	// ErrIllegalTransition is returned for any other disallowed status pair.
	ErrIllegalTransition = errors.New("illegal status transition")
)

// validTransitions defines the allowed forward moves. Terminal statuses have none.
var validTransitions = map[domain.OrderStatus][]domain.OrderStatus{
	domain.OrderStatusPending:    {domain.OrderStatusAssigned, domain.OrderStatusFailed, domain.OrderStatusCancelled},
	domain.OrderStatusAssigned:   {domain.OrderStatusInProgress, domain.OrderStatusFailed, domain.OrderStatusCancelled},
	domain.OrderStatusInProgress: {domain.OrderStatusDelivered, domain.OrderStatusFailed, domain.OrderStatusCancelled},
	domain.OrderStatusDelivered:  {},
	domain.OrderStatusFailed:     {},
	domain.OrderStatusCancelled:  {},
}

// Transition is a requested status change.
type Transition struct {
	Status        domain.OrderStatus
	FailureReason string
	FailureNote   string
	// DriverID is recorded on the order when moving to assigned.
	DriverID string
}

// Validate checks the transition on its own, without looking at an order.
func (t Transition) Validate() error {
	if strings.TrimSpace(string(t.Status)) == "" {
		return ErrMissingStatus
	}
	if !t.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, t.Status)
	}
	if t.Status == domain.OrderStatusFailed {
		reason := strings.TrimSpace(t.FailureReason)
		if reason == "" {
			return ErrFailureReasonRequired
		}
		if !domain.IsFailureReason(reason) {
			return fmt.Errorf("%w: %q", ErrUnknownFailureReason, reason)
		}
	}
	return nil
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to domain.OrderStatus) error {
	if from.Terminal() {
		return fmt.Errorf("%w: %s", ErrTerminalStatus, from)
	}
	for _, s := range validTransitions[from] {
		if s == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
}

// Allowed returns the statuses reachable from s.
func Allowed(s domain.OrderStatus) []domain.OrderStatus {
	return append([]domain.OrderStatus(nil), validTransitions[s]...)
}

// Apply moves the order to the requested status and stamps the matching
// timestamps. The order is left untouched when any check fails.
func Apply(o *domain.Order, t Transition, now time.Time) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if err := CanTransition(o.Status, t.Status); err != nil {
		return err
	}

	ts := now
	o.Status = t.Status
	o.UpdatedAt = ts

	switch t.Status {
	case domain.OrderStatusAssigned:
		o.AssignedAt = &ts
		if t.DriverID != "" {
			driverID := t.DriverID
			o.DriverID = &driverID
		}
	case domain.OrderStatusInProgress:
		o.StartedAt = &ts
	case domain.OrderStatusDelivered:
		o.DeliveredAt = &ts
		completed := ts
		o.CompletedAt = &completed
	case domain.OrderStatusFailed:
		reason := strings.TrimSpace(t.FailureReason)
		o.FailureReason = &reason
		o.FailureNote = nil
		if note := strings.TrimSpace(t.FailureNote); note != "" {
			o.FailureNote = &note
		}
	}

	return nil
}
