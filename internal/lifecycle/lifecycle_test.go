package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delivery/internal/domain"
)

func newOrder(status domain.OrderStatus) *domain.Order {
	created := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	return &domain.Order{
		ID:          "order-1",
		OrderNumber: "ORD-1",
		Status:      status,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func TestApply_FullHappyPath(t *testing.T) {
	o := newOrder(domain.OrderStatusPending)
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, Apply(o, Transition{Status: domain.OrderStatusAssigned, DriverID: "drv-1"}, now))
	require.NotNil(t, o.AssignedAt)
	require.NotNil(t, o.DriverID)
	assert.Equal(t, "drv-1", *o.DriverID)

	require.NoError(t, Apply(o, Transition{Status: domain.OrderStatusInProgress}, now.Add(time.Minute)))
	require.NotNil(t, o.StartedAt)
	assert.Equal(t, now.Add(time.Minute), *o.StartedAt)

	deliveredAt := now.Add(30 * time.Minute)
	require.NoError(t, Apply(o, Transition{Status: domain.OrderStatusDelivered}, deliveredAt))
	assert.Equal(t, domain.OrderStatusDelivered, o.Status)
	require.NotNil(t, o.DeliveredAt)
	require.NotNil(t, o.CompletedAt)
	assert.Equal(t, deliveredAt, *o.DeliveredAt)
	assert.Equal(t, deliveredAt, o.UpdatedAt)
	assert.Nil(t, o.FailureReason)
}

func TestApply_FailedRequiresReason(t *testing.T) {
	o := newOrder(domain.OrderStatusInProgress)
	before := *o

	err := Apply(o, Transition{Status: domain.OrderStatusFailed}, time.Now())
	assert.ErrorIs(t, err, ErrFailureReasonRequired)
	assert.Equal(t, before, *o, "order must not change on rejected transition")
}

func TestApply_FailedWithoutNote(t *testing.T) {
	o := newOrder(domain.OrderStatusInProgress)

	err := Apply(o, Transition{Status: domain.OrderStatusFailed, FailureReason: "Customer not available"}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusFailed, o.Status)
	require.NotNil(t, o.FailureReason)
	assert.Equal(t, "Customer not available", *o.FailureReason)
	assert.Nil(t, o.FailureNote)
	assert.Nil(t, o.DeliveredAt)
}

func TestApply_FailedWithNote(t *testing.T) {
	o := newOrder(domain.OrderStatusAssigned)

	err := Apply(o, Transition{
		Status:        domain.OrderStatusFailed,
		FailureReason: "Building access denied",
		FailureNote:   "  guard at gate  ",
	}, time.Now())
	require.NoError(t, err)
	require.NotNil(t, o.FailureNote)
	assert.Equal(t, "guard at gate", *o.FailureNote)
}

func TestApply_UnknownFailureReason(t *testing.T) {
	o := newOrder(domain.OrderStatusInProgress)

	err := Apply(o, Transition{Status: domain.OrderStatusFailed, FailureReason: "Dog ate it"}, time.Now())
	assert.ErrorIs(t, err, ErrUnknownFailureReason)
	assert.Equal(t, domain.OrderStatusInProgress, o.Status)
}

func TestApply_TerminalIsFinal(t *testing.T) {
	for _, from := range domain.TerminalOrderStatuses {
		for _, to := range domain.OrderStatuses {
			o := newOrder(from)
			tr := Transition{Status: to, FailureReason: "Other"}

			err := Apply(o, tr, time.Now())
			assert.ErrorIs(t, err, ErrTerminalStatus, "%s -> %s", from, to)
			assert.Equal(t, from, o.Status)
		}
	}
}

func TestApply_RejectsIllegalPairs(t *testing.T) {
	testCases := []struct {
		from domain.OrderStatus
		to   domain.OrderStatus
	}{
		{domain.OrderStatusPending, domain.OrderStatusInProgress},
		{domain.OrderStatusPending, domain.OrderStatusDelivered},
		{domain.OrderStatusPending, domain.OrderStatusPending},
		{domain.OrderStatusAssigned, domain.OrderStatusDelivered},
		{domain.OrderStatusAssigned, domain.OrderStatusPending},
		{domain.OrderStatusInProgress, domain.OrderStatusAssigned},
	}

	for _, tc := range testCases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			o := newOrder(tc.from)
			err := Apply(o, Transition{Status: tc.to}, time.Now())
			assert.ErrorIs(t, err, ErrIllegalTransition)
			assert.Equal(t, tc.from, o.Status)
		})
	}
}

func TestTransition_Validate(t *testing.T) {
	assert.ErrorIs(t, Transition{}.Validate(), ErrMissingStatus)
	assert.ErrorIs(t, Transition{Status: "   "}.Validate(), ErrMissingStatus)
	assert.ErrorIs(t, Transition{Status: "shipped"}.Validate(), ErrInvalidStatus)
	assert.NoError(t, Transition{Status: domain.OrderStatusCancelled}.Validate())
}

func TestApply_CancelledCarriesNoDeliveryOrFailure(t *testing.T) {
	o := newOrder(domain.OrderStatusAssigned)

	require.NoError(t, Apply(o, Transition{Status: domain.OrderStatusCancelled}, time.Now()))
	assert.Nil(t, o.DeliveredAt)
	assert.Nil(t, o.FailureReason)
}

func TestCanTransition_ErrorKinds(t *testing.T) {
	err := CanTransition(domain.OrderStatusDelivered, domain.OrderStatusFailed)
	assert.True(t, errors.Is(err, ErrTerminalStatus))

	err = CanTransition(domain.OrderStatusPending, domain.OrderStatusDelivered)
	assert.True(t, errors.Is(err, ErrIllegalTransition))

	assert.NoError(t, CanTransition(domain.OrderStatusPending, domain.OrderStatusCancelled))
	assert.ElementsMatch(t,
		[]domain.OrderStatus{domain.OrderStatusDelivered, domain.OrderStatusFailed, domain.OrderStatusCancelled},
		Allowed(domain.OrderStatusInProgress))
}
