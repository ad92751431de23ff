package service

import "errors"

var (
	// ErrValidation wraps every malformed-input error.
	ErrValidation = errors.New("validation failed")

	// ErrTotalsMismatch is returned when client totals disagree with the server's computation.
	ErrTotalsMismatch = errors.New("submitted totals do not match computed totals")

	// ErrOrderAlreadyPaid is returned when confirming payment for a paid order.
	ErrOrderAlreadyPaid = errors.New("order already paid")

	// ErrOrderNotPaid is returned when a receipt is requested for an unpaid order.
	ErrOrderNotPaid = errors.New("order has not been paid")

	// ErrPaymentInProgress is returned when another confirmation holds the order's lock.
	ErrPaymentInProgress = errors.New("payment confirmation already in progress")
)
