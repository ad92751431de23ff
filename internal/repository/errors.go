package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrConflict is returned when a write violates a uniqueness constraint.
	ErrConflict = errors.New("entity already exists")

	// ErrStockInsufficient is returned when a conditional stock decrement matched no row.
	ErrStockInsufficient = errors.New("insufficient stock")

	// ErrStaleOrder is returned when an order changed between read and conditional write.
	ErrStaleOrder = errors.New("order was modified concurrently")
)
