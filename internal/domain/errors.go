package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for simple absence conditions without extra context.
var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomTypeNotFound  = errors.New("room type not found")
	ErrOperationNotFound = errors.New("operation not found")
	ErrProductNotFound   = errors.New("product not found")
)

// RoomUnavailableError is returned when check-in targets a room that exists
// but is not free.
type RoomUnavailableError struct {
	Number string
	Status RoomStatus
}

func (e *RoomUnavailableError) Error() string {
	return fmt.Sprintf("room %q is not available (status %q)", e.Number, e.Status)
}

// RoomNumberConflictError is returned when a room number is already in use.
type RoomNumberConflictError struct {
	Number string
}

func (e *RoomNumberConflictError) Error() string {
	return fmt.Sprintf("room number %q is already in use", e.Number)
}

// OperationClosedError is returned when a mutation targets an operation that
// has already been checked out.
type OperationClosedError struct {
	ID string
}

func (e *OperationClosedError) Error() string {
	return fmt.Sprintf("operation %q is closed", e.ID)
}

// InsufficientStockError is returned when a consumption would drive a
// product's stock negative. No partial debit occurs.
type InsufficientStockError struct {
	Product   string
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock of %q: requested %d, available %d", e.Product, e.Requested, e.Available)
}

// InvalidQuantityError is returned when a quantity is not a positive integer.
type InvalidQuantityError struct {
	Quantity int64
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be positive, got %d", e.Quantity)
}

// TransitionError is returned when a room status transition is not allowed.
type TransitionError struct {
	Event   Event
	Current RoomStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %q is not valid from status %q", e.Event, e.Current)
}

// StorageError wraps a failure outside domain logic: the transaction could
// not begin, commit, or the engine rejected a statement for non-domain
// reasons. It always means the atomic group was rolled back.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
