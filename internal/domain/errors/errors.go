package errors

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyExists       = errors.New("already exists")
	ErrNotFound            = errors.New("not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInsufficientPoints  = errors.New("insufficient points")
	ErrIllegalArgument     = errors.New("illegal argument")
	ErrBalanceNotZero      = errors.New("loyalty bank balance is not zero")
	ErrLoyaltyBankDeleting = errors.New("loyalty bank is being deleted")
	ErrConcurrencyConflict = errors.New("concurrent modification")
	ErrSagaEnded           = errors.New("saga already ended")

	ErrIllegalLoyaltyBankState = errors.New("illegal loyalty bank state")
	ErrIllegalProjectionState  = errors.New("illegal projection state")
)

// Balance fields reported by IllegalLoyaltyBankStateError.
const (
	FieldPending    = "PENDING"
	FieldEarned     = "EARNED"
	FieldAuthorized = "AUTHORIZED"
	FieldCaptured   = "CAPTURED"
)

// IllegalLoyaltyBankStateError reports the balance a rejected transition would drive negative.
type IllegalLoyaltyBankStateError struct {
	Field string
}

func (e *IllegalLoyaltyBankStateError) Error() string {
	return fmt.Sprintf("%s: %s points would become negative", ErrIllegalLoyaltyBankState, e.Field)
}

func (e *IllegalLoyaltyBankStateError) Is(target error) bool {
	return target == ErrIllegalLoyaltyBankState
}

// IllegalState builds IllegalLoyaltyBankStateError for field.
func IllegalState(field string) error {
	return &IllegalLoyaltyBankStateError{Field: field}
}

// IllegalProjectionStateError signals that a projection diverged from the ledger.
type IllegalProjectionStateError struct {
	Projection string
	Reason     string
}

func (e *IllegalProjectionStateError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrIllegalProjectionState, e.Projection, e.Reason)
}

func (e *IllegalProjectionStateError) Is(target error) bool {
	return target == ErrIllegalProjectionState
}

// IllegalProjection builds IllegalProjectionStateError with formatted reason.
func IllegalProjection(projection, format string, args ...any) error {
	return &IllegalProjectionStateError{Projection: projection, Reason: fmt.Sprintf(format, args...)}
}
