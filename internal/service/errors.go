package service

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AmountEpsilon is the tolerance for monetary conservation checks. A payment
// or allocation set whose absolute difference from its target is below this
// is accepted; anything at or above it is rejected, never rounded.
var AmountEpsilon = decimal.NewFromFloat(0.01)

// ValidationError reports a missing or contradictory user-supplied field.
// User-correctable; handlers surface the message verbatim.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// AmountMismatchError is returned when split components do not sum to the
// covered invoice total. It always carries the numeric difference so the
// caller can adjust instead of guessing.
type AmountMismatchError struct {
	Expected decimal.Decimal
	Actual   decimal.Decimal
}

func (e *AmountMismatchError) Difference() decimal.Decimal {
	return e.Actual.Sub(e.Expected)
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("split amounts (%s) do not match invoice total (%s), difference %s",
		e.Actual.StringFixed(2), e.Expected.StringFixed(2), e.Difference().StringFixed(2))
}

// AllocationMismatchError is returned when a cross-store payment is over- or
// under-allocated across its target stores.
type AllocationMismatchError struct {
	Expected   decimal.Decimal
	Actual     decimal.Decimal
	Difference decimal.Decimal
}

func (e *AllocationMismatchError) Error() string {
	return fmt.Sprintf("allocations (%s) do not match payment amount (%s), difference %s",
		e.Actual.StringFixed(2), e.Expected.StringFixed(2), e.Difference.StringFixed(2))
}

// OverDeliveryError is returned when a delivery exceeds the pending quantity
// on the purchase-order line. The operation has no partial effect.
type OverDeliveryError struct {
	OrderItemID string
	Requested   int
	Pending     int
}

func (e *OverDeliveryError) Error() string {
	return fmt.Sprintf("cannot deliver %d units: only %d pending on order item %s",
		e.Requested, e.Pending, e.OrderItemID)
}

// NotFoundError reports a stale or unknown id.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func notFound(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// ConflictError reports that a concurrent mutation won the race (e.g. the
// invoice was already paid by another request). The caller must reload.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func conflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}
