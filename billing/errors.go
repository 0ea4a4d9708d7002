/*
errors.go - Centralized error types for the billing engine

PURPOSE:
  The engine is total over its input domain on the lenient path (missing
  data defaults to zero), but strict callers get typed errors instead of
  silent zeros. All error types live here for discoverability.

ERROR CATEGORIES:
  1. Calculation errors - unknown model, missing required field, bad range
  2. Lookup errors      - referenced records that do not exist (store layer)

USAGE:
  amt, err := billing.ClientMonthlyBilling(client, 2025, time.March, snap)
  if errors.Is(err, billing.ErrUnknownBillingModel) { ... }
*/
package billing

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrUnknownBillingModel is returned by strict calculators for a model
	// outside the four recognized values. The lenient path yields zero.
	ErrUnknownBillingModel = errors.New("unknown billing model")

	// ErrMissingRequiredField is returned when a field the selected model
	// depends on is unset (e.g. a perpetual client without a deal start).
	ErrMissingRequiredField = errors.New("missing required field")

	// ErrInvalidDateRange is returned when related dates are out of order
	// (e.g. implementation complete before implementation start).
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrClientNotFound is returned when a referenced client doesn't exist.
	ErrClientNotFound = errors.New("client not found")

	// ErrPartnerNotFound is returned when a referenced VAR partner doesn't exist.
	ErrPartnerNotFound = errors.New("var partner not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// UnknownModelError reports the offending model string.
type UnknownModelError struct {
	ClientID ClientID
	Model    BillingModel
}

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("unknown billing model %q for client %s", e.Model, e.ClientID)
}

func (e *UnknownModelError) Unwrap() error { return ErrUnknownBillingModel }

// MissingFieldError reports which field the calculation needed.
type MissingFieldError struct {
	ClientID ClientID
	Field    string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("client %s: required field %s is not set", e.ClientID, e.Field)
}

func (e *MissingFieldError) Unwrap() error { return ErrMissingRequiredField }

// DateRangeError reports a pair of dates that are out of order.
type DateRangeError struct {
	ClientID ClientID
	Field    string
	From     Date
	To       Date
}

func (e *DateRangeError) Error() string {
	return fmt.Sprintf("client %s: %s range invalid (%s .. %s)", e.ClientID, e.Field, e.From, e.To)
}

func (e *DateRangeError) Unwrap() error { return ErrInvalidDateRange }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnknownBillingModel) ||
		errors.Is(err, ErrMissingRequiredField) ||
		errors.Is(err, ErrInvalidDateRange)
}

// IsNotFound reports whether the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrClientNotFound) ||
		errors.Is(err, ErrPartnerNotFound)
}
