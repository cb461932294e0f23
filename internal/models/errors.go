package models

import "errors"

// Domain error taxonomy. Services wrap these with operation context via
// fmt.Errorf("%s: %w", op, err); handlers translate them to HTTP statuses.
var (
	// ErrValidation marks malformed or out-of-range input (negative quantity,
	// percent outside 0-100, missing reject comment, ...).
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a missing customer/machine/auxiliary-type/quotation.
	ErrNotFound = errors.New("not found")
	// ErrQuotationLocked marks a structural edit attempted while the quotation
	// is outside Draft/Rejected.
	ErrQuotationLocked = errors.New("quotation locked")
	// ErrInvalidTransition marks a workflow action not valid from the current status.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrForbidden marks an actor lacking the role required for an action.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict marks a unique constraint violation (duplicate quote number,
	// duplicate master code).
	ErrConflict = errors.New("conflict")
)
