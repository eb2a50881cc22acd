package models

import "errors"

// Engine error taxonomy. Handlers map each sentinel to an HTTP status;
// callers check with errors.Is after unwrapping.
var (
	ErrNotFound              = errors.New("not found")
	ErrValidation            = errors.New("validation failed")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrActiveAllocations     = errors.New("hub has active allocations")
)
