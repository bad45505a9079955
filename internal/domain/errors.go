package domain

import "errors"

// Sentinel errors used throughout the application.
// Handlers translate these to HTTP status codes via a single mapError function.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidAction  = errors.New("invalid action: must be create, update, or delete")
	ErrInvalidEntity  = errors.New("invalid entity: must be product, bill, customer, or expense")
	ErrInvalidPayload = errors.New("payload must be valid JSON")
	ErrQueueFull      = errors.New("queue is at capacity, try again later")
	ErrRejected       = errors.New("mutation rejected by acceptor")
)
