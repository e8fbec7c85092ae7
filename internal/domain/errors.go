package domain

import "errors"

// Submission and reconciliation error taxonomy. Handlers map these to HTTP
// statuses; services wrap them with context via fmt.Errorf("...: %w", err).
var (
	// ErrValidation marks bad user input rejected before any network call.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthenticated marks a submission without a local session/user.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrUnauthorized marks a cron trigger with a missing or wrong secret.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRelayRejected marks an explicit decline from the matching engine.
	ErrRelayRejected = errors.New("relay rejected order")

	// ErrTransport marks a network or timeout failure before a response was
	// received from the matching engine.
	ErrTransport = errors.New("relay transport failure")

	// ErrPersistence marks a local write failure after a successful relay
	// call. The remote order is real; this is a reconciliation gap.
	ErrPersistence = errors.New("ledger write failed")

	ErrNotFound    = errors.New("not found")
	ErrRateLimited = errors.New("rate limited")
)
