package blockcore

import "errors"

// Error kinds per the core's error handling design. All are surfaced to the
// caller; the core never retries internally.
var (
	// ErrMalformedTemplate is returned when a required getblocktemplate
	// field is missing or mistyped.
	ErrMalformedTemplate = errors.New("blockcore: malformed template")

	// ErrMalformedTransaction is returned when a template transaction fails
	// to decode or leaves unread bytes after decode.
	ErrMalformedTransaction = errors.New("blockcore: malformed transaction")

	// ErrWitnessComputationFailed is returned when SegWit is enabled but the
	// witness commitment cannot be computed.
	ErrWitnessComputationFailed = errors.New("blockcore: witness computation failed")

	// ErrAddressMismatch is returned when the configured mining address size
	// does not match the chain profile's address type.
	ErrAddressMismatch = errors.New("blockcore: mining address size mismatch")

	// ErrInvalidState is returned when a Work method is called out of its
	// required lifecycle order (see workState).
	ErrInvalidState = errors.New("blockcore: work in invalid state for operation")
)
