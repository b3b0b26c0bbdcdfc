// Package errs names the error kinds the core distinguishes (§7). These
// are tags, not types: wrap an underlying cause with the matching
// sentinel via fmt.Errorf("...: %w", kind) and test with errors.Is.
package errs

import "errors"

var (
	// MalformedInput marks a caller error that should never be retried:
	// a bad report-key string, an invalid pagination bound, etc.
	MalformedInput = errors.New("malformed input")

	// TransportTransient marks a recoverable failure (deadlock,
	// connection reset, ER-engine timeout): the refresh transaction
	// rolls back and the event lease is left to expire for redelivery.
	TransportTransient = errors.New("transient transport error")

	// TransportPermanent marks a failure that will not resolve on retry
	// (schema mismatch, auth failure): the worker exits.
	TransportPermanent = errors.New("permanent transport error")

	// ConsumerSetup marks a fatal failure initializing the event source.
	ConsumerSetup = errors.New("consumer setup failed")

	// Poison marks an event that has exceeded its transient-retry budget
	// and has been moved to the dead-letter sink.
	Poison = errors.New("poison event")

	// Logic marks an ER engine response that violates an invariant the
	// mart depends on (e.g. a related entity sharing its own id).
	Logic = errors.New("er engine response violates invariant")
)

// Is reports whether err (or any error it wraps) matches kind.
func Is(err, kind error) bool { return errors.Is(err, kind) }
