package mailer

import "errors"

// Sentinel kinds for dispatch errors.
var (
	// ErrOversized is the distinguished transport failure for messages over
	// the provider size limit; it triggers the fallback routing path instead
	// of aborting the run. Transports wrap it into their Send errors.
	ErrOversized = errors.New("message rejected for size")
)
