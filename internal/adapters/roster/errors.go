package roster

import "errors"

// Sentinel kinds for roster errors.
var (
	ErrEmptyRoster     = errors.New("roster contains no students")
	ErrMalformedRoster = errors.New("malformed roster file")
)
