package gradebook

import "errors"

// Sentinel kinds for gradebook errors.
var (
	ErrEmptyBook         = errors.New("gradebook is empty or missing required columns")
	ErrUnknownStudent    = errors.New("student not present in gradebook")
	ErrUnknownAssignment = errors.New("assignment column not present in gradebook")
)
