package smtp

import "errors"

// Sentinel kinds for transport errors.
var (
	// ErrMessageTooLarge is the distinguished failure for messages exceeding
	// the provider's size limit. Callers branch on it with errors.Is.
	ErrMessageTooLarge = errors.New("message exceeds provider size limit")
)
