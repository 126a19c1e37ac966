package pdfsplit

import "errors"

// Sentinel kinds for splitter errors.
var (
	ErrInvalidPageSpan = errors.New("pages per document must be positive")
)
