package match

import "errors"

// Sentinel error kinds for this package. These allow errors.Is from callers.
var (
	// ErrSourceDirMissing indicates an assignment's source directory does not
	// exist; the usual remediation is to scaffold the tree first.
	ErrSourceDirMissing = errors.New("assignment source directory not found")
)
