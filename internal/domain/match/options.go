package match

import (
	"github.com/courseops/taflow/pkg/logger"
)

// Option applies a configuration option to the Distributor.
type Option func(*Distributor)

// WithThreshold sets the minimum similarity score for a valid match.
func WithThreshold(threshold int) Option {
	return func(d *Distributor) {
		if threshold > 0 {
			d.threshold = threshold
		}
	}
}

// WithCopy toggles physical placement of matched files. When off, matches
// are only reported.
func WithCopy(copy bool) Option {
	return func(d *Distributor) {
		d.copy = copy
	}
}

// WithLogger sets a custom logger for the distributor.
func WithLogger(l logger.Logger) Option {
	return func(d *Distributor) {
		if l != nil {
			d.logger = l
		}
	}
}
