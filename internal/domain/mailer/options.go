package mailer

import (
	"time"

	"github.com/courseops/taflow/pkg/logger"
)

// Option applies a configuration option to the Mailer.
type Option func(*Mailer)

// WithProjectRoot sets the root of the per-student assignment tree.
func WithProjectRoot(root string) Option {
	return func(m *Mailer) {
		m.projectRoot = root
	}
}

// WithFallbackRoot sets the shared-storage root used when attachments are
// rejected for size.
func WithFallbackRoot(root string) Option {
	return func(m *Mailer) {
		m.fallbackRoot = root
	}
}

// WithCourseCode sets the course code used in subject lines.
func WithCourseCode(code string) Option {
	return func(m *Mailer) {
		m.courseCode = code
	}
}

// WithTAName sets the signature name in email bodies.
func WithTAName(name string) Option {
	return func(m *Mailer) {
		m.taName = name
	}
}

// WithInterval sets the pacing delay between dispatch units.
func WithInterval(d time.Duration) Option {
	return func(m *Mailer) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithSleep replaces the blocking sleep, for tests.
func WithSleep(sleep func(time.Duration)) Option {
	return func(m *Mailer) {
		if sleep != nil {
			m.sleep = sleep
		}
	}
}

// WithLogger sets a custom logger for the mailer.
func WithLogger(l logger.Logger) Option {
	return func(m *Mailer) {
		if l != nil {
			m.logger = l
		}
	}
}
