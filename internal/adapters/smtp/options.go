package smtp

// Option applies a configuration option to the Sender.
type Option func(*Sender)

// WithPort sets the submission port.
func WithPort(port int) Option {
	return func(s *Sender) {
		if port > 0 {
			s.port = port
		}
	}
}

// WithFrom overrides the from address (defaults to the account user).
func WithFrom(addr string) Option {
	return func(s *Sender) {
		if addr != "" {
			s.from = addr
		}
	}
}

// WithMaxMessageBytes sets the provider's message size limit used by the
// pre-flight check.
func WithMaxMessageBytes(limit int64) Option {
	return func(s *Sender) {
		if limit > 0 {
			s.maxBytes = limit
		}
	}
}
