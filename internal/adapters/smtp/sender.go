// Package smtp delivers grade emails over an encrypted SMTP session using
// the provider's submission port.
package smtp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/wneessen/go-mail"
)

// Default transport configuration constants.
const (
	defaultPort = 465
	// defaultMaxMessageBytes approximates the provider's message size limit.
	defaultMaxMessageBytes = 25 * 1024 * 1024
	// base64 expands payloads by 4/3; applied when sizing attachments.
	base64Numerator   = 4
	base64Denominator = 3
)

// Message is one outgoing email. Attachments are absolute file paths.
type Message struct {
	To          []string
	Subject     string
	Body        string
	Attachments []string
}

// Sender sends MIME multipart messages over implicit TLS.
type Sender struct {
	host     string
	port     int
	user     string
	password string
	from     string
	maxBytes int64
}

// NewSender creates a sender for the given relay host. Credentials are
// supplied out-of-band and are never logged.
func NewSender(host, user, password string, opts ...Option) *Sender {
	s := &Sender{
		host:     host,
		port:     defaultPort,
		user:     user,
		password: password,
		from:     user,
		maxBytes: defaultMaxMessageBytes,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Send delivers one message. It returns ErrMessageTooLarge when the message
// exceeds the provider limit, either by pre-flight size estimate or because
// the server rejected it with a 552, so the caller can reroute attachments
// instead of failing the run.
func (s *Sender) Send(ctx context.Context, msg Message) error {
	size, err := s.estimateSize(msg)
	if err != nil {
		return err
	}
	if size > s.maxBytes {
		return fmt.Errorf("%w: estimated %d bytes over limit %d", ErrMessageTooLarge, size, s.maxBytes)
	}

	m := mail.NewMsg()
	if err := m.From(s.from); err != nil {
		return fmt.Errorf("set from address: %w", err)
	}
	if err := m.To(msg.To...); err != nil {
		return fmt.Errorf("set recipients: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	for _, path := range msg.Attachments {
		m.AttachFile(path)
	}

	client, err := mail.NewClient(s.host,
		mail.WithPort(s.port),
		mail.WithSSL(),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.user),
		mail.WithPassword(s.password),
	)
	if err != nil {
		return fmt.Errorf("smtp client for %s: %w", s.host, err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		if isOversizedResponse(err) {
			return fmt.Errorf("%w: %v", ErrMessageTooLarge, err)
		}
		return fmt.Errorf("send to %s: %w", strings.Join(msg.To, ","), err)
	}
	return nil
}

// estimateSize sums attachment sizes with base64 overhead plus the body.
func (s *Sender) estimateSize(msg Message) (int64, error) {
	total := int64(len(msg.Body))
	for _, path := range msg.Attachments {
		info, err := os.Stat(path)
		if err != nil {
			return 0, fmt.Errorf("stat attachment %s: %w", path, err)
		}
		total += info.Size() * base64Numerator / base64Denominator
	}
	return total, nil
}

// isOversizedResponse detects the provider's exceeded-size rejection.
func isOversizedResponse(err error) bool {
	var sendErr *mail.SendError
	if errors.As(err, &sendErr) && sendErr.Reason == mail.ErrSMTPMailFrom {
		// 552 arrives as a MAIL FROM rejection on size-enforcing relays.
		return strings.Contains(err.Error(), "552")
	}
	return strings.Contains(err.Error(), "552") ||
		strings.Contains(strings.ToLower(err.Error()), "exceeds size limit")
}
