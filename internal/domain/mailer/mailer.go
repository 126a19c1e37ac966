// Package mailer implements the throttled grade dispatcher: per-student
// email body selection, rate pacing, and oversized-attachment fallback
// routing to shared storage.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/courseops/taflow/internal/adapters/storage"
	"github.com/courseops/taflow/internal/domain/model"
	"github.com/courseops/taflow/pkg/logger"
	"github.com/courseops/taflow/pkg/metrics"
)

// defaultInterval paces dispatch to stay under the provider's sending rate.
const defaultInterval = 5 * time.Second

// Message is one outgoing email handed to the transport.
type Message struct {
	To          []string
	Subject     string
	Body        string
	Attachments []string
}

// Transport delivers one message. Implementations return ErrOversized
// (wrapped) when the message exceeds the provider's size limit; any other
// error is treated as unrecoverable by the dispatch loop.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// GradeSource supplies per-student grades and per-assignment summary
// statistics from the external grade store.
type GradeSource interface {
	Grade(studentID, assignment string) (float64, error)
	Summary(assignment string) (string, error)
}

// Confirmer asks the operator a yes/no question. Injected so the dispatch
// logic stays free of terminal interaction.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmerFunc adapts a function to the Confirmer interface.
type ConfirmerFunc func(prompt string) bool

func (f ConfirmerFunc) Confirm(prompt string) bool { return f(prompt) }

// Outcome tags the result of one dispatch.
type Outcome int

const (
	// Sent means the feedback email went out with all attachments.
	Sent Outcome = iota
	// SentWithoutAttachment means the student had no submission files.
	SentWithoutAttachment
	// OversizedRejected means the transport refused the attachments and the
	// fallback notice plus shared-storage copy was performed instead.
	OversizedRejected
	// TransportError means an unrecovered transport failure aborted the run.
	TransportError
)

// String returns the metrics label for the outcome.
func (o Outcome) String() string {
	switch o {
	case Sent:
		return "sent"
	case SentWithoutAttachment:
		return "sent_without_attachment"
	case OversizedRejected:
		return "oversized_rejected"
	case TransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

// Dispatch records one (assignment, student) send for the caller's log.
type Dispatch struct {
	Assignment string
	StudentID  string
	Outcome    Outcome
	Files      []string
}

// Mailer sends grade feedback emails, strictly sequentially and paced.
type Mailer struct {
	transport Transport
	grades    GradeSource
	confirm   Confirmer

	projectRoot  string
	fallbackRoot string
	courseCode   string
	taName       string
	interval     time.Duration
	sleep        func(time.Duration)
	logger       logger.Logger
}

// New creates a mailer. Transport, grade source and confirmer are required;
// paths and cadence come from options.
func New(transport Transport, grades GradeSource, confirm Confirmer, opts ...Option) *Mailer {
	m := &Mailer{
		transport: transport,
		grades:    grades,
		confirm:   confirm,
		interval:  defaultInterval,
		sleep:     time.Sleep,
		logger:    logger.Get().Named("mailer"),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// SendGrades emails every student their grade for every listed assignment.
// A declined confirmation aborts with no side effects. The pacing sleep runs
// before each assignment's first student, so the operator can still
// interrupt the process before any mail leaves, and again after every
// student to bound the overall send rate.
func (m *Mailer) SendGrades(ctx context.Context, students []model.Student, assignments []string) ([]Dispatch, error) {
	prompt := fmt.Sprintf("Do you want to send grades for %s?", strings.Join(assignments, ", "))
	if !m.confirm.Confirm(prompt) {
		m.logger.Info(ctx, "send declined by operator, nothing sent")
		return nil, nil
	}

	metrics.SetSendInProgress(true)
	defer metrics.SetSendInProgress(false)

	runID := uuid.NewString()
	m.logger.Info(ctx, "send run starting",
		logger.String("run_id", runID),
		logger.Int("students", len(students)),
		logger.Int("assignments", len(assignments)),
	)

	var dispatches []Dispatch
	for _, assignment := range assignments {
		m.logger.Info(ctx, "sending assignment grades", logger.String("assignment", assignment))

		summary, err := m.grades.Summary(assignment)
		if err != nil {
			return dispatches, fmt.Errorf("summary stats for %s: %w", assignment, err)
		}
		subject := fmt.Sprintf("%s %s Feedback", m.courseCode, strings.ReplaceAll(assignment, "_", " "))

		// Last chance to interrupt before the first email of the assignment.
		m.sleep(m.interval)

		for _, student := range students {
			if err := ctx.Err(); err != nil {
				return dispatches, fmt.Errorf("send interrupted: %w", err)
			}

			d, err := m.sendOne(ctx, student, assignment, subject, summary)
			dispatches = append(dispatches, d)
			metrics.RecordDispatch(d.Outcome.String())
			if err != nil {
				return dispatches, err
			}

			m.sleep(m.interval)
		}
	}

	m.logger.Info(ctx, "send run finished",
		logger.String("run_id", runID),
		logger.Int("dispatched", len(dispatches)),
	)
	return dispatches, nil
}

// sendOne handles a single (student, assignment) pair: grade lookup, body
// selection, delivery, and fallback routing on an oversized rejection.
func (m *Mailer) sendOne(ctx context.Context, student model.Student, assignment, subject, summary string) (Dispatch, error) {
	d := Dispatch{Assignment: assignment, StudentID: student.ID}

	grade, err := m.grades.Grade(student.ID, assignment)
	if err != nil {
		d.Outcome = TransportError
		return d, fmt.Errorf("grade for %s in %s: %w", student.ID, assignment, err)
	}

	data := bodyData{
		Assignment: strings.ReplaceAll(assignment, "_", " "),
		FirstName:  student.FirstName,
		Grade:      round2(grade),
		Summary:    summary,
		TAName:     m.taName,
	}

	dir := storage.AssignmentDir(m.projectRoot, student, assignment)
	if err := storage.NormalizeDir(dir); err != nil {
		d.Outcome = TransportError
		return d, fmt.Errorf("normalize submissions for %s: %w", student.DirName(), err)
	}
	files, err := storage.ListPDFs(dir)
	if err != nil {
		d.Outcome = TransportError
		return d, fmt.Errorf("list submissions for %s: %w", student.DirName(), err)
	}
	d.Files = files

	if len(files) == 0 {
		m.logger.Info(ctx, "no submission files found",
			logger.String("student", student.Email),
			logger.String("assignment", assignment),
		)
		if err := m.transport.Send(ctx, Message{To: []string{student.Email}, Subject: subject, Body: noSubmissionBody(data)}); err != nil {
			d.Outcome = TransportError
			return d, fmt.Errorf("send to %s: %w", student.Email, err)
		}
		d.Outcome = SentWithoutAttachment
		return d, nil
	}

	err = m.transport.Send(ctx, Message{
		To:          []string{student.Email},
		Subject:     subject,
		Body:        feedbackBody(data),
		Attachments: files,
	})
	switch {
	case err == nil:
		m.logger.Info(ctx, "email sent",
			logger.String("student", student.Email),
			logger.String("assignment", assignment),
			logger.Int("attachments", len(files)),
		)
		d.Outcome = Sent
		return d, nil

	case errors.Is(err, ErrOversized):
		m.logger.Warn(ctx, "attachments exceed provider size limit, rerouting",
			logger.String("student", student.Email),
			logger.String("assignment", assignment),
		)
		m.sleep(m.interval)
		if err := m.transport.Send(ctx, Message{To: []string{student.Email}, Subject: subject, Body: largeFileBody(data)}); err != nil {
			d.Outcome = TransportError
			return d, fmt.Errorf("send fallback notice to %s: %w", student.Email, err)
		}
		dest, err := storage.MirrorToFallback(m.fallbackRoot, student, assignment, files)
		if err != nil {
			d.Outcome = TransportError
			return d, fmt.Errorf("mirror to fallback for %s: %w", student.DirName(), err)
		}
		for range files {
			metrics.RecordFallbackCopy()
		}
		m.logger.Info(ctx, "files copied to shared storage",
			logger.String("student", student.Email),
			logger.String("dest", dest),
		)
		d.Outcome = OversizedRejected
		return d, nil

	default:
		d.Outcome = TransportError
		return d, fmt.Errorf("send to %s: %w", student.Email, err)
	}
}
