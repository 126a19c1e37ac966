package mailer_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/courseops/taflow/internal/adapters/storage"
	"github.com/courseops/taflow/internal/domain/mailer"
	"github.com/courseops/taflow/internal/domain/model"
	"github.com/courseops/taflow/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(""); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

var (
	smith = model.Student{FirstName: "John", LastName: "Smith", ID: "12345", Email: "john@example.edu"}
	doe   = model.Student{FirstName: "Jane", LastName: "Doe", ID: "67890", Email: "jane@example.edu"}
)

// fakeTransport records every message and delegates failures to fail.
type fakeTransport struct {
	sent []mailer.Message
	fail func(msg mailer.Message) error
}

func (f *fakeTransport) Send(_ context.Context, msg mailer.Message) error {
	if f.fail != nil {
		if err := f.fail(msg); err != nil {
			return err
		}
	}
	f.sent = append(f.sent, msg)
	return nil
}

// fakeGrades serves fixed grades and one summary string.
type fakeGrades struct {
	grades map[string]float64 // studentID -> grade
}

func (f *fakeGrades) Grade(studentID, _ string) (float64, error) {
	g, ok := f.grades[studentID]
	if !ok {
		return 0, fmt.Errorf("unknown student %s", studentID)
	}
	return g, nil
}

func (f *fakeGrades) Summary(string) (string, error) {
	return "mean      80.00\nmedian    85.00\nmax       100.00", nil
}

// fakeClock records requested sleep durations instead of blocking.
type fakeClock struct {
	slept []time.Duration
}

func (f *fakeClock) sleep(d time.Duration) { f.slept = append(f.slept, d) }

func yes(string) bool { return true }

// setup scaffolds a project tree and per-student submission files.
func setup(t *testing.T, assignment string, files map[string][]string) (projectRoot, fallbackRoot string) {
	t.Helper()
	projectRoot = t.TempDir()
	fallbackRoot = t.TempDir()
	students := []model.Student{smith, doe}
	if err := storage.Scaffold(projectRoot, students, []string{assignment}); err != nil {
		t.Fatal(err)
	}
	for _, s := range students {
		for _, name := range files[s.ID] {
			p := filepath.Join(storage.AssignmentDir(projectRoot, s, assignment), name)
			if err := os.WriteFile(p, []byte("pdf"), 0o644); err != nil {
				t.Fatal(err)
			}
		}
	}
	return projectRoot, fallbackRoot
}

func newMailer(t *testing.T, transport mailer.Transport, confirm func(string) bool, clock *fakeClock, projectRoot, fallbackRoot string) *mailer.Mailer {
	t.Helper()
	return mailer.New(
		transport,
		&fakeGrades{grades: map[string]float64{smith.ID: 85.456, doe.ID: 92}},
		mailer.ConfirmerFunc(confirm),
		mailer.WithProjectRoot(projectRoot),
		mailer.WithFallbackRoot(fallbackRoot),
		mailer.WithCourseCode("CS101"),
		mailer.WithTAName("Deniz"),
		mailer.WithInterval(time.Second),
		mailer.WithSleep(clock.sleep),
	)
}

func TestDeclinedConfirmationAborts(t *testing.T) {
	Convey("Given the operator declines the confirmation", t, func() {
		projectRoot, fallbackRoot := setup(t, "Homework_1", nil)
		transport := &fakeTransport{}
		clock := &fakeClock{}

		m := newMailer(t, transport, func(prompt string) bool {
			So(prompt, ShouldContainSubstring, "Homework_1")
			return false
		}, clock, projectRoot, fallbackRoot)

		dispatches, err := m.SendGrades(context.Background(), []model.Student{smith, doe}, []string{"Homework_1"})

		Convey("Then nothing is sent and no time is spent", func() {
			So(err, ShouldBeNil)
			So(dispatches, ShouldBeNil)
			So(transport.sent, ShouldBeEmpty)
			So(clock.slept, ShouldBeEmpty)
		})
	})
}

func TestBodySelection(t *testing.T) {
	Convey("Given one student with files and one without", t, func() {
		projectRoot, fallbackRoot := setup(t, "Homework_1", map[string][]string{
			smith.ID: {"john_smith_report.pdf"},
		})
		transport := &fakeTransport{}
		clock := &fakeClock{}
		m := newMailer(t, transport, yes, clock, projectRoot, fallbackRoot)

		dispatches, err := m.SendGrades(context.Background(), []model.Student{smith, doe}, []string{"Homework_1"})
		So(err, ShouldBeNil)
		So(len(dispatches), ShouldEqual, 2)
		So(len(transport.sent), ShouldEqual, 2)

		Convey("Then the submitting student gets the feedback body with attachments", func() {
			msg := transport.sent[0]
			So(msg.To, ShouldResemble, []string{smith.Email})
			So(msg.Subject, ShouldEqual, "CS101 Homework 1 Feedback")
			So(msg.Body, ShouldContainSubstring, "Dear John,")
			So(msg.Body, ShouldContainSubstring, "Attached you can find your Homework 1 feedback.")
			So(msg.Body, ShouldContainSubstring, "Your grade is 85.46.")
			So(msg.Body, ShouldContainSubstring, "median")
			So(len(msg.Attachments), ShouldEqual, 1)
			So(dispatches[0].Outcome, ShouldEqual, mailer.Sent)
		})

		Convey("Then the non-submitting student gets the no-submission body", func() {
			msg := transport.sent[1]
			So(msg.To, ShouldResemble, []string{doe.Email})
			So(msg.Body, ShouldContainSubstring, "It looks like you did not submit any files.")
			So(msg.Attachments, ShouldBeEmpty)
			So(dispatches[1].Outcome, ShouldEqual, mailer.SentWithoutAttachment)
		})
	})
}

func TestOversizedFallbackRouting(t *testing.T) {
	Convey("Given a student whose three files exceed the size limit", t, func() {
		projectRoot, fallbackRoot := setup(t, "Homework_2", map[string][]string{
			doe.ID: {"a.pdf", "b.pdf", "c.pdf"},
		})
		transport := &fakeTransport{
			fail: func(msg mailer.Message) error {
				if len(msg.Attachments) > 0 {
					return fmt.Errorf("552 too big: %w", mailer.ErrOversized)
				}
				return nil
			},
		}
		clock := &fakeClock{}
		m := newMailer(t, transport, yes, clock, projectRoot, fallbackRoot)

		dispatches, err := m.SendGrades(context.Background(), []model.Student{doe}, []string{"Homework_2"})
		So(err, ShouldBeNil)

		Convey("Then the substitute notice is sent without attachments", func() {
			So(len(transport.sent), ShouldEqual, 1)
			msg := transport.sent[0]
			So(msg.Attachments, ShouldBeEmpty)
			So(msg.Body, ShouldContainSubstring, "Because your files exceed the email size limit")
			So(dispatches[0].Outcome, ShouldEqual, mailer.OversizedRejected)
		})

		Convey("Then all three files are mirrored to shared storage", func() {
			dir := filepath.Join(fallbackRoot, "Doe_67890", "Homework_2")
			entries, err := os.ReadDir(dir)
			So(err, ShouldBeNil)
			So(len(entries), ShouldEqual, 3)
		})

		Convey("Then an extra pacing sleep ran before the substitute send", func() {
			// before-first + after-rejection + after-student = 3
			So(len(clock.slept), ShouldEqual, 3)
		})
	})
}

func TestUnrecoveredTransportErrorAborts(t *testing.T) {
	Convey("Given the transport fails with a non-size error", t, func() {
		projectRoot, fallbackRoot := setup(t, "Homework_1", map[string][]string{
			smith.ID: {"john.pdf"},
			doe.ID:   {"jane.pdf"},
		})
		transport := &fakeTransport{
			fail: func(msg mailer.Message) error {
				if msg.To[0] == smith.Email {
					return errors.New("connection refused")
				}
				return nil
			},
		}
		clock := &fakeClock{}
		m := newMailer(t, transport, yes, clock, projectRoot, fallbackRoot)

		dispatches, err := m.SendGrades(context.Background(), []model.Student{smith, doe}, []string{"Homework_1"})

		Convey("Then the run aborts before reaching later students", func() {
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "connection refused")
			So(len(dispatches), ShouldEqual, 1)
			So(dispatches[0].Outcome, ShouldEqual, mailer.TransportError)
			So(transport.sent, ShouldBeEmpty)
		})
	})
}

func TestRatePacing(t *testing.T) {
	Convey("Given 2 students and 2 assignments with no submissions", t, func() {
		projectRoot := t.TempDir()
		fallbackRoot := t.TempDir()
		students := []model.Student{smith, doe}
		assignments := []string{"Homework_1", "Homework_2"}
		So(storage.Scaffold(projectRoot, students, assignments), ShouldBeNil)

		transport := &fakeTransport{}
		clock := &fakeClock{}
		m := newMailer(t, transport, yes, clock, projectRoot, fallbackRoot)

		_, err := m.SendGrades(context.Background(), students, assignments)
		So(err, ShouldBeNil)

		Convey("Then the pacing delay runs N*M+M times at the full interval", func() {
			So(len(clock.slept), ShouldEqual, len(students)*len(assignments)+len(assignments))
			for _, d := range clock.slept {
				So(d, ShouldEqual, time.Second)
			}
		})
	})
}

func TestFilenamesNormalizedBeforeAttaching(t *testing.T) {
	Convey("Given a submission with a messy filename", t, func() {
		projectRoot, fallbackRoot := setup(t, "Homework_1", map[string][]string{
			smith.ID: {"john smith - report.pdf"},
		})
		transport := &fakeTransport{}
		clock := &fakeClock{}
		m := newMailer(t, transport, yes, clock, projectRoot, fallbackRoot)

		_, err := m.SendGrades(context.Background(), []model.Student{smith}, []string{"Homework_1"})
		So(err, ShouldBeNil)

		Convey("Then the attached path uses the transport-safe name", func() {
			So(len(transport.sent), ShouldEqual, 1)
			So(len(transport.sent[0].Attachments), ShouldEqual, 1)
			So(filepath.Base(transport.sent[0].Attachments[0]), ShouldEqual, "john_smith__report.pdf")
		})
	})
}
