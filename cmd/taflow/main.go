// Command taflow automates the recurring TA grading workflow: distributing
// submitted PDFs to students, scaffolding directory trees, exporting grades,
// and emailing feedback with rate-limited dispatch.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/courseops/taflow/internal/adapters/gradebook"
	"github.com/courseops/taflow/internal/adapters/pdfsplit"
	"github.com/courseops/taflow/internal/adapters/roster"
	"github.com/courseops/taflow/internal/adapters/smtp"
	"github.com/courseops/taflow/internal/adapters/storage"
	"github.com/courseops/taflow/internal/config"
	"github.com/courseops/taflow/internal/domain/mailer"
	"github.com/courseops/taflow/internal/domain/match"
	"github.com/courseops/taflow/internal/domain/model"
	"github.com/courseops/taflow/pkg/logger"
	"github.com/courseops/taflow/pkg/metrics"
)

// HTTP server timeout constants for the optional metrics listener.
const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
	defaultPageSpan   = 2
)

func main() {
	if len(os.Args) < 2 {
		showHelp()
		os.Exit(2)
	}
	command := os.Args[1]
	args := os.Args[2:]

	if command == "help" || command == "-h" || command == "--help" {
		showHelp()
		return
	}

	// Root context with cancel on SIGINT/SIGTERM. The mailer's pacing pauses
	// exist so an interrupt here lands between dispatch units.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr for initialization errors since the logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(cfg.LogFile); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			os.Stderr.WriteString("failed to close log file: " + err.Error() + "\n")
		}
	}()

	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	confirm := &stdinConfirmer{r: bufio.NewReader(os.Stdin)}

	switch command {
	case "distribute":
		err = runDistribute(ctx, cfg, confirm, args)
	case "send":
		err = runSend(ctx, cfg, confirm, args)
	case "makedirs":
		err = runMakedirs(ctx, cfg)
	case "export":
		err = runExport(ctx, cfg, confirm)
	case "split":
		err = runSplit(ctx, cfg, args)
	case "summary":
		err = runSummary(ctx, cfg)
	default:
		os.Stderr.WriteString("unknown command: " + command + "\n")
		showHelp()
		os.Exit(2)
	}

	if err != nil {
		log.Error(ctx, "command failed", logger.String("command", command), logger.Error(err))
		os.Exit(1)
	}
}

// stdinConfirmer asks yes/no questions on the terminal. Everything below it
// stays free of terminal interaction.
type stdinConfirmer struct {
	r *bufio.Reader
}

func (c *stdinConfirmer) Confirm(prompt string) bool {
	fmt.Fprintf(os.Stdout, "%s [y/N]: ", prompt)
	line, err := c.r.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(strings.ToLower(line)) == "y"
}

// selectAssignments prompts per assignment and returns the accepted subset.
func selectAssignments(confirm mailer.Confirmer, verb string, all []string) []string {
	var selected []string
	for _, a := range all {
		if confirm.Confirm(fmt.Sprintf("Do you want to %s %s?", verb, a)) {
			selected = append(selected, a)
		}
	}
	return selected
}

func loadStudents(cfg *config.Config) ([]model.Student, error) {
	students, err := roster.Load(cfg.RosterFile)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	return students, nil
}

func runDistribute(ctx context.Context, cfg *config.Config, confirm mailer.Confirmer, args []string) error {
	fs := flag.NewFlagSet("distribute", flag.ExitOnError)
	copyFiles := fs.Bool("copy", false, "Copy matched files into student directories. Default only reports the matches.")
	threshold := fs.Int("threshold", cfg.ScoreThreshold, "Minimum similarity score for a valid match (1-100).")
	if err := fs.Parse(args); err != nil {
		return err
	}

	students, err := loadStudents(cfg)
	if err != nil {
		return err
	}
	assignments := selectAssignments(confirm, "distribute", cfg.Assignments())
	if len(assignments) == 0 {
		logger.Get().Info(ctx, "no assignments selected, nothing to do")
		return nil
	}

	d := match.NewDistributor(cfg.ProjectRoot,
		match.WithCopy(*copyFiles),
		match.WithThreshold(*threshold),
	)
	if err := d.Run(ctx, students, assignments); err != nil {
		if errors.Is(err, match.ErrSourceDirMissing) {
			logger.Get().Error(ctx, "could not find the assignment directory; run `taflow makedirs` first", logger.Error(err))
		}
		return err
	}
	logger.Get().Info(ctx, "distributing assignments finished")
	return nil
}

// transport adapts the SMTP sender to the mailer's contract, translating the
// provider's size rejection into the mailer's sentinel.
type transport struct {
	sender *smtp.Sender
}

func (t transport) Send(ctx context.Context, msg mailer.Message) error {
	err := t.sender.Send(ctx, smtp.Message{
		To:          msg.To,
		Subject:     msg.Subject,
		Body:        msg.Body,
		Attachments: msg.Attachments,
	})
	if errors.Is(err, smtp.ErrMessageTooLarge) {
		return fmt.Errorf("%w: %v", mailer.ErrOversized, err)
	}
	return err
}

func runSend(ctx context.Context, cfg *config.Config, confirm mailer.Confirmer, args []string) error {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if cfg.SMTPHost == "" || cfg.SMTPUser == "" || cfg.SMTPPassword == "" {
		return errors.New("smtp settings incomplete: set TAFLOW_SMTP_HOST, TAFLOW_SMTP_USER and TAFLOW_SMTP_PASSWORD")
	}

	students, err := loadStudents(cfg)
	if err != nil {
		return err
	}
	book, err := gradebook.Open(cfg.GradebookFile)
	if err != nil {
		return err
	}
	assignments := selectAssignments(confirm, "send grades for", cfg.Assignments())
	if len(assignments) == 0 {
		logger.Get().Info(ctx, "no assignments selected, nothing to do")
		return nil
	}

	// The paced loop runs for minutes; expose /metrics while it does.
	if cfg.MetricsAddr != "" {
		stopMetrics := startMetricsServer(ctx, cfg.MetricsAddr)
		defer stopMetrics()
	}

	sender := smtp.NewSender(cfg.SMTPHost, cfg.SMTPUser, cfg.SMTPPassword,
		smtp.WithPort(cfg.SMTPPort),
		smtp.WithMaxMessageBytes(cfg.MaxMessageBytes),
	)
	m := mailer.New(transport{sender: sender}, book, confirm,
		mailer.WithProjectRoot(cfg.ProjectRoot),
		mailer.WithFallbackRoot(cfg.FallbackRoot),
		mailer.WithCourseCode(cfg.CourseCode),
		mailer.WithTAName(cfg.TAName),
		mailer.WithInterval(cfg.Interval()),
	)

	dispatches, err := m.SendGrades(ctx, students, assignments)
	if err != nil {
		return err
	}
	logger.Get().Info(ctx, "sending grades finished", logger.Int("dispatched", len(dispatches)))
	return nil
}

func runMakedirs(ctx context.Context, cfg *config.Config) error {
	students, err := loadStudents(cfg)
	if err != nil {
		return err
	}
	if err := storage.Scaffold(cfg.ProjectRoot, students, cfg.Assignments()); err != nil {
		return err
	}
	logger.Get().Info(ctx, "project directories ready",
		logger.Int("students", len(students)),
		logger.Int("assignments", len(cfg.Assignments())),
	)
	return nil
}

func runExport(ctx context.Context, cfg *config.Config, confirm mailer.Confirmer) error {
	students, err := loadStudents(cfg)
	if err != nil {
		return err
	}
	book, err := gradebook.Open(cfg.GradebookFile)
	if err != nil {
		return err
	}
	assignments := selectAssignments(confirm, "export", cfg.Assignments())
	if len(assignments) == 0 {
		logger.Get().Info(ctx, "no assignments selected, nothing to do")
		return nil
	}
	if err := book.Export(students, assignments, cfg.OutputDir); err != nil {
		return err
	}
	logger.Get().Info(ctx, "grade exports written", logger.String("dir", cfg.OutputDir))
	return nil
}

func runSplit(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("split", flag.ExitOnError)
	in := fs.String("in", "", "Scanned batch PDF to split.")
	out := fs.String("out", filepath.Join(cfg.ProjectRoot, "split"), "Output directory for per-submission PDFs.")
	pages := fs.Int("pages", defaultPageSpan, "Pages per submission in the scanned batch.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return errors.New("split requires -in with the scanned batch PDF")
	}
	if err := pdfsplit.Split(*in, *out, *pages); err != nil {
		return err
	}
	logger.Get().Info(ctx, "batch split finished",
		logger.String("in", *in),
		logger.String("out", *out),
		logger.Int("pages", *pages),
	)
	return nil
}

func runSummary(_ context.Context, cfg *config.Config) error {
	fmt.Fprintln(os.Stdout, "Config:")
	for _, p := range cfg.Pairs() {
		fmt.Fprintf(os.Stdout, "  %s: %s\n", p.Name, p.Value)
	}

	book, err := gradebook.Open(cfg.GradebookFile)
	if err != nil {
		return err
	}
	for _, assignment := range cfg.Assignments() {
		stats, err := book.Stats(assignment)
		if err != nil {
			if errors.Is(err, gradebook.ErrUnknownAssignment) {
				fmt.Fprintf(os.Stdout, "\n%s: not graded yet\n", assignment)
				continue
			}
			return err
		}
		fmt.Fprintf(os.Stdout, "\n%s:\n%s\n", assignment, stats)
	}
	return nil
}

// startMetricsServer serves /metrics until the returned stop func is called.
func startMetricsServer(ctx context.Context, addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		logger.Get().Info(ctx, "metrics listener starting", logger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Get().Warn(ctx, "metrics listener failed", logger.Error(err))
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}

// showHelp prints usage information.
func showHelp() {
	os.Stdout.WriteString(`taflow - TA grading workflow automation
=======================================

Usage:
  taflow <command> [options]

Commands:
  makedirs    Create the per-student assignment directories (idempotent).
  distribute  Match submitted PDFs to students by name similarity.
              -copy        copy matched files into student directories
              -threshold   minimum similarity score (default from config)
  send        Email each student their grade, feedback attached, rate-paced.
  export      Write a two-column (student_id, grade) CSV per assignment.
  split       Cut a scanned quiz batch into per-submission PDFs.
              -in          scanned batch PDF (required)
              -out         output directory
              -pages       pages per submission (default 2)
  summary     Print the configuration and per-assignment grade statistics.
  help        Show this message.

Configuration is layered: defaults, then the YAML file named by
TAFLOW_CONFIG, then TAFLOW_* environment variables. SMTP credentials are
supplied via TAFLOW_SMTP_USER and TAFLOW_SMTP_PASSWORD and are never logged.
`)
}
