// Package config defines workflow configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) to build a Config with defaults.
// - The Config is constructed once in cmd and passed down; no package-level
//   singleton holds parsed settings.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"fmt"
	"time"
)

// Config contains process configuration for one course.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFile, when set, tees all log records to this path for the run audit.
	LogFile string `koanf:"log_file"`

	// CourseCode appears in every email subject, e.g. "CS101".
	CourseCode string `koanf:"course_code"`

	// TAName signs every email body.
	TAName string `koanf:"ta_name"`

	// ProjectRoot holds assignment source dirs and per-student trees.
	ProjectRoot string `koanf:"project_root"`

	// FallbackRoot is the shared-storage mount for oversized attachments.
	FallbackRoot string `koanf:"fallback_root"`

	// RosterFile is the student registry CSV.
	RosterFile string `koanf:"roster_file"`

	// GradebookFile is the wide grade table CSV.
	GradebookFile string `koanf:"gradebook_file"`

	// OutputDir receives the per-assignment grade exports.
	OutputDir string `koanf:"output_dir"`

	// HomeworkCount and QuizCount derive the assignment name list.
	HomeworkCount int `koanf:"homework_count"`
	QuizCount     int `koanf:"quiz_count"`

	// EmailIntervalSeconds paces dispatch to respect the provider rate limit.
	EmailIntervalSeconds int `koanf:"email_interval_seconds"`

	// SMTP settings. The password arrives via env, never a checked-in file.
	SMTPHost     string `koanf:"smtp_host"`
	SMTPPort     int    `koanf:"smtp_port"`
	SMTPUser     string `koanf:"smtp_user"`
	SMTPPassword string `koanf:"smtp_password"`

	// MaxMessageBytes is the provider's message size limit.
	MaxMessageBytes int64 `koanf:"max_message_bytes"`

	// ScoreThreshold is the minimum fuzzy similarity for a match.
	ScoreThreshold int `koanf:"score_threshold"`

	// MetricsAddr, when set, serves /metrics during long send runs.
	MetricsAddr string `koanf:"metrics_addr"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:             "info",
		LogFile:              "taflow.log",
		TAName:               "Your TA",
		ProjectRoot:          ".",
		FallbackRoot:         "drive",
		RosterFile:           "students.csv",
		GradebookFile:        "grades.csv",
		OutputDir:            "outputs",
		HomeworkCount:        1,
		QuizCount:            0,
		EmailIntervalSeconds: 5,
		SMTPPort:             465,
		MaxMessageBytes:      25 * 1024 * 1024,
		ScoreThreshold:       35,
	}
}

// Assignments derives the ordered assignment name list from the configured
// homework and quiz counts: Homework_1..N then Quiz_1..M.
func (c *Config) Assignments() []string {
	names := make([]string, 0, c.HomeworkCount+c.QuizCount)
	for i := 1; i <= c.HomeworkCount; i++ {
		names = append(names, fmt.Sprintf("Homework_%d", i))
	}
	for i := 1; i <= c.QuizCount; i++ {
		names = append(names, fmt.Sprintf("Quiz_%d", i))
	}
	return names
}

// Interval returns the pacing delay as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.EmailIntervalSeconds) * time.Second
}

// Pair is one (name, value) configuration entry for the summary report.
type Pair struct {
	Name  string
	Value string
}

// Pairs enumerates the configuration explicitly for reporting. Secrets are
// deliberately absent from the list.
func (c *Config) Pairs() []Pair {
	return []Pair{
		{"log_level", c.LogLevel},
		{"log_file", c.LogFile},
		{"course_code", c.CourseCode},
		{"ta_name", c.TAName},
		{"project_root", c.ProjectRoot},
		{"fallback_root", c.FallbackRoot},
		{"roster_file", c.RosterFile},
		{"gradebook_file", c.GradebookFile},
		{"output_dir", c.OutputDir},
		{"homework_count", fmt.Sprintf("%d", c.HomeworkCount)},
		{"quiz_count", fmt.Sprintf("%d", c.QuizCount)},
		{"email_interval_seconds", fmt.Sprintf("%d", c.EmailIntervalSeconds)},
		{"smtp_host", c.SMTPHost},
		{"smtp_port", fmt.Sprintf("%d", c.SMTPPort)},
		{"smtp_user", c.SMTPUser},
		{"max_message_bytes", fmt.Sprintf("%d", c.MaxMessageBytes)},
		{"score_threshold", fmt.Sprintf("%d", c.ScoreThreshold)},
		{"metrics_addr", c.MetricsAddr},
	}
}
