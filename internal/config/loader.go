package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New(ctx))
//  2. file (YAML) if TAFLOW_CONFIG is set
//  3. env (prefix TAFLOW_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New(ctx)

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("TAFLOW_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: TAFLOW_COURSE_CODE, TAFLOW_SMTP_PASSWORD, ...
	// Map env keys like TAFLOW_PROJECT_ROOT -> project_root (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("TAFLOW_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "taflow_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(c *Config) error {
	if c.CourseCode == "" {
		return fmt.Errorf("%w: course_code must not be empty", ErrInvalidConfig)
	}
	if c.ProjectRoot == "" {
		return fmt.Errorf("%w: project_root must not be empty", ErrInvalidConfig)
	}
	if c.HomeworkCount < 0 || c.QuizCount < 0 {
		return fmt.Errorf("%w: assignment counts must not be negative", ErrInvalidConfig)
	}
	if c.HomeworkCount+c.QuizCount == 0 {
		return fmt.Errorf("%w: at least one homework or quiz is required", ErrInvalidConfig)
	}
	if c.EmailIntervalSeconds <= 0 {
		return fmt.Errorf("%w: email_interval_seconds must be positive", ErrInvalidConfig)
	}
	if c.ScoreThreshold < 1 || c.ScoreThreshold > 100 {
		return fmt.Errorf("%w: score_threshold must be within 1..100", ErrInvalidConfig)
	}
	return nil
}
