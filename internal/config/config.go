// Package config loads application settings from an optional YAML file
// with environment variable overrides. Missing file means defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/anand/mathdrill/internal/quiz"
)

// Config is the full application configuration.
type Config struct {
	// Student pre-fills the name field on the setup screen.
	Student string `yaml:"student"`

	// Grade pre-fills the grade field, e.g. "Grade 6".
	Grade string `yaml:"grade"`

	// Topic pre-fills the topic field, e.g. "Fractions".
	Topic string `yaml:"topic"`

	Session  SessionConfig  `yaml:"session"`
	Workbook WorkbookConfig `yaml:"workbook"`
}

// SessionConfig tunes the practice session shape.
type SessionConfig struct {
	// Total is the number of questions per session.
	Total int `yaml:"total"`

	// EasyMax is the last 1-based index of the easy band.
	EasyMax int `yaml:"easy_max"`

	// MediumMax is the last 1-based index of the medium band.
	MediumMax int `yaml:"medium_max"`

	// ExactMatchShortCircuit grades answers equal to the reference
	// (after trimming) as correct without a model call. Nil means the
	// default (enabled).
	ExactMatchShortCircuit *bool `yaml:"exact_match_short_circuit"`
}

// WorkbookConfig controls the spreadsheet history log.
type WorkbookConfig struct {
	// Path is the .xlsx file location. Empty disables the workbook log.
	Path string `yaml:"path"`

	// Async writes history rows in the background without waiting for
	// or reporting individual write results.
	Async bool `yaml:"async"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Session: SessionConfig{
			Total:     25,
			EasyMax:   7,
			MediumMax: 15,
		},
		Workbook: WorkbookConfig{
			Async: true,
		},
	}
}

// DefaultPath resolves the config file path: $XDG_CONFIG_HOME/mathdrill/
// config.yaml, falling back to ~/.config.
func DefaultPath() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "mathdrill", "config.yaml"), nil
}

// Load reads the config file at path, layers it over defaults, and
// applies environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Defaults only.
	default:
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overrides file values with MATHDRILL_* environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("MATHDRILL_STUDENT"); v != "" {
		c.Student = v
	}
	if v := os.Getenv("MATHDRILL_GRADE"); v != "" {
		c.Grade = v
	}
	if v := os.Getenv("MATHDRILL_TOPIC"); v != "" {
		c.Topic = v
	}
	if v := os.Getenv("MATHDRILL_WORKBOOK"); v != "" {
		c.Workbook.Path = v
	}
	if v := os.Getenv("MATHDRILL_WORKBOOK_ASYNC"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Workbook.Async = b
		}
	}
}

// Validate checks the session shape.
func (c *Config) Validate() error {
	s := c.Session
	if s.Total < 3 {
		return fmt.Errorf("session.total must be at least 3, got %d", s.Total)
	}
	if s.EasyMax < 1 || s.EasyMax >= s.MediumMax || s.MediumMax >= s.Total {
		return fmt.Errorf("difficulty bands must satisfy 1 <= easy_max (%d) < medium_max (%d) < total (%d)",
			s.EasyMax, s.MediumMax, s.Total)
	}
	return nil
}

// QuizConfig converts the session settings to the state machine config.
func (c *Config) QuizConfig() quiz.Config {
	qc := quiz.Config{
		Total:                  c.Session.Total,
		Bands:                  quiz.Bands{EasyMax: c.Session.EasyMax, MediumMax: c.Session.MediumMax},
		ExactMatchShortCircuit: true,
	}
	if c.Session.ExactMatchShortCircuit != nil {
		qc.ExactMatchShortCircuit = *c.Session.ExactMatchShortCircuit
	}
	return qc
}
