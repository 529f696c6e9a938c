// Package config loads the command line tool's configuration from defaults,
// an optional YAML file and FUSION_ environment variables, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
)

// Config holds all configuration for the fusion tool.
type Config struct {
	Log     LogConfig     `koanf:"log"`
	Reader  ReaderConfig  `koanf:"reader"`
	Schemas SchemasConfig `koanf:"schemas"`
}

// LogConfig holds structured logging settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// ReaderConfig holds JSON reader policies.
type ReaderConfig struct {
	Unknown    string `koanf:"unknown"`    // "strict" or "strip"
	Duplicates string `koanf:"duplicates"` // "error", "warn" or "ignore"
	MaxDepth   int    `koanf:"max_depth"`
}

// SchemasConfig lists schema documents loaded before any input is read.
type SchemasConfig struct {
	Files []string `koanf:"files"`
}

// Validate checks all configuration values and returns aggregated errors.
func (c *Config) Validate() error {
	return errors.Join(
		c.Log.validate(),
		c.Reader.validate(),
	)
}

func (l *LogConfig) validate() error {
	var errs []error

	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", l.Level))
	}
	switch l.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or text, got %q", l.Format))
	}

	return errors.Join(errs...)
}

func (r *ReaderConfig) validate() error {
	var errs []error

	switch r.Unknown {
	case "strict", "strip":
	default:
		errs = append(errs, fmt.Errorf("reader.unknown must be strict or strip, got %q", r.Unknown))
	}
	switch r.Duplicates {
	case "error", "warn", "ignore":
	default:
		errs = append(errs, fmt.Errorf("reader.duplicates must be error, warn or ignore, got %q", r.Duplicates))
	}
	if r.MaxDepth < 1 {
		errs = append(errs, fmt.Errorf("reader.max_depth must be positive, got %d", r.MaxDepth))
	}

	return errors.Join(errs...)
}
