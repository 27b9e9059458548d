// Copyright (C) 2026 WORKWAY (engineering@workway.co)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package logging provides structured logging for WORKWAY RLM components.
//
// The package wraps Go's standard slog with a small configuration surface
// tuned for CLI usage: stderr output by default (Unix convention), optional
// JSON format for machine consumption, and a service attribute stamped on
// every entry so aggregated logs can be filtered by component.
//
// # Basic Usage
//
// For simple CLI usage with stderr output:
//
//	logger := logging.Default()
//	logger.Info("starting session", "session_id", sessionID)
//	logger.Error("provider call failed", "error", err)
//
// Install a configured logger process-wide so library code logging via
// slog's package-level functions picks it up:
//
//	logger := logging.New(logging.Config{Level: logging.LevelDebug, Service: "rlm"})
//	logger.Install()
//
// # Log Levels
//
// Four levels are supported, matching slog conventions:
//
//   - Debug: development troubleshooting, verbose output
//   - Info: normal operations (session start/end, state changes)
//   - Warn: recoverable issues (budget exhaustion, fallback answers)
//   - Error: operation failures (but the process continues)
//
// # Thread Safety
//
// Logger is safe for concurrent use; the underlying slog.Logger is
// thread-safe.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Level represents log severity levels.
//
// Levels follow the slog convention and are ordered by severity:
// Debug < Info < Warn < Error. Setting a minimum level filters out all
// logs below that level.
type Level int

const (
	// LevelDebug is for development troubleshooting.
	LevelDebug Level = iota

	// LevelInfo is for normal operational messages.
	LevelInfo

	// LevelWarn is for potentially problematic situations.
	LevelWarn

	// LevelError is for error conditions.
	LevelError
)

// String returns the human-readable name of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// toSlogLevel bridges our Level type to the standard library.
func (l Level) toSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel maps a config string ("debug", "info", "warn", "error") to a
// Level; unknown strings fall back to Info.
func ParseLevel(s string) Level {
	switch s {
	case "debug", "DEBUG":
		return LevelDebug
	case "warn", "WARN", "warning":
		return LevelWarn
	case "error", "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// Config configures the Logger behavior.
//
// All fields have sensible defaults. A zero-value Config creates a logger
// that writes Info+ messages to stderr in text format.
type Config struct {
	// Level sets the minimum log level.
	// Default: LevelInfo
	Level Level

	// Service identifies the component generating logs.
	//
	// The value is included in every entry as the "service" attribute.
	// Default: "" (no service attribute)
	Service string

	// JSON enables JSON output format.
	//
	// When true, logs are formatted as JSON objects; when false, as
	// human-readable text.
	// Default: false
	JSON bool

	// Quiet disables stderr output entirely. Useful when the CLI emits
	// machine-readable results on stdout and must keep stderr clean.
	// Default: false
	Quiet bool

	// Writer overrides the output destination. Intended for tests.
	// Default: os.Stderr
	Writer io.Writer
}

// Logger wraps slog.Logger with the package's configuration.
type Logger struct {
	*slog.Logger
}

// New creates a logger from the given configuration.
//
// Inputs:
//
//	cfg - Logger configuration; zero value gives Info-level text on stderr.
//
// Outputs:
//
//	*Logger - The configured logger.
func New(cfg Config) *Logger {
	var w io.Writer = os.Stderr
	if cfg.Writer != nil {
		w = cfg.Writer
	}
	if cfg.Quiet {
		w = io.Discard
	}

	opts := &slog.HandlerOptions{Level: cfg.Level.toSlogLevel()}
	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	if cfg.Service != "" {
		logger = logger.With("service", cfg.Service)
	}
	return &Logger{Logger: logger}
}

// Default returns a logger with the zero-value configuration.
func Default() *Logger {
	return New(Config{})
}

// Install makes this logger the process-wide slog default, so packages
// logging through slog's top-level functions use it.
func (l *Logger) Install() {
	slog.SetDefault(l.Logger)
}
