// Copyright (C) 2026 WORKWAY (engineering@workway.co)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelString(t *testing.T) {
	cases := map[Level]string{
		LevelDebug: "DEBUG",
		LevelInfo:  "INFO",
		LevelWarn:  "WARN",
		LevelError: "ERROR",
		Level(99):  "UNKNOWN",
	}
	for level, want := range cases {
		if got := level.String(); got != want {
			t.Errorf("Level(%d).String() = %q, want %q", level, got, want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"DEBUG":   LevelDebug,
		"info":    LevelInfo,
		"warn":    LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"bogus":   LevelInfo,
		"":        LevelInfo,
	}
	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestNew(t *testing.T) {
	t.Run("text output with service attribute", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(Config{Service: "rlm-test", Writer: &buf})

		logger.Info("session started", "session_id", "abc123")

		out := buf.String()
		if !strings.Contains(out, "session started") {
			t.Errorf("missing message: %q", out)
		}
		if !strings.Contains(out, "service=rlm-test") {
			t.Errorf("missing service attribute: %q", out)
		}
		if !strings.Contains(out, "session_id=abc123") {
			t.Errorf("missing field: %q", out)
		}
	})

	t.Run("JSON output parses", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(Config{Service: "rlm-test", JSON: true, Writer: &buf})

		logger.Warn("budget exhausted", "iterations", 10)

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
		}
		if entry["msg"] != "budget exhausted" {
			t.Errorf("msg = %v", entry["msg"])
		}
		if entry["service"] != "rlm-test" {
			t.Errorf("service = %v", entry["service"])
		}
	})

	t.Run("level filtering", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(Config{Level: LevelWarn, Writer: &buf})

		logger.Debug("dropped")
		logger.Info("dropped too")
		logger.Error("kept")

		out := buf.String()
		if strings.Contains(out, "dropped") {
			t.Errorf("low-severity entries leaked: %q", out)
		}
		if !strings.Contains(out, "kept") {
			t.Errorf("error entry missing: %q", out)
		}
	})

	t.Run("quiet discards output", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(Config{Quiet: true, Writer: &buf})

		logger.Error("silent")

		if buf.Len() != 0 {
			t.Errorf("expected no output, got %q", buf.String())
		}
	})
}
