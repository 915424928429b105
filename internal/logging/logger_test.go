// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"disabled", zerolog.Disabled},
		{"INFO", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNewTestLoggerCapturesOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewTestLogger(&buf)
	logger.Info().Str("user_id", "u1").Msg("profile updated")

	out := buf.String()
	if !strings.Contains(out, `"user_id":"u1"`) {
		t.Errorf("expected field user_id in output, got %s", out)
	}
	if !strings.Contains(out, "profile updated") {
		t.Errorf("expected message in output, got %s", out)
	}
}

func TestInitConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "console", Output: &buf})
	defer Init(DefaultConfig())

	Debug().Msg("console mode")
	if buf.Len() == 0 {
		t.Fatal("expected console output, got none")
	}
	if strings.Contains(buf.String(), `"message"`) {
		t.Error("console format should not emit raw JSON fields")
	}
}

func TestSlogHandlerRoutesToZerolog(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	defer Init(DefaultConfig())

	slogger := NewSlogLogger()
	slogger.Info("service started", slog.String("service", "poller"), slog.Int("attempt", 2))

	out := buf.String()
	if !strings.Contains(out, `"service":"poller"`) {
		t.Errorf("expected string attr in output, got %s", out)
	}
	if !strings.Contains(out, `"attempt":2`) {
		t.Errorf("expected int attr in output, got %s", out)
	}
	if !strings.Contains(out, "service started") {
		t.Errorf("expected message in output, got %s", out)
	}
}

func TestSlogHandlerWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	defer Init(DefaultConfig())

	slogger := NewSlogLogger().With(slog.String("component", "eventbus"))
	slogger.Warn("redelivery")

	if !strings.Contains(buf.String(), `"component":"eventbus"`) {
		t.Errorf("expected pre-configured attr in output, got %s", buf.String())
	}
}
