package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
	}{
		{
			name:   "default config",
			config: nil,
		},
		{
			name: "json format",
			config: &Config{
				Level:  LevelInfo,
				Format: "json",
				Output: &bytes.Buffer{},
			},
		},
		{
			name: "text format",
			config: &Config{
				Level:  LevelDebug,
				Format: "text",
				Output: &bytes.Buffer{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogger(tt.config)
			if logger == nil {
				t.Error("NewLogger() returned nil")
			}
		})
	}
}

func TestLoggerLevels(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewLogger(&Config{
		Level:  LevelWarn,
		Format: "json",
		Output: buf,
		Sync:   true,
	})

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") {
		t.Error("debug message logged at warn level")
	}
	if strings.Contains(out, "info message") {
		t.Error("info message logged at warn level")
	}
	if !strings.Contains(out, "warn message") {
		t.Error("warn message not logged at warn level")
	}
	if !strings.Contains(out, "error message") {
		t.Error("error message not logged at warn level")
	}
}

func TestLoggerContext(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewLogger(&Config{
		Level:  LevelDebug,
		Format: "json",
		Output: buf,
		Sync:   true,
	})

	logger.WithDomain(3).WithClient("virtio-blk").Info("routed request")

	out := buf.String()
	if !strings.Contains(out, `"domain_id":3`) {
		t.Errorf("missing domain_id field: %s", out)
	}
	if !strings.Contains(out, `"client":"virtio-blk"`) {
		t.Errorf("missing client field: %s", out)
	}
}

func TestLoggerWithRequest(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewLogger(&Config{
		Level:  LevelDebug,
		Format: "json",
		Output: buf,
		Sync:   true,
	})

	logger.WithRequest(42, "write").Debug("pushed")

	out := buf.String()
	if !strings.Contains(out, `"request_id":42`) {
		t.Errorf("missing request_id field: %s", out)
	}
	if !strings.Contains(out, `"op":"write"`) {
		t.Errorf("missing op field: %s", out)
	}
}

func TestLoggerWithError(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewLogger(&Config{
		Level:  LevelDebug,
		Format: "json",
		Output: buf,
		Sync:   true,
	})

	logger.WithError(errors.New("transport down")).Error("drain aborted")

	if !strings.Contains(buf.String(), "transport down") {
		t.Errorf("missing error field: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"bogus", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
