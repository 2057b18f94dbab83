package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jj82931/Cost-of-Living-saver/internal/config"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"":        zapcore.InfoLevel,
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		" error ": zapcore.ErrorLevel,
	}
	for input, expected := range tests {
		got, err := ParseLevel(input)
		if err != nil {
			t.Fatalf("ParseLevel(%q) error: %v", input, err)
		}
		if got != expected {
			t.Errorf("ParseLevel(%q) = %v, expected %v", input, got, expected)
		}
	}

	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("ParseLevel(verbose) expected error")
	}
}

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.LoggingConfig
		override string
		enabled  zapcore.Level
		disabled zapcore.Level
	}{
		{"default info", config.LoggingConfig{}, "", zapcore.InfoLevel, zapcore.DebugLevel},
		{"config warn", config.LoggingConfig{Level: "warn", Format: "console"}, "", zapcore.WarnLevel, zapcore.InfoLevel},
		{"override wins", config.LoggingConfig{Level: "error"}, "debug", zapcore.DebugLevel, zapcore.DebugLevel - 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg, tt.override)
			if err != nil {
				t.Fatalf("New() error: %v", err)
			}
			defer func() { _ = logger.Sync() }()

			if !logger.Core().Enabled(tt.enabled) {
				t.Errorf("level %v should be enabled", tt.enabled)
			}
			if logger.Core().Enabled(tt.disabled) {
				t.Errorf("level %v should be disabled", tt.disabled)
			}
		})
	}
}

func TestNewInvalid(t *testing.T) {
	if _, err := New(config.LoggingConfig{Level: "loud"}, ""); err == nil {
		t.Error("expected error for invalid level")
	}
	if _, err := New(config.LoggingConfig{Format: "xml"}, ""); err == nil {
		t.Error("expected error for invalid format")
	}
}

func TestNewOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "cols.log")

	logger, err := New(config.LoggingConfig{Level: "info", Format: "json", OutputFile: path}, "")
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	logger.Info("written to file")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not created: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("log file missing message: %s", data)
	}
}
