package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pipebus/pipebus/internal/config"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LoggingConfig
		wantErr bool
	}{
		{
			name: "valid json config to stdout",
			cfg: config.LoggingConfig{
				Level:  "info",
				Format: "json",
				Output: "stdout",
			},
			wantErr: false,
		},
		{
			name: "valid text config to stderr",
			cfg: config.LoggingConfig{
				Level:  "debug",
				Format: "text",
				Output: "stderr",
			},
			wantErr: false,
		},
		{
			name: "invalid log level",
			cfg: config.LoggingConfig{
				Level:  "invalid",
				Format: "json",
				Output: "stdout",
			},
			wantErr: true,
		},
		{
			name: "invalid log format",
			cfg: config.LoggingConfig{
				Level:  "info",
				Format: "invalid",
				Output: "stdout",
			},
			wantErr: true,
		},
		{
			name:    "empty config uses defaults",
			cfg:     config.LoggingConfig{},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && log == nil {
				t.Fatal("New() returned nil logger without error")
			}
		})
	}
}

func TestNewDefault(t *testing.T) {
	log, err := NewDefault()
	if err != nil {
		t.Fatalf("NewDefault failed: %v", err)
	}
	if log.GetLevel() != LevelInfo {
		t.Errorf("Default level = %v, want info", log.GetLevel())
	}
}

func TestLoggerFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "pipebus.log")

	log, err := New(config.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: path,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	log.Info("test message", "pipe", "bus.fifo")
	if err := log.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	var entry map[string]any
	line := strings.TrimSpace(strings.SplitN(string(data), "\n", 2)[0])
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("Log line is not valid JSON: %v", err)
	}
	if entry["msg"] != "test message" {
		t.Errorf("msg = %v, want %q", entry["msg"], "test message")
	}
	if entry["pipe"] != "bus.fifo" {
		t.Errorf("pipe = %v, want %q", entry["pipe"], "bus.fifo")
	}
}

func TestLoggerWith(t *testing.T) {
	log, err := NewDefault()
	if err != nil {
		t.Fatalf("NewDefault failed: %v", err)
	}

	derived := log.With("component", "fifo_worker")
	if derived == nil {
		t.Fatal("With returned nil")
	}
	if derived == log {
		t.Fatal("With must return a new logger")
	}
	if derived.GetLevel() != log.GetLevel() {
		t.Error("Derived logger must inherit the level")
	}
	// Derived loggers must not close the parent's file handle
	if err := derived.Close(); err != nil {
		t.Fatalf("Derived Close failed: %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"info", LevelInfo, false},
		{"", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"trace", LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := parseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoggerEnabled(t *testing.T) {
	log, err := New(config.LoggingConfig{Level: "warn", Format: "text", Output: "stderr"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if log.Enabled(LevelDebug) {
		t.Error("Debug must be disabled at warn level")
	}
	if !log.Enabled(LevelError) {
		t.Error("Error must be enabled at warn level")
	}
}
