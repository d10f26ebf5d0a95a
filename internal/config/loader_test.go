package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pipebus/pipebus/pkg/types"
)

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func TestLoadFromFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{
			name: "valid full config",
			content: `
pipe:
  root: /tmp
  read_buffer_size: 9999
  interval: 100ms
  history_size: 50
client:
  root: /tmp
  retries: 3
  retry_interval: 100ms
  guarantee_delivery: true
logging:
  level: debug
  format: text
  output: stderr
`,
			wantErr: false,
		},
		{
			name: "partial config gets defaults",
			content: `
pipe:
  interval: 250ms
`,
			wantErr: false,
		},
		{
			name: "invalid duration",
			content: `
pipe:
  interval: soon
`,
			wantErr: true,
		},
		{
			name: "invalid yaml syntax",
			content: `
pipe:
  root: [unclosed
`,
			wantErr: true,
		},
		{
			name:    "whitespace only",
			content: "   \n\t\n",
			wantErr: true,
		},
		{
			name: "validation failure",
			content: `
pipe:
  read_buffer_size: -1
`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, "config.yaml", tt.content)
			cfg, err := LoadFromFile(path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadFromFile() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && cfg == nil {
				t.Fatal("LoadFromFile() returned nil config without error")
			}
		})
	}
}

func TestLoadFromFileAppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, "config.yaml", `
pipe:
  interval: 250ms
`)
	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if cfg.Pipe.Interval != 250*time.Millisecond {
		t.Errorf("Pipe.Interval = %v, want 250ms", cfg.Pipe.Interval)
	}
	if cfg.Pipe.Root != DefaultPipeRoot {
		t.Errorf("Pipe.Root = %q, want default %q", cfg.Pipe.Root, DefaultPipeRoot)
	}
	if cfg.Pipe.ReadBufferSize != DefaultReadBufferSize {
		t.Errorf("Pipe.ReadBufferSize = %d, want default %d", cfg.Pipe.ReadBufferSize, DefaultReadBufferSize)
	}
	if cfg.Client.RetryInterval != DefaultRetryInterval {
		t.Errorf("Client.RetryInterval = %v, want default %v", cfg.Client.RetryInterval, DefaultRetryInterval)
	}
	if cfg.Logging.Level != DefaultLogLevel {
		t.Errorf("Logging.Level = %q, want default %q", cfg.Logging.Level, DefaultLogLevel)
	}
}

func TestLoadFromFileEnvInterpolation(t *testing.T) {
	t.Setenv("PIPEBUS_TEST_ROOT", "/var/lib/pipebus-test")

	path := writeConfigFile(t, "config.yaml", `
pipe:
  root: ${PIPEBUS_TEST_ROOT}
client:
  root: ${PIPEBUS_TEST_MISSING:-/tmp/fallback}
`)
	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if cfg.Pipe.Root != "/var/lib/pipebus-test" {
		t.Errorf("Pipe.Root = %q, want env value", cfg.Pipe.Root)
	}
	if cfg.Client.Root != "/tmp/fallback" {
		t.Errorf("Client.Root = %q, want default fallback", cfg.Client.Root)
	}
}

func TestLoadFromFilePathValidation(t *testing.T) {
	if _, err := LoadFromFile(""); !types.IsErrCode(err, types.ErrCodeInvalidArgument) {
		t.Fatalf("Expected INVALID_ARGUMENT for empty path, got %v", err)
	}

	if _, err := LoadFromFile("/etc/pipebus.conf"); !types.IsErrCode(err, types.ErrCodeInvalidArgument) {
		t.Fatalf("Expected INVALID_ARGUMENT for wrong extension, got %v", err)
	}

	missing := filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := LoadFromFile(missing); !types.IsErrCode(err, types.ErrCodeNotFound) {
		t.Fatalf("Expected NOT_FOUND for missing file, got %v", err)
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault("")
	if err != nil {
		t.Fatalf("LoadOrDefault(\"\") failed: %v", err)
	}
	if cfg.Pipe.Root != DefaultPipeRoot {
		t.Errorf("Expected default config, got root %q", cfg.Pipe.Root)
	}
}

func TestInterpolateEnvVars(t *testing.T) {
	t.Setenv("PIPEBUS_TEST_VAR", "value")

	tests := []struct {
		in   string
		want string
	}{
		{"${PIPEBUS_TEST_VAR}", "value"},
		{"prefix-${PIPEBUS_TEST_VAR}-suffix", "prefix-value-suffix"},
		{"${PIPEBUS_TEST_UNSET:-fallback}", "fallback"},
		{"${PIPEBUS_TEST_VAR:-ignored}", "value"},
		{"no placeholders", "no placeholders"},
	}

	for _, tt := range tests {
		if got := interpolateEnvVars(tt.in); got != tt.want {
			t.Errorf("interpolateEnvVars(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
