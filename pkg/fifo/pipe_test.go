package fifo

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pipebus/pipebus/pkg/types"
)

func TestResolvePath(t *testing.T) {
	tests := []struct {
		name string
		root string
		want string
	}{
		{"bus.fifo", "/tmp", "/tmp/bus.fifo"},
		{"sub/bus.fifo", "/tmp", "/tmp/sub/bus.fifo"},
		{"/var/run/bus.fifo", "/tmp", "/var/run/bus.fifo"},
		{"bus.fifo", "/var/lib/pipebus", "/var/lib/pipebus/bus.fifo"},
	}

	for _, tt := range tests {
		if got := ResolvePath(tt.name, tt.root); got != tt.want {
			t.Errorf("ResolvePath(%q, %q) = %q, want %q", tt.name, tt.root, got, tt.want)
		}
	}
}

func TestEnsureExistsCreatesFifo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bus.fifo")

	if err := ensureExists(path); err != nil {
		t.Fatalf("ensureExists failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Mode()&os.ModeNamedPipe == 0 {
		t.Fatal("Created file is not a named pipe")
	}
	if perm := info.Mode().Perm(); perm != pipeMode {
		t.Fatalf("Pipe permissions are %o, want %o", perm, pipeMode)
	}

	// Idempotent for an existing pipe
	if err := ensureExists(path); err != nil {
		t.Fatalf("ensureExists on existing pipe failed: %v", err)
	}
}

func TestEnsureExistsNotAPipe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regular.txt")
	if err := os.WriteFile(path, []byte("not a pipe"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	err := ensureExists(path)
	if !types.IsErrCode(err, types.ErrCodeNotAPipe) {
		t.Fatalf("Expected NOT_A_PIPE error, got %v", err)
	}
}

func TestOpenWriteNoReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bus.fifo")
	if err := ensureExists(path); err != nil {
		t.Fatalf("ensureExists failed: %v", err)
	}

	// Pipe exists but nothing holds it open for reading
	if _, err := openWrite(path); !errors.Is(err, errNoReader) {
		t.Fatalf("Expected no-reader condition, got %v", err)
	}

	// Missing pipe is the same transient condition
	missing := filepath.Join(t.TempDir(), "missing.fifo")
	if _, err := openWrite(missing); !errors.Is(err, errNoReader) {
		t.Fatalf("Expected no-reader condition for missing pipe, got %v", err)
	}
}

func TestOpenWriteWithReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bus.fifo")
	if err := ensureExists(path); err != nil {
		t.Fatalf("ensureExists failed: %v", err)
	}

	reader, err := openRead(path)
	if err != nil {
		t.Fatalf("openRead failed: %v", err)
	}
	defer reader.Close()

	writer, err := openWrite(path)
	if err != nil {
		t.Fatalf("openWrite with reader attached failed: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func TestOpenReadWithoutWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bus.fifo")
	if err := ensureExists(path); err != nil {
		t.Fatalf("ensureExists failed: %v", err)
	}

	// Must not block even though no writer is attached
	handle, err := openRead(path)
	if err != nil {
		t.Fatalf("openRead failed: %v", err)
	}

	if err := handle.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	// Second close is a no-op
	if err := handle.Close(); err != nil {
		t.Fatalf("Second Close failed: %v", err)
	}
}
