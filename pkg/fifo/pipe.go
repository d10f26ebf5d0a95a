package fifo

import (
	"os"
	"path/filepath"

	"github.com/pipebus/pipebus/pkg/types"
	"golang.org/x/sys/unix"
)

// pipeMode is the permission mode of created pipes. The umask is cleared
// around mkfifo so the mode is honored exactly; any local process must be
// able to write to the bus.
const pipeMode = 0666

// ResolvePath resolves a logical pipe name to a filesystem path. Absolute
// names are used as-is, relative names resolve under root.
func ResolvePath(name, root string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(root, name)
}

// errNoReader marks the transient condition where a non-blocking write open
// finds no reader attached (or the pipe not yet created). It never escapes
// the package; Client absorbs it per its retry policy.
var errNoReader = types.NewError(types.ErrCodeUnavailable, "no reader attached to pipe")

// Handle wraps a raw non-blocking pipe descriptor
type Handle struct {
	fd   int
	path string
}

// Close releases the descriptor. Safe to call more than once; only the
// first call closes.
func (h *Handle) Close() error {
	if h.fd < 0 {
		return nil
	}
	fd := h.fd
	h.fd = -1
	if err := unix.Close(fd); err != nil {
		return types.WrapError(types.ErrCodeInternal, "failed to close pipe "+h.path, err)
	}
	return nil
}

// ensureExists creates the FIFO at path if nothing exists there. An existing
// entry that is not a FIFO is a permanent error.
func ensureExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return types.WrapError(types.ErrCodeInternal, "failed to stat "+path, err)
		}
		old := unix.Umask(0)
		defer unix.Umask(old)
		if err := unix.Mkfifo(path, pipeMode); err != nil {
			return types.WrapError(types.ErrCodeInternal, "failed to create pipe "+path, err)
		}
		return nil
	}
	if info.Mode()&os.ModeNamedPipe == 0 {
		return types.NewError(types.ErrCodeNotAPipe, path+" is not a named pipe")
	}
	return nil
}

// openRead opens the pipe for reading without blocking, whether or not a
// writer is attached.
func openRead(path string) (*Handle, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, types.WrapError(types.ErrCodeInternal, "failed to open pipe for reading: "+path, err)
	}
	return &Handle{fd: fd, path: path}, nil
}

// openWrite opens the pipe for writing without blocking. When no process
// holds the pipe open for reading the kernel reports ENXIO; a missing pipe
// reports ENOENT. Both are the transient no-reader condition, surfaced as
// errNoReader for the caller's retry loop.
func openWrite(path string) (*Handle, error) {
	fd, err := unix.Open(path, unix.O_WRONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		if err == unix.ENXIO || err == unix.ENOENT {
			return nil, errNoReader
		}
		return nil, types.WrapError(types.ErrCodeInternal, "failed to open pipe for writing: "+path, err)
	}
	return &Handle{fd: fd, path: path}, nil
}

// writeLine writes one message plus its newline terminator as a single
// write call, which keeps the line intact against concurrent writers.
func writeLine(h *Handle, msg string) error {
	if _, err := unix.Write(h.fd, []byte(msg+"\n")); err != nil {
		return types.WrapError(types.ErrCodeInternal, "failed to write to pipe "+h.path, err)
	}
	return nil
}
