package fifo

import (
	"strings"
	"unicode/utf8"

	"github.com/pipebus/pipebus/pkg/types"
	"golang.org/x/sys/unix"
)

// readBatch performs one non-blocking read of up to maxBytes and frames the
// result into trimmed message lines.
//
// A read that would block is a successful read of zero bytes, which frames
// to exactly one empty-string message. The empty message is a legitimate,
// dispatchable value: it is how an idle tick reaches the dispatch table.
func readBatch(h *Handle, maxBytes int) ([]string, error) {
	buf := make([]byte, maxBytes)
	n, err := unix.Read(h.fd, buf)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			n = 0
		} else {
			return nil, types.WrapError(types.ErrCodeInternal, "failed to read from pipe "+h.path, err)
		}
	}
	if n < 0 {
		n = 0
	}

	chunk := buf[:n]
	if !utf8.Valid(chunk) {
		return nil, types.NewError(types.ErrCodeInvalid, "pipe data is not valid UTF-8")
	}

	lines := strings.Split(strings.TrimSpace(string(chunk)), "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return lines, nil
}
