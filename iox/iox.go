// Package iox provides I/O helpers for resource cleanup and chunked reads.
package iox

import (
	"errors"
	"io"
)

// DiscardClose closes c, ignoring the error. For deferred closes of
// response bodies and files opened read-only.
func DiscardClose(c io.Closer) { _ = c.Close() }

// CloseFunc returns c.Close with the error dropped, for cleanup stacks.
func CloseFunc(c io.Closer) func() {
	return func() { _ = c.Close() }
}

// DiscardErr runs a cleanup such as Sync or Flush and drops its error.
func DiscardErr(fn func() error) { _ = fn() }

// maxEmptyReads bounds consecutive zero-byte reads before giving up.
const maxEmptyReads = 100

// ReadChunk reads into buf until at least one byte has been read or the
// reader is exhausted. It returns the number of bytes read and whether the
// end of input was reached; eof with n > 0 means buf holds the final bytes.
// io.EOF is never returned as an error.
//
// A reader that keeps returning (0, nil) is reported as io.ErrNoProgress.
func ReadChunk(r io.Reader, buf []byte) (n int, eof bool, err error) {
	if len(buf) == 0 {
		return 0, false, errors.New("iox: empty read buffer")
	}
	for range maxEmptyReads {
		n, err = r.Read(buf)
		switch {
		case errors.Is(err, io.EOF):
			return n, true, nil
		case err != nil:
			return n, false, err
		case n > 0:
			return n, false, nil
		}
	}
	return 0, false, io.ErrNoProgress
}
