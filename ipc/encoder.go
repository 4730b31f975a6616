package ipc

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/pithecene-io/utf8conv/types"
)

// FrameEncoder writes length-prefixed msgpack frames to a stream.
// Safe for concurrent use; each frame is written with a single Write call.
type FrameEncoder struct {
	mu      sync.Mutex
	w       io.Writer
	written int64
}

// NewFrameEncoder creates a new frame encoder.
func NewFrameEncoder(w io.Writer) *FrameEncoder {
	return &FrameEncoder{w: w}
}

// WriteFrame marshals v and writes it as one frame.
func (e *FrameEncoder) WriteFrame(v any) error {
	payload, err := msgpack.Marshal(v)
	if err != nil {
		return &FrameError{Kind: FrameErrorDecode, Msg: "failed to encode frame", Err: err}
	}
	if len(payload) > MaxPayloadSize {
		return oversized(len(payload))
	}

	buf := make([]byte, LengthPrefixSize+len(payload))
	binary.BigEndian.PutUint32(buf[:LengthPrefixSize], uint32(len(payload)))
	copy(buf[LengthPrefixSize:], payload)

	e.mu.Lock()
	defer e.mu.Unlock()
	n, err := e.w.Write(buf)
	e.written += int64(n)
	if err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// WriteChunk writes a chunk frame.
func (e *FrameEncoder) WriteChunk(c *types.Chunk) error {
	return e.WriteFrame(&types.ChunkFrame{Type: types.ChunkFrameType, Chunk: *c})
}

// WriteRunResult writes the terminal run result frame.
func (e *FrameEncoder) WriteRunResult(r *types.RunResultFrame) error {
	r.Type = types.RunResultFrameType
	return e.WriteFrame(r)
}

// BytesWritten returns the number of bytes written, length prefixes included.
func (e *FrameEncoder) BytesWritten() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.written
}
