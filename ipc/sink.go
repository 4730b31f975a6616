package ipc

import (
	"context"
	"fmt"

	"github.com/pithecene-io/utf8conv/types"
)

// FrameSink is a policy.Sink that writes each chunk as a chunk frame.
type FrameSink struct {
	enc *FrameEncoder
}

// NewFrameSink creates a sink writing through enc.
func NewFrameSink(enc *FrameEncoder) *FrameSink {
	return &FrameSink{enc: enc}
}

// WriteChunks writes one frame per chunk, in order.
func (s *FrameSink) WriteChunks(ctx context.Context, chunks []*types.Chunk) error {
	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.enc.WriteChunk(c); err != nil {
			return fmt.Errorf("chunk %d: %w", c.Seq, err)
		}
	}
	return nil
}

// Close is a no-op; the run result frame is written by the caller.
func (s *FrameSink) Close() error {
	return nil
}

// Encoder returns the underlying encoder.
func (s *FrameSink) Encoder() *FrameEncoder { return s.enc }
