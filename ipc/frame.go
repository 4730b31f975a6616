// Package ipc implements the chunk frame stream: length-prefixed msgpack
// frames carrying decoded chunks, terminated by a run result frame.
//
// Wire layout of one frame:
//
//	+----------------+---------------------------+
//	| u32 big endian | msgpack payload (len n)   |
//	+----------------+---------------------------+
//
// Every payload is a map with a "type" key ("chunk" or "run_result").
package ipc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/pithecene-io/utf8conv/types"
)

// Frame size limits.
const (
	LengthPrefixSize = 4
	MaxFrameSize     = 16 << 20
	MaxPayloadSize   = MaxFrameSize - LengthPrefixSize
)

// FrameErrorKind classifies frame errors.
type FrameErrorKind int

const (
	// FrameErrorPartial is a truncated length prefix or payload.
	FrameErrorPartial FrameErrorKind = iota
	// FrameErrorTooLarge is a payload over MaxPayloadSize.
	FrameErrorTooLarge
	// FrameErrorDecode is a payload that is not valid msgpack or has an
	// unknown type.
	FrameErrorDecode
)

func (k FrameErrorKind) String() string {
	switch k {
	case FrameErrorPartial:
		return "partial"
	case FrameErrorTooLarge:
		return "too_large"
	case FrameErrorDecode:
		return "decode"
	}
	return fmt.Sprintf("FrameErrorKind(%d)", int(k))
}

// FrameError is returned by the encoder, the decoder and DecodeFrame.
type FrameError struct {
	Kind FrameErrorKind
	Msg  string
	Err  error
}

func (e *FrameError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *FrameError) Unwrap() error { return e.Err }

// IsFatal reports whether framing was lost. A decode error leaves the
// stream positioned at the next frame.
func (e *FrameError) IsFatal() bool { return e.Kind != FrameErrorDecode }

// IsFatalFrameError reports whether err is a fatal *FrameError.
func IsFatalFrameError(err error) bool {
	var fe *FrameError
	return errors.As(err, &fe) && fe.IsFatal()
}

func oversized(n int) *FrameError {
	return &FrameError{
		Kind: FrameErrorTooLarge,
		Msg:  fmt.Sprintf("payload size %d exceeds maximum %d", n, MaxPayloadSize),
	}
}

// FrameDecoder reads frames from a stream.
type FrameDecoder struct {
	r      io.Reader
	prefix [LengthPrefixSize]byte
}

// NewFrameDecoder creates a decoder over r.
func NewFrameDecoder(r io.Reader) *FrameDecoder {
	return &FrameDecoder{r: r}
}

// ReadFrame returns the next payload. It returns io.EOF only at a frame
// boundary; a stream that ends inside a frame is a FrameErrorPartial.
func (d *FrameDecoder) ReadFrame() ([]byte, error) {
	if _, err := io.ReadFull(d.r, d.prefix[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, &FrameError{Kind: FrameErrorPartial, Msg: "failed to read length prefix", Err: err}
	}

	n := binary.BigEndian.Uint32(d.prefix[:])
	if n > MaxPayloadSize {
		return nil, oversized(int(n))
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(d.r, payload); err != nil {
		return nil, &FrameError{Kind: FrameErrorPartial, Msg: "failed to read payload", Err: err}
	}
	return payload, nil
}

// DecodeFrame decodes a payload into a *types.ChunkFrame or a
// *types.RunResultFrame according to its type field.
func DecodeFrame(payload []byte) (any, error) {
	head, err := unmarshalFrame[struct {
		Type string `msgpack:"type"`
	}](payload, "frame type")
	if err != nil {
		return nil, err
	}

	switch head.Type {
	case types.ChunkFrameType:
		return DecodeChunk(payload)
	case types.RunResultFrameType:
		return DecodeRunResult(payload)
	}
	return nil, &FrameError{Kind: FrameErrorDecode, Msg: fmt.Sprintf("unknown frame type %q", head.Type)}
}

// DecodeChunk decodes a payload as a ChunkFrame.
func DecodeChunk(payload []byte) (*types.ChunkFrame, error) {
	return unmarshalFrame[types.ChunkFrame](payload, "chunk")
}

// DecodeRunResult decodes a payload as a RunResultFrame.
func DecodeRunResult(payload []byte) (*types.RunResultFrame, error) {
	return unmarshalFrame[types.RunResultFrame](payload, "run result")
}

func unmarshalFrame[T any](payload []byte, what string) (*T, error) {
	v := new(T)
	if err := msgpack.Unmarshal(payload, v); err != nil {
		return nil, &FrameError{Kind: FrameErrorDecode, Msg: "failed to decode " + what, Err: err}
	}
	return v, nil
}
