// Package stream connects the conversion sessions to real I/O.
//
// Decoder turns byte chunks into UTF-32 code units. Reader and UnitReader
// pull from an io.Reader, reading the next chunk only when the session asks
// for more input and marking the last buffer on end of file. Writer encodes
// code units back to bytes, and WriterSink adapts it to a policy.Sink.
package stream

import (
	"encoding/binary"
	"fmt"

	"github.com/pithecene-io/utf8conv/conv"
	"github.com/pithecene-io/utf8conv/types"
)

// DefaultBufferSize is the read size used when none is configured.
const DefaultBufferSize = conv.NeedMoreHint

// minBufferSize leaves room for a carried partial UTF-32 unit plus at least
// one new byte.
const minBufferSize = 8

// Option configures readers and writers.
type Option func(*config)

type config struct {
	bufferSize int
	policy     conv.ReplacementPolicy
}

// WithBufferSize sets the read buffer size. Values below 8 are raised to 8.
func WithBufferSize(n int) Option {
	return func(c *config) { c.bufferSize = n }
}

// WithReplacementPolicy sets how a literal U+FFFD in the input is treated.
func WithReplacementPolicy(p conv.ReplacementPolicy) Option {
	return func(c *config) { c.policy = p }
}

func buildConfig(opts []Option) config {
	c := config{bufferSize: DefaultBufferSize}
	for _, opt := range opts {
		opt(&c)
	}
	if c.bufferSize < minBufferSize {
		c.bufferSize = minBufferSize
	}
	return c
}

func byteOrder(f types.Format) (binary.ByteOrder, error) {
	switch f {
	case types.FormatUTF32LE:
		return binary.LittleEndian, nil
	case types.FormatUTF32BE:
		return binary.BigEndian, nil
	default:
		return nil, fmt.Errorf("format %q is not UTF-32", f)
	}
}
