package stream

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pithecene-io/utf8conv/conv"
	"github.com/pithecene-io/utf8conv/types"
)

// Writer encodes code units to UTF-8 or UTF-32 bytes.
//
// Output is buffered; call Flush when done. Units outside the Unicode
// scalar range are written as U+FFFD.
type Writer struct {
	bw     *bufio.Writer
	to     types.Format
	policy conv.ReplacementPolicy

	enc   *conv.FromUnicode
	unit  [1]uint32
	order binary.ByteOrder
	word  [4]byte

	invalid bool
	written int64
}

// NewWriter returns a Writer producing the given output format.
func NewWriter(w io.Writer, to types.Format, opts ...Option) (*Writer, error) {
	c := buildConfig(opts)
	wr := &Writer{
		bw:     bufio.NewWriterSize(w, c.bufferSize),
		to:     to,
		policy: c.policy,
	}
	switch {
	case to == types.FormatUTF8:
		wr.enc = conv.NewFromUnicode(conv.WithReplacementPolicy(c.policy))
		wr.enc.SetLastBuffer(false)
	case to.IsUTF32():
		wr.order, _ = byteOrder(to)
	default:
		return nil, fmt.Errorf("unsupported output format %q", to)
	}
	return wr, nil
}

// WriteRune writes r and returns the number of bytes produced.
func (w *Writer) WriteRune(r rune) (int, error) {
	return w.WriteUTF32(uint32(r))
}

// WriteUTF32 writes one code unit and returns the number of bytes produced.
func (w *Writer) WriteUTF32(u uint32) (int, error) {
	if w.enc != nil {
		return w.writeUTF8(u)
	}
	if conv.ClassifyUTF32(u, w.policy).Kind == conv.Invalid {
		w.invalid = true
		u = uint32(conv.ReplacementChar)
	}
	w.order.PutUint32(w.word[:], u)
	n, err := w.bw.Write(w.word[:])
	w.written += int64(n)
	return n, err
}

func (w *Writer) writeUTF8(u uint32) (int, error) {
	w.unit[0] = u
	in := w.unit[:]
	n := 0
	for {
		rest, b, err := w.enc.UTF32ToUTF8(in)
		in = rest
		if err != nil {
			// ErrNeedMore: the unit and its trailing bytes are out.
			break
		}
		if err := w.bw.WriteByte(b); err != nil {
			return n, err
		}
		n++
	}
	if w.enc.HasInvalidSequence() {
		w.invalid = true
	}
	w.written += int64(n)
	return n, nil
}

// WriteUnits writes a slice of code units.
func (w *Writer) WriteUnits(units []uint32) (int, error) {
	total := 0
	for _, u := range units {
		n, err := w.WriteUTF32(u)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Flush writes buffered output to the underlying writer.
func (w *Writer) Flush() error {
	return w.bw.Flush()
}

// HasInvalidSequence reports whether any unit was replaced on output.
func (w *Writer) HasInvalidSequence() bool { return w.invalid }

// BytesWritten returns the number of encoded bytes produced, including
// bytes still buffered.
func (w *Writer) BytesWritten() int64 { return w.written }

// WriterSink is a policy.Sink that writes chunk units through a Writer.
// Each batch is flushed before WriteChunks returns.
type WriterSink struct {
	w *Writer
}

// NewWriterSink wraps w.
func NewWriterSink(w *Writer) *WriterSink {
	return &WriterSink{w: w}
}

// WriteChunks writes the units of each chunk in order.
func (s *WriterSink) WriteChunks(ctx context.Context, chunks []*types.Chunk) error {
	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := s.w.WriteUnits(c.Units); err != nil {
			return fmt.Errorf("write chunk %d: %w", c.Seq, err)
		}
	}
	return s.w.Flush()
}

// Close flushes remaining output. The underlying writer is not closed.
func (s *WriterSink) Close() error {
	return s.w.Flush()
}

// Writer returns the wrapped Writer.
func (s *WriterSink) Writer() *Writer { return s.w }
