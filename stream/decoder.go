package stream

import (
	"encoding/binary"
	"fmt"

	"github.com/pithecene-io/utf8conv/conv"
	"github.com/pithecene-io/utf8conv/types"
)

// Decoder converts successive input chunks into UTF-32 code units.
//
// Sequences split across chunk boundaries are carried to the next call.
// Ill-formed input is replaced with U+FFFD and counted. After a call with
// last set, Decode returns conv.ErrEndOfData until Reset.
type Decoder struct {
	from   types.Format
	policy conv.ReplacementPolicy

	utf8  conv.FromUTF8
	order binary.ByteOrder
	carry [4]byte
	nc    int

	invalid bool
	done    bool
}

// NewDecoder creates a Decoder for the given input format.
func NewDecoder(from types.Format, opts ...Option) (*Decoder, error) {
	c := buildConfig(opts)
	d := &Decoder{from: from, policy: c.policy}
	switch {
	case from == types.FormatUTF8:
		d.utf8 = *conv.NewFromUTF8(conv.WithReplacementPolicy(c.policy))
	case from.IsUTF32():
		d.order, _ = byteOrder(from)
	default:
		return nil, fmt.Errorf("unsupported input format %q", from)
	}
	return d, nil
}

// Format returns the input format.
func (d *Decoder) Format() types.Format { return d.from }

// HasInvalidSequence reports whether any chunk so far contained ill-formed
// input.
func (d *Decoder) HasInvalidSequence() bool { return d.invalid }

// Reset discards carried bytes and clears the invalid flag.
func (d *Decoder) Reset() {
	d.utf8.Reset()
	d.nc = 0
	d.invalid = false
	d.done = false
}

// Decode appends the code units decoded from p to dst. It returns the
// extended slice and the number of replacements among the appended units.
func (d *Decoder) Decode(dst []uint32, p []byte, last bool) ([]uint32, int64, error) {
	if d.done {
		return dst, 0, conv.ErrEndOfData
	}
	var repl int64
	if d.from == types.FormatUTF8 {
		dst, repl = d.decodeUTF8(dst, p, last)
	} else {
		dst, repl = d.decodeUTF32(dst, p, last)
	}
	if repl > 0 {
		d.invalid = true
	}
	d.done = last
	return dst, repl, nil
}

func (d *Decoder) decodeUTF8(dst []uint32, p []byte, last bool) ([]uint32, int64) {
	var repl int64
	d.utf8.SetLastBuffer(last)
	for {
		d.utf8.ResetInvalidSequence()
		rest, u, err := d.utf8.UTF8ToUTF32(p)
		p = rest
		if err != nil {
			// ErrNeedMore with p consumed, or ErrEndOfData on the last chunk.
			return dst, repl
		}
		if d.utf8.HasInvalidSequence() {
			repl++
		}
		dst = append(dst, u)
	}
}

func (d *Decoder) decodeUTF32(dst []uint32, p []byte, last bool) ([]uint32, int64) {
	var repl int64
	for len(p) > 0 {
		if d.nc > 0 || len(p) < 4 {
			n := copy(d.carry[d.nc:], p)
			d.nc += n
			p = p[n:]
			if d.nc < 4 {
				break
			}
			dst = d.appendUnit(dst, d.order.Uint32(d.carry[:]), &repl)
			d.nc = 0
			continue
		}
		dst = d.appendUnit(dst, d.order.Uint32(p), &repl)
		p = p[4:]
	}
	if last && d.nc > 0 {
		// Truncated unit at the end of the stream.
		dst = append(dst, uint32(conv.ReplacementChar))
		repl++
		d.nc = 0
	}
	return dst, repl
}

func (d *Decoder) appendUnit(dst []uint32, code uint32, repl *int64) []uint32 {
	if conv.ClassifyUTF32(code, d.policy).Kind == conv.Invalid {
		*repl++
		return append(dst, uint32(conv.ReplacementChar))
	}
	return append(dst, code)
}
