package stream

import (
	"errors"
	"io"
	"unicode/utf8"

	"github.com/pithecene-io/utf8conv/conv"
	"github.com/pithecene-io/utf8conv/iox"
	"github.com/pithecene-io/utf8conv/types"
)

// Reader decodes runes from a UTF-8 byte stream. It implements
// io.RuneReader.
//
// Input is read in chunks of the configured buffer size. A new chunk is
// read only when the session has consumed the previous one; end of file
// marks the last buffer so a truncated trailing sequence is replaced.
type Reader struct {
	r    io.Reader
	sess *conv.FromUTF8
	buf  []byte
	in   []byte
	err  error

	bytesRead int64
}

// NewReader returns a Reader decoding r.
func NewReader(r io.Reader, opts ...Option) *Reader {
	c := buildConfig(opts)
	sess := conv.NewFromUTF8(conv.WithReplacementPolicy(c.policy))
	sess.SetLastBuffer(false)
	return &Reader{r: r, sess: sess, buf: make([]byte, c.bufferSize)}
}

// ReadRune returns the next rune. size is the UTF-8 length of the returned
// rune, which differs from the input consumed when a replacement was made.
// At the end of the stream it returns io.EOF.
func (r *Reader) ReadRune() (rune, int, error) {
	for {
		rest, c, err := r.sess.UTF8ToRune(r.in)
		r.in = rest
		switch {
		case err == nil:
			return c, utf8.RuneLen(c), nil
		case errors.Is(err, conv.ErrEndOfData):
			return 0, 0, io.EOF
		}
		if r.err != nil {
			return 0, 0, r.err
		}
		if err := r.fill(); err != nil {
			r.err = err
			return 0, 0, err
		}
	}
}

func (r *Reader) fill() error {
	n, eof, err := iox.ReadChunk(r.r, r.buf)
	r.in = r.buf[:n]
	r.bytesRead += int64(n)
	if eof {
		r.sess.SetLastBuffer(true)
	}
	return err
}

// HasInvalidSequence reports whether any ill-formed input was replaced.
func (r *Reader) HasInvalidSequence() bool { return r.sess.HasInvalidSequence() }

// BytesRead returns the number of input bytes read so far.
func (r *Reader) BytesRead() int64 { return r.bytesRead }

// UnitReader reads UTF-32 code units from a UTF-8 or UTF-32 byte stream.
type UnitReader struct {
	r     io.Reader
	dec   *Decoder
	buf   []byte
	units []uint32
	pos   int
	eof   bool

	bytesRead    int64
	replacements int64
}

// NewUnitReader returns a UnitReader decoding r in the given format.
func NewUnitReader(r io.Reader, from types.Format, opts ...Option) (*UnitReader, error) {
	dec, err := NewDecoder(from, opts...)
	if err != nil {
		return nil, err
	}
	c := buildConfig(opts)
	return &UnitReader{r: r, dec: dec, buf: make([]byte, c.bufferSize)}, nil
}

// ReadUnit returns the next code unit, or io.EOF at the end of the stream.
func (u *UnitReader) ReadUnit() (uint32, error) {
	for u.pos == len(u.units) {
		if u.eof {
			return 0, io.EOF
		}
		n, eof, err := iox.ReadChunk(u.r, u.buf)
		if err != nil {
			return 0, err
		}
		u.bytesRead += int64(n)
		u.eof = eof
		var repl int64
		u.units, repl, err = u.dec.Decode(u.units[:0], u.buf[:n], eof)
		if err != nil {
			return 0, err
		}
		u.replacements += repl
		u.pos = 0
	}
	unit := u.units[u.pos]
	u.pos++
	return unit, nil
}

// HasInvalidSequence reports whether any ill-formed input was replaced.
func (u *UnitReader) HasInvalidSequence() bool { return u.dec.HasInvalidSequence() }

// Replacements returns the number of units replaced so far.
func (u *UnitReader) Replacements() int64 { return u.replacements }

// BytesRead returns the number of input bytes read so far.
func (u *UnitReader) BytesRead() int64 { return u.bytesRead }
