package conv

import (
	"encoding/binary"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// decodeTransformer drives a FromUTF8 session from transform.Transformer
// calls. Each decoded rune is rendered into held and copied out as dst
// allows, so any dst length makes progress.
type decodeTransformer struct {
	sess   FromUTF8
	held   [4]byte
	n, off int
	render func(dst *[4]byte, r rune) int
}

func (t *decodeTransformer) Reset() {
	t.sess.Reset()
	t.n, t.off = 0, 0
}

func (t *decodeTransformer) flush(dst []byte) int {
	k := copy(dst, t.held[t.off:t.n])
	t.off += k
	return k
}

func (t *decodeTransformer) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	nDst = t.flush(dst)
	if t.off < t.n {
		return nDst, 0, transform.ErrShortDst
	}
	t.sess.SetLastBuffer(atEOF)
	for {
		rest, r, err := t.sess.UTF8ToRune(src[nSrc:])
		nSrc = len(src) - len(rest)
		if err != nil {
			// All of src is held by the session or the stream is drained.
			return nDst, nSrc, nil
		}
		t.n, t.off = t.render(&t.held, r), 0
		nDst += t.flush(dst[nDst:])
		if t.off < t.n {
			return nDst, nSrc, transform.ErrShortDst
		}
	}
}

// Sanitizer is a transform.Transformer that rewrites arbitrary bytes into
// well-formed UTF-8, replacing each maximal ill-formed subpart with U+FFFD.
type Sanitizer struct {
	decodeTransformer
}

// NewSanitizer returns a Sanitizer.
func NewSanitizer(opts ...Option) *Sanitizer {
	o := buildOptions(opts)
	s := &Sanitizer{}
	s.sess.policy = o.policy
	s.render = renderUTF8
	return s
}

// HasInvalidSequence reports whether any replacement has been made since
// the last Reset.
func (s *Sanitizer) HasInvalidSequence() bool { return s.sess.HasInvalidSequence() }

func renderUTF8(dst *[4]byte, r rune) int {
	return ClassifyUTF32(uint32(r), AcceptReplacement).Put(dst[:])
}

// Endianness is the byte order of UTF-32 data.
type Endianness uint8

// Byte orders.
const (
	BigEndian Endianness = iota
	LittleEndian
)

func (e Endianness) byteOrder() binary.ByteOrder {
	if e == LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

func (e Endianness) String() string {
	if e == LittleEndian {
		return "LE"
	}
	return "BE"
}

// UTF32 returns an encoding.Encoding for UTF-32 in the given byte order.
// Its decoder converts UTF-32 to UTF-8 and its encoder converts UTF-8 to
// UTF-32. Ill-formed input on either side is replaced with U+FFFD, as is a
// trailing partial code unit at end of input. No byte order mark is read
// or written.
func UTF32(order Endianness, opts ...Option) encoding.Encoding {
	return utf32Encoding{order: order, policy: buildOptions(opts).policy}
}

type utf32Encoding struct {
	order  Endianness
	policy ReplacementPolicy
}

func (e utf32Encoding) NewDecoder() *encoding.Decoder {
	t := &utf32Decoder{order: e.order.byteOrder()}
	t.sess.policy = e.policy
	t.sess.SetLastBuffer(false)
	return &encoding.Decoder{Transformer: t}
}

func (e utf32Encoding) NewEncoder() *encoding.Encoder {
	order := e.order.byteOrder()
	t := &decodeTransformer{render: func(dst *[4]byte, r rune) int {
		order.PutUint32(dst[:], uint32(r))
		return 4
	}}
	t.sess.policy = e.policy
	return &encoding.Encoder{Transformer: t}
}

func (e utf32Encoding) String() string {
	return "UTF-32" + e.order.String()
}

// invalidUnit is outside the Unicode range and always classifies Invalid.
const invalidUnit = 0xFFFFFFFF

// utf32Decoder feeds UTF-32 code units to a FromUnicode session. The
// session stays in multi-buffer mode; its pending bytes are drained before
// the next unit is read.
type utf32Decoder struct {
	sess  FromUnicode
	order binary.ByteOrder
}

func (t *utf32Decoder) Reset() {
	t.sess.Reset()
	t.sess.SetLastBuffer(false)
}

func (t *utf32Decoder) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	var unit [1]uint32
	for {
		for t.sess.Buffered() > 0 {
			if nDst == len(dst) {
				return nDst, nSrc, transform.ErrShortDst
			}
			_, b, _ := t.sess.UTF32ToUTF8(nil)
			dst[nDst] = b
			nDst++
		}

		rem := src[nSrc:]
		width := 4
		switch {
		case len(rem) == 0:
			return nDst, nSrc, nil
		case len(rem) >= 4:
			unit[0] = t.order.Uint32(rem)
		case !atEOF:
			return nDst, nSrc, transform.ErrShortSrc
		default:
			unit[0] = invalidUnit
			width = len(rem)
		}
		if nDst == len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		_, b, _ := t.sess.UTF32ToUTF8(unit[:])
		dst[nDst] = b
		nDst++
		nSrc += width
	}
}
