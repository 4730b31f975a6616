package conv

import "github.com/pithecene-io/utf8conv/buf"

// FromUnicode encodes runes or UTF-32 code units into UTF-8, one byte per
// call. Trailing bytes of a multi-byte sequence are held in the session and
// returned before any further input is read.
//
// The zero value is ready to use and equals NewFromUnicode().
type FromUnicode struct {
	pending     buf.EightBytes
	multiBuffer bool
	invalid     bool
	policy      ReplacementPolicy
	state       State
}

// NewFromUnicode returns an encoding session.
func NewFromUnicode(opts ...Option) *FromUnicode {
	o := buildOptions(opts)
	return &FromUnicode{policy: o.policy}
}

// SetLastBuffer marks whether the next input is the final buffer.
func (p *FromUnicode) SetLastBuffer(last bool) { p.multiBuffer = !last }

// IsLastBuffer reports the last-buffer flag.
func (p *FromUnicode) IsLastBuffer() bool { return !p.multiBuffer }

// HasInvalidSequence reports whether an invalid code unit has been replaced.
func (p *FromUnicode) HasInvalidSequence() bool { return p.invalid }

// ResetInvalidSequence clears the invalid-sequence flag.
func (p *FromUnicode) ResetInvalidSequence() { p.invalid = false }

// Policy returns the session's replacement policy.
func (p *FromUnicode) Policy() ReplacementPolicy { return p.policy }

// State returns the session state.
func (p *FromUnicode) State() State { return p.state }

// Buffered returns the number of trailing bytes not yet returned.
func (p *FromUnicode) Buffered() int { return p.pending.Len() }

// Reset discards pending bytes and restores the construction state.
func (p *FromUnicode) Reset() {
	*p = FromUnicode{policy: p.policy}
}

// RuneToUTF8 returns the next UTF-8 byte. Runes are consumed from in only
// when no trailing byte is pending; the unconsumed remainder is returned.
func (p *FromUnicode) RuneToUTF8(in []rune) ([]rune, byte, error) {
	return encodeNext(p, in)
}

// UTF32ToUTF8 is RuneToUTF8 over UTF-32 code units.
func (p *FromUnicode) UTF32ToUTF8(in []uint32) ([]uint32, byte, error) {
	return encodeNext(p, in)
}

func encodeNext[T rune | uint32](p *FromUnicode, in []T) ([]T, byte, error) {
	if b, ok := p.pending.PopFront(); ok {
		p.settle()
		return in, b, nil
	}
	if p.state == StateDone {
		return in, 0, ErrEndOfData
	}
	if len(in) == 0 {
		if !p.multiBuffer {
			p.state = StateDone
			return in, 0, ErrEndOfData
		}
		p.state = StateAwaitingMore
		return in, 0, ErrNeedMore
	}

	out := ClassifyUTF32(uint32(in[0]), p.policy)
	if out.Kind == Invalid {
		p.invalid = true
	}
	for i := 1; i < out.Len(); i++ {
		p.pending.PushBack(out.Byte(i))
	}
	p.settle()
	return in[1:], out.Byte(0), nil
}

func (p *FromUnicode) settle() {
	if p.pending.IsEmpty() {
		p.state = StateIdle
	} else {
		p.state = StateDraining
	}
}
