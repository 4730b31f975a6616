package conv

import "github.com/pithecene-io/utf8conv/buf"

// FromUTF8 decodes a UTF-8 byte stream into runes or UTF-32 code units.
//
// The zero value is a session in single-buffer mode with the
// RejectReplacement policy, identical to NewFromUTF8(). A FromUTF8 must not
// be used from more than one goroutine at a time.
type FromUTF8 struct {
	pending buf.EightBytes
	// multiBuffer is the inverse of the last-buffer flag so that the zero
	// value treats its first input as the whole stream.
	multiBuffer bool
	invalid     bool
	policy      ReplacementPolicy
	state       State
}

// NewFromUTF8 returns a decoding session.
func NewFromUTF8(opts ...Option) *FromUTF8 {
	o := buildOptions(opts)
	return &FromUTF8{policy: o.policy}
}

// SetLastBuffer marks whether the next input is the final buffer of the
// stream. Sessions start with the flag set.
func (p *FromUTF8) SetLastBuffer(last bool) { p.multiBuffer = !last }

// IsLastBuffer reports the last-buffer flag.
func (p *FromUTF8) IsLastBuffer() bool { return !p.multiBuffer }

// HasInvalidSequence reports whether any ill-formed input has been replaced
// since construction or the last ResetInvalidSequence.
func (p *FromUTF8) HasInvalidSequence() bool { return p.invalid }

// ResetInvalidSequence clears the invalid-sequence flag.
func (p *FromUTF8) ResetInvalidSequence() { p.invalid = false }

// Policy returns the session's replacement policy.
func (p *FromUTF8) Policy() ReplacementPolicy { return p.policy }

// State returns the session state.
func (p *FromUTF8) State() State { return p.state }

// Buffered returns the number of bytes held between calls.
func (p *FromUTF8) Buffered() int { return p.pending.Len() }

// Reset discards buffered bytes and restores the construction state. The
// replacement policy is kept.
func (p *FromUTF8) Reset() {
	*p = FromUTF8{policy: p.policy}
}

// UTF8ToRune decodes the next rune from the buffered bytes followed by in.
// It returns the unconsumed remainder of in. When no rune can be produced it
// returns ErrNeedMore (feed the next buffer) or ErrEndOfData (the last
// buffer is drained).
func (p *FromUTF8) UTF8ToRune(in []byte) ([]byte, rune, error) {
	if p.state == StateDone {
		return in, 0, ErrEndOfData
	}
	for len(in) > 0 && !p.pending.IsFull() {
		p.pending.PushBack(in[0])
		in = in[1:]
	}
	r, err := p.next()
	return in, r, err
}

// UTF8ToUTF32 is UTF8ToRune yielding a UTF-32 code unit.
func (p *FromUTF8) UTF8ToUTF32(in []byte) ([]byte, uint32, error) {
	rest, r, err := p.UTF8ToRune(in)
	return rest, uint32(r), err
}

// next decodes from the pending buffer alone.
func (p *FromUTF8) next() (rune, error) {
	if p.state == StateDone {
		return 0, ErrEndOfData
	}
	last := !p.multiBuffer
	if p.pending.IsEmpty() {
		if last {
			p.state = StateDone
			return 0, ErrEndOfData
		}
		p.state = StateAwaitingMore
		return 0, ErrNeedMore
	}

	out := DecodeUTF8(&p.pending, last, p.policy)
	switch out.Kind {
	case Finished:
		p.settle()
		return out.Rune(), nil
	case Malformed:
		p.invalid = true
		p.settle()
		return ReplacementChar, nil
	}

	if last {
		// Truncated sequence at the end of the stream.
		p.invalid = true
		p.settle()
		return ReplacementChar, nil
	}
	p.state = StateAwaitingMore
	return 0, ErrNeedMore
}

func (p *FromUTF8) settle() {
	if p.pending.IsEmpty() {
		p.state = StateIdle
	} else {
		p.state = StateDraining
	}
}
