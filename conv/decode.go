package conv

import "github.com/pithecene-io/utf8conv/buf"

// DecodeKind is the result class of one decode step.
type DecodeKind uint8

const (
	// Indeterminate means the buffered bytes are a valid prefix but too short
	// to decide. Nothing has been consumed unless the buffer is the last one.
	Indeterminate DecodeKind = iota
	// Finished means a complete scalar value was decoded.
	Finished
	// Malformed means an ill-formed subpart was consumed.
	Malformed
)

var decodeKindNames = [...]string{"indeterminate", "finished", "malformed"}

func (k DecodeKind) String() string {
	if int(k) < len(decodeKindNames) {
		return decodeKindNames[k]
	}
	return "unknown"
}

// DecodeOutcome is the result of DecodeUTF8. Code is set for Finished,
// ErrLen (1 to 3) for Malformed.
type DecodeOutcome struct {
	Kind   DecodeKind
	Code   uint32
	ErrLen int
}

// Rune returns the decoded scalar. It panics unless Kind is Finished; the
// decoder only reports Finished for values it has range-checked.
func (o DecodeOutcome) Rune() rune {
	if o.Kind != Finished || o.Code > MaxRune || (o.Code >= surrogateMin && o.Code <= surrogateMax) {
		panic("conv: Rune called on " + o.Kind.String() + " outcome")
	}
	return rune(o.Code)
}

// leadRule describes the sequence announced by a lead byte.
type leadRule struct {
	size   uint8 // total sequence length; 0 for invalid leads
	mask   byte  // payload bits of the lead
	lo, hi byte  // accepted range of the second byte
}

var (
	ruleInvalid = leadRule{}
	ruleTwo     = leadRule{2, 0x1F, 0x80, 0xBF}
	ruleE0      = leadRule{3, 0x0F, 0xA0, 0xBF}
	ruleThree   = leadRule{3, 0x0F, 0x80, 0xBF}
	ruleED      = leadRule{3, 0x0F, 0x80, 0x9F}
	ruleF0      = leadRule{4, 0x07, 0x90, 0xBF}
	ruleFour    = leadRule{4, 0x07, 0x80, 0xBF}
	ruleF4      = leadRule{4, 0x07, 0x80, 0x8F}
)

func ruleFor(lead byte) leadRule {
	switch {
	case lead < 0xC2:
		return ruleInvalid
	case lead < 0xE0:
		return ruleTwo
	case lead == 0xE0:
		return ruleE0
	case lead == 0xED:
		return ruleED
	case lead < 0xF0:
		return ruleThree
	case lead == 0xF0:
		return ruleF0
	case lead < 0xF4:
		return ruleFour
	case lead == 0xF4:
		return ruleF4
	}
	return ruleInvalid
}

const (
	contLo = 0x80
	contHi = 0xBF
)

// DecodeUTF8 runs one step of the UTF-8 state machine over b, consuming the
// bytes of at most one scalar value or one maximal ill-formed subpart.
//
// When lastBuffer is false and b holds fewer bytes than the lead announces,
// nothing is consumed and Indeterminate is returned. When lastBuffer is true
// the lead is consumed and decoding proceeds over what is present; running
// out mid-sequence still yields Indeterminate, which the caller treats as
// ill-formed. A continuation byte outside its permitted range is left in the
// buffer.
func DecodeUTF8(b *buf.EightBytes, lastBuffer bool, p ReplacementPolicy) DecodeOutcome {
	lead, ok := b.Front()
	if !ok {
		return DecodeOutcome{Kind: Indeterminate}
	}
	if lead < 0x80 {
		b.PopFront()
		return DecodeOutcome{Kind: Finished, Code: uint32(lead)}
	}

	rule := ruleFor(lead)
	if rule.size == 0 {
		b.PopFront()
		return DecodeOutcome{Kind: Malformed, ErrLen: 1}
	}
	if b.Len() < int(rule.size) && !lastBuffer {
		return DecodeOutcome{Kind: Indeterminate}
	}
	b.PopFront()

	acc := uint32(lead & rule.mask)
	lo, hi := rule.lo, rule.hi
	for consumed := 1; consumed < int(rule.size); consumed++ {
		c, ok := b.Front()
		if !ok {
			return DecodeOutcome{Kind: Indeterminate}
		}
		if c < lo || c > hi {
			return DecodeOutcome{Kind: Malformed, ErrLen: consumed}
		}
		b.PopFront()
		acc = acc<<6 | uint32(c&maskx)
		lo, hi = contLo, contHi
	}

	if rule.size == 3 && acc == uint32(ReplacementChar) && p == RejectReplacement {
		return DecodeOutcome{Kind: Malformed, ErrLen: 3}
	}
	return DecodeOutcome{Kind: Finished, Code: acc}
}
