// Package conv implements streaming conversion between UTF-8 bytes,
// Unicode scalar values and UTF-32 code units.
//
// Conversions are driven through two session types. FromUTF8 decodes UTF-8
// into runes or UTF-32 units; FromUnicode encodes runes or UTF-32 units into
// UTF-8 one byte at a time. Both accept input split across any number of
// buffers, keep at most eight bytes of state, and never allocate on the hot
// path.
//
// Ill-formed input never stops a session. Each maximal ill-formed subpart
// becomes U+FFFD and sets a sticky flag that the caller may inspect and
// clear.
package conv

// ReplacementChar is U+FFFD, substituted for every ill-formed sequence.
const ReplacementChar rune = 0xFFFD

// MaxRune is the largest Unicode scalar value.
const MaxRune = 0x10FFFF

// ReplacementPolicy selects how a literal U+FFFD in the input is treated.
type ReplacementPolicy uint8

const (
	// RejectReplacement treats a literal U+FFFD as an ill-formed sequence,
	// so the invalid-sequence flag also fires when the input already
	// carried replacement characters. It is the zero value.
	RejectReplacement ReplacementPolicy = iota
	// AcceptReplacement passes U+FFFD through as an ordinary scalar.
	AcceptReplacement
)

// String returns the policy name.
func (p ReplacementPolicy) String() string {
	if p == AcceptReplacement {
		return "accept"
	}
	return "reject"
}

// State is the observable lifecycle state of a session.
type State uint8

const (
	// StateIdle means no value is partially buffered.
	StateIdle State = iota
	// StateAwaitingMore means the last call returned ErrNeedMore.
	StateAwaitingMore
	// StateDraining means the session still holds buffered bytes that
	// will be returned without further input.
	StateDraining
	// StateDone means ErrEndOfData has been returned. Only Reset leaves it.
	StateDone
)

var stateNames = [...]string{"idle", "awaiting_more", "draining", "done"}

// String returns the state name.
func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Option configures a session.
type Option func(*options)

type options struct {
	policy ReplacementPolicy
}

// WithReplacementPolicy sets the treatment of a literal U+FFFD.
func WithReplacementPolicy(p ReplacementPolicy) Option {
	return func(o *options) { o.policy = p }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
