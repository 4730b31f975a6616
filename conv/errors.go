package conv

import "fmt"

// NeedMoreHint is the buffer size suggested to callers by ErrNeedMore.
const NeedMoreHint = 4096

// MoreError reports that a session cannot return a value from the input it
// has been given. Amount is a hint: zero means the stream is exhausted, any
// other value is the suggested size of the next buffer.
type MoreError struct {
	Amount int
}

func (e *MoreError) Error() string {
	if e.Amount == 0 {
		return "utf8conv: end of data"
	}
	return fmt.Sprintf("utf8conv: need more input (hint %d bytes)", e.Amount)
}

// EndOfData reports whether the error marks an exhausted stream.
func (e *MoreError) EndOfData() bool {
	return e.Amount == 0
}

var (
	// ErrNeedMore is returned when the session has consumed all input and
	// cannot produce a value until the next buffer arrives.
	ErrNeedMore error = &MoreError{Amount: NeedMoreHint}

	// ErrEndOfData is returned once the last buffer has been fully drained.
	ErrEndOfData error = &MoreError{Amount: 0}
)
