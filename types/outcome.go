package types

// OutcomeStatus is the terminal status of a run.
type OutcomeStatus string

const (
	// OutcomeSuccess means all input was well-formed and written.
	OutcomeSuccess OutcomeStatus = "success"
	// OutcomeLossy means the run completed with replacements.
	OutcomeLossy OutcomeStatus = "lossy"
	// OutcomeInvalidInput means the strict policy rejected ill-formed input.
	OutcomeInvalidInput OutcomeStatus = "invalid_input"
	// OutcomeIOError means reading input or writing output failed.
	OutcomeIOError OutcomeStatus = "io_error"
	// OutcomeCanceled means the run context was canceled.
	OutcomeCanceled OutcomeStatus = "canceled"
)

// RunOutcome is the outcome of a run.
type RunOutcome struct {
	Status  OutcomeStatus `msgpack:"status" json:"status"`
	Message string        `msgpack:"message" json:"message"`
}

// Frame type discriminants.
const (
	// ChunkFrameType is the type discriminant for chunk frames.
	ChunkFrameType = "chunk"
	// RunResultFrameType is the type discriminant for run result frames.
	RunResultFrameType = "run_result"
)

// ChunkFrame carries one Chunk on the wire.
type ChunkFrame struct {
	Type  string `msgpack:"type"`
	Chunk Chunk  `msgpack:"chunk"`
}

// RunResultFrame terminates a frame stream. It is a control frame and
// carries no units.
type RunResultFrame struct {
	Type         string     `msgpack:"type"`
	RunID        string     `msgpack:"run_id"`
	Outcome      RunOutcome `msgpack:"outcome"`
	Chunks       int64      `msgpack:"chunks"`
	Units        int64      `msgpack:"units"`
	Replacements int64      `msgpack:"replacements"`
	Version      string     `msgpack:"version"`
}
