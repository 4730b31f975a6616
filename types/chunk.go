package types

import (
	"errors"
	"time"
)

// Chunk is the decoded form of one input read: the UTF-32 code units
// produced from it, in stream order.
//
// Units that could not be decoded are already U+FFFD; Replacements counts
// them. Seq is 1-based and strictly increasing within a run.
type Chunk struct {
	Seq          int64    `msgpack:"seq" json:"seq"`
	Units        []uint32 `msgpack:"units" json:"units"`
	Replacements int64    `msgpack:"replacements" json:"replacements"`
	InputBytes   int64    `msgpack:"input_bytes" json:"input_bytes"`
	Last         bool     `msgpack:"last" json:"last"`
}

// Invalid reports whether any ill-formed input was replaced in this chunk.
func (c *Chunk) Invalid() bool { return c.Replacements > 0 }

// RunMeta identifies a conversion run.
type RunMeta struct {
	// RunID is the unique run identifier.
	RunID string `json:"run_id"`
	// Source names the input (file path, "stdin", dataset key).
	Source string `json:"source"`
	// From is the input format.
	From Format `json:"from"`
	// To is the output format.
	To Format `json:"to"`
	// StartedAt is the run start time.
	StartedAt time.Time `json:"started_at"`
}

// Validate checks the required fields.
func (m *RunMeta) Validate() error {
	if m.RunID == "" {
		return errors.New("run_id is required")
	}
	if m.Source == "" {
		return errors.New("source is required")
	}
	if m.From == "" || m.From == FormatFrames {
		return errors.New("from must be utf8, utf32le, or utf32be")
	}
	if m.To == "" {
		return errors.New("to is required")
	}
	return nil
}
