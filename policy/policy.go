// Package policy defines how decoded chunks reach a sink.
//
// A policy decides three things: whether a chunk carrying replacements is
// accepted, whether chunks are written immediately or batched, and what is
// counted. Policies never alter chunk contents and never reorder chunks.
package policy

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pithecene-io/utf8conv/types"
)

// Policy defines the chunk ingestion interface.
//
// Invariants:
//   - chunks reach the sink in Seq order
//   - a chunk is written whole or not at all
//   - policy or sink failure terminates the run
type Policy interface {
	// Ingest handles one decoded chunk.
	// Returns error to terminate the run.
	Ingest(ctx context.Context, chunk *types.Chunk) error

	// Flush writes any buffered chunks.
	// Called at end of input and on termination.
	Flush(ctx context.Context) error

	// Close releases policy resources and closes the sink.
	Close() error

	// Stats returns a consistent snapshot of policy counters.
	Stats() Stats
}

// Name identifies a policy implementation.
type Name string

const (
	// NameStrict rejects ill-formed input.
	NameStrict Name = "strict"
	// NameLossy replaces ill-formed input and writes immediately.
	NameLossy Name = "lossy"
	// NameBuffered replaces ill-formed input and writes in batches.
	NameBuffered Name = "buffered"
	// NameNoop counts and discards.
	NameNoop Name = "noop"
)

// ParseName parses a policy name.
func ParseName(s string) (Name, error) {
	switch n := Name(s); n {
	case NameStrict, NameLossy, NameBuffered, NameNoop:
		return n, nil
	default:
		return "", fmt.Errorf("invalid policy %q: must be strict, lossy, buffered, or noop", s)
	}
}

// ErrInvalidInput is matched by errors returned when ill-formed input is
// rejected.
var ErrInvalidInput = errors.New("invalid input")

// InvalidInputError reports the chunk that carried ill-formed input.
type InvalidInputError struct {
	Seq          int64
	Replacements int64
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: chunk %d has %d ill-formed sequence(s)", e.Seq, e.Replacements)
}

// Is matches ErrInvalidInput.
func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Stats represents policy observability counters.
type Stats struct {
	// Chunks is the number of chunks received.
	Chunks int64
	// Units is the number of code units received.
	Units int64
	// Replacements is the number of ill-formed sequences in received chunks.
	Replacements int64
	// InvalidChunks is the number of received chunks with replacements.
	InvalidChunks int64
	// ChunksPersisted is the number of chunks written to the sink.
	ChunksPersisted int64
	// UnitsPersisted is the number of code units written to the sink.
	UnitsPersisted int64
	// Rejected is the number of chunks refused by the policy.
	Rejected int64
	// BufferedUnits is the number of code units currently buffered.
	BufferedUnits int64
	// FlushCount is the number of flush operations.
	FlushCount int64
	// Errors is the count of sink write failures.
	Errors int64
}

// statsRecorder is an internal helper for thread-safe stats management.
//
// Lock discipline:
//   - StrictPolicy, LossyPolicy and NoopPolicy use the locking methods
//   - BufferedPolicy uses the Locked methods only while holding its own mu,
//     keeping buffer state and counters consistent
type statsRecorder struct {
	mu    sync.Mutex
	stats Stats
}

func (r *statsRecorder) recordReceived(chunk *types.Chunk) {
	r.mu.Lock()
	r.recordReceivedLocked(chunk)
	r.mu.Unlock()
}

func (r *statsRecorder) recordPersisted(chunks []*types.Chunk) {
	r.mu.Lock()
	r.recordPersistedLocked(chunks)
	r.mu.Unlock()
}

func (r *statsRecorder) incRejected() {
	r.mu.Lock()
	r.stats.Rejected++
	r.mu.Unlock()
}

func (r *statsRecorder) incErrors() {
	r.mu.Lock()
	r.stats.Errors++
	r.mu.Unlock()
}

func (r *statsRecorder) incFlush() {
	r.mu.Lock()
	r.stats.FlushCount++
	r.mu.Unlock()
}

func (r *statsRecorder) snapshot() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// --- Locked methods for BufferedPolicy ---
// Caller must hold BufferedPolicy.mu.

func (r *statsRecorder) recordReceivedLocked(chunk *types.Chunk) {
	r.stats.Chunks++
	r.stats.Units += int64(len(chunk.Units))
	r.stats.Replacements += chunk.Replacements
	if chunk.Invalid() {
		r.stats.InvalidChunks++
	}
}

func (r *statsRecorder) recordPersistedLocked(chunks []*types.Chunk) {
	for _, c := range chunks {
		r.stats.ChunksPersisted++
		r.stats.UnitsPersisted += int64(len(c.Units))
	}
}

func (r *statsRecorder) incErrorsLocked() {
	r.stats.Errors++
}

func (r *statsRecorder) incFlushLocked() {
	r.stats.FlushCount++
}

// snapshotLocked returns stats with the given buffered unit count.
func (r *statsRecorder) snapshotLocked(bufferedUnits int64) Stats {
	s := r.stats
	s.BufferedUnits = bufferedUnits
	return s
}
