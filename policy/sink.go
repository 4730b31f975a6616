package policy

import (
	"context"
	"errors"
	"sync"

	"github.com/pithecene-io/utf8conv/types"
)

// Sink abstracts chunk output for policies.
// Implementations may encode to a writer, emit frames, persist to a
// dataset, or stub for testing.
type Sink interface {
	// WriteChunks writes a batch of chunks.
	// Must preserve ordering within the batch.
	// Returns error on failure; the policy decides whether to retry or fail.
	WriteChunks(ctx context.Context, chunks []*types.Chunk) error

	// Close releases any resources held by the sink.
	Close() error
}

// MultiSink writes every batch to each sink in order. A failing sink
// stops the batch; later sinks do not see it.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink combines sinks. Nil entries are skipped.
func NewMultiSink(sinks ...Sink) *MultiSink {
	m := &MultiSink{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// WriteChunks implements Sink.
func (m *MultiSink) WriteChunks(ctx context.Context, chunks []*types.Chunk) error {
	for _, s := range m.sinks {
		if err := s.WriteChunks(ctx, chunks); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink and joins their errors.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ Sink = (*MultiSink)(nil)

// StubSink is a test sink that records writes without persisting.
type StubSink struct {
	mu sync.Mutex

	// ChunksWritten is the total count of chunks written.
	ChunksWritten int64
	// UnitsWritten is the total count of code units written.
	UnitsWritten int64
	// Batches is the number of WriteChunks calls that succeeded.
	Batches int64
	// Closed indicates whether Close was called.
	Closed bool

	// Written stores all written chunks for inspection.
	Written []*types.Chunk

	// ErrorOnWrite, if non-nil, is returned by WriteChunks.
	ErrorOnWrite error
}

// NewStubSink creates a new stub sink for testing.
func NewStubSink() *StubSink {
	return &StubSink{Written: make([]*types.Chunk, 0)}
}

// WriteChunks records the chunks.
func (s *StubSink) WriteChunks(_ context.Context, chunks []*types.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ErrorOnWrite != nil {
		return s.ErrorOnWrite
	}

	s.Batches++
	s.ChunksWritten += int64(len(chunks))
	for _, c := range chunks {
		s.UnitsWritten += int64(len(c.Units))
	}
	s.Written = append(s.Written, chunks...)
	return nil
}

// SetError sets the error returned by subsequent writes.
func (s *StubSink) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ErrorOnWrite = err
}

// Close marks the sink as closed.
func (s *StubSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Closed = true
	return nil
}

// Stats returns a snapshot of sink statistics.
func (s *StubSink) Stats() StubSinkStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return StubSinkStats{
		ChunksWritten: s.ChunksWritten,
		UnitsWritten:  s.UnitsWritten,
		Batches:       s.Batches,
		Closed:        s.Closed,
	}
}

// Seqs returns the sequence numbers of written chunks in write order.
func (s *StubSink) Seqs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]int64, len(s.Written))
	for i, c := range s.Written {
		out[i] = c.Seq
	}
	return out
}

// StubSinkStats is a snapshot of StubSink statistics.
type StubSinkStats struct {
	ChunksWritten int64
	UnitsWritten  int64
	Batches       int64
	Closed        bool
}
