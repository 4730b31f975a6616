package policy

import (
	"context"

	"github.com/pithecene-io/utf8conv/types"
)

// StrictPolicy implements synchronous, unbuffered writes that refuse
// ill-formed input.
//
//   - No buffering: each chunk is written immediately (batch of 1)
//   - A chunk with replacements is rejected with an *InvalidInputError
//     and nothing from it is written
//   - Sink errors fail the run
type StrictPolicy struct {
	sink  Sink
	stats statsRecorder
}

// NewStrictPolicy creates a strict policy writing to the given sink.
func NewStrictPolicy(sink Sink) *StrictPolicy {
	return &StrictPolicy{sink: sink}
}

// Ingest writes the chunk, or rejects it when it carries replacements.
func (p *StrictPolicy) Ingest(ctx context.Context, chunk *types.Chunk) error {
	p.stats.recordReceived(chunk)

	if chunk.Invalid() {
		p.stats.incRejected()
		return &InvalidInputError{Seq: chunk.Seq, Replacements: chunk.Replacements}
	}

	batch := []*types.Chunk{chunk}
	if err := p.sink.WriteChunks(ctx, batch); err != nil {
		p.stats.incErrors()
		return err
	}
	p.stats.recordPersisted(batch)
	return nil
}

// Flush is a no-op (nothing is buffered).
func (p *StrictPolicy) Flush(_ context.Context) error {
	p.stats.incFlush()
	return nil
}

// Close closes the underlying sink.
func (p *StrictPolicy) Close() error {
	return p.sink.Close()
}

// Stats returns policy statistics.
func (p *StrictPolicy) Stats() Stats {
	return p.stats.snapshot()
}
