package policy

import (
	"context"

	"github.com/pithecene-io/utf8conv/types"
)

// LossyPolicy writes every chunk immediately, replacements included.
// Replacements are counted, never rejected.
type LossyPolicy struct {
	sink  Sink
	stats statsRecorder
}

// NewLossyPolicy creates a lossy policy writing to the given sink.
func NewLossyPolicy(sink Sink) *LossyPolicy {
	return &LossyPolicy{sink: sink}
}

// Ingest writes the chunk immediately.
func (p *LossyPolicy) Ingest(ctx context.Context, chunk *types.Chunk) error {
	p.stats.recordReceived(chunk)

	batch := []*types.Chunk{chunk}
	if err := p.sink.WriteChunks(ctx, batch); err != nil {
		p.stats.incErrors()
		return err
	}
	p.stats.recordPersisted(batch)
	return nil
}

// Flush is a no-op (nothing is buffered).
func (p *LossyPolicy) Flush(_ context.Context) error {
	p.stats.incFlush()
	return nil
}

// Close closes the underlying sink.
func (p *LossyPolicy) Close() error {
	return p.sink.Close()
}

// Stats returns policy statistics.
func (p *LossyPolicy) Stats() Stats {
	return p.stats.snapshot()
}
