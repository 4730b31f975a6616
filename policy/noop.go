package policy

import (
	"context"

	"github.com/pithecene-io/utf8conv/types"
)

// NoopPolicy counts chunks and discards them. Used for validation runs,
// where only the counters matter.
type NoopPolicy struct {
	stats statsRecorder
}

// NewNoopPolicy creates a new no-op policy.
func NewNoopPolicy() *NoopPolicy {
	return &NoopPolicy{}
}

// Ingest records the chunk without writing it.
func (p *NoopPolicy) Ingest(_ context.Context, chunk *types.Chunk) error {
	p.stats.recordReceived(chunk)
	return nil
}

// Flush is a no-op.
func (p *NoopPolicy) Flush(_ context.Context) error {
	p.stats.incFlush()
	return nil
}

// Close is a no-op.
func (p *NoopPolicy) Close() error {
	return nil
}

// Stats returns the policy statistics.
func (p *NoopPolicy) Stats() Stats {
	return p.stats.snapshot()
}
