package lode

import (
	"context"

	"github.com/pithecene-io/utf8conv/log"
	"github.com/pithecene-io/utf8conv/metrics"
	"github.com/pithecene-io/utf8conv/policy"
	"github.com/pithecene-io/utf8conv/types"
)

// InstrumentedSink counts the outcome of every batch written to the sink it
// wraps. Failed batches are also logged with their sequence range.
type InstrumentedSink struct {
	next      policy.Sink
	collector *metrics.Collector
	logger    *log.Logger
}

// NewInstrumentedSink wraps next. A nil collector disables counting.
func NewInstrumentedSink(next policy.Sink, collector *metrics.Collector) *InstrumentedSink {
	return &InstrumentedSink{next: next, collector: collector, logger: log.NewNop()}
}

// WithLogger sets the logger used for failed batches.
func (s *InstrumentedSink) WithLogger(logger *log.Logger) *InstrumentedSink {
	if logger != nil {
		s.logger = logger
	}
	return s
}

func (s *InstrumentedSink) WriteChunks(ctx context.Context, chunks []*types.Chunk) error {
	if err := s.next.WriteChunks(ctx, chunks); err != nil {
		s.collector.IncSinkWriteFailure()
		s.logger.Warn("sink write failed", batchFields(chunks, err))
		return err
	}
	s.collector.IncSinkWriteSuccess()
	return nil
}

func (s *InstrumentedSink) Close() error { return s.next.Close() }

func batchFields(chunks []*types.Chunk, err error) map[string]any {
	fields := map[string]any{"chunks": len(chunks), "error": err.Error()}
	if len(chunks) > 0 {
		fields["first_seq"] = chunks[0].Seq
		fields["last_seq"] = chunks[len(chunks)-1].Seq
	}
	return fields
}

var _ policy.Sink = (*InstrumentedSink)(nil)
