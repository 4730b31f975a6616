package policy

import (
	"context"
	"errors"
	"maps"
	"sync"
	"time"

	"github.com/pithecene-io/utf8conv/log"
	"github.com/pithecene-io/utf8conv/types"
)

// BufferedConfig configures a BufferedPolicy.
type BufferedConfig struct {
	// FlushUnits triggers a flush once this many code units are buffered.
	// Zero disables the count trigger.
	FlushUnits int

	// FlushInterval triggers a flush every interval.
	// Zero disables the interval trigger.
	FlushInterval time.Duration

	// Logger is an optional logger for policy observability.
	Logger *log.Logger
}

// DefaultBufferedConfig returns sensible defaults for the buffered policy.
func DefaultBufferedConfig() BufferedConfig {
	return BufferedConfig{FlushUnits: 64 * 1024}
}

// FlushTrigger identifies which trigger caused a flush.
type FlushTrigger string

const (
	// FlushTriggerCount indicates a unit-threshold flush.
	FlushTriggerCount FlushTrigger = "count"
	// FlushTriggerInterval indicates an interval flush.
	FlushTriggerInterval FlushTrigger = "interval"
	// FlushTriggerTermination indicates an end-of-input flush.
	FlushTriggerTermination FlushTrigger = "termination"
)

// ErrInvalidBufferedConfig is returned when BufferedConfig is invalid.
var ErrInvalidBufferedConfig = errors.New("invalid buffered config: at least one of FlushUnits or FlushInterval must be set")

// BufferedPolicy accepts replacements like LossyPolicy but batches chunks
// until FlushUnits code units are buffered or FlushInterval elapses. A batch
// that fails to write is put back ahead of newer chunks and retried on the
// next trigger, so sink order always matches ingest order.
//
// mu guards the buffer and stats; flushMu serializes whole flushes from
// Ingest, Flush and the interval goroutine.
type BufferedPolicy struct {
	sink   Sink
	config BufferedConfig
	logger *log.Logger

	mu       sync.Mutex
	buffer   []*types.Chunk
	units    int64
	stats    statsRecorder
	triggers map[FlushTrigger]int64

	flushMu sync.Mutex

	stop      context.CancelFunc
	loop      sync.WaitGroup
	closeOnce sync.Once
}

// NewBufferedPolicy creates a buffered policy. With a FlushInterval it
// starts a goroutine that runs until Close.
func NewBufferedPolicy(sink Sink, config BufferedConfig) (*BufferedPolicy, error) {
	if config.FlushUnits <= 0 && config.FlushInterval <= 0 {
		return nil, ErrInvalidBufferedConfig
	}
	logger := config.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	ctx, stop := context.WithCancel(context.Background())
	p := &BufferedPolicy{
		sink:   sink,
		config: config,
		logger: logger,
		triggers: map[FlushTrigger]int64{
			FlushTriggerCount:       0,
			FlushTriggerInterval:    0,
			FlushTriggerTermination: 0,
		},
		stop: stop,
	}
	if config.FlushInterval > 0 {
		p.loop.Go(func() { p.intervalLoop(ctx) })
	}
	return p, nil
}

func (p *BufferedPolicy) Ingest(ctx context.Context, chunk *types.Chunk) error {
	p.mu.Lock()
	p.stats.recordReceivedLocked(chunk)
	p.buffer = append(p.buffer, chunk)
	p.units += int64(len(chunk.Units))
	full := p.config.FlushUnits > 0 && p.units >= int64(p.config.FlushUnits)
	p.mu.Unlock()

	if full {
		return p.flush(ctx, FlushTriggerCount)
	}
	return nil
}

// Flush writes everything buffered.
func (p *BufferedPolicy) Flush(ctx context.Context) error {
	return p.flush(ctx, FlushTriggerTermination)
}

func (p *BufferedPolicy) flush(ctx context.Context, trigger FlushTrigger) error {
	p.flushMu.Lock()
	defer p.flushMu.Unlock()

	p.mu.Lock()
	p.triggers[trigger]++
	p.stats.incFlushLocked()
	batch := p.buffer
	p.buffer, p.units = nil, 0
	p.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	fields := map[string]any{"trigger": string(trigger), "chunks": len(batch)}
	if err := p.sink.WriteChunks(ctx, batch); err != nil {
		p.mu.Lock()
		p.stats.incErrorsLocked()
		p.buffer = append(batch, p.buffer...)
		p.units = countUnits(p.buffer)
		p.mu.Unlock()
		fields["error"] = err.Error()
		p.logger.Warn("buffered flush failed, batch retained", fields)
		return err
	}

	p.mu.Lock()
	p.stats.recordPersistedLocked(batch)
	p.mu.Unlock()
	p.logger.Debug("buffered flush", fields)
	return nil
}

// Close stops the interval goroutine and waits for it, flushes best-effort
// and closes the sink. Only the first call has any effect.
func (p *BufferedPolicy) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.stop()
		p.loop.Wait()
		_ = p.Flush(context.Background())
		err = p.sink.Close()
	})
	return err
}

// Stats returns a consistent snapshot of policy statistics.
func (p *BufferedPolicy) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats.snapshotLocked(p.units)
}

// FlushTriggerStats returns flush counts per trigger. Every trigger is
// present, including those that never fired.
func (p *BufferedPolicy) FlushTriggerStats() map[FlushTrigger]int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return maps.Clone(p.triggers)
}

func (p *BufferedPolicy) intervalLoop(ctx context.Context) {
	ticker := time.NewTicker(p.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.mu.Lock()
			pending := len(p.buffer) > 0
			p.mu.Unlock()
			if pending {
				// A failed interval flush is retried on the next trigger.
				_ = p.flush(ctx, FlushTriggerInterval)
			}
		}
	}
}

func countUnits(chunks []*types.Chunk) int64 {
	var n int64
	for _, c := range chunks {
		n += int64(len(c.Units))
	}
	return n
}
