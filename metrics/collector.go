// Package metrics provides per-run metrics collection.
//
// The Collector accumulates counters during a single run. It is a leaf
// package with no internal dependencies. Policy counters are absorbed from
// policy.Stats at run completion rather than recorded live, avoiding
// double-counting.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all run metrics.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Run lifecycle
	RunsStarted   int64 `json:"runs_started"`
	RunsCompleted int64 `json:"runs_completed"`
	RunsFailed    int64 `json:"runs_failed"`
	RunsCanceled  int64 `json:"runs_canceled"`

	// Decoding
	BytesRead    int64 `json:"bytes_read"`
	ReadCalls    int64 `json:"read_calls"`
	NeedMore     int64 `json:"need_more"`
	UnitsDecoded int64 `json:"units_decoded"`
	Replacements int64 `json:"replacements"`

	// Output
	BytesWritten      int64 `json:"bytes_written"`
	FrameDecodeErrors int64 `json:"frame_decode_errors"`

	// Policy (absorbed from policy.Stats at run completion)
	ChunksReceived  int64 `json:"chunks_received"`
	ChunksPersisted int64 `json:"chunks_persisted"`
	ChunksRejected  int64 `json:"chunks_rejected"`

	// Sink / storage
	SinkWriteSuccess int64 `json:"sink_write_success"`
	SinkWriteFailure int64 `json:"sink_write_failure"`

	// Dimensions (informational, set at construction)
	Policy         string `json:"policy"`
	From           string `json:"from"`
	To             string `json:"to"`
	StorageBackend string `json:"storage_backend"`
	RunID          string `json:"run_id"`
}

// Collector accumulates metrics during a single run.
// Thread-safe via sync.Mutex. All methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex
	s  Snapshot
}

// NewCollector creates a Collector with dimension labels.
// storageBackend is empty when no dataset is attached.
func NewCollector(policy, from, to, storageBackend, runID string) *Collector {
	return &Collector{s: Snapshot{
		Policy:         policy,
		From:           from,
		To:             to,
		StorageBackend: storageBackend,
		RunID:          runID,
	}}
}

func (c *Collector) update(fn func(s *Snapshot)) {
	if c == nil {
		return
	}
	c.mu.Lock()
	fn(&c.s)
	c.mu.Unlock()
}

// --- Run lifecycle ---

// IncRunStarted records a run start.
func (c *Collector) IncRunStarted() { c.update(func(s *Snapshot) { s.RunsStarted++ }) }

// IncRunCompleted records a completed run, lossy or not.
func (c *Collector) IncRunCompleted() { c.update(func(s *Snapshot) { s.RunsCompleted++ }) }

// IncRunFailed records a run that ended on rejected input or an I/O error.
func (c *Collector) IncRunFailed() { c.update(func(s *Snapshot) { s.RunsFailed++ }) }

// IncRunCanceled records a run stopped by context cancellation.
func (c *Collector) IncRunCanceled() { c.update(func(s *Snapshot) { s.RunsCanceled++ }) }

// --- Decoding ---

// AddBytesRead records one input read of n bytes.
func (c *Collector) AddBytesRead(n int) {
	c.update(func(s *Snapshot) {
		s.ReadCalls++
		s.BytesRead += int64(n)
	})
}

// IncNeedMore records a session suspension waiting for input.
func (c *Collector) IncNeedMore() { c.update(func(s *Snapshot) { s.NeedMore++ }) }

// AddUnits records decoded code units and the replacements among them.
func (c *Collector) AddUnits(units, replacements int64) {
	c.update(func(s *Snapshot) {
		s.UnitsDecoded += units
		s.Replacements += replacements
	})
}

// --- Output ---

// AddBytesWritten records encoded output bytes.
func (c *Collector) AddBytesWritten(n int64) { c.update(func(s *Snapshot) { s.BytesWritten += n }) }

// IncFrameDecodeErrors records a frame that could not be decoded.
func (c *Collector) IncFrameDecodeErrors() { c.update(func(s *Snapshot) { s.FrameDecodeErrors++ }) }

// --- Sink / storage ---
// Sink counters are per-call, not per-chunk. A single WriteChunks call with
// N chunks counts as 1 success.

// IncSinkWriteSuccess records a successful sink write call.
func (c *Collector) IncSinkWriteSuccess() { c.update(func(s *Snapshot) { s.SinkWriteSuccess++ }) }

// IncSinkWriteFailure records a failed sink write call.
func (c *Collector) IncSinkWriteFailure() { c.update(func(s *Snapshot) { s.SinkWriteFailure++ }) }

// --- Policy ---

// AbsorbPolicyStats copies policy counters into the collector.
// Called once after run completion with the final policy stats snapshot.
func (c *Collector) AbsorbPolicyStats(received, persisted, rejected int64) {
	c.update(func(s *Snapshot) {
		s.ChunksReceived = received
		s.ChunksPersisted = persisted
		s.ChunksRejected = rejected
	})
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s
}
