// Package lode persists conversion runs to a Lode dataset.
//
// Chunks and run reports are written as JSONL records under a Hive layout
// partitioned by source, day, run_id and record_kind.
package lode

import (
	"context"
	"sync"
	"time"

	"github.com/pithecene-io/utf8conv/metrics"
	"github.com/pithecene-io/utf8conv/policy"
	"github.com/pithecene-io/utf8conv/types"
)

// DefaultDataset is the dataset ID used when none is configured.
const DefaultDataset = "utf8conv"

// DeriveDay is the day partition for a run started at startTime, as
// YYYY-MM-DD in UTC.
func DeriveDay(startTime time.Time) string {
	return startTime.UTC().Format("2006-01-02")
}

// Config identifies the run whose records a client writes. Source, Day and
// RunID are partition values; From, To and Policy are recorded on every
// record.
type Config struct {
	Dataset string
	Source  string
	Day     string
	RunID   string
	From    types.Format
	To      types.Format
	Policy  string
}

// ConfigFromMeta derives a Config from run metadata.
func ConfigFromMeta(dataset, policyName string, meta *types.RunMeta) Config {
	if dataset == "" {
		dataset = DefaultDataset
	}
	return Config{
		Dataset: dataset,
		Source:  meta.Source,
		Day:     DeriveDay(meta.StartedAt),
		RunID:   meta.RunID,
		From:    meta.From,
		To:      meta.To,
		Policy:  policyName,
	}
}

// Client writes the records of one run.
type Client interface {
	// WriteChunks appends chunk records in batch order.
	WriteChunks(ctx context.Context, chunks []*types.Chunk) error
	// WriteReport writes the terminal report record.
	WriteReport(ctx context.Context, outcome types.RunOutcome, snap metrics.Snapshot, completedAt time.Time) error
	Close() error
}

// Sink feeds policy batches to a Client. Closing the sink leaves the client
// open: the report is written after the policy has been closed, and the
// client's owner closes it.
type Sink struct {
	client Client
}

func NewSink(client Client) *Sink {
	return &Sink{client: client}
}

func (s *Sink) WriteChunks(ctx context.Context, chunks []*types.Chunk) error {
	return s.client.WriteChunks(ctx, chunks)
}

func (s *Sink) Close() error { return nil }

var _ policy.Sink = (*Sink)(nil)

// StubClient records writes in memory.
type StubClient struct {
	mu      sync.Mutex
	Batches [][]*types.Chunk
	Reports []StubReportRecord
	Closed  bool
}

// StubReportRecord is one WriteReport call.
type StubReportRecord struct {
	Outcome     types.RunOutcome
	Snapshot    metrics.Snapshot
	CompletedAt time.Time
}

func NewStubClient() *StubClient {
	return &StubClient{}
}

func (c *StubClient) WriteChunks(_ context.Context, chunks []*types.Chunk) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Batches = append(c.Batches, chunks)
	return nil
}

func (c *StubClient) WriteReport(_ context.Context, outcome types.RunOutcome, snap metrics.Snapshot, completedAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Reports = append(c.Reports, StubReportRecord{Outcome: outcome, Snapshot: snap, CompletedAt: completedAt})
	return nil
}

func (c *StubClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Closed = true
	return nil
}

var _ Client = (*StubClient)(nil)
