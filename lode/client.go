package lode

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/justapithecus/lode/lode"

	"github.com/pithecene-io/utf8conv/metrics"
	"github.com/pithecene-io/utf8conv/types"
)

// ErrSeqOutOfOrder is returned when a chunk batch does not continue the
// strictly increasing sequence of previously written chunks.
var ErrSeqOutOfOrder = errors.New("chunk write rejected: seq out of order")

// partitionKeys is the Hive layout shared by the write and read paths.
var partitionKeys = []string{"source", "day", "run_id", "record_kind"}

func newDataset(id string, factory lode.StoreFactory) (lode.Dataset, error) {
	return lode.NewDataset(
		lode.DatasetID(id),
		factory,
		lode.WithHiveLayout(partitionKeys...),
		lode.WithCodec(lode.NewJSONLCodec()),
	)
}

// LodeClient is a real Lode-backed implementation of Client.
type LodeClient struct {
	dataset lode.Dataset
	config  Config

	storeFactory lode.StoreFactory
	storeOnce    sync.Once
	store        lode.Store
	storeErr     error

	mu      sync.Mutex // guards lastSeq
	lastSeq int64
}

// NewLodeClient creates a new Lode client with filesystem storage.
// The root parameter is the base directory for Hive-partitioned storage.
func NewLodeClient(cfg Config, root string) (*LodeClient, error) {
	return NewLodeClientWithFactory(cfg, lode.NewFSFactory(root))
}

// NewLodeClientWithFactory creates a new Lode client with a custom store factory.
// Use lode.NewMemoryFactory() for testing.
func NewLodeClientWithFactory(cfg Config, factory lode.StoreFactory) (*LodeClient, error) {
	ds, err := newDataset(cfg.Dataset, factory)
	if err != nil {
		return nil, WrapInitError(err, cfg.Dataset)
	}
	return newClient(ds, cfg, factory), nil
}

func newClient(ds lode.Dataset, cfg Config, factory lode.StoreFactory) *LodeClient {
	return &LodeClient{dataset: ds, config: cfg, storeFactory: factory}
}

// WriteChunks writes a batch of chunks as chunk records.
//
// Seq must strictly increase across all batches written by this client.
// The sequence position only advances after a successful write, so a
// failed batch can be retried.
func (c *LodeClient) WriteChunks(ctx context.Context, chunks []*types.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	last := c.lastSeq
	records := make([]any, 0, len(chunks))
	for _, chunk := range chunks {
		if chunk.Seq <= last {
			return fmt.Errorf("%w: seq %d after %d", ErrSeqOutOfOrder, chunk.Seq, last)
		}
		last = chunk.Seq
		records = append(records, toChunkRecordMap(chunk, c.config))
	}

	if _, err := c.dataset.Write(ctx, records, lode.Metadata{}); err != nil {
		return WrapWriteError(err, c.config.Dataset)
	}
	c.lastSeq = last
	return nil
}

// WriteReport writes a single report record for the run.
func (c *LodeClient) WriteReport(ctx context.Context, outcome types.RunOutcome, snap metrics.Snapshot, completedAt time.Time) error {
	record := toReportRecordMap(outcome, snap, c.config, completedAt)
	if _, err := c.dataset.Write(ctx, []any{record}, lode.Metadata{}); err != nil {
		return WrapWriteError(err, c.config.Dataset)
	}
	return nil
}

// Close is a no-op; datasets and stores hold no open handles between writes.
func (c *LodeClient) Close() error { return nil }

var _ Client = (*LodeClient)(nil)
