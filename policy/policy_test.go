package policy_test

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/pithecene-io/utf8conv/policy"
	"github.com/pithecene-io/utf8conv/types"
)

func chunk(seq int64, units int, replacements int64) *types.Chunk {
	c := &types.Chunk{Seq: seq, Units: make([]uint32, units), Replacements: replacements}
	for i := range c.Units {
		c.Units[i] = 'a'
	}
	return c
}

func TestParseName(t *testing.T) {
	for _, name := range []string{"strict", "lossy", "buffered", "noop"} {
		if got, err := policy.ParseName(name); err != nil || string(got) != name {
			t.Errorf("ParseName(%q) = %q, %v", name, got, err)
		}
	}
	if _, err := policy.ParseName("streaming"); err == nil {
		t.Error("ParseName(streaming) error = nil, want error")
	}
}

func TestStrictPolicy_ImmediateWrite(t *testing.T) {
	sink := policy.NewStubSink()
	pol := policy.NewStrictPolicy(sink)

	if err := pol.Ingest(t.Context(), chunk(1, 5, 0)); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	ss := sink.Stats()
	if ss.ChunksWritten != 1 || ss.Batches != 1 || ss.UnitsWritten != 5 {
		t.Errorf("sink stats = %+v, want 1 chunk, 1 batch, 5 units", ss)
	}
	stats := pol.Stats()
	if stats.Chunks != 1 || stats.ChunksPersisted != 1 || stats.UnitsPersisted != 5 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestStrictPolicy_RejectsInvalid(t *testing.T) {
	sink := policy.NewStubSink()
	pol := policy.NewStrictPolicy(sink)

	err := pol.Ingest(t.Context(), chunk(7, 3, 2))
	if !errors.Is(err, policy.ErrInvalidInput) {
		t.Fatalf("Ingest() error = %v, want ErrInvalidInput", err)
	}
	var invalid *policy.InvalidInputError
	if !errors.As(err, &invalid) || invalid.Seq != 7 || invalid.Replacements != 2 {
		t.Errorf("error = %#v, want seq 7 with 2 replacements", err)
	}
	if sink.Stats().ChunksWritten != 0 {
		t.Error("rejected chunk was written")
	}
	stats := pol.Stats()
	if stats.Rejected != 1 || stats.InvalidChunks != 1 || stats.Replacements != 2 {
		t.Errorf("stats = %+v, want 1 rejected, 1 invalid chunk, 2 replacements", stats)
	}
}

func TestStrictPolicy_SinkError(t *testing.T) {
	sink := policy.NewStubSink()
	sink.ErrorOnWrite = errors.New("disk full")
	pol := policy.NewStrictPolicy(sink)

	if err := pol.Ingest(t.Context(), chunk(1, 1, 0)); err == nil {
		t.Fatal("Ingest() error = nil, want sink error")
	}
	if pol.Stats().Errors != 1 {
		t.Errorf("Errors = %d, want 1", pol.Stats().Errors)
	}
}

func TestLossyPolicy_AcceptsReplacements(t *testing.T) {
	sink := policy.NewStubSink()
	pol := policy.NewLossyPolicy(sink)

	for i := int64(1); i <= 3; i++ {
		if err := pol.Ingest(t.Context(), chunk(i, 2, i-1)); err != nil {
			t.Fatalf("Ingest(%d) error = %v", i, err)
		}
	}
	if got := sink.Seqs(); !slices.Equal(got, []int64{1, 2, 3}) {
		t.Errorf("written seqs = %v, want [1 2 3]", got)
	}
	stats := pol.Stats()
	if stats.Replacements != 3 || stats.InvalidChunks != 2 || stats.Rejected != 0 {
		t.Errorf("stats = %+v, want 3 replacements over 2 chunks", stats)
	}
	if err := pol.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !sink.Stats().Closed {
		t.Error("Close() did not close the sink")
	}
}

func TestNoopPolicy_CountsOnly(t *testing.T) {
	pol := policy.NewNoopPolicy()
	_ = pol.Ingest(t.Context(), chunk(1, 4, 1))
	_ = pol.Ingest(t.Context(), chunk(2, 6, 0))
	_ = pol.Flush(t.Context())

	stats := pol.Stats()
	if stats.Chunks != 2 || stats.Units != 10 || stats.Replacements != 1 {
		t.Errorf("stats = %+v, want 2 chunks, 10 units, 1 replacement", stats)
	}
	if stats.ChunksPersisted != 0 {
		t.Errorf("ChunksPersisted = %d, want 0", stats.ChunksPersisted)
	}
	if stats.FlushCount != 1 {
		t.Errorf("FlushCount = %d, want 1", stats.FlushCount)
	}
}

func mustNewBufferedPolicy(t *testing.T, sink policy.Sink, config policy.BufferedConfig) *policy.BufferedPolicy {
	t.Helper()
	pol, err := policy.NewBufferedPolicy(sink, config)
	if err != nil {
		t.Fatalf("NewBufferedPolicy() error = %v", err)
	}
	t.Cleanup(func() { _ = pol.Close() })
	return pol
}

func TestBufferedPolicy_InvalidConfig(t *testing.T) {
	_, err := policy.NewBufferedPolicy(policy.NewStubSink(), policy.BufferedConfig{})
	if !errors.Is(err, policy.ErrInvalidBufferedConfig) {
		t.Errorf("error = %v, want ErrInvalidBufferedConfig", err)
	}
}

func TestBufferedPolicy_CountTrigger(t *testing.T) {
	sink := policy.NewStubSink()
	pol := mustNewBufferedPolicy(t, sink, policy.BufferedConfig{FlushUnits: 10})

	_ = pol.Ingest(t.Context(), chunk(1, 4, 0))
	_ = pol.Ingest(t.Context(), chunk(2, 4, 0))
	if sink.Stats().ChunksWritten != 0 {
		t.Fatal("flushed below threshold")
	}
	if got := pol.Stats().BufferedUnits; got != 8 {
		t.Errorf("BufferedUnits = %d, want 8", got)
	}

	_ = pol.Ingest(t.Context(), chunk(3, 4, 1))
	ss := sink.Stats()
	if ss.ChunksWritten != 3 || ss.Batches != 1 {
		t.Errorf("sink stats = %+v, want 3 chunks in 1 batch", ss)
	}
	if got := pol.FlushTriggerStats()[policy.FlushTriggerCount]; got != 1 {
		t.Errorf("count triggers = %d, want 1", got)
	}
	if got := pol.Stats().BufferedUnits; got != 0 {
		t.Errorf("BufferedUnits after flush = %d, want 0", got)
	}
}

func TestBufferedPolicy_FailedFlushKeepsOrder(t *testing.T) {
	sink := policy.NewStubSink()
	pol := mustNewBufferedPolicy(t, sink, policy.BufferedConfig{FlushUnits: 100})

	_ = pol.Ingest(t.Context(), chunk(1, 1, 0))
	_ = pol.Ingest(t.Context(), chunk(2, 1, 0))

	sink.SetError(errors.New("unavailable"))
	if err := pol.Flush(t.Context()); err == nil {
		t.Fatal("Flush() error = nil, want sink error")
	}
	if got := pol.Stats().BufferedUnits; got != 2 {
		t.Errorf("BufferedUnits after failed flush = %d, want 2", got)
	}

	_ = pol.Ingest(t.Context(), chunk(3, 1, 0))
	sink.SetError(nil)
	if err := pol.Flush(t.Context()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if got := sink.Seqs(); !slices.Equal(got, []int64{1, 2, 3}) {
		t.Errorf("written seqs = %v, want [1 2 3]", got)
	}
	stats := pol.Stats()
	if stats.Errors != 1 || stats.ChunksPersisted != 3 {
		t.Errorf("stats = %+v, want 1 error, 3 persisted", stats)
	}
}

func TestBufferedPolicy_IntervalTrigger(t *testing.T) {
	sink := policy.NewStubSink()
	pol := mustNewBufferedPolicy(t, sink, policy.BufferedConfig{FlushInterval: 10 * time.Millisecond})

	_ = pol.Ingest(t.Context(), chunk(1, 1, 0))

	deadline := time.Now().Add(2 * time.Second)
	for sink.Stats().ChunksWritten == 0 {
		if time.Now().After(deadline) {
			t.Fatal("interval flush did not happen")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := pol.FlushTriggerStats()[policy.FlushTriggerInterval]; got < 1 {
		t.Errorf("interval triggers = %d, want >= 1", got)
	}
}

func TestBufferedPolicy_CloseFlushes(t *testing.T) {
	sink := policy.NewStubSink()
	pol, err := policy.NewBufferedPolicy(sink, policy.BufferedConfig{FlushUnits: 1000})
	if err != nil {
		t.Fatalf("NewBufferedPolicy() error = %v", err)
	}
	_ = pol.Ingest(t.Context(), chunk(1, 3, 0))
	if err := pol.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	ss := sink.Stats()
	if ss.ChunksWritten != 1 || !ss.Closed {
		t.Errorf("sink stats = %+v, want 1 chunk written and closed", ss)
	}
}

func TestMultiSink(t *testing.T) {
	first := policy.NewStubSink()
	second := policy.NewStubSink()
	multi := policy.NewMultiSink(first, nil, second)

	batch := []*types.Chunk{chunk(1, 2, 0), chunk(2, 3, 0)}
	if err := multi.WriteChunks(t.Context(), batch); err != nil {
		t.Fatalf("WriteChunks() error = %v", err)
	}
	for name, s := range map[string]*policy.StubSink{"first": first, "second": second} {
		if got := s.Seqs(); !slices.Equal(got, []int64{1, 2}) {
			t.Errorf("%s seqs = %v, want [1 2]", name, got)
		}
	}

	boom := errors.New("disk full")
	first.SetError(boom)
	if err := multi.WriteChunks(t.Context(), batch); !errors.Is(err, boom) {
		t.Errorf("WriteChunks() error = %v, want %v", err, boom)
	}
	if got := second.Stats().Batches; got != 1 {
		t.Errorf("second batches = %d, want 1 (failed batch must not reach later sinks)", got)
	}

	if err := multi.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !first.Stats().Closed || !second.Stats().Closed {
		t.Error("Close() should close every sink")
	}
}

func TestBufferedPolicy_CloseFlushesOnce(t *testing.T) {
	sink := policy.NewStubSink()
	pol, err := policy.NewBufferedPolicy(sink, policy.BufferedConfig{FlushUnits: 100, FlushInterval: time.Hour})
	if err != nil {
		t.Fatal(err)
	}
	_ = pol.Ingest(t.Context(), chunk(1, 3, 0))

	for range 2 {
		if err := pol.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	}
	if ss := sink.Stats(); ss.ChunksWritten != 1 || ss.Batches != 1 || !ss.Closed {
		t.Errorf("sink stats = %+v, want one batch then closed", ss)
	}
	if got := pol.FlushTriggerStats(); got[policy.FlushTriggerTermination] != 1 || got[policy.FlushTriggerInterval] != 0 {
		t.Errorf("triggers = %v", got)
	}
}
