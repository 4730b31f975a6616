// Package runtime orchestrates a single conversion run: read, decode,
// apply the policy, flush, and classify the outcome.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pithecene-io/utf8conv/conv"
	"github.com/pithecene-io/utf8conv/log"
	"github.com/pithecene-io/utf8conv/metrics"
	"github.com/pithecene-io/utf8conv/policy"
	"github.com/pithecene-io/utf8conv/stream"
	"github.com/pithecene-io/utf8conv/types"
)

// flushTimeout bounds the final policy flush, which runs even after the
// run context is canceled.
const flushTimeout = 30 * time.Second

// RunConfig configures a single run.
type RunConfig struct {
	// Meta is the run identity. Meta.From selects the input decoder.
	Meta *types.RunMeta
	// Input is the byte stream to convert.
	Input io.Reader
	// ChunkSize is the read size in bytes. Zero uses stream.DefaultBufferSize.
	ChunkSize int
	// AcceptReplacement treats a literal U+FFFD in the input as well-formed.
	AcceptReplacement bool
	// Policy is the chunk policy. The caller owns Close.
	Policy policy.Policy
	// Collector is the metrics collector for this run.
	// If nil, no metrics are recorded (all Collector methods are nil-safe).
	Collector *metrics.Collector
	// Logger is the run logger. If nil, a logger with run context is created.
	Logger *log.Logger
}

// RunResult represents the result of a run.
type RunResult struct {
	// RunMeta is the run identity.
	RunMeta *types.RunMeta
	// Outcome is the run outcome.
	Outcome *types.RunOutcome
	// Duration is the total run duration.
	Duration time.Duration
	// PolicyStats is the policy statistics.
	PolicyStats policy.Stats
	// FlushTriggers counts flushes by trigger, for policies that batch.
	FlushTriggers map[string]int64
	// Chunks is the number of chunks handed to the policy.
	Chunks int64
	// BytesRead is the number of input bytes read.
	BytesRead int64
	// Units is the number of code units decoded.
	Units int64
	// Replacements is the number of ill-formed sequences replaced.
	Replacements int64
}

// flushTriggerStats is implemented by policies that batch.
type flushTriggerStats interface {
	FlushTriggerStats() map[policy.FlushTrigger]int64
}

// RunOrchestrator orchestrates a single run.
type RunOrchestrator struct {
	config    *RunConfig
	logger    *log.Logger
	decoder   *stream.Decoder
	startTime time.Time
}

// NewRunOrchestrator creates a new run orchestrator.
// Returns error if the configuration is incomplete or run metadata is invalid.
func NewRunOrchestrator(config *RunConfig) (*RunOrchestrator, error) {
	if config.Meta == nil {
		return nil, errors.New("run metadata is required")
	}
	if err := config.Meta.Validate(); err != nil {
		return nil, fmt.Errorf("invalid run metadata: %w", err)
	}
	if config.Input == nil {
		return nil, errors.New("input is required")
	}
	if config.Policy == nil {
		return nil, errors.New("policy is required")
	}

	replacement := conv.RejectReplacement
	if config.AcceptReplacement {
		replacement = conv.AcceptReplacement
	}
	decoder, err := stream.NewDecoder(config.Meta.From, stream.WithReplacementPolicy(replacement))
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = log.NewLogger(config.Meta)
	}

	return &RunOrchestrator{
		config:  config,
		logger:  logger,
		decoder: decoder,
	}, nil
}

// Execute executes the run end-to-end.
//
// Execution flow:
//  1. Read and decode input chunks, ingesting each into the policy
//  2. Flush the policy (always, best effort on failure paths)
//  3. Determine outcome
//  4. Return result
//
// The returned error is reserved for orchestration failures; conversion
// failures are reported through RunResult.Outcome.
func (r *RunOrchestrator) Execute(ctx context.Context) (*RunResult, error) {
	r.startTime = time.Now()
	r.config.Collector.IncRunStarted()

	r.logger.Info("starting run", map[string]any{
		"from":       r.config.Meta.From,
		"to":         r.config.Meta.To,
		"chunk_size": r.config.ChunkSize,
	})

	ingestion := NewIngestionEngine(
		r.config.Input,
		r.decoder,
		r.config.Policy,
		r.config.ChunkSize,
		r.logger,
		r.config.Collector,
	)
	ingErr := ingestion.Run(ctx)

	// Use WithoutCancel to preserve context values while ignoring parent cancellation.
	flushCtx, flushCancel := context.WithTimeout(context.WithoutCancel(ctx), flushTimeout)
	flushErr := r.config.Policy.Flush(flushCtx)
	flushCancel()
	if flushErr != nil {
		r.logger.Warn("policy flush failed", map[string]any{
			"error": flushErr.Error(),
		})
	}

	outcome := DetermineOutcome(ingErr, flushErr, ingestion.Replacements())

	r.logger.Info("run completed", map[string]any{
		"outcome":      outcome.Status,
		"chunks":       ingestion.CurrentSeq(),
		"units":        ingestion.Units(),
		"replacements": ingestion.Replacements(),
		"duration":     time.Since(r.startTime).String(),
	})

	return r.buildResult(outcome, ingestion), nil
}

// buildResult constructs the final run result.
func (r *RunOrchestrator) buildResult(outcome *types.RunOutcome, ingestion *IngestionEngine) *RunResult {
	result := &RunResult{
		RunMeta:      r.config.Meta,
		Outcome:      outcome,
		Duration:     time.Since(r.startTime),
		PolicyStats:  r.config.Policy.Stats(),
		Chunks:       ingestion.CurrentSeq(),
		BytesRead:    ingestion.BytesRead(),
		Units:        ingestion.Units(),
		Replacements: ingestion.Replacements(),
	}

	if fts, ok := r.config.Policy.(flushTriggerStats); ok {
		triggers := fts.FlushTriggerStats()
		result.FlushTriggers = make(map[string]int64, len(triggers))
		for k, v := range triggers {
			result.FlushTriggers[string(k)] = v
		}
	}

	switch outcome.Status {
	case types.OutcomeSuccess, types.OutcomeLossy:
		r.config.Collector.IncRunCompleted()
	case types.OutcomeCanceled:
		r.config.Collector.IncRunCanceled()
	default:
		r.config.Collector.IncRunFailed()
	}

	ps := result.PolicyStats
	r.config.Collector.AbsorbPolicyStats(ps.Chunks, ps.ChunksPersisted, ps.Rejected)

	return result
}

// ResultFrame builds the run_result frame that terminates a frame stream.
func (r *RunResult) ResultFrame() *types.RunResultFrame {
	return &types.RunResultFrame{
		Type:         types.RunResultFrameType,
		RunID:        r.RunMeta.RunID,
		Outcome:      *r.Outcome,
		Chunks:       r.Chunks,
		Units:        r.Units,
		Replacements: r.Replacements,
		Version:      types.Version,
	}
}
