package lode

import (
	"strings"
	"time"

	"github.com/pithecene-io/utf8conv/metrics"
	"github.com/pithecene-io/utf8conv/types"
)

// RecordKind discriminator values. record_kind is also the last partition
// key of the layout.
const (
	RecordKindChunk  = "chunk"
	RecordKindReport = "report"
)

// chunkText renders decoded units as UTF-8. Units are scalar values or
// U+FFFD, so the string is always valid.
func chunkText(units []uint32) string {
	var sb strings.Builder
	sb.Grow(len(units))
	for _, u := range units {
		sb.WriteRune(rune(u))
	}
	return sb.String()
}

// toChunkRecordMap converts a Chunk to a map for Lode storage.
// Lode HiveLayout requires records as map[string]any.
func toChunkRecordMap(c *types.Chunk, cfg Config) map[string]any {
	return map[string]any{
		"record_kind":  RecordKindChunk,
		"seq":          c.Seq,
		"text":         chunkText(c.Units),
		"unit_count":   int64(len(c.Units)),
		"replacements": c.Replacements,
		"input_bytes":  c.InputBytes,
		"last":         c.Last,
		"from":         string(cfg.From),
		"to":           string(cfg.To),
		"source":       cfg.Source,
		"day":          cfg.Day,
		"run_id":       cfg.RunID,
	}
}

// toReportRecordMap flattens a run outcome and metrics snapshot into a
// report record. Counter fields carry a _total suffix.
func toReportRecordMap(outcome types.RunOutcome, s metrics.Snapshot, cfg Config, completedAt time.Time) map[string]any {
	return map[string]any{
		"record_kind":  RecordKindReport,
		"status":       string(outcome.Status),
		"message":      outcome.Message,
		"completed_at": completedAt.UTC().Format(time.RFC3339Nano),
		"version":      types.Version,

		"runs_started_total":        s.RunsStarted,
		"runs_completed_total":      s.RunsCompleted,
		"runs_failed_total":         s.RunsFailed,
		"runs_canceled_total":       s.RunsCanceled,
		"bytes_read_total":          s.BytesRead,
		"read_calls_total":          s.ReadCalls,
		"need_more_total":           s.NeedMore,
		"units_decoded_total":       s.UnitsDecoded,
		"replacements_total":        s.Replacements,
		"bytes_written_total":       s.BytesWritten,
		"frame_decode_errors_total": s.FrameDecodeErrors,
		"chunks_received_total":     s.ChunksReceived,
		"chunks_persisted_total":    s.ChunksPersisted,
		"chunks_rejected_total":     s.ChunksRejected,
		"sink_write_success_total":  s.SinkWriteSuccess,
		"sink_write_failure_total":  s.SinkWriteFailure,

		"policy":          s.Policy,
		"from":            s.From,
		"to":              s.To,
		"storage_backend": s.StorageBackend,
		"source":          cfg.Source,
		"day":             cfg.Day,
		"run_id":          cfg.RunID,
	}
}
