// Package adapter defines the notification boundary for finished runs.
//
// Adapters publish a transcode completion event to a downstream system
// once a run has reached its outcome. The runtime owns adapter lifecycle;
// users provide configuration only.
package adapter

import (
	"context"
	"time"

	"github.com/pithecene-io/utf8conv/types"
)

// EventTypeTranscodeCompleted is the event_type of every published event.
const EventTypeTranscodeCompleted = "transcode_completed"

// TranscodeCompletedEvent is the payload published when a run finishes.
type TranscodeCompletedEvent struct {
	ContractVersion string `json:"contract_version"`
	EventType       string `json:"event_type"` // always "transcode_completed"
	RunID           string `json:"run_id"`
	Source          string `json:"source"`
	From            string `json:"from"`
	To              string `json:"to"`
	Day             string `json:"day"`
	Outcome         string `json:"outcome"` // success, lossy, invalid_input, ...
	Message         string `json:"message,omitempty"`
	StoragePath     string `json:"storage_path,omitempty"`
	Timestamp       string `json:"timestamp"` // RFC 3339
	Chunks          int64  `json:"chunks"`
	Units           int64  `json:"units"`
	Replacements    int64  `json:"replacements"`
	BytesRead       int64  `json:"bytes_read"`
	BytesWritten    int64  `json:"bytes_written"`
	DurationMs      int64  `json:"duration_ms"`
}

// NewTranscodeCompletedEvent fills the identity fields of an event from run
// metadata. Counters are left for the caller.
func NewTranscodeCompletedEvent(meta *types.RunMeta, outcome types.RunOutcome, completedAt time.Time) *TranscodeCompletedEvent {
	return &TranscodeCompletedEvent{
		ContractVersion: types.ContractVersion,
		EventType:       EventTypeTranscodeCompleted,
		RunID:           meta.RunID,
		Source:          meta.Source,
		From:            string(meta.From),
		To:              string(meta.To),
		Day:             meta.StartedAt.UTC().Format("2006-01-02"),
		Outcome:         string(outcome.Status),
		Message:         outcome.Message,
		Timestamp:       completedAt.UTC().Format(time.RFC3339),
		DurationMs:      completedAt.Sub(meta.StartedAt).Milliseconds(),
	}
}

// Adapter publishes run completion events to a downstream system.
// Implementations must be safe for single-use per run.
type Adapter interface {
	// Publish sends a completion event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *TranscodeCompletedEvent) error

	// Close releases adapter resources.
	Close() error
}
