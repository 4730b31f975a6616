// Package reader provides the read-side data access layer for the utf8conv
// CLI.
//
// Read-only commands (inspect, validate) obtain their view payloads here.
// The same payloads feed every render format and the TUI.
package reader

// InspectReportResponse is the inspect view of a stored run report.
type InspectReportResponse struct {
	RunID          string `json:"run_id"`
	Source         string `json:"source"`
	Day            string `json:"day"`
	Status         string `json:"status"`
	Message        string `json:"message"`
	CompletedAt    string `json:"completed_at"`
	Version        string `json:"version"`
	Policy         string `json:"policy"`
	From           string `json:"from"`
	To             string `json:"to"`
	StorageBackend string `json:"storage_backend"`

	BytesRead       int64 `json:"bytes_read"`
	Units           int64 `json:"units"`
	Replacements    int64 `json:"replacements"`
	BytesWritten    int64 `json:"bytes_written"`
	ChunksReceived  int64 `json:"chunks_received"`
	ChunksPersisted int64 `json:"chunks_persisted"`
	ChunksRejected  int64 `json:"chunks_rejected"`
}

// InspectFramesResponse summarizes a chunk frame stream.
type InspectFramesResponse struct {
	Frames        int64 `json:"frames"`
	Chunks        int64 `json:"chunks"`
	Units         int64 `json:"units"`
	Replacements  int64 `json:"replacements"`
	InvalidChunks int64 `json:"invalid_chunks"`
	FirstSeq      int64 `json:"first_seq"`
	LastSeq       int64 `json:"last_seq"`
	// SeqErrors counts chunks whose Seq did not follow the previous one.
	SeqErrors int64 `json:"seq_errors"`
	// Complete is set when a chunk with Last was seen.
	Complete  bool              `json:"complete"`
	RunResult *RunResultSummary `json:"run_result"`
}

// RunResultSummary is the run_result frame that terminates a stream.
type RunResultSummary struct {
	RunID        string `json:"run_id"`
	Status       string `json:"status"`
	Message      string `json:"message"`
	Chunks       int64  `json:"chunks"`
	Units        int64  `json:"units"`
	Replacements int64  `json:"replacements"`
	Version      string `json:"version"`
}

// ValidationStats is the output of the validate command.
type ValidationStats struct {
	Source        string `json:"source"`
	From          string `json:"from"`
	Valid         bool   `json:"valid"`
	Outcome       string `json:"outcome"`
	BytesRead     int64  `json:"bytes_read"`
	Chunks        int64  `json:"chunks"`
	Units         int64  `json:"units"`
	Replacements  int64  `json:"replacements"`
	InvalidChunks int64  `json:"invalid_chunks"`
}
