package reader

import "errors"

// ParseReportRecord converts a Lode report record (map[string]any) to an
// InspectReportResponse. Handles both int64 (direct writes) and float64
// (JSON round-trips) for numeric fields.
func ParseReportRecord(record map[string]any) (*InspectReportResponse, error) {
	if record == nil {
		return nil, errors.New("nil record")
	}

	resp := &InspectReportResponse{
		RunID:          toString(record["run_id"]),
		Source:         toString(record["source"]),
		Day:            toString(record["day"]),
		Status:         toString(record["status"]),
		Message:        toString(record["message"]),
		CompletedAt:    toString(record["completed_at"]),
		Version:        toString(record["version"]),
		Policy:         toString(record["policy"]),
		From:           toString(record["from"]),
		To:             toString(record["to"]),
		StorageBackend: toString(record["storage_backend"]),

		BytesRead:       toInt64(record["bytes_read_total"]),
		Units:           toInt64(record["units_decoded_total"]),
		Replacements:    toInt64(record["replacements_total"]),
		BytesWritten:    toInt64(record["bytes_written_total"]),
		ChunksReceived:  toInt64(record["chunks_received_total"]),
		ChunksPersisted: toInt64(record["chunks_persisted_total"]),
		ChunksRejected:  toInt64(record["chunks_rejected_total"]),
	}

	// The write path always populates these; missing values indicate a
	// malformed record.
	if resp.RunID == "" {
		return nil, errors.New("report record missing required field: run_id")
	}
	if resp.Status == "" {
		return nil, errors.New("report record missing required field: status")
	}
	if resp.CompletedAt == "" {
		return nil, errors.New("report record missing required field: completed_at")
	}

	return resp, nil
}

// toInt64 converts a value to int64, handling float64 from JSON and int64 from direct writes.
func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	case int:
		return int64(n)
	default:
		return 0
	}
}

// toString converts a value to string, returning empty string for nil/non-string.
func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
