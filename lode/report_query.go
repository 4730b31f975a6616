package lode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/justapithecus/lode/lode"
)

// ErrNoReportFound is returned when no report records exist in the dataset.
var ErrNoReportFound = errors.New("no report records found")

// QueryLatestReport finds and reads the most recent report record.
// Filters by runID and source if non-empty.
// Returns the raw record map or ErrNoReportFound if none exist.
func QueryLatestReport(ctx context.Context, ds lode.Dataset, runID, source string) (map[string]any, error) {
	snapshots, err := ds.Snapshots(ctx)
	if err != nil {
		return nil, WrapReadError(err, "snapshots")
	}

	filter := partitionFilter{"record_kind": RecordKindReport, "run_id": runID, "source": source}

	// Snapshots are ordered by creation time; walk latest first.
	for i := len(snapshots) - 1; i >= 0; i-- {
		snap := snapshots[i]
		if !filter.snapshot(snap) {
			continue
		}

		data, err := ds.Read(ctx, snap.ID)
		if err != nil {
			return nil, WrapReadError(err, fmt.Sprintf("snapshot/%s", snap.ID))
		}

		// Record fields are authoritative; the manifest filter is coarse.
		for _, item := range data {
			if record, ok := item.(map[string]any); ok && filter.record(record) {
				return record, nil
			}
		}
	}

	return nil, ErrNoReportFound
}

// partitionFilter maps partition keys to required values. An empty value
// matches anything.
type partitionFilter map[string]string

// snapshot reports whether every key matches some file in the manifest.
func (f partitionFilter) snapshot(snap *lode.DatasetSnapshot) bool {
	for key, value := range f {
		if value == "" {
			continue
		}
		found := false
		for _, file := range snap.Manifest.Files {
			if hasSegment(file.Path, key+"="+value) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (f partitionFilter) record(record map[string]any) bool {
	for key, value := range f {
		if value == "" {
			continue
		}
		if s, _ := record[key].(string); s != value {
			return false
		}
	}
	return true
}

// hasSegment reports whether path contains segment as a whole component,
// so run_id=run-1 does not match run_id=run-10.
func hasSegment(path, segment string) bool {
	for part := range strings.SplitSeq(path, "/") {
		if part == segment {
			return true
		}
	}
	return false
}
