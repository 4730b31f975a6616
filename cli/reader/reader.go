package reader

import (
	"context"
	"errors"

	"github.com/justapithecus/lode/lode"

	u8lode "github.com/pithecene-io/utf8conv/lode"
)

// Reader abstracts read-only access to stored run reports.
type Reader interface {
	// InspectReport returns the latest report matching runID and source.
	// Empty filters match everything.
	InspectReport(ctx context.Context, runID, source string) (*InspectReportResponse, error)
}

// LodeReader reads reports from a Lode dataset.
type LodeReader struct {
	ds lode.Dataset
}

// NewLodeReader creates a reader over a dataset opened with
// lode.NewReadDataset and friends.
func NewLodeReader(ds lode.Dataset) *LodeReader {
	return &LodeReader{ds: ds}
}

// InspectReport implements Reader.
func (r *LodeReader) InspectReport(ctx context.Context, runID, source string) (*InspectReportResponse, error) {
	record, err := u8lode.QueryLatestReport(ctx, r.ds, runID, source)
	if err != nil {
		return nil, err
	}
	return ParseReportRecord(record)
}

// StubReader returns a fixed report. Used by tests.
type StubReader struct {
	Report *InspectReportResponse
	Err    error
}

// InspectReport implements Reader.
func (r *StubReader) InspectReport(_ context.Context, runID, source string) (*InspectReportResponse, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	if r.Report == nil ||
		(runID != "" && r.Report.RunID != runID) ||
		(source != "" && r.Report.Source != source) {
		return nil, u8lode.ErrNoReportFound
	}
	return r.Report, nil
}

// IsNotFound reports whether err means no matching report exists.
func IsNotFound(err error) bool {
	return errors.Is(err, u8lode.ErrNoReportFound)
}
