package runtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pithecene-io/utf8conv/metrics"
	"github.com/pithecene-io/utf8conv/types"
)

// RunReport is the structured JSON report written by --report.
type RunReport struct {
	RunID      string              `json:"run_id"`
	Source     string              `json:"source"`
	From       types.Format        `json:"from"`
	To         types.Format        `json:"to"`
	Outcome    types.OutcomeStatus `json:"outcome"`
	Message    string              `json:"message"`
	ExitCode   int                 `json:"exit_code"`
	DurationMs int64               `json:"duration_ms"`
	Version    string              `json:"version"`

	Conversion *ReportConversion `json:"conversion"`
	Policy     *ReportPolicy     `json:"policy"`
	Metrics    *metrics.Snapshot `json:"metrics"`
}

// ReportConversion holds decode counters in the report.
type ReportConversion struct {
	Chunks       int64 `json:"chunks"`
	BytesRead    int64 `json:"bytes_read"`
	Units        int64 `json:"units"`
	Replacements int64 `json:"replacements"`
}

// ReportPolicy holds policy stats in the report.
type ReportPolicy struct {
	Name            string           `json:"name"`
	ChunksReceived  int64            `json:"chunks_received"`
	ChunksPersisted int64            `json:"chunks_persisted"`
	ChunksRejected  int64            `json:"chunks_rejected"`
	InvalidChunks   int64            `json:"invalid_chunks"`
	FlushCount      int64            `json:"flush_count"`
	FlushTriggers   map[string]int64 `json:"flush_triggers,omitempty"`
}

// BuildRunReport composes a RunReport from a RunResult and metrics snapshot.
// The exitCode is the process exit code that will be returned to the caller.
func BuildRunReport(result *RunResult, snap metrics.Snapshot, policyName string, exitCode int) *RunReport {
	return &RunReport{
		RunID:      result.RunMeta.RunID,
		Source:     result.RunMeta.Source,
		From:       result.RunMeta.From,
		To:         result.RunMeta.To,
		Outcome:    result.Outcome.Status,
		Message:    result.Outcome.Message,
		ExitCode:   exitCode,
		DurationMs: result.Duration.Milliseconds(),
		Version:    types.Version,
		Conversion: &ReportConversion{
			Chunks:       result.Chunks,
			BytesRead:    result.BytesRead,
			Units:        result.Units,
			Replacements: result.Replacements,
		},
		Policy: &ReportPolicy{
			Name:            policyName,
			ChunksReceived:  result.PolicyStats.Chunks,
			ChunksPersisted: result.PolicyStats.ChunksPersisted,
			ChunksRejected:  result.PolicyStats.Rejected,
			InvalidChunks:   result.PolicyStats.InvalidChunks,
			FlushCount:      result.PolicyStats.FlushCount,
			FlushTriggers:   result.FlushTriggers,
		},
		Metrics: &snap,
	}
}

// WriteRunReport writes the report as indented JSON. "-" means stderr;
// any other path is replaced atomically.
func WriteRunReport(report *RunReport, path string) error {
	switch path {
	case "":
		return errors.New("report path must not be empty")
	case "-":
		if err := writeRunReportTo(report, os.Stderr); err != nil {
			return fmt.Errorf("failed to write report to stderr: %w", err)
		}
		return nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".report-*.json")
	if err != nil {
		return fmt.Errorf("failed to write report to %s: %w", path, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := writeRunReportTo(report, tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write report to %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write report to %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to write report to %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write report to %s: %w", path, err)
	}
	return nil
}

// ReadRunReport reads a report written by WriteRunReport.
func ReadRunReport(path string) (*RunReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	var report RunReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse report %s: %w", path, err)
	}
	return &report, nil
}

func writeRunReportTo(report *RunReport, w io.Writer) error {
	data, err := marshalReport(report)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func marshalReport(report *RunReport) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return append(data, '\n'), nil
}
