package runtime

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/pithecene-io/utf8conv/metrics"
	"github.com/pithecene-io/utf8conv/policy"
	"github.com/pithecene-io/utf8conv/types"
)

func newTestRunResult() *RunResult {
	return &RunResult{
		RunMeta: &types.RunMeta{
			RunID:  "run-001",
			Source: "input.txt",
			From:   types.FormatUTF8,
			To:     types.FormatUTF32LE,
		},
		Outcome: &types.RunOutcome{
			Status:  types.OutcomeSuccess,
			Message: "run completed successfully",
		},
		Duration:  5 * time.Second,
		Chunks:    4,
		BytesRead: 4096,
		Units:     4000,
		PolicyStats: policy.Stats{
			Chunks:          4,
			Units:           4000,
			ChunksPersisted: 4,
			UnitsPersisted:  4000,
			FlushCount:      2,
		},
		FlushTriggers: map[string]int64{"count": 1, "termination": 1},
	}
}

func newTestSnapshot() metrics.Snapshot {
	return metrics.Snapshot{
		RunsStarted:     1,
		RunsCompleted:   1,
		BytesRead:       4096,
		UnitsDecoded:    4000,
		ChunksReceived:  4,
		ChunksPersisted: 4,
		Policy:          "buffered",
		From:            "utf8",
		To:              "utf32le",
		StorageBackend:  "fs",
		RunID:           "run-001",
	}
}

func TestBuildRunReport(t *testing.T) {
	snap := newTestSnapshot()
	got := BuildRunReport(newTestRunResult(), snap, "buffered", 0)
	want := &RunReport{
		RunID:      "run-001",
		Source:     "input.txt",
		From:       types.FormatUTF8,
		To:         types.FormatUTF32LE,
		Outcome:    types.OutcomeSuccess,
		Message:    "run completed successfully",
		DurationMs: 5000,
		Version:    types.Version,
		Conversion: &ReportConversion{Chunks: 4, BytesRead: 4096, Units: 4000},
		Policy: &ReportPolicy{
			Name:            "buffered",
			ChunksReceived:  4,
			ChunksPersisted: 4,
			FlushCount:      2,
			FlushTriggers:   map[string]int64{"count": 1, "termination": 1},
		},
		Metrics: &snap,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BuildRunReport() =\n%+v\nwant\n%+v", got, want)
	}
}

func TestBuildRunReport_InvalidInput(t *testing.T) {
	result := newTestRunResult()
	result.Outcome = &types.RunOutcome{
		Status:  types.OutcomeInvalidInput,
		Message: "invalid input: chunk 2 has 1 ill-formed sequence(s)",
	}
	result.PolicyStats.Rejected = 1
	result.PolicyStats.InvalidChunks = 1

	report := BuildRunReport(result, newTestSnapshot(), "strict", ExitCodeInvalidInput)
	if report.Outcome != types.OutcomeInvalidInput || report.ExitCode != ExitCodeInvalidInput {
		t.Errorf("Outcome/ExitCode = %q/%d", report.Outcome, report.ExitCode)
	}
	if report.Policy.ChunksRejected != 1 || report.Policy.InvalidChunks != 1 {
		t.Errorf("Policy = %+v, want one rejected invalid chunk", report.Policy)
	}
}

// jsonObject marshals v and returns it as a generic object.
func jsonObject(t *testing.T, v any) map[string]any {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return obj
}

func TestRunReport_JSONKeys(t *testing.T) {
	raw := jsonObject(t, BuildRunReport(newTestRunResult(), newTestSnapshot(), "buffered", 0))

	sections := map[string][]string{
		"": {
			"run_id", "source", "from", "to", "outcome", "message", "exit_code",
			"duration_ms", "version", "conversion", "policy", "metrics",
		},
		"policy":     {"name", "chunks_received", "chunks_persisted", "chunks_rejected", "flush_triggers"},
		"conversion": {"chunks", "bytes_read", "units", "replacements"},
	}
	for section, keys := range sections {
		obj := raw
		if section != "" {
			var ok bool
			if obj, ok = raw[section].(map[string]any); !ok {
				t.Fatalf("%s is not an object", section)
			}
		}
		for _, key := range keys {
			if _, ok := obj[key]; !ok {
				t.Errorf("missing key %q in %q", key, section)
			}
		}
	}

	result := newTestRunResult()
	result.FlushTriggers = nil
	policyObj := jsonObject(t, BuildRunReport(result, newTestSnapshot(), "strict", 0))["policy"].(map[string]any)
	if _, ok := policyObj["flush_triggers"]; ok {
		t.Error("flush_triggers should be omitted for unbatched policies")
	}
}

func TestWriteRunReport_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")
	if err := os.WriteFile(path, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}

	report := BuildRunReport(newTestRunResult(), newTestSnapshot(), "strict", 0)
	if err := WriteRunReport(report, path); err != nil {
		t.Fatalf("WriteRunReport failed: %v", err)
	}

	decoded, err := ReadRunReport(path)
	if err != nil {
		t.Fatalf("ReadRunReport failed: %v", err)
	}
	if decoded.RunID != "run-001" || decoded.Outcome != types.OutcomeSuccess || decoded.Conversion.Chunks != 4 {
		t.Errorf("decoded = %+v", decoded)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("dir has %d entries, want only the report", len(entries))
	}
}

func TestWriteRunReport_Errors(t *testing.T) {
	if err := WriteRunReport(&RunReport{}, ""); err == nil {
		t.Error("empty path: error = nil")
	}
	missing := filepath.Join(t.TempDir(), "no", "such", "dir", "report.json")
	if err := WriteRunReport(&RunReport{}, missing); err == nil {
		t.Error("missing dir: error = nil")
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadRunReport(bad); err == nil {
		t.Error("malformed report: error = nil")
	}
}

func TestWriteRunReportTo(t *testing.T) {
	report := BuildRunReport(newTestRunResult(), newTestSnapshot(), "strict", 0)

	var buf bytes.Buffer
	if err := writeRunReportTo(report, &buf); err != nil {
		t.Fatalf("writeRunReportTo failed: %v", err)
	}
	if !bytes.HasSuffix(buf.Bytes(), []byte("}\n")) {
		t.Error("report should end with a newline")
	}

	var decoded RunReport
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.RunID != "run-001" {
		t.Errorf("decoded RunID = %q, want run-001", decoded.RunID)
	}
}
