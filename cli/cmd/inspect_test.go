package cmd

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/pithecene-io/utf8conv/metrics"
	"github.com/pithecene-io/utf8conv/runtime"
	"github.com/pithecene-io/utf8conv/types"
)

func TestValidate_ExitCodes(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		args  []string
		want  int
	}{
		{"well-formed utf8", []byte("héllo"), nil, 0},
		{"ill-formed utf8", []byte("h\xc3llo"), nil, runtime.ExitCodeInvalidInput},
		{"truncated at end", []byte("abc\xe2\x82"), nil, runtime.ExitCodeInvalidInput},
		{"surrogate in utf32le", []byte{0x00, 0xd8, 0x00, 0x00}, []string{"--from", "utf32le"}, runtime.ExitCodeInvalidInput},
		{"literal replacement accepted", []byte("�"), []string{"--accept-replacement"}, 0},
		{"frames input", []byte("abc"), []string{"--from", "frames"}, runtime.ExitCodeConfig},
		{"unknown render format", []byte("abc"), []string{"--format", "xml"}, runtime.ExitCodeConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := writeFile(t, t.TempDir(), "in.bin", tt.input)
			args := append([]string{"utf8conv", "validate", "--input", in, "--format", "json"}, tt.args...)
			err := newTestApp(ValidateCommand()).Run(args)
			if code := exitCodeOf(err); code != tt.want {
				t.Errorf("exit code = %d, want %d (err = %v)", code, tt.want, err)
			}
		})
	}
}

func TestInspectReport_File(t *testing.T) {
	report := &runtime.RunReport{
		RunID:      "run-001",
		Source:     "doc.txt",
		From:       types.FormatUTF8,
		To:         types.FormatUTF32LE,
		Outcome:    types.OutcomeLossy,
		Message:    "run completed with 2 replacement(s)",
		Version:    types.Version,
		Conversion: &runtime.ReportConversion{Chunks: 2, BytesRead: 10, Units: 9, Replacements: 2},
		Policy:     &runtime.ReportPolicy{Name: "lossy", ChunksReceived: 2, ChunksPersisted: 2},
		Metrics:    &metrics.Snapshot{StorageBackend: "none", BytesWritten: 36},
	}
	path := filepath.Join(t.TempDir(), "report.json")
	if err := runtime.WriteRunReport(report, path); err != nil {
		t.Fatal(err)
	}

	resp := reportResponseFromRunReport(report)
	if resp.Status != "lossy" || resp.Policy != "lossy" || resp.Units != 9 || resp.BytesWritten != 36 {
		t.Errorf("response = %+v", resp)
	}

	err := newTestApp(InspectCommand()).Run([]string{"utf8conv", "inspect", "report", "--file", path, "--format", "json"})
	if err != nil {
		t.Errorf("inspect report --file error = %v", err)
	}
}

func TestInspectReport_NilSections(t *testing.T) {
	resp := reportResponseFromRunReport(&runtime.RunReport{RunID: "r", Outcome: types.OutcomeSuccess})
	if resp.RunID != "r" || resp.Status != "success" || resp.Units != 0 {
		t.Errorf("response = %+v", resp)
	}
}

func TestInspectReport_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name        string
		args        []string
		errContains string
	}{
		{"no source", nil, "--lode-path or --file required"},
		{"missing file", []string{"--file", filepath.Join(dir, "missing.json")}, "failed to read report"},
		{"empty dataset", []string{"--lode-path", dir, "--run-id", "nope"}, "report"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"utf8conv", "inspect", "report", "--format", "json"}, tt.args...)
			err := newTestApp(InspectCommand()).Run(args)
			if code := exitCodeOf(err); code != 1 {
				t.Fatalf("exit code = %d, want 1 (err = %v)", code, err)
			}
			if !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("error %q should contain %q", err.Error(), tt.errContains)
			}
		})
	}
}

func TestInspectFrames(t *testing.T) {
	out, err := runConvert(t, []byte("abc"), "--to", "frames")
	if err != nil {
		t.Fatalf("convert error = %v", err)
	}

	app := newTestApp(InspectCommand())
	if err := app.Run([]string{"utf8conv", "inspect", "frames", "--format", "json", out}); err != nil {
		t.Errorf("inspect frames error = %v", err)
	}

	err = newTestApp(InspectCommand()).Run([]string{"utf8conv", "inspect", "frames"})
	if code := exitCodeOf(err); code != 1 {
		t.Errorf("missing path exit code = %d, want 1", code)
	}
}

func TestInspect_InvalidFormat(t *testing.T) {
	for _, sub := range []string{"report", "frames"} {
		t.Run(sub, func(t *testing.T) {
			err := newTestApp(InspectCommand()).Run([]string{"utf8conv", "inspect", sub, "--format", "xml", "x.bin"})
			if code := exitCodeOf(err); code != runtime.ExitCodeConfig {
				t.Errorf("exit code = %d, want %d (err = %v)", code, runtime.ExitCodeConfig, err)
			}
		})
	}
}

func TestVersion_RejectsTUI(t *testing.T) {
	err := newTestApp(VersionCommand("abc123")).Run([]string{"utf8conv", "version", "--tui"})
	if code := exitCodeOf(err); code != runtime.ExitCodeConfig {
		t.Errorf("exit code = %d, want %d", code, runtime.ExitCodeConfig)
	}
}

func TestVersion_InvalidFormat(t *testing.T) {
	err := newTestApp(VersionCommand("abc123")).Run([]string{"utf8conv", "version", "--format", "xml"})
	if code := exitCodeOf(err); code != runtime.ExitCodeConfig {
		t.Errorf("exit code = %d, want %d", code, runtime.ExitCodeConfig)
	}
}

func TestNewVersionInfo(t *testing.T) {
	info := newVersionInfo("abc123")
	if info.Commit != "abc123" || info.Version != types.Version || info.ContractVersion != types.ContractVersion {
		t.Errorf("info = %+v", info)
	}
	if len(info.Formats) != 4 || info.Formats[3] != "frames" {
		t.Errorf("Formats = %v", info.Formats)
	}
	if newVersionInfo("").Commit == "" {
		t.Error("empty commit was not filled from build info")
	}
}
