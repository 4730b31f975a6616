package types //nolint:revive // types is a valid package name

import (
	"regexp"
	"testing"
)

func TestVersion_Format(t *testing.T) {
	semverRegex := regexp.MustCompile(`^\d+\.\d+\.\d+(-[a-zA-Z0-9.]+)?$`)
	if !semverRegex.MatchString(Version) {
		t.Errorf("Version %q is not a valid semver", Version)
	}
}

func TestContractVersion_MatchesVersion(t *testing.T) {
	if ContractVersion != Version {
		t.Errorf("ContractVersion %q != Version %q (lockstep versioning violated)", ContractVersion, Version)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"utf8", FormatUTF8, false},
		{"UTF-8", FormatUTF8, false},
		{"utf-32le", FormatUTF32LE, false},
		{" utf32be ", FormatUTF32BE, false},
		{"frames", FormatFrames, false},
		{"latin1", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseInputFormat_RejectsFrames(t *testing.T) {
	if _, err := ParseInputFormat("frames"); err == nil {
		t.Error("ParseInputFormat(frames) error = nil, want error")
	}
	if f, err := ParseInputFormat("utf32le"); err != nil || f != FormatUTF32LE {
		t.Errorf("ParseInputFormat(utf32le) = %q, %v", f, err)
	}
}

func TestRunMeta_Validate(t *testing.T) {
	valid := RunMeta{RunID: "r1", Source: "stdin", From: FormatUTF8, To: FormatUTF32LE}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(m *RunMeta)
	}{
		{"missing run id", func(m *RunMeta) { m.RunID = "" }},
		{"missing source", func(m *RunMeta) { m.Source = "" }},
		{"frames input", func(m *RunMeta) { m.From = FormatFrames }},
		{"missing to", func(m *RunMeta) { m.To = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := valid
			tt.mutate(&m)
			if err := m.Validate(); err == nil {
				t.Error("Validate() error = nil, want error")
			}
		})
	}
}

func TestChunk_Invalid(t *testing.T) {
	c := &Chunk{Units: []uint32{0xFFFD}}
	if c.Invalid() {
		t.Error("Invalid() = true with no replacements counted")
	}
	c.Replacements = 1
	if !c.Invalid() {
		t.Error("Invalid() = false with one replacement")
	}
}
