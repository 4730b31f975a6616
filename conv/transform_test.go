package conv

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"golang.org/x/text/transform"
)

func TestSanitizer_String(t *testing.T) {
	tests := []struct {
		in          string
		want        string
		wantInvalid bool
	}{
		{"", "", false},
		{"plain ascii", "plain ascii", false},
		{"caf\xc3\xa9", "caf\u00e9", false},
		{"a\xffb", "a\uFFFDb", true},
		{"\xed\xa0\x80", "\uFFFD\uFFFD\uFFFD", true},
		{"\xe1\xa0\xc0\\", "\uFFFD\uFFFD\\", true},
		{"tail\xf0\x9f\x98", "tail\uFFFD", true},
	}
	for _, tt := range tests {
		s := NewSanitizer()
		got, _, err := transform.String(s, tt.in)
		if err != nil {
			t.Fatalf("transform.String(%+q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("transform.String(%+q) = %+q, want %+q", tt.in, got, tt.want)
		}
		if s.HasInvalidSequence() != tt.wantInvalid {
			t.Errorf("%+q: HasInvalidSequence() = %v, want %v", tt.in, s.HasInvalidSequence(), tt.wantInvalid)
		}
	}
}

// oneByteReader returns at most one byte per Read.
type oneByteReader struct{ r io.Reader }

func (o oneByteReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	return o.r.Read(p[:1])
}

func TestSanitizer_Reader(t *testing.T) {
	in := "\u00e9t\u00e9 \xf0\x9f\x8c\x9e \xc0 fin"
	r := transform.NewReader(oneByteReader{strings.NewReader(in)}, NewSanitizer())
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if want := "\u00e9t\u00e9 \U0001F31E \uFFFD fin"; string(got) != want {
		t.Errorf("ReadAll() = %+q, want %+q", got, want)
	}
}

func TestSanitizer_ShortDst(t *testing.T) {
	s := NewSanitizer()
	dst := make([]byte, 2)
	src := []byte("\u20AC")
	nDst, nSrc, err := s.Transform(dst, src, true)
	if err != transform.ErrShortDst {
		t.Fatalf("Transform() error = %v, want ErrShortDst", err)
	}
	if nDst != 2 || nSrc != 3 {
		t.Fatalf("Transform() = %d, %d, want 2, 3", nDst, nSrc)
	}
	nDst2, _, err := s.Transform(dst, nil, true)
	if err != nil || nDst2 != 1 || dst[0] != 0xAC {
		t.Errorf("Transform() = %d, %v, dst[0] = %#x, want 1, nil, 0xac", nDst2, err, dst[0])
	}
}

func TestUTF32_Encoder(t *testing.T) {
	tests := []struct {
		name  string
		order Endianness
		in    string
		want  []byte
	}{
		{"BE ascii", BigEndian, "A", []byte{0, 0, 0, 'A'}},
		{"LE ascii", LittleEndian, "A", []byte{'A', 0, 0, 0}},
		{"BE astral", BigEndian, "\U0001F600", []byte{0, 0x01, 0xF6, 0x00}},
		{"LE invalid", LittleEndian, "\xff", []byte{0xFD, 0xFF, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UTF32(tt.order).NewEncoder().Bytes([]byte(tt.in))
			if err != nil {
				t.Fatalf("Bytes() error = %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Bytes() = % x, want % x", got, tt.want)
			}
		})
	}
}

func TestUTF32_Decoder(t *testing.T) {
	tests := []struct {
		name  string
		order Endianness
		in    []byte
		want  string
	}{
		{"BE", BigEndian, []byte{0, 0, 0x20, 0xAC, 0, 0, 0, 'x'}, "\u20ACx"},
		{"LE", LittleEndian, []byte{0x00, 0xF6, 0x01, 0x00}, "\U0001F600"},
		{"surrogate", BigEndian, []byte{0, 0, 0xD8, 0x00}, "\uFFFD"},
		{"above range", BigEndian, []byte{0, 0x11, 0, 0}, "\uFFFD"},
		{"trailing partial", BigEndian, []byte{0, 0, 0, 'a', 0, 0}, "a\uFFFD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UTF32(tt.order).NewDecoder().Bytes(tt.in)
			if err != nil {
				t.Fatalf("Bytes() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Bytes() = %+q, want %+q", got, tt.want)
			}
		})
	}
}

func TestUTF32_RoundTripReader(t *testing.T) {
	in := "Grüße, 世界 \U0001F30D"
	enc := UTF32(LittleEndian)
	wide, err := enc.NewEncoder().String(in)
	if err != nil {
		t.Fatalf("encode error = %v", err)
	}
	if len(wide) != 4*len([]rune(in)) {
		t.Fatalf("encoded length = %d, want %d", len(wide), 4*len([]rune(in)))
	}
	r := enc.NewDecoder().Reader(oneByteReader{strings.NewReader(wide)})
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(got) != in {
		t.Errorf("round trip = %+q, want %+q", got, in)
	}
}

func TestUTF32_String(t *testing.T) {
	if got := UTF32(LittleEndian).(interface{ String() string }).String(); got != "UTF-32LE" {
		t.Errorf("String() = %q, want UTF-32LE", got)
	}
}
