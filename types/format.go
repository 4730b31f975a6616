package types

import (
	"fmt"
	"strings"
)

// Format names an input or output encoding.
type Format string

const (
	// FormatUTF8 is UTF-8 text.
	FormatUTF8 Format = "utf8"
	// FormatUTF32LE is UTF-32, little endian, no byte order mark.
	FormatUTF32LE Format = "utf32le"
	// FormatUTF32BE is UTF-32, big endian, no byte order mark.
	FormatUTF32BE Format = "utf32be"
	// FormatFrames is the length-prefixed msgpack chunk frame stream.
	// Output only.
	FormatFrames Format = "frames"
)

// IsUTF32 reports whether f is one of the UTF-32 formats.
func (f Format) IsUTF32() bool {
	return f == FormatUTF32LE || f == FormatUTF32BE
}

// ParseFormat parses a format name. Aliases with dashes ("utf-8",
// "utf-32le") are accepted.
func ParseFormat(s string) (Format, error) {
	norm := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", ""))
	switch Format(norm) {
	case FormatUTF8, FormatUTF32LE, FormatUTF32BE, FormatFrames:
		return Format(norm), nil
	default:
		return "", fmt.Errorf("invalid format %q: must be utf8, utf32le, utf32be, or frames", s)
	}
}

// ParseInputFormat parses a format that can be read as input.
func ParseInputFormat(s string) (Format, error) {
	f, err := ParseFormat(s)
	if err != nil {
		return "", err
	}
	if f == FormatFrames {
		return "", fmt.Errorf("format %q cannot be used as input", s)
	}
	return f, nil
}
