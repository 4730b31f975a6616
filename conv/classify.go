package conv

// EncodeKind is the class of a UTF-32 code unit.
type EncodeKind uint8

// Encode kinds, by UTF-8 length.
const (
	OneByte EncodeKind = iota + 1
	TwoBytes
	ThreeBytes
	FourBytes
	Invalid
)

var encodeKindNames = [...]string{"", "one_byte", "two_bytes", "three_bytes", "four_bytes", "invalid"}

func (k EncodeKind) String() string {
	if int(k) < len(encodeKindNames) && k != 0 {
		return encodeKindNames[k]
	}
	return "unknown"
}

// EncodeOutcome is the UTF-8 form of one code unit. For Invalid it holds the
// encoding of U+FFFD.
type EncodeOutcome struct {
	Kind EncodeKind
	b    [4]byte
}

// Len returns the number of UTF-8 bytes.
func (o EncodeOutcome) Len() int {
	switch o.Kind {
	case OneByte:
		return 1
	case TwoBytes:
		return 2
	case ThreeBytes, Invalid:
		return 3
	case FourBytes:
		return 4
	}
	return 0
}

// Bytes returns the UTF-8 bytes, lead byte first.
func (o EncodeOutcome) Bytes() []byte {
	return o.b[:o.Len()]
}

// Put copies the UTF-8 bytes into dst, which must hold at least Len bytes,
// and returns the count.
func (o EncodeOutcome) Put(dst []byte) int {
	return copy(dst, o.b[:o.Len()])
}

// Byte returns the i-th UTF-8 byte.
func (o EncodeOutcome) Byte(i int) byte {
	return o.b[i]
}

const (
	surrogateMin = 0xD800
	surrogateMax = 0xDFFF

	maskx = 0x3F
	tx    = 0x80
	t2    = 0xC0
	t3    = 0xE0
	t4    = 0xF0
)

var invalidOutcome = EncodeOutcome{Kind: Invalid, b: [4]byte{0xEF, 0xBF, 0xBD}}

// ClassifyUTF32 maps a code unit to its UTF-8 byte sequence. Surrogates,
// values above U+10FFFF and, under RejectReplacement, U+FFFD itself are
// Invalid.
func ClassifyUTF32(code uint32, p ReplacementPolicy) EncodeOutcome {
	switch {
	case code < 0x80:
		return EncodeOutcome{Kind: OneByte, b: [4]byte{byte(code)}}
	case code < 0x800:
		return EncodeOutcome{Kind: TwoBytes, b: [4]byte{
			t2 | byte(code>>6),
			tx | byte(code)&maskx,
		}}
	case surrogateMin <= code && code <= surrogateMax:
		return invalidOutcome
	case code < 0x10000:
		if code == uint32(ReplacementChar) && p == RejectReplacement {
			return invalidOutcome
		}
		return EncodeOutcome{Kind: ThreeBytes, b: [4]byte{
			t3 | byte(code>>12),
			tx | byte(code>>6)&maskx,
			tx | byte(code)&maskx,
		}}
	case code <= MaxRune:
		return EncodeOutcome{Kind: FourBytes, b: [4]byte{
			t4 | byte(code>>18),
			tx | byte(code>>12)&maskx,
			tx | byte(code>>6)&maskx,
			tx | byte(code)&maskx,
		}}
	}
	return invalidOutcome
}
