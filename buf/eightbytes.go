// Package buf provides a fixed-capacity byte deque used as the scratch
// buffer of the transcoding sessions.
//
// EightBytes holds up to eight bytes packed into a single uint64. Byte 0
// (the front, oldest) lives in the least significant octet. Every operation
// is O(1) and allocation-free.
package buf

import "cmp"

// Capacity is the number of bytes an EightBytes can hold.
const Capacity = 8

// EightBytes is a bounded double-ended byte queue. The zero value is an
// empty buffer ready to use. Pushes on a full buffer are silently dropped.
type EightBytes struct {
	word uint64
	n    uint8
}

// IsEmpty reports whether the buffer holds no bytes.
func (b *EightBytes) IsEmpty() bool { return b.n == 0 }

// IsFull reports whether the buffer holds Capacity bytes.
func (b *EightBytes) IsFull() bool { return b.n == Capacity }

// Len returns the number of buffered bytes.
func (b *EightBytes) Len() int { return int(b.n) }

// Cap returns Capacity.
func (b *EightBytes) Cap() int { return Capacity }

// Clear empties the buffer.
func (b *EightBytes) Clear() {
	b.word = 0
	b.n = 0
}

// PushBack appends v after the newest byte. No-op when full.
func (b *EightBytes) PushBack(v byte) {
	if b.n == Capacity {
		return
	}
	b.word |= uint64(v) << (8 * uint(b.n))
	b.n++
}

// PushFront inserts v before the oldest byte. No-op when full.
func (b *EightBytes) PushFront(v byte) {
	if b.n == Capacity {
		return
	}
	b.word = b.word<<8 | uint64(v)
	b.n++
}

// PopFront removes and returns the oldest byte.
func (b *EightBytes) PopFront() (byte, bool) {
	if b.n == 0 {
		return 0, false
	}
	v := byte(b.word)
	b.word >>= 8
	b.n--
	return v, true
}

// PopBack removes and returns the newest byte.
func (b *EightBytes) PopBack() (byte, bool) {
	if b.n == 0 {
		return 0, false
	}
	shift := 8 * uint(b.n-1)
	v := byte(b.word >> shift)
	b.word &^= 0xFF << shift
	b.n--
	return v, true
}

// Front returns the oldest byte without removing it.
func (b *EightBytes) Front() (byte, bool) {
	if b.n == 0 {
		return 0, false
	}
	return byte(b.word), true
}

// Back returns the newest byte without removing it.
func (b *EightBytes) Back() (byte, bool) {
	if b.n == 0 {
		return 0, false
	}
	return byte(b.word >> (8 * uint(b.n-1))), true
}

// PeekAt returns the byte at position i, where 0 is the oldest byte.
func (b *EightBytes) PeekAt(i int) (byte, bool) {
	if i < 0 || i >= int(b.n) {
		return 0, false
	}
	return byte(b.word >> (8 * uint(i))), true
}

// Bytes appends the buffered bytes, oldest first, to dst.
func (b *EightBytes) Bytes(dst []byte) []byte {
	for i := range int(b.n) {
		dst = append(dst, byte(b.word>>(8*uint(i))))
	}
	return dst
}

// Compare orders buffers by length, then by packed content.
// It returns -1, 0 or +1.
func (b *EightBytes) Compare(other EightBytes) int {
	if c := cmp.Compare(b.n, other.n); c != 0 {
		return c
	}
	return cmp.Compare(b.word, other.word)
}
