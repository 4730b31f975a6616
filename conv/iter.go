package conv

import "iter"

// Values returns an iterator over the elements of s.
func Values[T any](s []T) iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, v := range s {
			if !yield(v) {
				return
			}
		}
	}
}

// Runes decodes the bytes produced by src. The session keeps any trailing
// partial sequence when it is not on its last buffer, so a multi-buffer
// stream is decoded by calling Runes once per buffer.
func (p *FromUTF8) Runes(src iter.Seq[byte]) iter.Seq[rune] {
	return func(yield func(rune) bool) {
		next, stop := iter.Pull(src)
		defer stop()
		for {
			for !p.pending.IsFull() {
				b, ok := next()
				if !ok {
					break
				}
				p.pending.PushBack(b)
			}
			r, err := p.next()
			if err != nil {
				return
			}
			if !yield(r) {
				return
			}
		}
	}
}

// UTF32 is Runes yielding UTF-32 code units.
func (p *FromUTF8) UTF32(src iter.Seq[byte]) iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		for r := range p.Runes(src) {
			if !yield(uint32(r)) {
				return
			}
		}
	}
}

// RuneBytes encodes the runes produced by src into UTF-8 bytes.
func (p *FromUnicode) RuneBytes(src iter.Seq[rune]) iter.Seq[byte] {
	return encodeSeq(p, src)
}

// UTF32Bytes encodes the code units produced by src into UTF-8 bytes.
func (p *FromUnicode) UTF32Bytes(src iter.Seq[uint32]) iter.Seq[byte] {
	return encodeSeq(p, src)
}

func encodeSeq[T rune | uint32](p *FromUnicode, src iter.Seq[T]) iter.Seq[byte] {
	return func(yield func(byte) bool) {
		next, stop := iter.Pull(src)
		defer stop()
		var one [1]T
		in := one[:0]
		for {
			if len(in) == 0 && p.pending.IsEmpty() {
				if v, ok := next(); ok {
					one[0] = v
					in = one[:1]
				}
			}
			rest, b, err := encodeNext(p, in)
			if err != nil {
				return
			}
			in = rest
			if !yield(b) {
				return
			}
		}
	}
}
