package classfile

import "encoding/binary"

// reader is a big-endian cursor over a byte slice with a sticky error.
// After the first short read every accessor returns zero values and err
// holds a truncation error carrying the failing offset.
type reader struct {
	resource string
	buf      []byte
	off      int
	base     int // offset of buf[0] within the whole classfile
	err      error
}

func newReader(resource string, buf []byte) *reader {
	return &reader{resource: resource, buf: buf}
}

// sub returns a reader over the next n bytes and advances past them.
func (r *reader) sub(n int) *reader {
	start := r.off
	b := r.bytes(n)
	return &reader{resource: r.resource, buf: b, base: r.base + start, err: r.err}
}

func (r *reader) pos() int { return r.base + r.off }

func (r *reader) remaining() int { return len(r.buf) - r.off }

func (r *reader) fail(reason string, err error) {
	if r.err == nil {
		r.err = &MalformedClassError{Resource: r.resource, Offset: r.pos(), Reason: reason, Err: err}
	}
}

func (r *reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if n < 0 || r.remaining() < n {
		r.fail("unexpected end of data", nil)
		return false
	}
	return true
}

func (r *reader) u1() uint8 {
	if !r.need(1) {
		return 0
	}
	v := r.buf[r.off]
	r.off++
	return v
}

func (r *reader) u2() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.BigEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v
}

func (r *reader) u4() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v
}

func (r *reader) u8() uint64 {
	if !r.need(8) {
		return 0
	}
	v := binary.BigEndian.Uint64(r.buf[r.off:])
	r.off += 8
	return v
}

func (r *reader) bytes(n int) []byte {
	if !r.need(n) {
		return nil
	}
	v := r.buf[r.off : r.off+n]
	r.off += n
	return v
}
