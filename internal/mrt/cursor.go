package mrt

import "encoding/binary"

// Cursor is a bounds-checked sequential reader over a fixed byte span.
// Every read advances the offset and fails with a Truncated error if
// the span does not hold enough bytes. Multi-byte integers are always
// read big-endian (network order).
type Cursor struct {
	buf []byte
	off int
}

// NewCursor wraps buf for sequential reading from offset 0.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.off
}

// Offset returns the number of bytes consumed so far.
func (c *Cursor) Offset() int {
	return c.off
}

// Skip advances the cursor by n bytes without returning them.
func (c *Cursor) Skip(n int) error {
	if n < 0 || n > c.Remaining() {
		return errTruncated("cursor.skip")
	}
	c.off += n
	return nil
}

// ReadUint8 reads one byte.
func (c *Cursor) ReadUint8() (uint8, error) {
	if c.Remaining() < 1 {
		return 0, errTruncated("cursor.read_u8")
	}
	v := c.buf[c.off]
	c.off++
	return v, nil
}

// ReadUint16 reads two bytes, big-endian.
func (c *Cursor) ReadUint16() (uint16, error) {
	if c.Remaining() < 2 {
		return 0, errTruncated("cursor.read_u16")
	}
	v := binary.BigEndian.Uint16(c.buf[c.off : c.off+2])
	c.off += 2
	return v, nil
}

// ReadUint32 reads four bytes, big-endian.
func (c *Cursor) ReadUint32() (uint32, error) {
	if c.Remaining() < 4 {
		return 0, errTruncated("cursor.read_u32")
	}
	v := binary.BigEndian.Uint32(c.buf[c.off : c.off+4])
	c.off += 4
	return v, nil
}

// ReadUint64 reads eight bytes, big-endian.
func (c *Cursor) ReadUint64() (uint64, error) {
	if c.Remaining() < 8 {
		return 0, errTruncated("cursor.read_u64")
	}
	v := binary.BigEndian.Uint64(c.buf[c.off : c.off+8])
	c.off += 8
	return v, nil
}

// ReadExact reads n bytes and returns a freshly allocated copy, so the
// caller's value never aliases the cursor's backing buffer.
func (c *Cursor) ReadExact(n int) ([]byte, error) {
	if n < 0 || n > c.Remaining() {
		return nil, errTruncated("cursor.read_exact")
	}
	out := make([]byte, n)
	copy(out, c.buf[c.off:c.off+n])
	c.off += n
	return out, nil
}

// PeekUint8 reads the byte at offset bytes past the current position
// without advancing the cursor.
func (c *Cursor) PeekUint8(offset int) (uint8, error) {
	if offset < 0 || offset >= c.Remaining() {
		return 0, errTruncated("cursor.peek_u8")
	}
	return c.buf[c.off+offset], nil
}
