package mqttlite

// cursor is a read/write position over a caller-owned byte region.
// Invariant: 0 <= cur <= end <= len(buf). Operations that would cross end
// fail and leave cur untouched.
type cursor struct {
	buf []byte
	cur int
	end int
}

func newCursor(buf []byte) *cursor {
	return &cursor{buf: buf, end: len(buf)}
}

// remaining returns the number of bytes between cur and end.
func (c *cursor) remaining() int {
	return c.end - c.cur
}

// bytes returns the region between cur and end.
func (c *cursor) bytes() []byte {
	return c.buf[c.cur:c.end]
}

// skip advances cur by n bytes without touching them.
func (c *cursor) skip(n int) error {
	if n < 0 || c.remaining() < n {
		return ErrBufferOverflow
	}
	c.cur += n
	return nil
}

// take returns a view of the next n bytes and advances past them.
func (c *cursor) take(n int) ([]byte, error) {
	if n < 0 || c.remaining() < n {
		return nil, ErrMalformedPacket
	}
	v := c.buf[c.cur : c.cur+n : c.cur+n]
	c.cur += n
	return v, nil
}

// limit returns a sub cursor sharing buf whose end is n bytes past cur.
func (c *cursor) limit(n int) (*cursor, error) {
	if n < 0 || c.remaining() < n {
		return nil, ErrMalformedPacket
	}
	return &cursor{buf: c.buf, cur: c.cur, end: c.cur + n}, nil
}
