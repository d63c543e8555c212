package mqttlite

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"
)

// Codec errors.
var (
	// ErrMalformedPacket is returned when inbound bytes do not form a valid packet.
	ErrMalformedPacket = errors.New("malformed packet")

	// ErrBufferOverflow is returned when a buffer is too small for the operation.
	ErrBufferOverflow = errors.New("buffer overflow")

	// ErrInvalidArgument is returned when a parameter cannot be encoded.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrPacketTooLarge is returned when the remaining length exceeds MaxPayloadSize.
	ErrPacketTooLarge = errors.New("packet too large")

	// ErrWouldBlock is returned when an operation needs more data than is available yet.
	ErrWouldBlock = errors.New("operation would block")

	ErrStringTooLong      = fmt.Errorf("%w: string exceeds 65535 bytes", ErrInvalidArgument)
	ErrInvalidUTF8        = fmt.Errorf("%w: invalid UTF-8 string", ErrInvalidArgument)
	ErrStringContainsNull = fmt.Errorf("%w: string contains null character", ErrInvalidArgument)
	ErrVarintTooLarge     = fmt.Errorf("%w: variable byte integer exceeds maximum value", ErrInvalidArgument)

	// errIncomplete signals a variable byte integer cut short by the end of
	// the buffered data. The RX engine reads one more byte and retries.
	errIncomplete = fmt.Errorf("%w: incomplete variable byte integer", ErrWouldBlock)
)

const (
	// MaxPayloadSize is the largest remaining length a packet can carry.
	MaxPayloadSize = 268435455

	maxUint16         = 65535
	maxVarintBytes    = 4
	varintContinueBit = 0x80
	varintValueMask   = 0x7F
)

func (c *cursor) packUint8(v byte) error {
	if c.remaining() < 1 {
		return ErrBufferOverflow
	}
	c.buf[c.cur] = v
	c.cur++
	return nil
}

func (c *cursor) packUint16(v uint16) error {
	if c.remaining() < 2 {
		return ErrBufferOverflow
	}
	binary.BigEndian.PutUint16(c.buf[c.cur:], v)
	c.cur += 2
	return nil
}

func (c *cursor) packUint32(v uint32) error {
	if c.remaining() < 4 {
		return ErrBufferOverflow
	}
	binary.BigEndian.PutUint32(c.buf[c.cur:], v)
	c.cur += 4
	return nil
}

// packUTF8 writes a UTF-8 string with 2-byte length prefix.
func (c *cursor) packUTF8(s []byte) error {
	if err := validateUTF8(s); err != nil {
		return err
	}
	return c.packBinary(s)
}

// packBinary writes binary data with 2-byte length prefix.
func (c *cursor) packBinary(data []byte) error {
	if len(data) > maxUint16 {
		return ErrStringTooLong
	}
	if c.remaining() < 2+len(data) {
		return ErrBufferOverflow
	}
	binary.BigEndian.PutUint16(c.buf[c.cur:], uint16(len(data)))
	copy(c.buf[c.cur+2:], data)
	c.cur += 2 + len(data)
	return nil
}

// packVarint writes a variable byte integer.
func (c *cursor) packVarint(value uint32) error {
	if value > MaxPayloadSize {
		return ErrVarintTooLarge
	}

	size := varintSize(value)
	if c.remaining() < size {
		return ErrBufferOverflow
	}

	for i := range size {
		b := byte(value & varintValueMask)
		value >>= 7
		if i < size-1 {
			b |= varintContinueBit
		}
		c.buf[c.cur+i] = b
	}
	c.cur += size
	return nil
}

func (c *cursor) unpackUint8() (byte, error) {
	if c.remaining() < 1 {
		return 0, ErrMalformedPacket
	}
	v := c.buf[c.cur]
	c.cur++
	return v, nil
}

func (c *cursor) unpackUint16() (uint16, error) {
	if c.remaining() < 2 {
		return 0, ErrMalformedPacket
	}
	v := binary.BigEndian.Uint16(c.buf[c.cur:])
	c.cur += 2
	return v, nil
}

func (c *cursor) unpackUint32() (uint32, error) {
	if c.remaining() < 4 {
		return 0, ErrMalformedPacket
	}
	v := binary.BigEndian.Uint32(c.buf[c.cur:])
	c.cur += 4
	return v, nil
}

// unpackUTF8 reads a length-prefixed UTF-8 string as a view into the buffer.
// An empty string decodes as nil.
func (c *cursor) unpackUTF8() ([]byte, error) {
	start := c.cur
	s, err := c.unpackBinary()
	if err != nil {
		return nil, err
	}
	if validateUTF8(s) != nil {
		c.cur = start
		return nil, ErrMalformedPacket
	}
	return s, nil
}

// unpackBinary reads length-prefixed binary data as a view into the buffer.
// Empty data decodes as nil.
func (c *cursor) unpackBinary() ([]byte, error) {
	if c.remaining() < 2 {
		return nil, ErrMalformedPacket
	}
	length := int(binary.BigEndian.Uint16(c.buf[c.cur:]))
	if c.remaining() < 2+length {
		return nil, ErrMalformedPacket
	}
	c.cur += 2
	if length == 0 {
		return nil, nil
	}
	v := c.buf[c.cur : c.cur+length : c.cur+length]
	c.cur += length
	return v, nil
}

// unpackVarint reads a variable byte integer. It returns errIncomplete when
// the buffer ends inside the integer and ErrMalformedPacket when the integer
// runs past four bytes. On failure the cursor is not moved.
func (c *cursor) unpackVarint() (uint32, int, error) {
	var value uint32

	for i := range maxVarintBytes {
		if c.cur+i >= c.end {
			return 0, 0, errIncomplete
		}

		b := c.buf[c.cur+i]
		value |= uint32(b&varintValueMask) << (7 * i)

		if b&varintContinueBit == 0 {
			c.cur += i + 1
			return value, i + 1, nil
		}
	}

	return 0, 0, ErrMalformedPacket
}

// unpackVarintFull reads a variable byte integer from a fully buffered
// packet, where running out of bytes means the packet is malformed.
func (c *cursor) unpackVarintFull() (uint32, error) {
	v, _, err := c.unpackVarint()
	if errors.Is(err, errIncomplete) {
		return 0, ErrMalformedPacket
	}
	return v, err
}

// varintSize returns the number of bytes needed to encode a variable byte integer.
func varintSize(value uint32) int {
	switch {
	case value < 128:
		return 1
	case value < 16384:
		return 2
	case value < 2097152:
		return 3
	default:
		return 4
	}
}

// binarySize returns the encoded size of a length-prefixed string or binary.
func binarySize(data []byte) int {
	return 2 + len(data)
}

func validateUTF8(s []byte) error {
	if len(s) > maxUint16 {
		return ErrStringTooLong
	}
	if !utf8.Valid(s) {
		return ErrInvalidUTF8
	}
	for _, b := range s {
		if b == 0 {
			return ErrStringContainsNull
		}
	}
	return nil
}
