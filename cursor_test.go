package mqttlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5, 6}
	c := newCursor(buf)

	assert.Equal(t, 6, c.remaining())
	assert.Equal(t, buf, c.bytes())

	require.NoError(t, c.skip(1))
	v, err := c.take(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 3}, v)
	assert.Equal(t, 2, cap(v))
	assert.Equal(t, 3, c.remaining())

	t.Run("skip past end", func(t *testing.T) {
		assert.ErrorIs(t, c.skip(4), ErrBufferOverflow)
		assert.ErrorIs(t, c.skip(-1), ErrBufferOverflow)
		assert.Equal(t, 3, c.cur)
	})

	t.Run("take past end", func(t *testing.T) {
		_, err := c.take(4)
		assert.ErrorIs(t, err, ErrMalformedPacket)
		assert.Equal(t, 3, c.cur)
	})

	t.Run("limit", func(t *testing.T) {
		sub, err := c.limit(2)
		require.NoError(t, err)
		assert.Equal(t, []byte{4, 5}, sub.bytes())

		_, err = sub.take(3)
		assert.ErrorIs(t, err, ErrMalformedPacket)

		b, err := sub.unpackUint8()
		require.NoError(t, err)
		assert.Equal(t, byte(4), b)

		// The parent does not move with the sub cursor.
		assert.Equal(t, 3, c.cur)

		_, err = c.limit(4)
		assert.ErrorIs(t, err, ErrMalformedPacket)
	})
}
