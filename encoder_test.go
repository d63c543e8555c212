package mqttlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinishPacket(t *testing.T) {
	tests := []struct {
		name       string
		body       int
		payloadLen int
		header     []byte
	}{
		{name: "empty", body: 0, header: []byte{0xC0, 0x00}},
		{name: "one byte length", body: 127, header: []byte{0xC0, 0x7F}},
		{name: "two byte length", body: 128, header: []byte{0xC0, 0x80, 0x01}},
		{name: "payload counted", body: 2, payloadLen: 16382, header: []byte{0xC0, 0x80, 0x80, 0x01}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := make([]byte, 256)
			c := newCursor(buf)

			start, err := beginPacket(c)
			require.NoError(t, err)
			require.Equal(t, fixedHeaderMaxSize, start)

			for i := range tt.body {
				require.NoError(t, c.packUint8(byte(i)))
			}

			require.NoError(t, finishPacket(c, start, 0xC0, tt.payloadLen))

			frame := c.bytes()
			assert.Len(t, frame, len(tt.header)+tt.body)
			assert.Equal(t, tt.header, frame[:len(tt.header)])
			if tt.body > 0 {
				assert.Equal(t, byte(0), frame[len(tt.header)])
				assert.Equal(t, byte(tt.body-1), frame[len(frame)-1])
			}
		})
	}
}

func TestFinishPacketTooLarge(t *testing.T) {
	c := newCursor(make([]byte, 16))

	start, err := beginPacket(c)
	require.NoError(t, err)
	require.NoError(t, c.packUint8(0))

	assert.ErrorIs(t, finishPacket(c, start, 0x30, MaxPayloadSize), ErrPacketTooLarge)
}

func TestBeginPacketOverflow(t *testing.T) {
	_, err := beginPacket(newCursor(make([]byte, fixedHeaderMaxSize-1)))
	assert.ErrorIs(t, err, ErrBufferOverflow)
}

func TestEncodePingreq(t *testing.T) {
	frame := encodeFrame(t, encodePingreq)
	assert.Equal(t, []byte{0xC0, 0x00}, frame)
}

func TestDecodePingresp(t *testing.T) {
	assert.NoError(t, decodePingresp(FixedHeader{PacketType: PacketPINGRESP}))
	assert.ErrorIs(t, decodePingresp(FixedHeader{PacketType: PacketPINGRESP, RemainingLength: 1}), ErrMalformedPacket)
}
