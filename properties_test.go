package mqttlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeProps(t *testing.T, fields []propField) []byte {
	t.Helper()

	buf := make([]byte, 256)
	c := newCursor(buf)
	require.NoError(t, encodeProperties(c, fields))
	return buf[:c.cur]
}

func TestEncodePropertiesDefaults(t *testing.T) {
	tests := []struct {
		name     string
		props    ConnectProperties
		expected []byte
	}{
		{
			name:     "all defaults",
			props:    ConnectProperties{RequestProblemInformation: true},
			expected: []byte{0x00},
		},
		{
			name:     "request problem information off",
			props:    ConnectProperties{},
			expected: []byte{0x02, 0x17, 0x00},
		},
		{
			name: "integers",
			props: ConnectProperties{
				SessionExpiryInterval:     0x01020304,
				ReceiveMaximum:            10,
				RequestProblemInformation: true,
			},
			expected: []byte{0x08, 0x11, 0x01, 0x02, 0x03, 0x04, 0x21, 0x00, 0x0A},
		},
		{
			name: "request response information",
			props: ConnectProperties{
				RequestResponseInformation: true,
				RequestProblemInformation:  true,
			},
			expected: []byte{0x02, 0x19, 0x01},
		},
		{
			name: "strings and user properties",
			props: ConnectProperties{
				RequestProblemInformation: true,
				AuthenticationMethod:      []byte("m"),
				UserProperties: []UserProperty{
					{Name: []byte("k"), Value: []byte("v")},
					{Name: []byte("k"), Value: []byte("w")},
				},
			},
			expected: []byte{
				0x12,
				0x26, 0x00, 0x01, 'k', 0x00, 0x01, 'v',
				0x26, 0x00, 0x01, 'k', 0x00, 0x01, 'w',
				0x15, 0x00, 0x01, 'm',
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := tt.props.fields()
			assert.Equal(t, len(tt.expected)-1, propertiesSize(fields))
			assert.Equal(t, tt.expected, encodeProps(t, fields))
		})
	}
}

func TestEncodeSubscriptionIdentifiers(t *testing.T) {
	p := PublishProperties{SubscriptionIdentifiers: []uint32{1, 300}}
	assert.Equal(t, []byte{0x05, 0x0B, 0x01, 0x0B, 0xAC, 0x02}, encodeProps(t, p.fields()))
}

func TestEncodePropertiesOverflow(t *testing.T) {
	p := ConnectProperties{SessionExpiryInterval: 1}
	c := newCursor(make([]byte, 3))
	assert.ErrorIs(t, encodeProperties(c, p.fields()), ErrBufferOverflow)
}

func TestDecodeProperties(t *testing.T) {
	data := []byte{
		0x11,
		0x13, 0x00, 0x1E,
		0x12, 0x00, 0x02, 'i', 'd',
		0x25, 0x01,
		0x26, 0x00, 0x01, 'a', 0x00, 0x01, 'b',
		// Outside the property block.
		0xFF,
	}

	var p ConnackProperties
	c := newCursor(data)
	require.NoError(t, decodeProperties(c, p.fields(), &defaultPropLimits))

	assert.Equal(t, len(data)-1, c.cur)

	assert.True(t, p.Has.ServerKeepAlive)
	assert.Equal(t, uint16(30), p.ServerKeepAlive)
	assert.True(t, p.Has.AssignedClientIdentifier)
	assert.Equal(t, []byte("id"), p.AssignedClientIdentifier)
	assert.True(t, p.Has.RetainAvailable)
	assert.True(t, p.RetainAvailable)
	require.Len(t, p.UserProperties, 1)
	assert.Equal(t, []byte("a"), p.UserProperties[0].Name)
	assert.Equal(t, []byte("b"), p.UserProperties[0].Value)

	assert.False(t, p.Has.ReceiveMaximum)
	assert.False(t, p.Has.ReasonString)
}

func TestDecodePropertiesErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		err  error
	}{
		{name: "unknown id", data: []byte{0x02, 0x01, 0x00}, err: ErrUnknownPropertyID},
		{name: "invalid id", data: []byte{0x02, 0x7F, 0x00}, err: ErrUnknownPropertyID},
		{name: "duplicate", data: []byte{0x06, 0x21, 0x00, 0x01, 0x21, 0x00, 0x02}, err: ErrDuplicateProperty},
		{name: "bool above one", data: []byte{0x02, 0x25, 0x02}, err: ErrMalformedPacket},
		{name: "length past end", data: []byte{0x05, 0x21, 0x00}, err: ErrMalformedPacket},
		{name: "value past length", data: []byte{0x02, 0x21, 0x00, 0x01}, err: ErrMalformedPacket},
		{name: "missing length", data: nil, err: ErrMalformedPacket},
		{name: "bad string", data: []byte{0x04, 0x1F, 0x00, 0x01, 0xFF}, err: ErrMalformedPacket},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p ConnackProperties
			err := decodeProperties(newCursor(tt.data), p.fields(), &defaultPropLimits)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestDecodePropertiesLimits(t *testing.T) {
	data := []byte{
		0x15,
		0x26, 0x00, 0x01, 'a', 0x00, 0x00,
		0x26, 0x00, 0x01, 'b', 0x00, 0x00,
		0x0B, 0x01,
		0x0B, 0x02,
		0x0B, 0x03,
		0x23, 0x00, 0x01,
	}

	var dropped []PropertyID
	limits := propLimits{
		userProperties:  1,
		subscriptionIDs: 2,
		dropped: func(id PropertyID) {
			dropped = append(dropped, id)
		},
	}

	var p PublishProperties
	c := newCursor(data)
	require.NoError(t, decodeProperties(c, p.fields(), &limits))
	assert.Equal(t, 0, c.remaining())

	require.Len(t, p.UserProperties, 1)
	assert.Equal(t, []byte("a"), p.UserProperties[0].Name)
	assert.Nil(t, p.UserProperties[0].Value)
	assert.Equal(t, []uint32{1, 2}, p.SubscriptionIdentifiers)
	assert.Equal(t, []PropertyID{PropUserProperty, PropSubscriptionIdentifier}, dropped)

	// Properties after the dropped ones are still decoded.
	assert.True(t, p.Has.TopicAlias)
	assert.Equal(t, uint16(1), p.TopicAlias)
}

func TestPropertyIDString(t *testing.T) {
	assert.Equal(t, "TopicAlias", PropTopicAlias.String())
	assert.Equal(t, "UserProperty", PropUserProperty.String())
	assert.Equal(t, "Property(0x7F)", PropertyID(0x7F).String())

	assert.Equal(t, PropTypeVarInt, PropSubscriptionIdentifier.PropertyType())
	assert.Equal(t, PropTypeStringPair, PropUserProperty.PropertyType())
}

func FuzzDecodeProperties(f *testing.F) {
	f.Add([]byte{0x00})
	f.Add([]byte{0x03, 0x21, 0x00, 0x0A})
	f.Add([]byte{0x07, 0x26, 0x00, 0x01, 'a', 0x00, 0x01, 'b'})

	f.Fuzz(func(t *testing.T, data []byte) {
		var p PublishProperties
		c := newCursor(data)
		if err := decodeProperties(c, p.fields(), &defaultPropLimits); err != nil {
			return
		}
		assert.LessOrEqual(t, len(p.UserProperties), DefaultMaxUserProperties)
		assert.LessOrEqual(t, len(p.SubscriptionIdentifiers), DefaultMaxSubscriptionIDs)
	})
}
