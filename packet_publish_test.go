package mqttlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decodePublishFrame decodes a full PUBLISH frame whose payload follows the
// variable header.
func decodePublishFrame(t *testing.T, version ProtocolVersion, aliases *topicAliasTable, frame []byte) (*PublishParam, error) {
	t.Helper()

	c := newCursor(frame)
	h, err := decodeFixedHeader(c)
	require.NoError(t, err)
	require.Equal(t, PacketPUBLISH, h.PacketType)

	var p PublishParam
	err = decodePublish(c, version, h, aliases, &p, &defaultPropLimits)
	return &p, err
}

func TestPublishQoS1RoundTrip(t *testing.T) {
	for _, version := range []ProtocolVersion{ProtocolVersion31, ProtocolVersion311, ProtocolVersion50} {
		t.Run(version.String(), func(t *testing.T) {
			p := &PublishParam{
				Topic:     []byte("test_topic"),
				Payload:   []byte("test_payload"),
				MessageID: 0x1234,
				QoS:       QoS1,
			}

			header := encodeFrame(t, func(c *cursor) error {
				return encodePublish(c, version, p)
			})
			assert.Equal(t, byte(0x32), header[0])

			frame := append(header, p.Payload...)
			got, err := decodePublishFrame(t, version, nil, frame)
			require.NoError(t, err)

			assert.Len(t, got.Topic, 10)
			assert.Equal(t, "test_topic", string(got.Topic))
			assert.Equal(t, uint16(0x1234), got.MessageID)
			assert.Equal(t, 12, got.PayloadLen)
			assert.Equal(t, QoS1, got.QoS)
			assert.False(t, got.Retain)
			assert.False(t, got.DUP)
			assert.Nil(t, got.Payload)
		})
	}
}

func TestPublishPropertiesRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		param PublishParam
		has   PublishPresence
	}{
		{
			name: "all optional properties",
			param: PublishParam{
				Topic:     []byte("sensors/temp"),
				Payload:   []byte(`{"c":21.5}`),
				QoS:       QoS1,
				MessageID: 0x0102,
				Properties: PublishProperties{
					PayloadFormatIndicator:  1,
					MessageExpiryInterval:   3600,
					ResponseTopic:           []byte("sensors/temp/reply"),
					CorrelationData:         []byte{0x00, 0xFF, 0x10},
					ContentType:             []byte("application/json"),
					SubscriptionIdentifiers: []uint32{1, 268435455},
					UserProperties: []UserProperty{
						{Name: []byte("unit"), Value: []byte("celsius")},
						{Name: []byte("unit"), Value: []byte("kelvin")},
					},
				},
			},
			has: PublishPresence{
				PayloadFormatIndicator: true,
				MessageExpiryInterval:  true,
				ResponseTopic:          true,
				CorrelationData:        true,
				ContentType:            true,
			},
		},
		{
			name: "qos2 retained with expiry only",
			param: PublishParam{
				Topic:      []byte("t"),
				Payload:    []byte("x"),
				QoS:        QoS2,
				Retain:     true,
				MessageID:  9,
				Properties: PublishProperties{MessageExpiryInterval: 1},
			},
			has: PublishPresence{MessageExpiryInterval: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.param
			header := encodeFrame(t, func(c *cursor) error {
				return encodePublish(c, ProtocolVersion50, &p)
			})

			got, err := decodePublishFrame(t, ProtocolVersion50, nil, append(header, p.Payload...))
			require.NoError(t, err)

			assert.Equal(t, p.Topic, got.Topic)
			assert.Equal(t, p.QoS, got.QoS)
			assert.Equal(t, p.Retain, got.Retain)
			assert.Equal(t, p.MessageID, got.MessageID)
			assert.Equal(t, len(p.Payload), got.PayloadLen)

			want := p.Properties
			want.Has = tt.has
			assert.Equal(t, want, got.Properties)
		})
	}
}

func TestEncodePublish(t *testing.T) {
	tests := []struct {
		name     string
		version  ProtocolVersion
		param    PublishParam
		expected []byte
	}{
		{
			name:     "qos0 payload outside frame",
			version:  ProtocolVersion311,
			param:    PublishParam{Topic: []byte("a/b"), Payload: []byte("hi")},
			expected: []byte{0x30, 0x07, 0x00, 0x03, 'a', '/', 'b'},
		},
		{
			name:     "qos2 retain dup",
			version:  ProtocolVersion311,
			param:    PublishParam{Topic: []byte("t"), QoS: QoS2, Retain: true, DUP: true, MessageID: 1},
			expected: []byte{0x3D, 0x05, 0x00, 0x01, 't', 0x00, 0x01},
		},
		{
			name:     "v5 no properties",
			version:  ProtocolVersion50,
			param:    PublishParam{Topic: []byte("t")},
			expected: []byte{0x30, 0x04, 0x00, 0x01, 't', 0x00},
		},
		{
			name:    "v5 properties",
			version: ProtocolVersion50,
			param: PublishParam{
				Topic: []byte("t"),
				Properties: PublishProperties{
					PayloadFormatIndicator: 1,
					MessageExpiryInterval:  60,
					CorrelationData:        []byte{0xAA},
				},
			},
			expected: []byte{
				0x30, 0x0F,
				0x00, 0x01, 't',
				0x0B, 0x01, 0x01, 0x02, 0x00, 0x00, 0x00, 0x3C, 0x09, 0x00, 0x01, 0xAA,
			},
		},
		{
			name:    "v5 alias only",
			version: ProtocolVersion50,
			param: PublishParam{
				Properties: PublishProperties{TopicAlias: 3},
			},
			expected: []byte{0x30, 0x06, 0x00, 0x00, 0x03, 0x23, 0x00, 0x03},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := encodeFrame(t, func(c *cursor) error {
				return encodePublish(c, tt.version, &tt.param)
			})
			assert.Equal(t, tt.expected, frame)
		})
	}
}

func TestEncodePublishErrors(t *testing.T) {
	tests := []struct {
		name    string
		version ProtocolVersion
		param   PublishParam
		err     error
	}{
		{name: "qos3", version: ProtocolVersion311, param: PublishParam{Topic: []byte("t"), QoS: 3}, err: ErrInvalidArgument},
		{name: "missing id", version: ProtocolVersion311, param: PublishParam{Topic: []byte("t"), QoS: QoS1}, err: ErrInvalidArgument},
		{name: "empty topic", version: ProtocolVersion311, param: PublishParam{}, err: ErrEmptyTopic},
		{name: "empty topic without alias", version: ProtocolVersion50, param: PublishParam{}, err: ErrEmptyTopic},
		{name: "wildcard topic", version: ProtocolVersion311, param: PublishParam{Topic: []byte("a/+")}, err: ErrInvalidTopicName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := encodePublish(newCursor(make([]byte, 64)), tt.version, &tt.param)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestDecodePublishProperties(t *testing.T) {
	frame := []byte{
		0x30, 0x14,
		0x00, 0x01, 't',
		0x0E,
		0x01, 0x01,
		0x03, 0x00, 0x04, 'j', 's', 'o', 'n',
		0x0B, 0x05,
		0x0B, 0x80, 0x01,
		'x', 'y',
	}

	p, err := decodePublishFrame(t, ProtocolVersion50, nil, frame)
	require.NoError(t, err)

	assert.Equal(t, "t", string(p.Topic))
	assert.True(t, p.Properties.Has.PayloadFormatIndicator)
	assert.Equal(t, byte(1), p.Properties.PayloadFormatIndicator)
	assert.True(t, p.Properties.Has.ContentType)
	assert.Equal(t, "json", string(p.Properties.ContentType))
	assert.Equal(t, []uint32{5, 128}, p.Properties.SubscriptionIdentifiers)
	assert.Equal(t, 2, p.PayloadLen)
}

func TestDecodePublishTopicAlias(t *testing.T) {
	aliases := newTopicAliasTable(2, 16)

	register := []byte{0x30, 0x0A, 0x00, 0x03, 'a', '/', 'b', 0x03, 0x23, 0x00, 0x02, 'p'}
	p, err := decodePublishFrame(t, ProtocolVersion50, aliases, register)
	require.NoError(t, err)
	assert.Equal(t, "a/b", string(p.Topic))
	assert.Equal(t, 1, p.PayloadLen)

	use := []byte{0x30, 0x07, 0x00, 0x00, 0x03, 0x23, 0x00, 0x02, 'q'}
	p, err = decodePublishFrame(t, ProtocolVersion50, aliases, use)
	require.NoError(t, err)
	assert.Equal(t, "a/b", string(p.Topic))
	assert.Equal(t, uint16(2), p.Properties.TopicAlias)

	tests := []struct {
		name    string
		aliases *topicAliasTable
		frame   []byte
		err     error
	}{
		{
			name:    "unknown alias",
			aliases: aliases,
			frame:   []byte{0x30, 0x06, 0x00, 0x00, 0x03, 0x23, 0x00, 0x01},
			err:     ErrTopicAliasNotFound,
		},
		{
			name:    "alias above maximum",
			aliases: aliases,
			frame:   []byte{0x30, 0x06, 0x00, 0x00, 0x03, 0x23, 0x00, 0x03},
			err:     ErrTopicAliasInvalid,
		},
		{
			name:    "aliases disabled",
			aliases: nil,
			frame:   []byte{0x30, 0x06, 0x00, 0x00, 0x03, 0x23, 0x00, 0x01},
			err:     ErrTopicAliasInvalid,
		},
		{
			name:    "topic too long",
			aliases: newTopicAliasTable(1, 2),
			frame:   []byte{0x30, 0x09, 0x00, 0x03, 'a', '/', 'b', 0x03, 0x23, 0x00, 0x01},
			err:     ErrTopicAliasTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodePublishFrame(t, ProtocolVersion50, tt.aliases, tt.frame)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestDecodePublishErrors(t *testing.T) {
	tests := []struct {
		name    string
		version ProtocolVersion
		frame   []byte
	}{
		{name: "empty topic", version: ProtocolVersion311, frame: []byte{0x30, 0x02, 0x00, 0x00}},
		{name: "zero message id", version: ProtocolVersion311, frame: []byte{0x32, 0x05, 0x00, 0x01, 't', 0x00, 0x00}},
		{name: "topic past end", version: ProtocolVersion311, frame: []byte{0x30, 0x03, 0x00, 0x05, 't'}},
		{name: "missing properties", version: ProtocolVersion50, frame: []byte{0x30, 0x03, 0x00, 0x01, 't'}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodePublishFrame(t, tt.version, nil, tt.frame)
			assert.ErrorIs(t, err, ErrMalformedPacket)
		})
	}
}
