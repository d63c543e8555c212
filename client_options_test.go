package mqttlite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOptions(t *testing.T) {
	o := applyOptions()

	assert.Equal(t, ProtocolVersion311, o.protocolVersion)
	assert.Equal(t, uint16(60), o.keepAlive)
	assert.Equal(t, uint16(DefaultTopicAliasMaximum), o.topicAliasMaximum)
	assert.Equal(t, DefaultTopicAliasMaxLength, o.topicAliasMaxLength)
	assert.Equal(t, DefaultMaxUserProperties, o.maxUserProperties)
	assert.Equal(t, DefaultMaxSubscriptionIDs, o.maxSubscriptionIDs)
	assert.Equal(t, TransportTCP, o.transportConfig.Type)
	assert.Equal(t, "localhost:1883", o.transportConfig.Address)
	assert.IsType(t, &NoOpLogger{}, o.logger)
	assert.IsType(t, &NoOpMetrics{}, o.metrics)
	assert.NotNil(t, o.clock)
	assert.Nil(t, o.transport)
	assert.Nil(t, o.onEvent)
}

func TestOptions(t *testing.T) {
	now := time.Unix(42, 0)
	logger := NewStdLogger(nil, LogLevelDebug)
	metrics := NewMemoryMetrics()
	tr := &mockTransport{}
	will := &Will{Topic: []byte("will"), Payload: []byte("bye")}

	o := applyOptions(
		WithProtocolVersion(ProtocolVersion50),
		WithClientID("client-1"),
		WithCredentials("user", "pass"),
		WithCleanSession(true),
		WithKeepAlive(0),
		WithWill(will),
		WithSessionExpiryInterval(120),
		WithReceiveMaximum(16),
		WithMaximumPacketSize(4096),
		WithRequestResponseInformation(true),
		WithRequestProblemInformation(true),
		WithUserProperties(UserProperty{Name: []byte("a"), Value: []byte("1")}),
		WithUserProperties(UserProperty{Name: []byte("b"), Value: []byte("2")}),
		WithAuthentication("SCRAM-SHA-256", []byte("first")),
		WithTopicAliasMaximum(3),
		WithTopicAliasMaxLength(32),
		WithMaxUserProperties(1),
		WithMaxSubscriptionIDs(0),
		OnEvent(func(*Client, *Event) {}),
		WithTransportConfig(TransportConfig{Type: TransportQUIC, Address: "broker:14567"}),
		WithTransport(tr),
		WithLogger(logger),
		WithMetrics(metrics),
		WithClock(func() time.Time { return now }),
	)

	assert.Equal(t, ProtocolVersion50, o.protocolVersion)
	assert.Equal(t, []byte("client-1"), o.clientID)
	assert.Equal(t, []byte("user"), o.username)
	assert.Equal(t, []byte("pass"), o.password)
	assert.True(t, o.cleanSession)
	assert.Zero(t, o.keepAlive)
	assert.Same(t, will, o.will)

	props := o.connectProps
	assert.Equal(t, uint32(120), props.SessionExpiryInterval)
	assert.Equal(t, uint16(16), props.ReceiveMaximum)
	assert.Equal(t, uint32(4096), props.MaximumPacketSize)
	assert.True(t, props.RequestResponseInformation)
	assert.True(t, props.RequestProblemInformation)
	require.Len(t, props.UserProperties, 2)
	assert.Equal(t, []byte("b"), props.UserProperties[1].Name)
	assert.Equal(t, []byte("SCRAM-SHA-256"), props.AuthenticationMethod)
	assert.Equal(t, []byte("first"), props.AuthenticationData)

	assert.Equal(t, uint16(3), o.topicAliasMaximum)
	assert.Equal(t, 32, o.topicAliasMaxLength)
	assert.Equal(t, 1, o.maxUserProperties)
	assert.Zero(t, o.maxSubscriptionIDs)
	assert.NotNil(t, o.onEvent)
	assert.Equal(t, TransportQUIC, o.transportConfig.Type)
	assert.Same(t, tr, o.transport)
	assert.Same(t, logger, o.logger)
	assert.Same(t, metrics, o.metrics)
	assert.Equal(t, now, o.clock())
}

func TestOptionsIgnoreInvalid(t *testing.T) {
	o := applyOptions(
		WithTopicAliasMaxLength(0),
		WithMaxUserProperties(-1),
		WithMaxSubscriptionIDs(-1),
		WithLogger(nil),
		WithMetrics(nil),
		WithClock(nil),
	)

	assert.Equal(t, DefaultTopicAliasMaxLength, o.topicAliasMaxLength)
	assert.Equal(t, DefaultMaxUserProperties, o.maxUserProperties)
	assert.Equal(t, DefaultMaxSubscriptionIDs, o.maxSubscriptionIDs)
	assert.NotNil(t, o.logger)
	assert.NotNil(t, o.metrics)
	assert.NotNil(t, o.clock)
}
