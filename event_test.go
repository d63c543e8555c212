package mqttlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventTypeString(t *testing.T) {
	tests := []struct {
		typ  EventType
		want string
	}{
		{EventConnack, "CONNACK"},
		{EventPublish, "PUBLISH"},
		{EventPuback, "PUBACK"},
		{EventPubrec, "PUBREC"},
		{EventPubrel, "PUBREL"},
		{EventPubcomp, "PUBCOMP"},
		{EventSuback, "SUBACK"},
		{EventUnsuback, "UNSUBACK"},
		{EventPingresp, "PINGRESP"},
		{EventDisconnect, "DISCONNECT"},
		{EventAuth, "AUTH"},
		{EventType(42), "UNKNOWN"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.typ.String())
	}
}

func TestEventAccessors(t *testing.T) {
	connack := &ConnackParam{}
	publish := &PublishParam{}
	ack := &AckParam{}
	suback := &SubackParam{}
	unsuback := &UnsubackParam{}
	auth := &AuthParam{}
	disconnect := &DisconnectParam{}

	assert.Same(t, connack, (&Event{Type: EventConnack, Param: connack}).Connack())
	assert.Same(t, publish, (&Event{Type: EventPublish, Param: publish}).Publish())
	assert.Same(t, ack, (&Event{Type: EventPuback, Param: ack}).Ack())
	assert.Same(t, suback, (&Event{Type: EventSuback, Param: suback}).Suback())
	assert.Same(t, unsuback, (&Event{Type: EventUnsuback, Param: unsuback}).Unsuback())
	assert.Same(t, auth, (&Event{Type: EventAuth, Param: auth}).Auth())
	assert.Same(t, disconnect, (&Event{Type: EventDisconnect, Param: disconnect}).Disconnect())

	evt := &Event{Type: EventPingresp}
	assert.Nil(t, evt.Connack())
	assert.Nil(t, evt.Publish())
	assert.Nil(t, evt.Disconnect())

	assert.Nil(t, (&Event{Type: EventPublish, Param: ack}).Publish())
}
