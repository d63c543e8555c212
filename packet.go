package mqttlite

// ProtocolVersion is the protocol level sent in CONNECT.
type ProtocolVersion byte

// Supported protocol versions.
const (
	ProtocolVersion31  ProtocolVersion = 3
	ProtocolVersion311 ProtocolVersion = 4
	ProtocolVersion50  ProtocolVersion = 5
)

// String returns the string representation of the protocol version.
func (v ProtocolVersion) String() string {
	switch v {
	case ProtocolVersion31:
		return "3.1"
	case ProtocolVersion311:
		return "3.1.1"
	case ProtocolVersion50:
		return "5.0"
	default:
		return "unknown"
	}
}

// Valid returns true for a supported protocol version.
func (v ProtocolVersion) Valid() bool {
	return v >= ProtocolVersion31 && v <= ProtocolVersion50
}

// protocolName returns the protocol name carried in CONNECT.
func (v ProtocolVersion) protocolName() []byte {
	if v == ProtocolVersion31 {
		return []byte("MQIsdp")
	}
	return []byte("MQTT")
}

// QoS is the delivery guarantee of a message.
type QoS byte

// QoS levels.
const (
	QoS0 QoS = 0
	QoS1 QoS = 1
	QoS2 QoS = 2
)

// UserProperty is an MQTT v5.0 user property. Name and Value are views into
// the buffer the packet was decoded from, or caller-owned when encoding.
type UserProperty struct {
	Name  []byte
	Value []byte
}
