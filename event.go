package mqttlite

// EventType identifies what an Event reports.
type EventType int

// Event types. All but EventDisconnect report a decoded inbound packet.
const (
	EventConnack EventType = iota
	EventPublish
	EventPuback
	EventPubrec
	EventPubrel
	EventPubcomp
	EventSuback
	EventUnsuback
	EventPingresp
	EventDisconnect
	EventAuth
)

// String returns the string representation of the event type.
func (t EventType) String() string {
	switch t {
	case EventConnack:
		return "CONNACK"
	case EventPublish:
		return "PUBLISH"
	case EventPuback:
		return "PUBACK"
	case EventPubrec:
		return "PUBREC"
	case EventPubrel:
		return "PUBREL"
	case EventPubcomp:
		return "PUBCOMP"
	case EventSuback:
		return "SUBACK"
	case EventUnsuback:
		return "UNSUBACK"
	case EventPingresp:
		return "PINGRESP"
	case EventDisconnect:
		return "DISCONNECT"
	case EventAuth:
		return "AUTH"
	default:
		return "UNKNOWN"
	}
}

// Event is raised to the EventHandler.
//
// Result is nil on success. Param holds the decoded packet:
// *ConnackParam, *PublishParam, *AckParam, *SubackParam, *UnsubackParam,
// *AuthParam, or for EventDisconnect the server's *DisconnectParam when the
// server sent one. Param views into the receive buffer are valid only for
// the duration of the handler.
type Event struct {
	Type   EventType
	Result error
	Param  any
}

// EventHandler receives client events. It runs without the client lock
// held and may call back into the client.
type EventHandler func(client *Client, event *Event)

// Connack returns the CONNACK parameters, or nil.
func (e *Event) Connack() *ConnackParam {
	p, _ := e.Param.(*ConnackParam)
	return p
}

// Publish returns the PUBLISH parameters, or nil.
func (e *Event) Publish() *PublishParam {
	p, _ := e.Param.(*PublishParam)
	return p
}

// Ack returns the PUBACK, PUBREC, PUBREL or PUBCOMP parameters, or nil.
func (e *Event) Ack() *AckParam {
	p, _ := e.Param.(*AckParam)
	return p
}

// Suback returns the SUBACK parameters, or nil.
func (e *Event) Suback() *SubackParam {
	p, _ := e.Param.(*SubackParam)
	return p
}

// Unsuback returns the UNSUBACK parameters, or nil.
func (e *Event) Unsuback() *UnsubackParam {
	p, _ := e.Param.(*UnsubackParam)
	return p
}

// Auth returns the AUTH parameters, or nil.
func (e *Event) Auth() *AuthParam {
	p, _ := e.Param.(*AuthParam)
	return p
}

// Disconnect returns the server DISCONNECT parameters, or nil.
func (e *Event) Disconnect() *DisconnectParam {
	p, _ := e.Param.(*DisconnectParam)
	return p
}
