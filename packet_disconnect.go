package mqttlite

// DisconnectPresence records which optional DISCONNECT properties were received.
type DisconnectPresence struct {
	SessionExpiryInterval bool
	ReasonString          bool
	ServerReference       bool
}

// DisconnectProperties are the MQTT v5.0 properties of DISCONNECT.
type DisconnectProperties struct {
	Has DisconnectPresence

	SessionExpiryInterval uint32
	ReasonString          []byte
	UserProperties        []UserProperty
	ServerReference       []byte
}

func (p *DisconnectProperties) fields() []propField {
	h := &p.Has
	return []propField{
		prop(PropSessionExpiryInterval, &p.SessionExpiryInterval, &h.SessionExpiryInterval),
		prop(PropReasonString, &p.ReasonString, &h.ReasonString),
		prop(PropUserProperty, &p.UserProperties, nil),
		prop(PropServerReference, &p.ServerReference, &h.ServerReference),
	}
}

// DisconnectParam is a DISCONNECT packet. The zero value is a normal
// disconnection.
type DisconnectParam struct {
	ReasonCode ReasonCode
	Properties DisconnectProperties
}

// encodeDisconnect encodes DISCONNECT. p may be nil. Before MQTT v5.0 the
// packet has no body.
func encodeDisconnect(c *cursor, version ProtocolVersion, p *DisconnectParam) error {
	start, err := beginPacket(c)
	if err != nil {
		return err
	}

	if version == ProtocolVersion50 && p != nil {
		if err := encodeReasonAndProperties(c, p.ReasonCode, p.Properties.fields()); err != nil {
			return err
		}
	}

	return finishPacket(c, start, typeAndFlags(PacketDISCONNECT, 0), 0)
}

// decodeDisconnect decodes a server DISCONNECT. An empty body means normal
// disconnection.
func decodeDisconnect(c *cursor, version ProtocolVersion, p *DisconnectParam, limits *propLimits) error {
	if version != ProtocolVersion50 {
		return ErrMalformedPacket
	}

	p.ReasonCode = ReasonSuccess
	if c.remaining() == 0 {
		return nil
	}

	code, err := c.unpackUint8()
	if err != nil {
		return err
	}
	p.ReasonCode = ReasonCode(code)
	if !p.ReasonCode.ValidFor(PacketDISCONNECT) {
		return ErrMalformedPacket
	}

	if c.remaining() == 0 {
		return nil
	}

	return decodeProperties(c, p.Properties.fields(), limits)
}
