package mqttlite

// AckPresence records which optional acknowledgement properties were received.
type AckPresence struct {
	ReasonString bool
}

// AckProperties are the MQTT v5.0 properties shared by PUBACK, PUBREC,
// PUBREL, PUBCOMP, SUBACK and UNSUBACK.
type AckProperties struct {
	Has AckPresence

	ReasonString   []byte
	UserProperties []UserProperty
}

func (p *AckProperties) fields() []propField {
	return []propField{
		prop(PropReasonString, &p.ReasonString, &p.Has.ReasonString),
		prop(PropUserProperty, &p.UserProperties, nil),
	}
}

// AckParam is a PUBACK, PUBREC, PUBREL or PUBCOMP packet.
type AckParam struct {
	MessageID  uint16
	ReasonCode ReasonCode
	Properties AckProperties
}

// encodeAck encodes one of the QoS acknowledgement packets. For MQTT v5.0
// the reason code and properties are left off when they carry nothing.
func encodeAck(c *cursor, version ProtocolVersion, t PacketType, p *AckParam) error {
	if p.MessageID == 0 {
		return ErrInvalidArgument
	}

	var flags byte
	if t == PacketPUBREL {
		flags = reservedFlags
	}

	start, err := beginPacket(c)
	if err != nil {
		return err
	}

	if err := c.packUint16(p.MessageID); err != nil {
		return err
	}

	if version == ProtocolVersion50 {
		if err := encodeReasonAndProperties(c, p.ReasonCode, p.Properties.fields()); err != nil {
			return err
		}
	}

	return finishPacket(c, start, typeAndFlags(t, flags), 0)
}

// decodeAck decodes one of the QoS acknowledgement packets. The cursor must
// end with the packet.
func decodeAck(c *cursor, version ProtocolVersion, t PacketType, p *AckParam, limits *propLimits) error {
	var err error

	p.MessageID, err = c.unpackUint16()
	if err != nil {
		return err
	}
	if p.MessageID == 0 {
		return ErrMalformedPacket
	}

	if version != ProtocolVersion50 || c.remaining() == 0 {
		p.ReasonCode = ReasonSuccess
		return nil
	}

	code, err := c.unpackUint8()
	if err != nil {
		return err
	}
	p.ReasonCode = ReasonCode(code)
	if !p.ReasonCode.ValidFor(t) {
		return ErrMalformedPacket
	}

	if c.remaining() == 0 {
		return nil
	}

	return decodeProperties(c, p.Properties.fields(), limits)
}
