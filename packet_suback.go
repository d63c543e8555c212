package mqttlite

// SubackParam is the decoded SUBACK packet.
type SubackParam struct {
	MessageID  uint16
	Properties AckProperties

	// ReturnCodes holds one granted QoS or failure code per requested topic
	// filter, as a view into the receive buffer.
	ReturnCodes []byte
}

// UnsubackParam is the decoded UNSUBACK packet. ReasonCodes is empty before
// MQTT v5.0.
type UnsubackParam struct {
	MessageID   uint16
	Properties  AckProperties
	ReasonCodes []byte
}

// decodeSubscribeAck reads the layout shared by SUBACK and UNSUBACK:
// message id, MQTT v5.0 properties and the remaining bytes as codes.
func decodeSubscribeAck(c *cursor, version ProtocolVersion, props *AckProperties, limits *propLimits) (uint16, []byte, error) {
	id, err := c.unpackUint16()
	if err != nil {
		return 0, nil, err
	}
	if id == 0 {
		return 0, nil, ErrMalformedPacket
	}

	if version == ProtocolVersion50 {
		if err := decodeProperties(c, props.fields(), limits); err != nil {
			return 0, nil, err
		}
	}

	codes, err := c.take(c.remaining())
	if err != nil {
		return 0, nil, err
	}
	if len(codes) == 0 {
		codes = nil
	}

	return id, codes, nil
}

func decodeSuback(c *cursor, version ProtocolVersion, p *SubackParam, limits *propLimits) error {
	id, codes, err := decodeSubscribeAck(c, version, &p.Properties, limits)
	if err != nil {
		return err
	}
	if len(codes) == 0 {
		return ErrMalformedPacket
	}

	p.MessageID = id
	p.ReturnCodes = codes
	return nil
}

func decodeUnsuback(c *cursor, version ProtocolVersion, p *UnsubackParam, limits *propLimits) error {
	id, codes, err := decodeSubscribeAck(c, version, &p.Properties, limits)
	if err != nil {
		return err
	}
	if version != ProtocolVersion50 && len(codes) > 0 {
		return ErrMalformedPacket
	}

	p.MessageID = id
	p.ReasonCodes = codes
	return nil
}
