package mqttlite

// AuthPresence records which optional AUTH properties were received.
type AuthPresence struct {
	AuthenticationMethod bool
	AuthenticationData   bool
	ReasonString         bool
}

// AuthProperties are the MQTT v5.0 properties of AUTH.
type AuthProperties struct {
	Has AuthPresence

	AuthenticationMethod []byte
	AuthenticationData   []byte
	ReasonString         []byte
	UserProperties       []UserProperty
}

func (p *AuthProperties) fields() []propField {
	h := &p.Has
	return []propField{
		prop(PropAuthenticationMethod, &p.AuthenticationMethod, &h.AuthenticationMethod),
		prop(PropAuthenticationData, &p.AuthenticationData, &h.AuthenticationData),
		prop(PropReasonString, &p.ReasonString, &h.ReasonString),
		prop(PropUserProperty, &p.UserProperties, nil),
	}
}

// AuthParam is an MQTT v5.0 AUTH packet used for enhanced authentication.
type AuthParam struct {
	ReasonCode ReasonCode
	Properties AuthProperties
}

func encodeAuth(c *cursor, version ProtocolVersion, p *AuthParam) error {
	if version != ProtocolVersion50 {
		return ErrNotSupported
	}
	if !p.ReasonCode.ValidFor(PacketAUTH) {
		return ErrInvalidArgument
	}

	start, err := beginPacket(c)
	if err != nil {
		return err
	}

	if err := encodeReasonAndProperties(c, p.ReasonCode, p.Properties.fields()); err != nil {
		return err
	}

	return finishPacket(c, start, typeAndFlags(PacketAUTH, 0), 0)
}

func decodeAuth(c *cursor, version ProtocolVersion, p *AuthParam, limits *propLimits) error {
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
	if !p.ReasonCode.ValidFor(PacketAUTH) {
		return ErrMalformedPacket
	}

	if c.remaining() == 0 {
		return nil
	}

	return decodeProperties(c, p.Properties.fields(), limits)
}
