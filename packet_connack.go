package mqttlite

const connackFlagSessionPresent = 0x01

// ConnackPresence records which optional CONNACK properties were received.
type ConnackPresence struct {
	SessionExpiryInterval            bool
	ReceiveMaximum                   bool
	MaximumQoS                       bool
	RetainAvailable                  bool
	MaximumPacketSize                bool
	AssignedClientIdentifier         bool
	TopicAliasMaximum                bool
	ReasonString                     bool
	WildcardSubscriptionAvailable    bool
	SubscriptionIdentifiersAvailable bool
	SharedSubscriptionAvailable      bool
	ServerKeepAlive                  bool
	ResponseInformation              bool
	ServerReference                  bool
	AuthenticationMethod             bool
	AuthenticationData               bool
}

// ConnackProperties are the MQTT v5.0 properties of CONNACK. String and
// binary values are views into the receive buffer.
type ConnackProperties struct {
	Has ConnackPresence

	SessionExpiryInterval            uint32
	ReceiveMaximum                   uint16
	MaximumQoS                       byte
	RetainAvailable                  bool
	MaximumPacketSize                uint32
	AssignedClientIdentifier         []byte
	TopicAliasMaximum                uint16
	ReasonString                     []byte
	UserProperties                   []UserProperty
	WildcardSubscriptionAvailable    bool
	SubscriptionIdentifiersAvailable bool
	SharedSubscriptionAvailable      bool
	ServerKeepAlive                  uint16
	ResponseInformation              []byte
	ServerReference                  []byte
	AuthenticationMethod             []byte
	AuthenticationData               []byte
}

func (p *ConnackProperties) fields() []propField {
	h := &p.Has
	return []propField{
		prop(PropSessionExpiryInterval, &p.SessionExpiryInterval, &h.SessionExpiryInterval),
		prop(PropReceiveMaximum, &p.ReceiveMaximum, &h.ReceiveMaximum),
		prop(PropMaximumQoS, &p.MaximumQoS, &h.MaximumQoS),
		prop(PropRetainAvailable, &p.RetainAvailable, &h.RetainAvailable),
		prop(PropMaximumPacketSize, &p.MaximumPacketSize, &h.MaximumPacketSize),
		prop(PropAssignedClientIdentifier, &p.AssignedClientIdentifier, &h.AssignedClientIdentifier),
		prop(PropTopicAliasMaximum, &p.TopicAliasMaximum, &h.TopicAliasMaximum),
		prop(PropReasonString, &p.ReasonString, &h.ReasonString),
		prop(PropUserProperty, &p.UserProperties, nil),
		prop(PropWildcardSubAvailable, &p.WildcardSubscriptionAvailable, &h.WildcardSubscriptionAvailable),
		prop(PropSubscriptionIDAvailable, &p.SubscriptionIdentifiersAvailable, &h.SubscriptionIdentifiersAvailable),
		prop(PropSharedSubAvailable, &p.SharedSubscriptionAvailable, &h.SharedSubscriptionAvailable),
		prop(PropServerKeepAlive, &p.ServerKeepAlive, &h.ServerKeepAlive),
		prop(PropResponseInformation, &p.ResponseInformation, &h.ResponseInformation),
		prop(PropServerReference, &p.ServerReference, &h.ServerReference),
		prop(PropAuthenticationMethod, &p.AuthenticationMethod, &h.AuthenticationMethod),
		prop(PropAuthenticationData, &p.AuthenticationData, &h.AuthenticationData),
	}
}

// ConnackParam is the decoded CONNACK packet.
type ConnackParam struct {
	// SessionPresent is always false for MQTT 3.1, which has no such flag.
	SessionPresent bool

	// ReturnCode is the 3.1/3.1.1 return code or the 5.0 reason code.
	// Zero means the connection was accepted.
	ReturnCode ReasonCode

	Properties ConnackProperties
}

func decodeConnack(c *cursor, version ProtocolVersion, p *ConnackParam, limits *propLimits) error {
	flags, err := c.unpackUint8()
	if err != nil {
		return err
	}

	code, err := c.unpackUint8()
	if err != nil {
		return err
	}

	if version != ProtocolVersion31 {
		p.SessionPresent = flags&connackFlagSessionPresent != 0
	}
	p.ReturnCode = ReasonCode(code)

	if version != ProtocolVersion50 {
		if c.remaining() > 0 {
			return ErrMalformedPacket
		}
		return nil
	}

	if !p.ReturnCode.ValidFor(PacketCONNACK) {
		return ErrMalformedPacket
	}

	if c.remaining() > 0 {
		return decodeProperties(c, p.Properties.fields(), limits)
	}

	return nil
}
