package mqttlite

// PublishPresence records which optional PUBLISH properties were received.
type PublishPresence struct {
	PayloadFormatIndicator bool
	MessageExpiryInterval  bool
	TopicAlias             bool
	ResponseTopic          bool
	CorrelationData        bool
	ContentType            bool
}

// PublishProperties are the MQTT v5.0 properties of PUBLISH.
type PublishProperties struct {
	Has PublishPresence

	PayloadFormatIndicator  byte
	MessageExpiryInterval   uint32
	TopicAlias              uint16
	ResponseTopic           []byte
	CorrelationData         []byte
	UserProperties          []UserProperty
	SubscriptionIdentifiers []uint32
	ContentType             []byte
}

func (p *PublishProperties) fields() []propField {
	h := &p.Has
	return []propField{
		prop(PropPayloadFormatIndicator, &p.PayloadFormatIndicator, &h.PayloadFormatIndicator),
		prop(PropMessageExpiryInterval, &p.MessageExpiryInterval, &h.MessageExpiryInterval),
		prop(PropTopicAlias, &p.TopicAlias, &h.TopicAlias),
		prop(PropResponseTopic, &p.ResponseTopic, &h.ResponseTopic),
		prop(PropCorrelationData, &p.CorrelationData, &h.CorrelationData),
		prop(PropUserProperty, &p.UserProperties, nil),
		prop(PropSubscriptionIdentifier, &p.SubscriptionIdentifiers, nil),
		prop(PropContentType, &p.ContentType, &h.ContentType),
	}
}

// PublishParam is a PUBLISH packet.
//
// When sending, Payload is written to the transport next to the encoded
// header without being copied into the TX buffer. When receiving, Payload is
// nil and PayloadLen bytes are left on the transport for
// Client.ReadPublishPayload.
type PublishParam struct {
	Topic      []byte
	Payload    []byte
	PayloadLen int
	QoS        QoS
	Retain     bool
	DUP        bool
	MessageID  uint16
	Properties PublishProperties
}

func (p *PublishParam) flags() byte {
	flags := byte(p.QoS) << 1
	if p.DUP {
		flags |= publishFlagDUP
	}
	if p.Retain {
		flags |= publishFlagRetain
	}
	return flags
}

func encodePublish(c *cursor, version ProtocolVersion, p *PublishParam) error {
	if p.QoS > QoS2 {
		return ErrInvalidArgument
	}
	if p.QoS > QoS0 && p.MessageID == 0 {
		return ErrInvalidArgument
	}
	if len(p.Topic) == 0 {
		if version != ProtocolVersion50 || p.Properties.TopicAlias == 0 {
			return ErrEmptyTopic
		}
	} else if err := ValidateTopicName(string(p.Topic)); err != nil {
		return err
	}

	start, err := beginPacket(c)
	if err != nil {
		return err
	}

	if err := c.packUTF8(p.Topic); err != nil {
		return err
	}

	if p.QoS > QoS0 {
		if err := c.packUint16(p.MessageID); err != nil {
			return err
		}
	}

	if version == ProtocolVersion50 {
		if err := encodeProperties(c, p.Properties.fields()); err != nil {
			return err
		}
	}

	return finishPacket(c, start, typeAndFlags(PacketPUBLISH, p.flags()), len(p.Payload))
}

// decodePublish decodes the variable header of a PUBLISH whose fixed header
// is h. The cursor must end where the payload starts. aliases may be nil
// for versions without topic aliases.
func decodePublish(c *cursor, version ProtocolVersion, h FixedHeader, aliases *topicAliasTable, p *PublishParam, limits *propLimits) error {
	start := c.cur

	p.QoS = h.QoS()
	p.Retain = h.Retain()
	p.DUP = h.DUP()

	topic, err := c.unpackUTF8()
	if err != nil {
		return err
	}

	if p.QoS > QoS0 {
		p.MessageID, err = c.unpackUint16()
		if err != nil {
			return err
		}
		if p.MessageID == 0 {
			return ErrMalformedPacket
		}
	}

	if version == ProtocolVersion50 {
		if err := decodeProperties(c, p.Properties.fields(), limits); err != nil {
			return err
		}

		if p.Properties.Has.TopicAlias {
			topic, err = resolveTopicAlias(aliases, p.Properties.TopicAlias, topic)
			if err != nil {
				return err
			}
		}
	}

	if len(topic) == 0 {
		return ErrMalformedPacket
	}
	p.Topic = topic

	consumed := c.cur - start
	if uint32(consumed) > h.RemainingLength {
		return ErrMalformedPacket
	}
	p.PayloadLen = int(h.RemainingLength) - consumed

	return nil
}

// resolveTopicAlias registers topic under alias when topic is set and looks
// the alias up otherwise.
func resolveTopicAlias(aliases *topicAliasTable, alias uint16, topic []byte) ([]byte, error) {
	if aliases == nil {
		return nil, ErrTopicAliasInvalid
	}
	if len(topic) > 0 {
		if err := aliases.set(alias, topic); err != nil {
			return nil, err
		}
		return topic, nil
	}
	return aliases.get(alias)
}
