package mqttlite

// Subscription options bits.
const (
	subOptionNoLocal           = 0x04
	subOptionRetainAsPublished = 0x08
	subOptionRetainHandling    = 4
)

// Subscription is one topic filter of SUBSCRIBE or UNSUBSCRIBE. Only Topic
// is used when unsubscribing.
type Subscription struct {
	Topic []byte
	QoS   QoS

	// MQTT v5.0 subscription options.
	NoLocal           bool
	RetainAsPublished bool
	RetainHandling    byte
}

func (s *Subscription) options(version ProtocolVersion) byte {
	opts := byte(s.QoS)
	if version != ProtocolVersion50 {
		return opts
	}
	if s.NoLocal {
		opts |= subOptionNoLocal
	}
	if s.RetainAsPublished {
		opts |= subOptionRetainAsPublished
	}
	return opts | (s.RetainHandling&0x03)<<subOptionRetainHandling
}

// SubscribeProperties are the MQTT v5.0 properties of SUBSCRIBE and
// UNSUBSCRIBE. UNSUBSCRIBE carries only user properties.
type SubscribeProperties struct {
	SubscriptionIdentifier uint32
	UserProperties         []UserProperty
}

func (p *SubscribeProperties) subscribeFields() []propField {
	return []propField{
		prop(PropSubscriptionIdentifier, &p.SubscriptionIdentifier, nil),
		prop(PropUserProperty, &p.UserProperties, nil),
	}
}

func (p *SubscribeProperties) unsubscribeFields() []propField {
	return []propField{
		prop(PropUserProperty, &p.UserProperties, nil),
	}
}

// SubscriptionList is a SUBSCRIBE or UNSUBSCRIBE request.
type SubscriptionList struct {
	MessageID     uint16
	Subscriptions []Subscription
	Properties    SubscribeProperties
}

func (l *SubscriptionList) validate() error {
	if l.MessageID == 0 || len(l.Subscriptions) == 0 {
		return ErrInvalidArgument
	}
	for i := range l.Subscriptions {
		s := &l.Subscriptions[i]
		if s.QoS > QoS2 || s.RetainHandling > 2 {
			return ErrInvalidArgument
		}
		filter := string(s.Topic)
		if err := ValidateTopicFilter(filter); err != nil {
			return err
		}
		if _, err := ParseSharedSubscription(filter); err != nil {
			return err
		}
		// A shared subscription cannot use no-local.
		if s.NoLocal && isSharedSubscription(filter) {
			return ErrInvalidArgument
		}
	}
	return nil
}

func encodeSubscribe(c *cursor, version ProtocolVersion, l *SubscriptionList) error {
	if err := l.validate(); err != nil {
		return err
	}

	start, err := beginPacket(c)
	if err != nil {
		return err
	}

	if err := c.packUint16(l.MessageID); err != nil {
		return err
	}

	if version == ProtocolVersion50 {
		if err := encodeProperties(c, l.Properties.subscribeFields()); err != nil {
			return err
		}
	}

	for i := range l.Subscriptions {
		s := &l.Subscriptions[i]
		if err := c.packUTF8(s.Topic); err != nil {
			return err
		}
		if err := c.packUint8(s.options(version)); err != nil {
			return err
		}
	}

	return finishPacket(c, start, typeAndFlags(PacketSUBSCRIBE, reservedFlags), 0)
}

func encodeUnsubscribe(c *cursor, version ProtocolVersion, l *SubscriptionList) error {
	if err := l.validate(); err != nil {
		return err
	}

	start, err := beginPacket(c)
	if err != nil {
		return err
	}

	if err := c.packUint16(l.MessageID); err != nil {
		return err
	}

	if version == ProtocolVersion50 {
		if err := encodeProperties(c, l.Properties.unsubscribeFields()); err != nil {
			return err
		}
	}

	for i := range l.Subscriptions {
		if err := c.packUTF8(l.Subscriptions[i].Topic); err != nil {
			return err
		}
	}

	return finishPacket(c, start, typeAndFlags(PacketUNSUBSCRIBE, reservedFlags), 0)
}
