package mqttlite

import "fmt"

// CONNECT flag bits.
const (
	connectFlagCleanSession = 0x02
	connectFlagWill         = 0x04
	connectFlagWillRetain   = 0x20
	connectFlagPassword     = 0x40
	connectFlagUsername     = 0x80
	connectFlagWillQoSShift = 3
)

// ConnectProperties are the MQTT v5.0 properties of CONNECT. Zero values and
// protocol defaults are not sent.
type ConnectProperties struct {
	SessionExpiryInterval      uint32
	ReceiveMaximum             uint16
	MaximumPacketSize          uint32
	TopicAliasMaximum          uint16
	RequestResponseInformation bool
	// RequestProblemInformation is sent only when false, the protocol
	// default being true.
	RequestProblemInformation bool
	UserProperties            []UserProperty
	AuthenticationMethod      []byte
	AuthenticationData        []byte
}

func (p *ConnectProperties) fields() []propField {
	return []propField{
		prop(PropSessionExpiryInterval, &p.SessionExpiryInterval, nil),
		prop(PropReceiveMaximum, &p.ReceiveMaximum, nil),
		prop(PropMaximumPacketSize, &p.MaximumPacketSize, nil),
		prop(PropTopicAliasMaximum, &p.TopicAliasMaximum, nil),
		prop(PropRequestResponseInfo, &p.RequestResponseInformation, nil),
		propDefault(PropRequestProblemInfo, &p.RequestProblemInformation, nil, 1),
		prop(PropUserProperty, &p.UserProperties, nil),
		prop(PropAuthenticationMethod, &p.AuthenticationMethod, nil),
		prop(PropAuthenticationData, &p.AuthenticationData, nil),
	}
}

// WillProperties are the MQTT v5.0 properties of the will message.
type WillProperties struct {
	WillDelayInterval      uint32
	PayloadFormatIndicator byte
	MessageExpiryInterval  uint32
	ContentType            []byte
	ResponseTopic          []byte
	CorrelationData        []byte
	UserProperties         []UserProperty
}

func (p *WillProperties) fields() []propField {
	return []propField{
		prop(PropWillDelayInterval, &p.WillDelayInterval, nil),
		prop(PropPayloadFormatIndicator, &p.PayloadFormatIndicator, nil),
		prop(PropMessageExpiryInterval, &p.MessageExpiryInterval, nil),
		prop(PropContentType, &p.ContentType, nil),
		prop(PropResponseTopic, &p.ResponseTopic, nil),
		prop(PropCorrelationData, &p.CorrelationData, nil),
		prop(PropUserProperty, &p.UserProperties, nil),
	}
}

// Will is the message the server publishes on behalf of the client when
// the connection ends without a DISCONNECT.
type Will struct {
	Topic      []byte
	Payload    []byte
	QoS        QoS
	Retain     bool
	Properties WillProperties
}

// connectRequest is everything the CONNECT packet carries.
type connectRequest struct {
	Version      ProtocolVersion
	ClientID     []byte
	CleanSession bool
	KeepAlive    uint16
	Username     []byte
	Password     []byte
	Will         *Will
	Properties   ConnectProperties
}

func (r *connectRequest) flags() byte {
	var flags byte

	if r.CleanSession {
		flags |= connectFlagCleanSession
	}

	if r.Will != nil {
		flags |= connectFlagWill
		flags |= byte(r.Will.QoS) << connectFlagWillQoSShift
		if r.Will.Retain {
			flags |= connectFlagWillRetain
		}
	}

	if len(r.Username) > 0 {
		flags |= connectFlagUsername
	}
	if len(r.Password) > 0 {
		flags |= connectFlagPassword
	}

	return flags
}

func encodeConnect(c *cursor, r *connectRequest) error {
	if !r.Version.Valid() {
		return ErrInvalidArgument
	}
	if r.Will != nil && (r.Will.QoS > QoS2 || len(r.Will.Topic) == 0) {
		return ErrInvalidArgument
	}
	// Before 5.0 a password requires a user name.
	if r.Version != ProtocolVersion50 && len(r.Password) > 0 && len(r.Username) == 0 {
		return fmt.Errorf("%w: password without user name", ErrInvalidArgument)
	}

	start, err := beginPacket(c)
	if err != nil {
		return err
	}

	if err := c.packUTF8(r.Version.protocolName()); err != nil {
		return err
	}
	if err := c.packUint8(byte(r.Version)); err != nil {
		return err
	}
	if err := c.packUint8(r.flags()); err != nil {
		return err
	}
	if err := c.packUint16(r.KeepAlive); err != nil {
		return err
	}

	if r.Version == ProtocolVersion50 {
		if err := encodeProperties(c, r.Properties.fields()); err != nil {
			return err
		}
	}

	if err := c.packUTF8(r.ClientID); err != nil {
		return err
	}

	if r.Will != nil {
		if r.Version == ProtocolVersion50 {
			if err := encodeProperties(c, r.Will.Properties.fields()); err != nil {
				return err
			}
		}
		if err := c.packUTF8(r.Will.Topic); err != nil {
			return err
		}
		if err := c.packBinary(r.Will.Payload); err != nil {
			return err
		}
	}

	if len(r.Username) > 0 {
		if err := c.packUTF8(r.Username); err != nil {
			return err
		}
	}
	if len(r.Password) > 0 {
		if err := c.packBinary(r.Password); err != nil {
			return err
		}
	}

	return finishPacket(c, start, typeAndFlags(PacketCONNECT, 0), 0)
}
