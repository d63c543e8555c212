package mqttlite

import (
	"fmt"
)

// PropertyID represents an MQTT v5.0 property identifier.
type PropertyID byte

// Property identifiers as defined in MQTT v5.0.
const (
	PropPayloadFormatIndicator   PropertyID = 0x01
	PropMessageExpiryInterval    PropertyID = 0x02
	PropContentType              PropertyID = 0x03
	PropResponseTopic            PropertyID = 0x08
	PropCorrelationData          PropertyID = 0x09
	PropSubscriptionIdentifier   PropertyID = 0x0B
	PropSessionExpiryInterval    PropertyID = 0x11
	PropAssignedClientIdentifier PropertyID = 0x12
	PropServerKeepAlive          PropertyID = 0x13
	PropAuthenticationMethod     PropertyID = 0x15
	PropAuthenticationData       PropertyID = 0x16
	PropRequestProblemInfo       PropertyID = 0x17
	PropWillDelayInterval        PropertyID = 0x18
	PropRequestResponseInfo      PropertyID = 0x19
	PropResponseInformation      PropertyID = 0x1A
	PropServerReference          PropertyID = 0x1C
	PropReasonString             PropertyID = 0x1F
	PropReceiveMaximum           PropertyID = 0x21
	PropTopicAliasMaximum        PropertyID = 0x22
	PropTopicAlias               PropertyID = 0x23
	PropMaximumQoS               PropertyID = 0x24
	PropRetainAvailable          PropertyID = 0x25
	PropUserProperty             PropertyID = 0x26
	PropMaximumPacketSize        PropertyID = 0x27
	PropWildcardSubAvailable     PropertyID = 0x28
	PropSubscriptionIDAvailable  PropertyID = 0x29
	PropSharedSubAvailable       PropertyID = 0x2A
)

// PropertyType represents the wire type of a property value.
type PropertyType byte

const (
	PropTypeByte        PropertyType = 0 // Single byte
	PropTypeTwoByteInt  PropertyType = 1 // Two byte integer (uint16)
	PropTypeFourByteInt PropertyType = 2 // Four byte integer (uint32)
	PropTypeVarInt      PropertyType = 3 // Variable byte integer
	PropTypeString      PropertyType = 4 // UTF-8 encoded string
	PropTypeBinary      PropertyType = 5 // Binary data
	PropTypeStringPair  PropertyType = 6 // UTF-8 string pair
)

// propertyTypeMap maps property IDs to their wire types.
var propertyTypeMap = map[PropertyID]PropertyType{
	PropPayloadFormatIndicator:   PropTypeByte,
	PropMessageExpiryInterval:    PropTypeFourByteInt,
	PropContentType:              PropTypeString,
	PropResponseTopic:            PropTypeString,
	PropCorrelationData:          PropTypeBinary,
	PropSubscriptionIdentifier:   PropTypeVarInt,
	PropSessionExpiryInterval:    PropTypeFourByteInt,
	PropAssignedClientIdentifier: PropTypeString,
	PropServerKeepAlive:          PropTypeTwoByteInt,
	PropAuthenticationMethod:     PropTypeString,
	PropAuthenticationData:       PropTypeBinary,
	PropRequestProblemInfo:       PropTypeByte,
	PropWillDelayInterval:        PropTypeFourByteInt,
	PropRequestResponseInfo:      PropTypeByte,
	PropResponseInformation:      PropTypeString,
	PropServerReference:          PropTypeString,
	PropReasonString:             PropTypeString,
	PropReceiveMaximum:           PropTypeTwoByteInt,
	PropTopicAliasMaximum:        PropTypeTwoByteInt,
	PropTopicAlias:               PropTypeTwoByteInt,
	PropMaximumQoS:               PropTypeByte,
	PropRetainAvailable:          PropTypeByte,
	PropUserProperty:             PropTypeStringPair,
	PropMaximumPacketSize:        PropTypeFourByteInt,
	PropWildcardSubAvailable:     PropTypeByte,
	PropSubscriptionIDAvailable:  PropTypeByte,
	PropSharedSubAvailable:       PropTypeByte,
}

var propertyNames = map[PropertyID]string{
	PropPayloadFormatIndicator:   "PayloadFormatIndicator",
	PropMessageExpiryInterval:    "MessageExpiryInterval",
	PropContentType:              "ContentType",
	PropResponseTopic:            "ResponseTopic",
	PropCorrelationData:          "CorrelationData",
	PropSubscriptionIdentifier:   "SubscriptionIdentifier",
	PropSessionExpiryInterval:    "SessionExpiryInterval",
	PropAssignedClientIdentifier: "AssignedClientIdentifier",
	PropServerKeepAlive:          "ServerKeepAlive",
	PropAuthenticationMethod:     "AuthenticationMethod",
	PropAuthenticationData:       "AuthenticationData",
	PropRequestProblemInfo:       "RequestProblemInformation",
	PropWillDelayInterval:        "WillDelayInterval",
	PropRequestResponseInfo:      "RequestResponseInformation",
	PropResponseInformation:      "ResponseInformation",
	PropServerReference:          "ServerReference",
	PropReasonString:             "ReasonString",
	PropReceiveMaximum:           "ReceiveMaximum",
	PropTopicAliasMaximum:        "TopicAliasMaximum",
	PropTopicAlias:               "TopicAlias",
	PropMaximumQoS:               "MaximumQoS",
	PropRetainAvailable:          "RetainAvailable",
	PropUserProperty:             "UserProperty",
	PropMaximumPacketSize:        "MaximumPacketSize",
	PropWildcardSubAvailable:     "WildcardSubscriptionAvailable",
	PropSubscriptionIDAvailable:  "SubscriptionIdentifierAvailable",
	PropSharedSubAvailable:       "SharedSubscriptionAvailable",
}

// String returns the property name.
func (p PropertyID) String() string {
	if name, ok := propertyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Property(0x%02X)", byte(p))
}

// PropertyType returns the wire type for this property ID.
func (p PropertyID) PropertyType() PropertyType {
	if t, ok := propertyTypeMap[p]; ok {
		return t
	}
	return PropTypeByte
}

// Property errors.
var (
	ErrUnknownPropertyID = fmt.Errorf("%w: unknown property identifier", ErrMalformedPacket)
	ErrDuplicateProperty = fmt.Errorf("%w: duplicate property", ErrMalformedPacket)
)

// propField binds one property identifier to a field of a properties struct.
//
// value is one of *byte, *bool, *uint16, *uint32, *[]byte, *[]UserProperty
// or *[]uint32 (repeated subscription identifiers). A value equal to def is
// the protocol default and is left off the wire. has, when set, records
// presence on decode.
type propField struct {
	id    PropertyID
	value any
	has   *bool
	def   uint32
}

func prop(id PropertyID, value any, has *bool) propField {
	return propField{id: id, value: value, has: has}
}

func propDefault(id PropertyID, value any, has *bool, def uint32) propField {
	return propField{id: id, value: value, has: has, def: def}
}

func boolToUint(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// size returns the encoded size of the field, zero when it is omitted.
func (f *propField) size() int {
	switch v := f.value.(type) {
	case *byte:
		if uint32(*v) == f.def {
			return 0
		}
		return 2
	case *bool:
		if boolToUint(*v) == f.def {
			return 0
		}
		return 2
	case *uint16:
		if uint32(*v) == f.def {
			return 0
		}
		return 3
	case *uint32:
		if *v == f.def {
			return 0
		}
		if f.id.PropertyType() == PropTypeVarInt {
			return 1 + varintSize(*v)
		}
		return 5
	case *[]byte:
		if len(*v) == 0 {
			return 0
		}
		return 1 + binarySize(*v)
	case *[]UserProperty:
		n := 0
		for _, up := range *v {
			n += 1 + binarySize(up.Name) + binarySize(up.Value)
		}
		return n
	case *[]uint32:
		n := 0
		for _, id := range *v {
			n += 1 + varintSize(id)
		}
		return n
	default:
		return 0
	}
}

func (f *propField) encode(c *cursor) error {
	if f.size() == 0 {
		return nil
	}

	switch v := f.value.(type) {
	case *byte:
		return c.packIDByte(f.id, *v)
	case *bool:
		return c.packIDByte(f.id, byte(boolToUint(*v)))
	case *uint16:
		if err := c.packUint8(byte(f.id)); err != nil {
			return err
		}
		return c.packUint16(*v)
	case *uint32:
		if err := c.packUint8(byte(f.id)); err != nil {
			return err
		}
		if f.id.PropertyType() == PropTypeVarInt {
			return c.packVarint(*v)
		}
		return c.packUint32(*v)
	case *[]byte:
		if err := c.packUint8(byte(f.id)); err != nil {
			return err
		}
		if f.id.PropertyType() == PropTypeString {
			return c.packUTF8(*v)
		}
		return c.packBinary(*v)
	case *[]UserProperty:
		for _, up := range *v {
			if err := c.packUint8(byte(f.id)); err != nil {
				return err
			}
			if err := c.packUTF8(up.Name); err != nil {
				return err
			}
			if err := c.packUTF8(up.Value); err != nil {
				return err
			}
		}
		return nil
	case *[]uint32:
		for _, id := range *v {
			if err := c.packUint8(byte(f.id)); err != nil {
				return err
			}
			if err := c.packVarint(id); err != nil {
				return err
			}
		}
		return nil
	default:
		return ErrInvalidArgument
	}
}

func (c *cursor) packIDByte(id PropertyID, v byte) error {
	if c.remaining() < 2 {
		return ErrBufferOverflow
	}
	c.buf[c.cur] = byte(id)
	c.buf[c.cur+1] = v
	c.cur += 2
	return nil
}

// propertiesSize returns the sum of the encoded sizes of all fields.
func propertiesSize(fields []propField) int {
	n := 0
	for i := range fields {
		n += fields[i].size()
	}
	return n
}

// encodeProperties writes the property length prefix followed by every
// field that differs from its default.
func encodeProperties(c *cursor, fields []propField) error {
	if err := c.packVarint(uint32(propertiesSize(fields))); err != nil {
		return err
	}
	for i := range fields {
		if err := fields[i].encode(c); err != nil {
			return err
		}
	}
	return nil
}

// propLimits caps repeated properties collected while decoding.
type propLimits struct {
	userProperties  int
	subscriptionIDs int

	// dropped is called for every repeated property beyond its cap.
	dropped func(id PropertyID)
}

// decodeProperties reads a property length prefix and then {id, value}
// pairs until the declared length is consumed. Identifiers not in fields
// are fatal.
func decodeProperties(c *cursor, fields []propField, limits *propLimits) error {
	length, err := c.unpackVarintFull()
	if err != nil {
		return err
	}

	sub, err := c.limit(int(length))
	if err != nil {
		return err
	}

	for sub.remaining() > 0 {
		id, err := sub.unpackUint8()
		if err != nil {
			return err
		}

		f := findPropField(fields, PropertyID(id))
		if f == nil {
			return ErrUnknownPropertyID
		}

		if err := f.decode(sub, limits); err != nil {
			return err
		}
	}

	c.cur = sub.cur
	return nil
}

func findPropField(fields []propField, id PropertyID) *propField {
	for i := range fields {
		if fields[i].id == id {
			return &fields[i]
		}
	}
	return nil
}

func (f *propField) decode(c *cursor, limits *propLimits) error {
	switch v := f.value.(type) {
	case *[]UserProperty:
		name, err := c.unpackUTF8()
		if err != nil {
			return err
		}
		value, err := c.unpackUTF8()
		if err != nil {
			return err
		}
		if len(*v) >= limits.userProperties {
			limits.drop(f.id)
			break
		}
		*v = append(*v, UserProperty{Name: name, Value: value})

	case *[]uint32:
		id, err := c.unpackVarintFull()
		if err != nil {
			return err
		}
		if len(*v) >= limits.subscriptionIDs {
			limits.drop(f.id)
			break
		}
		*v = append(*v, id)

	default:
		if f.has != nil && *f.has {
			return ErrDuplicateProperty
		}
		if err := f.decodeSingle(c); err != nil {
			return err
		}
	}

	if f.has != nil {
		*f.has = true
	}
	return nil
}

func (f *propField) decodeSingle(c *cursor) error {
	var err error

	switch v := f.value.(type) {
	case *byte:
		*v, err = c.unpackUint8()
	case *bool:
		var b byte
		b, err = c.unpackUint8()
		if err == nil && b > 1 {
			err = ErrMalformedPacket
		}
		*v = b == 1
	case *uint16:
		*v, err = c.unpackUint16()
	case *uint32:
		if f.id.PropertyType() == PropTypeVarInt {
			*v, err = c.unpackVarintFull()
		} else {
			*v, err = c.unpackUint32()
		}
	case *[]byte:
		if f.id.PropertyType() == PropTypeString {
			*v, err = c.unpackUTF8()
		} else {
			*v, err = c.unpackBinary()
		}
	default:
		err = ErrMalformedPacket
	}

	return err
}

func (l *propLimits) drop(id PropertyID) {
	if l.dropped != nil {
		l.dropped(id)
	}
}

// defaultPropLimits is used where no client configuration is available.
var defaultPropLimits = propLimits{
	userProperties:  DefaultMaxUserProperties,
	subscriptionIDs: DefaultMaxSubscriptionIDs,
}
