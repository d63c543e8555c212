package mqttlite

// PacketType represents an MQTT control packet type.
type PacketType byte

// MQTT control packet types.
const (
	PacketCONNECT     PacketType = 1
	PacketCONNACK     PacketType = 2
	PacketPUBLISH     PacketType = 3
	PacketPUBACK      PacketType = 4
	PacketPUBREC      PacketType = 5
	PacketPUBREL      PacketType = 6
	PacketPUBCOMP     PacketType = 7
	PacketSUBSCRIBE   PacketType = 8
	PacketSUBACK      PacketType = 9
	PacketUNSUBSCRIBE PacketType = 10
	PacketUNSUBACK    PacketType = 11
	PacketPINGREQ     PacketType = 12
	PacketPINGRESP    PacketType = 13
	PacketDISCONNECT  PacketType = 14
	PacketAUTH        PacketType = 15
)

// String returns the string representation of the packet type.
func (p PacketType) String() string {
	switch p {
	case PacketCONNECT:
		return "CONNECT"
	case PacketCONNACK:
		return "CONNACK"
	case PacketPUBLISH:
		return "PUBLISH"
	case PacketPUBACK:
		return "PUBACK"
	case PacketPUBREC:
		return "PUBREC"
	case PacketPUBREL:
		return "PUBREL"
	case PacketPUBCOMP:
		return "PUBCOMP"
	case PacketSUBSCRIBE:
		return "SUBSCRIBE"
	case PacketSUBACK:
		return "SUBACK"
	case PacketUNSUBSCRIBE:
		return "UNSUBSCRIBE"
	case PacketUNSUBACK:
		return "UNSUBACK"
	case PacketPINGREQ:
		return "PINGREQ"
	case PacketPINGRESP:
		return "PINGRESP"
	case PacketDISCONNECT:
		return "DISCONNECT"
	case PacketAUTH:
		return "AUTH"
	default:
		return "UNKNOWN"
	}
}

// Valid returns true if the packet type is valid.
func (p PacketType) Valid() bool {
	return p >= PacketCONNECT && p <= PacketAUTH
}

const (
	// fixedHeaderMinSize is the type/flags byte plus a one byte length.
	fixedHeaderMinSize = 2
	// fixedHeaderMaxSize is the type/flags byte plus a four byte length.
	fixedHeaderMaxSize = 1 + maxVarintBytes
)

// Flag bits of the first header byte.
const (
	publishFlagRetain = 0x01
	publishFlagQoS    = 0x06
	publishFlagDUP    = 0x08

	// PUBREL, SUBSCRIBE and UNSUBSCRIBE carry this fixed flag value.
	reservedFlags = 0x02
)

// FixedHeader is the decoded first part of every MQTT control packet.
type FixedHeader struct {
	PacketType      PacketType
	Flags           byte
	RemainingLength uint32
}

// typeAndFlags packs the packet type and flags into the first header byte.
func typeAndFlags(t PacketType, flags byte) byte {
	return byte(t)<<4 | flags&0x0F
}

// decodeFixedHeader reads the type/flags byte and the remaining length.
// It returns errIncomplete while the remaining length is cut short, so the
// caller can buffer one more byte and retry from the packet start.
func decodeFixedHeader(c *cursor) (FixedHeader, error) {
	start := c.cur

	first, err := c.unpackUint8()
	if err != nil {
		return FixedHeader{}, errIncomplete
	}

	length, _, err := c.unpackVarint()
	if err != nil {
		c.cur = start
		return FixedHeader{}, err
	}

	h := FixedHeader{
		PacketType:      PacketType(first >> 4),
		Flags:           first & 0x0F,
		RemainingLength: length,
	}

	if err := h.ValidateFlags(); err != nil {
		return FixedHeader{}, err
	}

	return h, nil
}

// ValidateFlags checks the flags against the packet type.
func (h *FixedHeader) ValidateFlags() error {
	switch h.PacketType {
	case PacketPUBLISH:
		if h.QoS() > QoS2 {
			return ErrMalformedPacket
		}
		return nil

	case PacketPUBREL, PacketSUBSCRIBE, PacketUNSUBSCRIBE:
		if h.Flags != reservedFlags {
			return ErrMalformedPacket
		}
		return nil

	case PacketCONNECT, PacketCONNACK, PacketPUBACK, PacketPUBREC,
		PacketPUBCOMP, PacketSUBACK, PacketUNSUBACK, PacketPINGREQ,
		PacketPINGRESP, PacketDISCONNECT, PacketAUTH:
		if h.Flags != 0x00 {
			return ErrMalformedPacket
		}
		return nil

	default:
		return ErrMalformedPacket
	}
}

// DUP returns the DUP flag of a PUBLISH header.
func (h *FixedHeader) DUP() bool {
	return h.Flags&publishFlagDUP != 0
}

// QoS returns the QoS level of a PUBLISH header.
func (h *FixedHeader) QoS() QoS {
	return QoS((h.Flags & publishFlagQoS) >> 1)
}

// Retain returns the RETAIN flag of a PUBLISH header.
func (h *FixedHeader) Retain() bool {
	return h.Flags&publishFlagRetain != 0
}
