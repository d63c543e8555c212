package mqttlite

// ReasonCode is an MQTT v5.0 reason code. CONNACK return codes of earlier
// protocol versions share the type.
type ReasonCode byte

// Reason codes.
const (
	ReasonSuccess                    ReasonCode = 0x00
	ReasonGrantedQoS1                ReasonCode = 0x01
	ReasonGrantedQoS2                ReasonCode = 0x02
	ReasonDisconnectWithWill         ReasonCode = 0x04
	ReasonNoMatchingSubscribers      ReasonCode = 0x10
	ReasonNoSubscriptionExisted      ReasonCode = 0x11
	ReasonContinueAuth               ReasonCode = 0x18
	ReasonReAuth                     ReasonCode = 0x19
	ReasonUnspecifiedError           ReasonCode = 0x80
	ReasonMalformedPacket            ReasonCode = 0x81
	ReasonProtocolError              ReasonCode = 0x82
	ReasonImplSpecificError          ReasonCode = 0x83
	ReasonUnsupportedProtocolVersion ReasonCode = 0x84
	ReasonClientIDNotValid           ReasonCode = 0x85
	ReasonBadUserNameOrPassword      ReasonCode = 0x86
	ReasonNotAuthorized              ReasonCode = 0x87
	ReasonServerUnavailable          ReasonCode = 0x88
	ReasonServerBusy                 ReasonCode = 0x89
	ReasonBanned                     ReasonCode = 0x8A
	ReasonServerShuttingDown         ReasonCode = 0x8B
	ReasonBadAuthMethod              ReasonCode = 0x8C
	ReasonKeepAliveTimeout           ReasonCode = 0x8D
	ReasonSessionTakenOver           ReasonCode = 0x8E
	ReasonTopicFilterInvalid         ReasonCode = 0x8F
	ReasonTopicNameInvalid           ReasonCode = 0x90
	ReasonPacketIDInUse              ReasonCode = 0x91
	ReasonPacketIDNotFound           ReasonCode = 0x92
	ReasonReceiveMaxExceeded         ReasonCode = 0x93
	ReasonTopicAliasInvalid          ReasonCode = 0x94
	ReasonPacketTooLarge             ReasonCode = 0x95
	ReasonMessageRateTooHigh         ReasonCode = 0x96
	ReasonQuotaExceeded              ReasonCode = 0x97
	ReasonAdminAction                ReasonCode = 0x98
	ReasonPayloadFormatInvalid       ReasonCode = 0x99
	ReasonRetainNotSupported         ReasonCode = 0x9A
	ReasonQoSNotSupported            ReasonCode = 0x9B
	ReasonUseAnotherServer           ReasonCode = 0x9C
	ReasonServerMoved                ReasonCode = 0x9D
	ReasonSharedSubsNotSupported     ReasonCode = 0x9E
	ReasonConnectionRateExceeded     ReasonCode = 0x9F
	ReasonMaxConnectTime             ReasonCode = 0xA0
	ReasonSubIDsNotSupported         ReasonCode = 0xA1
	ReasonWildcardSubsNotSupported   ReasonCode = 0xA2
)

var reasonCodeStrings = map[ReasonCode]string{
	ReasonSuccess:                    "Success",
	ReasonGrantedQoS1:                "Granted QoS 1",
	ReasonGrantedQoS2:                "Granted QoS 2",
	ReasonDisconnectWithWill:         "Disconnect with Will Message",
	ReasonNoMatchingSubscribers:      "No matching subscribers",
	ReasonNoSubscriptionExisted:      "No subscription existed",
	ReasonContinueAuth:               "Continue authentication",
	ReasonReAuth:                     "Re-authenticate",
	ReasonUnspecifiedError:           "Unspecified error",
	ReasonMalformedPacket:            "Malformed Packet",
	ReasonProtocolError:              "Protocol Error",
	ReasonImplSpecificError:          "Implementation specific error",
	ReasonUnsupportedProtocolVersion: "Unsupported Protocol Version",
	ReasonClientIDNotValid:           "Client Identifier not valid",
	ReasonBadUserNameOrPassword:      "Bad User Name or Password",
	ReasonNotAuthorized:              "Not authorized",
	ReasonServerUnavailable:          "Server unavailable",
	ReasonServerBusy:                 "Server busy",
	ReasonBanned:                     "Banned",
	ReasonServerShuttingDown:         "Server shutting down",
	ReasonBadAuthMethod:              "Bad authentication method",
	ReasonKeepAliveTimeout:           "Keep Alive timeout",
	ReasonSessionTakenOver:           "Session taken over",
	ReasonTopicFilterInvalid:         "Topic Filter invalid",
	ReasonTopicNameInvalid:           "Topic Name invalid",
	ReasonPacketIDInUse:              "Packet Identifier in use",
	ReasonPacketIDNotFound:           "Packet Identifier not found",
	ReasonReceiveMaxExceeded:         "Receive Maximum exceeded",
	ReasonTopicAliasInvalid:          "Topic Alias invalid",
	ReasonPacketTooLarge:             "Packet too large",
	ReasonMessageRateTooHigh:         "Message rate too high",
	ReasonQuotaExceeded:              "Quota exceeded",
	ReasonAdminAction:                "Administrative action",
	ReasonPayloadFormatInvalid:       "Payload format invalid",
	ReasonRetainNotSupported:         "Retain not supported",
	ReasonQoSNotSupported:            "QoS not supported",
	ReasonUseAnotherServer:           "Use another server",
	ReasonServerMoved:                "Server moved",
	ReasonSharedSubsNotSupported:     "Shared Subscriptions not supported",
	ReasonConnectionRateExceeded:     "Connection rate exceeded",
	ReasonMaxConnectTime:             "Maximum connect time",
	ReasonSubIDsNotSupported:         "Subscription Identifiers not supported",
	ReasonWildcardSubsNotSupported:   "Wildcard Subscriptions not supported",
}

// String returns the human-readable description of the reason code.
func (r ReasonCode) String() string {
	if s, ok := reasonCodeStrings[r]; ok {
		return s
	}
	return "Unknown reason code"
}

// IsError returns true if the reason code indicates an error (>= 0x80).
func (r ReasonCode) IsError() bool {
	return r >= 0x80
}

// IsSuccess returns true if the reason code indicates success (< 0x80).
func (r ReasonCode) IsSuccess() bool {
	return r < 0x80
}

// ReasonGrantedQoS0 is the SUBACK code for a subscription granted at QoS 0.
const ReasonGrantedQoS0 = ReasonSuccess

// CONNACK return codes of MQTT 3.1 and 3.1.1.
const (
	ConnackAccepted                    ReasonCode = 0x00
	ConnackUnacceptableProtocolVersion ReasonCode = 0x01
	ConnackIdentifierRejected          ReasonCode = 0x02
	ConnackServerUnavailable           ReasonCode = 0x03
	ConnackBadUserNameOrPassword       ReasonCode = 0x04
	ConnackNotAuthorized               ReasonCode = 0x05
)

var connackReturnCodeStrings = map[ReasonCode]string{
	ConnackAccepted:                    "Connection accepted",
	ConnackUnacceptableProtocolVersion: "Unacceptable protocol version",
	ConnackIdentifierRejected:          "Identifier rejected",
	ConnackServerUnavailable:           "Server unavailable",
	ConnackBadUserNameOrPassword:       "Bad user name or password",
	ConnackNotAuthorized:               "Not authorized",
}

// connackString describes a CONNACK code in the terms of the given version.
func connackString(version ProtocolVersion, code ReasonCode) string {
	if version == ProtocolVersion50 {
		return code.String()
	}
	if s, ok := connackReturnCodeStrings[code]; ok {
		return s
	}
	return "Unknown return code"
}

func reasonSet(codes ...ReasonCode) map[ReasonCode]bool {
	m := make(map[ReasonCode]bool, len(codes))
	for _, c := range codes {
		m[c] = true
	}
	return m
}

// inboundReasonCodes lists the reason codes a server may send per packet type.
var inboundReasonCodes = map[PacketType]map[ReasonCode]bool{
	PacketCONNACK: reasonSet(
		ReasonSuccess, ReasonUnspecifiedError, ReasonMalformedPacket, ReasonProtocolError,
		ReasonImplSpecificError, ReasonUnsupportedProtocolVersion, ReasonClientIDNotValid,
		ReasonBadUserNameOrPassword, ReasonNotAuthorized, ReasonServerUnavailable, ReasonServerBusy,
		ReasonBanned, ReasonBadAuthMethod, ReasonTopicNameInvalid, ReasonPacketTooLarge,
		ReasonQuotaExceeded, ReasonPayloadFormatInvalid, ReasonRetainNotSupported,
		ReasonQoSNotSupported, ReasonUseAnotherServer, ReasonServerMoved, ReasonConnectionRateExceeded,
	),
	PacketPUBACK: reasonSet(
		ReasonSuccess, ReasonNoMatchingSubscribers, ReasonUnspecifiedError, ReasonImplSpecificError,
		ReasonNotAuthorized, ReasonTopicNameInvalid, ReasonPacketIDInUse, ReasonQuotaExceeded,
		ReasonPayloadFormatInvalid,
	),
	PacketPUBREC: reasonSet(
		ReasonSuccess, ReasonNoMatchingSubscribers, ReasonUnspecifiedError, ReasonImplSpecificError,
		ReasonNotAuthorized, ReasonTopicNameInvalid, ReasonPacketIDInUse, ReasonQuotaExceeded,
		ReasonPayloadFormatInvalid,
	),
	PacketPUBREL:  reasonSet(ReasonSuccess, ReasonPacketIDNotFound),
	PacketPUBCOMP: reasonSet(ReasonSuccess, ReasonPacketIDNotFound),
	PacketDISCONNECT: reasonSet(
		ReasonSuccess, ReasonUnspecifiedError, ReasonMalformedPacket, ReasonProtocolError,
		ReasonImplSpecificError, ReasonNotAuthorized, ReasonServerBusy, ReasonServerShuttingDown,
		ReasonKeepAliveTimeout, ReasonSessionTakenOver, ReasonTopicFilterInvalid,
		ReasonTopicNameInvalid, ReasonReceiveMaxExceeded, ReasonTopicAliasInvalid,
		ReasonPacketTooLarge, ReasonMessageRateTooHigh, ReasonQuotaExceeded, ReasonAdminAction,
		ReasonPayloadFormatInvalid, ReasonRetainNotSupported, ReasonQoSNotSupported,
		ReasonUseAnotherServer, ReasonServerMoved, ReasonSharedSubsNotSupported,
		ReasonConnectionRateExceeded, ReasonMaxConnectTime, ReasonSubIDsNotSupported,
		ReasonWildcardSubsNotSupported,
	),
	PacketAUTH: reasonSet(ReasonSuccess, ReasonContinueAuth, ReasonReAuth),
}

// ValidFor reports whether a server may send the reason code in a packet of
// type t. Packet types without a fixed list accept any code.
func (r ReasonCode) ValidFor(t PacketType) bool {
	set, ok := inboundReasonCodes[t]
	if !ok {
		return true
	}
	return set[r]
}
