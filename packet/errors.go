package packet

import "errors"

// Error taxonomy for the wire codec. mqtt.Client wraps these into its own
// session-level taxonomy (mqtt.ErrMalformed, mqtt.ErrProtocol, ...); callers
// that only touch packet directly can compare against these with errors.Is.
var (
	// ErrMalformed marks a wire-format violation: bad variable byte
	// integer, truncated buffer, unknown property id, invalid flag bits.
	ErrMalformed = errors.New("packet: malformed")
	// ErrProtocol marks a well-formed packet used in the wrong context,
	// e.g. a reason code the protocol forbids for that packet type.
	ErrProtocol = errors.New("packet: protocol violation")
	// ErrBadArgument marks a caller-side encoding request this codec will
	// never put on the wire: a string/binary value over 65535 bytes, a
	// SUBSCRIBE/UNSUBSCRIBE with no filters.
	ErrBadArgument = errors.New("packet: bad argument")
)

// ReasonCode is a one-byte MQTT v5 reason code, carried by CONNACK, PUBACK,
// SUBACK, UNSUBACK and DISCONNECT.
type ReasonCode byte

// Reason codes used by the eleven in-scope packet types. Not every code is
// valid on every packet type; Unpack does not check which codes a given
// packet type may carry.
const (
	Success                     ReasonCode = 0x00
	NormalDisconnection         ReasonCode = 0x00
	GrantedQoS0                 ReasonCode = 0x00
	GrantedQoS1                 ReasonCode = 0x01
	GrantedQoS2                 ReasonCode = 0x02
	DisconnectWithWillMessage   ReasonCode = 0x04
	NoMatchingSubscribers       ReasonCode = 0x10
	NoSubscriptionExisted       ReasonCode = 0x11
	UnspecifiedError            ReasonCode = 0x80
	MalformedPacket             ReasonCode = 0x81
	ProtocolError               ReasonCode = 0x82
	ImplementationSpecificError ReasonCode = 0x83
	UnsupportedProtocolVersion  ReasonCode = 0x84
	ClientIdentifierNotValid    ReasonCode = 0x85
	BadUserNameOrPassword       ReasonCode = 0x86
	NotAuthorized               ReasonCode = 0x87
	ServerUnavailable           ReasonCode = 0x88
	ServerBusy                  ReasonCode = 0x89
	Banned                      ReasonCode = 0x8A
	BadAuthenticationMethod     ReasonCode = 0x8C
	TopicFilterInvalid          ReasonCode = 0x8F
	TopicNameInvalid            ReasonCode = 0x90
	PacketIdentifierInUse       ReasonCode = 0x91
	PacketIdentifierNotFound    ReasonCode = 0x92
	ReceiveMaximumExceeded      ReasonCode = 0x93
	PacketTooLarge              ReasonCode = 0x95
	QuotaExceeded               ReasonCode = 0x97
	PayloadFormatInvalid        ReasonCode = 0x99
	RetainNotSupported          ReasonCode = 0x9A
	QoSNotSupported             ReasonCode = 0x9B
	UseAnotherServer            ReasonCode = 0x9C
	ServerMoved                 ReasonCode = 0x9D
	SharedSubscriptionsNotSupported ReasonCode = 0x9E
	ConnectionRateExceeded      ReasonCode = 0x9F
	SubscriptionIdentifiersNotSupported ReasonCode = 0xA1
	WildcardSubscriptionsNotSupported   ReasonCode = 0xA2
)

// IsError reports whether the reason code is an error reply (>= 0x80) per
// section 2.4 of the MQTT v5.0 specification.
func (r ReasonCode) IsError() bool { return byte(r) >= 0x80 }

func (r ReasonCode) String() string {
	if name, ok := reasonCodeNames[r]; ok {
		return name
	}
	return "unknown reason code"
}

var reasonCodeNames = map[ReasonCode]string{
	Success:                     "success",
	DisconnectWithWillMessage:   "disconnect with will message",
	NoMatchingSubscribers:       "no matching subscribers",
	NoSubscriptionExisted:       "no subscription existed",
	UnspecifiedError:            "unspecified error",
	MalformedPacket:             "malformed packet",
	ProtocolError:               "protocol error",
	ImplementationSpecificError: "implementation specific error",
	UnsupportedProtocolVersion:  "unsupported protocol version",
	ClientIdentifierNotValid:    "client identifier not valid",
	BadUserNameOrPassword:       "bad user name or password",
	NotAuthorized:               "not authorized",
	ServerUnavailable:           "server unavailable",
	ServerBusy:                  "server busy",
	Banned:                      "banned",
	BadAuthenticationMethod:     "bad authentication method",
	TopicFilterInvalid:          "topic filter invalid",
	TopicNameInvalid:            "topic name invalid",
	PacketIdentifierInUse:       "packet identifier in use",
	PacketIdentifierNotFound:    "packet identifier not found",
	ReceiveMaximumExceeded:      "receive maximum exceeded",
	PacketTooLarge:              "packet too large",
	QuotaExceeded:               "quota exceeded",
	PayloadFormatInvalid:        "payload format invalid",
	RetainNotSupported:          "retain not supported",
	QoSNotSupported:             "qos not supported",
	UseAnotherServer:            "use another server",
	ServerMoved:                 "server moved",
	SharedSubscriptionsNotSupported:     "shared subscriptions not supported",
	ConnectionRateExceeded:              "connection rate exceeded",
	SubscriptionIdentifiersNotSupported: "subscription identifiers not supported",
	WildcardSubscriptionsNotSupported:   "wildcard subscriptions not supported",
}
