package packet

import (
	"bytes"
	"fmt"
)

// PropertyID is the wire identifier of an MQTT v5 property.
type PropertyID byte

// The property ids this implementation understands. Every other id
// encountered on decode is a malformed packet.
const (
	PayloadFormatIndicator          PropertyID = 0x01
	MessageExpiryInterval           PropertyID = 0x02
	ContentType                     PropertyID = 0x03
	ResponseTopic                   PropertyID = 0x08
	CorrelationData                 PropertyID = 0x09
	SubscriptionIdentifier          PropertyID = 0x0B
	SessionExpiryInterval           PropertyID = 0x11
	AssignedClientIdentifier        PropertyID = 0x12
	ServerKeepAlive                 PropertyID = 0x13
	AuthenticationMethod            PropertyID = 0x15
	AuthenticationData              PropertyID = 0x16
	RequestProblemInformation       PropertyID = 0x17
	RequestResponseInformation      PropertyID = 0x19
	ResponseInformation             PropertyID = 0x1A
	ServerReference                 PropertyID = 0x1C
	ReasonString                    PropertyID = 0x1F
	ReceiveMaximum                  PropertyID = 0x21
	TopicAliasMaximum               PropertyID = 0x22
	MaximumQoS                      PropertyID = 0x24
	RetainAvailable                 PropertyID = 0x25
	UserProperty                    PropertyID = 0x26
	MaximumPacketSize               PropertyID = 0x27
	WildcardSubscriptionAvailable   PropertyID = 0x28
	SubscriptionIdentifiersAvailable PropertyID = 0x29
	SharedSubscriptionAvailable     PropertyID = 0x2A
)

// propKind describes how a property id's value is shaped on the wire.
type propKind int

const (
	kindByte propKind = iota
	kindU16
	kindU32
	kindVBI
	kindUTF8
	kindBinary
	kindUTF8Pair
)

var propertyKinds = map[PropertyID]propKind{
	PayloadFormatIndicator:           kindByte,
	MessageExpiryInterval:            kindU32,
	ContentType:                      kindUTF8,
	ResponseTopic:                    kindUTF8,
	CorrelationData:                  kindBinary,
	SubscriptionIdentifier:           kindVBI,
	SessionExpiryInterval:            kindU32,
	AssignedClientIdentifier:         kindUTF8,
	ServerKeepAlive:                  kindU16,
	AuthenticationMethod:             kindUTF8,
	AuthenticationData:               kindBinary,
	RequestProblemInformation:        kindByte,
	RequestResponseInformation:       kindByte,
	ResponseInformation:              kindUTF8,
	ServerReference:                  kindUTF8,
	ReasonString:                     kindUTF8,
	ReceiveMaximum:                   kindU16,
	TopicAliasMaximum:                kindU16,
	MaximumQoS:                       kindByte,
	RetainAvailable:                  kindByte,
	UserProperty:                     kindUTF8Pair,
	MaximumPacketSize:                kindU32,
	WildcardSubscriptionAvailable:    kindByte,
	SubscriptionIdentifiersAvailable: kindByte,
	SharedSubscriptionAvailable:      kindByte,
}

var propertyNames = map[PropertyID]string{
	PayloadFormatIndicator:           "payload-format-indicator",
	MessageExpiryInterval:            "message-expiry-interval",
	ContentType:                      "content-type",
	ResponseTopic:                    "response-topic",
	CorrelationData:                  "correlation-data",
	SubscriptionIdentifier:           "subscription-identifier",
	SessionExpiryInterval:            "session-expiry-interval",
	AssignedClientIdentifier:         "assigned-client-identifier",
	ServerKeepAlive:                  "server-keep-alive",
	AuthenticationMethod:             "authentication-method",
	AuthenticationData:               "authentication-data",
	RequestProblemInformation:        "request-problem-information",
	RequestResponseInformation:       "request-response-information",
	ResponseInformation:              "response-information",
	ServerReference:                  "server-reference",
	ReasonString:                     "reason-string",
	ReceiveMaximum:                   "receive-maximum",
	TopicAliasMaximum:                "topic-alias-maximum",
	MaximumQoS:                       "maximum-qos",
	RetainAvailable:                  "retain-available",
	UserProperty:                     "user-property",
	MaximumPacketSize:                "maximum-packet-size",
	WildcardSubscriptionAvailable:    "wildcard-subscription-available",
	SubscriptionIdentifiersAvailable: "subscription-identifiers-available",
	SharedSubscriptionAvailable:      "shared-subscription-available",
}

// Property is one tagged entry in a PropertySet. Exactly one of the typed
// fields is meaningful, selected by ID's kind; UserProperty uses Name/Value,
// every other kind uses Byte/U16/U32/VBI/Str/Bin as appropriate.
type Property struct {
	ID    PropertyID
	Byte  byte
	U16   uint16
	U32   uint32
	VBI   uint32
	Str   string
	Bin   []byte
	Name  string // set only for UserProperty
	Value string // set only for UserProperty
}

// PropertySet is an ordered list of Property entries. Order is preserved
// across encode/decode so repeated user-property entries round-trip
// identically, per the wire-format invariant that properties are a
// self-describing tagged-union vector, not a map.
type PropertySet []Property

// Get returns the first property with the given id, if any.
func (p PropertySet) Get(id PropertyID) (Property, bool) {
	for _, prop := range p {
		if prop.ID == id {
			return prop, true
		}
	}
	return Property{}, false
}

// All returns every property with the given id, in encounter order. Used
// for UserProperty, the only repeatable property.
func (p PropertySet) All(id PropertyID) []Property {
	var out []Property
	for _, prop := range p {
		if prop.ID == id {
			out = append(out, prop)
		}
	}
	return out
}

func encodeProperty(buf *bytes.Buffer, p Property) error {
	kind, ok := propertyKinds[p.ID]
	if !ok {
		return fmt.Errorf("%w: property id 0x%02X has no known wire shape", ErrMalformed, p.ID)
	}
	buf.WriteByte(byte(p.ID))
	switch kind {
	case kindByte:
		buf.WriteByte(p.Byte)
	case kindU16:
		buf.Write(i2b(p.U16))
	case kindU32:
		buf.Write(i4b(p.U32))
	case kindVBI:
		b, err := encodeVBI(p.VBI)
		if err != nil {
			return err
		}
		buf.Write(b)
	case kindUTF8:
		v, err := encodeUTF8(p.Str)
		if err != nil {
			return err
		}
		buf.Write(v)
	case kindBinary:
		v, err := encodeBinary(p.Bin)
		if err != nil {
			return err
		}
		buf.Write(v)
	case kindUTF8Pair:
		name, err := encodeUTF8(p.Name)
		if err != nil {
			return err
		}
		value, err := encodeUTF8(p.Value)
		if err != nil {
			return err
		}
		buf.Write(name)
		buf.Write(value)
	}
	return nil
}

func decodeProperty(buf *bytes.Buffer) (Property, error) {
	idByte, err := buf.ReadByte()
	if err != nil {
		return Property{}, fmt.Errorf("%w: reading property id: %v", ErrMalformed, err)
	}
	id := PropertyID(idByte)
	kind, ok := propertyKinds[id]
	if !ok {
		return Property{}, fmt.Errorf("%w: unknown property id 0x%02X", ErrMalformed, idByte)
	}
	p := Property{ID: id}
	switch kind {
	case kindByte:
		b, err := buf.ReadByte()
		if err != nil {
			return Property{}, fmt.Errorf("%w: reading %s: %v", ErrMalformed, propertyNames[id], err)
		}
		p.Byte = b
	case kindU16:
		v, err := b2i(buf)
		if err != nil {
			return Property{}, fmt.Errorf("%w: reading %s: %v", ErrMalformed, propertyNames[id], err)
		}
		p.U16 = v
	case kindU32:
		v, err := b4i(buf)
		if err != nil {
			return Property{}, fmt.Errorf("%w: reading %s: %v", ErrMalformed, propertyNames[id], err)
		}
		p.U32 = v
	case kindVBI:
		v, err := decodeVBI(buf)
		if err != nil {
			return Property{}, err
		}
		p.VBI = v
	case kindUTF8:
		s, err := decodeUTF8(buf)
		if err != nil {
			return Property{}, fmt.Errorf("%w: reading %s: %v", ErrMalformed, propertyNames[id], err)
		}
		p.Str = s
	case kindBinary:
		b, err := decodeBinary(buf)
		if err != nil {
			return Property{}, fmt.Errorf("%w: reading %s: %v", ErrMalformed, propertyNames[id], err)
		}
		p.Bin = b
	case kindUTF8Pair:
		name, err := decodeUTF8(buf)
		if err != nil {
			return Property{}, fmt.Errorf("%w: reading user-property name: %v", ErrMalformed, err)
		}
		value, err := decodeUTF8(buf)
		if err != nil {
			return Property{}, fmt.Errorf("%w: reading user-property value: %v", ErrMalformed, err)
		}
		p.Name, p.Value = name, value
	}
	return p, nil
}

// Pack encodes the property set as VBI(body length) || body.
func (p PropertySet) Pack(w *bytes.Buffer) error {
	var body bytes.Buffer
	for _, prop := range p {
		if err := encodeProperty(&body, prop); err != nil {
			return err
		}
	}
	length, err := encodeVBI(uint32(body.Len()))
	if err != nil {
		return err
	}
	w.Write(length)
	w.Write(body.Bytes())
	return nil
}

// UnpackPropertySet reads a VBI-prefixed property set from buf, preserving
// the on-wire order of entries.
func UnpackPropertySet(buf *bytes.Buffer) (PropertySet, error) {
	length, err := decodeVBI(buf)
	if err != nil {
		return nil, err
	}
	if buf.Len() < int(length) {
		return nil, fmt.Errorf("%w: property set declares %d bytes, have %d", ErrMalformed, length, buf.Len())
	}
	body := bytes.NewBuffer(buf.Next(int(length)))
	var props PropertySet
	for body.Len() > 0 {
		p, err := decodeProperty(body)
		if err != nil {
			return nil, err
		}
		props = append(props, p)
	}
	return props, nil
}
