package packet

import (
	"bytes"
	"fmt"
	"io"
)

// Packet is the uniform contract every control packet type implements: a
// self-identifying kind, a byte-level serializer and the matching
// deserializer for the body that follows a FixedHeader.
type Packet interface {
	Kind() byte
	Pack(w io.Writer) error
	Unpack(buf *bytes.Buffer) error
}

// Unpack reads one complete control packet from r: fixed header, then a
// bounded body handed to the matching packet type's Unpack method.
func Unpack(r io.Reader) (Packet, error) {
	header, err := readFixedHeader(r)
	if err != nil {
		return nil, err
	}

	buf := GetBuffer()
	defer PutBuffer(buf)
	if header.RemainingLength > 0 {
		if _, err := io.CopyN(buf, r, int64(header.RemainingLength)); err != nil {
			return nil, fmt.Errorf("%w: reading packet body: %v", ErrMalformed, err)
		}
	}

	var pkt Packet
	switch header.Kind {
	case KindConnect:
		pkt = &Connect{}
	case KindConnack:
		pkt = &Connack{}
	case KindPublish:
		pkt = &Publish{FixedHeader: *header}
	case KindPuback:
		pkt = &Puback{}
	case KindSubscribe:
		pkt = &Subscribe{}
	case KindSuback:
		pkt = &Suback{}
	case KindUnsubscribe:
		pkt = &Unsubscribe{}
	case KindUnsuback:
		pkt = &Unsuback{}
	case KindPingreq:
		pkt = &Pingreq{}
	case KindPingresp:
		pkt = &Pingresp{}
	case KindDisconnect:
		pkt = &Disconnect{}
	default:
		return nil, fmt.Errorf("%w: unsupported packet kind 0x%X", ErrMalformed, header.Kind)
	}

	if err := pkt.Unpack(buf); err != nil {
		return nil, err
	}
	return pkt, nil
}
