package packet

import (
	"bytes"
	"fmt"
	"io"
)

// Publish carries application data either direction: client-to-server
// publish requests and server-to-client inbound deliveries.
type Publish struct {
	FixedHeader FixedHeader
	Topic       string
	PacketID    uint16 // only meaningful when FixedHeader.QoS > 0
	Props       PropertySet
	Payload     []byte
}

func (p *Publish) Kind() byte { return KindPublish }

func (p *Publish) Pack(w io.Writer) error {
	var body bytes.Buffer
	topic, err := encodeUTF8(p.Topic)
	if err != nil {
		return err
	}
	body.Write(topic)
	if p.FixedHeader.QoS > 0 {
		body.Write(i2b(p.PacketID))
	}
	if err := p.Props.Pack(&body); err != nil {
		return err
	}
	body.Write(p.Payload)

	header := p.FixedHeader
	header.Kind = KindPublish
	header.RemainingLength = uint32(body.Len())
	if err := header.Pack(w); err != nil {
		return err
	}
	_, err = w.Write(body.Bytes())
	return err
}

// Unpack decodes a PUBLISH body. FixedHeader must already carry the QoS
// and Dup/Retain bits parsed from the packet's first byte — packet.Unpack
// fills this in before calling Unpack.
func (p *Publish) Unpack(buf *bytes.Buffer) error {
	topic, err := decodeUTF8(buf)
	if err != nil {
		return fmt.Errorf("%w: reading PUBLISH topic: %v", ErrMalformed, err)
	}
	p.Topic = topic

	if p.FixedHeader.QoS > 0 {
		id, err := b2i(buf)
		if err != nil {
			return fmt.Errorf("%w: reading PUBLISH packet-id: %v", ErrMalformed, err)
		}
		p.PacketID = id
	}

	props, err := UnpackPropertySet(buf)
	if err != nil {
		return err
	}
	p.Props = props
	p.Payload = append([]byte(nil), buf.Bytes()...)
	return nil
}

func (p *Publish) Dup() bool    { return p.FixedHeader.Dup }
func (p *Publish) QoS() byte    { return p.FixedHeader.QoS }
func (p *Publish) Retain() bool { return p.FixedHeader.Retain }
