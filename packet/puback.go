package packet

import (
	"bytes"
	"fmt"
	"io"
)

// Puback acknowledges a QoS 1 PUBLISH.
type Puback struct {
	PacketID   uint16
	ReasonCode ReasonCode
	Props      PropertySet
}

func (p *Puback) Kind() byte { return KindPuback }

func (p *Puback) Pack(w io.Writer) error {
	var body bytes.Buffer
	body.Write(i2b(p.PacketID))
	// Short form: omit reason code and properties entirely when the reply
	// is a plain success with no properties.
	if p.ReasonCode != Success || len(p.Props) > 0 {
		body.WriteByte(byte(p.ReasonCode))
		if err := p.Props.Pack(&body); err != nil {
			return err
		}
	}

	header := &FixedHeader{Kind: KindPuback, RemainingLength: uint32(body.Len())}
	if err := header.Pack(w); err != nil {
		return err
	}
	_, err := w.Write(body.Bytes())
	return err
}

func (p *Puback) Unpack(buf *bytes.Buffer) error {
	id, err := b2i(buf)
	if err != nil {
		return fmt.Errorf("%w: reading PUBACK packet-id: %v", ErrMalformed, err)
	}
	p.PacketID = id

	if buf.Len() == 0 {
		p.ReasonCode = Success
		return nil
	}
	reason, err := buf.ReadByte()
	if err != nil {
		return fmt.Errorf("%w: reading PUBACK reason code: %v", ErrMalformed, err)
	}
	p.ReasonCode = ReasonCode(reason)

	if buf.Len() == 0 {
		return nil
	}
	props, err := UnpackPropertySet(buf)
	if err != nil {
		return err
	}
	p.Props = props
	return nil
}

// ReasonString returns the human-readable reason string, if any.
func (p *Puback) ReasonString() (string, bool) {
	prop, ok := p.Props.Get(ReasonString)
	return prop.Str, ok
}
