package packet

import (
	"bytes"
	"fmt"
	"io"
)

// Unsuback acknowledges an UNSUBSCRIBE, one reason code per filter removed.
type Unsuback struct {
	PacketID    uint16
	Props       PropertySet
	ReasonCodes []ReasonCode
}

func (u *Unsuback) Kind() byte { return KindUnsuback }

func (u *Unsuback) Pack(w io.Writer) error {
	var body bytes.Buffer
	body.Write(i2b(u.PacketID))
	if err := u.Props.Pack(&body); err != nil {
		return err
	}
	for _, rc := range u.ReasonCodes {
		body.WriteByte(byte(rc))
	}

	header := &FixedHeader{Kind: KindUnsuback, RemainingLength: uint32(body.Len())}
	if err := header.Pack(w); err != nil {
		return err
	}
	_, err := w.Write(body.Bytes())
	return err
}

func (u *Unsuback) Unpack(buf *bytes.Buffer) error {
	id, err := b2i(buf)
	if err != nil {
		return fmt.Errorf("%w: reading UNSUBACK packet-id: %v", ErrMalformed, err)
	}
	u.PacketID = id

	if buf.Len() == 0 {
		return nil
	}
	props, err := UnpackPropertySet(buf)
	if err != nil {
		return err
	}
	u.Props = props

	for buf.Len() > 0 {
		rc, err := buf.ReadByte()
		if err != nil {
			return fmt.Errorf("%w: reading UNSUBACK reason code: %v", ErrMalformed, err)
		}
		u.ReasonCodes = append(u.ReasonCodes, ReasonCode(rc))
	}
	return nil
}
