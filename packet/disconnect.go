package packet

import (
	"bytes"
	"fmt"
	"io"
)

// Disconnect signals a clean session termination, optionally carrying a
// reason code and properties. A bare DISCONNECT (remaining-length 0)
// implies NormalDisconnection with no properties.
type Disconnect struct {
	ReasonCode ReasonCode
	Props      PropertySet
}

func (d *Disconnect) Kind() byte { return KindDisconnect }

func (d *Disconnect) Pack(w io.Writer) error {
	var body bytes.Buffer
	if d.ReasonCode != NormalDisconnection || len(d.Props) > 0 {
		body.WriteByte(byte(d.ReasonCode))
		if err := d.Props.Pack(&body); err != nil {
			return err
		}
	}

	header := &FixedHeader{Kind: KindDisconnect, RemainingLength: uint32(body.Len())}
	if err := header.Pack(w); err != nil {
		return err
	}
	_, err := w.Write(body.Bytes())
	return err
}

func (d *Disconnect) Unpack(buf *bytes.Buffer) error {
	if buf.Len() == 0 {
		d.ReasonCode = NormalDisconnection
		return nil
	}
	reason, err := buf.ReadByte()
	if err != nil {
		return fmt.Errorf("%w: reading DISCONNECT reason code: %v", ErrMalformed, err)
	}
	d.ReasonCode = ReasonCode(reason)

	if buf.Len() == 0 {
		return nil
	}
	props, err := UnpackPropertySet(buf)
	if err != nil {
		return err
	}
	d.Props = props
	return nil
}
