package packet

import (
	"bytes"
	"fmt"
	"io"
)

// Connack is the server's reply to CONNECT.
type Connack struct {
	SessionPresent bool
	ReasonCode     ReasonCode
	Props          PropertySet
}

func (c *Connack) Kind() byte { return KindConnack }

func (c *Connack) Pack(w io.Writer) error {
	var body bytes.Buffer
	var flags byte
	if c.SessionPresent {
		flags = 0x01
	}
	body.WriteByte(flags)
	body.WriteByte(byte(c.ReasonCode))
	if err := c.Props.Pack(&body); err != nil {
		return err
	}

	header := &FixedHeader{Kind: KindConnack, RemainingLength: uint32(body.Len())}
	if err := header.Pack(w); err != nil {
		return err
	}
	_, err := w.Write(body.Bytes())
	return err
}

func (c *Connack) Unpack(buf *bytes.Buffer) error {
	flags, err := buf.ReadByte()
	if err != nil {
		return fmt.Errorf("%w: reading CONNACK flags: %v", ErrMalformed, err)
	}
	if flags&0xFE != 0 {
		return fmt.Errorf("%w: CONNACK reserved flag bits must be 0", ErrMalformed)
	}
	c.SessionPresent = flags&0x01 != 0

	reason, err := buf.ReadByte()
	if err != nil {
		return fmt.Errorf("%w: reading CONNACK reason code: %v", ErrMalformed, err)
	}
	c.ReasonCode = ReasonCode(reason)

	props, err := UnpackPropertySet(buf)
	if err != nil {
		return err
	}
	c.Props = props
	return nil
}

// AssignedClientID returns the server-assigned client identifier, if present.
func (c *Connack) AssignedClientID() (string, bool) {
	p, ok := c.Props.Get(AssignedClientIdentifier)
	return p.Str, ok
}

// ServerKeepAlive returns the server-overridden keep-alive interval, if present.
func (c *Connack) ServerKeepAlive() (uint16, bool) {
	p, ok := c.Props.Get(ServerKeepAlive)
	return p.U16, ok
}
