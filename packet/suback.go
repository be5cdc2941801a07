package packet

import (
	"bytes"
	"fmt"
	"io"
)

// Suback acknowledges SUBSCRIBE, one reason code per requested filter, in
// the same order the filters were sent.
type Suback struct {
	PacketID    uint16
	Props       PropertySet
	ReasonCodes []ReasonCode
}

func (s *Suback) Kind() byte { return KindSuback }

func (s *Suback) Pack(w io.Writer) error {
	var body bytes.Buffer
	body.Write(i2b(s.PacketID))
	if err := s.Props.Pack(&body); err != nil {
		return err
	}
	for _, rc := range s.ReasonCodes {
		body.WriteByte(byte(rc))
	}

	header := &FixedHeader{Kind: KindSuback, RemainingLength: uint32(body.Len())}
	if err := header.Pack(w); err != nil {
		return err
	}
	_, err := w.Write(body.Bytes())
	return err
}

func (s *Suback) Unpack(buf *bytes.Buffer) error {
	id, err := b2i(buf)
	if err != nil {
		return fmt.Errorf("%w: reading SUBACK packet-id: %v", ErrMalformed, err)
	}
	s.PacketID = id

	props, err := UnpackPropertySet(buf)
	if err != nil {
		return err
	}
	s.Props = props

	for buf.Len() > 0 {
		rc, err := buf.ReadByte()
		if err != nil {
			return fmt.Errorf("%w: reading SUBACK reason code: %v", ErrMalformed, err)
		}
		s.ReasonCodes = append(s.ReasonCodes, ReasonCode(rc))
	}
	if len(s.ReasonCodes) == 0 {
		return fmt.Errorf("%w: SUBACK payload has no reason codes", ErrMalformed)
	}
	return nil
}
