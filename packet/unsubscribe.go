package packet

import (
	"bytes"
	"fmt"
	"io"
)

// Unsubscribe requests removal of one or more topic filters.
type Unsubscribe struct {
	PacketID uint16
	Props    PropertySet
	Filters  []string
}

func (u *Unsubscribe) Kind() byte { return KindUnsubscribe }

func (u *Unsubscribe) Pack(w io.Writer) error {
	if len(u.Filters) == 0 {
		return fmt.Errorf("%w: UNSUBSCRIBE requires at least one topic filter", ErrBadArgument)
	}
	var body bytes.Buffer
	body.Write(i2b(u.PacketID))
	if err := u.Props.Pack(&body); err != nil {
		return err
	}
	for _, f := range u.Filters {
		filter, err := encodeUTF8(f)
		if err != nil {
			return err
		}
		body.Write(filter)
	}

	header := &FixedHeader{Kind: KindUnsubscribe, RemainingLength: uint32(body.Len())}
	if err := header.Pack(w); err != nil {
		return err
	}
	_, err := w.Write(body.Bytes())
	return err
}

func (u *Unsubscribe) Unpack(buf *bytes.Buffer) error {
	id, err := b2i(buf)
	if err != nil {
		return fmt.Errorf("%w: reading UNSUBSCRIBE packet-id: %v", ErrMalformed, err)
	}
	u.PacketID = id

	props, err := UnpackPropertySet(buf)
	if err != nil {
		return err
	}
	u.Props = props

	for buf.Len() > 0 {
		filter, err := decodeUTF8(buf)
		if err != nil {
			return fmt.Errorf("%w: reading UNSUBSCRIBE topic filter: %v", ErrMalformed, err)
		}
		u.Filters = append(u.Filters, filter)
	}
	if len(u.Filters) == 0 {
		return fmt.Errorf("%w: UNSUBSCRIBE payload has no topic filters", ErrMalformed)
	}
	return nil
}
