package packet

import (
	"bytes"
	"fmt"
	"io"
)

// SubscribeOptions packs the one-byte options field that follows each
// topic filter in a SUBSCRIBE payload: bits0-1 maximum QoS, bit2 no-local,
// bit3 retain-as-published, bits4-5 retain-handling.
type SubscribeOptions byte

// NewSubscribeOptions builds a SubscribeOptions byte from its fields.
func NewSubscribeOptions(maxQoS byte, noLocal, retainAsPublished bool, retainHandling byte) SubscribeOptions {
	var b byte
	b |= maxQoS & 0x03
	if noLocal {
		b |= 1 << 2
	}
	if retainAsPublished {
		b |= 1 << 3
	}
	b |= (retainHandling & 0x03) << 4
	return SubscribeOptions(b)
}

func (o SubscribeOptions) MaxQoS() byte            { return byte(o) & 0x03 }
func (o SubscribeOptions) NoLocal() bool            { return byte(o)&(1<<2) != 0 }
func (o SubscribeOptions) RetainAsPublished() bool   { return byte(o)&(1<<3) != 0 }
func (o SubscribeOptions) RetainHandling() byte      { return (byte(o) >> 4) & 0x03 }

// TopicFilter pairs a filter string with its subscribe options.
type TopicFilter struct {
	Filter  string
	Options SubscribeOptions
}

// Subscribe requests one or more topic filters.
type Subscribe struct {
	PacketID uint16
	Props    PropertySet
	Filters  []TopicFilter
}

func (s *Subscribe) Kind() byte { return KindSubscribe }

func (s *Subscribe) Pack(w io.Writer) error {
	if len(s.Filters) == 0 {
		return fmt.Errorf("%w: SUBSCRIBE requires at least one topic filter", ErrBadArgument)
	}
	var body bytes.Buffer
	body.Write(i2b(s.PacketID))
	if err := s.Props.Pack(&body); err != nil {
		return err
	}
	for _, f := range s.Filters {
		filter, err := encodeUTF8(f.Filter)
		if err != nil {
			return err
		}
		body.Write(filter)
		body.WriteByte(byte(f.Options))
	}

	header := &FixedHeader{Kind: KindSubscribe, RemainingLength: uint32(body.Len())}
	if err := header.Pack(w); err != nil {
		return err
	}
	_, err := w.Write(body.Bytes())
	return err
}

func (s *Subscribe) Unpack(buf *bytes.Buffer) error {
	id, err := b2i(buf)
	if err != nil {
		return fmt.Errorf("%w: reading SUBSCRIBE packet-id: %v", ErrMalformed, err)
	}
	s.PacketID = id

	props, err := UnpackPropertySet(buf)
	if err != nil {
		return err
	}
	s.Props = props

	for buf.Len() > 0 {
		filter, err := decodeUTF8(buf)
		if err != nil {
			return fmt.Errorf("%w: reading SUBSCRIBE topic filter: %v", ErrMalformed, err)
		}
		opts, err := buf.ReadByte()
		if err != nil {
			return fmt.Errorf("%w: reading SUBSCRIBE options byte: %v", ErrMalformed, err)
		}
		s.Filters = append(s.Filters, TopicFilter{Filter: filter, Options: SubscribeOptions(opts)})
	}
	if len(s.Filters) == 0 {
		return fmt.Errorf("%w: SUBSCRIBE payload has no topic filters", ErrMalformed)
	}
	return nil
}
