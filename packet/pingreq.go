package packet

import (
	"bytes"
	"fmt"
	"io"
)

// Pingreq is a header-only keep-alive probe sent by the client.
type Pingreq struct{}

func (p *Pingreq) Kind() byte { return KindPingreq }

func (p *Pingreq) Pack(w io.Writer) error {
	header := &FixedHeader{Kind: KindPingreq, RemainingLength: 0}
	return header.Pack(w)
}

func (p *Pingreq) Unpack(buf *bytes.Buffer) error {
	if buf.Len() != 0 {
		return fmt.Errorf("%w: PINGREQ must have no body", ErrMalformed)
	}
	return nil
}
