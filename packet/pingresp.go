package packet

import (
	"bytes"
	"fmt"
	"io"
)

// Pingresp is the server's header-only reply to PINGREQ.
type Pingresp struct{}

func (p *Pingresp) Kind() byte { return KindPingresp }

func (p *Pingresp) Pack(w io.Writer) error {
	header := &FixedHeader{Kind: KindPingresp, RemainingLength: 0}
	return header.Pack(w)
}

func (p *Pingresp) Unpack(buf *bytes.Buffer) error {
	if buf.Len() != 0 {
		return fmt.Errorf("%w: PINGRESP must have no body", ErrMalformed)
	}
	return nil
}
