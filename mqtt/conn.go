package mqtt

import (
	"errors"
	"net"
	"sync"

	"github.com/rafaortegano/tp-taller-go/packet"
)

// conn owns one net.Conn for the lifetime of a session. Exactly one
// goroutine ever calls read (the client's reader loop); any number of
// goroutines may call write concurrently, serialized by mu. Registering a
// pending-ack waiter must happen before write is called for that packet —
// see Client.roundTrip — so a reply racing in on the reader goroutine is
// never missed.
type conn struct {
	rwc net.Conn
	mu  sync.Mutex
	stat *Stat
}

func newConn(rwc net.Conn, stat *Stat) *conn {
	return &conn{rwc: rwc, stat: stat}
}

// write serializes pkt and sends it, holding mu for the duration so two
// packets can never interleave on the wire.
func (c *conn) write(pkt packet.Packet) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	counting := &countingWriter{w: c.rwc}
	if err := pkt.Pack(counting); err != nil {
		switch {
		case errors.Is(err, packet.ErrBadArgument):
			return badArgument("packing %s: %v", packet.KindName[pkt.Kind()], err)
		case errors.Is(err, packet.ErrMalformed):
			return malformed("packing %s: %v", packet.KindName[pkt.Kind()], err)
		default:
			return transportErr("writing %s: %v", packet.KindName[pkt.Kind()], err)
		}
	}
	if c.stat != nil {
		c.stat.PacketSent.Inc()
		c.stat.ByteSent.Add(float64(counting.n))
	}
	return nil
}

// read blocks for exactly one complete incoming packet. Only the reader
// goroutine may call this.
func (c *conn) read() (packet.Packet, error) {
	counting := &countingReader{r: c.rwc}
	pkt, err := packet.Unpack(counting)
	if c.stat != nil {
		c.stat.ByteReceived.Add(float64(counting.n))
	}
	if err != nil {
		return nil, err
	}
	if c.stat != nil {
		c.stat.PacketReceived.Inc()
	}
	return pkt, nil
}

func (c *conn) close() error {
	return c.rwc.Close()
}

type countingWriter struct {
	w net.Conn
	n int
}

func (cw *countingWriter) Write(b []byte) (int, error) {
	n, err := cw.w.Write(b)
	cw.n += n
	return n, err
}

type countingReader struct {
	r net.Conn
	n int
}

func (cr *countingReader) Read(b []byte) (int, error) {
	n, err := cr.r.Read(b)
	cr.n += n
	return n, err
}
