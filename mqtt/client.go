package mqtt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rafaortegano/tp-taller-go/packet"
	"github.com/rafaortegano/tp-taller-go/topic"
)

// State is the session's position in its lifecycle.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Disconnecting
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Disconnecting:
		return "disconnecting"
	default:
		return "unknown"
	}
}

// InboundMessage is a PUBLISH delivered to the caller.
type InboundMessage struct {
	Topic   string
	Payload []byte
	QoS     byte
	Retain  bool
	// MatchedFilter is the subscription filter (as recorded in Subscribe)
	// that earned this message's delivery, resolved locally against the
	// client's own subscription bookkeeping. Empty if the broker delivered
	// a topic that doesn't match anything currently tracked, e.g. a stale
	// message racing an in-flight Unsubscribe.
	MatchedFilter string
}

// SubscribeRequest is one entry of a Subscribe call.
type SubscribeRequest struct {
	Filter            string
	QoS               byte
	NoLocal           bool
	RetainAsPublished bool
	RetainHandling    byte
}

// Client is an MQTT v5 session: one TCP (or WebSocket) connection, a
// single reader goroutine fanning inbound PUBLISH out to Inbound(), and
// any number of callers issuing Publish/Subscribe/Unsubscribe/Ping
// concurrently with each other.
type Client struct {
	cfg  ClientConfig
	stat *Stat

	mu    sync.Mutex
	state State
	conn  *conn
	acks  *pendingAcks
	subs  *topic.MemoryTrie
	ping  *pingWaiter
	// pingMu serializes pingRoundTrip so only one PINGREQ is outstanding.
	pingMu sync.Mutex

	inbound chan InboundMessage
	cancel  context.CancelFunc
	done    chan struct{}
}

// New builds a Client from opts. It does not dial; call Connect to open
// the session.
func New(opts ...Option) *Client {
	cfg := newConfig(opts...)
	if cfg.Logger == nil {
		cfg.Logger = noopLogger{}
	}
	c := &Client{
		cfg:     cfg,
		stat:    NewStat(),
		state:   Disconnected,
		subs:    topic.NewMemoryTrie(),
		ping:    newPingWaiter(),
		inbound: make(chan InboundMessage, 1000),
	}
	cfg.Logger.Event("[CLIENT_CREATED]", "client_id", cfg.ClientID, "url", cfg.URL)
	return c
}

// Stat returns the client's Prometheus counters, for callers that want to
// register them with their own registry.
func (c *Client) Stat() *Stat { return c.stat }

// Inbound returns the channel PUBLISH messages are delivered on. Reading
// an empty, closed channel (after Disconnect) yields the zero value with
// ok=false, same as any closed Go channel.
func (c *Client) Inbound() <-chan InboundMessage { return c.inbound }

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// State reports the session's current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect dials the broker, performs the CONNECT/CONNACK handshake, and
// starts the background reader and keep-alive goroutines. Must be called
// from Disconnected; any other starting state returns ErrSessionClosed.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state != Disconnected {
		c.mu.Unlock()
		return ErrSessionClosed
	}
	c.state = Connecting
	c.mu.Unlock()

	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		c.setState(Disconnected)
		return badArgument("parsing URL %q: %v", c.cfg.URL, err)
	}

	rwc, err := dial(ctx, u, c.cfg.DialTimeout)
	if err != nil {
		c.setState(Disconnected)
		return err
	}

	cn := newConn(rwc, c.stat)
	connectPkt := c.buildConnect()
	if err := cn.write(connectPkt); err != nil {
		rwc.Close()
		c.setState(Disconnected)
		return err
	}

	reply, err := cn.read()
	if err != nil {
		rwc.Close()
		c.setState(Disconnected)
		return transportErr("waiting for CONNACK: %v", err)
	}
	connack, ok := reply.(*packet.Connack)
	if !ok {
		rwc.Close()
		c.setState(Disconnected)
		return protocolErr("expected CONNACK, got %s", packet.KindName[reply.Kind()])
	}
	if connack.ReasonCode != packet.Success {
		rwc.Close()
		c.setState(Disconnected)
		return protocolErr("CONNACK reason code 0x%02X (%s)", byte(connack.ReasonCode), connack.ReasonCode)
	}

	if keepAlive, ok := connack.ServerKeepAlive(); ok {
		c.cfg.KeepAlive = time.Duration(keepAlive) * time.Second
	}
	if assigned, ok := connack.AssignedClientID(); ok && assigned != "" {
		c.cfg.ClientID = assigned
		if c.cfg.TopicFilterPrefix == connectPkt.ClientID {
			c.cfg.TopicFilterPrefix = assigned
		}
	}

	c.mu.Lock()
	c.conn = cn
	c.acks = newPendingAcks()
	c.state = Connected
	c.mu.Unlock()
	c.stat.ActiveSessions.Set(1)
	c.cfg.Logger.Event("[CLIENT_CONNECTED]", "client_id", c.cfg.ClientID, "url", c.cfg.URL)

	runCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	go c.run(runCtx)

	return nil
}

func (c *Client) buildConnect() *packet.Connect {
	pkt := &packet.Connect{
		Flags:     packet.ConnectFlags{CleanStart: c.cfg.CleanStart},
		KeepAlive: uint16(c.cfg.KeepAlive / time.Second),
		ClientID:  c.cfg.ClientID,
	}
	var props packet.PropertySet
	if c.cfg.Connect.SessionExpiryInterval != 0 {
		props = append(props, packet.Property{ID: packet.SessionExpiryInterval, U32: c.cfg.Connect.SessionExpiryInterval})
	}
	if c.cfg.Connect.ReceiveMaximum != 0 {
		props = append(props, packet.Property{ID: packet.ReceiveMaximum, U16: c.cfg.Connect.ReceiveMaximum})
	}
	if c.cfg.Connect.MaximumPacketSize != 0 {
		props = append(props, packet.Property{ID: packet.MaximumPacketSize, U32: c.cfg.Connect.MaximumPacketSize})
	}
	if c.cfg.Connect.TopicAliasMaximum != 0 {
		props = append(props, packet.Property{ID: packet.TopicAliasMaximum, U16: c.cfg.Connect.TopicAliasMaximum})
	}
	if c.cfg.Connect.RequestResponseInformation {
		props = append(props, packet.Property{ID: packet.RequestResponseInformation, Byte: 1})
	}
	if c.cfg.Connect.RequestProblemInformation {
		props = append(props, packet.Property{ID: packet.RequestProblemInformation, Byte: 1})
	}
	if c.cfg.Connect.AuthenticationMethod != "" {
		props = append(props, packet.Property{ID: packet.AuthenticationMethod, Str: c.cfg.Connect.AuthenticationMethod})
		if len(c.cfg.Connect.AuthenticationData) > 0 {
			props = append(props, packet.Property{ID: packet.AuthenticationData, Bin: c.cfg.Connect.AuthenticationData})
		}
	}
	pkt.Props = props

	if c.cfg.Will != nil {
		pkt.Will = &packet.Will{Topic: c.cfg.Will.Topic, Payload: c.cfg.Will.Payload}
		pkt.Flags.WillQoS = c.cfg.Will.QoS
		pkt.Flags.WillRetain = c.cfg.Will.Retain
	}
	if c.cfg.HasUsername {
		pkt.Flags.HasUsername = true
		pkt.Username = c.cfg.Username
	}
	if c.cfg.HasPassword {
		pkt.Flags.HasPassword = true
		pkt.Password = c.cfg.Password
	}
	return pkt
}

// run owns the session's background goroutines for its entire lifetime:
// the exclusive reader loop and the keep-alive ticker, coordinated through
// one errgroup so either one failing tears down the whole session.
func (c *Client) run(ctx context.Context) {
	defer close(c.done)
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error { return c.readLoop(gctx) })
	group.Go(func() error { return c.keepAliveLoop(gctx) })
	err := group.Wait()
	c.teardown(err)
}

func (c *Client) readLoop(ctx context.Context) error {
	for {
		pkt, err := c.conn.read()
		if err != nil {
			return transportErr("reading packet: %v", err)
		}
		if err := c.handleInbound(pkt); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		default:
		}
	}
}

func (c *Client) handleInbound(pkt packet.Packet) error {
	switch p := pkt.(type) {
	case *packet.Publish:
		filter, _ := c.subs.Match(p.Topic)
		msg := InboundMessage{Topic: p.Topic, Payload: p.Payload, QoS: p.QoS(), Retain: p.Retain(), MatchedFilter: filter}
		select {
		case c.inbound <- msg:
		default:
			c.cfg.Logger.Event("[INBOUND_QUEUE_FULL]", "topic", p.Topic)
		}
		if p.QoS() == 1 {
			ack := &packet.Puback{PacketID: p.PacketID, ReasonCode: packet.Success}
			if err := c.conn.write(ack); err != nil {
				return err
			}
		}
		return nil
	case *packet.Puback:
		c.acks.deliver(p.PacketID, p)
		return nil
	case *packet.Suback:
		c.acks.deliver(p.PacketID, p)
		return nil
	case *packet.Unsuback:
		c.acks.deliver(p.PacketID, p)
		return nil
	case *packet.Pingresp:
		if c.stat != nil {
			c.stat.PongReceived.Inc()
		}
		c.ping.deliver()
		return nil
	case *packet.Disconnect:
		return protocolErr("server sent DISCONNECT, reason 0x%02X", byte(p.ReasonCode))
	default:
		return protocolErr("unexpected packet kind %s from broker", packet.KindName[pkt.Kind()])
	}
}

// teardown moves the session to Disconnected, closes the socket, drains
// every outstanding ack waiter (so no in-flight request blocks forever)
// and closes the inbound channel.
func (c *Client) teardown(cause error) {
	c.mu.Lock()
	if c.state == Disconnected {
		c.mu.Unlock()
		return
	}
	c.state = Disconnecting
	cn := c.conn
	acks := c.acks
	c.mu.Unlock()

	if cn != nil {
		cn.close()
	}
	if acks != nil {
		acks.drain()
	}
	close(c.inbound)

	c.mu.Lock()
	c.state = Disconnected
	c.mu.Unlock()
	c.stat.ActiveSessions.Set(0)
	if cause != nil {
		c.cfg.Logger.Event("[CLIENT_DISCONNECTED]", "client_id", c.cfg.ClientID, "cause", cause)
	} else {
		c.cfg.Logger.Event("[CLIENT_DISCONNECTED]", "client_id", c.cfg.ClientID)
	}
}

// roundTrip allocates a packet-id and waiter, sends pkt (after setting its
// packet-id via assign), and waits for the matching reply or ctx/timeout.
// Allocation happens before the write so a reply racing in on the reader
// goroutine is never missed.
func (c *Client) roundTrip(ctx context.Context, assign func(id uint16) packet.Packet) (packet.Packet, error) {
	c.mu.Lock()
	if c.state != Connected {
		c.mu.Unlock()
		return nil, ErrSessionClosed
	}
	cn, acks := c.conn, c.acks
	c.mu.Unlock()

	id, waiter := acks.allocate()
	pkt := assign(id)
	if err := cn.write(pkt); err != nil {
		acks.release(id)
		return nil, err
	}

	timeout := c.cfg.AckTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case reply := <-waiter.ch:
		if reply == nil {
			return nil, ErrSessionClosed
		}
		return reply, nil
	case <-ctx.Done():
		acks.release(id)
		return nil, ctx.Err()
	case <-timer.C:
		acks.release(id)
		if c.stat != nil {
			c.stat.AckTimeouts.Inc()
		}
		return nil, ErrTimeout
	}
}

func (c *Client) qualifyFilter(filter string) string {
	if c.cfg.DisableTopicPrefix || c.cfg.TopicFilterPrefix == "" {
		return filter
	}
	prefix := c.cfg.TopicFilterPrefix + "/"
	if bytes.HasPrefix([]byte(filter), []byte(prefix)) {
		return filter
	}
	return prefix + filter
}

// Subscribe sends a SUBSCRIBE for every request in reqs and returns the
// matching per-filter reason codes in the same order.
func (c *Client) Subscribe(ctx context.Context, reqs []SubscribeRequest) ([]packet.ReasonCode, error) {
	if len(reqs) == 0 {
		return nil, badArgument("subscribe requires at least one filter")
	}
	filters := make([]packet.TopicFilter, len(reqs))
	for i, r := range reqs {
		if !topic.ValidFilter(r.Filter) {
			return nil, badArgument("invalid topic filter %q", r.Filter)
		}
		qualified := c.qualifyFilter(r.Filter)
		filters[i] = packet.TopicFilter{
			Filter:  qualified,
			Options: packet.NewSubscribeOptions(r.QoS, r.NoLocal, r.RetainAsPublished, r.RetainHandling),
		}
	}

	reply, err := c.roundTrip(ctx, func(id uint16) packet.Packet {
		return &packet.Subscribe{PacketID: id, Filters: filters}
	})
	if err != nil {
		return nil, err
	}
	suback, ok := reply.(*packet.Suback)
	if !ok {
		return nil, protocolErr("expected SUBACK, got %s", packet.KindName[reply.Kind()])
	}
	for i, rc := range suback.ReasonCodes {
		if rc.IsError() {
			continue
		}
		c.subs.Subscribe(filters[i].Filter)
	}
	return suback.ReasonCodes, nil
}

// Unsubscribe sends an UNSUBSCRIBE for the given filters.
func (c *Client) Unsubscribe(ctx context.Context, filterList []string) ([]packet.ReasonCode, error) {
	if len(filterList) == 0 {
		return nil, badArgument("unsubscribe requires at least one filter")
	}
	qualified := make([]string, len(filterList))
	for i, f := range filterList {
		qualified[i] = c.qualifyFilter(f)
	}

	reply, err := c.roundTrip(ctx, func(id uint16) packet.Packet {
		return &packet.Unsubscribe{PacketID: id, Filters: qualified}
	})
	if err != nil {
		return nil, err
	}
	unsuback, ok := reply.(*packet.Unsuback)
	if !ok {
		return nil, protocolErr("expected UNSUBACK, got %s", packet.KindName[reply.Kind()])
	}
	for _, f := range qualified {
		c.subs.Unsubscribe(f)
	}
	return unsuback.ReasonCodes, nil
}

// Publish sends a PUBLISH. topic must not contain a wildcard. For qos 0
// the call returns as soon as the packet is written; for qos 1 it waits
// for the matching PUBACK.
func (c *Client) Publish(ctx context.Context, topicName string, payload []byte, qos byte, retain bool) error {
	if topic.HasWildcard(topicName) {
		return badArgument("publish topic %q must not contain a wildcard", topicName)
	}
	if qos > 1 {
		return badArgument("qos %d not supported (QoS 2 is out of scope)", qos)
	}
	if max := c.cfg.Connect.MaximumPacketSize; max != 0 && uint32(len(payload)) > max {
		return badArgument("payload of %d bytes exceeds maximum-packet-size %d", len(payload), max)
	}

	if qos == 0 {
		c.mu.Lock()
		if c.state != Connected {
			c.mu.Unlock()
			return ErrSessionClosed
		}
		cn := c.conn
		c.mu.Unlock()
		pub := &packet.Publish{FixedHeader: packet.FixedHeader{QoS: 0, Retain: retain}, Topic: topicName, Payload: payload}
		return cn.write(pub)
	}

	reply, err := c.roundTrip(ctx, func(id uint16) packet.Packet {
		return &packet.Publish{
			FixedHeader: packet.FixedHeader{QoS: qos, Retain: retain},
			Topic:       topicName,
			PacketID:    id,
			Payload:     payload,
		}
	})
	if err != nil {
		return err
	}
	puback, ok := reply.(*packet.Puback)
	if !ok {
		return protocolErr("expected PUBACK, got %s", packet.KindName[reply.Kind()])
	}
	if puback.ReasonCode.IsError() {
		reason, _ := puback.ReasonString()
		return protocolErr("PUBACK reason 0x%02X (%s): %s", byte(puback.ReasonCode), puback.ReasonCode, reason)
	}
	return nil
}

// PublishDefault calls Publish with the QoS and retain flag configured via
// WithDefaultPublish, for callers that don't need per-call overrides.
func (c *Client) PublishDefault(ctx context.Context, topicName string, payload []byte) error {
	return c.Publish(ctx, topicName, payload, c.cfg.DefaultPublishQoS, c.cfg.DefaultRetain)
}

// pingRoundTrip sends a PINGREQ and blocks until the matching PINGRESP
// arrives, ctx is canceled, or AckTimeout elapses. Shared by Ping and the
// keep-alive loop, since both need the same send-then-await behavior and
// only one PINGREQ can be outstanding at a time.
func (c *Client) pingRoundTrip(ctx context.Context) error {
	c.pingMu.Lock()
	defer c.pingMu.Unlock()

	c.mu.Lock()
	if c.state != Connected {
		c.mu.Unlock()
		return ErrSessionClosed
	}
	cn := c.conn
	c.mu.Unlock()

	ch := c.ping.arm()
	if err := cn.write(&packet.Pingreq{}); err != nil {
		c.ping.disarm(ch)
		return transportErr("writing PINGREQ: %v", err)
	}
	if c.stat != nil {
		c.stat.PingSent.Inc()
	}

	timeout := c.cfg.AckTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		c.ping.disarm(ch)
		return ctx.Err()
	case <-timer.C:
		c.ping.disarm(ch)
		if c.stat != nil {
			c.stat.AckTimeouts.Inc()
		}
		return transportErr("no PINGRESP within %s", timeout)
	}
}

// Ping sends a PINGREQ and waits for the matching PINGRESP. A broker that
// never replies is treated the same as a dead connection: the round trip
// fails with ErrTransport and the whole session is torn down, not just
// this call, since a ping failure means the connection can no longer be
// trusted to carry any other request either.
func (c *Client) Ping(ctx context.Context) error {
	err := c.pingRoundTrip(ctx)
	if err != nil && !errors.Is(err, ErrSessionClosed) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		c.teardown(err)
		c.mu.Lock()
		cancel := c.cancel
		c.mu.Unlock()
		if cancel != nil {
			cancel()
		}
	}
	return err
}

// Disconnect sends DISCONNECT and tears the session down. Idempotent: a
// second call on an already-disconnected client is a no-op.
func (c *Client) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	if c.state != Connected {
		c.mu.Unlock()
		return nil
	}
	cn := c.conn
	cancel := c.cancel
	done := c.done
	c.state = Disconnecting
	c.mu.Unlock()

	writeErr := cn.write(&packet.Disconnect{ReasonCode: packet.NormalDisconnection})
	if cancel != nil {
		cancel()
	}
	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return fmt.Errorf("%w: waiting for teardown: %v", ErrTimeout, ctx.Err())
		}
	}
	return writeErr
}
