package mqtt

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/rafaortegano/tp-taller-go/packet"
)

// stubBroker is a minimal MQTT v5 server good enough to exercise Client's
// request/ack correlation: CONNECT always succeeds, SUBSCRIBE grants
// whatever QoS was asked, PUBLISH at QoS 1 gets a PUBACK, UNSUBSCRIBE
// always succeeds, PINGREQ gets a PINGRESP unless dropPingresp is set (used
// to simulate a broker that has gone silent).
type stubBroker struct {
	ln           net.Listener
	mu           sync.Mutex
	received     []packet.Packet
	dropPingresp bool
}

func newStubBroker(t *testing.T) *stubBroker {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	b := &stubBroker{ln: ln}
	go b.serve(t)
	return b
}

func (b *stubBroker) addr() string { return b.ln.Addr().String() }

func (b *stubBroker) serve(t *testing.T) {
	conn, err := b.ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		pkt, err := packet.Unpack(conn)
		if err != nil {
			return
		}
		b.mu.Lock()
		b.received = append(b.received, pkt)
		b.mu.Unlock()

		switch p := pkt.(type) {
		case *packet.Connect:
			ack := &packet.Connack{ReasonCode: packet.Success}
			if err := ack.Pack(conn); err != nil {
				return
			}
		case *packet.Subscribe:
			codes := make([]packet.ReasonCode, len(p.Filters))
			for i, f := range p.Filters {
				codes[i] = packet.ReasonCode(f.Options.MaxQoS())
			}
			ack := &packet.Suback{PacketID: p.PacketID, ReasonCodes: codes}
			if err := ack.Pack(conn); err != nil {
				return
			}
		case *packet.Unsubscribe:
			codes := make([]packet.ReasonCode, len(p.Filters))
			for i := range codes {
				codes[i] = packet.Success
			}
			ack := &packet.Unsuback{PacketID: p.PacketID, ReasonCodes: codes}
			if err := ack.Pack(conn); err != nil {
				return
			}
		case *packet.Publish:
			if p.QoS() == 1 {
				ack := &packet.Puback{PacketID: p.PacketID, ReasonCode: packet.Success}
				if err := ack.Pack(conn); err != nil {
					return
				}
			}
		case *packet.Pingreq:
			if b.dropPingresp {
				continue
			}
			resp := &packet.Pingresp{}
			if err := resp.Pack(conn); err != nil {
				return
			}
		case *packet.Disconnect:
			return
		}
	}
}

func newConnectedClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	broker := newStubBroker(t)
	base := []Option{WithURL("mqtt://" + broker.addr()), WithAckTimeout(2 * time.Second)}
	client := New(append(base, opts...)...)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	return client
}

func TestClientWithNilLoggerUsesNoop(t *testing.T) {
	client := newConnectedClient(t, WithLogger(nil))
	if _, ok := client.cfg.Logger.(noopLogger); !ok {
		t.Fatalf("Logger = %T, want noopLogger", client.cfg.Logger)
	}
}

func TestClientConnect(t *testing.T) {
	client := newConnectedClient(t)
	if client.State() != Connected {
		t.Fatalf("State() = %v, want Connected", client.State())
	}
}

func TestClientConcurrentPublishQoS1(t *testing.T) {
	client := newConnectedClient(t, WithoutTopicFilterPrefix())

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			errs <- client.Publish(ctx, "sensors/a", []byte{0x01}, 1, false)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("Publish: %v", err)
		}
	}
	if got := client.acks.len(); got != 0 {
		t.Fatalf("pending acks after quiescence = %d, want 0", got)
	}
}

func TestClientPublishDefaultUsesConfiguredQoSAndRetain(t *testing.T) {
	broker := newStubBroker(t)
	client := New(WithURL("mqtt://"+broker.addr()), WithAckTimeout(2*time.Second), WithDefaultPublish(1, true))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := client.PublishDefault(ctx, "sensors/a", []byte("x")); err != nil {
		t.Fatalf("PublishDefault: %v", err)
	}
	broker.mu.Lock()
	defer broker.mu.Unlock()
	for _, pkt := range broker.received {
		if pub, ok := pkt.(*packet.Publish); ok {
			if pub.QoS() != 1 || !pub.Retain() {
				t.Fatalf("PUBLISH qos=%d retain=%v, want qos=1 retain=true", pub.QoS(), pub.Retain())
			}
			return
		}
	}
	t.Fatal("broker received no PUBLISH")
}

func TestClientSubscribeGrantsRequestedQoS(t *testing.T) {
	client := newConnectedClient(t, WithoutTopicFilterPrefix())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	codes, err := client.Subscribe(ctx, []SubscribeRequest{
		{Filter: "t1", QoS: 0},
		{Filter: "t2", QoS: 1},
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if len(codes) != 2 || codes[0] != packet.GrantedQoS0 || codes[1] != packet.GrantedQoS1 {
		t.Fatalf("reason codes = %v, want [0x00 0x01]", codes)
	}
}

func TestClientPublishRejectsWildcardTopic(t *testing.T) {
	client := newConnectedClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := client.Publish(ctx, "sensors/+", []byte("x"), 0, false)
	if err == nil {
		t.Fatal("Publish with wildcard topic should fail")
	}
}

func TestClientSubscribeRejectsEmptyList(t *testing.T) {
	client := newConnectedClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := client.Subscribe(ctx, nil); err == nil {
		t.Fatal("Subscribe with no filters should fail")
	}
}

func TestClientConnectTracksByteAndPacketStats(t *testing.T) {
	client := newConnectedClient(t)
	if testutil.ToFloat64(client.stat.PacketSent) == 0 {
		t.Error("PacketSent should be nonzero after CONNECT")
	}
	if testutil.ToFloat64(client.stat.PacketReceived) == 0 {
		t.Error("PacketReceived should be nonzero after CONNACK")
	}
	if testutil.ToFloat64(client.stat.ByteReceived) == 0 {
		t.Error("ByteReceived should be nonzero after CONNACK")
	}
}

func TestClientPingAwaitsPingresp(t *testing.T) {
	client := newConnectedClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if testutil.ToFloat64(client.stat.PongReceived) == 0 {
		t.Fatal("PongReceived should be nonzero once Ping returns successfully")
	}
}

// TestClientPingTimesOutAgainstDeadBroker exercises a broker that accepts
// PINGREQ but never answers it: Ping must time out rather than hang, and
// the failure must tear the whole session down, not just the one call.
func TestClientPingTimesOutAgainstDeadBroker(t *testing.T) {
	broker := newStubBroker(t)
	broker.dropPingresp = true
	client := New(WithURL("mqtt://"+broker.addr()), WithAckTimeout(200*time.Millisecond))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), time.Second)
	defer pingCancel()
	err := client.Ping(pingCtx)
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("Ping against dead broker error = %v, want ErrTransport", err)
	}

	deadline := time.After(time.Second)
	for client.State() != Disconnected {
		select {
		case <-deadline:
			t.Fatalf("State() = %v after failed ping, want Disconnected", client.State())
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// TestClientKeepAliveTearsDownOnMissingPingresp exercises scenario S6: a
// broker that stops responding must surface as a torn-down session once
// the keep-alive loop's own ping goes unanswered.
func TestClientKeepAliveTearsDownOnMissingPingresp(t *testing.T) {
	broker := newStubBroker(t)
	broker.dropPingresp = true
	client := New(
		WithURL("mqtt://"+broker.addr()),
		WithAckTimeout(150*time.Millisecond),
		WithKeepAlive(300*time.Millisecond),
	)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for client.State() != Disconnected {
		select {
		case <-deadline:
			t.Fatalf("State() = %v, want Disconnected after a missed keep-alive ping", client.State())
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestClientDisconnectRejectsLaterRequests(t *testing.T) {
	client := newConnectedClient(t, WithoutTopicFilterPrefix())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if client.State() != Disconnected {
		t.Fatalf("State() after Disconnect = %v, want Disconnected", client.State())
	}

	_, err := client.Subscribe(ctx, []SubscribeRequest{{Filter: "t1"}})
	if err == nil {
		t.Fatal("Subscribe after Disconnect should fail")
	}
}
