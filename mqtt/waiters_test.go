package mqtt

import (
	"testing"

	"github.com/rafaortegano/tp-taller-go/packet"
)

func TestPendingAcksAllocateSkipsZeroAndOutstanding(t *testing.T) {
	p := newPendingAcks()
	id, _ := p.allocate()
	if id == 0 {
		t.Fatal("allocate() returned packet-id 0")
	}
	second, _ := p.allocate()
	if second == id {
		t.Fatalf("allocate() returned %d twice while first is outstanding", id)
	}
}

func TestPendingAcksDeliverAndRelease(t *testing.T) {
	p := newPendingAcks()
	id, waiter := p.allocate()

	ack := &packet.Puback{PacketID: id}
	if !p.deliver(id, ack) {
		t.Fatal("deliver() on a registered id should succeed")
	}
	select {
	case got := <-waiter.ch:
		if got != ack {
			t.Fatal("waiter received the wrong packet")
		}
	default:
		t.Fatal("waiter channel should have the delivered packet buffered")
	}
	if p.deliver(id, ack) {
		t.Fatal("deliver() on an already-delivered id should report false")
	}
}

func TestPendingAcksDrainUnblocksWaiters(t *testing.T) {
	p := newPendingAcks()
	_, waiter := p.allocate()
	p.drain()
	select {
	case got := <-waiter.ch:
		if got != nil {
			t.Fatal("drained waiter should receive nil")
		}
	default:
		t.Fatal("drain() should deliver to every outstanding waiter")
	}
	if p.len() != 0 {
		t.Fatalf("len() after drain = %d, want 0", p.len())
	}
}
