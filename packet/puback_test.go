package packet

import (
	"bytes"
	"testing"
)

func TestPubackShortFormOmitsReasonAndProps(t *testing.T) {
	p := &Puback{PacketID: 9, ReasonCode: Success}
	var buf bytes.Buffer
	if err := p.Pack(&buf); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	header, err := readFixedHeader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("readFixedHeader: %v", err)
	}
	if header.RemainingLength != 2 {
		t.Fatalf("remaining length = %d, want 2 (short form)", header.RemainingLength)
	}
}

func TestPubackLongFormWithErrorReasonAndString(t *testing.T) {
	p := &Puback{
		PacketID:   9,
		ReasonCode: UnspecifiedError,
		Props:      PropertySet{{ID: ReasonString, Str: "no route"}},
	}
	var buf bytes.Buffer
	if err := p.Pack(&buf); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	got, err := Unpack(&buf)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	decoded := got.(*Puback)
	if !decoded.ReasonCode.IsError() {
		t.Fatalf("reason code %v should be an error", decoded.ReasonCode)
	}
	reason, ok := decoded.ReasonString()
	if !ok || reason != "no route" {
		t.Fatalf("ReasonString() = %q, %v", reason, ok)
	}
}

func TestPubackShortFormUnpackDefaultsToSuccess(t *testing.T) {
	var body bytes.Buffer
	body.Write(i2b(3)) // just the packet-id, nothing else
	p := &Puback{}
	if err := p.Unpack(&body); err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if p.ReasonCode != Success {
		t.Fatalf("ReasonCode = %v, want Success", p.ReasonCode)
	}
}
