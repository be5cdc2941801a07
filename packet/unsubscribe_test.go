package packet

import (
	"bytes"
	"errors"
	"testing"
)

func TestUnsubscribeRejectsEmptyFilterListOnPack(t *testing.T) {
	u := &Unsubscribe{PacketID: 1}
	var buf bytes.Buffer
	if err := u.Pack(&buf); !errors.Is(err, ErrBadArgument) {
		t.Fatalf("Pack with no filters error = %v, want ErrBadArgument", err)
	}
}

func TestUnsubscribeMultipleFiltersRoundTrip(t *testing.T) {
	u := &Unsubscribe{PacketID: 8, Filters: []string{"x/1", "x/2", "x/3"}}
	var buf bytes.Buffer
	if err := u.Pack(&buf); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	got, err := Unpack(&buf)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	decoded := got.(*Unsubscribe)
	if len(decoded.Filters) != 3 || decoded.Filters[2] != "x/3" {
		t.Fatalf("decoded filters = %v", decoded.Filters)
	}
}
