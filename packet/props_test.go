package packet

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
)

func TestPropertySetPreservesUserPropertyOrder(t *testing.T) {
	props := PropertySet{
		{ID: UserProperty, Name: "a", Value: "1"},
		{ID: UserProperty, Name: "b", Value: "2"},
		{ID: UserProperty, Name: "a", Value: "3"},
	}
	var buf bytes.Buffer
	if err := props.Pack(&buf); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	decoded, err := UnpackPropertySet(&buf)
	if err != nil {
		t.Fatalf("UnpackPropertySet: %v", err)
	}
	if len(decoded) != 3 {
		t.Fatalf("len(decoded) = %d, want 3", len(decoded))
	}
	want := [][2]string{{"a", "1"}, {"b", "2"}, {"a", "3"}}
	for i, p := range decoded {
		if p.Name != want[i][0] || p.Value != want[i][1] {
			t.Fatalf("decoded[%d] = %q/%q, want %q/%q", i, p.Name, p.Value, want[i][0], want[i][1])
		}
	}
}

func TestPropertySetUnknownIDIsMalformed(t *testing.T) {
	var body bytes.Buffer
	body.WriteByte(0x0A) // not in propertyKinds
	length, err := encodeVBI(uint32(body.Len()))
	if err != nil {
		t.Fatalf("encodeVBI: %v", err)
	}
	var wire bytes.Buffer
	wire.Write(length)
	wire.Write(body.Bytes())

	if _, err := UnpackPropertySet(&wire); !errors.Is(err, ErrMalformed) {
		t.Fatalf("UnpackPropertySet(unknown id) error = %v, want ErrMalformed", err)
	}
}

func TestPropertySetEmpty(t *testing.T) {
	var props PropertySet
	var buf bytes.Buffer
	if err := props.Pack(&buf); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if buf.Len() != 1 || buf.Bytes()[0] != 0x00 {
		t.Fatalf("empty property set encoded as % X, want single 0x00", buf.Bytes())
	}
	decoded, err := UnpackPropertySet(&buf)
	if err != nil {
		t.Fatalf("UnpackPropertySet: %v", err)
	}
	if len(decoded) != 0 {
		t.Fatalf("len(decoded) = %d, want 0", len(decoded))
	}
}

func TestPropertyKindRoundTrip(t *testing.T) {
	props := PropertySet{
		{ID: PayloadFormatIndicator, Byte: 1},
		{ID: MessageExpiryInterval, U32: 3600},
		{ID: ContentType, Str: "text/plain"},
		{ID: CorrelationData, Bin: []byte{0x01, 0x02}},
		{ID: SubscriptionIdentifier, VBI: 42},
		{ID: ServerKeepAlive, U16: 30},
	}
	var buf bytes.Buffer
	if err := props.Pack(&buf); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	decoded, err := UnpackPropertySet(&buf)
	if err != nil {
		t.Fatalf("UnpackPropertySet: %v", err)
	}
	if len(decoded) != len(props) {
		t.Fatalf("len(decoded) = %d, want %d", len(decoded), len(props))
	}
	for i := range props {
		if !reflect.DeepEqual(decoded[i], props[i]) {
			t.Fatalf("decoded[%d] = %+v, want %+v", i, decoded[i], props[i])
		}
	}
}
