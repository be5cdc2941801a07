package packet

import (
	"bytes"
	"fmt"
	"io"
)

// protocolName is the fixed UTF-8 string "MQTT" at the head of every
// CONNECT variable header.
var protocolName = []byte{0x00, 0x04, 'M', 'Q', 'T', 'T'}

// ProtocolVersion is the only version this codec speaks.
const ProtocolVersion byte = 5

// ConnectFlags packs the bit field that follows the protocol version byte
// in a CONNECT packet.
type ConnectFlags struct {
	CleanStart  bool
	WillFlag    bool
	WillQoS     byte
	WillRetain  bool
	HasPassword bool
	HasUsername bool
}

func (f ConnectFlags) encode() byte {
	var b byte
	if f.CleanStart {
		b |= 1 << 1
	}
	if f.WillFlag {
		b |= 1 << 2
		b |= (f.WillQoS & 0x03) << 3
	}
	if f.WillRetain {
		b |= 1 << 5
	}
	if f.HasPassword {
		b |= 1 << 6
	}
	if f.HasUsername {
		b |= 1 << 7
	}
	return b
}

func decodeConnectFlags(b byte) (ConnectFlags, error) {
	if b&0x01 != 0 {
		return ConnectFlags{}, fmt.Errorf("%w: CONNECT flags reserved bit0 must be 0", ErrMalformed)
	}
	f := ConnectFlags{
		CleanStart:  b&(1<<1) != 0,
		WillFlag:    b&(1<<2) != 0,
		WillQoS:     (b >> 3) & 0x03,
		WillRetain:  b&(1<<5) != 0,
		HasPassword: b&(1<<6) != 0,
		HasUsername: b&(1<<7) != 0,
	}
	if !f.WillFlag && f.WillQoS != 0 {
		return ConnectFlags{}, fmt.Errorf("%w: CONNECT will-qos set without will-flag", ErrMalformed)
	}
	if f.WillQoS > 2 {
		return ConnectFlags{}, fmt.Errorf("%w: CONNECT will-qos %d > 2", ErrMalformed, f.WillQoS)
	}
	return f, nil
}

// Will describes the optional last-will message carried in CONNECT.
type Will struct {
	Props   PropertySet
	Topic   string
	Payload []byte
}

// Connect is the CONNECT control packet: the client's connection handshake.
type Connect struct {
	Flags     ConnectFlags
	KeepAlive uint16
	Props     PropertySet
	ClientID  string
	Will      *Will
	Username  string
	Password  []byte
}

func (c *Connect) Kind() byte { return KindConnect }

// Pack serializes the full CONNECT packet, fixed header included.
func (c *Connect) Pack(w io.Writer) error {
	var body bytes.Buffer
	body.Write(protocolName)
	body.WriteByte(ProtocolVersion)

	flags := c.Flags
	flags.WillFlag = c.Will != nil
	body.WriteByte(flags.encode())
	body.Write(i2b(c.KeepAlive))

	if err := c.Props.Pack(&body); err != nil {
		return err
	}
	clientID, err := encodeUTF8(c.ClientID)
	if err != nil {
		return err
	}
	body.Write(clientID)

	if c.Will != nil {
		if err := c.Will.Props.Pack(&body); err != nil {
			return err
		}
		willTopic, err := encodeUTF8(c.Will.Topic)
		if err != nil {
			return err
		}
		willPayload, err := encodeBinary(c.Will.Payload)
		if err != nil {
			return err
		}
		body.Write(willTopic)
		body.Write(willPayload)
	}
	if flags.HasUsername {
		username, err := encodeUTF8(c.Username)
		if err != nil {
			return err
		}
		body.Write(username)
	}
	if flags.HasPassword {
		password, err := encodeBinary(c.Password)
		if err != nil {
			return err
		}
		body.Write(password)
	}

	header := &FixedHeader{Kind: KindConnect, RemainingLength: uint32(body.Len())}
	if err := header.Pack(w); err != nil {
		return err
	}
	_, err = w.Write(body.Bytes())
	return err
}

// Unpack decodes a CONNECT body (the fixed header has already been consumed).
func (c *Connect) Unpack(buf *bytes.Buffer) error {
	name := make([]byte, 6)
	if n, err := buf.Read(name); err != nil || n != 6 || !bytes.Equal(name, protocolName) {
		return fmt.Errorf("%w: CONNECT protocol name mismatch", ErrMalformed)
	}
	version, err := buf.ReadByte()
	if err != nil {
		return fmt.Errorf("%w: reading CONNECT protocol version: %v", ErrMalformed, err)
	}
	if version != ProtocolVersion {
		return fmt.Errorf("%w: unsupported protocol version %d", ErrMalformed, version)
	}
	flagByte, err := buf.ReadByte()
	if err != nil {
		return fmt.Errorf("%w: reading CONNECT flags: %v", ErrMalformed, err)
	}
	flags, err := decodeConnectFlags(flagByte)
	if err != nil {
		return err
	}
	c.Flags = flags

	keepAlive, err := b2i(buf)
	if err != nil {
		return fmt.Errorf("%w: reading CONNECT keep-alive: %v", ErrMalformed, err)
	}
	c.KeepAlive = keepAlive

	props, err := UnpackPropertySet(buf)
	if err != nil {
		return err
	}
	c.Props = props

	clientID, err := decodeUTF8(buf)
	if err != nil {
		return fmt.Errorf("%w: reading CONNECT client-id: %v", ErrMalformed, err)
	}
	c.ClientID = clientID

	if flags.WillFlag {
		willProps, err := UnpackPropertySet(buf)
		if err != nil {
			return err
		}
		topic, err := decodeUTF8(buf)
		if err != nil {
			return fmt.Errorf("%w: reading CONNECT will-topic: %v", ErrMalformed, err)
		}
		payload, err := decodeBinary(buf)
		if err != nil {
			return fmt.Errorf("%w: reading CONNECT will-payload: %v", ErrMalformed, err)
		}
		c.Will = &Will{Props: willProps, Topic: topic, Payload: payload}
	}
	if flags.HasUsername {
		username, err := decodeUTF8(buf)
		if err != nil {
			return fmt.Errorf("%w: reading CONNECT username: %v", ErrMalformed, err)
		}
		c.Username = username
	}
	if flags.HasPassword {
		password, err := decodeBinary(buf)
		if err != nil {
			return fmt.Errorf("%w: reading CONNECT password: %v", ErrMalformed, err)
		}
		c.Password = password
	}
	return nil
}
