// Package mqtt implements an MQTT v5.0 client session: the connect/
// subscribe/publish/unsubscribe request-ack cycle, packet-identifier
// allocation, keep-alive timing, and the concurrency model that lets one
// goroutine publish while a background reader fans inbound messages out
// to the caller.
package mqtt

import (
	"errors"
	"fmt"
)

// Error taxonomy. Every error Client returns wraps exactly one of these,
// so callers can branch with errors.Is regardless of the underlying cause;
// the exception is a canceled or expired ctx passed to a request, whose
// ctx.Err() is returned as-is.
var (
	// ErrMalformed is a wire-format violation. A packet that cannot be
	// encoded fails only the request that built it; a packet read from the
	// broker that fails to decode ends the session.
	ErrMalformed = errors.New("mqtt: malformed packet")
	// ErrProtocol is a well-formed packet used in the wrong context, or an
	// error reason code on a reply. Fatal to the request that triggered it;
	// a failed CONNECT leaves the client Disconnected.
	ErrProtocol = errors.New("mqtt: protocol error")
	// ErrTransport is a socket I/O failure. Fatal to the session.
	ErrTransport = errors.New("mqtt: transport error")
	// ErrTimeout is an ack-wait deadline expiring. Fatal only to the
	// request that timed out; the session and its other pending
	// requests are unaffected.
	ErrTimeout = errors.New("mqtt: timed out waiting for acknowledgement")
	// ErrSessionClosed is returned synchronously by any request issued
	// after the session has begun tearing down.
	ErrSessionClosed = errors.New("mqtt: session closed")
	// ErrBadArgument is a caller-side mistake: a wildcard in a publish
	// topic, an empty subscribe list, a payload over maximum-packet-size.
	ErrBadArgument = errors.New("mqtt: bad argument")
)

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrMalformed}, args...)...)
}

func protocolErr(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrProtocol}, args...)...)
}

func transportErr(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrTransport}, args...)...)
}

func badArgument(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrBadArgument}, args...)...)
}
