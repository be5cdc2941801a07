package mqtt

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"golang.org/x/net/websocket"
)

// dial opens a transport to addr according to the URL scheme: "mqtt"/"tcp"
// for raw TCP or "ws" for the optional WebSocket transport. TLS is out of
// scope (see DESIGN.md), so "mqtts"/"wss"/"tls" are rejected rather than
// silently downgraded.
func dial(ctx context.Context, u *url.URL, timeout time.Duration) (net.Conn, error) {
	switch u.Scheme {
	case "", "mqtt", "tcp":
		d := &net.Dialer{Timeout: timeout}
		conn, err := d.DialContext(ctx, "tcp", u.Host)
		if err != nil {
			return nil, transportErr("dialing %s: %v", u.Host, err)
		}
		return conn, nil
	case "ws":
		path := u.Path
		if path == "" {
			path = "/mqtt"
		}
		origin := fmt.Sprintf("http://%s", u.Host)
		target := fmt.Sprintf("ws://%s%s", u.Host, path)
		cfg, err := websocket.NewConfig(target, origin)
		if err != nil {
			return nil, transportErr("building websocket config: %v", err)
		}
		cfg.Protocol = []string{"mqtt"}
		conn, err := websocket.DialConfig(cfg)
		if err != nil {
			return nil, transportErr("dialing websocket %s: %v", target, err)
		}
		conn.PayloadType = websocket.BinaryFrame
		return conn, nil
	case "mqtts", "wss", "tls":
		return nil, transportErr("scheme %q requires TLS, out of scope for this client", u.Scheme)
	default:
		return nil, transportErr("unsupported URL scheme %q", u.Scheme)
	}
}
