package mqtt

import (
	"context"
	"errors"
	"time"
)

// minKeepAliveTick is the floor on the ticker period regardless of how
// short ClientConfig.KeepAlive is, so a 1-second keep-alive doesn't spin a
// sub-second ticker.
const minKeepAliveTick = time.Second

// keepAliveLoop sends a PINGREQ every keepAlive/2 (floored at
// minKeepAliveTick) and awaits its PINGRESP before the next tick. A ping
// that never gets answered ends the loop with an error, which run()
// propagates through the errgroup to tear the whole session down: a
// broker that stops responding to PINGREQ is exactly as dead as one whose
// socket errors outright.
func (c *Client) keepAliveLoop(ctx context.Context) error {
	if c.cfg.KeepAlive <= 0 {
		<-ctx.Done()
		return nil
	}
	period := c.cfg.KeepAlive / 2
	if period < minKeepAliveTick {
		period = minKeepAliveTick
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := c.pingRoundTrip(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
		}
	}
}
