package mqttlite

import (
	"math"
	"time"
)

// KeepaliveDisabled is returned by KeepaliveTimeLeft when keep-alive is off.
const KeepaliveDisabled time.Duration = math.MaxInt64

// keepAliveInterval returns the effective keep-alive, which the server may
// have overridden in CONNACK.
func (c *Client) keepAliveInterval() time.Duration {
	return time.Duration(c.keepAlive) * time.Second
}

// Live sends PINGREQ when the keep-alive interval has passed since the last
// packet was sent. It returns ErrWouldBlock when no ping is due, including
// when keep-alive is disabled.
func (c *Client) Live() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.keepAlive == 0 {
		return ErrWouldBlock
	}

	elapsed := c.options.clock().Sub(c.lastActivity)
	if elapsed < c.keepAliveInterval() {
		return ErrWouldBlock
	}

	if c.unackedPing > 0 {
		c.logger.Warn("ping still unacknowledged", LogFields{"unacked": c.unackedPing})
	}

	return c.ping()
}

// KeepaliveTimeLeft returns how long the caller may wait before calling
// Live, or KeepaliveDisabled.
func (c *Client) KeepaliveTimeLeft() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.keepAlive == 0 {
		return KeepaliveDisabled
	}

	left := c.keepAliveInterval() - c.options.clock().Sub(c.lastActivity)
	if left < 0 {
		return 0
	}
	return left
}

// UnackedPings returns the number of PINGREQ packets sent without a
// PINGRESP yet.
func (c *Client) UnackedPings() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.unackedPing
}
