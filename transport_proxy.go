package mqttlite

import (
	"context"
	"fmt"
	"net"

	"golang.org/x/net/proxy"
)

// dialSOCKS5 reaches cfg.Address through the SOCKS5 proxy at cfg.ProxyAddress.
func dialSOCKS5(cfg TransportConfig) dialFunc {
	return func(ctx context.Context) (net.Conn, error) {
		if cfg.ProxyAddress == "" {
			return nil, fmt.Errorf("%w: empty SOCKS5 proxy address", ErrInvalidArgument)
		}

		var auth *proxy.Auth
		if cfg.ProxyUsername != "" {
			auth = &proxy.Auth{
				User:     cfg.ProxyUsername,
				Password: cfg.ProxyPassword,
			}
		}

		forward := &net.Dialer{Timeout: cfg.DialTimeout}

		dialer, err := proxy.SOCKS5("tcp", cfg.ProxyAddress, auth, forward)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}

		var conn net.Conn
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			conn, err = cd.DialContext(ctx, "tcp", cfg.Address)
		} else {
			conn, err = dialer.Dial("tcp", cfg.Address)
		}
		if err != nil {
			return nil, fmt.Errorf("SOCKS5 dial failed: %w", err)
		}

		return conn, nil
	}
}
