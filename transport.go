package mqttlite

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/quic-go/quic-go"
)

// Transport carries MQTT bytes between the client and the server.
//
// Read returns (0, nil) when the peer closed the connection and
// ErrWouldBlock when a non-blocking read finds no data. Write and
// WriteVectored return only once every byte has been written or on error.
type Transport interface {
	Connect(ctx context.Context) error
	Write(data []byte) error
	WriteVectored(bufs [][]byte) error
	Read(buf []byte, blocking bool) (int, error)
	Disconnect() error
}

// TransportType selects a Transport implementation.
type TransportType int

const (
	TransportTCP TransportType = iota
	TransportTLS
	TransportWebSocket
	TransportSOCKS5
	TransportQUIC
	TransportUnix
)

// String returns the string representation of the transport type.
func (t TransportType) String() string {
	switch t {
	case TransportTCP:
		return "tcp"
	case TransportTLS:
		return "tls"
	case TransportWebSocket:
		return "websocket"
	case TransportSOCKS5:
		return "socks5"
	case TransportQUIC:
		return "quic"
	case TransportUnix:
		return "unix"
	default:
		return "unknown"
	}
}

// ParseTransportType returns the transport type for its string form.
func ParseTransportType(s string) (TransportType, error) {
	for t := TransportTCP; t <= TransportUnix; t++ {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown transport %q", ErrInvalidArgument, s)
}

// DefaultPollInterval bounds how long a non-blocking read waits for data.
const DefaultPollInterval = time.Millisecond

// TransportConfig describes how to reach the server.
type TransportConfig struct {
	Type TransportType

	// Address is host:port for TCP, TLS, SOCKS5 and QUIC, a ws:// or wss://
	// URL for WebSocket and a socket path for Unix.
	Address string

	// TLSConfig is used by TLS and QUIC, and by WebSocket for wss:// URLs.
	TLSConfig *tls.Config

	DialTimeout  time.Duration
	PollInterval time.Duration

	// SOCKS5 proxy.
	ProxyAddress  string
	ProxyUsername string
	ProxyPassword string

	// WebSocketHeader is sent with the WebSocket handshake.
	WebSocketHeader http.Header

	QUICConfig *quic.Config
}

// NewTransport returns the Transport for cfg.Type.
func NewTransport(cfg TransportConfig) (Transport, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("%w: empty transport address", ErrInvalidArgument)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}

	switch cfg.Type {
	case TransportTCP:
		return newConnTransport(cfg, dialNet(cfg, "tcp")), nil
	case TransportUnix:
		return newConnTransport(cfg, dialNet(cfg, "unix")), nil
	case TransportTLS:
		return newConnTransport(cfg, dialTLS(cfg)), nil
	case TransportSOCKS5:
		return newConnTransport(cfg, dialSOCKS5(cfg)), nil
	case TransportQUIC:
		return newConnTransport(cfg, dialQUIC(cfg)), nil
	case TransportWebSocket:
		return newWSTransport(cfg), nil
	default:
		return nil, fmt.Errorf("%w: unsupported transport %d", ErrInvalidArgument, cfg.Type)
	}
}

type dialFunc func(ctx context.Context) (net.Conn, error)

func dialNet(cfg TransportConfig, network string) dialFunc {
	return func(ctx context.Context) (net.Conn, error) {
		dialer := net.Dialer{Timeout: cfg.DialTimeout}
		return dialer.DialContext(ctx, network, cfg.Address)
	}
}

func dialTLS(cfg TransportConfig) dialFunc {
	return func(ctx context.Context) (net.Conn, error) {
		dialer := &tls.Dialer{
			NetDialer: &net.Dialer{Timeout: cfg.DialTimeout},
			Config:    cfg.TLSConfig,
		}
		return dialer.DialContext(ctx, "tcp", cfg.Address)
	}
}

// connTransport is a Transport over a net.Conn. Non-blocking reads use a
// short read deadline.
type connTransport struct {
	dial         dialFunc
	pollInterval time.Duration
	conn         net.Conn
}

func newConnTransport(cfg TransportConfig, dial dialFunc) *connTransport {
	return &connTransport{
		dial:         dial,
		pollInterval: cfg.PollInterval,
	}
}

func (t *connTransport) Connect(ctx context.Context) error {
	if t.conn != nil {
		return ErrAlreadyConnected
	}

	conn, err := t.dial(ctx)
	if err != nil {
		return err
	}

	t.conn = conn
	return nil
}

func (t *connTransport) Write(data []byte) error {
	if t.conn == nil {
		return ErrNotConnected
	}

	for len(data) > 0 {
		n, err := t.conn.Write(data)
		if err != nil {
			return err
		}
		data = data[n:]
	}

	return nil
}

func (t *connTransport) WriteVectored(bufs [][]byte) error {
	if t.conn == nil {
		return ErrNotConnected
	}

	// WriteTo consumes the slice it is called on.
	b := make(net.Buffers, len(bufs))
	copy(b, bufs)

	_, err := b.WriteTo(t.conn)
	return err
}

func (t *connTransport) Read(buf []byte, blocking bool) (int, error) {
	if t.conn == nil {
		return 0, ErrNotConnected
	}

	var deadline time.Time
	if !blocking {
		deadline = time.Now().Add(t.pollInterval)
	}
	if err := t.conn.SetReadDeadline(deadline); err != nil {
		return 0, err
	}

	n, err := t.conn.Read(buf)
	if n > 0 {
		return n, nil
	}

	return 0, readError(err)
}

func (t *connTransport) Disconnect() error {
	if t.conn == nil {
		return nil
	}

	err := t.conn.Close()
	t.conn = nil
	return err
}

// readError maps a failed read onto the Transport contract.
func readError(err error) error {
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrWouldBlock
	}

	return err
}
