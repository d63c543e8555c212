package mqttlite

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// WebSocketSubprotocol is the MQTT WebSocket subprotocol.
	WebSocketSubprotocol = "mqtt"
)

// ErrWebSocketTextFrame is returned when the server sends a text frame.
var ErrWebSocketTextFrame = fmt.Errorf("%w: text frame on MQTT WebSocket", ErrMalformedPacket)

// wsTransport carries MQTT in binary WebSocket messages. A read deadline
// would break the websocket connection, so messages are received by a pump
// goroutine and non-blocking reads wait on its channel for at most the poll
// interval.
type wsTransport struct {
	url          string
	dialer       *websocket.Dialer
	header       http.Header
	pollInterval time.Duration

	conn    *websocket.Conn
	session *wsSession
	pending []byte
}

// wsSession is the state shared with the pump of one connection.
type wsSession struct {
	frames chan []byte
	done   chan struct{}
	once   sync.Once

	// err is written by the pump before frames is closed.
	err error
}

func newWSTransport(cfg TransportConfig) *wsTransport {
	header := cfg.WebSocketHeader
	if header == nil {
		header = http.Header{}
	}

	return &wsTransport{
		url:          cfg.Address,
		header:       header,
		pollInterval: cfg.PollInterval,
		dialer: &websocket.Dialer{
			Subprotocols:     []string{WebSocketSubprotocol},
			ReadBufferSize:   4096,
			WriteBufferSize:  4096,
			HandshakeTimeout: cfg.DialTimeout,
			TLSClientConfig:  cfg.TLSConfig,
		},
	}
}

func (t *wsTransport) Connect(ctx context.Context) error {
	if t.conn != nil {
		return ErrAlreadyConnected
	}

	conn, resp, err := t.dialer.DialContext(ctx, t.url, t.header)
	if err != nil {
		return err
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	t.conn = conn
	t.pending = nil
	t.session = &wsSession{
		frames: make(chan []byte, 1),
		done:   make(chan struct{}),
	}

	go wsPump(conn, t.session)

	return nil
}

func wsPump(conn *websocket.Conn, s *wsSession) {
	defer close(s.frames)

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			s.err = err
			return
		}

		if messageType != websocket.BinaryMessage {
			s.err = ErrWebSocketTextFrame
			return
		}

		select {
		case s.frames <- data:
		case <-s.done:
			return
		}
	}
}

func (t *wsTransport) Write(data []byte) error {
	if t.conn == nil {
		return ErrNotConnected
	}
	return t.conn.WriteMessage(websocket.BinaryMessage, data)
}

// WriteVectored sends all buffers as a single binary message.
func (t *wsTransport) WriteVectored(bufs [][]byte) error {
	if t.conn == nil {
		return ErrNotConnected
	}

	w, err := t.conn.NextWriter(websocket.BinaryMessage)
	if err != nil {
		return err
	}

	for _, b := range bufs {
		if _, err := w.Write(b); err != nil {
			w.Close()
			return err
		}
	}

	return w.Close()
}

func (t *wsTransport) Read(buf []byte, blocking bool) (int, error) {
	if t.conn == nil {
		return 0, ErrNotConnected
	}

	if len(t.pending) == 0 {
		var (
			data []byte
			ok   bool
		)

		if blocking {
			data, ok = <-t.session.frames
		} else {
			timer := time.NewTimer(t.pollInterval)
			select {
			case data, ok = <-t.session.frames:
				timer.Stop()
			case <-timer.C:
				return 0, ErrWouldBlock
			}
		}

		if !ok {
			return 0, t.closeError()
		}
		t.pending = data
	}

	n := copy(buf, t.pending)
	t.pending = t.pending[n:]
	return n, nil
}

// closeError reports why the pump stopped. A normal close reads as a peer
// close.
func (t *wsTransport) closeError() error {
	err := t.session.err
	if err == nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return nil
	}
	if errors.Is(err, ErrWebSocketTextFrame) {
		return err
	}
	return readError(err)
}

func (t *wsTransport) Disconnect() error {
	if t.conn == nil {
		return nil
	}

	conn := t.conn
	t.conn = nil

	s := t.session
	s.once.Do(func() { close(s.done) })

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteMessage(websocket.CloseMessage, msg)

	return conn.Close()
}
