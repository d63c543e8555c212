package mqttlite

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// State is the connection state of a Client. States are ordered: a client
// in StateConnected is also TCP connected.
type State int

const (
	StateIdle State = iota
	StateTCPConnecting
	StateTCPConnected
	StateConnected
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTCPConnecting:
		return "tcp_connecting"
	case StateTCPConnected:
		return "tcp_connected"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

const maxUnackedPings = 127

// Client is an MQTT 3.1, 3.1.1 and 5.0 client protocol engine.
//
// Client runs no goroutines. The caller drives it by calling Input when
// the transport has data and Live at least once per keep-alive interval.
// Packets are encoded into the TX buffer and reassembled in the RX buffer
// passed to NewClient; the client never grows either.
//
// All methods are safe for concurrent use. The event handler is called
// without the client lock held, so it may call back into the client.
type Client struct {
	mu sync.Mutex

	options   *clientOptions
	transport Transport
	logger    Logger
	metrics   *ClientMetrics

	version   ProtocolVersion
	clientID  []byte
	keepAlive uint16

	tx []byte
	rx []byte

	// rxUsed is the number of bytes of the current inbound packet held in rx.
	rxUsed int
	// remainingPayload counts PUBLISH payload bytes still on the transport.
	remainingPayload int

	state        State
	lastActivity time.Time
	connectStart time.Time
	unackedPing  int
	aliases      *topicAliasTable
	limits       propLimits

	partialLog *rate.Limiter
	droppedLog *rate.Limiter
}

// NewClient creates a client that encodes into tx and receives into rx.
// The RX buffer must hold the largest inbound packet apart from PUBLISH
// payloads, which are streamed with ReadPublishPayload.
func NewClient(tx, rx []byte, opts ...Option) (*Client, error) {
	if len(tx) == 0 || len(rx) == 0 {
		return nil, ErrBufferOverflow
	}

	options := applyOptions(opts...)
	if !options.protocolVersion.Valid() {
		return nil, ErrInvalidArgument
	}

	transport := options.transport
	if transport == nil {
		var err error
		transport, err = NewTransport(options.transportConfig)
		if err != nil {
			return nil, err
		}
	}

	clientID := options.clientID
	if len(clientID) == 0 {
		clientID = []byte(GenerateClientID())
	}

	c := &Client{
		options:    options,
		transport:  transport,
		metrics:    NewClientMetrics(options.metrics),
		version:    options.protocolVersion,
		clientID:   clientID,
		keepAlive:  options.keepAlive,
		tx:         tx,
		rx:         rx,
		partialLog: rate.NewLimiter(rate.Every(time.Second), 1),
		droppedLog: rate.NewLimiter(rate.Every(time.Second), 1),
	}

	c.logger = options.logger.WithFields(LogFields{
		LogFieldClientID: string(clientID),
		LogFieldVersion:  options.protocolVersion.String(),
	})

	if c.version == ProtocolVersion50 && options.topicAliasMaximum > 0 {
		c.aliases = newTopicAliasTable(options.topicAliasMaximum, options.topicAliasMaxLength)
	}

	c.limits = propLimits{
		userProperties:  options.maxUserProperties,
		subscriptionIDs: options.maxSubscriptionIDs,
		dropped:         c.propertyDropped,
	}

	return c, nil
}

// State returns the connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// ProtocolVersion returns the protocol version the client speaks.
func (c *Client) ProtocolVersion() ProtocolVersion {
	return c.version
}

// ClientID returns the client identifier, which the server may have
// assigned in CONNACK.
func (c *Client) ClientID() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return string(c.clientID)
}

// Connect opens the transport and sends CONNECT. The connection is
// established once the CONNACK event reports success. Any failure closes
// the transport and raises a DISCONNECT event.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle {
		return ErrAlreadyConnected
	}

	c.state = StateTCPConnecting
	c.keepAlive = c.options.keepAlive
	c.connectStart = c.options.clock()

	if err := c.transport.Connect(ctx); err != nil {
		c.logger.Error("transport connect failed", LogFields{LogFieldError: err.Error()})
		c.disconnect(&ConnectionLostError{Cause: err}, nil, true)
		return err
	}
	c.state = StateTCPConnected

	cur := newCursor(c.tx)
	if err := encodeConnect(cur, c.connectRequest()); err != nil {
		err = wrapPacketError(PacketCONNECT, err)
		c.logger.Error("encode failed", LogFields{LogFieldError: err.Error()})
		c.disconnect(&ConnectionLostError{Cause: err}, nil, true)
		return err
	}

	if err := c.write(PacketCONNECT, cur.bytes()); err != nil {
		return err
	}

	c.unackedPing = 0
	c.metrics.PingsUnacked(0)
	c.logger.Debug("CONNECT sent", LogFields{"keep_alive": c.keepAlive})

	return nil
}

func (c *Client) connectRequest() *connectRequest {
	props := c.options.connectProps
	props.TopicAliasMaximum = 0
	if c.aliases != nil {
		props.TopicAliasMaximum = c.aliases.maximum()
	}

	return &connectRequest{
		Version:      c.version,
		ClientID:     c.clientID,
		CleanSession: c.options.cleanSession,
		KeepAlive:    c.options.keepAlive,
		Username:     c.options.username,
		Password:     c.options.password,
		Will:         c.options.will,
		Properties:   props,
	}
}

// Publish sends PUBLISH. The payload is written after the encoded header
// without being copied into the TX buffer.
func (c *Client) Publish(p *PublishParam) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.verifyTxState(); err != nil {
		return err
	}

	cur := newCursor(c.tx)
	if err := encodePublish(cur, c.version, p); err != nil {
		return wrapPacketError(PacketPUBLISH, err)
	}

	c.logger.Debug("PUBLISH", LogFields{
		LogFieldTopic:    string(p.Topic),
		LogFieldQoS:      p.QoS,
		LogFieldPacketID: p.MessageID,
		LogFieldBytes:    len(p.Payload),
	})

	if len(p.Payload) == 0 {
		return c.write(PacketPUBLISH, cur.bytes())
	}
	return c.write(PacketPUBLISH, cur.bytes(), p.Payload)
}

// PublishQoS1Ack sends PUBACK for a received QoS 1 PUBLISH.
func (c *Client) PublishQoS1Ack(p *AckParam) error {
	return c.sendAck(PacketPUBACK, p)
}

// PublishQoS2Receive sends PUBREC for a received QoS 2 PUBLISH.
func (c *Client) PublishQoS2Receive(p *AckParam) error {
	return c.sendAck(PacketPUBREC, p)
}

// PublishQoS2Release sends PUBREL in answer to PUBREC.
func (c *Client) PublishQoS2Release(p *AckParam) error {
	return c.sendAck(PacketPUBREL, p)
}

// PublishQoS2Complete sends PUBCOMP in answer to PUBREL.
func (c *Client) PublishQoS2Complete(p *AckParam) error {
	return c.sendAck(PacketPUBCOMP, p)
}

func (c *Client) sendAck(t PacketType, p *AckParam) error {
	return c.send(t, func(cur *cursor) error {
		return encodeAck(cur, c.version, t, p)
	})
}

// Subscribe sends SUBSCRIBE. The result arrives as a SUBACK event.
func (c *Client) Subscribe(l *SubscriptionList) error {
	return c.send(PacketSUBSCRIBE, func(cur *cursor) error {
		return encodeSubscribe(cur, c.version, l)
	})
}

// Unsubscribe sends UNSUBSCRIBE for the topics in l. Subscription options
// are ignored. The result arrives as an UNSUBACK event.
func (c *Client) Unsubscribe(l *SubscriptionList) error {
	return c.send(PacketUNSUBSCRIBE, func(cur *cursor) error {
		return encodeUnsubscribe(cur, c.version, l)
	})
}

// Ping sends PINGREQ.
func (c *Client) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.ping()
}

func (c *Client) ping() error {
	if err := c.verifyTxState(); err != nil {
		return err
	}

	cur := newCursor(c.tx)
	if err := encodePingreq(cur); err != nil {
		return wrapPacketError(PacketPINGREQ, err)
	}

	if err := c.write(PacketPINGREQ, cur.bytes()); err != nil {
		return err
	}

	if c.unackedPing < maxUnackedPings {
		c.unackedPing++
	}
	c.metrics.PingsUnacked(c.unackedPing)

	return nil
}

// Disconnect sends DISCONNECT and closes the transport. p may be nil, and
// is ignored before MQTT 5.0.
func (c *Client) Disconnect(p *DisconnectParam) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.verifyTxState(); err != nil {
		return err
	}

	cur := newCursor(c.tx)
	if err := encodeDisconnect(cur, c.version, p); err != nil {
		return wrapPacketError(PacketDISCONNECT, err)
	}

	if err := c.write(PacketDISCONNECT, cur.bytes()); err != nil {
		return err
	}

	c.disconnect(nil, nil, true)
	return nil
}

// Auth sends AUTH for MQTT 5.0 enhanced authentication. It is allowed
// before CONNACK so the authentication exchange can complete.
func (c *Client) Auth(p *AuthParam) error {
	if c.version != ProtocolVersion50 {
		return ErrNotSupported
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state < StateTCPConnected {
		return ErrNotConnected
	}

	cur := newCursor(c.tx)
	if err := encodeAuth(cur, c.version, p); err != nil {
		return wrapPacketError(PacketAUTH, err)
	}

	return c.write(PacketAUTH, cur.bytes())
}

// Abort closes the transport without sending DISCONNECT. The DISCONNECT
// event carries ErrConnectionAborted. Aborting an idle client does nothing.
func (c *Client) Abort() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state >= StateTCPConnected {
		c.disconnect(ErrConnectionAborted, nil, true)
	}

	return nil
}

// ReadPublishPayload reads payload of the last received PUBLISH without
// blocking. It returns 0 once the payload is drained and ErrWouldBlock when
// no payload bytes are available yet.
func (c *Client) ReadPublishPayload(buf []byte) (int, error) {
	return c.readPublishPayload(buf, false)
}

// ReadPublishPayloadBlocking reads payload of the last received PUBLISH,
// waiting for at least one byte.
func (c *Client) ReadPublishPayloadBlocking(buf []byte) (int, error) {
	return c.readPublishPayload(buf, true)
}

// ReadAllPublishPayload fills buf with payload of the last received
// PUBLISH. It fails with io.ErrUnexpectedEOF when the payload is shorter
// than buf.
func (c *Client) ReadAllPublishPayload(buf []byte) error {
	for len(buf) > 0 {
		n, err := c.ReadPublishPayloadBlocking(buf)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrUnexpectedEOF
		}
		buf = buf[n:]
	}

	return nil
}

func (c *Client) readPublishPayload(buf []byte, blocking bool) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.remainingPayload == 0 || len(buf) == 0 {
		return 0, nil
	}

	if len(buf) > c.remainingPayload {
		buf = buf[:c.remainingPayload]
	}

	n, err := c.transport.Read(buf, blocking)
	if errors.Is(err, ErrWouldBlock) {
		return 0, ErrWouldBlock
	}
	if err == nil && n == 0 {
		err = ErrNotConnected
	}
	if err != nil {
		c.logger.Error("payload read failed", LogFields{LogFieldError: err.Error()})
		c.disconnect(&ConnectionLostError{Cause: err}, nil, true)
		return 0, err
	}

	c.remainingPayload -= n
	c.metrics.BytesReceived(n)

	return n, nil
}

// send encodes a packet with encode and writes it.
func (c *Client) send(t PacketType, encode func(*cursor) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.verifyTxState(); err != nil {
		return err
	}

	cur := newCursor(c.tx)
	if err := encode(cur); err != nil {
		return wrapPacketError(t, err)
	}

	return c.write(t, cur.bytes())
}

func (c *Client) verifyTxState() error {
	if c.state != StateConnected {
		return ErrNotConnected
	}
	return nil
}

// write sends an encoded frame, followed by extra buffers when given. A
// transport failure closes the connection.
func (c *Client) write(t PacketType, frame []byte, extra ...[]byte) error {
	var err error
	n := len(frame)

	if len(extra) == 0 {
		err = c.transport.Write(frame)
	} else {
		bufs := make([][]byte, 0, 1+len(extra))
		bufs = append(bufs, frame)
		for _, b := range extra {
			bufs = append(bufs, b)
			n += len(b)
		}
		err = c.transport.WriteVectored(bufs)
	}

	if err != nil {
		c.logger.Error("write failed", LogFields{
			LogFieldPacketType: t.String(),
			LogFieldError:      err.Error(),
		})
		c.disconnect(&ConnectionLostError{Cause: err}, nil, true)
		return err
	}

	c.lastActivity = c.options.clock()
	c.metrics.PacketSent(t, n)

	return nil
}

// notify raises an event with the lock released.
func (c *Client) notify(evt *Event) {
	handler := c.options.onEvent
	if handler == nil {
		return
	}

	c.mu.Unlock()
	defer c.mu.Lock()

	handler(c, evt)
}

// disconnect closes the transport, resets the client and raises a
// DISCONNECT event when notify is set. It does nothing on an idle client.
func (c *Client) disconnect(result error, param any, notify bool) {
	if c.state == StateIdle {
		return
	}

	if err := c.transport.Disconnect(); err != nil {
		c.logger.Debug("transport disconnect failed", LogFields{LogFieldError: err.Error()})
	}

	c.reset()
	c.metrics.Disconnected(result)

	fields := LogFields{}
	if result != nil {
		fields[LogFieldError] = result.Error()
	}
	c.logger.Info("disconnected", fields)

	if notify {
		c.notify(&Event{Type: EventDisconnect, Result: result, Param: param})
	}
}

func (c *Client) reset() {
	c.state = StateIdle
	c.rxUsed = 0
	c.remainingPayload = 0
	c.unackedPing = 0
	c.metrics.PingsUnacked(0)
	if c.aliases != nil {
		c.aliases.reset()
	}
}

func (c *Client) propertyDropped(id PropertyID) {
	c.metrics.PropertyDropped(id)
	if c.droppedLog.Allow() {
		c.logger.Warn("repeated property over limit dropped", LogFields{LogFieldProperty: id.String()})
	}
}
