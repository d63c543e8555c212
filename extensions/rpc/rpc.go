// Package rpc provides request/response on top of an MQTT v5.0 client. It
// uses the correlation data and response topic properties to match requests
// with their responses.
//
// The client must be driven by another goroutine calling Input while Call
// waits, and the handler's EventHandler must be installed on the client.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vitalvas/mqttlite"
)

var (
	// ErrTimeout is returned when a request times out waiting for a response.
	ErrTimeout = errors.New("rpc: request timeout")

	// ErrClientClosed is returned when the client is not connected or the
	// handler was closed during a request.
	ErrClientClosed = errors.New("rpc: client closed")

	// ErrNotSupported is returned for clients speaking MQTT before 5.0.
	ErrNotSupported = errors.New("rpc: requires MQTT 5.0")

	// ErrResponseTooLarge is returned when a response payload exceeds the
	// configured maximum.
	ErrResponseTooLarge = errors.New("rpc: response too large")
)

// DefaultMaxResponseSize bounds response payloads read by the handler.
const DefaultMaxResponseSize = 64 * 1024

// discardChunkSize is the buffer used to drain an oversized response.
const discardChunkSize = 512

// Headers represents RPC headers as key-value pairs.
// Headers are transmitted using MQTT v5.0 User Properties.
type Headers map[string]string

// Request represents an RPC request with optional headers.
type Request struct {
	Payload     []byte
	Headers     Headers
	ContentType string
}

// Response represents an RPC response with headers.
type Response struct {
	Payload         []byte
	Headers         Headers
	ContentType     string
	CorrelationData []byte
}

// Client is the part of mqttlite.Client the handler uses.
type Client interface {
	ClientID() string
	ProtocolVersion() mqttlite.ProtocolVersion
	State() mqttlite.State
	Publish(p *mqttlite.PublishParam) error
	PublishQoS1Ack(p *mqttlite.AckParam) error
	Subscribe(l *mqttlite.SubscriptionList) error
	Unsubscribe(l *mqttlite.SubscriptionList) error
	ReadPublishPayloadBlocking(buf []byte) (int, error)
	ReadAllPublishPayload(buf []byte) error
}

// Handler provides request/response functionality using MQTT v5.0 properties.
type Handler struct {
	mu            sync.Mutex
	client        Client
	correlData    map[string]chan *Response
	responseTopic string
	qos           mqttlite.QoS
	maxResponse   int
	onError       func(error)
	nextID        uint16
}

// HandlerOptions configures the RPC handler.
type HandlerOptions struct {
	// ResponseTopic is the topic where responses will be received.
	// If empty, defaults to "rpc/response/{clientID}".
	ResponseTopic string

	// QoS is used for requests and the response subscription. QoS 2 is
	// not supported.
	QoS mqttlite.QoS

	// MaxResponseSize defaults to DefaultMaxResponseSize.
	MaxResponseSize int

	// OnError is called with failures while consuming a response from
	// EventHandler.
	OnError func(error)
}

// NewHandler creates a new RPC handler and subscribes to the response
// topic. The client must be connected.
func NewHandler(client Client, opts *HandlerOptions) (*Handler, error) {
	if client == nil {
		return nil, errors.New("rpc: client is required")
	}
	if client.ProtocolVersion() != mqttlite.ProtocolVersion50 {
		return nil, ErrNotSupported
	}

	if opts == nil {
		opts = &HandlerOptions{}
	}
	if opts.QoS > mqttlite.QoS1 {
		return nil, fmt.Errorf("rpc: qos %d: %w", opts.QoS, mqttlite.ErrInvalidArgument)
	}

	responseTopic := opts.ResponseTopic
	if responseTopic == "" {
		responseTopic = fmt.Sprintf("rpc/response/%s", client.ClientID())
	}

	maxResponse := opts.MaxResponseSize
	if maxResponse <= 0 {
		maxResponse = DefaultMaxResponseSize
	}

	h := &Handler{
		client:        client,
		correlData:    make(map[string]chan *Response),
		responseTopic: responseTopic,
		qos:           opts.QoS,
		maxResponse:   maxResponse,
		onError:       opts.OnError,
	}

	err := client.Subscribe(&mqttlite.SubscriptionList{
		MessageID:     h.messageID(),
		Subscriptions: []mqttlite.Subscription{{Topic: []byte(responseTopic), QoS: opts.QoS, NoLocal: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("rpc: failed to subscribe to response topic: %w", err)
	}

	return h, nil
}

// ResponseTopic returns the configured response topic.
func (h *Handler) ResponseTopic() string {
	return h.responseTopic
}

// messageID returns the next non-zero packet identifier.
func (h *Handler) messageID() uint16 {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	if h.nextID == 0 {
		h.nextID = 1
	}
	return h.nextID
}

// Call sends an RPC request with headers and waits for a response.
// The request is published to topic with the response topic, correlation
// data and headers set. Call blocks until a response is received or the
// context is done.
func (h *Handler) Call(ctx context.Context, topic string, req *Request) (*Response, error) {
	if h.client.State() != mqttlite.StateConnected {
		return nil, ErrClientClosed
	}

	if req == nil {
		req = &Request{}
	}

	correlID := uuid.NewString()

	respChan := make(chan *Response, 1)
	h.addCorrelID(correlID, respChan)
	defer h.removeCorrelID(correlID)

	msg := &mqttlite.PublishParam{
		Topic:   []byte(topic),
		Payload: req.Payload,
		QoS:     h.qos,
		Properties: mqttlite.PublishProperties{
			ResponseTopic:   []byte(h.responseTopic),
			CorrelationData: []byte(correlID),
			ContentType:     []byte(req.ContentType),
		},
	}
	if h.qos > mqttlite.QoS0 {
		msg.MessageID = h.messageID()
	}

	if len(req.Headers) > 0 {
		msg.Properties.UserProperties = make([]mqttlite.UserProperty, 0, len(req.Headers))
		for k, v := range req.Headers {
			msg.Properties.UserProperties = append(msg.Properties.UserProperties, mqttlite.UserProperty{
				Name:  []byte(k),
				Value: []byte(v),
			})
		}
	}

	if err := h.client.Publish(msg); err != nil {
		return nil, fmt.Errorf("rpc: failed to publish request: %w", err)
	}

	select {
	case resp, ok := <-respChan:
		if !ok {
			return nil, ErrClientClosed
		}
		return resp, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, ctx.Err()
	}
}

// CallWithTimeout is a convenience method that creates a context with timeout.
func (h *Handler) CallWithTimeout(topic string, req *Request, timeout time.Duration) (*Response, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return h.Call(ctx, topic, req)
}

// Request sends a simple request without headers and waits for a response.
func (h *Handler) Request(ctx context.Context, topic string, payload []byte) (*Response, error) {
	return h.Call(ctx, topic, &Request{Payload: payload})
}

// Close fails pending calls and unsubscribes from the response topic.
func (h *Handler) Close() error {
	h.mu.Lock()
	for correlID, ch := range h.correlData {
		close(ch)
		delete(h.correlData, correlID)
	}
	h.mu.Unlock()

	return h.client.Unsubscribe(&mqttlite.SubscriptionList{
		MessageID:     h.messageID(),
		Subscriptions: []mqttlite.Subscription{{Topic: []byte(h.responseTopic)}},
	})
}

func (h *Handler) addCorrelID(correlID string, ch chan *Response) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.correlData[correlID] = ch
}

func (h *Handler) removeCorrelID(correlID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.correlData, correlID)
}

// HandlePublish consumes a PUBLISH on the response topic and reports
// whether it did. The payload is read from the client, and QoS 1 responses
// are acknowledged.
func (h *Handler) HandlePublish(msg *mqttlite.PublishParam) (bool, error) {
	if msg == nil || string(msg.Topic) != h.responseTopic {
		return false, nil
	}

	// The payload must leave the transport before the client decodes the
	// next packet, so an oversized response is discarded, not skipped.
	if msg.PayloadLen > h.maxResponse {
		if err := h.discard(msg.PayloadLen); err != nil {
			return true, fmt.Errorf("rpc: failed to discard response: %w", err)
		}
		if err := h.ack(msg); err != nil {
			return true, err
		}
		return true, fmt.Errorf("%w: %d bytes", ErrResponseTooLarge, msg.PayloadLen)
	}

	payload := make([]byte, msg.PayloadLen)
	if err := h.client.ReadAllPublishPayload(payload); err != nil {
		return true, fmt.Errorf("rpc: failed to read response: %w", err)
	}

	if err := h.ack(msg); err != nil {
		return true, err
	}

	// Views into the receive buffer do not outlive the event.
	resp := &Response{
		Payload:         payload,
		ContentType:     string(msg.Properties.ContentType),
		CorrelationData: append([]byte(nil), msg.Properties.CorrelationData...),
	}

	if len(msg.Properties.UserProperties) > 0 {
		resp.Headers = make(Headers, len(msg.Properties.UserProperties))
		for _, prop := range msg.Properties.UserProperties {
			resp.Headers[string(prop.Name)] = string(prop.Value)
		}
	}

	h.mu.Lock()
	ch := h.correlData[string(resp.CorrelationData)]
	if ch != nil {
		// Non-blocking send; a duplicate response is dropped.
		select {
		case ch <- resp:
		default:
		}
	}
	h.mu.Unlock()

	return true, nil
}

// discard reads and drops n payload bytes.
func (h *Handler) discard(n int) error {
	buf := make([]byte, min(n, discardChunkSize))
	for n > 0 {
		read, err := h.client.ReadPublishPayloadBlocking(buf[:min(n, len(buf))])
		if err != nil {
			return err
		}
		if read == 0 {
			return io.ErrUnexpectedEOF
		}
		n -= read
	}
	return nil
}

func (h *Handler) ack(msg *mqttlite.PublishParam) error {
	if msg.QoS != mqttlite.QoS1 {
		return nil
	}
	if err := h.client.PublishQoS1Ack(&mqttlite.AckParam{MessageID: msg.MessageID}); err != nil {
		return fmt.Errorf("rpc: failed to acknowledge response: %w", err)
	}
	return nil
}

// EventHandler returns a client event handler that consumes responses and
// passes every other event to next. next may be nil.
func (h *Handler) EventHandler(next mqttlite.EventHandler) mqttlite.EventHandler {
	return func(client *mqttlite.Client, evt *mqttlite.Event) {
		if evt.Type == mqttlite.EventPublish {
			handled, err := h.HandlePublish(evt.Publish())
			if err != nil && h.onError != nil {
				h.onError(err)
			}
			if handled {
				return
			}
		}
		if next != nil {
			next(client, evt)
		}
	}
}
