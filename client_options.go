package mqttlite

import (
	"time"
)

// Defaults for repeated properties kept while decoding.
const (
	DefaultMaxUserProperties  = 5
	DefaultMaxSubscriptionIDs = 4
)

// clientOptions holds configuration for a Client.
type clientOptions struct {
	// Connection settings
	protocolVersion ProtocolVersion
	clientID        []byte
	username        []byte
	password        []byte
	cleanSession    bool
	keepAlive       uint16
	will            *Will

	// Properties for CONNECT packet
	connectProps ConnectProperties

	// Limits
	topicAliasMaximum   uint16
	topicAliasMaxLength int
	maxUserProperties   int
	maxSubscriptionIDs  int

	// Event handler
	onEvent EventHandler

	// Transport
	transport       Transport
	transportConfig TransportConfig

	logger  Logger
	metrics Metrics
	clock   func() time.Time
}

// defaultOptions returns options with sensible defaults.
func defaultOptions() *clientOptions {
	return &clientOptions{
		protocolVersion:     ProtocolVersion311,
		keepAlive:           60,
		topicAliasMaximum:   DefaultTopicAliasMaximum,
		topicAliasMaxLength: DefaultTopicAliasMaxLength,
		maxUserProperties:   DefaultMaxUserProperties,
		maxSubscriptionIDs:  DefaultMaxSubscriptionIDs,
		transportConfig: TransportConfig{
			Type:    TransportTCP,
			Address: "localhost:1883",
		},
		logger:  NewNoOpLogger(),
		metrics: &NoOpMetrics{},
		clock:   time.Now,
	}
}

// Option configures a Client.
type Option func(*clientOptions)

// WithProtocolVersion sets the MQTT protocol version.
func WithProtocolVersion(v ProtocolVersion) Option {
	return func(o *clientOptions) {
		o.protocolVersion = v
	}
}

// WithClientID sets the client identifier.
func WithClientID(id string) Option {
	return func(o *clientOptions) {
		o.clientID = []byte(id)
	}
}

// WithCredentials sets the user name and password sent in CONNECT.
// Empty values are left out of the packet.
func WithCredentials(username, password string) Option {
	return func(o *clientOptions) {
		o.username = []byte(username)
		o.password = []byte(password)
	}
}

// WithCleanSession sets the clean session (clean start) flag.
func WithCleanSession(clean bool) Option {
	return func(o *clientOptions) {
		o.cleanSession = clean
	}
}

// WithKeepAlive sets the keep-alive interval in seconds. Zero disables
// keep-alive.
func WithKeepAlive(seconds uint16) Option {
	return func(o *clientOptions) {
		o.keepAlive = seconds
	}
}

// WithWill sets the will message.
func WithWill(will *Will) Option {
	return func(o *clientOptions) {
		o.will = will
	}
}

// WithSessionExpiryInterval sets the session expiry interval in seconds.
func WithSessionExpiryInterval(seconds uint32) Option {
	return func(o *clientOptions) {
		o.connectProps.SessionExpiryInterval = seconds
	}
}

// WithReceiveMaximum sets the number of QoS 1 and 2 messages the client
// will process concurrently. Zero leaves the server default.
func WithReceiveMaximum(maxValue uint16) Option {
	return func(o *clientOptions) {
		o.connectProps.ReceiveMaximum = maxValue
	}
}

// WithMaximumPacketSize sets the largest packet the client accepts.
func WithMaximumPacketSize(size uint32) Option {
	return func(o *clientOptions) {
		o.connectProps.MaximumPacketSize = size
	}
}

// WithRequestResponseInformation asks the server for response information.
func WithRequestResponseInformation(request bool) Option {
	return func(o *clientOptions) {
		o.connectProps.RequestResponseInformation = request
	}
}

// WithRequestProblemInformation allows the server to send reason strings
// and user properties on failures.
func WithRequestProblemInformation(request bool) Option {
	return func(o *clientOptions) {
		o.connectProps.RequestProblemInformation = request
	}
}

// WithUserProperties sets user properties for the CONNECT packet.
func WithUserProperties(props ...UserProperty) Option {
	return func(o *clientOptions) {
		o.connectProps.UserProperties = append(o.connectProps.UserProperties, props...)
	}
}

// WithAuthentication sets the enhanced authentication method and initial data.
func WithAuthentication(method string, data []byte) Option {
	return func(o *clientOptions) {
		o.connectProps.AuthenticationMethod = []byte(method)
		o.connectProps.AuthenticationData = data
	}
}

// WithTopicAliasMaximum sets how many inbound topic aliases the client
// accepts. Zero disables topic aliases.
func WithTopicAliasMaximum(maxValue uint16) Option {
	return func(o *clientOptions) {
		o.topicAliasMaximum = maxValue
	}
}

// WithTopicAliasMaxLength sets the longest topic a topic alias can stand for.
func WithTopicAliasMaxLength(n int) Option {
	return func(o *clientOptions) {
		if n > 0 {
			o.topicAliasMaxLength = n
		}
	}
}

// WithMaxUserProperties caps the user properties kept per decoded packet.
// Further user properties are dropped.
func WithMaxUserProperties(n int) Option {
	return func(o *clientOptions) {
		if n >= 0 {
			o.maxUserProperties = n
		}
	}
}

// WithMaxSubscriptionIDs caps the subscription identifiers kept per PUBLISH.
// Further identifiers are dropped.
func WithMaxSubscriptionIDs(n int) Option {
	return func(o *clientOptions) {
		if n >= 0 {
			o.maxSubscriptionIDs = n
		}
	}
}

// OnEvent sets the event handler.
func OnEvent(handler EventHandler) Option {
	return func(o *clientOptions) {
		o.onEvent = handler
	}
}

// WithTransport sets the transport, overriding WithTransportConfig.
func WithTransport(t Transport) Option {
	return func(o *clientOptions) {
		o.transport = t
	}
}

// WithTransportConfig selects and configures a built-in transport.
func WithTransportConfig(cfg TransportConfig) Option {
	return func(o *clientOptions) {
		o.transportConfig = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(logger Logger) Option {
	return func(o *clientOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m Metrics) Option {
	return func(o *clientOptions) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithClock sets the time source used for keep-alive.
func WithClock(now func() time.Time) Option {
	return func(o *clientOptions) {
		if now != nil {
			o.clock = now
		}
	}
}

// applyOptions applies all options to the default options.
func applyOptions(opts ...Option) *clientOptions {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	return options
}
