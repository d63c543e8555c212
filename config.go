package mqttlite

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the file form of the client configuration.
type Config struct {
	Protocol     string          `yaml:"protocol"`
	ClientID     string          `yaml:"client_id"`
	Username     string          `yaml:"username"`
	Password     string          `yaml:"password"`
	CleanSession bool            `yaml:"clean_session"`
	KeepAlive    uint16          `yaml:"keep_alive"`
	Will         *WillConfig     `yaml:"will"`
	Session      SessionConfig   `yaml:"session"`
	Transport    TransportFile   `yaml:"transport"`
	Log          LogConfig       `yaml:"log"`
	Buffers      BufferConfig    `yaml:"buffers"`
	Limits       PropLimitConfig `yaml:"limits"`
}

// WillConfig is the will message.
type WillConfig struct {
	Topic   string `yaml:"topic"`
	Payload string `yaml:"payload"`
	QoS     byte   `yaml:"qos"`
	Retain  bool   `yaml:"retain"`
}

// SessionConfig holds MQTT 5.0 session settings.
type SessionConfig struct {
	ExpiryInterval    uint32 `yaml:"expiry_interval"`
	ReceiveMaximum    uint16 `yaml:"receive_maximum"`
	MaximumPacketSize uint32 `yaml:"maximum_packet_size"`
	TopicAliasMaximum uint16 `yaml:"topic_alias_maximum"`
}

// TransportFile selects and configures the transport.
type TransportFile struct {
	Type          string        `yaml:"type"`
	Address       string        `yaml:"address"`
	DialTimeout   time.Duration `yaml:"dial_timeout"`
	PollInterval  time.Duration `yaml:"poll_interval"`
	ProxyAddress  string        `yaml:"proxy_address"`
	ProxyUsername string        `yaml:"proxy_username"`
	ProxyPassword string        `yaml:"proxy_password"`
	TLS           TLSFile       `yaml:"tls"`
}

// TLSFile points to PEM files for TLS transports.
type TLSFile struct {
	CAFile             string `yaml:"ca_file"`
	CertFile           string `yaml:"cert_file"`
	KeyFile            string `yaml:"key_file"`
	ServerName         string `yaml:"server_name"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
}

// BufferConfig sizes the TX and RX buffers.
type BufferConfig struct {
	TX int `yaml:"tx"`
	RX int `yaml:"rx"`
}

// PropLimitConfig caps repeated properties kept per decoded packet.
type PropLimitConfig struct {
	UserProperties  int `yaml:"user_properties"`
	SubscriptionIDs int `yaml:"subscription_ids"`
}

// DefaultConfig returns a configuration for a local MQTT 3.1.1 server.
func DefaultConfig() *Config {
	return &Config{
		Protocol:  "3.1.1",
		KeepAlive: 60,
		Session: SessionConfig{
			TopicAliasMaximum: DefaultTopicAliasMaximum,
		},
		Transport: TransportFile{
			Type:        "tcp",
			Address:     "localhost:1883",
			DialTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
		Buffers: BufferConfig{
			TX: 4096,
			RX: 4096,
		},
		Limits: PropLimitConfig{
			UserProperties:  DefaultMaxUserProperties,
			SubscriptionIDs: DefaultMaxSubscriptionIDs,
		},
	}
}

// LoadConfig reads a YAML configuration file over the defaults. An empty
// filename or a missing file yields the defaults.
func LoadConfig(filename string) (*Config, error) {
	if filename == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig parses YAML configuration over the defaults.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := ParseProtocolVersion(c.Protocol); err != nil {
		return err
	}
	if _, err := ParseTransportType(c.Transport.Type); err != nil {
		return err
	}
	if c.Transport.Address == "" {
		return errors.New("transport.address cannot be empty")
	}
	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Buffers.TX <= 0 || c.Buffers.RX <= 0 {
		return errors.New("buffers.tx and buffers.rx must be positive")
	}
	if c.Will != nil {
		if c.Will.Topic == "" {
			return errors.New("will.topic cannot be empty")
		}
		if c.Will.QoS > byte(QoS2) {
			return fmt.Errorf("will.qos %d out of range", c.Will.QoS)
		}
	}
	if (c.Transport.TLS.CertFile == "") != (c.Transport.TLS.KeyFile == "") {
		return errors.New("transport.tls.cert_file and key_file must be set together")
	}
	return nil
}

// ParseProtocolVersion parses "3.1", "3.1.1" or "5.0" (also "5").
func ParseProtocolVersion(s string) (ProtocolVersion, error) {
	switch strings.TrimSpace(s) {
	case "3.1":
		return ProtocolVersion31, nil
	case "3.1.1", "":
		return ProtocolVersion311, nil
	case "5.0", "5":
		return ProtocolVersion50, nil
	}
	return 0, fmt.Errorf("%w: unknown protocol version %q", ErrInvalidArgument, s)
}

// TransportConfig builds the transport configuration, loading TLS material
// for TLS, QUIC and wss:// transports.
func (c *Config) TransportConfig() (TransportConfig, error) {
	t, err := ParseTransportType(c.Transport.Type)
	if err != nil {
		return TransportConfig{}, err
	}

	cfg := TransportConfig{
		Type:          t,
		Address:       c.Transport.Address,
		DialTimeout:   c.Transport.DialTimeout,
		PollInterval:  c.Transport.PollInterval,
		ProxyAddress:  c.Transport.ProxyAddress,
		ProxyUsername: c.Transport.ProxyUsername,
		ProxyPassword: c.Transport.ProxyPassword,
	}

	secure := t == TransportTLS || t == TransportQUIC ||
		(t == TransportWebSocket && strings.HasPrefix(c.Transport.Address, "wss://"))
	if secure {
		cfg.TLSConfig, err = c.Transport.TLS.load()
		if err != nil {
			return TransportConfig{}, err
		}
	}

	return cfg, nil
}

func (f *TLSFile) load() (*tls.Config, error) {
	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		ServerName:         f.ServerName,
		InsecureSkipVerify: f.InsecureSkipVerify, //nolint:gosec // opt-in for test servers
	}

	if f.CAFile != "" {
		pem, err := os.ReadFile(f.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates in CA file %s", f.CAFile)
		}
		cfg.RootCAs = pool
	}

	if f.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(f.CertFile, f.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	return cfg, nil
}

// Options converts the configuration to client options.
func (c *Config) Options() ([]Option, error) {
	version, err := ParseProtocolVersion(c.Protocol)
	if err != nil {
		return nil, err
	}
	tcfg, err := c.TransportConfig()
	if err != nil {
		return nil, err
	}

	opts := []Option{
		WithProtocolVersion(version),
		WithCleanSession(c.CleanSession),
		WithKeepAlive(c.KeepAlive),
		WithTransportConfig(tcfg),
		WithSessionExpiryInterval(c.Session.ExpiryInterval),
		WithReceiveMaximum(c.Session.ReceiveMaximum),
		WithMaximumPacketSize(c.Session.MaximumPacketSize),
		WithTopicAliasMaximum(c.Session.TopicAliasMaximum),
		WithMaxUserProperties(c.Limits.UserProperties),
		WithMaxSubscriptionIDs(c.Limits.SubscriptionIDs),
	}

	if c.ClientID != "" {
		opts = append(opts, WithClientID(c.ClientID))
	}
	if c.Username != "" || c.Password != "" {
		opts = append(opts, WithCredentials(c.Username, c.Password))
	}
	if c.Will != nil {
		opts = append(opts, WithWill(&Will{
			Topic:   []byte(c.Will.Topic),
			Payload: []byte(c.Will.Payload),
			QoS:     QoS(c.Will.QoS),
			Retain:  c.Will.Retain,
		}))
	}

	return opts, nil
}
