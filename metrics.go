package mqttlite

import (
	"strconv"
	"time"
)

// MetricLabels represents key-value pairs for metric labels.
type MetricLabels map[string]string

// Metrics creates or looks up metrics by name and labels. Implementations
// return the same metric for the same name and label set.
type Metrics interface {
	Counter(name string, labels MetricLabels) Counter
	Gauge(name string, labels MetricLabels) Gauge
	Histogram(name string, labels MetricLabels) Histogram
}

// Counter is a monotonically increasing counter.
type Counter interface {
	Inc()
	Add(delta float64)
	Value() float64
}

// Gauge is a metric that can go up and down.
type Gauge interface {
	Set(value float64)
	Inc()
	Dec()
	Add(delta float64)
	Value() float64
}

// Histogram tracks the distribution of values.
type Histogram interface {
	Observe(value float64)
	ObserveDuration(d time.Duration)
	Count() uint64
	Sum() float64
}

// NoOpMetrics is a no-op implementation of Metrics.
type NoOpMetrics struct{}

// Counter returns a no-op counter.
func (n *NoOpMetrics) Counter(_ string, _ MetricLabels) Counter {
	return noOpMetric{}
}

// Gauge returns a no-op gauge.
func (n *NoOpMetrics) Gauge(_ string, _ MetricLabels) Gauge {
	return noOpMetric{}
}

// Histogram returns a no-op histogram.
func (n *NoOpMetrics) Histogram(_ string, _ MetricLabels) Histogram {
	return noOpMetric{}
}

type noOpMetric struct{}

func (noOpMetric) Inc()                            {}
func (noOpMetric) Dec()                            {}
func (noOpMetric) Set(_ float64)                   {}
func (noOpMetric) Add(_ float64)                   {}
func (noOpMetric) Value() float64                  { return 0 }
func (noOpMetric) Observe(_ float64)               {}
func (noOpMetric) ObserveDuration(_ time.Duration) {}
func (noOpMetric) Count() uint64                   { return 0 }
func (noOpMetric) Sum() float64                    { return 0 }

// Metric names recorded by the client.
const (
	MetricPacketsSent       = "mqtt_client_packets_sent_total"
	MetricPacketsReceived   = "mqtt_client_packets_received_total"
	MetricBytesSent         = "mqtt_client_bytes_sent_total"
	MetricBytesReceived     = "mqtt_client_bytes_received_total"
	MetricDisconnects       = "mqtt_client_disconnects_total"
	MetricPingsUnacked      = "mqtt_client_pings_unacked"
	MetricPropertiesDropped = "mqtt_client_properties_dropped_total"
	MetricConnectDuration   = "mqtt_client_connect_duration_seconds"
)

// Metric labels.
const (
	LabelPacketType = "packet_type"
	LabelQoS        = "qos"
	LabelReason     = "reason"
	LabelProperty   = "property"
)

// ClientMetrics records the client's metrics on a Metrics backend.
type ClientMetrics struct {
	metrics Metrics
}

// NewClientMetrics creates a ClientMetrics over m.
func NewClientMetrics(m Metrics) *ClientMetrics {
	if m == nil {
		m = &NoOpMetrics{}
	}
	return &ClientMetrics{metrics: m}
}

// PacketSent records an encoded packet and its size including payload.
func (c *ClientMetrics) PacketSent(t PacketType, n int) {
	c.metrics.Counter(MetricPacketsSent, MetricLabels{LabelPacketType: t.String()}).Inc()
	c.metrics.Counter(MetricBytesSent, nil).Add(float64(n))
}

// PacketReceived records a decoded packet.
func (c *ClientMetrics) PacketReceived(t PacketType) {
	c.metrics.Counter(MetricPacketsReceived, MetricLabels{LabelPacketType: t.String()}).Inc()
}

// BytesReceived records bytes read from the transport.
func (c *ClientMetrics) BytesReceived(n int) {
	c.metrics.Counter(MetricBytesReceived, nil).Add(float64(n))
}

// Disconnected records a disconnect. A nil cause is a local disconnect.
func (c *ClientMetrics) Disconnected(cause error) {
	reason := "local"
	if cause != nil {
		reason = strconv.Itoa(int(Errno(cause)))
	}
	c.metrics.Counter(MetricDisconnects, MetricLabels{LabelReason: reason}).Inc()
}

// PingsUnacked records the number of outstanding PINGREQ packets.
func (c *ClientMetrics) PingsUnacked(n int) {
	c.metrics.Gauge(MetricPingsUnacked, nil).Set(float64(n))
}

// PropertyDropped records a repeated property dropped over its cap.
func (c *ClientMetrics) PropertyDropped(id PropertyID) {
	c.metrics.Counter(MetricPropertiesDropped, MetricLabels{LabelProperty: id.String()}).Inc()
}

// ConnectDuration records the time from Connect to CONNACK.
func (c *ClientMetrics) ConnectDuration(d time.Duration) {
	c.metrics.Histogram(MetricConnectDuration, nil).ObserveDuration(d)
}
