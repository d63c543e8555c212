// Package mqttlite is an MQTT 3.1, 3.1.1 and 5.0 client protocol engine
// for callers that own the I/O loop.
//
// The client encodes packets into a caller-supplied TX buffer and
// reassembles inbound packets in a caller-supplied RX buffer. It starts no
// goroutines and keeps no timers: the caller calls Input when the transport
// may have data and Live to keep the connection alive. Decoded packets are
// delivered as events.
//
// # Connecting
//
//	client, err := mqttlite.NewClient(make([]byte, 1024), make([]byte, 1024),
//		mqttlite.WithProtocolVersion(mqttlite.ProtocolVersion50),
//		mqttlite.WithClientID("sensor-1"),
//		mqttlite.WithTransportConfig(mqttlite.TransportConfig{
//			Type:    mqttlite.TransportTCP,
//			Address: "localhost:1883",
//		}),
//		mqttlite.OnEvent(func(c *mqttlite.Client, evt *mqttlite.Event) {
//			if evt.Type == mqttlite.EventPublish {
//				p := evt.Publish()
//				payload := make([]byte, p.PayloadLen)
//				_ = c.ReadAllPublishPayload(payload)
//			}
//		}),
//	)
//	if err != nil {
//		return err
//	}
//	if err := client.Connect(ctx); err != nil {
//		return err
//	}
//
// # Driving the client
//
//	for {
//		if err := client.Input(); err != nil {
//			return err
//		}
//		if err := client.Live(); err != nil && !errors.Is(err, mqttlite.ErrWouldBlock) {
//			return err
//		}
//	}
//
// PUBLISH payloads stay on the transport until read with ReadPublishPayload,
// ReadPublishPayloadBlocking or ReadAllPublishPayload. Input returns ErrBusy
// until the payload is drained.
//
// # Transports
//
// TCP, TLS, WebSocket, SOCKS5, QUIC and Unix socket transports are built in
// and selected with TransportConfig. Any Transport implementation can be
// passed with WithTransport.
package mqttlite
