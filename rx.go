package mqttlite

import (
	"errors"
	"fmt"
)

// Input processes data available on the transport. It decodes at most one
// packet per call and raises its event. Partial packets are kept in the RX
// buffer until a later call completes them.
//
// Input returns ErrBusy while the payload of the last PUBLISH has not been
// read. Transport failures and malformed input close the connection and
// raise a DISCONNECT event.
//
// Input must not be called concurrently with itself or from the event
// handler: event parameters view the RX buffer.
func (c *Client) Input() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state < StateTCPConnected {
		return ErrNotConnected
	}

	return c.handleRx()
}

func (c *Client) handleRx() error {
	if c.remainingPayload > 0 {
		return ErrBusy
	}

	err := c.receive()
	if err == nil || errors.Is(err, ErrWouldBlock) {
		return nil
	}

	c.logger.Error("receive failed", LogFields{LogFieldError: err.Error()})

	var connErr *ConnectError
	if errors.As(err, &connErr) {
		c.disconnect(err, nil, true)
	} else {
		c.disconnect(&ConnectionLostError{Cause: err}, nil, true)
	}

	return err
}

// receive reads one packet into the RX buffer and handles it. It returns an
// error wrapping ErrWouldBlock when the packet is not complete yet.
func (c *Client) receive() error {
	h, hdrLen, err := c.readFixedHeader()
	if err != nil {
		return err
	}

	bodyLen := int(h.RemainingLength)
	if h.PacketType == PacketPUBLISH {
		bodyLen, err = c.readPublishVarHeader(hdrLen, h)
		if err != nil {
			return err
		}
	}

	if err := c.readChunk(hdrLen + bodyLen); err != nil {
		return err
	}

	cur := &cursor{buf: c.rx, cur: hdrLen, end: hdrLen + bodyLen}
	err = c.handlePacket(h, cur)
	c.rxUsed = 0

	return err
}

// readChunk makes sure the first need bytes of the packet are in the RX
// buffer, reading only the missing bytes so nothing of the next packet is
// consumed.
func (c *Client) readChunk(need int) error {
	if c.rxUsed >= need {
		return nil
	}
	if need > len(c.rx) {
		return ErrBufferOverflow
	}

	n, err := c.transport.Read(c.rx[c.rxUsed:need], false)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotConnected
	}

	c.rxUsed += n
	c.metrics.BytesReceived(n)

	if c.rxUsed < need {
		if c.partialLog.Allow() {
			c.logger.Debug("partial read", LogFields{LogFieldBytes: c.rxUsed, "need": need})
		}
		return ErrWouldBlock
	}

	return nil
}

// readFixedHeader reads the fixed header one byte at a time past the
// minimum, until the remaining length integer is complete. The header is
// decoded from the start of the buffer on every attempt.
func (c *Client) readFixedHeader() (FixedHeader, int, error) {
	for need := fixedHeaderMinSize; ; need++ {
		if err := c.readChunk(need); err != nil {
			return FixedHeader{}, 0, err
		}

		cur := newCursor(c.rx[:need])
		h, err := decodeFixedHeader(cur)
		if errors.Is(err, errIncomplete) {
			if need < fixedHeaderMaxSize {
				continue
			}
			return FixedHeader{}, 0, ErrMalformedPacket
		}
		if err != nil {
			return FixedHeader{}, 0, err
		}

		if !clientBound(h.PacketType) {
			return FixedHeader{}, 0, fmt.Errorf("%w: unexpected %s", ErrMalformedPacket, h.PacketType)
		}

		return h, cur.cur, nil
	}
}

// readPublishVarHeader reads the PUBLISH variable header and returns its
// length. The length depends on the topic length and, for MQTT 5.0, on the
// property length prefix, so it is worked out as bytes arrive.
func (c *Client) readPublishVarHeader(hdrLen int, h FixedHeader) (int, error) {
	remaining := int(h.RemainingLength)
	if remaining < 2 {
		return 0, ErrMalformedPacket
	}

	if err := c.readChunk(hdrLen + 2); err != nil {
		return 0, err
	}

	cur := &cursor{buf: c.rx, cur: hdrLen, end: hdrLen + 2}
	topicLen, err := cur.unpackUint16()
	if err != nil {
		return 0, err
	}

	varHdr := 2 + int(topicLen)
	if h.QoS() > QoS0 {
		varHdr += 2
	}

	if c.version == ProtocolVersion50 {
		for n := 1; ; n++ {
			if varHdr+n > remaining {
				return 0, ErrMalformedPacket
			}
			if err := c.readChunk(hdrLen + varHdr + n); err != nil {
				return 0, err
			}

			cur := &cursor{buf: c.rx, cur: hdrLen + varHdr, end: hdrLen + varHdr + n}
			propLen, size, err := cur.unpackVarint()
			if errors.Is(err, errIncomplete) {
				continue
			}
			if err != nil {
				return 0, err
			}

			varHdr += size + int(propLen)
			break
		}
	}

	if varHdr > remaining {
		return 0, ErrMalformedPacket
	}

	return varHdr, nil
}

// clientBound reports whether a server may send packets of type t.
func clientBound(t PacketType) bool {
	switch t {
	case PacketCONNACK, PacketPUBLISH, PacketPUBACK, PacketPUBREC, PacketPUBREL,
		PacketPUBCOMP, PacketSUBACK, PacketUNSUBACK, PacketPINGRESP,
		PacketDISCONNECT, PacketAUTH:
		return true
	default:
		return false
	}
}

// handlePacket decodes a complete packet held in cur and raises its event.
func (c *Client) handlePacket(h FixedHeader, cur *cursor) error {
	t := h.PacketType
	c.metrics.PacketReceived(t)

	switch t {
	case PacketCONNACK:
		return c.handleConnack(cur)

	case PacketPUBLISH:
		var p PublishParam
		if err := decodePublish(cur, c.version, h, c.aliases, &p, &c.limits); err != nil {
			return wrapPacketError(t, err)
		}
		c.remainingPayload = p.PayloadLen
		c.logger.Debug("PUBLISH received", LogFields{
			LogFieldTopic:    string(p.Topic),
			LogFieldQoS:      p.QoS,
			LogFieldPacketID: p.MessageID,
			LogFieldBytes:    p.PayloadLen,
		})
		c.notify(&Event{Type: EventPublish, Param: &p})

	case PacketPUBACK, PacketPUBREC, PacketPUBREL, PacketPUBCOMP:
		var p AckParam
		if err := decodeAck(cur, c.version, t, &p, &c.limits); err != nil {
			return wrapPacketError(t, err)
		}
		c.notify(&Event{Type: ackEventType(t), Param: &p})

	case PacketSUBACK:
		var p SubackParam
		if err := decodeSuback(cur, c.version, &p, &c.limits); err != nil {
			return wrapPacketError(t, err)
		}
		c.notify(&Event{Type: EventSuback, Param: &p})

	case PacketUNSUBACK:
		var p UnsubackParam
		if err := decodeUnsuback(cur, c.version, &p, &c.limits); err != nil {
			return wrapPacketError(t, err)
		}
		c.notify(&Event{Type: EventUnsuback, Param: &p})

	case PacketPINGRESP:
		if err := decodePingresp(h); err != nil {
			return wrapPacketError(t, err)
		}
		if c.unackedPing > 0 {
			c.unackedPing--
		} else {
			c.logger.Warn("unexpected PINGRESP", nil)
		}
		c.metrics.PingsUnacked(c.unackedPing)
		c.notify(&Event{Type: EventPingresp})

	case PacketDISCONNECT:
		var p DisconnectParam
		if err := decodeDisconnect(cur, c.version, &p, &c.limits); err != nil {
			return wrapPacketError(t, err)
		}
		c.logger.Info("server disconnect", LogFields{LogFieldReasonCode: p.ReasonCode.String()})
		c.disconnect(&DisconnectError{ReasonCode: p.ReasonCode}, &p, true)

	case PacketAUTH:
		var p AuthParam
		if err := decodeAuth(cur, c.version, &p, &c.limits); err != nil {
			return wrapPacketError(t, err)
		}
		c.notify(&Event{Type: EventAuth, Param: &p})

	default:
		return fmt.Errorf("%w: unexpected %s", ErrMalformedPacket, t)
	}

	return nil
}

func (c *Client) handleConnack(cur *cursor) error {
	if c.state != StateTCPConnected {
		return fmt.Errorf("%w: unexpected CONNACK", ErrMalformedPacket)
	}

	var p ConnackParam
	if err := decodeConnack(cur, c.version, &p, &c.limits); err != nil {
		return wrapPacketError(PacketCONNACK, err)
	}

	if p.ReturnCode != ReasonSuccess {
		err := &ConnectError{Version: c.version, ReturnCode: p.ReturnCode}
		c.notify(&Event{Type: EventConnack, Result: err, Param: &p})
		return err
	}

	c.state = StateConnected
	c.applyConnackProperties(&p.Properties)
	c.metrics.ConnectDuration(c.options.clock().Sub(c.connectStart))
	c.logger.Info("connected", LogFields{"session_present": p.SessionPresent})

	c.notify(&Event{Type: EventConnack, Param: &p})
	return nil
}

// applyConnackProperties adopts the values the server overrides.
func (c *Client) applyConnackProperties(p *ConnackProperties) {
	if p.Has.ServerKeepAlive {
		c.keepAlive = p.ServerKeepAlive
	}
	if p.Has.AssignedClientIdentifier {
		c.clientID = append([]byte(nil), p.AssignedClientIdentifier...)
	}
}

func ackEventType(t PacketType) EventType {
	switch t {
	case PacketPUBREC:
		return EventPubrec
	case PacketPUBREL:
		return EventPubrel
	case PacketPUBCOMP:
		return EventPubcomp
	default:
		return EventPuback
	}
}
