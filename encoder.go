package mqttlite

// beginPacket reserves room for the largest fixed header in front of the
// variable header and returns the offset where the body starts.
func beginPacket(c *cursor) (int, error) {
	if err := c.skip(fixedHeaderMaxSize); err != nil {
		return 0, err
	}
	return c.cur, nil
}

// finishPacket writes the fixed header directly in front of the body that
// starts at start, so the frame is contiguous. payloadLen counts bytes that
// follow the body on the wire but are not in the buffer. On success the
// cursor brackets exactly the frame.
func finishPacket(c *cursor, start int, first byte, payloadLen int) error {
	length := c.cur - start + payloadLen
	if length > MaxPayloadSize {
		return ErrPacketTooLarge
	}

	end := c.cur
	headerStart := start - 1 - varintSize(uint32(length))

	c.cur = headerStart
	if err := c.packUint8(first); err != nil {
		return err
	}
	if err := c.packVarint(uint32(length)); err != nil {
		return err
	}

	c.cur = headerStart
	c.end = end
	return nil
}

// encodeEmpty encodes a packet with no variable header, such as PINGREQ.
func encodeEmpty(c *cursor, t PacketType) error {
	start, err := beginPacket(c)
	if err != nil {
		return err
	}
	return finishPacket(c, start, typeAndFlags(t, 0), 0)
}

// encodeReasonAndProperties writes the optional MQTT v5.0 reason code and
// properties suffix. It writes nothing for a success code without
// properties, which is the shortest legal form.
func encodeReasonAndProperties(c *cursor, reason ReasonCode, fields []propField) error {
	if reason == ReasonSuccess && propertiesSize(fields) == 0 {
		return nil
	}
	if err := c.packUint8(byte(reason)); err != nil {
		return err
	}
	return encodeProperties(c, fields)
}
