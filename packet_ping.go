package mqttlite

func encodePingreq(c *cursor) error {
	return encodeEmpty(c, PacketPINGREQ)
}

// decodePingresp checks that PINGRESP carries no body.
func decodePingresp(h FixedHeader) error {
	if h.RemainingLength != 0 {
		return ErrMalformedPacket
	}
	return nil
}
