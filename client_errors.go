package mqttlite

import (
	"errors"
	"fmt"
)

// Sentinel errors for client operations - check with errors.Is().
var (
	// ErrNotConnected is returned when an operation requires a connection
	// in a state the client is not in, or when the peer closed the transport.
	ErrNotConnected = errors.New("not connected")

	// ErrAlreadyConnected is returned by Connect when the client is not idle.
	ErrAlreadyConnected = errors.New("already connected")

	// ErrBusy is returned by Input while the payload of the last PUBLISH
	// has not been read.
	ErrBusy = errors.New("publish payload not drained")

	// ErrConnectionRefused is the result when the server rejects CONNECT.
	ErrConnectionRefused = errors.New("connection refused")

	// ErrConnectionAborted is the result of the DISCONNECT event raised by Abort.
	ErrConnectionAborted = errors.New("connection aborted")

	// ErrNotSupported is returned for operations the protocol version lacks.
	ErrNotSupported = errors.New("not supported by protocol version")

	// ErrServerDisconnect is the result when the server sends DISCONNECT.
	ErrServerDisconnect = errors.New("server disconnect")
)

// ConnectError is the result of a CONNACK event that refused the connection.
// Extract with errors.As().
type ConnectError struct {
	Version    ProtocolVersion
	ReturnCode ReasonCode
}

func (e *ConnectError) Error() string {
	return "connect failed: " + connackString(e.Version, e.ReturnCode)
}

func (e *ConnectError) Unwrap() error { return ErrConnectionRefused }

// DisconnectError is the result of the DISCONNECT event raised when the
// server sent DISCONNECT. Extract with errors.As().
type DisconnectError struct {
	ReasonCode ReasonCode
}

func (e *DisconnectError) Error() string {
	return "server disconnect: " + e.ReasonCode.String()
}

func (e *DisconnectError) Unwrap() error { return ErrServerDisconnect }

// ConnectionLostError wraps the transport or protocol failure that ended
// the connection. Extract with errors.As().
type ConnectionLostError struct {
	Cause error
}

func (e *ConnectionLostError) Error() string {
	if e.Cause != nil {
		return "connection lost: " + e.Cause.Error()
	}
	return "connection lost"
}

func (e *ConnectionLostError) Unwrap() error { return e.Cause }

func wrapPacketError(t PacketType, err error) error {
	return fmt.Errorf("%s: %w", t, err)
}
