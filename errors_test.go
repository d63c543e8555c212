package mqttlite

import (
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrno(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want syscall.Errno
	}{
		{"nil", nil, 0},
		{"malformed", ErrMalformedPacket, syscall.EBADMSG},
		{"unknown property", ErrUnknownPropertyID, syscall.EBADMSG},
		{"packet too large", ErrPacketTooLarge, syscall.EMSGSIZE},
		{"overflow", ErrBufferOverflow, syscall.ENOMEM},
		{"alias too long", ErrTopicAliasTooLong, syscall.ENOMEM},
		{"would block", ErrWouldBlock, syscall.EAGAIN},
		{"not connected", ErrNotConnected, syscall.ENOTCONN},
		{"already connected", ErrAlreadyConnected, syscall.EALREADY},
		{"busy", ErrBusy, syscall.EBUSY},
		{"refused", &ConnectError{Version: ProtocolVersion311, ReturnCode: ConnackNotAuthorized}, syscall.ECONNREFUSED},
		{"aborted", ErrConnectionAborted, syscall.ECONNABORTED},
		{"not supported", ErrNotSupported, syscall.ENOTSUP},
		{"invalid argument", ErrStringTooLong, syscall.EINVAL},
		{"wrapped", fmt.Errorf("decode: %w", ErrMalformedPacket), syscall.EBADMSG},
		{"lost", &ConnectionLostError{Cause: ErrNotConnected}, syscall.ENOTCONN},
		{"raw errno", fmt.Errorf("dial: %w", syscall.ECONNRESET), syscall.ECONNRESET},
		{"foreign", errors.New("something else"), syscall.EIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Errno(tt.err))
		})
	}
}

func TestClientErrors(t *testing.T) {
	t.Run("connect error", func(t *testing.T) {
		err := error(&ConnectError{Version: ProtocolVersion50, ReturnCode: ReasonBadUserNameOrPassword})

		assert.ErrorIs(t, err, ErrConnectionRefused)
		assert.Equal(t, "connect failed: Bad User Name or Password", err.Error())

		var ce *ConnectError
		assert.ErrorAs(t, fmt.Errorf("wrapped: %w", err), &ce)
		assert.Equal(t, ReasonBadUserNameOrPassword, ce.ReturnCode)
	})

	t.Run("disconnect error", func(t *testing.T) {
		err := error(&DisconnectError{ReasonCode: ReasonServerShuttingDown})

		assert.ErrorIs(t, err, ErrServerDisconnect)
		assert.Equal(t, "server disconnect: Server shutting down", err.Error())
	})

	t.Run("connection lost", func(t *testing.T) {
		err := error(&ConnectionLostError{Cause: wrapPacketError(PacketPUBLISH, ErrMalformedPacket)})

		assert.ErrorIs(t, err, ErrMalformedPacket)
		assert.Equal(t, "connection lost: PUBLISH: malformed packet", err.Error())
		assert.Equal(t, "connection lost", (&ConnectionLostError{}).Error())
	})
}
