package mqttlite

import (
	"errors"
	"syscall"
)

var errnoTable = []struct {
	err   error
	errno syscall.Errno
}{
	{ErrMalformedPacket, syscall.EBADMSG},
	{ErrPacketTooLarge, syscall.EMSGSIZE},
	{ErrBufferOverflow, syscall.ENOMEM},
	{ErrWouldBlock, syscall.EAGAIN},
	{ErrNotConnected, syscall.ENOTCONN},
	{ErrAlreadyConnected, syscall.EALREADY},
	{ErrBusy, syscall.EBUSY},
	{ErrConnectionRefused, syscall.ECONNREFUSED},
	{ErrConnectionAborted, syscall.ECONNABORTED},
	{ErrNotSupported, syscall.ENOTSUP},
	{ErrInvalidArgument, syscall.EINVAL},
}

// Errno maps err to the POSIX error number of its category. It returns 0
// for nil and EIO for errors outside the package's categories.
func Errno(err error) syscall.Errno {
	if err == nil {
		return 0
	}
	for _, e := range errnoTable {
		if errors.Is(err, e.err) {
			return e.errno
		}
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno
	}
	return syscall.EIO
}
