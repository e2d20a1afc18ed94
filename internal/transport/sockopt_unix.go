//go:build unix

package transport

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// controlSocket lets the directory and bridge sockets share a local port.
func controlSocket(_, _ string, c syscall.RawConn) error {
	var opErr error
	err := c.Control(func(fd uintptr) {
		opErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return opErr
}

func setBroadcast(c syscall.RawConn, on bool) error {
	v := 0
	if on {
		v = 1
	}
	var opErr error
	err := c.Control(func(fd uintptr) {
		opErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, v)
	})
	if err != nil {
		return err
	}
	return opErr
}
