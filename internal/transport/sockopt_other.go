//go:build !unix

package transport

import "syscall"

func controlSocket(_, _ string, _ syscall.RawConn) error {
	return nil
}

// The runtime enables SO_BROADCAST on datagram sockets already.
func setBroadcast(_ syscall.RawConn, _ bool) error {
	return nil
}
