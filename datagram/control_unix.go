//go:build unix

package datagram

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// reuseAddr enables SO_REUSEADDR before the socket binds, so a restarted
// reader can re-bind immediately while old sockets linger.
func reuseAddr(network, address string, c syscall.RawConn) error {
	var sockErr error
	if err := c.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	}); err != nil {
		return err
	}
	return sockErr
}
