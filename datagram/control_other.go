//go:build !unix

package datagram

import "syscall"

// reuseAddr is a no-op on platforms without SO_REUSEADDR socket options
// exposed through x/sys.
func reuseAddr(network, address string, c syscall.RawConn) error {
	return nil
}
