package datagram

import (
	"net"
	"time"
)

// PacketSocket defines the socket operations the frame reader needs. This
// abstraction enables unit testing without real network connections.
type PacketSocket interface {
	// ReadFrom reads a single datagram from the socket.
	ReadFrom(b []byte) (n int, addr net.Addr, err error)

	// SetReadBuffer sets the size of the operating system's receive
	// buffer.
	SetReadBuffer(bytes int) error

	// SetReadDeadline sets the deadline for future ReadFrom calls.
	SetReadDeadline(t time.Time) error

	// Close closes the socket.
	Close() error

	// LocalAddr returns the local network address.
	LocalAddr() net.Addr
}
