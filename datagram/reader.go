// Package datagram reads fixed-size sensor frames from a UDP socket. The
// datagram path is flow-free: every datagram carries exactly one raw frame
// with no header, so a receive that yields any other byte count is a
// framing fault, never a partial result.
package datagram

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// DefaultRecvBuffer is the socket receive buffer size requested at
// construction.
const DefaultRecvBuffer = 65536

// IncompleteFrameError reports a datagram whose size did not match the
// configured frame size. Datagrams are atomic, so this indicates a real
// mismatch between sender and receiver configuration.
type IncompleteFrameError struct {
	Expected int
	Received int
}

func (e *IncompleteFrameError) Error() string {
	return fmt.Sprintf("incomplete frame read: expected %d bytes, got %d", e.Expected, e.Received)
}

// Reader reads fixed-size frames from a bound UDP socket. The frame size
// and read timeout are fixed at construction. A Reader exclusively owns its
// socket and is not safe for concurrent use.
type Reader struct {
	sock      PacketSocket
	frameSize int
	timeout   time.Duration
}

// New binds a UDP socket on the given interface and port and returns a
// reader over it. The socket is opened with address reuse enabled and a
// DefaultRecvBuffer-sized receive buffer.
func New(iface string, port int, frameSize int, timeout time.Duration) (*Reader, error) {
	if frameSize <= 0 {
		return nil, fmt.Errorf("invalid frame size %d", frameSize)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("invalid read timeout %v", timeout)
	}

	lc := net.ListenConfig{Control: reuseAddr}
	conn, err := lc.ListenPacket(context.Background(), "udp", net.JoinHostPort(iface, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("bind udp %s:%d: %w", iface, port, err)
	}

	udpConn, ok := conn.(*net.UDPConn)
	if !ok {
		conn.Close()
		return nil, fmt.Errorf("unexpected connection type %T", conn)
	}
	if err := udpConn.SetReadBuffer(DefaultRecvBuffer); err != nil {
		udpConn.Close()
		return nil, fmt.Errorf("set receive buffer: %w", err)
	}

	return NewWithSocket(udpConn, frameSize, timeout)
}

// NewWithSocket returns a reader over an already-bound socket. This is the
// seam for injecting fake sockets in tests.
func NewWithSocket(sock PacketSocket, frameSize int, timeout time.Duration) (*Reader, error) {
	if frameSize <= 0 {
		return nil, fmt.Errorf("invalid frame size %d", frameSize)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("invalid read timeout %v", timeout)
	}
	return &Reader{sock: sock, frameSize: frameSize, timeout: timeout}, nil
}

// ReadFrame performs exactly one receive and returns the frame bytes. A
// datagram of any size other than the configured frame size fails with
// IncompleteFrameError. A receive that times out fails with the underlying
// deadline error.
func (r *Reader) ReadFrame() ([]byte, error) {
	buf := make([]byte, r.frameSize)

	if err := r.sock.SetReadDeadline(time.Now().Add(r.timeout)); err != nil {
		return nil, fmt.Errorf("set read deadline: %w", err)
	}
	n, _, err := r.sock.ReadFrom(buf)
	if err != nil {
		return nil, fmt.Errorf("read datagram: %w", err)
	}
	if n != r.frameSize {
		return nil, &IncompleteFrameError{Expected: r.frameSize, Received: n}
	}
	return buf, nil
}

// ReadFrames issues up to n sequential ReadFrame calls. It stops early
// without error on the first timed-out receive and propagates any other
// error immediately, alongside the frames collected so far.
func (r *Reader) ReadFrames(n int) ([][]byte, error) {
	frames := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		frame, err := r.ReadFrame()
		if err != nil {
			if isTimeout(err) {
				return frames, nil
			}
			return frames, err
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

// FrameSize returns the configured frame size in bytes.
func (r *Reader) FrameSize() int {
	return r.frameSize
}

// LocalAddr returns the bound socket address.
func (r *Reader) LocalAddr() net.Addr {
	return r.sock.LocalAddr()
}

// Close closes the underlying socket.
func (r *Reader) Close() error {
	return r.sock.Close()
}

// isTimeout reports whether err is a read-deadline expiry rather than a
// genuine socket fault.
func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
