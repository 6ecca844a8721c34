// Package stream decodes the sensor's serial-port framing: a continuous
// byte stream that must be resynchronised on the magic word, assembled into
// a fixed 32-byte header plus variable payload, and validated, all within
// the sensor's frame period. Partial reads, dropped bytes, and link jitter
// are normal operating conditions here, not faults: a call that cannot
// produce a frame in time simply reports no packet and the caller tries
// again.
package stream

import (
	"context"
	"log"
	"time"

	"github.com/banshee-data/mmwave/internal/timeutil"
	"github.com/banshee-data/mmwave/packet"
)

// Reader frames packets out of a serial byte stream. A Reader exclusively
// owns its port and buffers and is not safe for concurrent use; callers
// must serialise access.
type Reader struct {
	port  Port
	cfg   Config
	clock timeutil.Clock

	fifo byteFIFO
	sync *magicSynchronizer
	asm  *assembler
	hdr  [packet.HeaderLen]byte

	// lastFrame is the timestamp of the previous successful magic-word
	// match, used to pace resynchronisation to the sensor's cadence.
	lastFrame time.Time
}

// NewReader opens the serial device at path and returns a reader over it.
func NewReader(path string, opts PortOptions, cfg Config) (*Reader, error) {
	port, err := OpenPort(path, opts)
	if err != nil {
		return nil, err
	}
	return NewReaderWithPort(port, cfg), nil
}

// NewReaderWithPort returns a reader over an already-open transport. This
// is the seam for injecting synthetic transports in tests and for
// transports other than a local serial device.
func NewReaderWithPort(port Port, cfg Config) *Reader {
	return newReader(port, cfg, timeutil.RealClock{})
}

func newReader(port Port, cfg Config, clock timeutil.Clock) *Reader {
	r := &Reader{
		port:  port,
		cfg:   cfg.normalized(),
		clock: clock,
	}
	r.asm = newAssembler(port, &r.fifo, clock, r.cfg.Assembly, r.debugf)
	r.sync = &magicSynchronizer{
		fifo:   &r.fifo,
		asm:    r.asm,
		clock:  clock,
		cfg:    r.cfg,
		debugf: r.debugf,
	}
	return r
}

// ReadPacket reads the next frame from the stream. It returns (nil, nil)
// when no complete frame arrived within the global timeout; that is the
// routine outcome under link jitter and the caller simply calls again.
// Errors are reserved for genuine transport faults and cancellation of ctx.
func (r *Reader) ReadPacket(ctx context.Context) (*packet.Packet, error) {
	start := r.clock.Now()
	deadline := start.Add(r.cfg.GlobalTimeout)

	found, err := r.sync.seek(ctx, deadline, r.clock.Since(r.lastFrame))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	synced := r.clock.Now()

	remaining := deadline.Sub(r.clock.Now())
	if remaining <= 0 {
		return nil, nil
	}
	ok, err := r.asm.fill(ctx, r.hdr[:], min(r.cfg.HeaderTimeout, remaining))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	h, err := packet.DecodeHeader(r.hdr[:])
	if err != nil {
		return nil, err
	}

	if err := r.cfg.Bounds.Validate(h); err != nil {
		r.debugf("header rejected: %v", err)
		r.fifo.clear()
		return nil, nil
	}

	payload := make([]byte, h.PayloadLen())
	remaining = deadline.Sub(r.clock.Now())
	if remaining <= 0 {
		return nil, nil
	}
	ok, err = r.asm.fill(ctx, payload, min(r.cfg.BodyTimeout(len(payload)), remaining))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	r.lastFrame = synced
	r.debugf("frame %d assembled: %d payload bytes, %d objects, %d TLVs",
		h.FrameNumber, len(payload), h.NumDetectedObj, h.NumTLV)
	return &packet.Packet{Header: h, Payload: payload}, nil
}

// Close closes the underlying transport.
func (r *Reader) Close() error {
	return r.port.Close()
}

func (r *Reader) debugf(format string, args ...any) {
	if r.cfg.Debug {
		log.Printf("stream: "+format, args...)
	}
}
