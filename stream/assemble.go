package stream

import (
	"context"
	"fmt"
	"time"

	"github.com/banshee-data/mmwave/internal/timeutil"
)

// refillChunkLen is the size of a single transport read. A full read
// means the driver queue likely holds more, so the refill loop keeps
// draining.
const refillChunkLen = 512

// assembler fills fixed-size byte regions from the shared FIFO, pulling
// fresh transport bytes as needed. It tolerates link stalls: a region that
// stops advancing but has met its size-dependent completion ratio is
// accepted with a zero-filled tail instead of being discarded.
type assembler struct {
	port   Port
	fifo   *byteFIFO
	clock  timeutil.Clock
	policy AssemblyPolicy
	debugf func(format string, args ...any)

	// lastActivity is when transport bytes most recently arrived,
	// regardless of which region they were destined for.
	lastActivity time.Time

	scratch [refillChunkLen]byte
}

func newAssembler(port Port, fifo *byteFIFO, clock timeutil.Clock, policy AssemblyPolicy, debugf func(string, ...any)) *assembler {
	return &assembler{
		port:         port,
		fifo:         fifo,
		clock:        clock,
		policy:       policy,
		debugf:       debugf,
		lastActivity: clock.Now(),
	}
}

// fill fills dst from the FIFO and the transport within timeout. It reports
// true when dst holds a usable region: either completely filled, or filled
// past the policy's completion ratio and zero-padded after a stall. A false
// return means the caller must discard the in-progress frame. Transport
// faults and context cancellation surface as errors.
func (a *assembler) fill(ctx context.Context, dst []byte, timeout time.Duration) (bool, error) {
	start := a.clock.Now()
	deadline := start.Add(timeout)
	lastProgress := start
	filled := 0

	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		if n := a.fifo.take(dst[filled:]); n > 0 {
			filled += n
			lastProgress = a.clock.Now()
		}
		if filled == len(dst) {
			return true, nil
		}

		now := a.clock.Now()
		if now.After(deadline) {
			a.debugf("fill timed out with %d/%d bytes", filled, len(dst))
			return false, nil
		}

		if a.stalled(now, lastProgress) {
			ratio := float64(filled) / float64(len(dst))
			if ratio >= a.policy.MinCompletionRatio(len(dst)) {
				for i := filled; i < len(dst); i++ {
					dst[i] = 0
				}
				a.debugf("accepted stalled fill at %d/%d bytes, zero-padded tail", filled, len(dst))
				return true, nil
			}
		}

		if err := a.refill(ctx); err != nil {
			return false, err
		}
		if a.fifo.len() == 0 {
			a.clock.Sleep(a.policy.PollInterval)
		}
	}
}

// stalled reports whether the region has stopped advancing and the link has
// gone quiet.
func (a *assembler) stalled(now, lastProgress time.Time) bool {
	return now.Sub(lastProgress) > a.policy.StallWindow &&
		now.Sub(a.lastActivity) > a.policy.ActivityWindow
}

// refill drains available transport bytes into the FIFO. It loops while
// full-sized reads keep succeeding, for at most the policy's refill window,
// and backs off with a short sleep when a read comes back empty so an idle
// link is not busy-polled.
func (a *assembler) refill(ctx context.Context) error {
	start := a.clock.Now()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := a.port.Read(a.scratch[:])
		if err != nil {
			return fmt.Errorf("serial read: %w", err)
		}
		if n > 0 {
			a.fifo.push(a.scratch[:n])
			a.lastActivity = a.clock.Now()
			if n == refillChunkLen && a.clock.Since(start) < a.policy.RefillWindow {
				continue
			}
			return nil
		}

		a.clock.Sleep(a.policy.PollInterval)
		if a.clock.Since(start) >= a.policy.RefillWindow {
			return nil
		}
	}
}
