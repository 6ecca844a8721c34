package stream

import (
	"context"
	"time"

	"github.com/banshee-data/mmwave/internal/timeutil"
	"github.com/banshee-data/mmwave/packet"
)

// magicSynchronizer locates the start of the next frame by scanning the
// byte stream for the magic word. It consumes every byte up to and
// including the match, so a successful seek leaves the FIFO positioned at
// the first header byte.
type magicSynchronizer struct {
	fifo   *byteFIFO
	asm    *assembler
	clock  timeutil.Clock
	cfg    Config
	debugf func(format string, args ...any)
}

// seek scans for the magic word. sinceLast is the time elapsed since the
// previous successful sync: when the sensor cannot have produced a new
// frame yet (less than the resync fraction of the frame period), seek
// yields briefly and reports not-found instead of racing ahead of the
// hardware's cadence. Otherwise it polls the transport for up to one frame
// period, bounded by the caller's deadline.
//
// The scan is a single-pass automaton over a partial-prefix counter: a byte
// that breaks the current match is re-tested as the start of a new one, so
// overlapping magic-word occurrences are never skipped.
func (s *magicSynchronizer) seek(ctx context.Context, deadline time.Time, sinceLast time.Duration) (bool, error) {
	threshold := time.Duration(float64(s.cfg.FramePeriod) * s.cfg.ResyncFraction)
	if sinceLast < threshold {
		s.clock.Sleep(s.cfg.Assembly.PollInterval)
		return false, nil
	}

	limit := s.clock.Now().Add(s.cfg.FramePeriod)
	if limit.After(deadline) {
		limit = deadline
	}

	matched := 0
	scanned := 0
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		b, ok := s.fifo.pop()
		if !ok {
			if s.clock.Now().After(limit) {
				s.debugf("magic word not found after %d bytes", scanned)
				return false, nil
			}
			if err := s.asm.refill(ctx); err != nil {
				return false, err
			}
			if s.fifo.len() == 0 {
				s.clock.Sleep(s.cfg.Assembly.PollInterval)
			}
			continue
		}
		scanned++

		if b == packet.MagicWord[matched] {
			matched++
			if matched == packet.MagicWordLen {
				s.debugf("magic word found after %d bytes", scanned)
				return true, nil
			}
			continue
		}

		// A byte that breaks the match may itself start a new one.
		if matched > 0 && b == packet.MagicWord[0] {
			matched = 1
		} else {
			matched = 0
		}
	}
}
