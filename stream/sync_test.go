package stream

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/banshee-data/mmwave/internal/timeutil"
	"github.com/banshee-data/mmwave/packet"
)

func newTestReader(t *testing.T, cfg Config) (*Reader, *TestablePort, *timeutil.MockClock) {
	t.Helper()
	port := NewTestablePort()
	clock := timeutil.NewMockClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	return newReader(port, cfg, clock), port, clock
}

func seekDeadline(r *Reader) time.Time {
	return r.clock.Now().Add(r.cfg.GlobalTimeout)
}

func TestSeekFindsMagicAfterNoise(t *testing.T) {
	r, port, _ := newTestReader(t, Config{})
	port.QueueChunk(append([]byte{0xde, 0xad, 0xbe}, packet.MagicWord[:]...))

	found, err := r.sync.seek(context.Background(), seekDeadline(r), time.Hour)
	if err != nil {
		t.Fatalf("seek: %v", err)
	}
	if !found {
		t.Fatal("seek did not find magic word after noise prefix")
	}
	if r.fifo.len() != 0 {
		t.Errorf("fifo holds %d bytes after seek, want 0", r.fifo.len())
	}
}

func TestSeekOverlappingPartialMatch(t *testing.T) {
	// The first three bytes of the magic word appear immediately before
	// the real occurrence. The byte that breaks the partial match is
	// itself the first byte of the true match and must not be dropped.
	r, port, _ := newTestReader(t, Config{})
	data := append([]byte{0x02, 0x01, 0x04}, packet.MagicWord[:]...)
	data = append(data, 0xaa) // first byte after the frame start
	port.QueueChunk(data)

	found, err := r.sync.seek(context.Background(), seekDeadline(r), time.Hour)
	if err != nil {
		t.Fatalf("seek: %v", err)
	}
	if !found {
		t.Fatal("seek skipped past an overlapping magic word occurrence")
	}

	b, ok := r.fifo.pop()
	if !ok || b != 0xaa {
		t.Errorf("next byte after seek = %#x (present %v), want 0xaa", b, ok)
	}
}

func TestSeekRepeatedPrefixRuns(t *testing.T) {
	// Several broken prefixes back to back, then the real magic word
	// split across two transport reads with a gap between them.
	r, port, _ := newTestReader(t, Config{})
	port.QueueChunk([]byte{0x02, 0x01, 0x02, 0x01, 0x04, 0x02})
	port.QueueGap(2)
	port.QueueChunk(packet.MagicWord[:4])
	port.QueueGap(1)
	port.QueueChunk(packet.MagicWord[4:])

	found, err := r.sync.seek(context.Background(), seekDeadline(r), time.Hour)
	if err != nil {
		t.Fatalf("seek: %v", err)
	}
	if !found {
		t.Fatal("seek did not find magic word after repeated prefixes")
	}
}

func TestSeekPacesToFramePeriod(t *testing.T) {
	r, port, clock := newTestReader(t, Config{})
	port.QueueChunk(packet.MagicWord[:])

	// 10ms since the previous sync is well under 65% of the 100ms frame
	// period: the sensor cannot have produced a new frame yet.
	found, err := r.sync.seek(context.Background(), seekDeadline(r), 10*time.Millisecond)
	if err != nil {
		t.Fatalf("seek: %v", err)
	}
	if found {
		t.Fatal("seek polled the transport while paced to the frame cadence")
	}
	if port.ReadCalls != 0 {
		t.Errorf("seek made %d transport reads while paced, want 0", port.ReadCalls)
	}
	if len(clock.Sleeps()) == 0 {
		t.Error("paced seek returned without yielding the processor")
	}
}

func TestSeekGivesUpAfterFramePeriod(t *testing.T) {
	r, _, clock := newTestReader(t, Config{})

	start := clock.Now()
	found, err := r.sync.seek(context.Background(), clock.Now().Add(time.Hour), time.Hour)
	if err != nil {
		t.Fatalf("seek: %v", err)
	}
	if found {
		t.Fatal("seek reported success on a silent link")
	}
	if elapsed := clock.Since(start); elapsed < r.cfg.FramePeriod {
		t.Errorf("seek gave up after %v, want at least one frame period (%v)", elapsed, r.cfg.FramePeriod)
	}
}

func TestSeekPropagatesTransportError(t *testing.T) {
	r, port, _ := newTestReader(t, Config{})
	port.ReadError = errors.New("device disconnected")

	_, err := r.sync.seek(context.Background(), seekDeadline(r), time.Hour)
	if err == nil {
		t.Fatal("seek swallowed a transport fault")
	}
}

func TestSeekObservesCancellation(t *testing.T) {
	r, _, _ := newTestReader(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.sync.seek(ctx, seekDeadline(r), time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("seek under cancelled context = %v, want context.Canceled", err)
	}
}
