package stream

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/mmwave/packet"
)

// frameBytes builds a complete wire frame for h with the given payload.
func frameBytes(h packet.Header, payload []byte) []byte {
	encoded := h.Encode()
	frame := append([]byte{}, packet.MagicWord[:]...)
	frame = append(frame, encoded[:]...)
	return append(frame, payload...)
}

func TestReadPacketEndToEnd(t *testing.T) {
	// A frame preceded by three noise bytes, delivered across several
	// short transport reads with gaps between them. TotalPacketLen 72 is
	// what the demo firmware emits for a two-object frame; its length
	// granularity is 8 bytes, so the test tunes the multiple check
	// accordingly.
	cfg := Config{Bounds: packet.Bounds{
		MinPacketLen:      packet.FrameOverhead,
		MaxPacketLen:      4096,
		PacketLenMultiple: 8,
		MaxDetectedObj:    100,
		MaxTLV:            10,
	}}
	r, port, _ := newTestReader(t, cfg)

	header := packet.Header{
		Version:        1,
		TotalPacketLen: 72,
		FrameNumber:    7,
		NumDetectedObj: 2,
		NumTLV:         1,
	}
	payload := patternBytes(32)
	wire := append([]byte{0x13, 0x37, 0x00}, frameBytes(header, payload)...)

	port.QueueChunk(wire[:5])
	port.QueueGap(2)
	port.QueueChunk(wire[5:30])
	port.QueueGap(1)
	port.QueueChunk(wire[30:55])
	port.QueueGap(2)
	port.QueueChunk(wire[55:])

	pkt, err := r.ReadPacket(context.Background())
	if err != nil {
		t.Fatalf("ReadPacket: %v", err)
	}
	if pkt == nil {
		t.Fatal("ReadPacket returned no packet for a complete frame")
	}

	if diff := cmp.Diff(header, pkt.Header); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(payload, pkt.Payload); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestReadPacketNoDataIsNotAnError(t *testing.T) {
	r, _, clock := newTestReader(t, Config{})

	start := clock.Now()
	pkt, err := r.ReadPacket(context.Background())
	if err != nil {
		t.Fatalf("ReadPacket on a silent link: %v", err)
	}
	if pkt != nil {
		t.Fatalf("ReadPacket = %+v on a silent link, want nil", pkt)
	}
	if elapsed := clock.Since(start); elapsed > r.cfg.GlobalTimeout+r.cfg.FramePeriod {
		t.Errorf("ReadPacket took %v, want bounded by the global budget", elapsed)
	}
}

func TestReadPacketHeaderTimeout(t *testing.T) {
	// Magic word arrives but the header never does: the call must give
	// up and report no packet rather than error.
	r, port, _ := newTestReader(t, Config{})
	port.QueueChunk(packet.MagicWord[:])

	pkt, err := r.ReadPacket(context.Background())
	if err != nil {
		t.Fatalf("ReadPacket: %v", err)
	}
	if pkt != nil {
		t.Fatal("ReadPacket produced a packet without header bytes")
	}
}

func TestReadPacketInvalidHeaderClearsBuffer(t *testing.T) {
	r, port, _ := newTestReader(t, Config{})

	header := packet.Header{TotalPacketLen: 41} // fails the multiple-of-32 check
	wire := frameBytes(header, nil)
	wire = append(wire, patternBytes(64)...) // stale bytes that must be discarded
	port.QueueChunk(wire)

	pkt, err := r.ReadPacket(context.Background())
	if err != nil {
		t.Fatalf("ReadPacket: %v", err)
	}
	if pkt != nil {
		t.Fatal("ReadPacket accepted a header failing validation")
	}
	if r.fifo.len() != 0 {
		t.Errorf("fifo holds %d bytes after invalid header, want 0 for clean resync", r.fifo.len())
	}
}

func TestReadPacketBodyIncomplete(t *testing.T) {
	// Header promises 216 payload bytes but only 100 (46%) arrive: far
	// below every completion tier, so the frame is discarded.
	r, port, _ := newTestReader(t, Config{})

	header := packet.Header{TotalPacketLen: 256, NumDetectedObj: 4, NumTLV: 2}
	wire := frameBytes(header, patternBytes(100))
	port.QueueChunk(wire)

	pkt, err := r.ReadPacket(context.Background())
	if err != nil {
		t.Fatalf("ReadPacket: %v", err)
	}
	if pkt != nil {
		t.Fatal("ReadPacket returned a packet from an abandoned body fill")
	}
}

func TestReadPacketPacesConsecutiveCalls(t *testing.T) {
	r, port, clock := newTestReader(t, Config{})

	header := packet.Header{TotalPacketLen: 64, NumTLV: 1}
	port.QueueChunk(frameBytes(header, patternBytes(24)))

	pkt, err := r.ReadPacket(context.Background())
	if err != nil || pkt == nil {
		t.Fatalf("ReadPacket = (%v, %v), want a packet", pkt, err)
	}

	// The sensor runs at one frame per FramePeriod: an immediate second
	// call must yield rather than race the hardware.
	clock.Advance(10 * time.Millisecond)
	port.QueueChunk(frameBytes(header, patternBytes(24)))

	reads := port.ReadCalls
	pkt, err = r.ReadPacket(context.Background())
	if err != nil {
		t.Fatalf("ReadPacket: %v", err)
	}
	if pkt != nil {
		t.Fatal("second ReadPacket within the frame period returned a packet")
	}
	if port.ReadCalls != reads {
		t.Error("paced ReadPacket still polled the transport")
	}
}

func TestReadPacketTransportFault(t *testing.T) {
	r, port, _ := newTestReader(t, Config{})
	port.ReadError = errors.New("input/output error")

	_, err := r.ReadPacket(context.Background())
	if err == nil {
		t.Fatal("ReadPacket swallowed a transport fault")
	}
}

func TestReadPacketCancellation(t *testing.T) {
	r, _, _ := newTestReader(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.ReadPacket(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ReadPacket under cancelled context = %v, want context.Canceled", err)
	}
}

func TestReaderClose(t *testing.T) {
	r, port, _ := newTestReader(t, Config{})
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !port.Closed {
		t.Error("Close did not close the transport")
	}
}
