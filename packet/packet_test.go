package packet

import (
	"encoding/binary"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHeaderRoundTrip(t *testing.T) {
	headers := []Header{
		{},
		{
			Version:        0x03060104,
			TotalPacketLen: 96,
			Platform:       0xa6843,
			FrameNumber:    1234,
			TimeCPUCycles:  987654321,
			NumDetectedObj: 12,
			NumTLV:         3,
			SubFrameNumber: 1,
		},
		{
			Version:        0xffffffff,
			TotalPacketLen: 0xffffffff,
			Platform:       0xffffffff,
			FrameNumber:    0xffffffff,
			TimeCPUCycles:  0xffffffff,
			NumDetectedObj: 0xffffffff,
			NumTLV:         0xffffffff,
			SubFrameNumber: 0xffffffff,
		},
	}

	for _, want := range headers {
		encoded := want.Encode()
		got, err := DecodeHeader(encoded[:])
		if err != nil {
			t.Fatalf("DecodeHeader: %v", err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("header round trip mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestDecodeHeaderWireLayout(t *testing.T) {
	// Fields are little-endian uint32 words in declaration order.
	var b [HeaderLen]byte
	binary.LittleEndian.PutUint32(b[0:4], 1)    // version
	binary.LittleEndian.PutUint32(b[4:8], 72)   // total packet length
	binary.LittleEndian.PutUint32(b[12:16], 7)  // frame number
	binary.LittleEndian.PutUint32(b[20:24], 2)  // detected objects
	binary.LittleEndian.PutUint32(b[24:28], 1)  // TLV count
	binary.LittleEndian.PutUint32(b[28:32], 42) // sub-frame number

	got, err := DecodeHeader(b[:])
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}

	want := Header{
		Version:        1,
		TotalPacketLen: 72,
		FrameNumber:    7,
		NumDetectedObj: 2,
		NumTLV:         1,
		SubFrameNumber: 42,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decoded header mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeHeaderWrongLength(t *testing.T) {
	for _, n := range []int{0, 31, 33} {
		if _, err := DecodeHeader(make([]byte, n)); err == nil {
			t.Errorf("DecodeHeader accepted %d bytes, want error", n)
		}
	}
}

func TestPayloadLen(t *testing.T) {
	h := Header{TotalPacketLen: 72}
	if got := h.PayloadLen(); got != 32 {
		t.Errorf("PayloadLen() = %d, want 32", got)
	}
}

func TestMagicWordBytes(t *testing.T) {
	want := []byte{0x02, 0x01, 0x04, 0x03, 0x06, 0x05, 0x08, 0x07}
	if diff := cmp.Diff(want, MagicWord[:]); diff != "" {
		t.Errorf("magic word mismatch (-want +got):\n%s", diff)
	}
}
