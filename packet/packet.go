// Package packet defines the wire-level data model for TI mmWave radar
// frames: the magic word that marks the start of every serial-stream frame,
// the fixed 32-byte frame header, and the assembled packet handed to
// consumers. Payload contents (TLV sections, detected-object lists, heat
// maps) are carried opaquely; only the header is interpreted here.
package packet

import (
	"encoding/binary"
	"fmt"
)

const (
	// MagicWordLen is the length of the frame start marker in bytes.
	MagicWordLen = 8

	// HeaderLen is the length of the encoded frame header in bytes. The
	// header follows the magic word on the wire.
	HeaderLen = 32

	// FrameOverhead is the number of non-payload bytes in a frame. The
	// TotalPacketLen header field counts the whole frame, so payload
	// length is always TotalPacketLen - FrameOverhead.
	FrameOverhead = MagicWordLen + HeaderLen
)

// MagicWord marks the start of every serial-stream frame emitted by the
// sensor. The synchroniser scans for this exact byte sequence.
var MagicWord = [MagicWordLen]byte{0x02, 0x01, 0x04, 0x03, 0x06, 0x05, 0x08, 0x07}

// Header is the fixed frame header that follows the magic word: eight
// little-endian uint32 fields. A Header is decoded once from wire bytes and
// never mutated afterwards.
type Header struct {
	Version        uint32
	TotalPacketLen uint32
	Platform       uint32
	FrameNumber    uint32
	TimeCPUCycles  uint32
	NumDetectedObj uint32
	NumTLV         uint32
	SubFrameNumber uint32
}

// DecodeHeader parses the 32-byte header region into a Header. The input
// must be exactly HeaderLen bytes.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) != HeaderLen {
		return Header{}, fmt.Errorf("header must be %d bytes, got %d", HeaderLen, len(b))
	}
	return Header{
		Version:        binary.LittleEndian.Uint32(b[0:4]),
		TotalPacketLen: binary.LittleEndian.Uint32(b[4:8]),
		Platform:       binary.LittleEndian.Uint32(b[8:12]),
		FrameNumber:    binary.LittleEndian.Uint32(b[12:16]),
		TimeCPUCycles:  binary.LittleEndian.Uint32(b[16:20]),
		NumDetectedObj: binary.LittleEndian.Uint32(b[20:24]),
		NumTLV:         binary.LittleEndian.Uint32(b[24:28]),
		SubFrameNumber: binary.LittleEndian.Uint32(b[28:32]),
	}, nil
}

// Encode serialises the header back to its 32-byte wire layout.
func (h Header) Encode() [HeaderLen]byte {
	var b [HeaderLen]byte
	binary.LittleEndian.PutUint32(b[0:4], h.Version)
	binary.LittleEndian.PutUint32(b[4:8], h.TotalPacketLen)
	binary.LittleEndian.PutUint32(b[8:12], h.Platform)
	binary.LittleEndian.PutUint32(b[12:16], h.FrameNumber)
	binary.LittleEndian.PutUint32(b[16:20], h.TimeCPUCycles)
	binary.LittleEndian.PutUint32(b[20:24], h.NumDetectedObj)
	binary.LittleEndian.PutUint32(b[24:28], h.NumTLV)
	binary.LittleEndian.PutUint32(b[28:32], h.SubFrameNumber)
	return b
}

// PayloadLen returns the payload byte count implied by TotalPacketLen.
// Meaningful only for a header that has passed validation.
func (h Header) PayloadLen() int {
	return int(h.TotalPacketLen) - FrameOverhead
}

// Packet is one fully assembled frame: a validated header plus its payload
// bytes. The payload is owned by the packet; readers never retain it.
type Packet struct {
	Header  Header
	Payload []byte
}
