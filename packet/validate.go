package packet

import "fmt"

// Bounds holds the header validation limits. The limits mirror what the
// sensor firmware actually emits; a header outside them means the stream
// reader latched onto noise and should resynchronise.
//
// Note that MinPacketLen and PacketLenMultiple are mutually inconsistent on
// their face (40 is not a multiple of 32), so the smallest length that
// passes both checks is 64. The firmware applies both checks literally and
// so do we.
type Bounds struct {
	MinPacketLen      uint32 `json:"min_packet_len"`
	MaxPacketLen      uint32 `json:"max_packet_len"`
	PacketLenMultiple uint32 `json:"packet_len_multiple"`
	MaxDetectedObj    uint32 `json:"max_detected_obj"`
	MaxTLV            uint32 `json:"max_tlv"`
}

// DefaultBounds returns the validation limits for the mmWave demo firmware.
func DefaultBounds() Bounds {
	return Bounds{
		MinPacketLen:      FrameOverhead,
		MaxPacketLen:      4096,
		PacketLenMultiple: 32,
		MaxDetectedObj:    100,
		MaxTLV:            10,
	}
}

// Validate checks h against the bounds. A nil return means the header is
// plausible and the frame body can be read; an error describes the first
// field that failed.
func (b Bounds) Validate(h Header) error {
	if h.TotalPacketLen < b.MinPacketLen {
		return fmt.Errorf("total packet length %d below minimum %d", h.TotalPacketLen, b.MinPacketLen)
	}
	if h.TotalPacketLen > b.MaxPacketLen {
		return fmt.Errorf("total packet length %d above maximum %d", h.TotalPacketLen, b.MaxPacketLen)
	}
	if b.PacketLenMultiple > 0 && h.TotalPacketLen%b.PacketLenMultiple != 0 {
		return fmt.Errorf("total packet length %d not a multiple of %d", h.TotalPacketLen, b.PacketLenMultiple)
	}
	if h.NumDetectedObj > b.MaxDetectedObj {
		return fmt.Errorf("detected object count %d above maximum %d", h.NumDetectedObj, b.MaxDetectedObj)
	}
	if h.NumTLV > b.MaxTLV {
		return fmt.Errorf("TLV count %d above maximum %d", h.NumTLV, b.MaxTLV)
	}
	return nil
}
