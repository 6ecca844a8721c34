//go:build !pcap
// +build !pcap

package datagram

import (
	"context"
	"fmt"
)

// ReplayFile is a stub implementation when PCAP support is disabled.
// Build with -tags=pcap to enable PCAP file replay.
func ReplayFile(ctx context.Context, path string, udpPort int, handle func(frame []byte) error) error {
	return fmt.Errorf("PCAP support not enabled: rebuild with -tags=pcap to enable PCAP file replay")
}
