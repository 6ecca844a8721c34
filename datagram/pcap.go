//go:build pcap
// +build pcap

package datagram

import (
	"context"
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
)

// ReplayFile replays the UDP payloads of a PCAP capture through handle, in
// capture order. Only datagrams on udpPort are delivered, so a capture
// taken on a busy interface can still drive the frame pipeline. Replay
// stops at end of file, on context cancellation, or on the first handler
// error.
func ReplayFile(ctx context.Context, path string, udpPort int, handle func(frame []byte) error) error {
	pcapHandle, err := pcap.OpenOffline(path)
	if err != nil {
		return fmt.Errorf("open pcap file %s: %w", path, err)
	}
	defer pcapHandle.Close()

	filter := fmt.Sprintf("udp port %d", udpPort)
	if err := pcapHandle.SetBPFFilter(filter); err != nil {
		return fmt.Errorf("set BPF filter %q: %w", filter, err)
	}

	source := gopacket.NewPacketSource(pcapHandle, pcapHandle.LinkType())
	for pkt := range source.Packets() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		layer := pkt.Layer(layers.LayerTypeUDP)
		if layer == nil {
			continue
		}
		udpLayer := layer.(*layers.UDP)
		if err := handle(udpLayer.Payload); err != nil {
			return err
		}
	}
	return nil
}
