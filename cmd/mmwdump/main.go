// Command mmwdump dumps frames from an mmWave sensor to stdout, from either
// the serial data port or the UDP frame stream. It is a diagnostic tool for
// checking that a sensor is wired up and framing correctly.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/mmwave/datagram"
	"github.com/banshee-data/mmwave/stream"
)

var (
	serialPort = flag.String("port", "/dev/ttyUSB1", "Serial data port to read frames from")
	baud       = flag.Int("baud", 1036800, "Serial baud rate")
	debug      = flag.Bool("debug", false, "Trace synchronisation and validation decisions")
	configPath = flag.String("config", "", "Optional JSON tuning file for the stream reader")

	udpMode   = flag.Bool("udp", false, "Read fixed-size frames from UDP instead of serial")
	udpIface  = flag.String("iface", "0.0.0.0", "UDP bind interface")
	udpPort   = flag.Int("udp-port", 4098, "UDP bind port")
	frameSize = flag.Int("frame-size", 1024, "UDP frame size in bytes")
	timeout   = flag.Duration("timeout", time.Second, "UDP read timeout")
)

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *udpMode {
		if err := dumpDatagrams(ctx); err != nil {
			log.Fatalf("udp dump failed: %v", err)
		}
		return
	}
	if err := dumpStream(ctx); err != nil {
		log.Fatalf("stream dump failed: %v", err)
	}
}

func dumpStream(ctx context.Context) error {
	cfg := stream.DefaultConfig()
	if *configPath != "" {
		loaded, err := stream.LoadConfig(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	cfg.Debug = *debug

	opts := stream.DefaultPortOptions()
	opts.BaudRate = *baud

	reader, err := stream.NewReader(*serialPort, opts, cfg)
	if err != nil {
		return err
	}
	defer reader.Close()

	log.Printf("reading frames from %s at %d baud", *serialPort, opts.BaudRate)

	var frames, misses int
	for ctx.Err() == nil {
		pkt, err := reader.ReadPacket(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			return err
		}
		if pkt == nil {
			misses++
			continue
		}
		frames++
		log.Printf("frame %d: %d payload bytes, %d objects, %d TLVs (version %#x, platform %#x)",
			pkt.Header.FrameNumber, len(pkt.Payload), pkt.Header.NumDetectedObj,
			pkt.Header.NumTLV, pkt.Header.Version, pkt.Header.Platform)
	}

	log.Printf("done: %d frames, %d empty polls", frames, misses)
	return nil
}

func dumpDatagrams(ctx context.Context) error {
	reader, err := datagram.New(*udpIface, *udpPort, *frameSize, *timeout)
	if err != nil {
		return err
	}
	defer reader.Close()

	log.Printf("UDP listener started on %s expecting %d-byte frames", reader.LocalAddr(), *frameSize)

	var frameCount, byteCount int
	last := time.Now()
	for ctx.Err() == nil {
		frames, err := reader.ReadFrames(100)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			return err
		}
		frameCount += len(frames)
		for _, f := range frames {
			byteCount += len(f)
		}

		if elapsed := time.Since(last); elapsed >= time.Second {
			log.Printf("received: %.0f frames/sec, %.1f KB/sec",
				float64(frameCount)/elapsed.Seconds(), float64(byteCount)/1024/elapsed.Seconds())
			frameCount, byteCount = 0, 0
			last = time.Now()
		}
	}
	return nil
}
