package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/dbsDevelops/f1-24-setup-recommender/log"
)

// DatagramFunc receives the UDP payload and the capture timestamp.
type DatagramFunc func(ts time.Time, payload []byte) error

// ReadPcap calls fn for every UDP payload with the given destination port.
// Port 0 accepts all UDP packets.
func ReadPcap(ctx context.Context, r io.Reader, port uint16, fn DatagramFunc) (int, error) {
	reader, err := pcapgo.NewReader(r)
	if err != nil {
		return 0, fmt.Errorf("failed to read pcap header: %w", err)
	}
	l := log.Default().Named("capture.pcap")
	source := gopacket.NewPacketSource(reader, reader.LinkType())
	count := 0
	for {
		select {
		case <-ctx.Done():
			return count, ctx.Err()
		default:
		}
		packet, err := source.NextPacket()
		if errors.Is(err, io.EOF) {
			l.Debug("pcap complete", log.Int("datagrams", count))
			return count, nil
		}
		if err != nil {
			return count, fmt.Errorf("failed to read pcap packet: %w", err)
		}
		udpLayer := packet.Layer(layers.LayerTypeUDP)
		if udpLayer == nil {
			continue
		}
		udp, ok := udpLayer.(*layers.UDP)
		if !ok {
			continue
		}
		if port != 0 && uint16(udp.DstPort) != port {
			continue
		}
		if len(udp.Payload) == 0 {
			continue
		}
		count++
		if err := fn(packet.Metadata().Timestamp, udp.Payload); err != nil {
			return count, err
		}
	}
}
