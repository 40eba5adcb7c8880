package basedata

import (
	"bytes"
	"net"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// PcapDatagram is one UDP payload of a pcap fixture.
type PcapDatagram struct {
	Timestamp time.Time
	DstPort   uint16
	Payload   []byte
}

// Pcap returns an ethernet pcap file containing the datagrams as IPv4/UDP packets.
func Pcap(datagrams ...PcapDatagram) ([]byte, error) {
	var file bytes.Buffer
	w := pcapgo.NewWriter(&file)
	if err := w.WriteFileHeader(65536, layers.LinkTypeEthernet); err != nil {
		return nil, err
	}
	for _, d := range datagrams {
		eth := &layers.Ethernet{
			SrcMAC:       net.HardwareAddr{0, 1, 2, 3, 4, 5},
			DstMAC:       net.HardwareAddr{6, 7, 8, 9, 10, 11},
			EthernetType: layers.EthernetTypeIPv4,
		}
		ip := &layers.IPv4{
			Version:  4,
			TTL:      64,
			Protocol: layers.IPProtocolUDP,
			SrcIP:    net.IPv4(192, 168, 1, 10),
			DstIP:    net.IPv4(192, 168, 1, 20),
		}
		udp := &layers.UDP{SrcPort: 50000, DstPort: layers.UDPPort(d.DstPort)}
		if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
			return nil, err
		}
		buf := gopacket.NewSerializeBuffer()
		opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
		if err := gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(d.Payload)); err != nil {
			return nil, err
		}
		data := buf.Bytes()
		err := w.WritePacket(gopacket.CaptureInfo{
			Timestamp:     d.Timestamp,
			CaptureLength: len(data),
			Length:        len(data),
		}, data)
		if err != nil {
			return nil, err
		}
	}
	return file.Bytes(), nil
}
