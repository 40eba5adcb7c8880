package wire

import (
	"encoding/binary"
	"fmt"
)

const (
	// FormatF124 is the packet format value sent by the 2024 game.
	FormatF124 uint16 = 2024
	// HeaderSize is the packed size of Header.
	HeaderSize = 29

	MaxCars           = 22
	MaxMarshalZones   = 21
	MaxWeatherSamples = 64
	MaxLapHistory     = 100
	MaxTyreStints     = 8
	MaxTyreSets       = 20
)

// offsets of the fields needed for schema selection
const (
	offsetFormat = 0
	offsetKind   = 6
)

// Header is the common header of all packets.
type Header struct {
	PacketFormat            uint16
	GameYear                uint8
	GameMajorVersion        uint8
	GameMinorVersion        uint8
	PacketVersion           uint8
	PacketID                Kind
	SessionUID              uint64
	SessionTime             float32
	FrameIdentifier         uint32
	OverallFrameIdentifier  uint32
	PlayerCarIndex          uint8
	SecondaryPlayerCarIndex uint8
}

// PacketHeader makes every packet embedding Header a Packet.
func (h *Header) PacketHeader() *Header {
	return h
}

func (h *Header) Kind() Kind {
	return h.PacketID
}

// Packet is implemented by all decoded packet records.
type Packet interface {
	PacketHeader() *Header
}

// DecodeHeader reads the common header from the start of buf.
func DecodeHeader(buf []byte) (Header, error) {
	var h Header
	if len(buf) < HeaderSize {
		return h, &TruncatedError{Need: HeaderSize, Got: len(buf)}
	}
	if _, err := binary.Decode(buf[:HeaderSize], binary.LittleEndian, &h); err != nil {
		return h, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return h, nil
}

// peek returns format and kind without decoding the whole header.
func peek(buf []byte) (format uint16, kind Kind) {
	return binary.LittleEndian.Uint16(buf[offsetFormat:]), Kind(buf[offsetKind])
}
