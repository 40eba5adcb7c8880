package wire

import (
	"bytes"
	"unicode/utf8"
)

const NameLength = 48

type Participant struct {
	AIControlled    uint8
	DriverID        uint8
	NetworkID       uint8
	TeamID          uint8
	MyTeam          uint8
	RaceNumber      uint8
	Nationality     uint8
	Name            [NameLength]byte
	YourTelemetry   uint8
	ShowOnlineNames uint8
	TechLevel       uint16
	Platform        uint8
}

type ParticipantsPacket struct {
	Header
	NumActiveCars uint8
	Participants  [MaxCars]Participant
}

type LobbyPlayer struct {
	AIControlled    uint8
	TeamID          uint8
	Nationality     uint8
	Platform        uint8
	Name            [NameLength]byte
	CarNumber       uint8
	YourTelemetry   uint8
	ShowOnlineNames uint8
	TechLevel       uint16
	ReadyStatus     uint8
}

type LobbyInfoPacket struct {
	Header
	NumPlayers uint8
	Players    [MaxCars]LobbyPlayer
}

// DecodeName returns the NUL terminated name as text.
// If the bytes are not valid UTF-8 the raw bytes are returned as string and ok is false.
func DecodeName(raw [NameLength]byte) (name string, ok bool) {
	b := raw[:]
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b), utf8.Valid(b)
}

// EncodeName is the inverse of DecodeName, longer names are cut.
func EncodeName(name string) [NameLength]byte {
	var raw [NameLength]byte
	copy(raw[:NameLength-1], name)
	return raw
}
