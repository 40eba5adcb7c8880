package wire

import "fmt"

// Kind is the packet id found at offset 6 of every header.
type Kind uint8

const (
	KindMotion Kind = iota
	KindSession
	KindLapData
	KindEvent
	KindParticipants
	KindCarSetup
	KindCarTelemetry
	KindCarStatus
	KindFinalClassification
	KindLobbyInfo
	KindCarDamage
	KindSessionHistory
	KindTyreSets
	KindMotionEx
	KindTimeTrial
)

// NumKinds is the number of packet kinds known for the current game version.
const NumKinds = 15

var kindNames = [NumKinds]string{
	"Motion",
	"Session",
	"LapData",
	"Event",
	"Participants",
	"CarSetup",
	"CarTelemetry",
	"CarStatus",
	"FinalClassification",
	"LobbyInfo",
	"CarDamage",
	"SessionHistory",
	"TyreSets",
	"MotionEx",
	"TimeTrial",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Valid reports whether k is one of the kinds known by this package.
// Registries may still hold schemas for other kinds.
func (k Kind) Valid() bool {
	return int(k) < NumKinds
}
