package wire

import "encoding/binary"

// event codes
const (
	EventSessionStarted     = "SSTA"
	EventSessionEnded       = "SEND"
	EventFastestLap         = "FTLP"
	EventRetirement         = "RTMT"
	EventDRSEnabled         = "DRSE"
	EventDRSDisabled        = "DRSD"
	EventTeamMateInPits     = "TMPT"
	EventChequeredFlag      = "CHQF"
	EventRaceWinner         = "RCWN"
	EventPenalty            = "PENA"
	EventSpeedTrap          = "SPTP"
	EventStartLights        = "STLG"
	EventLightsOut          = "LGOT"
	EventDriveThroughServed = "DTSV"
	EventStopGoServed       = "SGSV"
	EventFlashback          = "FLBK"
	EventButtons            = "BUTN"
	EventRedFlag            = "RDFL"
	EventOvertake           = "OVTK"
	EventSafetyCar          = "SCAC"
	EventCollision          = "COLL"
)

// EventDetailsSize is the size of the largest detail record (SpeedTrap).
const EventDetailsSize = 12

// EventPacket keeps the detail union as raw bytes.
// The active member is selected by Code, see Detail.
type EventPacket struct {
	Header
	Code    [4]byte
	Details [EventDetailsSize]byte
}

func (p *EventPacket) EventCode() string {
	return string(p.Code[:])
}

type (
	FastestLap struct {
		VehicleIdx uint8
		LapTime    float32
	}
	Retirement struct {
		VehicleIdx uint8
	}
	TeamMateInPits struct {
		VehicleIdx uint8
	}
	RaceWinner struct {
		VehicleIdx uint8
	}
	Penalty struct {
		PenaltyType      uint8
		InfringementType uint8
		VehicleIdx       uint8
		OtherVehicleIdx  uint8
		Time             uint8
		LapNum           uint8
		PlacesGained     uint8
	}
	SpeedTrap struct {
		VehicleIdx                 uint8
		Speed                      float32
		IsOverallFastestInSession  uint8
		IsDriverFastestInSession   uint8
		FastestVehicleIdxInSession uint8
		FastestSpeedInSession      float32
	}
	StartLights struct {
		NumLights uint8
	}
	DriveThroughPenaltyServed struct {
		VehicleIdx uint8
	}
	StopGoPenaltyServed struct {
		VehicleIdx uint8
	}
	Flashback struct {
		FlashbackFrameIdentifier uint32
		FlashbackSessionTime     float32
	}
	Buttons struct {
		ButtonStatus uint32
	}
	Overtake struct {
		OvertakingVehicleIdx     uint8
		BeingOvertakenVehicleIdx uint8
	}
	SafetyCarEvent struct {
		SafetyCarType uint8
		EventType     uint8
	}
	Collision struct {
		Vehicle1Idx uint8
		Vehicle2Idx uint8
	}
)

// Detail interprets the detail bytes according to the event code.
// It returns nil and true for codes that carry no details and
// nil and false for codes not known to this package.
func (p *EventPacket) Detail() (any, bool) {
	var detail any
	switch p.EventCode() {
	case EventSessionStarted, EventSessionEnded, EventDRSEnabled, EventDRSDisabled,
		EventChequeredFlag, EventLightsOut, EventRedFlag:
		return nil, true
	case EventFastestLap:
		detail = &FastestLap{}
	case EventRetirement:
		detail = &Retirement{}
	case EventTeamMateInPits:
		detail = &TeamMateInPits{}
	case EventRaceWinner:
		detail = &RaceWinner{}
	case EventPenalty:
		detail = &Penalty{}
	case EventSpeedTrap:
		detail = &SpeedTrap{}
	case EventStartLights:
		detail = &StartLights{}
	case EventDriveThroughServed:
		detail = &DriveThroughPenaltyServed{}
	case EventStopGoServed:
		detail = &StopGoPenaltyServed{}
	case EventFlashback:
		detail = &Flashback{}
	case EventButtons:
		detail = &Buttons{}
	case EventOvertake:
		detail = &Overtake{}
	case EventSafetyCar:
		detail = &SafetyCarEvent{}
	case EventCollision:
		detail = &Collision{}
	default:
		return nil, false
	}
	if _, err := binary.Decode(p.Details[:], binary.LittleEndian, detail); err != nil {
		return nil, false
	}
	return detail, true
}

// SetDetail stores detail into the union bytes and sets the matching code.
// Used for building packets, e.g. by test fixtures and the sender.
func (p *EventPacket) SetDetail(code string, detail any) error {
	copy(p.Code[:], code)
	p.Details = [EventDetailsSize]byte{}
	if detail == nil {
		return nil
	}
	_, err := binary.Encode(p.Details[:], binary.LittleEndian, detail)
	return err
}
