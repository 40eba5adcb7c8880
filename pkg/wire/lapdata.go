package wire

type LapData struct {
	LastLapTimeInMS             uint32
	CurrentLapTimeInMS          uint32
	Sector1TimeInMS             uint16
	Sector1TimeMinutes          uint8
	Sector2TimeInMS             uint16
	Sector2TimeMinutes          uint8
	DeltaToCarInFrontInMS       uint16
	DeltaToCarInFrontMinutes    uint8
	DeltaToRaceLeaderInMS       uint16
	DeltaToRaceLeaderMinutes    uint8
	LapDistance                 float32
	TotalDistance               float32
	SafetyCarDelta              float32
	CarPosition                 uint8
	CurrentLapNum               uint8
	PitStatus                   uint8
	NumPitStops                 uint8
	Sector                      uint8
	CurrentLapInvalid           uint8
	Penalties                   uint8
	TotalWarnings               uint8
	CornerCuttingWarnings       uint8
	NumUnservedDriveThroughPens uint8
	NumUnservedStopGoPens       uint8
	GridPosition                uint8
	DriverStatus                uint8
	ResultStatus                uint8
	PitLaneTimerActive          uint8
	PitLaneTimeInLaneInMS       uint16
	PitStopTimerInMS            uint16
	PitStopShouldServePen       uint8
	SpeedTrapFastestSpeed       float32
	SpeedTrapFastestLap         uint8
}

type LapDataPacket struct {
	Header
	Cars                 [MaxCars]LapData
	TimeTrialPBCarIdx    uint8
	TimeTrialRivalCarIdx int8
}
