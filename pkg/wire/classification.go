package wire

type FinalClassification struct {
	Position          uint8
	NumLaps           uint8
	GridPosition      uint8
	Points            uint8
	NumPitStops       uint8
	ResultStatus      uint8
	BestLapTimeInMS   uint32
	TotalRaceTime     float64
	PenaltiesTime     uint8
	NumPenalties      uint8
	NumTyreStints     uint8
	TyreStintsActual  [MaxTyreStints]uint8
	TyreStintsVisual  [MaxTyreStints]uint8
	TyreStintsEndLaps [MaxTyreStints]uint8
}

type FinalClassificationPacket struct {
	Header
	NumCars uint8
	Cars    [MaxCars]FinalClassification
}

type LapHistory struct {
	LapTimeInMS        uint32
	Sector1TimeInMS    uint16
	Sector1TimeMinutes uint8
	Sector2TimeInMS    uint16
	Sector2TimeMinutes uint8
	Sector3TimeInMS    uint16
	Sector3TimeMinutes uint8
	LapValidBitFlags   uint8 // 0x01 lap, 0x02 s1, 0x04 s2, 0x08 s3
}

type TyreStintHistory struct {
	EndLap             uint8
	TyreActualCompound uint8
	TyreVisualCompound uint8
}

type SessionHistoryPacket struct {
	Header
	CarIdx            uint8
	NumLaps           uint8
	NumTyreStints     uint8
	BestLapTimeLapNum uint8
	BestSector1LapNum uint8
	BestSector2LapNum uint8
	BestSector3LapNum uint8
	Laps              [MaxLapHistory]LapHistory
	TyreStints        [MaxTyreStints]TyreStintHistory
}

type TyreSet struct {
	ActualTyreCompound uint8
	VisualTyreCompound uint8
	Wear               uint8
	Available          uint8
	RecommendedSession uint8
	LifeSpan           uint8
	UsableLife         uint8
	LapDeltaTime       int16
	Fitted             uint8
}

type TyreSetsPacket struct {
	Header
	CarIdx    uint8
	TyreSets  [MaxTyreSets]TyreSet
	FittedIdx uint8
}

type TimeTrialDataSet struct {
	CarIdx              uint8
	TeamID              uint8
	LapTimeInMS         uint32
	Sector1TimeInMS     uint32
	Sector2TimeInMS     uint32
	Sector3TimeInMS     uint32
	TractionControl     uint8
	GearboxAssist       uint8
	AntiLockBrakes      uint8
	EqualCarPerformance uint8
	CustomSetup         uint8
	Valid               uint8
}

type TimeTrialPacket struct {
	Header
	PlayerSessionBest TimeTrialDataSet
	PersonalBest      TimeTrialDataSet
	Rival             TimeTrialDataSet
}
