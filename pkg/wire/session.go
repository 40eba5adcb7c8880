package wire

type MarshalZone struct {
	ZoneStart float32 // fraction of the lap
	ZoneFlag  int8    // -1 invalid, 0 none, 1 green, 2 blue, 3 yellow
}

type WeatherForecastSample struct {
	SessionType            uint8
	TimeOffset             uint8
	Weather                uint8
	TrackTemperature       int8
	TrackTemperatureChange int8
	AirTemperature         int8
	AirTemperatureChange   int8
	RainPercentage         uint8
}

type SessionPacket struct {
	Header
	Weather                      uint8
	TrackTemperature             int8
	AirTemperature               int8
	TotalLaps                    uint8
	TrackLength                  uint16
	SessionType                  uint8
	TrackID                      int8
	Formula                      uint8
	SessionTimeLeft              uint16
	SessionDuration              uint16
	PitSpeedLimit                uint8
	GamePaused                   uint8
	IsSpectating                 uint8
	SpectatorCarIndex            uint8
	SliProNativeSupport          uint8
	NumMarshalZones              uint8
	MarshalZones                 [MaxMarshalZones]MarshalZone
	SafetyCarStatus              uint8
	NetworkGame                  uint8
	NumWeatherForecastSamples    uint8
	WeatherForecastSamples       [MaxWeatherSamples]WeatherForecastSample
	ForecastAccuracy             uint8
	AIDifficulty                 uint8
	SeasonLinkIdentifier         uint32
	WeekendLinkIdentifier        uint32
	SessionLinkIdentifier        uint32
	PitStopWindowIdealLap        uint8
	PitStopWindowLatestLap       uint8
	PitStopRejoinPosition        uint8
	SteeringAssist               uint8
	BrakingAssist                uint8
	GearboxAssist                uint8
	PitAssist                    uint8
	PitReleaseAssist             uint8
	ERSAssist                    uint8
	DRSAssist                    uint8
	DynamicRacingLine            uint8
	DynamicRacingLineType        uint8
	GameMode                     uint8
	RuleSet                      uint8
	TimeOfDay                    uint32
	SessionLength                uint8
	SpeedUnitsLeadPlayer         uint8
	TempUnitsLeadPlayer          uint8
	SpeedUnitsSecondaryPlayer    uint8
	TempUnitsSecondaryPlayer     uint8
	NumSafetyCarPeriods          uint8
	NumVirtualSafetyCarPeriods   uint8
	NumRedFlagPeriods            uint8
	EqualCarPerformance          uint8
	RecoveryMode                 uint8
	FlashbackLimit               uint8
	SurfaceType                  uint8
	LowFuelMode                  uint8
	RaceStarts                   uint8
	TyreTemperature              uint8
	PitLaneTyreSim               uint8
	CarDamage                    uint8
	CarDamageRate                uint8
	Collisions                   uint8
	CollisionsOffForFirstLapOnly uint8
	MPUnsafePitRelease           uint8
	MPOffForGriefing             uint8
	CornerCuttingStringency      uint8
	ParcFermeRules               uint8
	PitStopExperience            uint8
	SafetyCar                    uint8
	SafetyCarExperience          uint8
	FormationLap                 uint8
	FormationLapExperience       uint8
	RedFlags                     uint8
	AffectsLicenceLevelSolo      uint8
	AffectsLicenceLevelMP        uint8
	NumSessionsInWeekend         uint8
	WeekendStructure             [12]uint8
	Sector2LapDistanceStart      float32
	Sector3LapDistanceStart      float32
}

// ActiveMarshalZones returns the zones announced by NumMarshalZones, capped at the array size.
func (p *SessionPacket) ActiveMarshalZones() []MarshalZone {
	n := min(int(p.NumMarshalZones), MaxMarshalZones)
	return p.MarshalZones[:n]
}

// ActiveWeatherSamples returns the forecast samples announced by NumWeatherForecastSamples.
func (p *SessionPacket) ActiveWeatherSamples() []WeatherForecastSample {
	n := min(int(p.NumWeatherForecastSamples), MaxWeatherSamples)
	return p.WeatherForecastSamples[:n]
}
