package model

import "time"

// Driver is the aggregated state of one car slot.
type Driver struct {
	Index         int    `json:"index"`
	Name          string `json:"name"`
	NameValid     bool   `json:"nameValid"` // false if the name bytes were not valid UTF-8
	RaceNumber    int    `json:"raceNumber"`
	TeamID        int    `json:"teamId"`
	AIControlled  int    `json:"aiControlled"` // -1 until participants are known
	YourTelemetry int    `json:"yourTelemetry"`
	Retired       bool   `json:"retired"`

	Position          int        `json:"position"`
	CurrentLapNum     int        `json:"currentLapNum"`
	LastLapTime       uint32     `json:"lastLapTime"` // ms
	BestLapTime       uint32     `json:"bestLapTime"` // ms
	CurrentLapTime    uint32     `json:"currentLapTime"`
	CurrentSectors    [3]float64 `json:"currentSectors"` // seconds
	LastLapSectors    [3]float64 `json:"lastLapSectors"`
	BestLapSectors    [3]float64 `json:"bestLapSectors"`
	CurrentLapInvalid int        `json:"currentLapInvalid"`
	Pit               int        `json:"pit"`
	DriverStatus      int        `json:"driverStatus"`
	Penalties         int        `json:"penalties"`
	Warnings          int        `json:"warnings"`
	SpeedTrap         float64    `json:"speedTrap"`
	DeltaToCarInFront int        `json:"deltaToCarInFront"` // ms

	DRS              int           `json:"drs"`
	Speed            int           `json:"speed"`
	TyresInnerTemp   [4]int        `json:"tyresInnerTemp"`
	TyresSurfaceTemp [4]int        `json:"tyresSurfaceTemp"`
	S200Reached      bool          `json:"s200Reached"`
	S200Time         time.Duration `json:"s200Time"` // time from lights out to 200 km/h

	FuelMix           int     `json:"fuelMix"`
	FuelRemainingLaps float64 `json:"fuelRemainingLaps"`
	TyresAge          int     `json:"tyresAge"`
	VisualTyre        int     `json:"visualTyre"`
	ActualTyre        int     `json:"actualTyre"`
	ERSMode           int     `json:"ersMode"`
	ERSPercent        int     `json:"ersPercent"`

	TyreWear             [4]float64 `json:"tyreWear"`
	FrontLeftWingDamage  int        `json:"frontLeftWingDamage"`
	FrontRightWingDamage int        `json:"frontRightWingDamage"`
	RearWingDamage       int        `json:"rearWingDamage"`
	FloorDamage          int        `json:"floorDamage"`
	DiffuserDamage       int        `json:"diffuserDamage"`
	SidepodDamage        int        `json:"sidepodDamage"`

	WorldX float64 `json:"worldX"`
	WorldZ float64 `json:"worldZ"`
	MoveX  float64 `json:"moveX"`
	MoveZ  float64 `json:"moveZ"`

	Setup      *CarSetup    `json:"setup,omitempty"`
	Result     *Result      `json:"result,omitempty"`
	LapHistory []HistoryLap `json:"lapHistory,omitempty"`
	TyreSets   []TyreSet    `json:"tyreSets,omitempty"`
	LobbyName  string       `json:"lobbyName,omitempty"`
}

// NewDriver returns a driver with the values used before any packet arrived.
func NewDriver(index int) Driver {
	return Driver{
		Index:             index,
		Name:              " ",
		NameValid:         true,
		TeamID:            -1,
		AIControlled:      -1,
		ERSMode:           -1,
		S200Reached:       true,
		CurrentLapInvalid: 1,
	}
}

// Clone returns a copy which does not share slices or pointers with d.
func (d *Driver) Clone() Driver {
	ret := *d
	if d.Setup != nil {
		s := *d.Setup
		ret.Setup = &s
	}
	if d.Result != nil {
		r := *d.Result
		ret.Result = &r
	}
	ret.LapHistory = append([]HistoryLap(nil), d.LapHistory...)
	ret.TyreSets = append([]TyreSet(nil), d.TyreSets...)
	return ret
}

// CarSetup holds the setup values of a car.
type CarSetup struct {
	FrontWing              int     `json:"frontWing"`
	RearWing               int     `json:"rearWing"`
	OnThrottle             int     `json:"onThrottle"`
	OffThrottle            int     `json:"offThrottle"`
	FrontCamber            float64 `json:"frontCamber"`
	RearCamber             float64 `json:"rearCamber"`
	FrontToe               float64 `json:"frontToe"`
	RearToe                float64 `json:"rearToe"`
	FrontSuspension        int     `json:"frontSuspension"`
	RearSuspension         int     `json:"rearSuspension"`
	FrontAntiRollBar       int     `json:"frontAntiRollBar"`
	RearAntiRollBar        int     `json:"rearAntiRollBar"`
	FrontSuspensionHeight  int     `json:"frontSuspensionHeight"`
	RearSuspensionHeight   int     `json:"rearSuspensionHeight"`
	BrakePressure          int     `json:"brakePressure"`
	BrakeBias              int     `json:"brakeBias"`
	EngineBraking          int     `json:"engineBraking"`
	RearLeftTyrePressure   float64 `json:"rearLeftTyrePressure"`
	RearRightTyrePressure  float64 `json:"rearRightTyrePressure"`
	FrontLeftTyrePressure  float64 `json:"frontLeftTyrePressure"`
	FrontRightTyrePressure float64 `json:"frontRightTyrePressure"`
	Ballast                int     `json:"ballast"`
	FuelLoad               float64 `json:"fuelLoad"`
}

// Result is the final classification of a car.
type Result struct {
	Position      int     `json:"position"`
	NumLaps       int     `json:"numLaps"`
	GridPosition  int     `json:"gridPosition"`
	Points        int     `json:"points"`
	NumPitStops   int     `json:"numPitStops"`
	ResultStatus  int     `json:"resultStatus"`
	BestLapTime   uint32  `json:"bestLapTime"`
	TotalRaceTime float64 `json:"totalRaceTime"` // seconds without penalties
	PenaltiesTime int     `json:"penaltiesTime"`
	NumPenalties  int     `json:"numPenalties"`
	NumStints     int     `json:"numStints"`
}

// HistoryLap is one lap from the session history of a car.
type HistoryLap struct {
	LapTime uint32     `json:"lapTime"`
	Sectors [3]float64 `json:"sectors"`
	Valid   bool       `json:"valid"`
}

// TyreSet is one tyre set available to a car.
type TyreSet struct {
	ActualCompound int  `json:"actualCompound"`
	VisualCompound int  `json:"visualCompound"`
	Wear           int  `json:"wear"`
	Available      bool `json:"available"`
	LifeSpan       int  `json:"lifeSpan"`
	UsableLife     int  `json:"usableLife"`
	LapDeltaTime   int  `json:"lapDeltaTime"`
	Fitted         bool `json:"fitted"`
}
