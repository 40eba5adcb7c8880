package model

import "time"

// Session is the aggregated state of the running session.
type Session struct {
	UID                 uint64          `json:"uid"`
	Track               int             `json:"track"`
	SessionType         int             `json:"sessionType"`
	AirTemperature      int             `json:"airTemperature"`
	TrackTemperature    int             `json:"trackTemperature"`
	TotalLaps           int             `json:"totalLaps"`
	TimeLeft            int             `json:"timeLeft"` // seconds
	CurrentLap          int             `json:"currentLap"`
	PreviousLap         int             `json:"previousLap"`
	BestLapTime         uint32          `json:"bestLapTime"`
	BestLapIndex        int             `json:"bestLapIndex"` // -1 if no best lap yet
	SafetyCarStatus     int             `json:"safetyCarStatus"`
	TrackLength         int             `json:"trackLength"`
	NumMarshalZones     int             `json:"numMarshalZones"`
	MarshalZones        []MarshalZone   `json:"marshalZones"`
	Weather             []WeatherSample `json:"weather"`
	NumberOfDrivers     int             `json:"numberOfDrivers"`
	FormationLapPending bool            `json:"formationLapPending"`
	StartTime           time.Time       `json:"startTime"`
	AnyYellow           bool            `json:"anyYellow"`
	Segments            []Segment       `json:"segments,omitempty"`
	TimeTrial           *TimeTrial      `json:"timeTrial,omitempty"`
}

func NewSession() Session {
	return Session{
		Track:           -1,
		BestLapIndex:    -1,
		NumberOfDrivers: 22,
	}
}

func (s *Session) Clone() Session {
	ret := *s
	ret.MarshalZones = append([]MarshalZone(nil), s.MarshalZones...)
	ret.Weather = append([]WeatherSample(nil), s.Weather...)
	ret.Segments = make([]Segment, len(s.Segments))
	for i := range s.Segments {
		ret.Segments[i] = append(Segment(nil), s.Segments[i]...)
	}
	if s.TimeTrial != nil {
		tt := *s.TimeTrial
		ret.TimeTrial = &tt
	}
	return ret
}

// MarshalZone starts at a fraction of the lap. Flag -1 is invalid, 0 none,
// 1 green, 2 blue, 3 yellow, 4 red.
type MarshalZone struct {
	Start float64 `json:"start"`
	Flag  int     `json:"flag"`
}

type WeatherSample struct {
	SessionType      int `json:"sessionType"`
	TimeOffset       int `json:"timeOffset"` // minutes
	Weather          int `json:"weather"`
	TrackTemperature int `json:"trackTemperature"`
	AirTemperature   int `json:"airTemperature"`
	RainPercentage   int `json:"rainPercentage"`
}

// Point is a position on the scaled track map.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Segment is the polyline of one marshal zone.
type Segment []Point

// TimeTrial holds the lap times of a time trial session in ms.
type TimeTrial struct {
	PlayerSessionBest uint32 `json:"playerSessionBest"`
	PersonalBest      uint32 `json:"personalBest"`
	Rival             uint32 `json:"rival"`
}
