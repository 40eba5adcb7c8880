// Package basedata provides packet fixtures shared by tests.
package basedata

import (
	"log"
	"time"

	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/wire"
)

const SampleSessionUID uint64 = 0x1122334455667788

func TestTime() time.Time {
	t, _ := time.Parse(time.RFC3339, "2024-04-28T11:10:12Z")
	return t
}

func SampleHeader(kind wire.Kind) wire.Header {
	return wire.Header{
		PacketFormat:            wire.FormatF124,
		GameYear:                24,
		GameMajorVersion:        1,
		GameMinorVersion:        18,
		PacketVersion:           1,
		PacketID:                kind,
		SessionUID:              SampleSessionUID,
		SessionTime:             12.5,
		FrameIdentifier:         100,
		OverallFrameIdentifier:  100,
		PlayerCarIndex:          0,
		SecondaryPlayerCarIndex: 255,
	}
}

// Datagram encodes p, test setup errors are fatal.
func Datagram(p wire.Packet) []byte {
	data, err := wire.Encode(p)
	if err != nil {
		log.Fatalf("encode %T: %v", p, err)
	}
	return data
}

// SampleSession describes Silverstone (id 7) with three marshal zones and two forecast samples.
func SampleSession() *wire.SessionPacket {
	p := &wire.SessionPacket{Header: SampleHeader(wire.KindSession)}
	p.Weather = 1
	p.TrackTemperature = 31
	p.AirTemperature = 22
	p.TotalLaps = 52
	p.TrackLength = 5891
	p.SessionType = 15
	p.TrackID = 7
	p.SessionTimeLeft = 7200
	p.SessionDuration = 7200
	p.NumMarshalZones = 3
	p.MarshalZones[0] = wire.MarshalZone{ZoneStart: 0.0, ZoneFlag: 0}
	p.MarshalZones[1] = wire.MarshalZone{ZoneStart: 0.3, ZoneFlag: 0}
	p.MarshalZones[2] = wire.MarshalZone{ZoneStart: 0.7, ZoneFlag: 0}
	p.NumWeatherForecastSamples = 2
	p.WeatherForecastSamples[0] = wire.WeatherForecastSample{
		SessionType: 15, TimeOffset: 0, Weather: 1, TrackTemperature: 33, AirTemperature: 23, RainPercentage: 5,
	}
	p.WeatherForecastSamples[1] = wire.WeatherForecastSample{
		SessionType: 15, TimeOffset: 5, Weather: 2, TrackTemperature: 32, AirTemperature: 22, RainPercentage: 15,
	}
	return p
}

// SampleLapData sets the lap data of car idx and leaves all others zero.
func SampleLapData(idx int, d wire.LapData) *wire.LapDataPacket {
	p := &wire.LapDataPacket{Header: SampleHeader(wire.KindLapData)}
	p.Cars[idx] = d
	return p
}

func SampleParticipants(names ...string) *wire.ParticipantsPacket {
	p := &wire.ParticipantsPacket{Header: SampleHeader(wire.KindParticipants)}
	p.NumActiveCars = uint8(len(names))
	for i, n := range names {
		p.Participants[i] = wire.Participant{
			AIControlled: 1,
			TeamID:       uint8(i % 10),
			RaceNumber:   uint8(i + 1),
			Name:         wire.EncodeName(n),
		}
	}
	return p
}

func SampleEvent(code string, detail any) *wire.EventPacket {
	p := &wire.EventPacket{Header: SampleHeader(wire.KindEvent)}
	if err := p.SetDetail(code, detail); err != nil {
		log.Fatalf("event %s: %v", code, err)
	}
	return p
}

func SampleMotion(positions map[int][2]float32) *wire.MotionPacket {
	p := &wire.MotionPacket{Header: SampleHeader(wire.KindMotion)}
	for idx, pos := range positions {
		p.Cars[idx].WorldPositionX = pos[0]
		p.Cars[idx].WorldPositionZ = pos[1]
	}
	return p
}

// SampleReferenceLine is a small reference line in the file format of the track data directory.
// The distances cover the 5891m of SampleSession.
const SampleReferenceLine = `distance,z,x,y,dir_x,dir_z
header line
0,0,0,0,0,0
1000,100,0,0,0,0
2000,200,100,0,0,0
3000,200,200,0,0,0
4000,100,300,0,0,0
5000,0,200,0,0,0
5800,0,100,0,0,0
`
