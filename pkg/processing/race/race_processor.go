package race

import (
	"time"

	"github.com/samber/lo"

	"github.com/dbsDevelops/f1-24-setup-recommender/log"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/model"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/names"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/processing/car"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/processing/util"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/wire"
)

// EventOutcome tells what an event packet changed.
type EventOutcome int

const (
	EventIgnored EventOutcome = iota
	EventFormationLap
	EventLightsOut
	EventRetirement
)

// minStartLights is the number of lights which mark the formation lap as done.
const minStartLights = 2

// RaceProcessor keeps the session state.
// Handlers touching drivers (lights out, retirements) use the car processor.
type RaceProcessor struct {
	Session      model.Session
	carProcessor *car.CarProcessor
	l            *log.Logger
}

type RaceProcessorOption func(rp *RaceProcessor)

func WithCarProcessor(cp *car.CarProcessor) RaceProcessorOption {
	return func(rp *RaceProcessor) {
		rp.carProcessor = cp
	}
}

func WithLogger(l *log.Logger) RaceProcessorOption {
	return func(rp *RaceProcessor) {
		rp.l = l
	}
}

func NewRaceProcessor(opts ...RaceProcessorOption) *RaceProcessor {
	ret := &RaceProcessor{
		Session: model.NewSession(),
		l:       log.Default().Named("race"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.carProcessor == nil {
		ret.carProcessor = car.NewCarProcessor()
	}
	return ret
}

// Limit is the number of driver slots update loops may visit.
func (p *RaceProcessor) Limit() int {
	return util.DriverLimit(p.Session.NumberOfDrivers)
}

// ProcessSession updates the session environment.
// It reports true if track or session type changed. The segments, the
// session best and the lap bookkeeping of all drivers are cleared in that case.
func (p *RaceProcessor) ProcessSession(pkt *wire.SessionPacket) bool {
	s := &p.Session
	s.UID = pkt.SessionUID
	s.TrackTemperature = int(pkt.WeatherForecastSamples[0].TrackTemperature)
	s.AirTemperature = int(pkt.WeatherForecastSamples[0].AirTemperature)
	s.TotalLaps = int(pkt.TotalLaps)
	s.TimeLeft = int(pkt.SessionTimeLeft)

	changed := false
	if s.Track != int(pkt.TrackID) || s.SessionType != int(pkt.SessionType) {
		p.l.Debug("track or session changed",
			log.Int("track", int(pkt.TrackID)),
			log.String("session", names.SessionType(int(pkt.SessionType))))
		s.Track = int(pkt.TrackID)
		s.Segments = nil
		s.BestLapTime = 0
		s.BestLapIndex = -1
		s.CurrentLap = 0
		s.PreviousLap = 0
		s.FormationLapPending = false
		p.carProcessor.ResetForStart()
		changed = true
	}
	s.SessionType = int(pkt.SessionType)

	s.MarshalZones = lo.Map(pkt.ActiveMarshalZones(), func(z wire.MarshalZone, _ int) model.MarshalZone {
		return model.MarshalZone{Start: float64(z.ZoneStart), Flag: int(z.ZoneFlag)}
	})
	if len(s.MarshalZones) > 0 {
		// the first zone starts before the line so the last segment closes the lap
		s.MarshalZones[0].Start--
	}
	s.NumMarshalZones = int(pkt.NumMarshalZones)
	s.SafetyCarStatus = int(pkt.SafetyCarStatus)
	s.TrackLength = int(pkt.TrackLength)

	s.Weather = lo.Map(pkt.ActiveWeatherSamples(),
		func(w wire.WeatherForecastSample, _ int) model.WeatherSample {
			return model.WeatherSample{
				SessionType:      int(w.SessionType),
				TimeOffset:       int(w.TimeOffset),
				Weather:          int(w.Weather),
				TrackTemperature: int(w.TrackTemperature),
				AirTemperature:   int(w.AirTemperature),
				RainPercentage:   int(w.RainPercentage),
			}
		})
	return changed
}

// ProcessLapData keeps the session best lap and the leader lap.
// The drivers must already be updated by the car processor.
func (p *RaceProcessor) ProcessLapData(pkt *wire.LapDataPacket, limit int) {
	s := &p.Session
	for i := range limit {
		d := &p.carProcessor.Drivers[i]
		e := &pkt.Cars[i]
		if d.BestLapTime != 0 && e.LastLapTimeInMS != 0 &&
			(s.BestLapTime == 0 || d.BestLapTime < s.BestLapTime) {
			s.BestLapTime = d.BestLapTime
			s.BestLapIndex = i
		}
		if e.CarPosition == 1 {
			s.CurrentLap = int(e.CurrentLapNum)
			s.PreviousLap = s.CurrentLap - 1
		}
	}
}

// ProcessParticipants updates the number of drivers and returns the number
// of slots the participants packet may update.
func (p *RaceProcessor) ProcessParticipants(pkt *wire.ParticipantsPacket) int {
	p.Session.NumberOfDrivers = util.DriverLimit(int(pkt.NumActiveCars))
	return p.Session.NumberOfDrivers
}

// ProcessEvent handles start lights, lights out and retirements.
// Other event codes are ignored.
func (p *RaceProcessor) ProcessEvent(pkt *wire.EventPacket, now time.Time) EventOutcome {
	detail, ok := pkt.Detail()
	if !ok {
		p.l.Debug("unknown event", log.String("code", pkt.EventCode()))
		return EventIgnored
	}
	s := &p.Session
	switch v := detail.(type) {
	case *wire.StartLights:
		if v.NumLights >= minStartLights {
			s.FormationLapPending = true
			return EventFormationLap
		}
	case *wire.Retirement:
		if p.carProcessor.MarkRetired(int(v.VehicleIdx)) {
			return EventRetirement
		}
		p.l.Debug("retirement outside of pool", log.Uint8("idx", v.VehicleIdx))
	case nil:
		if pkt.EventCode() == wire.EventLightsOut && s.FormationLapPending {
			s.FormationLapPending = false
			s.StartTime = now
			p.carProcessor.ResetForStart()
			return EventLightsOut
		}
	}
	return EventIgnored
}

// UpdateYellow sets AnyYellow if any active marshal zone shows a yellow flag.
func (p *RaceProcessor) UpdateYellow() {
	p.Session.AnyYellow = lo.ContainsBy(p.Session.MarshalZones, func(z model.MarshalZone) bool {
		return z.Flag == names.FlagYellow
	})
}

func (p *RaceProcessor) ProcessTimeTrial(pkt *wire.TimeTrialPacket) {
	p.Session.TimeTrial = &model.TimeTrial{
		PlayerSessionBest: pkt.PlayerSessionBest.LapTimeInMS,
		PersonalBest:      pkt.PersonalBest.LapTimeInMS,
		Rival:             pkt.Rival.LapTimeInMS,
	}
}
