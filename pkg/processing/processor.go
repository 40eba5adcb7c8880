package processing

import (
	"context"
	"errors"
	"time"

	"github.com/samber/lo"

	"github.com/dbsDevelops/f1-24-setup-recommender/log"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/model"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/processing/car"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/processing/race"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/processing/util"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/wire"
)

// Change flags what an applied packet modified.
type Change uint16

const (
	ChangeDrivers Change = 1 << iota
	ChangeSession
	ChangeTyres
	ChangeFormationLap
	ChangeRaceStart
	ChangeRetirement
	// the segments were cleared because track or session type changed
	ChangeGeometryInvalidated
	ChangeGeometryBuilt
	ChangeClassification
)

// Result describes the outcome of Apply.
type Result struct {
	Kind    wire.Kind
	Changes Change
	// Laps completed with this packet, only set for lap data.
	Laps []model.CompletedLap
	// Classification is set for final classification packets.
	Classification []model.ClassificationEntry
}

func (r Result) Has(c Change) bool {
	return r.Changes&c != 0
}

// GeometrySource derives the track segments for the current session.
type GeometrySource interface {
	Segments(ctx context.Context, s *model.Session) ([]model.Segment, error)
}

// Engine folds decoded packets into the session and driver state.
// It is not safe for concurrent use, Apply and the readers have to be called
// from the same goroutine.
type Engine struct {
	carProcessor  *car.CarProcessor
	raceProcessor *race.RaceProcessor
	geometry      GeometrySource
	geometryRetry time.Duration
	nextGeometry  time.Time
	latest        [wire.NumKinds]wire.Packet
	clock         func() time.Time
	l             *log.Logger
}

type EngineOption func(e *Engine)

// WithClock sets the time source used for lights out and speed thresholds.
func WithClock(clock func() time.Time) EngineOption {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithGeometry enables the derivation of track segments after motion updates.
func WithGeometry(g GeometrySource) EngineOption {
	return func(e *Engine) {
		e.geometry = g
	}
}

// WithGeometryRetry sets the minimum time between two failed geometry builds.
func WithGeometryRetry(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.geometryRetry = d
	}
}

func WithLogger(l *log.Logger) EngineOption {
	return func(e *Engine) {
		e.l = l
	}
}

func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		clock:         time.Now,
		geometryRetry: time.Second,
		l:             log.Default().Named("engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.carProcessor = car.NewCarProcessor(car.WithLogger(e.l.Named("car")))
	e.raceProcessor = race.NewRaceProcessor(
		race.WithCarProcessor(e.carProcessor),
		race.WithLogger(e.l.Named("race")),
	)
	return e
}

// Apply folds p into the state.
//
//nolint:funlen,cyclop // by design
func (e *Engine) Apply(ctx context.Context, p wire.Packet) Result {
	ret := Result{Kind: p.PacketHeader().Kind()}
	if ret.Kind.Valid() {
		e.latest[ret.Kind] = p
	}
	limit := e.raceProcessor.Limit()
	switch pkt := p.(type) {
	case *wire.MotionPacket:
		e.carProcessor.ProcessMotion(pkt, limit)
		e.raceProcessor.UpdateYellow()
		ret.Changes |= ChangeDrivers
		if e.buildGeometry(ctx) {
			ret.Changes |= ChangeGeometryBuilt
		}
	case *wire.SessionPacket:
		ret.Changes |= ChangeSession
		if e.raceProcessor.ProcessSession(pkt) {
			e.nextGeometry = time.Time{}
			ret.Changes |= ChangeGeometryInvalidated
		}
	case *wire.LapDataPacket:
		ret.Laps = e.carProcessor.ProcessLapData(pkt, limit)
		e.raceProcessor.ProcessLapData(pkt, limit)
		s := &e.raceProcessor.Session
		for i := range ret.Laps {
			ret.Laps[i].SessionUID = pkt.SessionUID
			ret.Laps[i].SessionType = s.SessionType
			ret.Laps[i].Track = s.Track
		}
		ret.Changes |= ChangeDrivers | ChangeSession
	case *wire.EventPacket:
		switch e.raceProcessor.ProcessEvent(pkt, e.clock()) {
		case race.EventFormationLap:
			ret.Changes |= ChangeSession | ChangeFormationLap
		case race.EventLightsOut:
			ret.Changes |= ChangeSession | ChangeDrivers | ChangeRaceStart
		case race.EventRetirement:
			ret.Changes |= ChangeDrivers | ChangeRetirement
		case race.EventIgnored:
		}
	case *wire.ParticipantsPacket:
		n := e.raceProcessor.ProcessParticipants(pkt)
		e.carProcessor.ProcessParticipants(pkt, n)
		ret.Changes |= ChangeDrivers | ChangeSession
	case *wire.CarSetupPacket:
		e.carProcessor.ProcessCarSetup(pkt, limit)
		ret.Changes |= ChangeDrivers
	case *wire.CarTelemetryPacket:
		e.carProcessor.ProcessCarTelemetry(pkt, limit, e.sinceStart())
		ret.Changes |= ChangeDrivers
	case *wire.CarStatusPacket:
		if e.carProcessor.ProcessCarStatus(pkt, limit) {
			ret.Changes |= ChangeTyres
		}
		ret.Changes |= ChangeDrivers
	case *wire.FinalClassificationPacket:
		e.carProcessor.ProcessFinalClassification(pkt)
		ret.Classification = e.classification(pkt)
		ret.Changes |= ChangeDrivers | ChangeClassification
	case *wire.LobbyInfoPacket:
		e.carProcessor.ProcessLobbyInfo(pkt)
		ret.Changes |= ChangeDrivers
	case *wire.CarDamagePacket:
		e.carProcessor.ProcessCarDamage(pkt, limit)
		ret.Changes |= ChangeDrivers
	case *wire.SessionHistoryPacket:
		if e.carProcessor.ProcessSessionHistory(pkt) {
			ret.Changes |= ChangeDrivers
		}
	case *wire.TyreSetsPacket:
		if e.carProcessor.ProcessTyreSets(pkt) {
			ret.Changes |= ChangeDrivers
		}
	case *wire.TimeTrialPacket:
		e.raceProcessor.ProcessTimeTrial(pkt)
		ret.Changes |= ChangeSession
	case *wire.MotionExPacket:
		// kept for Latest only
	default:
		e.l.Debug("no handler for packet", log.String("kind", ret.Kind.String()))
	}
	return ret
}

// buildGeometry derives the segments if there are none yet.
// Failures are not fatal, the next motion update tries again once the retry
// interval passed.
func (e *Engine) buildGeometry(ctx context.Context) bool {
	s := &e.raceProcessor.Session
	if e.geometry == nil || len(s.Segments) > 0 || s.Track < 0 || s.NumMarshalZones == 0 {
		return false
	}
	now := e.clock()
	if now.Before(e.nextGeometry) {
		return false
	}
	segments, err := e.geometry.Segments(ctx, s)
	if err != nil || len(segments) == 0 {
		if err == nil {
			err = errors.New("no segments")
		}
		e.nextGeometry = now.Add(e.geometryRetry)
		e.l.Debug("geometry not available", log.Int("track", s.Track), log.ErrorField(err))
		return false
	}
	s.Segments = segments
	e.l.Debug("geometry built", log.Int("track", s.Track), log.Int("segments", len(segments)))
	return true
}

func (e *Engine) classification(pkt *wire.FinalClassificationPacket) []model.ClassificationEntry {
	s := &e.raceProcessor.Session
	drivers := e.carProcessor.Drivers[:util.DriverLimit(int(pkt.NumCars))]
	return lo.Map(drivers, func(d model.Driver, _ int) model.ClassificationEntry {
		return model.ClassificationEntry{
			SessionUID:  pkt.SessionUID,
			SessionType: s.SessionType,
			Track:       s.Track,
			DriverIndex: d.Index,
			DriverName:  d.Name,
			TeamID:      d.TeamID,
			Result:      *d.Result,
		}
	})
}

func (e *Engine) sinceStart() time.Duration {
	start := e.raceProcessor.Session.StartTime
	if start.IsZero() {
		return 0
	}
	return e.clock().Sub(start)
}

// Session returns a copy of the session state.
func (e *Engine) Session() model.Session {
	return e.raceProcessor.Session.Clone()
}

// Drivers returns copies of the drivers of the pool, limited to the number
// of drivers announced by the participants packet.
func (e *Engine) Drivers() []model.Driver {
	return lo.Map(e.carProcessor.Drivers[:e.raceProcessor.Limit()],
		func(d model.Driver, _ int) model.Driver {
			return d.Clone()
		})
}

// Driver returns a copy of the driver in slot idx.
func (e *Engine) Driver(idx int) (model.Driver, bool) {
	d := e.carProcessor.Driver(idx)
	if d == nil {
		return model.Driver{}, false
	}
	return d.Clone(), true
}

// Snapshot returns a copy of the complete state.
func (e *Engine) Snapshot() model.State {
	return model.State{
		Session: e.Session(),
		Drivers: e.Drivers(),
	}
}

// Latest returns the last packet of kind k applied to the engine.
// The packet is shared and must not be modified.
func (e *Engine) Latest(k wire.Kind) (wire.Packet, bool) {
	if !k.Valid() || e.latest[k] == nil {
		return nil, false
	}
	return e.latest[k], true
}
