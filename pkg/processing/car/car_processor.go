package car

import (
	"math"
	"time"

	"github.com/samber/lo"

	"github.com/dbsDevelops/f1-24-setup-recommender/log"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/model"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/names"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/processing/util"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/wire"
)

const (
	// SpeedThreshold is the speed (km/h) which marks the end of the standing start.
	SpeedThreshold = 200
	// ERSCapacity is the energy store capacity in joule.
	ERSCapacity = 4_000_000
)

var placeholderNames = []string{"Player", "Joueur"}

// CarProcessor folds the per car packets into the driver pool.
// All Process methods visit at most limit slots, see util.DriverLimit.
type CarProcessor struct {
	Drivers []model.Driver
	l       *log.Logger
}

type CarProcessorOption func(cp *CarProcessor)

func WithLogger(l *log.Logger) CarProcessorOption {
	return func(cp *CarProcessor) {
		cp.l = l
	}
}

func NewCarProcessor(opts ...CarProcessorOption) *CarProcessor {
	cp := &CarProcessor{
		Drivers: make([]model.Driver, util.PoolSize),
		l:       log.Default().Named("car"),
	}
	for i := range cp.Drivers {
		cp.Drivers[i] = model.NewDriver(i)
	}
	for _, opt := range opts {
		opt(cp)
	}
	return cp
}

// Driver returns the slot idx or nil if idx is outside of the pool.
func (p *CarProcessor) Driver(idx int) *model.Driver {
	if !util.InPool(idx) {
		return nil
	}
	return &p.Drivers[idx]
}

// ProcessMotion stores the world positions. The displacement is only computed
// for drivers seen before, a stored X of 0 marks a driver never seen.
func (p *CarProcessor) ProcessMotion(pkt *wire.MotionPacket, limit int) {
	for i := range limit {
		d := &p.Drivers[i]
		m := &pkt.Cars[i]
		x, z := float64(m.WorldPositionX), float64(m.WorldPositionZ)
		if d.WorldX != 0 {
			d.MoveX = x - d.WorldX
			d.MoveZ = z - d.WorldZ
		}
		d.WorldX = x
		d.WorldZ = z
	}
}

// ProcessLapData updates lap and sector data and returns the laps completed
// with this packet.
//
//nolint:funlen // by design
func (p *CarProcessor) ProcessLapData(pkt *wire.LapDataPacket, limit int) []model.CompletedLap {
	var laps []model.CompletedLap
	for i := range limit {
		d := &p.Drivers[i]
		e := &pkt.Cars[i]
		previousInvalid := d.CurrentLapInvalid

		d.Position = int(e.CarPosition)
		d.CurrentLapNum = int(e.CurrentLapNum)
		d.LastLapTime = e.LastLapTimeInMS
		d.Pit = int(e.PitStatus)
		d.DriverStatus = int(e.DriverStatus)
		d.Penalties = int(e.Penalties)
		d.Warnings = int(e.CornerCuttingWarnings)
		d.SpeedTrap = util.Round(float64(e.SpeedTrapFastestSpeed), 2)
		d.CurrentLapTime = e.CurrentLapTimeInMS
		d.DeltaToCarInFront = int(util.SplitTime(e.DeltaToCarInFrontInMS, e.DeltaToCarInFrontMinutes))
		d.CurrentLapInvalid = int(e.CurrentLapInvalid)

		sector1 := util.SplitTime(e.Sector1TimeInMS, e.Sector1TimeMinutes)
		sector2 := util.SplitTime(e.Sector2TimeInMS, e.Sector2TimeMinutes)

		if sector1 == 0 && d.CurrentSectors[0] != 0 {
			// the first sector restarted, the stored sectors belong to the finished lap
			d.LastLapSectors = d.CurrentSectors
			d.LastLapSectors[2] = util.MSToSeconds(d.LastLapTime) -
				d.LastLapSectors[0] - d.LastLapSectors[1]
			laps = append(laps, model.CompletedLap{
				DriverIndex: i,
				DriverName:  d.Name,
				TeamID:      d.TeamID,
				LapNum:      d.CurrentLapNum - 1,
				LapTime:     d.LastLapTime,
				Sectors:     d.LastLapSectors,
				Invalid:     previousInvalid != 0,
				TyreVisual:  d.VisualTyre,
				TyresAge:    d.TyresAge,
			})
		}
		d.CurrentSectors = [3]float64{util.MSToSeconds(sector1), util.MSToSeconds(sector2), 0}

		if (d.BestLapTime > d.LastLapTime && d.LastLapTime != 0) || d.BestLapTime == 0 {
			d.BestLapTime = d.LastLapTime
			d.BestLapSectors = d.LastLapSectors
		}
	}
	return laps
}

// ProcessParticipants updates the identity of the drivers.
// Names which are not valid UTF-8 are kept as raw bytes.
func (p *CarProcessor) ProcessParticipants(pkt *wire.ParticipantsPacket, limit int) {
	for i := range limit {
		d := &p.Drivers[i]
		e := &pkt.Participants[i]
		d.RaceNumber = int(e.RaceNumber)
		d.TeamID = int(e.TeamID)
		d.AIControlled = int(e.AIControlled)
		d.YourTelemetry = int(e.YourTelemetry)
		d.Name, d.NameValid = wire.DecodeName(e.Name)
		if !d.NameValid {
			p.l.Debug("name is not valid UTF-8", log.Int("idx", i), log.Any("raw", d.Name))
		}
		if lo.Contains(placeholderNames, d.Name) {
			d.Name = names.PlaceholderName(d.TeamID, d.RaceNumber)
		}
	}
}

// ProcessCarTelemetry updates speed and temperatures.
// sinceStart is the time passed since lights out, it is recorded once per
// driver when the driver reaches SpeedThreshold.
func (p *CarProcessor) ProcessCarTelemetry(
	pkt *wire.CarTelemetryPacket, limit int, sinceStart time.Duration,
) {
	for i := range limit {
		d := &p.Drivers[i]
		e := &pkt.Cars[i]
		d.DRS = int(e.DRS)
		for w := range 4 {
			d.TyresInnerTemp[w] = int(e.TyresInnerTemperature[w])
			d.TyresSurfaceTemp[w] = int(e.TyresSurfaceTemperature[w])
		}
		d.Speed = int(e.Speed)
		if d.Speed >= SpeedThreshold && !d.S200Reached {
			d.S200Reached = true
			d.S200Time = sinceStart
			p.l.Debug("speed threshold reached",
				log.Int("idx", i),
				log.String("name", d.Name),
				log.Duration("time", sinceStart))
		}
	}
}

// ProcessCarStatus updates fuel, tyres and ERS.
// It reports whether the visual tyre compound of any driver changed.
func (p *CarProcessor) ProcessCarStatus(pkt *wire.CarStatusPacket, limit int) bool {
	tyresChanged := false
	for i := range limit {
		d := &p.Drivers[i]
		e := &pkt.Cars[i]
		d.FuelMix = int(e.FuelMix)
		d.FuelRemainingLaps = float64(e.FuelRemainingLaps)
		d.TyresAge = int(e.TyresAgeLaps)
		d.ActualTyre = int(e.ActualTyreCompound)
		if d.VisualTyre != int(e.VisualTyreCompound) {
			d.VisualTyre = int(e.VisualTyreCompound)
			tyresChanged = true
		}
		d.ERSMode = int(e.ERSDeployMode)
		d.ERSPercent = int(math.RoundToEven(float64(e.ERSStoreEnergy) / (ERSCapacity / 100)))
	}
	return tyresChanged
}

func (p *CarProcessor) ProcessCarDamage(pkt *wire.CarDamagePacket, limit int) {
	for i := range limit {
		d := &p.Drivers[i]
		e := &pkt.Cars[i]
		for w := range 4 {
			d.TyreWear[w] = util.Round(float64(e.TyresWear[w]), 2)
		}
		d.FrontLeftWingDamage = int(e.FrontLeftWingDamage)
		d.FrontRightWingDamage = int(e.FrontRightWingDamage)
		d.RearWingDamage = int(e.RearWingDamage)
		d.FloorDamage = int(e.FloorDamage)
		d.DiffuserDamage = int(e.DiffuserDamage)
		d.SidepodDamage = int(e.SidepodDamage)
	}
}

func (p *CarProcessor) ProcessCarSetup(pkt *wire.CarSetupPacket, limit int) {
	for i := range limit {
		s := convertSetup(&pkt.Cars[i])
		p.Drivers[i].Setup = &s
	}
}

// ProcessFinalClassification stores the results of the cars announced by the packet.
func (p *CarProcessor) ProcessFinalClassification(pkt *wire.FinalClassificationPacket) {
	for i := range util.DriverLimit(int(pkt.NumCars)) {
		e := &pkt.Cars[i]
		p.Drivers[i].Result = &model.Result{
			Position:      int(e.Position),
			NumLaps:       int(e.NumLaps),
			GridPosition:  int(e.GridPosition),
			Points:        int(e.Points),
			NumPitStops:   int(e.NumPitStops),
			ResultStatus:  int(e.ResultStatus),
			BestLapTime:   e.BestLapTimeInMS,
			TotalRaceTime: e.TotalRaceTime,
			PenaltiesTime: int(e.PenaltiesTime),
			NumPenalties:  int(e.NumPenalties),
			NumStints:     int(e.NumTyreStints),
		}
	}
}

// ProcessSessionHistory replaces the lap history of the car named by the packet.
func (p *CarProcessor) ProcessSessionHistory(pkt *wire.SessionHistoryPacket) bool {
	d := p.Driver(int(pkt.CarIdx))
	if d == nil {
		return false
	}
	n := min(int(pkt.NumLaps), wire.MaxLapHistory)
	d.LapHistory = lo.Map(pkt.Laps[:n], func(item wire.LapHistory, _ int) model.HistoryLap {
		return model.HistoryLap{
			LapTime: item.LapTimeInMS,
			Sectors: [3]float64{
				util.MSToSeconds(util.SplitTime(item.Sector1TimeInMS, item.Sector1TimeMinutes)),
				util.MSToSeconds(util.SplitTime(item.Sector2TimeInMS, item.Sector2TimeMinutes)),
				util.MSToSeconds(util.SplitTime(item.Sector3TimeInMS, item.Sector3TimeMinutes)),
			},
			Valid: item.LapValidBitFlags&0x01 != 0,
		}
	})
	return true
}

// ProcessTyreSets replaces the tyre sets of the car named by the packet.
func (p *CarProcessor) ProcessTyreSets(pkt *wire.TyreSetsPacket) bool {
	d := p.Driver(int(pkt.CarIdx))
	if d == nil {
		return false
	}
	d.TyreSets = lo.Map(pkt.TyreSets[:], func(item wire.TyreSet, idx int) model.TyreSet {
		return model.TyreSet{
			ActualCompound: int(item.ActualTyreCompound),
			VisualCompound: int(item.VisualTyreCompound),
			Wear:           int(item.Wear),
			Available:      item.Available != 0,
			LifeSpan:       int(item.LifeSpan),
			UsableLife:     int(item.UsableLife),
			LapDeltaTime:   int(item.LapDeltaTime),
			Fitted:         idx == int(pkt.FittedIdx),
		}
	})
	return true
}

// ProcessLobbyInfo stores the lobby names of the players announced by the packet.
func (p *CarProcessor) ProcessLobbyInfo(pkt *wire.LobbyInfoPacket) {
	for i := range util.DriverLimit(int(pkt.NumPlayers)) {
		name, _ := wire.DecodeName(pkt.Players[i].Name)
		p.Drivers[i].LobbyName = name
	}
}

// ResetForStart clears the lap related state of all drivers when the race starts.
func (p *CarProcessor) ResetForStart() {
	for i := range p.Drivers {
		d := &p.Drivers[i]
		d.S200Reached = false
		d.S200Time = 0
		d.Warnings = 0
		d.LastLapSectors = [3]float64{}
		d.BestLapSectors = [3]float64{}
		d.CurrentSectors = [3]float64{}
		d.LastLapTime = 0
		d.BestLapTime = 0
	}
}

// MarkRetired reports false if idx is outside of the pool.
func (p *CarProcessor) MarkRetired(idx int) bool {
	d := p.Driver(idx)
	if d == nil {
		return false
	}
	d.Retired = true
	return true
}

func convertSetup(s *wire.CarSetup) model.CarSetup {
	return model.CarSetup{
		FrontWing:              int(s.FrontWing),
		RearWing:               int(s.RearWing),
		OnThrottle:             int(s.OnThrottle),
		OffThrottle:            int(s.OffThrottle),
		FrontCamber:            util.Round(float64(s.FrontCamber), 2),
		RearCamber:             util.Round(float64(s.RearCamber), 2),
		FrontToe:               util.Round(float64(s.FrontToe), 2),
		RearToe:                util.Round(float64(s.RearToe), 2),
		FrontSuspension:        int(s.FrontSuspension),
		RearSuspension:         int(s.RearSuspension),
		FrontAntiRollBar:       int(s.FrontAntiRollBar),
		RearAntiRollBar:        int(s.RearAntiRollBar),
		FrontSuspensionHeight:  int(s.FrontSuspensionHeight),
		RearSuspensionHeight:   int(s.RearSuspensionHeight),
		BrakePressure:          int(s.BrakePressure),
		BrakeBias:              int(s.BrakeBias),
		EngineBraking:          int(s.EngineBraking),
		RearLeftTyrePressure:   util.Round(float64(s.RearLeftTyrePressure), 1),
		RearRightTyrePressure:  util.Round(float64(s.RearRightTyrePressure), 1),
		FrontLeftTyrePressure:  util.Round(float64(s.FrontLeftTyrePressure), 1),
		FrontRightTyrePressure: util.Round(float64(s.FrontRightTyrePressure), 1),
		Ballast:                int(s.Ballast),
		FuelLoad:               util.Round(float64(s.FuelLoad), 1),
	}
}
