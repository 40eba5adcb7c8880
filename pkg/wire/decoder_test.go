//nolint:thelper,funlen // ok for tests
package wire_test

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/wire"
	"github.com/dbsDevelops/f1-24-setup-recommender/testsupport/basedata"
)

func TestRegistrySizes(t *testing.T) {
	r, err := wire.NewRegistry(wire.F124Schemas()...)
	require.NoError(t, err)
	want := map[wire.Kind]int{
		wire.KindMotion:              1349,
		wire.KindSession:             753,
		wire.KindLapData:             1285,
		wire.KindEvent:               45,
		wire.KindParticipants:        1350,
		wire.KindCarSetup:            1133,
		wire.KindCarTelemetry:        1352,
		wire.KindCarStatus:           1239,
		wire.KindFinalClassification: 1020,
		wire.KindLobbyInfo:           1306,
		wire.KindCarDamage:           953,
		wire.KindSessionHistory:      1460,
		wire.KindTyreSets:            231,
		wire.KindMotionEx:            237,
		wire.KindTimeTrial:           101,
	}
	assert.Len(t, r.Schemas(), wire.NumKinds)
	for kind, size := range want {
		assert.Equal(t, size, r.Size(wire.FormatF124, kind), kind.String())
	}
	assert.Equal(t, wire.HeaderSize, binary.Size(&wire.Header{}))
	assert.Equal(t, wire.EventDetailsSize, binary.Size(&wire.SpeedTrap{}))
}

func TestRegisterRejectsWrongSize(t *testing.T) {
	r, err := wire.NewRegistry()
	require.NoError(t, err)
	err = r.Register(wire.Schema{
		Format: 2023, Kind: wire.KindEvent, Size: 40,
		New:    func() wire.Packet { return &wire.EventPacket{} },
	})
	assert.Error(t, err)
}

// the header is checked against a hand built byte layout
func TestDecodeHeaderLayout(t *testing.T) {
	buf := make([]byte, wire.HeaderSize)
	binary.LittleEndian.PutUint16(buf[0:], 2024)
	buf[2] = 24
	buf[3] = 1
	buf[4] = 5
	buf[5] = 1
	buf[6] = byte(wire.KindLapData)
	binary.LittleEndian.PutUint64(buf[7:], 42)
	binary.LittleEndian.PutUint32(buf[15:], math.Float32bits(1.5))
	binary.LittleEndian.PutUint32(buf[19:], 7)
	binary.LittleEndian.PutUint32(buf[23:], 8)
	buf[27] = 3
	buf[28] = 255

	h, err := wire.DecodeHeader(buf)
	require.NoError(t, err)
	want := wire.Header{
		PacketFormat:    2024, GameYear: 24, GameMajorVersion: 1, GameMinorVersion: 5,
		PacketVersion:   1, PacketID: wire.KindLapData, SessionUID: 42, SessionTime: 1.5,
		FrameIdentifier: 7, OverallFrameIdentifier: 8, PlayerCarIndex: 3, SecondaryPlayerCarIndex: 255,
	}
	if diff := cmp.Diff(want, h); diff != "" {
		t.Errorf("DecodeHeader() not correct: %s", diff)
	}
}

// the lap data record is checked against a hand built byte layout
func TestDecodeLapDataLayout(t *testing.T) {
	hdr := basedata.SampleHeader(wire.KindLapData)
	buf := basedata.Datagram(&wire.LapDataPacket{Header: hdr})
	car := buf[wire.HeaderSize+57:] // second car
	binary.LittleEndian.PutUint32(car[0:], 91800)
	binary.LittleEndian.PutUint32(car[4:], 1200)
	binary.LittleEndian.PutUint16(car[8:], 30100)
	binary.LittleEndian.PutUint16(car[11:], 28900)
	car[32] = 4 // position
	car[33] = 12
	car[40] = 2 // corner cutting warnings
	binary.LittleEndian.PutUint32(car[52:], math.Float32bits(311.25))
	car[56] = 9
	buf[len(buf)-1] = 0xff // rival idx -1

	p, err := wire.Decode(buf)
	require.NoError(t, err)
	lap, ok := p.(*wire.LapDataPacket)
	require.True(t, ok)
	got := lap.Cars[1]
	assert.Equal(t, uint32(91800), got.LastLapTimeInMS)
	assert.Equal(t, uint32(1200), got.CurrentLapTimeInMS)
	assert.Equal(t, uint16(30100), got.Sector1TimeInMS)
	assert.Equal(t, uint16(28900), got.Sector2TimeInMS)
	assert.Equal(t, uint8(4), got.CarPosition)
	assert.Equal(t, uint8(12), got.CurrentLapNum)
	assert.Equal(t, uint8(2), got.CornerCuttingWarnings)
	assert.Equal(t, float32(311.25), got.SpeedTrapFastestSpeed)
	assert.Equal(t, uint8(9), got.SpeedTrapFastestLap)
	assert.Equal(t, int8(-1), lap.TimeTrialRivalCarIdx)
	assert.Equal(t, wire.LapData{}, lap.Cars[0])
}

func TestDecodeRoundTrip(t *testing.T) {
	session := basedata.SampleSession()
	lap := basedata.SampleLapData(3, wire.LapData{LastLapTimeInMS: 92500, CarPosition: 1, Sector1TimeInMS: 120})
	event := basedata.SampleEvent(wire.EventSpeedTrap, &wire.SpeedTrap{VehicleIdx: 4, Speed: 320.5, FastestSpeedInSession: 321})
	participants := basedata.SampleParticipants("Player", "Driver", "Verstappen")
	status := &wire.CarStatusPacket{Header: basedata.SampleHeader(wire.KindCarStatus)}
	status.Cars[2].ERSStoreEnergy = 2_000_000
	status.Cars[2].VehicleFIAFlags = -1
	history := &wire.SessionHistoryPacket{Header: basedata.SampleHeader(wire.KindSessionHistory), CarIdx: 5, NumLaps: 2}
	history.Laps[1] = wire.LapHistory{LapTimeInMS: 91000, LapValidBitFlags: 0x0f}
	tyres := &wire.TyreSetsPacket{Header: basedata.SampleHeader(wire.KindTyreSets), FittedIdx: 3}
	tyres.TyreSets[3].LapDeltaTime = -250
	classification := &wire.FinalClassificationPacket{Header: basedata.SampleHeader(wire.KindFinalClassification), NumCars: 20}
	classification.Cars[0].TotalRaceTime = 5432.125

	tests := []struct {
		name string
		p    wire.Packet
	}{
		{"motion", basedata.SampleMotion(map[int][2]float32{0: {150, -20}, 21: {1, 2}})},
		{"session", session},
		{"lapdata", lap},
		{"event", event},
		{"participants", participants},
		{"carsetup", &wire.CarSetupPacket{Header: basedata.SampleHeader(wire.KindCarSetup), NextFrontWingValue: 0.5}},
		{"cartelemetry", &wire.CarTelemetryPacket{Header: basedata.SampleHeader(wire.KindCarTelemetry), SuggestedGear: -1}},
		{"carstatus", status},
		{"finalclassification", classification},
		{"lobbyinfo", &wire.LobbyInfoPacket{Header: basedata.SampleHeader(wire.KindLobbyInfo), NumPlayers: 2}},
		{"cardamage", &wire.CarDamagePacket{Header: basedata.SampleHeader(wire.KindCarDamage)}},
		{"sessionhistory", history},
		{"tyresets", tyres},
		{"motionex", &wire.MotionExPacket{Header: basedata.SampleHeader(wire.KindMotionEx), ChassisYaw: 0.25}},
		{"timetrial", &wire.TimeTrialPacket{Header: basedata.SampleHeader(wire.KindTimeTrial)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := basedata.Datagram(tt.p)
			assert.Equal(t, wire.DefaultRegistry().Size(wire.FormatF124, tt.p.PacketHeader().Kind()), len(data))
			got, err := wire.Decode(data)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.p, got); diff != "" {
				t.Errorf("Decode() not correct: %s", diff)
			}
			again, err := wire.Encode(got)
			require.NoError(t, err)
			assert.Equal(t, data, again)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	valid := basedata.Datagram(basedata.SampleSession())
	unknown := basedata.Datagram(&wire.EventPacket{Header: basedata.SampleHeader(wire.KindEvent)})
	unknown[6] = 15
	oldFormat := basedata.Datagram(&wire.EventPacket{Header: basedata.SampleHeader(wire.KindEvent)})
	binary.LittleEndian.PutUint16(oldFormat, 2023)

	tests := []struct {
		name    string
		buf     []byte
		wantErr error
	}{
		{"empty", nil, wire.ErrTruncated},
		{"short header", valid[:wire.HeaderSize-1], wire.ErrTruncated},
		{"short packet", valid[:len(valid)-1], wire.ErrTruncated},
		{"unknown kind", unknown, wire.ErrUnknownKind},
		{"unknown format", oldFormat, wire.ErrUnknownKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := wire.Decode(tt.buf)
			assert.Nil(t, p)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}

	var trunc *wire.TruncatedError
	_, err := wire.Decode(valid[:100])
	require.ErrorAs(t, err, &trunc)
	assert.Equal(t, 753, trunc.Need)
	assert.Equal(t, 100, trunc.Got)

	var uk *wire.UnknownKindError
	_, err = wire.Decode(unknown)
	require.ErrorAs(t, err, &uk)
	assert.Equal(t, wire.Kind(15), uk.Kind)
}

func TestDecodeIgnoresTrailingBytes(t *testing.T) {
	data := basedata.Datagram(basedata.SampleSession())
	data = append(data, 1, 2, 3)
	p, err := wire.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, wire.KindSession, p.PacketHeader().Kind())
}
