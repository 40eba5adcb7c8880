//nolint:thelper // ok for tests
package wire_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/wire"
	"github.com/dbsDevelops/f1-24-setup-recommender/testsupport/basedata"
)

func TestEventDetail(t *testing.T) {
	tests := []struct {
		name   string
		code   string
		detail any
		want   any
		wantOk bool
	}{
		{"start lights", wire.EventStartLights, &wire.StartLights{NumLights: 3}, &wire.StartLights{NumLights: 3}, true},
		{"retirement", wire.EventRetirement, &wire.Retirement{VehicleIdx: 7}, &wire.Retirement{VehicleIdx: 7}, true},
		{
			"speed trap", wire.EventSpeedTrap,
			&wire.SpeedTrap{VehicleIdx: 1, Speed: 330.5, IsOverallFastestInSession: 1, FastestVehicleIdxInSession: 1, FastestSpeedInSession: 330.5},
			&wire.SpeedTrap{VehicleIdx: 1, Speed: 330.5, IsOverallFastestInSession: 1, FastestVehicleIdxInSession: 1, FastestSpeedInSession: 330.5},
			true,
		},
		{
			"penalty", wire.EventPenalty,
			&wire.Penalty{PenaltyType: 4, InfringementType: 7, VehicleIdx: 2, OtherVehicleIdx: 255, Time: 5, LapNum: 3},
			&wire.Penalty{PenaltyType: 4, InfringementType: 7, VehicleIdx: 2, OtherVehicleIdx: 255, Time: 5, LapNum: 3},
			true,
		},
		{"flashback", wire.EventFlashback, &wire.Flashback{FlashbackFrameIdentifier: 99, FlashbackSessionTime: 12}, &wire.Flashback{FlashbackFrameIdentifier: 99, FlashbackSessionTime: 12}, true},
		{"overtake", wire.EventOvertake, &wire.Overtake{OvertakingVehicleIdx: 1, BeingOvertakenVehicleIdx: 2}, &wire.Overtake{OvertakingVehicleIdx: 1, BeingOvertakenVehicleIdx: 2}, true},
		{"no details", wire.EventSessionStarted, nil, nil, true},
		{"lights out", wire.EventLightsOut, nil, nil, true},
		{"unknown code", "XXXX", nil, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := basedata.SampleEvent(tt.code, tt.detail)
			decoded, err := wire.Decode(basedata.Datagram(p))
			assert.NoError(t, err)
			ev := decoded.(*wire.EventPacket)
			assert.Equal(t, tt.code, ev.EventCode())
			got, ok := ev.Detail()
			assert.Equal(t, tt.wantOk, ok)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Detail() not correct: %s", diff)
			}
		})
	}
}

// the same raw bytes are interpreted differently depending on the code
func TestEventDetailReinterpretation(t *testing.T) {
	p := basedata.SampleEvent(wire.EventCollision, &wire.Collision{Vehicle1Idx: 3, Vehicle2Idx: 9})
	copy(p.Code[:], wire.EventRetirement)
	got, ok := p.Detail()
	assert.True(t, ok)
	assert.Equal(t, &wire.Retirement{VehicleIdx: 3}, got)
}

func TestDecodeName(t *testing.T) {
	name, ok := wire.DecodeName(wire.EncodeName("HAMILTON"))
	assert.True(t, ok)
	assert.Equal(t, "HAMILTON", name)

	raw := wire.EncodeName("P")
	raw[1] = 0xff
	raw[2] = 0xfe
	name, ok = wire.DecodeName(raw)
	assert.False(t, ok)
	assert.Equal(t, "P\xff\xfe", name)

	var full [wire.NameLength]byte
	for i := range full {
		full[i] = 'a'
	}
	name, ok = wire.DecodeName(full)
	assert.True(t, ok)
	assert.Len(t, name, wire.NameLength)
}
