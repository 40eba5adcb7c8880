package capture

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/wire"
	"github.com/dbsDevelops/f1-24-setup-recommender/testsupport/basedata"
)

func TestReadPcap(t *testing.T) {
	ts := basedata.TestTime()
	file, err := basedata.Pcap(
		basedata.PcapDatagram{Timestamp: ts, DstPort: 20777, Payload: basedata.Datagram(basedata.SampleSession())},
		basedata.PcapDatagram{Timestamp: ts.Add(time.Second), DstPort: 5353, Payload: []byte("other traffic")},
		basedata.PcapDatagram{
			Timestamp: ts.Add(2 * time.Second), DstPort: 20777,
			Payload: basedata.Datagram(basedata.SampleParticipants("a")),
		},
	)
	require.NoError(t, err)

	var got []wire.Kind
	var stamps []time.Time
	n, err := ReadPcap(context.Background(), bytes.NewReader(file), 20777,
		func(ts time.Time, payload []byte) error {
			p, err := wire.Decode(payload)
			if err != nil {
				return err
			}
			got = append(got, p.PacketHeader().Kind())
			stamps = append(stamps, ts)
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []wire.Kind{wire.KindSession, wire.KindParticipants}, got)
	assert.True(t, stamps[0].Equal(ts))

	n, err = ReadPcap(context.Background(), bytes.NewReader(file), 0,
		func(time.Time, []byte) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestReadPcapInvalid(t *testing.T) {
	_, err := ReadPcap(context.Background(), bytes.NewReader([]byte("no pcap")), 0,
		func(time.Time, []byte) error { return nil })
	assert.Error(t, err)
}
