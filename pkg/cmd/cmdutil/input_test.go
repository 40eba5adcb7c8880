package cmdutil

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/capture"
	"github.com/dbsDevelops/f1-24-setup-recommender/testsupport/basedata"
)

func TestIsPcap(t *testing.T) {
	assert.True(t, IsPcap("dump/race.pcap"))
	assert.True(t, IsPcap("RACE.PCAP"))
	assert.False(t, IsPcap("race.cap"))
	assert.False(t, IsPcap("pcap"))
}

func TestReadDatagramsCapture(t *testing.T) {
	var buf bytes.Buffer
	w := capture.NewWriter(&buf)
	session := basedata.Datagram(basedata.SampleSession())
	participants := basedata.Datagram(basedata.SampleParticipants("NORRIS"))
	for _, d := range [][]byte{session, participants} {
		_, err := w.Write(d)
		require.NoError(t, err)
	}
	require.NoError(t, w.Flush())
	data := append([]byte("garbage"), buf.Bytes()...)

	got, err := ReadDatagrams(context.Background(), bytes.NewReader(data), false, 0)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{session, participants}, got)
}

func TestReadDatagramsPcap(t *testing.T) {
	session := basedata.Datagram(basedata.SampleSession())
	file, err := basedata.Pcap(
		basedata.PcapDatagram{Timestamp: basedata.TestTime(), DstPort: 20777, Payload: session},
		basedata.PcapDatagram{Timestamp: basedata.TestTime(), DstPort: 20778, Payload: []byte{1}},
	)
	require.NoError(t, err)

	got, err := ReadDatagrams(context.Background(), bytes.NewReader(file), true, 20777)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{session}, got)
}
