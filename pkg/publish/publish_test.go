//nolint:funlen // ok for tests
package publish

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/model"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/processing"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/wire"
	"github.com/dbsDevelops/f1-24-setup-recommender/testsupport/basedata"
)

type message struct {
	subject string
	data    []byte
}

type fakeConn struct {
	msgs []message
	err  error
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, message{subject, data})
	return nil
}

type fakeKV struct {
	values map[string][]byte
}

func (f *fakeKV) Put(_ context.Context, key string, value []byte) (uint64, error) {
	f.values[key] = value
	return uint64(len(f.values)), nil
}

func decode(t *testing.T, data []byte) *structpb.Struct {
	t.Helper()
	var s structpb.Struct
	require.NoError(t, proto.Unmarshal(data, &s))
	return &s
}

func TestHandleSnapshot(t *testing.T) {
	conn := &fakeConn{}
	kv := &fakeKV{values: map[string][]byte{}}
	p := NewPublisher(conn, WithPrefix("test"), WithKeyValue(kv))
	snap := &model.Snapshot{
		Timestamp: basedata.TestTime(),
		Session:   model.Session{UID: 42, Track: 7},
		Drivers:   []model.Driver{{Name: "Leclerc", Position: 2}},
		Reception: map[string]uint32{"Motion": 60},
	}
	p.HandleSnapshot(context.Background(), snap)

	require.Len(t, conn.msgs, 1)
	assert.Equal(t, "test.session.42", conn.msgs[0].subject)
	s := decode(t, conn.msgs[0].data)
	session := s.Fields["session"].GetStructValue()
	require.NotNil(t, session)
	assert.InDelta(t, 7.0, session.Fields["track"].GetNumberValue(), 0)
	drivers := s.Fields["drivers"].GetListValue().GetValues()
	require.Len(t, drivers, 1)
	assert.Equal(t, "Leclerc", drivers[0].GetStructValue().Fields["name"].GetStringValue())
	assert.Equal(t, "2024-04-28T11:10:12Z", s.Fields["timestamp"].GetStringValue())

	assert.Equal(t, conn.msgs[0].data, kv.values["session.42"])
	published, failed := p.Stats()
	assert.Equal(t, int64(1), published)
	assert.Equal(t, int64(0), failed)
}

func TestHandlePacket(t *testing.T) {
	conn := &fakeConn{}
	p := NewPublisher(conn)
	pkt := basedata.SampleLapData(0, wire.LapData{})
	r := processing.Result{
		Kind:    wire.KindLapData,
		Changes: processing.ChangeDrivers | processing.ChangeRaceStart,
		Laps: []model.CompletedLap{
			{DriverIndex: 0, LapNum: 3, LapTime: 91800, Sectors: [3]float64{30.1, 31.2, 30.5}},
		},
	}
	p.HandlePacket(context.Background(), pkt, r)

	uid := basedata.SampleSessionUID
	require.Len(t, conn.msgs, 2)
	assert.Equal(t, p.LapSubject(uid), conn.msgs[0].subject)
	lap := decode(t, conn.msgs[0].data)
	assert.InDelta(t, 91800.0, lap.Fields["lapTime"].GetNumberValue(), 0)
	assert.InDelta(t, 3.0, lap.Fields["lapNum"].GetNumberValue(), 0)

	assert.Equal(t, p.EventSubject(uid), conn.msgs[1].subject)
	event := decode(t, conn.msgs[1].data)
	assert.Equal(t, "raceStart", event.Fields["event"].GetStringValue())
	assert.InDelta(t, 12.5, event.Fields["sessionTime"].GetNumberValue(), 0.001)
}

func TestPublishFailure(t *testing.T) {
	conn := &fakeConn{err: errors.New("nats: connection closed")}
	p := NewPublisher(conn)
	p.HandleSnapshot(context.Background(), &model.Snapshot{})
	published, failed := p.Stats()
	assert.Equal(t, int64(0), published)
	assert.Equal(t, int64(1), failed)
}

func TestToStruct(t *testing.T) {
	s, err := ToStruct(map[string]any{"a": 1, "b": []int{1, 2}})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, s.Fields["a"].GetNumberValue(), 0)
	assert.Len(t, s.Fields["b"].GetListValue().GetValues(), 2)

	_, err = ToStruct(func() {})
	assert.Error(t, err)
}
