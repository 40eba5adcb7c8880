//nolint:funlen // ok for tests
package recorder

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/capture"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/wire"
	"github.com/dbsDevelops/f1-24-setup-recommender/testsupport/basedata"
)

type queueSource struct {
	queue  [][]byte
	cancel context.CancelFunc
	err    error
}

func (q *queueSource) Poll() ([]byte, bool, error) {
	if len(q.queue) == 0 {
		if q.err != nil {
			return nil, false, q.err
		}
		q.cancel()
		return nil, false, nil
	}
	data := q.queue[0]
	q.queue = q.queue[1:]
	return data, true, nil
}

func TestRecordAndReplay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	src := &queueSource{
		queue: [][]byte{
			basedata.Datagram(basedata.SampleSession()),
			basedata.Datagram(basedata.SampleMotion(nil)),
			basedata.Datagram(basedata.SampleMotion(nil)),
		},
		cancel: cancel,
	}
	var out bytes.Buffer
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	r := NewRecorder(src, &out, WithID(id))

	sum, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, sum.ID)
	assert.Equal(t, 3, sum.Datagrams)
	assert.Equal(t, 0, sum.Dropped)
	assert.Equal(t, map[wire.Kind]int{wire.KindSession: 1, wire.KindMotion: 2}, sum.Counts)

	reader := capture.NewReader(out.Bytes())
	var kinds []wire.Kind
	for {
		rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		kinds = append(kinds, rec.Header().Kind())
	}
	assert.Equal(t, []wire.Kind{wire.KindSession, wire.KindMotion, wire.KindMotion}, kinds)
}

func TestRecordSourceError(t *testing.T) {
	fatal := errors.New("receive failed")
	src := &queueSource{
		queue:  [][]byte{basedata.Datagram(basedata.SampleSession())},
		err:    fatal,
		cancel: func() {},
	}
	var out bytes.Buffer
	sum, err := NewRecorder(src, &out).Run(context.Background())
	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, sum.Datagrams)
	assert.Positive(t, out.Len(), "received datagrams are flushed")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRecordWriteError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	src := &queueSource{
		queue:  [][]byte{basedata.Datagram(basedata.SampleSession())},
		cancel: cancel,
	}
	_, err := NewRecorder(src, failingWriter{}).Run(ctx)
	assert.ErrorContains(t, err, "disk full")
}

func TestWatchStop(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"stop", "hello\nstop\n"},
		{"mixed case", "  Stop \n"},
		{"eof", "nothing\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			WatchStop(ctx, strings.NewReader(tt.input), cancel)
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
				t.Fatal("not cancelled")
			}
		})
	}
}

func TestFileName(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	got := FileName("data", basedata.TestTime(), id)
	assert.Equal(t, filepath.Join("data", "f1-24_2024-04-28_11-10-12_6ba7b810.cap"), got)
}

func TestCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "rec.cap")
	f, err := Create(path, false)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = Create(path, false)
	require.ErrorIs(t, err, ErrFileExists)

	f, err = Create(path, true)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	_, err = os.Stat(path)
	assert.NoError(t, err)
}
