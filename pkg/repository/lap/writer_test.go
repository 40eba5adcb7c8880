//nolint:funlen // ok for tests
package lap

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/model"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/processing"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/wire"
)

type fakeStore struct {
	mu             sync.Mutex
	block          chan struct{}
	err            error
	runIDs         []uuid.UUID
	laps           []model.CompletedLap
	classification []model.ClassificationEntry
}

func (f *fakeStore) SaveLaps(_ context.Context, runID uuid.UUID, laps []model.CompletedLap) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.runIDs = append(f.runIDs, runID)
	f.laps = append(f.laps, laps...)
	return nil
}

//nolint:whitespace // editor/linter issue
func (f *fakeStore) SaveClassification(
	_ context.Context, _ uuid.UUID, entries []model.ClassificationEntry,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.classification = append(f.classification, entries...)
	return nil
}

type fakeTx struct {
	calls int
}

func (f *fakeTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

func resultWith(laps []model.CompletedLap, cls []model.ClassificationEntry) processing.Result {
	return processing.Result{Kind: wire.KindLapData, Laps: laps, Classification: cls}
}

func TestWriter(t *testing.T) {
	store := &fakeStore{}
	tx := &fakeTx{}
	w := NewWriter(store, WithTransaction(tx))
	w.Start(context.Background())

	ctx := context.Background()
	w.HandlePacket(ctx, nil, resultWith(nil, nil))
	w.HandlePacket(ctx, nil, resultWith([]model.CompletedLap{{LapNum: 1}, {LapNum: 2}}, nil))
	w.HandlePacket(ctx, nil, resultWith(nil, []model.ClassificationEntry{{DriverName: "ALONSO"}}))
	w.HandleSnapshot(ctx, &model.Snapshot{})
	w.Close()
	w.Close()

	assert.Len(t, store.laps, 2)
	assert.Len(t, store.classification, 1)
	assert.Equal(t, 2, tx.calls, "empty results are not queued")
	for _, id := range store.runIDs {
		assert.Equal(t, w.RunID(), id)
	}
	assert.NotEqual(t, uuid.Nil, w.RunID())
	written, dropped, failed := w.Stats()
	assert.Equal(t, int64(2), written)
	assert.Equal(t, int64(0), dropped)
	assert.Equal(t, int64(0), failed)
}

func TestWriterDropsWhenFull(t *testing.T) {
	store := &fakeStore{block: make(chan struct{})}
	w := NewWriter(store, WithQueueSize(1))
	w.Start(context.Background())

	ctx := context.Background()
	r := resultWith([]model.CompletedLap{{LapNum: 1}}, nil)
	// the first item may already be taken by the writer goroutine
	for range 5 {
		w.HandlePacket(ctx, nil, r)
	}
	close(store.block)
	w.Close()

	written, dropped, _ := w.Stats()
	require.Positive(t, dropped)
	assert.Equal(t, int64(5), written+dropped)
}

func TestWriterFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	w := NewWriter(store)
	w.Start(context.Background())
	w.HandlePacket(context.Background(), nil, resultWith([]model.CompletedLap{{LapNum: 1}}, nil))
	w.Close()
	written, _, failed := w.Stats()
	assert.Equal(t, int64(0), written)
	assert.Equal(t, int64(1), failed)
}
