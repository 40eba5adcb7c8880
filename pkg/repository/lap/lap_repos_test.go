//nolint:funlen,errcheck // ok for this test code
package lap

import (
	"context"
	"math"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/stephenafamo/bob"
	"gotest.tools/v3/assert"

	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/model"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/repository"
	"github.com/dbsDevelops/f1-24-setup-recommender/testsupport/testdb"
)

// larger than math.MaxInt64 on purpose
const bigUID uint64 = math.MaxUint64 - 5

var approx = cmp.Comparer(func(a, b float64) bool { return math.Abs(a-b) < 0.0005 })

var runID = uuid.Must(uuid.FromString("0190b3c2-7d3e-7000-8000-000000000001"))

func sampleLaps() []model.CompletedLap {
	return []model.CompletedLap{
		{
			SessionUID:  bigUID, SessionType: 10, Track: 7,
			DriverIndex: 0, DriverName: "LECLERC", TeamID: 2,
			LapNum:      1, LapTime: 92512, Sectors: [3]float64{30.101, 31.2, 31.211},
			TyreVisual:  16, TyresAge: 1,
		},
		{
			SessionUID:  bigUID, SessionType: 10, Track: 7,
			DriverIndex: 0, DriverName: "LECLERC", TeamID: 2,
			LapNum:      2, LapTime: 91003, Sectors: [3]float64{29.9, 30.6, 30.503},
			Invalid:     true, TyreVisual: 16, TyresAge: 2,
		},
	}
}

func sampleClassification() []model.ClassificationEntry {
	return []model.ClassificationEntry{
		{
			SessionUID:  bigUID, SessionType: 10, Track: 7,
			DriverIndex: 1, DriverName: "SAINZ", TeamID: 2,
			Result: model.Result{
				Position:      1, NumLaps: 5, GridPosition: 2, Points: 25,
				NumPitStops:   1, ResultStatus: 3, BestLapTime: 90500,
				TotalRaceTime: 460.125, NumStints: 2,
			},
		},
		{
			SessionUID:  bigUID, SessionType: 10, Track: 7,
			DriverIndex: 0, DriverName: "LECLERC", TeamID: 2,
			Result: model.Result{
				Position:      2, NumLaps: 5, GridPosition: 1, Points: 18,
				NumPitStops:   1, ResultStatus: 3, BestLapTime: 91003,
				TotalRaceTime: 461.5, PenaltiesTime: 5, NumPenalties: 1, NumStints: 2,
			},
		},
	}
}

func initRepo(t *testing.T) (bob.DB, *Repository) {
	t.Helper()
	db := repository.NewDBFromPool(testdb.InitTestDB())
	return db, NewRepository(db)
}

func TestSaveAndLoadLaps(t *testing.T) {
	_, r := initRepo(t)
	ctx := context.Background()
	assert.NilError(t, r.SaveLaps(ctx, runID, sampleLaps()))
	// stored laps are not replaced
	again := sampleLaps()
	again[0].LapTime = 1
	assert.NilError(t, r.SaveLaps(ctx, runID, again))

	got, err := r.LoadLaps(ctx, bigUID)
	assert.NilError(t, err)
	assert.DeepEqual(t, got, sampleLaps(), approx)

	got, err = r.LoadLaps(ctx, 1)
	assert.NilError(t, err)
	assert.Equal(t, len(got), 0)
}

func TestSaveClassification(t *testing.T) {
	_, r := initRepo(t)
	ctx := context.Background()
	assert.NilError(t, r.SaveClassification(ctx, runID, sampleClassification()))

	update := sampleClassification()
	update[1].Result.Points = 19
	assert.NilError(t, r.SaveClassification(ctx, runID, update))

	got, err := r.LoadClassification(ctx, bigUID)
	assert.NilError(t, err)
	assert.Equal(t, len(got), 2)
	assert.Equal(t, got[0].DriverName, "SAINZ")
	assert.DeepEqual(t, got[1], update[1], approx)
}

func TestDeleteSession(t *testing.T) {
	_, r := initRepo(t)
	ctx := context.Background()
	assert.NilError(t, r.SaveLaps(ctx, runID, sampleLaps()))
	assert.NilError(t, r.SaveClassification(ctx, runID, sampleClassification()))

	n, err := r.DeleteSession(ctx, bigUID)
	assert.NilError(t, err)
	assert.Equal(t, n, 1)
	laps, _ := r.LoadLaps(ctx, bigUID)
	assert.Equal(t, len(laps), 0)
	n, err = r.DeleteSession(ctx, bigUID)
	assert.NilError(t, err)
	assert.Equal(t, n, 0)
}

func TestRollback(t *testing.T) {
	db, r := initRepo(t)
	ctx := context.Background()
	tm := repository.NewTransactionManager(db)
	err := tm.RunInTx(ctx, func(ctx context.Context) error {
		if err := r.SaveLaps(ctx, runID, sampleLaps()); err != nil {
			return err
		}
		return context.Canceled
	})
	assert.ErrorIs(t, err, context.Canceled)
	laps, err := r.LoadLaps(ctx, bigUID)
	assert.NilError(t, err)
	assert.Equal(t, len(laps), 0)
}

func TestWriterWithDatabase(t *testing.T) {
	db, r := initRepo(t)
	ctx := context.Background()
	w := NewWriter(r, WithTransaction(repository.NewTransactionManager(db)), WithRunID(runID))
	w.Start(ctx)
	laps := sampleLaps()
	w.HandlePacket(ctx, nil, resultWith(laps, nil))
	w.HandlePacket(ctx, nil, resultWith(nil, sampleClassification()))
	w.Close()

	written, dropped, failed := w.Stats()
	assert.Equal(t, written, int64(2))
	assert.Equal(t, dropped, int64(0))
	assert.Equal(t, failed, int64(0))
	got, err := r.LoadLaps(ctx, bigUID)
	assert.NilError(t, err)
	assert.Equal(t, len(got), 2)
}
