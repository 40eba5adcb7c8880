//nolint:whitespace // editor/linter issue
package lap

import (
	"context"
	"math/big"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dm"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/scan"

	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/model"
	bobCtx "github.com/dbsDevelops/f1-24-setup-recommender/pkg/repository/context"
)

type (
	Repository struct {
		conn bob.Executor
	}
	lapRow struct {
		SessionUID  decimal.Decimal `db:"session_uid"`
		RunID       uuid.UUID       `db:"run_id"`
		DriverIndex int             `db:"driver_index"`
		DriverName  string          `db:"driver_name"`
		TeamID      int             `db:"team_id"`
		LapNum      int             `db:"lap_num"`
		LapTimeMS   int64           `db:"lap_time_ms"`
		Sector1     decimal.Decimal `db:"sector1"`
		Sector2     decimal.Decimal `db:"sector2"`
		Sector3     decimal.Decimal `db:"sector3"`
		Invalid     bool            `db:"invalid"`
		TyreVisual  int             `db:"tyre_visual"`
		TyresAge    int             `db:"tyres_age"`
		Track       int             `db:"track"`
		SessionType int             `db:"session_type"`
	}
	classificationRow struct {
		SessionUID    decimal.Decimal `db:"session_uid"`
		DriverIndex   int             `db:"driver_index"`
		DriverName    string          `db:"driver_name"`
		TeamID        int             `db:"team_id"`
		Position      int             `db:"position"`
		NumLaps       int             `db:"num_laps"`
		GridPosition  int             `db:"grid_position"`
		Points        int             `db:"points"`
		NumPitStops   int             `db:"num_pit_stops"`
		ResultStatus  int             `db:"result_status"`
		BestLapMS     int64           `db:"best_lap_ms"`
		TotalRaceTime decimal.Decimal `db:"total_race_time"`
		PenaltiesTime int             `db:"penalties_time"`
		NumPenalties  int             `db:"num_penalties"`
		NumStints     int             `db:"num_stints"`
		Track         int             `db:"track"`
		SessionType   int             `db:"session_type"`
	}
)

var lapColumns = []string{
	"session_uid", "run_id", "driver_index", "driver_name", "team_id", "lap_num",
	"lap_time_ms", "sector1", "sector2", "sector3", "invalid", "tyre_visual", "tyres_age",
}

var classificationColumns = []string{
	"session_uid", "driver_index", "run_id", "driver_name", "team_id", "position",
	"num_laps", "grid_position", "points", "num_pit_stops", "result_status",
	"best_lap_ms", "total_race_time", "penalties_time", "num_penalties", "num_stints",
}

func NewRepository(conn bob.Executor) *Repository {
	return &Repository{conn: conn}
}

// EnsureSession stores the session row once. Later calls for the same uid
// keep the first run id.
func (r *Repository) EnsureSession(
	ctx context.Context,
	runID uuid.UUID,
	uid uint64,
	track, sessionType int,
) error {
	q := psql.Insert(
		im.Into("session", "uid", "run_id", "track", "session_type"),
		im.Values(psql.Arg(sessionUID(uid), runID, track, sessionType)),
		im.OnConflict("uid").DoNothing(),
	)
	_, err := bob.Exec(ctx, r.getExecutor(ctx), q)
	return err
}

// SaveLaps stores completed laps. A lap already stored for the same
// session, car and lap number is left untouched.
func (r *Repository) SaveLaps(
	ctx context.Context,
	runID uuid.UUID,
	laps []model.CompletedLap,
) error {
	for i := range laps {
		l := &laps[i]
		if err := r.EnsureSession(ctx, runID, l.SessionUID, l.Track, l.SessionType); err != nil {
			return err
		}
		q := psql.Insert(
			im.Into("lap", lapColumns...),
			im.Values(psql.Arg(
				sessionUID(l.SessionUID), runID, l.DriverIndex, l.DriverName, l.TeamID,
				l.LapNum, int64(l.LapTime),
				sector(l.Sectors[0]), sector(l.Sectors[1]), sector(l.Sectors[2]),
				l.Invalid, l.TyreVisual, l.TyresAge,
			)),
			im.OnConflict("session_uid", "driver_index", "lap_num").DoNothing(),
		)
		if _, err := bob.Exec(ctx, r.getExecutor(ctx), q); err != nil {
			return err
		}
	}
	return nil
}

// SaveClassification stores the final result rows. A repeated classification
// for the same session replaces the stored values.
func (r *Repository) SaveClassification(
	ctx context.Context,
	runID uuid.UUID,
	entries []model.ClassificationEntry,
) error {
	for i := range entries {
		e := &entries[i]
		if err := r.EnsureSession(ctx, runID, e.SessionUID, e.Track, e.SessionType); err != nil {
			return err
		}
		res := &e.Result
		q := psql.Insert(
			im.Into("classification", classificationColumns...),
			im.Values(psql.Arg(
				sessionUID(e.SessionUID), e.DriverIndex, runID, e.DriverName, e.TeamID,
				res.Position, res.NumLaps, res.GridPosition, res.Points, res.NumPitStops,
				res.ResultStatus, int64(res.BestLapTime),
				decimal.NewFromFloat(res.TotalRaceTime).Round(3),
				res.PenaltiesTime, res.NumPenalties, res.NumStints,
			)),
			im.OnConflict("session_uid", "driver_index").DoUpdate(
				im.SetExcluded(classificationColumns[2:]...),
			),
		)
		if _, err := bob.Exec(ctx, r.getExecutor(ctx), q); err != nil {
			return err
		}
	}
	return nil
}

// LoadLaps returns the stored laps of a session ordered by car and lap.
func (r *Repository) LoadLaps(ctx context.Context, uid uint64) (
	[]model.CompletedLap, error,
) {
	q := psql.Select(
		sm.Columns(
			"l.session_uid", "l.run_id", "l.driver_index", "l.driver_name", "l.team_id",
			"l.lap_num", "l.lap_time_ms", "l.sector1", "l.sector2", "l.sector3",
			"l.invalid", "l.tyre_visual", "l.tyres_age", "s.track", "s.session_type"),
		sm.From("lap").As("l"),
		sm.InnerJoin("session").As("s").On(psql.Quote("s", "uid").EQ(psql.Quote("l", "session_uid"))),
		sm.Where(psql.Quote("l", "session_uid").EQ(psql.Arg(sessionUID(uid)))),
		sm.OrderBy(psql.Quote("l", "driver_index")).Asc(),
		sm.OrderBy(psql.Quote("l", "lap_num")).Asc(),
	)
	rows, err := bob.All(ctx, r.getExecutor(ctx), q, scan.StructMapper[lapRow]())
	if err != nil {
		return nil, err
	}
	ret := make([]model.CompletedLap, len(rows))
	for i := range rows {
		ret[i] = rows[i].toModel()
	}
	return ret, nil
}

// LoadClassification returns the final results of a session ordered by position.
func (r *Repository) LoadClassification(ctx context.Context, uid uint64) (
	[]model.ClassificationEntry, error,
) {
	cols := make([]any, 0, len(classificationColumns)+2)
	for _, c := range classificationColumns {
		if c == "run_id" {
			continue
		}
		cols = append(cols, psql.Quote("c", c))
	}
	cols = append(cols, psql.Quote("s", "track"), psql.Quote("s", "session_type"))
	q := psql.Select(
		sm.Columns(cols...),
		sm.From("classification").As("c"),
		sm.InnerJoin("session").As("s").On(psql.Quote("s", "uid").EQ(psql.Quote("c", "session_uid"))),
		sm.Where(psql.Quote("c", "session_uid").EQ(psql.Arg(sessionUID(uid)))),
		sm.OrderBy(psql.Quote("c", "position")).Asc(),
	)
	rows, err := bob.All(ctx, r.getExecutor(ctx), q, scan.StructMapper[classificationRow]())
	if err != nil {
		return nil, err
	}
	ret := make([]model.ClassificationEntry, len(rows))
	for i := range rows {
		ret[i] = rows[i].toModel()
	}
	return ret, nil
}

// DeleteSession removes a session with its laps and results, returns number
// of sessions deleted.
func (r *Repository) DeleteSession(ctx context.Context, uid uint64) (int, error) {
	q := psql.Delete(
		dm.From("session"),
		dm.Where(psql.Quote("uid").EQ(psql.Arg(sessionUID(uid)))),
	)
	res, err := bob.Exec(ctx, r.getExecutor(ctx), q)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *Repository) getExecutor(ctx context.Context) bob.Executor {
	if executor := bobCtx.FromContext(ctx); executor != nil {
		return executor
	}
	return r.conn
}

// session uids use the full uint64 range, stored as numeric(20)
func sessionUID(uid uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(uid), 0)
}

func fromSessionUID(d decimal.Decimal) uint64 {
	return d.BigInt().Uint64()
}

func sector(seconds float64) decimal.Decimal {
	return decimal.NewFromFloat(seconds).Round(3)
}

func (row *lapRow) toModel() model.CompletedLap {
	return model.CompletedLap{
		SessionUID:  fromSessionUID(row.SessionUID),
		SessionType: row.SessionType,
		Track:       row.Track,
		DriverIndex: row.DriverIndex,
		DriverName:  row.DriverName,
		TeamID:      row.TeamID,
		LapNum:      row.LapNum,
		LapTime:     uint32(row.LapTimeMS),
		Sectors: [3]float64{
			row.Sector1.InexactFloat64(),
			row.Sector2.InexactFloat64(),
			row.Sector3.InexactFloat64(),
		},
		Invalid:    row.Invalid,
		TyreVisual: row.TyreVisual,
		TyresAge:   row.TyresAge,
	}
}

func (row *classificationRow) toModel() model.ClassificationEntry {
	return model.ClassificationEntry{
		SessionUID:  fromSessionUID(row.SessionUID),
		SessionType: row.SessionType,
		Track:       row.Track,
		DriverIndex: row.DriverIndex,
		DriverName:  row.DriverName,
		TeamID:      row.TeamID,
		Result: model.Result{
			Position:      row.Position,
			NumLaps:       row.NumLaps,
			GridPosition:  row.GridPosition,
			Points:        row.Points,
			NumPitStops:   row.NumPitStops,
			ResultStatus:  row.ResultStatus,
			BestLapTime:   uint32(row.BestLapMS),
			TotalRaceTime: row.TotalRaceTime.InexactFloat64(),
			PenaltiesTime: row.PenaltiesTime,
			NumPenalties:  row.NumPenalties,
			NumStints:     row.NumStints,
		},
	}
}
