package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dbsDevelops/f1-24-setup-recommender/log"
)

type (
	myQueryTracer struct {
		l     *log.Logger
		level log.Level
	}
	traceStartKey struct{}
)

var _ pgx.QueryTracer = (*myQueryTracer)(nil)

// NewMyTracer logs every statement with its arguments and duration at level.
func NewMyTracer(l *log.Logger, level log.Level) pgx.QueryTracer {
	return &myQueryTracer{l: l, level: level}
}

func (t *myQueryTracer) TraceQueryStart(
	ctx context.Context,
	_ *pgx.Conn,
	data pgx.TraceQueryStartData,
) context.Context {
	if !t.l.Enabled(t.level) {
		return ctx
	}
	t.l.Zap().Log(t.level, "Executing",
		log.String("sql", data.SQL),
		log.Any("args", data.Args))
	return context.WithValue(ctx, traceStartKey{}, time.Now())
}

//nolint:whitespace // can't make the linters happy
func (t *myQueryTracer) TraceQueryEnd(
	ctx context.Context,
	_ *pgx.Conn,
	data pgx.TraceQueryEndData,
) {
	start, ok := ctx.Value(traceStartKey{}).(time.Time)
	if !ok {
		return
	}
	fields := []log.Field{
		log.String("tag", data.CommandTag.String()),
		log.Since(start),
	}
	if data.Err != nil {
		fields = append(fields, log.ErrorField(data.Err))
	}
	t.l.Zap().Log(t.level, "Executed", fields...)
}
