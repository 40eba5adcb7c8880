// Package telemetry counts the received packets per kind.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/dbsDevelops/f1-24-setup-recommender/log"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/wire"
)

// Counts holds one value per packet kind.
type Counts [wire.NumKinds]uint32

// Sum returns the number of packets of all kinds.
func (c Counts) Sum() uint32 {
	var ret uint32
	for _, v := range c {
		ret += v
	}
	return ret
}

// Reception counts packets per kind in fixed windows.
// Count is called by the ingest loop, the gauges are read by the metric
// exporter from another goroutine.
type Reception struct {
	mu          sync.Mutex
	window      time.Duration
	windowStart time.Time
	current     Counts
	last        Counts
	totals      [wire.NumKinds]int64
	unknown     int64
	provider    metric.MeterProvider
	l           *log.Logger
}

type Option func(*Reception)

// WithWindow sets the length of a counting window, default is one second.
func WithWindow(d time.Duration) Option {
	return func(r *Reception) {
		r.window = d
	}
}

func WithMeterProvider(p metric.MeterProvider) Option {
	return func(r *Reception) {
		r.provider = p
	}
}

func WithLogger(l *log.Logger) Option {
	return func(r *Reception) {
		r.l = l
	}
}

func NewReception(opts ...Option) *Reception {
	r := &Reception{
		window: time.Second,
		l:      log.Default().Named("reception"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.provider == nil {
		r.provider = otel.GetMeterProvider()
	}
	r.setupMetrics()
	return r
}

// Count registers a received packet of kind k.
func (r *Reception) Count(k wire.Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !k.Valid() {
		r.unknown++
		return
	}
	r.current[k]++
	r.totals[k]++
}

// Tick closes the current window if it is older than the window length.
// It reports whether a new window was started. The first call only starts
// the first window.
func (r *Reception) Tick(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.windowStart.IsZero() {
		r.windowStart = now
		return false
	}
	if now.Sub(r.windowStart) < r.window {
		return false
	}
	r.last = r.current
	r.current = Counts{}
	r.windowStart = now
	return true
}

// Last returns the counts of the last closed window.
func (r *Reception) Last() Counts {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Unknown returns the number of packets with a kind not known to this version.
func (r *Reception) Unknown() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unknown
}

//nolint:lll,funlen // readability
func (r *Reception) setupMetrics() {
	meter := r.provider.Meter("f1sr.reception")
	_, err := meter.Int64ObservableGauge(
		"f1sr.reception.rate",
		metric.WithDescription("Packets received during the last window"),
		metric.WithUnit("{packet}"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			last := r.Last()
			for k, v := range last {
				o.Observe(int64(v), metric.WithAttributes(attribute.String("kind", wire.Kind(k).String())))
			}
			return nil
		}))
	if err != nil {
		r.l.Error("failed to register metric", log.String("metric", "f1sr.reception.rate"), log.ErrorField(err))
	}
	_, err = meter.Int64ObservableCounter(
		"f1sr.reception.total",
		metric.WithDescription("Packets received since start"),
		metric.WithUnit("{packet}"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			r.mu.Lock()
			totals, unknown := r.totals, r.unknown
			r.mu.Unlock()
			for k, v := range totals {
				o.Observe(v, metric.WithAttributes(attribute.String("kind", wire.Kind(k).String())))
			}
			o.Observe(unknown, metric.WithAttributes(attribute.String("kind", "unknown")))
			return nil
		}))
	if err != nil {
		r.l.Error("failed to register metric", log.String("metric", "f1sr.reception.total"), log.ErrorField(err))
	}
}
