//nolint:funlen // ok for tests
package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/wire"
	"github.com/dbsDevelops/f1-24-setup-recommender/testsupport/basedata"
)

func TestReceptionWindows(t *testing.T) {
	r := NewReception()
	start := basedata.TestTime()
	assert.False(t, r.Tick(start), "first tick starts the window")

	r.Count(wire.KindMotion)
	r.Count(wire.KindMotion)
	r.Count(wire.KindLapData)
	r.Count(wire.Kind(30))
	assert.Equal(t, Counts{}, r.Last(), "window not closed yet")

	assert.False(t, r.Tick(start.Add(500*time.Millisecond)))
	assert.True(t, r.Tick(start.Add(time.Second)))
	last := r.Last()
	assert.Equal(t, uint32(2), last[wire.KindMotion])
	assert.Equal(t, uint32(1), last[wire.KindLapData])
	assert.Equal(t, uint32(3), last.Sum())
	assert.Equal(t, int64(1), r.Unknown())

	// next window starts from zero
	r.Count(wire.KindSession)
	assert.True(t, r.Tick(start.Add(2*time.Second)))
	last = r.Last()
	assert.Equal(t, uint32(0), last[wire.KindMotion])
	assert.Equal(t, uint32(1), last[wire.KindSession])

	assert.True(t, r.Tick(start.Add(3*time.Second)))
	assert.Equal(t, Counts{}, r.Last())
}

func TestReceptionCustomWindow(t *testing.T) {
	r := NewReception(WithWindow(100 * time.Millisecond))
	start := basedata.TestTime()
	r.Tick(start)
	r.Count(wire.KindEvent)
	assert.True(t, r.Tick(start.Add(100*time.Millisecond)))
	assert.Equal(t, uint32(1), r.Last()[wire.KindEvent])
}

func TestReceptionMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	r := NewReception(WithMeterProvider(provider))
	start := basedata.TestTime()
	r.Tick(start)
	r.Count(wire.KindCarTelemetry)
	r.Count(wire.KindCarTelemetry)
	r.Tick(start.Add(time.Second))
	r.Count(wire.KindCarTelemetry)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	values := map[string]int64{}
	for _, m := range rm.ScopeMetrics[0].Metrics {
		switch data := m.Data.(type) {
		case metricdata.Gauge[int64]:
			for _, dp := range data.DataPoints {
				if v, ok := dp.Attributes.Value(attribute.Key("kind")); ok && v.AsString() == "CarTelemetry" {
					values[m.Name] = dp.Value
				}
			}
		case metricdata.Sum[int64]:
			for _, dp := range data.DataPoints {
				if v, ok := dp.Attributes.Value(attribute.Key("kind")); ok && v.AsString() == "CarTelemetry" {
					values[m.Name] = dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(2), values["f1sr.reception.rate"])
	assert.Equal(t, int64(3), values["f1sr.reception.total"])
}
