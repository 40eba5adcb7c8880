//nolint:funlen // ok for tests
package broadcast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func newTestServer(src chan int, opts ...Option[int]) BroadcastServer[int] {
	provider := sdkmetric.NewMeterProvider()
	return NewBroadcastServer("test", src, append(opts, WithMeterProvider[int](provider))...)
}

func receive(t *testing.T, ch <-chan int) int {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed")
		return v
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
	return 0
}

func TestBroadcastFanOut(t *testing.T) {
	src := make(chan int)
	b := newTestServer(src)
	defer b.Close()

	a := b.Subscribe()
	c := b.Subscribe()
	go func() { src <- 1 }()
	assert.Equal(t, 1, receive(t, a))
	assert.Equal(t, 1, receive(t, c))

	b.CancelSubscription(a)
	_, ok := <-a
	assert.False(t, ok, "cancelled subscription is closed")

	go func() { src <- 2 }()
	assert.Equal(t, 2, receive(t, c))
}

func TestBroadcastSlowListenerSkipped(t *testing.T) {
	src := make(chan int)
	b := newTestServer(src, WithSendTimeout[int](10*time.Millisecond))
	defer b.Close()

	slow := b.Subscribe()
	fast := b.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := range 3 {
			src <- i
		}
	}()
	for i := range 3 {
		assert.Equal(t, i, receive(t, fast))
	}
	<-done
	// src is unbuffered, the last send returns when serve picked it up
	time.Sleep(50 * time.Millisecond)
	select {
	case v := <-slow:
		t.Fatalf("unexpected message %d for slow listener", v)
	default:
	}
	srv := b.(*broadcastServer[int])
	assert.Equal(t, int64(3), srv.numRcv.Load())
	assert.Equal(t, int64(3), srv.numSkip.Load())
}

func TestBroadcastBuffered(t *testing.T) {
	src := make(chan int)
	b := newTestServer(src, WithBufferSize[int](2))
	defer b.Close()
	ch := b.Subscribe()
	src <- 1
	src <- 2
	assert.Equal(t, 1, receive(t, ch))
	assert.Equal(t, 2, receive(t, ch))
}

func TestBroadcastClose(t *testing.T) {
	src := make(chan int)
	b := newTestServer(src)
	ch := b.Subscribe()
	b.Close()
	_, ok := <-ch
	assert.False(t, ok)

	late := b.Subscribe()
	_, ok = <-late
	assert.False(t, ok, "subscribe after close returns a closed channel")
	b.CancelSubscription(late)
}

func TestBroadcastSourceClosed(t *testing.T) {
	src := make(chan int)
	b := newTestServer(src)
	ch := b.Subscribe()
	close(src)
	_, ok := <-ch
	assert.False(t, ok)
	b.Close()
}
