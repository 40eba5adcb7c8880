// Package broadcast fans out the messages of a single source channel to a
// dynamic set of subscribers.
package broadcast

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/dbsDevelops/f1-24-setup-recommender/log"
)

type BroadcastServer[T any] interface {
	Subscribe() <-chan T
	CancelSubscription(<-chan T)
	Close()
}

type broadcastServer[T any] struct {
	name           string
	topic          string
	source         <-chan T
	listeners      []chan T
	addListener    chan chan T
	removeListener chan (<-chan T)
	ctx            context.Context
	cancel         context.CancelFunc
	done           chan struct{}
	sendTimeout    time.Duration
	bufferSize     int
	provider       metric.MeterProvider
	l              *log.Logger
	numRcv         atomic.Int64
	numSnd         atomic.Int64
	numSkip        atomic.Int64
	numListener    atomic.Int64
}

type Option[T any] func(*broadcastServer[T])

// WithTopic adds a topic attribute to the exported metrics.
func WithTopic[T any](topic string) Option[T] {
	return func(b *broadcastServer[T]) {
		b.topic = topic
	}
}

// WithSendTimeout sets how long a slow subscriber may block a message,
// the message is skipped for that subscriber afterwards. Default is 50ms.
func WithSendTimeout[T any](d time.Duration) Option[T] {
	return func(b *broadcastServer[T]) {
		b.sendTimeout = d
	}
}

// WithBufferSize sets the channel capacity of new subscriptions.
func WithBufferSize[T any](n int) Option[T] {
	return func(b *broadcastServer[T]) {
		b.bufferSize = n
	}
}

func WithMeterProvider[T any](p metric.MeterProvider) Option[T] {
	return func(b *broadcastServer[T]) {
		b.provider = p
	}
}

func WithLogger[T any](l *log.Logger) Option[T] {
	return func(b *broadcastServer[T]) {
		b.l = l
	}
}

// NewBroadcastServer starts serving source. The server stops on Close or
// when source is closed; all subscriber channels are closed then.
func NewBroadcastServer[T any](name string, source <-chan T, opts ...Option[T]) BroadcastServer[T] {
	ctx, cancel := context.WithCancel(context.Background())
	b := &broadcastServer[T]{
		name:           name,
		source:         source,
		addListener:    make(chan chan T),
		removeListener: make(chan (<-chan T)),
		ctx:            ctx,
		cancel:         cancel,
		done:           make(chan struct{}),
		sendTimeout:    50 * time.Millisecond,
		l:              log.Default().Named("broadcast"),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.provider == nil {
		b.provider = otel.GetMeterProvider()
	}
	b.setupMetrics()
	go b.serve()
	return b
}

// Subscribe returns a new channel receiving all following messages.
// On a closed server the returned channel is already closed.
func (b *broadcastServer[T]) Subscribe() <-chan T {
	ch := make(chan T, b.bufferSize)
	select {
	case b.addListener <- ch:
	case <-b.done:
		close(ch)
	}
	return ch
}

func (b *broadcastServer[T]) CancelSubscription(ch <-chan T) {
	select {
	case b.removeListener <- ch:
	case <-b.done:
	}
}

func (b *broadcastServer[T]) Close() {
	b.l.Info("closing broadcast server",
		log.String("name", b.name),
		log.Int64("rcv", b.numRcv.Load()),
		log.Int64("snd", b.numSnd.Load()),
		log.Int64("skip", b.numSkip.Load()))
	b.cancel()
	<-b.done
}

//nolint:lll,funlen // readability
func (b *broadcastServer[T]) setupMetrics() {
	meter := b.provider.Meter(fmt.Sprintf("f1sr.broadcast.%s", b.name))
	register := func(metricName, desc, unit string, valueProvider func() int64) {
		if _, err := meter.Int64ObservableGauge(
			metricName,
			metric.WithDescription(desc),
			metric.WithUnit(unit),
			metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
				o.Observe(valueProvider(),
					metric.WithAttributes(
						attribute.String("name", b.name),
						attribute.String("topic", b.topic),
					),
				)
				return nil
			})); err != nil {
			b.l.Error("failed to register metric",
				log.String("metric", metricName),
				log.ErrorField(err))
		}
	}
	type data struct {
		name  string
		desc  string
		unit  string
		value func() int64
	}
	for _, d := range []*data{
		{"f1sr.broadcast.rcv", "Number of received messages", "{count}", b.numRcv.Load},
		{"f1sr.broadcast.snd", "Number of sent messages", "{count}", b.numSnd.Load},
		{"f1sr.broadcast.skip", "Number of skipped messages", "{count}", b.numSkip.Load},
		{"f1sr.broadcast.listener", "Number of listeners", "{count}", b.numListener.Load},
	} {
		register(d.name, d.desc, d.unit, d.value)
	}
}

//nolint:cyclop // by design
func (b *broadcastServer[T]) serve() {
	defer func() {
		b.l.Debug("closing listeners", log.String("name", b.name), log.Int("len", len(b.listeners)))
		for _, listener := range b.listeners {
			close(listener)
		}
		b.listeners = nil
		b.numListener.Store(0)
		close(b.done)
	}()
	for {
		select {
		case <-b.ctx.Done():
			return
		case ch := <-b.addListener:
			b.listeners = append(b.listeners, ch)
			b.numListener.Store(int64(len(b.listeners)))
		case ch := <-b.removeListener:
			for i, listener := range b.listeners {
				if listener == ch {
					b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
					close(listener)
					break
				}
			}
			b.numListener.Store(int64(len(b.listeners)))
		case msg, ok := <-b.source:
			if !ok {
				b.l.Debug("source closed", log.String("name", b.name))
				return
			}
			b.numRcv.Add(1)
			b.send(msg)
		}
	}
}

func (b *broadcastServer[T]) send(msg T) {
	for _, listener := range b.listeners {
		select {
		case listener <- msg:
			b.numSnd.Add(1)
			continue
		default:
		}
		timer := time.NewTimer(b.sendTimeout)
		select {
		case listener <- msg:
			b.numSnd.Add(1)
		case <-timer.C:
			b.numSkip.Add(1)
		case <-b.ctx.Done():
		}
		timer.Stop()
	}
}
