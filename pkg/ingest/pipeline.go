// Package ingest runs the decode and aggregate loop.
package ingest

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/dbsDevelops/f1-24-setup-recommender/log"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/capture"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/model"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/processing"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/telemetry"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/wire"
)

// Source delivers datagrams. Poll returns false if no datagram is ready.
type Source interface {
	Poll() ([]byte, bool, error)
}

// Sink receives the results of the loop. Implementations must not block,
// they are called from the loop goroutine. Packets and snapshots are shared
// by all sinks and must not be modified.
type Sink interface {
	HandlePacket(ctx context.Context, p wire.Packet, r processing.Result)
	HandleSnapshot(ctx context.Context, s *model.Snapshot)
}

// SinkFuncs adapts functions to a Sink, nil functions are skipped.
type SinkFuncs struct {
	Packet   func(ctx context.Context, p wire.Packet, r processing.Result)
	Snapshot func(ctx context.Context, s *model.Snapshot)
}

func (f SinkFuncs) HandlePacket(ctx context.Context, p wire.Packet, r processing.Result) {
	if f.Packet != nil {
		f.Packet(ctx, p, r)
	}
}

func (f SinkFuncs) HandleSnapshot(ctx context.Context, s *model.Snapshot) {
	if f.Snapshot != nil {
		f.Snapshot(ctx, s)
	}
}

// Stats counts the datagrams seen by the pipeline.
type Stats struct {
	Datagrams int
	Decoded   int
	Unknown   int
	Truncated int
	Malformed int
}

// Pipeline owns the engine. All packets are decoded and applied by the
// goroutine calling Run or ReplayCapture.
type Pipeline struct {
	source           Source
	decoder          *wire.Decoder
	engine           *processing.Engine
	reception        *telemetry.Reception
	sinks            []Sink
	snapshotInterval time.Duration
	nextSnapshot     time.Time
	clock            func() time.Time
	stats            Stats
	l                *log.Logger
}

type Option func(*Pipeline)

func WithSource(s Source) Option {
	return func(p *Pipeline) {
		p.source = s
	}
}

func WithDecoder(d *wire.Decoder) Option {
	return func(p *Pipeline) {
		p.decoder = d
	}
}

func WithEngine(e *processing.Engine) Option {
	return func(p *Pipeline) {
		p.engine = e
	}
}

func WithReception(r *telemetry.Reception) Option {
	return func(p *Pipeline) {
		p.reception = r
	}
}

// WithSinks adds consumers of packets and snapshots.
func WithSinks(sinks ...Sink) Option {
	return func(p *Pipeline) {
		p.sinks = append(p.sinks, sinks...)
	}
}

func WithSnapshotInterval(d time.Duration) Option {
	return func(p *Pipeline) {
		p.snapshotInterval = d
	}
}

func WithClock(clock func() time.Time) Option {
	return func(p *Pipeline) {
		p.clock = clock
	}
}

func WithLogger(l *log.Logger) Option {
	return func(p *Pipeline) {
		p.l = l
	}
}

func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		snapshotInterval: time.Second,
		clock:            time.Now,
		l:                log.Default().Named("ingest"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.decoder == nil {
		p.decoder = wire.NewDecoder()
	}
	if p.engine == nil {
		p.engine = processing.NewEngine(processing.WithClock(p.clock))
	}
	if p.reception == nil {
		p.reception = telemetry.NewReception()
	}
	return p
}

func (p *Pipeline) Engine() *processing.Engine {
	return p.engine
}

func (p *Pipeline) Stats() Stats {
	return p.stats
}

// Run polls the source until ctx is done or the source fails.
// Decode errors are counted and skipped, source errors end the loop.
func (p *Pipeline) Run(ctx context.Context) error {
	if p.source == nil {
		return errors.New("ingest: no source")
	}
	p.l.Info("pipeline started")
	defer func() {
		p.l.Info("pipeline stopped",
			log.Int("datagrams", p.stats.Datagrams),
			log.Int("unknown", p.stats.Unknown),
			log.Int("truncated", p.stats.Truncated))
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		data, ok, err := p.source.Poll()
		if err != nil {
			return err
		}
		if ok {
			p.HandleDatagram(ctx, data)
		}
		p.tick(ctx)
	}
}

// HandleDatagram decodes and applies a single datagram.
func (p *Pipeline) HandleDatagram(ctx context.Context, data []byte) {
	p.stats.Datagrams++
	pkt, err := p.decoder.Decode(data)
	if err != nil {
		p.countError(err)
		return
	}
	p.apply(ctx, pkt)
}

// ReplayCapture applies all records of a capture. Damaged regions are
// skipped by the reader. A final snapshot is emitted at the end.
func (p *Pipeline) ReplayCapture(ctx context.Context, r *capture.Reader) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		p.stats.Datagrams++
		if err != nil {
			p.countError(err)
			continue
		}
		p.apply(ctx, rec.Packet)
		p.tick(ctx)
	}
	p.emitSnapshot(ctx)
	st := r.Stats()
	p.l.Info("capture replayed",
		log.Int("records", st.Records),
		log.Int("desyncs", st.Desyncs),
		log.Int("skipped", st.SkippedBytes))
	return nil
}

// ReplayPcap applies the UDP payloads sent to port (0: all ports) from a pcap
// file. A final snapshot is emitted at the end.
func (p *Pipeline) ReplayPcap(ctx context.Context, r io.Reader, port uint16) error {
	n, err := capture.ReadPcap(ctx, r, port, func(_ time.Time, payload []byte) error {
		p.HandleDatagram(ctx, payload)
		p.tick(ctx)
		return nil
	})
	p.emitSnapshot(ctx)
	p.l.Info("pcap replayed", log.Int("datagrams", n))
	return err
}

func (p *Pipeline) apply(ctx context.Context, pkt wire.Packet) {
	p.stats.Decoded++
	p.reception.Count(pkt.PacketHeader().Kind())
	res := p.engine.Apply(ctx, pkt)
	for _, s := range p.sinks {
		s.HandlePacket(ctx, pkt, res)
	}
}

func (p *Pipeline) countError(err error) {
	var unknown *wire.UnknownKindError
	switch {
	case errors.As(err, &unknown):
		p.stats.Unknown++
		p.reception.Count(unknown.Kind)
	case errors.Is(err, wire.ErrTruncated):
		p.stats.Truncated++
	default:
		p.stats.Malformed++
	}
	p.l.Debug("datagram skipped", log.ErrorField(err))
}

func (p *Pipeline) tick(ctx context.Context) {
	now := p.clock()
	p.reception.Tick(now)
	if now.Before(p.nextSnapshot) {
		return
	}
	p.nextSnapshot = now.Add(p.snapshotInterval)
	p.emitSnapshot(ctx)
}

// Snapshot returns the current state together with the last reception window.
func (p *Pipeline) Snapshot() *model.Snapshot {
	state := p.engine.Snapshot()
	last := p.reception.Last()
	reception := make(map[string]uint32, len(last))
	for k, v := range last {
		reception[wire.Kind(k).String()] = v
	}
	return &model.Snapshot{
		Timestamp: p.clock(),
		Session:   state.Session,
		Drivers:   state.Drivers,
		Reception: reception,
	}
}

func (p *Pipeline) emitSnapshot(ctx context.Context) {
	if len(p.sinks) == 0 {
		return
	}
	snap := p.Snapshot()
	for _, s := range p.sinks {
		s.HandleSnapshot(ctx, snap)
	}
}
