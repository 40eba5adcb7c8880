// Package publish sends snapshots and completed laps to NATS.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dbsDevelops/f1-24-setup-recommender/log"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/model"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/processing"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/wire"
)

const DefaultBucket = "f1sr"

type (
	// Conn is the part of *nats.Conn used by the publisher.
	Conn interface {
		Publish(subject string, data []byte) error
	}
	// KeyValue is the part of jetstream.KeyValue used to keep the latest snapshot.
	KeyValue interface {
		Put(ctx context.Context, key string, value []byte) (uint64, error)
	}
	Publisher struct {
		conn      Conn
		kv        KeyValue
		prefix    string
		published atomic.Int64
		failed    atomic.Int64
		l         *log.Logger
	}
	Option func(*Publisher)
)

var _ Conn = (*nats.Conn)(nil)

var eventNames = []struct {
	change processing.Change
	name   string
}{
	{processing.ChangeFormationLap, "formationLap"},
	{processing.ChangeRaceStart, "raceStart"},
	{processing.ChangeRetirement, "retirement"},
	{processing.ChangeGeometryBuilt, "geometry"},
	{processing.ChangeClassification, "classification"},
}

// WithPrefix sets the subject prefix, default is "f1sr".
func WithPrefix(prefix string) Option {
	return func(p *Publisher) {
		p.prefix = prefix
	}
}

// WithKeyValue stores every snapshot under session.<uid> in kv.
func WithKeyValue(kv KeyValue) Option {
	return func(p *Publisher) {
		p.kv = kv
	}
}

func WithLogger(l *log.Logger) Option {
	return func(p *Publisher) {
		p.l = l
	}
}

func NewPublisher(conn Conn, opts ...Option) *Publisher {
	p := &Publisher{
		conn:   conn,
		prefix: "f1sr",
		l:      log.Default().Named("publish"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetupKeyValue creates or updates the bucket holding the latest snapshots.
//
//nolint:whitespace // editor/linter issue
func SetupKeyValue(
	ctx context.Context,
	nc *nats.Conn,
	bucket string,
	ttl time.Duration,
) (jetstream.KeyValue, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, err
	}
	return js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket: bucket,
		TTL:    ttl,
	})
}

func (p *Publisher) SessionSubject(uid uint64) string {
	return fmt.Sprintf("%s.session.%d", p.prefix, uid)
}

func (p *Publisher) LapSubject(uid uint64) string {
	return fmt.Sprintf("%s.lap.%d", p.prefix, uid)
}

func (p *Publisher) EventSubject(uid uint64) string {
	return fmt.Sprintf("%s.event.%d", p.prefix, uid)
}

// Stats returns the number of published and failed messages.
func (p *Publisher) Stats() (published, failed int64) {
	return p.published.Load(), p.failed.Load()
}

func (p *Publisher) HandleSnapshot(ctx context.Context, s *model.Snapshot) {
	data, err := Marshal(s)
	if err != nil {
		p.l.Error("could not convert snapshot", log.ErrorField(err))
		return
	}
	p.publish(p.SessionSubject(s.Session.UID), data)
	if p.kv != nil {
		if _, err := p.kv.Put(ctx, fmt.Sprintf("session.%d", s.Session.UID), data); err != nil {
			p.l.Debug("could not store snapshot", log.ErrorField(err))
		}
	}
}

func (p *Publisher) HandlePacket(_ context.Context, pkt wire.Packet, r processing.Result) {
	uid := pkt.PacketHeader().SessionUID
	for i := range r.Laps {
		data, err := Marshal(&r.Laps[i])
		if err != nil {
			p.l.Error("could not convert lap", log.ErrorField(err))
			continue
		}
		p.publish(p.LapSubject(uid), data)
	}
	for _, e := range eventNames {
		if !r.Has(e.change) {
			continue
		}
		data, err := Marshal(map[string]any{
			"event":       e.name,
			"sessionTime": pkt.PacketHeader().SessionTime,
		})
		if err != nil {
			p.l.Error("could not convert event", log.ErrorField(err))
			continue
		}
		p.publish(p.EventSubject(uid), data)
	}
}

func (p *Publisher) publish(subject string, data []byte) {
	if err := p.conn.Publish(subject, data); err != nil {
		p.failed.Add(1)
		p.l.Debug("publish failed", log.String("subject", subject), log.ErrorField(err))
		return
	}
	p.published.Add(1)
}

// ToStruct converts v to a protobuf struct via its JSON representation.
func ToStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

// Marshal returns the binary protobuf encoding of ToStruct(v).
func Marshal(v any) ([]byte, error) {
	s, err := ToStruct(v)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}
