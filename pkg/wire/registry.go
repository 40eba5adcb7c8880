package wire

import (
	"encoding/binary"
	"fmt"
	"sync"
)

// Schema describes the fixed binary layout of one packet kind for one packet format.
type Schema struct {
	Format uint16
	Kind   Kind
	Name   string
	Size   int           // packed size including the header
	New    func() Packet // returns a pointer to a zero record
}

type schemaKey struct {
	format uint16
	kind   Kind
}

// Registry maps (packet format, kind) to a schema.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	schemas map[schemaKey]Schema
}

func NewRegistry(schemas ...Schema) (*Registry, error) {
	r := &Registry{schemas: make(map[schemaKey]Schema)}
	for i := range schemas {
		if err := r.Register(schemas[i]); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds or replaces a schema. The size is derived from the record
// type when not set and must match the packed record size otherwise.
func (r *Registry) Register(s Schema) error {
	if s.New == nil {
		return fmt.Errorf("wire: schema %s has no constructor", s.Name)
	}
	size := binary.Size(s.New())
	if size < HeaderSize {
		return fmt.Errorf("wire: schema %s has no fixed layout", s.Name)
	}
	if s.Size == 0 {
		s.Size = size
	} else if s.Size != size {
		return fmt.Errorf("wire: schema %s declares %d bytes, layout has %d", s.Name, s.Size, size)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemas[schemaKey{s.Format, s.Kind}] = s
	return nil
}

func (r *Registry) Lookup(format uint16, kind Kind) (Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[schemaKey{format, kind}]
	return s, ok
}

// Size returns the packed size for kind, 0 if unknown.
func (r *Registry) Size(format uint16, kind Kind) int {
	s, ok := r.Lookup(format, kind)
	if !ok {
		return 0
	}
	return s.Size
}

func (r *Registry) Schemas() []Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ret := make([]Schema, 0, len(r.schemas))
	for _, s := range r.schemas {
		ret = append(ret, s)
	}
	return ret
}

// F124Schemas lists the layouts of the 2024 game.
func F124Schemas() []Schema {
	mk := func(k Kind, size int, fn func() Packet) Schema {
		return Schema{Format: FormatF124, Kind: k, Name: k.String(), Size: size, New: fn}
	}
	return []Schema{
		mk(KindMotion, 1349, func() Packet { return &MotionPacket{} }),
		mk(KindSession, 753, func() Packet { return &SessionPacket{} }),
		mk(KindLapData, 1285, func() Packet { return &LapDataPacket{} }),
		mk(KindEvent, 45, func() Packet { return &EventPacket{} }),
		mk(KindParticipants, 1350, func() Packet { return &ParticipantsPacket{} }),
		mk(KindCarSetup, 1133, func() Packet { return &CarSetupPacket{} }),
		mk(KindCarTelemetry, 1352, func() Packet { return &CarTelemetryPacket{} }),
		mk(KindCarStatus, 1239, func() Packet { return &CarStatusPacket{} }),
		mk(KindFinalClassification, 1020, func() Packet { return &FinalClassificationPacket{} }),
		mk(KindLobbyInfo, 1306, func() Packet { return &LobbyInfoPacket{} }),
		mk(KindCarDamage, 953, func() Packet { return &CarDamagePacket{} }),
		mk(KindSessionHistory, 1460, func() Packet { return &SessionHistoryPacket{} }),
		mk(KindTyreSets, 231, func() Packet { return &TyreSetsPacket{} }),
		mk(KindMotionEx, 237, func() Packet { return &MotionExPacket{} }),
		mk(KindTimeTrial, 101, func() Packet { return &TimeTrialPacket{} }),
	}
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// DefaultRegistry holds the schemas of all supported game versions.
func DefaultRegistry() *Registry {
	defaultOnce.Do(func() {
		r, err := NewRegistry(F124Schemas()...)
		if err != nil {
			panic(err) // layouts are static, this is a programming error
		}
		defaultRegistry = r
	})
	return defaultRegistry
}
