package wire

import (
	"encoding/binary"
	"fmt"
)

// Decoder turns raw datagrams into typed packets.
type Decoder struct {
	registry *Registry
}

type DecoderOption func(*Decoder)

func WithRegistry(r *Registry) DecoderOption {
	return func(d *Decoder) {
		d.registry = r
	}
}

func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{}
	for _, opt := range opts {
		opt(d)
	}
	if d.registry == nil {
		d.registry = DefaultRegistry()
	}
	return d
}

func (d *Decoder) Registry() *Registry {
	return d.registry
}

// Decode reads the header at the start of buf, selects the schema and decodes
// the record. Bytes beyond the schema size are ignored.
// Errors are *UnknownKindError, *TruncatedError or wrap ErrMalformed.
func (d *Decoder) Decode(buf []byte) (Packet, error) {
	if len(buf) < HeaderSize {
		return nil, &TruncatedError{Need: HeaderSize, Got: len(buf)}
	}
	format, kind := peek(buf)
	s, ok := d.registry.Lookup(format, kind)
	if !ok {
		return nil, &UnknownKindError{Format: format, Kind: kind}
	}
	if len(buf) < s.Size {
		return nil, &TruncatedError{Kind: kind, Need: s.Size, Got: len(buf)}
	}
	p := s.New()
	if _, err := binary.Decode(buf[:s.Size], binary.LittleEndian, p); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, kind, err)
	}
	return p, nil
}

// PacketSize returns the size of the packet starting at buf or 0 if the
// schema is unknown. buf has to contain at least the header.
func (d *Decoder) PacketSize(buf []byte) (Kind, int) {
	if len(buf) < HeaderSize {
		return 0, 0
	}
	format, kind := peek(buf)
	return kind, d.registry.Size(format, kind)
}

// Decode uses the default registry.
func Decode(buf []byte) (Packet, error) {
	return NewDecoder().Decode(buf)
}

// Encode writes the packed representation of p.
// It is the inverse of Decode and used to build datagrams for replays and tests.
func Encode(p Packet) ([]byte, error) {
	return binary.Append(nil, binary.LittleEndian, p)
}
