// Package capture reads and writes capture files: back to back packets
// separated by a small pad. It also extracts datagrams from pcap files.
package capture

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/dbsDevelops/f1-24-setup-recommender/log"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/wire"
)

// Pad is the number of bytes between the end of a record and the next header.
const Pad = 3

// Magic starts every header written by the 2024 game
// (packet format 2024 little endian followed by game year 24).
var Magic = []byte{0xe8, 0x07, 0x18}

// ErrFrameDesync is reported when the bytes at the current offset do not
// start with Magic and the reader had to search for the next occurrence.
var ErrFrameDesync = errors.New("capture: frame desync")

// FrameError is a recoverable problem. The reader has already moved past it,
// calling Next again continues with the following record.
type FrameError struct {
	Offset  int
	Skipped int
	Err     error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("capture: offset %d (skipped %d bytes): %v", e.Offset, e.Skipped, e.Err)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// Record is a decoded packet together with its position in the capture.
type Record struct {
	Offset int
	Raw    []byte
	Packet wire.Packet
}

func (r Record) Header() *wire.Header {
	return r.Packet.PacketHeader()
}

// Stats counts what the reader had to skip.
type Stats struct {
	Records      int
	Desyncs      int
	SkippedBytes int
	UnknownKinds int
	// Truncated is set when the stream ended inside a header or packet.
	Truncated bool
}

type Reader struct {
	data    []byte
	offset  int
	start   int
	decoder *wire.Decoder
	stats   Stats
	l       *log.Logger
}

type ReaderOption func(*Reader)

// WithStartOffset sets the offset where reading starts (and restarts after Reset).
func WithStartOffset(n int) ReaderOption {
	return func(r *Reader) {
		r.start = n
	}
}

func WithDecoder(d *wire.Decoder) ReaderOption {
	return func(r *Reader) {
		r.decoder = d
	}
}

func WithLogger(l *log.Logger) ReaderOption {
	return func(r *Reader) {
		r.l = l
	}
}

func NewReader(data []byte, opts ...ReaderOption) *Reader {
	r := &Reader{
		data: data,
		l:    log.Default().Named("capture"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.decoder == nil {
		r.decoder = wire.NewDecoder()
	}
	r.Reset()
	return r
}

// ReadAll reads the whole capture from src before framing it.
func ReadAll(src io.Reader, opts ...ReaderOption) (*Reader, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	return NewReader(data, opts...), nil
}

// Reset restarts reading at the configured start offset and clears the stats.
func (r *Reader) Reset() {
	r.offset = max(0, min(r.start, len(r.data)))
	r.stats = Stats{}
}

func (r *Reader) Offset() int {
	return r.offset
}

func (r *Reader) Stats() Stats {
	return r.stats
}

// Next returns the next record. At the end of the stream io.EOF is returned.
// A *FrameError is returned for desyncs and unknown kinds, the reader is
// positioned after the problem in that case.
//
// Resynchronization searches for the next occurrence of Magic. This is a
// heuristic: payload bytes that happen to contain the magic produce a false
// record start.
func (r *Reader) Next() (Record, error) {
	if r.offset >= len(r.data) {
		return Record{}, io.EOF
	}
	if !bytes.HasPrefix(r.data[r.offset:], Magic) {
		at := r.offset
		idx := bytes.Index(r.data[r.offset:], Magic)
		if idx < 0 {
			r.l.Debug("no header found until end of stream", log.Int("offset", at))
			r.stats.SkippedBytes += len(r.data) - at
			r.offset = len(r.data)
			return Record{}, io.EOF
		}
		r.stats.Desyncs++
		r.stats.SkippedBytes += idx
		r.offset += idx
		return Record{}, &FrameError{Offset: at, Skipped: idx, Err: ErrFrameDesync}
	}
	if r.offset+wire.HeaderSize > len(r.data) {
		return r.truncated()
	}
	kind, size := r.decoder.PacketSize(r.data[r.offset:])
	if size == 0 {
		at := r.offset
		h, _ := wire.DecodeHeader(r.data[at:])
		r.stats.UnknownKinds++
		r.stats.SkippedBytes += wire.HeaderSize + Pad
		r.offset += wire.HeaderSize + Pad
		return Record{}, &FrameError{
			Offset:  at,
			Skipped: wire.HeaderSize + Pad,
			Err:     &wire.UnknownKindError{Format: h.PacketFormat, Kind: kind},
		}
	}
	if r.offset+size > len(r.data) {
		return r.truncated()
	}
	raw := r.data[r.offset : r.offset+size]
	p, err := r.decoder.Decode(raw)
	if err != nil {
		at := r.offset
		r.offset += wire.HeaderSize + Pad
		return Record{}, &FrameError{Offset: at, Skipped: wire.HeaderSize + Pad, Err: err}
	}
	rec := Record{Offset: r.offset, Raw: raw, Packet: p}
	r.stats.Records++
	r.offset += size + Pad
	return rec, nil
}

func (r *Reader) truncated() (Record, error) {
	r.l.Debug("stream ends with incomplete packet",
		log.Int("offset", r.offset), log.Int("remaining", len(r.data)-r.offset))
	r.stats.Truncated = true
	r.stats.SkippedBytes += len(r.data) - r.offset
	r.offset = len(r.data)
	return Record{}, io.EOF
}

// All yields the remaining records and frame errors. The sequence ends at io.EOF.
func (r *Reader) All() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for {
			rec, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(rec, err) {
				return
			}
		}
	}
}
