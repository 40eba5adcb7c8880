package capture

import (
	"bufio"
	"io"

	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/wire"
)

// Writer appends datagrams in the framing read by Reader.
type Writer struct {
	w     *bufio.Writer
	count [wire.NumKinds]int
	other int
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write stores one datagram followed by the pad.
func (w *Writer) Write(datagram []byte) (int, error) {
	n, err := w.w.Write(datagram)
	if err != nil {
		return n, err
	}
	if _, err = w.w.Write(make([]byte, Pad)); err != nil {
		return n, err
	}
	if h, err := wire.DecodeHeader(datagram); err == nil && h.Kind().Valid() {
		w.count[h.Kind()]++
	} else {
		w.other++
	}
	return n, nil
}

func (w *Writer) Flush() error {
	return w.w.Flush()
}

// Counts returns the number of written datagrams per kind.
func (w *Writer) Counts() map[wire.Kind]int {
	ret := make(map[wire.Kind]int)
	for i, c := range w.count {
		if c > 0 {
			ret[wire.Kind(i)] = c
		}
	}
	return ret
}

// Unrecognized returns the number of written datagrams without a known kind.
func (w *Writer) Unrecognized() int {
	return w.other
}
