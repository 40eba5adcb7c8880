// Package track derives the display geometry of a circuit from its reference line.
package track

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/names"
)

// ErrGeometryUnavailable is returned when the reference line of a track cannot be read.
var ErrGeometryUnavailable = errors.New("track: geometry unavailable")

const (
	headerLines = 2
	fieldCount  = 6
)

// RefPoint is a point of the reference line, already scaled for display.
type RefPoint struct {
	Distance float64 // meters from the start line
	Pos      r2.Vec
}

// ReferenceLine is the scaled racing line of a track.
type ReferenceLine struct {
	Track  names.Track
	Points []RefPoint
}

// FileName returns the file name of the reference line for a track name.
func FileName(trackName string) string {
	return trackName + "_2020_racingline.txt"
}

// Scale maps raw game coordinates into display coordinates of the track.
func Scale(t names.Track, a, b float64) r2.Vec {
	return r2.Add(r2.Vec{X: a / t.Divisor, Y: b / t.Divisor}, r2.Vec{X: t.OffsetX, Y: t.OffsetZ})
}

// Project returns the display position of a car at world position x/z.
func Project(t names.Track, worldX, worldZ float64) r2.Vec {
	return Scale(t, worldX, worldZ)
}

// ParseReferenceLine reads the reference line format: two header lines followed
// by rows "distance,z,x,y,_,_". The display point of a row is (z, x) scaled by t.
func ParseReferenceLine(r io.Reader, t names.Track) (*ReferenceLine, error) {
	if t.Divisor == 0 {
		return nil, fmt.Errorf("%w: track %d has no divisor", ErrGeometryUnavailable, t.ID)
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	ret := &ReferenceLine{Track: t}
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrGeometryUnavailable, err)
		}
		if line <= headerLines {
			continue
		}
		if len(rec) != fieldCount {
			return nil, fmt.Errorf("%w: line %d has %d fields",
				ErrGeometryUnavailable, line, len(rec))
		}
		var v [3]float64
		for i := range v {
			if v[i], err = strconv.ParseFloat(rec[i], 64); err != nil {
				return nil, fmt.Errorf("%w: line %d: %w", ErrGeometryUnavailable, line, err)
			}
		}
		ret.Points = append(ret.Points, RefPoint{Distance: v[0], Pos: Scale(t, v[1], v[2])})
	}
	if len(ret.Points) == 0 {
		return nil, fmt.Errorf("%w: no points for %s", ErrGeometryUnavailable, t.Name)
	}
	return ret, nil
}

// Bounds returns the box containing all points of the line.
func (r *ReferenceLine) Bounds() r2.Box {
	if len(r.Points) == 0 {
		return r2.Box{}
	}
	b := r2.Box{Min: r.Points[0].Pos, Max: r.Points[0].Pos}
	for _, p := range r.Points[1:] {
		b.Min.X = min(b.Min.X, p.Pos.X)
		b.Min.Y = min(b.Min.Y, p.Pos.Y)
		b.Max.X = max(b.Max.X, p.Pos.X)
		b.Max.Y = max(b.Max.Y, p.Pos.Y)
	}
	return b
}
