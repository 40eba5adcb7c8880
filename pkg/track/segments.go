package track

import (
	"context"
	"fmt"

	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/model"
)

// BuildSegments splits the reference line into polylines at the marshal zone starts.
// zones are expected as stored in the session, with the first zone shifted by
// one lap. The part of the line in the last zone and the part in the first zone
// are joined into the first segment, it closes the lap.
func BuildSegments(
	ref *ReferenceLine, zones []model.MarshalZone, numZones, trackLength int,
) ([]model.Segment, error) {
	if ref == nil || len(ref.Points) == 0 {
		return nil, fmt.Errorf("%w: empty reference line", ErrGeometryUnavailable)
	}
	if numZones <= 0 || len(zones) == 0 {
		return nil, fmt.Errorf("%w: no marshal zones", ErrGeometryUnavailable)
	}
	if trackLength <= 0 {
		return nil, fmt.Errorf("%w: unknown track length", ErrGeometryUnavailable)
	}

	var first, last, cur model.Segment
	var ret []model.Segment
	zone := 1
	for _, p := range ref.Points {
		pt := model.Point{X: p.Pos.X, Y: p.Pos.Y}
		switch zone {
		case 1:
			first = append(first, pt)
		case numZones:
			last = append(last, pt)
		default:
			cur = append(cur, pt)
		}
		if zone != numZones && zone < len(zones) &&
			p.Distance/float64(trackLength) > zones[zone].Start {
			if zone != 1 {
				ret = append(ret, cur)
				cur = nil
			}
			zone++
		}
	}
	closing := append(last, first...)
	return append([]model.Segment{closing}, ret...), nil
}

// Builder derives the segments of the current session from the loaded reference lines.
type Builder struct {
	loader *Loader
}

func NewBuilder(loader *Loader) *Builder {
	return &Builder{loader: loader}
}

// Segments loads the reference line of the session track and splits it.
func (b *Builder) Segments(ctx context.Context, s *model.Session) ([]model.Segment, error) {
	ref, err := b.loader.Load(ctx, s.Track)
	if err != nil {
		return nil, err
	}
	return BuildSegments(ref, s.MarshalZones, s.NumMarshalZones, s.TrackLength)
}
