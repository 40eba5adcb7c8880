package track

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/dbsDevelops/f1-24-setup-recommender/log"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/names"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/utils/cache"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/utils/cache/loadercache"
)

// Loader reads reference lines from a directory and keeps them cached per track id.
type Loader struct {
	fsys       fs.FS
	expiration time.Duration
	cache      cache.Cache[int, ReferenceLine]
	l          *log.Logger
}

type LoaderOption func(*Loader)

// WithDir reads the reference lines from dir.
func WithDir(dir string) LoaderOption {
	return func(l *Loader) {
		l.fsys = os.DirFS(dir)
	}
}

// WithFS reads the reference lines from fsys, used by tests and embedded data.
func WithFS(fsys fs.FS) LoaderOption {
	return func(l *Loader) {
		l.fsys = fsys
	}
}

func WithExpiration(d time.Duration) LoaderOption {
	return func(l *Loader) {
		l.expiration = d
	}
}

func WithLogger(logger *log.Logger) LoaderOption {
	return func(l *Loader) {
		l.l = logger
	}
}

func NewLoader(opts ...LoaderOption) *Loader {
	ret := &Loader{
		fsys:       os.DirFS("tracks"),
		expiration: time.Hour,
		l:          log.Default().Named("track"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.cache = loadercache.New[int, ReferenceLine](
		loadercache.WithLoader(ret.read),
		loadercache.WithExpiration[int, ReferenceLine](ret.expiration),
		loadercache.WithLogger[int, ReferenceLine](ret.l.Named("cache")),
	)
	return ret
}

// Load returns the reference line of the track with the wire id trackID.
// Errors wrap ErrGeometryUnavailable.
func (l *Loader) Load(ctx context.Context, trackID int) (*ReferenceLine, error) {
	return l.cache.Get(ctx, trackID)
}

// Invalidate drops the cached reference line, the next Load reads the file again.
func (l *Loader) Invalidate(ctx context.Context, trackID int) {
	l.cache.Invalidate(ctx, trackID)
}

func (l *Loader) read(ctx context.Context, trackID int) (*ReferenceLine, error) {
	t, ok := names.TrackByID(trackID)
	if !ok {
		return nil, fmt.Errorf("%w: unknown track id %d", ErrGeometryUnavailable, trackID)
	}
	f, err := l.fsys.Open(FileName(t.Name))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeometryUnavailable, err)
	}
	defer f.Close()
	ref, err := ParseReferenceLine(f, t)
	if err != nil {
		return nil, err
	}
	l.l.Debug("reference line loaded",
		log.String("track", t.Name), log.Int("points", len(ref.Points)))
	return ref, nil
}
