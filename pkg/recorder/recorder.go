// Package recorder stores received datagrams in a capture file.
package recorder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dbsDevelops/f1-24-setup-recommender/log"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/capture"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/wire"
)

// StopCommand ends a recording when read as a line from the console.
const StopCommand = "stop"

var ErrFileExists = errors.New("recorder: capture file exists")

// Source delivers datagrams, see listener.Listener.
type Source interface {
	Poll() ([]byte, bool, error)
}

// Summary describes a finished recording.
type Summary struct {
	ID           uuid.UUID
	Datagrams    int
	Dropped      int
	Counts       map[wire.Kind]int
	Unrecognized int
	Duration     time.Duration
}

// Recorder receives on the calling goroutine and hands the datagrams over
// a channel to a single writer goroutine.
type Recorder struct {
	id        uuid.UUID
	src       Source
	out       io.Writer
	queueSize int
	clock     func() time.Time
	l         *log.Logger
}

type Option func(*Recorder)

// WithQueueSize sets the number of datagrams buffered between receiver and
// writer. Datagrams are dropped if the writer falls behind.
func WithQueueSize(n int) Option {
	return func(r *Recorder) {
		r.queueSize = n
	}
}

func WithID(id uuid.UUID) Option {
	return func(r *Recorder) {
		r.id = id
	}
}

func WithClock(clock func() time.Time) Option {
	return func(r *Recorder) {
		r.clock = clock
	}
}

func WithLogger(l *log.Logger) Option {
	return func(r *Recorder) {
		r.l = l
	}
}

func NewRecorder(src Source, out io.Writer, opts ...Option) *Recorder {
	r := &Recorder{
		src:       src,
		out:       out,
		queueSize: 4096,
		clock:     time.Now,
		l:         log.Default().Named("recorder"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.id == uuid.Nil {
		r.id = uuid.New()
	}
	return r
}

func (r *Recorder) ID() uuid.UUID {
	return r.id
}

// Run records until ctx is done or the source fails. The summary is valid
// in both cases.
//
//nolint:funlen // by design
func (r *Recorder) Run(ctx context.Context) (Summary, error) {
	start := r.clock()
	w := capture.NewWriter(r.out)
	queue := make(chan []byte, r.queueSize)
	var (
		wg       sync.WaitGroup
		writeErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for data := range queue {
			if writeErr != nil {
				continue
			}
			if _, err := w.Write(data); err != nil {
				writeErr = err
				r.l.Error("write failed, dropping remaining datagrams", log.ErrorField(err))
			}
		}
		if writeErr == nil {
			writeErr = w.Flush()
		}
	}()

	r.l.Info("recording started", log.String("id", r.id.String()))
	sum := Summary{ID: r.id}
	var srcErr error
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		default:
		}
		data, ok, err := r.src.Poll()
		if err != nil {
			srcErr = err
			break loop
		}
		if !ok {
			continue
		}
		sum.Datagrams++
		select {
		case queue <- data:
		default:
			sum.Dropped++
		}
	}
	close(queue)
	wg.Wait()

	sum.Counts = w.Counts()
	sum.Unrecognized = w.Unrecognized()
	sum.Duration = r.clock().Sub(start)
	r.l.Info("recording finished",
		log.String("id", r.id.String()),
		log.Int("datagrams", sum.Datagrams),
		log.Int("dropped", sum.Dropped),
		log.Duration("duration", sum.Duration))
	return sum, errors.Join(srcErr, writeErr)
}

// WatchStop calls cancel when a line equal to StopCommand is read from in
// or in reaches EOF.
func WatchStop(ctx context.Context, in io.Reader, cancel context.CancelFunc) {
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			if ctx.Err() != nil {
				return
			}
			if strings.EqualFold(strings.TrimSpace(scanner.Text()), StopCommand) {
				cancel()
				return
			}
		}
		cancel()
	}()
}

// FileName returns the capture file name of a recording started at t.
func FileName(dir string, t time.Time, id uuid.UUID) string {
	return filepath.Join(dir,
		fmt.Sprintf("f1-24_%s_%s.cap", t.Format("2006-01-02_15-04-05"), id.String()[:8]))
}

// Create opens a new capture file. Existing files are only replaced if force is set.
func Create(path string, force bool) (*os.File, error) {
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if !force {
		flags |= os.O_EXCL
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("%w: %s", ErrFileExists, path)
	}
	return f, err
}
