package lap

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/gofrs/uuid/v5"

	"github.com/dbsDevelops/f1-24-setup-recommender/log"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/model"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/processing"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/repository"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/wire"
)

type (
	// Store is the part of Repository used by the Writer.
	Store interface {
		SaveLaps(ctx context.Context, runID uuid.UUID, laps []model.CompletedLap) error
		SaveClassification(
			ctx context.Context, runID uuid.UUID, entries []model.ClassificationEntry) error
	}
	// Writer persists laps and classifications off the aggregation loop.
	// Work items are queued in a bounded channel and dropped when it is full.
	Writer struct {
		store     Store
		tx        repository.TransactionManager
		runID     uuid.UUID
		queueSize int
		queue     chan job
		wg        sync.WaitGroup
		closeOnce sync.Once
		written   atomic.Int64
		dropped   atomic.Int64
		failed    atomic.Int64
		l         *log.Logger
	}
	WriterOption func(*Writer)
	job          struct {
		laps           []model.CompletedLap
		classification []model.ClassificationEntry
	}
)

var _ Store = (*Repository)(nil)

func WithQueueSize(n int) WriterOption {
	return func(w *Writer) {
		if n > 0 {
			w.queueSize = n
		}
	}
}

// WithTransaction runs every work item in its own transaction.
func WithTransaction(tx repository.TransactionManager) WriterOption {
	return func(w *Writer) {
		w.tx = tx
	}
}

func WithRunID(id uuid.UUID) WriterOption {
	return func(w *Writer) {
		w.runID = id
	}
}

func WithLogger(l *log.Logger) WriterOption {
	return func(w *Writer) {
		w.l = l
	}
}

func NewWriter(store Store, opts ...WriterOption) *Writer {
	w := &Writer{
		store:     store,
		queueSize: 256,
		l:         log.Default().Named("persist"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.runID == uuid.Nil {
		w.runID = uuid.Must(uuid.NewV7())
	}
	w.queue = make(chan job, w.queueSize)
	return w
}

func (w *Writer) RunID() uuid.UUID {
	return w.runID
}

// Start launches the writer goroutine. Queued items are written with ctx
// until Close is called.
func (w *Writer) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for j := range w.queue {
			w.write(ctx, j)
		}
	}()
}

// Close stops accepting work and waits until the queue is drained.
func (w *Writer) Close() {
	w.closeOnce.Do(func() {
		close(w.queue)
	})
	w.wg.Wait()
}

// Stats returns the number of written, dropped and failed work items.
func (w *Writer) Stats() (written, dropped, failed int64) {
	return w.written.Load(), w.dropped.Load(), w.failed.Load()
}

func (w *Writer) HandlePacket(_ context.Context, _ wire.Packet, r processing.Result) {
	if len(r.Laps) == 0 && len(r.Classification) == 0 {
		return
	}
	select {
	case w.queue <- job{laps: r.Laps, classification: r.Classification}:
	default:
		w.dropped.Add(1)
		w.l.Debug("queue full, dropping",
			log.Int("laps", len(r.Laps)),
			log.Int("classification", len(r.Classification)))
	}
}

func (w *Writer) HandleSnapshot(context.Context, *model.Snapshot) {}

func (w *Writer) write(ctx context.Context, j job) {
	fn := func(ctx context.Context) error {
		if err := w.store.SaveLaps(ctx, w.runID, j.laps); err != nil {
			return err
		}
		return w.store.SaveClassification(ctx, w.runID, j.classification)
	}
	var err error
	if w.tx != nil {
		err = w.tx.RunInTx(ctx, fn)
	} else {
		err = fn(ctx)
	}
	if err != nil {
		w.failed.Add(1)
		w.l.Error("could not persist", log.ErrorField(err))
		return
	}
	w.written.Add(1)
}
