package live

import (
	"context"
	"time"

	"github.com/dbsDevelops/f1-24-setup-recommender/log"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/cmd/cmdutil"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/config"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/feed"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/ingest"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/processing"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/publish"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/repository"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/repository/lap"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/track"
)

const snapshotTTL = 24 * time.Hour

// SetupSinks creates the consumers enabled on the command line: dashboard
// feed, NATS publisher and database writer. The returned func releases them
// in reverse order.
//
//nolint:funlen // by design
func SetupSinks(ctx context.Context, withOtlp bool) ([]ingest.Sink, func(), error) {
	var (
		sinks   []ingest.Sink
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if config.FeedAddr != "" {
		srv := feed.NewServer(feed.WithAddr(config.FeedAddr))
		if err := srv.Start(ctx); err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, func() {
			if err := srv.Stop(); err != nil {
				log.Warn("feed stopped with error", log.ErrorField(err))
			}
		})
		sinks = append(sinks, srv)
	}

	nc, err := cmdutil.ConnectNats()
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	if nc != nil {
		opts := []publish.Option{publish.WithPrefix(config.NatsSubjectPrefix)}
		if kv, err := publish.SetupKeyValue(ctx, nc, publish.DefaultBucket, snapshotTTL); err == nil {
			opts = append(opts, publish.WithKeyValue(kv))
		} else {
			log.Warn("snapshots are not stored in key value bucket", log.ErrorField(err))
		}
		p := publish.NewPublisher(nc, opts...)
		closers = append(closers, func() {
			published, failed := p.Stats()
			log.Info("publisher stopped",
				log.Int64("published", published),
				log.Int64("failed", failed))
			if err := nc.Drain(); err != nil {
				log.Warn("nats drain failed", log.ErrorField(err))
			}
		})
		sinks = append(sinks, p)
	}

	pool, err := cmdutil.OpenDB(ctx, withOtlp)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	if pool != nil {
		db := repository.NewDBFromPool(pool)
		w := lap.NewWriter(lap.NewRepository(db),
			lap.WithTransaction(repository.NewTransactionManager(db)),
			lap.WithQueueSize(config.PersistQueueSize))
		// pending writes are finished after ctx is cancelled
		w.Start(context.WithoutCancel(ctx))
		closers = append(closers, func() {
			w.Close()
			written, dropped, failed := w.Stats()
			log.Info("persistence stopped",
				log.String("run", w.RunID().String()),
				log.Int64("written", written),
				log.Int64("dropped", dropped),
				log.Int64("failed", failed))
			pool.Close()
		})
		sinks = append(sinks, w)
	}
	return sinks, closeAll, nil
}

func newGeometry() processing.GeometrySource {
	if config.TrackDataDir == "" {
		return nil
	}
	return track.NewBuilder(track.NewLoader(track.WithDir(config.TrackDataDir)))
}
