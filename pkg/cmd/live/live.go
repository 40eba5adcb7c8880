package live

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/dbsDevelops/f1-24-setup-recommender/log"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/cmd/cmdutil"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/config"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/ingest"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/listener"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/model"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/processing"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/wire"
)

func NewLiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "live",
		Short: "receives telemetry from the game and maintains the live state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startLive()
		},
	}
	cmd.Flags().IntVar(&config.ListenPort,
		"port",
		config.DefaultListenPort,
		"UDP port the game sends telemetry to")
	cmd.Flags().BoolVar(&config.RedirectEnabled,
		"redirect",
		false,
		"forward every received datagram")
	cmd.Flags().StringVar(&config.RedirectHost,
		"redirect-host",
		"127.0.0.1",
		"IP address received datagrams are forwarded to")
	cmd.Flags().IntVar(&config.RedirectPort,
		"redirect-port",
		config.DefaultRedirectPort,
		"UDP port received datagrams are forwarded to")
	cmd.Flags().StringVar(&config.SettingsFile,
		"settings-file",
		"",
		"listener settings file (yaml), changes are applied while running")
	cmd.Flags().BoolVar(&config.PrintMessage,
		"print-message",
		false,
		"if true and log level is debug, decoded packets will be printed")
	AddPipelineFlags(cmd)
	return cmd
}

// AddPipelineFlags registers the flags shared by live and replay.
func AddPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&config.TrackDataDir,
		"track-data-dir",
		"",
		"directory containing the reference line files (empty: no track geometry)")
	cmd.Flags().StringVar(&config.FeedAddr,
		"feed-addr",
		"127.0.0.1:8080",
		"listen address of the dashboard feed (empty: disabled)")
	cmd.Flags().StringVar(&config.SnapshotInterval,
		"snapshot-interval",
		"1s",
		"interval for publishing state snapshots")
	cmd.Flags().IntVar(&config.PersistQueueSize,
		"persist-queue-size",
		256,
		"number of pending database writes before new ones are dropped")
	cmd.Flags().StringVar(&config.NatsSubjectPrefix,
		"nats-subject-prefix",
		"f1sr",
		"subject prefix for published snapshots")
}

//nolint:funlen // by design
func startLive() error {
	logger, err := cmdutil.SetupLogger()
	if err != nil {
		return err
	}
	ctx, cancel := cmdutil.SignalContext()
	defer cancel()
	cmdutil.StartProfiling()
	cmdutil.SetupGoRoutinesDump()

	settings := config.SettingsFromCLI()
	var store *config.SettingsStore
	if config.SettingsFile != "" {
		if store, err = config.NewSettingsStore(config.SettingsFile, settings); err != nil {
			return err
		}
		settings = store.Current()
	}
	if err = settings.Validate(); err != nil {
		return err
	}

	if err = cmdutil.WaitForServices(ctx); err != nil {
		return err
	}
	telemetry := cmdutil.StartTelemetry(ctx)
	if telemetry != nil {
		defer telemetry.Shutdown()
	}

	lst := listener.New(settings)
	if err = lst.Start(ctx); err != nil {
		return err
	}
	defer lst.Close()
	if store != nil {
		store.OnChange(func(s config.Settings) {
			if err := lst.Rebind(s); err != nil {
				logger.Error("could not apply settings", log.ErrorField(err))
			}
		})
		store.Watch()
	}

	sinks, closeSinks, err := SetupSinks(ctx, telemetry != nil)
	if err != nil {
		return err
	}
	defer closeSinks()
	if config.PrintMessage {
		sinks = append(sinks, printSink(logger.Named("message")))
	}

	pipeline := NewPipeline(ingest.WithSource(lst), ingest.WithSinks(sinks...))
	logger.Info("live session started", log.String("addr", lst.Addr().String()))
	err = pipeline.Run(ctx)
	st := pipeline.Stats()
	logger.Info("live session stopped",
		log.Int("datagrams", st.Datagrams),
		log.Int("decoded", st.Decoded),
		log.Int("unknown", st.Unknown),
		log.Int("truncated", st.Truncated),
		log.Int("malformed", st.Malformed))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// NewPipeline creates the ingest pipeline with engine, geometry and snapshot
// interval taken from the command line.
func NewPipeline(opts ...ingest.Option) *ingest.Pipeline {
	interval, err := time.ParseDuration(config.SnapshotInterval)
	if err != nil || interval <= 0 {
		log.Warn("Invalid snapshot interval. Setting default 1s",
			log.String("value", config.SnapshotInterval))
		interval = time.Second
	}
	engineOpts := []processing.EngineOption{}
	if geo := newGeometry(); geo != nil {
		engineOpts = append(engineOpts, processing.WithGeometry(geo))
	}
	all := append([]ingest.Option{
		ingest.WithEngine(processing.NewEngine(engineOpts...)),
		ingest.WithSnapshotInterval(interval),
	}, opts...)
	return ingest.NewPipeline(all...)
}

func printSink(l *log.Logger) ingest.Sink {
	return ingest.SinkFuncs{
		Packet: func(_ context.Context, p wire.Packet, r processing.Result) {
			l.Debug("packet",
				log.String("kind", r.Kind.String()),
				log.Uint16("changes", uint16(r.Changes)),
				log.Any("data", p))
		},
		Snapshot: func(_ context.Context, s *model.Snapshot) {
			l.Debug("snapshot",
				log.Int("track", s.Session.Track),
				log.Int("drivers", len(s.Drivers)))
		},
	}
}
