package replay

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbsDevelops/f1-24-setup-recommender/log"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/capture"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/cmd/cmdutil"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/cmd/live"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/ingest"
)

var (
	pcapPort    uint16
	startOffset int
)

func NewReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <file>",
		Short: "feeds a capture or pcap file through the aggregation engine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return startReplay(args[0])
		},
	}
	cmd.Flags().Uint16Var(&pcapPort,
		"pcap-port",
		20777,
		"only UDP datagrams sent to this port are used from pcap files (0: all)")
	cmd.Flags().IntVar(&startOffset,
		"start-offset",
		0,
		"byte offset in a capture file where replay starts")
	live.AddPipelineFlags(cmd)
	return cmd
}

func startReplay(path string) error {
	logger, err := cmdutil.SetupLogger()
	if err != nil {
		return err
	}
	ctx, cancel := cmdutil.SignalContext()
	defer cancel()

	if err = cmdutil.WaitForServices(ctx); err != nil {
		return err
	}
	telemetry := cmdutil.StartTelemetry(ctx)
	if telemetry != nil {
		defer telemetry.Shutdown()
	}
	sinks, closeSinks, err := live.SetupSinks(ctx, telemetry != nil)
	if err != nil {
		return err
	}
	defer closeSinks()

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	pipeline := live.NewPipeline(ingest.WithSinks(sinks...))
	logger.Info("replay started", log.String("file", path))
	if cmdutil.IsPcap(path) {
		err = pipeline.ReplayPcap(ctx, f, pcapPort)
	} else {
		var reader *capture.Reader
		if reader, err = capture.ReadAll(f, capture.WithStartOffset(startOffset)); err != nil {
			return err
		}
		err = pipeline.ReplayCapture(ctx, reader)
	}
	st := pipeline.Stats()
	logger.Info("replay finished",
		log.Int("datagrams", st.Datagrams),
		log.Int("decoded", st.Decoded),
		log.Int("unknown", st.Unknown),
		log.Int("truncated", st.Truncated),
		log.Int("malformed", st.Malformed))
	if errors.Is(err, ctx.Err()) {
		return nil
	}
	return err
}
