package record

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dbsDevelops/f1-24-setup-recommender/log"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/cmd/cmdutil"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/config"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/listener"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/recorder"
)

var (
	outputDir  string
	outputFile string
	force      bool
	stdinStop  bool
	queueSize  int
)

func NewRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "records received datagrams into a capture file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startRecord()
		},
	}
	cmd.Flags().IntVar(&config.ListenPort,
		"port",
		config.DefaultListenPort,
		"UDP port the game sends telemetry to")
	cmd.Flags().StringVar(&outputDir,
		"dir",
		".",
		"directory for the capture file")
	cmd.Flags().StringVarP(&outputFile,
		"output",
		"o",
		"",
		"capture file name (default: generated from time and recording id)")
	cmd.Flags().BoolVar(&force,
		"force",
		false,
		"overwrite an existing capture file")
	cmd.Flags().BoolVar(&stdinStop,
		"stdin-stop",
		false,
		"stop recording when \"stop\" is entered on the console")
	cmd.Flags().IntVar(&queueSize,
		"queue-size",
		4096,
		"number of datagrams buffered before new ones are dropped")
	return cmd
}

//nolint:funlen // by design
func startRecord() error {
	logger, err := cmdutil.SetupLogger()
	if err != nil {
		return err
	}
	ctx, cancel := cmdutil.SignalContext()
	defer cancel()

	settings := config.Settings{Port: config.ListenPort}
	if err = settings.Validate(); err != nil {
		return err
	}
	id := uuid.New()
	path := outputFile
	if path == "" {
		path = recorder.FileName(outputDir, time.Now(), id)
	}
	f, err := recorder.Create(path, force)
	if err != nil {
		return err
	}
	defer f.Close()

	lst := listener.New(settings)
	if err = lst.Start(ctx); err != nil {
		return err
	}
	defer lst.Close()
	if stdinStop {
		recorder.WatchStop(ctx, os.Stdin, cancel)
		fmt.Fprintf(os.Stderr, "recording to %s, enter %q to finish\n", path, recorder.StopCommand)
	}
	logger.Info("recording",
		log.String("file", path),
		log.String("addr", lst.Addr().String()))

	sum, err := recorder.NewRecorder(lst, f,
		recorder.WithID(id),
		recorder.WithQueueSize(queueSize),
	).Run(ctx)
	printSummary(path, sum)
	if err != nil && !errors.Is(err, ctx.Err()) {
		return err
	}
	return f.Sync()
}

func printSummary(path string, sum recorder.Summary) {
	fmt.Printf("%s: %d datagrams in %s (%d dropped, %d unrecognized)\n",
		path, sum.Datagrams, sum.Duration.Round(time.Millisecond), sum.Dropped, sum.Unrecognized)
	names := make([]string, 0, len(sum.Counts))
	counts := map[string]int{}
	for k, v := range sum.Counts {
		names = append(names, k.String())
		counts[k.String()] = v
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-20s %d\n", name, counts[name])
	}
}
