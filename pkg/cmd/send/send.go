package send

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/dbsDevelops/f1-24-setup-recommender/log"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/cmd/cmdutil"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/config"
)

var (
	targetHost string
	targetPort int
	rps        float64
	burst      int
	loop       bool
	pcapPort   uint16
)

func NewSendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send <file>",
		Short: "sends the datagrams of a capture or pcap file via UDP",
		Long: `Sends recorded datagrams to a running listener. This is used to
test the live mode without the game.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return startSend(args[0])
		},
	}
	cmd.Flags().StringVar(&targetHost,
		"host",
		"127.0.0.1",
		"destination host")
	cmd.Flags().IntVar(&targetPort,
		"port",
		config.DefaultListenPort,
		"destination UDP port")
	cmd.Flags().Float64Var(&rps,
		"rate",
		500,
		"datagrams per second (0: unlimited)")
	cmd.Flags().IntVar(&burst,
		"burst",
		10,
		"number of datagrams sent without delay")
	cmd.Flags().BoolVar(&loop,
		"loop",
		false,
		"start over when all datagrams are sent")
	cmd.Flags().Uint16Var(&pcapPort,
		"pcap-port",
		config.DefaultListenPort,
		"only UDP datagrams sent to this port are used from pcap files (0: all)")
	return cmd
}

func startSend(path string) error {
	logger, err := cmdutil.SetupLogger()
	if err != nil {
		return err
	}
	ctx, cancel := cmdutil.SignalContext()
	defer cancel()

	datagrams, err := cmdutil.LoadDatagrams(ctx, path, pcapPort)
	if err != nil {
		return err
	}
	if len(datagrams) == 0 {
		return fmt.Errorf("no datagrams in %s", path)
	}
	addr := net.JoinHostPort(targetHost, strconv.Itoa(targetPort))
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	logger.Info("sending",
		log.String("file", path),
		log.String("addr", addr),
		log.Int("datagrams", len(datagrams)))
	total := 0
	for {
		n, err := Send(ctx, conn, datagrams, NewLimiter(rps, burst))
		total += n
		if err != nil {
			logger.Info("sending stopped", log.Int("sent", total))
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if !loop {
			break
		}
	}
	logger.Info("sending finished", log.Int("sent", total))
	return nil
}

// NewLimiter returns a limiter for rps datagrams per second. A rate of 0
// or less is unlimited.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(rps), max(burst, 1))
}

// Send writes each datagram with a single Write call, paced by limiter.
// It returns the number of datagrams sent.
//
//nolint:whitespace // editor/linter issue
func Send(ctx context.Context, w io.Writer, datagrams [][]byte, limiter *rate.Limiter) (
	int, error,
) {
	for i, data := range datagrams {
		if err := limiter.Wait(ctx); err != nil {
			return i, err
		}
		if _, err := w.Write(data); err != nil {
			return i, err
		}
	}
	return len(datagrams), nil
}
