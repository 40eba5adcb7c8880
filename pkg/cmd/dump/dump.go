package dump

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/cmd/cmdutil"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/config"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/utils/flatten"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/wire"
)

type Options struct {
	Kinds  []string // packet kind names to print (empty: all)
	JSON   bool
	Indent int
	Limit  int // maximum number of packets (0: no limit)
}

var (
	opts     Options
	pcapPort uint16
)

func NewDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <file>",
		Short: "prints the decoded packets of a capture or pcap file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return startDump(args[0])
		},
	}
	cmd.Flags().StringSliceVar(&opts.Kinds,
		"kind",
		[]string{},
		"only print packets of these kinds (e.g. Session,LapData)")
	cmd.Flags().BoolVar(&opts.JSON,
		"json",
		false,
		"print each packet as JSON instead of key=value lines")
	cmd.Flags().IntVar(&opts.Indent,
		"indent",
		0,
		"JSON indentation")
	cmd.Flags().IntVar(&opts.Limit,
		"limit",
		0,
		"stop after this number of packets (0: all)")
	cmd.Flags().Uint16Var(&pcapPort,
		"pcap-port",
		config.DefaultListenPort,
		"only UDP datagrams sent to this port are used from pcap files (0: all)")
	return cmd
}

func startDump(path string) error {
	if _, err := cmdutil.SetupLogger(); err != nil {
		return err
	}
	ctx, cancel := cmdutil.SignalContext()
	defer cancel()
	datagrams, err := cmdutil.LoadDatagrams(ctx, path, pcapPort)
	if err != nil {
		return err
	}
	return Dump(os.Stdout, wire.NewDecoder(), datagrams, opts)
}

// Dump writes the decoded datagrams to w. Datagrams that cannot be decoded
// are reported in a single line.
func Dump(w io.Writer, d *wire.Decoder, datagrams [][]byte, o Options) error {
	printed := 0
	for i, data := range datagrams {
		if o.Limit > 0 && printed >= o.Limit {
			break
		}
		p, err := d.Decode(data)
		if err != nil {
			if len(o.Kinds) == 0 {
				if _, err := fmt.Fprintf(w, "#%d: %v\n", i, err); err != nil {
					return err
				}
			}
			continue
		}
		kind := p.PacketHeader().Kind()
		if !selected(o.Kinds, kind) {
			continue
		}
		printed++
		if o.JSON {
			if _, err := fmt.Fprintln(w, flatten.JSON(p, o.Indent)); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, "#%d %s\n", i, kind); err != nil {
			return err
		}
		for _, e := range flatten.Flatten(p) {
			if _, err := fmt.Fprintf(w, "  %s\n", e); err != nil {
				return err
			}
		}
	}
	return nil
}

func selected(kinds []string, k wire.Kind) bool {
	if len(kinds) == 0 {
		return true
	}
	return slices.ContainsFunc(kinds, func(s string) bool {
		return strings.EqualFold(strings.TrimSpace(s), k.String())
	})
}
