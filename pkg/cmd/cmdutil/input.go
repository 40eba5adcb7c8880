package cmdutil

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/capture"
)

// IsPcap reports whether path names a pcap file instead of a capture file.
func IsPcap(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pcap")
}

// LoadDatagrams reads all datagrams of a capture or pcap file. For pcap
// files only datagrams sent to port are used (0: all).
func LoadDatagrams(ctx context.Context, path string, port uint16) ([][]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadDatagrams(ctx, f, IsPcap(path), port)
}

//nolint:whitespace // editor/linter issue
func ReadDatagrams(ctx context.Context, r io.Reader, pcap bool, port uint16) (
	[][]byte, error,
) {
	var ret [][]byte
	if pcap {
		_, err := capture.ReadPcap(ctx, r, port, func(_ time.Time, payload []byte) error {
			ret = append(ret, payload)
			return nil
		})
		return ret, err
	}
	reader, err := capture.ReadAll(r)
	if err != nil {
		return nil, err
	}
	// frame errors are skipped, the reader continues after them
	for rec, err := range reader.All() {
		if err == nil {
			ret = append(ret, rec.Raw)
		}
	}
	return ret, nil
}
