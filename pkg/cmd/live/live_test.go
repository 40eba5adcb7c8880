package live

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/config"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/feed"
	"github.com/dbsDevelops/f1-24-setup-recommender/pkg/ingest"
	"github.com/dbsDevelops/f1-24-setup-recommender/testsupport/basedata"
)

func setConfig(t *testing.T, feedAddr string) {
	t.Helper()
	old := []string{config.FeedAddr, config.NatsURL, config.DB, config.TrackDataDir, config.SnapshotInterval}
	t.Cleanup(func() {
		config.FeedAddr, config.NatsURL, config.DB = old[0], old[1], old[2]
		config.TrackDataDir, config.SnapshotInterval = old[3], old[4]
	})
	config.FeedAddr = feedAddr
	config.NatsURL = ""
	config.DB = ""
	config.TrackDataDir = ""
	config.SnapshotInterval = "invalid"
}

func TestSetupSinksNothingEnabled(t *testing.T) {
	setConfig(t, "")
	sinks, closeSinks, err := SetupSinks(context.Background(), false)
	require.NoError(t, err)
	defer closeSinks()
	assert.Empty(t, sinks)
}

func TestSetupSinksFeed(t *testing.T) {
	setConfig(t, "127.0.0.1:0")
	sinks, closeSinks, err := SetupSinks(context.Background(), false)
	require.NoError(t, err)
	defer closeSinks()
	require.Len(t, sinks, 1)
	assert.IsType(t, &feed.Server{}, sinks[0])
}

func TestNewPipeline(t *testing.T) {
	setConfig(t, "")
	assert.Nil(t, newGeometry())

	p := NewPipeline(ingest.WithSinks(ingest.SinkFuncs{}))
	p.HandleDatagram(context.Background(), basedata.Datagram(basedata.SampleSession()))
	assert.Equal(t, 7, p.Snapshot().Session.Track)
	assert.Equal(t, 1, p.Stats().Decoded)
}
