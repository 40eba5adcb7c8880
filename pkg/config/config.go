package config

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	DB                string // connection string for the database (empty: no persistence)
	NatsURL           string // URL of the NATS server (empty: no publishing)
	NatsSubjectPrefix string // subject prefix for published snapshots
	WaitForServices   string // duration to wait for other services to be ready
	LogLevel          string // sets the log level (zap log level values)
	SQLLogLevel       string // sets the log level for sql subsystem
	LogFormat         string // text vs json
	LogConfig         string // path to log config file
	LogFile           string // write logs to this file (rotated) instead of stderr
	EnableTelemetry   bool   // enable telemetry
	TelemetryEndpoint string // endpoint for telemetry ("stdout" prints to stdout)
	ProfilingPort     int    // port for profiling
	SettingsFile      string // listener settings file, watched for changes
	ListenPort        int    // UDP port the game sends to
	RedirectEnabled   bool   // forward received datagrams
	RedirectHost      string // forward destination IP
	RedirectPort      int    // forward destination port
	TrackDataDir      string // directory containing the reference line files
	FeedAddr          string // listen addr for the websocket/http feed (empty: disabled)
	SnapshotInterval  string // interval for publishing snapshots
	PersistQueueSize  int    // number of pending lap writes before new ones are dropped
	PrintMessage      bool   // if true, the decoded packets will be printed on debug level
)

// Config holds the configuration values which are used by the application
type Config struct {
	PrintMessage bool   // if true, the decoded packets will be printed on debug level
	TrackDataDir string // directory containing the reference line files
}
