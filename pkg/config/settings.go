package config

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/dbsDevelops/f1-24-setup-recommender/log"
)

const (
	DefaultListenPort   = 20777
	DefaultRedirectPort = 20778
	MinPort             = 1000
	MaxPort             = 65535
)

var ErrInvalidSettings = errors.New("invalid settings")

// Redirect configures forwarding of received datagrams.
type Redirect struct {
	Enabled bool   `mapstructure:"enabled" json:"enabled"`
	Host    string `mapstructure:"host" json:"host"`
	Port    int    `mapstructure:"port" json:"port"`
}

// Settings are the runtime changeable listener settings.
type Settings struct {
	Port     int      `mapstructure:"port" json:"port"`
	Redirect Redirect `mapstructure:"redirect" json:"redirect"`
}

func DefaultSettings() Settings {
	return Settings{
		Port:     DefaultListenPort,
		Redirect: Redirect{Host: "127.0.0.1", Port: DefaultRedirectPort},
	}
}

// SettingsFromCLI returns the settings given by command line flags.
func SettingsFromCLI() Settings {
	return Settings{
		Port: ListenPort,
		Redirect: Redirect{
			Enabled: RedirectEnabled,
			Host:    RedirectHost,
			Port:    RedirectPort,
		},
	}
}

// Validate checks the port ranges and the redirect address.
// Listen port 0 picks a free port. The redirect target is only checked when enabled.
func (s Settings) Validate() error {
	if s.Port != 0 && (s.Port < MinPort || s.Port > MaxPort) {
		return fmt.Errorf("%w: port %d not within %d..%d", ErrInvalidSettings, s.Port, MinPort, MaxPort)
	}
	if !s.Redirect.Enabled {
		return nil
	}
	if s.Redirect.Port < MinPort || s.Redirect.Port > MaxPort {
		return fmt.Errorf("%w: redirect port %d not within %d..%d",
			ErrInvalidSettings, s.Redirect.Port, MinPort, MaxPort)
	}
	if _, err := netip.ParseAddr(s.Redirect.Host); err != nil {
		return fmt.Errorf("%w: redirect host %q: %w", ErrInvalidSettings, s.Redirect.Host, err)
	}
	return nil
}

func (s Settings) ListenAddr() string {
	return net.JoinHostPort("", strconv.Itoa(s.Port))
}

func (s Settings) RedirectAddr() string {
	return net.JoinHostPort(s.Redirect.Host, strconv.Itoa(s.Redirect.Port))
}

// SettingsStore holds the current settings backed by a watched file.
// Invalid file contents are rejected and the previous settings stay active.
type SettingsStore struct {
	mu       sync.RWMutex
	v        *viper.Viper
	current  Settings
	onChange []func(Settings)
	l        *log.Logger
}

// NewSettingsStore reads the settings file (yaml, json or toml).
// Values not present in the file are taken from defaults.
func NewSettingsStore(path string, defaults Settings) (*SettingsStore, error) {
	v := viper.New()
	v.SetDefault("port", defaults.Port)
	v.SetDefault("redirect.enabled", defaults.Redirect.Enabled)
	v.SetDefault("redirect.host", defaults.Redirect.Host)
	v.SetDefault("redirect.port", defaults.Redirect.Port)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("could not read settings %s: %w", path, err)
	}
	s := &SettingsStore{v: v, l: log.Default().Named("settings")}
	current, err := s.read()
	if err != nil {
		return nil, err
	}
	s.current = current
	return s, nil
}

func (s *SettingsStore) read() (Settings, error) {
	var ret Settings
	if err := s.v.Unmarshal(&ret); err != nil {
		return ret, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	return ret, ret.Validate()
}

func (s *SettingsStore) Current() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// OnChange registers fn to be called with the new settings after a valid change.
func (s *SettingsStore) OnChange(fn func(Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// Watch starts watching the settings file.
func (s *SettingsStore) Watch() {
	s.v.OnConfigChange(func(e fsnotify.Event) {
		s.l.Debug("settings file changed", log.String("file", e.Name), log.String("op", e.Op.String()))
		s.reload()
	})
	s.v.WatchConfig()
}

func (s *SettingsStore) reload() {
	next, err := s.read()
	if err != nil {
		s.l.Warn("keeping previous settings", log.ErrorField(err))
		return
	}
	s.mu.Lock()
	changed := next != s.current
	s.current = next
	callbacks := append([]func(Settings){}, s.onChange...)
	s.mu.Unlock()
	if !changed {
		return
	}
	s.l.Info("settings changed",
		log.Int("port", next.Port),
		log.Bool("redirect", next.Redirect.Enabled),
		log.String("redirectAddr", next.RedirectAddr()))
	for _, fn := range callbacks {
		fn(next)
	}
}
