package log

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
	"moul.io/zapfilter"
)

// Config is read from the file given by --log-config.
//
//	defaultLevel: info
//	loggers:
//	  listener: debug
//	  engine.lap: warn
//	rules: "debug:capture*"
//
// The most specific logger entry (longest matching name prefix) wins.
// Rules are zapfilter expressions and are or'ed with the logger levels.
type Config struct {
	DefaultLevel string            `yaml:"defaultLevel"`
	Loggers      map[string]string `yaml:"loggers"`
	Rules        string            `yaml:"rules"`
}

type loggerLevel struct {
	name  string
	level zapcore.Level
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("log config: %w", err)
	}
	if cfg.DefaultLevel == "" {
		cfg.DefaultLevel = "info"
	}
	return &cfg, nil
}

// MinLevel is the lowest level any configured logger may emit.
// The logger core has to be created with this level, the filter does the rest.
func (c *Config) MinLevel() (Level, error) {
	minLevel, err := ParseLevel(c.DefaultLevel)
	if err != nil {
		return InfoLevel, err
	}
	if c.Rules != "" {
		return DebugLevel, nil
	}
	for name, l := range c.Loggers {
		lvl, err := ParseLevel(l)
		if err != nil {
			return InfoLevel, fmt.Errorf("logger %s: %w", name, err)
		}
		if lvl < minLevel {
			minLevel = lvl
		}
	}
	return minLevel, nil
}

func (c *Config) Filter() (zapfilter.FilterFunc, error) {
	defaultLevel, err := ParseLevel(c.DefaultLevel)
	if err != nil {
		return nil, err
	}
	entries := make([]loggerLevel, 0, len(c.Loggers))
	for name, l := range c.Loggers {
		lvl, err := ParseLevel(l)
		if err != nil {
			return nil, fmt.Errorf("logger %s: %w", name, err)
		}
		entries = append(entries, loggerLevel{name: name, level: lvl})
	}
	// longest name first
	sort.Slice(entries, func(i, j int) bool {
		return len(entries[i].name) > len(entries[j].name)
	})
	byName := func(entry zapcore.Entry, _ []zapcore.Field) bool {
		for _, e := range entries {
			if entry.LoggerName == e.name || strings.HasPrefix(entry.LoggerName, e.name+".") {
				return entry.Level >= e.level
			}
		}
		return entry.Level >= defaultLevel
	}
	if c.Rules == "" {
		return byName, nil
	}
	rules, err := zapfilter.ParseRules(c.Rules)
	if err != nil {
		return nil, fmt.Errorf("log rules: %w", err)
	}
	return zapfilter.Any(byName, rules), nil
}
