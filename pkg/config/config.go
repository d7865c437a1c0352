// Package config loads the dispatch core's YAML configuration file,
// modeled on cmd/warren/apply.go's yaml.v3 struct-tag style.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tsdbcluster/raftlog/pkg/dispatch"
	"github.com/tsdbcluster/raftlog/pkg/log"
)

// PeerConfig describes one cluster member reachable over the transport.
type PeerConfig struct {
	ID   string `yaml:"id"`
	Addr string `yaml:"addr"`
}

// Config is the on-disk shape of a raftlogd node's configuration.
type Config struct {
	NodeID              string       `yaml:"nodeId"`
	ListenAddr          string       `yaml:"listenAddr"`
	DataDir             string       `yaml:"dataDir,omitempty"`
	Peers               []PeerConfig `yaml:"peers"`
	MinLogsInMemory     int          `yaml:"minLogsInMemory"`
	UseAsyncServer      bool         `yaml:"useAsyncServer"`
	EnableInstrumenting bool         `yaml:"enableInstrumenting"`
	LogLevel            log.Level    `yaml:"logLevel"`
	LogJSON             bool         `yaml:"logJson"`
}

// Defaults returns sane out-of-the-box settings; MinLogsInMemory in
// particular should stay a positive integer in the hundreds for a
// production-sized follower fan-out.
func Defaults() Config {
	return Config{
		MinLogsInMemory:     256,
		UseAsyncServer:      false,
		EnableInstrumenting: true,
		LogLevel:            log.InfoLevel,
	}
}

// Load reads and parses a YAML config file at path, starting from Defaults
// so an omitted field keeps its default rather than zeroing out.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration is internally consistent enough to
// build a LogDispatcher from.
func (c Config) Validate() error {
	if c.NodeID == "" {
		return fmt.Errorf("nodeId is required")
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("listenAddr is required")
	}
	if c.MinLogsInMemory <= 0 {
		return fmt.Errorf("minLogsInMemory must be positive, got %d", c.MinLogsInMemory)
	}
	for _, p := range c.Peers {
		if p.ID == "" || p.Addr == "" {
			return fmt.Errorf("every peer needs both id and addr, got %+v", p)
		}
	}
	return nil
}

// DispatchConfig projects the subset of Config that dispatch.LogDispatcher
// actually needs.
func (c Config) DispatchConfig() dispatch.Config {
	return dispatch.Config{
		MinLogsInMemory:     c.MinLogsInMemory,
		UseAsyncServer:      c.UseAsyncServer,
		EnableInstrumenting: c.EnableInstrumenting,
	}
}
