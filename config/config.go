package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/opd-ai/peerlink/connection"
	"github.com/opd-ai/peerlink/contact"
	"github.com/opd-ai/peerlink/interfaces"
	"github.com/opd-ai/peerlink/kvstore"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Bounds checked by Validate.
const (
	MinTimeout       = 100 * time.Millisecond
	MaxTimeout       = 10 * time.Minute
	MaxRetryDelays   = 10
	MaxRetryDelay    = 5 * time.Minute
	MinPeerInfoEvery = 100 * time.Millisecond
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// DefaultFileName is looked up in the working directory and the data dir.
const DefaultFileName = "peerlink.yaml"

// DefaultRelayAddr is the public bootstrap relay a fresh node reserves a
// slot on. Setting network.relayAddrs replaces it; an empty list disables
// relaying.
const DefaultRelayAddr = "/ip4/104.131.131.82/udp/4001/quic-v1/p2p/QmaCpDMGvV2BGHeYERUEnRQAwe3N8SzbUtfsmvsqQLuvuJ"

// ErrInvalidConfig wraps every Validate failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds every tunable of the client, the engine and the CLI.
type Config struct {
	DataDir      string `yaml:"dataDir"`
	IdentityFile string `yaml:"identityFile"`
	Seed         string `yaml:"seed"`

	Store   StoreConfig   `yaml:"store"`
	Network NetworkConfig `yaml:"network"`
	Retry   RetryConfig   `yaml:"retry"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// StoreConfig selects where the contact ledger lives.
type StoreConfig struct {
	Backend   string `yaml:"backend"`
	Path      string `yaml:"path"`
	LedgerKey string `yaml:"ledgerKey"`
}

// NetworkConfig is turned into an interfaces.EngineConfig.
type NetworkConfig struct {
	UseSimulation      bool          `yaml:"useSimulation"`
	ListenAddrs        []string      `yaml:"listenAddrs"`
	RelayAddrs         []string      `yaml:"relayAddrs"`
	DialTimeout        time.Duration `yaml:"dialTimeout"`
	SendTimeout        time.Duration `yaml:"sendTimeout"`
	ReservationRefresh time.Duration `yaml:"reservationRefresh"`
	InboundPerMinute   int           `yaml:"inboundPerMinute"`
}

// RetryConfig tunes the connection supervisor and the peer info poll.
type RetryConfig struct {
	Delays           []time.Duration `yaml:"delays"`
	ResumeDelay      time.Duration   `yaml:"resumeDelay"`
	PeerInfoInterval time.Duration   `yaml:"peerInfoInterval"`
}

// LoggingConfig configures logrus.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DataDir:      defaultDataDir(),
		IdentityFile: "identity.key",
		Store: StoreConfig{
			Backend:   kvstore.BackendFile,
			LedgerKey: contact.DefaultLedgerKey,
		},
		Network: NetworkConfig{
			ListenAddrs: []string{
				"/ip4/0.0.0.0/tcp/0",
				"/ip4/0.0.0.0/udp/0/quic-v1",
			},
			RelayAddrs:         []string{DefaultRelayAddr},
			DialTimeout:        15 * time.Second,
			SendTimeout:        15 * time.Second,
			ReservationRefresh: 90 * time.Second,
		},
		Retry: RetryConfig{
			Delays:           connection.DefaultRetryDelays(),
			ResumeDelay:      connection.DefaultResumeDelay,
			PeerInfoInterval: 2 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: FormatText,
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".peerlink"
	}
	return filepath.Join(home, ".peerlink")
}

// Load reads the configuration. An explicit path must exist and parse.
// Without one, DefaultFileName is tried in the working directory and then in
// the default data dir, and a missing file just means defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	} else {
		searchDir := cfg.DataDir
		if dir := strings.TrimSpace(os.Getenv(EnvDataDir)); dir != "" {
			searchDir = dir
		}
		for _, candidate := range candidatePaths(searchDir) {
			err := cfg.mergeFile(candidate)
			if err == nil {
				break
			}
			if !errors.Is(err, os.ErrNotExist) {
				logrus.WithFields(logrus.Fields{
					"function": "Load",
					"path":     candidate,
					"error":    err.Error(),
				}).Warn("Skipping unreadable config file")
			}
		}
	}

	ApplyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func candidatePaths(dataDir string) []string {
	return []string{
		DefaultFileName,
		filepath.Join("configs", DefaultFileName),
		filepath.Join(dataDir, DefaultFileName),
	}
}

// mergeFile decodes the YAML at path over the current values. Keys absent
// from the file keep their current value.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	logrus.WithFields(logrus.Fields{
		"function": "mergeFile",
		"path":     path,
	}).Info("Loaded configuration file")
	return nil
}

// Validate checks bounds and enumerations.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("%w: dataDir is empty", ErrInvalidConfig)
	}
	switch strings.ToLower(c.Store.Backend) {
	case kvstore.BackendMemory, kvstore.BackendFile, kvstore.BackendSQLite:
	default:
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalidConfig, c.Store.Backend)
	}
	if strings.TrimSpace(c.Store.LedgerKey) == "" {
		return fmt.Errorf("%w: store.ledgerKey is empty", ErrInvalidConfig)
	}

	if err := checkTimeout("network.dialTimeout", c.Network.DialTimeout); err != nil {
		return err
	}
	if err := checkTimeout("network.sendTimeout", c.Network.SendTimeout); err != nil {
		return err
	}
	if c.Network.ReservationRefresh < time.Second {
		return fmt.Errorf("%w: network.reservationRefresh %v is below 1s", ErrInvalidConfig, c.Network.ReservationRefresh)
	}
	if c.Network.InboundPerMinute < 0 {
		return fmt.Errorf("%w: network.inboundPerMinute is negative", ErrInvalidConfig)
	}
	if !c.Network.UseSimulation && len(c.Network.ListenAddrs) == 0 {
		return fmt.Errorf("%w: network.listenAddrs is empty", ErrInvalidConfig)
	}

	if len(c.Retry.Delays) > MaxRetryDelays {
		return fmt.Errorf("%w: %d retry delays, at most %d", ErrInvalidConfig, len(c.Retry.Delays), MaxRetryDelays)
	}
	for i, d := range c.Retry.Delays {
		if d <= 0 || d > MaxRetryDelay {
			return fmt.Errorf("%w: retry.delays[%d] = %v out of (0, %v]", ErrInvalidConfig, i, d, MaxRetryDelay)
		}
	}
	if c.Retry.ResumeDelay < 0 || c.Retry.ResumeDelay > MaxRetryDelay {
		return fmt.Errorf("%w: retry.resumeDelay %v out of [0, %v]", ErrInvalidConfig, c.Retry.ResumeDelay, MaxRetryDelay)
	}
	if c.Retry.PeerInfoInterval < MinPeerInfoEvery {
		return fmt.Errorf("%w: retry.peerInfoInterval %v is below %v", ErrInvalidConfig, c.Retry.PeerInfoInterval, MinPeerInfoEvery)
	}

	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: logging.level: %v", ErrInvalidConfig, err)
	}
	switch c.Logging.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("%w: logging.format %q is not text or json", ErrInvalidConfig, c.Logging.Format)
	}
	return nil
}

func checkTimeout(name string, d time.Duration) error {
	if d < MinTimeout || d > MaxTimeout {
		return fmt.Errorf("%w: %s %v out of [%v, %v]", ErrInvalidConfig, name, d, MinTimeout, MaxTimeout)
	}
	return nil
}

// IdentityPath returns the identity file, resolved against DataDir when
// relative.
func (c *Config) IdentityPath() string {
	return c.resolve(c.IdentityFile)
}

// StorePath returns the ledger location for the configured backend: a
// directory for file, a database file for sqlite.
func (c *Config) StorePath() string {
	if c.Store.Path != "" {
		return c.resolve(c.Store.Path)
	}
	switch strings.ToLower(c.Store.Backend) {
	case kvstore.BackendSQLite:
		return filepath.Join(c.DataDir, "peerlink.db")
	case kvstore.BackendMemory:
		return ""
	default:
		return filepath.Join(c.DataDir, "ledger")
	}
}

func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir, p)
}

// EngineConfig converts the network section for the factory.
func (c *Config) EngineConfig() *interfaces.EngineConfig {
	return &interfaces.EngineConfig{
		UseSimulation:      c.Network.UseSimulation,
		ListenAddrs:        append([]string(nil), c.Network.ListenAddrs...),
		RelayAddrs:         append([]string(nil), c.Network.RelayAddrs...),
		DialTimeout:        c.Network.DialTimeout,
		SendTimeout:        c.Network.SendTimeout,
		ReservationRefresh: c.Network.ReservationRefresh,
		InboundPerMinute:   c.Network.InboundPerMinute,
		ContactBookPath:    c.DataDir,
	}
}

// ApplyLogging configures the standard logrus logger. The config must have
// passed Validate.
func (c *Config) ApplyLogging() {
	if level, err := logrus.ParseLevel(c.Logging.Level); err == nil {
		logrus.SetLevel(level)
	}
	if c.Logging.Format == FormatJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}
