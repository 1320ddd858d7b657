package factory

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/opd-ai/peerlink/interfaces"
	"github.com/opd-ai/peerlink/real"
	"github.com/opd-ai/peerlink/testing"
	"github.com/sirupsen/logrus"
)

// Validation constants for configuration bounds checking, in milliseconds.
const (
	// MinTimeoutMillis is the smallest dial or send timeout accepted from the environment.
	MinTimeoutMillis = 100
	// MaxTimeoutMillis is the largest dial or send timeout accepted from the environment (10 minutes).
	MaxTimeoutMillis = 600000
)

// Environment variables read by NewEngineFactory.
const (
	EnvUseSimulation = "PEERLINK_USE_SIMULATION"
	EnvDialTimeout   = "PEERLINK_DIAL_TIMEOUT"
	EnvSendTimeout   = "PEERLINK_SEND_TIMEOUT"
)

// EngineFactory creates engines based on configuration.
// It is safe for concurrent use.
type EngineFactory struct {
	mu            sync.RWMutex
	defaultConfig *interfaces.EngineConfig
	realOptions   []real.Option
}

// TestConfigOption customizes the configuration used by CreateSimulationForTesting.
type TestConfigOption func(*interfaces.EngineConfig)

// NewEngineFactory creates a factory with default configuration and applies
// environment overrides. Options are passed to every real engine it creates.
func NewEngineFactory(opts ...real.Option) *EngineFactory {
	defaultConfig := createDefaultConfig()
	applyEnvironmentOverrides(defaultConfig)
	logConfigurationInfo(defaultConfig)

	return &EngineFactory{
		defaultConfig: defaultConfig,
		realOptions:   opts,
	}
}

// createDefaultConfig returns the production defaults: real networking with
// the real package's timeouts.
func createDefaultConfig() *interfaces.EngineConfig {
	return &interfaces.EngineConfig{
		UseSimulation:      false,
		ListenAddrs:        real.DefaultListenAddrs(),
		DialTimeout:        real.DefaultDialTimeout,
		SendTimeout:        real.DefaultSendTimeout,
		ReservationRefresh: real.DefaultReservationRefresh,
	}
}

func applyEnvironmentOverrides(config *interfaces.EngineConfig) {
	parseSimulationSetting(config)
	parseTimeoutSetting(EnvDialTimeout, &config.DialTimeout)
	parseTimeoutSetting(EnvSendTimeout, &config.SendTimeout)
}

// parseSimulationSetting updates UseSimulation from PEERLINK_USE_SIMULATION.
func parseSimulationSetting(config *interfaces.EngineConfig) {
	useSimStr := os.Getenv(EnvUseSimulation)
	if useSimStr == "" {
		return
	}
	useSim, err := strconv.ParseBool(useSimStr)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "parseSimulationSetting",
			"env_var":     EnvUseSimulation,
			"value":       useSimStr,
			"error":       err.Error(),
			"using_value": config.UseSimulation,
		}).Warn("Failed to parse PEERLINK_USE_SIMULATION environment variable, using default")
		return
	}
	config.UseSimulation = useSim
}

// parseTimeoutSetting reads a millisecond timeout from envVar into target.
// It only updates target when the value parses and lies within
// [MinTimeoutMillis, MaxTimeoutMillis].
func parseTimeoutSetting(envVar string, target *time.Duration) {
	timeoutStr := os.Getenv(envVar)
	if timeoutStr == "" {
		return
	}
	timeout, err := strconv.Atoi(timeoutStr)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "parseTimeoutSetting",
			"env_var":     envVar,
			"value":       timeoutStr,
			"error":       err.Error(),
			"using_value": *target,
		}).Warn("Failed to parse timeout environment variable, using default")
		return
	}
	if timeout < MinTimeoutMillis || timeout > MaxTimeoutMillis {
		logrus.WithFields(logrus.Fields{
			"function":    "parseTimeoutSetting",
			"env_var":     envVar,
			"value":       timeout,
			"min":         MinTimeoutMillis,
			"max":         MaxTimeoutMillis,
			"using_value": *target,
		}).Warn("Timeout environment variable out of bounds, using default")
		return
	}
	*target = time.Duration(timeout) * time.Millisecond
}

func logConfigurationInfo(config *interfaces.EngineConfig) {
	logrus.WithFields(logrus.Fields{
		"function":       "NewEngineFactory",
		"use_simulation": config.UseSimulation,
		"dial_timeout":   config.DialTimeout,
		"send_timeout":   config.SendTimeout,
	}).Info("Created engine factory with configuration")
}

// CreateEngine creates an engine from the factory's default configuration.
func (f *EngineFactory) CreateEngine() (interfaces.Engine, error) {
	return f.CreateEngineWithConfig(nil)
}

// CreateEngineWithConfig creates an engine from config. A nil config uses
// the factory default.
func (f *EngineFactory) CreateEngineWithConfig(config *interfaces.EngineConfig) (interfaces.Engine, error) {
	if config == nil {
		config = f.GetCurrentConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function":       "CreateEngineWithConfig",
		"use_simulation": config.UseSimulation,
		"dial_timeout":   config.DialTimeout,
		"send_timeout":   config.SendTimeout,
		"relays":         len(config.RelayAddrs),
	}).Info("Creating engine implementation")

	if config.UseSimulation {
		return testing.NewSimulatedEngine(copyConfig(config)), nil
	}

	f.mu.RLock()
	opts := append([]real.Option(nil), f.realOptions...)
	f.mu.RUnlock()

	engine, err := real.NewEngine(config, opts...)
	if err != nil {
		return nil, fmt.Errorf("create libp2p engine: %w", err)
	}
	return engine, nil
}

// WithDialTimeout sets the dial timeout for the test configuration.
func WithDialTimeout(d time.Duration) TestConfigOption {
	return func(c *interfaces.EngineConfig) {
		c.DialTimeout = d
	}
}

// WithSendTimeout sets the send timeout for the test configuration.
func WithSendTimeout(d time.Duration) TestConfigOption {
	return func(c *interfaces.EngineConfig) {
		c.SendTimeout = d
	}
}

// WithInboundLimit sets the per-peer inbound message budget for the test configuration.
func WithInboundLimit(perMinute int) TestConfigOption {
	return func(c *interfaces.EngineConfig) {
		c.InboundPerMinute = perMinute
	}
}

// CreateSimulationForTesting creates an in-memory engine regardless of the
// factory mode. Defaults are DialTimeout=1s and SendTimeout=1s.
func (f *EngineFactory) CreateSimulationForTesting(opts ...TestConfigOption) *testing.SimulatedEngine {
	testConfig := &interfaces.EngineConfig{
		UseSimulation: true,
		DialTimeout:   time.Second,
		SendTimeout:   time.Second,
	}
	for _, opt := range opts {
		opt(testConfig)
	}

	logrus.WithFields(logrus.Fields{
		"function":     "CreateSimulationForTesting",
		"dial_timeout": testConfig.DialTimeout,
		"send_timeout": testConfig.SendTimeout,
	}).Info("Creating simulation engine for testing")

	return testing.NewSimulatedEngine(testConfig)
}

// SwitchToSimulation makes later CreateEngine calls return simulated engines.
func (f *EngineFactory) SwitchToSimulation() {
	f.setSimulation(true)
}

// SwitchToReal makes later CreateEngine calls return libp2p engines.
func (f *EngineFactory) SwitchToReal() {
	f.setSimulation(false)
}

func (f *EngineFactory) setSimulation(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "setSimulation",
		"previous": f.defaultConfig.UseSimulation,
		"current":  enabled,
	}).Info("Switching factory engine mode")

	f.defaultConfig.UseSimulation = enabled
}

// GetCurrentConfig returns a copy of the current default configuration.
func (f *EngineFactory) GetCurrentConfig() *interfaces.EngineConfig {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return copyConfig(f.defaultConfig)
}

// IsUsingSimulation returns true if the factory is configured for simulation.
func (f *EngineFactory) IsUsingSimulation() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.defaultConfig.UseSimulation
}

// UpdateConfig replaces the factory's default configuration after
// validating it.
func (f *EngineFactory) UpdateConfig(config *interfaces.EngineConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":       "UpdateConfig",
		"old_simulation": f.defaultConfig.UseSimulation,
		"new_simulation": config.UseSimulation,
		"old_send":       f.defaultConfig.SendTimeout,
		"new_send":       config.SendTimeout,
	}).Info("Updating factory configuration")

	f.defaultConfig = copyConfig(config)
	return nil
}

func copyConfig(c *interfaces.EngineConfig) *interfaces.EngineConfig {
	out := *c
	out.ListenAddrs = append([]string(nil), c.ListenAddrs...)
	out.RelayAddrs = append([]string(nil), c.RelayAddrs...)
	return &out
}
