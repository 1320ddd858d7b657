package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Environment variables read by ApplyEnvOverrides. Timeouts are integer
// milliseconds; lists are comma separated.
const (
	EnvDataDir       = "PEERLINK_DATA_DIR"
	EnvSeed          = "PEERLINK_SEED"
	EnvStoreBackend  = "PEERLINK_STORE_BACKEND"
	EnvStorePath     = "PEERLINK_STORE_PATH"
	EnvUseSimulation = "PEERLINK_USE_SIMULATION"
	EnvListenAddrs   = "PEERLINK_LISTEN_ADDRS"
	EnvRelayAddrs    = "PEERLINK_RELAY_ADDRS"
	EnvDialTimeout   = "PEERLINK_DIAL_TIMEOUT"
	EnvSendTimeout   = "PEERLINK_SEND_TIMEOUT"
	EnvLogLevel      = "PEERLINK_LOG_LEVEL"
	EnvLogFormat     = "PEERLINK_LOG_FORMAT"
	EnvMetricsAddr   = "PEERLINK_METRICS_ADDR"
)

// ApplyEnvOverrides applies PEERLINK_* variables on top of cfg. Values that
// do not parse are logged and ignored; range checks are left to Validate.
func ApplyEnvOverrides(cfg *Config) {
	setString(EnvDataDir, &cfg.DataDir)
	setString(EnvSeed, &cfg.Seed)
	setString(EnvStoreBackend, &cfg.Store.Backend)
	setString(EnvStorePath, &cfg.Store.Path)
	setList(EnvListenAddrs, &cfg.Network.ListenAddrs)
	setList(EnvRelayAddrs, &cfg.Network.RelayAddrs)
	setString(EnvLogLevel, &cfg.Logging.Level)
	setString(EnvLogFormat, &cfg.Logging.Format)
	setString(EnvMetricsAddr, &cfg.Metrics.Addr)

	if raw := strings.TrimSpace(os.Getenv(EnvUseSimulation)); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			warnEnv(EnvUseSimulation, raw, err)
		} else {
			cfg.Network.UseSimulation = v
		}
	}
	setMillis(EnvDialTimeout, &cfg.Network.DialTimeout)
	setMillis(EnvSendTimeout, &cfg.Network.SendTimeout)
}

func setString(env string, target *string) {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		*target = v
	}
}

func setList(env string, target *[]string) {
	raw := strings.TrimSpace(os.Getenv(env))
	if raw == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*target = out
}

func setMillis(env string, target *time.Duration) {
	raw := strings.TrimSpace(os.Getenv(env))
	if raw == "" {
		return
	}
	ms, err := strconv.Atoi(raw)
	if err != nil {
		warnEnv(env, raw, err)
		return
	}
	*target = time.Duration(ms) * time.Millisecond
}

func warnEnv(env, value string, err error) {
	logrus.WithFields(logrus.Fields{
		"function": "ApplyEnvOverrides",
		"env_var":  env,
		"value":    value,
		"error":    err.Error(),
	}).Warn("Ignoring invalid environment variable")
}
