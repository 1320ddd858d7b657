package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/opd-ai/peerlink"
	"github.com/opd-ai/peerlink/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	envPrefix = "PEERLINK"

	// exitEngineUnavailable is returned when the networking engine cannot
	// be started, so wrappers can tell it apart from usage errors.
	exitEngineUnavailable = 3
)

// Execute runs the root command and exits on error.
func Execute() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		if errors.Is(err, peerlink.ErrEngineUnavailable) {
			os.Exit(exitEngineUnavailable)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "peerlink",
		Short:        "Peer-to-peer chat over libp2p",
		SilenceUsage: true,
	}

	cobra.OnInitialize(initConfig)

	flags := cmd.PersistentFlags()
	flags.String("config", "", "Config file path (optional).")
	flags.String("data-dir", "", "Directory for the identity, ledger and address book.")
	flags.String("seed", "", "Derive the identity from this seed instead of the identity file.")
	flags.String("store", "", "Ledger backend: file, sqlite or memory.")
	flags.Bool("simulate", false, "Use the in-memory simulated engine.")
	flags.String("log-level", "", "Log level (debug, info, warn, error).")
	flags.String("metrics-addr", "", "Serve Prometheus metrics on this address.")
	for _, name := range []string{"config", "data-dir", "seed", "store", "simulate", "log-level", "metrics-addr"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}

	cmd.AddCommand(newChatCmd())
	cmd.AddCommand(newIDCmd())
	cmd.AddCommand(newContactsCmd())

	return cmd
}

func initConfig() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()
}

// loadConfig reads the config file and environment, then applies flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(strings.TrimSpace(viper.GetString("config")))
	if err != nil {
		return nil, err
	}

	if v := flagOrViperString(cmd, "data-dir"); v != "" {
		cfg.DataDir = v
	}
	if v := flagOrViperString(cmd, "seed"); v != "" {
		cfg.Seed = v
	}
	if v := flagOrViperString(cmd, "store"); v != "" {
		cfg.Store.Backend = v
	}
	if v := flagOrViperString(cmd, "log-level"); v != "" {
		cfg.Logging.Level = v
	}
	if v := flagOrViperString(cmd, "metrics-addr"); v != "" {
		cfg.Metrics.Addr = v
	}
	if flagOrViperBool(cmd, "simulate") {
		cfg.Network.UseSimulation = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.ApplyLogging()
	return cfg, nil
}

func flagOrViperString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	if cmd.Flags().Changed(name) {
		return strings.TrimSpace(v)
	}
	if viper.IsSet(name) {
		return strings.TrimSpace(viper.GetString(name))
	}
	return strings.TrimSpace(v)
}

func flagOrViperBool(cmd *cobra.Command, name string) bool {
	v, _ := cmd.Flags().GetBool(name)
	if cmd.Flags().Changed(name) {
		return v
	}
	if viper.IsSet(name) {
		return viper.GetBool(name)
	}
	return v
}

func printErr(cmd *cobra.Command, format string, args ...any) {
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
}
