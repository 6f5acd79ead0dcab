// Copyright 2026 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	apiclient "github.com/veraison/cmdattest"
	"github.com/veraison/cmdattest/auth"
)

type clientFlags struct {
	configFile string
	baseURI    string
	caCerts    []string
	timeout    time.Duration
	authMethod auth.Method
	authParams map[string]string
	logLevel   string
	verbose    bool
}

func (o *clientFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&o.configFile, "config", "c", "", "YAML configuration file")
	fs.StringVar(&o.baseURI, "base-uri", "", "base URI of the verification server")
	fs.StringSliceVar(&o.caCerts, "ca-cert", nil, "extra CA certificate file (PEM) to trust, repeatable")
	fs.DurationVar(&o.timeout, "timeout", 0, "HTTP request timeout")
	fs.Var(&o.authMethod, "auth", "authentication method: "+strings.Join(auth.MethodNames(), "|"))
	fs.StringToStringVar(&o.authParams, "auth-param", nil, "authentication parameter key=value, e.g. username=alice")
	fs.StringVar(&o.logLevel, "log-level", "", "log level: debug|info|warn|error")
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "verbose output (same as --log-level debug)")
}

// config merges the configuration file with the flags that were set
func (o *clientFlags) config(fs *pflag.FlagSet) (*apiclient.Config, error) {
	cfg := &apiclient.Config{}

	if o.configFile != "" {
		var err error
		if cfg, err = apiclient.LoadConfigFile(o.configFile); err != nil {
			return nil, err
		}
	}

	if fs.Changed("base-uri") {
		cfg.BaseURI = o.baseURI
	}

	if fs.Changed("ca-cert") {
		cfg.CACerts = o.caCerts
	}

	if fs.Changed("timeout") {
		cfg.Timeout = o.timeout
	}

	if fs.Changed("auth") {
		cfg.Auth.Method = string(o.authMethod)
	}

	if fs.Changed("auth-param") {
		if cfg.Auth.Params == nil {
			cfg.Auth.Params = make(map[string]interface{})
		}
		for k, v := range o.authParams {
			cfg.Auth.Params[k] = v
		}
	}

	l := log.Logger
	cfg.Logger = &l

	return cfg, nil
}

func configureLogging(level string, verbose bool) error {
	if verbose && level == "" {
		level = "debug"
	}

	if level == "" {
		level = "info"
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q", level)
	}

	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})

	return nil
}

func main() {
	var flags clientFlags

	rootCmd := &cobra.Command{
		Use:          "integrity-client",
		Short:        "Send attested commands to a verification server",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return configureLogging(flags.logLevel, flags.verbose)
		},
	}

	flags.register(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newRunCmd(&flags))
	rootCmd.AddCommand(newNonceCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
