// Copyright 2026 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package apiclient

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog"
	"github.com/veraison/cmdattest/auth"
	"github.com/veraison/cmdattest/command"
	"github.com/veraison/cmdattest/common"
	"github.com/veraison/cmdattest/integrity"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultChallengePath is resolved against BaseURI when ChallengeURI is
	// not set
	DefaultChallengePath = "/getRandom"
	// DefaultCommandPath is resolved against BaseURI when CommandURI is not
	// set
	DefaultCommandPath = "/performCommand"
)

// AuthConfig selects the authentication method and carries its parameters,
// e.g. username and password for "basic"
type AuthConfig struct {
	Method string                 `mapstructure:"method"`
	Params map[string]interface{} `mapstructure:",remain"`
}

// Config is the client configuration, typically loaded from a YAML file:
//
//	base_uri: https://verifier.example
//	ca_certs: [ /etc/ssl/verifier-ca.pem ]
//	timeout: 10s
//	auth:
//	  method: basic
//	  username: alice
//	  password: secret
type Config struct {
	BaseURI      string        `mapstructure:"base_uri"`
	ChallengeURI string        `mapstructure:"challenge_uri"`
	CommandURI   string        `mapstructure:"command_uri"`
	CACerts      []string      `mapstructure:"ca_certs"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Auth         AuthConfig    `mapstructure:"auth"`

	Logger *zerolog.Logger `mapstructure:"-"`
}

// Configure fills the Config from a generic map. Unknown keys are an error.
func (o *Config) Configure(m map[string]interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  mapstructure.StringToTimeDurationHookFunc(),
		ErrorUnused: true,
		Result:      o,
	})
	if err != nil {
		return err
	}

	if err := dec.Decode(m); err != nil {
		return fmt.Errorf("decoding configuration: %w", err)
	}

	return nil
}

// LoadConfigFile reads a YAML configuration file
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}

	var m map[string]interface{}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	var cfg Config
	if err := cfg.Configure(m); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &cfg, nil
}

// Endpoints returns the absolute challenge and command URIs. Relative URIs
// (and the default paths) are resolved against BaseURI.
func (o Config) Endpoints() (challenge string, cmd string, err error) {
	challenge, err = o.endpoint(o.ChallengeURI, DefaultChallengePath)
	if err != nil {
		return "", "", fmt.Errorf("challenge endpoint: %w", err)
	}

	cmd, err = o.endpoint(o.CommandURI, DefaultCommandPath)
	if err != nil {
		return "", "", fmt.Errorf("command endpoint: %w", err)
	}

	return challenge, cmd, nil
}

func (o Config) endpoint(uri, def string) (string, error) {
	if uri == "" {
		if o.BaseURI == "" {
			return "", errors.New("neither an explicit URI nor a base URI configured")
		}
		uri = def
	}

	resolved, err := common.ResolveReference(o.BaseURI, uri)
	if err != nil {
		return "", err
	}

	if err := common.CheckAbsoluteURI(resolved); err != nil {
		return "", err
	}

	return resolved, nil
}

// NewClient builds the HTTP(s) transport described by the configuration
func (o Config) NewClient() (*common.Client, error) {
	var m auth.Method
	if err := m.Set(o.Auth.Method); err != nil {
		return nil, err
	}

	a, err := auth.New(m, o.Auth.Params)
	if err != nil {
		return nil, err
	}

	c, err := common.NewClientFromConfig(common.ClientConfig{
		CACerts: o.CACerts,
		Timeout: o.Timeout,
		Auth:    a,
	})
	if err != nil {
		return nil, err
	}

	c.Logger = o.Logger

	return c, nil
}

// New wires the transport described by cfg and the supplied integrity
// provider into an idle command.Session
func New(cfg Config, provider integrity.Provider) (*command.Session, error) {
	challenge, cmd, err := cfg.Endpoints()
	if err != nil {
		return nil, fmt.Errorf("bad configuration: %w", err)
	}

	client, err := cfg.NewClient()
	if err != nil {
		return nil, fmt.Errorf("bad configuration: %w", err)
	}

	return command.NewSession(command.SessionConfig{
		ChallengeURI: challenge,
		CommandURI:   cmd,
		Transport:    client,
		Provider:     provider,
		Logger:       cfg.Logger,
	})
}
