// Copyright 2023 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0
package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
)

// BasicAuthenticator implements HTTP Basic authentication (RFC 7617). The
// password may be given inline, or read from an environment variable
// (password_env) or a file (password_file) so that it stays out of the
// client configuration.
type BasicAuthenticator struct {
	Username string
	Password string
}

func (o *BasicAuthenticator) Configure(cfg map[string]interface{}) error {
	decoded := struct {
		Username     string                 `mapstructure:"username"`
		Password     string                 `mapstructure:"password"`
		PasswordEnv  string                 `mapstructure:"password_env"`
		PasswordFile string                 `mapstructure:"password_file"`
		Rest         map[string]interface{} `mapstructure:",remain"`
	}{}

	if err := decodeConfig(cfg, &decoded, &decoded.Rest); err != nil {
		return err
	}

	password, err := resolveSecret(decoded.Password, decoded.PasswordEnv, decoded.PasswordFile)
	if err != nil {
		return err
	}

	o.Username = decoded.Username
	o.Password = password

	return o.validate()
}

func (o *BasicAuthenticator) EncodeHeader() (string, error) {
	if err := o.validate(); err != nil {
		return "", err
	}

	return "Basic " + base64.StdEncoding.EncodeToString(
		[]byte(o.Username+":"+o.Password),
	), nil
}

func (o *BasicAuthenticator) validate() error {
	switch {
	case o.Username == "":
		return errors.New("missing username")
	case strings.Contains(o.Username, ":"):
		return errors.New("username must not contain ':'")
	case o.Password == "":
		return errors.New("missing password")
	}

	return nil
}

// resolveSecret returns the first non-empty of an inline value, the named
// environment variable and the contents of the named file.
func resolveSecret(inline, env, file string) (string, error) {
	if inline != "" {
		return inline, nil
	}

	if env != "" {
		v, ok := os.LookupEnv(env)
		if !ok {
			return "", fmt.Errorf("password_env: %s is not set", env)
		}
		return v, nil
	}

	if file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("password_file: %w", err)
		}
		return strings.TrimRight(string(b), "\r\n"), nil
	}

	return "", nil
}
