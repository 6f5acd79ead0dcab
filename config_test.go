// Copyright 2026 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package apiclient

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veraison/cmdattest/auth"
	"github.com/veraison/cmdattest/command"
	"github.com/veraison/cmdattest/integrity"
)

func writeConfig(t *testing.T, text string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "client.yaml")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o600))

	return path
}

func TestConfig_Configure_ok(t *testing.T) {
	var cfg Config

	err := cfg.Configure(map[string]interface{}{
		"base_uri": "https://verifier.example",
		"ca_certs": []interface{}{"a.pem", "b.pem"},
		"timeout":  "7s",
		"auth": map[string]interface{}{
			"method":   "basic",
			"username": "alice",
			"password": "secret",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "https://verifier.example", cfg.BaseURI)
	assert.Equal(t, []string{"a.pem", "b.pem"}, cfg.CACerts)
	assert.Equal(t, 7*time.Second, cfg.Timeout)
	assert.Equal(t, "basic", cfg.Auth.Method)
	assert.Equal(t, map[string]interface{}{"username": "alice", "password": "secret"}, cfg.Auth.Params)
}

func TestConfig_Configure_unknown_key(t *testing.T) {
	var cfg Config

	err := cfg.Configure(map[string]interface{}{
		"base_uri":  "https://verifier.example",
		"cert_path": "/tmp/ca.pem",
	})
	assert.ErrorContains(t, err, "cert_path")
}

func TestConfig_Configure_bad_timeout(t *testing.T) {
	var cfg Config

	err := cfg.Configure(map[string]interface{}{"timeout": "soon"})
	assert.ErrorContains(t, err, "decoding configuration")
}

func TestLoadConfigFile_ok(t *testing.T) {
	path := writeConfig(t, `
challenge_uri: https://verifier.example/getRandom
command_uri: /v2/performCommand
base_uri: https://verifier.example
timeout: 2s
auth:
  method: passthrough
`)

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	challenge, cmd, err := cfg.Endpoints()
	require.NoError(t, err)
	assert.Equal(t, "https://verifier.example/getRandom", challenge)
	assert.Equal(t, "https://verifier.example/v2/performCommand", cmd)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
}

func TestLoadConfigFile_missing(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "reading configuration")
}

func TestLoadConfigFile_bad_yaml(t *testing.T) {
	path := writeConfig(t, "base_uri: [unterminated\n")

	_, err := LoadConfigFile(path)
	assert.ErrorContains(t, err, "parsing")
}

func TestLoadConfigFile_unknown_key(t *testing.T) {
	path := writeConfig(t, "base_uri: https://verifier.example\nnonce_size: 32\n")

	_, err := LoadConfigFile(path)
	assert.ErrorContains(t, err, "nonce_size")
}

func TestConfig_Endpoints_defaults(t *testing.T) {
	cfg := Config{BaseURI: "https://verifier.example:8443"}

	challenge, cmd, err := cfg.Endpoints()
	require.NoError(t, err)
	assert.Equal(t, "https://verifier.example:8443/getRandom", challenge)
	assert.Equal(t, "https://verifier.example:8443/performCommand", cmd)
}

func TestConfig_Endpoints_no_base(t *testing.T) {
	_, _, err := Config{}.Endpoints()
	assert.EqualError(t, err, "challenge endpoint: neither an explicit URI nor a base URI configured")

	_, _, err = Config{ChallengeURI: "https://verifier.example/getRandom"}.Endpoints()
	assert.EqualError(t, err, "command endpoint: neither an explicit URI nor a base URI configured")

	_, _, err = Config{
		ChallengeURI: "https://verifier.example/getRandom",
		CommandURI:   "/performCommand",
	}.Endpoints()
	assert.EqualError(t, err, "command endpoint: relative reference URI with no base URI")
}

func TestConfig_NewClient(t *testing.T) {
	cfg := Config{
		Timeout: 3 * time.Second,
		Auth: AuthConfig{
			Method: "basic",
			Params: map[string]interface{}{"username": "alice", "password": "secret"},
		},
	}

	c, err := cfg.NewClient()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, c.HTTPClient.Timeout)
	assert.IsType(t, &auth.BasicAuthenticator{}, c.Auth)
}

func TestConfig_NewClient_bad_auth(t *testing.T) {
	_, err := Config{Auth: AuthConfig{Method: "kerberos"}}.NewClient()
	assert.EqualError(t, err, `unexpected Method "kerberos"`)

	_, err = Config{Auth: AuthConfig{Method: "basic"}}.NewClient()
	assert.EqualError(t, err, "configuring basic authentication: missing username")
}

func TestConfig_NewClient_bad_ca(t *testing.T) {
	cfg := Config{CACerts: []string{filepath.Join(t.TempDir(), "missing.pem")}}

	_, err := cfg.NewClient()
	assert.ErrorContains(t, err, "configuring TLS transport")
}

func TestNew_bad_config(t *testing.T) {
	_, err := New(Config{}, integrity.NewTestProvider("tok"))
	assert.ErrorContains(t, err, "bad configuration: challenge endpoint")

	_, err = New(Config{BaseURI: "https://verifier.example"}, nil)
	assert.EqualError(t, err, "bad configuration: no integrity provider")
}

func TestNew_end_to_end(t *testing.T) {
	var authz []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz = append(authz, r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/getRandom":
			_, _ = w.Write([]byte(`{"random":"00112233445566778899aabbccddeeff"}`))
		case "/performCommand":
			_, _ = w.Write([]byte(`{"commandSuccess":true,"diagnosticMessage":"ok","expressToken":"E1"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	var cfg Config
	require.NoError(t, cfg.Configure(map[string]interface{}{
		"base_uri": srv.URL,
		"auth": map[string]interface{}{
			"method":   "basic",
			"username": "alice",
			"password": "secret",
		},
	}))

	p := integrity.NewTestProvider("tok")

	s, err := New(cfg, p)
	require.NoError(t, err)
	defer s.Close()

	require.Equal(t, command.ResultPending, s.BeginAttestedCommand("PING"))
	assert.Equal(t, command.StatusResponseReady, s.Tick())
	assert.Equal(t, command.ResultSuccess, s.Result())
	assert.Equal(t, "ok", s.Summary())

	assert.Equal(t, []string{"Basic YWxpY2U6c2VjcmV0", "Basic YWxpY2U6c2VjcmV0"}, authz)
	assert.Equal(t, 0, p.Outstanding())
}
