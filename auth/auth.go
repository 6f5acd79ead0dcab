// Copyright 2023 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0
package auth

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// IAuthenticator supplies the value of the Authorization header attached to
// requests sent to the verification server.
type IAuthenticator interface {
	Configure(cfg map[string]interface{}) error
	EncodeHeader() (string, error)
}

// New returns a configured authenticator for the given method.
func New(m Method, cfg map[string]interface{}) (IAuthenticator, error) {
	m, err := ParseMethod(string(m))
	if err != nil {
		return nil, err
	}

	var a IAuthenticator

	switch m {
	case MethodPassthrough:
		a = &NullAuthenticator{}
	case MethodBasic:
		a = &BasicAuthenticator{}
	case MethodOauth2:
		a = &Oauth2Authenticator{}
	}

	if err := a.Configure(cfg); err != nil {
		return nil, fmt.Errorf("configuring %s authentication: %w", string(m), err)
	}

	return a, nil
}

// decodeConfig fills target from cfg. Keys target does not know about end up
// in rest (the target's `mapstructure:",remain"` field) and are rejected.
func decodeConfig(cfg map[string]interface{}, target interface{}, rest *map[string]interface{}) error {
	if err := mapstructure.Decode(cfg, target); err != nil {
		return err
	}

	return rejectFields(*rest)
}

func rejectFields(rest map[string]interface{}) error {
	if len(rest) == 0 {
		return nil
	}

	unexpected := make([]string, 0, len(rest))
	for k := range rest {
		unexpected = append(unexpected, k)
	}
	sort.Strings(unexpected)

	return fmt.Errorf("unexpected fields in config: %s", strings.Join(unexpected, ", "))
}
