// Copyright 2023 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"fmt"
	"sort"
)

// Method is the enumeration of the ways the client can authenticate to the
// verification server. It implements the pflag.Value interface so that it
// can be used directly as a command line flag.
type Method string

const (
	MethodPassthrough Method = "passthrough"
	MethodBasic       Method = "basic"
	MethodOauth2      Method = "oauth2"
)

// accepted spellings, including the config file's "none"
var methodNames = map[string]Method{
	"":            MethodPassthrough,
	"none":        MethodPassthrough,
	"passthrough": MethodPassthrough,
	"basic":       MethodBasic,
	"oauth2":      MethodOauth2,
}

// ParseMethod maps a configuration or flag value onto a Method.
func ParseMethod(v string) (Method, error) {
	m, ok := methodNames[v]
	if !ok {
		return "", fmt.Errorf("unexpected Method %q", v)
	}
	return m, nil
}

// MethodNames lists the non-empty spellings ParseMethod accepts.
func MethodNames() []string {
	names := make([]string, 0, len(methodNames))
	for k := range methodNames {
		if k != "" {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names
}

func (o *Method) String() string {
	if *o == "" {
		return string(MethodPassthrough)
	}
	return string(*o)
}

func (o *Method) Set(v string) error {
	m, err := ParseMethod(v)
	if err != nil {
		return err
	}
	*o = m
	return nil
}

// Type is the name pflag shows in usage output.
func (o *Method) Type() string {
	return "Method"
}
