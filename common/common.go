// Copyright 2021 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

const JSONMediaType = "application/json"

func ResolveReference(baseURI, referenceURI string) (string, error) {
	u, err := url.Parse(referenceURI)
	if err != nil {
		return "", fmt.Errorf("parsing reference URI: %w", err)
	}

	if u.IsAbs() {
		return referenceURI, nil
	}

	if baseURI == "" {
		return "", errors.New("relative reference URI with no base URI")
	}

	base, err := url.Parse(baseURI)
	if err != nil {
		return "", fmt.Errorf("parsing base URI: %w", err)
	}

	return base.ResolveReference(u).String(), nil
}

// CheckAbsoluteURI makes sure uri parses and is in absolute form
func CheckAbsoluteURI(uri string) error {
	u, err := url.Parse(uri)
	if err != nil {
		return fmt.Errorf("malformed URI: %w", err)
	}

	if !u.IsAbs() {
		return fmt.Errorf("URI is not absolute: %q", uri)
	}

	return nil
}

func DecodeJSONBody(res *http.Response, j interface{}) error {
	defer res.Body.Close()

	return json.NewDecoder(res.Body).Decode(&j)
}
