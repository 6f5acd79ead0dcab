// Copyright 2023 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0
package auth

// NullAuthenticator sends no Authorization header. It is used when the
// verification server is reachable without credentials, and refuses any
// parameter so that leftover credentials are not silently ignored.
type NullAuthenticator struct{}

func (o *NullAuthenticator) Configure(cfg map[string]interface{}) error {
	return rejectFields(cfg)
}

func (o *NullAuthenticator) EncodeHeader() (string, error) {
	return "", nil
}
