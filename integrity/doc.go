// Copyright 2026 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

/*
Package integrity models the attestation service that mints integrity tokens
bound to a caller-chosen nonce.

The service is reached through the Provider interface. A token request is a
two-step affair: CreateRequest binds the nonce, RequestToken starts the
exchange, and the resulting response handle is then polled with PollStatus
until the token can be read with Token. Both handles belong to the caller
until they are given back with ReleaseRequest and ReleaseResponse.

Most callers should not juggle the handles themselves. Request performs both
steps and returns a Pending value that owns the handles:

	p, err := integrity.Request(provider, nonce)
	if err != nil {
		// nothing to release
	}
	defer p.Release()

	status, err := p.Poll()

Providers implemented in Go can keep their per-request state in a Registry,
which hands out the opaque numeric handles and tracks what is still
outstanding. ExecProvider delegates token generation to an external program,
TestProvider is a scriptable stand-in for tests.
*/
package integrity
