// Copyright 2026 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"crypto/sha256"
	"encoding/hex"
)

// DeriveNonce binds a server challenge to the command being authorized: the
// challenge immediately followed by the lowercase hex SHA-256 digest of the
// command bytes. The verification server splits the nonce at the challenge
// length and recomputes the digest, so the format must not change.
func DeriveNonce(challenge, command string) string {
	return challenge + CommandDigest(command)
}

// CommandDigest returns the lowercase hex SHA-256 digest of command.
func CommandDigest(command string) string {
	sum := sha256.Sum256([]byte(command))
	return hex.EncodeToString(sum[:])
}
