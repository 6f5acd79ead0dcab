// Copyright 2026 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package verifier

import (
	"fmt"
	"strings"

	"github.com/veraison/cmdattest/command"
)

// Outcome is the result of checking an integrity verdict against the command
// it was requested for.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeIntegrityFail
	OutcomeNonceMismatch
	OutcomeNonceExpired
	OutcomeNonceNotFound
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "SUCCESS"
	case OutcomeIntegrityFail:
		return "INTEGRITY_FAIL"
	case OutcomeNonceMismatch:
		return "NONCE_MISMATCH"
	case OutcomeNonceExpired:
		return "NONCE_EXPIRED"
	case OutcomeNonceNotFound:
		return "NONCE_NOT_FOUND"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// paddingSuffixes are stripped from the end of a decoded nonce. The token
// service may re-pad the web-safe nonce, sometimes with an escaped '='.
var paddingSuffixes = []string{"=", `\u003d`}

// SplitNonce separates a nonce built by command.DeriveNonce into the server
// random and the command digest. ok is false when the nonce is too short to
// contain a random.
func SplitNonce(nonce string) (random string, digest string, ok bool) {
	for trimmed := true; trimmed; {
		trimmed = false
		for _, s := range paddingSuffixes {
			if strings.HasSuffix(nonce, s) {
				nonce = strings.TrimSuffix(nonce, s)
				trimmed = true
			}
		}
	}

	n := RandomByteCount * 2
	if len(nonce) < n {
		return "", "", false
	}

	return nonce[:n], nonce[n:], true
}

// MatchDigest reports whether digest is the command digest of cmd
func MatchDigest(cmd, digest string) bool {
	return command.CommandDigest(cmd) == digest
}
