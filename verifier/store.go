// Copyright 2026 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package verifier

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// RandomByteCount is the number of random bytes in a challenge. The hex
// encoded challenge is twice as long.
const RandomByteCount = 16

// ErrNotFound is returned by Store.Take when the value was never issued or
// has already been taken.
var ErrNotFound = errors.New("not found")

// Kind separates the value spaces kept in a Store
type Kind string

const (
	KindRandom  Kind = "random"
	KindExpress Kind = "express"
)

// Store keeps issued single-use values together with their issue time.
type Store interface {
	// Put records value as issued at the given time
	Put(ctx context.Context, kind Kind, value string, issued time.Time) error
	// Take removes value and returns its issue time. A value can be taken
	// once; later calls return ErrNotFound.
	Take(ctx context.Context, kind Kind, value string) (time.Time, error)
	Close() error
}

// GenerateRandom returns RandomByteCount bytes from the system CSPRNG,
// lowercase hex encoded.
func GenerateRandom() (string, error) {
	b := make([]byte, RandomByteCount)

	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}

	return hex.EncodeToString(b), nil
}
