// Copyright 2026 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package verifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veraison/cmdattest/command"
)

const testCmd = "TRANSFER FROM alice TO bob CURRENCY gems QUANTITY 1000"

// testDecoder maps integrity tokens to verdicts
type testDecoder map[string]IntegrityVerdict

func (o testDecoder) Decode(_ context.Context, token string) (*IntegrityVerdict, error) {
	v, ok := o[token]
	if !ok {
		return nil, errors.New("undecodable token")
	}
	return &v, nil
}

type testClock struct {
	now time.Time
}

func (o *testClock) Now() time.Time { return o.now }

func newTestService(t *testing.T, dec TokenDecoder) (*Service, *MemoryStore, *testClock) {
	t.Helper()

	nop := zerolog.Nop()
	store := NewMemoryStore()
	clock := &testClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}

	svc, err := NewService(Config{PackageName: testPackage, Logger: &nop}, store, dec)
	require.NoError(t, err)

	svc.now = clock.Now

	return svc, store, clock
}

func TestNewService_bad_args(t *testing.T) {
	_, err := NewService(Config{PackageName: testPackage}, nil, testDecoder{})
	assert.EqualError(t, err, "no store supplied")

	_, err = NewService(Config{PackageName: testPackage}, NewMemoryStore(), nil)
	assert.EqualError(t, err, "no token decoder supplied")

	_, err = NewService(Config{}, NewMemoryStore(), testDecoder{})
	assert.EqualError(t, err, "bad configuration: no package name")
}

func TestNewService_default_timeouts(t *testing.T) {
	svc, _, _ := newTestService(t, testDecoder{})

	assert.Equal(t, DefaultNonceTimeout, svc.nonceTimeout)
	assert.Equal(t, DefaultExpressTimeout, svc.expressTimeout)
}

func TestService_ValidateCommand(t *testing.T) {
	ctx := context.Background()
	svc, store, clock := newTestService(t, testDecoder{})

	issue := func() string {
		r, err := svc.IssueRandom(ctx)
		require.NoError(t, err)
		return r
	}

	r := issue()
	out, err := svc.ValidateCommand(ctx, testCmd, goodVerdict(command.DeriveNonce(r, testCmd)))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, out)

	// the random was consumed
	out, err = svc.ValidateCommand(ctx, testCmd, goodVerdict(command.DeriveNonce(r, testCmd)))
	require.NoError(t, err)
	assert.Equal(t, OutcomeNonceNotFound, out)

	r = issue()
	out, _ = svc.ValidateCommand(ctx, testCmd+"1", goodVerdict(command.DeriveNonce(r, testCmd)))
	assert.Equal(t, OutcomeNonceMismatch, out)

	r = issue()
	bad := goodVerdict(command.DeriveNonce(r, testCmd))
	bad.AccountDetails.AppLicensingVerdict = Unlicensed
	out, _ = svc.ValidateCommand(ctx, testCmd, bad)
	assert.Equal(t, OutcomeIntegrityFail, out)

	r = issue()
	clock.now = clock.now.Add(DefaultNonceTimeout)
	out, _ = svc.ValidateCommand(ctx, testCmd, goodVerdict(command.DeriveNonce(r, testCmd)))
	assert.Equal(t, OutcomeNonceExpired, out)

	out, _ = svc.ValidateCommand(ctx, testCmd, goodVerdict("short"))
	assert.Equal(t, OutcomeNonceNotFound, out)

	out, _ = svc.ValidateCommand(ctx, testCmd, goodVerdict(""))
	assert.Equal(t, OutcomeNonceNotFound, out)

	assert.Equal(t, 0, store.Len())
}

func TestService_ValidateCommand_padded_nonce(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, testDecoder{})

	r, err := svc.IssueRandom(ctx)
	require.NoError(t, err)

	out, err := svc.ValidateCommand(ctx, testCmd, goodVerdict(command.DeriveNonce(r, testCmd)+"="))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, out)
}

func TestService_PerformCommand_integrity_token(t *testing.T) {
	ctx := context.Background()
	dec := testDecoder{}
	svc, store, _ := newTestService(t, dec)

	r, err := svc.IssueRandom(ctx)
	require.NoError(t, err)
	dec["tok"] = goodVerdict(command.DeriveNonce(r, testCmd))

	v, err := svc.PerformCommand(ctx, command.Request{CommandString: testCmd, TokenString: "tok"})
	require.NoError(t, err)

	assert.True(t, v.CommandSuccess)
	assert.Equal(t, SummarizeVerdict(dec["tok"], testPackage), v.DiagnosticMessage)
	assert.Regexp(t, `^[0-9a-f]{32}$`, v.ExpressToken)

	// only the express token is left
	assert.Equal(t, 1, store.Len())
}

func TestService_PerformCommand_rejections(t *testing.T) {
	ctx := context.Background()
	dec := testDecoder{}
	svc, _, clock := newTestService(t, dec)

	r, _ := svc.IssueRandom(ctx)
	noDevice := goodVerdict(command.DeriveNonce(r, testCmd))
	noDevice.DeviceIntegrity.DeviceRecognitionVerdict = nil
	dec["no-device"] = noDevice

	v, err := svc.PerformCommand(ctx, command.Request{CommandString: testCmd, TokenString: "no-device"})
	require.NoError(t, err)
	assert.False(t, v.CommandSuccess)
	assert.Empty(t, v.ExpressToken)
	assert.Contains(t, v.DiagnosticMessage, "Device integrity: Not found")

	r, _ = svc.IssueRandom(ctx)
	dec["mismatch"] = goodVerdict(command.DeriveNonce(r, "SOMETHING ELSE"))
	v, _ = svc.PerformCommand(ctx, command.Request{CommandString: testCmd, TokenString: "mismatch"})
	assert.Equal(t, &command.Verdict{DiagnosticMessage: DiagnosticNonceMismatch}, v)

	dec["unknown"] = goodVerdict(command.DeriveNonce("ffffffffffffffffffffffffffffffff", testCmd))
	v, _ = svc.PerformCommand(ctx, command.Request{CommandString: testCmd, TokenString: "unknown"})
	assert.Equal(t, &command.Verdict{DiagnosticMessage: DiagnosticNonceNotFound}, v)

	r, _ = svc.IssueRandom(ctx)
	dec["late"] = goodVerdict(command.DeriveNonce(r, testCmd))
	clock.now = clock.now.Add(time.Hour)
	v, _ = svc.PerformCommand(ctx, command.Request{CommandString: testCmd, TokenString: "late"})
	assert.Equal(t, &command.Verdict{DiagnosticMessage: DiagnosticNonceExpired}, v)

	v, err = svc.PerformCommand(ctx, command.Request{CommandString: testCmd, TokenString: "garbage"})
	require.NoError(t, err)
	assert.Equal(t, &command.Verdict{DiagnosticMessage: DiagnosticDecodeFailed}, v)
}

func TestService_PerformCommand_express(t *testing.T) {
	ctx := context.Background()
	dec := testDecoder{}
	svc, _, clock := newTestService(t, dec)

	r, _ := svc.IssueRandom(ctx)
	dec["tok"] = goodVerdict(command.DeriveNonce(r, testCmd))

	first, err := svc.PerformCommand(ctx, command.Request{CommandString: testCmd, TokenString: "tok"})
	require.NoError(t, err)
	require.True(t, first.CommandSuccess)

	second, err := svc.PerformCommand(ctx, command.Request{CommandString: "EXPRESS", TokenString: first.ExpressToken})
	require.NoError(t, err)
	assert.True(t, second.CommandSuccess)
	assert.Equal(t, DiagnosticExpressAccepted, second.DiagnosticMessage)
	assert.NotEqual(t, first.ExpressToken, second.ExpressToken)

	// single use: the spent token is now treated as an integrity token
	replay, err := svc.PerformCommand(ctx, command.Request{CommandString: "EXPRESS", TokenString: first.ExpressToken})
	require.NoError(t, err)
	assert.False(t, replay.CommandSuccess)
	assert.Equal(t, DiagnosticDecodeFailed, replay.DiagnosticMessage)

	clock.now = clock.now.Add(DefaultExpressTimeout)
	expired, err := svc.PerformCommand(ctx, command.Request{CommandString: "EXPRESS", TokenString: second.ExpressToken})
	require.NoError(t, err)
	assert.Equal(t, &command.Verdict{DiagnosticMessage: DiagnosticExpressExpired}, expired)
}

type failingStore struct {
	*MemoryStore
}

func (o *failingStore) Take(context.Context, Kind, string) (time.Time, error) {
	return time.Time{}, errors.New("connection refused")
}

func TestService_PerformCommand_store_error(t *testing.T) {
	nop := zerolog.Nop()
	svc, err := NewService(
		Config{PackageName: testPackage, Logger: &nop},
		&failingStore{MemoryStore: NewMemoryStore()},
		testDecoder{},
	)
	require.NoError(t, err)

	_, err = svc.PerformCommand(context.Background(), command.Request{CommandString: testCmd, TokenString: "tok"})
	assert.EqualError(t, err, "looking up express token: connection refused")
}
