// Copyright 2026 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package verifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const testPackage = "com.example.cmdattest"

func goodVerdict(nonce string) IntegrityVerdict {
	return IntegrityVerdict{
		RequestDetails: RequestDetails{
			RequestPackageName: testPackage,
			Nonce:              nonce,
		},
		AppIntegrity: AppIntegrity{
			AppRecognitionVerdict: VersionRecognized,
			PackageName:           testPackage,
		},
		DeviceIntegrity: DeviceIntegrity{
			DeviceRecognitionVerdict: []string{MeetsBasicIntegrity, MeetsDeviceIntegrity},
		},
		AccountDetails: AccountDetails{AppLicensingVerdict: Licensed},
	}
}

func TestValidateVerdict(t *testing.T) {
	assert.True(t, ValidateVerdict(goodVerdict(""), testPackage))

	v := goodVerdict("")
	v.DeviceIntegrity.DeviceRecognitionVerdict = []string{MeetsVirtualIntegrity}
	assert.True(t, ValidateVerdict(v, testPackage))

	v = goodVerdict("")
	v.AppIntegrity.AppRecognitionVerdict = VersionUnrecognized
	assert.True(t, ValidateVerdict(v, testPackage))

	v = goodVerdict("")
	v.DeviceIntegrity.DeviceRecognitionVerdict = nil
	assert.False(t, ValidateVerdict(v, testPackage))

	v = goodVerdict("")
	v.AppIntegrity.AppRecognitionVerdict = "UNEVALUATED"
	assert.False(t, ValidateVerdict(v, testPackage))

	v = goodVerdict("")
	v.AccountDetails.AppLicensingVerdict = Unlicensed
	assert.False(t, ValidateVerdict(v, testPackage))

	assert.False(t, ValidateVerdict(goodVerdict(""), "com.example.other"))
}

func TestSummarizeVerdict(t *testing.T) {
	assert.Equal(t,
		"Device integrity: Basic Device\nApp version recognized\nApp licensed\nPackage name match",
		SummarizeVerdict(goodVerdict(""), testPackage),
	)

	v := IntegrityVerdict{}
	assert.Equal(t,
		"Device integrity: Not found\nApp version unevaluated\nApp license unevaluated\nPackage name mismatch",
		SummarizeVerdict(v, testPackage),
	)

	v = goodVerdict("")
	v.DeviceIntegrity.DeviceRecognitionVerdict = []string{MeetsStrongIntegrity, "SOMETHING_ELSE"}
	v.AppIntegrity.AppRecognitionVerdict = VersionUnrecognized
	v.AccountDetails.AppLicensingVerdict = Unlicensed
	assert.Equal(t,
		"Device integrity: Strong\nApp version unrecognized\nApp unlicensed\nPackage name match",
		SummarizeVerdict(v, testPackage),
	)
}

func TestSplitNonce(t *testing.T) {
	random := "00112233445566778899aabbccddeeff"
	digest := "f0eaa5f2126002e02720c36e45644d103980a1959474e3466b935d4b3ad84623"

	for _, nonce := range []string{
		random + digest,
		random + digest + "=",
		random + digest + "==",
		random + digest + `\u003d`,
		random + digest + `=\u003d`,
	} {
		r, d, ok := SplitNonce(nonce)
		assert.True(t, ok, nonce)
		assert.Equal(t, random, r, nonce)
		assert.Equal(t, digest, d, nonce)
	}

	_, _, ok := SplitNonce("0011")
	assert.False(t, ok)

	_, _, ok = SplitNonce("")
	assert.False(t, ok)

	r, d, ok := SplitNonce(random)
	assert.True(t, ok)
	assert.Equal(t, random, r)
	assert.Empty(t, d)
}

func TestMatchDigest(t *testing.T) {
	assert.True(t, MatchDigest(
		"TRANSFER FROM alice TO bob CURRENCY gems QUANTITY 1000",
		"f0eaa5f2126002e02720c36e45644d103980a1959474e3466b935d4b3ad84623",
	))
	assert.False(t, MatchDigest(
		"TRANSFER FROM alice TO bob CURRENCY gems QUANTITY 1001",
		"f0eaa5f2126002e02720c36e45644d103980a1959474e3466b935d4b3ad84623",
	))
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "SUCCESS", OutcomeSuccess.String())
	assert.Equal(t, "INTEGRITY_FAIL", OutcomeIntegrityFail.String())
	assert.Equal(t, "NONCE_MISMATCH", OutcomeNonceMismatch.String())
	assert.Equal(t, "NONCE_EXPIRED", OutcomeNonceExpired.String())
	assert.Equal(t, "NONCE_NOT_FOUND", OutcomeNonceNotFound.String())
	assert.Equal(t, "Outcome(9)", Outcome(9).String())
}
