// Copyright 2026 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package verifier

import (
	"strings"
)

// Values of the decoded integrity verdict that carry integrity signals
const (
	MeetsBasicIntegrity   = "MEETS_BASIC_INTEGRITY"
	MeetsDeviceIntegrity  = "MEETS_DEVICE_INTEGRITY"
	MeetsStrongIntegrity  = "MEETS_STRONG_INTEGRITY"
	MeetsVirtualIntegrity = "MEETS_VIRTUAL_INTEGRITY"

	VersionRecognized   = "PLAY_RECOGNIZED"
	VersionUnrecognized = "UNRECOGNIZED_VERSION"

	Licensed   = "LICENSED"
	Unlicensed = "UNLICENSED"
)

type RequestDetails struct {
	RequestPackageName string `json:"requestPackageName"`
	TimestampMillis    int64  `json:"timestampMillis,string"`
	Nonce              string `json:"nonce"`
}

type AppIntegrity struct {
	AppRecognitionVerdict   string   `json:"appRecognitionVerdict"`
	PackageName             string   `json:"packageName"`
	CertificateSha256Digest []string `json:"certificateSha256Digest"`
	VersionCode             int64    `json:"versionCode,string"`
}

type DeviceIntegrity struct {
	DeviceRecognitionVerdict []string `json:"deviceRecognitionVerdict"`
}

type AccountDetails struct {
	AppLicensingVerdict string `json:"appLicensingVerdict"`
}

// IntegrityVerdict is the decoded content of an integrity token
type IntegrityVerdict struct {
	RequestDetails  RequestDetails  `json:"requestDetails"`
	AppIntegrity    AppIntegrity    `json:"appIntegrity"`
	DeviceIntegrity DeviceIntegrity `json:"deviceIntegrity"`
	AccountDetails  AccountDetails  `json:"accountDetails"`
}

var deviceSignals = map[string]string{
	MeetsBasicIntegrity:   "Basic",
	MeetsDeviceIntegrity:  "Device",
	MeetsStrongIntegrity:  "Strong",
	MeetsVirtualIntegrity: "Virtual",
}

func (o IntegrityVerdict) meetsDeviceIntegrity() bool {
	for _, v := range o.DeviceIntegrity.DeviceRecognitionVerdict {
		if _, ok := deviceSignals[v]; ok {
			return true
		}
	}
	return false
}

// ValidateVerdict accepts a verdict that shows some device integrity signal,
// a recognized (or merely unrecognized, not unevaluated) app version, a
// licensed user and a request made by packageName.
func ValidateVerdict(v IntegrityVerdict, packageName string) bool {
	if !v.meetsDeviceIntegrity() {
		return false
	}

	switch v.AppIntegrity.AppRecognitionVerdict {
	case VersionRecognized, VersionUnrecognized:
	default:
		return false
	}

	if v.AccountDetails.AppLicensingVerdict != Licensed {
		return false
	}

	return v.RequestDetails.RequestPackageName == packageName
}

// SummarizeVerdict renders the verdict as the multi-line diagnostic message
// returned to the client, e.g.
//
//	Device integrity: Basic Device
//	App version recognized
//	App licensed
//	Package name match
func SummarizeVerdict(v IntegrityVerdict, packageName string) string {
	var sb strings.Builder

	var signals []string
	for _, f := range v.DeviceIntegrity.DeviceRecognitionVerdict {
		if s, ok := deviceSignals[f]; ok {
			signals = append(signals, s)
		}
	}

	if len(signals) == 0 {
		sb.WriteString("Device integrity: Not found")
	} else {
		sb.WriteString("Device integrity: " + strings.Join(signals, " "))
	}

	switch v.AppIntegrity.AppRecognitionVerdict {
	case VersionRecognized:
		sb.WriteString("\nApp version recognized")
	case VersionUnrecognized:
		sb.WriteString("\nApp version unrecognized")
	default:
		sb.WriteString("\nApp version unevaluated")
	}

	switch v.AccountDetails.AppLicensingVerdict {
	case Licensed:
		sb.WriteString("\nApp licensed")
	case Unlicensed:
		sb.WriteString("\nApp unlicensed")
	default:
		sb.WriteString("\nApp license unevaluated")
	}

	if v.RequestDetails.RequestPackageName == packageName {
		sb.WriteString("\nPackage name match")
	} else {
		sb.WriteString("\nPackage name mismatch")
	}

	return sb.String()
}
