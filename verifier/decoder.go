// Copyright 2026 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package verifier

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	play "google.golang.org/api/playintegrity/v1"
)

// TokenDecoder turns an opaque integrity token into its verdict
type TokenDecoder interface {
	Decode(ctx context.Context, token string) (*IntegrityVerdict, error)
}

// DecoderFunc adapts a function to the TokenDecoder interface
type DecoderFunc func(ctx context.Context, token string) (*IntegrityVerdict, error)

func (f DecoderFunc) Decode(ctx context.Context, token string) (*IntegrityVerdict, error) {
	return f(ctx, token)
}

// PlayIntegrityDecoder decodes tokens with the Play Integrity API
// decodeIntegrityToken call.
type PlayIntegrityDecoder struct {
	PackageName string
	svc         *play.Service
}

// NewPlayIntegrityDecoder authenticates to the Play Integrity API with the
// service account key in credentialsFile, or with the application default
// credentials when credentialsFile is empty.
func NewPlayIntegrityDecoder(
	ctx context.Context,
	packageName string,
	credentialsFile string,
	opts ...option.ClientOption,
) (*PlayIntegrityDecoder, error) {
	if packageName == "" {
		return nil, errors.New("no package name supplied")
	}

	var (
		creds *google.Credentials
		err   error
	)

	if credentialsFile != "" {
		data, rerr := os.ReadFile(credentialsFile)
		if rerr != nil {
			return nil, fmt.Errorf("reading credentials: %w", rerr)
		}
		creds, err = google.CredentialsFromJSON(ctx, data, play.PlayintegrityScope)
	} else {
		creds, err = google.FindDefaultCredentials(ctx, play.PlayintegrityScope)
	}
	if err != nil {
		return nil, fmt.Errorf("loading Google credentials: %w", err)
	}

	opts = append([]option.ClientOption{option.WithTokenSource(creds.TokenSource)}, opts...)

	svc, err := play.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("playintegrity.NewService: %w", err)
	}

	return &PlayIntegrityDecoder{PackageName: packageName, svc: svc}, nil
}

func (o *PlayIntegrityDecoder) Decode(ctx context.Context, token string) (*IntegrityVerdict, error) {
	resp, err := o.svc.V1.DecodeIntegrityToken(
		o.PackageName,
		&play.DecodeIntegrityTokenRequest{IntegrityToken: token},
	).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("decodeIntegrityToken: %w", err)
	}

	if resp.TokenPayloadExternal == nil {
		return nil, errors.New("empty token payload")
	}

	return fromTokenPayload(resp.TokenPayloadExternal), nil
}

func fromTokenPayload(pl *play.TokenPayloadExternal) *IntegrityVerdict {
	var v IntegrityVerdict

	if rd := pl.RequestDetails; rd != nil {
		v.RequestDetails = RequestDetails{
			RequestPackageName: rd.RequestPackageName,
			TimestampMillis:    rd.TimestampMillis,
			Nonce:              rd.Nonce,
		}
	}

	if ai := pl.AppIntegrity; ai != nil {
		v.AppIntegrity = AppIntegrity{
			AppRecognitionVerdict:   ai.AppRecognitionVerdict,
			PackageName:             ai.PackageName,
			CertificateSha256Digest: ai.CertificateSha256Digest,
			VersionCode:             ai.VersionCode,
		}
	}

	if di := pl.DeviceIntegrity; di != nil {
		v.DeviceIntegrity.DeviceRecognitionVerdict = di.DeviceRecognitionVerdict
	}

	if ad := pl.AccountDetails; ad != nil {
		v.AccountDetails.AppLicensingVerdict = ad.AppLicensingVerdict
	}

	return &v
}
