// Copyright 2026 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package verifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/veraison/cmdattest/command"
)

// Diagnostic messages returned for commands that never reach verdict
// validation
const (
	DiagnosticExpressAccepted = "Express token accepted"
	DiagnosticExpressExpired  = "Express token expired"
	DiagnosticDecodeFailed    = "Integrity token could not be decoded"
	DiagnosticNonceMismatch   = "Nonce mismatch"
	DiagnosticNonceExpired    = "Nonce expired"
	DiagnosticNonceNotFound   = "Nonce not found"
)

// Service implements the verification server: it hands out challenges and
// rules on command submissions.
type Service struct {
	store          Store
	decoder        TokenDecoder
	packageName    string
	nonceTimeout   time.Duration
	expressTimeout time.Duration
	log            zerolog.Logger

	now func() time.Time
}

// NewService combines the configuration with a store and a token decoder
func NewService(cfg Config, store Store, decoder TokenDecoder) (*Service, error) {
	if store == nil {
		return nil, errors.New("no store supplied")
	}

	if decoder == nil {
		return nil, errors.New("no token decoder supplied")
	}

	if cfg.PackageName == "" {
		return nil, errors.New("bad configuration: no package name")
	}

	l := log.Logger
	if cfg.Logger != nil {
		l = *cfg.Logger
	}

	nonceTimeout := cfg.NonceTimeout
	if nonceTimeout <= 0 {
		nonceTimeout = DefaultNonceTimeout
	}

	expressTimeout := cfg.ExpressTimeout
	if expressTimeout <= 0 {
		expressTimeout = DefaultExpressTimeout
	}

	return &Service{
		store:          store,
		decoder:        decoder,
		packageName:    cfg.PackageName,
		nonceTimeout:   nonceTimeout,
		expressTimeout: expressTimeout,
		log:            l.With().Str("component", "verifier").Logger(),
		now:            time.Now,
	}, nil
}

// IssueRandom generates and records a fresh challenge
func (o *Service) IssueRandom(ctx context.Context) (string, error) {
	return o.issue(ctx, KindRandom)
}

func (o *Service) issue(ctx context.Context, kind Kind) (string, error) {
	r, err := GenerateRandom()
	if err != nil {
		return "", err
	}

	if err := o.store.Put(ctx, kind, r, o.now()); err != nil {
		return "", err
	}

	o.log.Debug().Str("kind", string(kind)).Str("value", r).Msg("issued")

	return r, nil
}

// take consumes value and reports whether it was issued less than maxAge ago
func (o *Service) take(ctx context.Context, kind Kind, value string, maxAge time.Duration) (found bool, fresh bool, err error) {
	issued, err := o.store.Take(ctx, kind, value)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, false, nil
		}
		return false, false, err
	}

	return true, o.now().Sub(issued) < maxAge, nil
}

// ValidateCommand checks that the verdict was requested for cmd, using a
// challenge issued by this server that has not expired, and that it carries
// the required integrity signals. The challenge is consumed whatever the
// outcome.
func (o *Service) ValidateCommand(ctx context.Context, cmd string, v IntegrityVerdict) (Outcome, error) {
	random, digest, ok := SplitNonce(v.RequestDetails.Nonce)
	if !ok {
		return OutcomeNonceNotFound, nil
	}

	found, fresh, err := o.take(ctx, KindRandom, random, o.nonceTimeout)
	if err != nil {
		return OutcomeNonceNotFound, fmt.Errorf("looking up challenge: %w", err)
	}

	o.log.Debug().
		Str("random", random).
		Str("digest", digest).
		Bool("found", found).
		Msg("nonce split")

	switch {
	case !found:
		return OutcomeNonceNotFound, nil
	case !fresh:
		return OutcomeNonceExpired, nil
	case !MatchDigest(cmd, digest):
		return OutcomeNonceMismatch, nil
	case !ValidateVerdict(v, o.packageName):
		return OutcomeIntegrityFail, nil
	default:
		return OutcomeSuccess, nil
	}
}

// PerformCommand rules on a command submission. The token is first looked up
// as an express token; anything else is decoded as an integrity token. A
// successful verdict always carries a fresh express token.
func (o *Service) PerformCommand(ctx context.Context, req command.Request) (*command.Verdict, error) {
	found, fresh, err := o.take(ctx, KindExpress, req.TokenString, o.expressTimeout)
	if err != nil {
		return nil, fmt.Errorf("looking up express token: %w", err)
	}

	if found {
		if !fresh {
			return rejected(DiagnosticExpressExpired), nil
		}
		return o.accepted(ctx, DiagnosticExpressAccepted)
	}

	v, err := o.decoder.Decode(ctx, req.TokenString)
	if err != nil {
		o.log.Warn().Err(err).Msg("integrity token decoding failed")
		return rejected(DiagnosticDecodeFailed), nil
	}

	outcome, err := o.ValidateCommand(ctx, req.CommandString, *v)
	if err != nil {
		return nil, err
	}

	o.log.Info().
		Str("command", req.CommandString).
		Stringer("outcome", outcome).
		Msg("command validated")

	switch outcome {
	case OutcomeSuccess:
		return o.accepted(ctx, SummarizeVerdict(*v, o.packageName))
	case OutcomeIntegrityFail:
		return rejected(SummarizeVerdict(*v, o.packageName)), nil
	case OutcomeNonceMismatch:
		return rejected(DiagnosticNonceMismatch), nil
	case OutcomeNonceExpired:
		return rejected(DiagnosticNonceExpired), nil
	default:
		return rejected(DiagnosticNonceNotFound), nil
	}
}

func (o *Service) accepted(ctx context.Context, diagnostic string) (*command.Verdict, error) {
	express, err := o.issue(ctx, KindExpress)
	if err != nil {
		return nil, fmt.Errorf("issuing express token: %w", err)
	}

	return &command.Verdict{
		CommandSuccess:    true,
		DiagnosticMessage: diagnostic,
		ExpressToken:      express,
	}, nil
}

func rejected(diagnostic string) *command.Verdict {
	return &command.Verdict{DiagnosticMessage: diagnostic}
}
