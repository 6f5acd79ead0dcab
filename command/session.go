// Copyright 2026 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/veraison/cmdattest/common"
	"github.com/veraison/cmdattest/integrity"
)

// ErrCanceled is reported by LastError after Cancel abandoned a flow.
var ErrCanceled = errors.New("command flow canceled")

// Transport is the blocking HTTP exchange used to talk to the verification
// server. common.Client implements it.
type Transport interface {
	Get(uri string) ([]byte, error)
	Post(uri string, body []byte) ([]byte, error)
}

// Status drives which Session operations are legal
type Status int

const (
	StatusIdle Status = iota
	StatusAwaitingToken
	StatusResponseReady
)

func (o Status) String() string {
	switch o {
	case StatusIdle:
		return "IDLE"
	case StatusAwaitingToken:
		return "AWAITING_TOKEN"
	case StatusResponseReady:
		return "RESPONSE_READY"
	default:
		return fmt.Sprintf("Status(%d)", int(o))
	}
}

// Result is the outcome of the most recently completed operation. Negative
// values are failures.
type Result int

const (
	ResultSuccess          Result = 0
	ResultNone             Result = 1
	ResultPending          Result = 2
	ResultNetworkError     Result = -1
	ResultInvalidChallenge Result = -2
	ResultInvalidResult    Result = -3
	ResultRejectedVerdict  Result = -4
)

func (o Result) String() string {
	switch o {
	case ResultSuccess:
		return "SUCCESS"
	case ResultNone:
		return "NONE"
	case ResultPending:
		return "PENDING"
	case ResultNetworkError:
		return "NETWORK_ERROR"
	case ResultInvalidChallenge:
		return "INVALID_CHALLENGE"
	case ResultInvalidResult:
		return "INVALID_RESULT"
	case ResultRejectedVerdict:
		return "REJECTED_VERDICT"
	default:
		return fmt.Sprintf("Result(%d)", int(o))
	}
}

// Failed reports whether the result is one of the failure outcomes
func (o Result) Failed() bool {
	return o < 0
}

// SessionConfig holds the configuration of a Session
type SessionConfig struct {
	ChallengeURI string             // URI of the challenge ("/getRandom") endpoint
	CommandURI   string             // URI of the command ("/performCommand") endpoint
	Transport    Transport          // HTTP(s) transport, defaults to common.NewClient()
	Provider     integrity.Provider // source of integrity tokens
	Logger       *zerolog.Logger    // defaults to the global zerolog logger
}

// SetChallengeURI sets the challenge endpoint
func (cfg *SessionConfig) SetChallengeURI(uri string) error {
	if err := common.CheckAbsoluteURI(uri); err != nil {
		return fmt.Errorf("challenge endpoint: %w", err)
	}
	cfg.ChallengeURI = uri
	return nil
}

// SetCommandURI sets the command endpoint
func (cfg *SessionConfig) SetCommandURI(uri string) error {
	if err := common.CheckAbsoluteURI(uri); err != nil {
		return fmt.Errorf("command endpoint: %w", err)
	}
	cfg.CommandURI = uri
	return nil
}

// SetTransport sets the HTTP(s) transport
func (cfg *SessionConfig) SetTransport(t Transport) error {
	if t == nil {
		return errors.New("no transport supplied")
	}
	cfg.Transport = t
	return nil
}

// SetProvider sets the integrity token provider
func (cfg *SessionConfig) SetProvider(p integrity.Provider) error {
	if p == nil {
		return errors.New("no integrity provider supplied")
	}
	cfg.Provider = p
	return nil
}

// check makes sure that the config object is in good shape
func (cfg SessionConfig) check() error {
	if cfg.ChallengeURI == "" {
		return errors.New("bad configuration: no challenge endpoint")
	}

	if cfg.CommandURI == "" {
		return errors.New("bad configuration: no command endpoint")
	}

	if cfg.Provider == nil {
		return errors.New("bad configuration: no integrity provider")
	}

	// It's OK if we don't have a transport at this point in time; the default
	// one is attached by NewSession.

	return nil
}

// Session runs the attested command protocol on behalf of a single client.
//
// A flow starts with BeginAttestedCommand, which fetches a fresh challenge,
// binds it to the command in a nonce and asks the provider for a token. The
// caller then invokes Tick on a fixed cadence; once the token is available
// Tick submits it together with the command and the session moves to
// StatusResponseReady. After a successful verdict the server-issued express
// token lets BeginExpressCommand skip the attestation step.
//
// Operations are expected to be issued serially by one caller, but a Session
// is safe for concurrent use: every operation runs under the session lock.
type Session struct {
	mu  sync.Mutex
	cfg SessionConfig
	log *zerolog.Logger

	status  Status
	result  Result
	lastErr error

	challenge    string
	nonce        string
	command      string
	summary      string
	expressToken string
	expressValid bool

	pending *integrity.Pending
}

// NewSession validates cfg and returns an idle Session
func NewSession(cfg SessionConfig) (*Session, error) {
	if err := cfg.check(); err != nil {
		return nil, err
	}

	// Attach the default client if the user hasn't supplied one
	if cfg.Transport == nil {
		cfg.Transport = common.NewClient()
	}

	l := cfg.Logger
	if l == nil {
		l = &log.Logger
	}

	sl := l.With().Str("component", "command-session").Logger()

	return &Session{
		cfg:    cfg,
		log:    &sl,
		status: StatusIdle,
		result: ResultNone,
	}, nil
}

// FetchChallenge obtains a fresh challenge from the server. Any previously
// held challenge is discarded first. It does not change the session status.
func (o *Session) FetchChallenge() Result {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.fetchChallenge() {
		o.result = ResultNone
	}

	return o.result
}

// BeginAttestedCommand starts the full flow for command. While a token
// request is already in flight it does nothing but report ResultPending.
func (o *Session) BeginAttestedCommand(command string) Result {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.status == StatusAwaitingToken {
		o.log.Warn().Msg("token request already in flight")
		o.result = ResultPending
		return o.result
	}

	if !o.fetchChallenge() {
		if o.result == ResultNetworkError {
			o.status = StatusIdle
		}
		return o.result
	}

	o.nonce = DeriveNonce(o.challenge, command)

	p, err := integrity.Request(o.cfg.Provider, o.nonce)
	if err != nil {
		o.status = StatusIdle
		o.fail(ResultNetworkError, fmt.Errorf("integrity token request rejected: %w", err))
		return o.result
	}

	o.pending = p
	o.command = command
	o.status = StatusAwaitingToken
	o.result = ResultPending
	o.lastErr = nil

	o.log.Debug().Str("nonce", o.nonce).Msg("integrity token requested")

	return o.result
}

// BeginExpressCommand submits command with the express token obtained from
// the last successful verdict, skipping attestation. Without a valid express
// token, or while a token request is in flight, it does nothing.
func (o *Session) BeginExpressCommand(command string) Result {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.status == StatusAwaitingToken {
		o.log.Warn().Msg("token request in flight, express command ignored")
		return o.result
	}

	if !o.expressValid {
		o.log.Warn().Msg("no express token held, express command ignored")
		return o.result
	}

	o.submit(command, o.expressToken)
	o.status = StatusResponseReady

	return o.result
}

// Tick advances an in-flight flow without blocking on the provider. When the
// token is ready it is submitted to the server together with the command.
func (o *Session) Tick() Status {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.status != StatusAwaitingToken {
		return o.status
	}

	s, err := o.pending.Poll()
	if err != nil {
		o.abort(fmt.Errorf("polling integrity token: %w", err))
		return o.status
	}

	switch s {
	case integrity.StatusInProgress:
		return o.status
	case integrity.StatusCompleted:
		token, err := o.pending.Token()
		if err != nil {
			o.abort(fmt.Errorf("retrieving integrity token: %w", err))
			return o.status
		}

		o.releasePending()
		o.submit(o.command, token)
		o.status = StatusResponseReady
	default:
		o.abort(fmt.Errorf("integrity provider reported status %s", s))
	}

	return o.status
}

// SubmitToServer sends command and token to the server and records the
// verdict. It is refused with ResultPending while a token request is in
// flight.
func (o *Session) SubmitToServer(command, token string) Result {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.status == StatusAwaitingToken {
		o.result = ResultPending
		return o.result
	}

	return o.submit(command, token)
}

// Cancel abandons an in-flight token request, giving the provider handles
// back and returning the session to StatusIdle. The express token and the
// summary are kept. Cancel is a no-op when nothing is in flight.
func (o *Session) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.cancel()
}

// Close cancels any in-flight flow and closes the provider if it holds
// resources of its own.
func (o *Session) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.cancel()

	if c, ok := o.cfg.Provider.(io.Closer); ok {
		return c.Close()
	}

	return nil
}

// Status returns the current session status
func (o *Session) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// Result returns the outcome of the most recently completed operation
func (o *Session) Result() Result {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.result
}

// LastError returns the cause of the last failed operation, if any
func (o *Session) LastError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// Challenge returns the challenge obtained by the last successful fetch
func (o *Session) Challenge() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.challenge
}

// Nonce returns the nonce bound to the last token request
func (o *Session) Nonce() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.nonce
}

// Summary returns the diagnostic message of the last verdict
func (o *Session) Summary() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.summary
}

// ExpressToken returns the express token if one may currently be used
func (o *Session) ExpressToken() (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.expressValid {
		return "", false
	}

	return o.expressToken, true
}

func (o *Session) fetchChallenge() bool {
	o.challenge = ""

	body, err := o.cfg.Transport.Get(o.cfg.ChallengeURI)
	if err != nil {
		o.fail(ResultNetworkError, fmt.Errorf("fetching challenge: %w", err))
		return false
	}

	random, err := parseChallenge(body)
	if err != nil {
		o.fail(ResultInvalidChallenge, err)
		return false
	}

	o.challenge = random
	o.lastErr = nil

	return true
}

func (o *Session) submit(command, token string) Result {
	payload, err := json.Marshal(Request{CommandString: command, TokenString: token})
	if err != nil {
		o.fail(ResultInvalidResult, fmt.Errorf("encoding command request: %w", err))
		return o.result
	}

	body, err := o.cfg.Transport.Post(o.cfg.CommandURI, payload)
	if err != nil {
		o.fail(ResultNetworkError, fmt.Errorf("submitting command: %w", err))
		return o.result
	}

	v, err := parseVerdict(body)
	if err != nil {
		o.fail(ResultInvalidResult, err)
		return o.result
	}

	o.summary = v.DiagnosticMessage
	o.expressToken = v.ExpressToken

	if v.CommandSuccess {
		o.expressValid = true
		o.result = ResultSuccess
		o.lastErr = nil
	} else {
		o.expressValid = false
		o.result = ResultRejectedVerdict
		o.lastErr = fmt.Errorf("command rejected: %s", v.DiagnosticMessage)
	}

	o.log.Info().
		Stringer("result", o.result).
		Str("summary", v.DiagnosticMessage).
		Msg("verdict received")

	return o.result
}

func (o *Session) abort(err error) {
	o.releasePending()
	o.status = StatusIdle
	o.fail(ResultNetworkError, err)
}

func (o *Session) cancel() {
	if o.status != StatusAwaitingToken {
		return
	}

	o.releasePending()
	o.status = StatusIdle
	o.result = ResultNone
	o.lastErr = ErrCanceled

	o.log.Info().Msg("command flow canceled")
}

func (o *Session) releasePending() {
	o.pending.Release()
	o.pending = nil
}

func (o *Session) fail(r Result, err error) {
	o.result = r
	o.lastErr = err

	o.log.Error().Err(err).Stringer("result", r).Msg("command flow failed")
}
