// Copyright 2026 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package integrity

import "sync"

// TestProvider is a scriptable Provider for tests. Each token response walks
// through Script, one entry per PollStatus call, and reports StatusCompleted
// once the script is exhausted. It keeps every nonce it was asked to bind and
// counts outstanding handles so that tests can check nothing leaks.
type TestProvider struct {
	TokenValue string   // token returned once a response completes
	Script     []Status // PollStatus outcomes before completion
	CreateErr  error    // returned by CreateRequest
	RequestErr error    // returned by RequestToken
	PollErr    error    // returned by PollStatus
	TokenErr   error    // returned by Token

	mu        sync.Mutex
	nonces    []string
	requests  *Registry[string]
	responses *Registry[*testResponse]
}

type testResponse struct {
	nonce string
	polls int
	done  bool
}

// NewTestProvider instantiates a TestProvider that completes immediately with
// the supplied token.
func NewTestProvider(token string) *TestProvider {
	return &TestProvider{
		TokenValue: token,
		requests:   NewRegistry[string](),
		responses:  NewRegistry[*testResponse](),
	}
}

func (o *TestProvider) CreateRequest(nonce string) (RequestHandle, error) {
	if o.CreateErr != nil {
		return 0, o.CreateErr
	}

	o.mu.Lock()
	o.nonces = append(o.nonces, nonce)
	o.mu.Unlock()

	return RequestHandle(o.requests.Put(nonce)), nil
}

func (o *TestProvider) RequestToken(req RequestHandle) (ResponseHandle, error) {
	nonce, ok := o.requests.Get(uint64(req))
	if !ok {
		return 0, ErrUnknownHandle
	}

	if o.RequestErr != nil {
		return 0, o.RequestErr
	}

	return ResponseHandle(o.responses.Put(&testResponse{nonce: nonce})), nil
}

func (o *TestProvider) PollStatus(res ResponseHandle) (Status, error) {
	r, ok := o.responses.Get(uint64(res))
	if !ok {
		return StatusUnknown, ErrUnknownHandle
	}

	if o.PollErr != nil {
		return StatusUnknown, o.PollErr
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	s := StatusCompleted
	if r.polls < len(o.Script) {
		s = o.Script[r.polls]
		r.polls++
	}

	if s == StatusCompleted {
		r.done = true
	}

	return s, nil
}

func (o *TestProvider) Token(res ResponseHandle) (string, error) {
	r, ok := o.responses.Get(uint64(res))
	if !ok {
		return "", ErrUnknownHandle
	}

	if o.TokenErr != nil {
		return "", o.TokenErr
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if !r.done {
		return "", ErrNotReady
	}

	return o.TokenValue, nil
}

func (o *TestProvider) ReleaseRequest(req RequestHandle) {
	o.requests.Release(uint64(req))
}

func (o *TestProvider) ReleaseResponse(res ResponseHandle) {
	o.responses.Release(uint64(res))
}

// Nonces returns the nonces passed to CreateRequest, oldest first.
func (o *TestProvider) Nonces() []string {
	o.mu.Lock()
	defer o.mu.Unlock()

	return append([]string(nil), o.nonces...)
}

// Outstanding returns the number of handles not yet released.
func (o *TestProvider) Outstanding() int {
	return o.requests.Len() + o.responses.Len()
}
