// Copyright 2026 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package integrity

import (
	"errors"
	"fmt"
)

// Pending owns the request and response handles of exactly one token
// request. Release gives both back to the provider and is safe to call any
// number of times, so callers can defer it or call it on every exit path.
type Pending struct {
	provider Provider
	nonce    string
	req      RequestHandle
	res      ResponseHandle
	released bool
}

// Request asks provider for a token bound to nonce. On error nothing is left
// allocated on the provider side.
func Request(provider Provider, nonce string) (*Pending, error) {
	if provider == nil {
		return nil, errors.New("nil provider")
	}

	req, err := provider.CreateRequest(nonce)
	if err != nil {
		return nil, fmt.Errorf("creating token request: %w", err)
	}

	res, err := provider.RequestToken(req)
	if err != nil {
		provider.ReleaseRequest(req)
		return nil, fmt.Errorf("requesting token: %w", err)
	}

	return &Pending{
		provider: provider,
		nonce:    nonce,
		req:      req,
		res:      res,
	}, nil
}

// Nonce returns the nonce the token is bound to.
func (o *Pending) Nonce() string {
	return o.nonce
}

// Poll returns the provider's view of the request without blocking.
func (o *Pending) Poll() (Status, error) {
	if o.released {
		return StatusUnknown, ErrUnknownHandle
	}

	return o.provider.PollStatus(o.res)
}

// Token returns the token once Poll has reported StatusCompleted.
func (o *Pending) Token() (string, error) {
	if o.released {
		return "", ErrUnknownHandle
	}

	return o.provider.Token(o.res)
}

// Released reports whether the handles have been given back.
func (o *Pending) Released() bool {
	return o.released
}

// Release gives the handles back to the provider.
func (o *Pending) Release() {
	if o == nil || o.released {
		return
	}

	o.provider.ReleaseResponse(o.res)
	o.provider.ReleaseRequest(o.req)
	o.released = true
}
