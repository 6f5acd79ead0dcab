// Copyright 2026 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package integrity

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownHandle is returned when a handle was never issued or has
	// already been released.
	ErrUnknownHandle = errors.New("unknown or released handle")

	// ErrNotReady is returned by Token when the token request has not
	// completed yet.
	ErrNotReady = errors.New("token not ready")
)

// RequestHandle identifies a token request created by a Provider. The zero
// value is never issued.
type RequestHandle uint64

// ResponseHandle identifies an in-flight token response. The zero value is
// never issued.
type ResponseHandle uint64

// Status is the state of an in-flight token response as reported by
// Provider.PollStatus.
type Status int

const (
	StatusUnknown Status = iota
	StatusInProgress
	StatusCompleted
)

func (o Status) String() string {
	switch o {
	case StatusInProgress:
		return "in-progress"
	case StatusCompleted:
		return "completed"
	default:
		return fmt.Sprintf("unknown(%d)", int(o))
	}
}

// Provider is the contract between the command session and the attestation
// service that mints integrity tokens. The caller supplies a nonce and gets
// back a handle that it polls until the token is ready.
//
// Every handle obtained from CreateRequest and RequestToken must be released
// exactly once, whatever the outcome of the exchange. PollStatus must not
// block.
type Provider interface {
	CreateRequest(nonce string) (RequestHandle, error)
	RequestToken(req RequestHandle) (ResponseHandle, error)
	PollStatus(res ResponseHandle) (Status, error)
	Token(res ResponseHandle) (string, error)
	ReleaseRequest(req RequestHandle)
	ReleaseResponse(res ResponseHandle)
}
