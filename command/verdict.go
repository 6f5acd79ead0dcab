// Copyright 2026 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"fmt"

	"github.com/veraison/cmdattest/jsonlookup"
)

// Keys of the JSON documents exchanged with the verification server. Keys in
// server responses are matched case-insensitively.
const (
	RandomKey            = "random"
	CommandStringKey     = "commandString"
	TokenStringKey       = "tokenString"
	CommandSuccessKey    = "commandSuccess"
	DiagnosticMessageKey = "diagnosticMessage"
	ExpressTokenKey      = "expressToken"
)

// Request is the body POSTed to the command endpoint
type Request struct {
	CommandString string `json:"commandString"`
	TokenString   string `json:"tokenString"`
}

// Verdict is the server's answer to a command submission
type Verdict struct {
	CommandSuccess    bool   `json:"commandSuccess"`
	DiagnosticMessage string `json:"diagnosticMessage"`
	ExpressToken      string `json:"expressToken"`
}

func parseChallenge(body []byte) (string, error) {
	doc, err := jsonlookup.Parse(body)
	if err != nil {
		return "", fmt.Errorf("malformed challenge response: %w", err)
	}

	random, ok := doc.String(RandomKey)
	if !ok {
		return "", fmt.Errorf("malformed challenge response: no %q string", RandomKey)
	}

	return random, nil
}

// parseVerdict requires all three verdict fields, with the right types.
func parseVerdict(body []byte) (*Verdict, error) {
	doc, err := jsonlookup.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("malformed command response: %w", err)
	}

	success, ok := doc.Bool(CommandSuccessKey)
	if !ok {
		return nil, fmt.Errorf("malformed command response: no %q boolean", CommandSuccessKey)
	}

	diagnostic, ok := doc.String(DiagnosticMessageKey)
	if !ok {
		return nil, fmt.Errorf("malformed command response: no %q string", DiagnosticMessageKey)
	}

	expressToken, ok := doc.String(ExpressTokenKey)
	if !ok {
		return nil, fmt.Errorf("malformed command response: no %q string", ExpressTokenKey)
	}

	return &Verdict{
		CommandSuccess:    success,
		DiagnosticMessage: diagnostic,
		ExpressToken:      expressToken,
	}, nil
}
