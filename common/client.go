// Copyright 2021 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package common

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/veraison/cmdattest/auth"
)

const (
	// DefaultTimeout bounds every request made by a default Client
	DefaultTimeout = 5 * time.Second

	// MaxBodySize is the largest response body a Client will read
	MaxBodySize = 1 << 20

	// RequestIDHeader carries the per-request correlation identifier
	RequestIDHeader = "X-Request-ID"
)

// Client holds configuration data associated with the HTTP(s) session
type Client struct {
	HTTPClient http.Client
	// Auth, if set, supplies the Authorization header of every request
	Auth   auth.IAuthenticator
	Logger *zerolog.Logger
}

// ClientConfig describes how to build a Client: extra trust roots for the
// server certificate, a request timeout and an optional authenticator.
type ClientConfig struct {
	CACerts []string
	Timeout time.Duration
	Auth    auth.IAuthenticator
}

// NewClient instantiates a new Client
func NewClient() *Client {
	return &Client{
		HTTPClient: http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// NewClientFromConfig instantiates a Client from the supplied configuration.
// CA files, if any, are added to the system pool for TLS server validation.
func NewClientFromConfig(cfg ClientConfig) (*Client, error) {
	c := NewClient()

	if cfg.Timeout > 0 {
		c.HTTPClient.Timeout = cfg.Timeout
	}

	if len(cfg.CACerts) > 0 {
		t, err := auth.NewTLSTransport(cfg.CACerts)
		if err != nil {
			return nil, fmt.Errorf("configuring TLS transport: %w", err)
		}
		c.HTTPClient.Transport = t
	}

	c.Auth = cfg.Auth

	return c, nil
}

// Get fetches uri and returns the response body. Anything other than a 200
// response is an error.
func (c Client) Get(uri string) ([]byte, error) {
	res, err := c.GetResource(JSONMediaType, uri)
	if err != nil {
		return nil, fmt.Errorf("GET %q failed: %w", uri, err)
	}

	return c.readBody(res, uri)
}

// Post sends body as a JSON document to uri and returns the response body.
// Anything other than a 200 response is an error.
func (c Client) Post(uri string, body []byte) ([]byte, error) {
	res, err := c.PostResource(body, JSONMediaType, JSONMediaType, uri)
	if err != nil {
		return nil, fmt.Errorf("POST %q failed: %w", uri, err)
	}

	return c.readBody(res, uri)
}

func (c Client) GetResource(accept, uri string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, uri, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("GET %q, request creation failed: %w", uri, err)
	}

	req.Header.Set("Accept", accept)

	return c.do(req)
}

func (c Client) PostResource(body []byte, ct, accept, uri string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, uri, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("POST %q, request creation failed: %w", uri, err)
	}

	req.Header.Set("Content-Type", ct)
	req.Header.Set("Accept", accept)

	return c.do(req)
}

func (c Client) do(req *http.Request) (*http.Response, error) {
	if c.Auth != nil {
		header, err := c.Auth.EncodeHeader()
		if err != nil {
			return nil, fmt.Errorf("building Authorization header: %w", err)
		}
		if header != "" {
			req.Header.Set("Authorization", header)
		}
	}

	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)

	c.logger().Debug().
		Str("method", req.Method).
		Str("uri", req.URL.String()).
		Str("request_id", reqID).
		Msg("sending request")

	hc := &c.HTTPClient

	res, err := hc.Do(req)
	if err != nil {
		return nil, err
	}

	c.logger().Debug().
		Str("request_id", reqID).
		Int("status", res.StatusCode).
		Msg("received response")

	return res, nil
}

func (c Client) readBody(res *http.Response, uri string) ([]byte, error) {
	if err := CheckResponse(res, http.StatusOK); err != nil {
		return nil, fmt.Errorf("%q: %w", uri, err)
	}

	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, MaxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body from %q: %w", uri, err)
	}

	if len(body) > MaxBodySize {
		return nil, errors.New("response body too large")
	}

	return body, nil
}

func (c Client) logger() *zerolog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return &log.Logger
}
