// Copyright 2021 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package common

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"

	"github.com/rs/zerolog"
)

// NewTestingHTTPClient creates an HTTP test server (with a configurable request
// handler), an API Client and connects them together.  Whatever host the
// client is pointed at, its connections land on the test server.  The API
// client, the server's base URL and its shutdown switch are returned.
func NewTestingHTTPClient(handler http.Handler) (cli *Client, baseURI string, closerFn func()) {
	srv := httptest.NewServer(handler)

	nop := zerolog.Nop()

	cli = &Client{
		HTTPClient: http.Client{
			Transport: &http.Transport{
				DialContext: func(_ context.Context, network, _ string) (net.Conn, error) {
					return net.Dial(network, srv.Listener.Addr().String())
				},
			},
		},
		Logger: &nop,
	}

	baseURI = srv.URL
	closerFn = srv.Close

	return
}
