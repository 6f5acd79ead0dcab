// Copyright 2026 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

/*
Package command implements the client side of the attested command protocol.

A command (an opaque string such as "TRANSFER FROM alice TO bob CURRENCY gems
QUANTITY 1000") is only executed by the verification server if it comes with
an integrity token minted for it. The exchange runs in two round trips:

 1. GET the challenge endpoint, which returns a fresh random value:

	{ "random": "6f1d..." }

 2. ask the integrity provider for a token bound to the nonce

	nonce = random || hex(SHA-256(command))

 3. POST the command and the token to the command endpoint:

	{ "commandString": "...", "tokenString": "..." }

    and read back the verdict:

	{ "commandSuccess": true, "diagnosticMessage": "...", "expressToken": "..." }

A successful verdict carries an express token that can be used in place of an
integrity token for the next command, without going through attestation.

The user creates a Session supplying the two endpoints and a provider:

	cfg := command.SessionConfig{
		ChallengeURI: "https://verifier.example/getRandom",
		CommandURI:   "https://verifier.example/performCommand",
		Provider:     myProvider,
	}

	s, err := command.NewSession(cfg)

A custom Transport, for example a common.Client built with extra trust roots,
can be supplied in cfg.Transport.

The Session never blocks waiting for the provider. The caller starts a flow and
then drives it with Tick, typically once per frame or on a ticker:

	s.BeginAttestedCommand(cmd)

	for s.Tick() == command.StatusAwaitingToken {
		time.Sleep(100 * time.Millisecond)
	}

	switch s.Result() {
	case command.ResultSuccess:
		fmt.Println(s.Summary())
	case command.ResultRejectedVerdict:
		...
	}

Only one token request can be in flight: BeginAttestedCommand reports
ResultPending and does nothing else while one is outstanding. Cancel abandons
the in-flight request and gives the provider handles back.

After a successful verdict, further commands can be sent with

	s.BeginExpressCommand(cmd)

which submits the held express token straight away.
*/
package command
