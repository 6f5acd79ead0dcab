// Copyright 2021 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

/*
Package apiclient builds clients for the attested command protocol spoken by
the verification server (see the command package for the protocol itself).

Configuration

The client is described by a Config, usually loaded from a YAML file:

	base_uri: https://verifier.example
	ca_certs:
	  - /etc/ssl/verifier-ca.pem
	timeout: 10s
	auth:
	  method: oauth2
	  token_url: https://keycloak.example/realms/verifier/protocol/openid-connect/token
	  client_id: cmdattest
	  client_secret: s3cr3t
	  username: alice
	  password: p4ssw0rd

The challenge and command endpoints default to "/getRandom" and
"/performCommand" under base_uri; challenge_uri and command_uri override them.

	cfg, err := apiclient.LoadConfigFile("client.yaml")
	if err != nil { ... }

Session

New combines the configuration with an integrity provider, which is the only
piece the user has to supply:

	s, err := apiclient.New(*cfg, myProvider)
	if err != nil { ... }
	defer s.Close()

	s.BeginAttestedCommand("TRANSFER FROM alice TO bob CURRENCY gems QUANTITY 1000")

	for s.Tick() == command.StatusAwaitingToken {
		time.Sleep(100 * time.Millisecond)
	}

	fmt.Println(s.Result(), s.Summary())
*/
package apiclient
