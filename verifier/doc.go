// Copyright 2026 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

/*
Package verifier implements the server side of the attested command protocol.

GET /getRandom hands out a 16 byte random, hex encoded, and remembers when it
was issued. POST /performCommand takes a command and a token. The token is
either an express token issued with an earlier successful verdict, or an
integrity token which is decoded (with the Play Integrity API in production)
and checked:

  - the first 32 characters of the nonce must be a random issued by this
    server less than NonceTimeout ago; each random can be used once
  - the remainder must be the hex SHA-256 digest of the command
  - the verdict must carry a device integrity signal, a recognized app
    version, a licensed user and the configured package name

Issued values live in a Store: in memory, in Redis or in SQLite.
*/
package verifier
