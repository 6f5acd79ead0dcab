// Copyright 2026 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

/*
Package jsonlookup answers key queries over a JSON object received from a
server.

A body is parsed once:

	doc, err := jsonlookup.Parse(body)

and then queried for top-level values. Keys are matched case-insensitively and
every accessor reports whether a value of the requested type was found, so a
missing key and a value of the wrong type look the same to the caller:

	random, ok := doc.String("random")
	success, ok := doc.Bool("commandSuccess")

Nested objects are reached with Object, and a whole document can be copied
into a struct with Decode, which requires every tagged field to be present.
*/
package jsonlookup
