// Copyright 2026 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package jsonlookup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVerdictBody = `{
	"commandSuccess": true,
	"DiagnosticMessage": "ok",
	"expresstoken": "T1",
	"count": 3,
	"details": { "nonce": "abc" },
	"verdicts": ["MEETS_BASIC_INTEGRITY", "MEETS_DEVICE_INTEGRITY"],
	"mixed": ["a", 1]
}`

func TestParse_ok(t *testing.T) {
	doc, err := Parse([]byte(testVerdictBody))
	require.NoError(t, err)
	assert.Len(t, doc.Keys(), 7)
}

func TestParse_errors(t *testing.T) {
	tvs := []struct {
		body        string
		expectedErr string
	}{
		{"", "empty document"},
		{"   ", "empty document"},
		{"[1, 2]", "top-level JSON value is an array, not an object"},
		{`"random"`, "top-level JSON value is a string, not an object"},
		{"null", "top-level JSON value is null, not an object"},
		{"true", "top-level JSON value is a boolean, not an object"},
		{"42", "top-level JSON value is a number, not an object"},
	}

	for _, tv := range tvs {
		_, err := Parse([]byte(tv.body))
		assert.EqualError(t, err, tv.expectedErr, "body: %q", tv.body)
	}

	_, err := Parse([]byte(`{"random": `))
	assert.ErrorContains(t, err, "parsing JSON document")
}

func TestDocument_String_case_insensitive(t *testing.T) {
	doc, err := Parse([]byte(testVerdictBody))
	require.NoError(t, err)

	v, ok := doc.String("diagnosticMessage")
	assert.True(t, ok)
	assert.Equal(t, "ok", v)

	v, ok = doc.String("EXPRESSTOKEN")
	assert.True(t, ok)
	assert.Equal(t, "T1", v)
}

func TestDocument_exact_match_wins(t *testing.T) {
	doc, err := Parse([]byte(`{"Random": "upper", "random": "lower"}`))
	require.NoError(t, err)

	v, ok := doc.String("random")
	assert.True(t, ok)
	assert.Equal(t, "lower", v)

	v, ok = doc.String("Random")
	assert.True(t, ok)
	assert.Equal(t, "upper", v)
}

func TestDocument_folded_match_is_stable(t *testing.T) {
	doc, err := Parse([]byte(`{"Random": "b", "RANDOM": "a"}`))
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		v, ok := doc.String("random")
		require.True(t, ok)
		require.Equal(t, "a", v)
	}
}

func TestDocument_wrong_type_is_absent(t *testing.T) {
	doc, err := Parse([]byte(testVerdictBody))
	require.NoError(t, err)

	_, ok := doc.String("commandSuccess")
	assert.False(t, ok)

	_, ok = doc.Bool("diagnosticMessage")
	assert.False(t, ok)

	_, ok = doc.String("count")
	assert.False(t, ok)

	_, ok = doc.Object("verdicts")
	assert.False(t, ok)

	_, ok = doc.Strings("mixed")
	assert.False(t, ok)
}

func TestDocument_missing_key(t *testing.T) {
	doc, err := Parse([]byte(`{}`))
	require.NoError(t, err)

	_, ok := doc.String("random")
	assert.False(t, ok)

	_, ok = doc.Bool("commandSuccess")
	assert.False(t, ok)
}

func TestDocument_nil_receiver(t *testing.T) {
	var doc *Document

	_, ok := doc.String("random")
	assert.False(t, ok)
	assert.Nil(t, doc.Keys())
	assert.EqualError(t, doc.Decode(&struct{}{}), "nil document")
}

func TestDocument_Object_and_Strings(t *testing.T) {
	doc, err := Parse([]byte(testVerdictBody))
	require.NoError(t, err)

	details, ok := doc.Object("Details")
	require.True(t, ok)

	nonce, ok := details.String("NONCE")
	assert.True(t, ok)
	assert.Equal(t, "abc", nonce)

	verdicts, ok := doc.Strings("verdicts")
	require.True(t, ok)
	assert.Equal(t, []string{"MEETS_BASIC_INTEGRITY", "MEETS_DEVICE_INTEGRITY"}, verdicts)
	assert.True(t, ContainsFold(verdicts, "meets_device_integrity"))
	assert.False(t, ContainsFold(verdicts, "MEETS_STRONG_INTEGRITY"))
}

type testCommand struct {
	CommandString string `mapstructure:"commandString"`
	TokenString   string `mapstructure:"tokenString"`
}

func TestDocument_Decode_ok(t *testing.T) {
	doc, err := Parse([]byte(`{"COMMANDSTRING": "c", "tokenstring": "t"}`))
	require.NoError(t, err)

	var cmd testCommand
	require.NoError(t, doc.Decode(&cmd))
	assert.Equal(t, testCommand{CommandString: "c", TokenString: "t"}, cmd)
}

func TestDocument_Decode_missing_field(t *testing.T) {
	doc, err := Parse([]byte(`{"commandString": "c"}`))
	require.NoError(t, err)

	var cmd testCommand
	assert.Error(t, doc.Decode(&cmd))
}

func TestDocument_Decode_wrong_type(t *testing.T) {
	doc, err := Parse([]byte(`{"commandString": "c", "tokenString": 12}`))
	require.NoError(t, err)

	var cmd testCommand
	assert.Error(t, doc.Decode(&cmd))
}
