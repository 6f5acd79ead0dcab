// Copyright 2026 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package jsonlookup

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Document is a JSON object parsed once and queried by key. Key matching is
// case-insensitive, an exact match wins over a case-folded one, and among
// case-folded matches the lexically smallest key wins.
type Document struct {
	root map[string]interface{}
}

// Parse parses data as a JSON object. Anything other than an object at the
// top level is an error.
func Parse(data []byte) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("empty document")
	}

	var v interface{}

	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parsing JSON document: %w", err)
	}

	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("top-level JSON value is %s, not an object", kindOf(v))
	}

	return &Document{root: obj}, nil
}

// Lookup returns the raw value stored under key.
func (o *Document) Lookup(key string) (interface{}, bool) {
	if o == nil {
		return nil, false
	}

	if v, ok := o.root[key]; ok {
		return v, true
	}

	keys := make([]string, 0, len(o.root))
	for k := range o.root {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if strings.EqualFold(k, key) {
			return o.root[k], true
		}
	}

	return nil, false
}

// String returns the string value stored under key. It reports false if the
// key is absent or holds a value of another type.
func (o *Document) String(key string) (string, bool) {
	v, ok := o.Lookup(key)
	if !ok {
		return "", false
	}

	s, ok := v.(string)

	return s, ok
}

// Bool returns the boolean value stored under key.
func (o *Document) Bool(key string) (bool, bool) {
	v, ok := o.Lookup(key)
	if !ok {
		return false, false
	}

	b, ok := v.(bool)

	return b, ok
}

// Object returns the nested object stored under key as a Document.
func (o *Document) Object(key string) (*Document, bool) {
	v, ok := o.Lookup(key)
	if !ok {
		return nil, false
	}

	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, false
	}

	return &Document{root: obj}, true
}

// Strings returns the array of strings stored under key. An array holding
// any non-string element is treated as absent.
func (o *Document) Strings(key string) ([]string, bool) {
	v, ok := o.Lookup(key)
	if !ok {
		return nil, false
	}

	arr, ok := v.([]interface{})
	if !ok {
		return nil, false
	}

	ret := make([]string, 0, len(arr))
	for _, e := range arr {
		s, ok := e.(string)
		if !ok {
			return nil, false
		}
		ret = append(ret, s)
	}

	return ret, true
}

// Keys returns the top-level keys of the document, in no particular order.
func (o *Document) Keys() []string {
	if o == nil {
		return nil
	}

	keys := make([]string, 0, len(o.root))
	for k := range o.root {
		keys = append(keys, k)
	}

	return keys
}

// Decode copies the document into target, a pointer to a struct whose fields
// carry mapstructure tags. Field names match keys case-insensitively, every
// tagged field must be present and no type coercion takes place.
func (o *Document) Decode(target interface{}) error {
	if o == nil {
		return errors.New("nil document")
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnset: true,
		Result:     target,
	})
	if err != nil {
		return fmt.Errorf("building decoder: %w", err)
	}

	return dec.Decode(o.root)
}

// ContainsFold reports whether value appears in list, ignoring case.
func ContainsFold(list []string, value string) bool {
	for _, s := range list {
		if strings.EqualFold(s, value) {
			return true
		}
	}

	return false
}

func kindOf(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "a boolean"
	case float64:
		return "a number"
	case string:
		return "a string"
	case []interface{}:
		return "an array"
	default:
		return fmt.Sprintf("%T", v)
	}
}
