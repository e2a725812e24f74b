package model

import (
	"bytes"
	"encoding/json"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces deterministic JSON for snapshots and golden files.
//
// Differences from json.Marshal:
//  1. No HTML escaping (<, > and & are kept literal)
//  2. Output is NFC normalized, so visually equal titles compare equal
//  3. No trailing newline
//
// Struct field order is fixed by the type definitions and map keys are
// sorted by encoding/json, so equal values always produce equal bytes.
func MarshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	out := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	return norm.NFC.Bytes(out), nil
}
