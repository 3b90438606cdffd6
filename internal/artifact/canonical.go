// Package artifact serializes pipeline artifacts as canonical JSON, seals
// them with SHA-256 sidecars, and persists them through a blob.Store.
package artifact

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Encode serializes v as canonical JSON: UTF-8, two-space indent, lexically
// sorted keys, trailing newline. Byte-stable across runs so content hashes
// are reproducible.
func Encode(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode artifact: %w", err)
	}
	// Round-trip through an untyped value: Go serializes map keys in sorted
	// order, which gives the canonical key ordering regardless of struct
	// field declaration order.
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("canonicalize artifact: %w", err)
	}
	out, err := json.MarshalIndent(generic, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("canonicalize artifact: %w", err)
	}
	return append(out, '\n'), nil
}

// Sum returns the lowercase hex SHA-256 of b.
func Sum(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

// Seal encodes v canonically and returns the bytes with their hash.
func Seal(v any) ([]byte, string, error) {
	b, err := Encode(v)
	if err != nil {
		return nil, "", err
	}
	return b, Sum(b), nil
}

func decodeJSON(b []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
