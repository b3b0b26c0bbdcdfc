// Package snapshot implements the entity/relationship "snapshot hash": an
// opaque, losslessly round-trippable serialization used as the stored
// "prior state" blob a refresh diffs against. It is content, not a
// digest — Encode/Decode must round-trip exactly.
package snapshot

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// Encode deflate-compresses the JSON serialization of v and returns it as
// URL-safe, unpadded base64 text.
func Encode(v interface{}) (string, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("snapshot: marshal: %w", err)
	}

	var buf bytes.Buffer
	zw, err := flate.NewWriter(&buf, flate.BestSpeed)
	if err != nil {
		return "", fmt.Errorf("snapshot: new deflate writer: %w", err)
	}
	if _, err := zw.Write(payload); err != nil {
		return "", fmt.Errorf("snapshot: deflate write: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("snapshot: deflate close: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}

// Decode reverses Encode, unmarshaling the inflated JSON into v (a
// pointer).
func Decode(hash string, v interface{}) error {
	compressed, err := base64.RawURLEncoding.DecodeString(hash)
	if err != nil {
		return fmt.Errorf("snapshot: base64 decode: %w", err)
	}

	zr := flate.NewReader(bytes.NewReader(compressed))
	defer zr.Close()

	payload, err := io.ReadAll(zr)
	if err != nil {
		return fmt.Errorf("snapshot: inflate: %w", err)
	}

	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("snapshot: unmarshal: %w", err)
	}
	return nil
}
