// Package signature implements HMAC-SHA256 message authentication over a
// canonical JSON form. Requests and callbacks are signed with the same shared
// key; the signature covers the whole message minus its top-level signature
// field.
//
// Canonical form: UTF-8 JSON with object keys sorted by byte order, arrays in
// given order, no insignificant whitespace, and no HTML escaping. Two
// messages that decode to the same value always produce the same bytes.
package signature

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/sevigo/lot-vision/internal/core"
)

// Signer signs and verifies messages with a shared symmetric key.
type Signer struct {
	key []byte
}

// NewSigner creates a Signer for the given shared key.
func NewSigner(sharedKey string) *Signer {
	return &Signer{key: []byte(sharedKey)}
}

// Sign computes the lowercase hex HMAC-SHA256 of the canonical form of v,
// with any top-level "signature" field removed first.
func (s *Signer) Sign(v any) (string, error) {
	payload, err := macInput(v)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, s.key)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Verify checks sig against the canonical form of v. It returns
// core.ErrAuthenticationFailed for a missing or mismatching signature;
// callers must treat both cases identically.
func (s *Signer) Verify(v any, sig string) error {
	if sig == "" {
		return core.ErrAuthenticationFailed
	}
	expected, err := s.Sign(v)
	if err != nil {
		return fmt.Errorf("failed to compute expected signature: %w", err)
	}
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return core.ErrAuthenticationFailed
	}
	return nil
}

// macInput produces the canonical bytes that the MAC covers.
func macInput(v any) ([]byte, error) {
	decoded, err := decode(v)
	if err != nil {
		return nil, err
	}
	if obj, ok := decoded.(map[string]any); ok {
		delete(obj, "signature")
	}
	var buf bytes.Buffer
	if err := writeCanonical(&buf, decoded); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Canonicalize returns the canonical encoding of v without stripping any
// fields. It exists for callers that need the exact signed bytes, such as
// the CLI signing tool.
func Canonicalize(v any) ([]byte, error) {
	decoded, err := decode(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := writeCanonical(&buf, decoded); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decode round-trips v through JSON into generic values, preserving number
// text via json.Number so canonicalization never reformats numerics.
func decode(v any) (any, error) {
	raw, ok := v.(json.RawMessage)
	if !ok {
		marshaled, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message: %w", err)
		}
		raw = marshaled
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode message: %w", err)
	}
	return decoded, nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case json.Number:
		buf.WriteString(val.String())
	case string:
		return writeJSONString(buf, val)
	case []any:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSONString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unsupported type %T in canonical encoding", v)
	}
	return nil
}

// writeJSONString encodes s as a JSON string without HTML escaping, so URLs
// containing & or = sign identically across implementations.
func writeJSONString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode string: %w", err)
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}
