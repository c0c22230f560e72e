package kernel

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"
)

// Event is one tagged record in a stream's append-only hash chain (C2).
// Hash = H(PrevHash ∥ Kind ∥ canonicalize(Payload)), hex-encoded and
// prefixed "sha256:". For every stream, Seq is dense and strictly
// increasing starting at 1, and the hash chain is verifiable end-to-end.
type Event struct {
	StreamID  string          `json:"streamId"`
	Seq       uint64          `json:"seq"`
	Timestamp time.Time       `json:"timestamp"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	PrevHash  string          `json:"prevHash"`
	Hash      string          `json:"hash"`
}

// canonicalizeJSON produces a deterministic byte representation of an
// arbitrary JSON-marshalable value: map keys sorted lexicographically,
// fixed number formatting via encoding/json, UTF-8 throughout. It is used
// both for event-payload hashing and for cache input hashing, so that
// identical logical content always hashes identically regardless of field
// insertion order.
func canonicalizeJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return canonicalizeValue(generic), nil
}

func canonicalizeValue(v any) []byte {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf := []byte{'{'}
		for i, k := range keys {
			if i > 0 {
				buf = append(buf, ',')
			}
			kb, _ := json.Marshal(k)
			buf = append(buf, kb...)
			buf = append(buf, ':')
			buf = append(buf, canonicalizeValue(t[k])...)
		}
		return append(buf, '}')
	case []any:
		buf := []byte{'['}
		for i, e := range t {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = append(buf, canonicalizeValue(e)...)
		}
		return append(buf, ']')
	default:
		b, _ := json.Marshal(t)
		return b
	}
}

// computeEventHash implements Hash = H(PrevHash ∥ Kind ∥ canonicalize(Payload)).
func computeEventHash(prevHash, kind string, payload json.RawMessage) (string, error) {
	var generic any
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &generic); err != nil {
			return "", err
		}
	}
	canon := canonicalizeValue(generic)

	h := sha256.New()
	h.Write([]byte(prevHash))
	h.Write([]byte(kind))
	h.Write(canon)
	return "sha256:" + hex.EncodeToString(h.Sum(nil)), nil
}

// genesisHash is PrevHash for the first event appended to a stream.
var genesisHash = "sha256:" + hex.EncodeToString(make([]byte, sha256.Size))
