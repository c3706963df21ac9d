package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// maxCanonicalDepth bounds recursion over a value tree. Our domain types
// (Sample, Batch, CrossEpochMap) are acyclic by construction; this guard
// catches a pathological caller-supplied cycle rather than stack overflow.
const maxCanonicalDepth = 256

// EncodeError indicates a value could not be canonically encoded: an
// unsupported Go type, or nesting past maxCanonicalDepth.
type EncodeError struct {
	Reason string
}

func (e *EncodeError) Error() string { return "canonical encode: " + e.Reason }

// Canonical returns the canonical byte encoding of v: a JSON-like form with
// mapping keys sorted by code point, sequences kept in order, and a single
// textual form per number so that, e.g., 1 and 1.0 encode identically. Used
// for record hashing (core/merkle.go's per-cell leaves, Batch.Hash, and the
// cross-epoch map content hash) — never for the sorted-pair Merkle tree
// itself, which hashes its own concatenation scheme.
func Canonical(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, &EncodeError{Reason: err.Error()}
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic interface{}
	if err := dec.Decode(&generic); err != nil {
		return nil, &EncodeError{Reason: err.Error()}
	}
	var buf bytes.Buffer
	if err := writeCanonical(&buf, generic, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v interface{}, depth int) error {
	if depth > maxCanonicalDepth {
		return &EncodeError{Reason: "max depth exceeded (possible cycle)"}
	}
	switch vv := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if vv {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case json.Number:
		buf.WriteString(canonicalNumber(vv))
	case string:
		raw, err := json.Marshal(vv)
		if err != nil {
			return &EncodeError{Reason: err.Error()}
		}
		buf.Write(raw)
	case []interface{}:
		buf.WriteByte('[')
		for i, e := range vv {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, e, depth+1); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case map[string]interface{}:
		keys := make([]string, 0, len(vv))
		for k := range vv {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			raw, err := json.Marshal(k)
			if err != nil {
				return &EncodeError{Reason: err.Error()}
			}
			buf.Write(raw)
			buf.WriteByte(':')
			if err := writeCanonical(buf, vv[k], depth+1); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return &EncodeError{Reason: fmt.Sprintf("unsupported type %T", v)}
	}
	return nil
}

// canonicalNumber renders n so that mathematically equal numbers (1 and
// 1.0, -0 and 0) produce the same text: integral values as bare digits,
// everything else via the shortest round-tripping decimal form.
func canonicalNumber(n json.Number) string {
	f, err := n.Float64()
	if err != nil {
		return n.String()
	}
	if f == 0 {
		f = 0 // normalize -0
	}
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
