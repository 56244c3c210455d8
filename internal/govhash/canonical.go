// Package govhash provides the single canonical encoding and hashing
// routine shared by every governance component. Divergence here would
// silently break every integrity property the core promises.
package govhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// GenesisHash is the previous-hash value for the first audit record in a chain.
var GenesisHash = strings.Repeat("0", 64)

// Hex returns the lowercase hex SHA-256 digest of parts joined with a 0x1f
// unit separator. Parts are written as-is, so the encoding is injective over
// the input tuple as long as no part itself contains a 0x1f byte.
func Hex(parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0x1f})
		}
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// CanonicalMap renders a string-to-scalar mapping deterministically: keys are
// sorted, and each scalar is encoded with a type tag so that, e.g., the string
// "1" and the integer 1 never collide. Integers and floats share the numeric
// tag, so a record whose details are reloaded from JSON (where every number
// decodes as float64) hashes the same as when it was appended.
func CanonicalMap(m map[string]any) string {
	if len(m) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(k))
		b.WriteByte(':')
		b.WriteString(canonicalScalar(m[k]))
	}
	b.WriteByte('}')
	return b.String()
}

func canonicalScalar(v any) string {
	switch t := v.(type) {
	case nil:
		return "n:"
	case string:
		return "s:" + strconv.Quote(t)
	case bool:
		return "b:" + strconv.FormatBool(t)
	case int:
		return "f:" + strconv.FormatFloat(float64(t), 'g', -1, 64)
	case int64:
		return "f:" + strconv.FormatFloat(float64(t), 'g', -1, 64)
	case float64:
		return "f:" + strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return "x:" + fmt.Sprintf("%v", t)
	}
}

// HexBytes returns the lowercase hex SHA-256 digest of raw bytes, for
// hashing final content directly rather than through the scalar-tagged
// canonical encoding (the content-hash in a confirmation is a digest of
// exact transmitted bytes, not of a parameter map).
func HexBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// CanonicalParams renders an operation's parameter map the same way
// CanonicalMap does — kept as a distinct name because callers reason about
// "operation parameters" and "audit details" as separate concepts even
// though they share one encoding.
func CanonicalParams(m map[string]any) string {
	return CanonicalMap(m)
}
