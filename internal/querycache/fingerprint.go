// Package querycache memoizes search responses behind deterministic
// fingerprints with per-mode expiry. The cache is a disposable accelerator:
// store failures degrade to a miss, never to a request failure.
package querycache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Namespace prefixes one query mode's keyspace so logically different modes
// can never collide on the same hash.
type Namespace string

const (
	NamespaceArea    Namespace = "area_search"
	NamespaceCoords  Namespace = "coords_search"
	NamespacePolygon Namespace = "polygon_simply"
)

// schemaVersion is baked into every key so a change in the cached response
// shape invalidates old entries without an explicit flush. Bump it whenever
// the serialized response changes incompatibly.
const schemaVersion = "v2"

// Fingerprint hashes a canonicalized parameter map into a cache key of the
// form "<namespace>:<version>:<md5hex>". Two maps that are equal as sets of
// key-value pairs produce the same key regardless of insertion order or
// numeric formatting (10 vs 10.0).
func Fingerprint(ns Namespace, params map[string]any) string {
	keys := make([]string, 0, len(params))
	for k := range params {
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
		writeCanonical(&b, params[k])
	}
	b.WriteByte('}')

	sum := md5.Sum([]byte(b.String()))
	return fmt.Sprintf("%s:%s:%s", ns, schemaVersion, hex.EncodeToString(sum[:]))
}

// writeCanonical serializes a value with stable formatting. Numbers are
// rendered with the shortest representation that round-trips, so 10 and
// 10.0 collapse to the same text. Nested maps sort their keys; slices keep
// their order.
func writeCanonical(b *strings.Builder, v any) {
	switch val := v.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		b.WriteString(strconv.FormatBool(val))
	case string:
		b.WriteString(strconv.Quote(val))
	case int:
		writeFloat(b, float64(val))
	case int64:
		writeFloat(b, float64(val))
	case float32:
		writeFloat(b, float64(val))
	case float64:
		writeFloat(b, val)
	case []any:
		b.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCanonical(b, item)
		}
		b.WriteByte(']')
	case []float64:
		b.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				b.WriteByte(',')
			}
			writeFloat(b, item)
		}
		b.WriteByte(']')
	case []string:
		b.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Quote(item))
		}
		b.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Quote(k))
			b.WriteByte(':')
			writeCanonical(b, val[k])
		}
		b.WriteByte('}')
	default:
		b.WriteString(strconv.Quote(fmt.Sprintf("%v", val)))
	}
}

func writeFloat(b *strings.Builder, f float64) {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		b.WriteString(strconv.FormatInt(int64(f), 10))
		return
	}
	b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
}

// RoundCoord normalizes a latitude or longitude for fingerprinting. Nearby
// requests within ~11 m of each other share a cache entry.
func RoundCoord(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

// RoundRadius normalizes a radius in kilometers for fingerprinting.
func RoundRadius(v float64) float64 {
	return math.Round(v*10) / 10
}
