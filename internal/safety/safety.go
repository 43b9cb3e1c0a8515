// Package safety applies the stoplist-level content filter. The same
// visibility predicate runs on every result path; an unsafe record must
// never reach ranking or response assembly.
package safety

import (
	"strconv"
	"strings"
)

// DefaultLegacyLevel is assigned to records whose stored level is a legacy
// boolean or "true"/"false" string.
const DefaultLegacyLevel = 1

// Leveler exposes a record's stored stoplist level. A nil level means the
// record was never tiered and is treated as the safest tier.
type Leveler interface {
	StoplistLevel() *int
}

// Visible reports whether a record with the given stored level may be shown
// at the requested level.
func Visible(level *int, requestedLevel int) bool {
	if level == nil {
		return true
	}
	return *level <= requestedLevel
}

// Filter partitions records into visible and hidden sets at the requested
// level. Both partitions are returned so callers can report how many items
// were withheld without revealing their content.
func Filter[T Leveler](records []T, requestedLevel int) (visible, hidden []T) {
	for _, r := range records {
		if Visible(r.StoplistLevel(), requestedLevel) {
			visible = append(visible, r)
		} else {
			hidden = append(hidden, r)
		}
	}
	return visible, hidden
}

// DecodeLevel converts a stored stoplist value of any legacy shape into a
// level. Numeric values (and numeric strings) are used as-is; booleans and
// "true"/"false" strings map to DefaultLegacyLevel; nil and anything
// unrecognized decode to nil, the safest tier. Decoding never fails.
func DecodeLevel(raw any) *int {
	switch v := raw.(type) {
	case nil:
		return nil
	case int:
		return &v
	case int64:
		n := int(v)
		return &n
	case float64:
		n := int(v)
		return &n
	case bool:
		n := DefaultLegacyLevel
		return &n
	case string:
		s := strings.TrimSpace(strings.ToLower(v))
		if s == "" {
			return nil
		}
		if s == "true" || s == "false" {
			n := DefaultLegacyLevel
			return &n
		}
		if n, err := strconv.Atoi(s); err == nil {
			return &n
		}
		return nil
	default:
		return nil
	}
}
