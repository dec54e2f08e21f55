package fields

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// datetime layouts accepted from callers, tried in order.
var datetimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Coerce converts a raw field value to the shape the backend expects
// for the given field reference. Coercion is best-effort and never
// fails: a value that can't be converted is returned unchanged so the
// backend gets to produce the authoritative validation error.
func Coerce(ref string, value any) any {
	if value == nil {
		return nil
	}

	// Lists (tags and similar) are joined into the backend's
	// semicolon-separated form regardless of the declared type.
	if joined, ok := joinList(value); ok {
		return joined
	}

	switch TypeOf(ref) {
	case TypeInteger:
		return coerceInt(value)
	case TypeDouble:
		return coerceFloat(value)
	case TypeDateTime:
		return coerceDateTime(value)
	case TypeIdentity:
		return coerceIdentity(value)
	default:
		return stringify(value)
	}
}

func coerceInt(value any) any {
	switch v := value.(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float32:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return value
}

func coerceFloat(value any) any {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return value
}

// coerceDateTime normalizes to RFC 3339 text. Unparseable strings pass
// through for the backend to reject or interpret.
func coerceDateTime(value any) any {
	switch v := value.(type) {
	case time.Time:
		return v.Format(time.RFC3339)
	case string:
		for _, layout := range datetimeLayouts {
			if ts, err := time.Parse(layout, v); err == nil {
				return ts.Format(time.RFC3339)
			}
		}
	}
	return value
}

// coerceIdentity accepts either a plain user string or a structured
// identity object, reducing the latter to its display name.
func coerceIdentity(value any) any {
	switch v := value.(type) {
	case string:
		return v
	case map[string]any:
		if name, ok := v["displayName"].(string); ok {
			return name
		}
	}
	return stringify(value)
}

// joinList flattens a list of values into "a; b; c". Returns false for
// non-list input.
func joinList(value any) (string, bool) {
	switch v := value.(type) {
	case []string:
		return strings.Join(v, "; "), true
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = stringify(item)
		}
		return strings.Join(parts, "; "), true
	}
	return "", false
}

func stringify(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}
