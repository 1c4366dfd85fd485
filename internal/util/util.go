// Package util provides shared utility functions used across the codebase.
package util

import (
	"sort"
	"strings"
	"time"
)

// NowISO returns the current UTC time in ISO-8601 format with a Z suffix and
// second precision, the timestamp format used in all board records.
func NowISO() string {
	return time.Now().UTC().Truncate(time.Second).Format("2006-01-02T15:04:05Z")
}

// ParseISO parses a timestamp produced by NowISO.
func ParseISO(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// NormalizeTags converts either a delimited string ("a, b;c") or a slice of
// strings into a sorted, deduplicated tag set. Empty entries are dropped.
func NormalizeTags(v any) []string {
	var raw []string
	switch t := v.(type) {
	case string:
		raw = strings.FieldsFunc(t, func(r rune) bool {
			return r == ',' || r == ';'
		})
	case []string:
		raw = t
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	}

	seen := make(map[string]bool)
	var tags []string
	for _, tag := range raw {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// UnionSorted returns the sorted union of a set of strings with one more
// element. The input slice is not modified.
func UnionSorted(set []string, add string) []string {
	out := make([]string, 0, len(set)+1)
	found := false
	for _, s := range set {
		if s == add {
			found = true
		}
		out = append(out, s)
	}
	if !found {
		out = append(out, add)
	}
	sort.Strings(out)
	return out
}
