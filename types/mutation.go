package types

import (
	"fmt"
	"sort"
	"strings"
)

// TagSet is the tag key/value pairs a tagging sweep applies.
// Supplied once per sweep and shared read-only across all resources.
type TagSet map[string]string

// ParseTagSet parses repeated KEY=VALUE flags into a TagSet.
// Keys must be non-empty; values may be empty strings.
func ParseTagSet(pairs []string) (TagSet, error) {
	tags := make(TagSet, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found {
			return nil, fmt.Errorf("invalid tag %q: expected KEY=VALUE", pair)
		}
		if key == "" {
			return nil, fmt.Errorf("invalid tag %q: empty key", pair)
		}
		tags[key] = value
	}
	return tags, nil
}

// String renders the set as sorted key=value pairs.
func (t TagSet) String() string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+t[k])
	}
	return strings.Join(parts, ",")
}
