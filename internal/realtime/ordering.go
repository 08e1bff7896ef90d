package realtime

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

// SortKeys orders child keys the way the database does when ordering by key:
// keys that parse as 32-bit integers first in numeric order, then the rest
// lexicographically.
func SortKeys(keys []string) {
	sort.SliceStable(keys, func(i, j int) bool {
		a, aInt := intKey(keys[i])
		b, bInt := intKey(keys[j])
		switch {
		case aInt && bInt:
			return a < b
		case aInt != bInt:
			return aInt
		default:
			return keys[i] < keys[j]
		}
	})
}

func intKey(key string) (int64, bool) {
	if key == "" || key[0] == '+' || (len(key) > 1 && (key[0] == '0' || strings.HasPrefix(key, "-0"))) {
		return 0, false
	}
	n, err := strconv.ParseInt(key, 10, 64)
	if err != nil || n < math.MinInt32 || n > math.MaxInt32 {
		return 0, false
	}
	return n, true
}

// Children decodes a collection node into its children in key order. The
// database returns collections keyed 0..n as JSON arrays, with null holes for
// missing indexes, so both shapes are accepted.
func Children(raw json.RawMessage) ([]string, map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	nodes := make(map[string]json.RawMessage)

	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, nil, err
		}
		var keys []string
		for i, item := range items {
			if isNull(item) {
				continue
			}
			key := strconv.Itoa(i)
			keys = append(keys, key)
			nodes[key] = item
		}
		return keys, nodes, nil
	}

	if err := json.Unmarshal(trimmed, &nodes); err != nil {
		return nil, nil, err
	}
	keys := make([]string, 0, len(nodes))
	for k, v := range nodes {
		if isNull(v) {
			delete(nodes, k)
			continue
		}
		keys = append(keys, k)
	}
	SortKeys(keys)
	return keys, nodes, nil
}

// Scalar renders a leaf value as text. Strings are unquoted, numbers and
// booleans keep their literal form. Missing, null and nested values are nil.
func Scalar(raw json.RawMessage) *string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	switch trimmed[0] {
	case '{', '[':
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil
		}
		return &s
	default:
		s := string(trimmed)
		return &s
	}
}
