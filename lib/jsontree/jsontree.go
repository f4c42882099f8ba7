// Package jsontree searches untyped JSON document trees by key presence
// instead of fixed paths, since the upstream response shape shifts between
// endpoint variants.
package jsontree

import (
	"iter"
	"slices"
	"strconv"
	"strings"
)

// Document is one page of upstream response data as decoded by
// encoding/json: maps, slices, strings, float64s and bools.
type Document = map[string]any

// walk visits every map in doc depth-first. The walk is iterative so
// adversarially deep documents cannot blow the stack. List elements are
// visited in order; map members are visited in key order so traversal
// is deterministic.
func walk(doc any) iter.Seq[map[string]any] {
	return func(yield func(map[string]any) bool) {
		stack := []any{doc}
		for len(stack) > 0 {
			node := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			switch n := node.(type) {
			case map[string]any:
				if !yield(n) {
					return
				}
				keys := make([]string, 0, len(n))
				for k := range n {
					switch n[k].(type) {
					case map[string]any, []any:
						keys = append(keys, k)
					}
				}
				slices.Sort(keys)
				// push in reverse so children pop in key order
				for i := len(keys) - 1; i >= 0; i-- {
					stack = append(stack, n[keys[i]])
				}
			case []any:
				for i := len(n) - 1; i >= 0; i-- {
					switch n[i].(type) {
					case map[string]any, []any:
						stack = append(stack, n[i])
					}
				}
			}
		}
	}
}

// FindContaining yields every map in doc that has key as an immediate
// member, including maps nested inside other matches. A missing key
// yields nothing; the search never fails.
func FindContaining(doc any, key string) iter.Seq[map[string]any] {
	return func(yield func(map[string]any) bool) {
		for m := range walk(doc) {
			if _, ok := m[key]; !ok {
				continue
			}
			if !yield(m) {
				return
			}
		}
	}
}

// FindKey yields the value stored under key in every map that contains
// it.
func FindKey(doc any, key string) iter.Seq[any] {
	return func(yield func(any) bool) {
		for m := range FindContaining(doc, key) {
			if !yield(m[key]) {
				return
			}
		}
	}
}

// FindMaps is FindKey restricted to values that are themselves maps,
// which is the shape of every payload fragment we care about.
func FindMaps(doc any, key string) iter.Seq[map[string]any] {
	return func(yield func(map[string]any) bool) {
		for v := range FindKey(doc, key) {
			m, ok := v.(map[string]any)
			if !ok {
				continue
			}
			if !yield(m) {
				return
			}
		}
	}
}

// FirstMap returns the first map stored under key anywhere in doc.
func FirstMap(doc any, key string) (map[string]any, bool) {
	for m := range FindMaps(doc, key) {
		return m, true
	}
	return nil, false
}

// FirstString returns the first string stored under key anywhere in doc.
func FirstString(doc any, key string) (string, bool) {
	for v := range FindKey(doc, key) {
		if s, ok := v.(string); ok {
			return s, true
		}
	}
	return "", false
}

// Get resolves a dotted path like
// "contents.twoColumnBrowseResultsRenderer.tabs.0.tabRenderer" against
// doc. Numeric segments index into lists. It returns nil when any
// segment is absent or of the wrong shape.
func Get(doc any, path string) any {
	node := doc
	for _, seg := range strings.Split(path, ".") {
		switch n := node.(type) {
		case map[string]any:
			node = n[seg]
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(n) {
				return nil
			}
			node = n[i]
		default:
			return nil
		}
	}
	return node
}

// GetString is Get narrowed to string values, returning "" on a miss.
func GetString(doc any, path string) string {
	s, _ := Get(doc, path).(string)
	return s
}

// GetList is Get narrowed to list values, returning nil on a miss.
func GetList(doc any, path string) []any {
	l, _ := Get(doc, path).([]any)
	return l
}

// GetMap is Get narrowed to map values, returning nil on a miss.
func GetMap(doc any, path string) map[string]any {
	m, _ := Get(doc, path).(map[string]any)
	return m
}
