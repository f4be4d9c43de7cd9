// Package listview derives what a list page shows: the filtered, sorted and
// paged subset of a collection, plus renderers and exporters for it.
// Nothing here knows about a particular entity kind.
package listview

import (
	"strings"
)

// Field extracts one indexed (searchable) value from an item.
type Field[T any] = func(T) string

// Filter returns the items for which the trimmed, lower-cased query is a
// substring of at least one lower-cased indexed field, in input order.
// PRE: none
// POST: an empty or blank query returns a copy of items; items is never
// modified and the result never shares its backing array
func Filter[T any](items []T, query string, fields ...Field[T]) []T {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]T, 0, len(items))
	if q == "" {
		return append(out, items...)
	}
	for _, it := range items {
		if Matches(it, q, fields) {
			out = append(out, it)
		}
	}
	return out
}

// Matches reports whether any field of item contains the already
// normalised query q.
func Matches[T any](item T, q string, fields []Field[T]) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f(item)), q) {
			return true
		}
	}
	return false
}

// Where keeps items satisfying pred. It is used for exact-match facets such
// as status that sit alongside the free-text query.
func Where[T any](items []T, pred func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if pred(it) {
			out = append(out, it)
		}
	}
	return out
}
