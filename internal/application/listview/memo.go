package listview

import (
	"slices"
	"strings"
	"sync"
)

// Collection is an immutable snapshot of one entity kind. Every successful
// fetch produces a new Version; the items slice is never edited in place.
type Collection[T any] struct {
	Items   []T
	Version uint64
}

// Memo caches the last Filter result keyed by (Collection.Version, query).
// Safe for concurrent use.
type Memo[T any] struct {
	fields []Field[T]

	mu      sync.Mutex
	valid   bool
	version uint64
	query   string
	result  []T
	misses  int
}

// NewMemo returns a memo over the given indexed fields.
func NewMemo[T any](fields ...Field[T]) *Memo[T] {
	return &Memo[T]{fields: fields}
}

// Filter returns Filter(c.Items, query, fields...), recomputing only when
// the version or the normalised query changed.
// POST: the returned slice is a fresh copy the caller may modify
func (m *Memo[T]) Filter(c Collection[T], query string) []T {
	q := strings.ToLower(strings.TrimSpace(query))

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.valid || m.version != c.Version || m.query != q {
		m.result = Filter(c.Items, q, m.fields...)
		m.version, m.query, m.valid = c.Version, q, true
		m.misses++
	}
	return slices.Clone(m.result)
}

// Misses reports how many times the filter was recomputed.
func (m *Memo[T]) Misses() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.misses
}
