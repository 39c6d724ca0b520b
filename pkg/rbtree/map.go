package rbtree

// Entry is a separately allocated node of a Map.
type Entry[K, V any] struct {
	link  Links[*Entry[K, V]]
	key   K
	value V
}

// Links implements Linked.
func (e *Entry[K, V]) Links() *Links[*Entry[K, V]] { return &e.link }

// Key returns the entry's key.
func (e *Entry[K, V]) Key() K { return e.key }

// Value returns the entry's value.
func (e *Entry[K, V]) Value() V { return e.value }

// SetValue replaces the entry's value in place.
func (e *Entry[K, V]) SetValue(v V) { e.value = v }

// Map is a non-intrusive red-black tree from K to V.
type Map[K, V any] struct {
	tree *Tree[*Entry[K, V]]
	cmp  func(a, b K) int
}

// NewMap creates an empty map ordered by cmp.
func NewMap[K, V any](cmp func(a, b K) int) *Map[K, V] {
	return &Map[K, V]{
		tree: New(func(a, b *Entry[K, V]) int { return cmp(a.key, b.key) }),
		cmp:  cmp,
	}
}

// Len returns the number of entries.
func (m *Map[K, V]) Len() int { return m.tree.Len() }

// Insert adds k→v. It returns false, without replacing anything, if k is
// already present.
func (m *Map[K, V]) Insert(k K, v V) bool {
	return m.tree.Insert(&Entry[K, V]{key: k, value: v})
}

// InsertMulti adds k→v even if k is present; the new entry follows the
// existing equal keys in iteration order.
func (m *Map[K, V]) InsertMulti(k K, v V) *Entry[K, V] {
	e := &Entry[K, V]{key: k, value: v}
	m.tree.InsertMulti(e)
	return e
}

// Search returns the first entry with key k, or nil.
func (m *Map[K, V]) Search(k K) *Entry[K, V] {
	return m.tree.Search(func(e *Entry[K, V]) int { return m.cmp(k, e.key) })
}

// Get returns the value stored under k.
func (m *Map[K, V]) Get(k K) (V, bool) {
	if e := m.Search(k); e != nil {
		return e.value, true
	}
	var zero V
	return zero, false
}

// Delete removes the first entry with key k and returns its value.
// The boolean is false when k is not present.
func (m *Map[K, V]) Delete(k K) (V, bool) {
	e := m.Search(k)
	if e == nil {
		var zero V
		return zero, false
	}
	m.tree.Remove(e)
	return e.value, true
}

// Remove unlinks an entry previously returned by this map.
func (m *Map[K, V]) Remove(e *Entry[K, V]) {
	m.tree.Remove(e)
}

// Min returns the entry with the smallest key, or nil.
func (m *Map[K, V]) Min() *Entry[K, V] { return m.tree.Min() }

// Max returns the entry with the largest key, or nil.
func (m *Map[K, V]) Max() *Entry[K, V] { return m.tree.Max() }

// Next returns the in-order successor of e, or nil.
func (m *Map[K, V]) Next(e *Entry[K, V]) *Entry[K, V] { return m.tree.Next(e) }

// Prev returns the in-order predecessor of e, or nil.
func (m *Map[K, V]) Prev(e *Entry[K, V]) *Entry[K, V] { return m.tree.Prev(e) }

// Tree exposes the underlying intrusive tree.
func (m *Map[K, V]) Tree() *Tree[*Entry[K, V]] { return m.tree }

// InOrder visits entries in ascending key order.
func (m *Map[K, V]) InOrder(visit func(k K, v V, idx int) bool) {
	m.tree.InOrder(func(e *Entry[K, V], idx int) bool { return visit(e.key, e.value, idx) })
}

// PreOrder visits each entry before its subtrees.
func (m *Map[K, V]) PreOrder(visit func(k K, v V, idx int) bool) {
	m.tree.PreOrder(func(e *Entry[K, V], idx int) bool { return visit(e.key, e.value, idx) })
}

// PostOrder visits each entry after its subtrees.
func (m *Map[K, V]) PostOrder(visit func(k K, v V, idx int) bool) {
	m.tree.PostOrder(func(e *Entry[K, V], idx int) bool { return visit(e.key, e.value, idx) })
}

// Clear empties the map, passing every key and value to fn if it is non-nil.
func (m *Map[K, V]) Clear(fn func(k K, v V)) {
	m.tree.Clear(func(e *Entry[K, V]) {
		if fn != nil {
			fn(e.key, e.value)
		}
		var zero V
		e.value = zero
	})
}
