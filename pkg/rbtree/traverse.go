package rbtree

// Traversals use an explicit stack so that depth is bounded by heap memory
// rather than goroutine stack growth.

// InOrder visits elements in ascending order. visit receives the element and
// its zero-based visit index; returning false stops the walk.
func (t *Tree[E]) InOrder(visit func(e E, idx int) bool) {
	stack := make([]E, 0, 64)
	cur := t.root
	idx := 0
	for !isNil(cur) || len(stack) > 0 {
		for !isNil(cur) {
			stack = append(stack, cur)
			cur = cur.Links().left
		}
		cur = stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visit(cur, idx) {
			return
		}
		idx++
		cur = cur.Links().right
	}
}

// PreOrder visits each element before its left and right subtrees.
func (t *Tree[E]) PreOrder(visit func(e E, idx int) bool) {
	if isNil(t.root) {
		return
	}
	stack := make([]E, 0, 64)
	stack = append(stack, t.root)
	idx := 0
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visit(cur, idx) {
			return
		}
		idx++
		if r := cur.Links().right; !isNil(r) {
			stack = append(stack, r)
		}
		if l := cur.Links().left; !isNil(l) {
			stack = append(stack, l)
		}
	}
}

// PostOrder visits each element after both of its subtrees.
func (t *Tree[E]) PostOrder(visit func(e E, idx int) bool) {
	stack := make([]E, 0, 64)
	var last E
	cur := t.root
	idx := 0
	for !isNil(cur) || len(stack) > 0 {
		if !isNil(cur) {
			stack = append(stack, cur)
			cur = cur.Links().left
			continue
		}
		top := stack[len(stack)-1]
		if r := top.Links().right; !isNil(r) && r != last {
			cur = r
			continue
		}
		stack = stack[:len(stack)-1]
		if !visit(top, idx) {
			return
		}
		idx++
		last = top
	}
}

// Clear unlinks every element in post-order, handing each to fn if non-nil.
// Elements are fully unlinked before fn sees them.
func (t *Tree[E]) Clear(fn func(e E)) {
	var victims []E
	t.PostOrder(func(e E, _ int) bool {
		victims = append(victims, e)
		return true
	})
	var zero E
	t.root = zero
	t.n = 0
	for _, e := range victims {
		*e.Links() = Links[E]{}
		if fn != nil {
			fn(e)
		}
	}
}
