// Package rbtree implements a red-black ordered tree in two storage modes.
//
// Tree is intrusive: the caller's type embeds a Links value and exposes it
// through the Linked interface, so the tree node and the caller's object are
// the same memory and insertion allocates nothing. Map is non-intrusive: it
// allocates an Entry per key and references the caller's key and value.
// Map is built on Tree, so both modes share one balancing implementation and
// produce identical shapes for identical operation sequences.
//
// The comparator given at construction is the only ordering authority.
// Insert rejects a key that is already present; InsertMulti accepts it and
// places the new node after the existing run of equal keys.
//
// Neither type is safe for concurrent use.
package rbtree

// Links holds the tree linkage embedded in an intrusive element.
// The zero value is an unlinked node.
type Links[E any] struct {
	left   E
	right  E
	parent E
	red    bool
}

// Linked is implemented by element types that embed Links.
// E is normally a pointer type, e.g. *Unit.
type Linked[E any] interface {
	comparable
	Links() *Links[E]
}

// Tree is an intrusive red-black tree.
type Tree[E Linked[E]] struct {
	root E
	n    int
	cmp  func(a, b E) int
}

// New creates an empty intrusive tree ordered by cmp.
func New[E Linked[E]](cmp func(a, b E) int) *Tree[E] {
	return &Tree[E]{cmp: cmp}
}

func isNil[E comparable](e E) bool {
	var zero E
	return e == zero
}

func isRed[E Linked[E]](e E) bool {
	return !isNil(e) && e.Links().red
}

// Len returns the number of linked elements.
func (t *Tree[E]) Len() int { return t.n }

// Root returns the root element, or the zero E when empty.
func (t *Tree[E]) Root() E { return t.root }

// Insert links e into the tree. It returns false, leaving the tree unchanged,
// when an element comparing equal to e is already present.
func (t *Tree[E]) Insert(e E) bool {
	return t.insert(e, true)
}

// InsertMulti links e even if equal elements exist; e follows them in order.
func (t *Tree[E]) InsertMulti(e E) {
	t.insert(e, false)
}

func (t *Tree[E]) insert(e E, unique bool) bool {
	var parent E
	cur := t.root
	c := 0
	for !isNil(cur) {
		parent = cur
		c = t.cmp(e, cur)
		if c == 0 && unique {
			return false
		}
		if c < 0 {
			cur = cur.Links().left
		} else {
			cur = cur.Links().right
		}
	}

	*e.Links() = Links[E]{parent: parent, red: true}
	switch {
	case isNil(parent):
		t.root = e
	case c < 0:
		parent.Links().left = e
	default:
		parent.Links().right = e
	}
	t.n++
	t.insertFixup(e)
	return true
}

func (t *Tree[E]) insertFixup(z E) {
	for {
		p := z.Links().parent
		if isNil(p) || !p.Links().red {
			break
		}
		// p is red, so it is not the root and g exists.
		g := p.Links().parent
		if p == g.Links().left {
			u := g.Links().right
			if isRed(u) {
				p.Links().red = false
				u.Links().red = false
				g.Links().red = true
				z = g
				continue
			}
			if z == p.Links().right {
				z = p
				t.rotateLeft(z)
				p = z.Links().parent
			}
			p.Links().red = false
			g.Links().red = true
			t.rotateRight(g)
			break
		}

		u := g.Links().left
		if isRed(u) {
			p.Links().red = false
			u.Links().red = false
			g.Links().red = true
			z = g
			continue
		}
		if z == p.Links().left {
			z = p
			t.rotateRight(z)
			p = z.Links().parent
		}
		p.Links().red = false
		g.Links().red = true
		t.rotateLeft(g)
		break
	}
	t.root.Links().red = false
}

// Remove unlinks e, which must currently be linked into t.
//
// A node with two children is replaced by its in-order successor, which takes
// over the node's position and color; the tree ends up with exactly the shape
// a key/value swap followed by removal of the successor would produce.
func (t *Tree[E]) Remove(z E) {
	zl := z.Links()
	y := z
	yRed := zl.red
	var x, xp E

	switch {
	case isNil(zl.left):
		x = zl.right
		xp = zl.parent
		t.transplant(z, x)
	case isNil(zl.right):
		x = zl.left
		xp = zl.parent
		t.transplant(z, x)
	default:
		y = t.minimum(zl.right)
		yl := y.Links()
		yRed = yl.red
		x = yl.right
		if yl.parent == z {
			xp = y
		} else {
			xp = yl.parent
			t.transplant(y, yl.right)
			yl.right = zl.right
			yl.right.Links().parent = y
		}
		t.transplant(z, y)
		yl.left = zl.left
		yl.left.Links().parent = y
		yl.red = zl.red
	}

	*zl = Links[E]{}
	t.n--
	if !yRed {
		t.deleteFixup(x, xp)
	}
}

// transplant puts v in u's place under u's parent.
func (t *Tree[E]) transplant(u, v E) {
	up := u.Links().parent
	switch {
	case isNil(up):
		t.root = v
	case u == up.Links().left:
		up.Links().left = v
	default:
		up.Links().right = v
	}
	if !isNil(v) {
		v.Links().parent = up
	}
}

// deleteFixup restores equal black height after a black node was removed.
// x may be nil, so its parent is tracked separately in xp.
func (t *Tree[E]) deleteFixup(x, xp E) {
	for x != t.root && !isRed(x) {
		if x == xp.Links().left {
			w := xp.Links().right
			if isRed(w) {
				w.Links().red = false
				xp.Links().red = true
				t.rotateLeft(xp)
				w = xp.Links().right
			}
			wl := w.Links()
			if !isRed(wl.left) && !isRed(wl.right) {
				wl.red = true
				x = xp
				xp = x.Links().parent
				continue
			}
			if !isRed(wl.right) {
				wl.left.Links().red = false
				wl.red = true
				t.rotateRight(w)
				w = xp.Links().right
				wl = w.Links()
			}
			wl.red = xp.Links().red
			xp.Links().red = false
			wl.right.Links().red = false
			t.rotateLeft(xp)
			x = t.root
			break
		}

		w := xp.Links().left
		if isRed(w) {
			w.Links().red = false
			xp.Links().red = true
			t.rotateRight(xp)
			w = xp.Links().left
		}
		wl := w.Links()
		if !isRed(wl.left) && !isRed(wl.right) {
			wl.red = true
			x = xp
			xp = x.Links().parent
			continue
		}
		if !isRed(wl.left) {
			wl.right.Links().red = false
			wl.red = true
			t.rotateLeft(w)
			w = xp.Links().left
			wl = w.Links()
		}
		wl.red = xp.Links().red
		xp.Links().red = false
		wl.left.Links().red = false
		t.rotateRight(xp)
		x = t.root
		break
	}
	if !isNil(x) {
		x.Links().red = false
	}
}

func (t *Tree[E]) rotateLeft(x E) {
	xl := x.Links()
	y := xl.right
	yl := y.Links()

	xl.right = yl.left
	if !isNil(yl.left) {
		yl.left.Links().parent = x
	}
	t.transplant(x, y)
	yl.left = x
	xl.parent = y
}

func (t *Tree[E]) rotateRight(x E) {
	xl := x.Links()
	y := xl.left
	yl := y.Links()

	xl.left = yl.right
	if !isNil(yl.right) {
		yl.right.Links().parent = x
	}
	t.transplant(x, y)
	yl.right = x
	xl.parent = y
}

// Search returns the first element for which probe reports 0, or the zero E.
// probe(e) must return the sign of key-vs-e for the key being looked up.
func (t *Tree[E]) Search(probe func(e E) int) E {
	var found E
	cur := t.root
	for !isNil(cur) {
		c := probe(cur)
		switch {
		case c < 0:
			cur = cur.Links().left
		case c > 0:
			cur = cur.Links().right
		default:
			// keep descending left for the first of an equal run
			found = cur
			cur = cur.Links().left
		}
	}
	return found
}

// Find returns the linked element equal to e under the tree's comparator.
func (t *Tree[E]) Find(e E) E {
	return t.Search(func(n E) int { return t.cmp(e, n) })
}

// Min returns the smallest element, or the zero E.
func (t *Tree[E]) Min() E {
	if isNil(t.root) {
		return t.root
	}
	return t.minimum(t.root)
}

// Max returns the largest element, or the zero E.
func (t *Tree[E]) Max() E {
	if isNil(t.root) {
		return t.root
	}
	return t.maximum(t.root)
}

func (t *Tree[E]) minimum(e E) E {
	for l := e.Links().left; !isNil(l); l = e.Links().left {
		e = l
	}
	return e
}

func (t *Tree[E]) maximum(e E) E {
	for r := e.Links().right; !isNil(r); r = e.Links().right {
		e = r
	}
	return e
}

// Next returns the in-order successor of e, or the zero E.
func (t *Tree[E]) Next(e E) E {
	if r := e.Links().right; !isNil(r) {
		return t.minimum(r)
	}
	p := e.Links().parent
	for !isNil(p) && e == p.Links().right {
		e = p
		p = p.Links().parent
	}
	return p
}

// Prev returns the in-order predecessor of e, or the zero E.
func (t *Tree[E]) Prev(e E) E {
	if l := e.Links().left; !isNil(l) {
		return t.maximum(l)
	}
	p := e.Links().parent
	for !isNil(p) && e == p.Links().left {
		e = p
		p = p.Links().parent
	}
	return p
}

// Left returns e's left child. Used by invariant checks and traversals.
func Left[E Linked[E]](e E) E { return e.Links().left }

// Right returns e's right child.
func Right[E Linked[E]](e E) E { return e.Links().right }

// Parent returns e's parent.
func Parent[E Linked[E]](e E) E { return e.Links().parent }

// IsRed reports whether e is a red node. Nil leaves are black.
func IsRed[E Linked[E]](e E) bool { return isRed(e) }
