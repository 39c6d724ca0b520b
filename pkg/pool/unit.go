package pool

import (
	"sync/atomic"

	"github.com/ajitpratap0/unitpool/pkg/rbtree"
)

// Unit is a fixed-size block handed out by a Pool. A Unit is owned by the
// caller between Fetch and Recycle and must not be used after Recycle.
type Unit struct {
	link rbtree.Links[*Unit]
	id   uint64
	buf  []byte
	home []byte // slice of the backing region, capped at the unit size
	reg  *region
}

// ID returns the pool-unique identity of the unit.
func (u *Unit) ID() uint64 { return u.id }

// Bytes returns the unit's memory.
func (u *Unit) Bytes() []byte { return u.buf }

// Len returns the current length of the unit's memory.
func (u *Unit) Len() int { return len(u.buf) }

// Resize changes the length of the unit's memory. Growing past the unit
// size moves the contents onto a private heap buffer; the pool restores the
// original block when the unit is recycled.
func (u *Unit) Resize(n int) {
	if n < 0 {
		n = 0
	}
	if n <= cap(u.buf) {
		u.buf = u.buf[:n]
		return
	}
	nb := make([]byte, n)
	copy(nb, u.buf)
	u.buf = nb
}

// Links exposes the ledger linkage embedded in the unit. It is used by the
// pool's intrusive ledger and is not meant to be modified by callers.
func (u *Unit) Links() *rbtree.Links[*Unit] { return &u.link }

// region is one allocation shared by every unit carved from it. The last
// unit to be destroyed returns it to the allocator.
type region struct {
	data []byte
	refs atomic.Int32
}

func newRegion(data []byte, units int) *region {
	r := &region{data: data}
	r.refs.Store(int32(units))
	return r
}

// release drops one reference and reports whether the region is now unused.
func (r *region) release() bool {
	return r.refs.Add(-1) == 0
}
