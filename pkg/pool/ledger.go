package pool

import (
	"cmp"

	"github.com/ajitpratap0/unitpool/pkg/config"
	"github.com/ajitpratap0/unitpool/pkg/rbtree"
)

// ledger records which units are currently issued.
type ledger interface {
	// insert reports false if a unit with the same id is already issued
	insert(u *Unit) bool
	// remove reports false unless u itself is issued
	remove(u *Unit) bool
	len() int
	clear()
}

func newLedger(mode config.LedgerMode) ledger {
	if mode == config.LedgerSeparate {
		return &mapLedger{m: rbtree.NewMap[uint64, *Unit](cmp.Compare[uint64])}
	}
	return &treeLedger{t: rbtree.New(func(a, b *Unit) int { return cmp.Compare(a.id, b.id) })}
}

// treeLedger links issued units directly through their embedded links.
type treeLedger struct {
	t *rbtree.Tree[*Unit]
}

func (l *treeLedger) insert(u *Unit) bool { return l.t.Insert(u) }

func (l *treeLedger) remove(u *Unit) bool {
	if l.t.Find(u) != u {
		return false
	}
	l.t.Remove(u)
	return true
}

func (l *treeLedger) len() int { return l.t.Len() }

func (l *treeLedger) clear() { l.t.Clear(nil) }

// mapLedger keeps issued units in separately allocated entries.
type mapLedger struct {
	m *rbtree.Map[uint64, *Unit]
}

func (l *mapLedger) insert(u *Unit) bool { return l.m.Insert(u.id, u) }

func (l *mapLedger) remove(u *Unit) bool {
	e := l.m.Search(u.id)
	if e == nil || e.Value() != u {
		return false
	}
	l.m.Remove(e)
	return true
}

func (l *mapLedger) len() int { return l.m.Len() }

func (l *mapLedger) clear() { l.m.Clear(nil) }
