package rbtree

import (
	"cmp"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_RoundTrip(t *testing.T) {
	m := NewMap[uint64, string](cmp.Compare[uint64])

	require.True(t, m.Insert(7, "seven"))
	v, ok := m.Get(7)
	require.True(t, ok)
	assert.Equal(t, "seven", v)

	v, ok = m.Delete(7)
	require.True(t, ok)
	assert.Equal(t, "seven", v)

	_, ok = m.Get(7)
	assert.False(t, ok)
	_, ok = m.Delete(7)
	assert.False(t, ok, "second delete must report not found")
	assert.Equal(t, 0, m.Len())
}

func TestMap_InsertDoesNotReplace(t *testing.T) {
	m := NewMap[string, int](strings.Compare)
	require.True(t, m.Insert("a", 1))
	assert.False(t, m.Insert("a", 2))

	v, _ := m.Get("a")
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, m.Len())

	e := m.Search("a")
	require.NotNil(t, e)
	e.SetValue(3)
	v, _ = m.Get("a")
	assert.Equal(t, 3, v)
}

func TestMap_InsertMultiRun(t *testing.T) {
	m := NewMap[int, string](cmp.Compare[int])
	m.Insert(1, "x")
	m.InsertMulti(2, "a")
	m.InsertMulti(2, "b")
	m.InsertMulti(2, "c")
	m.Insert(3, "y")

	var run []string
	for e := m.Search(2); e != nil && e.Key() == 2; e = m.Next(e) {
		run = append(run, e.Value())
	}
	assert.Equal(t, []string{"a", "b", "c"}, run)

	v, ok := m.Delete(2)
	require.True(t, ok)
	assert.Equal(t, "a", v, "delete removes the first of an equal run")
	checkInvariants(t, m.Tree(), func(a, b *Entry[int, string]) int { return cmp.Compare(a.key, b.key) })
}

func TestMap_TraversalIndices(t *testing.T) {
	m := NewMap[int, int](cmp.Compare[int])
	for _, k := range rand.New(rand.NewSource(11)).Perm(64) {
		m.Insert(k, k*k)
	}

	m.InOrder(func(k, v, idx int) bool {
		assert.Equal(t, idx, k)
		assert.Equal(t, k*k, v)
		return true
	})

	var pre, post int
	m.PreOrder(func(_, _, idx int) bool { pre = idx + 1; return true })
	m.PostOrder(func(_, _, idx int) bool { post = idx + 1; return true })
	assert.Equal(t, 64, pre)
	assert.Equal(t, 64, post)

	assert.Equal(t, 0, m.Min().Key())
	assert.Equal(t, 63, m.Max().Key())
	assert.Equal(t, 62, m.Prev(m.Max()).Key())
}

func TestMap_ClearHandsBackPairs(t *testing.T) {
	m := NewMap[int, *int](cmp.Compare[int])
	for i := 0; i < 32; i++ {
		n := i
		m.Insert(i, &n)
	}

	sum := 0
	m.Clear(func(k int, v *int) {
		assert.Equal(t, k, *v)
		sum += k
	})
	assert.Equal(t, 31*32/2, sum)
	assert.Equal(t, 0, m.Len())
	assert.Nil(t, m.Min())
}

// The intrusive tree and the map run the same balancing code, so the same
// key sequence must give the same shape and colors in both modes.
func TestMap_SameShapeAsIntrusive(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	tr := New(byKey)
	m := NewMap[int, struct{}](cmp.Compare[int])
	items := map[int]*item{}

	for step := 0; step < 2000; step++ {
		k := rng.Intn(300)
		if it, ok := items[k]; ok {
			tr.Remove(it)
			_, deleted := m.Delete(k)
			require.True(t, deleted)
			delete(items, k)
			continue
		}
		it := &item{key: k}
		items[k] = it
		require.True(t, tr.Insert(it))
		require.True(t, m.Insert(k, struct{}{}))
	}

	type shape struct {
		key int
		red bool
	}
	var a, b []shape
	tr.PreOrder(func(e *item, _ int) bool {
		a = append(a, shape{e.key, IsRed(e)})
		return true
	})
	m.Tree().PreOrder(func(e *Entry[int, struct{}], _ int) bool {
		b = append(b, shape{e.Key(), IsRed(e)})
		return true
	})
	assert.Equal(t, a, b)
}
