package atomiclist

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type elem struct {
	link  Link[elem]
	value int
}

func (e *elem) Link() *Link[elem] { return &e.link }

func newElems(n int) []*elem {
	es := make([]*elem, n)
	for i := range es {
		es[i] = &elem{value: i}
	}
	return es
}

func TestListPushReadDrainsInPushOrder(t *testing.T) {
	l := New[elem, *elem]()
	es := newElems(5)
	for _, e := range es {
		l.Init(e)
	}

	for _, e := range es {
		require.True(t, l.Push(e))
	}

	r := l.Read()
	var got []int
	for e := r.Pop(); e != nil; e = r.Pop() {
		got = append(got, e.value)
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestListDoublePushRejected(t *testing.T) {
	l := New[elem, *elem]()
	e := &elem{}
	l.Init(e)

	require.True(t, l.Push(e))
	require.False(t, l.Push(e))

	r := l.Read()
	assert.Same(t, e, r.Peek())
	assert.Same(t, e, r.Pop())
	assert.Nil(t, r.Pop())
}

func TestListRepushAfterPop(t *testing.T) {
	l := New[elem, *elem]()
	e := &elem{}
	l.Init(e)

	require.True(t, l.Push(e))
	r1 := l.Read()
	require.Same(t, e, r1.Peek())
	require.Same(t, e, r1.Pop())

	require.True(t, l.Push(e), "popped element must be re-pushable")

	r2 := l.Read()
	assert.Same(t, e, r2.Peek())
}

func TestListReadIsolatesSnapshotFromLaterPushes(t *testing.T) {
	l := New[elem, *elem]()
	es := newElems(3)
	for _, e := range es {
		l.Init(e)
		require.True(t, l.Push(e))
	}

	r := l.Read()

	late := &elem{value: 99}
	l.Init(late)
	require.True(t, l.Push(late))

	var got []int
	for e := r.Pop(); e != nil; e = r.Pop() {
		got = append(got, e.value)
	}
	assert.Equal(t, []int{0, 1, 2}, got, "snapshot must not observe a push after Read")

	r2 := l.Read()
	assert.Same(t, late, r2.Pop())
}

func TestListConcurrentPushSingleReader(t *testing.T) {
	l := New[elem, *elem]()
	const n = 200
	es := newElems(n)
	for _, e := range es {
		l.Init(e)
	}

	var wg sync.WaitGroup
	wg.Add(n)
	for _, e := range es {
		e := e
		go func() {
			defer wg.Done()
			l.Push(e)
		}()
	}
	wg.Wait()

	r := l.Read()
	seen := make(map[int]bool, n)
	for e := r.Pop(); e != nil; e = r.Pop() {
		assert.False(t, seen[e.value], "duplicate element delivered")
		seen[e.value] = true
	}
	assert.Len(t, seen, n)
}
