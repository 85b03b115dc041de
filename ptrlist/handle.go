package ptrlist

import "sync/atomic"

// Unique is a move-only owning pointer: at most one Unique at a time holds
// a given *T. Go has no destructive move, so "move" here means Take, which
// empties the receiver and hands the pointer to the caller; copying a
// Unique by value and keeping both around is a caller bug this type cannot
// prevent, matching the "move-only" contract being a discipline rather
// than something the compiler enforces.
type Unique[T any] struct {
	ptr     *T
	dispose func(*T)
}

// NewUnique wraps ptr, to be released via dispose (if non-nil) on Drop.
func NewUnique[T any](ptr *T, dispose func(*T)) Unique[T] {
	return Unique[T]{ptr: ptr, dispose: dispose}
}

func (u *Unique[T]) IsEmpty() bool { return u.ptr == nil }

// Node borrows the owned pointer without transferring ownership.
func (u *Unique[T]) Node() *T { return u.ptr }

// Take transfers ownership out, leaving the receiver empty.
func (u *Unique[T]) Take() *T {
	p := u.ptr
	u.ptr = nil
	return p
}

// Drop releases ownership, running dispose if this handle still owns
// something. It is idempotent: dropping an already-empty handle, or
// dropping the same handle twice, is a no-op the second time.
func (u *Unique[T]) Drop() {
	p := u.ptr
	if p == nil {
		return
	}
	u.ptr = nil
	if u.dispose != nil {
		u.dispose(p)
	}
}

// MoveTo moves ownership from u into *dst. Whatever dst previously owned is
// dropped first. A self-move (dst == u) is a no-op rather than a
// destroy-then-empty-the-source: naively dropping dst first would, in the
// dst == u case, destroy the very object the move is trying to preserve.
// This is also the method used to build a self-referential handle (storing
// a handle to a node inside that node's own field): call MoveTo with dst
// pointing at the field, not with dst == u, and it behaves like any other
// move — the cycle is just data, not a special case, because dropping the
// field's prior (empty) contents can't disturb u.
func (u *Unique[T]) MoveTo(dst *Unique[T]) {
	if u == dst {
		return
	}
	dst.Drop()
	dst.ptr, dst.dispose = u.ptr, u.dispose
	u.ptr = nil
}

// refCount is the shared counter backing every clone of a RefCounted.
type refCount struct {
	n atomic.Int32
}

// RefCounted is a shared owning pointer: the referent is disposed when the
// last clone is dropped. The counter is atomic so clones may be dropped
// from different goroutines even though the referent itself, like
// everything else in this package, is not assumed concurrency-safe.
type RefCounted[T any] struct {
	ptr     *T
	count   *refCount
	dispose func(*T)
}

// NewRefCounted wraps ptr with an initial refcount of one.
func NewRefCounted[T any](ptr *T, dispose func(*T)) RefCounted[T] {
	c := &refCount{}
	c.n.Store(1)
	return RefCounted[T]{ptr: ptr, count: c, dispose: dispose}
}

func (r RefCounted[T]) IsEmpty() bool { return r.ptr == nil }

// Node borrows the owned pointer without affecting the refcount.
func (r RefCounted[T]) Node() *T { return r.ptr }

// Clone returns a new handle sharing ownership; the caller now owns two
// handles and must Drop both.
func (r RefCounted[T]) Clone() RefCounted[T] {
	if r.ptr != nil {
		r.count.n.Add(1)
	}
	return r
}

// Drop releases this handle's share. The referent is disposed exactly once,
// when the share count reaches zero.
func (r *RefCounted[T]) Drop() {
	if r.ptr == nil {
		return
	}
	p, c := r.ptr, r.count
	r.ptr, r.count = nil, nil
	if c.n.Add(-1) == 0 && r.dispose != nil {
		r.dispose(p)
	}
}
