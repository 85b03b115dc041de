// Package atomiclist provides a lock-free, pointer-width atomic cell and a
// single-reader/multi-writer hand-off list built on top of it.
//
// Cell is a thin generic wrapper around atomic.Pointer plus a CAS-retry
// "apply" combinator. Numeric is its integer sibling over atomic.Int64;
// the Increment, Decrement, Set, SetIfGreater and SetIfLess helpers are
// all derived from Numeric's Apply.
// List and Reader use a Cell as the list head and use one more Cell,
// embedded in every list element via Link, as that element's intrusive
// "next" pointer. An element's Link doubles as its enlistment marker: a
// freshly Init'd element's link holds the list's private not-enlisted
// sentinel, and only differs from that sentinel while the element sits on
// the list or inside a Reader snapshot that hasn't popped it yet.
//
// Nothing in this package blocks. Push is wait-free unless another Push or
// a Read changes the head between its load and its CAS, in which case it
// retries; Read is a single atomic swap. There is no cancellation because there is nothing to cancel.
package atomiclist
