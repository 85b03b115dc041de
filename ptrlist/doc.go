// Package ptrlist implements an intrusive, singly-linked list whose storage
// for the "next" link lives inside the linked element itself rather than in
// a list node wrapper.
//
// List is deliberately ownership-agnostic: it links and unlinks raw *E
// values, which already satisfy the minimal contract a move-only handle
// needs in Go — comparable to nil, dereferenceable, and copyable only by
// convention (callers must not reuse a *E after it has been consumed by
// Add, AddBack, or Clear). Ownership policy — what "destroying" an element
// means — is supplied once, at construction, as a dispose callback; List
// invokes it whenever it is the one responsible for releasing an element
// (a failed Add/AddBack, or every surviving element on Clear). Remove and
// Iterator.Remove hand ownership back to the caller instead, so they never
// call dispose.
//
// Unique and RefCounted are standalone ownership wrappers usable with or
// without a List, grounded in the same "handle wraps a target, target may
// embed a handle of its own" shape the list itself assumes; they cover the
// self-referential-cycle case where a handle is stored inside the very
// object it owns.
//
// None of this package is safe for concurrent use without external
// synchronization.
package ptrlist
