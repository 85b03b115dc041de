// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*

Package heap implements a general purpose allocator over a single
caller-supplied byte buffer (the arena), with a pluggable free-block index
(a Policy) deciding how free space is found and reclaimed.

Arena layout

The arena is a linear, contiguous sequence of blocks. A block is a header
(8 bytes, or 16 with checksums enabled) immediately followed by its
payload:

	+----------+----------+[----------+]+-------------------+
	| prevSize | thisSize |[ checksum ]| payload            |
	+----------+----------+[----------+]+-------------------+

prevSize and thisSize are the payload sizes (in bytes, always a multiple
of the configured alignment) of the immediately preceding and this block,
respectively; thisSize's low bit is stolen as the free flag, which is safe
because a payload size is always even as long as alignment is at least 2.
A block's neighbours are found by arithmetic on these fields alone, never
by a side index: Next is this block's offset plus its header and payload
size, Prev is this block's offset minus its prevSize and a header.

The last "block" in the arena is a zero-payload sentinel, always used,
so that Next never needs a special case at the arena's right edge; a
prevSize of zero signals there is no left neighbour, covering the left
edge.

Policies

A Policy indexes free blocks so FindAndRemove can locate one of
sufficient size without scanning the whole arena (well, BestFit does scan
— that is its whole point). A free block's own payload bytes are reused
to hold whatever bookkeeping the policy needs (intrusive, no side
allocation), mirroring how lldb's free list table threads prev/next
handles through the free blocks of a Filer rather than keeping them
in a separate index.

Safety

Heap is not safe for concurrent use. Integrity faults (a checksum
mismatch, when checksums are enabled) panic; they are not recoverable
and this package makes no attempt to repair a corrupted arena.

*/
package heap
