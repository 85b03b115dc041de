package heap

import "unsafe"

// Heap is a free-list allocator over a caller-supplied arena, indexed by
// a pluggable Policy. S is the policy's storage type and P its pointer,
// exactly the split atomiclist.List uses for its element constraint: the
// heap holds policy state by value (in h.policy) and only ever reaches
// for P to call its methods, so there is no interface value and no
// indirect call on the allocation path.
//
// Heap is not safe for concurrent use. A checksum mismatch while
// decoding a block panics with *IntegrityError: per the allocator's own
// contract, corruption here is unrecoverable.
type Heap[S any, P Policy[S]] struct {
	cfg      *arenaConfig
	policy   S
	minSplit uint32 // header + policy's minimum free payload, rounded to alignment
	end      uint32 // offset of the trailing used sentinel
}

// New builds a Heap over arena, carving it into one large free block
// followed by a zero-payload used sentinel. alignBits is the base-2 log
// of the payload alignment every block boundary will respect; arena's
// backing address must itself already satisfy that alignment.
func New[S any, P Policy[S]](arena []byte, alignBits uint, checksummed bool) (*Heap[S, P], error) {
	if alignBits >= 32 {
		return nil, NewErrInvalidAlign(alignBits)
	}
	if len(arena) > int(^uint32(0)) {
		return nil, NewErrArenaTooLarge(len(arena))
	}
	align := uint32(1) << alignBits
	if len(arena) > 0 && uintptr(unsafe.Pointer(&arena[0]))&uintptr(align-1) != 0 {
		return nil, NewErrArenaMisaligned(alignBits)
	}

	cfg := &arenaConfig{buf: arena, alignBits: alignBits, checksummed: checksummed}
	hs := uint32(cfg.headerSize())
	if align > hs {
		return nil, NewErrInvalidAlign(alignBits)
	}

	var policy S
	minPayload := roundUp(P(&policy).FreeHeaderSize(), align)
	minSplit := hs + minPayload

	need := int(hs+minPayload) + int(hs)
	if len(arena) < need {
		return nil, NewErrArenaTooSmall(len(arena), need)
	}

	totalPayload := roundDown(uint32(len(arena))-2*hs, align)
	if totalPayload < minPayload {
		return nil, NewErrArenaTooSmall(len(arena), need)
	}

	h := &Heap[S, P]{cfg: cfg, minSplit: minSplit}

	first := newRawBlock(cfg, 0)
	first.setPrevSize(0)
	first.SetSize(totalPayload)
	first.SetFree(true)

	sentinelOff := hs + totalPayload
	sentinel := newRawBlock(cfg, sentinelOff)
	sentinel.setPrevSize(totalPayload)
	sentinel.SetSize(0)
	sentinel.SetFree(false)
	h.end = sentinelOff

	P(&h.policy).Init(first)
	return h, nil
}

func (h *Heap[S, P]) align() uint32 { return h.cfg.align() }

func roundUp(n, align uint32) uint32   { return (n + align - 1) &^ (align - 1) }
func roundDown(n, align uint32) uint32 { return n &^ (align - 1) }

// fixNextPrevSize refreshes b's right neighbour's prevSize field after
// b's own size changed. b always has a right neighbour: the arena's
// trailing sentinel guarantees it.
func (h *Heap[S, P]) fixNextPrevSize(b *Block) {
	if n := b.Next(); n != nil {
		n.setPrevSize(b.Size())
	}
}

// Alloc returns a freshly carved, uninitialized payload of at least n
// bytes, or nil if no free block is large enough. The payload is n rounded
// up to the alignment (and to the policy's minimum free payload), or the
// whole free block when the leftover is too small to split off.
func (h *Heap[S, P]) Alloc(n int) []byte {
	if n < 0 || uint64(n) > uint64(^uint32(0)-h.align()) {
		return nil
	}
	hs := uint32(h.cfg.headerSize())
	rounded := roundUp(uint32(n), h.align())
	if minPayload := h.minSplit - hs; rounded < minPayload {
		rounded = minPayload
	}

	b := P(&h.policy).FindAndRemove(rounded)
	if b == nil {
		return nil
	}

	if b.Size() >= rounded+h.minSplit {
		tailOff := b.off + hs + rounded
		tailPayload := b.Size() - rounded - hs
		b.SetSize(rounded)

		tail := newRawBlock(h.cfg, tailOff)
		tail.setPrevSize(rounded)
		tail.SetSize(tailPayload)
		tail.SetFree(true)
		h.fixNextPrevSize(tail)
		P(&h.policy).Add(tail)
	}

	b.SetFree(false)
	return b.UserPtr()
}

// Free returns p, previously obtained from Alloc/Resize/DropFront, to
// the free list, coalescing with either neighbour that is itself free.
func (h *Heap[S, P]) Free(p []byte) {
	b := fromUserPtr(h.cfg, p)
	hs := uint32(h.cfg.headerSize())
	l, r := b.Prev(), b.Next()
	lFree := l != nil && l.IsFree()
	rFree := r != nil && r.IsFree()

	switch {
	case lFree && rFree:
		oldL := l.Size()
		P(&h.policy).Remove(r)
		l.SetSize(l.Size() + hs + b.Size() + hs + r.Size())
		P(&h.policy).Update(oldL, l)
		h.fixNextPrevSize(l)
	case lFree:
		oldL := l.Size()
		l.SetSize(l.Size() + hs + b.Size())
		P(&h.policy).Update(oldL, l)
		h.fixNextPrevSize(l)
	case rFree:
		P(&h.policy).Remove(r)
		b.SetSize(b.Size() + hs + r.Size())
		b.SetFree(true)
		P(&h.policy).Add(b)
		h.fixNextPrevSize(b)
	default:
		b.SetFree(true)
		P(&h.policy).Add(b)
		h.fixNextPrevSize(b)
	}
}

// Resize changes p's usable size in place, never relocating it. It
// returns the size actually in effect afterwards: at least newN on a
// successful shrink or grow (newN rounded up to the alignment and to the
// policy's minimum free payload, or the whole merged block when a grow's
// leftover is too small to split off), or the unchanged current size when
// a shrink is smaller than the split threshold or the right neighbour
// cannot accommodate a grow. Only the right neighbour is considered. A
// caller that gets back the current size on a grow must allocate fresh and
// copy if it still needs more room.
func (h *Heap[S, P]) Resize(p []byte, newN int) int {
	b := fromUserPtr(h.cfg, p)
	hs := uint32(h.cfg.headerSize())
	current := b.Size()

	if newN < 0 {
		return int(current)
	}
	rounded := roundUp(uint32(newN), h.align())
	if minPayload := h.minSplit - hs; rounded < minPayload {
		rounded = minPayload
	}
	if rounded == current {
		return int(current)
	}

	if rounded < current {
		shrinkBy := current - rounded
		if shrinkBy < h.minSplit {
			return int(current)
		}

		right := b.Next()
		tailPayload := shrinkBy - hs
		b.SetSize(rounded)

		tail := newRawBlock(h.cfg, b.off+hs+rounded)
		tail.setPrevSize(rounded)
		if right != nil && right.IsFree() {
			P(&h.policy).Remove(right)
			tail.SetSize(tailPayload + hs + right.Size())
		} else {
			tail.SetSize(tailPayload)
		}
		tail.SetFree(true)
		P(&h.policy).Add(tail)
		h.fixNextPrevSize(tail)
		return int(rounded)
	}

	growBy := rounded - current
	right := b.Next()
	if right == nil || !right.IsFree() || right.Size()+hs < growBy {
		return int(current)
	}

	avail := right.Size() + hs
	oldRight := right.Size()
	if avail-growBy >= h.minSplit {
		P(&h.policy).Remove(right)
		b.SetSize(rounded)

		residual := newRawBlock(h.cfg, b.off+hs+rounded)
		residual.setPrevSize(rounded)
		residual.SetSize(avail - growBy - hs)
		residual.SetFree(true)
		P(&h.policy).Add(residual)
		h.fixNextPrevSize(residual)
		return int(rounded)
	}

	P(&h.policy).Remove(right)
	b.SetSize(current + hs + oldRight)
	h.fixNextPrevSize(b)
	return int(b.Size())
}

// DropFront trims k bytes off the front of p, returning the (possibly
// unchanged) pointer to what remains. Content at and after the new
// start is preserved; content before it is not. A k that rounds down to
// zero at the alignment, that would leave less than the policy's minimum
// free payload, or that is too small to stand alone as a free block when
// the left neighbour is not free, is refused: the returned slice equals p.
func (h *Heap[S, P]) DropFront(p []byte, k int) []byte {
	b := fromUserPtr(h.cfg, p)
	hs := uint32(h.cfg.headerSize())

	if k < 0 {
		return p
	}
	trim := roundDown(uint32(k), h.align())
	if trim == 0 || trim+h.minSplit-hs > b.Size() {
		return p
	}

	l := b.Prev()
	newOff := b.off + trim
	newPayload := b.Size() - trim

	if l != nil && l.IsFree() {
		oldL := l.Size()
		l.SetSize(l.Size() + trim)

		nb := newRawBlock(h.cfg, newOff)
		nb.setPrevSize(l.Size())
		nb.SetSize(newPayload)
		nb.SetFree(false)
		P(&h.policy).Update(oldL, l)
		h.fixNextPrevSize(nb)
		return nb.UserPtr()
	}

	if trim < h.minSplit {
		return p
	}

	nb := newRawBlock(h.cfg, newOff)
	nb.setPrevSize(trim - hs)
	nb.SetSize(newPayload)
	nb.SetFree(false)

	free := newRawBlock(h.cfg, b.off)
	free.setPrevSize(b.PrevSize())
	free.SetSize(trim - hs)
	free.SetFree(true)
	P(&h.policy).Add(free)
	h.fixNextPrevSize(nb)

	return nb.UserPtr()
}

// Stats walks the whole arena and summarizes its current occupancy.
func (h *Heap[S, P]) Stats() Stats {
	var s Stats
	hs := uint32(h.cfg.headerSize())

	for off := uint32(0); off < h.end; {
		b := newBlock(h.cfg, off)
		if b.IsFree() {
			s.NFree++
			s.TotalFree += b.Size()
			if b.Size() > s.LongestFree {
				s.LongestFree = b.Size()
			}
		} else {
			s.NUsed++
			s.TotalUsed += b.Size()
		}
		off = b.off + hs + b.Size()
	}
	return s
}
