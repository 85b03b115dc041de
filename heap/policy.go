package heap

// noBlock is the "no link" sentinel used by every policy's intrusive
// bookkeeping. An arena large enough to produce a real offset this large
// could not exist in a []byte to begin with, so the value is unambiguous.
const noBlock = ^uint32(0)

// Policy is the free-block index a Heap is built on. S is the concrete
// policy's own storage type (BestFit, AVLTree, TLSF, ...); the pointer
// constraint mirrors atomiclist.Linkable — it is how this codebase spells
// "a type parameter bound to a fixed, compile-time-known operation set"
// without resorting to an interface value and its dynamic dispatch on the
// allocator's hot path.
//
// A free block's own payload bytes are where a Policy keeps its links;
// construction supplies the first free block so Init can learn the arena
// it will be indexing.
type Policy[S any] interface {
	*S

	Init(b *Block)
	Add(b *Block)
	Remove(b *Block)
	Update(oldSize uint32, b *Block)
	FindAndRemove(size uint32) *Block

	// FreeHeaderSize is the minimum payload, in bytes, this policy needs
	// to store its bookkeeping in a free block.
	FreeHeaderSize() uint32
}
