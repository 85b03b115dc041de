package heap

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"github.com/cespare/xxhash/v2"
)

const (
	headerBaseSize = 8 // prevSize(4) + thisSize(4)
	checksumSize   = 8 // xxhash64 of the base header
)

// arenaConfig is shared by every Block decoded from the same arena.
type arenaConfig struct {
	buf         []byte
	alignBits   uint
	checksummed bool
}

func (c *arenaConfig) headerSize() int {
	if c.checksummed {
		return headerBaseSize + checksumSize
	}
	return headerBaseSize
}

func (c *arenaConfig) align() uint32 { return uint32(1) << c.alignBits }

// IntegrityError reports a checksum mismatch found while decoding a block
// header. It is not recoverable: the caller is expected to let it panic
// the process rather than attempt repair.
type IntegrityError struct {
	Offset uint32
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("heap: checksum mismatch at offset %d", e.Offset)
}

// Block is a view over one block's header, located within an arena shared
// by an arenaConfig. It carries no state of its own beyond cfg and off, so
// constructing one is cheap and copying one is safe.
type Block struct {
	cfg *arenaConfig
	off uint32
}

// newBlock decodes the block at off, verifying its checksum if enabled.
// Use this for any block whose header is expected to already hold valid,
// previously written data.
func newBlock(cfg *arenaConfig, off uint32) *Block {
	b := &Block{cfg: cfg, off: off}
	b.verifyChecksum()
	return b
}

// newRawBlock addresses off without verifying anything there. Use this
// when about to overwrite the header — carving a new block out of bytes
// that do not yet hold one.
func newRawBlock(cfg *arenaConfig, off uint32) *Block {
	return &Block{cfg: cfg, off: off}
}

// fromUserPtr recovers the Block owning a payload slice previously
// returned by UserPtr/Alloc. p must be a slice into cfg's arena.
func fromUserPtr(cfg *arenaConfig, p []byte) *Block {
	if len(p) == 0 {
		panic("heap: fromUserPtr of an empty slice")
	}
	base := uintptr(unsafe.Pointer(&cfg.buf[0]))
	addr := uintptr(unsafe.Pointer(&p[0]))
	off := uint32(addr-base) - uint32(cfg.headerSize())
	return newBlock(cfg, off)
}

func (b *Block) header() []byte { return b.cfg.buf[b.off : b.off+headerBaseSize] }

func (b *Block) writeChecksum() {
	if !b.cfg.checksummed {
		return
	}
	sum := xxhash.Sum64(b.header())
	binary.BigEndian.PutUint64(b.cfg.buf[b.off+headerBaseSize:b.off+headerBaseSize+checksumSize], sum)
}

func (b *Block) verifyChecksum() {
	if !b.cfg.checksummed {
		return
	}
	want := binary.BigEndian.Uint64(b.cfg.buf[b.off+headerBaseSize : b.off+headerBaseSize+checksumSize])
	if got := xxhash.Sum64(b.header()); got != want {
		panic(&IntegrityError{Offset: b.off})
	}
}

// PrevSize returns the payload size, in bytes, of the immediately
// preceding block, or 0 if this is the first block in the arena.
func (b *Block) PrevSize() uint32 { return binary.BigEndian.Uint32(b.header()[0:4]) }

func (b *Block) setPrevSize(n uint32) {
	binary.BigEndian.PutUint32(b.header()[0:4], n)
	b.writeChecksum()
}

func (b *Block) rawSize() uint32 { return binary.BigEndian.Uint32(b.header()[4:8]) }

// Size returns this block's payload size in bytes.
func (b *Block) Size() uint32 { return b.rawSize() &^ 1 }

// SetSize sets this block's payload size in bytes, preserving the free
// flag. n must be a multiple of the arena's alignment.
func (b *Block) SetSize(n uint32) {
	flag := b.rawSize() & 1
	binary.BigEndian.PutUint32(b.header()[4:8], n|flag)
	b.writeChecksum()
}

// IsFree reports whether this block is currently on a free list.
func (b *Block) IsFree() bool { return b.rawSize()&1 != 0 }

// SetFree sets or clears the free flag, preserving the size.
func (b *Block) SetFree(free bool) {
	sz := b.Size()
	if free {
		sz |= 1
	}
	binary.BigEndian.PutUint32(b.header()[4:8], sz)
	b.writeChecksum()
}

// Next returns the block immediately to the right of this one, or nil if
// this block is the arena's trailing sentinel. The receiver's own checksum
// is verified first, since its size decides where the neighbour is.
func (b *Block) Next() *Block {
	b.verifyChecksum()
	off := b.off + uint32(b.cfg.headerSize()) + b.Size()
	if off >= uint32(len(b.cfg.buf)) {
		return nil
	}
	return newBlock(b.cfg, off)
}

// Prev returns the block immediately to the left of this one, or nil if
// this is the first block in the arena. The receiver's own checksum is
// verified first, since its prevSize decides where the neighbour is.
func (b *Block) Prev() *Block {
	b.verifyChecksum()
	if b.PrevSize() == 0 && b.off == 0 {
		return nil
	}
	prevSize := b.PrevSize()
	hs := uint32(b.cfg.headerSize())
	if b.off < hs+prevSize {
		return nil
	}
	return newBlock(b.cfg, b.off-hs-prevSize)
}

// payloadSlice returns this block's payload, capped so growing it by
// append can never spill into the next block.
func (b *Block) payloadSlice() []byte {
	hs := uint32(b.cfg.headerSize())
	lo, hi := b.off+hs, b.off+hs+b.Size()
	return b.cfg.buf[lo:hi:hi]
}

// UserPtr returns the payload handed out to the allocator's caller.
func (b *Block) UserPtr() []byte { return b.payloadSlice() }

// getUint32At and putUint32At give free-list policies somewhere to store
// their own bookkeeping (links, tree pointers) inside a free block's
// payload, the same trick lldb's FLT uses to thread free lists through a
// Filer without any side allocation.
func (b *Block) getUint32At(pos int) uint32 {
	return binary.BigEndian.Uint32(b.payloadSlice()[pos : pos+4])
}

func (b *Block) putUint32At(pos int, v uint32) {
	binary.BigEndian.PutUint32(b.payloadSlice()[pos:pos+4], v)
}
