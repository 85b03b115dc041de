package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testArena lays out a handful of equal-spaced raw blocks an individual
// policy can be exercised against directly, without going through Heap.
// Every block is given a payload of the requested size and marked free.
func testArena(t *testing.T, cfg *arenaConfig, count int, payload uint32) []*Block {
	t.Helper()
	hs := uint32(cfg.headerSize())
	blocks := make([]*Block, count)
	off := uint32(0)
	for i := range blocks {
		b := newRawBlock(cfg, off)
		b.setPrevSize(0)
		b.SetSize(payload)
		b.SetFree(true)
		blocks[i] = b
		off += hs + payload
	}
	return blocks
}

func TestBestFitBreaksTiesByFirstSeen(t *testing.T) {
	cfg := &arenaConfig{buf: make([]byte, 512), alignBits: 2}
	blocks := testArena(t, cfg, 3, 32)

	var p BestFit
	p.Init(blocks[0])
	p.Add(blocks[1])
	p.Add(blocks[2])

	got := p.FindAndRemove(32)
	require.NotNil(t, got)
	assert.Equal(t, blocks[2].off, got.off, "equally-sized candidates must yield the first one the scan meets: Add prepends, so that is the last one added")
}

func TestBestFitFindAndRemovePicksSmallestSufficient(t *testing.T) {
	cfg := &arenaConfig{buf: make([]byte, 512), alignBits: 2}
	hs := uint32(cfg.headerSize())

	small := newRawBlock(cfg, 0)
	small.SetSize(32)
	small.SetFree(true)
	big := newRawBlock(cfg, hs+32)
	big.SetSize(128)
	big.SetFree(true)

	var p BestFit
	p.Init(big)
	p.Add(small)

	got := p.FindAndRemove(16)
	require.NotNil(t, got)
	assert.Equal(t, uint32(32), got.Size())
}

func TestAVLTreeFindAndRemoveIsCeilingSearch(t *testing.T) {
	cfg := &arenaConfig{buf: make([]byte, 2048), alignBits: 2}
	hs := uint32(cfg.headerSize())
	sizes := []uint32{16, 64, 32, 128, 48}

	blocks := make([]*Block, len(sizes))
	off := uint32(0)
	for i, sz := range sizes {
		b := newRawBlock(cfg, off)
		b.SetSize(sz)
		b.SetFree(true)
		blocks[i] = b
		off += hs + sz
	}

	var p AVLTree
	p.Init(blocks[0])
	for _, b := range blocks[1:] {
		p.Add(b)
	}

	got := p.FindAndRemove(40)
	require.NotNil(t, got)
	assert.Equal(t, uint32(48), got.Size(), "must return the smallest block that still fits")

	assert.Nil(t, p.FindAndRemove(1000))
}

func TestAVLTreeRemainsBalancedUnderSequentialInsertion(t *testing.T) {
	// 63 blocks of 8 header bytes plus 16, 32, ..., 1008 payload bytes
	// take 32760 bytes.
	cfg := &arenaConfig{buf: make([]byte, 32768), alignBits: 2}
	hs := uint32(cfg.headerSize())

	const n = 63
	blocks := make([]*Block, n)
	off := uint32(0)
	for i := 0; i < n; i++ {
		b := newRawBlock(cfg, off)
		b.SetSize(uint32(16 + i*16))
		b.SetFree(true)
		blocks[i] = b
		off += hs + b.Size()
	}

	var p AVLTree
	p.Init(blocks[0])
	for _, b := range blocks[1:] {
		p.Add(b)
	}

	var height func(off uint32) int
	height = func(off uint32) int {
		if off == noBlock {
			return 0
		}
		return int(p.height(p.blockAt(off)))
	}
	// log2(64) == 6; an AVL tree never exceeds ~1.44*log2(n+2).
	assert.LessOrEqual(t, height(p.root), 10)
}

func TestTLSFMapInsertIsDeterministic(t *testing.T) {
	fl, sl := mapInsert(100)
	fl2, sl2 := mapInsert(100)
	assert.Equal(t, fl, fl2)
	assert.Equal(t, sl, sl2)
}

func TestTLSFMapSearchNeverUndershoots(t *testing.T) {
	for _, size := range []uint32{1, 15, 16, 17, 100, 4095, 4096, 1 << 20} {
		fl, sl := mapSearch(size)
		// mapSearch rounds size up to a bucket start, so it can land in
		// the same bucket as mapInsert only when size already is one;
		// otherwise its first-level class must not be below mapInsert's,
		// or FindAndRemove could hand back a block too small for the
		// request.
		floorFL, floorSL := mapInsert(size)
		if floorFL == fl && floorSL == sl {
			continue // size is already exactly a bucket boundary
		}
		assert.False(t, fl < floorFL, "mapSearch must never round down a class for size %d", size)
	}
}

func TestTLSFFindAndRemoveReturnsSufficientBlock(t *testing.T) {
	cfg := &arenaConfig{buf: make([]byte, 4096), alignBits: 2}
	hs := uint32(cfg.headerSize())
	sizes := []uint32{8, 40, 200, 1000}

	blocks := make([]*Block, len(sizes))
	off := uint32(0)
	for i, sz := range sizes {
		b := newRawBlock(cfg, off)
		b.SetSize(sz)
		b.SetFree(true)
		blocks[i] = b
		off += hs + sz
	}

	var p TLSF
	p.Init(blocks[0])
	for _, b := range blocks[1:] {
		p.Add(b)
	}

	got := p.FindAndRemove(150)
	require.NotNil(t, got)
	assert.GreaterOrEqual(t, got.Size(), uint32(150))

	assert.Nil(t, p.FindAndRemove(1<<20))
}
