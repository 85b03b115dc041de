package heap

// BestFit indexes free blocks with a single intrusive chain through their
// payloads, exactly the shape of lldb's single-list-per-size-bucket free
// list table collapsed to one bucket: FindAndRemove scans the whole
// chain and keeps the smallest block seen that still fits, breaking ties
// in favour of the first one found.
type BestFit struct {
	cfg  *arenaConfig
	head uint32
}

func (p *BestFit) blockAt(off uint32) *Block { return newBlock(p.cfg, off) }

func (p *BestFit) next(b *Block) uint32       { return b.getUint32At(0) }
func (p *BestFit) setNext(b *Block, v uint32) { b.putUint32At(0, v) }
func (p *BestFit) prev(b *Block) uint32       { return b.getUint32At(4) }
func (p *BestFit) setPrev(b *Block, v uint32) { b.putUint32At(4, v) }

// FreeHeaderSize is 8: a 4 byte next link and a 4 byte prev link.
func (p *BestFit) FreeHeaderSize() uint32 { return 8 }

func (p *BestFit) Init(b *Block) {
	p.cfg = b.cfg
	p.head = noBlock
	p.Add(b)
}

func (p *BestFit) Add(b *Block) {
	p.setPrev(b, noBlock)
	p.setNext(b, p.head)
	if p.head != noBlock {
		p.setPrev(p.blockAt(p.head), b.off)
	}
	p.head = b.off
}

func (p *BestFit) Remove(b *Block) {
	prevOff, nextOff := p.prev(b), p.next(b)
	if prevOff != noBlock {
		p.setNext(p.blockAt(prevOff), nextOff)
	} else {
		p.head = nextOff
	}
	if nextOff != noBlock {
		p.setPrev(p.blockAt(nextOff), prevOff)
	}
}

// Update is a no-op: the chain is unordered, so a block's new size never
// invalidates its position in it.
func (p *BestFit) Update(oldSize uint32, b *Block) {}

func (p *BestFit) FindAndRemove(size uint32) *Block {
	var best *Block
	for off := p.head; off != noBlock; {
		cand := p.blockAt(off)
		off = p.next(cand)
		if cand.Size() < size {
			continue
		}
		if best == nil || cand.Size() < best.Size() {
			best = cand
		}
	}
	if best == nil {
		return nil
	}
	p.Remove(best)
	return best
}
