package heap

import "github.com/cznic/mathutil"

// AVLTree indexes free blocks in a height-balanced binary tree keyed by
// payload size, embedded in the blocks' own payloads (left, right, parent
// offsets plus a subtree height, 4 bytes apiece). FindAndRemove walks to
// the smallest node with size >= the request, same shape as a textbook
// AVL "ceiling" search.
//
// Update is implemented as Remove followed by Add rather than an in-place
// rekey: since removal here only ever follows parent/left/right links, it
// never reads the key being replaced, so re-inserting under the new size
// is exactly as cheap and a great deal simpler to get right.
type AVLTree struct {
	cfg  *arenaConfig
	root uint32
}

func (p *AVLTree) blockAt(off uint32) *Block { return newBlock(p.cfg, off) }

func (p *AVLTree) left(b *Block) uint32        { return b.getUint32At(0) }
func (p *AVLTree) setLeft(b *Block, v uint32)  { b.putUint32At(0, v) }
func (p *AVLTree) right(b *Block) uint32       { return b.getUint32At(4) }
func (p *AVLTree) setRight(b *Block, v uint32) { b.putUint32At(4, v) }
func (p *AVLTree) parent(b *Block) uint32      { return b.getUint32At(8) }
func (p *AVLTree) setParent(b *Block, v uint32) { b.putUint32At(8, v) }
func (p *AVLTree) height(b *Block) int32       { return int32(b.getUint32At(12)) }
func (p *AVLTree) setHeight(b *Block, h int32) { b.putUint32At(12, uint32(h)) }

// FreeHeaderSize is 16: left, right, parent and height, 4 bytes each.
func (p *AVLTree) FreeHeaderSize() uint32 { return 16 }

func (p *AVLTree) heightOf(off uint32) int32 {
	if off == noBlock {
		return 0
	}
	return p.height(p.blockAt(off))
}

func (p *AVLTree) updateHeight(b *Block) {
	lh, rh := int(p.heightOf(p.left(b))), int(p.heightOf(p.right(b)))
	p.setHeight(b, int32(mathutil.Max(lh, rh))+1)
}

func (p *AVLTree) balanceFactor(b *Block) int32 {
	return p.heightOf(p.left(b)) - p.heightOf(p.right(b))
}

func (p *AVLTree) Init(b *Block) {
	p.cfg = b.cfg
	p.root = noBlock
	p.Add(b)
}

func (p *AVLTree) Add(b *Block) {
	p.setLeft(b, noBlock)
	p.setRight(b, noBlock)
	p.setParent(b, noBlock)
	p.setHeight(b, 1)

	if p.root == noBlock {
		p.root = b.off
		return
	}

	cur := p.blockAt(p.root)
	for {
		if b.Size() < cur.Size() {
			if l := p.left(cur); l != noBlock {
				cur = p.blockAt(l)
				continue
			}
			p.setLeft(cur, b.off)
			p.setParent(b, cur.off)
			break
		}
		if r := p.right(cur); r != noBlock {
			cur = p.blockAt(r)
			continue
		}
		p.setRight(cur, b.off)
		p.setParent(b, cur.off)
		break
	}

	p.retrace(p.parent(b))
}

// retrace walks from off up to the root, refreshing heights and rotating
// any subtree whose balance factor has gone out of range.
func (p *AVLTree) retrace(off uint32) {
	for off != noBlock {
		node := p.blockAt(off)
		p.updateHeight(node)
		node = p.rebalance(node)
		off = p.parent(node)
	}
}

func (p *AVLTree) rebalance(node *Block) *Block {
	switch bf := p.balanceFactor(node); {
	case bf > 1:
		if p.balanceFactor(p.blockAt(p.left(node))) < 0 {
			p.rotateLeft(p.blockAt(p.left(node)))
		}
		return p.rotateRight(node)
	case bf < -1:
		if p.balanceFactor(p.blockAt(p.right(node))) > 0 {
			p.rotateRight(p.blockAt(p.right(node)))
		}
		return p.rotateLeft(node)
	default:
		return node
	}
}

// replaceChild re-points x's parent's child slot (or the tree root) at
// newOff, and sets newOff's parent accordingly. It does not touch x or
// newOff's own children.
func (p *AVLTree) replaceChild(x *Block, newOff uint32) {
	parentOff := p.parent(x)
	if newOff != noBlock {
		p.setParent(p.blockAt(newOff), parentOff)
	}
	if parentOff == noBlock {
		p.root = newOff
		return
	}
	parent := p.blockAt(parentOff)
	if p.left(parent) == x.off {
		p.setLeft(parent, newOff)
	} else {
		p.setRight(parent, newOff)
	}
}

func (p *AVLTree) rotateLeft(x *Block) *Block {
	y := p.blockAt(p.right(x))
	t2 := p.left(y)

	p.replaceChild(x, y.off)
	p.setRight(x, t2)
	if t2 != noBlock {
		p.setParent(p.blockAt(t2), x.off)
	}
	p.setLeft(y, x.off)
	p.setParent(x, y.off)

	p.updateHeight(x)
	p.updateHeight(y)
	return y
}

func (p *AVLTree) rotateRight(x *Block) *Block {
	y := p.blockAt(p.left(x))
	t2 := p.right(y)

	p.replaceChild(x, y.off)
	p.setLeft(x, t2)
	if t2 != noBlock {
		p.setParent(p.blockAt(t2), x.off)
	}
	p.setRight(y, x.off)
	p.setParent(x, y.off)

	p.updateHeight(x)
	p.updateHeight(y)
	return y
}

func (p *AVLTree) Remove(b *Block) {
	lOff, rOff := p.left(b), p.right(b)
	var rebalanceFrom uint32

	switch {
	case lOff == noBlock && rOff == noBlock:
		rebalanceFrom = p.parent(b)
		p.replaceChild(b, noBlock)
	case lOff == noBlock:
		rebalanceFrom = p.parent(b)
		p.replaceChild(b, rOff)
	case rOff == noBlock:
		rebalanceFrom = p.parent(b)
		p.replaceChild(b, lOff)
	default:
		succ := p.blockAt(rOff)
		for p.left(succ) != noBlock {
			succ = p.blockAt(p.left(succ))
		}

		if p.parent(succ) == b.off {
			rebalanceFrom = succ.off
		} else {
			rebalanceFrom = p.parent(succ)
			p.replaceChild(succ, p.right(succ))
			p.setRight(succ, rOff)
			p.setParent(p.blockAt(rOff), succ.off)
		}

		p.replaceChild(b, succ.off)
		p.setLeft(succ, lOff)
		p.setParent(p.blockAt(lOff), succ.off)
	}

	p.retrace(rebalanceFrom)
}

func (p *AVLTree) Update(oldSize uint32, b *Block) {
	p.Remove(b)
	p.Add(b)
}

func (p *AVLTree) FindAndRemove(size uint32) *Block {
	off, best := p.root, noBlock
	for off != noBlock {
		node := p.blockAt(off)
		if node.Size() >= size {
			best = off
			off = p.left(node)
		} else {
			off = p.right(node)
		}
	}
	if best == noBlock {
		return nil
	}
	found := p.blockAt(best)
	p.Remove(found)
	return found
}
