package cfg

import "deobcore/internal/ir"

// Analyze computes reverse post-order, dominance, post-dominance,
// dominance frontiers, and natural loops over c, populating every
// per-block field plus c.IDom/c.IPDom/c.RPO/c.Loops. It is the single
// entry point a caller should use after Build: the CFG's edges are
// complete by then, so these are whole-graph fixed-point computations
// rather than incremental maintenance.
func Analyze(c *CFG) {
	order := reversePostOrder(c)
	c.RPO = order

	idom := computeDominators(c, order, func(b *BasicBlock) IDSet { return b.Predecessors }, c.Entry)
	c.IDom = idom
	fillDominatorSets(c, idom, func(b *BasicBlock) *IDSet { return &b.Dominators }, func(b *BasicBlock) *IDSet { return &b.Dominates })
	computeFrontiers(c, idom, func(b *BasicBlock) IDSet { return b.Predecessors }, func(b *BasicBlock) *IDSet { return &b.DominanceFrontier })

	revOrder := reversePostOrderFrom(c, c.Exit, func(b *BasicBlock) IDSet { return b.Predecessors })
	ipdom := computeDominators(c, revOrder, func(b *BasicBlock) IDSet { return b.Successors }, c.Exit)
	c.IPDom = ipdom
	fillDominatorSets(c, ipdom, func(b *BasicBlock) *IDSet { return &b.PostDominators }, func(b *BasicBlock) *IDSet { return &b.PostDominates })
	computeFrontiers(c, ipdom, func(b *BasicBlock) IDSet { return b.Successors }, func(b *BasicBlock) *IDSet { return &b.PostFrontier })

	findNaturalLoops(c, idom)
	assignLoopDepths(c)
}

// reversePostOrder numbers blocks by a depth-first walk of the forward
// graph starting at Entry, reversed — the order the Cooper/Harvey/
// Kennedy iterative algorithm needs to converge in a single pass over
// well-structured (reducible) graphs, and in a handful of passes
// otherwise.
func reversePostOrder(c *CFG) []ir.NodeID {
	return reversePostOrderFrom(c, c.Entry, func(b *BasicBlock) IDSet { return b.Successors })
}

func reversePostOrderFrom(c *CFG, start ir.NodeID, next func(*BasicBlock) IDSet) []ir.NodeID {
	visited := NewIDSet()
	var post []ir.NodeID
	var visit func(id ir.NodeID)
	visit = func(id ir.NodeID) {
		if visited.Has(id) {
			return
		}
		visited.Add(id)
		b := c.Blocks[id]
		if b == nil {
			return
		}
		for _, s := range next(b).Sorted() {
			visit(s)
		}
		post = append(post, id)
	}
	visit(start)

	// Blocks unreachable from start (Build does not prune them) are
	// appended afterward so every block still gets a position.
	for id := range c.Blocks {
		visit(id)
	}

	rpo := make([]ir.NodeID, len(post))
	for i, id := range post {
		rpo[len(post)-1-i] = id
	}
	return rpo
}

// computeDominators runs the standard iterative dominance algorithm:
// idom[start] = start, and every other block's idom is the intersection,
// over all predecessors already processed, of "walk up the dominator
// tree until you hit a common ancestor." preds selects the direction
// (CFG predecessors for dominance, successors for post-dominance).
func computeDominators(c *CFG, order []ir.NodeID, preds func(*BasicBlock) IDSet, start ir.NodeID) map[ir.NodeID]ir.NodeID {
	rpoIndex := make(map[ir.NodeID]int, len(order))
	for i, id := range order {
		rpoIndex[id] = i
	}

	idom := make(map[ir.NodeID]ir.NodeID, len(order))
	idom[start] = start

	changed := true
	for changed {
		changed = false
		for _, id := range order {
			if id == start {
				continue
			}
			blk := c.Blocks[id]
			var newIdom ir.NodeID
			haveIdom := false
			for _, p := range preds(blk).Sorted() {
				if _, ok := idom[p]; !ok {
					continue
				}
				if !haveIdom {
					newIdom = p
					haveIdom = true
					continue
				}
				newIdom = intersect(idom, rpoIndex, newIdom, p)
			}
			if !haveIdom {
				continue
			}
			if prev, ok := idom[id]; !ok || prev != newIdom {
				idom[id] = newIdom
				changed = true
			}
		}
	}
	return idom
}

func intersect(idom map[ir.NodeID]ir.NodeID, rpoIndex map[ir.NodeID]int, a, b ir.NodeID) ir.NodeID {
	for a != b {
		for rpoIndex[a] > rpoIndex[b] {
			a = idom[a]
		}
		for rpoIndex[b] > rpoIndex[a] {
			b = idom[b]
		}
	}
	return a
}

func fillDominatorSets(c *CFG, idom map[ir.NodeID]ir.NodeID, doms func(*BasicBlock) *IDSet, domsOf func(*BasicBlock) *IDSet) {
	for id, blk := range c.Blocks {
		set := doms(blk)
		*set = NewIDSet(id)
		cur := id
		for {
			parent, ok := idom[cur]
			if !ok || parent == cur {
				break
			}
			set.Add(parent)
			cur = parent
		}
	}
	for id, blk := range c.Blocks {
		for _, d := range doms(blk).Sorted() {
			if d == id {
				continue
			}
			domOf := c.Blocks[d]
			if domOf == nil {
				continue
			}
			domsOf(domOf).Add(id)
		}
	}
}

// computeFrontiers computes dominance frontiers via the classic
// "runner" walk: for every block with 2+ predecessors (a join point),
// walk each predecessor up its dominator-tree parent chain, stopping
// just short of the join's own dominator, adding the join to every
// block visited along the way.
func computeFrontiers(c *CFG, idom map[ir.NodeID]ir.NodeID, preds func(*BasicBlock) IDSet, frontier func(*BasicBlock) *IDSet) {
	for id, blk := range c.Blocks {
		ps := preds(blk).Sorted()
		if len(ps) < 2 {
			continue
		}
		idomOfID, hasIdom := idom[id]
		for _, p := range ps {
			runner := p
			for {
				if _, ok := idom[runner]; !ok {
					break
				}
				if hasIdom && runner == idomOfID {
					break
				}
				rb := c.Blocks[runner]
				if rb == nil {
					break
				}
				frontier(rb).Add(id)
				if runner == idom[runner] {
					break
				}
				runner = idom[runner]
			}
		}
	}
}

// findNaturalLoops locates back edges — edges whose target dominates
// their source — and computes each loop's body as every block that
// can reach the back edge's source without passing through the header,
// per the standard natural-loop definition.
func findNaturalLoops(c *CFG, idom map[ir.NodeID]ir.NodeID) {
	c.Loops = nil
	for _, e := range c.Edges {
		srcBlk := c.Blocks[e.From]
		if srcBlk == nil {
			continue
		}
		if !srcBlk.Dominators.Has(e.To) {
			continue
		}
		header := e.To
		body := NewIDSet(header, e.From)
		worklist := []ir.NodeID{e.From}
		for len(worklist) > 0 {
			n := worklist[len(worklist)-1]
			worklist = worklist[:len(worklist)-1]
			blk := c.Blocks[n]
			if blk == nil {
				continue
			}
			for _, p := range blk.Predecessors.Sorted() {
				if !body.Has(p) {
					body.Add(p)
					worklist = append(worklist, p)
				}
			}
		}
		c.Loops = append(c.Loops, &Loop{Header: header, Body: body, BackEdge: *e})
		c.Blocks[header].BackEdgeTargets.Add(e.From)
	}
}

// assignLoopDepths sets every block's LoopDepth to the number of
// natural loops (found above) whose body contains it, nested loops
// accumulating depth the way a compiler's loop-nest forest would.
func assignLoopDepths(c *CFG) {
	for _, blk := range c.Blocks {
		blk.LoopDepth = 0
	}
	for _, loop := range c.Loops {
		loop.Depth = 0
	}
	for i, loop := range c.Loops {
		for j, other := range c.Loops {
			if i == j {
				continue
			}
			if other.Body.Has(loop.Header) && other.Header != loop.Header {
				loop.Depth++
			}
		}
		for _, id := range loop.Body.Sorted() {
			if blk := c.Blocks[id]; blk != nil {
				if blk.LoopDepth < loop.Depth+1 {
					blk.LoopDepth = loop.Depth + 1
				}
			}
		}
	}
}
