// Package ssa turns a built, analyzed control-flow graph into SSA form:
// phi nodes at the iterated dominance frontiers of every assigned
// variable, followed by a dominator-tree renaming pass that stamps
// each identifier's SSAMeta. It follows the classic Cytron et al.
// placement/renaming split — the same algorithm the "sealed blocks /
// incomplete phis" formulation solves incrementally, done here as a
// whole-graph pass since the CFG is already complete by the time this
// runs.
package ssa

import (
	"sort"

	"deobcore/internal/cfg"
	"deobcore/internal/ir"
)

// Build mutates graph in place: every BasicBlock gains its Phis, and
// every Identifier in the block statement lists gains an SSAMeta
// recording which version it reads or defines. graph must already
// carry dominance info (via cfg.Analyze) before calling this.
func Build(gen *ir.Generator, graph *cfg.CFG) {
	f := ir.NewFactory(gen)
	defs := collectDefSites(graph)
	placePhis(f, graph, defs)
	renameVariables(gen, graph)
}

func collectDefSites(graph *cfg.CFG) map[ir.VariableName]cfg.IDSet {
	defs := make(map[ir.VariableName]cfg.IDSet)
	mark := func(name ir.VariableName, blockID ir.NodeID) {
		if defs[name] == nil {
			defs[name] = cfg.NewIDSet()
		}
		defs[name].Add(blockID)
	}
	for id, blk := range graph.Blocks {
		for _, s := range blk.Statements {
			collectDefsInStmt(s, func(name ir.VariableName) { mark(name, id) })
		}
	}
	return defs
}

// collectDefsInStmt walks s for every assignment, declaration, and
// update expression that writes an identifier, regardless of nesting
// depth (`a = (b = 1)` defines both a and b).
func collectDefsInStmt(s ir.Stmt, record func(ir.VariableName)) {
	ir.Walk(s, func(n ir.Node) bool {
		switch v := n.(type) {
		case *ir.AssignmentExpression:
			if id, ok := v.Left.(*ir.Identifier); ok {
				record(id.Name)
			}
		case *ir.VariableDeclarator:
			if id, ok := v.Id.(*ir.Identifier); ok {
				record(id.Name)
			}
		case *ir.UpdateExpression:
			if id, ok := v.Argument.(*ir.Identifier); ok {
				record(id.Name)
			}
		}
		return true
	})
}

// placePhis inserts a phi at every block in the iterated dominance
// frontier of each variable's definition set, the standard worklist
// formulation: a block gets a phi once, and if that's a new def site
// for the variable, the block itself joins the worklist.
func placePhis(f *ir.Factory, graph *cfg.CFG, defs map[ir.VariableName]cfg.IDSet) {
	names := make([]ir.VariableName, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	for _, name := range names {
		hasPhi := cfg.NewIDSet()
		worklist := append([]ir.NodeID(nil), defs[name].Sorted()...)
		for len(worklist) > 0 {
			n := worklist[len(worklist)-1]
			worklist = worklist[:len(worklist)-1]
			blk := graph.Block(n)
			if blk == nil {
				continue
			}
			for _, frontierID := range blk.DominanceFrontier.Sorted() {
				if hasPhi.Has(frontierID) {
					continue
				}
				hasPhi.Add(frontierID)
				target := graph.Block(frontierID)
				if target == nil {
					continue
				}
				phi := f.PhiNode(name, make(map[ir.NodeID]ir.SSAVersion), 0, ir.Position{})
				target.Phis = append(target.Phis, phi)
				if !defs[name].Has(frontierID) {
					worklist = append(worklist, frontierID)
				}
			}
		}
	}
}
