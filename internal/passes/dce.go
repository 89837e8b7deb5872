package passes

import (
	"deobcore/internal/cfg"
	"deobcore/internal/ir"
	"deobcore/internal/pass"
)

// DeadCodeElimination removes statements and phis whose defined SSA
// version is never observed: no side effect of its own, and no live
// use reaches it, directly or through a chain of otherwise-dead defs.
// It also collapses basic blocks that construction or an earlier pass
// left empty, as long as they are not a loop header (removing a loop
// header would lose the back edge the loop is detected from).
type DeadCodeElimination struct{}

func (DeadCodeElimination) Name() string { return "dead-code-elimination" }

func (DeadCodeElimination) Run(s *pass.State) (*pass.Result, error) {
	graph := s.Graph
	live := computeLiveDefs(graph)

	removed := 0
	for _, blk := range graph.Blocks {
		kept := blk.Statements[:0]
		for _, stmt := range blk.Statements {
			if isDeadStatement(stmt, live) {
				removed++
				continue
			}
			kept = append(kept, stmt)
		}
		blk.Statements = kept

		keptPhis := blk.Phis[:0]
		for _, phi := range blk.Phis {
			if !live[ssaKey{phi.Variable, phi.Target}] {
				removed++
				continue
			}
			keptPhis = append(keptPhis, phi)
		}
		blk.Phis = keptPhis
	}

	blocksChanged := removeEmptyBlocks(graph)
	changed := removed > 0 || blocksChanged
	return &pass.Result{Changed: changed, State: s, Metrics: pass.Metrics{NodesRemoved: removed}}, nil
}

// buildDefIndex maps every def-occurrence NodeID (an Identifier def or
// a PhiNode) to the SSA key it defines, so a read-modify-write
// identifier's recorded Uses entry (which names the reaching def's
// NodeID, not its key) can be resolved back to a key.
func buildDefIndex(graph *cfg.CFG) map[ir.NodeID]ssaKey {
	idx := make(map[ir.NodeID]ssaKey)
	for _, blk := range graph.Blocks {
		for _, phi := range blk.Phis {
			idx[phi.ID] = ssaKey{phi.Variable, phi.Target}
		}
		for _, stmt := range blk.Statements {
			ir.Walk(stmt, func(n ir.Node) bool {
				if id, ok := n.(*ir.Identifier); ok && id.SSA != nil && len(id.SSA.Defs) > 0 {
					idx[id.NodeID()] = ssaKey{id.Name, id.SSA.Version}
				}
				return true
			})
		}
	}
	return idx
}

// defRHSUses maps each definition's SSA key to the keys its own
// right-hand side (or, for a compound/update identifier, the old
// version it reads) depends on. This is the backward edge liveness
// propagates along: once a def is known live, whatever it reads
// becomes live too.
func defRHSUses(graph *cfg.CFG, defIdx map[ir.NodeID]ssaKey) map[ssaKey][]ssaKey {
	out := make(map[ssaKey][]ssaKey)
	record := func(defKey ssaKey, rhs ir.Node, defIdent *ir.Identifier) {
		var uses []ssaKey
		forEachUse(rhs, func(k ssaKey) { uses = append(uses, k) })
		if defIdent != nil && defIdent.SSA != nil {
			for _, usedNode := range defIdent.SSA.Uses {
				if k, ok := defIdx[usedNode]; ok {
					uses = append(uses, k)
				}
			}
		}
		out[defKey] = append(out[defKey], uses...)
	}

	for _, blk := range graph.Blocks {
		for _, stmt := range blk.Statements {
			switch v := stmt.(type) {
			case *ir.ExpressionStatement:
				switch expr := v.Expression.(type) {
				case *ir.AssignmentExpression:
					if id, ok := expr.Left.(*ir.Identifier); ok && id.SSA != nil {
						record(ssaKey{id.Name, id.SSA.Version}, expr.Right, id)
					}
				case *ir.UpdateExpression:
					if id, ok := expr.Argument.(*ir.Identifier); ok && id.SSA != nil {
						record(ssaKey{id.Name, id.SSA.Version}, nil, id)
					}
				}
			case *ir.VariableDeclaration:
				for _, d := range v.Declarations {
					if id, ok := d.Id.(*ir.Identifier); ok && id.SSA != nil {
						record(ssaKey{id.Name, id.SSA.Version}, d.Init, nil)
					}
				}
			}
		}
	}
	return out
}

func phiOperandUses(graph *cfg.CFG) map[ssaKey][]ssaKey {
	out := make(map[ssaKey][]ssaKey)
	for _, blk := range graph.Blocks {
		for _, phi := range blk.Phis {
			target := ssaKey{phi.Variable, phi.Target}
			for _, v := range phi.Operands {
				out[target] = append(out[target], ssaKey{phi.Variable, v})
			}
		}
	}
	return out
}

// isSideEffectingStmt reports whether evaluating stmt has an effect
// beyond defining a variable: a control transfer, or an expression
// with a side effect per exprHasSideEffect. Control statements'
// conditions are conservatively treated as always worth evaluating,
// since removing them would also have to prove the branch itself is
// dead — out of scope for this pass (structuring/deflattening handle
// CFG-level simplification instead).
func isSideEffectingStmt(stmt ir.Stmt) bool {
	switch v := stmt.(type) {
	case *ir.ReturnStatement, *ir.ThrowStatement, *ir.BreakStatement, *ir.ContinueStatement:
		return true
	case *ir.ExpressionStatement:
		return exprHasSideEffect(v.Expression)
	case *ir.IfStatement, *ir.WhileStatement, *ir.ForStatement, *ir.SwitchStatement:
		return true
	}
	return false
}

func computeLiveDefs(graph *cfg.CFG) map[ssaKey]bool {
	live := make(map[ssaKey]bool)
	var worklist []ssaKey
	markLive := func(k ssaKey) {
		if !live[k] {
			live[k] = true
			worklist = append(worklist, k)
		}
	}

	for _, blk := range graph.Blocks {
		for _, stmt := range blk.Statements {
			if !isSideEffectingStmt(stmt) {
				continue
			}
			forEachUse(stmt, markLive)
		}
	}

	defIdx := buildDefIndex(graph)
	rhsUses := defRHSUses(graph, defIdx)
	phiUses := phiOperandUses(graph)

	for len(worklist) > 0 {
		k := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		for _, u := range rhsUses[k] {
			markLive(u)
		}
		for _, u := range phiUses[k] {
			markLive(u)
		}
	}
	return live
}

func isDeadPureExpr(e ir.Expr) bool {
	switch e.(type) {
	case *ir.Identifier, *ir.Literal, *ir.BinaryExpression, *ir.LogicalExpression,
		*ir.UnaryExpression, *ir.MemberExpression, *ir.ConditionalExpression,
		*ir.ArrayExpression, *ir.ObjectExpression, *ir.SequenceExpression:
		return true
	default:
		return false
	}
}

func isDeadStatement(stmt ir.Stmt, live map[ssaKey]bool) bool {
	switch v := stmt.(type) {
	case *ir.ExpressionStatement:
		switch expr := v.Expression.(type) {
		case *ir.AssignmentExpression:
			id, ok := expr.Left.(*ir.Identifier)
			if !ok || id.SSA == nil {
				return false
			}
			if live[ssaKey{id.Name, id.SSA.Version}] {
				return false
			}
			return !exprHasSideEffect(expr.Right)
		case *ir.UpdateExpression:
			id, ok := expr.Argument.(*ir.Identifier)
			if !ok || id.SSA == nil {
				return false
			}
			return !live[ssaKey{id.Name, id.SSA.Version}]
		default:
			return isDeadPureExpr(v.Expression)
		}
	case *ir.VariableDeclaration:
		for _, d := range v.Declarations {
			id, ok := d.Id.(*ir.Identifier)
			if !ok || id.SSA == nil {
				return false
			}
			if live[ssaKey{id.Name, id.SSA.Version}] {
				return false
			}
			if exprHasSideEffect(d.Init) {
				return false
			}
		}
		return true
	case *ir.EmptyStatement:
		return true
	default:
		return false
	}
}

// removeEmptyBlocks folds out every non-entry, non-exit, non-loop-header
// block left with no statements and no phis, redirecting its
// predecessors' edges straight to its single successor. Edges are
// rebuilt from scratch (rather than patched incrementally) so the
// arena, adjacency sets, and edge list stay consistent even when
// several empty blocks chain together.
func removeEmptyBlocks(graph *cfg.CFG) bool {
	loopHeaders := cfg.NewIDSet()
	for _, l := range graph.Loops {
		loopHeaders.Add(l.Header)
	}

	redirect := make(map[ir.NodeID]ir.NodeID)
	for id, blk := range graph.Blocks {
		if id == graph.Entry || id == graph.Exit || loopHeaders.Has(id) {
			continue
		}
		if len(blk.Statements) != 0 || len(blk.Phis) != 0 {
			continue
		}
		if len(blk.Successors) != 1 {
			continue
		}
		for succ := range blk.Successors {
			redirect[id] = succ
		}
	}
	if len(redirect) == 0 {
		return false
	}

	resolve := func(id ir.NodeID) ir.NodeID {
		for {
			next, ok := redirect[id]
			if !ok {
				return id
			}
			id = next
		}
	}

	oldEdges := graph.Edges
	for id := range redirect {
		delete(graph.Blocks, id)
	}
	for _, blk := range graph.Blocks {
		blk.Predecessors = cfg.NewIDSet()
		blk.Successors = cfg.NewIDSet()
		blk.EdgesIn = nil
		blk.EdgesOut = nil
	}
	graph.Edges = nil

	seen := make(map[cfg.Edge]bool)
	for _, e := range oldEdges {
		from, to := resolve(e.From), resolve(e.To)
		if from == to {
			continue
		}
		key := cfg.Edge{From: from, To: to, Type: e.Type}
		if seen[key] {
			continue
		}
		seen[key] = true
		graph.AddEdge(&cfg.Edge{From: from, To: to, Type: e.Type})
	}
	return true
}
