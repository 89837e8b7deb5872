package passes

import (
	"deobcore/internal/cfg"
	"deobcore/internal/errors"
	"deobcore/internal/ir"
	"deobcore/internal/pass"
)

// Structuring rebuilds a tree of If/While/labeled break-continue
// statements from the (possibly CFG-mutating-pass-reshaped) block arena,
// the inverse of what cfg.Build does to a statement list. Earlier passes
// rewrite at the block/edge level; a block's own Statements slice can
// still hold a stale If/While/Switch node whose Consequent/Alternate
// fields point at sub-statements a later pass deleted or rearranged, so
// the block graph — not those stale fields — is the source of truth
// Structuring reads from.
//
// Region identification is post-dominance-based (Relooper-style): a
// two-successor block whose branches reconverge at its immediate
// post-dominator becomes an IfStatement; a natural loop becomes a
// WhileStatement, with its interior structured recursively the same
// way. A block this can't resolve (its branches don't reconverge at a
// single post-dominator before the enclosing region's own exit) is left
// exactly as found and reported as a residual, irreducible region.
type Structuring struct{}

func (Structuring) Name() string { return "structuring" }

func (Structuring) Run(s *pass.State) (*pass.Result, error) {
	graph := s.Graph
	// Earlier CFG-mutating passes (deflattening in particular) don't
	// themselves refresh dominance/post-dominance/loop data; this pass's
	// every decision depends on IPDom and Loops being current.
	cfg.Analyze(graph)

	loopByHeader := make(map[ir.NodeID]*cfg.Loop)
	for _, l := range graph.Loops {
		if existing, ok := loopByHeader[l.Header]; ok {
			existing.Body = unionIDSet(existing.Body, l.Body)
			continue
		}
		loopByHeader[l.Header] = l
	}

	st := &structurer{
		graph:       graph,
		gen:         s.Gen,
		factory:     ir.NewFactory(s.Gen),
		loopByHead:  loopByHeader,
		emitted:     cfg.NewIDSet(),
		irreducible: false,
	}

	result := st.region(graph.Entry, graph.Exit, nil)

	var warnings []*errors.Warning
	if st.irreducible {
		warnings = append(warnings, &errors.Warning{
			Pass:    "structuring",
			Message: "one or more regions could not be reduced to structured control flow and were left as raw blocks",
		})
	}

	newGraph, err := cfg.Build(s.Gen, result)
	if err != nil {
		// Structuring produced something cfg.Build rejects (shouldn't
		// happen for input that was itself a valid statement list); keep
		// the pre-pass graph rather than hand back something broken.
		return &pass.Result{Changed: false, State: s, Warnings: warnings}, nil
	}
	cfg.Analyze(newGraph)

	changed := !stmtListsEqual(flattenRPO(graph), flattenRPO(newGraph))
	return &pass.Result{
		Changed:  changed,
		State:    &pass.State{Graph: newGraph, Gen: s.Gen},
		Warnings: warnings,
	}, nil
}

func unionIDSet(a, b cfg.IDSet) cfg.IDSet {
	out := a.Clone()
	for _, id := range b.Sorted() {
		out.Add(id)
	}
	return out
}

// flattenRPO concatenates every block's statements in reverse-post-order,
// the representation stmtListsEqual diffs to decide whether a
// Structuring run actually changed anything — comparing raw block
// content rather than NodeIDs, which are fresh every rebuild regardless
// of whether the shape they describe differs.
func flattenRPO(graph *cfg.CFG) []ir.Stmt {
	var out []ir.Stmt
	for _, id := range graph.RPO {
		if blk := graph.Block(id); blk != nil {
			out = append(out, blk.Statements...)
		}
	}
	return out
}

// stmtListsEqual and nodesEqual compare IR shape structurally —  same
// node kind, same operator/value/name payload where one is carried, and
// recursively equal children — ignoring NodeID and source position, both
// of which a rebuild always mints fresh.
func stmtListsEqual(a, b []ir.Stmt) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !nodesEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func nodesEqual(a, b ir.Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case *ir.Identifier:
		return av.Name == b.(*ir.Identifier).Name
	case *ir.Literal:
		bv := b.(*ir.Literal)
		return av.ValueKind == bv.ValueKind && av.Raw == bv.Raw
	case *ir.BinaryExpression:
		if av.Operator != b.(*ir.BinaryExpression).Operator {
			return false
		}
	case *ir.UnaryExpression:
		if av.Operator != b.(*ir.UnaryExpression).Operator {
			return false
		}
	case *ir.UpdateExpression:
		bv := b.(*ir.UpdateExpression)
		if av.Operator != bv.Operator || av.Prefix != bv.Prefix {
			return false
		}
	case *ir.AssignmentExpression:
		if av.Operator != b.(*ir.AssignmentExpression).Operator {
			return false
		}
	case *ir.LogicalExpression:
		if av.Operator != b.(*ir.LogicalExpression).Operator {
			return false
		}
	case *ir.VariableDeclaration:
		if av.VarKind != b.(*ir.VariableDeclaration).VarKind {
			return false
		}
	case *ir.MemberExpression:
		if av.Computed != b.(*ir.MemberExpression).Computed {
			return false
		}
	}
	ac, bc := ir.Children(a), ir.Children(b)
	if len(ac) != len(bc) {
		return false
	}
	for i := range ac {
		if !nodesEqual(ac[i], bc[i]) {
			return false
		}
	}
	return true
}

type structurer struct {
	graph      *cfg.CFG
	gen        *ir.Generator
	factory    *ir.Factory
	loopByHead map[ir.NodeID]*cfg.Loop

	emitted     cfg.IDSet
	irreducible bool
}

// region walks from start toward stop, reconstructing structured
// statements. limit, when non-nil, bounds traversal to blocks inside a
// loop body: a successor outside limit means this path already left the
// loop through an explicit break/continue/return, so recursion simply
// stops there rather than following it.
func (st *structurer) region(start, stop ir.NodeID, limit cfg.IDSet) []ir.Stmt {
	var out []ir.Stmt
	cur := start

	for cur != 0 && cur != stop {
		if limit != nil && !limit.Has(cur) {
			break
		}
		if st.emitted.Has(cur) {
			// Already produced by a sibling branch — an irreducible merge
			// this post-dominance-based scheme doesn't model. Leave it for
			// whatever region reaches it first in source order and stop
			// here instead of duplicating it.
			st.irreducible = true
			break
		}
		st.emitted.Add(cur)

		blk := st.graph.Block(cur)
		if blk == nil {
			break
		}

		if loop, ok := st.loopByHead[cur]; ok {
			stmt, next := st.structureLoop(blk, loop)
			if stmt != nil {
				out = append(out, stmt)
				cur = next
				continue
			}
		}

		if len(blk.Statements) > 0 {
			if ifStmt, ok := blk.Statements[len(blk.Statements)-1].(*ir.IfStatement); ok {
				built, next, ok2 := st.structureIf(blk, ifStmt)
				if ok2 {
					out = append(out, blk.Statements[:len(blk.Statements)-1]...)
					out = append(out, built)
					cur = next
					continue
				}
			}
		}

		out = append(out, blk.Statements...)
		next := soleSuccessor(blk)
		if next == 0 && len(blk.Successors) > 1 {
			// More than one way out (e.g. an exception edge) that isn't a
			// recognized if/loop shape — the remaining code is reachable
			// only through a region this pass doesn't model.
			st.irreducible = true
		}
		cur = next
	}
	return out
}

// structureLoop turns a natural loop's header block into a
// WhileStatement, structuring the loop body recursively with traversal
// bounded to the loop's own blocks. Returns (nil, 0) if the header
// doesn't hold the expected bare WhileStatement shape, in which case the
// caller falls through to generic handling.
func (st *structurer) structureLoop(header *cfg.BasicBlock, loop *cfg.Loop) (ir.Stmt, ir.NodeID) {
	if len(header.Statements) != 1 {
		return nil, 0
	}
	while, ok := header.Statements[0].(*ir.WhileStatement)
	if !ok {
		return nil, 0
	}

	var bodyEntry, exitID ir.NodeID
	var haveBody, haveExit bool
	for _, e := range header.EdgesOut {
		switch e.Type {
		case cfg.TrueBranch:
			bodyEntry, haveBody = e.To, true
		case cfg.FalseBranch:
			exitID, haveExit = e.To, true
		}
	}
	if !haveBody {
		return nil, 0
	}

	bodyStmts := st.region(bodyEntry, header.ID, loop.Body)
	newWhile := st.factory.WhileStatement(while.Test, st.wrapBlock(bodyStmts, while.Pos), while.Pos, while.EndPos)
	if !haveExit {
		return newWhile, 0
	}
	return newWhile, exitID
}

// structureIf turns a two-successor test block ending in a stale
// IfStatement into a freshly-built one whose branches are structured
// recursively up to their common immediate post-dominator. ok is false
// when the block's branches aren't a clean TRUE/FALSE_BRANCH pair, in
// which case the caller leaves the block untouched.
func (st *structurer) structureIf(test *cfg.BasicBlock, stale *ir.IfStatement) (ir.Stmt, ir.NodeID, bool) {
	var trueTo, falseTo ir.NodeID
	var haveTrue, haveFalse bool
	for _, e := range test.EdgesOut {
		switch e.Type {
		case cfg.TrueBranch:
			trueTo, haveTrue = e.To, true
		case cfg.FalseBranch:
			falseTo, haveFalse = e.To, true
		}
	}
	if !haveTrue || !haveFalse {
		return nil, 0, false
	}

	join, hasJoin := st.graph.IPDom[test.ID]
	if !hasJoin {
		join = st.graph.Exit
	}

	thenStmts := st.region(trueTo, join, nil)
	elseStmts := st.region(falseTo, join, nil)

	var alt ir.Stmt
	if len(elseStmts) > 0 {
		alt = st.wrapBlock(elseStmts, stale.Pos)
	}
	newIf := st.factory.IfStatement(stale.Test, st.wrapBlock(thenStmts, stale.Pos), alt, stale.Pos, stale.EndPos)
	return newIf, join, true
}

// wrapBlock wraps stmts in a fresh BlockStatement, the canonical shape
// an If/While body takes once structured.
func (st *structurer) wrapBlock(stmts []ir.Stmt, pos ir.Position) *ir.BlockStatement {
	return st.factory.BlockStatement(stmts, pos, pos, ir.NoScope)
}

func soleSuccessor(blk *cfg.BasicBlock) ir.NodeID {
	if len(blk.Successors) != 1 {
		return 0
	}
	for id := range blk.Successors {
		return id
	}
	return 0
}
