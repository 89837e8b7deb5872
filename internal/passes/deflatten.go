package passes

import (
	"deobcore/internal/cfg"
	"deobcore/internal/errors"
	"deobcore/internal/ir"
	"deobcore/internal/pass"
)

// ControlFlowDeflattening recognizes the canonical obfuscator pattern
//
//	while (true) switch (state) { case K1: ...; state = K2; break; case K2: ... }
//
// and, whenever every case's next state is statically derivable (the
// dispatcher is provably constant within each case), rewrites the loop
// away entirely: the cases are threaded into the straight-line order the
// state graph implies and spliced in place of the loop. A loop where any
// case's successor can't be pinned down statically (a non-literal state
// write, a branching reassignment, or a cycle among the reachable
// states) is left untouched and reported as a residual switch, carrying
// the dispatcher's name.
type ControlFlowDeflattening struct{}

func (ControlFlowDeflattening) Name() string { return "control-flow-deflattening" }

func (ControlFlowDeflattening) Run(s *pass.State) (*pass.Result, error) {
	graph := s.Graph
	var warnings []*errors.Warning
	changed := false
	removed := 0

	// Loops is walked from a snapshot since a successful splice mutates
	// graph.Loops's backing CFG; later loops in the original slice may
	// reference blocks already deleted by an earlier splice in the same
	// run, which detectDispatchLoop simply fails to match against.
	for _, loop := range append([]*cfg.Loop(nil), graph.Loops...) {
		disp, ok := detectDispatchLoop(graph, loop)
		if !ok {
			continue
		}

		sg := buildStateGraph(disp)
		order, ok := sg.linearize(disp.initial)
		if !ok {
			warnings = append(warnings, &errors.Warning{
				Pass:    "control-flow-deflattening",
				Message: "residual switch on dispatcher " + string(disp.variable),
				NodeID:  disp.switchStmt.NodeID(),
			})
			continue
		}

		straightened := straightenCases(disp, order)
		if !spliceLoop(graph, s.Gen, loop, disp.loopExit, straightened) {
			warnings = append(warnings, &errors.Warning{
				Pass:    "control-flow-deflattening",
				Message: "residual switch on dispatcher " + string(disp.variable) + " (splice failed)",
				NodeID:  disp.switchStmt.NodeID(),
			})
			continue
		}
		changed = true
		removed += len(loop.Body)
	}

	return &pass.Result{Changed: changed, State: s, Metrics: pass.Metrics{NodesRemoved: removed}, Warnings: warnings}, nil
}

// dispatchLoop is a recognized `while (true) switch (dispatcher) {...}`
// candidate.
type dispatchLoop struct {
	header     ir.NodeID
	dispatch   ir.NodeID // block holding the SwitchStatement
	loopExit   ir.NodeID // block the FALSE_BRANCH out of header targets
	switchStmt *ir.SwitchStatement
	variable   ir.VariableName
	initial    float64
	hasInitial bool
}

// detectDispatchLoop checks whether loop matches the flattened-dispatch
// shape: a header block containing nothing but a truthy-literal
// WhileStatement, whose body entry (the TRUE_BRANCH successor) holds
// nothing but a SwitchStatement discriminating on a plain identifier.
func detectDispatchLoop(graph *cfg.CFG, loop *cfg.Loop) (*dispatchLoop, bool) {
	header := graph.Block(loop.Header)
	if header == nil || len(header.Statements) != 1 {
		return nil, false
	}
	while, ok := header.Statements[0].(*ir.WhileStatement)
	if !ok {
		return nil, false
	}
	lit, ok := while.Test.(*ir.Literal)
	if !ok || !truthy(lit) {
		return nil, false
	}

	var bodyEntry, loopExit ir.NodeID
	var haveBody, haveExit bool
	for _, e := range header.EdgesOut {
		switch e.Type {
		case cfg.TrueBranch:
			bodyEntry, haveBody = e.To, true
		case cfg.FalseBranch:
			loopExit, haveExit = e.To, true
		}
	}
	if !haveBody || !haveExit {
		return nil, false
	}

	dispatch := graph.Block(bodyEntry)
	if dispatch == nil || len(dispatch.Statements) != 1 {
		return nil, false
	}
	sw, ok := dispatch.Statements[0].(*ir.SwitchStatement)
	if !ok {
		return nil, false
	}
	disc, ok := sw.Discriminant.(*ir.Identifier)
	if !ok {
		return nil, false
	}

	dl := &dispatchLoop{
		header:     loop.Header,
		dispatch:   bodyEntry,
		loopExit:   loopExit,
		switchStmt: sw,
		variable:   disc.Name,
	}
	dl.initial, dl.hasInitial = findInitialValue(graph, loop, dl.variable)
	return dl, true
}

// findInitialValue walks backward along the unique predecessor chain
// feeding the loop header (outside the loop body) looking for the last
// literal assignment or declaration of name, the dispatcher's seed
// value before the loop runs its first iteration.
func findInitialValue(graph *cfg.CFG, loop *cfg.Loop, name ir.VariableName) (float64, bool) {
	visited := cfg.NewIDSet()
	var found float64
	ok := false

	var walk func(id ir.NodeID)
	walk = func(id ir.NodeID) {
		if ok || visited.Has(id) || loop.Body.Has(id) {
			return
		}
		visited.Add(id)
		blk := graph.Block(id)
		if blk == nil {
			return
		}
		for _, stmt := range blk.Statements {
			switch v := stmt.(type) {
			case *ir.ExpressionStatement:
				if assign, ok2 := v.Expression.(*ir.AssignmentExpression); ok2 && assign.Operator == "=" {
					if id2, ok3 := assign.Left.(*ir.Identifier); ok3 && id2.Name == name {
						if lit, ok4 := assign.Right.(*ir.Literal); ok4 && lit.ValueKind == ir.NumberLiteral {
							if n, ok5 := lit.Value.(float64); ok5 {
								found, ok = n, true
							}
						}
					}
				}
			case *ir.VariableDeclaration:
				for _, d := range v.Declarations {
					if id2, ok3 := d.Id.(*ir.Identifier); ok3 && id2.Name == name {
						if lit, ok4 := d.Init.(*ir.Literal); ok4 && lit.ValueKind == ir.NumberLiteral {
							if n, ok5 := lit.Value.(float64); ok5 {
								found, ok = n, true
							}
						}
					}
				}
			}
		}
		for _, p := range blk.Predecessors.Sorted() {
			walk(p)
		}
	}
	if header := graph.Block(loop.Header); header != nil {
		for _, p := range header.Predecessors.Sorted() {
			walk(p)
		}
	}
	return found, ok
}

// stateGraph maps each case's literal test value to the set of next
// states it may assign the dispatcher before leaving the switch, plus
// whether that case was left fully resolvable.
type stateGraph struct {
	cases      map[float64]*ir.SwitchCase
	order      []float64 // case test values in source order, defaultless
	defaultIdx int       // index into order a default case maps to, or -1
	successors map[float64][]float64
	terminal   map[float64]bool
	resolved   map[float64]bool
}

func buildStateGraph(disp *dispatchLoop) *stateGraph {
	sg := &stateGraph{
		cases:      make(map[float64]*ir.SwitchCase),
		successors: make(map[float64][]float64),
		terminal:   make(map[float64]bool),
		resolved:   make(map[float64]bool),
		defaultIdx: -1,
	}
	for _, c := range disp.switchStmt.Cases {
		if c.Test == nil {
			continue // default case: not addressable by a literal state value
		}
		lit, ok := c.Test.(*ir.Literal)
		if !ok || lit.ValueKind != ir.NumberLiteral {
			continue
		}
		n, ok := lit.Value.(float64)
		if !ok {
			continue
		}
		sg.cases[n] = c
		sg.order = append(sg.order, n)

		succs, resolved, terminal := analyzeCase(c, disp.variable)
		sg.successors[n] = succs
		sg.resolved[n] = resolved
		sg.terminal[n] = terminal
	}
	return sg
}

// analyzeCase finds every literal value the dispatcher variable is
// reassigned to within c's body, reporting the case as resolved only
// when every reassignment target is a literal (no dynamically computed
// next state) and terminal when the case ends in a Return/Throw with no
// further dispatch.
func analyzeCase(c *ir.SwitchCase, variable ir.VariableName) (successors []float64, resolved bool, terminal bool) {
	resolved = true
	seen := make(map[float64]bool)
	for _, stmt := range c.Consequent {
		ir.Walk(stmt, func(n ir.Node) bool {
			assign, ok := n.(*ir.AssignmentExpression)
			if !ok || assign.Operator != "=" {
				return true
			}
			id, ok := assign.Left.(*ir.Identifier)
			if !ok || id.Name != variable {
				return true
			}
			lit, ok := assign.Right.(*ir.Literal)
			if !ok || lit.ValueKind != ir.NumberLiteral {
				resolved = false
				return true
			}
			n2, ok := lit.Value.(float64)
			if !ok {
				resolved = false
				return true
			}
			if !seen[n2] {
				seen[n2] = true
				successors = append(successors, n2)
			}
			return true
		})
	}
	if len(c.Consequent) > 0 {
		switch c.Consequent[len(c.Consequent)-1].(type) {
		case *ir.ReturnStatement, *ir.ThrowStatement:
			terminal = true
		}
	}
	return successors, resolved, terminal
}

// linearize walks the state graph from initial following single-valued,
// resolved transitions. It succeeds only when the reachable portion of
// the graph is a simple path (no case visited twice, no branching
// transition) ending in a terminal case.
func (sg *stateGraph) linearize(initial float64) ([]float64, bool) {
	var order []float64
	visited := make(map[float64]bool)
	cur := initial
	for {
		if visited[cur] {
			return nil, false // cycle: can't unroll into straight-line code
		}
		c, ok := sg.cases[cur]
		if !ok || !sg.resolved[cur] {
			return nil, false
		}
		_ = c
		visited[cur] = true
		order = append(order, cur)

		if sg.terminal[cur] {
			return order, true
		}
		succs := sg.successors[cur]
		if len(succs) != 1 {
			return nil, false // branching or dead-end reassignment: can't linearize
		}
		cur = succs[0]
	}
}

// straightenCases concatenates the visited cases' bodies in the order
// the state graph resolved, dropping the now-redundant dispatcher
// reassignment and its trailing break/continue — the control transfer
// those encoded is exactly the straight-line fallthrough replacing them.
func straightenCases(disp *dispatchLoop, order []float64) []ir.Stmt {
	var out []ir.Stmt
	for _, state := range order {
		c := findCase(disp.switchStmt, state)
		if c == nil {
			continue
		}
		for _, stmt := range c.Consequent {
			if isDispatcherBookkeeping(stmt, disp.variable) {
				continue
			}
			out = append(out, stmt)
		}
	}
	return out
}

func findCase(sw *ir.SwitchStatement, value float64) *ir.SwitchCase {
	for _, c := range sw.Cases {
		if lit, ok := c.Test.(*ir.Literal); ok && lit.ValueKind == ir.NumberLiteral {
			if n, ok2 := lit.Value.(float64); ok2 && n == value {
				return c
			}
		}
	}
	return nil
}

// isDispatcherBookkeeping reports whether stmt is either a trailing
// break/continue (the control transfer the straightened order now makes
// implicit) or a bare assignment of the dispatcher variable to a literal
// (the state-machine's own bookkeeping, with no further meaning once the
// loop and switch are gone).
func isDispatcherBookkeeping(stmt ir.Stmt, variable ir.VariableName) bool {
	switch v := stmt.(type) {
	case *ir.BreakStatement, *ir.ContinueStatement:
		return true
	case *ir.ExpressionStatement:
		assign, ok := v.Expression.(*ir.AssignmentExpression)
		if !ok || assign.Operator != "=" {
			return false
		}
		id, ok := assign.Left.(*ir.Identifier)
		if !ok || id.Name != variable {
			return false
		}
		_, litOK := assign.Right.(*ir.Literal)
		return litOK
	}
	return false
}

// spliceLoop rebuilds stmts into a fresh mini-CFG and replaces loop's
// entire block set with it in graph, redirecting loop's external
// predecessors to the new subgraph's entry and its exit to exitID. Edge
// and adjacency bookkeeping is rebuilt wholesale (the same strategy
// DeadCodeElimination's removeEmptyBlocks uses) rather than patched
// incrementally, since several blocks disappear and several appear in
// the same step.
func spliceLoop(graph *cfg.CFG, gen *ir.Generator, loop *cfg.Loop, exitID ir.NodeID, stmts []ir.Stmt) bool {
	sub, err := cfg.Build(gen, stmts)
	if err != nil {
		return false
	}

	oldEdges := graph.Edges
	for id := range loop.Body {
		delete(graph.Blocks, id)
	}
	for id, b := range sub.Blocks {
		graph.Blocks[id] = b
	}
	for _, blk := range graph.Blocks {
		blk.Predecessors = cfg.NewIDSet()
		blk.Successors = cfg.NewIDSet()
		blk.EdgesIn = nil
		blk.EdgesOut = nil
	}
	graph.Edges = nil

	seen := make(map[cfg.Edge]bool)
	add := func(e cfg.Edge) {
		if seen[e] {
			return
		}
		seen[e] = true
		graph.AddEdge(&cfg.Edge{From: e.From, To: e.To, Type: e.Type})
	}

	for _, e := range oldEdges {
		fromIn, toIn := loop.Body.Has(e.From), loop.Body.Has(e.To)
		switch {
		case fromIn && toIn:
			continue // wholly internal to the removed loop
		case fromIn && !toIn:
			continue // the header's own FALSE_BRANCH to exitID; replaced below
		case !fromIn && toIn:
			add(cfg.Edge{From: e.From, To: sub.Entry, Type: e.Type})
		default:
			add(cfg.Edge{From: e.From, To: e.To, Type: e.Type})
		}
	}
	for _, e := range sub.Edges {
		add(cfg.Edge{From: e.From, To: e.To, Type: e.Type})
	}
	add(cfg.Edge{From: sub.Exit, To: exitID, Type: cfg.Unconditional})

	return true
}
