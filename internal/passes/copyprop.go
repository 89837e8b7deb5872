package passes

import (
	"deobcore/internal/cfg"
	"deobcore/internal/ir"
	"deobcore/internal/pass"
)

// CopyPropagation rewrites every use of an SSA version defined by a
// plain copy (`x = y;`, with no other computation on the right) to
// name y's version directly instead, resolving through chains of
// copies (`b = c; a = b;` propagates c straight to a's uses). The
// defining copy statement itself is left in place for
// DeadCodeElimination to remove once it becomes unreferenced.
type CopyPropagation struct{}

func (CopyPropagation) Name() string { return "copy-propagation" }

func (CopyPropagation) Run(s *pass.State) (*pass.Result, error) {
	f := ir.NewFactory(s.Gen)
	copies := collectCopies(s.Graph)
	if len(copies) == 0 {
		return &pass.Result{Changed: false, State: s}, nil
	}

	changed := false
	modified := 0
	for _, blk := range s.Graph.Blocks {
		for i, stmt := range blk.Statements {
			if newStmt, ok := propagateCopies(f, stmt, copies); ok {
				blk.Statements[i] = newStmt
				changed = true
				modified++
			}
		}
		for _, phi := range blk.Phis {
			for pred, v := range phi.Operands {
				if resolved, ok := resolveCopy(copies, ssaKey{phi.Variable, v}); ok && resolved.version != v {
					phi.Operands[pred] = resolved.version
					changed = true
				}
			}
		}
	}

	return &pass.Result{Changed: changed, State: s, Metrics: pass.Metrics{NodesModified: modified}}, nil
}

// collectCopies finds every definition of the shape `x = y` (y a plain
// identifier use, not a computed expression) and records x's SSA key
// pointing at y's.
func collectCopies(graph *cfg.CFG) map[ssaKey]ssaKey {
	out := make(map[ssaKey]ssaKey)
	for _, blk := range graph.Blocks {
		for _, s := range blk.Statements {
			switch v := s.(type) {
			case *ir.ExpressionStatement:
				assign, ok := v.Expression.(*ir.AssignmentExpression)
				if !ok || assign.Operator != "=" {
					continue
				}
				target, ok := assign.Left.(*ir.Identifier)
				if !ok || target.SSA == nil {
					continue
				}
				src, ok := assign.Right.(*ir.Identifier)
				if !ok || !isUse(src) {
					continue
				}
				out[ssaKey{target.Name, target.SSA.Version}] = keyOf(src)
			case *ir.VariableDeclaration:
				for _, d := range v.Declarations {
					target, ok := d.Id.(*ir.Identifier)
					if !ok || target.SSA == nil {
						continue
					}
					src, ok := d.Init.(*ir.Identifier)
					if !ok || !isUse(src) {
						continue
					}
					out[ssaKey{target.Name, target.SSA.Version}] = keyOf(src)
				}
			}
		}
		for _, phi := range blk.Phis {
			if len(phi.Operands) != 1 {
				continue
			}
			for _, v := range phi.Operands {
				out[ssaKey{phi.Variable, phi.Target}] = ssaKey{phi.Variable, v}
			}
		}
	}
	return out
}

// resolveCopy follows a chain of copies to its ultimate source,
// guarding against a cycle (which should never occur in valid SSA but
// would otherwise loop forever).
func resolveCopy(copies map[ssaKey]ssaKey, k ssaKey) (ssaKey, bool) {
	visited := map[ssaKey]bool{k: true}
	cur, moved := k, false
	for {
		next, ok := copies[cur]
		if !ok {
			break
		}
		if visited[next] {
			break
		}
		visited[next] = true
		cur = next
		moved = true
	}
	return cur, moved
}

func propagateCopies(f *ir.Factory, s ir.Stmt, copies map[ssaKey]ssaKey) (ir.Stmt, bool) {
	changed := false
	var rewrite func(e ir.Expr) ir.Expr
	rewrite = func(e ir.Expr) ir.Expr {
		if e == nil {
			return e
		}
		if id, ok := e.(*ir.Identifier); ok && isUse(id) {
			if resolved, ok2 := resolveCopy(copies, keyOf(id)); ok2 {
				changed = true
				pos, end := id.Loc()
				ni := f.Identifier(resolved.name, pos, end, id.ScopeID())
				ni.SSA = &ir.SSAMeta{Version: resolved.version}
				return ni
			}
			return e
		}
		switch v := e.(type) {
		case *ir.BinaryExpression:
			v.Left = rewrite(v.Left)
			v.Right = rewrite(v.Right)
		case *ir.UnaryExpression:
			v.Argument = rewrite(v.Argument)
		case *ir.AssignmentExpression:
			v.Right = rewrite(v.Right)
		case *ir.LogicalExpression:
			v.Left = rewrite(v.Left)
			v.Right = rewrite(v.Right)
		case *ir.ConditionalExpression:
			v.Test = rewrite(v.Test)
			v.Consequent = rewrite(v.Consequent)
			v.Alternate = rewrite(v.Alternate)
		case *ir.CallExpression:
			v.Callee = rewrite(v.Callee)
			for i, a := range v.Arguments {
				v.Arguments[i] = rewrite(a)
			}
		case *ir.NewExpression:
			v.Callee = rewrite(v.Callee)
			for i, a := range v.Arguments {
				v.Arguments[i] = rewrite(a)
			}
		case *ir.MemberExpression:
			v.Object = rewrite(v.Object)
			if v.Computed {
				v.Property = rewrite(v.Property)
			}
		case *ir.ArrayExpression:
			for i, el := range v.Elements {
				v.Elements[i] = rewrite(el)
			}
		case *ir.ObjectExpression:
			for _, p := range v.Properties {
				if p.Computed {
					p.Key = rewrite(p.Key)
				}
				p.Value = rewrite(p.Value)
			}
		case *ir.SequenceExpression:
			for i, ex := range v.Expressions {
				v.Expressions[i] = rewrite(ex)
			}
		}
		return e
	}

	switch v := s.(type) {
	case *ir.ExpressionStatement:
		v.Expression = rewrite(v.Expression)
	case *ir.VariableDeclaration:
		for _, d := range v.Declarations {
			d.Init = rewrite(d.Init)
		}
	case *ir.ReturnStatement:
		v.Argument = rewrite(v.Argument)
	case *ir.ThrowStatement:
		v.Argument = rewrite(v.Argument)
	case *ir.IfStatement:
		v.Test = rewrite(v.Test)
	case *ir.WhileStatement:
		v.Test = rewrite(v.Test)
	case *ir.ForStatement:
		v.Test = rewrite(v.Test)
	case *ir.SwitchStatement:
		v.Discriminant = rewrite(v.Discriminant)
	}
	return s, changed
}
