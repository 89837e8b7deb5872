package passes

import (
	"deobcore/internal/cfg"
	"deobcore/internal/ir"
	"deobcore/internal/pass"
)

// ConstantPropagation folds expressions whose operands are all
// Literals (arithmetic, comparison, bitwise, and short-circuiting
// logical operators), then propagates each folded definition to every
// reaching use of the SSA version it defines. Running to a local fixed
// point lets a fold unlock another fold one hop away (`a = 1 + 2; b =
// a * 3;`) without this pass having to chase the chain itself.
type ConstantPropagation struct{}

func (ConstantPropagation) Name() string { return "constant-propagation" }

func (ConstantPropagation) Run(s *pass.State) (*pass.Result, error) {
	f := ir.NewFactory(s.Gen)
	changed := false
	modified := 0

	for _, blk := range s.Graph.Blocks {
		for i, stmt := range blk.Statements {
			if newStmt, ok := foldStmt(f, stmt); ok {
				blk.Statements[i] = newStmt
				changed = true
				modified++
			}
		}
	}

	constants := collectConstantDefs(s.Graph)
	if len(constants) > 0 {
		for _, blk := range s.Graph.Blocks {
			for i, stmt := range blk.Statements {
				if newStmt, ok := propagateConstants(f, stmt, constants); ok {
					blk.Statements[i] = newStmt
					changed = true
					modified++
				}
			}
		}
	}

	return &pass.Result{Changed: changed, State: s, Metrics: pass.Metrics{NodesModified: modified}}, nil
}

func foldStmt(f *ir.Factory, s ir.Stmt) (ir.Stmt, bool) {
	changed := false
	switch v := s.(type) {
	case *ir.ExpressionStatement:
		if ne, ok := foldExpr(f, v.Expression); ok {
			v.Expression = ne
			changed = true
		}
	case *ir.VariableDeclaration:
		for _, d := range v.Declarations {
			if ne, ok := foldExpr(f, d.Init); ok {
				d.Init = ne
				changed = true
			}
		}
	case *ir.ReturnStatement:
		if ne, ok := foldExpr(f, v.Argument); ok {
			v.Argument = ne
			changed = true
		}
	case *ir.ThrowStatement:
		if ne, ok := foldExpr(f, v.Argument); ok {
			v.Argument = ne
			changed = true
		}
	case *ir.IfStatement:
		if ne, ok := foldExpr(f, v.Test); ok {
			v.Test = ne
			changed = true
		}
	case *ir.WhileStatement:
		if ne, ok := foldExpr(f, v.Test); ok {
			v.Test = ne
			changed = true
		}
	case *ir.ForStatement:
		if ne, ok := foldExpr(f, v.Test); ok {
			v.Test = ne
			changed = true
		}
	case *ir.SwitchStatement:
		if ne, ok := foldExpr(f, v.Discriminant); ok {
			v.Discriminant = ne
			changed = true
		}
	}
	return s, changed
}

// foldExpr folds e bottom-up, returning the replacement expression and
// whether anything changed. The receiver node is mutated in place for
// the common case (child replaced); a folded top-level node is
// returned as a brand-new Literal.
func foldExpr(f *ir.Factory, e ir.Expr) (ir.Expr, bool) {
	if e == nil {
		return e, false
	}
	changed := false
	switch v := e.(type) {
	case *ir.BinaryExpression:
		if nl, ok := foldExpr(f, v.Left); ok {
			v.Left = nl
			changed = true
		}
		if nr, ok := foldExpr(f, v.Right); ok {
			v.Right = nr
			changed = true
		}
		if ll, ok := v.Left.(*ir.Literal); ok {
			if rl, ok2 := v.Right.(*ir.Literal); ok2 {
				pos, end := v.Loc()
				if folded, ok3 := evalBinary(f, v.Operator, ll, rl, pos, end); ok3 {
					return folded, true
				}
			}
		}
		return v, changed
	case *ir.UnaryExpression:
		if na, ok := foldExpr(f, v.Argument); ok {
			v.Argument = na
			changed = true
		}
		if lit, ok := v.Argument.(*ir.Literal); ok {
			pos, end := v.Loc()
			if folded, ok2 := evalUnary(f, v.Operator, lit, pos, end); ok2 {
				return folded, true
			}
		}
		return v, changed
	case *ir.LogicalExpression:
		if nl, ok := foldExpr(f, v.Left); ok {
			v.Left = nl
			changed = true
		}
		if nr, ok := foldExpr(f, v.Right); ok {
			v.Right = nr
			changed = true
		}
		if folded, ok := evalLogical(v.Operator, v.Left, v.Right); ok {
			return folded, true
		}
		return v, changed
	case *ir.ConditionalExpression:
		if nt, ok := foldExpr(f, v.Test); ok {
			v.Test = nt
			changed = true
		}
		if nc, ok := foldExpr(f, v.Consequent); ok {
			v.Consequent = nc
			changed = true
		}
		if na, ok := foldExpr(f, v.Alternate); ok {
			v.Alternate = na
			changed = true
		}
		if lit, ok := v.Test.(*ir.Literal); ok {
			if truthy(lit) {
				return v.Consequent, true
			}
			return v.Alternate, true
		}
		return v, changed
	case *ir.AssignmentExpression:
		if nr, ok := foldExpr(f, v.Right); ok {
			v.Right = nr
			changed = true
		}
		return v, changed
	case *ir.CallExpression:
		if nc, ok := foldExpr(f, v.Callee); ok {
			v.Callee = nc
			changed = true
		}
		for i, a := range v.Arguments {
			if na, ok := foldExpr(f, a); ok {
				v.Arguments[i] = na
				changed = true
			}
		}
		return v, changed
	case *ir.MemberExpression:
		if no, ok := foldExpr(f, v.Object); ok {
			v.Object = no
			changed = true
		}
		if v.Computed {
			if np, ok := foldExpr(f, v.Property); ok {
				v.Property = np
				changed = true
			}
		}
		return v, changed
	case *ir.ArrayExpression:
		for i, el := range v.Elements {
			if ne, ok := foldExpr(f, el); ok {
				v.Elements[i] = ne
				changed = true
			}
		}
		return v, changed
	case *ir.SequenceExpression:
		for i, ex := range v.Expressions {
			if ne, ok := foldExpr(f, ex); ok {
				v.Expressions[i] = ne
				changed = true
			}
		}
		return v, changed
	default:
		return e, false
	}
}

func collectConstantDefs(graph *cfg.CFG) map[ssaKey]*ir.Literal {
	out := make(map[ssaKey]*ir.Literal)
	for _, blk := range graph.Blocks {
		for _, s := range blk.Statements {
			switch v := s.(type) {
			case *ir.ExpressionStatement:
				if assign, ok := v.Expression.(*ir.AssignmentExpression); ok && assign.Operator == "=" {
					if id, ok2 := assign.Left.(*ir.Identifier); ok2 && id.SSA != nil {
						if lit, ok3 := assign.Right.(*ir.Literal); ok3 {
							out[ssaKey{id.Name, id.SSA.Version}] = lit
						}
					}
				}
			case *ir.VariableDeclaration:
				for _, d := range v.Declarations {
					if id, ok2 := d.Id.(*ir.Identifier); ok2 && id.SSA != nil {
						if lit, ok3 := d.Init.(*ir.Literal); ok3 {
							out[ssaKey{id.Name, id.SSA.Version}] = lit
						}
					}
				}
			}
		}
	}
	return out
}

// propagateConstants rewrites every use of a folded SSA version to a
// fresh copy of the Literal it was folded to. Assignment targets are
// never rewritten (they are always plain Identifiers, the thing being
// defined, not a use).
func propagateConstants(f *ir.Factory, s ir.Stmt, constants map[ssaKey]*ir.Literal) (ir.Stmt, bool) {
	changed := false
	var rewrite func(e ir.Expr) ir.Expr
	rewrite = func(e ir.Expr) ir.Expr {
		if e == nil {
			return e
		}
		if id, ok := e.(*ir.Identifier); ok && isUse(id) {
			if lit, ok2 := constants[keyOf(id)]; ok2 {
				changed = true
				pos, end := id.Loc()
				return f.Literal(lit.ValueKind, lit.Value, lit.Raw, pos, end)
			}
			return e
		}
		switch v := e.(type) {
		case *ir.BinaryExpression:
			v.Left = rewrite(v.Left)
			v.Right = rewrite(v.Right)
		case *ir.UnaryExpression:
			v.Argument = rewrite(v.Argument)
		case *ir.UpdateExpression:
			// Argument is a def/use combo identifier, not a plain use;
			// leave it to constant folding of its reaching def instead.
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
