// Package passes implements the analysis core's concrete pass.Pass
// transformations: constant propagation, copy propagation, dead code
// elimination, control-flow deflattening, decoder lifting, and
// structuring.
package passes

import "deobcore/internal/ir"

// ssaKey addresses one SSA version of one variable, the unit liveness
// and propagation reason about.
type ssaKey struct {
	name    ir.VariableName
	version ir.SSAVersion
}

// isUse reports whether id is a use occurrence (a reaching-definition
// reference) rather than a def occurrence, per the SSAMeta contract
// internal/ssa establishes: a use carries no Defs.
func isUse(id *ir.Identifier) bool {
	return id.SSA != nil && len(id.SSA.Defs) == 0
}

func keyOf(id *ir.Identifier) ssaKey {
	return ssaKey{id.Name, id.SSA.Version}
}

// forEachUse calls fn for every use-occurrence Identifier reachable
// from n.
func forEachUse(n ir.Node, fn func(ssaKey)) {
	if n == nil {
		return
	}
	ir.Walk(n, func(cur ir.Node) bool {
		if id, ok := cur.(*ir.Identifier); ok && isUse(id) {
			fn(keyOf(id))
		}
		return true
	})
}

func truthy(l *ir.Literal) bool {
	switch l.ValueKind {
	case ir.BoolLiteral:
		b, _ := l.Value.(bool)
		return b
	case ir.NumberLiteral:
		n, _ := l.Value.(float64)
		return n != 0 && n == n // n == n is false for NaN
	case ir.StringLiteral:
		s, _ := l.Value.(string)
		return s != ""
	case ir.NullLiteral, ir.UndefinedLiteral:
		return false
	default:
		return true
	}
}

// exprHasSideEffect reports whether evaluating e can do anything
// observable beyond producing a value: an effectful call, a
// construction, or a write through a member target. Without a
// whole-program call graph no callee can be proven pure, so every call
// is conservatively effectful.
func exprHasSideEffect(e ir.Expr) bool {
	switch v := e.(type) {
	case nil:
		return false
	case *ir.CallExpression:
		return true
	case *ir.NewExpression:
		return true
	case *ir.AssignmentExpression:
		if _, ok := v.Left.(*ir.MemberExpression); ok {
			return true
		}
		return exprHasSideEffect(v.Right)
	case *ir.UpdateExpression:
		return false
	case *ir.SequenceExpression:
		for _, ex := range v.Expressions {
			if exprHasSideEffect(ex) {
				return true
			}
		}
		return false
	case *ir.ConditionalExpression:
		return exprHasSideEffect(v.Test) || exprHasSideEffect(v.Consequent) || exprHasSideEffect(v.Alternate)
	case *ir.LogicalExpression:
		return exprHasSideEffect(v.Left) || exprHasSideEffect(v.Right)
	case *ir.BinaryExpression:
		return exprHasSideEffect(v.Left) || exprHasSideEffect(v.Right)
	case *ir.UnaryExpression:
		return exprHasSideEffect(v.Argument)
	case *ir.MemberExpression:
		return exprHasSideEffect(v.Object) || (v.Computed && exprHasSideEffect(v.Property))
	case *ir.ArrayExpression:
		for _, el := range v.Elements {
			if exprHasSideEffect(el) {
				return true
			}
		}
		return false
	case *ir.ObjectExpression:
		for _, p := range v.Properties {
			if exprHasSideEffect(p.Value) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
