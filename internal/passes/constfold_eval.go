package passes

import (
	"math"
	"strconv"
	"strings"

	"deobcore/internal/ir"
)

func numberLiteral(f *ir.Factory, v float64, pos, end ir.Position) *ir.Literal {
	return f.Literal(ir.NumberLiteral, v, strconv.FormatFloat(v, 'g', -1, 64), pos, end)
}

func boolLiteral(f *ir.Factory, v bool, pos, end ir.Position) *ir.Literal {
	raw := "false"
	if v {
		raw = "true"
	}
	return f.Literal(ir.BoolLiteral, v, raw, pos, end)
}

func jsToString(l *ir.Literal) string {
	switch l.ValueKind {
	case ir.StringLiteral:
		s, _ := l.Value.(string)
		return s
	case ir.NumberLiteral:
		n, _ := l.Value.(float64)
		return strconv.FormatFloat(n, 'g', -1, 64)
	case ir.BoolLiteral:
		b, _ := l.Value.(bool)
		if b {
			return "true"
		}
		return "false"
	case ir.NullLiteral:
		return "null"
	case ir.UndefinedLiteral:
		return "undefined"
	default:
		return ""
	}
}

// jsToNumber applies JS's ToNumber coercion to a literal. The bool ok
// result is false only for value kinds this pass declines to coerce
// (regex), not for legitimate NaN results (undefined, an unparsable
// string) which fold fine as NaN.
func jsToNumber(l *ir.Literal) (float64, bool) {
	switch l.ValueKind {
	case ir.NumberLiteral:
		n, _ := l.Value.(float64)
		return n, true
	case ir.BoolLiteral:
		b, _ := l.Value.(bool)
		if b {
			return 1, true
		}
		return 0, true
	case ir.StringLiteral:
		s := strings.TrimSpace(l.Value.(string))
		if s == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN(), true
		}
		return f, true
	case ir.NullLiteral:
		return 0, true
	case ir.UndefinedLiteral:
		return math.NaN(), true
	default:
		return 0, false
	}
}

func toInt32(f float64) int32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int32(int64(f))
}

func jsTypeof(l *ir.Literal) string {
	switch l.ValueKind {
	case ir.NumberLiteral:
		return "number"
	case ir.StringLiteral:
		return "string"
	case ir.BoolLiteral:
		return "boolean"
	case ir.UndefinedLiteral:
		return "undefined"
	default:
		return "object"
	}
}

func evalBinary(f *ir.Factory, op string, l, r *ir.Literal, pos, end ir.Position) (*ir.Literal, bool) {
	switch op {
	case "+":
		if l.ValueKind == ir.StringLiteral || r.ValueKind == ir.StringLiteral {
			return f.Literal(ir.StringLiteral, jsToString(l)+jsToString(r), "", pos, end), true
		}
		ln, ok1 := jsToNumber(l)
		rn, ok2 := jsToNumber(r)
		if !ok1 || !ok2 {
			return nil, false
		}
		return numberLiteral(f, ln+rn, pos, end), true
	case "-", "*", "/", "%", "**":
		ln, ok1 := jsToNumber(l)
		rn, ok2 := jsToNumber(r)
		if !ok1 || !ok2 {
			return nil, false
		}
		var res float64
		switch op {
		case "-":
			res = ln - rn
		case "*":
			res = ln * rn
		case "/":
			res = ln / rn
		case "%":
			res = math.Mod(ln, rn)
		case "**":
			res = math.Pow(ln, rn)
		}
		return numberLiteral(f, res, pos, end), true
	case "===", "==":
		eq, ok := literalEqual(l, r, op == "===")
		if !ok {
			return nil, false
		}
		return boolLiteral(f, eq, pos, end), true
	case "!==", "!=":
		eq, ok := literalEqual(l, r, op == "!==")
		if !ok {
			return nil, false
		}
		return boolLiteral(f, !eq, pos, end), true
	case "<", "<=", ">", ">=":
		return compareLiteral(f, op, l, r, pos, end)
	case "&", "|", "^", "<<", ">>", ">>>":
		ln, ok1 := jsToNumber(l)
		rn, ok2 := jsToNumber(r)
		if !ok1 || !ok2 {
			return nil, false
		}
		li, ri := toInt32(ln), toInt32(rn)
		var res int64
		switch op {
		case "&":
			res = int64(li & ri)
		case "|":
			res = int64(li | ri)
		case "^":
			res = int64(li ^ ri)
		case "<<":
			res = int64(li << (uint32(ri) & 31))
		case ">>":
			res = int64(li >> (uint32(ri) & 31))
		case ">>>":
			res = int64(uint32(li) >> (uint32(ri) & 31))
		}
		return numberLiteral(f, float64(res), pos, end), true
	}
	return nil, false
}

// literalEqual folds == and === for combinations where coercion is
// unambiguous; anything else (e.g. loose number/string comparison with
// exotic string contents) is left unfolded rather than risk a wrong
// answer.
func literalEqual(l, r *ir.Literal, strict bool) (bool, bool) {
	bothNullish := func(x *ir.Literal) bool {
		return x.ValueKind == ir.NullLiteral || x.ValueKind == ir.UndefinedLiteral
	}
	if l.ValueKind == r.ValueKind {
		switch l.ValueKind {
		case ir.NumberLiteral:
			return l.Value.(float64) == r.Value.(float64), true
		case ir.StringLiteral:
			return l.Value.(string) == r.Value.(string), true
		case ir.BoolLiteral:
			return l.Value.(bool) == r.Value.(bool), true
		case ir.NullLiteral, ir.UndefinedLiteral:
			return true, true
		default:
			return false, false
		}
	}
	if strict {
		return false, true
	}
	if bothNullish(l) && bothNullish(r) {
		return true, true
	}
	if bothNullish(l) || bothNullish(r) {
		return false, true
	}
	ln, ok1 := jsToNumber(l)
	rn, ok2 := jsToNumber(r)
	if ok1 && ok2 {
		return ln == rn, true
	}
	return false, false
}

func compareLiteral(f *ir.Factory, op string, l, r *ir.Literal, pos, end ir.Position) (*ir.Literal, bool) {
	if l.ValueKind == ir.StringLiteral && r.ValueKind == ir.StringLiteral {
		ls, rs := l.Value.(string), r.Value.(string)
		var res bool
		switch op {
		case "<":
			res = ls < rs
		case "<=":
			res = ls <= rs
		case ">":
			res = ls > rs
		case ">=":
			res = ls >= rs
		}
		return boolLiteral(f, res, pos, end), true
	}
	ln, ok1 := jsToNumber(l)
	rn, ok2 := jsToNumber(r)
	if !ok1 || !ok2 {
		return nil, false
	}
	var res bool
	switch op {
	case "<":
		res = ln < rn
	case "<=":
		res = ln <= rn
	case ">":
		res = ln > rn
	case ">=":
		res = ln >= rn
	}
	return boolLiteral(f, res, pos, end), true
}

func evalUnary(f *ir.Factory, op string, arg *ir.Literal, pos, end ir.Position) (*ir.Literal, bool) {
	switch op {
	case "-":
		n, ok := jsToNumber(arg)
		if !ok {
			return nil, false
		}
		return numberLiteral(f, -n, pos, end), true
	case "+":
		n, ok := jsToNumber(arg)
		if !ok {
			return nil, false
		}
		return numberLiteral(f, n, pos, end), true
	case "!":
		return boolLiteral(f, !truthy(arg), pos, end), true
	case "~":
		n, ok := jsToNumber(arg)
		if !ok {
			return nil, false
		}
		return numberLiteral(f, float64(^toInt32(n)), pos, end), true
	case "typeof":
		t := jsTypeof(arg)
		return f.Literal(ir.StringLiteral, t, strconv.Quote(t), pos, end), true
	case "void":
		return f.Literal(ir.UndefinedLiteral, nil, "undefined", pos, end), true
	}
	return nil, false
}

// evalLogical folds &&, ||, and ?? by their short-circuit rule: when
// the left side is a known Literal the result is determined without
// needing the right side to be constant too (`x || fallback` folds to
// `fallback` whenever x is a known falsy literal, even if fallback is
// an arbitrary expression).
func evalLogical(op string, left, right ir.Expr) (ir.Expr, bool) {
	ll, ok := left.(*ir.Literal)
	if !ok {
		return nil, false
	}
	switch op {
	case "&&":
		if !truthy(ll) {
			return left, true
		}
		return right, true
	case "||":
		if truthy(ll) {
			return left, true
		}
		return right, true
	case "??":
		if ll.ValueKind == ir.NullLiteral || ll.ValueKind == ir.UndefinedLiteral {
			return right, true
		}
		return left, true
	}
	return nil, false
}
