package irtext

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"deobcore/internal/ir"
)

// builder walks a parsed AST and emits the equivalent ir.Program via an
// ir.Factory, the same role the teacher's buildParser/ParseString pair
// plays for Kanso's grammar.AST -- except the target here is this
// package's own irtext dialect, not a downstream compiler AST.
type builder struct {
	f    *ir.Factory
	name string
}

func build(gen *ir.Generator, sourceName string, tree *AST) *ir.Program {
	b := &builder{f: ir.NewFactory(gen), name: sourceName}
	body := make([]ir.Stmt, 0, len(tree.Stmts))
	for _, s := range tree.Stmts {
		body = append(body, b.stmt(s))
	}
	start, end := pos(sourceName, lexer.Position{Line: 1, Column: 1}), pos(sourceName, lexer.Position{Line: 1, Column: 1})
	if len(tree.Stmts) > 0 {
		start = pos(sourceName, tree.Stmts[0].Pos)
	}
	return b.f.Program(body, ir.Script, start, end)
}

func pos(name string, p lexer.Position) ir.Position {
	return ir.Position{Filename: name, Line: p.Line, Column: p.Column, Offset: p.Offset}
}

func (b *builder) stmt(s *Stmt) ir.Stmt {
	at := pos(b.name, s.Pos)
	switch {
	case s.Var != nil:
		v := s.Var
		id := b.f.Identifier(ir.VariableName(v.Name), at, at, ir.NoScope)
		init := b.expr(v.Value)
		decl := b.f.VariableDeclarator(id, init, at, at)
		return b.f.VariableDeclaration(ir.VariableKind(v.Kind), []*ir.VariableDeclarator{decl}, at, at)
	case s.Func != nil:
		fn := s.Func
		name := b.f.Identifier(ir.VariableName(fn.Name), at, at, ir.NoScope)
		params := make([]*ir.Identifier, 0, len(fn.Params))
		for _, p := range fn.Params {
			params = append(params, b.f.Identifier(ir.VariableName(p), at, at, ir.NoScope))
		}
		body := b.block(fn.Body)
		return b.f.FunctionDeclaration(name, params, body, false, false, at, at, ir.NoScope)
	case s.Return != nil:
		var arg ir.Expr
		if s.Return.Value != nil {
			arg = b.expr(s.Return.Value)
		}
		return b.f.ReturnStatement(arg, at, at)
	case s.If != nil:
		return b.ifStmt(s.If, at)
	case s.While != nil:
		return b.f.WhileStatement(b.expr(s.While.Cond), b.block(s.While.Body), at, at)
	case s.Break != nil:
		return b.f.BreakStatement(b.label(s.Break.Label, at), at, at)
	case s.Continue != nil:
		return b.f.ContinueStatement(b.label(s.Continue.Label, at), at, at)
	case s.Block != nil:
		return b.block(s.Block)
	case s.Expr != nil:
		return b.f.ExpressionStatement(b.expr(s.Expr.Value), at, at)
	}
	panic(fmt.Sprintf("irtext: empty statement alternative at %s", at))
}

func (b *builder) label(l *string, at ir.Position) *ir.Identifier {
	if l == nil {
		return nil
	}
	return b.f.Identifier(ir.VariableName(*l), at, at, ir.NoScope)
}

func (b *builder) ifStmt(s *IfStmt, at ir.Position) ir.Stmt {
	test := b.expr(s.Cond)
	then := b.block(s.Then)
	var alt ir.Stmt
	if s.Else != nil {
		switch {
		case s.Else.If != nil:
			alt = b.ifStmt(s.Else.If, pos(b.name, s.Else.If.Pos))
		case s.Else.Block != nil:
			alt = b.block(s.Else.Block)
		}
	}
	return b.f.IfStatement(test, then, alt, at, at)
}

func (b *builder) block(blk *Block) *ir.BlockStatement {
	at := pos(b.name, blk.Pos)
	body := make([]ir.Stmt, 0, len(blk.Stmts))
	for _, s := range blk.Stmts {
		body = append(body, b.stmt(s))
	}
	return b.f.BlockStatement(body, at, at, ir.NoScope)
}

func (b *builder) expr(e *Expr) ir.Expr {
	left := b.logical(e.Left)
	if e.Op == nil {
		return left
	}
	right := b.expr(e.Right)
	start, end := left.Loc()
	return b.f.AssignmentExpression(*e.Op, left, right, start, end)
}

func (b *builder) logical(l *Logical) ir.Expr {
	left := b.equality(l.Left)
	for _, r := range l.Rest {
		right := b.equality(r.Right)
		start, end := left.Loc()
		left = b.f.LogicalExpression(r.Op, left, right, start, end)
	}
	return left
}

func (b *builder) equality(e *Equality) ir.Expr {
	left := b.relational(e.Left)
	for _, r := range e.Rest {
		right := b.relational(r.Right)
		start, end := left.Loc()
		left = b.f.BinaryExpression(r.Op, left, right, start, end)
	}
	return left
}

func (b *builder) relational(r *Relational) ir.Expr {
	left := b.additive(r.Left)
	for _, rhs := range r.Rest {
		right := b.additive(rhs.Right)
		start, end := left.Loc()
		left = b.f.BinaryExpression(rhs.Op, left, right, start, end)
	}
	return left
}

func (b *builder) additive(a *Additive) ir.Expr {
	left := b.multiplicative(a.Left)
	for _, r := range a.Rest {
		right := b.multiplicative(r.Right)
		start, end := left.Loc()
		left = b.f.BinaryExpression(r.Op, left, right, start, end)
	}
	return left
}

func (b *builder) multiplicative(m *Multiplicative) ir.Expr {
	left := b.unary(m.Left)
	for _, r := range m.Rest {
		right := b.unary(r.Right)
		start, end := left.Loc()
		left = b.f.BinaryExpression(r.Op, left, right, start, end)
	}
	return left
}

func (b *builder) unary(u *Unary) ir.Expr {
	operand := b.postfix(u.Postfix)
	for i := len(u.Ops) - 1; i >= 0; i-- {
		start, end := operand.Loc()
		operand = b.f.UnaryExpression(u.Ops[i], operand, start, end)
	}
	return operand
}

func (b *builder) postfix(p *Postfix) ir.Expr {
	cur := b.primary(p.Primary)
	for _, op := range p.Ops {
		switch {
		case op.Call != nil:
			args := make([]ir.Expr, 0, len(op.Call.Args))
			for _, a := range op.Call.Args {
				args = append(args, b.expr(a))
			}
			start, end := cur.Loc()
			cur = b.f.CallExpression(cur, args, start, end)
		case op.Dot != nil:
			start, end := cur.Loc()
			prop := b.f.Identifier(ir.VariableName(*op.Dot), start, end, ir.NoScope)
			cur = b.f.MemberExpression(cur, prop, false, start, end)
		case op.Bracket != nil:
			prop := b.expr(op.Bracket)
			start, end := cur.Loc()
			cur = b.f.MemberExpression(cur, prop, true, start, end)
		}
	}
	return cur
}

func (b *builder) primary(p *Primary) ir.Expr {
	at := pos(b.name, p.Pos)
	switch {
	case p.Number != nil:
		n, err := strconv.ParseFloat(strings.TrimSpace(*p.Number), 64)
		if err != nil && strings.HasPrefix(strings.TrimSpace(*p.Number), "0x") {
			var iv int64
			iv, err = strconv.ParseInt((*p.Number)[2:], 16, 64)
			n = float64(iv)
		}
		return b.f.Literal(ir.NumberLiteral, n, *p.Number, at, at)
	case p.String != nil:
		raw := *p.String
		unquoted := raw
		if len(raw) >= 2 {
			unquoted = raw[1 : len(raw)-1]
		}
		return b.f.Literal(ir.StringLiteral, unquoted, raw, at, at)
	case p.Bool != nil:
		return b.f.Literal(ir.BoolLiteral, *p.Bool == "true", *p.Bool, at, at)
	case p.Null:
		return b.f.Literal(ir.NullLiteral, nil, "null", at, at)
	case p.Undef:
		return b.f.Literal(ir.UndefinedLiteral, nil, "undefined", at, at)
	case p.Array != nil:
		elems := make([]ir.Expr, 0, len(p.Array.Elements))
		for _, el := range p.Array.Elements {
			elems = append(elems, b.expr(el))
		}
		return b.f.ArrayExpression(elems, at, at)
	case p.Paren != nil:
		return b.expr(p.Paren)
	case p.Ident != nil:
		return b.f.Identifier(ir.VariableName(*p.Ident), at, at, ir.NoScope)
	}
	panic(fmt.Sprintf("irtext: empty primary alternative at %s", at))
}
