package irtext

import (
	"fmt"
	"strconv"
	"strings"

	"deobcore/internal/ir"
)

// print renders an ir.Program back into the textual dialect. It is the
// inverse of build, modulo formatting: Parse(Print(p)) reproduces p's
// structure, but Print is not expected to reproduce the original source
// a Parser produced p from.
func print(program *ir.Program) (string, error) {
	var sb strings.Builder
	p := &printerState{sb: &sb}
	for _, s := range program.Body {
		if err := p.stmt(s, 0); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

type printerState struct {
	sb *strings.Builder
}

func (p *printerState) indent(n int) {
	p.sb.WriteString(strings.Repeat("  ", n))
}

func (p *printerState) stmt(s ir.Stmt, depth int) error {
	p.indent(depth)
	switch v := s.(type) {
	case *ir.VariableDeclaration:
		if len(v.Declarations) != 1 {
			return fmt.Errorf("irtext: print only supports single-declarator var statements, got %d", len(v.Declarations))
		}
		d := v.Declarations[0]
		id, ok := d.Id.(*ir.Identifier)
		if !ok {
			return fmt.Errorf("irtext: print only supports identifier declarators")
		}
		p.sb.WriteString(string(v.VarKind))
		p.sb.WriteByte(' ')
		p.sb.WriteString(string(id.Name))
		p.sb.WriteString(" = ")
		if err := p.expr(d.Init); err != nil {
			return err
		}
		p.sb.WriteString(";\n")
	case *ir.FunctionDeclaration:
		p.sb.WriteString("function ")
		if v.Name != nil {
			p.sb.WriteString(string(v.Name.Name))
		}
		p.sb.WriteByte('(')
		for i, param := range v.Params {
			if i > 0 {
				p.sb.WriteString(", ")
			}
			p.sb.WriteString(string(param.Name))
		}
		p.sb.WriteString(") ")
		return p.block(v.Body, depth)
	case *ir.ReturnStatement:
		p.sb.WriteString("return")
		if v.Argument != nil {
			p.sb.WriteByte(' ')
			if err := p.expr(v.Argument); err != nil {
				return err
			}
		}
		p.sb.WriteString(";\n")
	case *ir.IfStatement:
		p.sb.WriteString("if (")
		if err := p.expr(v.Test); err != nil {
			return err
		}
		p.sb.WriteString(") ")
		if err := p.blockOrStmt(v.Consequent, depth); err != nil {
			return err
		}
		if v.Alternate != nil {
			p.indent(depth)
			p.sb.WriteString("else ")
			if err := p.blockOrStmt(v.Alternate, depth); err != nil {
				return err
			}
		}
	case *ir.WhileStatement:
		p.sb.WriteString("while (")
		if err := p.expr(v.Test); err != nil {
			return err
		}
		p.sb.WriteString(") ")
		return p.blockOrStmt(v.Body, depth)
	case *ir.BreakStatement:
		p.sb.WriteString("break")
		if v.Label != nil {
			p.sb.WriteByte(' ')
			p.sb.WriteString(string(v.Label.Name))
		}
		p.sb.WriteString(";\n")
	case *ir.ContinueStatement:
		p.sb.WriteString("continue")
		if v.Label != nil {
			p.sb.WriteByte(' ')
			p.sb.WriteString(string(v.Label.Name))
		}
		p.sb.WriteString(";\n")
	case *ir.BlockStatement:
		return p.block(v, depth)
	case *ir.ExpressionStatement:
		if err := p.expr(v.Expression); err != nil {
			return err
		}
		p.sb.WriteString(";\n")
	default:
		return fmt.Errorf("irtext: print does not support statement kind %s", s.Kind())
	}
	return nil
}

func (p *printerState) blockOrStmt(s ir.Stmt, depth int) error {
	if blk, ok := s.(*ir.BlockStatement); ok {
		return p.block(blk, depth)
	}
	p.sb.WriteString("{\n")
	if err := p.stmt(s, depth+1); err != nil {
		return err
	}
	p.indent(depth)
	p.sb.WriteString("}\n")
	return nil
}

func (p *printerState) block(blk *ir.BlockStatement, depth int) error {
	p.sb.WriteString("{\n")
	for _, s := range blk.Body {
		if err := p.stmt(s, depth+1); err != nil {
			return err
		}
	}
	p.indent(depth)
	p.sb.WriteString("}\n")
	return nil
}

func (p *printerState) expr(e ir.Expr) error {
	switch v := e.(type) {
	case *ir.Identifier:
		p.sb.WriteString(string(v.Name))
	case *ir.Literal:
		return p.literal(v)
	case *ir.ArrayExpression:
		p.sb.WriteByte('[')
		for i, el := range v.Elements {
			if i > 0 {
				p.sb.WriteString(", ")
			}
			if err := p.expr(el); err != nil {
				return err
			}
		}
		p.sb.WriteByte(']')
	case *ir.BinaryExpression:
		return p.binary(v.Left, v.Operator, v.Right)
	case *ir.LogicalExpression:
		return p.binary(v.Left, v.Operator, v.Right)
	case *ir.AssignmentExpression:
		return p.binary(v.Left, v.Operator, v.Right)
	case *ir.UnaryExpression:
		p.sb.WriteString(v.Operator)
		return p.expr(v.Argument)
	case *ir.CallExpression:
		if err := p.expr(v.Callee); err != nil {
			return err
		}
		p.sb.WriteByte('(')
		for i, a := range v.Arguments {
			if i > 0 {
				p.sb.WriteString(", ")
			}
			if err := p.expr(a); err != nil {
				return err
			}
		}
		p.sb.WriteByte(')')
	case *ir.MemberExpression:
		if err := p.expr(v.Object); err != nil {
			return err
		}
		if v.Computed {
			p.sb.WriteByte('[')
			if err := p.expr(v.Property); err != nil {
				return err
			}
			p.sb.WriteByte(']')
		} else {
			p.sb.WriteByte('.')
			id, ok := v.Property.(*ir.Identifier)
			if !ok {
				return fmt.Errorf("irtext: non-computed member property must be an identifier")
			}
			p.sb.WriteString(string(id.Name))
		}
	default:
		return fmt.Errorf("irtext: print does not support expression kind %s", e.Kind())
	}
	return nil
}

func (p *printerState) binary(left ir.Expr, op string, right ir.Expr) error {
	p.sb.WriteByte('(')
	if err := p.expr(left); err != nil {
		return err
	}
	p.sb.WriteByte(' ')
	p.sb.WriteString(op)
	p.sb.WriteByte(' ')
	if err := p.expr(right); err != nil {
		return err
	}
	p.sb.WriteByte(')')
	return nil
}

func (p *printerState) literal(lit *ir.Literal) error {
	switch lit.ValueKind {
	case ir.StringLiteral:
		s, _ := lit.Value.(string)
		p.sb.WriteString(strconv.Quote(s))
	case ir.NumberLiteral:
		n, _ := lit.Value.(float64)
		p.sb.WriteString(strconv.FormatFloat(n, 'g', -1, 64))
	case ir.BoolLiteral:
		b, _ := lit.Value.(bool)
		p.sb.WriteString(strconv.FormatBool(b))
	case ir.NullLiteral:
		p.sb.WriteString("null")
	case ir.UndefinedLiteral:
		p.sb.WriteString("undefined")
	default:
		return fmt.Errorf("irtext: print does not support literal kind %s", lit.ValueKind)
	}
	return nil
}
