package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"

	"deobcore/internal/ir"
)

func pos() ir.Position { return ir.Position{Line: 1} }

func TestAnalyzeFoldsConstantsEndToEnd(t *testing.T) {
	gen := ir.NewGenerator()
	f := ir.NewFactory(gen)

	// var a = 2+3; var b = a*a; return b;
	aDecl := f.VariableDeclaration(ir.VarKind,
		[]*ir.VariableDeclarator{f.VariableDeclarator(
			f.Identifier("a", pos(), pos(), ir.NoScope),
			f.BinaryExpression("+", f.Literal(ir.NumberLiteral, 2.0, "2", pos(), pos()), f.Literal(ir.NumberLiteral, 3.0, "3", pos(), pos()), pos(), pos()),
			pos(), pos())},
		pos(), pos())
	bDecl := f.VariableDeclaration(ir.VarKind,
		[]*ir.VariableDeclarator{f.VariableDeclarator(
			f.Identifier("b", pos(), pos(), ir.NoScope),
			f.BinaryExpression("*", f.Identifier("a", pos(), pos(), ir.NoScope), f.Identifier("a", pos(), pos(), ir.NoScope), pos(), pos()),
			pos(), pos())},
		pos(), pos())
	ret := f.ReturnStatement(f.Identifier("b", pos(), pos(), ir.NoScope), pos(), pos())

	program := &ir.Program{Body: []ir.Stmt{aDecl, bDecl, ret}, Source: ir.Script}

	data := Analyze(program, Options{Gen: gen}, nil)
	require.True(t, data.Metadata.Success)
	require.Empty(t, data.Metadata.Errors)
	require.NotEmpty(t, data.Passes)
	require.NotZero(t, data.CFG.Entry)
}

func TestAnalyzeReportsConstructionFailure(t *testing.T) {
	gen := ir.NewGenerator()
	f := ir.NewFactory(gen)

	// break outside any loop/switch is a CFG construction error.
	stray := f.BreakStatement(nil, pos(), pos())
	program := &ir.Program{Body: []ir.Stmt{stray}, Source: ir.Script}

	data := Analyze(program, Options{Gen: gen}, nil)
	require.False(t, data.Metadata.Success)
	require.NotEmpty(t, data.Metadata.Errors)
	require.Empty(t, data.Passes)
}
