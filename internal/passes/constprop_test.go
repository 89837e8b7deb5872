package passes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"deobcore/internal/cfg"
	"deobcore/internal/ir"
	"deobcore/internal/pass"
	"deobcore/internal/ssa"
)

func pos() ir.Position { return ir.Position{Line: 1} }

// buildState wires stmts through cfg.Build + cfg.Analyze + ssa.Build,
// the precondition the simplification passes all assume. gen must be
// the same Generator the statements' Factory used, so block NodeIDs
// and statement NodeIDs share one id space.
func buildState(t *testing.T, gen *ir.Generator, stmts []ir.Stmt) *pass.State {
	t.Helper()
	graph, err := cfg.Build(gen, stmts)
	require.NoError(t, err)
	cfg.Analyze(graph)
	ssa.Build(gen, graph)
	return &pass.State{Graph: graph, Gen: gen}
}

func TestConstantPropagationFoldsArithmetic(t *testing.T) {
	gen := ir.NewGenerator()
	f := ir.NewFactory(gen)
	expr := f.BinaryExpression("+",
		f.Literal(ir.NumberLiteral, 1.0, "1", pos(), pos()),
		f.Literal(ir.NumberLiteral, 2.0, "2", pos(), pos()), pos(), pos())
	stmt := f.ExpressionStatement(expr, pos(), pos())

	state := buildState(t, gen, []ir.Stmt{stmt})
	res, err := ConstantPropagation{}.Run(state)
	require.NoError(t, err)
	require.True(t, res.Changed)

	lit, ok := stmt.Expression.(*ir.Literal)
	require.True(t, ok)
	require.Equal(t, 3.0, lit.Value)
}

func TestConstantPropagationPropagatesToUse(t *testing.T) {
	g := ir.NewGenerator()
	f := ir.NewFactory(g)

	defIdent := f.Identifier("x", pos(), pos(), ir.NoScope)
	assign := f.ExpressionStatement(f.AssignmentExpression("=", defIdent,
		f.Literal(ir.NumberLiteral, 7.0, "7", pos(), pos()), pos(), pos()), pos(), pos())

	use := f.Identifier("x", pos(), pos(), ir.NoScope)
	readStmt := f.ExpressionStatement(use, pos(), pos())

	gen := g
	graph, err := cfg.Build(gen, []ir.Stmt{assign, readStmt})
	require.NoError(t, err)
	cfg.Analyze(graph)
	ssa.Build(gen, graph)

	state := &pass.State{Graph: graph, Gen: gen}
	res, err := ConstantPropagation{}.Run(state)
	require.NoError(t, err)
	require.True(t, res.Changed)

	lit, ok := readStmt.Expression.(*ir.Literal)
	require.True(t, ok)
	require.Equal(t, 7.0, lit.Value)
}

func TestConstantPropagationFoldsLogicalShortCircuit(t *testing.T) {
	gen := ir.NewGenerator()
	f := ir.NewFactory(gen)
	fallback := f.Identifier("fallback", pos(), pos(), ir.NoScope)
	expr := f.LogicalExpression("||",
		f.Literal(ir.BoolLiteral, false, "false", pos(), pos()), fallback, pos(), pos())
	stmt := f.ExpressionStatement(expr, pos(), pos())

	state := buildState(t, gen, []ir.Stmt{stmt})
	res, err := ConstantPropagation{}.Run(state)
	require.NoError(t, err)
	require.True(t, res.Changed)
	require.Equal(t, ir.Expr(fallback), stmt.Expression)
}

func TestConstantPropagationReachesLocalFixedPointThenStops(t *testing.T) {
	gen := ir.NewGenerator()
	f := ir.NewFactory(gen)
	expr := f.BinaryExpression("*",
		f.BinaryExpression("+", f.Literal(ir.NumberLiteral, 1.0, "1", pos(), pos()),
			f.Literal(ir.NumberLiteral, 2.0, "2", pos(), pos()), pos(), pos()),
		f.Literal(ir.NumberLiteral, 3.0, "3", pos(), pos()), pos(), pos())
	stmt := f.ExpressionStatement(expr, pos(), pos())

	state := buildState(t, gen, []ir.Stmt{stmt})
	cp := ConstantPropagation{}
	res, err := cp.Run(state)
	require.NoError(t, err)
	require.True(t, res.Changed)
	lit, ok := stmt.Expression.(*ir.Literal)
	require.True(t, ok)
	require.Equal(t, 9.0, lit.Value)

	res2, err := cp.Run(state)
	require.NoError(t, err)
	require.False(t, res2.Changed)
}
