package passes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"deobcore/internal/cfg"
	"deobcore/internal/ir"
	"deobcore/internal/pass"
	"deobcore/internal/ssa"
)

func TestCopyPropagationRedirectsUseToOriginalSource(t *testing.T) {
	gen := ir.NewGenerator()
	f := ir.NewFactory(gen)

	yDef := f.Identifier("y", pos(), pos(), ir.NoScope)
	yInit := f.ExpressionStatement(f.AssignmentExpression("=", yDef,
		f.Identifier("param", pos(), pos(), ir.NoScope), pos(), pos()), pos(), pos())

	xDef := f.Identifier("x", pos(), pos(), ir.NoScope)
	copyStmt := f.ExpressionStatement(f.AssignmentExpression("=", xDef,
		f.Identifier("y", pos(), pos(), ir.NoScope), pos(), pos()), pos(), pos())

	use := f.Identifier("x", pos(), pos(), ir.NoScope)
	readStmt := f.ExpressionStatement(use, pos(), pos())

	graph, err := cfg.Build(gen, []ir.Stmt{yInit, copyStmt, readStmt})
	require.NoError(t, err)
	cfg.Analyze(graph)
	ssa.Build(gen, graph)

	state := &pass.State{Graph: graph, Gen: gen}
	res, err := CopyPropagation{}.Run(state)
	require.NoError(t, err)
	require.True(t, res.Changed)

	rewritten, ok := readStmt.Expression.(*ir.Identifier)
	require.True(t, ok)
	require.Equal(t, ir.VariableName("y"), rewritten.Name)
}

func TestCopyPropagationLeavesNonCopyAssignmentsAlone(t *testing.T) {
	gen := ir.NewGenerator()
	f := ir.NewFactory(gen)

	xDef := f.Identifier("x", pos(), pos(), ir.NoScope)
	assign := f.ExpressionStatement(f.AssignmentExpression("=", xDef,
		f.BinaryExpression("+", f.Literal(ir.NumberLiteral, 1.0, "1", pos(), pos()),
			f.Literal(ir.NumberLiteral, 2.0, "2", pos(), pos()), pos(), pos()), pos(), pos()), pos(), pos())

	state := &pass.State{}
	graph, err := cfg.Build(gen, []ir.Stmt{assign})
	require.NoError(t, err)
	cfg.Analyze(graph)
	ssa.Build(gen, graph)
	state.Graph = graph
	state.Gen = gen

	res, err := CopyPropagation{}.Run(state)
	require.NoError(t, err)
	require.False(t, res.Changed)
}
