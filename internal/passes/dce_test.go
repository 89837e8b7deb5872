package passes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"deobcore/internal/cfg"
	"deobcore/internal/ir"
	"deobcore/internal/pass"
	"deobcore/internal/ssa"
)

func TestDeadCodeEliminationRemovesUnusedPureDef(t *testing.T) {
	gen := ir.NewGenerator()
	f := ir.NewFactory(gen)

	deadDef := f.Identifier("dead", pos(), pos(), ir.NoScope)
	deadStmt := f.ExpressionStatement(f.AssignmentExpression("=", deadDef,
		f.Literal(ir.NumberLiteral, 1.0, "1", pos(), pos()), pos(), pos()), pos(), pos())

	liveDef := f.Identifier("live", pos(), pos(), ir.NoScope)
	liveStmt := f.ExpressionStatement(f.AssignmentExpression("=", liveDef,
		f.Literal(ir.NumberLiteral, 2.0, "2", pos(), pos()), pos(), pos()), pos(), pos())
	liveUse := f.Identifier("live", pos(), pos(), ir.NoScope)
	useStmt := f.ReturnStatement(liveUse, pos(), pos())

	graph, err := cfg.Build(gen, []ir.Stmt{deadStmt, liveStmt, useStmt})
	require.NoError(t, err)
	cfg.Analyze(graph)
	ssa.Build(gen, graph)

	state := &pass.State{Graph: graph, Gen: gen}
	res, err := DeadCodeElimination{}.Run(state)
	require.NoError(t, err)
	require.True(t, res.Changed)

	var stmts []ir.Stmt
	for _, blk := range graph.Blocks {
		stmts = append(stmts, blk.Statements...)
	}
	require.NotContains(t, stmts, ir.Stmt(deadStmt))
	require.Contains(t, stmts, ir.Stmt(liveStmt))
}

func TestDeadCodeEliminationKeepsCallForSideEffects(t *testing.T) {
	gen := ir.NewGenerator()
	f := ir.NewFactory(gen)

	call := f.CallExpression(f.Identifier("doEffect", pos(), pos(), ir.NoScope), nil, pos(), pos())
	callStmt := f.ExpressionStatement(call, pos(), pos())

	graph, err := cfg.Build(gen, []ir.Stmt{callStmt})
	require.NoError(t, err)
	cfg.Analyze(graph)
	ssa.Build(gen, graph)

	state := &pass.State{Graph: graph, Gen: gen}
	res, err := DeadCodeElimination{}.Run(state)
	require.NoError(t, err)
	require.False(t, res.Changed)
}

func TestDeadCodeEliminationKeepsLivePhi(t *testing.T) {
	gen := ir.NewGenerator()
	f := ir.NewFactory(gen)

	test := f.Literal(ir.BoolLiteral, true, "true", pos(), pos())
	thenDef := f.Identifier("x", pos(), pos(), ir.NoScope)
	thenStmt := f.ExpressionStatement(f.AssignmentExpression("=", thenDef,
		f.Literal(ir.NumberLiteral, 1.0, "1", pos(), pos()), pos(), pos()), pos(), pos())
	elseDef := f.Identifier("x", pos(), pos(), ir.NoScope)
	elseStmt := f.ExpressionStatement(f.AssignmentExpression("=", elseDef,
		f.Literal(ir.NumberLiteral, 2.0, "2", pos(), pos()), pos(), pos()), pos(), pos())
	ifStmt := f.IfStatement(test, thenStmt, elseStmt, pos(), pos())

	use := f.Identifier("x", pos(), pos(), ir.NoScope)
	afterStmt := f.ReturnStatement(use, pos(), pos())

	graph, err := cfg.Build(gen, []ir.Stmt{ifStmt, afterStmt})
	require.NoError(t, err)
	cfg.Analyze(graph)
	ssa.Build(gen, graph)

	state := &pass.State{Graph: graph, Gen: gen}
	_, err = DeadCodeElimination{}.Run(state)
	require.NoError(t, err)

	var sawPhi bool
	for _, blk := range graph.Blocks {
		for _, phi := range blk.Phis {
			if phi.Variable == "x" {
				sawPhi = true
			}
		}
	}
	require.True(t, sawPhi, "phi feeding a live use must survive")
}
