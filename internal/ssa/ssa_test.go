package ssa

import (
	"testing"

	"github.com/stretchr/testify/require"

	"deobcore/internal/cfg"
	"deobcore/internal/ir"
)

func pos() ir.Position { return ir.Position{Line: 1} }

// buildGraph wires statements through cfg.Build + cfg.Analyze, the
// precondition Build documents.
func buildGraph(t *testing.T, gen *ir.Generator, stmts []ir.Stmt) *cfg.CFG {
	t.Helper()
	graph, err := cfg.Build(gen, stmts)
	require.NoError(t, err)
	cfg.Analyze(graph)
	return graph
}

func TestRenameGivesEachAssignmentAFreshVersion(t *testing.T) {
	gen := ir.NewGenerator()
	f := ir.NewFactory(gen)

	x1 := f.Identifier("x", pos(), pos(), ir.NoScope)
	assign1 := f.ExpressionStatement(f.AssignmentExpression("=", x1,
		f.Literal(ir.NumberLiteral, 1.0, "1", pos(), pos()), pos(), pos()), pos(), pos())

	x2 := f.Identifier("x", pos(), pos(), ir.NoScope)
	assign2 := f.ExpressionStatement(f.AssignmentExpression("=", x2,
		f.Literal(ir.NumberLiteral, 2.0, "2", pos(), pos()), pos(), pos()), pos(), pos())

	graph := buildGraph(t, gen, []ir.Stmt{assign1, assign2})
	Build(gen, graph)

	require.True(t, x1.HasSSAMetadata())
	require.True(t, x2.HasSSAMetadata())
	require.NotEqual(t, x1.SSA.Version, x2.SSA.Version)
}

func TestRenameThreadsUseToReachingDef(t *testing.T) {
	gen := ir.NewGenerator()
	f := ir.NewFactory(gen)

	def := f.Identifier("x", pos(), pos(), ir.NoScope)
	assign := f.ExpressionStatement(f.AssignmentExpression("=", def,
		f.Literal(ir.NumberLiteral, 1.0, "1", pos(), pos()), pos(), pos()), pos(), pos())

	use := f.Identifier("x", pos(), pos(), ir.NoScope)
	readStmt := f.ExpressionStatement(use, pos(), pos())

	graph := buildGraph(t, gen, []ir.Stmt{assign, readStmt})
	Build(gen, graph)

	require.True(t, use.HasSSAMetadata())
	require.Equal(t, def.SSA.Version, use.SSA.Version)
	require.Equal(t, def.NodeID(), use.SSA.Uses[0])
}

func TestRenameInsertsPhiAtIfJoin(t *testing.T) {
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
	afterStmt := f.ExpressionStatement(use, pos(), pos())

	graph := buildGraph(t, gen, []ir.Stmt{ifStmt, afterStmt})
	Build(gen, graph)

	var sawPhi bool
	for _, blk := range graph.Blocks {
		for _, phi := range blk.Phis {
			if phi.Variable == "x" {
				sawPhi = true
				require.Len(t, phi.Operands, 2)
			}
		}
	}
	require.True(t, sawPhi, "expected a phi for x at the if-join block")
	require.True(t, use.HasSSAMetadata())
}

func TestRenameCompoundAssignmentReadsThenWrites(t *testing.T) {
	gen := ir.NewGenerator()
	f := ir.NewFactory(gen)

	initDef := f.Identifier("x", pos(), pos(), ir.NoScope)
	initStmt := f.ExpressionStatement(f.AssignmentExpression("=", initDef,
		f.Literal(ir.NumberLiteral, 0.0, "0", pos(), pos()), pos(), pos()), pos(), pos())

	compoundTarget := f.Identifier("x", pos(), pos(), ir.NoScope)
	compoundStmt := f.ExpressionStatement(f.AssignmentExpression("+=", compoundTarget,
		f.Literal(ir.NumberLiteral, 1.0, "1", pos(), pos()), pos(), pos()), pos(), pos())

	graph := buildGraph(t, gen, []ir.Stmt{initStmt, compoundStmt})
	Build(gen, graph)

	require.True(t, compoundTarget.HasSSAMetadata())
	require.Equal(t, initDef.NodeID(), compoundTarget.SSA.Uses[0])
	require.NotEqual(t, initDef.SSA.Version, compoundTarget.SSA.Version)
}
