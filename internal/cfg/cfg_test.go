package cfg

import (
	"testing"

	"github.com/stretchr/testify/require"

	"deobcore/internal/ir"
)

func pos() ir.Position { return ir.Position{Line: 1} }

func TestBuildLinearProgramHasEntryExitAndOneEdge(t *testing.T) {
	gen := ir.NewGenerator()
	f := ir.NewFactory(gen)

	x := f.Identifier("x", pos(), pos(), ir.NoScope)
	lit := f.Literal(ir.NumberLiteral, 1.0, "1", pos(), pos())
	assign := f.ExpressionStatement(f.AssignmentExpression("=", x, lit, pos(), pos()), pos(), pos())

	graph, err := Build(gen, []ir.Stmt{assign})
	require.NoError(t, err)
	require.NotZero(t, graph.Entry)
	require.NotZero(t, graph.Exit)
	require.Contains(t, graph.Block(graph.Entry).Statements, ir.Stmt(assign))
	require.True(t, graph.Block(graph.Entry).Successors.Has(graph.Exit))
}

func TestBuildIfStatementJoinsBothBranches(t *testing.T) {
	gen := ir.NewGenerator()
	f := ir.NewFactory(gen)

	test := f.Literal(ir.BoolLiteral, true, "true", pos(), pos())
	thenStmt := f.ExpressionStatement(f.Identifier("a", pos(), pos(), ir.NoScope), pos(), pos())
	elseStmt := f.ExpressionStatement(f.Identifier("b", pos(), pos(), ir.NoScope), pos(), pos())
	ifStmt := f.IfStatement(test, thenStmt, elseStmt, pos(), pos())

	graph, err := Build(gen, []ir.Stmt{ifStmt})
	require.NoError(t, err)

	Analyze(graph)

	// Entry's test block should have two successors (then/else), and both
	// branches should reach Exit, which Entry dominates.
	testBlock := graph.Block(graph.Entry)
	require.Len(t, testBlock.Successors, 2)
	require.True(t, graph.Block(graph.Exit).Dominators.Has(graph.Entry))
}

func TestBuildWhileLoopHasBackEdgeAndLoopDepth(t *testing.T) {
	gen := ir.NewGenerator()
	f := ir.NewFactory(gen)

	test := f.Literal(ir.BoolLiteral, true, "true", pos(), pos())
	body := f.ExpressionStatement(f.Identifier("x", pos(), pos(), ir.NoScope), pos(), pos())
	loop := f.WhileStatement(test, body, pos(), pos())

	graph, err := Build(gen, []ir.Stmt{loop})
	require.NoError(t, err)

	Analyze(graph)

	require.Len(t, graph.Loops, 1)
	l := graph.Loops[0]
	require.Equal(t, l.Header, graph.Loops[0].Header)

	for _, id := range l.Body.Sorted() {
		require.Greater(t, graph.Block(id).LoopDepth, 0)
	}
}

func TestBuildBreakOutsideLoopFails(t *testing.T) {
	gen := ir.NewGenerator()
	f := ir.NewFactory(gen)

	brk := f.BreakStatement(nil, pos(), pos())

	_, err := Build(gen, []ir.Stmt{brk})
	require.Error(t, err)
	var ce *ConstructionError
	require.ErrorAs(t, err, &ce)
}

func TestBuildSwitchFallthroughChainsCases(t *testing.T) {
	gen := ir.NewGenerator()
	f := ir.NewFactory(gen)

	discriminant := f.Identifier("state", pos(), pos(), ir.NoScope)
	case0Body := f.ExpressionStatement(f.Identifier("a", pos(), pos(), ir.NoScope), pos(), pos())
	case1Body := f.BreakStatement(nil, pos(), pos())
	case0 := f.SwitchCase(f.Literal(ir.NumberLiteral, 0.0, "0", pos(), pos()), []ir.Stmt{case0Body}, pos(), pos())
	case1 := f.SwitchCase(f.Literal(ir.NumberLiteral, 1.0, "1", pos(), pos()), []ir.Stmt{case1Body}, pos(), pos())
	sw := f.SwitchStatement(discriminant, []*ir.SwitchCase{case0, case1}, pos(), pos())

	graph, err := Build(gen, []ir.Stmt{sw})
	require.NoError(t, err)

	foundFallthrough := false
	for _, e := range graph.Edges {
		if e.Type == Fallthrough {
			foundFallthrough = true
		}
	}
	require.True(t, foundFallthrough, "expected a fallthrough edge from case 0 into case 1")
}

func TestCyclomaticComplexityOfLinearProgramIsOne(t *testing.T) {
	gen := ir.NewGenerator()
	f := ir.NewFactory(gen)
	stmt := f.ExpressionStatement(f.Identifier("x", pos(), pos(), ir.NoScope), pos(), pos())

	graph, err := Build(gen, []ir.Stmt{stmt})
	require.NoError(t, err)
	require.Equal(t, 1, graph.CyclomaticComplexity())
}
