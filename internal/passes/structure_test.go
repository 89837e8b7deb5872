package passes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"deobcore/internal/ir"
)

func TestStructuringRebuildsIfElseDiamond(t *testing.T) {
	gen := ir.NewGenerator()
	f := ir.NewFactory(gen)

	callB := f.ExpressionStatement(f.CallExpression(f.Identifier("b", pos(), pos(), ir.NoScope), nil, pos(), pos()), pos(), pos())
	callC := f.ExpressionStatement(f.CallExpression(f.Identifier("c", pos(), pos(), ir.NoScope), nil, pos(), pos()), pos(), pos())
	ifStmt := f.IfStatement(f.Identifier("a", pos(), pos(), ir.NoScope), callB, callC, pos(), pos())
	after := f.ExpressionStatement(f.CallExpression(f.Identifier("d", pos(), pos(), ir.NoScope), nil, pos(), pos()), pos(), pos())

	state := buildState(t, gen, []ir.Stmt{ifStmt, after})
	res, err := Structuring{}.Run(state)
	require.NoError(t, err)
	require.True(t, res.Changed)
	require.Empty(t, res.Warnings)

	graph := res.State.Graph
	entry := graph.Block(graph.Entry)
	require.NotEmpty(t, entry.Statements)
	rebuilt, ok := entry.Statements[len(entry.Statements)-1].(*ir.IfStatement)
	require.True(t, ok)
	consBlock, ok := rebuilt.Consequent.(*ir.BlockStatement)
	require.True(t, ok)
	require.Len(t, consBlock.Body, 1)
	altBlock, ok := rebuilt.Alternate.(*ir.BlockStatement)
	require.True(t, ok)
	require.Len(t, altBlock.Body, 1)
}

func TestStructuringIsIdempotent(t *testing.T) {
	gen := ir.NewGenerator()
	f := ir.NewFactory(gen)

	callB := f.ExpressionStatement(f.CallExpression(f.Identifier("b", pos(), pos(), ir.NoScope), nil, pos(), pos()), pos(), pos())
	ifStmt := f.IfStatement(f.Identifier("a", pos(), pos(), ir.NoScope), callB, nil, pos(), pos())

	state := buildState(t, gen, []ir.Stmt{ifStmt})
	st := Structuring{}
	res1, err := st.Run(state)
	require.NoError(t, err)
	require.True(t, res1.Changed)

	res2, err := st.Run(res1.State)
	require.NoError(t, err)
	require.False(t, res2.Changed)
}
