package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFactoryStampsUniqueNodeIDs(t *testing.T) {
	gen := NewGenerator()
	f := NewFactory(gen)

	seen := map[NodeID]bool{}
	a := f.Identifier("x", Position{}, Position{}, NoScope)
	b := f.Identifier("y", Position{}, Position{}, NoScope)
	bin := f.BinaryExpression("+", a, b, Position{}, Position{})

	for _, n := range []Node{a, b, bin} {
		require.False(t, seen[n.NodeID()], "duplicate NodeID %d", n.NodeID())
		seen[n.NodeID()] = true
	}
}

func TestCloneMintsFreshIDsPreservesFields(t *testing.T) {
	gen := NewGenerator()
	f := NewFactory(gen)

	orig := f.BinaryExpression("+",
		f.Literal(NumberLiteral, 2.0, "2", Position{Line: 1}, Position{Line: 1}),
		f.Literal(NumberLiteral, 3.0, "3", Position{Line: 1}, Position{Line: 1}),
		Position{Line: 1}, Position{Line: 1})

	cloned := Clone(f, orig).(*BinaryExpression)

	require.NotEqual(t, orig.NodeID(), cloned.NodeID())
	require.Equal(t, orig.Operator, cloned.Operator)
	require.NotEqual(t, orig.Left.NodeID(), cloned.Left.NodeID())
	require.Equal(t, orig.Left.(*Literal).Value, cloned.Left.(*Literal).Value)

	pos, end := cloned.Loc()
	origPos, origEnd := orig.Loc()
	require.Equal(t, origPos, pos)
	require.Equal(t, origEnd, end)
}

func TestCloneIsIdempotentModuloIDs(t *testing.T) {
	gen := NewGenerator()
	f := NewFactory(gen)
	orig := f.Identifier("x", Position{}, Position{}, NoScope)

	c1 := Clone(f, orig)
	c2 := Clone(f, c1)

	require.Equal(t, c1.(*Identifier).Name, c2.(*Identifier).Name)
	require.NotEqual(t, c1.NodeID(), c2.NodeID())
}

func TestExpressionAndStatementCategoriesAreDisjoint(t *testing.T) {
	for k := range exprKinds {
		require.False(t, stmtKinds[k], "kind %v present in both categories", k)
	}
}

func TestExtractIdentifiersPreOrder(t *testing.T) {
	gen := NewGenerator()
	f := NewFactory(gen)

	a := f.Identifier("a", Position{}, Position{}, NoScope)
	b := f.Identifier("b", Position{}, Position{}, NoScope)
	expr := f.BinaryExpression("+", a, b, Position{}, Position{})

	ids := ExtractIdentifiers(expr)
	require.Len(t, ids, 2)
	require.Equal(t, VariableName("a"), ids[0].Name)
	require.Equal(t, VariableName("b"), ids[1].Name)
}

func TestHasSSAMetadata(t *testing.T) {
	gen := NewGenerator()
	f := NewFactory(gen)
	id := f.Identifier("x", Position{}, Position{}, NoScope)
	require.False(t, id.HasSSAMetadata())

	id.SSA = &SSAMeta{Version: 1}
	require.True(t, id.HasSSAMetadata())
}
