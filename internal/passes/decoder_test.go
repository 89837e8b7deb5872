package passes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"deobcore/internal/contracts"
	"deobcore/internal/ir"
)

func TestDecoderLiftingRewritesArrayLookupCall(t *testing.T) {
	gen := ir.NewGenerator()
	f := ir.NewFactory(gen)

	table := f.ArrayExpression([]ir.Expr{
		f.Literal(ir.StringLiteral, "foo", `"foo"`, pos(), pos()),
		f.Literal(ir.StringLiteral, "bar", `"bar"`, pos(), pos()),
	}, pos(), pos())
	arrDecl := f.VariableDeclaration(ir.VarKind,
		[]*ir.VariableDeclarator{f.VariableDeclarator(f.Identifier("_arr", pos(), pos(), ir.NoScope), table, pos(), pos())},
		pos(), pos())

	param := f.Identifier("i", pos(), pos(), ir.NoScope)
	body := f.BlockStatement([]ir.Stmt{
		f.ReturnStatement(f.MemberExpression(f.Identifier("_arr", pos(), pos(), ir.NoScope), f.Identifier("i", pos(), pos(), ir.NoScope), true, pos(), pos()), pos(), pos()),
	}, pos(), pos(), ir.NoScope)
	decodeFn := f.FunctionDeclaration(f.Identifier("decode", pos(), pos(), ir.NoScope), []*ir.Identifier{param}, body, false, false, pos(), pos(), ir.NoScope)

	call := f.CallExpression(f.Identifier("decode", pos(), pos(), ir.NoScope),
		[]ir.Expr{f.Literal(ir.NumberLiteral, 1.0, "1", pos(), pos())}, pos(), pos())
	callStmt := f.ExpressionStatement(call, pos(), pos())

	state := buildState(t, gen, []ir.Stmt{arrDecl, decodeFn, callStmt})
	res, err := DecoderLifting{}.Run(state)
	require.NoError(t, err)
	require.True(t, res.Changed)
	require.Empty(t, res.Warnings)

	found := false
	for _, blk := range state.Graph.Blocks {
		for _, stmt := range blk.Statements {
			exprStmt, ok := stmt.(*ir.ExpressionStatement)
			if !ok {
				continue
			}
			lit, ok := exprStmt.Expression.(*ir.Literal)
			if !ok {
				continue
			}
			require.Equal(t, "bar", lit.Value)
			found = true
		}
	}
	require.True(t, found, "expected the call site to be rewritten to a Literal")
}

func TestDecoderLiftingRewritesRot13CallWithOracleSupport(t *testing.T) {
	gen := ir.NewGenerator()
	f := ir.NewFactory(gen)

	// The body's own shape is irrelevant here (it's not an array-lookup
	// decoder) -- the decoder name itself is what classifyByName gates on.
	param := f.Identifier("s", pos(), pos(), ir.NoScope)
	body := f.BlockStatement([]ir.Stmt{
		f.ReturnStatement(f.Identifier("s", pos(), pos(), ir.NoScope), pos(), pos()),
	}, pos(), pos(), ir.NoScope)
	decodeFn := f.FunctionDeclaration(f.Identifier("rot13Decode", pos(), pos(), ir.NoScope),
		[]*ir.Identifier{param}, body, false, false, pos(), pos(), ir.NoScope)

	call := f.CallExpression(f.Identifier("rot13Decode", pos(), pos(), ir.NoScope),
		[]ir.Expr{f.Literal(ir.StringLiteral, "uryyb", `"uryyb"`, pos(), pos())}, pos(), pos())
	callStmt := f.ExpressionStatement(call, pos(), pos())

	oracle := &contracts.ExecutionTrace{
		Success: true,
		Entries: []contracts.TraceEntry{
			{
				Kind:   contracts.FunctionCall,
				Result: "hello",
				Metadata: contracts.TraceMetadata{
					IRCorrelationNodeID: call.NodeID(),
				},
			},
		},
	}

	state := buildState(t, gen, []ir.Stmt{decodeFn, callStmt})
	res, err := DecoderLifting{Oracle: oracle}.Run(state)
	require.NoError(t, err)
	require.True(t, res.Changed)
	require.Empty(t, res.Warnings)

	var rewritten *ir.Literal
	for _, blk := range state.Graph.Blocks {
		for _, stmt := range blk.Statements {
			if exprStmt, ok := stmt.(*ir.ExpressionStatement); ok {
				if lit, ok := exprStmt.Expression.(*ir.Literal); ok {
					rewritten = lit
				}
			}
		}
	}
	require.NotNil(t, rewritten, "expected the call site to be rewritten to a Literal")
	require.Equal(t, "hello", rewritten.Value)
}

func TestDecoderLiftingSkipsRewriteOnEmptyOracle(t *testing.T) {
	gen := ir.NewGenerator()
	f := ir.NewFactory(gen)

	call := f.CallExpression(f.Identifier("rot13Decode", pos(), pos(), ir.NoScope),
		[]ir.Expr{f.Literal(ir.StringLiteral, "uryyb", `"uryyb"`, pos(), pos())}, pos(), pos())
	callStmt := f.ExpressionStatement(call, pos(), pos())

	oracle := &contracts.ExecutionTrace{Success: true}

	state := buildState(t, gen, []ir.Stmt{callStmt})
	res, err := DecoderLifting{Oracle: oracle}.Run(state)
	require.NoError(t, err)
	require.False(t, res.Changed)
	require.Empty(t, res.Warnings)

	entry := state.Graph.Block(state.Graph.Entry)
	exprStmt, ok := entry.Statements[0].(*ir.ExpressionStatement)
	require.True(t, ok)
	_, stillACall := exprStmt.Expression.(*ir.CallExpression)
	require.True(t, stillACall)
}
